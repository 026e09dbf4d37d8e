package views

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"gait-logger/utils"
)

// FileSink is an append-only file writer with an in-memory buffer and a
// high-water mark.
//
// Write only buffers. Once the buffer holds highWater bytes, Write rejects
// further data with utils.ErrBackpressure until Flush empties the buffer;
// the Flush that empties a rejecting sink signals Drained. A single write is
// always accepted into an empty buffer, however large.
type FileSink struct {
	mu        sync.Mutex
	path      string
	file      afero.File
	buf       bytes.Buffer
	highWater int
	blocked   bool
	drain     chan struct{}
	written   uint64
}

// OpenFileSink opens path for appending, creating it and its directory when
// missing. existing reports whether the file already had content.
func OpenFileSink(fs afero.Fs, path string, highWater int) (sink *FileSink, existing bool, err error) {
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, false, fmt.Errorf("create log dir: %w", err)
	}
	f, err := fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, false, fmt.Errorf("open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, false, fmt.Errorf("stat %s: %w", path, err)
	}

	if highWater <= 0 {
		highWater = 16 * 1024
	}
	return &FileSink{
		path:      path,
		file:      f,
		highWater: highWater,
		drain:     make(chan struct{}, 1),
	}, info.Size() > 0, nil
}

// Write buffers p, or rejects it with utils.ErrBackpressure.
func (s *FileSink) Write(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return utils.ErrNoStream
	}
	if s.buf.Len() > 0 && s.buf.Len()+len(p) > s.highWater {
		s.blocked = true
		return utils.ErrBackpressure
	}
	s.buf.Write(p)
	return nil
}

// Flush pushes the buffer to the file. Bytes that could not be written stay
// buffered for the next Flush.
func (s *FileSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

func (s *FileSink) flushLocked() error {
	if s.file == nil || s.buf.Len() == 0 {
		return nil
	}
	n, err := s.file.Write(s.buf.Bytes())
	s.buf.Next(n)
	s.written += uint64(n)
	if err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	if s.blocked {
		s.blocked = false
		select {
		case s.drain <- struct{}{}:
		default:
		}
	}
	return nil
}

// Drained fires after a Flush relieves backpressure.
func (s *FileSink) Drained() <-chan struct{} {
	return s.drain
}

// Close flushes remaining data and closes the file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	flushErr := s.flushLocked()
	_ = s.file.Sync()
	closeErr := s.file.Close()
	s.file = nil
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// Path returns the backing file path.
func (s *FileSink) Path() string {
	return s.path
}

// Buffered returns the number of bytes waiting for Flush.
func (s *FileSink) Buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Len()
}

// Unflushed returns a copy of the bytes still buffered, e.g. after a Close
// whose final flush failed.
func (s *FileSink) Unflushed() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bytes.Clone(s.buf.Bytes())
}

// BytesWritten returns the number of bytes flushed to the file.
func (s *FileSink) BytesWritten() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}
