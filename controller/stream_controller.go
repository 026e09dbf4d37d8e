package controller

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"gait-logger/models"
	"gait-logger/utils"
	"gait-logger/views"
)

// StreamController owns the single streaming CSV. It is Closed until the
// first sample, then Open with the fingerprint of the header last written.
//
// It is not safe for concurrent use: every method must run on the event
// loop. Idle-timer callbacks re-enter through the poster installed with
// SetPoster, which defaults to running them inline.
//
// Rows rejected by the sink wait in pending and are replayed in order on the
// next drain; while anything is pending new rows queue behind it, so order
// is preserved and nothing is dropped.
type StreamController struct {
	fs        afero.Fs
	dir       string
	highWater int
	now       utils.Clock
	log       *utils.Logger
	metrics   *utils.Metrics

	idle    *utils.Debouncer
	idleGen uint64
	post    func(func())

	sink        *views.FileSink
	name        string
	fingerprint string
	streamID    string
	streamLog   *utils.Logger
	pending     [][]byte
	rows        uint64
}

// StreamOptions configures a StreamController. Zero values fall back to the
// OS filesystem, wall-clock time and scheduling, a 1s idle timeout and a
// silent logger.
type StreamOptions struct {
	Fs          afero.Fs
	Dir         string
	HighWater   int
	IdleTimeout time.Duration
	Scheduler   utils.Scheduler
	Clock       utils.Clock
	Logger      *utils.Logger
	Metrics     *utils.Metrics
}

// NewStreamController creates a Closed stream controller.
func NewStreamController(opts StreamOptions) *StreamController {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = time.Second
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = utils.NopLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = utils.NewMetrics()
	}
	return &StreamController{
		fs:        opts.Fs,
		dir:       opts.Dir,
		highWater: opts.HighWater,
		now:       opts.Clock,
		log:       opts.Logger,
		metrics:   opts.Metrics,
		idle:      utils.NewDebouncer(opts.Scheduler, opts.IdleTimeout),
		post:      func(f func()) { f() },
	}
}

// SetPoster installs the function that hands timer callbacks back to the
// event loop.
func (sc *StreamController) SetPoster(post func(func())) {
	sc.post = post
}

// IsOpen reports whether a stream is open.
func (sc *StreamController) IsOpen() bool { return sc.sink != nil }

// Name returns the open stream's file name, or "".
func (sc *StreamController) Name() string { return sc.name }

// Path returns the open stream's file path, or "".
func (sc *StreamController) Path() string {
	if sc.sink == nil {
		return ""
	}
	return sc.sink.Path()
}

// Fingerprint returns the fingerprint of the header last written.
func (sc *StreamController) Fingerprint() string { return sc.fingerprint }

// StreamID identifies the current stream in logs. It changes on every open.
func (sc *StreamController) StreamID() string { return sc.streamID }

// PendingRows returns the number of writes waiting for a drain.
func (sc *StreamController) PendingRows() int { return len(sc.pending) }

// RowsWritten returns the number of sample rows accepted since start.
func (sc *StreamController) RowsWritten() uint64 { return sc.rows }

// Drained fires when the open sink has room again. It is nil while Closed,
// which blocks forever in a select.
func (sc *StreamController) Drained() <-chan struct{} {
	if sc.sink == nil {
		return nil
	}
	return sc.sink.Drained()
}

// OnSample appends one row. A Closed controller first opens name; an Open
// one writes a blank line and a fresh header when cfg's fingerprint changed.
// Every sample rearms the idle timer.
func (sc *StreamController) OnSample(cfg models.SensorConfiguration, name string, s models.Sample) error {
	if sc.sink == nil {
		if err := sc.open(cfg, name); err != nil {
			return err
		}
	} else if fp := cfg.Fingerprint(); fp != sc.fingerprint {
		if err := sc.enqueue("\n" + views.HeaderLine(cfg) + "\n"); err != nil {
			return err
		}
		sc.streamLog.Info("sensor configuration changed, header rewritten", "from", sc.fingerprint, "to", fp)
		sc.fingerprint = fp
		sc.metrics.HeaderRewrites.Inc()
	}

	err := sc.enqueue(views.RenderRow(cfg, utils.RowTimestamp(sc.now()), s))
	if err == nil {
		sc.rows++
		sc.metrics.RowsWritten.Inc()
	}
	sc.armIdle()
	return err
}

func (sc *StreamController) open(cfg models.SensorConfiguration, name string) error {
	path := filepath.Join(sc.dir, name)
	sink, existing, err := views.OpenFileSink(sc.fs, path, sc.highWater)
	if err != nil {
		return utils.IO("open stream", err)
	}
	sc.sink = sink
	sc.name = name
	sc.fingerprint = cfg.Fingerprint()
	sc.streamID = uuid.NewString()
	sc.streamLog = sc.log.With("stream_id", sc.streamID, "file", name)
	sc.metrics.StreamsOpened.Inc()

	// An existing file is continued rather than truncated.
	head := views.Preamble + views.HeaderLine(cfg) + "\n"
	if existing {
		head = "\n" + views.HeaderLine(cfg) + "\n"
	}
	sc.streamLog.Info("stream opened", "appending", existing, "fingerprint", sc.fingerprint)
	return sc.enqueue(head)
}

// enqueue hands p to the sink, or queues it behind earlier rejected writes.
func (sc *StreamController) enqueue(line string) error {
	p := []byte(line)
	if len(sc.pending) > 0 {
		sc.pending = append(sc.pending, p)
		return nil
	}
	err := sc.sink.Write(p)
	if errors.Is(err, utils.ErrBackpressure) {
		sc.pending = append(sc.pending, p)
		sc.metrics.BackpressureWaits.Inc()
		sc.streamLog.Debug("sink backpressure, queueing", "pending", len(sc.pending))
		return nil
	}
	if err != nil {
		return utils.IO("write stream", err)
	}
	return nil
}

func (sc *StreamController) armIdle() {
	sc.idleGen++
	gen := sc.idleGen
	sc.idle.Schedule(func() {
		sc.post(func() { sc.OnIdleTimeout(gen) })
	})
}

// OnIdleTimeout closes the stream if gen is still the latest arming. A
// callback that was already in flight when a newer sample rearmed the timer
// is ignored.
func (sc *StreamController) OnIdleTimeout(gen uint64) {
	if gen != sc.idleGen || sc.sink == nil {
		return
	}
	name := sc.name
	if err := sc.end(); err != nil {
		sc.log.Report(err, "file", name)
	}
	sc.metrics.IdleCloses.Inc()
	sc.log.Info("stream closed after idle timeout", "file", name, "timeout", sc.idle.Delay())
}

// Flush pushes buffered output to disk.
func (sc *StreamController) Flush() error {
	if sc.sink == nil {
		return nil
	}
	if err := sc.sink.Flush(); err != nil {
		return utils.IO("flush stream", err)
	}
	return nil
}

// OnDrain replays pending writes in order until the sink pushes back again.
func (sc *StreamController) OnDrain() error {
	if sc.sink == nil {
		return nil
	}
	for len(sc.pending) > 0 {
		err := sc.sink.Write(sc.pending[0])
		if errors.Is(err, utils.ErrBackpressure) {
			return nil
		}
		if err != nil {
			return utils.IO("drain stream", err)
		}
		sc.pending = sc.pending[1:]
	}
	return nil
}

// drainAll forces every pending write into the file, flushing as often as
// the high-water mark requires.
func (sc *StreamController) drainAll() error {
	for len(sc.pending) > 0 {
		err := sc.sink.Write(sc.pending[0])
		if errors.Is(err, utils.ErrBackpressure) {
			if ferr := sc.sink.Flush(); ferr != nil {
				return ferr
			}
			continue
		}
		if err != nil {
			return err
		}
		sc.pending = sc.pending[1:]
	}
	return nil
}

// end flushes everything and releases the sink.
func (sc *StreamController) end() error {
	drainErr := sc.drainAll()
	closeErr := sc.sink.Close()
	if drainErr == nil && len(sc.pending) > 0 {
		drainErr = fmt.Errorf("%d pending writes lost", len(sc.pending))
	}

	sc.sink = nil
	sc.name = ""
	sc.fingerprint = ""
	sc.pending = nil
	if err := errors.Join(drainErr, closeErr); err != nil {
		return utils.IO("close stream", err)
	}
	return nil
}

// Close is the explicit close: it cancels the idle timer and ends the
// stream. Closing a Closed controller is a precondition error.
func (sc *StreamController) Close() error {
	sc.idle.Cancel()
	sc.idleGen++
	if sc.sink == nil {
		return utils.Precondition("close stream", utils.ErrNoStream)
	}
	name := sc.name
	if err := sc.end(); err != nil {
		return err
	}
	sc.log.Info("stream closed", "file", name)
	return nil
}

// CloseOnFault is the best-effort close used while the process is going
// down. It never fails.
func (sc *StreamController) CloseOnFault() {
	sc.idle.Cancel()
	sc.idleGen++
	if sc.sink == nil {
		return
	}
	if err := sc.end(); err != nil {
		sc.log.Report(err)
	}
}

// Rename moves the open stream to newName, keeping its content, header
// fingerprint and idle timer. It runs to completion before returning, so no
// sample can be written between ending the old file and reopening the new
// one. A failed rename, or a failed close of the old sink, keeps the stream
// open under its old name and logs a warning. Renaming while Closed is a
// no-op.
func (sc *StreamController) Rename(newName string) error {
	if sc.sink == nil || newName == sc.name {
		return nil
	}
	oldPath := sc.sink.Path()
	newPath := filepath.Join(sc.dir, newName)
	fingerprint := sc.fingerprint
	streamLog := sc.streamLog

	if err := sc.drainAll(); err != nil {
		return utils.IO("rename stream", err)
	}
	old := sc.sink
	closeErr := old.Close()
	sc.sink = nil

	target := newPath
	if closeErr != nil {
		streamLog.Warn("could not close stream for rename, reopening old file", "to", newName, "err", closeErr)
		target = oldPath
	} else if exists, _ := afero.Exists(sc.fs, newPath); exists {
		streamLog.Warn("rename target exists, keeping old file", "to", newName)
		target = oldPath
	} else if err := sc.fs.Rename(oldPath, newPath); err != nil {
		streamLog.Warn("rename failed, keeping old file", "to", newName, "err", err)
		target = oldPath
	}

	sink, _, err := views.OpenFileSink(sc.fs, target, sc.highWater)
	if err != nil {
		sc.name = ""
		sc.fingerprint = ""
		sc.pending = nil
		return utils.IO("reopen stream", errors.Join(closeErr, err))
	}
	sc.sink = sink
	sc.name = filepath.Base(target)
	sc.fingerprint = fingerprint
	sc.streamLog = sc.log.With("stream_id", sc.streamID, "file", sc.name)
	// Bytes the failed close could not flush go out first on the new sink.
	if rest := old.Unflushed(); len(rest) > 0 {
		sc.pending = append([][]byte{rest}, sc.pending...)
	}
	if closeErr != nil {
		return utils.IO("rename stream", closeErr)
	}
	if target == newPath {
		sc.metrics.StreamRenames.Inc()
		sc.streamLog.Info("stream renamed", "from", filepath.Base(oldPath))
	}
	return nil
}
