package controller

import (
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"gait-logger/models"
)

const (
	testDir   = "logs"
	testStamp = "2024-03-07_10-00-00"
)

var sessionStart = time.Date(2024, time.March, 7, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return sessionStart }

func sample(t *testing.T, args ...any) models.Sample {
	t.Helper()
	s, ok := models.SampleFromArgs(args)
	require.True(t, ok)
	return s
}

func readFile(t *testing.T, fs afero.Fs, name string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, testDir+"/"+name)
	require.NoError(t, err)
	return string(data)
}

func fileExists(t *testing.T, fs afero.Fs, name string) bool {
	t.Helper()
	ok, err := afero.Exists(fs, testDir+"/"+name)
	require.NoError(t, err)
	return ok
}

type recordingOutlet struct {
	mu   sync.Mutex
	sent []string
}

func (o *recordingOutlet) Send(name string, value any) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, name+"="+value.(string))
	return nil
}

func (o *recordingOutlet) Sent() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.sent...)
}

type panickingOutlet struct{}

func (panickingOutlet) Send(string, any) error { panic("outlet down") }
