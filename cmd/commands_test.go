package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "gait-logger dev\n", out.String())
}

func TestReplayWritesSessionFiles(t *testing.T) {
	dir := t.TempDir()
	events := filepath.Join(dir, "session.jsonl")
	require.NoError(t, os.WriteFile(events, []byte(strings.Join([]string{
		`// scripted walk`,
		`{"event": "time"}`,
		`{"event": "set", "args": [{"Infos": {"ID": "P007", "Name": "ana"}}]}`,
		`{"event": "values", "args": [1, 0.5, 0.02, 120, 3]}`,
		`{"event": "values", "args": [2, 0.6, 0.01, 121, 2]}`,
		`{"event": "save"}`,
		`{"event": "endFile"}`,
	}, "\n")), 0644))

	logsDir := filepath.Join(dir, "logs")
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"replay", events, "--logs-dir", logsDir, "--log-level", "error"})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), `{"outlet":"filename","value":"P007_`)

	streams, err := filepath.Glob(filepath.Join(logsDir, "P007_*_Sensors.csv"))
	require.NoError(t, err)
	require.Len(t, streams, 1)
	data, err := os.ReadFile(streams[0])
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(string(data), "\n"), "sep line, header and two rows")

	all, err := filepath.Glob(filepath.Join(logsDir, "P007_*.csv"))
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestReplayMissingFile(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"replay", filepath.Join(t.TempDir(), "nope.jsonl")})
	assert.Error(t, root.Execute())
}
