package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSensorConfiguration(t *testing.T) {
	c := DefaultSensorConfiguration()
	assert.Equal(t, "|11111", c.Fingerprint())
	assert.Equal(t, []Column{ColCycle, ColValue, ColValueDeviation, ColSteps, ColStepsDeviation}, c.EnabledColumns())
}

func TestSetSensorType(t *testing.T) {
	c := DefaultSensorConfiguration()
	require.NoError(t, c.SetSensorType("EMG"))
	assert.Equal(t, SensorEMG, c.TypeLabel)
	assert.Equal(t, "emg|11111", c.Fingerprint())

	err := c.SetSensorType(3.0)
	assert.Error(t, err)
	assert.Equal(t, SensorEMG, c.TypeLabel, "rejected label must not change the type")
}

func TestSetEnabled(t *testing.T) {
	tests := []struct {
		name    string
		values  []any
		wantErr bool
		want    string
	}{
		{"drop deviations", []any{1.0, 1.0, 0.0, 1.0, 0.0}, false, "|11010"},
		{"ints accepted", []any{0, 1, 1, 1, 1}, false, "|01111"},
		{"too few", []any{1.0, 1.0, 1.0, 1.0}, true, "|11111"},
		{"too many", []any{1.0, 1.0, 1.0, 1.0, 1.0, 1.0}, true, "|11111"},
		{"not a flag", []any{1.0, 2.0, 1.0, 1.0, 1.0}, true, "|11111"},
		{"text", []any{"1", 1.0, 1.0, 1.0, 1.0}, true, "|11111"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultSensorConfiguration()
			err := c.SetEnabled(tt.values)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, c.Fingerprint())
		})
	}
}

func TestSampleFromArgs(t *testing.T) {
	s, ok := SampleFromArgs([]any{1.0, 0.5, -0.02, 120.0, "n/a"})
	require.True(t, ok)
	assert.Equal(t, 1.0, s.Field(ColCycle))
	assert.Equal(t, -0.02, s.Field(ColValueDeviation))
	assert.Equal(t, "n/a", s.Field(ColStepsDeviation))

	_, ok = SampleFromArgs([]any{1.0, 2.0})
	assert.False(t, ok)
}

func TestDeviation(t *testing.T) {
	d, ok := Deviation(-0.25)
	assert.True(t, ok)
	assert.Equal(t, 0.25, d)

	_, ok = Deviation("x")
	assert.False(t, ok)
	_, ok = Deviation(nil)
	assert.False(t, ok)
}
