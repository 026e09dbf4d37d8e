package models

import (
	"fmt"
	"strings"
)

// Column is one of the five logical streaming columns after the timestamp.
type Column int

const (
	ColCycle Column = iota
	ColValue
	ColValueDeviation
	ColSteps
	ColStepsDeviation
)

// NumColumns is the fixed width of the enabled-sensor mask.
const NumColumns = 5

// Sensor type labels with their own column presets.
const (
	SensorEMG        = "emg"
	SensorGoniometer = "goniometer"
)

// SensorConfiguration selects which logical columns are logged and how the
// primary pair is labelled. An empty TypeLabel means no type was set.
type SensorConfiguration struct {
	TypeLabel string
	Enabled   [NumColumns]bool
}

// DefaultSensorConfiguration has every column enabled and no sensor type.
func DefaultSensorConfiguration() SensorConfiguration {
	return SensorConfiguration{Enabled: [NumColumns]bool{true, true, true, true, true}}
}

// Fingerprint identifies the header this configuration produces. Two
// configurations with the same fingerprint share a header.
func (c SensorConfiguration) Fingerprint() string {
	var b strings.Builder
	b.WriteString(c.TypeLabel)
	b.WriteByte('|')
	for _, on := range c.Enabled {
		if on {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// SetSensorType stores label lower-cased. Non-text labels are rejected and
// leave the configuration untouched.
func (c *SensorConfiguration) SetSensorType(label any) error {
	s, ok := label.(string)
	if !ok {
		return fmt.Errorf("sensor type must be text, got %T", label)
	}
	c.TypeLabel = strings.ToLower(s)
	return nil
}

// SetEnabled replaces the mask from exactly five 0/1 values. Any other
// arity or value is rejected and leaves the mask untouched.
func (c *SensorConfiguration) SetEnabled(values []any) error {
	if len(values) != NumColumns {
		return fmt.Errorf("expected %d sensor flags, got %d", NumColumns, len(values))
	}
	var mask [NumColumns]bool
	for i, v := range values {
		f, ok := AsFloat(v)
		if !ok || (f != 0 && f != 1) {
			return fmt.Errorf("sensor flag %d must be 0 or 1, got %v", i, v)
		}
		mask[i] = f == 1
	}
	c.Enabled = mask
	return nil
}

// EnabledColumns lists the enabled logical columns in fixed order.
func (c SensorConfiguration) EnabledColumns() []Column {
	cols := make([]Column, 0, NumColumns)
	for i, on := range c.Enabled {
		if on {
			cols = append(cols, Column(i))
		}
	}
	return cols
}
