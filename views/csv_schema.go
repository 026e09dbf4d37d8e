package views

import (
	"strings"

	"gait-logger/models"
)

// Column layout of the streaming CSV. This file is the single source of
// truth for labels and ordering.

// TimestampLabel heads the always-present first column.
const TimestampLabel = "Timestamp"

// primaryLabels maps a sensor type to the labels of the primary value and
// its deviation.
var primaryLabels = map[string][2]string{
	models.SensorEMG:        {"Force", "Force Deviation"},
	models.SensorGoniometer: {"Angle", "Angle Deviation"},
}

var defaultPrimary = [2]string{"Value", "Deviation"}

// PrimaryLabels returns the primary value and deviation labels for a sensor
// type; unknown and empty types get the generic preset.
func PrimaryLabels(sensorType string) (value, deviation string) {
	p, ok := primaryLabels[sensorType]
	if !ok {
		p = defaultPrimary
	}
	return p[0], p[1]
}

// ColumnLabels returns the labels of all five logical columns in order,
// regardless of which are enabled.
func ColumnLabels(cfg models.SensorConfiguration) [models.NumColumns]string {
	value, deviation := PrimaryLabels(cfg.TypeLabel)
	return [models.NumColumns]string{
		"Foot Cycle", value, deviation, "Steps/Min", "Steps/Min Deviation",
	}
}

// HeaderLine renders the header for cfg without a trailing newline:
// Timestamp followed by the enabled columns, each field escaped.
func HeaderLine(cfg models.SensorConfiguration) string {
	labels := ColumnLabels(cfg)
	fields := []string{TimestampLabel}
	for _, c := range cfg.EnabledColumns() {
		fields = append(fields, labels[c])
	}
	return JoinFields(fields)
}

// JoinFields escapes every field and joins them with the delimiter.
func JoinFields(fields []string) string {
	escaped := make([]string, len(fields))
	for i, f := range fields {
		escaped[i] = Escape(f)
	}
	return strings.Join(escaped, Delimiter)
}
