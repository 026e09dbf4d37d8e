package models

import "math"

// Sample is one streaming reading as delivered by values(). Each field is a
// number or an opaque pass-through value.
type Sample struct {
	Cycle          any
	Value          any
	ValueDeviation any
	Steps          any
	StepsDeviation any
}

// SampleFromArgs maps the five positional values() arguments.
func SampleFromArgs(args []any) (Sample, bool) {
	if len(args) != NumColumns {
		return Sample{}, false
	}
	return Sample{
		Cycle:          args[0],
		Value:          args[1],
		ValueDeviation: args[2],
		Steps:          args[3],
		StepsDeviation: args[4],
	}, true
}

// Field returns the value of a logical column.
func (s Sample) Field(c Column) any {
	switch c {
	case ColCycle:
		return s.Cycle
	case ColValue:
		return s.Value
	case ColValueDeviation:
		return s.ValueDeviation
	case ColSteps:
		return s.Steps
	case ColStepsDeviation:
		return s.StepsDeviation
	default:
		return nil
	}
}

// Deviation returns |v| when v is a finite number.
func Deviation(v any) (float64, bool) {
	f, ok := AsFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return math.Abs(f), true
}
