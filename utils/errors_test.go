package utils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"validation", Validation("values", "expected %d values, got %d", 5, 2), KindValidation},
		{"io", IO("write stream", errors.New("disk full")), KindIO},
		{"precondition", Precondition("save snapshot", ErrNoDictionary), KindPrecondition},
		{"fault", Fault("event loop", "boom"), KindFault},
		{"wrapped", fmt.Errorf("outer: %w", Precondition("close", ErrNoStream)), KindPrecondition},
		{"plain", errors.New("unclassified"), KindIO},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestLoggerErrorUnwraps(t *testing.T) {
	err := Precondition("save snapshot", ErrNoDictionary)
	assert.ErrorIs(t, err, ErrNoDictionary)
	assert.Equal(t, "save snapshot: no session dictionary held", err.Error())

	assert.EqualError(t, Validation("values", "expected %d values, got %d", 5, 2), "values: expected 5 values, got 2")
	assert.EqualError(t, Fault("event loop", "boom"), "event loop: panic: boom")
	assert.Equal(t, "precondition", KindPrecondition.String())
	assert.Equal(t, "unknown", ErrorKind(42).String())
}
