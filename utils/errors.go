package utils

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure so the dispatcher can report it at the
// right severity. None of the kinds are ever returned to the host.
type ErrorKind int

const (
	// KindValidation marks a malformed inbound event (wrong arity or type).
	KindValidation ErrorKind = iota
	// KindIO marks a failed write, rename, open or delete.
	KindIO
	// KindPrecondition marks an event that arrived in a state where it
	// cannot apply (save without a dictionary, close without a stream).
	KindPrecondition
	// KindFault marks a recovered panic.
	KindFault
)

var kindNames = [...]string{"validation", "io", "precondition", "fault"}

func (k ErrorKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Sentinel errors.
var (
	ErrNoDictionary = errors.New("no session dictionary held")
	ErrNoStream     = errors.New("no stream open")
	ErrBackpressure = errors.New("sink is above its high-water mark")
)

// LoggerError carries the operation that failed, its kind and the cause.
type LoggerError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *LoggerError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *LoggerError) Unwrap() error { return e.Err }

// Validation builds a KindValidation error with a formatted message.
func Validation(op, format string, args ...any) error {
	return &LoggerError{Kind: KindValidation, Op: op, Err: fmt.Errorf(format, args...)}
}

// IO wraps an I/O failure.
func IO(op string, err error) error {
	return &LoggerError{Kind: KindIO, Op: op, Err: err}
}

// Precondition wraps a missing-precondition failure.
func Precondition(op string, err error) error {
	return &LoggerError{Kind: KindPrecondition, Op: op, Err: err}
}

// Fault wraps a recovered panic value.
func Fault(op string, v any) error {
	return &LoggerError{Kind: KindFault, Op: op, Err: fmt.Errorf("panic: %v", v)}
}

// KindOf reports the kind of err. Unclassified errors count as I/O.
func KindOf(err error) ErrorKind {
	var le *LoggerError
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindIO
}
