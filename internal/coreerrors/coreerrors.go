// Package coreerrors defines the error taxonomy from spec section 7:
// transient I/O, rate limiting, malformed protocol data, sequence gaps,
// invariant violations and fatal conditions. A classed error lets callers
// decide whether to retry, drop, or escalate. The quoting engine and the
// hedger attach these classes; other packages return plain errors.
package coreerrors

import "fmt"

// Class identifies which bucket of the error taxonomy an error belongs to.
type Class string

const (
	ClassTransientIO         Class = "transient_io"
	ClassRateLimited         Class = "rate_limited"
	ClassProtocolMalformed   Class = "protocol_malformed"
	ClassSequenceGap         Class = "sequence_gap"
	ClassInvariantViolation  Class = "invariant_violation"
	ClassFatal               Class = "fatal"
)

// Error wraps an underlying cause with a taxonomy class and caller context.
type Error struct {
	Class   Class
	Context string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Context, e.Class)
	}
	return fmt.Sprintf("%s: %s: %v", e.Context, e.Class, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func New(class Class, context string, err error) *Error {
	return &Error{Class: class, Context: context, Err: err}
}

func SequenceGap(context string, expected, got uint64) *Error {
	return New(ClassSequenceGap, context, fmt.Errorf("sequence gap: last=%d received=%d", expected, got))
}

func InvariantViolation(context string, err error) *Error {
	return New(ClassInvariantViolation, context, err)
}

func RateLimited(context string) *Error {
	return New(ClassRateLimited, context, fmt.Errorf("rate limit exceeded"))
}

func ProtocolMalformed(context string, err error) *Error {
	return New(ClassProtocolMalformed, context, err)
}

func TransientIO(context string, err error) *Error {
	return New(ClassTransientIO, context, err)
}

// IsClass reports whether err (or a wrapped error) carries the given class.
func IsClass(err error, c Class) bool {
	var ce *Error
	for err != nil {
		if e, ok := err.(*Error); ok {
			ce = e
			break
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = unwrapper.Unwrap()
	}
	return ce != nil && ce.Class == c
}
