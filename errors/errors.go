package errors

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

var (
	// ErrUnauthorized is returned when a message lacks the signature of
	// the party allowed to send it.
	ErrUnauthorized = Register(2, "unauthorized")

	// ErrNotFound is returned when a key has no value in the store.
	ErrNotFound = Register(3, "not found")

	ErrMsg = Register(4, "invalid message")

	// ErrModel is returned by Validate of a swap or another stored model.
	ErrModel = Register(5, "invalid model")

	// ErrDuplicate is returned when a unique index already holds the key.
	ErrDuplicate = Register(6, "duplicate")

	// ErrHuman signals a programming mistake, such as a bucket used with
	// the wrong model type.
	ErrHuman = Register(7, "coding error")

	ErrImmutable = Register(8, "cannot be modified")
	ErrEmpty     = Register(9, "value is empty")
	ErrState     = Register(10, "invalid state")
	ErrType      = Register(11, "invalid type")

	// ErrAmount is returned for zero, negative or unparsable token amounts.
	ErrAmount = Register(13, "invalid amount")

	ErrInput = Register(14, "invalid input")

	// ErrExpired is returned once a swap timeout has passed.
	ErrExpired = Register(15, "expired")

	ErrOverflow = Register(16, "an operation cannot be completed due to value overflow")

	// ErrDatabase is returned when the underlying storage fails.
	ErrDatabase = Register(17, "database error")

	// ErrIteratorDone ends every store iteration.
	ErrIteratorDone = Register(18, "iterator done")

	// ErrPanic wraps a recovered panic. Its message is always redacted
	// outside of debug mode.
	ErrPanic = Register(111222, "panic")
)

// Register declares a root error with an ABCI code. Codes below 100 belong
// to this package; extensions pick their own range (orm 100, sigs 120,
// htlc 300). Registering a code twice panics, so call it from package
// level var blocks only.
func Register(code uint32, description string) *Error {
	if e, ok := usedCodes[code]; ok {
		if e == nil {
			panic(fmt.Sprintf("error code %d is reserved", code))
		}
		panic(fmt.Sprintf("error with code %d is already registered: %q", code, e.desc))
	}
	err := &Error{
		code: code,
		desc: description,
	}
	usedCodes[err.code] = err
	return err
}

var usedCodes = map[uint32]*Error{
	1: nil, // code of every unregistered error
}

// Error is a registered root error. Errors created at runtime wrap one of
// them, which gives them an ABCI code and lets callers test them with Is.
type Error struct {
	code uint32
	desc string
}

func (e Error) Error() string {
	return e.desc
}

func (e Error) ABCICode() uint32 {
	return e.code
}

// New is a shortcut for Wrap(e, description):
//
//	htlc.ErrSwapNotFound.New("swap 42")
func (e *Error) New(description string) error {
	return Wrap(e, description)
}

// Newf is New with a format string.
func (e *Error) Newf(description string, args ...interface{}) error {
	return e.New(fmt.Sprintf(description, args...))
}

// Is reports whether err, or any error in its cause chain, is kind.
func (kind *Error) Is(err error) bool {
	// A typed nil stored in err must still match a nil kind.
	if kind == nil {
		if err == nil {
			return true
		}
		return reflect.ValueOf(err).IsNil()
	}

	for {
		if err == kind {
			return true
		}

		if c, ok := err.(causer); ok {
			err = c.Cause()
		} else {
			return false
		}
	}
}

// Wrap prefixes the message of err with description and records a stack
// trace on the innermost wrap. The ABCI code of err is kept, errors without
// one report code 1. Wrap returns nil when err is nil.
func Wrap(err error, description string) error {
	if err == nil {
		return nil
	}

	// Only the innermost wrap carries a stack.
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}

	return &wrappedError{
		parent: err,
		msg:    description,
	}
}

// Wrapf is Wrap with a format string.
func Wrapf(err error, format string, args ...interface{}) error {
	desc := fmt.Sprintf(format, args...)
	return Wrap(err, desc)
}

type wrappedError struct {
	msg    string
	parent error
}

func (e *wrappedError) Error() string {
	return fmt.Sprintf("%s: %s", e.msg, e.parent.Error())
}

func (e *wrappedError) Cause() error {
	return e.parent
}

// Format prints the message for %s. %v adds the file and line where the
// error was first wrapped and %+v the whole stack, both without frames of
// this package.
func (e *wrappedError) Format(s fmt.State, verb rune) {
	if verb != 'v' {
		fmt.Fprint(s, e.Error())
		return
	}
	st := stackTrace(e)
	if s.Flag('+') {
		fmt.Fprint(s, e.Error())
		if st != nil {
			fmt.Fprintf(s, "%+v", trimInternal(st))
		}
		return
	}
	fmt.Fprint(s, e.Error())
	if st != nil {
		if frames := trimInternal(st); len(frames) > 0 {
			writeSimpleFrame(s, frames[0])
		}
	}
}

// Recover must be deferred. It turns a panic into an ErrPanic assigned to
// *err, which keeps a failing handler from stopping the node.
func Recover(err *error) {
	if r := recover(); r != nil {
		*err = Wrapf(ErrPanic, "%v", r)
	}
}

// WithType wraps err with the Go type of obj, used when a model or message
// has an unexpected type.
func WithType(err error, obj interface{}) error {
	return Wrap(err, fmt.Sprintf("%T", obj))
}

// causer is implemented by wrappedError and by pkg/errors.
type causer interface {
	Cause() error
}
