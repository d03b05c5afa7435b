package front

import (
	"fmt"

	"tlog.app/go/errors"
)

type (
	// Error is a fatal lowering error. Kind is one of the Err* sentinels.
	Error struct {
		Kind error
		Line int
		Msg  string

		also error
	}
)

var (
	ErrUnsupportedOperator     = errors.New("unsupported operator")
	ErrTypeMismatch            = errors.New("type mismatch")
	ErrUndeclaredIdentifier    = errors.New("undeclared identifier")
	ErrUninitializedIdentifier = errors.New("uninitialized identifier")
	ErrDivisionByZero          = errors.New("division by zero")
	ErrStringsUnsupported      = errors.New("strings unsupported")
	ErrConditionNotBoolean     = errors.New("condition is not boolean")
	ErrNotImplemented          = errors.New("not implemented")
)

func newError(kind error, line int, f string, args ...any) *Error {
	return &Error{
		Kind: kind,
		Line: line,
		Msg:  fmt.Sprintf(f, args...),
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

func (e *Error) Is(target error) bool {
	return e.also != nil && target == e.also
}
