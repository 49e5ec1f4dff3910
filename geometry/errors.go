package geometry

import (
	"fmt"

	chem "github.com/rmera/gorjmc"
)

// Error is the error type for the geometry package.
type Error struct {
	message  string
	deco     []string
	critical bool
	wrapped  error
}

// NewError returns a critical error with message msg, decorated with caller.
func NewError(msg, caller string, wrapped ...error) *Error {
	e := &Error{message: msg, critical: true}
	if len(wrapped) > 0 {
		e.wrapped = wrapped[0]
	}
	e.Decorate(caller)
	return e
}

func (err *Error) Error() string {
	if err.wrapped != nil {
		return fmt.Sprintf("%s: %s", err.message, err.wrapped.Error())
	}
	return err.message
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err *Error) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append(err.deco, dec)
	return err.deco
}

func (err *Error) Critical() bool { return err.critical }

func (err *Error) Unwrap() error { return err.wrapped }

func errDecorate(err error, caller string) error {
	return chem.ErrDecorate(err, caller)
}
