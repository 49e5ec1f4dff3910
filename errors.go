/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

package chem

import (
	"fmt"
	"strings"
)

// CError (Chemical error) is the basic error type for the chem package.
type CError struct {
	msg      string
	deco     []string
	critical bool
	wrapped  error
}

// NewError returns a new critical *CError with the message msg, decorated
// with the caller. If wrapped is not nil, the new error wraps it.
func NewError(msg, caller string, wrapped ...error) *CError {
	err := &CError{msg: msg, critical: true}
	if len(wrapped) > 0 {
		err.wrapped = wrapped[0]
	}
	err.Decorate(caller)
	return err
}

// Error returns a string with an error message.
func (err *CError) Error() string {
	if err.wrapped != nil {
		return fmt.Sprintf("%s: %s", err.msg, err.wrapped.Error())
	}
	return err.msg
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err *CError) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append(err.deco, dec)
	return err.deco
}

// Critical return whether the error is critical or it can be ignored.
func (err *CError) Critical() bool { return err.critical }

// Unwrap returns the error wrapped by err, if any.
func (err *CError) Unwrap() error { return err.wrapped }

// Trace returns the decoration slice as a single "a <- b <- c" string.
func (err *CError) Trace() string {
	return strings.Join(err.deco, " <- ")
}

// ErrDecorate is a helper function that asserts that the error
// implements chem.Error and decorates the error with the caller's name before returning it.
// Errors that do not implement chem.Error are wrapped in a *CError.
func ErrDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	err2, ok := err.(Error)
	if !ok {
		return NewError("error", caller, err)
	}
	err2.Decorate(caller)
	return err2
}

func errDecorate(err error, caller string) error { return ErrDecorate(err, caller) }
