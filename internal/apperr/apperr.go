// Package apperr defines the error envelope shared by every stage of a turn:
// a machine-readable kind plus a short phrase that can be spoken back to the
// user when the turn fails.
package apperr

import (
	"errors"
	"fmt"
)

// #region kind

// Kind classifies why a turn could not be answered.
type Kind string

const (
	KindOOV               Kind = "OOV_ERROR"
	KindMissingGene       Kind = "MISSING_GENE"
	KindMissingStudy      Kind = "MISSING_STUDY"
	KindInvalidDataType   Kind = "INVALID_DATA_TYPE"
	KindInvalidEntityType Kind = "INVALID_ENTITY_TYPE"
	KindInvalidState      Kind = "INVALID_STATE"
)

// #endregion kind

// #region messages

const (
	MsgOOV          = "Sorry, I didn't catch that. Could you say it again?"
	MsgMissingGene  = "I need to know a gene name first."
	MsgMissingStudy = "I need to know a cancer type first."
	MsgGeneric      = "Sorry, something went wrong while answering that."
)

// #endregion messages

// #region error

// Error carries a Kind and the fallback message for the user.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an Error with no underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches kind and message to err. An err that already carries a Kind
// is returned unchanged so the innermost classification wins.
func Wrap(kind Kind, message string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// #endregion error

// #region inspect

// KindOf reports the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Fallback returns the phrase to speak for err.
func Fallback(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return MsgGeneric
}

// #endregion inspect
