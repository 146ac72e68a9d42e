package httperr

import (
	"errors"
	"fmt"
)

// Kind classifies every failure the scheduling core can return, so
// callers can tell "this request is invalid" from "try again later"
// without parsing messages.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindRejected
	KindConflict
	KindRetryExhausted
)

type BusinessError struct {
	Kind    Kind
	Code    string
	Message string

	// Token of the already-committed booking that won the slot.
	// Only set for KindConflict.
	Token string

	Err error
}

func (e *BusinessError) Error() string {
	if e.Message != "" {
		return e.Code + ": " + e.Message
	}
	return e.Code
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func Validation(code, message string) error {
	return &BusinessError{Kind: KindValidation, Code: code, Message: message}
}

func Rejected(code, message string) error {
	return &BusinessError{Kind: KindRejected, Code: code, Message: message}
}

func Conflict(token string) error {
	return &BusinessError{
		Kind:    KindConflict,
		Code:    "time_conflict",
		Message: fmt.Sprintf("slot already taken by booking %s", token),
		Token:   token,
	}
}

func RetryExhausted(err error) error {
	return &BusinessError{
		Kind:    KindRetryExhausted,
		Code:    "max_retries_exceeded",
		Message: "maximum retry attempts exceeded",
		Err:     err,
	}
}

func KindOf(err error) Kind {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindInternal
}

func IsCode(err error, code string) bool {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

// ConflictToken extracts the winning booking's reference from a
// conflict error, empty otherwise.
func ConflictToken(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Token
	}
	return ""
}
