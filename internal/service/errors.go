package service

import (
	stderrors "errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrCodeNotFoundOrUnauthorized = "NOT_FOUND_OR_UNAUTHORIZED"
	ErrCodeInvalidTransition      = "INVALID_TRANSITION"
	ErrCodeValidationFailure      = "VALIDATION_FAILED"
	ErrCodePersistenceFailure     = "PERSISTENCE_FAILURE"
)

var (
	// ErrNotFoundOrUnauthorized deliberately collapses "no such id",
	// "not yours" and "wrong status" into one message. Callers depend on
	// the single string; do not split the causes.
	ErrNotFoundOrUnauthorized = goerrors.New("not found or not permitted", goerrors.CategoryNotFound).
					WithTextCode(ErrCodeNotFoundOrUnauthorized)

	ErrInvalidTransition = goerrors.New("invalid status transition", goerrors.CategoryBadInput).
				WithTextCode(ErrCodeInvalidTransition)

	ErrValidation = goerrors.New("validation failed", goerrors.CategoryValidation).
			WithTextCode(ErrCodeValidationFailure)

	ErrPersistence = goerrors.New("storage failure", goerrors.CategoryExternal).
			WithTextCode(ErrCodePersistenceFailure)
)

func invalidTransitionErr(from, to string) error {
	err := ErrInvalidTransition.Clone()
	err.Message = fmt.Sprintf("invalid status transition from %s to %s", from, to)
	return err.WithMetadata(map[string]any{"from": from, "to": to})
}

func validationErr(msg string) error {
	err := ErrValidation.Clone()
	err.Message = msg
	return err
}

func persistenceErr(source error) error {
	err := ErrPersistence.Clone()
	err.Source = source
	return err
}

// ErrorCode extracts the text code from a service error, or "" for
// untyped errors.
func ErrorCode(err error) string {
	var ge *goerrors.Error
	if stderrors.As(err, &ge) {
		return ge.TextCode
	}
	return ""
}
