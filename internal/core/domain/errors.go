package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrGroupNotFound    = errors.New("group not found")
	ErrRunNotFound      = errors.New("validation run not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidLineItem  = errors.New("invalid line item")
	ErrConflict         = errors.New("conflicting state")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrTemporary        = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
