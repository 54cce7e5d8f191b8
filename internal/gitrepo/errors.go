package gitrepo

import (
	"errors"
	"fmt"
)

// ErrBranchMissing is returned when an operation requires a branch that does
// not exist and may not create it.
var ErrBranchMissing = errors.New("branch does not exist")

// ErrInvalidOptions is returned when repository options fail validation.
var ErrInvalidOptions = errors.New("invalid options")

// WrapError wraps an error with additional context while preserving
// the ability to check against sentinel errors using errors.Is().
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
