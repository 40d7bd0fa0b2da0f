package user

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrImageTooLarge = errors.New("image exceeds the upload limit")
)

// InvalidFieldError reports a rejected profile field.
type InvalidFieldError struct {
	Field  string
	Reason string
}

func (e InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
