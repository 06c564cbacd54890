package workflows

import "errors"

var (
	ErrNotFound          = errors.New("workflow not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidInput      = errors.New("invalid input")
	ErrAlreadyExists     = errors.New("workflow already exists for application")
)
