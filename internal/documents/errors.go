package documents

import "errors"

var (
	ErrNotFound         = errors.New("document not found")
	ErrAlreadyFinalized = errors.New("document already finalized")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnsupportedType  = errors.New("unsupported file type")
)
