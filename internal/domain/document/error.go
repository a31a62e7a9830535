package document

import "errors"

var (
	ErrNotFound     = errors.New("document not found")
	ErrInvalidValue = errors.New("invalid field value")
)
