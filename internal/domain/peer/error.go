package peer

import "errors"

var (
	ErrNotFound      = errors.New("peer not found")
	ErrAlreadyExists = errors.New("peer already exists")
	ErrDisabled      = errors.New("peer is disabled")
	ErrInvalidPeer   = errors.New("invalid peer registration")
)
