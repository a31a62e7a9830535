package peerclient

import "errors"

var (
	ErrPeerUnreachable = errors.New("peer unreachable")
	ErrRemoteRejected  = errors.New("peer rejected request")
	ErrInvalidResponse = errors.New("invalid peer response")
)
