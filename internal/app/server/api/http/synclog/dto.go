package synclog

import (
	"syncmesh/internal/domain/sync"
)

type listInput struct {
	Status    string `query:"status" enum:"Queued,Success,Failed,Skipped,"`
	Direction string `query:"direction" enum:"Incoming,Outgoing,"`
	Doctype   string `query:"doctype"`
	Peer      string `query:"peer"`
	Limit     int    `query:"limit" minimum:"1" maximum:"1000" default:"100"`
}

type listOutput struct {
	Body []*sync.Log
}

type retryInput struct {
	ID string `path:"id"`
}

type retryOutput struct {
	Body RetryResponse
}

// RetryResponse reports the outcome of a manual retry.
type RetryResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
