package sync

import (
	"syncmesh/internal/domain/document"
	"syncmesh/internal/domain/sync"
)

type receiveInput struct {
	Body sync.ReceiveRequest
}

type receiveOutput struct {
	Body sync.ReceiveResponse
}

type getDocumentInput struct {
	Doctype string `path:"doctype"`
	Name    string `path:"name"`
}

type getDocumentOutput struct {
	Body DocumentResponse
}

// DocumentResponse is a full document snapshot served to a peer that
// resolves a missing dependency on demand.
type DocumentResponse struct {
	Doctype   string                         `json:"doctype"`
	Name      string                         `json:"name"`
	Docstatus int                            `json:"docstatus"`
	Owner     string                         `json:"owner,omitempty"`
	Modified  string                         `json:"modified"`
	Fields    *document.FieldMap             `json:"fields"`
	Children  map[string][]document.ChildRow `json:"children,omitempty"`
}
