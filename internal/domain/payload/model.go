package payload

import (
	"syncmesh/internal/domain/document"
)

// Event is the kind of change a payload carries.
type Event string

const (
	EventInsert Event = "Insert"
	EventUpdate Event = "Update"
	EventSubmit Event = "Submit"
	EventCancel Event = "Cancel"
	EventDelete Event = "Delete"
)

// Valid reports whether e is a known event.
func (e Event) Valid() bool {
	switch e {
	case EventInsert, EventUpdate, EventSubmit, EventCancel, EventDelete:
		return true
	}
	return false
}

// Dependency is a reference to another document that should exist before
// the referencing payload is fully usable.
type Dependency struct {
	Doctype string `json:"doctype"`
	Name    string `json:"name"`
}

// Row is one child-table row as transmitted. Name is the stable row
// identity from the origin; order within the slice is the origin's
// positional order.
type Row struct {
	Name   string             `json:"name,omitempty"`
	Fields *document.FieldMap `json:"fields"`
}

// ChangePayload is the unit of transmission: one document's change with
// enough context to be applied remotely. It carries references to its
// dependencies, never nested dependency payloads.
type ChangePayload struct {
	Doctype      string             `json:"doctype"`
	Name         string             `json:"name"`
	Docstatus    document.Docstatus `json:"docstatus"`
	Fields       *document.FieldMap `json:"fields"`
	Children     map[string][]Row   `json:"children,omitempty"`
	Dependencies []Dependency       `json:"dependencies,omitempty"`
	ModifiedAt   string             `json:"modified_at"`
}
