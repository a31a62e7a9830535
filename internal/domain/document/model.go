package document

import (
	"time"
)

// TimestampLayout is the canonical format for modification timestamps.
// Every instance formats with the same layout, so last-write-wins can
// compare the rendered strings lexicographically.
const TimestampLayout = "2006-01-02 15:04:05.000000"

// Docstatus is the workflow status of a document.
type Docstatus int

const (
	StatusDraft     Docstatus = 0
	StatusSubmitted Docstatus = 1
	StatusCancelled Docstatus = 2
)

// String returns the name of the docstatus.
func (s Docstatus) String() string {
	switch s {
	case StatusDraft:
		return "Draft"
	case StatusSubmitted:
		return "Submitted"
	case StatusCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Mutation is the kind of local change reported to change hooks.
type Mutation string

const (
	MutationInsert Mutation = "insert"
	MutationUpdate Mutation = "update"
	MutationDelete Mutation = "delete"
)

// ChildRow is one row of a nested child table. Name is the stable row
// identity assigned at creation; Idx is the positional order under the
// parent.
type ChildRow struct {
	Name   string    `json:"name,omitempty"`
	Idx    int       `json:"idx"`
	Fields *FieldMap `json:"fields"`
}

// Document is a typed container for one structured record: identity,
// workflow status, audit fields, an ordered scalar field map, and one
// level of nested child tables keyed by table field name.
type Document struct {
	Doctype    string
	Name       string
	Docstatus  Docstatus
	Owner      string
	Creation   time.Time
	Modified   time.Time
	ModifiedBy string
	Fields     *FieldMap
	Children   map[string][]ChildRow
}

// New returns an empty document with the given identity.
func New(doctype, name string) *Document {
	return &Document{
		Doctype:  doctype,
		Name:     name,
		Fields:   NewFieldMap(),
		Children: make(map[string][]ChildRow),
	}
}

// ModifiedString renders the modification timestamp in the canonical
// layout used for conflict comparison.
func (d *Document) ModifiedString() string {
	return d.Modified.UTC().Format(TimestampLayout)
}

// Rows returns the child rows for a table field, never nil.
func (d *Document) Rows(fieldname string) []ChildRow {
	if d.Children == nil {
		return nil
	}
	return d.Children[fieldname]
}

// SetRows replaces the child rows of a table field, renumbering idx to
// follow slice order.
func (d *Document) SetRows(fieldname string, rows []ChildRow) {
	if d.Children == nil {
		d.Children = make(map[string][]ChildRow)
	}
	for i := range rows {
		rows[i].Idx = i + 1
	}
	d.Children[fieldname] = rows
}
