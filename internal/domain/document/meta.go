package document

import (
	"context"
)

// DoctypeCatalog is the record type that names other record types. Link
// fields pointing at the catalog describe schema, not data, and are
// never treated as replication dependencies.
const DoctypeCatalog = "DocType"

// LinkField is a scalar field whose value names a document of another
// doctype.
type LinkField struct {
	Fieldname string
	Target    string
}

// TableField is a field holding an ordered child table.
type TableField struct {
	Fieldname  string
	RowDoctype string
}

// Meta describes the replication-relevant schema of one doctype: which
// fields are links and which hold child tables. Field order follows the
// doctype definition and drives deterministic payload encoding.
type Meta struct {
	Doctype     string
	LinkFields  []LinkField
	TableFields []TableField
}

// MetaProvider supplies doctype metadata. Implemented by the storage
// layer; a static implementation exists for tests.
type MetaProvider interface {
	Meta(ctx context.Context, doctype string) (*Meta, error)
}

// StaticMetaProvider serves metadata from a fixed in-memory set.
type StaticMetaProvider struct {
	metas map[string]*Meta
}

// NewStaticMetaProvider builds a provider from the given metas.
func NewStaticMetaProvider(metas ...*Meta) *StaticMetaProvider {
	p := &StaticMetaProvider{metas: make(map[string]*Meta, len(metas))}
	for _, m := range metas {
		p.metas[m.Doctype] = m
	}
	return p
}

// Meta returns the metadata for doctype. Unknown doctypes get an empty
// meta rather than an error: a doctype with no links and no tables is
// still replicable.
func (p *StaticMetaProvider) Meta(_ context.Context, doctype string) (*Meta, error) {
	if m, ok := p.metas[doctype]; ok {
		return m, nil
	}
	return &Meta{Doctype: doctype}, nil
}
