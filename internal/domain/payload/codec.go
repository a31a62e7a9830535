package payload

import (
	"context"
	"fmt"

	"syncmesh/internal/domain/document"
)

// internalFields are bookkeeping and audit fields stripped before
// transmission: assignment lists, comment and view counters, follower
// lists, workflow status, and modification audit fields. The receiver
// must not reconstruct them.
var internalFields = map[string]struct{}{
	"_assign":     {},
	"_comments":   {},
	"_liked_by":   {},
	"_user_tags":  {},
	"_seen":       {},
	"docstatus":   {},
	"creation":    {},
	"modified":    {},
	"modified_by": {},
	"owner":       {},
}

// Codec converts local documents into transmissible change payloads.
// Decoding is deliberately folded into the apply engine: encoding drops
// information the receiver must not reconstruct, so there is no
// reversible transform to share.
type Codec struct {
	meta document.MetaProvider
}

// NewCodec returns a codec backed by the given metadata provider.
func NewCodec(meta document.MetaProvider) *Codec {
	return &Codec{meta: meta}
}

// Encode serializes doc into a change payload: scalar fields minus
// internal bookkeeping, one level of child tables, and the deduplicated
// link dependencies in first-seen order (scalar fields first, then child
// rows in table-then-row order).
func (c *Codec) Encode(ctx context.Context, doc *document.Document) (*ChangePayload, error) {
	meta, err := c.meta.Meta(ctx, doc.Doctype)
	if err != nil {
		return nil, fmt.Errorf("meta for %s: %w", doc.Doctype, err)
	}

	p := &ChangePayload{
		Doctype:    doc.Doctype,
		Name:       doc.Name,
		Docstatus:  doc.Docstatus,
		Fields:     document.NewFieldMap(),
		ModifiedAt: doc.ModifiedString(),
	}

	for _, key := range doc.Fields.Keys() {
		if _, internal := internalFields[key]; internal {
			continue
		}
		v, _ := doc.Fields.Get(key)
		p.Fields.Set(key, v)
	}

	var (
		deps []Dependency
		seen = make(map[Dependency]struct{})
	)
	collect := func(dep Dependency) {
		if dep.Doctype == document.DoctypeCatalog || dep.Name == "" {
			return
		}
		if _, ok := seen[dep]; ok {
			return
		}
		seen[dep] = struct{}{}
		deps = append(deps, dep)
	}

	for _, lf := range meta.LinkFields {
		if v, ok := doc.Fields.Get(lf.Fieldname); ok && !v.IsNull() {
			collect(Dependency{Doctype: lf.Target, Name: v.Text()})
		}
	}

	for _, tf := range meta.TableFields {
		// Empty tables are transmitted too: an origin that removed every
		// row still needs the receiver to delete its copies.
		rows := doc.Rows(tf.Fieldname)
		childMeta, err := c.meta.Meta(ctx, tf.RowDoctype)
		if err != nil {
			return nil, fmt.Errorf("meta for %s: %w", tf.RowDoctype, err)
		}

		if p.Children == nil {
			p.Children = make(map[string][]Row)
		}
		out := make([]Row, 0, len(rows))
		for _, row := range rows {
			out = append(out, Row{Name: row.Name, Fields: row.Fields.Clone()})
			for _, lf := range childMeta.LinkFields {
				if v, ok := row.Fields.Get(lf.Fieldname); ok && !v.IsNull() {
					collect(Dependency{Doctype: lf.Target, Name: v.Text()})
				}
			}
		}
		p.Children[tf.Fieldname] = out
	}

	p.Dependencies = deps
	return p, nil
}
