package postgres

import (
	"context"
	"fmt"

	"syncmesh/internal/domain/document"
)

// MetaProvider serves doctype metadata from the doctype_fields catalog
// table. Only link and table fields are stored there; plain scalar
// fields need no schema to replicate.
type MetaProvider struct {
	db dbtx
}

// NewMetaProvider creates a catalog-backed meta provider.
func NewMetaProvider(storage *Storage) *MetaProvider {
	return &MetaProvider{db: storage.Pool()}
}

// Meta returns the link and table fields of doctype in definition
// order. A doctype without catalog rows yields an empty meta.
func (p *MetaProvider) Meta(ctx context.Context, doctype string) (*document.Meta, error) {
	rows, err := p.db.Query(ctx,
		`SELECT fieldname, fieldtype, options FROM doctype_fields
		 WHERE doctype = $1 ORDER BY idx`,
		doctype,
	)
	if err != nil {
		return nil, fmt.Errorf("query doctype fields: %w", err)
	}
	defer rows.Close()

	meta := &document.Meta{Doctype: doctype}
	for rows.Next() {
		var fieldname, fieldtype, options string
		if err := rows.Scan(&fieldname, &fieldtype, &options); err != nil {
			return nil, fmt.Errorf("scan doctype field: %w", err)
		}
		switch fieldtype {
		case "Link":
			meta.LinkFields = append(meta.LinkFields, document.LinkField{
				Fieldname: fieldname,
				Target:    options,
			})
		case "Table":
			meta.TableFields = append(meta.TableFields, document.TableField{
				Fieldname:  fieldname,
				RowDoctype: options,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate doctype fields: %w", err)
	}
	return meta, nil
}
