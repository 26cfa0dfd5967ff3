package queryexec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	tblsschema "github.com/k1LoW/tbls/schema"
	snapcheck "github.com/shibukawa/snapcheck"
	"github.com/viant/afs"
)

// Baseline is a documented schema (tbls schema.json) used in place of a live source table.
type Baseline struct {
	schema *tblsschema.Schema
}

// LoadBaseline reads a tbls JSON document from a local path or any afs URL.
func LoadBaseline(ctx context.Context, location string) (*Baseline, error) {
	if strings.TrimSpace(location) == "" {
		return nil, ErrBaselinePathMissing
	}

	data, err := afs.New().DownloadWithURL(ctx, snapcheck.ResolveLocation(location))
	if err != nil {
		return nil, fmt.Errorf("queryexec: open baseline schema %q: %w", location, err)
	}

	baseline, err := DecodeBaseline(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("queryexec: baseline schema %q: %w", location, err)
	}

	return baseline, nil
}

// DecodeBaseline decodes and validates a tbls JSON document.
func DecodeBaseline(r io.Reader) (*Baseline, error) {
	dec := json.NewDecoder(r)

	var schema tblsschema.Schema
	if err := dec.Decode(&schema); err != nil {
		return nil, err
	}

	if schema.Driver == nil || strings.TrimSpace(schema.Driver.Name) == "" {
		return nil, ErrBaselineDriverMissing
	}

	if len(schema.Tables) == 0 {
		return nil, ErrBaselineTablesEmpty
	}

	return &Baseline{schema: &schema}, nil
}

// Columns returns the documented columns of table. Both "schema.table" and bare names match.
func (b *Baseline) Columns(table string) ([]ColumnMeta, error) {
	_, want := splitSchemaAndName(table)

	for _, tbl := range b.schema.Tables {
		if tbl == nil {
			continue
		}

		_, name := splitSchemaAndName(tbl.Name)
		if tbl.Name != table && !strings.EqualFold(name, want) {
			continue
		}

		columns := make([]ColumnMeta, 0, len(tbl.Columns))

		for _, col := range tbl.Columns {
			if col == nil {
				continue
			}

			meta := parseTypeSpec(col.Type)
			meta.Name = col.Name
			meta.Nullable = col.Nullable

			columns = append(columns, meta)
		}

		return columns, nil
	}

	return nil, fmt.Errorf("%w: %s (baseline)", ErrTableNotFound, table)
}
