package workbook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/viant/afs"
	"github.com/xuri/excelize/v2"

	snapcheck "github.com/shibukawa/snapcheck"
)

// Excel is a Source backed by an .xlsx document.
type Excel struct {
	file *excelize.File
}

// Open loads a workbook from a local path or any afs URL (file://, s3://, gs://, https://).
func Open(ctx context.Context, location string) (*Excel, error) {
	if strings.TrimSpace(location) == "" {
		return nil, ErrEmptyLocation
	}

	data, err := afs.New().DownloadWithURL(ctx, snapcheck.ResolveLocation(location))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenWorkbook, location, err)
	}

	x, err := OpenExcel(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", location, err)
	}

	return x, nil
}

// OpenExcel reads an .xlsx document from r.
func OpenExcel(r io.Reader) (*Excel, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenWorkbook, err)
	}

	return &Excel{file: f}, nil
}

// Close releases the underlying document.
func (x *Excel) Close() error {
	return x.file.Close()
}

func (x *Excel) SheetNames() []string {
	return x.file.GetSheetList()
}

// Sheet reads every row of name. Cells arrive as their formatted text.
func (x *Excel) Sheet(name string) (*Sheet, error) {
	resolved, ok := lookupName(x.file.GetSheetList(), name)
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrSheetNotFound, name)
	}

	rows, err := x.file.GetRows(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet '%s': %w", resolved, err)
	}

	sheet := &Sheet{Name: resolved}
	if len(rows) == 0 {
		return sheet, nil
	}

	sheet.Header = rows[0]
	sheet.Rows = make([][]any, len(rows)-1)

	for i, row := range rows[1:] {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}

		sheet.Rows[i] = cells
	}

	return sheet, nil
}
