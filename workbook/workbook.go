// Package workbook provides the tabular sources that definition and controller sheets are read from.
package workbook

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors
var (
	ErrSheetNotFound = errors.New("sheet not found")
	ErrEmptyLocation = errors.New("workbook location is empty")
	ErrOpenWorkbook  = errors.New("failed to open workbook")
)

// Sheet is one named table: a header row followed by data rows.
type Sheet struct {
	Name   string
	Header []string
	// Rows excludes the header; Rows[0] is sheet row 2.
	Rows [][]any
}

// Source is a workbook-like store of named sheets.
type Source interface {
	// SheetNames lists sheets in workbook order.
	SheetNames() []string
	// Sheet returns the named sheet or an error wrapping ErrSheetNotFound.
	Sheet(name string) (*Sheet, error)
}

// HasSheet reports whether src contains name.
func HasSheet(src Source, name string) bool {
	_, ok := lookupName(src.SheetNames(), name)
	return ok
}

// lookupName matches exactly first, then ignoring case the way spreadsheet applications do.
func lookupName(names []string, name string) (string, bool) {
	for _, n := range names {
		if n == name {
			return n, true
		}
	}

	for _, n := range names {
		if strings.EqualFold(n, name) {
			return n, true
		}
	}

	return "", false
}

// Memory is an in-memory Source.
type Memory struct {
	order  []string
	sheets map[string]*Sheet
}

// NewMemory creates an empty in-memory source.
func NewMemory() *Memory {
	return &Memory{sheets: make(map[string]*Sheet)}
}

// Add appends or replaces a sheet and returns m for chaining.
func (m *Memory) Add(name string, header []string, rows ...[]any) *Memory {
	if _, exists := m.sheets[name]; !exists {
		m.order = append(m.order, name)
	}

	m.sheets[name] = &Sheet{Name: name, Header: header, Rows: rows}

	return m
}

func (m *Memory) SheetNames() []string {
	return append([]string(nil), m.order...)
}

func (m *Memory) Sheet(name string) (*Sheet, error) {
	resolved, ok := lookupName(m.order, name)
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrSheetNotFound, name)
	}

	return m.sheets[resolved], nil
}
