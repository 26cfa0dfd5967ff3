package main

import "errors"

// Sentinel errors for command operations
var (
	ErrTestsFailed      = errors.New("one or more tests failed")
	ErrSheetNotUsable   = errors.New("one or more sheets failed validation")
	ErrNoWorkbook       = errors.New("no workbook given and workbook.location is not configured")
	ErrNoDatabase       = errors.New("no database configured: use --db or configure databases")
	ErrOutputFileExists = errors.New("output file already exists")
)
