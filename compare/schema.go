package compare

import (
	"context"
	"strings"

	"github.com/shibukawa/snapcheck/queryexec"
)

// ColumnIssue classifies one schema difference.
type ColumnIssue string

const (
	MissingInTarget ColumnIssue = "MISSING_IN_TARGET"
	ExtraInTarget   ColumnIssue = "EXTRA_IN_TARGET"
	SchemaMismatch  ColumnIssue = "SCHEMA_MISMATCH"
)

// ColumnDiff is one schema difference between source and target.
type ColumnDiff struct {
	Column     string
	Issue      ColumnIssue
	SourceType string
	TargetType string
	// Properties lists the differing attributes of a SCHEMA_MISMATCH (type, length, precision, scale, nullable).
	Properties []string
}

// SchemaDetails is the payload of SchemaCompare.
type SchemaDetails struct {
	SourceTable   string
	TargetTable   string
	Baseline      string
	SourceColumns int
	TargetColumns int
	Diffs         []ColumnDiff
}

func (SchemaDetails) Operation() string { return "schema_compare" }

// Count returns the number of diffs with the given issue.
func (d SchemaDetails) Count(issue ColumnIssue) int {
	n := 0

	for _, diff := range d.Diffs {
		if diff.Issue == issue {
			n++
		}
	}

	return n
}

// SchemaCompare diffs column metadata of source and target by column name.
// With a baseline_schema parameter the source columns come from a tbls document.
type SchemaCompare struct {
	Settings Settings
}

func (c SchemaCompare) Compare(ctx context.Context, q queryexec.Querier, req Request) Outcome {
	const op = "Schema validation"

	if err := requireTables(req, true); err != nil {
		return fault(op, err)
	}

	details := SchemaDetails{SourceTable: req.Source, TargetTable: req.Target}

	var (
		source []queryexec.ColumnMeta
		err    error
	)

	if location := req.Params.Value("baseline_schema", ""); location != "" {
		loader := c.Settings.LoadBaseline
		if loader == nil {
			loader = queryexec.LoadBaseline
		}

		baseline, err := loader(ctx, location)
		if err != nil {
			return fault(op, err)
		}

		if source, err = baseline.Columns(req.Source); err != nil {
			return fault(op, err)
		}

		details.Baseline = location
	} else if source, err = q.Columns(ctx, req.Source); err != nil {
		return fault(op, err)
	}

	target, err := q.Columns(ctx, req.Target)
	if err != nil {
		return fault(op, err)
	}

	details.SourceColumns = len(source)
	details.TargetColumns = len(target)
	details.Diffs = diffColumns(source, target, details.Baseline != "")

	if len(details.Diffs) > 0 {
		return fail(details, "Schema differences found between %s and %s: %d missing, %d extra, %d mismatched",
			req.Source, req.Target,
			details.Count(MissingInTarget), details.Count(ExtraInTarget), details.Count(SchemaMismatch))
	}

	return pass(details, "Schema validation passed for %s vs %s (%d columns)", req.Source, req.Target, len(source))
}

// diffColumns lists missing and mismatched columns in source order, then extra columns in target order.
// lenient skips length, precision and scale unless both sides report them.
func diffColumns(source, target []queryexec.ColumnMeta, lenient bool) []ColumnDiff {
	targetByName := make(map[string]queryexec.ColumnMeta, len(target))
	for _, col := range target {
		targetByName[strings.ToLower(col.Name)] = col
	}

	sourceNames := make(map[string]bool, len(source))

	var diffs []ColumnDiff

	for _, src := range source {
		key := strings.ToLower(src.Name)
		sourceNames[key] = true

		tgt, ok := targetByName[key]
		if !ok {
			diffs = append(diffs, ColumnDiff{Column: src.Name, Issue: MissingInTarget, SourceType: src.Format(), TargetType: "N/A"})
			continue
		}

		if props := differingProperties(src, tgt, lenient); len(props) > 0 {
			diffs = append(diffs, ColumnDiff{
				Column:     src.Name,
				Issue:      SchemaMismatch,
				SourceType: src.Format(),
				TargetType: tgt.Format(),
				Properties: props,
			})
		}
	}

	for _, tgt := range target {
		if !sourceNames[strings.ToLower(tgt.Name)] {
			diffs = append(diffs, ColumnDiff{Column: tgt.Name, Issue: ExtraInTarget, SourceType: "N/A", TargetType: tgt.Format()})
		}
	}

	return diffs
}

func differingProperties(a, b queryexec.ColumnMeta, lenient bool) []string {
	var props []string

	if canonicalType(a.Type) != canonicalType(b.Type) {
		props = append(props, "type")
	}

	differs := func(x, y int64) bool {
		if lenient && (x == 0 || y == 0) {
			return false
		}

		return x != y
	}

	if differs(a.Length, b.Length) {
		props = append(props, "length")
	}

	if differs(a.Precision, b.Precision) {
		props = append(props, "precision")
	}

	if differs(a.Scale, b.Scale) {
		props = append(props, "scale")
	}

	if a.Nullable != b.Nullable {
		props = append(props, "nullable")
	}

	return props
}

var typeSynonyms = map[string]string{
	"character varying":           "varchar",
	"character":                   "char",
	"bpchar":                      "char",
	"int":                         "integer",
	"int4":                        "integer",
	"int8":                        "bigint",
	"int2":                        "smallint",
	"bool":                        "boolean",
	"decimal":                     "numeric",
	"float8":                      "double precision",
	"double":                      "double precision",
	"float4":                      "real",
	"timestamp without time zone": "timestamp",
	"timestamp with time zone":    "timestamptz",
}

func canonicalType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	if syn, ok := typeSynonyms[t]; ok {
		return syn
	}

	return t
}
