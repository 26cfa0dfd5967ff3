package workbook

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/shibukawa/snapcheck/definition"
)

// templateRows is the last row covered by drop-down validation.
const templateRows = 1000

var columnWidths = []float64{12, 18, 30, 18, 18, 12, 26, 16, 16, 40, 30, 20, 45}

// TemplateOptions configure WriteTemplate.
type TemplateOptions struct {
	// SheetName is the definition sheet; defaults to SMOKE.
	SheetName string
	// ControllerSheet is omitted when empty.
	ControllerSheet string
	Categories      []string
	Applications    []string
	Environments    []string
	// Samples adds example definitions.
	Samples bool
}

// WriteTemplate writes an .xlsx definition template with drop-down lists for the enumerated columns.
func WriteTemplate(w io.Writer, opts TemplateOptions) error {
	if opts.SheetName == "" {
		opts.SheetName = "SMOKE"
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), opts.SheetName); err != nil {
		return err
	}

	if err := writeHeader(f, opts.SheetName, definition.Headers); err != nil {
		return err
	}

	for i, width := range columnWidths {
		col := definition.ColumnLetter(i)
		if err := f.SetColWidth(opts.SheetName, col, col, width); err != nil {
			return err
		}
	}

	if err := f.SetPanes(opts.SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}

	if err := addDropDowns(f, opts); err != nil {
		return err
	}

	if opts.Samples {
		for i, row := range sampleDefinitions() {
			if err := f.SetSheetRow(opts.SheetName, fmt.Sprintf("A%d", i+2), &row); err != nil {
				return err
			}
		}
	}

	if opts.ControllerSheet != "" {
		if _, err := f.NewSheet(opts.ControllerSheet); err != nil {
			return err
		}

		if err := writeHeader(f, opts.ControllerSheet, definition.ControllerHeaders); err != nil {
			return err
		}

		row := []any{"TRUE", opts.SheetName, "Smoke and data validation tests", "HIGH"}
		if err := f.SetSheetRow(opts.ControllerSheet, "A2", &row); err != nil {
			return err
		}
	}

	_, err := f.WriteTo(w)

	return err
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"366092"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	row := make([]any, len(headers))
	for i, h := range headers {
		row[i] = h
	}

	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return err
	}

	return f.SetCellStyle(sheet, "A1", definition.ColumnLetter(len(headers)-1)+"1", style)
}

func addDropDowns(f *excelize.File, opts TemplateOptions) error {
	lists := map[int][]string{
		definition.ColEnable:         {"TRUE", "FALSE"},
		definition.ColPriority:       {"HIGH", "MEDIUM", "LOW"},
		definition.ColExpectedResult: {"PASS", "FAIL", "SKIP"},
		definition.ColCategory:       opts.Categories,
		definition.ColApplication:    opts.Applications,
		definition.ColEnvironment:    opts.Environments,
	}

	for col, values := range lists {
		if len(values) == 0 {
			continue
		}

		dv := excelize.NewDataValidation(true)
		dv.Sqref = columnRange(col)
		dv.SetError(excelize.DataValidationErrorStyleStop, "Invalid Input", "Invalid value for "+definition.Headers[col])

		if err := dv.SetDropList(values); err != nil {
			return fmt.Errorf("%s drop-down: %w", definition.Headers[col], err)
		}

		if err := f.AddDataValidation(opts.SheetName, dv); err != nil {
			return err
		}
	}

	dv := excelize.NewDataValidation(true)
	dv.Sqref = columnRange(definition.ColTimeout)
	dv.SetError(excelize.DataValidationErrorStyleStop, "Invalid Timeout", "Timeout must be between 5 and 3600 seconds")

	if err := dv.SetRange(5, 3600, excelize.DataValidationTypeWhole, excelize.DataValidationOperatorBetween); err != nil {
		return err
	}

	return f.AddDataValidation(opts.SheetName, dv)
}

func columnRange(col int) string {
	letter := definition.ColumnLetter(col)
	return fmt.Sprintf("%s2:%s%d", letter, letter, templateRows)
}

func sampleDefinitions() [][]any {
	return [][]any{
		{"TRUE", "SMOKE_PG_001", "Database connection", "DATABASE", "DEV", "HIGH", "CONNECTION", "PASS", 30, "Round trip to the database", "", "smoke,connection", ""},
		{"TRUE", "SMOKE_PG_002", "Products table exists", "DATABASE", "DEV", "HIGH", "TABLE_EXISTS", "PASS", 30, "", "", "smoke", "products"},
		{"TRUE", "SCHEMA_PG_001", "Products schema", "DATABASE", "DEV", "HIGH", "SCHEMA_VALIDATION", "PASS", 60, "Source and target columns agree", "", "schema", "source_table=products;target_table=new_products"},
		{"TRUE", "ROWS_PG_001", "Products row count", "DATABASE", "DEV", "MEDIUM", "ROW_COUNT_VALIDATION", "PASS", 60, "", "", "rowcount", "source_table=products;target_table=new_products;tolerance_pct=0"},
		{"TRUE", "NULLS_PG_001", "Products NULL pattern", "DATABASE", "DEV", "MEDIUM", "NULL_VALUE_VALIDATION", "PASS", 60, "", "", "nulls", "source_table=products;target_table=new_products"},
		{"FALSE", "DQ_PG_001", "Orders data quality", "DATABASE", "DEV", "LOW", "DATA_QUALITY_VALIDATION", "PASS", 120, "", "", "quality", "table_name=orders;key_column=order_id;fk_column=customer_id;reference_table=customers;reference_column=id"},
	}
}
