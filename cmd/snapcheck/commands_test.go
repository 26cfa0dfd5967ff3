package main

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/fatih/color"
	"github.com/xuri/excelize/v2"

	"github.com/shibukawa/snapcheck/workbook"
)

func TestMain(m *testing.M) {
	color.NoColor = true

	os.Exit(m.Run())
}

// fixture holds a template workbook, a sqlite database and a config pointing at both.
type fixture struct {
	dir      string
	workbook string
	config   string
	db       *sql.DB
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	f := &fixture{
		dir:      dir,
		workbook: filepath.Join(dir, "tests.xlsx"),
		config:   filepath.Join(dir, "snapcheck.yaml"),
	}

	dbPath := filepath.Join(dir, "test.db")

	db, err := sql.Open("sqlite3", dbPath)
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	for _, stmt := range []string{
		"CREATE TABLE products (id INTEGER PRIMARY KEY, name TEXT NOT NULL, price NUMERIC)",
		"CREATE TABLE new_products (id INTEGER PRIMARY KEY, name TEXT NOT NULL, price NUMERIC)",
		"INSERT INTO products VALUES (1, 'apple', 1.5), (2, 'pear', NULL), (3, 'plum', 0.5)",
		"INSERT INTO new_products SELECT * FROM products",
	} {
		_, err := db.Exec(stmt)
		assert.NoError(t, err)
	}

	f.db = db

	config := "dialect: sqlite\n" +
		"databases:\n" +
		"  test:\n" +
		"    connection: \"" + dbPath + "\"\n" +
		"workbook:\n" +
		"  location: \"" + f.workbook + "\"\n"
	assert.NoError(t, os.WriteFile(f.config, []byte(config), 0o600))

	err = (&TemplateCmd{Output: f.workbook, SheetName: "SMOKE"}).Run(&Context{Config: f.config, Quiet: true})
	assert.NoError(t, err)

	return f
}

func (f *fixture) context(out *bytes.Buffer) *Context {
	return &Context{Config: f.config, Stdout: out}
}

func TestTemplateCommand(t *testing.T) {
	f := newFixture(t)

	err := (&TemplateCmd{Output: f.workbook, SheetName: "SMOKE"}).Run(&Context{Config: f.config, Quiet: true})
	assert.IsError(t, err, ErrOutputFileExists)

	err = (&TemplateCmd{Output: f.workbook, SheetName: "NIGHTLY", Force: true, NoSamples: true}).Run(&Context{Config: f.config, Quiet: true})
	assert.NoError(t, err)

	wb, err := workbook.Open(t.Context(), f.workbook)
	assert.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, []string{"NIGHTLY", "CONTROLLER"}, wb.SheetNames())

	sheet, err := wb.Sheet("NIGHTLY")
	assert.NoError(t, err)
	assert.Equal(t, 0, len(sheet.Rows))
}

func TestValidateCommand(t *testing.T) {
	f := newFixture(t)

	var out bytes.Buffer

	err := (&ValidateCmd{}).Run(f.context(&out))
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "Sheet SMOKE (6 rows): 0 errors")
	assert.Contains(t, out.String(), "ready to execute")
}

func TestValidateCommandReportsBrokenSheet(t *testing.T) {
	f := newFixture(t)

	broken := filepath.Join(f.dir, "broken.xlsx")
	x := excelize.NewFile()
	header := []any{"Enable", "Test_Case_ID", "Wrong"}
	assert.NoError(t, x.SetSheetRow("Sheet1", "A1", &header))
	assert.NoError(t, x.SaveAs(broken))
	assert.NoError(t, x.Close())

	var out bytes.Buffer

	err := (&ValidateCmd{WorkbookArgs: WorkbookArgs{Workbook: broken, Sheet: "Sheet1"}}).Run(f.context(&out))
	assert.IsError(t, err, ErrSheetNotUsable)
	assert.Contains(t, out.String(), "Header mismatch in column C")
}

func TestSheetsCommand(t *testing.T) {
	f := newFixture(t)

	var out bytes.Buffer

	err := (&SheetsCmd{}).Run(f.context(&out))
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "SMOKE")
	assert.Contains(t, out.String(), "5/6 tests enabled")
	assert.Contains(t, out.String(), "1 of 1 sheets enabled")
}

func TestRunCommand(t *testing.T) {
	f := newFixture(t)

	var out bytes.Buffer

	err := (&RunCmd{}).Run(f.context(&out))
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "Sheet SMOKE")
	assert.Contains(t, out.String(), "5 total")
	assert.Contains(t, out.String(), "Success rate: 100.0%")

	_, err = f.db.Exec("INSERT INTO new_products VALUES (4, 'fig', 3.0)")
	assert.NoError(t, err)

	out.Reset()

	err = (&RunCmd{}).Run(f.context(&out))
	assert.IsError(t, err, ErrTestsFailed)
	assert.Contains(t, out.String(), "ROWS_PG_001")
	assert.Contains(t, out.String(), "FAIL")
}

func TestRunCommandFilters(t *testing.T) {
	f := newFixture(t)

	var out bytes.Buffer

	err := (&RunCmd{Tags: []string{"smoke"}}).Run(f.context(&out))
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "2 total")
	assert.NotContains(t, out.String(), "SCHEMA_PG_001")
}

func TestRunCommandWithoutDatabase(t *testing.T) {
	f := newFixture(t)

	config := filepath.Join(f.dir, "nodb.yaml")
	assert.NoError(t, os.WriteFile(config, []byte("workbook:\n  location: \""+f.workbook+"\"\n"), 0o600))

	err := (&RunCmd{}).Run(&Context{Config: config, Quiet: true})
	assert.IsError(t, err, ErrNoDatabase)
}

func TestRunCommandWithoutWorkbook(t *testing.T) {
	err := (&RunCmd{}).Run(&Context{Config: filepath.Join(t.TempDir(), "absent.yaml"), Quiet: true})
	assert.IsError(t, err, ErrNoWorkbook)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer

	assert.NoError(t, (&VersionCmd{}).Run(&Context{Stdout: &out}))
	assert.Equal(t, "SnapCheck v0.1.0\n", out.String())
}
