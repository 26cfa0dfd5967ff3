package registry

import "strings"

// Category is the closed set of test categories. Unknown covers every unrecognized name.
type Category int

const (
	Unknown Category = iota
	Setup
	Configuration
	Security
	Connection
	Queries
	Performance
	Compatibility
	Monitoring
	Backup
	TableExists
	TableSelect
	TableRows
	TableStructure
	SchemaValidation
	RowCountValidation
	NullValueValidation
	DataQualityValidation
	ColumnCompareValidation

	categoryEnd
)

type categoryInfo struct {
	name      string
	operation string
	// tables is the number of tables the category reads: 0 (none), 1 (table_name) or 2 (source and target).
	tables int
	// offline categories inspect the configuration and run without a database connection.
	offline bool
	// placeholder categories are accepted in sheets but always skipped.
	placeholder bool
}

var categories = map[Category]categoryInfo{
	Setup:                   {name: "SETUP", operation: "environment_setup", offline: true},
	Configuration:           {name: "CONFIGURATION", operation: "config_availability", offline: true},
	Security:                {name: "SECURITY", operation: "environment_credentials", offline: true},
	Connection:              {name: "CONNECTION", operation: "connection_check"},
	Queries:                 {name: "QUERIES", operation: "basic_queries"},
	Performance:             {name: "PERFORMANCE", operation: "connection_performance"},
	Compatibility:           {name: "COMPATIBILITY", operation: "compatibility", offline: true, placeholder: true},
	Monitoring:              {name: "MONITORING", operation: "monitoring", offline: true, placeholder: true},
	Backup:                  {name: "BACKUP", operation: "backup_restore", offline: true, placeholder: true},
	TableExists:             {name: "TABLE_EXISTS", operation: "table_exists", tables: 1},
	TableSelect:             {name: "TABLE_SELECT", operation: "table_select", tables: 1},
	TableRows:               {name: "TABLE_ROWS", operation: "table_rows", tables: 1},
	TableStructure:          {name: "TABLE_STRUCTURE", operation: "table_structure", tables: 1},
	SchemaValidation:        {name: "SCHEMA_VALIDATION", operation: "schema_compare", tables: 2},
	RowCountValidation:      {name: "ROW_COUNT_VALIDATION", operation: "row_count_compare", tables: 2},
	NullValueValidation:     {name: "NULL_VALUE_VALIDATION", operation: "null_compare", tables: 2},
	DataQualityValidation:   {name: "DATA_QUALITY_VALIDATION", operation: "quality_compare", tables: 1},
	ColumnCompareValidation: {name: "COLUMN_COMPARE_VALIDATION", operation: "column_compare", tables: 2},
}

var byName = func() map[string]Category {
	m := make(map[string]Category, len(categories))
	for c, info := range categories {
		m[info.name] = c
	}

	return m
}()

// ParseCategory resolves a Test_Category cell, ignoring case and surrounding space.
func ParseCategory(s string) Category {
	return byName[strings.ToUpper(strings.TrimSpace(s))]
}

// String returns the sheet spelling of the category.
func (c Category) String() string {
	if info, ok := categories[c]; ok {
		return info.name
	}

	return "UNKNOWN"
}

// Operation names the comparison operation behind the category.
func (c Category) Operation() string {
	return categories[c].operation
}

// TableParams reports how many tables the category reads (0, 1 or 2).
func (c Category) TableParams() int {
	return categories[c].tables
}

// Offline reports whether the category runs without a database connection.
func (c Category) Offline() bool {
	return categories[c].offline
}

// Placeholder reports whether the category is accepted but has no operation yet.
func (c Category) Placeholder() bool {
	return categories[c].placeholder
}

// Categories lists every known category in declaration order.
func Categories() []Category {
	list := make([]Category, 0, len(categories))
	for c := Unknown + 1; c < categoryEnd; c++ {
		list = append(list, c)
	}

	return list
}

// Names lists every known category name in declaration order.
func Names() []string {
	cats := Categories()

	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.String()
	}

	return names
}

// ExecutableNames lists the names of categories that run an operation, leaving out placeholders.
func ExecutableNames() []string {
	var names []string

	for _, c := range Categories() {
		if !c.Placeholder() {
			names = append(names, c.String())
		}
	}

	return names
}
