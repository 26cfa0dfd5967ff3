package controller

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/shibukawa/snapcheck/definition"
)

// Filters narrow the definitions of every sheet. Empty fields match everything; set fields are ANDed.
type Filters struct {
	Priority    string
	Category    string
	Environment string
	Application string
	// TestIDs keeps only the listed definitions.
	TestIDs []string
	// Tags must all be present on a definition.
	Tags []string
}

// Match reports whether def passes every filter. Disabled definitions never match.
func (f Filters) Match(def definition.TestDefinition) bool {
	if !def.Enable {
		return false
	}

	if !matchFolded(f.Priority, string(def.Priority)) ||
		!matchFolded(f.Category, def.Category) ||
		!matchFolded(f.Environment, def.Environment) ||
		!matchFolded(f.Application, def.Application) {
		return false
	}

	if len(f.TestIDs) > 0 && !containsTrimmed(f.TestIDs, def.ID) {
		return false
	}

	for _, tag := range f.Tags {
		if !def.HasTag(strings.TrimSpace(tag)) {
			return false
		}
	}

	return true
}

// Empty reports whether no filter is set.
func (f Filters) Empty() bool {
	return f.Priority == "" && f.Category == "" && f.Environment == "" && f.Application == "" &&
		len(f.TestIDs) == 0 && len(f.Tags) == 0
}

func matchFolded(want, got string) bool {
	want = strings.TrimSpace(want)
	if want == "" {
		return true
	}

	return cases.Fold().String(want) == cases.Fold().String(strings.TrimSpace(got))
}

func containsTrimmed(list []string, id string) bool {
	for _, v := range list {
		if strings.TrimSpace(v) == id {
			return true
		}
	}

	return false
}
