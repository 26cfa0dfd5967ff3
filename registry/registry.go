// Package registry maps test categories to comparison strategies and carries the
// allow-lists consulted during definition validation. A Registry is built once and
// injected; it is never modified afterwards.
package registry

import (
	"fmt"
	"regexp"

	"golang.org/x/text/cases"

	snapcheck "github.com/shibukawa/snapcheck"
	"github.com/shibukawa/snapcheck/compare"
)

// Entry is one registered category.
type Entry struct {
	Category   Category
	Operation  string
	Comparator compare.Comparator
	// Offline entries run without a database connection.
	Offline bool
}

// Registry is the read-only category table plus validation allow-lists.
type Registry struct {
	entries      map[Category]Entry
	applications map[string]bool
	environments map[string]bool
	idPattern    *regexp.Regexp
}

// Options configure New.
type Options struct {
	Settings     compare.Settings
	Applications []string
	Environments []string
	// IDPattern is the recommended Test_Case_ID format; empty disables the check.
	IDPattern string
	// Overrides replace the comparator of individual categories.
	Overrides map[Category]compare.Comparator
}

// New builds a registry with every category bound to its comparison operation.
func New(opts Options) (*Registry, error) {
	s := opts.Settings

	comparators := map[Category]compare.Comparator{
		Setup:                   compare.EnvironmentSetup{Settings: s},
		Configuration:           compare.ConfigAvailability{Settings: s},
		Security:                compare.EnvironmentCredentials{Settings: s},
		Compatibility:           compare.NotImplemented{Name: "Compatibility"},
		Monitoring:              compare.NotImplemented{Name: "Monitoring"},
		Backup:                  compare.NotImplemented{Name: "Backup"},
		Connection:              compare.Connection{},
		Queries:                 compare.Queries{},
		Performance:             compare.Performance{},
		TableExists:             compare.TableExists{},
		TableSelect:             compare.TableSelect{},
		TableRows:               compare.TableRows{},
		TableStructure:          compare.TableStructure{},
		SchemaValidation:        compare.SchemaCompare{Settings: s},
		RowCountValidation:      compare.RowCountCompare{Settings: s},
		NullValueValidation:     compare.NullPatternCompare{Settings: s},
		DataQualityValidation:   compare.DataQualityCompare{Settings: s},
		ColumnCompareValidation: compare.ColumnCompare{Settings: s},
	}

	for c, comparator := range opts.Overrides {
		comparators[c] = comparator
	}

	r := &Registry{
		entries:      make(map[Category]Entry, len(comparators)),
		applications: foldedSet(opts.Applications),
		environments: foldedSet(opts.Environments),
	}

	for c, comparator := range comparators {
		r.entries[c] = Entry{Category: c, Operation: c.Operation(), Comparator: comparator, Offline: c.Offline()}
	}

	if opts.IDPattern != "" {
		re, err := regexp.Compile(opts.IDPattern)
		if err != nil {
			return nil, fmt.Errorf("registry: id pattern: %w", err)
		}

		r.idPattern = re
	}

	return r, nil
}

// FromConfig builds a registry from the loaded configuration.
func FromConfig(cfg *snapcheck.Config) (*Registry, error) {
	settings := compare.DefaultSettings()
	settings.SampleLimit = cfg.Execution.SampleLimit
	settings.Config = cfg
	settings.Environment = cfg.Execution.Environment
	settings.Severities = map[compare.CheckKind]compare.Severity{
		compare.CheckDuplicates:    compare.Severity(cfg.Quality.Duplicates),
		compare.CheckOrphans:       compare.Severity(cfg.Quality.Orphans),
		compare.CheckInvalidValues: compare.Severity(cfg.Quality.InvalidValues),
		compare.CheckMissingData:   compare.Severity(cfg.Quality.MissingData),
	}

	return New(Options{
		Settings:     settings,
		Applications: cfg.Registry.Applications,
		Environments: cfg.Registry.Environments,
		IDPattern:    cfg.Registry.IDPattern,
	})
}

// Lookup resolves a category name. ok is false for Unknown.
func (r *Registry) Lookup(name string) (Entry, bool) {
	entry, ok := r.entries[ParseCategory(name)]
	return entry, ok
}

// KnownApplication reports allow-list membership, ignoring case. An empty list allows everything.
func (r *Registry) KnownApplication(name string) bool {
	return len(r.applications) == 0 || r.applications[folded(name)]
}

// KnownEnvironment reports allow-list membership, ignoring case. An empty list allows everything.
func (r *Registry) KnownEnvironment(name string) bool {
	return len(r.environments) == 0 || r.environments[folded(name)]
}

// MatchesIDPattern reports whether id follows the recommended format.
func (r *Registry) MatchesIDPattern(id string) bool {
	return r.idPattern == nil || r.idPattern.MatchString(id)
}

// IDPattern returns the recommended format, or "".
func (r *Registry) IDPattern() string {
	if r.idPattern == nil {
		return ""
	}

	return r.idPattern.String()
}

func foldedSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[folded(v)] = true
	}

	return set
}

// folded returns the case-folded form of s. A Caser is stateful, so one is made per call.
func folded(s string) string {
	return cases.Fold().String(s)
}
