package snapcheck

import (
	"path/filepath"
	"strings"
)

// ResolveLocation turns a relative local path into an absolute one so it can be
// handed to afs. URLs with a scheme are returned unchanged.
func ResolveLocation(location string) string {
	location = strings.TrimSpace(location)
	if location == "" || strings.Contains(location, "://") {
		return location
	}

	abs, err := filepath.Abs(location)
	if err != nil {
		return location
	}

	return abs
}
