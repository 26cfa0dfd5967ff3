package definition

import "strings"

const (
	// PairDelimiter separates key/value pairs in a Parameters cell.
	PairDelimiter = ";"
	// KeyValueDelimiter separates a key from its value.
	KeyValueDelimiter = "="
	// DefaultKey receives tokens that carry no key.
	DefaultKey = "table_name"
)

// Params is an insertion-ordered string map parsed from a Parameters cell.
// The zero value is an empty map ready to use.
type Params struct {
	keys   []string
	values map[string]string
}

// ParseParameters parses "k1=v1;k2=v2" into Params.
// A token without "=" is stored under DefaultKey; tokens with an empty key are dropped.
// Later occurrences of a key overwrite the value but keep the original position.
func ParseParameters(s string) Params {
	var p Params

	for _, token := range strings.Split(s, PairDelimiter) {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		key, value, found := strings.Cut(token, KeyValueDelimiter)
		if !found {
			p.Set(DefaultKey, token)
			continue
		}

		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}

		p.Set(key, strings.TrimSpace(value))
	}

	return p
}

// Set stores value under key.
func (p *Params) Set(key, value string) {
	if p.values == nil {
		p.values = make(map[string]string)
	}

	if _, exists := p.values[key]; !exists {
		p.keys = append(p.keys, key)
	}

	p.values[key] = value
}

// Get returns the value stored under key.
func (p Params) Get(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Value returns the non-empty value stored under key, or fallback.
func (p Params) Value(key, fallback string) string {
	if v, ok := p.values[key]; ok && v != "" {
		return v
	}

	return fallback
}

// Has reports whether key is present with a non-empty value.
func (p Params) Has(key string) bool {
	return p.values[key] != ""
}

// List splits a comma separated value into trimmed, non-empty items.
func (p Params) List(key string) []string {
	var items []string

	for _, item := range strings.Split(p.values[key], ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	return items
}

// Keys returns keys in insertion order.
func (p Params) Keys() []string {
	return append([]string(nil), p.keys...)
}

// Len returns the number of stored keys.
func (p Params) Len() int {
	return len(p.keys)
}

// String renders the params back into cell syntax.
func (p Params) String() string {
	parts := make([]string, 0, len(p.keys))
	for _, k := range p.keys {
		parts = append(parts, k+KeyValueDelimiter+p.values[k])
	}

	return strings.Join(parts, PairDelimiter)
}
