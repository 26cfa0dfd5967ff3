package definition

import "strings"

var boolTokens = map[string]bool{
	"TRUE":  true,
	"YES":   true,
	"Y":     true,
	"1":     true,
	"FALSE": false,
	"NO":    false,
	"N":     false,
	"0":     false,
}

// ParseBool interprets an Enable cell. ok is false for unrecognized tokens.
func ParseBool(s string) (value bool, ok bool) {
	value, ok = boolTokens[strings.ToUpper(strings.TrimSpace(s))]
	return value, ok
}

// IsTruthy is the lenient form of ParseBool: anything unrecognized is false.
func IsTruthy(s string) bool {
	v, _ := ParseBool(s)
	return v
}
