package definition

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// CellString converts a typed cell value into its trimmed textual form.
// Integral floats render without a fractional part so numeric cells such as 30.0 read as "30".
func CellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case bool:
		if x {
			return "TRUE"
		}

		return "FALSE"
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return strconv.FormatInt(int64(x), 10)
		}

		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(time.RFC3339)
	case fmt.Stringer:
		return strings.TrimSpace(x.String())
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

// Cell returns the textual value at index i, or "" past the end of the row.
func Cell(row []any, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}

	return CellString(row[i])
}

// IsBlankRow reports whether every cell of row is empty.
func IsBlankRow(row []any) bool {
	for i := range row {
		if Cell(row, i) != "" {
			return false
		}
	}

	return true
}

// ColumnLetter converts a zero-based column index into a spreadsheet letter (0 -> A, 26 -> AA).
func ColumnLetter(index int) string {
	if index < 0 {
		return ""
	}

	var b []byte
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		b = append([]byte{byte('A' + (n-1)%26)}, b...)
	}

	return string(b)
}
