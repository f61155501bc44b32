package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// keySep separates values inside a tuple key. It cannot appear in
// normalized text read from the store.
const keySep = "\x1f"

// missingKey encodes a missing value inside a tuple key.
const missingKey = "\x00"

// IsMissing reports whether v is a missing value: nil or a floating-point NaN.
func IsMissing(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	}
	return false
}

// String returns the text form of a cell value. Missing values render as
// the empty string; callers that need a placeholder apply it themselves.
func String(v any) string {
	if IsMissing(v) {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// Key returns a tuple key for the given columns of a row. Rows with equal
// text values in every column produce equal keys; missing values compare
// equal to each other and to nothing else.
func Key(row Row, cols []string) string {
	var b strings.Builder
	for i, c := range cols {
		if i > 0 {
			b.WriteString(keySep)
		}
		v := row.Get(c)
		if IsMissing(v) {
			b.WriteString(missingKey)
			continue
		}
		b.WriteString(String(v))
	}
	return b.String()
}
