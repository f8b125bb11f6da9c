// Copyright (c) 2026 Tablewire
// Licensed under the MIT License. See LICENSE file in the project root for details.

package pivot

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
	"unicode/utf8"
)

// Stringify renders a driver value in its canonical textual form.
// nil becomes NullValue.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return NullValue
	case string:
		return val
	case []byte:
		if utf8.Valid(val) {
			return string(val)
		}
		// bytea hex output format
		return fmt.Sprintf("\\x%x", val)
	case [16]byte:
		return formatUUID(val)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.FormatInt(int64(val), 10)
	case int8:
		return strconv.FormatInt(int64(val), 10)
	case int16:
		return strconv.FormatInt(int64(val), 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint8:
		return strconv.FormatUint(uint64(val), 10)
	case uint16:
		return strconv.FormatUint(uint64(val), 10)
	case uint32:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return formatFloat(float64(val), 32, 1e6)
	case float64:
		return formatFloat(val, 64, 1e15)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	case driver.Valuer:
		inner, err := val.Value()
		if err != nil {
			return fmt.Sprint(val)
		}
		return Stringify(inner)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// formatFloat uses the shortest exact digits, switching to exponent form
// outside [1e-4, limit) the way the databases print floats.
func formatFloat(v float64, bitSize int, limit float64) string {
	if abs := math.Abs(v); abs != 0 && !math.IsInf(v, 0) && (abs < 1e-4 || abs >= limit) {
		return strconv.FormatFloat(v, 'e', -1, bitSize)
	}
	return strconv.FormatFloat(v, 'f', -1, bitSize)
}

// formatUUID uses %02x so each byte keeps its leading zero.
func formatUUID(v [16]byte) string {
	return fmt.Sprintf("%02x%02x%02x%02x-%02x%02x-%02x%02x-%02x%02x-%02x%02x%02x%02x%02x%02x",
		v[0], v[1], v[2], v[3], v[4], v[5], v[6], v[7],
		v[8], v[9], v[10], v[11], v[12], v[13], v[14], v[15])
}
