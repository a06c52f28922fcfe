package messages

import (
	"fmt"
	"math"
	"strconv"

	"github.com/hypebeast/go-osc/osc"
)

// Build creates an OSC message for address. Each argument is coerced to one
// of the wire types QLab understands (string, bool, int32, float32).
//
// Arguments that are empty or false are dropped instead of being encoded as
// zero values. QLab treats a missing argument as a query, so callers must not
// depend on argument positions when a value may be empty.
func Build(address string, args ...any) *osc.Message {
	msg := osc.NewMessage(address)
	for _, arg := range args {
		if v, ok := Coerce(arg); ok {
			msg.Append(v)
		}
	}
	return msg
}

// Coerce converts a Go value to its OSC wire representation. The second
// return value is false when the value is falsy and must be omitted.
// Integers outside the int32 range are sent as decimal strings.
func Coerce(arg any) (any, bool) {
	switch v := arg.(type) {
	case nil:
		return nil, false
	case string:
		return v, v != ""
	case bool:
		return v, v
	case int:
		return coerceInt(int64(v))
	case int8:
		return int32(v), v != 0
	case int16:
		return int32(v), v != 0
	case int32:
		return v, v != 0
	case int64:
		return coerceInt(v)
	case uint:
		return coerceUint(uint64(v))
	case uint8:
		return int32(v), v != 0
	case uint16:
		return int32(v), v != 0
	case uint32:
		return coerceUint(uint64(v))
	case uint64:
		return coerceUint(v)
	case float32:
		return v, v != 0
	case float64:
		return float32(v), v != 0
	case fmt.Stringer:
		s := v.String()
		return s, s != ""
	default:
		s := fmt.Sprint(v)
		return s, s != ""
	}
}

func coerceInt(v int64) (any, bool) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return strconv.FormatInt(v, 10), true
	}
	return int32(v), v != 0
}

func coerceUint(v uint64) (any, bool) {
	if v > math.MaxInt32 {
		return strconv.FormatUint(v, 10), true
	}
	return int32(v), v != 0
}
