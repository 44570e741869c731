package ratelimit

import (
	"fmt"
	"strconv"
)

// Script replies come back as int64 for Lua numbers and as string or
// []byte for Lua strings, depending on the client. The helpers below
// normalize that.

func toInt64(value interface{}) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	default:
		return 0, fmt.Errorf("unexpected script reply type %T", value)
	}
}

func toFloat64(value interface{}) (float64, error) {
	switch v := value.(type) {
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		return strconv.ParseFloat(v, 64)
	case []byte:
		return strconv.ParseFloat(string(v), 64)
	default:
		return 0, fmt.Errorf("unexpected script reply type %T", value)
	}
}

func toSlice(value interface{}, want int) ([]interface{}, error) {
	values, ok := value.([]interface{})
	if !ok || len(values) != want {
		return nil, fmt.Errorf("unexpected script reply: %v", value)
	}
	return values, nil
}
