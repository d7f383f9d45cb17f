package utils

import "fmt"

// ToString converts various types to string.
// Remote systems are loose about scalar types: the access-control API
// returns entity ids as JSON numbers or strings depending on the endpoint,
// and booking form answers arrive as arbitrary JSON values.
func ToString(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		// JSON numbers decode as float64; ids are integral in practice.
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
