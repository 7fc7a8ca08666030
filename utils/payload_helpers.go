package utils

import (
	"fmt"
	"time"
)

// ExtractString safely extracts a string field from a duck-typed payload map
func ExtractString(payload map[string]interface{}, field string) string {
	if v, ok := payload[field]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// ExtractTimestamp extracts a timestamp field that may arrive as an
// RFC3339 string or as a numeric epoch (seconds or milliseconds), and
// normalizes it to RFC3339.
func ExtractTimestamp(payload map[string]interface{}, field string) string {
	v, ok := payload[field]
	if !ok {
		return ""
	}
	switch ts := v.(type) {
	case string:
		return ts
	case float64:
		epoch := int64(ts)
		if epoch > 1e12 {
			// milliseconds
			return time.UnixMilli(epoch).UTC().Format(time.RFC3339)
		}
		return time.Unix(epoch, 0).UTC().Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}
