package utils

import (
	"strconv"
	"strings"
)

// ParseQueryList handles both repeated and comma-separated query params.
// Example:
//
//	?category=cafe,bakery   → ["cafe","bakery"]
//	?category=cafe&category=bakery  → ["cafe","bakery"]
func ParseQueryList(q map[string][]string, key string) []string {
	values := q[key]

	if len(values) == 0 {
		return nil
	}

	// If single value contains commas, split it
	if len(values) == 1 && strings.Contains(values[0], ",") {
		parts := strings.Split(values[0], ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}

	cleaned := make([]string, len(values))
	for i, v := range values {
		cleaned[i] = strings.TrimSpace(v)
	}
	return cleaned
}

// ParseIntList parses a CSV/repeated query param into ints, dropping values
// that do not parse. Used for day-of-week selections (?days=1,3,5).
func ParseIntList(q map[string][]string, key string) []int {
	raw := ParseQueryList(q, key)
	if len(raw) == 0 {
		return nil
	}
	out := make([]int, 0, len(raw))
	for _, s := range raw {
		if n, err := strconv.Atoi(s); err == nil {
			out = append(out, n)
		}
	}
	return out
}

// ParsePagination reads limit/offset with sane defaults and caps.
func ParsePagination(q map[string][]string, defaultLimit, maxLimit int) (limit, offset int) {
	limit = defaultLimit
	if vals := q["limit"]; len(vals) > 0 {
		if n, err := strconv.Atoi(vals[0]); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if vals := q["offset"]; len(vals) > 0 {
		if n, err := strconv.Atoi(vals[0]); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
