// Package utils provides small parsing helpers for query parameters.
package utils

import "strconv"

// AtoiDefault parses s as a positive integer, falling back to def when the
// value is missing, malformed, or not positive.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// ClampInt bounds v to the inclusive range [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
