package services

import (
	"fmt"
	"strconv"
	"strings"
)

// FieldParseError reports field text that was present but not numeric.
type FieldParseError struct {
	Field string
	Raw   string
	Err   error
}

func (e *FieldParseError) Error() string {
	return fmt.Sprintf("parse %s from %q: %v", e.Field, e.Raw, e.Err)
}

func (e *FieldParseError) Unwrap() error { return e.Err }

// ParseReviewCount turns text like "1,234 reviews" into 1234. The first
// whitespace token is used with thousands separators removed.
func ParseReviewCount(raw string) (int, error) {
	token := firstToken(raw)
	if token == "" {
		return 0, &FieldParseError{Field: "reviews_count", Raw: raw, Err: fmt.Errorf("no value")}
	}

	n, err := strconv.Atoi(strings.ReplaceAll(token, ",", ""))
	if err != nil {
		return 0, &FieldParseError{Field: "reviews_count", Raw: raw, Err: err}
	}
	return n, nil
}

// ParseReviewAverage turns an accessible label like "4,5 stars" into 4.5.
// A decimal comma is accepted.
func ParseReviewAverage(raw string) (float64, error) {
	token := firstToken(raw)
	if token == "" {
		return 0, &FieldParseError{Field: "reviews_average", Raw: raw, Err: fmt.Errorf("no value")}
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(token, ",", "."), 64)
	if err != nil {
		return 0, &FieldParseError{Field: "reviews_average", Raw: raw, Err: err}
	}
	return v, nil
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
