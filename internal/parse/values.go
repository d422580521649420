// Package parse converts raw wire values (path parameters, query strings and
// ID strings from JSON bodies) into typed values.
package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var idRe = regexp.MustCompile(`^[1-9][0-9]*$`)

// dateLayouts are tried in order by Time.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ID parses a positive integer identifier.
func ID(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if !idRe.MatchString(s) {
		return 0, fmt.Errorf("invalid id: %q", raw)
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id: %q", raw)
	}
	return id, nil
}

// OptionalID returns nil for an empty value.
func OptionalID(raw string) (*int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	id, err := ID(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func OptionalInt(raw string) (*int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("invalid integer: %q", raw)
	}
	return &n, nil
}

func OptionalFloat(raw string) (*float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number: %q", raw)
	}
	return &f, nil
}

func OptionalBool(raw string) (*bool, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, fmt.Errorf("invalid boolean: %q", raw)
	}
	return &b, nil
}

// Time accepts RFC3339 timestamps, timestamps without a zone (read as UTC)
// and bare dates. The result is in UTC.
func Time(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp: %q", raw)
}

func OptionalTime(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := Time(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// OptionalString returns nil for an empty value.
func OptionalString(raw string) *string {
	if raw == "" {
		return nil
	}
	return &raw
}

// List splits comma-separated values, dropping blanks. Repeated query
// parameters may be passed as separate elements.
func List(raws ...string) []string {
	var out []string
	for _, raw := range raws {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
