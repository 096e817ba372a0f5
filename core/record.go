package core

import (
	"fmt"
	"time"
)

// Record field accessors tolerant of both native values (in-memory storage
// keeps what it was given) and JSON-decoded values (document backends hand
// back float64 numbers and []any slices).

func recString(rec Record, key string) (string, error) {
	v, ok := rec[key]
	if !ok || v == nil {
		return "", fmt.Errorf("record field %q: missing", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("record field %q: expected string, got %T", key, v)
	}
	return s, nil
}

func recOptString(rec Record, key string) (*string, error) {
	v, ok := rec[key]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("record field %q: expected string, got %T", key, v)
	}
	return &s, nil
}

func recFloat(rec Record, key string) (float64, error) {
	v, ok := rec[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("record field %q: missing", key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("record field %q: expected number, got %T", key, v)
	}
}

func recOptInt64(rec Record, key string) (*int64, error) {
	v, ok := rec[key]
	if !ok || v == nil {
		return nil, nil
	}
	var n int64
	switch t := v.(type) {
	case int64:
		n = t
	case int:
		n = int64(t)
	case float64:
		n = int64(t)
	default:
		return nil, fmt.Errorf("record field %q: expected integer, got %T", key, v)
	}
	return &n, nil
}

func recTime(rec Record, key string) (time.Time, error) {
	s, err := recString(rec, key)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("record field %q: %w", key, err)
	}
	return t, nil
}

func recOptTime(rec Record, key string) (*time.Time, error) {
	s, err := recOptString(rec, key)
	if err != nil || s == nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, *s)
	if err != nil {
		return nil, fmt.Errorf("record field %q: %w", key, err)
	}
	return &t, nil
}

func recStrings(rec Record, key string) ([]string, error) {
	v, ok := rec[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out, nil
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("record field %q: expected string element, got %T", key, e)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("record field %q: expected list, got %T", key, v)
	}
}

func recNotes(rec Record, key string) ([]Note, error) {
	v, ok := rec[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case []Note:
		out := make([]Note, len(t))
		copy(out, t)
		return out, nil
	case []any:
		out := make([]Note, 0, len(t))
		for _, e := range t {
			m, ok := e.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("record field %q: expected note object, got %T", key, e)
			}
			out = append(out, Note(m))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("record field %q: expected list, got %T", key, v)
	}
}

func recBool(rec Record, key string) bool {
	b, ok := rec[key].(bool)
	return ok && b
}
