// Package config holds the dotted-key value table shared by the config
// store adapters and the conversions between it and nested TOML tables.
package config

import (
	"sort"
	"strings"
	"sync"
)

// Values is a concurrency-safe table of settings keyed by dotted path,
// e.g. "chunking.size". The zero value is ready to use.
type Values struct {
	mu   sync.RWMutex
	data map[string]any
}

// Get returns the raw value stored under key.
func (v *Values) Get(key string) (any, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	val, ok := v.data[key]
	return val, ok
}

// GetString returns the value under key if it is a string.
func (v *Values) GetString(key string) string {
	val, _ := v.Get(key)
	s, _ := val.(string)
	return s
}

// GetInt returns the value under key as an int. TOML decodes integers as
// int64 and JSON-ish callers may hand in whole float64s, so both convert.
func (v *Values) GetInt(key string) int {
	val, _ := v.Get(key)
	switch n := val.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if n == float64(int(n)) {
			return int(n)
		}
	}
	return 0
}

// GetFloat returns the value under key as a float64. Integers convert so
// `min_relevance = 0` reads back as 0.0.
func (v *Values) GetFloat(key string) float64 {
	val, _ := v.Get(key)
	switch n := val.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}

// GetBool returns the value under key if it is a bool.
func (v *Values) GetBool(key string) bool {
	val, _ := v.Get(key)
	b, _ := val.(bool)
	return b
}

// GetStringSlice returns the value under key as strings. Non-string
// elements of a decoded TOML array are skipped.
func (v *Values) GetStringSlice(key string) []string {
	val, _ := v.Get(key)
	switch s := val.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// Put stores value under key.
func (v *Values) Put(key string, value any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.data == nil {
		v.data = make(map[string]any)
	}
	v.data[key] = value
}

// Replace swaps the whole table for data, which must already be flat.
func (v *Values) Replace(data map[string]any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.data = data
}

// Keys returns the stored keys in sorted order.
func (v *Values) Keys() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	keys := make([]string, 0, len(v.data))
	for k := range v.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Nested returns a copy of the table with dotted keys expanded into
// nested maps, ready to marshal as TOML tables.
func (v *Values) Nested() map[string]any {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return Nest(v.data)
}

// Flatten turns nested tables into dotted keys: {"a": {"b": 1}} becomes
// {"a.b": 1}.
func Flatten(nested map[string]any) map[string]any {
	flat := make(map[string]any)
	flattenInto(flat, nested, "")
	return flat
}

func flattenInto(dst, src map[string]any, prefix string) {
	for k, val := range src {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if table, ok := val.(map[string]any); ok {
			flattenInto(dst, table, key)
			continue
		}
		dst[key] = val
	}
}

// Nest is the inverse of Flatten. A key that is both a value and a table
// prefix ("a" and "a.b") keeps the value and drops the nested key, since
// TOML cannot hold both.
func Nest(flat map[string]any) map[string]any {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	// Shorter keys first so scalars claim their name before any table does.
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) < len(keys[j])
		}
		return keys[i] < keys[j]
	})

	root := make(map[string]any)
	for _, key := range keys {
		parts := strings.Split(key, ".")
		table := root
		ok := true
		for _, part := range parts[:len(parts)-1] {
			next, exists := table[part]
			if !exists {
				child := make(map[string]any)
				table[part] = child
				table = child
				continue
			}
			child, isTable := next.(map[string]any)
			if !isTable {
				ok = false
				break
			}
			table = child
		}
		if !ok {
			continue
		}
		leaf := parts[len(parts)-1]
		if _, taken := table[leaf]; taken {
			continue
		}
		table[leaf] = flat[key]
	}
	return root
}
