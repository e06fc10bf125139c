package search

import "strings"

// Item is one record to search: a decoded JSON object.
type Item = map[string]any

// Collection is an ordered sequence of items.
type Collection = []Item

// Lookup returns the value at key, following dots into nested objects
// ("links.github"). A key that exists verbatim wins over a nested path.
func Lookup(item Item, key string) (any, bool) {
	if item == nil {
		return nil, false
	}
	if v, ok := item[key]; ok {
		return v, true
	}
	head, rest, found := strings.Cut(key, ".")
	if !found {
		return nil, false
	}
	nested, ok := item[head].(map[string]any)
	if !ok {
		return nil, false
	}
	return Lookup(nested, rest)
}

// String returns the string at key, or "" when absent or not a string.
func String(item Item, key string) string {
	v, _ := Lookup(item, key)
	s, _ := v.(string)
	return s
}

// Strings returns the string values at key. A scalar string yields a
// one-element slice; arrays keep only their string elements.
func Strings(item Item, key string) []string {
	v, ok := Lookup(item, key)
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case string:
		return []string{t}
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, el := range t {
			if s, ok := el.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Bool returns the boolean at key, false when absent.
func Bool(item Item, key string) bool {
	v, _ := Lookup(item, key)
	b, _ := v.(bool)
	return b
}

// fieldContains reports whether the field at key contains needle, which
// must already be lower-cased. Missing or non-string fields never match.
func fieldContains(item Item, key, needle string) bool {
	for _, s := range Strings(item, key) {
		if strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	return false
}
