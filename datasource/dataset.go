package datasource

import (
	"encoding/json"
	"fmt"
)

// Item is one record of a collection: a decoded JSON object.
type Item = map[string]any

// Collection is an ordered sequence of items of one shape.
type Collection = []Item

// Dataset is the payload of one endpoint. The raw JSON is kept so the
// dataset can be re-served verbatim or decoded into typed values; the
// generic decoding is done once and shared read-only.
type Dataset struct {
	Endpoint string
	Raw      json.RawMessage

	value any
}

// NewDataset decodes raw and returns the dataset for endpoint.
func NewDataset(endpoint string, raw []byte) (*Dataset, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return &Dataset{Endpoint: endpoint, Raw: json.RawMessage(raw), value: v}, nil
}

// Value returns the generic decoded payload. Callers must not mutate it.
func (d *Dataset) Value() any {
	if d == nil {
		return nil
	}
	return d.value
}

// Decode unmarshals the raw payload into v.
func (d *Dataset) Decode(v any) error {
	if d == nil {
		return fmt.Errorf("decode: nil dataset")
	}
	return json.Unmarshal(d.Raw, v)
}

// Collection flattens the payload into items. A top-level array is used
// as is. An envelope object is unwrapped through itemsKey, or through a
// "categories" array whose entries each carry an itemsKey array; items
// taken from a category get a "category" field when they lack one.
// Anything else yields an empty collection.
func (d *Dataset) Collection(itemsKey string) Collection {
	if d == nil {
		return nil
	}
	return flatten(d.value, itemsKey)
}

func flatten(v any, itemsKey string) Collection {
	switch t := v.(type) {
	case []any:
		out := make(Collection, 0, len(t))
		for _, el := range t {
			if item, ok := el.(map[string]any); ok {
				out = append(out, item)
			}
		}
		return out
	case map[string]any:
		if itemsKey != "" {
			if inner, ok := t[itemsKey]; ok {
				return flatten(inner, itemsKey)
			}
		}
		cats, ok := t["categories"].([]any)
		if !ok {
			return nil
		}
		var out Collection
		for _, c := range cats {
			cat, ok := c.(map[string]any)
			if !ok {
				continue
			}
			name := categoryName(cat)
			for _, item := range flatten(cat[itemsKey], itemsKey) {
				if _, has := item["category"]; !has && name != "" {
					item = withField(item, "category", name)
				}
				out = append(out, item)
			}
		}
		return out
	}
	return nil
}

func categoryName(cat map[string]any) string {
	for _, k := range []string{"id", "name", "title"} {
		if s, ok := cat[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// withField returns a shallow copy of item with key set, leaving the
// cached original untouched.
func withField(item Item, key string, value any) Item {
	cp := make(Item, len(item)+1)
	for k, v := range item {
		cp[k] = v
	}
	cp[key] = value
	return cp
}
