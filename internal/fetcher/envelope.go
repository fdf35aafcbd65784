package fetcher

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/immo-dpe/dpe-search/internal/model"
)

// Envelope describes where a response keeps its record list. The upstream
// portals have changed envelope shape over time, so several keys are probed.
type Envelope struct {
	// Keys are probed in order; the first whose value is a list wins.
	Keys []string

	// Unwrap lists per-element keys whose object value replaces the element
	// (e.g. "fields" on records endpoints, "properties" on GeoJSON features).
	Unwrap []string
}

// ListingEnvelope matches the DPE listing endpoints.
var ListingEnvelope = Envelope{
	Keys:   []string{"results", "data", "hits", "rows", "records"},
	Unwrap: []string{"fields", "_source"},
}

// Extract decodes body and returns its records. A top-level JSON array is
// accepted as-is. Elements that are not objects are skipped. A body that is
// not JSON, or that has no list under any probed key, is an error.
func (e Envelope) Extract(body []byte) ([]model.RawRecord, error) {
	recs, _, err := e.ExtractPage(body)
	return recs, err
}

// ExtractPage is Extract that also reports the length of the list as the
// server sent it, skipped elements included, for end-of-pages detection.
func (e Envelope) ExtractPage(body []byte) ([]model.RawRecord, int, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, 0, eris.Wrap(err, "envelope: decode body")
	}

	items, ok := e.findList(doc)
	if !ok {
		return nil, 0, eris.Errorf("envelope: no record list under %v", e.Keys)
	}

	out := make([]model.RawRecord, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, e.unwrap(obj))
	}
	return out, len(items), nil
}

func (e Envelope) findList(doc any) ([]any, bool) {
	switch v := doc.(type) {
	case []any:
		return v, true
	case map[string]any:
		for _, key := range e.Keys {
			switch inner := v[key].(type) {
			case []any:
				return inner, true
			case map[string]any:
				// e.g. {"hits": {"total": 3, "hits": [...]}}
				if list, ok := firstList(inner); ok {
					return list, true
				}
			}
		}
	}
	return nil, false
}

// firstList returns the first list value of obj in key order.
func firstList(obj map[string]any) ([]any, bool) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if list, ok := obj[k].([]any); ok {
			return list, true
		}
	}
	return nil, false
}

func (e Envelope) unwrap(obj map[string]any) model.RawRecord {
	for _, key := range e.Unwrap {
		if inner, ok := obj[key].(map[string]any); ok {
			return model.RawRecord(inner)
		}
	}
	return model.RawRecord(obj)
}
