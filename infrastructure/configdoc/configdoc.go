// Package configdoc introspects the opaque optimizer parameter blob a
// strategy carries into Layer 3 (walk-forward overfitting analysis), so the
// Arena's human-readable report can list which hyperparameters a strategy
// was tuned with without the Arena needing a typed schema for every
// strategy family. Backed by github.com/tidwall/gjson (fast read path) and
// github.com/PaesslerAG/jsonpath (path-query fallback for callers that
// already have a JSONPath expression, e.g. from a stored report template).
package configdoc

import (
	"encoding/json"
	"fmt"

	"github.com/PaesslerAG/jsonpath"
	"github.com/tidwall/gjson"
)

// Doc wraps a strategy's raw opaque params JSON document.
type Doc struct {
	raw string
}

// New parses an arbitrary JSON-encodable params value into a Doc. Params is
// typically a map[string]interface{} carried on a strategy's metadata.
func New(params interface{}) (Doc, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return Doc{}, fmt.Errorf("marshal params: %w", err)
	}
	return Doc{raw: string(raw)}, nil
}

// Get returns the value at a gjson dotted path ("optimizer.window" style),
// and whether it was present.
func (d Doc) Get(path string) (gjson.Result, bool) {
	res := gjson.Get(d.raw, path)
	return res, res.Exists()
}

// Query evaluates a JSONPath expression ("$.optimizer.candidates[*]"
// style) against the document.
func (d Doc) Query(expr string) (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal([]byte(d.raw), &v); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}
	return jsonpath.Get(expr, v)
}

// Keys returns the document's top-level field names, for a report that
// lists "tuned hyperparameters: window, threshold, ..." without needing to
// know the strategy family's schema in advance.
func (d Doc) Keys() []string {
	var out []string
	gjson.Parse(d.raw).ForEach(func(key, _ gjson.Result) bool {
		out = append(out, key.String())
		return true
	})
	return out
}

// String returns the underlying JSON text.
func (d Doc) String() string {
	return d.raw
}
