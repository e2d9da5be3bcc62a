package configdoc

import "testing"

func TestGetAndQuery(t *testing.T) {
	params := map[string]interface{}{
		"optimizer": map[string]interface{}{
			"window":    30,
			"threshold": 0.05,
		},
		"seed": 42,
	}
	doc, err := New(params)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	v, ok := doc.Get("optimizer.window")
	if !ok {
		t.Fatal("expected optimizer.window to exist")
	}
	if v.Int() != 30 {
		t.Errorf("optimizer.window = %v, want 30", v.Int())
	}

	result, err := doc.Query("$.optimizer.threshold")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if result != 0.05 {
		t.Errorf("Query result = %v, want 0.05", result)
	}
}

func TestKeys(t *testing.T) {
	doc, err := New(map[string]interface{}{"a": 1, "b": 2})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	keys := doc.Keys()
	if len(keys) != 2 {
		t.Errorf("len(Keys()) = %d, want 2", len(keys))
	}
}
