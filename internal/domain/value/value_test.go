package value

import "testing"

func TestCloneObject_Deep(t *testing.T) {
	src := Object{
		"terms": map[string]any{"field": "category"},
		"list":  []any{1, map[string]any{"a": 1}},
	}
	cp := CloneObject(src)

	cp["terms"].(map[string]any)["field"] = "changed"
	cp["list"].([]any)[1].(map[string]any)["a"] = 2

	if got := src["terms"].(map[string]any)["field"]; got != "category" {
		t.Errorf("source mutated: field = %v", got)
	}
	if got := src["list"].([]any)[1].(map[string]any)["a"]; got != 1 {
		t.Errorf("source mutated: a = %v", got)
	}
}

func TestCloneObject_Nil(t *testing.T) {
	if CloneObject(nil) != nil {
		t.Error("CloneObject(nil) should be nil")
	}
}

func TestMerge_DisjointKeys(t *testing.T) {
	dst := Object{"terms": map[string]any{"field": "category"}}
	src := Object{"meta": map[string]any{"owner": "books"}}

	out, err := Merge(dst, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := out["terms"]; !ok {
		t.Error("missing terms key")
	}
	if _, ok := out["meta"]; !ok {
		t.Error("missing meta key")
	}
	if len(dst) != 1 {
		t.Errorf("dst mutated: %v", dst)
	}
}

func TestMerge_NestedObjects(t *testing.T) {
	dst := Object{"terms": map[string]any{"field": "category"}}
	src := Object{"terms": map[string]any{"size": 10}}

	out, err := Merge(dst, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	terms, ok := out["terms"].(map[string]any)
	if !ok {
		t.Fatalf("terms = %T", out["terms"])
	}
	if terms["field"] != "category" {
		t.Errorf("field = %v, want category", terms["field"])
	}
	if terms["size"] != 10 {
		t.Errorf("size = %v, want 10", terms["size"])
	}
	if _, leaked := dst["terms"].(map[string]any)["size"]; leaked {
		t.Error("merge leaked into dst")
	}
}

func TestMerge_NilDst(t *testing.T) {
	out, err := Merge(nil, Object{"a": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["a"] != 1 {
		t.Errorf("a = %v", out["a"])
	}
}
