package adapter

import "testing"

func TestFieldSpecStringPrecedence(t *testing.T) {
	spec := FieldSpec{"title", "name", "rule"}

	raw := map[string]any{"name": "fallback", "rule": "last"}
	if got, ok := spec.String(raw); !ok || got != "fallback" {
		t.Errorf("String = %q, %v, want %q, true", got, ok, "fallback")
	}

	raw["title"] = "primary"
	if got, _ := spec.String(raw); got != "primary" {
		t.Errorf("String = %q, want %q", got, "primary")
	}
}

func TestFieldSpecStringCoercion(t *testing.T) {
	spec := FieldSpec{"id"}

	if got, _ := spec.String(map[string]any{"id": float64(42)}); got != "42" {
		t.Errorf("numeric id = %q, want %q", got, "42")
	}
	if got, _ := spec.String(map[string]any{"id": true}); got != "true" {
		t.Errorf("bool id = %q, want %q", got, "true")
	}
	if _, ok := spec.String(map[string]any{"id": nil}); ok {
		t.Error("nil value should not match")
	}
	if _, ok := spec.String(map[string]any{}); ok {
		t.Error("absent key should not match")
	}
}

func TestFieldSpecNumber(t *testing.T) {
	spec := FieldSpec{"p50Latency", "latencyMs"}

	if got, ok := spec.Number(map[string]any{"latencyMs": 12.5}); !ok || got != 12.5 {
		t.Errorf("Number = %v, %v, want 12.5, true", got, ok)
	}
	if got, ok := spec.Number(map[string]any{"p50Latency": "7.25"}); !ok || got != 7.25 {
		t.Errorf("string number = %v, %v, want 7.25, true", got, ok)
	}
	if _, ok := spec.Number(map[string]any{"p50Latency": "NaN"}); ok {
		t.Error("NaN should be rejected")
	}
	if _, ok := spec.Number(map[string]any{"p50Latency": "not a number"}); ok {
		t.Error("garbage should be rejected")
	}
}

func TestFieldSpecNumberOptional(t *testing.T) {
	spec := FieldSpec{"depthUsd"}

	if got := spec.NumberOptional(map[string]any{}); got != nil {
		t.Errorf("absent = %v, want nil", *got)
	}
	got := spec.NumberOptional(map[string]any{"depthUsd": float64(0)})
	if got == nil || *got != 0 {
		t.Errorf("explicit zero = %v, want pointer to 0", got)
	}
}

func TestFieldSpecBool(t *testing.T) {
	spec := FieldSpec{"read", "is_read"}

	cases := []struct {
		raw  map[string]any
		want bool
		ok   bool
	}{
		{map[string]any{"read": true}, true, true},
		{map[string]any{"is_read": "true"}, true, true},
		{map[string]any{"read": float64(1)}, true, true},
		{map[string]any{"read": float64(0)}, false, true},
		{map[string]any{"read": "maybe"}, false, false},
		{map[string]any{}, false, false},
	}
	for _, tc := range cases {
		got, ok := spec.Bool(tc.raw)
		if got != tc.want || ok != tc.ok {
			t.Errorf("Bool(%v) = %v, %v, want %v, %v", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}
