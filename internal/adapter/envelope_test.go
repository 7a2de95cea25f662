package adapter

import "testing"

func TestUnwrapDataMember(t *testing.T) {
	raw := []byte(`{"status":"ok","data":[{"id":"a"}]}`)
	if got := string(Unwrap(raw)); got != `[{"id":"a"}]` {
		t.Errorf("Unwrap = %s, want data member", got)
	}
}

func TestUnwrapBarePayloads(t *testing.T) {
	cases := []string{
		`[{"id":"a"}]`,
		`{"id":"a","title":"no wrapper"}`,
	}
	for _, raw := range cases {
		if got := string(Unwrap([]byte(raw))); got != raw {
			t.Errorf("Unwrap(%s) = %s, want unchanged", raw, got)
		}
	}
}

func TestUnwrapNullData(t *testing.T) {
	raw := `{"status":"ok","data":null}`
	if got := string(Unwrap([]byte(raw))); got != raw {
		t.Errorf("Unwrap = %s, want raw payload when data is null", got)
	}
}

func TestDecodeObjects(t *testing.T) {
	objs, err := DecodeObjects([]byte(`{"data":[{"id":"a"},{"id":"b"}]}`))
	if err != nil {
		t.Fatalf("DecodeObjects: %v", err)
	}
	if len(objs) != 2 {
		t.Fatalf("len = %d, want 2", len(objs))
	}
	if objs[1]["id"] != "b" {
		t.Errorf("objs[1].id = %v, want b", objs[1]["id"])
	}
}

func TestDecodeObjectsSingleObject(t *testing.T) {
	objs, err := DecodeObjects([]byte(`{"id":"only"}`))
	if err != nil {
		t.Fatalf("DecodeObjects: %v", err)
	}
	if len(objs) != 1 || objs[0]["id"] != "only" {
		t.Errorf("objs = %v, want one-element slice", objs)
	}
}

func TestDecodeObjectsErrors(t *testing.T) {
	for _, raw := range []string{"", "null", `"just a string"`, `[{"id":`} {
		if _, err := DecodeObjects([]byte(raw)); err == nil {
			t.Errorf("DecodeObjects(%q) expected error", raw)
		}
	}
}
