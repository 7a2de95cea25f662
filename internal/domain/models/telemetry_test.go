package models

import "testing"

func TestParseSeverity(t *testing.T) {
	cases := map[string]Severity{
		"info":     SeverityInfo,
		"warning":  SeverityWarning,
		"error":    SeverityError,
		"success":  SeveritySuccess,
		"critical": SeverityInfo, // unknown values default to info
		"":         SeverityInfo,
	}
	for in, want := range cases {
		if got := ParseSeverity(in); got != want {
			t.Errorf("ParseSeverity(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTimeWindowExplicit(t *testing.T) {
	var w TimeWindow
	if w.Explicit() {
		t.Error("zero window reported explicit")
	}
	w.Named = "1h"
	if w.Explicit() {
		t.Error("named window reported explicit")
	}
}
