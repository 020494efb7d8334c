package logging

import "testing"

func TestNew(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		l, err := New("debug", format, "dormbill-test")
		if err != nil {
			t.Fatalf("New(%q): %v", format, err)
		}
		if !l.Core().Enabled(-1) {
			t.Errorf("%s: expected debug level enabled", format)
		}
	}
	l, err := New("bogus", "json", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Core().Enabled(-1) {
		t.Errorf("unknown level should fall back to info")
	}
}
