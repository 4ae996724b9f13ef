package lang

import "testing"

func TestNextCycles(t *testing.T) {
	seen := map[string]bool{}
	code := Supported[0].Code
	for range Supported {
		seen[code] = true
		code = Next(code)
	}
	if code != Supported[0].Code {
		t.Errorf("Next did not wrap: ended at %q", code)
	}
	if len(seen) != len(Supported) {
		t.Errorf("cycle visited %d codes, want %d", len(seen), len(Supported))
	}
}

func TestNextUnknown(t *testing.T) {
	if got := Next("xx"); got != Supported[0].Code {
		t.Errorf("Next(xx) = %q, want %q", got, Supported[0].Code)
	}
}

func TestLabelPassThrough(t *testing.T) {
	if got := Label("fr"); got != "French" {
		t.Errorf("Label(fr) = %q", got)
	}
	if got := Label("tlh"); got != "tlh" {
		t.Errorf("Label(tlh) = %q, want pass-through", got)
	}
}
