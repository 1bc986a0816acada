package naming

import (
	"testing"
	"time"
)

func TestSuffix(t *testing.T) {
	tests := []struct {
		index    int
		expected string
	}{
		{0, "A"},
		{1, "B"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
		{51, "AZ"},
		{52, "BA"},
		{701, "ZZ"},
		{702, "AAA"},
	}
	for _, tt := range tests {
		if got := Suffix(tt.index); got != tt.expected {
			t.Errorf("Suffix(%d) = %q, want %q", tt.index, got, tt.expected)
		}
	}
}

func TestNamesShareStampAndAreDistinct(t *testing.T) {
	ref := time.Date(2026, time.September, 2, 10, 0, 0, 0, time.UTC)
	names := Names(30, ref)
	if len(names) != 30 {
		t.Fatalf("expected 30 names, got %d", len(names))
	}
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if name[:4] != "0209" {
			t.Errorf("name %q missing DDMM stamp 0209", name)
		}
		if _, dup := seen[name]; dup {
			t.Errorf("duplicate name %q", name)
		}
		seen[name] = struct{}{}
	}
	if names[0] != "0209A" || names[25] != "0209Z" || names[26] != "0209AA" {
		t.Errorf("unexpected ordering: %v", []string{names[0], names[25], names[26]})
	}
}

func TestNamesZeroCount(t *testing.T) {
	if names := Names(0, time.Now()); names != nil {
		t.Errorf("expected nil for zero count, got %v", names)
	}
}
