package domain

import "testing"

func TestParseCategory_Valid(t *testing.T) {
	for _, c := range Categories() {
		got, ok := ParseCategory(string(c))
		if !ok {
			t.Errorf("ParseCategory(%q): ok = false, want true", c)
		}
		if got != c {
			t.Errorf("ParseCategory(%q) = %q, want %q", c, got, c)
		}
	}
}

func TestParseCategory_Normalization(t *testing.T) {
	cases := []struct {
		in   string
		want Category
		ok   bool
	}{
		{"scheme", CategoryScheme, true},
		{"  Scheme  ", CategoryScheme, true},
		{"GENERAL\n", CategoryGeneral, true},
		{"'scheme'", CategoryGeneral, false},
		{"foo", CategoryGeneral, false},
		{"", CategoryGeneral, false},
		{"scheme market", CategoryGeneral, false},
	}
	for _, tc := range cases {
		got, ok := ParseCategory(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseCategory(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestCategories_Closed(t *testing.T) {
	if got := len(Categories()); got != 6 {
		t.Fatalf("expected 6 categories, got %d", got)
	}
	seen := map[Category]struct{}{}
	for _, c := range Categories() {
		if _, dup := seen[c]; dup {
			t.Errorf("duplicate category %q", c)
		}
		seen[c] = struct{}{}
	}
}
