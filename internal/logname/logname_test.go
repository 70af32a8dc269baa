package logname

import (
	"slices"
	"testing"
)

func TestParts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "Smoke", in: "a.b.c", want: []string{"a", "b", "c"}},
		{name: "Qualified", in: "com.foo.Bar", want: []string{"com", "foo", "Bar"}},
		{name: "Empty", in: "", want: []string{""}},
		{name: "TrailingDot", in: "com.foo.", want: []string{"com", "foo", ""}},
		{name: "Nested", in: "com.foo.Bar$Nested", want: []string{"com", "foo", "Bar", "Nested"}},
		{name: "NoSeparator", in: "root", want: []string{"root"}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := Parts(tc.in); !slices.Equal(got, tc.want) {
				t.Fatalf("Parts(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSeparatorIndex(t *testing.T) {
	t.Parallel()

	if got := SeparatorIndex("a.b$c", 0); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if got := SeparatorIndex("a.b$c", 2); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	if got := SeparatorIndex("a.b$c", 4); got != -1 {
		t.Fatalf("expected -1, got %d", got)
	}
	if got := SeparatorIndex("abc", 10); got != -1 {
		t.Fatalf("expected -1 past end, got %d", got)
	}
}

func TestSimpleNameAndValid(t *testing.T) {
	t.Parallel()

	if got := SimpleName("filter.ThresholdFilter"); got != "ThresholdFilter" {
		t.Fatalf("unexpected simple name %q", got)
	}
	if got := SimpleName("Bar$Nested"); got != "Nested" {
		t.Fatalf("unexpected simple name %q", got)
	}
	for _, bad := range []string{"", ".a", "a..b", "a."} {
		if Valid(bad) {
			t.Fatalf("expected %q to be invalid", bad)
		}
	}
	if !Valid("encoder.PlainEncoder") {
		t.Fatalf("expected valid name")
	}
}
