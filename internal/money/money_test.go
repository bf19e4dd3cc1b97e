package money

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in    string
		cents int64
		ok    bool
	}{
		{"30.00", 3000, true},
		{"0.01", 1, true},
		{"50", 5000, true},
		{"19.9", 1990, true},
		{"0.00", 0, false},
		{"-5.00", 0, false},
		{"1.999", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}

	for _, tc := range cases {
		cents, err := Parse(tc.in)
		if tc.ok {
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tc.in, err)
			}
			if cents != tc.cents {
				t.Fatalf("Parse(%q) = %d, want %d", tc.in, cents, tc.cents)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("Parse(%q): expected ErrInvalidAmount, got %v", tc.in, err)
		}
	}
}

func TestFormat(t *testing.T) {
	if got := Format(3000); got != "30.00" {
		t.Fatalf("Format(3000) = %q", got)
	}
	if got := Format(1); got != "0.01" {
		t.Fatalf("Format(1) = %q", got)
	}
	if got := Format(0); got != "0.00" {
		t.Fatalf("Format(0) = %q", got)
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	cents, err := Parse(Format(1234))
	if err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if cents != 1234 {
		t.Fatalf("round trip = %d, want 1234", cents)
	}
}
