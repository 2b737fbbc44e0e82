package parser

import (
	"testing"
	"time"
)

func TestNormalizeDate(t *testing.T) {
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		input    string
		expected string
		ok       bool
	}{
		{"March 5, 2024", "2024-03-05", true},
		{"March 5, 2024 Total Amount Due", "2024-03-05", true},
		{"Mar 5 2024", "2024-03-05", true},
		{"Mar. 5, 2024", "2024-03-05", true},
		{"Sept 9, 2024", "2024-09-09", true},
		{"Jan 15, 2025 Minimum Payment", "2025-01-15", true},
		{"5 March 2024", "2024-03-05", true},
		{"15th Jan, 2025", "2025-01-15", true},
		{"05-Mar-24", "2024-03-05", true},
		{"2024-07-01 Amount Due", "2024-07-01", true},
		{"2024/07/01", "2024-07-01", true},
		{"03/05/2024", "2024-03-05", true},
		{"3-5-2024", "2024-03-05", true},
		{"12/31/23 Late Fee", "2023-12-31", true},
		{"25/03/2024", "2024-03-25", true},
		{"13/05/2024 Total Due", "2024-05-13", true},
		{"March 5", "2024-03-05", true},
		{"February 29, 2024", "2024-02-29", true},
		{"February 30, 2024", "", false},
		{"2023-02-29", "", false},
		{"13/45/2024", "", false},
		{"31/02/2024", "", false},
		{"Marriott 12 Bonvoy", "", false},
		{"Decline 3 times", "", false},
		{"not a date", "", false},
		{"", "", false},
		{"Minimum Payment Due", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := normalizeDateAt(tt.input, now)
			if ok != tt.ok || got != tt.expected {
				t.Errorf("normalizeDateAt(%q): got (%q, %v), want (%q, %v)", tt.input, got, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestNormalizeDate_SkipsUnparsableCandidate(t *testing.T) {
	now := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	got, ok := normalizeDateAt("February 30, 2024 or March 1, 2024", now)
	if !ok || got != "2024-03-01" {
		t.Errorf("got (%q, %v), want (%q, true)", got, ok, "2024-03-01")
	}
}

func TestNormalizeDate_UsesCurrentClock(t *testing.T) {
	got, ok := NormalizeDate("Payment Due Date 2024-07-01")
	if !ok || got != "2024-07-01" {
		t.Errorf("got (%q, %v), want (%q, true)", got, ok, "2024-07-01")
	}
}

func TestExpandTwoDigitYear(t *testing.T) {
	tests := []struct {
		n, ref, expected int
	}{
		{24, 2024, 2024},
		{99, 2024, 1999},
		{70, 2024, 2070},
	}

	for _, tt := range tests {
		if got := expandTwoDigitYear(tt.n, tt.ref); got != tt.expected {
			t.Errorf("expandTwoDigitYear(%d, %d): got %d, want %d", tt.n, tt.ref, got, tt.expected)
		}
	}
}
