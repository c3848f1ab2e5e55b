package models

import (
	"errors"
	"testing"
)

func TestComparisonVerdict(t *testing.T) {
	tests := []struct {
		detected, real int
		want           Verdict
	}{
		{30, 35, VerdictLooksYounger},
		{30, 25, VerdictYoungerInPerson},
		{30, 30, VerdictExactMatch},
	}
	for _, tt := range tests {
		c, err := NewComparison(tt.detected, tt.real)
		if err != nil {
			t.Fatalf("NewComparison(%d, %d): %v", tt.detected, tt.real, err)
		}
		if got := c.Verdict(); got != tt.want {
			t.Errorf("Verdict(%d, %d) = %v, want %v", tt.detected, tt.real, got, tt.want)
		}
	}
}

func TestVerdictMessages(t *testing.T) {
	younger, _ := NewComparison(30, 35)
	inPerson, _ := NewComparison(30, 25)
	exact, _ := NewComparison(30, 30)

	if got := younger.Verdict().Message(); got != "You look younger than you are! 🎉" {
		t.Errorf("younger message = %q", got)
	}
	if got := inPerson.Verdict().Message(); got != "The camera must be tired... You look younger in person! 😊" {
		t.Errorf("in-person message = %q", got)
	}
	if got := exact.Verdict().Message(); got != "Exactly! Nailed it! 🎯" {
		t.Errorf("exact message = %q", got)
	}
}

func TestNewComparisonBounds(t *testing.T) {
	for _, real := range []int{0, 120} {
		if _, err := NewComparison(40, real); err != nil {
			t.Errorf("real age %d should be accepted: %v", real, err)
		}
	}
	for _, real := range []int{-1, 121} {
		if _, err := NewComparison(40, real); !errors.Is(err, ErrRealAgeOutOfRange) {
			t.Errorf("real age %d: err = %v, want ErrRealAgeOutOfRange", real, err)
		}
	}
}
