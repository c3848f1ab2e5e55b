package models

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

const (
	MinRealAge = 0
	MaxRealAge = 120
)

var ErrRealAgeOutOfRange = errors.New("real age must be between 0 and 120")

var validate = validator.New()

// ComparisonResult pairs the detected age with the age the user declared.
type ComparisonResult struct {
	DetectedAge int
	RealAge     int `validate:"min=0,max=120"`
}

func NewComparison(detected, real int) (ComparisonResult, error) {
	c := ComparisonResult{DetectedAge: detected, RealAge: real}
	if err := validate.Struct(c); err != nil {
		return ComparisonResult{}, fmt.Errorf("%w: got %d", ErrRealAgeOutOfRange, real)
	}
	return c, nil
}

type Verdict int

const (
	VerdictLooksYounger Verdict = iota
	VerdictYoungerInPerson
	VerdictExactMatch
)

func (c ComparisonResult) Verdict() Verdict {
	switch {
	case c.RealAge > c.DetectedAge:
		return VerdictLooksYounger
	case c.RealAge < c.DetectedAge:
		return VerdictYoungerInPerson
	default:
		return VerdictExactMatch
	}
}

func (v Verdict) Message() string {
	switch v {
	case VerdictLooksYounger:
		return "You look younger than you are! 🎉"
	case VerdictYoungerInPerson:
		return "The camera must be tired... You look younger in person! 😊"
	default:
		return "Exactly! Nailed it! 🎯"
	}
}
