// Package scheduler computes review intervals and applies answers to the
// scheduling state of cards.
package scheduler

import (
	"math"

	"github.com/conorfennell/srs/internal/random"
	"github.com/go-playground/validator/v10"
)

// FuzzBand applies Factor to intervals shorter than Below days.
type FuzzBand struct {
	Below  int     `koanf:"below" validate:"min=1"`
	Factor float64 `koanf:"factor" validate:"gte=0,lt=1"`
}

// Params holds the parameters of the interval formula.
type Params struct {
	FirstInterval    int     `koanf:"first_interval" validate:"min=1"`
	SecondInterval   int     `koanf:"second_interval" validate:"min=1"`
	GrowthFactor     float64 `koanf:"growth_factor" validate:"gt=1"`
	PenaltyFactor    float64 `koanf:"penalty_factor" validate:"gt=0,lt=1"`
	SuspendThreshold int     `koanf:"suspend_threshold" validate:"min=1"`
	LeechThreshold   int     `koanf:"leech_threshold" validate:"min=1"`
	// FuzzBands must be sorted by Below. Intervals past the last band use MatureFuzz.
	FuzzBands  []FuzzBand `koanf:"fuzz_bands" validate:"dive"`
	MatureFuzz float64    `koanf:"mature_fuzz" validate:"gte=0,lt=1"`
}

// DefaultParams returns the stock scheduling parameters.
func DefaultParams() Params {
	return Params{
		FirstInterval:    1,
		SecondInterval:   4,
		GrowthFactor:     2.5,
		PenaltyFactor:    0.7,
		SuspendThreshold: 365,
		LeechThreshold:   4,
		FuzzBands: []FuzzBand{
			{Below: 7, Factor: 0.25},
			{Below: 30, Factor: 0.15},
		},
		MatureFuzz: 0.05,
	}
}

var validate = validator.New()

// Validate checks that the parameters describe a usable formula.
func (p Params) Validate() error {
	return validate.Struct(p)
}

// FuzzFactor returns the fuzz factor for an interval of the given length.
func (p Params) FuzzFactor(intervalDays int) float64 {
	for _, band := range p.FuzzBands {
		if intervalDays < band.Below {
			return band.Factor
		}
	}
	return p.MatureFuzz
}

// Step is the outcome of a correct answer: either a new interval or suspension.
type Step struct {
	IntervalDays int
	Suspend      bool
}

// NextInterval computes the interval that follows a correct answer.
//
// intervalDays is the interval in effect before the answer, modifier the deck
// interval modifier in percent, and priorCorrect whether the answer before
// this one was correct.
func (p Params) NextInterval(intervalDays, modifier int, priorCorrect bool, rnd random.Source) Step {
	switch {
	case intervalDays == 0:
		return Step{IntervalDays: p.FirstInterval}
	case intervalDays == 1:
		return Step{IntervalDays: p.SecondInterval}
	case !priorCorrect:
		penalized := int(math.Floor(float64(intervalDays) * p.PenaltyFactor))
		return Step{IntervalDays: max(1, penalized)}
	}

	base := int(float64(intervalDays) * p.GrowthFactor * (float64(modifier) / 100.0))
	spread := int(math.Round(float64(intervalDays) * p.FuzzFactor(intervalDays)))
	next := base + rnd.NextSignedIntInRange(-spread, spread)
	if next >= p.SuspendThreshold {
		return Step{Suspend: true}
	}
	// Zero is reserved for cards that were never answered.
	return Step{IntervalDays: max(1, next)}
}
