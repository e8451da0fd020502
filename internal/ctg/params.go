// Package ctg synthesises cardiotocography traces (fetal heart rate and
// uterine activity) and classifies them against the FIGO guidelines.
package ctg

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidParams is returned when a parameter set fails validation.
var ErrInvalidParams = errors.New("invalid ctg params")

// Variability is the bandwidth pattern of the FHR trace.
type Variability string

const (
	VariabilityAbsent     Variability = "absent"
	VariabilityMinimal    Variability = "minimal"
	VariabilityNormal     Variability = "normal"
	VariabilitySaltatory  Variability = "saltatory"
	VariabilitySinusoidal Variability = "sinusoidal"
)

// Deceleration is the periodic deceleration pattern.
type Deceleration string

const (
	DecelNone      Deceleration = "none"
	DecelEarly     Deceleration = "early"
	DecelVariable  Deceleration = "variable"
	DecelLate      Deceleration = "late"
	DecelProlonged Deceleration = "prolonged"
)

// Contractions is the uterine activity pattern.
type Contractions string

const (
	ContractionsNone         Contractions = "none"
	ContractionsNormal       Contractions = "normal"
	ContractionsTachysystole Contractions = "tachysystole"
	ContractionsHypertonus   Contractions = "hypertonus"
)

// Params drives the synthesizer.
type Params struct {
	Baseline      float64      `json:"baseline" yaml:"baseline"`
	Variability   Variability  `json:"variability" yaml:"variability"`
	Decelerations Deceleration `json:"decelerations" yaml:"decelerations"`
	Contractions  Contractions `json:"contractions" yaml:"contractions"`
	NoiseLevel    float64      `json:"noise_level" yaml:"noise_level"`
}

// DefaultParams returns a normal low-risk trace.
func DefaultParams() Params {
	return Params{
		Baseline:      140,
		Variability:   VariabilityNormal,
		Decelerations: DecelNone,
		Contractions:  ContractionsNormal,
		NoiseLevel:    1,
	}
}

// Validate checks every enumerated field and the baseline range.
func (p Params) Validate() error {
	if p.Baseline < 50 || p.Baseline > 220 {
		return fmt.Errorf("%w: baseline %.0f outside 50-220 bpm", ErrInvalidParams, p.Baseline)
	}
	if p.NoiseLevel < 0 {
		return fmt.Errorf("%w: negative noise level", ErrInvalidParams)
	}
	switch p.Variability {
	case VariabilityAbsent, VariabilityMinimal, VariabilityNormal, VariabilitySaltatory, VariabilitySinusoidal:
	default:
		return fmt.Errorf("%w: variability %q", ErrInvalidParams, p.Variability)
	}
	switch p.Decelerations {
	case DecelNone, DecelEarly, DecelVariable, DecelLate, DecelProlonged:
	default:
		return fmt.Errorf("%w: decelerations %q", ErrInvalidParams, p.Decelerations)
	}
	switch p.Contractions {
	case ContractionsNone, ContractionsNormal, ContractionsTachysystole, ContractionsHypertonus:
	default:
		return fmt.Errorf("%w: contractions %q", ErrInvalidParams, p.Contractions)
	}
	return nil
}

// Normalize lower-cases the enumerated fields and fills empty ones with
// their defaults.
func (p Params) Normalize() Params {
	d := DefaultParams()
	p.Variability = Variability(strings.ToLower(string(p.Variability)))
	p.Decelerations = Deceleration(strings.ToLower(string(p.Decelerations)))
	p.Contractions = Contractions(strings.ToLower(string(p.Contractions)))
	if p.Variability == "" {
		p.Variability = d.Variability
	}
	if p.Decelerations == "" {
		p.Decelerations = d.Decelerations
	}
	if p.Contractions == "" {
		p.Contractions = d.Contractions
	}
	if p.Baseline == 0 {
		p.Baseline = d.Baseline
	}
	return p
}
