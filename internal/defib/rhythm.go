// Package defib simulates a manual defibrillator/monitor: ECG, plethysmography,
// capnography and airway-pressure traces, the slow physiology loop that drives
// the vital signs, and the device's charge/shock/pacer/NIBP behaviour.
package defib

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRhythm is returned when a rhythm name cannot be parsed.
var ErrUnknownRhythm = errors.New("unknown rhythm")

// Rhythm is the electrical rhythm shown on the monitor.
type Rhythm string

const (
	Sinus       Rhythm = "SINUS"
	Bradycardia Rhythm = "BRADYCARDIA"
	VTach       Rhythm = "VTACH"
	VFib        Rhythm = "VFIB"
	Asystole    Rhythm = "ASYSTOLE"
	PEA         Rhythm = "PEA"
)

// Rhythms lists every supported rhythm.
var Rhythms = []Rhythm{Sinus, Bradycardia, VTach, VFib, Asystole, PEA}

// ParseRhythm parses a rhythm name case-insensitively.
func ParseRhythm(s string) (Rhythm, error) {
	r := Rhythm(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Rhythms {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRhythm, s)
}

// Shockable reports whether defibrillation is indicated.
func (r Rhythm) Shockable() bool {
	return r == VFib || r == VTach
}

// Perfusing reports whether the rhythm produces a pulse on its own.
func (r Rhythm) Perfusing() bool {
	return r == Sinus || r == Bradycardia
}

// Pacable reports whether a pacer spike is drawn for this rhythm.
func (r Rhythm) Pacable() bool {
	return r == Sinus || r == Bradycardia || r == PEA
}

// HasMechanicalPulse reports whether the heart itself is moving blood.
// Chest compressions mask the native pulse.
func HasMechanicalPulse(r Rhythm, cpr bool) bool {
	return r.Perfusing() && !cpr
}

// PacerState is the transcutaneous pacer configuration. A nil *PacerState
// means pacing is disabled.
type PacerState struct {
	Enabled bool    `json:"enabled"`
	Rate    float64 `json:"rate"`    // ppm
	Current float64 `json:"current"` // mA
}

// Captures reports whether the pacer is driving the ventricles.
func (p *PacerState) Captures() bool {
	return p != nil && p.Enabled && p.Current > 30
}

// HypoxiaStress normalises SpO2 into [0, 1]: 0 at 90% and above, 1 at 40% and below.
func HypoxiaStress(spo2 float64) float64 {
	s := (90 - spo2) / 50
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
