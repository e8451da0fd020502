// Package ekg synthesises a 12-lead electrocardiogram from sums of skewed
// Gaussian wave components, one cardiac cycle at a time.
package ekg

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrUnknownLead is returned when a lead name cannot be parsed.
var ErrUnknownLead = errors.New("unknown lead")

// Lead identifies one of the twelve standard leads.
type Lead string

const (
	LeadI   Lead = "I"
	LeadII  Lead = "II"
	LeadIII Lead = "III"
	LeadAVR Lead = "aVR"
	LeadAVL Lead = "aVL"
	LeadAVF Lead = "aVF"
	LeadV1  Lead = "V1"
	LeadV2  Lead = "V2"
	LeadV3  Lead = "V3"
	LeadV4  Lead = "V4"
	LeadV5  Lead = "V5"
	LeadV6  Lead = "V6"
)

// Leads lists the twelve leads in standard print order.
var Leads = []Lead{
	LeadI, LeadII, LeadIII, LeadAVR, LeadAVL, LeadAVF,
	LeadV1, LeadV2, LeadV3, LeadV4, LeadV5, LeadV6,
}

// ParseLead parses a lead name case-insensitively.
func ParseLead(s string) (Lead, error) {
	for _, l := range Leads {
		if strings.EqualFold(string(l), strings.TrimSpace(s)) {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLead, s)
}

// Derived reports whether the lead is a fixed combination of leads I and II.
func (l Lead) Derived() bool {
	switch l {
	case LeadIII, LeadAVR, LeadAVL, LeadAVF:
		return true
	}
	return false
}

// Derive computes a derived limb lead from leads I and II
// (Einthoven's law and the Goldberger augmented leads).
func Derive(l Lead, i, ii float64) float64 {
	switch l {
	case LeadIII:
		return ii - i
	case LeadAVR:
		return -0.5 * (i + ii)
	case LeadAVL:
		return i - 0.5*ii
	case LeadAVF:
		return ii - 0.5*i
	}
	return 0
}

// noiseSeed gives every lead its own phase for the tremor noise.
func (l Lead) noiseSeed() float64 {
	seed := 0
	if len(l) > 0 {
		seed += int(l[0])
	}
	if len(l) > 1 {
		seed += int(l[1])
	}
	return float64(seed)
}

// NoiseAmplitude is the peak tremor noise in millivolts.
const NoiseAmplitude = 0.035

// Noise is a continuous three-harmonic tremor. It never flickers between
// frames because it depends only on absolute time and the lead.
func Noise(t float64, l Lead) float64 {
	s := l.noiseSeed()
	high := math.Sin(t*150+s) * 0.5
	mid := math.Sin(t*60+s) * 0.3
	low := math.Sin(t*10+s) * 0.2
	return (high*0.4 + mid*0.3 + low*0.3) * NoiseAmplitude
}
