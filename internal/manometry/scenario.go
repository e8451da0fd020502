// Package manometry synthesises a high-resolution oesophageal manometry
// pressure field over depth and time for normal motility and the achalasia
// subtypes of the Chicago Classification.
package manometry

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownScenario is returned when a scenario name cannot be parsed.
var ErrUnknownScenario = errors.New("unknown manometry scenario")

// Probe anatomy in cm from the nares end of the catheter, and swallow timing
// in seconds.
const (
	ProbeLength          = 36.0
	UESCenter            = 4.0
	LESCenter            = 31.0
	TransitionZoneCenter = 14.0
	SwallowDuration      = 15.0

	// SwallowWindow is how long a triggered swallow stays active before the
	// study returns to resting baseline.
	SwallowWindow = 12.0

	// RestingTime is the relative time sampled when no swallow is active.
	RestingTime = -10.0
)

const (
	proximalBody = UESCenter + 2
	distalBody   = LESCenter - 2
	bodyLength   = distalBody - proximalBody
)

// ScenarioType selects the motility pattern.
type ScenarioType string

const (
	Normal           ScenarioType = "NORMAL"
	AchalasiaTypeI   ScenarioType = "ACHALASIA_TYPE_I"
	AchalasiaTypeII  ScenarioType = "ACHALASIA_TYPE_II"
	AchalasiaTypeIII ScenarioType = "ACHALASIA_TYPE_III"
)

// Scenarios lists every scenario.
var Scenarios = []ScenarioType{Normal, AchalasiaTypeI, AchalasiaTypeII, AchalasiaTypeIII}

// ParseScenario parses a scenario name case-insensitively. "I", "II" and
// "III" are accepted as shorthands for the achalasia subtypes.
func ParseScenario(s string) (ScenarioType, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	switch up {
	case "I", "TYPE_I":
		return AchalasiaTypeI, nil
	case "II", "TYPE_II":
		return AchalasiaTypeII, nil
	case "III", "TYPE_III":
		return AchalasiaTypeIII, nil
	}
	for _, known := range Scenarios {
		if ScenarioType(up) == known {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownScenario, s)
}

// WaveType is the body contraction pattern.
type WaveType string

const (
	WaveNormal            WaveType = "normal"
	WaveFailed            WaveType = "failed"
	WavePanPressurization WaveType = "pan-pressurization"
	WaveSpastic           WaveType = "spastic"
)

// Profile holds the physiological constants of a scenario.
type Profile struct {
	LESRestingTone   float64
	LESRelaxes       bool
	Wave             WaveType
	ContractileVigor float64
	WaveSpeed        float64
	Label            string
	Description      string
}

var profiles = map[ScenarioType]Profile{
	Normal: {
		LESRestingTone: 25, LESRelaxes: true, Wave: WaveNormal, ContractileVigor: 1, WaveSpeed: 1,
		Label: "Normal Motility", Description: "Normal IRP (<15), Intact Wave.",
	},
	AchalasiaTypeI: {
		LESRestingTone: 45, Wave: WaveFailed, ContractileVigor: 0, WaveSpeed: 1,
		Label: "Type I (Classic)", Description: "100% Failed peristalsis. No pressurization.",
	},
	AchalasiaTypeII: {
		LESRestingTone: 45, Wave: WavePanPressurization, ContractileVigor: 1, WaveSpeed: 0,
		Label: "Type II (Compression)", Description: "100% Failed. Pan-esophageal pressurization.",
	},
	AchalasiaTypeIII: {
		LESRestingTone: 50, Wave: WaveSpastic, ContractileVigor: 2.5, WaveSpeed: 5,
		Label: "Type III (Spastic)", Description: "Premature contractions (DL < 4.5s).",
	},
}

// ProfileFor returns the profile of a scenario. Unknown scenarios get the
// normal profile.
func ProfileFor(s ScenarioType) Profile {
	if p, ok := profiles[s]; ok {
		return p
	}
	return profiles[Normal]
}
