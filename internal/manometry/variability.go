package manometry

import (
	"math"

	"github.com/synheart/physiosim/internal/noise"
)

// Variability is the swallow-to-swallow randomness of one swallow. It is
// derived from the trigger timestamp alone, so a recorded swallow replays
// exactly.
type Variability struct {
	AmplitudeMod float64 `json:"amplitude_mod"`
	SpeedMod     float64 `json:"speed_mod"`
	NoiseOffset  float64 `json:"noise_offset"`
	Irregularity float64 `json:"irregularity"`
	WobblePhase  float64 `json:"wobble_phase"`
}

// RestingVariability is used when no swallow has been triggered.
func RestingVariability() Variability {
	return Variability{AmplitudeMod: 1, SpeedMod: 1, Irregularity: 0.1}
}

// VariabilityFor derives the variability of a swallow triggered at the given
// Unix time in milliseconds. A zero timestamp means no swallow.
func VariabilityFor(timestampMs int64) Variability {
	if timestampMs == 0 {
		return RestingVariability()
	}
	seed := float64(timestampMs%100000) / 1000
	return Variability{
		AmplitudeMod: 0.9 + math.Sin(seed)*0.15,
		SpeedMod:     0.9 + math.Cos(seed)*0.15,
		NoiseOffset:  seed * 137.5,
		Irregularity: 0.2,
		WobblePhase:  math.Cos(seed*17) * math.Pi * 2,
	}
}

// seed derives a signed 32-bit seed from the noise offset and a salt.
func (v Variability) seed(salt uint32) int64 {
	return int64(int32(uint32(noise.Int32(v.NoiseOffset*1000)) ^ salt))
}
