package manometry

import (
	"fmt"
	"math"

	"github.com/synheart/physiosim/internal/noise"
)

// Chicago Classification thresholds.
const (
	// PrematureLatency is the distal latency below which a contraction is
	// premature, in seconds.
	PrematureLatency = 4.5
	// IRPUpperLimit is the upper limit of normal IRP in mmHg.
	IRPUpperLimit = 15.0
)

// Metrics are the summary values reported for one swallow.
type Metrics struct {
	// DCI is the distal contractile integral in mmHg·s·cm. HasDCI is false
	// when the body has no contraction to integrate.
	DCI    int  `json:"dci"`
	HasDCI bool `json:"has_dci"`
	// DistalLatency is in seconds, rounded to 0.1 s.
	DistalLatency float64 `json:"distal_latency"`
	HasLatency    bool    `json:"has_latency"`
	// IRP is the integrated relaxation pressure in mmHg.
	IRP int `json:"irp"`
}

// DCIString formats the DCI the way it is displayed.
func (m Metrics) DCIString() string {
	if !m.HasDCI {
		return "N/A"
	}
	return fmt.Sprintf("%d", m.DCI)
}

// LatencyString formats the distal latency the way it is displayed.
func (m Metrics) LatencyString() string {
	if !m.HasLatency {
		return "N/A"
	}
	return fmt.Sprintf("%.1f s", m.DistalLatency)
}

// MetricsFor computes the metrics of a swallow. Every jitter term is drawn
// from the swallow's variability, so the same swallow always reports the
// same numbers.
func MetricsFor(s ScenarioType, v Variability) Metrics {
	prof := ProfileFor(s)
	seed := v.seed(0x5A17)

	var m Metrics
	switch s {
	case Normal:
		m.DCI, m.HasDCI = int(math.Round(2200*v.AmplitudeMod)), true
	case AchalasiaTypeIII:
		jitter := 1 + (noise.Hash01(seed^0xDC1)-0.5)*0.20
		m.DCI, m.HasDCI = int(math.Round(4561*v.AmplitudeMod*jitter)), true
	}

	switch s {
	case Normal:
		m.DistalLatency, m.HasLatency = roundTenth(6.5*v.SpeedMod), true
	case AchalasiaTypeIII:
		jitter := (noise.Hash01(seed^0xD17A1) - 0.5) * 0.5
		m.DistalLatency, m.HasLatency = roundTenth(noise.Clamp(3*v.SpeedMod+jitter, 2.5, 4.4)), true
	}

	irp := 28.0
	if prof.LESRelaxes {
		irp = 8
	}
	switch s {
	case AchalasiaTypeI:
		irp = 21
	case AchalasiaTypeII:
		irp = 35
	case AchalasiaTypeIII:
		irp = 41
	}
	irp += noise.Hash01(seed^0x1A9)*4 - 2
	m.IRP = int(math.Round(irp))
	return m
}

func roundTenth(x float64) float64 {
	return math.Round(x*10) / 10
}
