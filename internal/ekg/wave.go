package ekg

import "math"

// WaveComponent is one skewed Gaussian deflection. Center and Width are in
// seconds relative to the beat center, Amplitude in millivolts. Negative skew
// widens the rising side and narrows the falling side.
type WaveComponent struct {
	Amplitude float64 `json:"amplitude" yaml:"amplitude"`
	Center    float64 `json:"center" yaml:"center"`
	Width     float64 `json:"width" yaml:"width"`
	Skew      float64 `json:"skew,omitempty" yaml:"skew,omitempty"`
}

// At returns the component's contribution at beat-relative time t.
func (w WaveComponent) At(t float64) float64 {
	dt := t - w.Center
	if math.Abs(dt) > w.Width*4 {
		return 0
	}
	width := w.Width
	if w.Skew != 0 {
		if dt < 0 {
			width = w.Width * (1 - w.Skew)
		} else {
			width = w.Width * (1 + w.Skew)
		}
	}
	if width == 0 {
		return 0
	}
	return w.Amplitude * math.Exp(-(dt*dt)/(2*width*width))
}

// Voltage sums every component at beat-relative time t.
func Voltage(t float64, waves []WaveComponent) float64 {
	v := 0.0
	for _, w := range waves {
		v += w.At(t)
	}
	return v
}

func cloneWaves(waves []WaveComponent) []WaveComponent {
	if waves == nil {
		return nil
	}
	out := make([]WaveComponent, len(waves))
	copy(out, waves)
	return out
}

func concatWaves(parts ...[]WaveComponent) []WaveComponent {
	var out []WaveComponent
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Normal adult morphology for the independently measured leads.
var (
	baseLeadII = []WaveComponent{
		{Amplitude: 0.22, Center: -0.16, Width: 0.035},           // P
		{Amplitude: -0.15, Center: -0.045, Width: 0.01},          // septal q
		{Amplitude: 1.6, Center: 0, Width: 0.018},                // R
		{Amplitude: -0.3, Center: 0.04, Width: 0.015},            // S
		{Amplitude: 0.45, Center: 0.28, Width: 0.07, Skew: -0.3}, // T
	}
	baseLeadI = []WaveComponent{
		{Amplitude: 0.12, Center: -0.16, Width: 0.035},
		{Amplitude: -0.1, Center: -0.045, Width: 0.01},
		{Amplitude: 1.1, Center: 0, Width: 0.018},
		{Amplitude: -0.2, Center: 0.04, Width: 0.015},
		{Amplitude: 0.30, Center: 0.28, Width: 0.07, Skew: -0.3},
	}
	baseV1 = []WaveComponent{
		{Amplitude: 0.08, Center: -0.18, Width: 0.02},  // biphasic P, right atrium
		{Amplitude: -0.06, Center: -0.14, Width: 0.02}, // biphasic P, left atrium
		{Amplitude: 0.35, Center: -0.02, Width: 0.015},
		{Amplitude: -1.4, Center: 0.02, Width: 0.022},
		{Amplitude: 0.1, Center: 0.28, Width: 0.07, Skew: -0.2},
	}
	baseV2 = []WaveComponent{
		{Amplitude: 0.12, Center: -0.16, Width: 0.04},
		{Amplitude: 0.6, Center: -0.02, Width: 0.015},
		{Amplitude: -1.8, Center: 0.02, Width: 0.022},
		{Amplitude: 0.35, Center: 0.28, Width: 0.07, Skew: -0.25},
	}
	baseV3 = []WaveComponent{
		{Amplitude: 0.15, Center: -0.16, Width: 0.04},
		{Amplitude: 1.2, Center: -0.01, Width: 0.018},
		{Amplitude: -1.1, Center: 0.03, Width: 0.02},
		{Amplitude: 0.5, Center: 0.28, Width: 0.07, Skew: -0.3},
	}
	baseV4 = []WaveComponent{
		{Amplitude: 0.15, Center: -0.16, Width: 0.04},
		{Amplitude: -0.05, Center: -0.04, Width: 0.01},
		{Amplitude: 1.7, Center: 0, Width: 0.018},
		{Amplitude: -0.5, Center: 0.04, Width: 0.015},
		{Amplitude: 0.55, Center: 0.28, Width: 0.07, Skew: -0.3},
	}
	baseV5 = []WaveComponent{
		{Amplitude: 0.15, Center: -0.16, Width: 0.04},
		{Amplitude: -0.15, Center: -0.045, Width: 0.012},
		{Amplitude: 2.1, Center: 0, Width: 0.018},
		{Amplitude: -0.2, Center: 0.04, Width: 0.015},
		{Amplitude: 0.5, Center: 0.28, Width: 0.07, Skew: -0.3},
	}
	baseV6 = []WaveComponent{
		{Amplitude: 0.12, Center: -0.16, Width: 0.04},
		{Amplitude: -0.1, Center: -0.045, Width: 0.012},
		{Amplitude: 1.6, Center: 0, Width: 0.018},
		{Amplitude: -0.1, Center: 0.04, Width: 0.015},
		{Amplitude: 0.4, Center: 0.28, Width: 0.07, Skew: -0.3},
	}
)

var baseLeads = map[Lead][]WaveComponent{
	LeadI:  baseLeadI,
	LeadII: baseLeadII,
	LeadV1: baseV1,
	LeadV2: baseV2,
	LeadV3: baseV3,
	LeadV4: baseV4,
	LeadV5: baseV5,
	LeadV6: baseV6,
}

// BaseWaves returns a copy of the normal morphology of a lead, or nil for
// leads that are only ever derived.
func BaseWaves(l Lead) []WaveComponent {
	return cloneWaves(baseLeads[l])
}
