package ctg

import (
	"math"
	"math/rand"
)

// TickInterval is the simulated time between two points.
const TickInterval = 0.5

const (
	restingTone          = 10.0
	contractionPeriod    = 180.0
	tachysystolePeriod   = 90.0
	contractionDuration  = 60.0
	contractionPeak      = 60.0
	hypertonusPeak       = 90.0
	lateDecelLag         = 25.0
	prolongedPeriod      = 300.0
	prolongedDepth       = 70.0
	minFHR, maxFHR       = 50.0, 220.0
	minTOCO, maxTOCO     = 0.0, 100.0
	sinusoidalAmplitude  = 10.0
	sinusoidalAngularHz  = 0.4
	penNoiseScale        = 3.0
	tocoNoiseScale       = 2.5
	variableDecelDepth   = 40.0
	earlyDecelDepth      = 25.0
	lateDecelDepth       = 30.0
	lowPassPreviousShare = 0.4
)

// Point is one CTG sample.
type Point struct {
	Time float64 `json:"time"`
	FHR  float64 `json:"fhr"`
	TOCO float64 `json:"toco"`
}

// variabilityAmplitude is the peak-to-peak band of the structural noise.
func variabilityAmplitude(v Variability) float64 {
	switch v {
	case VariabilityAbsent:
		return 2
	case VariabilityMinimal:
		return 4
	case VariabilityNormal:
		return 15
	case VariabilitySaltatory:
		return 35
	}
	return 0
}

func period(c Contractions) float64 {
	if c == ContractionsTachysystole {
		return tachysystolePeriod
	}
	return contractionPeriod
}

// contractionShape is the bell of one contraction at a time within the cycle.
func contractionShape(cycle float64) float64 {
	x := (cycle - contractionDuration/2) / (contractionDuration / 6)
	return math.Exp(-0.5 * x * x)
}

// Generator produces a continuous trace. Each generator owns its previous
// point, so independent traces never share filter state.
type Generator struct {
	rng  *rand.Rand
	last *Point
}

// NewGenerator creates a generator drawing from rng.
func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// Reset forgets the previous point.
func (g *Generator) Reset() { g.last = nil }

// Last returns the previous point, if any.
func (g *Generator) Last() (Point, bool) {
	if g.last == nil {
		return Point{}, false
	}
	return *g.last, true
}

// Next computes the point at simulated time t.
func (g *Generator) Next(t float64, p Params) Point {
	pt := NextPoint(t, p, g.last, g.rng)
	g.last = &pt
	return pt
}

// NextPoint computes one point from the previous one. last may be nil.
func NextPoint(t float64, p Params, last *Point, rng *rand.Rand) Point {
	per := period(p.Contractions)
	cycle := math.Mod(t, per)

	toco := restingTone
	active := false
	intensity := 0.0
	if p.Contractions != ContractionsNone && p.Contractions != "" && cycle < contractionDuration {
		active = true
		intensity = contractionShape(cycle)
		peak := contractionPeak
		if p.Contractions == ContractionsHypertonus {
			peak = hypertonusPeak
		}
		toco += intensity * peak
	}
	toco += (rng.Float64() - 0.5) * tocoNoiseScale

	fhr := p.Baseline
	if p.Variability == VariabilitySinusoidal {
		fhr += math.Sin(t*sinusoidalAngularHz) * sinusoidalAmplitude
	} else {
		n := (rng.Float64() - 0.5) * variabilityAmplitude(p.Variability)
		if last != nil {
			fhr = last.FHR*lowPassPreviousShare + (fhr+n)*(1-lowPassPreviousShare)
		} else {
			fhr += n
		}
		level := p.NoiseLevel
		if level == 0 {
			level = 1
		}
		fhr += (rng.Float64() - 0.5) * level * penNoiseScale
	}

	if active {
		switch p.Decelerations {
		case DecelEarly:
			fhr -= intensity * earlyDecelDepth
		case DecelLate:
			delayed := math.Mod(t-lateDecelLag, per)
			if delayed > 0 && delayed < contractionDuration {
				fhr -= contractionShape(delayed) * lateDecelDepth
			}
		case DecelVariable:
			if cycle > 15 && cycle < 45 {
				fhr -= variableDecelDepth + (rng.Float64()*25 - 10)
			}
		}
	}

	if p.Decelerations == DecelProlonged {
		fhr -= prolongedDepth * prolongedIntensity(math.Mod(t, prolongedPeriod))
	}

	return Point{
		Time: t,
		FHR:  clamp(fhr, minFHR, maxFHR),
		TOCO: clamp(toco, minTOCO, maxTOCO),
	}
}

// prolongedIntensity ramps in over 30 s, holds, and ramps out over 30 s.
func prolongedIntensity(c float64) float64 {
	switch {
	case c <= 20 || c >= 160:
		return 0
	case c < 50:
		return (c - 20) / 30
	case c > 130:
		return (160 - c) / 30
	}
	return 1
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Trace generates points from 0 to duration seconds at TickInterval.
func Trace(p Params, duration float64, rng *rand.Rand) []Point {
	g := NewGenerator(rng)
	n := int(duration/TickInterval) + 1
	out := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, g.Next(float64(i)*TickInterval, p))
	}
	return out
}
