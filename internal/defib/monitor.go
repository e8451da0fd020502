package defib

import (
	"math"
	"math/rand"
)

// FrameRate is the nominal number of monitor samples per second. The waveform
// phase accumulators advance by a fixed amount per sample, so traces are
// shaped for this rate.
const FrameRate = 60

const (
	globalStep  = 0.01
	pacerSpike  = 1.2
	peepLevel   = 0.2
	cprRateHz   = 110.0 / 60.0
	ectopicProb = 0.005
)

// Monitor holds the phase accumulators of one monitor's traces. All four
// waveforms share the same clock, which only the ECG advances.
type Monitor struct {
	rng *rand.Rand

	nsr   []float64
	vtach []float64

	globalTime float64
	ecgIndex   float64
	plethTime  float64
	capnoTime  float64

	vented     bool
	lastVentAt float64
}

// NewMonitor creates a monitor with its beat templates drawn from rng.
func NewMonitor(rng *rand.Rand) *Monitor {
	return &Monitor{
		rng:   rng,
		nsr:   nsrTemplate(rng),
		vtach: vtachTemplate(rng),
	}
}

func nsrTemplate(rng *rand.Rand) []float64 {
	pts := make([]float64, 0, 81)
	iso := func(n int) {
		for i := 0; i < n; i++ {
			pts = append(pts, rng.Float64()*0.02-0.01)
		}
	}
	arc := func(n int, amp float64) {
		for i := 0; i < n; i++ {
			pts = append(pts, math.Sin(float64(i)/float64(n)*math.Pi)*amp)
		}
	}

	iso(5)
	arc(10, 0.12) // P
	iso(6)
	pts = append(pts, -0.05, -0.12, 0.3, 0.8, 1.0, 0.4, -0.1, -0.4, -0.2)
	iso(8)
	arc(18, 0.28) // T
	iso(25)
	return pts
}

func vtachTemplate(rng *rand.Rand) []float64 {
	pts := make([]float64, 0, 25)
	for i := 0; i < 12; i++ {
		pts = append(pts, math.Sin(float64(i)/12*math.Pi)*0.95+rng.Float64()*0.1)
	}
	for i := 0; i < 10; i++ {
		pts = append(pts, -math.Sin(float64(i)/10*math.Pi)*0.5)
	}
	for i := 0; i < 3; i++ {
		pts = append(pts, rng.Float64()*0.02-0.01)
	}
	return pts
}

func sampleAt(buf []float64, idx float64) float64 {
	i := int(math.Floor(idx))
	if i < 0 || i >= len(buf) {
		return 0
	}
	return buf[i]
}

// Clock returns the shared waveform clock. It only moves forward until Reset.
func (m *Monitor) Clock() float64 {
	return m.globalTime
}

// Reset rewinds every accumulator. Templates are kept.
func (m *Monitor) Reset() {
	m.globalTime = 0
	m.ecgIndex = 0
	m.plethTime = 0
	m.capnoTime = 0
	m.vented = false
	m.lastVentAt = 0
}

// ECG returns the next ECG sample in millivolts, roughly within ±1.3.
// pacer may be nil. hypoxiaStress is expected in [0, 1].
func (m *Monitor) ECG(rhythm Rhythm, cpr bool, pacer *PacerState, hypoxiaStress float64) float64 {
	m.globalTime += globalStep
	gt := m.globalTime

	stressWander := hypoxiaStress * 0.3
	wander := math.Sin(gt*0.5)*(0.15+stressWander) + math.Sin(gt*0.1)*0.1

	artifact := 0.0
	if cpr {
		phase := gt * cprRateHz * 2 * math.Pi
		artifact = math.Sin(phase)*0.8 + (m.rng.Float64()-0.5)*0.6
	}

	spike := 0.0
	if pacer != nil && pacer.Enabled && m.ecgIndex > 18 && m.ecgIndex < 20 && rhythm.Pacable() {
		spike = pacerSpike
	}

	ampMod := 0.9 + math.Sin(gt*1.5)*(0.1+hypoxiaStress*0.2)

	ectopic := 0.0
	if hypoxiaStress > 0.5 && m.rng.Float64() < ectopicProb {
		ectopic = 0.4
		if m.rng.Float64() <= 0.5 {
			ectopic = -0.4
		}
	}

	switch rhythm {
	case VFib:
		chaos := math.Sin(gt*17)*0.35 +
			math.Sin(gt*53)*0.15 +
			math.Sin(gt*9+2)*0.3 +
			(m.rng.Float64()-0.5)*0.2
		return chaos + artifact + wander

	case Asystole:
		flat := math.Sin(gt*2)*0.02 + (m.rng.Float64()*0.03 - 0.015)
		return flat + artifact + spike + wander*0.5

	case VTach:
		val := sampleAt(m.vtach, m.ecgIndex)
		m.ecgIndex += 0.6
		if m.ecgIndex >= float64(len(m.vtach)) {
			m.ecgIndex = 0
		}
		return val*ampMod + m.rng.Float64()*0.05 + artifact + wander + ectopic
	}

	// Sinus, bradycardia, PEA and anything unrecognised share the NSR template.
	val := sampleAt(m.nsr, m.ecgIndex)

	speed := 1.6
	switch rhythm {
	case Bradycardia:
		speed = 0.8
	case PEA:
		speed = 1.2
	}
	if pacer.Captures() {
		speed = (pacer.Rate / 60) * 1.3
	}

	rsa := math.Sin(gt*0.2) * 0.05
	jitter := 0.0
	if hypoxiaStress > 0.3 {
		jitter = m.rng.Float64() * 0.1 * hypoxiaStress
	}
	speed *= 1 + rsa + jitter

	m.ecgIndex += speed
	if m.ecgIndex >= float64(len(m.nsr)) {
		m.ecgIndex = 0
	}

	return val*ampMod + m.rng.Float64()*0.01 + artifact + spike + wander + ectopic
}

// Pleth returns the next plethysmograph sample in [0, ~1]. Without a pulse the
// trace is flat and its phase does not advance.
func (m *Monitor) Pleth(hasPulse bool, rateMultiplier float64) float64 {
	if !hasPulse {
		return 0
	}
	m.plethTime += 0.022 * rateMultiplier
	t := math.Mod(m.plethTime, 1)

	ampMod := 0.8 + math.Sin(m.globalTime*0.3)*0.15

	var val float64
	if t < 0.2 {
		val = math.Sin((t / 0.2) * (math.Pi / 2))
	} else {
		decay := (t - 0.2) / 0.8
		base := math.Cos(decay * (math.Pi / 1.8))
		const notchCenter, notchWidth, notchAmp = 0.35, 0.1, 0.15
		notch := notchAmp * math.Exp(-math.Pow(decay-notchCenter, 2)/(2*notchWidth*notchWidth))
		val = base*0.9 + notch
	}
	return val * ampMod
}

// Capno returns the next normalised capnogram sample. Manual ventilation
// produces a trace even without a pulse.
func (m *Monitor) Capno(hasPulse bool, rateMultiplier float64, ventilating bool) float64 {
	if !hasPulse && !ventilating {
		return 0
	}
	m.capnoTime += 0.006 * rateMultiplier
	t := math.Mod(m.capnoTime, 1)

	switch {
	case t < 0.1:
		return 0
	case t < 0.2:
		phase := (t - 0.1) / 0.1
		return -0.5*math.Cos(phase*math.Pi) + 0.5
	case t < 0.6:
		phase := (t - 0.2) / 0.4
		return 1 + phase*0.1
	case t < 0.7:
		phase := (t - 0.6) / 0.1
		return 1.1 * (0.5*math.Cos(phase*math.Pi) + 0.5)
	}
	return 0
}

// TriggerVent starts a new airway-pressure breath at the current clock.
func (m *Monitor) TriggerVent() {
	m.vented = true
	m.lastVentAt = m.globalTime
}

// Paw returns the normalised airway pressure: rise to peak, brief hold,
// exponential exhale, then PEEP.
func (m *Monitor) Paw() float64 {
	if !m.vented {
		return peepLevel
	}
	t := m.globalTime - m.lastVentAt
	switch {
	case t > 2.0:
		return peepLevel
	case t < 0.3:
		return peepLevel + math.Sin((t/0.3)*(math.Pi/2))*0.8
	case t < 0.6:
		return 1 - (t-0.3)*0.1
	case t < 1.5:
		decay := (t - 0.6) / 0.9
		return peepLevel + 0.7*math.Exp(-decay*5)
	}
	return peepLevel
}
