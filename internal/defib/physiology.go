package defib

import (
	"math"
	"math/rand"
	"strconv"
)

// TickInterval is the physiology loop period in seconds.
const TickInterval = 0.5

// Smoothing rates per tick.
const (
	bpRate    = 0.10
	etco2Rate = 0.05
	spo2Rate  = 0.02
	snapBand  = 0.1
)

const (
	MsgHypoxicBradycardia = "WARNING: Bradycardia due to hypoxia!"
	MsgHypoxicArrest      = "CRITICAL: Hypoxic Arrest (PEA)!"
)

// PhysiologyConfig tunes the slow physiology loop.
type PhysiologyConfig struct {
	// DegenerationProbability is the per-tick chance that sinus rhythm decays
	// to bradycardia once severe hypoxia has lasted BradySeconds.
	DegenerationProbability float64
	BradySeconds            float64
	ArrestSeconds           float64
}

// DefaultPhysiologyConfig returns the standard degeneration settings.
func DefaultPhysiologyConfig() PhysiologyConfig {
	return PhysiologyConfig{
		DegenerationProbability: 0.3,
		BradySeconds:            30,
		ArrestSeconds:           60,
	}
}

// Vitals is the numeric readout shown on the monitor.
type Vitals struct {
	HR    int     `json:"hr"` // -1 when no organised rhythm
	SpO2  float64 `json:"spo2"`
	EtCO2 float64 `json:"etco2"`
	Sys   int     `json:"sys"`
	Dia   int     `json:"dia"`
	RR    int     `json:"rr"`
}

// HRDisplay renders the heart rate the way the monitor shows it.
func (v Vitals) HRDisplay() string {
	if v.HR < 0 {
		return "---"
	}
	return strconv.Itoa(v.HR)
}

// SpO2Display hides unreliable saturation readings.
func (v Vitals) SpO2Display() string {
	if v.SpO2 < 50 {
		return "?"
	}
	return strconv.Itoa(int(math.Round(v.SpO2)))
}

// Targets are the values the physiology is currently relaxing towards.
type Targets struct {
	HR    float64
	SpO2  float64
	EtCO2 float64
	Sys   float64
	Dia   float64
}

// TickResult is the outcome of one physiology tick.
type TickResult struct {
	Rhythm  Rhythm
	Message string
	Vitals  Vitals
}

// Physiology is the slowly evolving circulatory state of one patient.
// It is mutated only by Tick and the intervention methods.
type Physiology struct {
	cfg PhysiologyConfig
	rng *rand.Rand

	SpO2                float64
	EtCO2               float64
	Sys                 float64
	Dia                 float64
	EpiBioavailability  float64
	TimeInSevereHypoxia float64

	now         float64
	ventHistory []float64
	epiGiven    bool
	lastEpiAt   float64
	lastAmioAt  float64
	targets     Targets
	vitals      Vitals
}

// NewPhysiology creates a healthy adult physiology.
func NewPhysiology(cfg PhysiologyConfig, rng *rand.Rand) *Physiology {
	return &Physiology{
		cfg:   cfg,
		rng:   rng,
		SpO2:  98,
		EtCO2: 38,
		Sys:   120,
		Dia:   80,
		vitals: Vitals{
			HR: 75, SpO2: 98, EtCO2: 38, Sys: 120, Dia: 80, RR: 12,
		},
	}
}

// Now returns the physiology clock in seconds.
func (p *Physiology) Now() float64 { return p.now }

// Vitals returns the readout from the last tick.
func (p *Physiology) Vitals() Vitals { return p.vitals }

// Targets returns the targets computed on the last tick.
func (p *Physiology) Targets() Targets { return p.targets }

// RespiratoryRate is the number of breaths delivered in the last minute.
func (p *Physiology) RespiratoryRate() int {
	p.pruneBreaths()
	return len(p.ventHistory)
}

// Ventilate records one delivered breath.
func (p *Physiology) Ventilate() {
	p.ventHistory = append(p.ventHistory, p.now)
}

// GiveEpinephrine starts a new epinephrine dose. Bioavailability restarts
// from zero and builds only while there is circulation.
func (p *Physiology) GiveEpinephrine() {
	p.epiGiven = true
	p.lastEpiAt = p.now
	p.EpiBioavailability = 0
}

// GiveAmiodarone records an amiodarone dose.
func (p *Physiology) GiveAmiodarone() {
	p.lastAmioAt = p.now
}

// LastAmiodarone returns the time of the last amiodarone dose, or 0.
func (p *Physiology) LastAmiodarone() float64 { return p.lastAmioAt }

// ResetForCase puts the patient in the pre-arrival state of a new arrest case.
func (p *Physiology) ResetForCase() {
	p.EtCO2 = 10
	p.SpO2 = 60
	p.Sys = 0
	p.Dia = 0
	p.EpiBioavailability = 0
	p.TimeInSevereHypoxia = 0
	p.epiGiven = false
	p.lastEpiAt = 0
	p.ventHistory = nil
}

func (p *Physiology) pruneBreaths() {
	kept := p.ventHistory[:0]
	for _, t := range p.ventHistory {
		if p.now-t < 60 {
			kept = append(kept, t)
		}
	}
	p.ventHistory = kept
}

// Tick advances the physiology by TickInterval. The returned rhythm differs
// from the input only when hypoxia degrades it.
func (p *Physiology) Tick(rhythm Rhythm, cpr bool) TickResult {
	p.now += TickInterval
	p.pruneBreaths()
	rr := len(p.ventHistory)

	tg := baseTargets(rhythm, cpr, rr)

	// Hypoxaemia drives heart rate: sympathetic tachycardia, then failure.
	if rhythm.Perfusing() {
		if p.SpO2 < 90 && p.SpO2 > 60 {
			tg.HR += (90 - p.SpO2) * 1.5
		}
		if p.SpO2 <= 60 {
			tg.HR = math.Max(20, tg.HR-(60-p.SpO2)*2)
		}
	}

	// No flow, no CO2 return.
	tg.EtCO2 *= math.Min(1, p.Sys/90)
	if rr > 20 {
		tg.EtCO2 -= 12
	}
	if rr < 6 && rhythm != Sinus {
		tg.EtCO2 += 15
	}

	// Epinephrine needs circulation to wash in.
	if p.epiGiven {
		if p.Sys > 60 {
			p.EpiBioavailability = math.Min(1, p.EpiBioavailability+0.05)
		}
		if p.EpiBioavailability > 0.2 {
			dose := p.EpiBioavailability
			if cpr {
				tg.Sys += 25 * dose
			}
			if p.EpiBioavailability < 0.5 {
				tg.EtCO2 -= 5 * dose
			}
		}
	}

	next, msg := p.degenerate(rhythm)

	p.Sys = moveTowards(p.Sys, tg.Sys, bpRate)
	p.Dia = moveTowards(p.Dia, tg.Dia, bpRate)
	p.EtCO2 = moveTowards(p.EtCO2, tg.EtCO2, etco2Rate)
	p.SpO2 = moveTowards(p.SpO2, tg.SpO2, spo2Rate)
	p.targets = tg

	hr := -1
	if rhythm != VFib && rhythm != Asystole {
		hr = int(math.Max(0, math.Floor(tg.HR+(p.rng.Float64()*4-2))))
	}
	p.vitals = Vitals{
		HR:    hr,
		SpO2:  p.SpO2,
		EtCO2: p.EtCO2,
		Sys:   int(math.Floor(p.Sys)),
		Dia:   int(math.Floor(p.Dia)),
		RR:    rr,
	}

	return TickResult{Rhythm: next, Message: msg, Vitals: p.vitals}
}

func baseTargets(rhythm Rhythm, cpr bool, rr int) Targets {
	switch {
	case rhythm.Perfusing():
		hr := 75.0
		if rhythm == Bradycardia {
			hr = 40
		}
		return Targets{HR: hr, Sys: 115, Dia: 75, SpO2: 96, EtCO2: 38}
	case rhythm == VTach:
		return Targets{HR: 180, Sys: 60, Dia: 40, SpO2: 85, EtCO2: 25}
	case cpr:
		spo2 := 60.0
		if rr >= 6 {
			spo2 = 90
		}
		return Targets{HR: 0, Sys: 110, Dia: 20, SpO2: spo2, EtCO2: 32}
	}
	return Targets{HR: 0, Sys: 0, Dia: 0, SpO2: 20, EtCO2: 4}
}

// degenerate applies one-way hypoxic rhythm decay. It never restores a rhythm.
func (p *Physiology) degenerate(rhythm Rhythm) (Rhythm, string) {
	if p.SpO2 >= 50 {
		p.TimeInSevereHypoxia = math.Max(0, p.TimeInSevereHypoxia-TickInterval)
		return rhythm, ""
	}

	p.TimeInSevereHypoxia += TickInterval
	next, msg := rhythm, ""
	if p.TimeInSevereHypoxia > p.cfg.BradySeconds && rhythm == Sinus {
		if p.rng.Float64() < p.cfg.DegenerationProbability {
			next, msg = Bradycardia, MsgHypoxicBradycardia
		}
	}
	if p.TimeInSevereHypoxia > p.cfg.ArrestSeconds && rhythm != Asystole && rhythm != VFib && rhythm != PEA {
		next, msg = PEA, MsgHypoxicArrest
	}
	return next, msg
}

func moveTowards(current, target, rate float64) float64 {
	if math.Abs(target-current) < snapBand {
		return target
	}
	return current + (target-current)*rate
}
