package defib

import (
	"fmt"
	"math"
	"math/rand"
)

// VentDisplayWindow is how long after a breath the airway pressure trace
// replaces the pleth trace.
const VentDisplayWindow = 2.0

// Drug is a resuscitation drug.
type Drug string

const (
	Epinephrine Drug = "EPI"
	Amiodarone  Drug = "AMIO"
)

// Config configures a Session.
type Config struct {
	Physiology PhysiologyConfig
	// Rhythm is the starting rhythm. Empty means sinus.
	Rhythm Rhythm
	// Exam enables scored arrest cases.
	Exam bool
}

// Frame is one monitor sample with the state needed to draw it.
type Frame struct {
	Time        float64     `json:"t"`
	ECG         float64     `json:"ecg"`
	Pleth       float64     `json:"pleth"`
	Capno       float64     `json:"capno"`
	Paw         float64     `json:"paw"`
	Ventilating bool        `json:"ventilating"`
	Rhythm      Rhythm      `json:"rhythm"`
	CPR         bool        `json:"cpr"`
	Vitals      Vitals      `json:"vitals"`
	Charge      ChargeState `json:"charge"`
	Flash       bool        `json:"flash"`
	Energy      int         `json:"energy"`
	NIBP        string      `json:"nibp"`
	Message     string      `json:"message,omitempty"`
}

// Session couples the monitor, physiology, device and exam of one simulated
// patient. It is not safe for concurrent use.
type Session struct {
	rng     *rand.Rand
	monitor *Monitor
	physio  *Physiology
	device  *Device
	exam    *Exam

	rhythm Rhythm
	cpr    bool

	now          float64
	nextTick     float64
	cprStartedAt float64
	lastVentAt   float64
	vented       bool
	pending      string
}

// NewSession creates a session. All randomness is drawn from rng.
func NewSession(cfg Config, rng *rand.Rand) *Session {
	rhythm := cfg.Rhythm
	if rhythm == "" {
		rhythm = Sinus
	}
	s := &Session{
		rng:      rng,
		monitor:  NewMonitor(rng),
		physio:   NewPhysiology(cfg.Physiology, rng),
		device:   NewDevice(),
		rhythm:   rhythm,
		nextTick: TickInterval,
	}
	if cfg.Exam {
		s.exam = &Exam{}
	}
	return s
}

// Rhythm returns the current rhythm.
func (s *Session) Rhythm() Rhythm { return s.rhythm }

// CPR reports whether compressions are in progress.
func (s *Session) CPR() bool { return s.cpr }

// Now returns the simulated time in seconds.
func (s *Session) Now() float64 { return s.now }

// Device exposes the device state.
func (s *Session) Device() *Device { return s.device }

// Physiology exposes the physiology state.
func (s *Session) Physiology() *Physiology { return s.physio }

// Exam returns the exam state, or nil outside exam mode.
func (s *Session) Exam() *Exam { return s.exam }

// Step advances the simulation by dt seconds and returns one sample of every trace.
func (s *Session) Step(dt float64) Frame {
	s.now += dt
	for s.now >= s.nextTick {
		res := s.physio.Tick(s.rhythm, s.cpr)
		if res.Rhythm != s.rhythm {
			s.rhythm = res.Rhythm
		}
		if res.Message != "" {
			s.pending = res.Message
		}
		s.nextTick += TickInterval
	}
	s.device.Advance(s.now, s.physio.Sys, s.physio.Dia)

	vitals := s.physio.Vitals()
	ventilating := s.vented && s.now-s.lastVentAt < VentDisplayWindow
	mech := HasMechanicalPulse(s.rhythm, s.cpr)

	var pacer *PacerState
	if s.device.Pacer.Enabled {
		p := s.device.Pacer
		pacer = &p
	}
	ecg := s.monitor.ECG(s.rhythm, s.cpr, pacer, HypoxiaStress(vitals.SpO2))

	pleth := 0.0
	if !ventilating {
		pleth = s.monitor.Pleth(mech, 1)
		if vitals.SpO2 < 70 {
			pleth *= 0.3
		}
	}
	capno := s.monitor.Capno(mech || s.cpr, 1, ventilating) * math.Min(1, vitals.EtCO2/35)

	f := Frame{
		Time:        s.now,
		ECG:         ecg,
		Pleth:       pleth,
		Capno:       capno,
		Paw:         s.monitor.Paw(),
		Ventilating: ventilating,
		Rhythm:      s.rhythm,
		CPR:         s.cpr,
		Vitals:      vitals,
		Charge:      s.device.Charge,
		Flash:       s.device.Flash,
		Energy:      s.device.Energy,
		NIBP:        s.device.NIBPReading,
		Message:     s.pending,
	}
	s.pending = ""
	return f
}

// SetRhythm switches the rhythm directly.
func (s *Session) SetRhythm(r Rhythm) {
	s.rhythm = r
}

// SetCPR starts or stops chest compressions.
func (s *Session) SetCPR(on bool) {
	if on == s.cpr {
		return
	}
	s.cpr = on
	if on {
		s.cprStartedAt = s.now
		return
	}
	if s.exam != nil && s.rhythm != Sinus {
		if s.now-s.cprStartedAt > 5 {
			s.record("CPR Stop", true, "CPR Cycle completed.", 10)
		} else {
			s.record("CPR Stop", false, "Interrupted CPR too early.", -5)
		}
	}
}

// Ventilate delivers one bag-valve breath.
func (s *Session) Ventilate() {
	s.physio.Ventilate()
	s.monitor.TriggerVent()
	s.vented = true
	s.lastVentAt = s.now
}

// GiveDrug administers a drug.
func (s *Session) GiveDrug(d Drug) error {
	if d != Epinephrine && d != Amiodarone {
		return fmt.Errorf("unknown drug %q", d)
	}
	s.pending = "Drug Administered: " + string(d)

	if d == Epinephrine {
		s.physio.GiveEpinephrine()
		s.record("Epinephrine", true, "Epi given. Good.", 20)
		return nil
	}
	s.physio.GiveAmiodarone()
	if s.rhythm.Shockable() {
		s.record("Amiodarone", true, "Antiarrhythmic given for shockable rhythm.", 25)
	} else {
		s.record("Amiodarone", false, "Amiodarone is not indicated for non-shockable rhythms.", -15)
	}
	return nil
}

// Charge starts charging the defibrillator.
func (s *Session) Charge() error {
	if s.exam != nil && (s.rhythm == Asystole || s.rhythm == PEA) {
		s.record("Charge", false, "Charging for a non-shockable rhythm.", -10)
	}
	return s.device.StartCharge(s.now)
}

// Shock discharges the defibrillator into the patient.
func (s *Session) Shock() error {
	if err := s.device.Discharge(s.now); err != nil {
		return err
	}

	if s.exam == nil {
		if s.rhythm.Shockable() && s.device.Energy >= ConversionEnergy {
			s.rhythm = Sinus
		}
		return nil
	}

	switch {
	case s.cpr:
		s.record("Shock", false, "SAFETY VIOLATION: Shocked during CPR!", -50)
	case s.rhythm.Shockable() && s.device.Energy < ConversionEnergy:
		s.record("Shock", false, "Energy too low for effective defibrillation.", -20)
	case s.rhythm.Shockable():
		s.record("Shock", true, "Effective defibrillation.", 35)
		s.rhythm = Sinus
	default:
		s.record("Shock", false, "Shocked a non-shockable rhythm.", -40)
	}
	return nil
}

// AdjustEnergy changes the selected energy.
func (s *Session) AdjustEnergy(delta int) { s.device.AdjustEnergy(delta) }

// SetEnergy selects an absolute energy.
func (s *Session) SetEnergy(joules int) { s.device.SetEnergy(joules) }

// ToggleSync toggles synchronised cardioversion mode.
func (s *Session) ToggleSync() { s.device.Sync = !s.device.Sync }

// TogglePacer switches pacing on or off.
func (s *Session) TogglePacer() { s.device.TogglePacer() }

// SetPacer sets the pacer rate and current.
func (s *Session) SetPacer(rate, current float64) { s.device.SetPacer(rate, current) }

// MeasureNIBP starts a cuff measurement.
func (s *Session) MeasureNIBP() error { return s.device.StartNIBP(s.now) }

// StartCase begins a new arrest case and resets every accumulator.
func (s *Session) StartCase(c ArrestCase) {
	s.rhythm = c.Rhythm
	s.cpr = false
	s.vented = false
	s.pending = ""
	s.device.ResetForCase()
	s.physio.ResetForCase()
	s.monitor.Reset()
	if s.exam != nil {
		s.exam.CaseNumber++
		s.exam.RoscProgress = 0
		s.exam.Case = &c
	}
}

// NextCase generates and starts a random arrest case.
func (s *Session) NextCase() ArrestCase {
	c := GenerateArrestCase(s.rng)
	s.StartCase(c)
	return c
}

func (s *Session) record(action string, correct bool, feedback string, rosc float64) {
	if s.exam == nil {
		return
	}
	s.exam.Record(s.now, action, correct, feedback, rosc)
	if s.exam.Rosc() && s.rhythm != Sinus {
		s.rhythm = Sinus
		s.pending = "ROSC ACHIEVED! Patient has a pulse. Good job."
	}
}
