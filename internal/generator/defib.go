package generator

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/synheart/physiosim/internal/defib"
	"github.com/synheart/physiosim/internal/models"
	"github.com/synheart/physiosim/internal/scenario"
)

// compressionQuality marks ECG samples buried in compression artifact.
const compressionQuality = 0.5

// defibSimulator streams the monitor traces of one defibrillator session.
// Scenario rhythm, CPR and pacer settings are applied only when the phase
// changes them, so manual interventions persist until the next phase.
type defibSimulator struct {
	rng      *rand.Rand
	session  *defib.Session
	applied  scenario.Params
	lastTick int
	label    string
}

func newDefibSimulator(rng *rand.Rand) Simulator {
	return &defibSimulator{rng: rng}
}

func (s *defibSimulator) start(p scenario.Params) {
	cfg := defib.Config{
		Physiology: defib.DefaultPhysiologyConfig(),
		Exam:       p.Exam != nil && *p.Exam,
	}
	if r, err := defib.ParseRhythm(p.Rhythm); err == nil {
		cfg.Rhythm = r
	}
	s.session = defib.NewSession(cfg, s.rng)

	if v := p.Vitals; v != nil {
		physio := s.session.Physiology()
		if v.SpO2 > 0 {
			physio.SpO2 = v.SpO2
		}
		if v.EtCO2 > 0 {
			physio.EtCO2 = v.EtCO2
		}
		if v.Sys > 0 {
			physio.Sys = v.Sys
		}
		if v.Dia > 0 {
			physio.Dia = v.Dia
		}
	}

	s.label = ""
	if cfg.Exam {
		s.label = s.session.NextCase().Title
	}
	s.applied = scenario.Params{Rhythm: p.Rhythm}
	s.lastTick = -1
}

// sync applies the scenario settings that differ from the last applied ones.
func (s *defibSimulator) sync(p scenario.Params) {
	if p.Rhythm != "" && !strings.EqualFold(p.Rhythm, s.applied.Rhythm) {
		if r, err := defib.ParseRhythm(p.Rhythm); err == nil {
			s.session.SetRhythm(r)
		}
	}
	if p.CPR != nil && (s.applied.CPR == nil || *p.CPR != *s.applied.CPR) {
		s.session.SetCPR(*p.CPR)
	}
	if p.Pacer != nil && (s.applied.Pacer == nil || *p.Pacer != *s.applied.Pacer) {
		rate := p.Pacer.Rate
		if rate <= 0 {
			rate = s.session.Device().Pacer.Rate
		}
		s.setPacer(p.Pacer.Enabled, rate, p.Pacer.Current)
	}
	s.applied.Rhythm = p.Rhythm
	s.applied.CPR = p.CPR
	s.applied.Pacer = p.Pacer
}

func (s *defibSimulator) setPacer(enabled bool, rate, current float64) {
	s.session.SetPacer(rate, current)
	if s.session.Device().Pacer.Enabled != enabled {
		s.session.TogglePacer()
	}
}

func (s *defibSimulator) Step(p scenario.Params, _, dt float64) []models.Signal {
	if s.session == nil {
		s.start(p)
	}
	s.sync(p)
	f := s.session.Step(dt)

	ecg := newSignal("ecg", f.ECG)
	if f.CPR {
		ecg.Quality = compressionQuality
	}
	out := []models.Signal{
		ecg,
		newSignal("pleth", f.Pleth),
		newSignal("capno", f.Capno),
		newSignal("paw", f.Paw),
	}

	// Numerics refresh at the physiology tick rate.
	if tick := int(f.Time / defib.TickInterval); tick != s.lastTick {
		s.lastTick = tick
		v := f.Vitals
		if v.HR >= 0 {
			out = append(out, newSignal("hr", float64(v.HR)))
		}
		out = append(out,
			newSignal("spo2", v.SpO2),
			newSignal("etco2", v.EtCO2),
			newSignal("rr", float64(v.RR)),
			newSignal("nibp", f.NIBP),
			newSignal("rhythm", string(f.Rhythm)),
			newSignal("charge", string(f.Charge)),
		)
	}
	if f.Message != "" {
		out = append(out, newSignal("message", f.Message))
	}
	return out
}

func (s *defibSimulator) Reset() {
	s.session = nil
}

func (s *defibSimulator) Apply(cmd models.Command) error {
	if s.session == nil {
		return ErrNotStarted
	}

	switch cmd.Type {
	case models.CmdRhythm:
		value := cmd.Rhythm
		if value == "" {
			value = cmd.Value
		}
		r, err := defib.ParseRhythm(value)
		if err != nil {
			return err
		}
		s.session.SetRhythm(r)
	case models.CmdCPR:
		s.session.SetCPR(cmd.On())
	case models.CmdVentilate:
		s.session.Ventilate()
	case models.CmdDrug:
		d, ok := models.ParseDrug(cmd.Value)
		if !ok {
			return fmt.Errorf("unknown drug %q", cmd.Value)
		}
		return s.session.GiveDrug(d)
	case models.CmdCharge:
		return s.session.Charge()
	case models.CmdShock:
		return s.session.Shock()
	case models.CmdEnergy:
		s.session.SetEnergy(cmd.Energy)
	case models.CmdSync:
		s.session.ToggleSync()
	case models.CmdPacer:
		pacer := s.session.Device().Pacer
		rate, current := pacer.Rate, pacer.Current
		if cmd.Rate > 0 {
			rate = cmd.Rate
		}
		if cmd.Current > 0 {
			current = cmd.Current
		}
		s.setPacer(cmd.On(), rate, current)
	case models.CmdNIBP:
		return s.session.MeasureNIBP()
	case models.CmdNextCase:
		c := s.session.NextCase()
		if s.session.Exam() != nil {
			s.label = c.Title
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedCommand, cmd.Type)
	}
	return nil
}

func (s *defibSimulator) CaseLabel() string {
	return s.label
}
