package generator

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/synheart/physiosim/internal/models"
	"github.com/synheart/physiosim/internal/scenario"
	"github.com/synheart/physiosim/internal/spirometry"
)

const (
	defaultManeuverInterval = 12.0
	// plateauHold is how long the exhaled volume is held after the manoeuvre
	// before the trace returns to rest.
	plateauHold = 1.0
)

// spirometrySimulator replays the volume-time manoeuvre of a generated case
// once per interval. The measured values are emitted when a case starts.
type spirometrySimulator struct {
	rng       *rand.Rand
	diagnosis spirometry.Diagnosis
	severity  spirometry.Severity
	c         *spirometry.Case
	interval  float64
	clock     float64
	pending   []models.Signal
}

func newSpirometrySimulator(rng *rand.Rand) Simulator {
	return &spirometrySimulator{rng: rng}
}

func (s *spirometrySimulator) start(p scenario.Params) error {
	s.diagnosis, s.severity = "", ""
	if d, err := spirometry.ParseDiagnosis(p.Diagnosis); err == nil {
		s.diagnosis = d
	}
	if sev, err := spirometry.ParseSeverity(p.Severity); err == nil {
		s.severity = sev
	}

	s.interval = defaultManeuverInterval
	if d, unlimited := scenario.ParseDuration(p.ManeuverInterval); !unlimited && d > 0 {
		s.interval = d.Seconds()
	}
	return s.newCase()
}

func (s *spirometrySimulator) newCase() error {
	c, err := spirometry.GenerateCaseWithSeverity(s.diagnosis, s.severity, s.rng)
	if err != nil {
		return err
	}
	s.c = &c
	s.clock = 0
	s.pending = []models.Signal{
		newSignal("fvc", c.Actual.FVC),
		newSignal("fev1", c.Actual.FEV1),
		newSignal("fev1_fvc", c.Actual.Ratio),
		newSignal("pef", c.Actual.PEF),
	}
	return nil
}

func (s *spirometrySimulator) Step(p scenario.Params, _, dt float64) []models.Signal {
	if s.c == nil {
		// Parsed params always generate; a failure leaves the simulator idle.
		if err := s.start(p); err != nil {
			return nil
		}
	}

	vt := s.c.Loops.VolumeTime
	end := spirometry.Duration(vt)
	cycle := math.Max(s.interval, end+plateauHold)
	at := math.Mod(s.clock, cycle)

	var volume, flow float64
	switch {
	case at <= end:
		volume = spirometry.VolumeAt(vt, at)
		flow = spirometry.FlowAt(vt, at)
	case at <= end+plateauHold:
		volume = spirometry.VolumeAt(vt, end)
	}

	out := append(s.pending, newSignal("volume", volume), newSignal("flow", flow))
	s.pending = nil
	s.clock += dt
	return out
}

func (s *spirometrySimulator) Reset() {
	s.c = nil
}

func (s *spirometrySimulator) Apply(cmd models.Command) error {
	if s.c == nil {
		return ErrNotStarted
	}

	switch cmd.Type {
	case models.CmdNextCase:
		return s.newCase()
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedCommand, cmd.Type)
	}
}

func (s *spirometrySimulator) CaseLabel() string {
	if s.c == nil {
		return ""
	}
	return s.c.ID
}
