package generator

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/synheart/physiosim/internal/manometry"
	"github.com/synheart/physiosim/internal/models"
	"github.com/synheart/physiosim/internal/scenario"
)

// ErrSwallowInProgress is returned when a swallow is requested while the
// previous one is still running.
var ErrSwallowInProgress = errors.New("swallow already in progress")

// Sim-time epoch used to stamp swallows; the offset is drawn per session so
// the swallow variability differs between seeds.
const swallowEpochMs = 1_700_000_000_000

// manometrySimulator emits the smoothed pressure column of the study every
// tick and the HRM metrics of each swallow.
type manometrySimulator struct {
	rng         *rand.Rand
	study       *manometry.Study
	epochMs     int64
	clock       float64
	interval    float64
	nextSwallow float64
	sensors     int
	pending     []models.Signal
}

func newManometrySimulator(rng *rand.Rand) Simulator {
	return &manometrySimulator{rng: rng}
}

func (s *manometrySimulator) start(p scenario.Params) {
	sc := manometry.Normal
	if parsed, err := manometry.ParseScenario(p.Manometry); err == nil {
		sc = parsed
	}
	s.study = manometry.NewStudy(sc)
	s.epochMs = swallowEpochMs + s.rng.Int63n(1_000_000_000)
	s.clock = 0
	s.pending = nil

	s.sensors = int(manometry.ProbeLength)
	if p.Sensors != nil {
		s.sensors = *p.Sensors
	}

	s.interval = 0
	if d, unlimited := scenario.ParseDuration(p.SwallowInterval); !unlimited && d > 0 {
		s.interval = d.Seconds()
	}
	s.nextSwallow = s.interval
}

func (s *manometrySimulator) swallow() bool {
	m, ok := s.study.Swallow(s.epochMs + int64(s.clock*1000))
	if !ok {
		return false
	}

	var dci, latency any = "N/A", "N/A"
	if m.HasDCI {
		dci = float64(m.DCI)
	}
	if m.HasLatency {
		latency = m.DistalLatency
	}
	s.pending = append(s.pending,
		newSignal("dci", dci),
		newSignal("distal_latency", latency),
		newSignal("irp", float64(m.IRP)),
	)
	return true
}

func (s *manometrySimulator) Step(p scenario.Params, _, dt float64) []models.Signal {
	if s.study == nil {
		s.start(p)
	}

	if s.interval > 0 && s.clock >= s.nextSwallow {
		s.swallow()
		s.nextSwallow += s.interval
	}

	out := append(s.pending, newSignal("pressure", manometry.Smooth(s.study.Column(s.sensors))))
	s.pending = nil

	s.study.Advance(dt)
	s.clock += dt
	return out
}

func (s *manometrySimulator) Reset() {
	s.study = nil
}

func (s *manometrySimulator) Apply(cmd models.Command) error {
	if s.study == nil {
		return ErrNotStarted
	}

	switch cmd.Type {
	case models.CmdSwallow:
		if !s.swallow() {
			return ErrSwallowInProgress
		}
	case models.CmdManometry:
		sc, err := manometry.ParseScenario(cmd.Value)
		if err != nil {
			return err
		}
		s.study.SetScenario(sc)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedCommand, cmd.Type)
	}
	return nil
}

func (s *manometrySimulator) CaseLabel() string {
	if s.study == nil {
		return ""
	}
	return string(s.study.Scenario())
}
