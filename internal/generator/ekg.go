package generator

import (
	"fmt"
	"math/rand"

	"github.com/synheart/physiosim/internal/ekg"
	"github.com/synheart/physiosim/internal/models"
	"github.com/synheart/physiosim/internal/scenario"
)

// ekgSimulator samples a 12-lead case on its own clock. One signal is
// emitted per selected lead.
type ekgSimulator struct {
	rng       *rand.Rand
	category  ekg.Category
	cache     *ekg.BeatCache
	leads     []ekg.Lead
	heartRate int
	clock     float64
}

func newEKGSimulator(rng *rand.Rand) Simulator {
	return &ekgSimulator{rng: rng}
}

func (s *ekgSimulator) start(p scenario.Params) {
	s.category = ""
	if c, err := ekg.ParseCategory(p.EKGCategory); err == nil {
		s.category = c
	}
	// An empty category always yields a case.
	c, _ := ekg.GenerateRandomCase(s.category, s.rng)
	s.cache = ekg.NewBeatCache(c)

	s.leads = s.leads[:0]
	for _, name := range p.Leads {
		if l, err := ekg.ParseLead(name); err == nil {
			s.leads = append(s.leads, l)
		}
	}
	if len(s.leads) == 0 {
		s.leads = append(s.leads, ekg.Leads...)
	}
	s.heartRate = 0
	s.clock = 0
}

func (s *ekgSimulator) Step(p scenario.Params, _, dt float64) []models.Signal {
	if s.cache == nil {
		s.start(p)
	}
	if p.HeartRate != nil && *p.HeartRate != s.heartRate {
		s.heartRate = *p.HeartRate
		s.cache.SetHeartRate(s.heartRate)
	}

	out := make([]models.Signal, len(s.leads))
	for i, l := range s.leads {
		out[i] = newSignal("ekg."+string(l), s.cache.VoltageAt(s.clock, l))
	}
	s.clock += dt
	return out
}

func (s *ekgSimulator) Reset() {
	s.cache = nil
}

func (s *ekgSimulator) Apply(cmd models.Command) error {
	if s.cache == nil {
		return ErrNotStarted
	}

	switch cmd.Type {
	case models.CmdHeartRate:
		s.cache.SetHeartRate(int(cmd.Rate))
	case models.CmdNextCase:
		c, err := ekg.GenerateRandomCase(s.category, s.rng)
		if err != nil {
			return err
		}
		s.cache.SetCase(c)
		s.clock = 0
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedCommand, cmd.Type)
	}
	return nil
}

func (s *ekgSimulator) CaseLabel() string {
	if s.cache == nil {
		return ""
	}
	return s.cache.Case().Name
}
