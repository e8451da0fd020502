package generator

import (
	"fmt"
	"math/rand"

	"github.com/synheart/physiosim/internal/ctg"
	"github.com/synheart/physiosim/internal/models"
	"github.com/synheart/physiosim/internal/scenario"
)

// ctgSimulator emits FHR and TOCO on the CTG tick grid regardless of the
// session rate. The FIGO class is emitted whenever the params change.
type ctgSimulator struct {
	rng        *rand.Rand
	gen        *ctg.Generator
	clock      float64
	next       float64
	params     ctg.Params
	classified bool
}

func newCTGSimulator(rng *rand.Rand) Simulator {
	return &ctgSimulator{rng: rng}
}

func (s *ctgSimulator) start() {
	s.gen = ctg.NewGenerator(s.rng)
	s.clock = 0
	s.next = 0
	s.classified = false
}

func (s *ctgSimulator) Step(p scenario.Params, _, dt float64) []models.Signal {
	if s.gen == nil {
		s.start()
	}

	params := ctg.DefaultParams()
	if p.CTG != nil {
		params = p.CTG.Normalize()
	}

	var out []models.Signal
	if !s.classified || params != s.params {
		s.params = params
		s.classified = true
		out = append(out, newSignal("figo", string(ctg.Classify(params).Classification)))
	}

	for s.next <= s.clock {
		pt := s.gen.Next(s.next, params)
		out = append(out, newSignal("fhr", pt.FHR), newSignal("toco", pt.TOCO))
		s.next += ctg.TickInterval
	}
	s.clock += dt
	return out
}

func (s *ctgSimulator) Reset() {
	s.gen = nil
}

func (s *ctgSimulator) Apply(cmd models.Command) error {
	if s.gen == nil {
		return ErrNotStarted
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedCommand, cmd.Type)
}

func (s *ctgSimulator) CaseLabel() string {
	if !s.classified {
		return ""
	}
	return string(ctg.Classify(s.params).Classification)
}
