package generator

import (
	"fmt"
	"math/rand"

	"github.com/synheart/physiosim/internal/eeg"
	"github.com/synheart/physiosim/internal/models"
	"github.com/synheart/physiosim/internal/scenario"
)

// blinkQuality marks samples of the blink artifact state.
const blinkQuality = 0.6

// eegSimulator drives a montage in lockstep. Each tick advances every
// channel counter by the number of samples the tick spans.
type eegSimulator struct {
	rng     *rand.Rand
	montage *eeg.Montage
	state   eeg.BrainState
}

func newEEGSimulator(rng *rand.Rand) Simulator {
	return &eegSimulator{rng: rng}
}

func (s *eegSimulator) start(p scenario.Params) {
	s.state = eeg.AwakeEyesOpen
	if st, err := eeg.ParseBrainState(p.BrainState); err == nil {
		s.state = st
	}
	s.montage = eeg.NewMontage(p.Channels, s.rng)
}

func (s *eegSimulator) Step(p scenario.Params, _, dt float64) []models.Signal {
	if s.montage == nil {
		s.start(p)
	}

	speed := eeg.SampleRate * dt
	if p.Speed != nil {
		speed *= *p.Speed
	}

	points := s.montage.Next(s.state, speed)
	out := make([]models.Signal, len(points))
	for i, pt := range points {
		sig := newSignal("eeg."+s.montage.Channels[i].ID, pt.Value)
		if s.state == eeg.ArtifactBlink {
			sig.Quality = blinkQuality
		}
		out[i] = sig
	}
	return out
}

func (s *eegSimulator) Reset() {
	s.montage = nil
}

func (s *eegSimulator) Apply(cmd models.Command) error {
	if s.montage == nil {
		return ErrNotStarted
	}

	switch cmd.Type {
	case models.CmdBrainState:
		st, err := eeg.ParseBrainState(cmd.Value)
		if err != nil {
			return err
		}
		s.state = st
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedCommand, cmd.Type)
	}
	return nil
}

func (s *eegSimulator) CaseLabel() string {
	return string(s.state)
}
