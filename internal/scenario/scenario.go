package scenario

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownModality is returned for a scenario whose modality is not simulated.
var ErrUnknownModality = errors.New("unknown modality")

// Modality selects which simulator a scenario drives.
type Modality string

const (
	ModalityDefib      Modality = "defib"
	ModalityEKG        Modality = "ekg"
	ModalityEEG        Modality = "eeg"
	ModalityCTG        Modality = "ctg"
	ModalityManometry  Modality = "manometry"
	ModalitySpirometry Modality = "spirometry"
)

// Modalities lists every simulated modality.
var Modalities = []Modality{
	ModalityDefib, ModalityEKG, ModalityEEG, ModalityCTG, ModalityManometry, ModalitySpirometry,
}

// ParseModality parses a modality name case-insensitively.
func ParseModality(s string) (Modality, error) {
	for _, m := range Modalities {
		if strings.EqualFold(strings.TrimSpace(s), string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModality, s)
}

// Scenario defines a simulated session: one modality, base parameters and
// timed phases that override them.
type Scenario struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Modality    Modality `yaml:"modality"`
	Duration    string   `yaml:"duration"` // e.g., "8m", "unlimited"
	Rate        string   `yaml:"rate"`     // e.g., "60hz"
	Params      Params   `yaml:"params"`
	Phases      []Phase  `yaml:"phases"`
}

// Phase represents a time-bounded stage of a scenario with specific overrides
type Phase struct {
	Name      string  `yaml:"name"`
	Duration  string  `yaml:"duration"`
	Overrides *Params `yaml:"overrides,omitempty"`
}

// ParseDuration parses duration strings like "8m", "30s", "unlimited"
func ParseDuration(s string) (time.Duration, bool) {
	if s == "unlimited" || s == "" {
		return 0, true // 0 means unlimited
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, false
	}
	return d, false
}

// ParseRate parses a tick rate like "60hz" into a tick period.
func ParseRate(rate string) (time.Duration, error) {
	var hz float64
	if _, err := fmt.Sscanf(strings.ToLower(strings.TrimSpace(rate)), "%fhz", &hz); err != nil {
		return 0, fmt.Errorf("failed to parse rate %q: %w", rate, err)
	}
	if hz <= 0 {
		return 0, fmt.Errorf("rate must be positive")
	}
	return time.Duration(float64(time.Second) / hz), nil
}

// GetEffectiveParams returns the parameters in force at elapsed: the base
// parameters with the current phase's overrides merged on top.
func (s *Scenario) GetEffectiveParams(elapsed time.Duration) Params {
	phase := s.getCurrentPhase(elapsed)
	if phase == nil {
		return s.Params.Clone()
	}
	return s.Params.Merge(phase.Overrides)
}

// TotalDuration returns the scenario duration and whether it is unlimited.
func (s *Scenario) TotalDuration() (time.Duration, bool) {
	return ParseDuration(s.Duration)
}

// Validate checks the modality, the rate, every duration and the parameters
// of the base and of each phase.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if _, err := ParseModality(string(s.Modality)); err != nil {
		return err
	}
	if s.Rate != "" {
		if _, err := ParseRate(s.Rate); err != nil {
			return err
		}
	}
	if d, unlimited := ParseDuration(s.Duration); !unlimited && d == 0 {
		return fmt.Errorf("invalid duration %q", s.Duration)
	}
	if err := s.Params.Validate(); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	for i, p := range s.Phases {
		if d, unlimited := ParseDuration(p.Duration); !unlimited && d == 0 {
			return fmt.Errorf("phase %d (%s): invalid duration %q", i+1, p.Name, p.Duration)
		}
		if p.Overrides == nil {
			continue
		}
		if err := p.Overrides.Validate(); err != nil {
			return fmt.Errorf("phase %d (%s): invalid overrides: %w", i+1, p.Name, err)
		}
	}
	return nil
}

func (s *Scenario) getCurrentPhase(elapsed time.Duration) *Phase {
	if len(s.Phases) == 0 {
		return nil
	}

	var currentTime time.Duration
	for i := range s.Phases {
		phaseDuration, unlimited := ParseDuration(s.Phases[i].Duration)
		if unlimited {
			return &s.Phases[i]
		}

		if elapsed < currentTime+phaseDuration {
			return &s.Phases[i]
		}
		currentTime += phaseDuration
	}

	// Return last phase if we've exceeded total duration
	return &s.Phases[len(s.Phases)-1]
}
