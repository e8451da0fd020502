package generator

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/synheart/physiosim/internal/models"
	"github.com/synheart/physiosim/internal/scenario"
)

var (
	// ErrUnsupportedCommand is returned when a command does not apply to the
	// running modality.
	ErrUnsupportedCommand = errors.New("command not supported by modality")
	// ErrNotStarted is returned for commands received before the first step.
	ErrNotStarted = errors.New("simulator not started")
)

// Simulator produces the samples of one modality. Step is called once per
// tick with the effective scenario params, the scenario time t and the tick
// length dt, both in seconds. Implementations are not safe for concurrent use.
type Simulator interface {
	Step(p scenario.Params, t, dt float64) []models.Signal
	Reset()
	Apply(cmd models.Command) error
}

// CaseLabeler is implemented by simulators that run a named case.
type CaseLabeler interface {
	CaseLabel() string
}

// SimulatorFactory builds a simulator drawing all randomness from rng.
type SimulatorFactory func(rng *rand.Rand) Simulator

// GetAllSimulators returns the simulator factory of every modality
func GetAllSimulators() map[scenario.Modality]SimulatorFactory {
	return map[scenario.Modality]SimulatorFactory{
		scenario.ModalityDefib:      newDefibSimulator,
		scenario.ModalityEKG:        newEKGSimulator,
		scenario.ModalityEEG:        newEEGSimulator,
		scenario.ModalityCTG:        newCTGSimulator,
		scenario.ModalityManometry:  newManometrySimulator,
		scenario.ModalitySpirometry: newSpirometrySimulator,
	}
}

// NewSimulator creates the simulator for a modality
func NewSimulator(m scenario.Modality, rng *rand.Rand) (Simulator, error) {
	factory, ok := GetAllSimulators()[m]
	if !ok {
		return nil, fmt.Errorf("%w: %q", scenario.ErrUnknownModality, m)
	}
	return factory(rng), nil
}

// units maps a signal name, or the prefix before its first dot, to a unit.
var units = map[string]string{
	"ecg":            "mV",
	"pleth":          "",
	"capno":          "mmHg",
	"paw":            "cmH2O",
	"hr":             "bpm",
	"spo2":           "%",
	"etco2":          "mmHg",
	"rr":             "/min",
	"nibp":           "mmHg",
	"ekg":            "mV",
	"eeg":            "µV",
	"fhr":            "bpm",
	"toco":           "mmHg",
	"pressure":       "mmHg",
	"dci":            "mmHg·s·cm",
	"distal_latency": "s",
	"irp":            "mmHg",
	"volume":         "L",
	"flow":           "L/s",
	"fvc":            "L",
	"fev1":           "L",
	"fev1_fvc":       "ratio",
	"pef":            "L/s",
}

// unitFor returns the default unit for a signal
func unitFor(name string) string {
	if u, ok := units[name]; ok {
		return u
	}
	if prefix, _, found := strings.Cut(name, "."); found {
		return units[prefix]
	}
	return ""
}

func newSignal(name string, value any) models.Signal {
	return models.Signal{
		Name:    name,
		Unit:    unitFor(name),
		Value:   value,
		Quality: 1,
	}
}
