// Package eeg synthesises scalp EEG for a 10-20 electrode montage from a
// small set of brain states.
package eeg

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownBrainState is returned when a state name cannot be parsed.
var ErrUnknownBrainState = errors.New("unknown brain state")

// BrainState selects the morphology of every channel.
type BrainState string

const (
	AwakeEyesOpen   BrainState = "AWAKE_EYES_OPEN"
	AwakeEyesClosed BrainState = "AWAKE_EYES_CLOSED"
	Drowsy          BrainState = "DROWSY"
	DeepSleep       BrainState = "DEEP_SLEEP"
	SeizureGrandMal BrainState = "SEIZURE_GRAND_MAL"
	SeizurePetitMal BrainState = "SEIZURE_PETIT_MAL"
	ArtifactBlink   BrainState = "ARTIFACT_BLINK"
)

// States lists every brain state.
var States = []BrainState{
	AwakeEyesOpen, AwakeEyesClosed, Drowsy, DeepSleep,
	SeizureGrandMal, SeizurePetitMal, ArtifactBlink,
}

// ParseBrainState parses a state name case-insensitively.
func ParseBrainState(s string) (BrainState, error) {
	st := BrainState(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range States {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBrainState, s)
}

// SignalConfig holds the synthesis constants of a state. Amplitudes are in
// microvolts, frequencies in Hz.
type SignalConfig struct {
	BaseFreq      float64 `json:"base_freq"`
	SecondaryFreq float64 `json:"secondary_freq,omitempty"`
	Amplitude     float64 `json:"amplitude"`
	NoiseFloor    float64 `json:"noise_floor"`
	SpikeProb     float64 `json:"spike_prob"`
	BlinkProb     float64 `json:"blink_prob"`
}

var stateConfigs = map[BrainState]SignalConfig{
	AwakeEyesOpen:   {BaseFreq: 22, Amplitude: 10, NoiseFloor: 3, BlinkProb: 0.05},
	AwakeEyesClosed: {BaseFreq: 10, Amplitude: 45, NoiseFloor: 2, BlinkProb: 0.01},
	Drowsy:          {BaseFreq: 6, Amplitude: 35, NoiseFloor: 4, BlinkProb: 0.01},
	DeepSleep:       {BaseFreq: 1.5, Amplitude: 120, NoiseFloor: 5},
	SeizureGrandMal: {BaseFreq: 12, Amplitude: 180, NoiseFloor: 30, SpikeProb: 0.3},
	SeizurePetitMal: {BaseFreq: 3, SecondaryFreq: 3, Amplitude: 150, NoiseFloor: 5, SpikeProb: 1},
	ArtifactBlink:   {BaseFreq: 15, Amplitude: 15, NoiseFloor: 3, BlinkProb: 1},
}

// ConfigFor returns the synthesis constants of a state. Unknown states get a
// quiet background-only configuration.
func ConfigFor(s BrainState) SignalConfig {
	if c, ok := stateConfigs[s]; ok {
		return c
	}
	return SignalConfig{NoiseFloor: 3}
}

// Category is the broad clinical class of a trace.
type Category string

const (
	Physiological Category = "Physiological"
	Pathological  Category = "Pathological"
	Artifact      Category = "Artifact"
)

// ClinicalContext is the teaching annotation of a state.
type ClinicalContext struct {
	Category    Category `json:"category"`
	Diagnosis   string   `json:"diagnosis"`
	Explanation string   `json:"explanation"`
	Clues       []string `json:"clues"`
}

var clinicalData = map[BrainState]ClinicalContext{
	AwakeEyesOpen: {
		Category:    Physiological,
		Diagnosis:   "Normal Wakefulness (Beta)",
		Explanation: "Physiological normal state. EEG shows low voltage, desynchronized Beta activity (>14Hz), indicating active mental engagement or open eyes.",
		Clues:       []string{"Freq > 13Hz", "Low Amplitude", "No spikes"},
	},
	AwakeEyesClosed: {
		Category:    Physiological,
		Diagnosis:   "Relaxed Wakefulness (Alpha)",
		Explanation: "Physiological. Prominent Alpha rhythm (8-13Hz) in posterior regions (O1, O2) is the hallmark of a relaxed adult with eyes closed.",
		Clues:       []string{"Freq 8-13Hz", "Posterior Dominance", "Waxing/Waning Spindles"},
	},
	Drowsy: {
		Category:    Physiological,
		Diagnosis:   "Drowsiness (Theta)",
		Explanation: "Can be physiological (in children or drowsiness) or pathological (focal lesions). Here, generalized Theta (4-7Hz) suggests sleep onset.",
		Clues:       []string{"Freq 4-7Hz", "Background slowing", "Alpha dropout"},
	},
	DeepSleep: {
		Category:    Physiological,
		Diagnosis:   "Deep Sleep (Delta)",
		Explanation: "Physiological during NREM sleep. Characterized by high amplitude Delta waves (<4Hz). If seen in an alert adult, it would be pathological.",
		Clues:       []string{"Freq < 4Hz", "High Amplitude", "Irregular slow waves"},
	},
	SeizureGrandMal: {
		Category:    Pathological,
		Diagnosis:   "Tonic-Clonic Seizure (Grand Mal)",
		Explanation: "Highly pathological. The trace shows chaotic high voltage polyspikes and muscle artifacts, consistent with the ictal phase of a generalized seizure.",
		Clues:       []string{"Chaotic high voltage", "Fast spikes", "Muscle contamination"},
	},
	SeizurePetitMal: {
		Category:    Pathological,
		Diagnosis:   "Absence Seizure (Petit Mal)",
		Explanation: `Pathological. The classic "3Hz Spike and Wave" complex is diagnostic of Absence Seizures, often seen in childhood epilepsy.`,
		Clues:       []string{"Strict 3Hz pattern", "Spike followed by slow wave", "Synchronized"},
	},
	ArtifactBlink: {
		Category:    Artifact,
		Diagnosis:   "Blink Artifact",
		Explanation: "Artifact, not brain activity. Large bell-shaped deflections in Frontal leads (Fp1, Fp2) correlate with eye movements (Eye dipole).",
		Clues:       []string{"Frontal Dominance", "Bell-shaped wave", "Normal background"},
	},
}

// ContextFor returns the clinical annotation of a state.
func ContextFor(s BrainState) (ClinicalContext, bool) {
	c, ok := clinicalData[s]
	return c, ok
}

// Diagnoses lists every diagnosis name in state order, for answer choices.
func Diagnoses() []string {
	out := make([]string, 0, len(States))
	for _, s := range States {
		out = append(out, clinicalData[s].Diagnosis)
	}
	return out
}
