package models

import "time"

// SchemaVersion identifies the sample envelope format.
const SchemaVersion = "physiosim.sample.v1"

// Event is the envelope of one simulated sample
type Event struct {
	SchemaVersion string  `json:"schema_version"`
	EventID       string  `json:"event_id"`
	Timestamp     string  `json:"ts"`
	SimTime       float64 `json:"sim_time"` // seconds since scenario start
	Source        Source  `json:"source"`
	Session       Session `json:"session"`
	Signal        Signal  `json:"signal"`
	Meta          Meta    `json:"meta"`
}

// Source identifies the simulated device
type Source struct {
	Type string `json:"type"` // modality, e.g. "defib" or "eeg"
	ID   string `json:"id"`
}

// Session contains metadata about the simulated session
type Session struct {
	RunID    string `json:"run_id"`
	Scenario string `json:"scenario"`
	Seed     int64  `json:"seed"`
	Case     string `json:"case,omitempty"`
}

// Signal represents a single simulated measurement
type Signal struct {
	Name    string  `json:"name"`  // e.g., "ecg" or "eeg.O1"
	Unit    string  `json:"unit"`  // e.g., "mV"
	Value   any     `json:"value"` // number, string, or []float64
	Quality float64 `json:"quality"`
}

// Meta contains additional event metadata
type Meta struct {
	Sequence int64  `json:"sequence"`
	Phase    string `json:"phase,omitempty"`
}

// NewEvent creates a new Event stamped with the current wall-clock time
func NewEvent(eventID string, source Source, session Session, signal Signal, sequence int64, simTime float64) Event {
	return Event{
		SchemaVersion: SchemaVersion,
		EventID:       eventID,
		Timestamp:     time.Now().UTC().Format(time.RFC3339Nano),
		SimTime:       simTime,
		Source:        source,
		Session:       session,
		Signal:        signal,
		Meta: Meta{
			Sequence: sequence,
		},
	}
}

// Scalar returns the signal value as a float64 when it is numeric.
func (s Signal) Scalar() (float64, bool) {
	switch v := s.Value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Floats returns the numeric content of the signal as a slice: a scalar
// becomes a one-element slice and arrays are converted element-wise.
// Strings and booleans yield nil.
func (s Signal) Floats() []float64 {
	if v, ok := s.Scalar(); ok {
		return []float64{v}
	}
	switch v := s.Value.(type) {
	case []float64:
		return v
	case []any:
		out := make([]float64, 0, len(v))
		for _, x := range v {
			if f, ok := (Signal{Value: x}).Scalar(); ok {
				out = append(out, f)
			}
		}
		return out
	}
	return nil
}
