package scenario

import (
	"fmt"
	"strings"

	"github.com/synheart/physiosim/internal/ctg"
	"github.com/synheart/physiosim/internal/defib"
	"github.com/synheart/physiosim/internal/eeg"
	"github.com/synheart/physiosim/internal/ekg"
	"github.com/synheart/physiosim/internal/manometry"
	"github.com/synheart/physiosim/internal/spirometry"
)

// Pacer configures transcutaneous pacing.
type Pacer struct {
	Enabled bool    `yaml:"enabled" json:"enabled"`
	Rate    float64 `yaml:"rate" json:"rate"`
	Current float64 `yaml:"current" json:"current"`
}

// Vitals seeds the defibrillator physiology. Zero fields keep the default.
type Vitals struct {
	SpO2  float64 `yaml:"spo2" json:"spo2"`
	EtCO2 float64 `yaml:"etco2" json:"etco2"`
	Sys   float64 `yaml:"sys" json:"sys"`
	Dia   float64 `yaml:"dia" json:"dia"`
}

// Params is the flat parameter bundle of every modality. Every field is
// optional; a simulator reads the fields of its own modality only.
type Params struct {
	// Defibrillator
	Rhythm string  `yaml:"rhythm,omitempty"`
	CPR    *bool   `yaml:"cpr,omitempty"`
	Pacer  *Pacer  `yaml:"pacer,omitempty"`
	Vitals *Vitals `yaml:"vitals,omitempty"`
	Exam   *bool   `yaml:"exam,omitempty"`

	// 12-lead EKG
	EKGCategory string   `yaml:"ekg_category,omitempty"`
	HeartRate   *int     `yaml:"heart_rate,omitempty"`
	Leads       []string `yaml:"leads,omitempty"`

	// EEG
	BrainState string   `yaml:"brain_state,omitempty"`
	Channels   []string `yaml:"channels,omitempty"`
	Speed      *float64 `yaml:"speed,omitempty"`

	// CTG
	CTG *ctg.Params `yaml:"ctg,omitempty"`

	// Manometry
	Manometry       string `yaml:"manometry,omitempty"`
	SwallowInterval string `yaml:"swallow_interval,omitempty"`
	Sensors         *int   `yaml:"sensors,omitempty"`

	// Spirometry
	Diagnosis        string `yaml:"diagnosis,omitempty"`
	Severity         string `yaml:"severity,omitempty"`
	ManeuverInterval string `yaml:"maneuver_interval,omitempty"`
}

// Merge returns p with every field set in o taking precedence. Nested blocks
// (pacer, vitals, ctg) are replaced as a whole. A nil o returns a copy of p.
func (p Params) Merge(o *Params) Params {
	out := p.Clone()
	if o == nil {
		return out
	}
	o2 := o.Clone()

	if o2.Rhythm != "" {
		out.Rhythm = o2.Rhythm
	}
	if o2.CPR != nil {
		out.CPR = o2.CPR
	}
	if o2.Pacer != nil {
		out.Pacer = o2.Pacer
	}
	if o2.Vitals != nil {
		out.Vitals = o2.Vitals
	}
	if o2.Exam != nil {
		out.Exam = o2.Exam
	}
	if o2.EKGCategory != "" {
		out.EKGCategory = o2.EKGCategory
	}
	if o2.HeartRate != nil {
		out.HeartRate = o2.HeartRate
	}
	if o2.Leads != nil {
		out.Leads = o2.Leads
	}
	if o2.BrainState != "" {
		out.BrainState = o2.BrainState
	}
	if o2.Channels != nil {
		out.Channels = o2.Channels
	}
	if o2.Speed != nil {
		out.Speed = o2.Speed
	}
	if o2.CTG != nil {
		out.CTG = o2.CTG
	}
	if o2.Manometry != "" {
		out.Manometry = o2.Manometry
	}
	if o2.SwallowInterval != "" {
		out.SwallowInterval = o2.SwallowInterval
	}
	if o2.Sensors != nil {
		out.Sensors = o2.Sensors
	}
	if o2.Diagnosis != "" {
		out.Diagnosis = o2.Diagnosis
	}
	if o2.Severity != "" {
		out.Severity = o2.Severity
	}
	if o2.ManeuverInterval != "" {
		out.ManeuverInterval = o2.ManeuverInterval
	}
	return out
}

// Clone returns a deep copy.
func (p Params) Clone() Params {
	out := p
	if p.CPR != nil {
		v := *p.CPR
		out.CPR = &v
	}
	if p.Pacer != nil {
		v := *p.Pacer
		out.Pacer = &v
	}
	if p.Vitals != nil {
		v := *p.Vitals
		out.Vitals = &v
	}
	if p.Exam != nil {
		v := *p.Exam
		out.Exam = &v
	}
	if p.HeartRate != nil {
		v := *p.HeartRate
		out.HeartRate = &v
	}
	if p.Speed != nil {
		v := *p.Speed
		out.Speed = &v
	}
	if p.CTG != nil {
		v := *p.CTG
		out.CTG = &v
	}
	if p.Sensors != nil {
		v := *p.Sensors
		out.Sensors = &v
	}
	if p.Leads != nil {
		out.Leads = append([]string(nil), p.Leads...)
	}
	if p.Channels != nil {
		out.Channels = append([]string(nil), p.Channels...)
	}
	return out
}

// CaseKey identifies the case-defining parameters. A simulator is rebuilt
// when the key changes; rhythm, CPR, pacing and rates are not part of it.
func (p Params) CaseKey() string {
	exam := p.Exam != nil && *p.Exam
	return fmt.Sprintf("%t|%s|%s|%s|%s|%s|%s|%s",
		exam,
		strings.ToLower(p.EKGCategory),
		strings.Join(p.Leads, ","),
		strings.ToUpper(p.BrainState),
		strings.Join(p.Channels, ","),
		strings.ToUpper(p.Manometry),
		strings.ToLower(p.Diagnosis),
		strings.ToLower(p.Severity),
	)
}

// Validate checks every set field against its domain parser.
func (p Params) Validate() error {
	if p.Rhythm != "" {
		if _, err := defib.ParseRhythm(p.Rhythm); err != nil {
			return err
		}
	}
	if p.Pacer != nil && (p.Pacer.Rate < 0 || p.Pacer.Current < 0) {
		return fmt.Errorf("pacer rate and current must be non-negative")
	}
	if p.Vitals != nil {
		v := p.Vitals
		if v.SpO2 < 0 || v.SpO2 > 100 || v.EtCO2 < 0 || v.Sys < 0 || v.Dia < 0 {
			return fmt.Errorf("vitals out of range: %+v", *v)
		}
	}
	if p.EKGCategory != "" {
		if _, err := ekg.ParseCategory(p.EKGCategory); err != nil {
			return err
		}
	}
	if p.HeartRate != nil && *p.HeartRate <= 0 {
		return fmt.Errorf("heart rate must be positive")
	}
	for _, l := range p.Leads {
		if _, err := ekg.ParseLead(l); err != nil {
			return err
		}
	}
	if p.BrainState != "" {
		if _, err := eeg.ParseBrainState(p.BrainState); err != nil {
			return err
		}
	}
	for _, id := range p.Channels {
		if _, ok := eeg.ElectrodeByID(id); !ok {
			return fmt.Errorf("unknown electrode %q", id)
		}
	}
	if p.Speed != nil && *p.Speed < 0 {
		return fmt.Errorf("speed must be non-negative")
	}
	if p.CTG != nil {
		if err := p.CTG.Normalize().Validate(); err != nil {
			return err
		}
	}
	if p.Manometry != "" {
		if _, err := manometry.ParseScenario(p.Manometry); err != nil {
			return err
		}
	}
	for _, d := range []string{p.SwallowInterval, p.ManeuverInterval} {
		if d == "" {
			continue
		}
		if v, unlimited := ParseDuration(d); unlimited || v <= 0 {
			return fmt.Errorf("invalid interval %q", d)
		}
	}
	if p.Sensors != nil && *p.Sensors < 1 {
		return fmt.Errorf("sensors must be at least 1")
	}
	if p.Diagnosis != "" {
		if _, err := spirometry.ParseDiagnosis(p.Diagnosis); err != nil {
			return err
		}
	}
	if p.Severity != "" {
		if _, err := spirometry.ParseSeverity(p.Severity); err != nil {
			return err
		}
	}
	return nil
}
