package ctg

// BaselineState is the FIGO baseline band.
type BaselineState string

const (
	Bradycardia BaselineState = "bradycardia"
	NormalRate  BaselineState = "normal"
	Tachycardia BaselineState = "tachycardia"
)

// Classification is the overall FIGO class of a trace.
type Classification string

const (
	Normal       Classification = "Normal"
	Suspicious   Classification = "Suspicious"
	Pathological Classification = "Pathological"
)

// FIGO thresholds in bpm.
const (
	BradycardiaBelow       = 110.0
	TachycardiaAbove       = 160.0
	SevereBradycardiaBelow = 100.0
)

// Diagnosis is a structured reading of a trace.
type Diagnosis struct {
	BaselineState     BaselineState  `json:"baseline_state" yaml:"baseline_state"`
	VariabilityState  Variability    `json:"variability_state" yaml:"variability_state"`
	DecelerationState Deceleration   `json:"deceleration_state" yaml:"deceleration_state"`
	Classification    Classification `json:"classification" yaml:"classification"`
}

// ClassifyBaseline maps a baseline rate to its band.
func ClassifyBaseline(bpm float64) BaselineState {
	switch {
	case bpm < BradycardiaBelow:
		return Bradycardia
	case bpm > TachycardiaAbove:
		return Tachycardia
	}
	return NormalRate
}

// Classify reads the parameters that produced a trace.
//
// Pathological: baseline below 100, reduced or sinusoidal variability, or
// late or prolonged decelerations. Suspicious: any other departure from a
// normal baseline, saltatory variability, or variable decelerations.
// Early decelerations alone keep a trace Normal.
func Classify(p Params) Diagnosis {
	d := Diagnosis{
		BaselineState:     ClassifyBaseline(p.Baseline),
		VariabilityState:  p.Variability,
		DecelerationState: p.Decelerations,
		Classification:    Normal,
	}

	switch {
	case p.Baseline < SevereBradycardiaBelow,
		p.Variability == VariabilityAbsent,
		p.Variability == VariabilityMinimal,
		p.Variability == VariabilitySinusoidal,
		p.Decelerations == DecelLate,
		p.Decelerations == DecelProlonged:
		d.Classification = Pathological
	case d.BaselineState != NormalRate,
		p.Variability == VariabilitySaltatory,
		p.Decelerations == DecelVariable:
		d.Classification = Suspicious
	}
	return d
}

// Score compares an answer with the expected diagnosis and returns how many
// of the four fields match.
func Score(answer, expected Diagnosis) int {
	n := 0
	if answer.BaselineState == expected.BaselineState {
		n++
	}
	if answer.VariabilityState == expected.VariabilityState {
		n++
	}
	if answer.DecelerationState == expected.DecelerationState {
		n++
	}
	if answer.Classification == expected.Classification {
		n++
	}
	return n
}
