// Package spirometry generates spirometry cases: predicted reference values,
// measured values consistent with a diagnosis, and flow-volume and
// volume-time curves.
package spirometry

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownDiagnosis is returned when a diagnosis name cannot be parsed.
	ErrUnknownDiagnosis = errors.New("unknown spirometry diagnosis")
	// ErrUnknownSeverity is returned when a severity name cannot be parsed.
	ErrUnknownSeverity = errors.New("unknown spirometry severity")
)

// Diagnosis is the ventilatory pattern.
type Diagnosis string

const (
	Normal      Diagnosis = "Normal"
	Obstructive Diagnosis = "Obstruction"
	Restrictive Diagnosis = "Restriction"
	Mixed       Diagnosis = "Mixed Defect"
)

// Diagnoses lists every diagnosis.
var Diagnoses = []Diagnosis{Normal, Obstructive, Restrictive, Mixed}

// ParseDiagnosis accepts the display names as well as "obstructive",
// "restrictive" and "mixed", case-insensitively.
func ParseDiagnosis(s string) (Diagnosis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal":
		return Normal, nil
	case "obstruction", "obstructive":
		return Obstructive, nil
	case "restriction", "restrictive":
		return Restrictive, nil
	case "mixed", "mixed defect", "mixed_defect":
		return Mixed, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDiagnosis, s)
}

// Severity grades an abnormal diagnosis.
type Severity string

const (
	SeverityNormal   Severity = "Normal"
	SeverityMild     Severity = "Mild"
	SeverityModerate Severity = "Moderate"
	SeveritySevere   Severity = "Severe"
)

// ParseSeverity parses a severity name case-insensitively.
func ParseSeverity(s string) (Severity, error) {
	for _, known := range []Severity{SeverityNormal, SeverityMild, SeverityModerate, SeveritySevere} {
		if strings.EqualFold(strings.TrimSpace(s), string(known)) {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSeverity, s)
}

// factor is the fraction of predicted that remains at a severity.
func (s Severity) factor() float64 {
	switch s {
	case SeverityModerate:
		return 0.55
	case SeveritySevere:
		return 0.35
	}
	return 0.75
}

// Sex selects the prediction equations.
type Sex string

const (
	Male   Sex = "Male"
	Female Sex = "Female"
)

// Demographics describes the patient. Height is in cm.
type Demographics struct {
	Age       int    `json:"age"`
	Sex       Sex    `json:"sex"`
	Height    int    `json:"height"`
	Ethnicity string `json:"ethnicity"`
}

// Reference holds predicted values and lower limits of normal. Volumes are
// in litres and flows in L/s.
type Reference struct {
	FVCPred  float64 `json:"fvc_pred"`
	FEV1Pred float64 `json:"fev1_pred"`
	PEFPred  float64 `json:"pef_pred"`
	RatioLLN float64 `json:"ratio_lln"`
	FVCLLN   float64 `json:"fvc_lln"`
}

// Predicted computes reference values from simplified GLI-style linear
// equations.
func Predicted(d Demographics) Reference {
	h := float64(d.Height) / 100
	age := float64(d.Age)

	var fvc, fev1, pef float64
	if d.Sex == Male {
		fvc = 5.76*h - 0.026*age - 4.34
		fev1 = 4.3*h - 0.029*age - 2.49
		pef = 6.14*h - 0.043*age + 1.5
	} else {
		fvc = 4.43*h - 0.026*age - 2.89
		fev1 = 3.95*h - 0.025*age - 2.6
		pef = 5.5*h - 0.03*age + 1.1
	}

	ref := Reference{
		FVCPred:  max(1.5, fvc),
		FEV1Pred: max(1.0, fev1),
		PEFPred:  max(3.0, pef),
		RatioLLN: 0.70,
	}
	if d.Age > 60 {
		ref.RatioLLN = 0.65
	}
	ref.FVCLLN = ref.FVCPred * 0.8
	return ref
}

// Values are measured results.
type Values struct {
	FVC   float64 `json:"fvc"`
	FEV1  float64 `json:"fev1"`
	Ratio float64 `json:"ratio"`
	PEF   float64 `json:"pef"`
}

// Classify interprets measured values against their reference.
func Classify(v Values, ref Reference) Diagnosis {
	obstructed := v.Ratio < ref.RatioLLN
	restricted := v.FVC < ref.FVCLLN
	switch {
	case obstructed && restricted:
		return Mixed
	case obstructed:
		return Obstructive
	case restricted:
		return Restrictive
	}
	return Normal
}

// PercentPredicted returns actual as a rounded percentage of predicted.
func PercentPredicted(actual, pred float64) int {
	if pred == 0 {
		return 0
	}
	return int(actual/pred*100 + 0.5)
}
