package spirometry

import (
	"fmt"
	"math/rand"
	"strconv"
)

// Case is a generated patient with measured values and curves.
type Case struct {
	ID           string       `json:"id"`
	Demographics Demographics `json:"demographics"`
	Diagnosis    Diagnosis    `json:"diagnosis"`
	Severity     Severity     `json:"severity"`
	Actual       Values       `json:"actual"`
	Predicted    Reference    `json:"predicted"`
	Loops        Loops        `json:"loops"`
	Description  string       `json:"description"`
}

// Loops holds the patient's curves and a reference loop drawn from the
// predicted values with a normal shape.
type Loops struct {
	FlowVolume          []Point `json:"flow_volume"`
	VolumeTime          []Point `json:"volume_time"`
	PredictedFlowVolume []Point `json:"predicted_flow_volume"`
}

const (
	idSpan  = 101559956668416 // 36^9
	idFloor = 2821109907456   // 36^8
)

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// GenerateCase draws a patient and builds a case. An empty diagnosis is
// drawn at random; abnormal diagnoses get a random severity.
func GenerateCase(d Diagnosis, rng *rand.Rand) (Case, error) {
	return generate(d, "", rng)
}

// GenerateCaseWithSeverity is GenerateCase with a fixed severity. Severity
// is ignored for a normal diagnosis.
func GenerateCaseWithSeverity(d Diagnosis, s Severity, rng *rand.Rand) (Case, error) {
	return generate(d, s, rng)
}

func generate(d Diagnosis, forced Severity, rng *rand.Rand) (Case, error) {
	if d != "" {
		if _, err := ParseDiagnosis(string(d)); err != nil {
			return Case{}, err
		}
	}
	if forced != "" {
		if _, err := ParseSeverity(string(forced)); err != nil {
			return Case{}, err
		}
	}

	demo := Demographics{Age: rng.Intn(50) + 25, Ethnicity: "Caucasian"}
	if rng.Float64() > 0.5 {
		demo.Sex = Male
		demo.Height = rng.Intn(25) + 165
	} else {
		demo.Sex = Female
		demo.Height = rng.Intn(25) + 150
	}
	ref := Predicted(demo)

	if d == "" {
		d = Diagnoses[rng.Intn(len(Diagnoses))]
	}

	sev := SeverityNormal
	if d != Normal {
		switch {
		case forced != "" && forced != SeverityNormal:
			sev = forced
		default:
			r := rng.Float64()
			switch {
			case r < 0.33:
				sev = SeverityMild
			case r < 0.66:
				sev = SeverityModerate
			default:
				sev = SeveritySevere
			}
		}
	}

	actual := measure(d, sev, ref, rng)
	curves := GenerateCurves(actual.FVC, actual.PEF, d)
	predCurves := GenerateCurves(ref.FVCPred, ref.PEFPred, Normal)

	return Case{
		ID:           strconv.FormatInt(rng.Int63n(idSpan-idFloor)+idFloor, 36),
		Demographics: demo,
		Diagnosis:    d,
		Severity:     sev,
		Actual:       actual,
		Predicted:    ref,
		Loops: Loops{
			FlowVolume:          curves.FlowVolume,
			VolumeTime:          curves.VolumeTime,
			PredictedFlowVolume: predCurves.FlowVolume,
		},
		Description: fmt.Sprintf("Generated case of %s %s.", sev, d),
	}, nil
}

// measure scales the predicted values by the disease modifiers and then
// corrects them so the case always classifies as its diagnosis.
func measure(d Diagnosis, sev Severity, ref Reference, rng *rand.Rand) Values {
	var fvc, fev1, pef float64
	switch d {
	case Obstructive:
		fvc = ref.FVCPred * uniform(rng, 0.85, 1.1)
		f := sev.factor()
		fev1 = ref.FEV1Pred * f
		pef = ref.PEFPred * f
	case Restrictive:
		f := sev.factor()
		fvc = ref.FVCPred * f
		fev1 = ref.FEV1Pred * f
		pef = ref.PEFPred * f
	case Mixed:
		fvc = ref.FVCPred * 0.6
		fev1 = ref.FEV1Pred * 0.4
		pef = ref.PEFPred * 0.5
	default:
		fvc = ref.FVCPred * uniform(rng, 0.9, 1.1)
		fev1 = ref.FEV1Pred * uniform(rng, 0.9, 1.1)
		pef = ref.PEFPred * uniform(rng, 0.9, 1.1)
	}

	ratio := fev1 / fvc
	switch d {
	case Obstructive, Mixed:
		if ratio >= ref.RatioLLN {
			fev1 = fvc * (ref.RatioLLN - 0.10)
		}
		if d == Mixed && fvc >= ref.FVCLLN {
			fvc = ref.FVCLLN - 0.5
			fev1 = fvc * (ref.RatioLLN - 0.10)
		}
	case Restrictive:
		if fvc >= ref.FVCLLN {
			fvc = ref.FVCLLN - 0.5
			fev1 = fvc * 0.85
		}
		if fev1/fvc < ref.RatioLLN {
			fev1 = fvc * 0.85
		}
	default:
		if ratio < ref.RatioLLN {
			fev1 = fvc * (ref.RatioLLN + 0.05)
		}
	}

	return Values{FVC: fvc, FEV1: fev1, Ratio: fev1 / fvc, PEF: pef}
}

// Feedback explains a quiz answer.
func Feedback(c Case, guess Diagnosis) (bool, string) {
	if guess == c.Diagnosis {
		return true, "Correct! The loop shape and values match the criteria."
	}
	msg := fmt.Sprintf("Incorrect. Look at the FEV1/FVC ratio (%.2f). ", c.Actual.Ratio)
	switch c.Diagnosis {
	case Obstructive:
		msg += "The scooped expiratory limb and low ratio indicate Obstruction."
	case Restrictive:
		msg += "The preserved ratio but low volumes indicate Restriction."
	case Mixed:
		msg += "Both a low ratio and low volumes indicate a Mixed Defect."
	case Normal:
		msg += "Values are within normal limits (above LLN)."
	}
	return false, msg
}

// Quiz tracks a run of spirometry questions.
type Quiz struct {
	rng     *rand.Rand
	current *Case
	Streak  int `json:"streak"`
}

// NewQuiz creates a quiz drawing cases from rng.
func NewQuiz(rng *rand.Rand) *Quiz {
	return &Quiz{rng: rng}
}

// Next generates the next hidden case.
func (q *Quiz) Next() (Case, error) {
	c, err := GenerateCase("", q.rng)
	if err != nil {
		return Case{}, err
	}
	q.current = &c
	return c, nil
}

// Answer scores a guess. The streak resets on a wrong answer.
func (q *Quiz) Answer(guess Diagnosis) (bool, string) {
	if q.current == nil {
		return false, "No case loaded."
	}
	ok, msg := Feedback(*q.current, guess)
	if ok {
		q.Streak++
	} else {
		q.Streak = 0
	}
	return ok, msg
}
