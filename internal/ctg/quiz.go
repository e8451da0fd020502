package ctg

import (
	"fmt"
	"math/rand"
)

// Scenario is one quiz case. Name is hidden while the trace is read.
type Scenario struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Params      Params    `json:"params"`
	Answer      Diagnosis `json:"answer"`
	Explanation string    `json:"explanation"`
	Management  string    `json:"management"`
}

func params(baseline float64, v Variability, d Deceleration, c Contractions, noise float64) Params {
	return Params{Baseline: baseline, Variability: v, Decelerations: d, Contractions: c, NoiseLevel: noise}
}

func dx(b BaselineState, v Variability, d Deceleration, c Classification) Diagnosis {
	return Diagnosis{BaselineState: b, VariabilityState: v, DecelerationState: d, Classification: c}
}

var caseBank = []Scenario{
	{
		Name:        "Uncomplicated Primigravida",
		Description: "Primigravida, 39 weeks. 5cm dilated. Clear liquor. Epidural functioning well.",
		Params:      params(135, VariabilityNormal, DecelNone, ContractionsNormal, 1),
		Answer:      dx(NormalRate, VariabilityNormal, DecelNone, Normal),
		Explanation: "A textbook normal trace. Baseline 110-160, Normal Variability (5-25), no decelerations.",
		Management:  "Continue routine monitoring.",
	},
	{
		Name:        "Active Second Stage",
		Description: "Full dilatation, pushing for 30 mins. Vertex visible.",
		Params:      params(125, VariabilityNormal, DecelEarly, ContractionsNormal, 1),
		Answer:      dx(NormalRate, VariabilityNormal, DecelEarly, Normal),
		Explanation: "Early decelerations are benign and mirror contractions (head compression). The trace remains Normal.",
		Management:  "Continue pushing. Monitor progress.",
	},
	{
		Name:        "Sleep Cycle",
		Description: "Low risk multipara, 38 weeks. 4cm dilated. Fetus has been quiet for 20 mins.",
		Params:      params(140, VariabilityNormal, DecelNone, ContractionsNormal, 1),
		Answer:      dx(NormalRate, VariabilityNormal, DecelNone, Normal),
		Explanation: "Normal trace. Parameters meet normal criteria. Sleep cycles usually last <40 mins.",
		Management:  "Routine care.",
	},
	{
		Name:        "Uncomplicated Tachycardia",
		Description: "G2P1, 40 weeks. Maternal pulse 110. Maternal Temp 37.8°C.",
		Params:      params(170, VariabilityNormal, DecelNone, ContractionsNormal, 1),
		Answer:      dx(Tachycardia, VariabilityNormal, DecelNone, Suspicious),
		Explanation: "Baseline > 160 bpm makes this Suspicious. Likely secondary to maternal pyrexia/infection.",
		Management:  "Treat maternal pyrexia (Paracetamol, fluids), check infection markers. Monitor closely.",
	},
	{
		Name:        "Variable Decelerations",
		Description: "Spontaneous labour, 6cm dilated. Membranes ruptured spontaneously 1 hour ago.",
		Params:      params(145, VariabilityNormal, DecelVariable, ContractionsNormal, 1),
		Answer:      dx(NormalRate, VariabilityNormal, DecelVariable, Suspicious),
		Explanation: "Repetitive variable decelerations (cord compression) make the trace Suspicious.",
		Management:  "Change maternal position to relieve cord compression. Consider vaginal exam to exclude cord prolapse.",
	},
	{
		Name:        "Rapid Descent / Tachysystole",
		Description: "Multiparous, 9cm dilated. Progressing rapidly. Uterus contracting frequently.",
		Params:      params(140, VariabilityNormal, DecelVariable, ContractionsTachysystole, 1),
		Answer:      dx(NormalRate, VariabilityNormal, DecelVariable, Suspicious),
		Explanation: "Variable decelerations with tachysystole. The frequent contractions may be causing transient cord compression.",
		Management:  "Lateral position. Consider tocolysis if fetal heart rate worsens.",
	},
	{
		Name:        "Overshoot / Saltatory",
		Description: "Active labour. Fetus appears very active.",
		Params:      params(150, VariabilitySaltatory, DecelNone, ContractionsNormal, 1),
		Answer:      dx(NormalRate, VariabilitySaltatory, DecelNone, Suspicious),
		Explanation: "Excessive variability (>25 bpm) is classified as Saltatory. If prolonged >30 mins, it is suspicious/abnormal.",
		Management:  "Conservative measures. Ensure not recording maternal pulse.",
	},
	{
		Name:        "Epidural Hypotension",
		Description: "15 mins post-epidural insertion. Maternal BP 90/50. Feeling nauseous.",
		Params:      params(100, VariabilityMinimal, DecelLate, ContractionsNormal, 1),
		Answer:      dx(Bradycardia, VariabilityMinimal, DecelLate, Pathological),
		Explanation: "Bradycardia and Late Decelerations following epidural suggest hypotension causing placental hypoperfusion.",
		Management:  "IV Fluids, Ephedrine, Left Lateral Tilt immediately.",
	},
	{
		Name:        "Uteroplacental Insufficiency",
		Description: "41+3 weeks. Induction for post-dates. Meconium stained liquor grade 2.",
		Params:      params(150, VariabilityMinimal, DecelLate, ContractionsNormal, 1),
		Answer:      dx(NormalRate, VariabilityMinimal, DecelLate, Pathological),
		Explanation: "Late decelerations + Reduced variability = High probability of hypoxia (Pathological).",
		Management:  "Stop oxytocin. Acute tocolysis. Fetal Blood Sampling (if feasible) or expedited delivery.",
	},
	{
		Name:        "Cord Prolapse / Compression",
		Description: "Artificial rupture of membranes performed 5 mins ago. Large gush of fluid.",
		Params:      params(110, VariabilityNormal, DecelProlonged, ContractionsNormal, 1),
		Answer:      dx(NormalRate, VariabilityNormal, DecelProlonged, Pathological),
		Explanation: "Prolonged deceleration (>3 mins). Context suggests acute cord compression or prolapse.",
		Management:  "Vaginal exam immediately to rule out cord prolapse. Change position. Emergency delivery if not resolved.",
	},
	{
		Name:        "Chorioamnionitis Pattern",
		Description: "Maternal temp 38.9°C. Foul smelling liquor. Tender uterus.",
		Params:      params(180, VariabilityMinimal, DecelNone, ContractionsTachysystole, 1),
		Answer:      dx(Tachycardia, VariabilityMinimal, DecelNone, Pathological),
		Explanation: "Tachycardia + Reduced Variability is a Pathological combination, often seen in sepsis.",
		Management:  "Antibiotics, IV fluids, antipyretics. Expedite delivery.",
	},
	{
		Name:        "Severe Anemia",
		Description: "34 weeks. Reduced fetal movements. History of Fetomaternal Hemorrhage.",
		Params:      params(140, VariabilitySinusoidal, DecelNone, ContractionsNone, 0),
		Answer:      dx(NormalRate, VariabilitySinusoidal, DecelNone, Pathological),
		Explanation: "Sinusoidal pattern indicates severe anemia or acute hypoxia.",
		Management:  "Immediate delivery (Category 1 Section).",
	},
	{
		Name:        "Terminal Bradycardia",
		Description: "Post-Epidural top-up. BP 80/40.",
		Params:      params(90, VariabilityMinimal, DecelLate, ContractionsNormal, 1),
		Answer:      dx(Bradycardia, VariabilityMinimal, DecelLate, Pathological),
		Explanation: "Baseline < 100 bpm is abnormal. Combined with minimal variability, this is pre-terminal.",
		Management:  "Correct hypotension (Ephedrine/Fluids). Turn patient. If no recovery, immediate delivery.",
	},
	{
		Name:        "Hyperstimulation",
		Description: `Induction with Prostaglandins. Uterus feels "tight" constantly.`,
		Params:      params(160, VariabilityNormal, DecelLate, ContractionsTachysystole, 1),
		Answer:      dx(NormalRate, VariabilityNormal, DecelLate, Pathological),
		Explanation: "Tachysystole (>5 contractions/10min) causing Late Decelerations.",
		Management:  "Remove prostaglandins / Stop Oxytocin. Tocolysis (Terbutaline).",
	},
}

var presets = []Scenario{
	{
		ID:          "1",
		Name:        "Tutorial: Normal",
		Description: "A standard low-risk trace to practice identifying normal baselines.",
		Params:      params(140, VariabilityNormal, DecelNone, ContractionsNormal, 1),
		Answer:      dx(NormalRate, VariabilityNormal, DecelNone, Normal),
		Explanation: "Baseline 110-160, Normal Variability, No Decels.",
		Management:  "Routine Care.",
	},
	{
		ID:          "2",
		Name:        "Tutorial: Pathological",
		Description: "A classic example of hypoxic stress.",
		Params:      params(155, VariabilityMinimal, DecelLate, ContractionsNormal, 1),
		Answer:      dx(NormalRate, VariabilityMinimal, DecelLate, Pathological),
		Explanation: "Late decels + reduced variability.",
		Management:  "Expedite Delivery.",
	},
}

// CaseBank returns a copy of the quiz case bank.
func CaseBank() []Scenario {
	out := make([]Scenario, len(caseBank))
	copy(out, caseBank)
	return out
}

// Presets returns the tutorial scenarios.
func Presets() []Scenario {
	out := make([]Scenario, len(presets))
	copy(out, presets)
	return out
}

// RandomScenario draws a case from the bank and gives it a unique ID.
func RandomScenario(rng *rand.Rand) Scenario {
	i := rng.Intn(len(caseBank))
	s := caseBank[i]
	s.ID = fmt.Sprintf("case-%08x-%d", rng.Uint32(), i)
	return s
}
