package defib

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
)

// Scoring.
const (
	CorrectPoints = 10
	WrongPenalty  = 15
	RoscThreshold = 100
)

// ArrestCase is one randomly generated cardiac arrest scenario.
type ArrestCase struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Rhythm      Rhythm `json:"rhythm"`
	Age         int    `json:"age"`
	Sex         string `json:"sex"`
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
	Shockable   bool   `json:"shockable"`
}

var (
	arrestRhythms = []Rhythm{VFib, VTach, PEA, Asystole}
	arrestAges    = []int{45, 52, 67, 74, 81, 58}
	arrestSexes   = []string{"Male", "Female"}
	arrestContext = []string{
		"found collapsed at a grocery store.",
		"found unresponsive in bed by family.",
		"collapsed while playing tennis.",
		"found down in the bathroom.",
		"arrested in the dialysis clinic.",
	}
)

// GenerateArrestCase draws a random arrest case from rng.
func GenerateArrestCase(rng *rand.Rand) ArrestCase {
	rhythm := arrestRhythms[rng.Intn(len(arrestRhythms))]
	age := arrestAges[rng.Intn(len(arrestAges))]
	sex := arrestSexes[rng.Intn(len(arrestSexes))]
	ctx := arrestContext[rng.Intn(len(arrestContext))]

	prompt := "Patient is apneic and pulseless. Start ACLS."
	if rhythm == PEA {
		prompt = "Monitor shows rhythm, but NO PULSE is palpable. What is this?"
	}

	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		id = uuid.New()
	}

	return ArrestCase{
		ID:          id.String(),
		Title:       fmt.Sprintf("Case #%d: Cardiac Arrest", rng.Intn(900)+100),
		Rhythm:      rhythm,
		Age:         age,
		Sex:         sex,
		Description: fmt.Sprintf("%dyo %s %s Bystander CPR in progress. No medical history available.", age, sex, ctx),
		Prompt:      prompt,
		Shockable:   rhythm.Shockable(),
	}
}

// ActionLog is one scored intervention.
type ActionLog struct {
	At       float64 `json:"at"`
	Action   string  `json:"action"`
	Correct  bool    `json:"correct"`
	Feedback string  `json:"feedback"`
}

// Exam tracks scoring across a run of arrest cases.
type Exam struct {
	CaseNumber   int         `json:"case_number"`
	Score        int         `json:"score"`
	RoscProgress float64     `json:"rosc_progress"`
	Logs         []ActionLog `json:"logs"`
	Case         *ArrestCase `json:"case,omitempty"`
}

// Record scores one action and moves ROSC progress, which never drops below zero.
func (e *Exam) Record(at float64, action string, correct bool, feedback string, rosc float64) {
	if correct {
		e.Score += CorrectPoints
	} else {
		e.Score -= WrongPenalty
		if e.Score < 0 {
			e.Score = 0
		}
	}
	e.RoscProgress += rosc
	if e.RoscProgress < 0 {
		e.RoscProgress = 0
	}
	e.Logs = append(e.Logs, ActionLog{At: at, Action: action, Correct: correct, Feedback: feedback})
}

// Rosc reports whether enough correct care has been given to restore circulation.
func (e *Exam) Rosc() bool {
	return e.RoscProgress >= RoscThreshold
}
