package manometry

import "math/rand"

// Quiz hides the scenario of a study and scores guesses.
type Quiz struct {
	rng     *rand.Rand
	current ScenarioType
	Score   int `json:"score"`
	Total   int `json:"total"`
}

// NewQuiz creates a quiz drawing scenarios from rng.
func NewQuiz(rng *rand.Rand) *Quiz {
	return &Quiz{rng: rng}
}

// Next draws a hidden scenario.
func (q *Quiz) Next() ScenarioType {
	q.current = Scenarios[q.rng.Intn(len(Scenarios))]
	return q.current
}

// Current returns the hidden scenario.
func (q *Quiz) Current() ScenarioType { return q.current }

// Answer scores a guess against the hidden scenario.
func (q *Quiz) Answer(guess ScenarioType) bool {
	correct := guess == q.current
	q.Total++
	if correct {
		q.Score++
	}
	return correct
}
