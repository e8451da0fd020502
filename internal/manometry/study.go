package manometry

// Study is the live state of one manometry recording: the scenario and the
// swallow in progress. Each study owns its own timers.
type Study struct {
	scenario  ScenarioType
	swallowAt int64
	vars      Variability
	relTime   float64
	active    bool
}

// NewStudy starts a resting study.
func NewStudy(s ScenarioType) *Study {
	return &Study{scenario: s, vars: RestingVariability(), relTime: RestingTime}
}

// Scenario returns the simulated scenario.
func (s *Study) Scenario() ScenarioType { return s.scenario }

// SetScenario switches the scenario and cancels any swallow in progress.
func (s *Study) SetScenario(sc ScenarioType) {
	s.scenario = sc
	s.reset()
}

func (s *Study) reset() {
	s.swallowAt = 0
	s.vars = RestingVariability()
	s.relTime = RestingTime
	s.active = false
}

// Swallow triggers a swallow at the given Unix time in milliseconds and
// returns its metrics. It reports false while a swallow is still running.
func (s *Study) Swallow(timestampMs int64) (Metrics, bool) {
	if s.active {
		return Metrics{}, false
	}
	s.swallowAt = timestampMs
	s.vars = VariabilityFor(timestampMs)
	s.relTime = 0
	s.active = true
	return MetricsFor(s.scenario, s.vars), true
}

// Swallowing reports whether a swallow is in progress.
func (s *Study) Swallowing() bool { return s.active }

// SwallowAt returns the trigger timestamp of the current swallow, or 0.
func (s *Study) SwallowAt() int64 { return s.swallowAt }

// Variability returns the variability of the current swallow.
func (s *Study) Variability() Variability { return s.vars }

// RelativeTime returns seconds since the swallow, or RestingTime.
func (s *Study) RelativeTime() float64 { return s.relTime }

// Advance moves the study forward by dt seconds. A swallow ends after
// SwallowWindow and the study returns to rest.
func (s *Study) Advance(dt float64) {
	if !s.active || dt <= 0 {
		return
	}
	s.relTime += dt
	if s.relTime >= SwallowWindow {
		s.reset()
	}
}

// Column samples the current time column at n evenly spaced sensors.
func (s *Study) Column(n int) []float64 {
	return Column(s.scenario, s.relTime, s.vars, n)
}

// Column samples the field at n sensors, sensor i sitting at
// i/n·ProbeLength cm.
func Column(sc ScenarioType, t float64, v Variability, n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	for i := range out {
		depth := float64(i) / float64(n) * ProbeLength
		out[i] = PressureAt(sc, depth, t, v)
	}
	return out
}

// Smooth applies the [1 2 3 2 1]/9 vertical blur used for display, clamping
// at the column ends.
func Smooth(col []float64) []float64 {
	n := len(col)
	out := make([]float64, n)
	at := func(i int) float64 {
		if i < 0 {
			i = 0
		}
		if i > n-1 {
			i = n - 1
		}
		return col[i]
	}
	for i := range col {
		out[i] = (at(i-2) + 2*at(i-1) + 3*col[i] + 2*at(i+1) + at(i+2)) / 9
	}
	return out
}
