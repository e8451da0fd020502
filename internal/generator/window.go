package generator

import (
	"sort"

	"github.com/synheart/physiosim/internal/models"
)

// Window collects the most recent numeric samples of each signal. Column
// samples are reduced to their peak.
type Window struct {
	size   int
	series map[string][]float64
}

func NewWindow(size int) *Window {
	if size <= 0 {
		size = 1
	}
	return &Window{
		size:   size,
		series: make(map[string][]float64),
	}
}

// Add records the numeric value of an event. Text samples are ignored.
func (w *Window) Add(event models.Event) {
	values := event.Signal.Floats()
	if len(values) == 0 {
		return
	}
	v := values[0]
	for _, x := range values[1:] {
		if x > v {
			v = x
		}
	}

	s := append(w.series[event.Signal.Name], v)
	if len(s) > w.size {
		s = s[len(s)-w.size:]
	}
	w.series[event.Signal.Name] = s
}

// Series returns a copy of the samples of a signal, oldest first.
func (w *Window) Series(name string) []float64 {
	return append([]float64(nil), w.series[name]...)
}

// Names returns the recorded signal names, sorted.
func (w *Window) Names() []string {
	names := make([]string, 0, len(w.series))
	for name := range w.series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
