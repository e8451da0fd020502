package transport

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/synheart/physiosim/internal/metrics"
	"github.com/synheart/physiosim/internal/models"
)

// subscriber is one fan-out target with its signal selection.
type subscriber struct {
	ch      chan models.Event
	signals []string
}

// wants reports whether the subscriber selected the signal. A selection
// entry matches the signal name itself or its group, so "ekg" selects
// "ekg.II" and "ekg.V1".
func (s *subscriber) wants(name string) bool {
	if len(s.signals) == 0 {
		return true
	}
	for _, sel := range s.signals {
		if name == sel || strings.HasPrefix(name, sel+".") {
			return true
		}
	}
	return false
}

// Dispatcher fans the generator's events out to subscribers. A subscriber
// with a full buffer loses the event instead of stalling the simulated
// clock; losses are counted per signal.
type Dispatcher struct {
	source      <-chan models.Event
	subscribers []*subscriber
	bufferSize  int
	metrics     *metrics.Metrics
	mu          sync.Mutex

	droppedTotal int64
	droppedMu    sync.Mutex
	dropped      map[string]int64
}

func NewDispatcher(source <-chan models.Event, bufferSize int) *Dispatcher {
	return &Dispatcher{
		source:     source,
		bufferSize: bufferSize,
		dropped:    make(map[string]int64),
	}
}

// SetMetrics exports the dropped counter to Prometheus.
func (d *Dispatcher) SetMetrics(m *metrics.Metrics) {
	d.metrics = m
}

// Subscribe returns a buffered channel receiving the events of the selected
// signals, or of every signal when none are given. Subscribe before Run.
func (d *Dispatcher) Subscribe(signals ...string) <-chan models.Event {
	sub := &subscriber{
		ch:      make(chan models.Event, d.bufferSize),
		signals: signals,
	}
	d.mu.Lock()
	d.subscribers = append(d.subscribers, sub)
	d.mu.Unlock()
	return sub.ch
}

// GetSubscriberCount returns the current number of subscribers.
func (d *Dispatcher) GetSubscriberCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subscribers)
}

// GetDroppedCount returns the number of deliveries lost to full buffers.
func (d *Dispatcher) GetDroppedCount() int64 {
	return atomic.LoadInt64(&d.droppedTotal)
}

// DroppedBySignal returns the lost deliveries per signal name.
func (d *Dispatcher) DroppedBySignal() map[string]int64 {
	d.droppedMu.Lock()
	defer d.droppedMu.Unlock()
	out := make(map[string]int64, len(d.dropped))
	for name, n := range d.dropped {
		out[name] = n
	}
	return out
}

// Run blocks until ctx is cancelled or source closes
func (d *Dispatcher) Run(ctx context.Context) {
	defer d.closeSubscribers()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-d.source:
			if !ok {
				return
			}
			d.dispatch(ctx, event)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, event models.Event) {
	d.mu.Lock()
	subs := d.subscribers
	d.mu.Unlock()

	name := event.Signal.Name
	dropped := 0
	for _, sub := range subs {
		if !sub.wants(name) {
			continue
		}
		select {
		case sub.ch <- event:
		case <-ctx.Done():
			return
		default:
			dropped++
		}
	}
	if dropped == 0 {
		return
	}

	atomic.AddInt64(&d.droppedTotal, int64(dropped))
	d.droppedMu.Lock()
	d.dropped[name] += int64(dropped)
	d.droppedMu.Unlock()

	d.metrics.AddDropped(dropped)
	slog.Warn("dispatcher dropped event", "event_id", event.EventID, "signal", name, "dropped", dropped)
}

func (d *Dispatcher) closeSubscribers() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, sub := range d.subscribers {
		close(sub.ch)
	}
}

// SortedSignals returns the keys of a per-signal count, sorted.
func SortedSignals(counts map[string]int64) []string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
