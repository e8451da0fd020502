package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/synheart/physiosim/internal/metrics"
	"github.com/synheart/physiosim/internal/models"
	"github.com/synheart/physiosim/internal/scenario"
)

// ErrQueueFull is returned by Apply when the command queue is full.
var ErrQueueFull = errors.New("command queue full")

const (
	defaultQueueSize = 64
	defaultTick      = 20 * time.Millisecond
	// idSeedSalt separates the ID stream from the simulation stream.
	idSeedSalt = 0x5eed1d
)

// Transformer maps a scalar sample value. It is applied to every numeric
// sample before the event is built.
type Transformer interface {
	Transform(ctx context.Context, v float64) (float64, error)
}

// Generator drives one modality simulator on the scenario's simulated clock
// and turns its samples into events.
type Generator struct {
	engine      *scenario.Engine
	sim         Simulator
	tick        time.Duration
	runID       string
	seed        int64
	source      models.Source
	sequence    int64
	caseKey     string
	commands    chan models.Command
	ids         *rand.Rand
	transformer Transformer
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// Config holds generator configuration
type Config struct {
	Seed     int64
	SourceID string
	// Tick overrides the scenario rate. Zero uses the scenario rate.
	Tick        time.Duration
	QueueSize   int
	Transformer Transformer
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// NewGenerator creates a new event generator
func NewGenerator(engine *scenario.Engine, config Config) (*Generator, error) {
	sc := engine.GetScenario()
	rng := rand.New(rand.NewSource(config.Seed))

	sim, err := NewSimulator(sc.Modality, rng)
	if err != nil {
		return nil, err
	}

	tick := config.Tick
	if tick <= 0 {
		tick = defaultTick
		if sc.Rate != "" {
			if tick, err = scenario.ParseRate(sc.Rate); err != nil {
				return nil, err
			}
		}
	}

	queueSize := config.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	sourceID := config.SourceID
	if sourceID == "" {
		sourceID = string(sc.Modality) + "-sim-01"
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ids := rand.New(rand.NewSource(config.Seed ^ idSeedSalt))
	runID, err := uuid.NewRandomFromReader(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to create run id: %w", err)
	}

	return &Generator{
		engine:      engine,
		sim:         sim,
		tick:        tick,
		runID:       runID.String(),
		seed:        config.Seed,
		source:      models.Source{Type: string(sc.Modality), ID: sourceID},
		commands:    make(chan models.Command, queueSize),
		ids:         ids,
		transformer: config.Transformer,
		metrics:     config.Metrics,
		logger:      logger.With("scenario", sc.Name, "modality", string(sc.Modality)),
	}, nil
}

// Generate produces one tick of events per ticker fire until the scenario
// completes or ctx is cancelled. Each tick advances simulated time by the
// tick period, independent of wall-clock jitter.
func (g *Generator) Generate(ctx context.Context, ticker *time.Ticker, output chan<- models.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if g.engine.IsComplete() {
				return nil
			}

			for _, event := range g.Tick(ctx) {
				select {
				case output <- event:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}

// Tick advances the session by one tick and returns its events. It must be
// called from a single goroutine.
func (g *Generator) Tick(ctx context.Context) []models.Event {
	start := time.Now()

	params := g.engine.GetParams()
	phase := ""
	if p := g.engine.GetCurrentPhase(); p != nil {
		phase = p.Name
	}

	if key := params.CaseKey(); key != g.caseKey {
		if g.caseKey != "" {
			g.sim.Reset()
			g.metrics.ObserveCaseReset()
			g.logger.Info("case parameters changed, simulator reset", "phase", phase)
		}
		g.caseKey = key
	}

	t := g.engine.GetElapsed().Seconds()
	signals := g.sim.Step(params, t, g.tick.Seconds())
	g.engine.Advance(g.tick)

	// Commands take effect from the next tick.
	g.drainCommands()

	events := make([]models.Event, 0, len(signals))
	for _, signal := range signals {
		signal = g.transform(ctx, signal)
		events = append(events, g.createEvent(signal, t, phase))
		g.metrics.ObserveSample(g.source.Type, signal.Name)
	}

	g.metrics.ObserveTick(time.Since(start), g.engine.GetElapsed().Seconds())
	return events
}

// Apply queues a discrete command for the generator goroutine.
func (g *Generator) Apply(cmd models.Command) error {
	select {
	case g.commands <- cmd:
		return nil
	default:
		g.metrics.ObserveCommand(string(cmd.Type), "rejected")
		return ErrQueueFull
	}
}

func (g *Generator) drainCommands() {
	for {
		select {
		case cmd := <-g.commands:
			g.applyCommand(cmd)
		default:
			return
		}
	}
}

func (g *Generator) applyCommand(cmd models.Command) {
	var err error
	if cmd.Type == models.CmdReset {
		g.sim.Reset()
		g.metrics.ObserveCaseReset()
	} else {
		err = g.sim.Apply(cmd)
	}

	if err != nil {
		g.metrics.ObserveCommand(string(cmd.Type), "failed")
		g.logger.Warn("command failed", "command_id", cmd.ID, "type", string(cmd.Type), "error", err)
		return
	}
	g.metrics.ObserveCommand(string(cmd.Type), "applied")
	g.logger.Debug("command applied", "command_id", cmd.ID, "type", string(cmd.Type))
}

// transform runs numeric values through the transformer, keeping the
// original value when the transform fails.
func (g *Generator) transform(ctx context.Context, signal models.Signal) models.Signal {
	if g.transformer == nil {
		return signal
	}

	switch v := signal.Value.(type) {
	case float64:
		out, err := g.transformer.Transform(ctx, v)
		if err != nil {
			g.logger.Warn("transform failed", "signal", signal.Name, "error", err)
			return signal
		}
		signal.Value = out
	case []float64:
		out := make([]float64, len(v))
		for i, x := range v {
			y, err := g.transformer.Transform(ctx, x)
			if err != nil {
				g.logger.Warn("transform failed", "signal", signal.Name, "error", err)
				return signal
			}
			out[i] = y
		}
		signal.Value = out
	}
	return signal
}

// createEvent creates a single event
func (g *Generator) createEvent(signal models.Signal, simTime float64, phase string) models.Event {
	g.sequence++

	session := models.Session{
		RunID:    g.runID,
		Scenario: g.engine.GetScenario().Name,
		Seed:     g.seed,
		Case:     g.CaseLabel(),
	}

	event := models.NewEvent(
		g.newID(),
		g.source,
		session,
		signal,
		g.sequence,
		simTime,
	)
	event.Meta.Phase = phase
	return event
}

func (g *Generator) newID() string {
	id, err := uuid.NewRandomFromReader(g.ids)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// CaseLabel returns the label of the running case, if the simulator has one.
func (g *Generator) CaseLabel() string {
	if l, ok := g.sim.(CaseLabeler); ok {
		return l.CaseLabel()
	}
	return ""
}

// GetRunID returns the current run ID
func (g *Generator) GetRunID() string {
	return g.runID
}

// TickPeriod returns the simulated length of one tick.
func (g *Generator) TickPeriod() time.Duration {
	return g.tick
}
