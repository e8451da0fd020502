package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/synheart/physiosim/internal/generator"
	"github.com/synheart/physiosim/internal/metrics"
	"github.com/synheart/physiosim/internal/plugin"
	"github.com/synheart/physiosim/internal/scenario"
)

// sessionOptions are the flags shared by the commands that run a generator.
type sessionOptions struct {
	Scenario string
	Duration string
	Rate     string
	Seed     int64
	Plugin   string
}

// session is a loaded scenario with its generator and optional plugin.
type session struct {
	scenario  *scenario.Scenario
	engine    *scenario.Engine
	generator *generator.Generator
	plugin    *plugin.Plugin
}

func newSession(ctx context.Context, opts sessionOptions, m *metrics.Metrics) (*session, error) {
	scen, err := loadScenario(opts.Scenario, opts.Duration)
	if err != nil {
		return nil, err
	}

	config := generator.Config{
		Seed:    opts.Seed,
		Metrics: m,
		Logger:  slog.Default(),
	}
	if opts.Rate != "" {
		if config.Tick, err = scenario.ParseRate(opts.Rate); err != nil {
			return nil, fmt.Errorf("invalid rate: %w", err)
		}
	}

	s := &session{scenario: scen}
	if opts.Plugin != "" {
		if s.plugin, err = plugin.Load(ctx, opts.Plugin); err != nil {
			return nil, fmt.Errorf("failed to load plugin: %w", err)
		}
		config.Transformer = s.plugin
	}

	s.engine = scenario.NewEngine(scen)
	if s.generator, err = generator.NewGenerator(s.engine, config); err != nil {
		s.Close(ctx)
		return nil, err
	}
	return s, nil
}

// Close releases the plugin runtime, if any.
func (s *session) Close(ctx context.Context) {
	if s.plugin != nil {
		s.plugin.Close(ctx)
	}
}
