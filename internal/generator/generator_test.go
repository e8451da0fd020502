package generator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synheart/physiosim/internal/metrics"
	"github.com/synheart/physiosim/internal/models"
	"github.com/synheart/physiosim/internal/scenario"
	"github.com/synheart/physiosim/scenarios"
)

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }

func newTestGenerator(t *testing.T, sc *scenario.Scenario, cfg Config) *Generator {
	t.Helper()
	require.NoError(t, sc.Validate())
	g, err := NewGenerator(scenario.NewEngine(sc), cfg)
	require.NoError(t, err)
	return g
}

func run(g *Generator, ticks int) []models.Event {
	var out []models.Event
	for i := 0; i < ticks; i++ {
		out = append(out, g.Tick(context.Background())...)
	}
	return out
}

func byName(events []models.Event, name string) []models.Event {
	var out []models.Event
	for _, e := range events {
		if e.Signal.Name == name {
			out = append(out, e)
		}
	}
	return out
}

type doubler struct{}

func (doubler) Transform(_ context.Context, v float64) (float64, error) { return v * 2, nil }

func TestNewGenerator_UnknownModality(t *testing.T) {
	sc := &scenario.Scenario{Name: "x", Modality: "mri"}
	_, err := NewGenerator(scenario.NewEngine(sc), Config{})
	assert.ErrorIs(t, err, scenario.ErrUnknownModality)
}

func TestGenerator_BuiltInScenarios(t *testing.T) {
	registry := scenario.NewRegistry()
	require.NoError(t, registry.LoadFromEmbedded(scenarios.FS, "."))

	for _, name := range registry.List() {
		t.Run(name, func(t *testing.T) {
			sc, err := registry.Get(name)
			require.NoError(t, err)

			g := newTestGenerator(t, sc, Config{Seed: 7})
			events := run(g, 50)
			require.NotEmpty(t, events)

			for i, e := range events {
				assert.Equal(t, models.SchemaVersion, e.SchemaVersion)
				assert.Equal(t, string(sc.Modality), e.Source.Type)
				assert.Equal(t, g.GetRunID(), e.Session.RunID)
				assert.Equal(t, int64(7), e.Session.Seed)
				assert.Equal(t, int64(i+1), e.Meta.Sequence)
				if i > 0 {
					assert.GreaterOrEqual(t, e.SimTime, events[i-1].SimTime)
				}
			}
		})
	}
}

func TestGenerator_SeedReproducible(t *testing.T) {
	sc := &scenario.Scenario{
		Name:     "eeg",
		Modality: scenario.ModalityEEG,
		Rate:     "200hz",
		Params:   scenario.Params{BrainState: "SEIZURE_PETIT_MAL", Channels: []string{"Fp1", "O2"}},
	}

	a := run(newTestGenerator(t, sc, Config{Seed: 42}), 40)
	b := run(newTestGenerator(t, sc, Config{Seed: 42}), 40)
	c := run(newTestGenerator(t, sc, Config{Seed: 43}), 40)

	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].EventID, b[i].EventID)
		assert.Equal(t, a[i].Signal.Value, b[i].Signal.Value)
	}
	assert.NotEqual(t, a[0].Session.RunID, c[0].Session.RunID)
}

func TestGenerator_EEGChannels(t *testing.T) {
	sc := &scenario.Scenario{
		Name:     "eeg",
		Modality: scenario.ModalityEEG,
		Rate:     "200hz",
		Params:   scenario.Params{BrainState: "ARTIFACT_BLINK", Channels: []string{"Fp1", "C3", "O1"}},
	}
	events := run(newTestGenerator(t, sc, Config{}), 1)

	require.Len(t, events, 3)
	assert.Equal(t, "eeg.Fp1", events[0].Signal.Name)
	assert.Equal(t, "µV", events[0].Signal.Unit)
	assert.Equal(t, blinkQuality, events[0].Signal.Quality)
	assert.Equal(t, "ARTIFACT_BLINK", events[0].Session.Case)
}

func TestGenerator_EKGLeads(t *testing.T) {
	sc := &scenario.Scenario{
		Name:     "ekg",
		Modality: scenario.ModalityEKG,
		Rate:     "250hz",
		Params:   scenario.Params{EKGCategory: "normal", Leads: []string{"I", "avf"}},
	}
	events := run(newTestGenerator(t, sc, Config{}), 10)

	require.Len(t, events, 20)
	assert.Equal(t, "ekg.I", events[0].Signal.Name)
	assert.Equal(t, "ekg.aVF", events[1].Signal.Name)
	assert.Equal(t, "mV", events[1].Signal.Unit)
	assert.NotEmpty(t, events[0].Session.Case)
}

func TestGenerator_PhaseChangeResetsCase(t *testing.T) {
	m := metrics.New()
	sc := &scenario.Scenario{
		Name:     "ekg",
		Modality: scenario.ModalityEKG,
		Rate:     "10hz",
		Params:   scenario.Params{EKGCategory: "Normal", Leads: []string{"II"}},
		Phases: []scenario.Phase{
			{Name: "baseline", Duration: "1s", Overrides: &scenario.Params{HeartRate: intPtr(60)}},
			{Name: "ischemia", Duration: "1s", Overrides: &scenario.Params{EKGCategory: "Ischemic"}},
		},
	}
	events := run(newTestGenerator(t, sc, Config{Metrics: m}), 15)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CaseResets))
	assert.Equal(t, "baseline", events[0].Meta.Phase)
	assert.Equal(t, "ischemia", events[len(events)-1].Meta.Phase)
}

func TestGenerator_RhythmChangeKeepsCase(t *testing.T) {
	m := metrics.New()
	sc := &scenario.Scenario{
		Name:     "defib",
		Modality: scenario.ModalityDefib,
		Rate:     "60hz",
		Params:   scenario.Params{Rhythm: "SINUS"},
		Phases: []scenario.Phase{
			{Name: "sinus", Duration: "1s"},
			{Name: "arrest", Duration: "1s", Overrides: &scenario.Params{Rhythm: "VFIB", CPR: boolPtr(true)}},
		},
	}
	events := run(newTestGenerator(t, sc, Config{Metrics: m}), 110)

	assert.Zero(t, testutil.ToFloat64(m.CaseResets))
	rhythms := byName(events, "rhythm")
	require.NotEmpty(t, rhythms)
	assert.Equal(t, "SINUS", rhythms[0].Signal.Value)
	assert.Equal(t, "VFIB", rhythms[len(rhythms)-1].Signal.Value)

	ecg := byName(events, "ecg")
	assert.Equal(t, compressionQuality, ecg[len(ecg)-1].Signal.Quality)
}

func TestGenerator_CommandOverridesScenarioUntilNextPhase(t *testing.T) {
	m := metrics.New()
	sc := &scenario.Scenario{
		Name:     "defib",
		Modality: scenario.ModalityDefib,
		Rate:     "60hz",
		Params:   scenario.Params{Rhythm: "VFIB"},
	}
	g := newTestGenerator(t, sc, Config{Metrics: m})
	run(g, 5)

	require.NoError(t, g.Apply(models.Command{ID: "c1", Type: models.CmdRhythm, Rhythm: "SINUS"}))
	events := run(g, 60)

	rhythms := byName(events, "rhythm")
	require.NotEmpty(t, rhythms)
	assert.Equal(t, "SINUS", rhythms[len(rhythms)-1].Signal.Value)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandsTotal.WithLabelValues("rhythm", "applied")))
	assert.NotEmpty(t, byName(events, "hr"))
}

func TestGenerator_QueueFull(t *testing.T) {
	m := metrics.New()
	sc := &scenario.Scenario{Name: "ctg", Modality: scenario.ModalityCTG, Rate: "2hz"}
	g := newTestGenerator(t, sc, Config{QueueSize: 1, Metrics: m})

	require.NoError(t, g.Apply(models.Command{ID: "a", Type: models.CmdReset}))
	err := g.Apply(models.Command{ID: "b", Type: models.CmdReset})
	assert.True(t, errors.Is(err, ErrQueueFull))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandsTotal.WithLabelValues("reset", "rejected")))
}

func TestGenerator_UnsupportedCommand(t *testing.T) {
	m := metrics.New()
	sc := &scenario.Scenario{Name: "ctg", Modality: scenario.ModalityCTG, Rate: "2hz"}
	g := newTestGenerator(t, sc, Config{Metrics: m})
	run(g, 1)

	require.NoError(t, g.Apply(models.Command{ID: "a", Type: models.CmdShock}))
	run(g, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandsTotal.WithLabelValues("shock", "failed")))
}

func TestGenerator_CTGTickGrid(t *testing.T) {
	sc := &scenario.Scenario{
		Name:     "ctg",
		Modality: scenario.ModalityCTG,
		Rate:     "10hz",
	}
	events := run(newTestGenerator(t, sc, Config{}), 10)

	assert.Len(t, byName(events, "fhr"), 2)
	assert.Len(t, byName(events, "toco"), 2)
	figo := byName(events, "figo")
	require.Len(t, figo, 1)
	assert.Equal(t, "Normal", figo[0].Signal.Value)
}

func TestGenerator_Transformer(t *testing.T) {
	sc := &scenario.Scenario{Name: "ctg", Modality: scenario.ModalityCTG, Rate: "2hz"}

	plain := byName(run(newTestGenerator(t, sc, Config{Seed: 3}), 4), "fhr")
	doubled := byName(run(newTestGenerator(t, sc, Config{Seed: 3, Transformer: doubler{}}), 4), "fhr")

	require.Equal(t, len(plain), len(doubled))
	for i := range plain {
		p, _ := plain[i].Signal.Scalar()
		d, _ := doubled[i].Signal.Scalar()
		assert.InDelta(t, 2*p, d, 1e-9)
	}
}

func TestGenerator_ManometrySwallows(t *testing.T) {
	m := metrics.New()
	sc := &scenario.Scenario{
		Name:     "hrm",
		Modality: scenario.ModalityManometry,
		Rate:     "10hz",
		Params:   scenario.Params{Manometry: "NORMAL", Sensors: intPtr(12)},
	}
	g := newTestGenerator(t, sc, Config{Metrics: m})

	first := run(g, 1)
	require.Len(t, first, 1)
	assert.Len(t, first[0].Signal.Floats(), 12)

	require.NoError(t, g.Apply(models.Command{ID: "s1", Type: models.CmdSwallow}))
	require.NoError(t, g.Apply(models.Command{ID: "s2", Type: models.CmdSwallow}))
	run(g, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandsTotal.WithLabelValues("swallow", "applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandsTotal.WithLabelValues("swallow", "failed")))

	events := run(g, 1)
	require.Len(t, byName(events, "irp"), 1)
	require.Len(t, byName(events, "dci"), 1)
}

func TestGenerator_ManometryAutoSwallow(t *testing.T) {
	sc := &scenario.Scenario{
		Name:     "hrm",
		Modality: scenario.ModalityManometry,
		Rate:     "10hz",
		Params:   scenario.Params{Manometry: "ACHALASIA_TYPE_I", SwallowInterval: "1s"},
	}
	events := run(newTestGenerator(t, sc, Config{}), 20)

	dci := byName(events, "dci")
	require.Len(t, dci, 1)
	assert.Equal(t, "N/A", dci[0].Signal.Value)
	assert.Equal(t, "ACHALASIA_TYPE_I", dci[0].Session.Case)
}

func TestGenerator_SpirometryManoeuvre(t *testing.T) {
	sc := &scenario.Scenario{
		Name:     "spiro",
		Modality: scenario.ModalitySpirometry,
		Rate:     "50hz",
		Params:   scenario.Params{Diagnosis: "Normal", ManeuverInterval: "8s"},
	}
	events := run(newTestGenerator(t, sc, Config{Seed: 11}), 400)

	fvc := byName(events, "fvc")
	require.Len(t, fvc, 1)
	want, ok := fvc[0].Signal.Scalar()
	require.True(t, ok)

	peak := 0.0
	for _, e := range byName(events, "volume") {
		v, _ := e.Signal.Scalar()
		if v > peak {
			peak = v
		}
	}
	assert.InDelta(t, want, peak, 0.05)
	assert.NotEmpty(t, events[0].Session.Case)
}

func TestGenerator_GenerateStopsAtScenarioEnd(t *testing.T) {
	sc := &scenario.Scenario{
		Name:     "short",
		Modality: scenario.ModalityCTG,
		Duration: "5s",
		Rate:     "2hz",
	}
	g := newTestGenerator(t, sc, Config{})

	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	out := make(chan models.Event, 1000)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, g.Generate(ctx, ticker, out))
	close(out)

	fhr := 0
	for e := range out {
		if e.Signal.Name == "fhr" {
			fhr++
		}
	}
	assert.Equal(t, 10, fhr)
}

func TestGenerator_GenerateCancelled(t *testing.T) {
	sc := &scenario.Scenario{Name: "long", Modality: scenario.ModalityCTG, Rate: "2hz"}
	g := newTestGenerator(t, sc, Config{})

	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := g.Generate(ctx, ticker, make(chan models.Event, 10000))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWindow(t *testing.T) {
	w := NewWindow(3)
	for i := 1; i <= 5; i++ {
		w.Add(models.Event{Signal: models.Signal{Name: "hr", Value: float64(i)}})
	}
	w.Add(models.Event{Signal: models.Signal{Name: "rhythm", Value: "SINUS"}})
	w.Add(models.Event{Signal: models.Signal{Name: "pressure", Value: []float64{1, 9, 4}}})

	assert.Equal(t, []float64{3, 4, 5}, w.Series("hr"))
	assert.Equal(t, []float64{9}, w.Series("pressure"))
	assert.Equal(t, []string{"hr", "pressure"}, w.Names())
	assert.Empty(t, w.Series("rhythm"))
}

func TestUnitFor(t *testing.T) {
	assert.Equal(t, "mmHg", unitFor("capno"))
	assert.Equal(t, "µV", unitFor("eeg.O1"))
	assert.Equal(t, "", unitFor("rhythm"))
}
