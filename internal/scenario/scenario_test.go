package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/synheart/physiosim/internal/ctg"
	"github.com/synheart/physiosim/scenarios"
)

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input     string
		expected  time.Duration
		unlimited bool
	}{
		{"unlimited", 0, true},
		{"", 0, true},
		{"5m", 5 * time.Minute, false},
		{"30s", 30 * time.Second, false},
		{"1h", time.Hour, false},
	}

	for _, test := range tests {
		duration, unlimited := ParseDuration(test.input)
		if unlimited != test.unlimited {
			t.Errorf("ParseDuration(%s): expected unlimited=%v, got %v", test.input, test.unlimited, unlimited)
		}
		if !unlimited && duration != test.expected {
			t.Errorf("ParseDuration(%s): expected %v, got %v", test.input, test.expected, duration)
		}
	}
}

func TestParseRate(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"50hz", 20 * time.Millisecond, false},
		{"2Hz", 500 * time.Millisecond, false},
		{"250hz", 4 * time.Millisecond, false},
		{"0hz", 0, true},
		{"fast", 0, true},
	}

	for _, test := range tests {
		got, err := ParseRate(test.input)
		if (err != nil) != test.wantErr {
			t.Errorf("ParseRate(%s): unexpected error state %v", test.input, err)
			continue
		}
		if got != test.expected {
			t.Errorf("ParseRate(%s): expected %v, got %v", test.input, test.expected, got)
		}
	}
}

func TestGetEffectiveParams(t *testing.T) {
	scenario := &Scenario{
		Name:     "test",
		Modality: ModalityDefib,
		Params: Params{
			Rhythm: "VFIB",
			CPR:    boolPtr(false),
			Vitals: &Vitals{SpO2: 90},
		},
		Phases: []Phase{
			{Name: "baseline", Duration: "2m"},
			{
				Name:     "cpr",
				Duration: "30s",
				Overrides: &Params{
					CPR:    boolPtr(true),
					Vitals: &Vitals{EtCO2: 15},
				},
			},
		},
	}

	p := scenario.GetEffectiveParams(1 * time.Minute)
	if *p.CPR {
		t.Error("expected no override in baseline phase")
	}

	p = scenario.GetEffectiveParams(2*time.Minute + 15*time.Second)
	if !*p.CPR {
		t.Error("expected cpr override in second phase")
	}
	if p.Rhythm != "VFIB" {
		t.Errorf("base field should survive the merge, got %q", p.Rhythm)
	}
	if p.Vitals.SpO2 != 0 || p.Vitals.EtCO2 != 15 {
		t.Errorf("vitals block should be replaced as a whole, got %+v", *p.Vitals)
	}

	// Past the last phase the last phase stays in force.
	p = scenario.GetEffectiveParams(time.Hour)
	if !*p.CPR {
		t.Error("expected last phase to persist")
	}
}

func TestParams_MergeDoesNotAlias(t *testing.T) {
	base := Params{Leads: []string{"I"}, HeartRate: intPtr(60)}
	override := &Params{HeartRate: intPtr(90)}

	merged := base.Merge(override)
	*merged.HeartRate = 120
	merged.Leads[0] = "V1"

	if *base.HeartRate != 60 || base.Leads[0] != "I" {
		t.Error("merge must not alias the base")
	}
	if *override.HeartRate != 90 {
		t.Error("merge must not alias the override")
	}
	if got := base.Merge(nil); *got.HeartRate != 60 {
		t.Errorf("nil override should copy base, got %d", *got.HeartRate)
	}
}

func TestParams_CaseKey(t *testing.T) {
	a := Params{EKGCategory: "Ischemic", Rhythm: "VFIB"}
	b := Params{EKGCategory: "ischemic", Rhythm: "SINUS", HeartRate: intPtr(100)}
	if a.CaseKey() != b.CaseKey() {
		t.Error("rhythm and heart rate must not change the case key")
	}

	c := Params{EKGCategory: "Structural"}
	if a.CaseKey() == c.CaseKey() {
		t.Error("category must change the case key")
	}
	d := Params{Manometry: "NORMAL"}
	e := Params{Manometry: "ACHALASIA_TYPE_I"}
	if d.CaseKey() == e.CaseKey() {
		t.Error("manometry type must change the case key")
	}
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr bool
	}{
		{"empty", Params{}, false},
		{"rhythm", Params{Rhythm: "vtach"}, false},
		{"bad rhythm", Params{Rhythm: "torsades"}, true},
		{"bad brain state", Params{BrainState: "REM"}, true},
		{"bad electrode", Params{Channels: []string{"Zz9"}}, true},
		{"bad lead", Params{Leads: []string{"V9"}}, true},
		{"ctg", Params{CTG: &ctg.Params{Baseline: 150, Variability: "normal"}}, false},
		{"bad ctg", Params{CTG: &ctg.Params{Baseline: 300}}, true},
		{"manometry shorthand", Params{Manometry: "II"}, false},
		{"bad interval", Params{SwallowInterval: "soon"}, true},
		{"diagnosis", Params{Diagnosis: "restrictive", Severity: "mild"}, false},
		{"bad severity", Params{Severity: "extreme"}, true},
		{"zero heart rate", Params{HeartRate: intPtr(0)}, true},
	}

	for _, test := range tests {
		err := test.params.Validate()
		if (err != nil) != test.wantErr {
			t.Errorf("%s: expected error=%v, got %v", test.name, test.wantErr, err)
		}
	}
}

func TestScenarioEngine(t *testing.T) {
	scenario := &Scenario{
		Name:     "test",
		Modality: ModalityEEG,
		Duration: "5m",
		Params:   Params{BrainState: "AWAKE_EYES_OPEN"},
		Phases: []Phase{
			{Name: "phase1", Duration: "2m"},
			{Name: "phase2", Duration: "unlimited", Overrides: &Params{BrainState: "DROWSY"}},
		},
	}

	engine := NewEngine(scenario)

	if engine.IsComplete() {
		t.Error("Engine should not be complete immediately after creation")
	}
	if engine.GetElapsed() != 0 {
		t.Errorf("expected zero elapsed, got %v", engine.GetElapsed())
	}
	if got := engine.GetParams().BrainState; got != "AWAKE_EYES_OPEN" {
		t.Errorf("expected base state, got %s", got)
	}

	engine.Advance(3 * time.Minute)
	engine.Advance(-time.Minute)
	if engine.GetCurrentPhase().Name != "phase2" {
		t.Errorf("expected phase2, got %s", engine.GetCurrentPhase().Name)
	}
	if got := engine.GetParams().BrainState; got != "DROWSY" {
		t.Errorf("expected override state, got %s", got)
	}

	engine.Advance(2 * time.Minute)
	if !engine.IsComplete() {
		t.Error("expected completion after the scenario duration")
	}

	engine.Reset()
	if engine.IsComplete() || engine.GetElapsed() != 0 {
		t.Error("reset should rewind the clock")
	}
}

func TestScenario_Validate(t *testing.T) {
	valid := Scenario{Name: "ok", Modality: ModalityCTG, Duration: "1m", Rate: "2hz"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	noModality := valid
	noModality.Modality = "mri"
	if err := noModality.Validate(); !errors.Is(err, ErrUnknownModality) {
		t.Errorf("expected ErrUnknownModality, got %v", err)
	}

	badPhase := valid
	badPhase.Phases = []Phase{{Name: "p", Duration: "1m", Overrides: &Params{Rhythm: "bogus"}}}
	if err := badPhase.Validate(); err == nil {
		t.Error("expected phase override validation error")
	}

	badDuration := valid
	badDuration.Duration = "forever"
	if err := badDuration.Validate(); err == nil {
		t.Error("expected duration error")
	}
}

func TestRegistry_LoadFromDir(t *testing.T) {
	dir := t.TempDir()
	doc := `name: custom
description: custom session
modality: EEG
duration: 1m
rate: 200hz
params:
  brain_state: drowsy
`
	if err := os.WriteFile(filepath.Join(dir, "custom.yaml"), []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}

	registry := NewRegistry()
	if err := registry.LoadFromDir(dir); err != nil {
		t.Fatalf("failed to load: %v", err)
	}

	s, err := registry.Get("custom")
	if err != nil {
		t.Fatalf("expected scenario: %v", err)
	}
	if s.Modality != ModalityEEG {
		t.Errorf("expected modality to be normalized, got %s", s.Modality)
	}
	if _, err := registry.Get("missing"); err == nil {
		t.Error("expected error for missing scenario")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("name: bad\nmodality: ekg\nparams:\n  ekg_category: Cardiomyopathy\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := registry.LoadFromDir(dir); err == nil {
		t.Error("expected validation error for bad scenario")
	}
}

func TestRegistry_LoadFromEmbedded(t *testing.T) {
	registry := NewRegistry()
	if err := registry.LoadFromEmbedded(scenarios.FS, "."); err != nil {
		t.Fatalf("failed to load built-in scenarios: %v", err)
	}

	names := registry.List()
	if len(names) < len(Modalities) {
		t.Fatalf("expected at least one scenario per modality, got %v", names)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("list not sorted: %v", names)
		}
	}

	seen := make(map[Modality]bool)
	for _, name := range names {
		s, _ := registry.Get(name)
		seen[s.Modality] = true
		if _, err := ParseRate(s.Rate); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	for _, m := range Modalities {
		if !seen[m] {
			t.Errorf("no built-in scenario for %s", m)
		}
	}

	descriptions := registry.ListWithDescriptions()
	if descriptions["vf-arrest"] == "" {
		t.Error("expected description for vf-arrest")
	}
}
