package ekg

import (
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalCase(hr int) Case {
	return Case{ID: "normal", Category: CategoryNormal, HeartRate: hr}
}

func TestWaveComponent_SkewShapesSides(t *testing.T) {
	w := WaveComponent{Amplitude: 1, Center: 0, Width: 0.07, Skew: -0.3}
	assert.Equal(t, 1.0, w.At(0))
	// Negative skew: wider before the peak than after it.
	assert.Greater(t, w.At(-0.05), w.At(0.05))
	assert.Zero(t, w.At(0.29), "beyond four widths")
}

func TestBeatCache_EinthovenConsistency(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	cases := []Case{normalCase(72)}
	for _, cat := range Categories {
		c, err := GenerateRandomCase(cat, rng)
		require.NoError(t, err)
		cases = append(cases, c)
	}

	for _, c := range cases {
		b := NewBeatCache(c)
		for step := 0; step < 4000; step++ {
			ts := float64(step) * 0.0007
			i := b.CleanVoltageAt(ts, LeadI)
			ii := b.CleanVoltageAt(ts, LeadII)
			for _, l := range []Lead{LeadIII, LeadAVR, LeadAVL, LeadAVF} {
				if _, overridden := c.Overrides[l]; overridden {
					continue
				}
				assert.InDelta(t, Derive(l, i, ii), b.CleanVoltageAt(ts, l), 1e-12, "%s lead %s t=%v", c.ID, l, ts)
			}
		}
	}
}

func TestBeatCache_OverrideBeatsDerivation(t *testing.T) {
	local := []WaveComponent{{Amplitude: 0.9, Center: 0.1, Width: 0.05}}
	c := normalCase(60)
	c.Overrides = map[Lead][]WaveComponent{LeadIII: local}

	b := NewBeatCache(c)
	buf := b.Buffer(LeadIII)
	for idx := 0; idx < len(buf); idx += 37 {
		tt := float64(idx)/SampleRate - b.BeatDuration()/2
		assert.Equal(t, Voltage(tt, local), buf[idx])
	}

	// aVF keeps following I and II.
	bi, bii := b.Buffer(LeadI), b.Buffer(LeadII)
	for idx := range bi {
		assert.Equal(t, Derive(LeadAVF, bi[idx], bii[idx]), b.Buffer(LeadAVF)[idx])
	}
}

func TestBeatCache_EmptyOverrideSilencesLead(t *testing.T) {
	c := normalCase(60)
	c.Overrides = map[Lead][]WaveComponent{LeadAVR: {}}
	b := NewBeatCache(c)
	for _, v := range b.Buffer(LeadAVR) {
		require.Zero(t, v)
	}
}

func TestBeatCache_RebuiltWithHeartRate(t *testing.T) {
	b := NewBeatCache(normalCase(60))
	assert.Len(t, b.Buffer(LeadII), 2000)

	b.SetHeartRate(120)
	assert.Equal(t, 0.5, b.BeatDuration())
	for _, l := range Leads {
		assert.Len(t, b.Buffer(l), 1000, "lead %s", l)
	}

	b.SetHeartRate(0)
	assert.Equal(t, 60.0, b.BeatDuration())
	assert.False(t, math.IsNaN(b.VoltageAt(1.23, LeadV2)))
}

func TestBeatCache_SetCaseDoesNotAlias(t *testing.T) {
	c := normalCase(75)
	c.Overrides = map[Lead][]WaveComponent{LeadV2: BaseWaves(LeadV2)}
	b := NewBeatCache(c)
	before := b.CleanVoltageAt(0.4, LeadV2)

	c.Overrides[LeadV2][1].Amplitude = 10
	assert.Equal(t, before, b.CleanVoltageAt(0.4, LeadV2))
}

func TestBeatCache_Deterministic(t *testing.T) {
	c, err := GenerateRandomCase(CategoryIschemic, rand.New(rand.NewSource(3)))
	require.NoError(t, err)
	b := NewBeatCache(c)
	for _, l := range Leads {
		for ts := 0.0; ts < 3; ts += 0.013 {
			assert.Equal(t, b.VoltageAt(ts, l), b.VoltageAt(ts, l))
		}
	}
}

func TestBeatCache_NormalMeasurements(t *testing.T) {
	b := NewBeatCache(normalCase(60))
	m := b.Measurements(LeadII)

	require.True(t, m.HasP)
	require.True(t, m.HasQRS)
	require.True(t, m.HasT)
	require.True(t, m.HasJ)
	assert.InDelta(t, -0.16-2.2*0.035, m.PStart, 1e-12)
	assert.InDelta(t, -0.045-2*0.01, m.QRSStart, 1e-12)
	assert.InDelta(t, 0.04+2*0.015, m.QRSEnd, 1e-12)
	assert.InDelta(t, 0.28+2.5*0.07, m.TEnd, 1e-12)
	assert.Equal(t, m.QRSEnd, m.JPoint)

	pr, ok := m.PR()
	require.True(t, ok)
	assert.InDelta(t, 172, pr, 1e-6)

	// Timings are shared, ST voltage is local.
	assert.Equal(t, m.JPoint, b.Measurements(LeadV1).JPoint)
	assert.True(t, b.Measurements(LeadV1).HasST)
}

func TestBeatCache_STEMIElevation(t *testing.T) {
	tpl, ok := TemplateFor(CategoryIschemic)
	require.True(t, ok)
	c := Case{Category: CategoryIschemic, HeartRate: 90, Overrides: tpl.Overrides}
	b := NewBeatCache(c)

	assert.Greater(t, b.Measurements(LeadII).STVoltage, 0.1)
	assert.Less(t, b.Measurements(LeadI).STVoltage, 0.0)
	assert.Greater(t, b.Measurements(LeadIII).STVoltage, 0.1, "derived inferior lead")
	assert.Greater(t, b.Measurements(LeadAVF).STVoltage, 0.1)
}

func TestNoise_BoundedAndLeadSpecific(t *testing.T) {
	for ts := 0.0; ts < 5; ts += 0.001 {
		assert.LessOrEqual(t, math.Abs(Noise(ts, LeadV5)), NoiseAmplitude)
	}
	assert.NotEqual(t, Noise(1, LeadV1), Noise(1, LeadV2))
}

func TestGenerateRandomCase(t *testing.T) {
	bands := map[Category][2]int{
		CategoryArrhythmia:  {35, 49},
		CategoryIschemic:    {80, 109},
		CategoryNormal:      {55, 84},
		CategoryElectrolyte: {55, 84},
		CategoryStructural:  {55, 84},
	}

	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 200; i++ {
		cat := Categories[i%len(Categories)]
		c, err := GenerateRandomCase(cat, rng)
		require.NoError(t, err)

		assert.Equal(t, cat, c.Category)
		assert.True(t, strings.HasPrefix(c.ID, string(cat)+"_"))
		assert.GreaterOrEqual(t, c.HeartRate, bands[cat][0])
		assert.LessOrEqual(t, c.HeartRate, bands[cat][1])
		for _, l := range []Lead{LeadI, LeadII, LeadV1} {
			assert.Contains(t, c.Overrides, l)
		}
		tpl, _ := TemplateFor(cat)
		for l, w := range tpl.Overrides {
			require.Len(t, c.Overrides[l], len(w))
			for k := range w {
				assert.InDelta(t, w[k].Center, c.Overrides[l][k].Center, 0.005)
				assert.InDelta(t, w[k].Amplitude, c.Overrides[l][k].Amplitude, math.Abs(w[k].Amplitude)*0.1+1e-12)
			}
		}
	}
}

func TestGenerateRandomCase_SeedReproducible(t *testing.T) {
	a, err := GenerateRandomCase("", rand.New(rand.NewSource(77)))
	require.NoError(t, err)
	b, err := GenerateRandomCase("", rand.New(rand.NewSource(77)))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, err = GenerateRandomCase("Cardiomyopathy", rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestGenerateRandomCase_TemplateUntouched(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	for i := 0; i < 10; i++ {
		_, err := GenerateRandomCase(CategoryStructural, rng)
		require.NoError(t, err)
	}
	tpl, _ := TemplateFor(CategoryStructural)
	assert.Equal(t, 3.5, tpl.Overrides[LeadV5][2].Amplitude)
	assert.Equal(t, 1.6, BaseWaves(LeadII)[2].Amplitude)
}

func TestParseLead(t *testing.T) {
	l, err := ParseLead("avf")
	require.NoError(t, err)
	assert.Equal(t, LeadAVF, l)
	_, err = ParseLead("V7")
	assert.ErrorIs(t, err, ErrUnknownLead)
}
