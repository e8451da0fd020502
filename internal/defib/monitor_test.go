package defib

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitor_VFibBoundedAndNeverFlat(t *testing.T) {
	m := NewMonitor(rand.New(rand.NewSource(1)))

	flatRun := 0
	for i := 0; i < 500; i++ {
		v := m.ECG(VFib, false, nil, 0)
		require.False(t, math.IsNaN(v))
		assert.LessOrEqual(t, math.Abs(v), 1.3, "sample %d", i)

		if math.Abs(v) < 1e-3 {
			flatRun++
		} else {
			flatRun = 0
		}
		assert.Less(t, flatRun, 10, "VFib went flat at sample %d", i)
	}
}

func TestMonitor_ClockIsMonotonic(t *testing.T) {
	m := NewMonitor(rand.New(rand.NewSource(2)))

	prev := m.Clock()
	for _, r := range Rhythms {
		for i := 0; i < 200; i++ {
			m.ECG(r, i%3 == 0, &PacerState{Enabled: true, Rate: 80, Current: 60}, 0.6)
			assert.Greater(t, m.Clock(), prev)
			prev = m.Clock()
		}
	}

	m.Reset()
	assert.Zero(t, m.Clock())
}

func TestMonitor_AllRhythmsFinite(t *testing.T) {
	m := NewMonitor(rand.New(rand.NewSource(3)))
	for _, r := range Rhythms {
		for i := 0; i < 300; i++ {
			v := m.ECG(r, false, nil, 1)
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "rhythm %s", r)
		}
	}
}

func TestMonitor_UnknownRhythmFallsBackToSinus(t *testing.T) {
	a := NewMonitor(rand.New(rand.NewSource(4)))
	b := NewMonitor(rand.New(rand.NewSource(4)))
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.ECG(Sinus, false, nil, 0), b.ECG(Rhythm("AFIB"), false, nil, 0))
	}
}

func TestMonitor_PlethWithoutPulseIsFlat(t *testing.T) {
	m := NewMonitor(rand.New(rand.NewSource(5)))
	for i := 0; i < 100; i++ {
		assert.Zero(t, m.Pleth(false, 1))
	}

	peak := 0.0
	for i := 0; i < 100; i++ {
		peak = math.Max(peak, m.Pleth(true, 1))
	}
	assert.Greater(t, peak, 0.5)
}

func TestMonitor_CapnoNeedsPulseOrBreath(t *testing.T) {
	m := NewMonitor(rand.New(rand.NewSource(6)))
	for i := 0; i < 200; i++ {
		assert.Zero(t, m.Capno(false, 1, false))
	}

	peak := 0.0
	for i := 0; i < 200; i++ {
		v := m.Capno(false, 1, true)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.1)
		peak = math.Max(peak, v)
	}
	assert.InDelta(t, 1.1, peak, 0.05)
}

func TestMonitor_PawBreathShape(t *testing.T) {
	m := NewMonitor(rand.New(rand.NewSource(7)))
	assert.Equal(t, peepLevel, m.Paw(), "PEEP before the first breath")

	m.TriggerVent()
	advance := func(n int) {
		for i := 0; i < n; i++ {
			m.ECG(Sinus, false, nil, 0)
		}
	}

	advance(40) // 0.4 s: plateau
	assert.InDelta(t, 0.99, m.Paw(), 0.02)

	advance(60) // 1.0 s: exhaling
	v := m.Paw()
	assert.Greater(t, v, peepLevel)
	assert.Less(t, v, 0.5)

	advance(120) // 2.2 s: back to PEEP
	assert.Equal(t, peepLevel, m.Paw())
}

func TestPacerState_Captures(t *testing.T) {
	var nilPacer *PacerState
	assert.False(t, nilPacer.Captures())
	assert.False(t, (&PacerState{Enabled: true, Current: 30}).Captures())
	assert.True(t, (&PacerState{Enabled: true, Current: 31}).Captures())
	assert.False(t, (&PacerState{Enabled: false, Current: 100}).Captures())
}

func TestHypoxiaStress(t *testing.T) {
	assert.Zero(t, HypoxiaStress(98))
	assert.InDelta(t, 0.5, HypoxiaStress(65), 1e-9)
	assert.Equal(t, 1.0, HypoxiaStress(10))
}

func TestParseRhythm(t *testing.T) {
	r, err := ParseRhythm(" vfib ")
	require.NoError(t, err)
	assert.Equal(t, VFib, r)

	_, err = ParseRhythm("torsades")
	assert.ErrorIs(t, err, ErrUnknownRhythm)
}
