package defib

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestPhysiology(seed int64) *Physiology {
	return NewPhysiology(DefaultPhysiologyConfig(), rand.New(rand.NewSource(seed)))
}

func TestPhysiology_ConvergesToSinusTargets(t *testing.T) {
	p := newTestPhysiology(1)
	for i := 0; i < 2000; i++ {
		res := p.Tick(Sinus, false)
		assert.Equal(t, Sinus, res.Rhythm)
	}

	tg := p.Targets()
	assert.Equal(t, 115.0, tg.Sys)
	assert.Equal(t, 38.0, tg.EtCO2)
	assert.Equal(t, tg.Sys, p.Sys)
	assert.Equal(t, tg.Dia, p.Dia)
	assert.Equal(t, tg.SpO2, p.SpO2)
	assert.Equal(t, tg.EtCO2, p.EtCO2)

	v := p.Vitals()
	assert.InDelta(t, 75, v.HR, 2)
	assert.Equal(t, "96", v.SpO2Display())
}

func TestPhysiology_UntreatedArrestDesaturates(t *testing.T) {
	p := newTestPhysiology(2)
	for i := 0; i < 600; i++ {
		p.Tick(VFib, false)
	}

	v := p.Vitals()
	assert.Equal(t, -1, v.HR)
	assert.Equal(t, "---", v.HRDisplay())
	assert.Equal(t, 0, v.Sys)
	assert.Less(t, v.SpO2, 50.0)
	assert.Equal(t, "?", v.SpO2Display())
	assert.Greater(t, p.TimeInSevereHypoxia, 0.0)
}

func TestPhysiology_CPRWithVentilationOxygenates(t *testing.T) {
	p := newTestPhysiology(3)
	p.ResetForCase()

	for i := 0; i < 400; i++ {
		if i%10 == 5 {
			p.Ventilate()
		}
		p.Tick(VFib, true)
	}

	assert.Equal(t, 12, p.RespiratoryRate())
	assert.Equal(t, 90.0, p.Targets().SpO2)
	assert.Greater(t, p.SpO2, 80.0)
}

func TestPhysiology_HypoxicDegeneration(t *testing.T) {
	cfg := DefaultPhysiologyConfig()
	cfg.DegenerationProbability = 1
	p := NewPhysiology(cfg, rand.New(rand.NewSource(4)))

	p.SpO2 = 30
	p.TimeInSevereHypoxia = cfg.BradySeconds
	res := p.Tick(Sinus, false)
	assert.Equal(t, Bradycardia, res.Rhythm)
	assert.Equal(t, MsgHypoxicBradycardia, res.Message)

	p.SpO2 = 30
	p.TimeInSevereHypoxia = cfg.ArrestSeconds
	res = p.Tick(Bradycardia, false)
	assert.Equal(t, PEA, res.Rhythm)
	assert.Equal(t, MsgHypoxicArrest, res.Message)

	p.SpO2 = 30
	res = p.Tick(VFib, false)
	assert.Equal(t, VFib, res.Rhythm, "VFib never degrades to PEA")
}

func TestPhysiology_NoDegenerationWhenDisabled(t *testing.T) {
	cfg := DefaultPhysiologyConfig()
	cfg.DegenerationProbability = 0
	p := NewPhysiology(cfg, rand.New(rand.NewSource(5)))

	p.SpO2 = 30
	p.TimeInSevereHypoxia = 40
	res := p.Tick(Sinus, false)
	assert.Equal(t, Sinus, res.Rhythm)
	assert.Empty(t, res.Message)
}

func TestPhysiology_HypoxiaTimerRecovers(t *testing.T) {
	p := newTestPhysiology(6)
	p.TimeInSevereHypoxia = 1
	p.Tick(Sinus, false)
	assert.Equal(t, 0.5, p.TimeInSevereHypoxia)
	p.Tick(Sinus, false)
	p.Tick(Sinus, false)
	assert.Zero(t, p.TimeInSevereHypoxia)
}

func TestPhysiology_EpinephrineNeedsCirculation(t *testing.T) {
	p := newTestPhysiology(7)
	p.GiveEpinephrine()
	p.Sys = 0
	p.Tick(Asystole, false)
	assert.Zero(t, p.EpiBioavailability)

	p.Sys = 100
	p.Tick(Sinus, false)
	assert.InDelta(t, 0.05, p.EpiBioavailability, 1e-9)
}

func TestPhysiology_BreathsExpireAfterAMinute(t *testing.T) {
	p := newTestPhysiology(8)
	p.Ventilate()
	p.Ventilate()
	assert.Equal(t, 2, p.RespiratoryRate())

	for i := 0; i < 121; i++ {
		p.Tick(Sinus, false)
	}
	assert.Zero(t, p.RespiratoryRate())
}

func TestPhysiology_ResetForCaseClearsPressures(t *testing.T) {
	p := newTestPhysiology(9)
	for i := 0; i < 400; i++ {
		p.Tick(Sinus, false)
	}
	assert.Greater(t, p.Dia, 0.0)

	p.ResetForCase()
	assert.Zero(t, p.Sys)
	assert.Zero(t, p.Dia)
	assert.Equal(t, 60.0, p.SpO2)
	assert.Equal(t, 10.0, p.EtCO2)
	assert.Equal(t, 0, p.Vitals().Dia)
}

func TestMoveTowards(t *testing.T) {
	assert.Equal(t, 10.0, moveTowards(9.95, 10, 0.02))
	assert.InDelta(t, 2.0, moveTowards(0, 20, 0.1), 1e-12)
}
