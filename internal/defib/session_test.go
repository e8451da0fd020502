package defib

import (
	"math/rand"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevice_ChargeAndShockCycle(t *testing.T) {
	d := NewDevice()
	require.NoError(t, d.StartCharge(0))
	assert.ErrorIs(t, d.StartCharge(0.1), ErrBusy)

	d.Advance(2.9, 120, 80)
	assert.Equal(t, ChargeCharging, d.Charge)
	assert.ErrorIs(t, d.Discharge(2.9), ErrNotCharged)

	d.Advance(3.0, 120, 80)
	assert.Equal(t, ChargeCharged, d.Charge)

	require.NoError(t, d.Discharge(4))
	assert.True(t, d.Flash)
	assert.Equal(t, ChargeDischarged, d.Charge)

	d.Advance(4.2, 120, 80)
	assert.True(t, d.Flash)
	d.Advance(4.31, 120, 80)
	assert.False(t, d.Flash)
	assert.Equal(t, ChargeIdle, d.Charge)
}

func TestDevice_EnergyChangeDumpsCharge(t *testing.T) {
	d := NewDevice()
	require.NoError(t, d.StartCharge(0))
	d.Advance(3, 0, 0)
	require.Equal(t, ChargeCharged, d.Charge)

	d.AdjustEnergy(10)
	assert.Equal(t, 210, d.Energy)
	assert.Equal(t, ChargeIdle, d.Charge)

	d.SetEnergy(1000)
	assert.Equal(t, MaxEnergy, d.Energy)
	d.SetEnergy(-5)
	assert.Equal(t, MinEnergy, d.Energy)
}

func TestDevice_NIBPCycle(t *testing.T) {
	d := NewDevice()
	assert.Equal(t, "--/--", d.NIBPReading)

	require.NoError(t, d.StartNIBP(10))
	assert.ErrorIs(t, d.StartNIBP(11), ErrBusy)

	d.Advance(12, 114.6, 75.2)
	assert.Equal(t, NIBPMeasuring, d.NIBP)
	d.Advance(15, 114.6, 75.2)
	assert.Equal(t, NIBPComplete, d.NIBP)
	assert.Equal(t, "115/75", d.NIBPReading)

	require.NoError(t, d.StartNIBP(20))
	d.Advance(30, 10, 5)
	assert.Equal(t, NIBPComplete, d.NIBP)
	assert.Equal(t, "---/---", d.NIBPReading)
}

func TestDevice_PacerClamps(t *testing.T) {
	d := NewDevice()
	assert.Equal(t, float64(DefaultPacerRate), d.Pacer.Rate)
	d.SetPacer(500, 500)
	assert.Equal(t, float64(MaxPacerRate), d.Pacer.Rate)
	assert.Equal(t, float64(MaxPacerCurrent), d.Pacer.Current)
	d.AdjustPacer(-1000, -1000)
	assert.Equal(t, float64(MinPacerRate), d.Pacer.Rate)
	assert.Zero(t, d.Pacer.Current)
}

func stepFor(s *Session, seconds float64) Frame {
	var f Frame
	n := int(seconds*FrameRate) + 1
	for i := 0; i < n; i++ {
		f = s.Step(1.0 / FrameRate)
	}
	return f
}

func TestSession_FreeModeShockConverts(t *testing.T) {
	s := NewSession(Config{Physiology: DefaultPhysiologyConfig(), Rhythm: VFib}, rand.New(rand.NewSource(1)))

	assert.ErrorIs(t, s.Shock(), ErrNotCharged)
	require.NoError(t, s.Charge())
	f := stepFor(s, ChargeDuration)
	assert.Equal(t, ChargeCharged, f.Charge)

	require.NoError(t, s.Shock())
	assert.Equal(t, Sinus, s.Rhythm())
	f = s.Step(1.0 / FrameRate)
	assert.True(t, f.Flash)
	f = stepFor(s, FlashDuration)
	assert.False(t, f.Flash)
	assert.Equal(t, ChargeIdle, f.Charge)
}

func TestSession_LowEnergyDoesNotConvert(t *testing.T) {
	s := NewSession(Config{Physiology: DefaultPhysiologyConfig(), Rhythm: VTach}, rand.New(rand.NewSource(2)))
	s.SetEnergy(100)
	require.NoError(t, s.Charge())
	stepFor(s, ChargeDuration)
	require.NoError(t, s.Shock())
	assert.Equal(t, VTach, s.Rhythm())
}

func TestSession_VentilationShowsAirwayPressure(t *testing.T) {
	s := NewSession(Config{Physiology: DefaultPhysiologyConfig()}, rand.New(rand.NewSource(3)))
	f := stepFor(s, 1)
	assert.False(t, f.Ventilating)

	s.Ventilate()
	f = stepFor(s, 0.4)
	assert.True(t, f.Ventilating)
	assert.Zero(t, f.Pleth)
	assert.Greater(t, f.Paw, 0.5)

	f = stepFor(s, VentDisplayWindow)
	assert.False(t, f.Ventilating)
}

func TestSession_ExamScoring(t *testing.T) {
	s := NewSession(Config{Physiology: DefaultPhysiologyConfig(), Exam: true}, rand.New(rand.NewSource(4)))
	s.StartCase(ArrestCase{Rhythm: VFib, Shockable: true})
	exam := s.Exam()
	require.NotNil(t, exam)
	assert.Equal(t, 1, exam.CaseNumber)

	require.NoError(t, s.GiveDrug(Epinephrine))
	assert.Equal(t, 10, exam.Score)
	require.NoError(t, s.GiveDrug(Amiodarone))
	assert.Equal(t, 20, exam.Score)
	assert.Equal(t, 45.0, exam.RoscProgress)

	s.SetCPR(true)
	require.NoError(t, s.Charge())
	stepFor(s, ChargeDuration)
	require.NoError(t, s.Shock())
	assert.Equal(t, 5, exam.Score)
	assert.Equal(t, 0.0, exam.RoscProgress)
	assert.Equal(t, VFib, s.Rhythm())

	s.SetCPR(false)
	assert.Zero(t, exam.Score, "stopping CPR after 3 s is penalised")
	stepFor(s, FlashDuration)
	require.NoError(t, s.Charge())
	stepFor(s, ChargeDuration)
	require.NoError(t, s.Shock())
	assert.Equal(t, Sinus, s.Rhythm())
	assert.Equal(t, 10, exam.Score)
	assert.Equal(t, 35.0, exam.RoscProgress)
	assert.Len(t, exam.Logs, 5)
}

func TestSession_ExamScoreNeverNegative(t *testing.T) {
	s := NewSession(Config{Physiology: DefaultPhysiologyConfig(), Exam: true}, rand.New(rand.NewSource(5)))
	s.StartCase(ArrestCase{Rhythm: Asystole})

	require.NoError(t, s.GiveDrug(Amiodarone))
	assert.Zero(t, s.Exam().Score)
	assert.Zero(t, s.Exam().RoscProgress)
	assert.Error(t, s.GiveDrug(Drug("ATROPINE")))
}

func TestSession_RoscAtThreshold(t *testing.T) {
	s := NewSession(Config{Physiology: DefaultPhysiologyConfig(), Exam: true}, rand.New(rand.NewSource(6)))
	s.StartCase(ArrestCase{Rhythm: VFib})

	for i := 0; i < 4; i++ {
		require.NoError(t, s.GiveDrug(Amiodarone))
	}
	assert.Equal(t, Sinus, s.Rhythm())
	f := s.Step(0.01)
	assert.Contains(t, f.Message, "ROSC")
}

func TestSession_StartCaseResetsState(t *testing.T) {
	s := NewSession(Config{Physiology: DefaultPhysiologyConfig(), Exam: true}, rand.New(rand.NewSource(7)))
	s.SetEnergy(50)
	s.SetCPR(true)
	s.Ventilate()
	stepFor(s, 5)

	c := s.NextCase()
	assert.Equal(t, c.Rhythm, s.Rhythm())
	assert.False(t, s.CPR())
	assert.Equal(t, DefaultEnergy, s.Device().Energy)
	assert.Equal(t, 60.0, s.Physiology().SpO2)
	assert.Zero(t, s.Physiology().RespiratoryRate())
}

func TestGenerateArrestCase(t *testing.T) {
	a := GenerateArrestCase(rand.New(rand.NewSource(42)))
	b := GenerateArrestCase(rand.New(rand.NewSource(42)))
	assert.Equal(t, a, b)

	title := regexp.MustCompile(`^Case #[1-9]\d{2}: Cardiac Arrest$`)
	rng := rand.New(rand.NewSource(9))
	for i := 0; i < 100; i++ {
		c := GenerateArrestCase(rng)
		assert.Regexp(t, title, c.Title)
		assert.Contains(t, []Rhythm{VFib, VTach, PEA, Asystole}, c.Rhythm)
		assert.Equal(t, c.Rhythm.Shockable(), c.Shockable)
		assert.Contains(t, c.Description, "Bystander CPR in progress.")
		if c.Rhythm == PEA {
			assert.Contains(t, c.Prompt, "NO PULSE")
		}
	}
}
