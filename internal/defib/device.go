package defib

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNotCharged is returned when a shock is requested without a full charge.
	ErrNotCharged = errors.New("defibrillator not charged")
	// ErrBusy is returned when a timed device cycle is already running.
	ErrBusy = errors.New("device busy")
)

// ChargeState is the capacitor state.
type ChargeState string

const (
	ChargeIdle       ChargeState = "IDLE"
	ChargeCharging   ChargeState = "CHARGING"
	ChargeCharged    ChargeState = "CHARGED"
	ChargeDischarged ChargeState = "DISCHARGED"
)

// NIBPState is the non-invasive blood pressure cuff cycle.
type NIBPState string

const (
	NIBPIdle      NIBPState = "IDLE"
	NIBPInflating NIBPState = "INFLATING"
	NIBPMeasuring NIBPState = "MEASURING"
	NIBPComplete  NIBPState = "COMPLETE"
)

// Device timings in seconds and limits.
const (
	ChargeDuration      = 3.0
	FlashDuration       = 0.3
	NIBPInflateDuration = 2.0
	NIBPMeasureDuration = 3.0

	MinEnergy        = 2
	MaxEnergy        = 360
	DefaultEnergy    = 200
	ConversionEnergy = 120

	MinPacerRate     = 30
	MaxPacerRate     = 180
	MaxPacerCurrent  = 140
	DefaultPacerRate = 70
)

// Device is the defibrillator hardware state. Timed cycles resolve against
// simulated deadlines in Advance; the most recent command always wins.
type Device struct {
	Energy      int         `json:"energy"`
	Charge      ChargeState `json:"charge"`
	Flash       bool        `json:"flash"`
	Sync        bool        `json:"sync"`
	Pacer       PacerState  `json:"pacer"`
	NIBP        NIBPState   `json:"nibp"`
	NIBPReading string      `json:"nibp_reading"`

	chargeDoneAt  float64
	flashDoneAt   float64
	nibpMeasureAt float64
	nibpDoneAt    float64
}

// NewDevice returns a device at power-on defaults.
func NewDevice() *Device {
	return &Device{
		Energy:      DefaultEnergy,
		Charge:      ChargeIdle,
		Pacer:       PacerState{Rate: DefaultPacerRate},
		NIBP:        NIBPIdle,
		NIBPReading: "--/--",
	}
}

// AdjustEnergy changes the selected energy. Changing energy dumps a held charge.
func (d *Device) AdjustEnergy(delta int) {
	d.SetEnergy(d.Energy + delta)
}

// SetEnergy selects an absolute energy, clamped to the device range.
func (d *Device) SetEnergy(joules int) {
	switch {
	case joules < MinEnergy:
		joules = MinEnergy
	case joules > MaxEnergy:
		joules = MaxEnergy
	}
	d.Energy = joules
	if d.Charge == ChargeCharged {
		d.Charge = ChargeIdle
	}
}

// StartCharge begins charging the capacitor.
func (d *Device) StartCharge(now float64) error {
	if d.Charge != ChargeIdle {
		return fmt.Errorf("%w: charge state %s", ErrBusy, d.Charge)
	}
	d.Charge = ChargeCharging
	d.chargeDoneAt = now + ChargeDuration
	return nil
}

// Discharge delivers the held charge.
func (d *Device) Discharge(now float64) error {
	if d.Charge != ChargeCharged {
		return ErrNotCharged
	}
	d.Charge = ChargeDischarged
	d.Flash = true
	d.flashDoneAt = now + FlashDuration
	return nil
}

// TogglePacer switches pacing on or off.
func (d *Device) TogglePacer() {
	d.Pacer.Enabled = !d.Pacer.Enabled
}

// SetPacer sets rate and current, clamped to the device range.
func (d *Device) SetPacer(rate, current float64) {
	d.Pacer.Rate = math.Max(MinPacerRate, math.Min(MaxPacerRate, rate))
	d.Pacer.Current = math.Max(0, math.Min(MaxPacerCurrent, current))
}

// AdjustPacer nudges rate and current.
func (d *Device) AdjustPacer(rateDelta, currentDelta float64) {
	d.SetPacer(d.Pacer.Rate+rateDelta, d.Pacer.Current+currentDelta)
}

// StartNIBP begins a cuff cycle.
func (d *Device) StartNIBP(now float64) error {
	if d.NIBP != NIBPIdle && d.NIBP != NIBPComplete {
		return fmt.Errorf("%w: cuff %s", ErrBusy, d.NIBP)
	}
	d.NIBP = NIBPInflating
	d.nibpMeasureAt = now + NIBPInflateDuration
	return nil
}

// Advance resolves every timed cycle whose deadline has passed. sys and dia
// are the current arterial pressures, captured when a cuff cycle completes.
func (d *Device) Advance(now, sys, dia float64) {
	if d.Charge == ChargeCharging && now >= d.chargeDoneAt {
		d.Charge = ChargeCharged
	}
	if d.Charge == ChargeDischarged && now >= d.flashDoneAt {
		d.Charge = ChargeIdle
		d.Flash = false
	}
	if d.NIBP == NIBPInflating && now >= d.nibpMeasureAt {
		d.NIBP = NIBPMeasuring
		d.nibpDoneAt = d.nibpMeasureAt + NIBPMeasureDuration
	}
	if d.NIBP == NIBPMeasuring && now >= d.nibpDoneAt {
		d.NIBP = NIBPComplete
		s, di := int(math.Round(sys)), int(math.Round(dia))
		if s < 20 {
			d.NIBPReading = "---/---"
		} else {
			d.NIBPReading = fmt.Sprintf("%d/%d", s, di)
		}
	}
}

// ResetForCase returns the device to the state used at the start of a case.
func (d *Device) ResetForCase() {
	d.Charge = ChargeIdle
	d.Flash = false
	d.Energy = DefaultEnergy
	d.Sync = false
	d.NIBP = NIBPIdle
	d.NIBPReading = "--/--"
}
