package models

import (
	"strings"
	"time"

	"github.com/synheart/physiosim/internal/defib"
	"github.com/synheart/physiosim/internal/eeg"
	"github.com/synheart/physiosim/internal/manometry"
)

// CommandType names a discrete intervention.
type CommandType string

const (
	CmdRhythm     CommandType = "rhythm"
	CmdCPR        CommandType = "cpr"
	CmdVentilate  CommandType = "ventilate"
	CmdDrug       CommandType = "drug"
	CmdCharge     CommandType = "charge"
	CmdShock      CommandType = "shock"
	CmdEnergy     CommandType = "energy"
	CmdSync       CommandType = "sync"
	CmdPacer      CommandType = "pacer"
	CmdNIBP       CommandType = "nibp"
	CmdNextCase   CommandType = "next_case"
	CmdHeartRate  CommandType = "heart_rate"
	CmdBrainState CommandType = "brain_state"
	CmdSwallow    CommandType = "swallow"
	CmdManometry  CommandType = "manometry"
	CmdReset      CommandType = "reset"
)

// CommandTypes lists every accepted command type.
var CommandTypes = []CommandType{
	CmdRhythm, CmdCPR, CmdVentilate, CmdDrug, CmdCharge, CmdShock, CmdEnergy, CmdSync,
	CmdPacer, CmdNIBP, CmdNextCase, CmdHeartRate, CmdBrainState, CmdSwallow, CmdManometry, CmdReset,
}

// Command is a discrete intervention sent through the control API
type Command struct {
	ID      string      `json:"id"`
	Type    CommandType `json:"type"`
	Value   string      `json:"value,omitempty"`
	Energy  int         `json:"energy,omitempty"`
	Rate    float64     `json:"rate,omitempty"`
	Current float64     `json:"current,omitempty"`
	Rhythm  string      `json:"rhythm,omitempty"`
}

// On reports whether the value switches something on. Empty means on.
func (c *Command) On() bool {
	switch strings.ToLower(strings.TrimSpace(c.Value)) {
	case "off", "stop", "false", "0":
		return false
	}
	return true
}

// Validate checks the command fields required by its type
func (c *Command) Validate() error {
	if c.ID == "" {
		return &ValidationError{Field: "id", Message: "is required"}
	}

	known := false
	for _, t := range CommandTypes {
		if c.Type == t {
			known = true
			break
		}
	}
	if !known {
		return &ValidationError{Field: "type", Message: "unknown command type '" + string(c.Type) + "'"}
	}

	switch c.Type {
	case CmdRhythm:
		r := c.Rhythm
		if r == "" {
			r = c.Value
		}
		if _, err := defib.ParseRhythm(r); err != nil {
			return &ValidationError{Field: "rhythm", Message: "must be one of SINUS, BRADYCARDIA, VTACH, VFIB, ASYSTOLE, PEA"}
		}
	case CmdCPR:
		switch strings.ToLower(c.Value) {
		case "", "on", "off", "start", "stop", "true", "false":
		default:
			return &ValidationError{Field: "value", Message: "must be 'on' or 'off'"}
		}
	case CmdDrug:
		if _, ok := ParseDrug(c.Value); !ok {
			return &ValidationError{Field: "value", Message: "must be 'EPI' or 'AMIO'"}
		}
	case CmdEnergy:
		if c.Energy < defib.MinEnergy || c.Energy > defib.MaxEnergy {
			return &ValidationError{Field: "energy", Message: "must be between 2 and 360 joules"}
		}
	case CmdPacer:
		if c.Rate != 0 && (c.Rate < defib.MinPacerRate || c.Rate > defib.MaxPacerRate) {
			return &ValidationError{Field: "rate", Message: "must be between 30 and 180 ppm"}
		}
		if c.Current < 0 || c.Current > defib.MaxPacerCurrent {
			return &ValidationError{Field: "current", Message: "must be between 0 and 140 mA"}
		}
	case CmdHeartRate:
		if c.Rate <= 0 || c.Rate > 300 {
			return &ValidationError{Field: "rate", Message: "must be between 1 and 300 bpm"}
		}
	case CmdBrainState:
		if _, err := eeg.ParseBrainState(c.Value); err != nil {
			return &ValidationError{Field: "value", Message: "unknown brain state '" + c.Value + "'"}
		}
	case CmdManometry:
		if _, err := manometry.ParseScenario(c.Value); err != nil {
			return &ValidationError{Field: "value", Message: "unknown manometry scenario '" + c.Value + "'"}
		}
	}
	return nil
}

// ParseDrug maps a drug value to the defibrillator drug.
func ParseDrug(s string) (defib.Drug, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "EPI", "EPINEPHRINE":
		return defib.Epinephrine, true
	case "AMIO", "AMIODARONE":
		return defib.Amiodarone, true
	}
	return "", false
}

// ValidationError represents a command validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// CommandReceipt acknowledges a command accepted by the control API
type CommandReceipt struct {
	CommandID  string      `json:"command_id"`
	Type       CommandType `json:"type"`
	ReceivedAt string      `json:"received_at"`
	Queued     bool        `json:"queued"`
	Duplicate  bool        `json:"duplicate,omitempty"`
}

// NewCommandReceipt creates a receipt. Duplicates are acknowledged but
// never queued again.
func NewCommandReceipt(cmd *Command, duplicate bool) CommandReceipt {
	return CommandReceipt{
		CommandID:  cmd.ID,
		Type:       cmd.Type,
		ReceivedAt: time.Now().UTC().Format(time.RFC3339),
		Queued:     !duplicate,
		Duplicate:  duplicate,
	}
}
