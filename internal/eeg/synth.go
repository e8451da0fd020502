package eeg

import (
	"math"
	"math/rand"
)

// SampleRate is the nominal sampling rate; a channel's counter advances by
// one per sample at normal speed.
const SampleRate = 200

const twoPi = 2 * math.Pi

// Point is one EEG sample in microvolts. Pattern marks samples that belong to
// the diagnostic feature of the state and is informational only.
type Point struct {
	Value   float64 `json:"value"`
	Pattern bool    `json:"pattern"`
}

// Sample synthesises one sample of a channel. counter is the channel's sample
// counter; rng supplies the white-noise and chaos terms.
func Sample(counter float64, state BrainState, channelID string, rng *rand.Rand) Point {
	cfg := ConfigFor(state)
	t := counter / SampleRate

	var first float64
	if channelID != "" {
		first = float64(channelID[0])
	}
	drift := math.Sin(twoPi*0.5*t+first) * 3
	signal := drift + (rng.Float64()-0.5)*cfg.NoiseFloor
	pattern := false

	switch state {
	case AwakeEyesOpen:
		beta1 := math.Sin(twoPi * cfg.BaseFreq * t)
		beta2 := math.Sin(twoPi*(cfg.BaseFreq+7)*t + 1)
		signal += (beta1 + beta2*0.5) * cfg.Amplitude
		signal += (rng.Float64() - 0.5) * 4 // EMG

	case AwakeEyesClosed:
		amp := cfg.Amplitude
		switch {
		case posteriorChannels.has(channelID):
			amp *= 1.4
			pattern = true
		case frontalChannels.has(channelID):
			amp *= 0.3
		}
		envelope := 0.7 + 0.4*math.Sin(twoPi*0.2*t)
		wobble := math.Sin(t) * 0.5
		signal += math.Sin(twoPi*(cfg.BaseFreq+wobble)*t) * amp * envelope

	case Drowsy:
		signal += math.Sin(twoPi*cfg.BaseFreq*t) * cfg.Amplitude
		if math.Sin(twoPi*0.1*t) > 0.7 {
			signal += math.Sin(twoPi*10*t) * 15 // alpha burst
		}

	case DeepSleep:
		delta1 := math.Sin(twoPi * cfg.BaseFreq * t)
		delta2 := math.Sin(twoPi*(cfg.BaseFreq+0.8)*t + 2)
		signal += (delta1 + delta2*0.6) * cfg.Amplitude
		if math.Sin(twoPi*0.2*t) > 0.8 {
			signal += math.Sin(twoPi*14*t) * 10 // spindle
		}

	case SeizurePetitMal:
		cycle := math.Mod(t*3, 1)
		switch {
		case cycle < 0.12:
			signal -= math.Sin(cycle/0.12*math.Pi) * cfg.Amplitude * 1.5
			pattern = true
		case cycle < 0.20:
			signal += math.Sin((cycle-0.12)/0.08*math.Pi) * cfg.Amplitude * 0.5
			pattern = true
		default:
			signal += math.Sin((cycle-0.20)/0.80*math.Pi) * cfg.Amplitude * 0.8
		}

	case SeizureGrandMal:
		spikes := math.Sin(twoPi * 15 * t)
		swell := math.Sin(twoPi * 1.5 * t)
		chaos := (rng.Float64() - 0.5) * 2
		emg := math.Sin(twoPi*50*t) * 0.2
		signal += (spikes + swell*0.5 + chaos + emg) * cfg.Amplitude
		pattern = true

	case ArtifactBlink:
		signal += math.Sin(twoPi*10*t) * 10
		signal += (rng.Float64() - 0.5) * 5
		if blinkChannels.has(channelID) {
			cycle := math.Mod(t*0.3, 1)
			if cycle > 0.4 && cycle < 0.6 {
				x := (cycle - 0.5) * 15
				eye := 250.0
				if farBlinkChannels.has(channelID) {
					eye = 100
				}
				signal += math.Exp(-x*x) * eye
				pattern = true
			}
		}
	}

	return Point{Value: signal, Pattern: pattern}
}

// Channel is the phase state of one electrode. Channels never share phase,
// but a channel is not safe for concurrent use.
type Channel struct {
	ID      string
	rng     *rand.Rand
	counter float64
	last    Point
}

// NewChannel creates a channel whose counter starts at a random offset, so
// channels of one montage are slightly out of phase.
func NewChannel(id string, rng *rand.Rand) *Channel {
	return &Channel{ID: id, rng: rng, counter: rng.Float64() * 1000}
}

// Next advances the counter by speed samples and returns the new sample.
func (c *Channel) Next(state BrainState, speed float64) Point {
	if speed > 0 {
		c.counter += speed
	}
	c.last = Sample(c.counter, state, c.ID, c.rng)
	return c.last
}

// Counter returns the sample counter. It never decreases.
func (c *Channel) Counter() float64 { return c.counter }

// Last returns the most recent sample.
func (c *Channel) Last() Point { return c.last }

// Montage drives a set of channels in lockstep.
type Montage struct {
	Channels []*Channel
}

// NewMontage creates one channel per ID. An empty list uses the full montage.
func NewMontage(ids []string, rng *rand.Rand) *Montage {
	if len(ids) == 0 {
		ids = ElectrodeIDs()
	}
	m := &Montage{Channels: make([]*Channel, len(ids))}
	for i, id := range ids {
		m.Channels[i] = NewChannel(id, rng)
	}
	return m
}

// Next returns one sample per channel, in channel order.
func (m *Montage) Next(state BrainState, speed float64) []Point {
	out := make([]Point, len(m.Channels))
	for i, c := range m.Channels {
		out[i] = c.Next(state, speed)
	}
	return out
}
