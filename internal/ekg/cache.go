package ekg

import (
	"math"
	"sort"
)

// SampleRate is the resolution of the cached beat buffers in Hz.
const SampleRate = 2000

// Measurements are the interval anchors of a beat, in seconds relative to the
// beat center. Timings come from lead II; STVoltage is local to each lead.
type Measurements struct {
	PStart    float64 `json:"p_start,omitempty"`
	QRSStart  float64 `json:"qrs_start,omitempty"`
	QRSEnd    float64 `json:"qrs_end,omitempty"`
	TEnd      float64 `json:"t_end,omitempty"`
	JPoint    float64 `json:"j_point,omitempty"`
	STVoltage float64 `json:"st_voltage,omitempty"`

	HasP   bool `json:"-"`
	HasQRS bool `json:"-"`
	HasT   bool `json:"-"`
	HasJ   bool `json:"-"`
	HasST  bool `json:"-"`
}

// PR returns the PR interval in milliseconds.
func (m Measurements) PR() (float64, bool) {
	if !m.HasP {
		return 0, false
	}
	return (m.QRSStart - m.PStart) * 1000, true
}

// QRS returns the QRS duration in milliseconds.
func (m Measurements) QRS() (float64, bool) {
	if !m.HasQRS {
		return 0, false
	}
	return (m.QRSEnd - m.QRSStart) * 1000, true
}

// QT returns the QT interval in milliseconds.
func (m Measurements) QT() (float64, bool) {
	if !m.HasT {
		return 0, false
	}
	return (m.TEnd - m.QRSStart) * 1000, true
}

// BeatCache holds one precomputed cardiac cycle per lead for a case. The
// buffers are rebuilt by every method that changes the case, so they are
// never stale.
type BeatCache struct {
	c            Case
	beat         float64
	buffers      map[Lead][]float64
	measurements map[Lead]Measurements
}

// NewBeatCache builds the cache for a case.
func NewBeatCache(c Case) *BeatCache {
	b := &BeatCache{}
	b.SetCase(c)
	return b
}

// SetCase replaces the case and rebuilds every buffer.
func (b *BeatCache) SetCase(c Case) {
	b.c = c.Clone()
	b.rebuild()
}

// SetHeartRate changes the rate and rebuilds every buffer.
func (b *BeatCache) SetHeartRate(bpm int) {
	b.c.HeartRate = bpm
	b.rebuild()
}

// Case returns a copy of the cached case.
func (b *BeatCache) Case() Case { return b.c.Clone() }

// BeatDuration returns the length of one cycle in seconds.
func (b *BeatCache) BeatDuration() float64 { return b.beat }

// Buffer returns the cached cycle of a lead. Callers must not modify it.
func (b *BeatCache) Buffer(l Lead) []float64 { return b.buffers[l] }

// Measurements returns the anchors of a lead.
func (b *BeatCache) Measurements(l Lead) Measurements { return b.measurements[l] }

// leadSource says where a lead's samples come from.
type leadSource int

const (
	fromWaves leadSource = iota
	fromDerivation
)

// sourceOf is the merge rule: an explicit override always wins, limb leads
// without one are derived from I and II, every other lead is drawn from its
// base waves.
func sourceOf(c Case, l Lead) leadSource {
	if _, ok := c.Overrides[l]; ok {
		return fromWaves
	}
	if l.Derived() {
		return fromDerivation
	}
	return fromWaves
}

func (b *BeatCache) rebuild() {
	hr := b.c.HeartRate
	if hr < 1 {
		hr = 1
	}
	b.beat = 60 / float64(hr)
	n := int(math.Floor(b.beat * SampleRate))

	b.buffers = make(map[Lead][]float64, len(Leads))
	render := func(waves []WaveComponent) []float64 {
		buf := make([]float64, n)
		if len(waves) == 0 {
			return buf
		}
		for i := range buf {
			t := float64(i)/SampleRate - b.beat/2
			buf[i] = Voltage(t, waves)
		}
		return buf
	}

	// I and II first: the derived leads need them.
	b.buffers[LeadI] = render(b.c.Waves(LeadI))
	b.buffers[LeadII] = render(b.c.Waves(LeadII))

	for _, l := range Leads {
		if l == LeadI || l == LeadII {
			continue
		}
		switch sourceOf(b.c, l) {
		case fromWaves:
			b.buffers[l] = render(b.c.Waves(l))
		case fromDerivation:
			bi, bii := b.buffers[LeadI], b.buffers[LeadII]
			buf := make([]float64, n)
			for i := range buf {
				buf[i] = Derive(l, bi[i], bii[i])
			}
			b.buffers[l] = buf
		}
	}

	b.measure(n)
}

func (b *BeatCache) measure(n int) {
	master := masterTimings(b.c.Waves(LeadII))

	b.measurements = make(map[Lead]Measurements, len(Leads))
	for _, l := range Leads {
		m := master
		if m.HasJ {
			st := m.JPoint + 0.06
			idx := int(math.Floor(((st + b.beat/2) / b.beat) * float64(n)))
			if buf := b.buffers[l]; idx >= 0 && idx < len(buf) {
				m.STVoltage = buf[idx]
				m.HasST = true
			}
		}
		b.measurements[l] = m
	}
}

// masterTimings locates P, QRS and T on the significant components of a
// lead, using fixed multiples of each component's width as its edges.
func masterTimings(waves []WaveComponent) Measurements {
	var m Measurements
	if len(waves) == 0 {
		return m
	}

	sorted := cloneWaves(waves)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Center < sorted[j].Center })
	significant := sorted[:0]
	for _, w := range sorted {
		if math.Abs(w.Amplitude) > 0.02 {
			significant = append(significant, w)
		}
	}

	var p, qrsFirst, qrsLast, t *WaveComponent
	for i := range significant {
		w := &significant[i]
		if p == nil && w.Center < -0.09 {
			p = w
		}
		if qrsFirst == nil && w.Center >= -0.09 && w.Center < 0 {
			qrsFirst = w
		}
	}
	for i := len(significant) - 1; i >= 0; i-- {
		w := &significant[i]
		if qrsLast == nil && w.Center >= -0.09 && w.Center < 0.12 {
			qrsLast = w
		}
		if t == nil && w.Center >= 0.12 {
			t = w
		}
	}

	if qrsFirst != nil {
		m.QRSStart = qrsFirst.Center - 2.0*qrsFirst.Width
		m.QRSEnd = qrsLast.Center + 2.0*qrsLast.Width
		m.HasQRS = true
		if p != nil {
			m.PStart = p.Center - 2.2*p.Width
			m.HasP = true
		}
		if t != nil {
			m.TEnd = t.Center + 2.5*t.Width
			m.HasT = true
		}
	}
	if qrsLast != nil {
		m.JPoint = qrsLast.Center + 2.0*qrsLast.Width
		m.HasJ = true
	}
	return m
}

// CleanVoltageAt returns the cached voltage of a lead at absolute time t,
// without tremor noise.
func (b *BeatCache) CleanVoltageAt(t float64, l Lead) float64 {
	buf := b.buffers[l]
	if len(buf) == 0 {
		return 0
	}
	inBeat := math.Mod(t, b.beat) - b.beat/2
	idx := int(math.Floor(((inBeat + b.beat/2) / b.beat) * float64(len(buf))))
	if idx < 0 || idx >= len(buf) {
		return 0
	}
	return buf[idx]
}

// VoltageAt returns the voltage of a lead at absolute time t, in millivolts.
func (b *BeatCache) VoltageAt(t float64, l Lead) float64 {
	return b.CleanVoltageAt(t, l) + Noise(t, l)
}
