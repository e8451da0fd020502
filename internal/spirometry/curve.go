package spirometry

import "math"

const (
	expiratorySteps  = 100
	inspiratorySteps = 50
	minFlow          = 0.1
	riseFraction     = 0.10
	inspiratoryPeak  = 0.7
	// minVolume floors the volume denominators of the expiratory limb.
	minVolume        = 1e-9
)

// Point is one curve sample. Time is only set on volume-time curves.
type Point struct {
	Volume float64 `json:"volume"`
	Flow   float64 `json:"flow"`
	Time   float64 `json:"time,omitempty"`
}

// Curves is one forced manoeuvre.
type Curves struct {
	FlowVolume []Point `json:"flow_volume"`
	VolumeTime []Point `json:"volume_time"`
}

// exponent shapes the descending limb: above 1 scoops it, below 1 bows it
// outward.
func exponent(d Diagnosis) float64 {
	switch d {
	case Obstructive:
		return 3.5
	case Restrictive:
		return 0.8
	case Mixed:
		return 2.5
	}
	return 1
}

// GenerateCurves builds the flow-volume loop and the volume-time curve of a
// manoeuvre. Expiration rises linearly to peak flow over the first tenth of
// the volume and decays as a power of the remaining volume. Time is
// integrated along the expiratory limb. The inspiratory limb is a parabola
// back to residual volume and closes the loop.
func GenerateCurves(fvc, pef float64, d Diagnosis) Curves {
	k := exponent(d)
	rise := math.Max(fvc*riseFraction, minVolume)
	decay := math.Max(fvc-rise, minVolume)

	fv := make([]Point, 0, expiratorySteps+inspiratorySteps+3)
	vt := make([]Point, 0, expiratorySteps+1)
	elapsed := 0.0

	for i := 0; i <= expiratorySteps; i++ {
		v := float64(i) / expiratorySteps * fvc
		var flow float64
		if v < rise {
			flow = v / rise * pef
		} else {
			flow = pef * math.Pow((fvc-v)/decay, k)
		}
		flow = math.Max(minFlow, flow)

		if i > 0 {
			prev := fv[i-1]
			elapsed += (v - prev.Volume) / ((flow + prev.Flow) / 2)
		}
		fv = append(fv, Point{Volume: v, Flow: flow})
		vt = append(vt, Point{Volume: v, Flow: flow, Time: elapsed})
	}

	pif := pef * inspiratoryPeak
	for i := 0; i <= inspiratorySteps; i++ {
		v := fvc - float64(i)/inspiratorySteps*fvc
		n := 0.0
		if fvc != 0 {
			n = v / fvc
		}
		fv = append(fv, Point{Volume: v, Flow: -pif * 4 * n * (1 - n)})
	}
	fv = append(fv, fv[0])

	return Curves{FlowVolume: fv, VolumeTime: vt}
}

// VolumeAt interpolates the exhaled volume at time t on a volume-time curve.
func VolumeAt(vt []Point, t float64) float64 {
	if len(vt) == 0 {
		return 0
	}
	if t <= vt[0].Time {
		return vt[0].Volume
	}
	for i := 1; i < len(vt); i++ {
		if t <= vt[i].Time {
			a, b := vt[i-1], vt[i]
			return a.Volume + (b.Volume-a.Volume)*(t-a.Time)/(b.Time-a.Time)
		}
	}
	return vt[len(vt)-1].Volume
}

// FlowAt interpolates the expiratory flow at time t on a volume-time curve.
// Flow is zero outside the manoeuvre.
func FlowAt(vt []Point, t float64) float64 {
	if len(vt) == 0 || t < vt[0].Time || t > vt[len(vt)-1].Time {
		return 0
	}
	for i := 1; i < len(vt); i++ {
		if t <= vt[i].Time {
			a, b := vt[i-1], vt[i]
			return a.Flow + (b.Flow-a.Flow)*(t-a.Time)/(b.Time-a.Time)
		}
	}
	return vt[len(vt)-1].Flow
}

// Duration returns the length of the expiratory manoeuvre in seconds.
func Duration(vt []Point) float64 {
	if len(vt) == 0 {
		return 0
	}
	return vt[len(vt)-1].Time
}
