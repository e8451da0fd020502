package manometry

import (
	"fmt"
	"math"
)

// RGB is an 8-bit colour.
type RGB [3]uint8

// Hex formats the colour as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

// ColorStop anchors a colour to a pressure.
type ColorStop struct {
	Pressure float64
	Color    RGB
}

// ColorStops is the clinical heat-map scale: blues at rest, green for
// pressurisation, red for strong contraction, white at saturation.
var ColorStops = []ColorStop{
	{-10, RGB{0, 0, 20}},
	{0, RGB{0, 0, 60}},
	{8, RGB{0, 20, 140}},
	{18, RGB{0, 80, 200}},
	{28, RGB{0, 180, 220}},
	{38, RGB{0, 220, 160}},
	{48, RGB{0, 255, 80}},
	{60, RGB{120, 255, 0}},
	{75, RGB{255, 255, 0}},
	{95, RGB{255, 180, 0}},
	{115, RGB{255, 110, 0}},
	{135, RGB{255, 40, 0}},
	{170, RGB{255, 0, 0}},
	{220, RGB{255, 0, 0}},
	{300, RGB{255, 140, 140}},
	{400, RGB{255, 255, 255}},
}

// ColorFor maps a pressure to the heat-map colour by linear interpolation
// between stops. Pressures outside the scale saturate.
func ColorFor(pressure float64) RGB {
	first, last := ColorStops[0], ColorStops[len(ColorStops)-1]
	if math.IsNaN(pressure) || pressure <= first.Pressure {
		return first.Color
	}
	if pressure >= last.Pressure {
		return last.Color
	}
	for i := 0; i < len(ColorStops)-1; i++ {
		a, b := ColorStops[i], ColorStops[i+1]
		if pressure < a.Pressure || pressure > b.Pressure {
			continue
		}
		t := (pressure - a.Pressure) / (b.Pressure - a.Pressure)
		var out RGB
		for k := range out {
			out[k] = uint8(math.Round(float64(a.Color[k]) + (float64(b.Color[k])-float64(a.Color[k]))*t))
		}
		return out
	}
	return RGB{}
}
