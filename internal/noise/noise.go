// Package noise provides deterministic, seedable noise primitives shared by the
// waveform synthesizers. Nothing here touches a global random source, so the
// same inputs always produce the same output.
package noise

import "math"

const twoPow32 = 4294967296

// Int32 truncates x toward zero and wraps it into the signed 32-bit range.
// NaN and infinities map to 0.
func Int32(x float64) int64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	t := math.Mod(math.Trunc(x), twoPow32)
	return int64(int32(uint32(int64(t))))
}

// Hash01 maps an integer to [0, 1) using a 32-bit integer avalanche mix.
func Hash01(n int64) float64 {
	x := uint32(n)
	x += 0x6D2B79F5
	x = (x ^ (x >> 15)) * (1 | x)
	x ^= x + (x^(x>>7))*(61|x)
	return float64(x^(x>>14)) / twoPow32
}

// Lerp interpolates linearly between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Smoothstep is the cubic Hermite ease 3t²-2t³.
func Smoothstep(t float64) float64 {
	return t * t * (3 - 2*t)
}

// ValueNoise1D returns smooth value noise in [-1, 1].
func ValueNoise1D(x float64, seed int64) float64 {
	xi := math.Floor(x)
	t := Smoothstep(x - xi)
	a := Hash01(Int32(xi*374761393) ^ seed)
	b := Hash01(Int32((xi+1)*374761393) ^ seed)
	return Lerp(a, b, t)*2 - 1
}

// ValueNoise2D mixes two decorrelated 1D noises into a 2D field in [-1, 1].
func ValueNoise2D(x, y float64, seed int64) float64 {
	nx := ValueNoise1D(x+y*0.37, seed^0xA2C2A)
	ny := ValueNoise1D(y-x*0.23, seed^0xB3D11)
	return 0.6*nx + 0.4*ny
}

// Organic sums five incommensurate sinusoids over depth and time.
func Organic(d, t, offset, scale float64) float64 {
	n1 := math.Sin(d*0.5+t*0.3+offset) * 0.4
	n2 := math.Sin(d*1.2+t*0.7+offset*1.3) * 0.25
	n3 := math.Sin(d*2.5+t*1.1+offset*0.7) * 0.15
	n4 := math.Sin(d*0.3-t*0.5+offset*2.1) * 0.35
	n5 := math.Cos(d*0.8+t*0.4-offset) * 0.3
	return (n1 + n2 + n3 + n4 + n5) * scale
}

// SmoothFalloff ramps from 0 at edge-softness to 1 at edge with a cubic ease.
func SmoothFalloff(value, edge, softness float64) float64 {
	if value >= edge {
		return 1
	}
	if softness <= 0 || value <= edge-softness {
		return 0
	}
	t := (value - (edge - softness)) / softness
	return Smoothstep(t)
}

// Gaussian is amp·exp(-½((x-center)/width)²).
func Gaussian(x, center, width, amp float64) float64 {
	z := (x - center) / width
	return amp * math.Exp(-0.5*z*z)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
