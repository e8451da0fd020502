package noise

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInt32_Wraps(t *testing.T) {
	tests := []struct {
		in   float64
		want int64
	}{
		{0, 0},
		{1.9, 1},
		{-1.9, -1},
		{4294967297, 1},
		{2147483648, -2147483648},
		{math.NaN(), 0},
		{math.Inf(1), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Int32(tt.in), "Int32(%v)", tt.in)
	}
}

func TestHash01_RangeAndDeterminism(t *testing.T) {
	for n := int64(-5000); n < 5000; n += 7 {
		h := Hash01(n)
		assert.GreaterOrEqual(t, h, 0.0)
		assert.Less(t, h, 1.0)
		assert.Equal(t, h, Hash01(n))
	}
	assert.NotEqual(t, Hash01(1), Hash01(2))
}

func TestHash01_UsesLow32Bits(t *testing.T) {
	assert.Equal(t, Hash01(7), Hash01(7+(1<<32)))
}

func TestValueNoise1D_Bounded(t *testing.T) {
	for x := -50.0; x < 50; x += 0.173 {
		v := ValueNoise1D(x, 0x51ED)
		assert.GreaterOrEqual(t, v, -1.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestValueNoise1D_ContinuousAtLattice(t *testing.T) {
	// Smoothstep makes the value at an integer equal the left hash sample.
	left := ValueNoise1D(3.0, 99)
	almost := ValueNoise1D(3.0-1e-9, 99)
	assert.InDelta(t, left, almost, 1e-6)
}

func TestValueNoise2D_Bounded(t *testing.T) {
	for x := 0.0; x < 10; x += 0.37 {
		for y := 0.0; y < 10; y += 0.41 {
			v := ValueNoise2D(x, y, 0xC0FFEE)
			assert.GreaterOrEqual(t, v, -1.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestSmoothFalloff(t *testing.T) {
	assert.Equal(t, 1.0, SmoothFalloff(5, 4, 2))
	assert.Equal(t, 0.0, SmoothFalloff(1, 4, 2))
	assert.InDelta(t, 0.5, SmoothFalloff(3, 4, 2), 1e-12)
	assert.Equal(t, 0.0, SmoothFalloff(3, 4, 0))
}

func TestOrganic_ScaleIsLinear(t *testing.T) {
	a := Organic(12.5, 3.3, 41, 1)
	b := Organic(12.5, 3.3, 41, 2.5)
	assert.InDelta(t, a*2.5, b, 1e-12)
}

func TestGaussian_PeakAtCenter(t *testing.T) {
	assert.Equal(t, 7.0, Gaussian(31, 31, 1.05, 7))
	assert.InDelta(t, 7*math.Exp(-0.5), Gaussian(32.05, 31, 1.05, 7), 1e-12)
}
