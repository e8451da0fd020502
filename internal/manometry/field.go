package manometry

import (
	"math"

	"github.com/synheart/physiosim/internal/noise"
)

// PressureAt returns the pressure in mmHg at a depth along the probe, t
// seconds after the swallow was triggered. Negative t is the resting state.
// The result depends only on its arguments and is never negative.
func PressureAt(s ScenarioType, depth, t float64, v Variability) float64 {
	prof := ProfileFor(s)
	swallowing := t >= 0 && t <= SwallowDuration
	offset := v.NoiseOffset

	textureIntensity := 1.0
	if prof.Wave == WaveFailed {
		textureIntensity = 0.4
	}
	p := tissueTexture(depth, t, v, textureIntensity)
	p += uesPressure(depth, t, offset, swallowing)
	p += lesPressure(prof, depth, t, v, swallowing)

	if depth > proximalBody-1 && depth < distalBody+1 {
		fade := noise.SmoothFalloff(depth-proximalBody, 1.5, 2) * noise.SmoothFalloff(distalBody-depth, 1.5, 2)
		switch prof.Wave {
		case WaveFailed:
			p = failedBody(depth, t, v, fade, swallowing)
		case WavePanPressurization:
			if swallowing {
				p += panPressurization(depth, t, v, fade)
			}
		case WaveSpastic:
			if swallowing {
				p += spasticBody(prof, depth, t, v) * fade
			}
		case WaveNormal:
			if swallowing {
				p += peristalticWave(prof, depth, t, v) * fade
			}
		}
	}

	p += noise.Organic(depth, t, offset+200, 1.5)
	return math.Max(0, p)
}

// tissueTexture is the always-present background: catheter noise plus mild
// breathing and vascular pulsation.
func tissueTexture(depth, t float64, v Variability, intensity float64) float64 {
	seed := v.seed(0x9E3779B9)
	offset := v.NoiseOffset

	thermal := noise.ValueNoise2D(depth*0.55, t*0.75, seed) * 1.1
	thermal2 := noise.ValueNoise2D(depth*1.35, t*1.9, seed^0x51ED) * 0.7
	breathing := math.Sin(t*0.6+offset*0.03) * 1.1
	vascular := math.Sin(t*2.6+depth*0.14+offset*0.02) * 0.8
	grain := noise.ValueNoise2D(depth*2.2, t*0.25, seed^0xC0FFEE) * 0.9

	total := 4 + breathing + vascular + thermal + thermal2 + grain
	return math.Max(0, total*intensity)
}

// organicGaussian is a Gaussian with a wobbling centre, a noisy width and
// surface texture.
func organicGaussian(x, center, width, amp, depth, t, offset float64) float64 {
	c := center + math.Sin(t*0.5+offset)*0.3
	w := width * (1 + noise.Organic(depth, t, offset, 0.15))
	base := noise.Gaussian(x, c, w, amp)
	texture := noise.Organic(x, t, offset+50, 0.1) * amp * 0.2
	return math.Max(0, base+texture)
}

func uesPressure(depth, t, offset float64, swallowing bool) float64 {
	p := organicGaussian(depth, UESCenter, 1.2, 65, depth, t, offset)
	if !swallowing {
		return p
	}
	const relaxStart, relaxEnd = 0.1, 1.4
	if t > relaxStart && t < relaxEnd {
		progress := noise.SmoothFalloff(t-relaxStart, relaxEnd-relaxStart, 0.4)
		p *= 1 - progress*0.92
	}
	if t > 1.4 && t < 3.0 {
		env := noise.SmoothFalloff(t-1.4, 0.6, 0.4) * noise.SmoothFalloff(3.0-t, 0.8, 0.6)
		p += organicGaussian(depth, UESCenter, 1.0, 45*env, depth, t, offset)
	}
	return p
}

// lesPressure is a stable narrow core with a faint halo, so the sphincter
// reads as a muscular ring rather than distal pressurisation.
func lesPressure(prof Profile, depth, t float64, v Variability, swallowing bool) float64 {
	tone := prof.LESRestingTone
	core := noise.Gaussian(depth, LESCenter, 1.05, (tone+18)*v.AmplitudeMod)
	halo := noise.Gaussian(depth, LESCenter, 2.1, tone*0.22*v.AmplitudeMod)
	shimmer := noise.Organic(depth, t, v.NoiseOffset+401, 0.45)
	p := math.Max(0, core+halo+shimmer)

	if !swallowing || t <= 2 {
		return p
	}
	if prof.LESRelaxes {
		relax := noise.SmoothFalloff(t-2.5, 2, 1.5)
		recovery := 0.0
		if t > 9 {
			recovery = noise.SmoothFalloff(t-9, 4, 3)
		}
		relaxed := p * (1 - relax*0.94)
		recovered := noise.Gaussian(depth, LESCenter, 1.1, (tone+18)*math.Min(1, recovery)*0.85)
		return math.Max(0, relaxed+recovered)
	}
	bolus := noise.Gaussian(t, 6.2, 2.6, 8) * (1 + noise.Organic(depth, t, v.NoiseOffset+77, 0.06))
	return p + bolus
}

// failedBody replaces the body pressure with damped noise.
func failedBody(depth, t float64, v Variability, fade float64, swallowing bool) float64 {
	offset := v.NoiseOffset
	quiet := noise.Organic(depth, t, offset, 2) + 3
	p := tissueTexture(depth, t, v, 0.3) + quiet*fade*0.3
	if swallowing && t > 3 && t < 8 {
		p += math.Max(0, noise.Organic(depth, t, offset, 3)) * fade * 0.2
	}
	return p
}

type pulse struct {
	center, sigma, amp float64
}

var pressurizationPulses = []pulse{
	{3.1, 0.22, 60},
	{4.3, 0.25, 70},
	{5.6, 0.22, 65},
	{6.9, 0.26, 72},
	{8.2, 0.24, 68},
}

// panPressurization builds depth-uniform columns with a distal band and a
// light haze. Nothing travels.
func panPressurization(depth, t float64, v Variability, fade float64) float64 {
	offset := v.NoiseOffset
	p := 0.0
	for _, pl := range pressurizationPulses {
		env := noise.Gaussian(t, pl.center, pl.sigma, 1)
		if env <= 0.03 {
			continue
		}
		depthVar := 1 + noise.Organic(depth, t, offset+pl.center*17, 0.10)
		timeVar := 1 + noise.Organic(depth, t*1.7, offset+33, 0.08)
		p += pl.amp * env * depthVar * timeVar * v.AmplitudeMod * fade
	}

	if t > 2.8 && t < 9.5 {
		window := noise.SmoothFalloff(t-2.8, 1.2, 0.9) * noise.SmoothFalloff(9.5-t, 1.5, 1.2)
		band := organicGaussian(depth, distalBody-0.8, 1.4, 95*window, depth, t, offset+77)
		ripple := (noise.Organic(depth, t, offset+91, 10) + 10) * window
		p += (band + ripple) * fade
	}

	if t > 2.7 && t < 9.8 {
		haze := noise.SmoothFalloff(t-2.7, 1.5, 1.2) * noise.SmoothFalloff(9.8-t, 1.8, 1.4)
		p += (12 + noise.Organic(depth, t, offset, 6)) * haze * fade * 0.25
	}
	return p
}

// spasticBody is a premature, curved, wedge-shaped contraction.
func spasticBody(prof Profile, depth, t float64, v Variability) float64 {
	seed := v.seed(0x3141592)
	onsetJitter := (noise.Hash01(seed^0xA11CE) - 0.5) * 0.6
	ampJitter := 1 + (noise.Hash01(seed^0xBADC0DE)-0.5)*0.26
	start := 2.05 + onsetJitter

	dn := noise.Clamp((depth-proximalBody)/bodyLength, 0, 1)

	speedNoise := noise.ValueNoise1D(dn*9+float64(seed)*0.00001, seed^0x51ED)
	speedFactor := 1 + speedNoise*0.08
	curve := 0.42 * dn * dn
	contour := noise.ValueNoise1D(dn*13+17.3, seed^0xC0FFEE) * 0.10
	proximalJitter := noise.ValueNoise2D(dn*4, t*0.9, seed^0xFACE) * 0.10
	arrival := start + dn*(1.25/speedFactor) + curve + contour + proximalJitter*(1-dn)*0.8

	indent := math.Max(0, noise.ValueNoise1D(dn*7.5+3.1, seed^0xD1E)) * 0.85
	sustain := math.Max(0.8, 0.95+dn*3-indent)
	releaseSoft := 1 + dn*0.6

	onSoft := 2 + (1-dn)*0.35
	on := noise.SmoothFalloff(t-arrival, 2.2, onSoft)
	off := noise.SmoothFalloff(arrival+sustain-t, 2.2, math.Max(2, releaseSoft))
	env := on * off
	if env <= 0.001 {
		return 0
	}
	env *= 1 + noise.ValueNoise2D(depth*0.35, t*1.05, seed^0x777)*0.08
	env = noise.Clamp(env, 0, 1.1)

	interiorBase := (140 + dn*18) * ampJitter
	interior := noise.Clamp(interiorBase+noise.ValueNoise2D(depth*0.9, t*0.7, seed^0x1234)*10, 120, 185)

	ridge := noise.Gaussian(t, arrival, 0.16+dn*0.05, 1)
	ridgeAmp := 55 + dn*20

	cloudA := organicGaussian(depth, 18+noise.ValueNoise2D(depth*0.2, t*0.3, seed^0xAAA)*2, 4.9, 20*env, depth, t, v.NoiseOffset+40)
	cloudB := organicGaussian(depth, 25+noise.ValueNoise2D(depth*0.23, t*0.35, seed^0xBBB)*2.2, 5.8, 26*env, depth, t, v.NoiseOffset+90)

	total := noise.Clamp(interior*env+ridgeAmp*ridge+cloudA+cloudB, 0, 210)
	return math.Min(230, total*prof.ContractileVigor)
}

// peristalticWave is a single wave travelling distally at constant speed,
// weakened in the transition zone.
func peristalticWave(prof Profile, depth, t float64, v Variability) float64 {
	offset := v.NoiseOffset
	speed := 3.2 * prof.WaveSpeed * v.SpeedMod
	center := 2 + (depth-proximalBody)/speed

	wobble := noise.Organic(depth, 0, offset, 0.15)
	dt := t - center - wobble
	width := 0.6 + noise.Organic(depth, t, offset, 0.1)
	env := noise.Gaussian(dt, 0, width, 1)
	if env <= 0.02 {
		return 0
	}

	amp := 80 + noise.Organic(depth, t, offset, 10)
	if tz := math.Abs(depth - TransitionZoneCenter); tz < 4 {
		amp *= 0.35 + noise.SmoothFalloff(tz, 4, 3)*0.65
	}
	amp *= prof.ContractileVigor * v.AmplitudeMod

	shape := env
	if dt > 0 {
		shape *= math.Exp(-dt * 0.6)
	}
	return amp * shape
}
