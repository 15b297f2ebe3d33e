package util

import (
	"math"
	"math/rand"

	"github.com/fogleman/ease"
)

// RandomiseSaturation draws a saturation in [min, max) from rng.
func RandomiseSaturation(rng *rand.Rand, min float64, max float64) float64 {
	return rng.Float64()*(max-min) + min
}

// GenerateLut builds a rise-then-fall gain table eased with InOutQuad.
func GenerateLut(length int) []float64 {
	increment := 1.0 / float64(length/2)
	lut := make([]float64, length)
	for i, j := 0, length-1; i < length/2; i, j = i+1, j-1 {
		value := float64(i) * increment
		lut[i] = ease.InOutQuad(value)
		lut[j] = ease.InOutQuad(value)
	}
	return lut
}

// Falloff maps a normalised distance to a gain: 1 at the centre easing down to
// 0 at a distance of 1 and beyond.
func Falloff(distance float64) float64 {
	distance = math.Abs(distance)
	if distance >= 1 {
		return 0
	}
	return ease.InOutQuad(1 - distance)
}
