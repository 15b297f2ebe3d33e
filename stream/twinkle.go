package stream

import (
	"math/rand"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/matt-g-everett/ledmagnet/frame"
	"github.com/matt-g-everett/ledmagnet/util"
)

type twinkleParticle struct {
	colour colorful.Color
	offset int
}

// A Twinkle is an Animation that pulses random particles over a background.
type Twinkle struct {
	numParticles int
	foreColour   colorful.Color
	backColour   colorful.Color
	rng          *rand.Rand
	lut          []float64
	step         int

	particles map[int]twinkleParticle
}

// NewTwinkle creates an instance of a Twinkle object.
func NewTwinkle(numParticles int, foreColour, backColour colorful.Color, seed int64) *Twinkle {
	t := new(Twinkle)
	t.numParticles = numParticles
	t.foreColour = foreColour
	t.backColour = backColour
	t.rng = rand.New(rand.NewSource(seed))
	t.lut = util.GenerateLut(60)

	return t
}

// Render paints the particles, placing them on the first frame.
func (t *Twinkle) Render(f *Frame, _ frame.Info) {
	numPixels := f.Len()
	if t.particles == nil {
		t.particles = make(map[int]twinkleParticle)
		h, _, l := t.foreColour.Hcl()
		for i := 0; i < t.numParticles; i++ {
			t.particles[t.rng.Intn(numPixels)] = twinkleParticle{
				colour: colorful.Hcl(h, util.RandomiseSaturation(t.rng, 0.2, 0.6), l),
				offset: t.rng.Intn(len(t.lut)),
			}
		}
	}

	for i := 0; i < numPixels; i++ {
		p, found := t.particles[i]
		if !found {
			f.pixels[i] = t.backColour
			continue
		}

		gain := t.lut[(p.offset+t.step)%len(t.lut)]
		f.pixels[i] = t.backColour.BlendHcl(p.colour, 0.3+0.7*gain).Clamped()
	}

	t.step++
}
