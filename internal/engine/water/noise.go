package water

import "github.com/ojrac/opensimplex-go"

const (
	noiseOctaves   = 15
	noiseFrequency = 0.025
	noiseScale     = 128.0
)

// fractalNoise sums octaves of simplex noise. Each octave raises the
// frequency by 1.25 and scales the amplitude by 0.53 + 0.025·octave.
func fractalNoise(n opensimplex.Noise, x, y, amplitude float64) float64 {
	freq := noiseFrequency
	var r float64
	for i := 0; i < noiseOctaves; i++ {
		r += amplitude * n.Eval2(x*freq, y*freq)
		amplitude *= 0.53 + 0.025*float64(i)
		freq *= 1.25
	}
	return r
}

// Seed fills g with fractal noise. Height and Previous start equal so the
// surface has no initial velocity.
func Seed(g *Grid, seed int64, maxHeight float64) {
	n := opensimplex.New(seed)
	size := float64(g.Size)
	for j := 0; j < g.Size; j++ {
		y := float64(j) * noiseScale / size
		for i := 0; i < g.Size; i++ {
			x := float64(i) * noiseScale / size
			h := float32(fractalNoise(n, x, y, maxHeight))
			idx := g.Index(i, j)
			g.Height[idx] = h
			g.Previous[idx] = h
		}
	}
}
