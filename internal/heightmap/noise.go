package heightmap

import (
	gomath "math"
)

// NoiseParams configures fractal value noise.
type NoiseParams struct {
	Seed        int64   `yaml:"seed" json:"seed"`
	Scale       float64 `yaml:"scale" json:"scale"` // cells per lattice step of the first octave
	Amplitude   float32 `yaml:"amplitude" json:"amplitude"`
	Octaves     int     `yaml:"octaves" json:"octaves"`
	Persistence float64 `yaml:"persistence" json:"persistence"`
	Lacunarity  float64 `yaml:"lacunarity" json:"lacunarity"`
}

// DefaultNoise returns rolling hills suitable for a 513 raster.
func DefaultNoise() NoiseParams {
	return NoiseParams{
		Seed:        1,
		Scale:       96,
		Amplitude:   48,
		Octaves:     5,
		Persistence: 0.5,
		Lacunarity:  2,
	}
}

// Generate fills the raster with fractal value noise in [0, Amplitude].
// The result only depends on the parameters and sample coordinates.
func (h *Heightmap) Generate(p NoiseParams) {
	if p.Scale <= 0 {
		p.Scale = 1
	}
	r := h.resolution
	for y := 0; y < r; y++ {
		for x := 0; x < r; x++ {
			n := octaveNoise2D(float64(x)/p.Scale, float64(y)/p.Scale, p.Seed, p.Octaves, p.Persistence, p.Lacunarity)
			h.heights[y*r+x] = float32(n) * p.Amplitude
		}
	}
	h.updateBounds(0, 0, r, r)
}

func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// hash2 is a SplitMix64 style lattice hash, stable across runs.
func hash2(x, z, seed int64) uint64 {
	v := uint64(x) + (uint64(z) << 1) + uint64(seed)*0x9E3779B97F4A7C15
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	return v ^ (v >> 31)
}

func latticeValue(x, z, seed int64) float64 {
	return float64(hash2(x, z, seed)&0xFFFFFFFF) / float64(0xFFFFFFFF)
}

func valueNoise2D(x, z float64, seed int64) float64 {
	x0 := gomath.Floor(x)
	z0 := gomath.Floor(z)
	fx := fade(x - x0)
	fz := fade(z - z0)

	ix, iz := int64(x0), int64(z0)
	v00 := latticeValue(ix, iz, seed)
	v10 := latticeValue(ix+1, iz, seed)
	v01 := latticeValue(ix, iz+1, seed)
	v11 := latticeValue(ix+1, iz+1, seed)

	return lerp(lerp(v00, v10, fx), lerp(v01, v11, fx), fz)
}

// octaveNoise2D sums octaves of value noise, normalised to [0, 1].
func octaveNoise2D(x, z float64, seed int64, octaves int, persistence, lacunarity float64) float64 {
	amplitude, frequency := 1.0, 1.0
	sum, norm := 0.0, 0.0
	for i := 0; i < octaves; i++ {
		sum += valueNoise2D(x*frequency, z*frequency, seed+int64(i*131)) * amplitude
		norm += amplitude
		amplitude *= persistence
		frequency *= lacunarity
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}
