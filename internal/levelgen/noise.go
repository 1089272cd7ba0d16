package levelgen

import (
	"github.com/aquilax/go-perlin"
)

// Параметры шума Перлина
const (
	noiseAlpha   = 2.0 // Сглаживание шума
	noiseBeta    = 2.0 // Частота шума
	noiseOctaves = 3
)

// Noise генератор шума Перлина со своим сидом
type Noise struct {
	perlin *perlin.Perlin
	scale  float64
}

// NewNoise создаёт генератор с сидом и масштабом координат
func NewNoise(seed int64, scale float64) *Noise {
	return &Noise{
		perlin: perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, seed),
		scale:  scale,
	}
}

// At значение шума в точке (x, z) в диапазоне от 0 до 1
func (n *Noise) At(x, z int) float64 {
	v := n.perlin.Noise2D(float64(x)*n.scale, float64(z)*n.scale)
	v = (v + 1.0) / 2.0
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
