// Package colors содержит RGBA цвет блоков и сдвиг оттенка для анимаций.
package colors

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// RGBA цвет с компонентами в диапазоне [0, 1]
type RGBA struct {
	R, G, B, A float32
}

var (
	Black = RGBA{0, 0, 0, 1}
	White = RGBA{1, 1, 1, 1}
	Red   = RGBA{1, 0, 0, 1}
)

// Gray возвращает серый непрозрачный цвет заданной яркости
func Gray(v float32) RGBA {
	return RGBA{v, v, v, 1}
}

// OffsetHue сдвигает оттенок на offset градусов, насыщенность и яркость сохраняются
func (c RGBA) OffsetHue(offset float32) RGBA {
	h, s, v := colorful.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B)}.Hsv()
	h = math.Mod(h+float64(offset), 360)
	if h < 0 {
		h += 360
	}
	out := colorful.Hsv(h, s, v)
	return RGBA{R: float32(out.R), G: float32(out.G), B: float32(out.B), A: c.A}
}

// Darken уменьшает каждую компоненту RGB на delta
func (c RGBA) Darken(delta float32) RGBA {
	return RGBA{R: c.R - delta, G: c.G - delta, B: c.B - delta, A: c.A}
}

// Inverse возвращает инвертированный цвет, сдвинутый на bias
func (c RGBA) Inverse(bias float32) RGBA {
	return RGBA{R: 1 - c.R + bias, G: 1 - c.G + bias, B: 1 - c.B + bias, A: c.A}
}

// RGB возвращает три компоненты для инстанс-буфера
func (c RGBA) RGB() [3]float32 {
	return [3]float32{c.R, c.G, c.B}
}
