package world

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/microcube/internal/colors"
	"github.com/annel0/microcube/internal/vec"
	"github.com/annel0/microcube/internal/world/block"
)

const finishHueSpeed float32 = 125

// Finish плита финиша. Центральная плита завершает уровень, когда на неё встаёт игрок.
type Finish struct {
	baseBlock
	center bool
	top    colors.RGBA
}

// NewFinish создаёт плиту финиша
func NewFinish(position mgl32.Vec3, color colors.RGBA, center bool) *Finish {
	return &Finish{
		baseBlock: newBaseBlock(block.FinishKind, position, color),
		center:    center,
		top:       colors.RGBA{R: 1, G: 0.25, B: 0.25, A: 1},
	}
}

func (f *Finish) IsBarrier() bool { return true }

// IsCenter центральная ли это плита
func (f *Finish) IsCenter() bool { return f.center }

func (f *Finish) TopColor() colors.RGBA {
	if f.center {
		return f.top.Inverse(0.25)
	}
	return f.top
}

func (f *Finish) InstanceData() []float32 {
	return instanceData(f.color, f.TopColor(), colors.RGBA{}, f.model, false)
}

func (f *Finish) Update(dt float32, level *Level) {
	f.top = f.top.OffsetHue(finishHueSpeed * dt)

	if f.center && vec.Distance(level.Player().Position(), f.position.Add(vec.Up)) < 1 {
		level.Finish()
	}
}

// GenerateFinish создаёт площадку 3x3 вокруг position
func GenerateFinish(position mgl32.Vec3, color colors.RGBA) []*Finish {
	out := make([]*Finish, 0, 9)
	for x := float32(-1); x <= 1; x++ {
		for z := float32(-1); z <= 1; z++ {
			p := mgl32.Vec3{position.X() + x, position.Y(), position.Z() + z}
			out = append(out, NewFinish(p, color, x == 0 && z == 0))
		}
	}
	return out
}
