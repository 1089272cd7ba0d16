package world

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/microcube/internal/colors"
	"github.com/annel0/microcube/internal/vec"
	"github.com/annel0/microcube/internal/world/block"
)

// PlateState состояние падающей плиты
type PlateState uint8

const (
	PlateIdle PlateState = iota
	PlateTriggered
	PlateFalling
)

const (
	plateDelay        float32 = 1
	plateKick         float32 = 0.05
	plateGravity      float32 = 9.81
	plateTerminalDrop float32 = -10
)

// PlateColor цвет плиты по умолчанию
var PlateColor = colors.Gray(0.5)

// FallingPlate плита, которая через секунду после того, как на неё встал
// игрок, перестаёт быть опорой и падает.
type FallingPlate struct {
	baseBlock
	state    PlateState
	elapsed  float32
	velocity float32
	offset   float32
}

// NewFallingPlate создаёт плиту
func NewFallingPlate(position mgl32.Vec3, color colors.RGBA) *FallingPlate {
	p := &FallingPlate{baseBlock: newBaseBlock(block.FallingPlateKind, position, color)}
	p.setModel(translate(position))
	return p
}

func (p *FallingPlate) IsBarrier() bool { return p.state != PlateFalling }

// State текущее состояние плиты
func (p *FallingPlate) State() PlateState { return p.state }

func (p *FallingPlate) TopColor() colors.RGBA {
	return checkerTop(p.position, p.color)
}

func (p *FallingPlate) InstanceData() []float32 {
	return instanceData(p.color, p.TopColor(), colors.RGBA{}, p.model, false)
}

func (p *FallingPlate) setModel(m mgl32.Mat4) {
	p.model = m.Mul4(mgl32.Translate3D(0, 0.45, 0)).Mul4(mgl32.Scale3D(1, 0.1, 1))
}

func (p *FallingPlate) Update(dt float32, level *Level) {
	player := level.Player()

	switch p.state {
	case PlateIdle:
		if vec.Distance(player.Position(), p.position.Add(vec.Up)) < 1 {
			p.state = PlateTriggered
		}
	case PlateTriggered:
		p.elapsed += dt
		if p.elapsed >= plateDelay {
			p.velocity -= plateKick
			p.state = PlateFalling
			level.emit(EventPlateFalling, p.position)

			if vec.DistanceXZ(p.position, player.Position()) < 1 {
				player.ProcessPosition(level, player.Position())
			}
		}
	case PlateFalling:
		if !p.hidden && p.velocity > plateTerminalDrop {
			p.velocity += p.velocity * 1 * plateGravity * dt
			p.offset += p.velocity
			p.setModel(mgl32.Translate3D(p.position.X(), p.position.Y()+p.offset, p.position.Z()))
		} else if !p.hidden {
			p.hidden = true
		}
	}
}
