package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/microcube/internal/colors"
	"github.com/annel0/microcube/internal/vec"
	"github.com/annel0/microcube/internal/world/block"
)

const (
	prismHueSpeed     float32 = 420
	prismPickupRadius float32 = 0.75
)

// Prism собираемый предмет. Парит и вращается, пока его не подберут.
type Prism struct {
	baseBlock
	elapsed   float32
	collected bool
}

// NewPrism создаёт призму
func NewPrism(position mgl32.Vec3) *Prism {
	return &Prism{baseBlock: newBaseBlock(block.PrismKind, position, colors.Red)}
}

func (p *Prism) IsBarrier() bool { return false }

// IsCollected подобрана ли призма
func (p *Prism) IsCollected() bool { return p.collected }

func (p *Prism) Update(dt float32, level *Level) {
	p.color = p.color.OffsetHue(prismHueSpeed * dt)
	if p.collected {
		return
	}

	if vec.Distance(level.Player().OffsettedPosition(), p.position) < prismPickupRadius {
		p.collected = true
		p.hidden = true
		level.CollectPrism(p.position)
		return
	}

	p.elapsed += dt
	angle := p.elapsed * 2
	bob := float32(math.Sin(float64(angle))) / 5

	p.model = translate(p.position).
		Mul4(mgl32.Translate3D(0, bob, 0)).
		Mul4(mgl32.HomogRotate3DY(angle)).
		Mul4(mgl32.Scale3D(0.25, 0.25, 0.25))
}
