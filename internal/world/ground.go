package world

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/microcube/internal/colors"
	"github.com/annel0/microcube/internal/world/block"
	"github.com/annel0/microcube/internal/world/moving"
)

const groundEdgeHueSpeed float32 = 420

// GroundColor цвет земли по умолчанию
var GroundColor = colors.White

// Ground опорный блок. С очередью движения становится платформой и
// подсвечивает рёбра, пока едет.
type Ground struct {
	MovableBlock
	edges     colors.RGBA
	showEdges bool
}

// NewGround создаёт блок земли. queue может быть moving.NoQueue.
func NewGround(position mgl32.Vec3, color colors.RGBA, queue moving.Handle) *Ground {
	return &Ground{
		MovableBlock: newMovableBlock(block.GroundKind, position, color, queue),
		edges:        colors.Red,
	}
}

func (g *Ground) IsBarrier() bool { return true }

// TopColor верх в шахматном порядке чуть темнее
func (g *Ground) TopColor() colors.RGBA {
	return checkerTop(g.Position(), g.color)
}

// EdgesColor текущий цвет рёбер
func (g *Ground) EdgesColor() colors.RGBA { return g.edges }

func (g *Ground) InstanceData() []float32 {
	return instanceData(g.color, g.TopColor(), g.edges, g.model, g.showEdges)
}

func (g *Ground) Update(dt float32, level *Level) {
	g.showEdges = g.IsMoving(level)
	if g.showEdges {
		g.edges = g.edges.OffsetHue(groundEdgeHueSpeed * dt)
	}
	g.MovableBlock.Update(dt, level)
}

// GeneratePlane заполняет прямоугольник [min, max) по X и Z блоками земли на высоте height.
func GeneratePlane(a, b mgl32.Vec2, height float32, color colors.RGBA) []*Ground {
	minX, maxX := min(a.X(), b.X()), max(a.X(), b.X())
	minZ, maxZ := min(a.Y(), b.Y()), max(a.Y(), b.Y())

	var out []*Ground
	for x := minX; x < maxX; x++ {
		for z := minZ; z < maxZ; z++ {
			out = append(out, NewGround(mgl32.Vec3{x, height, z}, color, moving.NoQueue))
		}
	}
	return out
}
