package world

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/microcube/internal/colors"
	"github.com/annel0/microcube/internal/vec"
	"github.com/annel0/microcube/internal/world/block"
	"github.com/annel0/microcube/internal/world/moving"
)

// InstanceStride число float32 на один блок в инстанс-буфере
const InstanceStride = 26

// Block блок уровня. Набор реализаций закрыт: Ground, FallingPlate, Finish,
// Prism, TriggerButton.
type Block interface {
	Kind() block.Kind
	Position() mgl32.Vec3
	Color() colors.RGBA
	TopColor() colors.RGBA
	Model() mgl32.Mat4
	IsBarrier() bool
	IsRender() bool

	// InstanceData данные для инстанс-рендера, InstanceStride значений
	InstanceData() []float32

	sealed()
}

// Dynamic блок, который обновляется каждый тик
type Dynamic interface {
	Update(dt float32, level *Level)
}

// Мобильный блок, позиция которого может меняться очередью движения
type mover interface {
	Queue() moving.Handle
}

type baseBlock struct {
	kind     block.Kind
	position mgl32.Vec3
	color    colors.RGBA
	model    mgl32.Mat4
	hidden   bool
}

func newBaseBlock(kind block.Kind, position mgl32.Vec3, color colors.RGBA) baseBlock {
	return baseBlock{
		kind:     kind,
		position: position,
		color:    color,
		model:    translate(position),
	}
}

func (b *baseBlock) Kind() block.Kind      { return b.kind }
func (b *baseBlock) Position() mgl32.Vec3  { return b.position }
func (b *baseBlock) Color() colors.RGBA    { return b.color }
func (b *baseBlock) TopColor() colors.RGBA { return b.color }
func (b *baseBlock) Model() mgl32.Mat4     { return b.model }
func (b *baseBlock) IsRender() bool        { return !b.hidden }
func (b *baseBlock) InstanceData() []float32 {
	return instanceData(b.color, b.color, colors.RGBA{}, b.model, false)
}
func (b *baseBlock) sealed() {}

// Mesh общая геометрия вида блока
func Mesh(b Block) block.MeshRef {
	d, _ := block.Get(b.Kind())
	return d.Mesh
}

func instanceData(color, top, edges colors.RGBA, model mgl32.Mat4, displayEdges bool) []float32 {
	data := make([]float32, 0, InstanceStride)
	data = append(data, color.R, color.G, color.B)
	data = append(data, top.R, top.G, top.B)
	data = append(data, edges.R, edges.G, edges.B)
	data = append(data, model[:]...)
	if displayEdges {
		return append(data, 1)
	}
	return append(data, 0)
}

// checkerTop затемняет верх каждой второй клетки
func checkerTop(position mgl32.Vec3, color colors.RGBA) colors.RGBA {
	r := vec.Round(mgl32.Vec3{vec.Abs(position.X()), 0, vec.Abs(position.Z())})
	if int(r.X())%2 == int(r.Z())%2 {
		return color.Darken(0.05)
	}
	return color
}

func translate(p mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(p.X(), p.Y(), p.Z())
}
