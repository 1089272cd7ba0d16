package world

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/microcube/internal/colors"
	"github.com/annel0/microcube/internal/world/block"
	"github.com/annel0/microcube/internal/world/moving"
)

func TestGround_CheckerTop(t *testing.T) {
	tests := []struct {
		pos    mgl32.Vec3
		darker bool
	}{
		{mgl32.Vec3{0, 0, 0}, true},
		{mgl32.Vec3{1, 0, 0}, false},
		{mgl32.Vec3{1, 5, 1}, true},
		{mgl32.Vec3{-1, 0, 0}, false},
		{mgl32.Vec3{-3, 0, 1}, true},
	}
	for _, tt := range tests {
		g := NewGround(tt.pos, GroundColor, moving.NoQueue)
		want := GroundColor
		if tt.darker {
			want = GroundColor.Darken(0.05)
		}
		assert.Equal(t, want, g.TopColor(), "%v", tt.pos)
	}
}

func TestGround_InstanceLayout(t *testing.T) {
	g := NewGround(mgl32.Vec3{2, 3, 4}, GroundColor, moving.NoQueue)
	data := g.InstanceData()
	require.Len(t, data, InstanceStride)

	assert.Equal(t, []float32{1, 1, 1}, data[0:3])
	assert.Equal(t, []float32{1, 0, 0}, data[6:9])
	assert.Equal(t, []float32{2, 3, 4, 1}, data[21:25])
	assert.Equal(t, float32(0), data[25])
	assert.Equal(t, block.CubeMesh, Mesh(g))
}

func TestGeneratePlane(t *testing.T) {
	ground := GeneratePlane(mgl32.Vec2{2, 1}, mgl32.Vec2{-1, -1}, 4, GroundColor)
	require.Len(t, ground, 6)

	for _, g := range ground {
		p := g.Position()
		assert.Equal(t, float32(4), p.Y())
		assert.True(t, p.X() >= -1 && p.X() < 2)
		assert.True(t, p.Z() >= -1 && p.Z() < 1)
		assert.True(t, g.IsBarrier())
	}

	assert.Empty(t, GeneratePlane(mgl32.Vec2{0, 0}, mgl32.Vec2{0, 5}, 0, GroundColor))
}

func TestGenerateFinish(t *testing.T) {
	finish := GenerateFinish(mgl32.Vec3{5, 1, 5}, GroundColor)
	require.Len(t, finish, 9)

	centers := 0
	for _, f := range finish {
		if f.IsCenter() {
			centers++
			assert.Equal(t, mgl32.Vec3{5, 1, 5}, f.Position())
			assert.Equal(t, f.top.Inverse(0.25), f.TopColor())
		}
	}
	assert.Equal(t, 1, centers)
}

func TestFallingPlate_Model(t *testing.T) {
	p := NewFallingPlate(mgl32.Vec3{1, 2, 3}, PlateColor)
	top := p.Model().Mul4x1(mgl32.Vec4{0, 0.5, 0, 1}).Vec3()
	bottom := p.Model().Mul4x1(mgl32.Vec4{0, -0.5, 0, 1}).Vec3()

	assert.InDeltaSlice(t, []float32{1, 2.5, 3}, top[:], 1e-5)
	assert.InDeltaSlice(t, []float32{1, 2.4, 3}, bottom[:], 1e-5)
	assert.Equal(t, PlateIdle, p.State())
}

func TestTriggerButton_Model(t *testing.T) {
	b := NewTriggerButton(mgl32.Vec3{0, 1, 0}, ButtonColor, 0)
	center := b.Model().Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Vec3()
	assert.InDeltaSlice(t, []float32{0, 0.6, 0}, center[:], 1e-5)
	assert.False(t, b.IsBarrier())
	assert.Equal(t, moving.Handle(0), b.Queue())
}

func TestPrism_Hover(t *testing.T) {
	prism := NewPrism(mgl32.Vec3{0, 1, 0})
	l := newTestLevel(t, mgl32.Vec3{10, 10, 10}, nil, prism)
	before := prism.Color()

	run(l, 20)

	center := prism.Model().Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Vec3()
	assert.Greater(t, center.Y(), float32(1))
	assert.Equal(t, float32(0), center.X())
	assert.NotEqual(t, before, prism.Color())
	assert.False(t, prism.IsCollected())
	assert.Equal(t, block.PrismMesh, Mesh(prism))
}

func TestFinish_TopHueMoves(t *testing.T) {
	f := NewFinish(mgl32.Vec3{}, GroundColor, false)
	l := newTestLevel(t, mgl32.Vec3{10, 10, 10}, nil, f)
	before := f.TopColor()

	run(l, 5)

	assert.NotEqual(t, before, f.TopColor())
	assert.Equal(t, colors.White, f.Color())
	assert.False(t, l.IsFinished())
}
