package analysis

import (
	"iter"
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func seq(ps ...mgl32.Vec3) iter.Seq[mgl32.Vec3] {
	return slices.Values(ps)
}

func TestSingleBarrier_Classification(t *testing.T) {
	origin := mgl32.Vec3{0, 0, 0}

	tests := []struct {
		name    string
		barrier mgl32.Vec3
		want    Barrier
	}{
		{"ступенька впереди", mgl32.Vec3{0, 0, 1}, Step},
		{"стена впереди", mgl32.Vec3{0, 1, 1}, Wall},
		{"частичная стена", mgl32.Vec3{0, 0.5, 1}, Wall},
		{"полуопущенный блок", mgl32.Vec3{0, -0.5, 1}, Unsuitable},
		{"опора под следующей клеткой", mgl32.Vec3{0, -1, 1}, Nothing},
		{"блок через полторы клетки", mgl32.Vec3{0, 0, 1.5}, Unsuitable},
		{"блок над головой", mgl32.Vec3{0, 1, 0.5}, Trap},
		{"сбоку", mgl32.Vec3{1, 0, 1}, Nothing},
		{"сзади", mgl32.Vec3{0, 0, -1}, Nothing},
		{"далеко", mgl32.Vec3{0, 0, 3}, Nothing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SingleBarrier(origin, tt.barrier, false, false))
		})
	}
}

func TestSingleBarrier_ChangeAxisUsesX(t *testing.T) {
	p := mgl32.Vec3{3, 2, 7}
	assert.Equal(t, Step, SingleBarrier(p, mgl32.Vec3{4, 2, 7}, false, true))
	assert.Equal(t, Nothing, SingleBarrier(p, mgl32.Vec3{3, 2, 8}, false, true))
	assert.Equal(t, Wall, SingleBarrier(p, mgl32.Vec3{2, 3, 7}, true, true))
}

func TestSingleBarrier_MirrorSymmetry(t *testing.T) {
	p := mgl32.Vec3{5, 1, -2}
	offsets := []mgl32.Vec3{
		{0, 0, 1}, {0, 1, 1}, {0, -0.5, 1}, {0, 0, 1.5}, {0, 0.25, 1.75},
		{0.5, 0, 1}, {0, 2, 1}, {0, 1, 0.5}, {0, 0, 2.5},
	}
	for _, axis := range []bool{false, true} {
		for _, o := range offsets {
			fwd, back := o, mgl32.Vec3{o.X(), o.Y(), -o.Z()}
			if axis {
				fwd = mgl32.Vec3{o.Z(), o.Y(), o.X()}
				back = mgl32.Vec3{-o.Z(), o.Y(), o.X()}
			}
			a := SingleBarrier(p, p.Add(fwd), false, axis)
			b := SingleBarrier(p, p.Add(back), true, axis)
			assert.Equal(t, a, b, "offset=%v axis=%v", o, axis)
		}
	}
}

func TestGlobalBarrier_TrapBetweenSteps(t *testing.T) {
	p := mgl32.Vec3{0, 0, 0}
	got := GlobalBarrier(p, seq(mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, -1, 0}), false, false)
	assert.Equal(t, Trap, got)
}

func TestGlobalBarrier_StepUnderCeilingIsWall(t *testing.T) {
	p := mgl32.Vec3{0, 0, 0}
	ceilingFirst := seq(mgl32.Vec3{0, 2, 0}, mgl32.Vec3{0, 0, 1})
	ceilingLast := seq(mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 2, 0})

	assert.Equal(t, Wall, GlobalBarrier(p, ceilingFirst, false, false))
	assert.Equal(t, Wall, GlobalBarrier(p, ceilingLast, false, false))
	assert.Equal(t, Step, GlobalBarrier(p, seq(mgl32.Vec3{0, 0, 1}), false, false))
}

func TestGlobalBarrier_ForwardWinsWithoutTrap(t *testing.T) {
	p := mgl32.Vec3{0, 0, 0}
	got := GlobalBarrier(p, seq(mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 0, -1.5}), false, false)
	assert.Equal(t, Step, got)

	got = GlobalBarrier(p, seq(mgl32.Vec3{0, 0, -1}), false, false)
	assert.Equal(t, Nothing, got)
}

func TestGlobalBarrier_RestartableSequence(t *testing.T) {
	p := mgl32.Vec3{0, 0, 0}
	s := seq(mgl32.Vec3{1, 0, 0})
	assert.Equal(t, Step, GlobalBarrier(p, s, false, true))
	assert.Equal(t, Nothing, GlobalBarrier(p, s, true, true))
}

func TestBarrier_OrderAndString(t *testing.T) {
	assert.True(t, Nothing < Unsuitable && Unsuitable < Step && Step < Wall && Wall < Trap)
	assert.Equal(t, "Wall", Wall.String())
	assert.True(t, Trap.Blocking())
	assert.False(t, Step.Blocking())
}
