// Package analysis классифицирует препятствия вокруг игрока.
//
// Ось движения по умолчанию Z, при changeAxis движение идёт по X.
// Направление "вперёд" положительное, при isReversed отрицательное.
package analysis

import (
	"iter"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/microcube/internal/vec"
)

// Barrier тип препятствия. Значения упорядочены по строгости.
type Barrier uint8

const (
	Nothing Barrier = iota
	Unsuitable
	Step
	Wall
	Trap
)

// String возвращает имя препятствия
func (b Barrier) String() string {
	switch b {
	case Nothing:
		return "Nothing"
	case Unsuitable:
		return "Unsuitable"
	case Step:
		return "Step"
	case Wall:
		return "Wall"
	case Trap:
		return "Trap"
	default:
		return "Unknown"
	}
}

// Blocking true для препятствий, которые запрещают начинать движение
func (b Barrier) Blocking() bool {
	return b == Unsuitable || b == Trap
}

// Climbable true для Step и Wall
func (b Barrier) Climbable() bool {
	return b == Step || b == Wall
}

// ceiling смещение блока над головой, превращающее ступеньку в стену
var ceiling = mgl32.Vec3{0, 2, 0}

// SingleBarrier классифицирует один барьерный блок относительно игрока.
func SingleBarrier(player, barrier mgl32.Vec3, isReversed, changeAxis bool) Barrier {
	forward, lateral := barrier.Z()-player.Z(), barrier.X()-player.X()
	if changeAxis {
		forward, lateral = lateral, forward
	}
	height := barrier.Y() - player.Y()

	if vec.Abs(lateral) < 1 {
		if vec.Abs(forward) < 1 && height == 1 {
			return Trap
		}

		ahead := (!isReversed && forward > 0) || (isReversed && forward < 0)
		if ahead && vec.Abs(forward) > 1 && vec.Abs(forward) < 2 && vec.Abs(height) < 1 {
			return Unsuitable
		}
	}

	if (isReversed && forward == -1) || (!isReversed && forward == 1) {
		if vec.Abs(lateral) < 1 {
			switch {
			case height == 0:
				return Step
			case height > 0 && height <= 1:
				return Wall
			case height < 0 && height > -1:
				return Unsuitable
			}
		}
	}

	return Nothing
}

// GlobalBarrier сворачивает все барьеры уровня в итоговую классификацию.
//
// Берётся худшее препятствие спереди и сзади. Ступенька спереди становится
// стеной, если прямо над головой (player + (0,2,0)) есть барьер. Если и
// спереди, и сзади Step или Wall, игрок в ловушке.
func GlobalBarrier(player mgl32.Vec3, barriers iter.Seq[mgl32.Vec3], isReversed, changeAxis bool) Barrier {
	forward, backward := Nothing, Nothing
	covered := false
	top := player.Add(ceiling)

	for b := range barriers {
		if f := SingleBarrier(player, b, isReversed, changeAxis); f > forward {
			forward = f
		}
		if r := SingleBarrier(player, b, !isReversed, changeAxis); r > backward {
			backward = r
		}
		if vec.Equal(b, top) {
			covered = true
		}
	}

	if forward == Step && covered {
		forward = Wall
	}

	if forward.Climbable() && backward.Climbable() {
		return Trap
	}
	return forward
}
