package moving

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrEmptyQueue паника при запросе FrameOffset у пустой очереди.
var ErrEmptyQueue = errors.New("moving: queue has no pending movement")

// Handle индекс очереди в таблице уровня.
type Handle int

// NoQueue означает, что блок не привязан к очереди.
const NoQueue Handle = -1

// Valid сообщает, что дескриптор ссылается на очередь
func (h Handle) Valid() bool { return h >= 0 }

// MoveQueue FIFO отрезков движения с накопленным смещением.
//
// Offset обновляется покадрово, а при завершении каждого отрезка заменяется
// точной суммой finalOffset, так что ошибка округления не копится.
type MoveQueue struct {
	movements  []*Movement
	pending    []*Movement
	accurate   mgl32.Vec3
	offset     mgl32.Vec3
	repeatable bool
	active     bool
}

// NewMoveQueue создаёт очередь из отрезков
func NewMoveQueue(movements []*Movement, repeatable, active bool) *MoveQueue {
	q := &MoveQueue{
		movements:  movements,
		repeatable: repeatable,
		active:     active,
	}
	q.pending = append(make([]*Movement, 0, len(movements)), movements...)
	return q
}

// Update продвигает голову очереди на dt
func (q *MoveQueue) Update(dt float32) {
	if !q.active {
		return
	}

	if head := q.head(); head != nil {
		head.Update(dt)
		q.offset = q.offset.Add(head.FrameOffset())

		if head.IsTimeElapsed() {
			q.accurate = q.accurate.Add(head.FinalOffset())
			q.offset = q.accurate
			q.pending = q.pending[1:]
		}
		return
	}

	if q.repeatable {
		for _, m := range q.movements {
			m.Reset()
			q.pending = append(q.pending, m)
		}
		q.offset = mgl32.Vec3{}
		q.accurate = mgl32.Vec3{}
	}
}

// FrameOffset смещение текущего отрезка за последний тик. Паникует на пустой очереди.
func (q *MoveQueue) FrameOffset() mgl32.Vec3 {
	head := q.head()
	if head == nil {
		panic(ErrEmptyQueue)
	}
	return head.FrameOffset()
}

// IsMoving true, если очередь активна и текущий отрезок сдвинулся в последнем тике
func (q *MoveQueue) IsMoving() bool {
	if !q.active {
		return false
	}
	head := q.head()
	return head != nil && head.FrameOffset().LenSqr() != 0
}

// Offset накопленное смещение относительно базовой позиции
func (q *MoveQueue) Offset() mgl32.Vec3 { return q.offset }

// IsActive активна ли очередь
func (q *MoveQueue) IsActive() bool { return q.active }

// SetActive включает или выключает очередь
func (q *MoveQueue) SetActive(active bool) { q.active = active }

// IsRepeatable перезапускается ли очередь после опустошения
func (q *MoveQueue) IsRepeatable() bool { return q.repeatable }

// Len количество оставшихся отрезков
func (q *MoveQueue) Len() int { return len(q.pending) }

func (q *MoveQueue) head() *Movement {
	if len(q.pending) == 0 {
		return nil
	}
	return q.pending[0]
}
