package world

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/microcube/internal/colors"
	"github.com/annel0/microcube/internal/vec"
	"github.com/annel0/microcube/internal/world/block"
	"github.com/annel0/microcube/internal/world/moving"
)

// MovableBlock блок, который может ездить по очереди движения уровня и
// возить на себе игрока.
type MovableBlock struct {
	baseBlock
	offsetted mgl32.Vec3
	queue     moving.Handle
	attached  bool
}

func newMovableBlock(kind block.Kind, position mgl32.Vec3, color colors.RGBA, queue moving.Handle) MovableBlock {
	return MovableBlock{
		baseBlock: newBaseBlock(kind, position, color),
		offsetted: position,
		queue:     queue,
	}
}

// Position текущая позиция с учётом смещения очереди
func (m *MovableBlock) Position() mgl32.Vec3 {
	if m.queue.Valid() {
		return m.offsetted
	}
	return m.position
}

// BasePosition позиция из описания уровня
func (m *MovableBlock) BasePosition() mgl32.Vec3 { return m.position }

// Queue дескриптор очереди движения или moving.NoQueue
func (m *MovableBlock) Queue() moving.Handle { return m.queue }

// Update пересчитывает позицию по очереди и при необходимости толкает игрока.
func (m *MovableBlock) Update(dt float32, level *Level) {
	if level == nil {
		panic("world: nil level")
	}
	if !m.queue.Valid() {
		return
	}

	q := level.MoveQueue(m.queue)
	player := level.Player()

	m.attached = vec.Equal(player.Position(), m.offsetted.Add(vec.Up))
	m.offsetted = m.position.Add(q.Offset())
	m.model = translate(m.offsetted)

	if q.IsMoving() {
		if level.pushPolicy.ShouldPush(m.offsetted, player.Position(), player.NextPosition(), m.attached) {
			player.Push(q.FrameOffset())
		}
	} else if m.attached {
		player.SetPosition(vec.Round(player.Position()))
	}
}

// IsMoving едет ли блок в этом тике
func (m *MovableBlock) IsMoving(level *Level) bool {
	return m.queue.Valid() && level.MoveQueue(m.queue).IsMoving()
}
