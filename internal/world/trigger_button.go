package world

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/microcube/internal/colors"
	"github.com/annel0/microcube/internal/logging"
	"github.com/annel0/microcube/internal/vec"
	"github.com/annel0/microcube/internal/world/block"
	"github.com/annel0/microcube/internal/world/moving"
)

// ButtonColor цвет кнопки по умолчанию
var ButtonColor = colors.Gray(0.5)

// TriggerButton кнопка, которая включает очередь движения, когда на неё наступают.
// Нажимается один раз.
type TriggerButton struct {
	baseBlock
	queue   moving.Handle
	pressed bool
}

// NewTriggerButton создаёт кнопку. Очередь обязательна.
func NewTriggerButton(position mgl32.Vec3, color colors.RGBA, queue moving.Handle) *TriggerButton {
	if !queue.Valid() {
		panic(ErrMissingQueue)
	}
	b := &TriggerButton{
		baseBlock: newBaseBlock(block.TriggerButtonKind, position, color),
		queue:     queue,
	}
	b.model = mgl32.Translate3D(position.X(), position.Y()-0.4, position.Z()).
		Mul4(mgl32.Scale3D(0.55, 0.1, 0.55))
	return b
}

func (b *TriggerButton) IsBarrier() bool { return false }

// IsPressed нажата ли кнопка
func (b *TriggerButton) IsPressed() bool { return b.pressed }

// Queue очередь, которую включает кнопка
func (b *TriggerButton) Queue() moving.Handle { return b.queue }

func (b *TriggerButton) Update(dt float32, level *Level) {
	if b.pressed {
		return
	}
	if vec.Distance(level.Player().Position(), b.position) < 1 {
		level.MoveQueue(b.queue).SetActive(true)
		b.pressed = true
		b.model = mgl32.Translate3D(b.position.X(), b.position.Y()-0.49, b.position.Z()).
			Mul4(mgl32.Scale3D(0.55, 0.01, 0.55))
		logging.Debug("🔘 Кнопка %v включила очередь %d", b.position, b.queue)
		level.emit(EventButtonPressed, b.position)
	}
}
