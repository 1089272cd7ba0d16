// Package moving реализует анимацию движущихся платформ: отрезки движения
// (Movement) и очереди отрезков (MoveQueue).
package moving

import "github.com/go-gl/mathgl/mgl32"

// Movement один отрезок движения: смещение finalOffset за duration секунд.
type Movement struct {
	finalOffset mgl32.Vec3
	duration    float32

	elapsed     float32
	frameOffset mgl32.Vec3
	timeElapsed bool
}

// NewMovement создаёт отрезок движения на (x, y, z) за duration секунд
func NewMovement(x, y, z, duration float32) *Movement {
	return &Movement{
		finalOffset: mgl32.Vec3{x, y, z},
		duration:    duration,
	}
}

// Update продвигает отрезок на dt. После истечения времени FrameOffset равен нулю.
func (m *Movement) Update(dt float32) {
	if m.timeElapsed {
		return
	}

	m.elapsed += dt
	f := m.finalOffset
	m.frameOffset = mgl32.Vec3{f[0] / m.duration * dt, f[1] / m.duration * dt, f[2] / m.duration * dt}

	if m.elapsed > m.duration {
		m.timeElapsed = true
		m.frameOffset = mgl32.Vec3{}
	}
}

// Reset возвращает отрезок в начальное состояние
func (m *Movement) Reset() {
	m.elapsed = 0
	m.timeElapsed = false
}

// FinalOffset полное смещение отрезка
func (m *Movement) FinalOffset() mgl32.Vec3 { return m.finalOffset }

// FrameOffset смещение за последний тик
func (m *Movement) FrameOffset() mgl32.Vec3 { return m.frameOffset }

// Duration длительность отрезка в секундах
func (m *Movement) Duration() float32 { return m.duration }

// IsTimeElapsed сообщает, что отрезок завершён
func (m *Movement) IsTimeElapsed() bool { return m.timeElapsed }
