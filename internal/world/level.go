package world

import (
	"errors"
	"fmt"
	"iter"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/microcube/internal/logging"
	"github.com/annel0/microcube/internal/vec"
	"github.com/annel0/microcube/internal/world/entity"
	"github.com/annel0/microcube/internal/world/moving"
)

var (
	// ErrUnknownQueue дескриптор очереди вне таблицы уровня
	ErrUnknownQueue = errors.New("неизвестная очередь движения")
	// ErrMissingQueue блоку нужна очередь движения, но она не задана
	ErrMissingQueue = errors.New("не задана очередь движения")
	// ErrNilBlock в списке блоков встретился nil
	ErrNilBlock = errors.New("пустой блок")
	// ErrRespawnDepth глубина возрождения должна быть положительной
	ErrRespawnDepth = errors.New("глубина возрождения должна быть больше нуля")
)

// Options параметры симуляции уровня
type Options struct {
	Player       entity.Config
	PushPolicy   PushPolicy
	SpatialIndex bool // Индексировать неподвижные опоры по клеткам XZ
	Logger       *logging.Logger
}

// DefaultOptions параметры по умолчанию
func DefaultOptions() Options {
	return Options{
		Player:     entity.DefaultConfig(),
		PushPolicy: DefaultPushPolicy(),
	}
}

// Level уровень: блоки, очереди движения и игрок. Не потокобезопасен,
// изменяется только из одного потока.
type Level struct {
	name    string
	blocks  []Block
	dynamic []Dynamic
	queues  []*moving.MoveQueue
	player  *entity.Player

	pushPolicy PushPolicy
	index      *SpatialIndex

	finished   bool
	collected  int
	prismCount int
	tick       uint64

	subscribers []subscription
	nextSubID   int

	logger *logging.Logger
}

// NewLevel собирает уровень и проверяет ссылки блоков на очереди движения.
func NewLevel(name string, blocks []Block, queues []*moving.MoveQueue, start mgl32.Vec3, opts Options) (*Level, error) {
	for i, q := range queues {
		if q == nil {
			return nil, fmt.Errorf("очередь %d: %w", i, ErrUnknownQueue)
		}
	}
	if opts.Player == (entity.Config{}) {
		opts.Player = entity.DefaultConfig()
	}
	if opts.Player.RespawnDepth <= 0 {
		return nil, fmt.Errorf("уровень %q: %w", name, ErrRespawnDepth)
	}

	l := &Level{
		name:       name,
		blocks:     blocks,
		queues:     queues,
		player:     entity.NewPlayer(start, opts.Player),
		pushPolicy: opts.PushPolicy,
		logger:     opts.Logger,
	}
	if l.logger == nil {
		l.logger = logging.Default()
	}
	if l.pushPolicy == nil {
		l.pushPolicy = DefaultPushPolicy()
	}

	for i, b := range blocks {
		if b == nil {
			return nil, fmt.Errorf("блок %d: %w", i, ErrNilBlock)
		}
		if m, ok := b.(mover); ok && m.Queue().Valid() && int(m.Queue()) >= len(queues) {
			return nil, fmt.Errorf("блок %d (%s) ссылается на очередь %d: %w", i, b.Kind(), m.Queue(), ErrUnknownQueue)
		}
		if _, ok := b.(*Prism); ok {
			l.prismCount++
		}
		if d, ok := b.(Dynamic); ok {
			l.dynamic = append(l.dynamic, d)
		}
	}

	if opts.SpatialIndex {
		l.index = NewSpatialIndex(blocks)
	}

	l.logger.Debug("🧱 Уровень %q: блоков %d, очередей %d, призм %d", name, len(blocks), len(queues), l.prismCount)
	return l, nil
}

// Update продвигает уровень на один тик: игрок, затем очереди движения,
// затем динамические блоки.
func (l *Level) Update(dt float32) {
	if !l.finished {
		respawns := l.player.Respawns()
		l.player.Update(dt, l)
		if l.player.Respawns() != respawns {
			l.emit(EventRespawn, l.player.StartPosition())
		}
	}

	for _, q := range l.queues {
		q.Update(dt)
	}
	for _, d := range l.dynamic {
		d.Update(dt, l)
	}

	l.tick++
}

// BarrierPositions перечисляет позиции текущих опор. Последовательность
// вычисляется заново при каждом проходе.
func (l *Level) BarrierPositions() iter.Seq[mgl32.Vec3] {
	return func(yield func(mgl32.Vec3) bool) {
		for _, b := range l.blocks {
			if !b.IsBarrier() {
				continue
			}
			if !yield(b.Position()) {
				return
			}
		}
	}
}

// HighestBarrierBelow позиция самой высокой опоры ниже height в пределах
// единицы по XZ от точки (x, z).
func (l *Level) HighestBarrierBelow(x, z, height float32) (mgl32.Vec3, bool) {
	b, ok := l.HighestBarrierBlockBelow(x, z, height)
	if !ok {
		return mgl32.Vec3{}, false
	}
	return b.Position(), true
}

// HighestBarrierBlockBelow то же, что HighestBarrierBelow, но возвращает блок.
// При равной высоте побеждает блок, объявленный раньше.
func (l *Level) HighestBarrierBlockBelow(x, z, height float32) (Block, bool) {
	if l.index != nil {
		return l.index.highestBelow(x, z, height)
	}

	var best Block
	for _, b := range l.blocks {
		if !isSupportBelow(b, x, z, height) {
			continue
		}
		if best == nil || b.Position().Y() > best.Position().Y() {
			best = b
		}
	}
	return best, best != nil
}

func isSupportBelow(b Block, x, z, height float32) bool {
	if !b.IsBarrier() {
		return false
	}
	p := b.Position()
	return p.Y() < height && vec.DistanceXZ(vecXZ(x, z), p) < 1
}

func vecXZ(x, z float32) mgl32.Vec3 { return mgl32.Vec3{x, 0, z} }

// CollectPrism отмечает подбор призмы
func (l *Level) CollectPrism(position mgl32.Vec3) {
	l.collected++
	l.logger.Debug("💎 Призма %v собрана (%d/%d)", position, l.collected, l.prismCount)
	l.emit(EventPrismCollected, position)
}

// Finish завершает уровень. Повторные вызовы ничего не делают.
func (l *Level) Finish() {
	if l.finished {
		return
	}
	l.finished = true
	l.logger.Info("🏁 Уровень %q пройден на тике %d, призм %d/%d", l.name, l.tick, l.collected, l.prismCount)
	l.emit(EventFinished, l.player.Position())
}

// MoveQueue возвращает очередь по дескриптору. Неизвестный дескриптор это ошибка программы.
func (l *Level) MoveQueue(h moving.Handle) *moving.MoveQueue {
	if !h.Valid() || int(h) >= len(l.queues) {
		panic(fmt.Errorf("очередь %d: %w", h, ErrUnknownQueue))
	}
	return l.queues[h]
}

func (l *Level) MoveQueues() []*moving.MoveQueue { return l.queues }
func (l *Level) Blocks() []Block                 { return l.blocks }
func (l *Level) Player() *entity.Player          { return l.player }
func (l *Level) Name() string                    { return l.name }
func (l *Level) IsFinished() bool                { return l.finished }
func (l *Level) PrismCount() int                 { return l.prismCount }
func (l *Level) CollectedPrisms() int            { return l.collected }

// Tick число выполненных обновлений
func (l *Level) Tick() uint64 { return l.tick }

// Indexed используется ли пространственный индекс
func (l *Level) Indexed() bool { return l.index != nil }
