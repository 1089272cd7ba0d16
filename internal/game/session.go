// Package game ведёт попытки прохождения уровней: ввод, шаги симуляции,
// события, метрики, трассировку и запись ввода.
package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/microcube/internal/eventbus"
	"github.com/annel0/microcube/internal/input"
	"github.com/annel0/microcube/internal/levels"
	"github.com/annel0/microcube/internal/logging"
	"github.com/annel0/microcube/internal/world"
)

// DefaultDeltaTime шаг симуляции по умолчанию, 60 тиков в секунду
const DefaultDeltaTime = float32(1.0 / 60.0)

const tracerName = "github.com/annel0/microcube/internal/game"

// ErrClosed сессия закрыта
var ErrClosed = errors.New("game: сессия закрыта")

// Frame ввод одного шага попытки
type Frame struct {
	Tick    uint64      `json:"tick"`
	Actions input.Batch `json:"actions,omitempty"`
}

// Recorder получает ввод попыток прохождения. Попытка начинается при загрузке
// уровня и заканчивается переходом к следующему, перезапуском или закрытием сессии.
type Recorder interface {
	BeginAttempt(sessionID string, content *levels.Content, dt float32)
	RecordFrame(f Frame)
	EndAttempt(fingerprint uint64, finished bool)
}

// Options параметры сессии
type Options struct {
	Level     world.Options
	DeltaTime float32

	// Entry позиция уровня в каталоге. По Enter после финиша загружается Entry.Next.
	Entry *levels.Entry

	Bus       eventbus.EventBus
	BusBuffer int
	Metrics   *Metrics
	Recorder  Recorder
	Tracer    trace.Tracer
	Logger    *logging.Logger
}

// Result итог текущей попытки
type Result struct {
	SessionID   string
	Level       string
	Tick        uint64
	Finished    bool
	Collected   int
	Total       int
	Respawns    int
	Fingerprint uint64
}

// Session одна игровая сессия. Step и Run вызываются из одного потока,
// Snapshot читается из любого.
type Session struct {
	id   string
	opts Options
	dt   float32

	content *levels.Content
	entry   *levels.Entry
	level   *world.Level

	paused    bool
	completed bool
	closed    bool
	frame     uint64

	pending []world.Event

	span     trace.Span
	ctx      context.Context
	snapshot atomic.Pointer[Snapshot]

	outbox chan *eventbus.Envelope
	wg     sync.WaitGroup

	logger *logging.Logger
}

// NewSession загружает уровень и начинает первую попытку.
func NewSession(content *levels.Content, opts Options) (*Session, error) {
	if content == nil {
		return nil, fmt.Errorf("game: пустой уровень")
	}
	if opts.DeltaTime <= 0 {
		opts.DeltaTime = DefaultDeltaTime
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.Level.Logger == nil {
		opts.Level.Logger = opts.Logger
	}

	s := &Session{
		id:     uuid.NewString(),
		opts:   opts,
		dt:     opts.DeltaTime,
		entry:  opts.Entry,
		ctx:    context.Background(),
		logger: opts.Logger,
	}

	if opts.Bus != nil {
		buffer := opts.BusBuffer
		if buffer <= 0 {
			buffer = 256
		}
		s.outbox = make(chan *eventbus.Envelope, buffer)
		s.wg.Add(1)
		go s.forward()
	}

	if err := s.load(content); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// load начинает новую попытку прохождения content
func (s *Session) load(content *levels.Content) error {
	level, err := content.NewLevel(s.opts.Level)
	if err != nil {
		return fmt.Errorf("ошибка загрузки уровня %q: %w", content.Name, err)
	}

	s.content = content
	s.level = level
	s.paused = false
	s.frame = 0
	s.pending = s.pending[:0]
	level.Subscribe(func(ev world.Event) { s.pending = append(s.pending, ev) })

	_, s.span = s.opts.Tracer.Start(s.ctx, "level.attempt", trace.WithAttributes(
		attribute.String("session.id", s.id),
		attribute.String("level.name", content.Name),
		attribute.Int("level.prisms", level.PrismCount()),
	))

	if s.opts.Recorder != nil {
		s.opts.Recorder.BeginAttempt(s.id, content, s.dt)
	}

	s.logger.Info("▶️ Сессия %s: уровень %q, призм %d", s.id, content.Name, level.PrismCount())
	s.publishSnapshot()
	return nil
}

// endAttempt закрывает текущую попытку: спан и запись ввода
func (s *Session) endAttempt(reason string) {
	if s.span == nil {
		return
	}
	l := s.level
	s.span.SetAttributes(
		attribute.String("attempt.end", reason),
		attribute.Int64("attempt.ticks", int64(l.Tick())),
		attribute.Int("prisms.collected", l.CollectedPrisms()),
		attribute.Int("player.respawns", l.Player().Respawns()),
		attribute.Bool("level.finished", l.IsFinished()),
	)
	if l.IsFinished() {
		s.span.SetStatus(codes.Ok, "finished")
	}
	s.span.End()
	s.span = nil

	if s.opts.Recorder != nil {
		s.opts.Recorder.EndAttempt(l.Fingerprint(), l.IsFinished())
	}
}

// Step применяет ввод одного тика и продвигает уровень.
func (s *Session) Step(batch input.Batch) error {
	if s.closed {
		return ErrClosed
	}
	start := time.Now()

	if s.level.IsFinished() && batch.IncludesClick(input.Enter) {
		return s.advance()
	}

	if !s.level.IsFinished() && batch.IncludesClick(input.Escape) {
		s.paused = !s.paused
		s.logger.Debug("⏸️ Пауза: %v", s.paused)
	}

	if s.opts.Recorder != nil {
		s.opts.Recorder.RecordFrame(Frame{Tick: s.frame, Actions: batch})
	}
	s.frame++

	if !s.paused {
		player := s.level.Player()
		for _, intent := range batch.Intents() {
			player.Move(intent.IsReversed, intent.ChangeAxis)
		}
		s.level.Update(s.dt)
	}

	s.flushEvents()

	if m := s.opts.Metrics; m != nil {
		m.stepDuration.Observe(time.Since(start).Seconds())
		if !s.paused {
			m.ticks.Inc()
		}
		m.attemptTicks.Set(float64(s.level.Tick()))
	}

	s.publishSnapshot()
	return nil
}

// advance переходит к следующему уровню каталога или завершает сессию
func (s *Session) advance() error {
	if s.entry == nil || s.entry.Next == nil {
		if !s.completed {
			s.completed = true
			s.logger.Info("🏆 Сессия %s: все уровни пройдены", s.id)
		}
		s.publishSnapshot()
		return nil
	}

	next, err := s.entry.Next.Load()
	if err != nil {
		return err
	}
	s.endAttempt("next")
	s.entry = s.entry.Next
	return s.load(next)
}

// Restart начинает уровень заново
func (s *Session) Restart() error {
	if s.closed {
		return ErrClosed
	}
	s.endAttempt("restart")
	return s.load(s.content)
}

func (s *Session) flushEvents() {
	for _, ev := range s.pending {
		if m := s.opts.Metrics; m != nil {
			m.levelEvents.WithLabelValues(ev.Type.String()).Inc()
			if ev.Type == world.EventFinished {
				m.levelsDone.Inc()
			}
		}
		if s.span != nil {
			s.span.AddEvent(ev.Type.String(), trace.WithAttributes(
				attribute.Int64("tick", int64(ev.Tick)),
				attribute.Int("prisms.collected", ev.Collected),
			))
		}
		s.send(ev)
	}
	s.pending = s.pending[:0]
}

// send ставит событие в очередь публикации. Важные события ждут места,
// остальные отбрасываются при переполнении.
func (s *Session) send(ev world.Event) {
	if s.outbox == nil {
		return
	}
	env, err := eventbus.NewLevelEnvelope(s.id, s.level.Name(), ev)
	if err != nil {
		s.logger.Warn("Событие %s не упаковано: %v", ev.Type, err)
		return
	}

	select {
	case s.outbox <- env:
	default:
		if env.Priority < 5 {
			s.logger.Warn("Очередь событий переполнена, %s отброшено", ev.Type)
			return
		}
		s.outbox <- env
	}
}

func (s *Session) forward() {
	defer s.wg.Done()
	for env := range s.outbox {
		if err := s.opts.Bus.Publish(context.Background(), env); err != nil {
			s.logger.Warn("Ошибка публикации %s: %v", env.EventType, err)
		}
	}
}

func (s *Session) publishSnapshot() {
	s.snapshot.Store(takeSnapshot(s))
}

// Run выполняет шаги по вводу из src, пока ввод не закончится, контекст не
// будет отменён или не будут пройдены все уровни. При tick > 0 шаги идут по
// таймеру, иначе без пауз.
func (s *Session) Run(ctx context.Context, src Source, tick time.Duration) error {
	var ticks <-chan time.Time
	if tick > 0 {
		ticker := time.NewTicker(tick)
		defer ticker.Stop()
		ticks = ticker.C
	}

	for !s.completed {
		if ticks != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticks:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		batch, ok := src.Next()
		if !ok {
			return nil
		}
		if err := s.Step(batch); err != nil {
			return err
		}
	}
	return nil
}

// Close завершает попытку и дожидается публикации событий.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	if s.level != nil {
		s.endAttempt("close")
	}
	if s.outbox != nil {
		close(s.outbox)
		s.wg.Wait()
	}
}

// Snapshot последний опубликованный снимок
func (s *Session) Snapshot() *Snapshot { return s.snapshot.Load() }

// Result итог текущей попытки
func (s *Session) Result() Result {
	l := s.level
	return Result{
		SessionID:   s.id,
		Level:       l.Name(),
		Tick:        l.Tick(),
		Finished:    l.IsFinished(),
		Collected:   l.CollectedPrisms(),
		Total:       l.PrismCount(),
		Respawns:    l.Player().Respawns(),
		Fingerprint: l.Fingerprint(),
	}
}

func (s *Session) ID() string           { return s.id }
func (s *Session) Level() *world.Level  { return s.level }
func (s *Session) IsPaused() bool       { return s.paused }
func (s *Session) IsCompleted() bool    { return s.completed }
func (s *Session) DeltaTime() float32   { return s.dt }
func (s *Session) Entry() *levels.Entry { return s.entry }
