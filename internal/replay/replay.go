// Package replay записывает ввод попыток прохождения и проверяет их повторной симуляцией.
package replay

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/annel0/microcube/internal/game"
	"github.com/annel0/microcube/internal/levels"
	"github.com/annel0/microcube/internal/logging"
	"github.com/annel0/microcube/internal/world"
)

// ErrMismatch повторная симуляция разошлась с записью
var ErrMismatch = errors.New("replay: отпечаток не совпал")

// Replay ввод одной попытки и отпечаток итогового состояния уровня.
// Прогресс игры не сохраняется, только ввод.
type Replay struct {
	ID          string          `json:"id"`
	SessionID   string          `json:"session_id"`
	Level       string          `json:"level"`
	Document    levels.Document `json:"document"`
	DeltaTime   float32         `json:"dt"`
	Frames      []game.Frame    `json:"frames"`
	Fingerprint uint64          `json:"fingerprint"`
	Finished    bool            `json:"finished"`
	RecordedAt  time.Time       `json:"recorded_at"`
}

// Recorder собирает попытки сессии. Реализует game.Recorder.
type Recorder struct {
	mu      sync.Mutex
	current *Replay
	done    []*Replay
}

// NewRecorder создаёт пустой Recorder
func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) BeginAttempt(sessionID string, content *levels.Content, dt float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = &Replay{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		Level:      content.Name,
		Document:   content.Document(),
		DeltaTime:  dt,
		RecordedAt: time.Now().UTC(),
	}
}

func (r *Recorder) RecordFrame(f game.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil {
		r.current.Frames = append(r.current.Frames, f)
	}
}

func (r *Recorder) EndAttempt(fingerprint uint64, finished bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return
	}
	r.current.Fingerprint = fingerprint
	r.current.Finished = finished
	r.done = append(r.done, r.current)
	r.current = nil
}

// Replays завершённые попытки в порядке записи
func (r *Recorder) Replays() []*Replay {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Replay(nil), r.done...)
}

// VerifyResult итог проверки записи
type VerifyResult struct {
	Expected uint64
	Actual   uint64
	Ticks    uint64
	Finished bool
}

// Verify заново проигрывает ввод записи на свежем уровне и сравнивает отпечатки.
// opts должны совпадать с параметрами, с которыми шла запись.
func Verify(r *Replay, opts world.Options) (VerifyResult, error) {
	content, err := levels.FromDocument(r.Document)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("replay %s: %w", r.ID, err)
	}

	s, err := game.NewSession(content, game.Options{
		Level:     opts,
		DeltaTime: r.DeltaTime,
		Logger:    logging.Discard(),
	})
	if err != nil {
		return VerifyResult{}, fmt.Errorf("replay %s: %w", r.ID, err)
	}
	defer s.Close()

	for _, f := range r.Frames {
		if err := s.Step(f.Actions); err != nil {
			return VerifyResult{}, fmt.Errorf("replay %s, кадр %d: %w", r.ID, f.Tick, err)
		}
	}

	res := s.Result()
	out := VerifyResult{
		Expected: r.Fingerprint,
		Actual:   res.Fingerprint,
		Ticks:    res.Tick,
		Finished: res.Finished,
	}
	if out.Actual != out.Expected {
		return out, fmt.Errorf("%w: %s ожидали %x, получили %x", ErrMismatch, r.ID, out.Expected, out.Actual)
	}
	return out, nil
}
