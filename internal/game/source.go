package game

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/annel0/microcube/internal/input"
)

// Source поставляет ввод по тикам. ok == false означает конец ввода.
type Source interface {
	Next() (batch input.Batch, ok bool)
}

// SourceFunc адаптер функции к Source
type SourceFunc func() (input.Batch, bool)

func (f SourceFunc) Next() (input.Batch, bool) { return f() }

// Script заранее записанный ввод, по пакету на тик
type Script struct {
	batches []input.Batch
	pos     int
}

// NewScript создаёт сценарий из пакетов
func NewScript(batches ...input.Batch) *Script {
	return &Script{batches: batches}
}

// ParseScript читает сценарий: строка на тик, действия через пробел,
// "-" или пустая строка для тика без ввода, "# ..." комментарий.
// Строка вида "up x30" повторяет пакет 30 тиков.
func ParseScript(r io.Reader) (*Script, error) {
	var s Script
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(text, "#") {
			continue
		}

		repeat := 1
		if i := strings.LastIndex(text, " x"); i >= 0 {
			var n int
			if _, err := fmt.Sscanf(text[i+2:], "%d", &n); err == nil && n > 0 {
				repeat = n
				text = text[:i]
			}
		}

		b, err := input.ParseLine(text)
		if err != nil {
			return nil, fmt.Errorf("строка %d: %w", line, err)
		}
		for i := 0; i < repeat; i++ {
			s.batches = append(s.batches, b)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения сценария: %w", err)
	}
	return &s, nil
}

func (s *Script) Next() (input.Batch, bool) {
	if s.pos >= len(s.batches) {
		return nil, false
	}
	b := s.batches[s.pos]
	s.pos++
	return b, true
}

// Len число тиков в сценарии
func (s *Script) Len() int { return len(s.batches) }

// Ticks ограничивает источник ровно n тиками. Когда src заканчивается,
// оставшиеся тики идут без ввода.
func Ticks(src Source, n int) Source {
	done := 0
	ended := src == nil
	return SourceFunc(func() (input.Batch, bool) {
		if done >= n {
			return nil, false
		}
		done++
		if ended {
			return nil, true
		}
		b, ok := src.Next()
		if !ok {
			ended = true
			return nil, true
		}
		return b, true
	})
}
