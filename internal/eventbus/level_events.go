package eventbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/annel0/microcube/internal/world"
)

// Source имя источника событий уровня
const Source = "microcube"

// levelEventVersion версия схемы LevelEvent
const levelEventVersion = 1

// LevelEvent полезная нагрузка события уровня
type LevelEvent struct {
	Session   string     `json:"session"`
	Level     string     `json:"level"`
	Type      string     `json:"type"`
	Tick      uint64     `json:"tick"`
	Position  [3]float32 `json:"position"`
	Collected int        `json:"collected"`
	Total     int        `json:"total"`
}

// priorityOf важность события для backpressure: финиш не теряем никогда
func priorityOf(t world.EventType) int {
	switch t {
	case world.EventFinished:
		return 8
	case world.EventPrismCollected:
		return 5
	case world.EventButtonPressed, world.EventRespawn:
		return 4
	default:
		return 2
	}
}

// NewLevelEnvelope упаковывает событие уровня в Envelope
func NewLevelEnvelope(sessionID, level string, ev world.Event) (*Envelope, error) {
	payload, err := json.Marshal(LevelEvent{
		Session:   sessionID,
		Level:     level,
		Type:      ev.Type.String(),
		Tick:      ev.Tick,
		Position:  [3]float32(ev.Position),
		Collected: ev.Collected,
		Total:     ev.Total,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal level event: %w", err)
	}

	return &Envelope{
		ID:            uuid.NewString(),
		Timestamp:     time.Now().UTC(),
		Source:        Source,
		EventType:     ev.Type.String(),
		Version:       levelEventVersion,
		CorrelationID: sessionID,
		Priority:      priorityOf(ev.Type),
		Payload:       payload,
		Metadata:      map[string]string{"level": level},
	}, nil
}

// DecodeLevelEvent разбирает полезную нагрузку события уровня
func DecodeLevelEvent(ev *Envelope) (LevelEvent, error) {
	var le LevelEvent
	if ev.Version != levelEventVersion {
		return le, fmt.Errorf("неподдерживаемая версия события %s: %d", ev.EventType, ev.Version)
	}
	if err := json.Unmarshal(ev.Payload, &le); err != nil {
		return le, fmt.Errorf("unmarshal level event: %w", err)
	}
	return le, nil
}
