package world

import "github.com/go-gl/mathgl/mgl32"

// EventType определяет тип события уровня
type EventType uint8

const (
	EventPrismCollected EventType = iota + 1 // Собрана призма
	EventFinished                            // Уровень пройден
	EventRespawn                             // Игрок упал и вернулся на старт
	EventButtonPressed                       // Нажата кнопка, очередь движения включена
	EventPlateFalling                        // Падающая плита начала падать
)

// String возвращает имя события
func (t EventType) String() string {
	switch t {
	case EventPrismCollected:
		return "PrismCollected"
	case EventFinished:
		return "Finished"
	case EventRespawn:
		return "Respawn"
	case EventButtonPressed:
		return "ButtonPressed"
	case EventPlateFalling:
		return "PlateFalling"
	default:
		return "Unknown"
	}
}

// Event событие уровня, доставляется подписчикам синхронно внутри Update
type Event struct {
	Type      EventType
	Tick      uint64     // Номер тика, в котором произошло событие
	Position  mgl32.Vec3 // Позиция источника события
	Collected int        // Собрано призм на момент события
	Total     int        // Всего призм на уровне
}

// Handler обработчик событий уровня
type Handler func(Event)

type subscription struct {
	id      int
	handler Handler
}

// Subscribe регистрирует обработчик. Возвращает функцию отписки.
func (l *Level) Subscribe(h Handler) func() {
	id := l.nextSubID
	l.nextSubID++
	l.subscribers = append(l.subscribers, subscription{id: id, handler: h})

	return func() {
		for i, s := range l.subscribers {
			if s.id == id {
				l.subscribers = append(l.subscribers[:i], l.subscribers[i+1:]...)
				return
			}
		}
	}
}

func (l *Level) emit(t EventType, pos mgl32.Vec3) {
	ev := Event{
		Type:      t,
		Tick:      l.tick,
		Position:  pos,
		Collected: l.collected,
		Total:     l.prismCount,
	}
	for _, s := range l.subscribers {
		s.handler(ev)
	}
}
