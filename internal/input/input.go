// Package input описывает действия игрока и их преобразование в намерение движения.
package input

import (
	"fmt"
	"strings"
)

// Action действие игрока
type Action uint8

const (
	Up Action = iota + 1
	Down
	Left
	Right
	Enter
	Escape
)

var actionNames = map[Action]string{
	Up:     "up",
	Down:   "down",
	Left:   "left",
	Right:  "right",
	Enter:  "enter",
	Escape: "escape",
}

// String возвращает имя действия
func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return fmt.Sprintf("action(%d)", uint8(a))
}

// ParseAction разбирает имя действия без учёта регистра
func ParseAction(s string) (Action, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for a, n := range actionNames {
		if n == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("неизвестное действие %q", s)
}

// IsDirectional является ли действие направлением движения
func (a Action) IsDirectional() bool {
	return a >= Up && a <= Right
}

// ActionInfo состояние действия в одном тике
type ActionInfo struct {
	Action     Action `json:"action"`
	IsClicked  bool   `json:"clicked,omitempty"`  // Нажато в этом тике
	IsPressed  bool   `json:"pressed,omitempty"`  // Удерживается
	IsRepeated bool   `json:"repeated,omitempty"` // Автоповтор клавиатуры
}

// Batch действия одного тика
type Batch []ActionInfo

// IncludesClick было ли действие нажато в этом тике
func (b Batch) IncludesClick(a Action) bool {
	for _, info := range b {
		if info.Action == a && info.IsClicked {
			return true
		}
	}
	return false
}

// Intent намерение движения игрока
type Intent struct {
	IsReversed bool
	ChangeAxis bool
}

// MoveIntent переводит направление в намерение: Down и Right идут в обратную
// сторону, Left и Right меняют ось.
func MoveIntent(a Action) (Intent, bool) {
	if !a.IsDirectional() {
		return Intent{}, false
	}
	return Intent{
		IsReversed: a == Down || a == Right,
		ChangeAxis: a == Left || a == Right,
	}, true
}

// Intents намерения удерживаемых направлений в порядке пакета
func (b Batch) Intents() []Intent {
	var out []Intent
	for _, info := range b {
		if !info.IsPressed {
			continue
		}
		if intent, ok := MoveIntent(info.Action); ok {
			out = append(out, intent)
		}
	}
	return out
}

// Pressed пакет, в котором действия удерживаются и нажаты в этом тике
func Pressed(actions ...Action) Batch {
	b := make(Batch, 0, len(actions))
	for _, a := range actions {
		b = append(b, ActionInfo{Action: a, IsClicked: true, IsPressed: true})
	}
	return b
}

// ParseLine разбирает строку сценария: имена действий через пробел или запятую.
// Пустая строка и "-" означают тик без ввода, строки с # игнорируются вызывающим.
func ParseLine(line string) (Batch, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool { return r == ' ' || r == ',' || r == '\t' })
	var b Batch
	for _, f := range fields {
		if f == "-" {
			continue
		}
		a, err := ParseAction(f)
		if err != nil {
			return nil, err
		}
		b = append(b, ActionInfo{Action: a, IsClicked: true, IsPressed: true})
	}
	return b, nil
}
