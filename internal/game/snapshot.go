package game

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/microcube/internal/world"
	"github.com/annel0/microcube/internal/world/analysis"
	"github.com/annel0/microcube/internal/world/block"
	"github.com/annel0/microcube/internal/world/entity"
)

// PlayerView состояние игрока для отображения
type PlayerView struct {
	Position  mgl32.Vec3
	Offsetted mgl32.Vec3
	State     entity.State
	Barrier   analysis.Barrier
	Respawns  int
}

// Snapshot неизменяемый снимок после шага. Читается рендером из любого потока.
type Snapshot struct {
	SessionID string
	Level     string
	Tick      uint64
	Paused    bool
	Finished  bool
	Completed bool // Пройден последний уровень каталога
	Collected int
	Total     int
	Player    PlayerView

	// Instances инстанс-буферы по общей геометрии, world.InstanceStride значений на блок
	Instances map[block.MeshRef][]float32
}

func takeSnapshot(s *Session) *Snapshot {
	l := s.level
	p := l.Player()
	return &Snapshot{
		SessionID: s.id,
		Level:     l.Name(),
		Tick:      l.Tick(),
		Paused:    s.paused,
		Finished:  l.IsFinished(),
		Completed: s.completed,
		Collected: l.CollectedPrisms(),
		Total:     l.PrismCount(),
		Player: PlayerView{
			Position:  p.Position(),
			Offsetted: p.OffsettedPosition(),
			State:     p.State(),
			Barrier:   p.Barrier(),
			Respawns:  p.Respawns(),
		},
		Instances: l.Instances(),
	}
}

// InstanceCount число инстансов в буфере меша
func (s *Snapshot) InstanceCount(mesh block.MeshRef) int {
	return len(s.Instances[mesh]) / world.InstanceStride
}
