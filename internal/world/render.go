package world

import (
	"github.com/annel0/microcube/internal/world/block"
)

// Instances собирает инстанс-буферы видимых блоков, сгруппированные по общей
// геометрии. Игрок попадает в буфер своего меша, пока уровень не пройден.
func (l *Level) Instances() map[block.MeshRef][]float32 {
	out := make(map[block.MeshRef][]float32)

	for _, b := range l.blocks {
		if !b.IsRender() {
			continue
		}
		mesh := Mesh(b)
		out[mesh] = append(out[mesh], b.InstanceData()...)
	}

	if !l.finished {
		d, _ := block.Get(block.PlayerKind)
		out[d.Mesh] = append(out[d.Mesh], l.player.InstanceData()...)
	}
	return out
}
