package world

import (
	"github.com/annel0/microcube/internal/vec"
	"github.com/annel0/microcube/internal/world/block"
)

// indexedBlock блок и его порядковый номер в уровне. Номер нужен, чтобы при
// равной высоте выбирать тот же блок, что и линейный проход.
type indexedBlock struct {
	order int
	block Block
}

// SpatialIndex сетка по целым клеткам XZ для блоков с неизменной позицией.
// Блоки с очередью движения в индекс не попадают и проверяются перебором.
type SpatialIndex struct {
	cells   map[vec.Cell][]indexedBlock
	movable []indexedBlock
}

// NewSpatialIndex строит индекс по блокам уровня. Блоки, которые по описанию
// вида никогда не бывают опорой, пропускаются.
func NewSpatialIndex(blocks []Block) *SpatialIndex {
	si := &SpatialIndex{cells: make(map[vec.Cell][]indexedBlock)}

	for i, b := range blocks {
		if d, ok := block.Get(b.Kind()); ok && !d.Barrier {
			continue
		}
		entry := indexedBlock{order: i, block: b}
		if m, ok := b.(mover); ok && m.Queue().Valid() {
			si.movable = append(si.movable, entry)
			continue
		}
		cell := vec.CellOf(b.Position())
		si.cells[cell] = append(si.cells[cell], entry)
	}
	return si
}

// Len число проиндексированных блоков, включая подвижные
func (si *SpatialIndex) Len() int {
	n := len(si.movable)
	for _, c := range si.cells {
		n += len(c)
	}
	return n
}

// highestBelow тот же запрос, что и Level.HighestBarrierBlockBelow, по индексу.
func (si *SpatialIndex) highestBelow(x, z, height float32) (Block, bool) {
	var (
		best      indexedBlock
		found     bool
		candidate = func(e indexedBlock) {
			if !isSupportBelow(e.block, x, z, height) {
				return
			}
			y := e.block.Position().Y()
			by := best.block
			if !found || y > by.Position().Y() || (y == by.Position().Y() && e.order < best.order) {
				best, found = e, true
			}
		}
	)

	center := vec.CellOf(vecXZ(x, z))
	for _, cell := range center.Neighbors() {
		for _, e := range si.cells[cell] {
			candidate(e)
		}
	}
	for _, e := range si.movable {
		candidate(e)
	}

	if !found {
		return nil, false
	}
	return best.block, true
}
