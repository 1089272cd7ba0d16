package vec

import "github.com/go-gl/mathgl/mgl32"

// Cell целочисленная клетка сетки в плоскости XZ
type Cell struct {
	X, Z int
}

// CellOf возвращает клетку, в которую попадает позиция (округление до ближайшего целого)
func CellOf(p mgl32.Vec3) Cell {
	r := Round(p)
	return Cell{X: int(r.X()), Z: int(r.Z())}
}

// Neighbors возвращает клетку и её восемь соседей
func (c Cell) Neighbors() [9]Cell {
	var out [9]Cell
	i := 0
	for dx := -1; dx <= 1; dx++ {
		for dz := -1; dz <= 1; dz++ {
			out[i] = Cell{X: c.X + dx, Z: c.Z + dz}
			i++
		}
	}
	return out
}

// DistanceXZ расстояние между точками без учёта высоты
func DistanceXZ(a, b mgl32.Vec3) float32 {
	return mgl32.Vec2{a.X() - b.X(), a.Z() - b.Z()}.Len()
}
