// Package levelgen строит уровни по шуму Перлина.
package levelgen

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/annel0/microcube/internal/levels"
)

// Generator параметры процедурного уровня
type Generator struct {
	Seed       int64
	Width      int     // Размер поля по X
	Depth      int     // Размер поля по Z
	NoiseScale float64 // Масштаб шума высоты
	MaxHeight  int
	PrismRate  float64 // Шанс призмы на ровной клетке
	MaxPrisms  int
	Bridge     bool // Добавить движущийся мост перед стартом
}

// NewGenerator генератор с параметрами по умолчанию
func NewGenerator(seed int64) *Generator {
	return &Generator{
		Seed:       seed,
		Width:      12,
		Depth:      12,
		NoiseScale: 0.15,
		MaxHeight:  4,
		PrismRate:  0.1,
		MaxPrisms:  5,
		Bridge:     true,
	}
}

type cell struct{ x, z int }

// Heights карта высот поля. Соседние клетки отличаются не больше чем на 1,
// площадка финиша 3x3 в дальнем углу ровная.
func (g *Generator) Heights() [][]int {
	noise := NewNoise(g.Seed, g.NoiseScale)

	h := make([][]int, g.Width)
	for x := range h {
		h[x] = make([]int, g.Depth)
		for z := range h[x] {
			h[x][z] = int(math.Round(noise.At(x, z) * float64(g.MaxHeight)))
		}
	}

	g.relax(h)

	fx, fz := g.finishCenter()
	lowest := math.MaxInt
	for _, c := range around(fx, fz) {
		lowest = min(lowest, h[c.x][c.z])
	}
	for _, c := range around(fx, fz) {
		h[c.x][c.z] = lowest
	}

	g.relax(h)
	return h
}

// relax опускает клетки, пока каждая не станет выше соседей максимум на 1
func (g *Generator) relax(h [][]int) {
	for changed := true; changed; {
		changed = false
		for x := 0; x < g.Width; x++ {
			for z := 0; z < g.Depth; z++ {
				for _, n := range g.neighbours(x, z) {
					if h[x][z] > h[n.x][n.z]+1 {
						h[x][z] = h[n.x][n.z] + 1
						changed = true
					}
				}
			}
		}
	}
}

func (g *Generator) neighbours(x, z int) []cell {
	out := make([]cell, 0, 4)
	for _, d := range [4]cell{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		nx, nz := x+d.x, z+d.z
		if nx >= 0 && nx < g.Width && nz >= 0 && nz < g.Depth {
			out = append(out, cell{nx, nz})
		}
	}
	return out
}

func (g *Generator) finishCenter() (int, int) {
	return g.Width - 2, g.Depth - 2
}

func around(x, z int) []cell {
	out := make([]cell, 0, 9)
	for dx := -1; dx <= 1; dx++ {
		for dz := -1; dz <= 1; dz++ {
			out = append(out, cell{x + dx, z + dz})
		}
	}
	return out
}

// Generate строит документ уровня. Одинаковый сид даёт одинаковый уровень.
func (g *Generator) Generate() (levels.Document, error) {
	if g.Width < 4 || g.Depth < 4 {
		return levels.Document{}, fmt.Errorf("поле %dx%d меньше минимального 4x4", g.Width, g.Depth)
	}

	h := g.Heights()
	rng := rand.New(rand.NewSource(g.Seed))
	fx, fz := g.finishCenter()

	finishArea := make(map[cell]bool, 9)
	for _, c := range around(fx, fz) {
		finishArea[c] = true
	}

	doc := levels.Document{
		Name:   fmt.Sprintf("Процедурный уровень #%d", g.Seed),
		Player: levels.Point{X: 0, Y: float32(h[0][0] + 3), Z: 0},
	}

	prisms := 0
	for x := 0; x < g.Width; x++ {
		for z := 0; z < g.Depth; z++ {
			c := cell{x, z}
			if finishArea[c] {
				continue
			}
			doc.Blocks = append(doc.Blocks, levels.BlockSpec{
				Type: "ground", X: float32(x), Y: float32(h[x][z]), Z: float32(z),
			})

			if c == (cell{0, 0}) || prisms >= g.MaxPrisms || !g.isPlateau(h, x, z) {
				continue
			}
			if rng.Float64() < g.PrismRate {
				doc.Blocks = append(doc.Blocks, levels.BlockSpec{
					Type: "prism", X: float32(x), Y: float32(h[x][z] + 1), Z: float32(z),
				})
				prisms++
			}
		}
	}

	doc.Generators = append(doc.Generators, levels.GeneratorSpec{
		Type: "finish-plate", X: float32(fx), Y: float32(h[fx][fz]), Z: float32(fz),
	})

	if g.Bridge {
		doc.MoveQueues = append(doc.MoveQueues, levels.QueueSpec{
			Name:       "bridge",
			Repeatable: true,
			Active:     true,
			Movements: []levels.MovementSpec{
				{X: -2, Seconds: 2},
				{X: 2, Seconds: 2},
			},
		})
		doc.Blocks = append(doc.Blocks, levels.BlockSpec{
			Type: "ground", X: -1, Y: float32(h[0][0]), Z: 0, MoveQueue: "bridge",
		})
	}

	return doc, nil
}

// isPlateau все соседи клетки на той же высоте
func (g *Generator) isPlateau(h [][]int, x, z int) bool {
	for _, n := range g.neighbours(x, z) {
		if h[n.x][n.z] != h[x][z] {
			return false
		}
	}
	return true
}
