package vec

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Up единичный вектор по оси Y
var Up = mgl32.Vec3{0, 1, 0}

// Round округляет каждую компоненту к ближайшему целому, половины к чётному
func Round(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{roundf(v.X()), roundf(v.Y()), roundf(v.Z())}
}

// IsGridAligned проверяет, что X и Z лежат в узлах сетки
func IsGridAligned(v mgl32.Vec3) bool {
	return v.X() == roundf(v.X()) && v.Z() == roundf(v.Z())
}

// Distance евклидово расстояние между точками
func Distance(a, b mgl32.Vec3) float32 {
	return a.Sub(b).Len()
}

// Equal точное покомпонентное сравнение
func Equal(a, b mgl32.Vec3) bool {
	return a[0] == b[0] && a[1] == b[1] && a[2] == b[2]
}

// Abs модуль числа
func Abs(f float32) float32 {
	return float32(math.Abs(float64(f)))
}

// CopySign возвращает модуль x со знаком y
func CopySign(x, y float32) float32 {
	return float32(math.Copysign(float64(x), float64(y)))
}

// Sign возвращает -1, 0 или 1
func Sign(f float32) int {
	switch {
	case f > 0:
		return 1
	case f < 0:
		return -1
	default:
		return 0
	}
}

func roundf(f float32) float32 {
	return float32(math.RoundToEven(float64(f)))
}
