package world

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/microcube/internal/vec"
)

// PushPolicy решает, должна ли движущаяся платформа сдвинуть игрока в этом тике.
type PushPolicy interface {
	ShouldPush(platform, playerPos, playerNext mgl32.Vec3, attached bool) bool
}

// ProximityPushPolicy толкает игрока, если он или его следующая клетка ближе
// Threshold к платформе, либо если он стоит на ней.
//
// Это приближение: площадь опоры не проверяется.
type ProximityPushPolicy struct {
	Threshold float32
}

// DefaultPushPolicy политика с порогом 1.0
func DefaultPushPolicy() ProximityPushPolicy {
	return ProximityPushPolicy{Threshold: 1}
}

func (p ProximityPushPolicy) ShouldPush(platform, playerPos, playerNext mgl32.Vec3, attached bool) bool {
	return attached ||
		vec.Distance(platform, playerPos) < p.Threshold ||
		vec.Distance(platform, playerNext) < p.Threshold
}
