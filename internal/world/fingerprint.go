package world

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl32"
)

// Fingerprint хэш наблюдаемого состояния уровня. Две симуляции с одинаковым
// вводом дают одинаковый отпечаток.
func (l *Level) Fingerprint() uint64 {
	h := xxhash.New()
	var buf [8]byte

	putU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = h.Write(buf[:])
	}
	putF32 := func(f float32) {
		binary.LittleEndian.PutUint32(buf[:4], math.Float32bits(f))
		_, _ = h.Write(buf[:4])
	}
	putVec := func(v mgl32.Vec3) {
		putF32(v.X())
		putF32(v.Y())
		putF32(v.Z())
	}
	putBool := func(b bool) {
		if b {
			putU64(1)
		} else {
			putU64(0)
		}
	}

	_, _ = h.WriteString(l.name)
	putU64(l.tick)
	putU64(uint64(l.collected))
	putBool(l.finished)

	p := l.player
	putVec(p.Position())
	putU64(uint64(p.State()))
	putU64(uint64(p.Barrier()))
	putF32(p.InnerOffset())
	putF32(p.Velocity())
	putU64(uint64(p.Respawns()))

	for _, q := range l.queues {
		putVec(q.Offset())
		putBool(q.IsActive())
		putU64(uint64(q.Len()))
	}
	for _, b := range l.blocks {
		putVec(b.Position())
		putBool(b.IsRender())
		putBool(b.IsBarrier())
	}
	return h.Sum64()
}
