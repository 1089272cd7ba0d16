package world

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/microcube/internal/world/block"
	"github.com/annel0/microcube/internal/world/entity"
	"github.com/annel0/microcube/internal/world/moving"
)

const dt = float32(1.0 / 60.0)

func asBlocks[T Block](in []T) []Block {
	out := make([]Block, 0, len(in))
	for _, b := range in {
		out = append(out, b)
	}
	return out
}

func plane() []Block {
	return asBlocks(GeneratePlane(mgl32.Vec2{-2, -2}, mgl32.Vec2{3, 3}, 0, GroundColor))
}

func newTestLevel(t *testing.T, start mgl32.Vec3, queues []*moving.MoveQueue, blocks ...Block) *Level {
	t.Helper()
	l, err := NewLevel("test", blocks, queues, start, DefaultOptions())
	require.NoError(t, err)
	return l
}

// eventLog собирает события уровня по типам
type eventLog map[EventType][]Event

func record(l *Level) eventLog {
	log := make(eventLog)
	l.Subscribe(func(e Event) { log[e.Type] = append(log[e.Type], e) })
	return log
}

func run(l *Level, ticks int) {
	for i := 0; i < ticks; i++ {
		l.Update(dt)
	}
}

func TestLevel_FinishIsOneShot(t *testing.T) {
	blocks := asBlocks(GenerateFinish(mgl32.Vec3{0, 0, 0}, GroundColor))
	l := newTestLevel(t, mgl32.Vec3{0, 3, 0}, nil, blocks...)
	events := record(l)

	for i := 0; i < 600 && !l.IsFinished(); i++ {
		l.Update(dt)
	}
	require.True(t, l.IsFinished())
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, l.Player().Position())

	run(l, 120)
	l.Finish()

	assert.Len(t, events[EventFinished], 1)
	assert.True(t, l.IsFinished())
}

func TestLevel_PlayerFrozenAfterFinish(t *testing.T) {
	blocks := append(asBlocks(GenerateFinish(mgl32.Vec3{0, 0, 0}, GroundColor)), plane()...)
	l := newTestLevel(t, mgl32.Vec3{0, 1, 0}, nil, blocks...)
	run(l, 2)
	require.True(t, l.IsFinished())

	l.Player().Move(false, false)
	run(l, 60)

	assert.Equal(t, mgl32.Vec3{0, 1, 0}, l.Player().Position())
	assert.Equal(t, entity.Standing, l.Player().State())
}

func TestLevel_CollectPrismOnce(t *testing.T) {
	prism := NewPrism(mgl32.Vec3{0, 1, 1})
	l := newTestLevel(t, mgl32.Vec3{0, 1, 0}, nil, append(plane(), prism)...)
	events := record(l)
	require.Equal(t, 1, l.PrismCount())

	for i := 0; i < 600 && l.Player().Position() != (mgl32.Vec3{0, 1, 1}); i++ {
		l.Player().Move(false, false)
		l.Update(dt)
	}
	run(l, 60)

	assert.True(t, prism.IsCollected())
	assert.False(t, prism.IsRender())
	assert.Equal(t, 1, l.CollectedPrisms())
	require.Len(t, events[EventPrismCollected], 1)
	assert.Equal(t, 1, events[EventPrismCollected][0].Collected)
	assert.Equal(t, 1, events[EventPrismCollected][0].Total)
}

func TestLevel_PrismIsNotBarrier(t *testing.T) {
	prism := NewPrism(mgl32.Vec3{0, 0, 0})
	l := newTestLevel(t, mgl32.Vec3{0, 5, 0}, nil, prism)

	_, ok := l.HighestBarrierBelow(0, 0, 5)
	assert.False(t, ok)
	assert.Empty(t, collect(l))
}

func TestLevel_TriggerButtonActivatesQueue(t *testing.T) {
	queue := moving.NewMoveQueue([]*moving.Movement{moving.NewMovement(0, 2, 0, 1)}, false, false)
	platform := NewGround(mgl32.Vec3{5, 0, 5}, GroundColor, 0)
	button := NewTriggerButton(mgl32.Vec3{0, 1, 0}, ButtonColor, 0)

	l := newTestLevel(t, mgl32.Vec3{0, 1, 0}, []*moving.MoveQueue{queue}, append(plane(), platform, button)...)
	events := record(l)

	run(l, 1)
	require.Equal(t, entity.Standing, l.Player().State())
	assert.True(t, button.IsPressed())
	assert.True(t, queue.IsActive())
	assert.Len(t, events[EventButtonPressed], 1)

	run(l, 10)
	assert.Greater(t, platform.Position().Y(), float32(0))
	assert.Equal(t, mgl32.Vec3{5, 0, 5}, platform.BasePosition())

	run(l, 120)
	assert.Equal(t, mgl32.Vec3{5, 2, 5}, platform.Position())
	assert.Len(t, events[EventButtonPressed], 1)
}

func TestNewTriggerButton_RequiresQueue(t *testing.T) {
	assert.PanicsWithValue(t, ErrMissingQueue, func() {
		NewTriggerButton(mgl32.Vec3{}, ButtonColor, moving.NoQueue)
	})
}

func TestLevel_FallingPlate(t *testing.T) {
	plate := NewFallingPlate(mgl32.Vec3{0, 0, 0}, PlateColor)
	l := newTestLevel(t, mgl32.Vec3{0, 1, 0}, nil, plate)
	events := record(l)

	run(l, 1)
	require.Equal(t, entity.Standing, l.Player().State())
	assert.Equal(t, PlateTriggered, plate.State())
	assert.True(t, plate.IsBarrier())

	for i := 0; i < 120 && plate.State() != PlateFalling; i++ {
		l.Update(dt)
	}
	require.Equal(t, PlateFalling, plate.State())
	assert.False(t, plate.IsBarrier())
	assert.Equal(t, entity.Falling, l.Player().State())
	assert.Len(t, events[EventPlateFalling], 1)

	run(l, 600)
	assert.False(t, plate.IsRender())
	assert.GreaterOrEqual(t, l.Player().Respawns(), 1)
	assert.Len(t, events[EventRespawn], l.Player().Respawns())
}

func TestLevel_MovingPlatformCarriesPlayer(t *testing.T) {
	queue := moving.NewMoveQueue([]*moving.Movement{moving.NewMovement(2, 0, 0, 1)}, false, true)
	platform := NewGround(mgl32.Vec3{0, 0, 0}, GroundColor, 0)
	l := newTestLevel(t, mgl32.Vec3{0, 1, 0}, []*moving.MoveQueue{queue}, platform)

	run(l, 30)
	require.Equal(t, entity.Standing, l.Player().State())
	assert.Greater(t, l.Player().Position().X(), float32(0))
	assert.Equal(t, platform.Position().Add(mgl32.Vec3{0, 1, 0}), l.Player().Position())
	assert.Equal(t, float32(1), platform.InstanceData()[InstanceStride-1])

	run(l, 120)
	assert.Equal(t, mgl32.Vec3{2, 0, 0}, platform.Position())
	assert.Equal(t, mgl32.Vec3{2, 1, 0}, l.Player().Position())
	assert.Equal(t, float32(0), platform.InstanceData()[InstanceStride-1])
}

func TestLevel_PlayerRestsAfterPlatformStops(t *testing.T) {
	queue := moving.NewMoveQueue([]*moving.Movement{moving.NewMovement(2, 0, 0, 1)}, false, true)
	platform := NewGround(mgl32.Vec3{0, 0, 0}, GroundColor, 0)
	l := newTestLevel(t, mgl32.Vec3{0, 1, 0}, []*moving.MoveQueue{queue}, platform)

	run(l, 150)
	require.False(t, queue.IsMoving())
	require.Equal(t, mgl32.Vec3{2, 1, 0}, l.Player().Position())

	for i := 0; i < 120; i++ {
		l.Update(dt)
		p := l.Player()
		require.Equal(t, entity.Standing, p.State(), "тик %d", i)
		require.Equal(t, mgl32.Vec3{2, 1, 0}, p.Position(), "тик %d", i)
		require.Zero(t, p.InnerOffset(), "тик %d", i)
	}
	assert.Zero(t, l.Player().Respawns())
}

func TestLevel_MovingPlatformPushesNeighbour(t *testing.T) {
	// Платформа въезжает в клетку игрока сбоку
	queue := moving.NewMoveQueue([]*moving.Movement{moving.NewMovement(0, 0, 0.5, 1)}, false, true)
	platform := NewGround(mgl32.Vec3{0, 1, -1}, GroundColor, 0)
	l := newTestLevel(t, mgl32.Vec3{0, 1, 0}, []*moving.MoveQueue{queue}, append(plane(), platform)...)

	run(l, 2)
	assert.Greater(t, l.Player().Position().Z(), float32(0))
}

func TestNewLevel_Validation(t *testing.T) {
	queue := moving.NewMoveQueue(nil, false, false)

	_, err := NewLevel("bad", []Block{NewGround(mgl32.Vec3{}, GroundColor, 3)}, []*moving.MoveQueue{queue}, mgl32.Vec3{}, DefaultOptions())
	assert.ErrorIs(t, err, ErrUnknownQueue)

	_, err = NewLevel("bad", []Block{nil}, nil, mgl32.Vec3{}, DefaultOptions())
	assert.ErrorIs(t, err, ErrNilBlock)

	_, err = NewLevel("bad", nil, []*moving.MoveQueue{nil}, mgl32.Vec3{}, DefaultOptions())
	assert.ErrorIs(t, err, ErrUnknownQueue)

	l, err := NewLevel("ok", nil, nil, mgl32.Vec3{}, Options{})
	require.NoError(t, err)
	assert.Panics(t, func() { l.MoveQueue(0) })
}

func TestNewLevel_ZeroOptionsUseDefaults(t *testing.T) {
	l, err := NewLevel("zero", plane(), nil, mgl32.Vec3{0, 3, 0}, Options{})
	require.NoError(t, err)

	run(l, 300)
	p := l.Player()
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, p.Position())
	assert.Equal(t, entity.Standing, p.State())
	assert.Zero(t, p.Respawns())
	assert.Equal(t, entity.DefaultConfig().Energy, p.Energy())
}

func TestNewLevel_RejectsRespawnDepth(t *testing.T) {
	opts := DefaultOptions()
	opts.Player.RespawnDepth = 0
	_, err := NewLevel("bad", plane(), nil, mgl32.Vec3{0, 1, 0}, opts)
	assert.ErrorIs(t, err, ErrRespawnDepth)

	opts.Player.RespawnDepth = -1
	_, err = NewLevel("bad", plane(), nil, mgl32.Vec3{0, 1, 0}, opts)
	assert.ErrorIs(t, err, ErrRespawnDepth)
}

func collect(l *Level) []mgl32.Vec3 {
	var out []mgl32.Vec3
	for p := range l.BarrierPositions() {
		out = append(out, p)
	}
	return out
}

func TestLevel_BarrierPositionsRestartable(t *testing.T) {
	blocks := append(plane(), NewPrism(mgl32.Vec3{0, 1, 0}), NewFallingPlate(mgl32.Vec3{4, 0, 4}, PlateColor))
	l := newTestLevel(t, mgl32.Vec3{0, 1, 0}, nil, blocks...)

	first := collect(l)
	assert.Len(t, first, 26)
	assert.Equal(t, first, collect(l))

	n := 0
	for range l.BarrierPositions() {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func TestLevel_HighestBarrierBelow(t *testing.T) {
	l := newTestLevel(t, mgl32.Vec3{0, 10, 0}, nil,
		NewGround(mgl32.Vec3{0, 0, 0}, GroundColor, moving.NoQueue),
		NewGround(mgl32.Vec3{0, 3, 0}, GroundColor, moving.NoQueue),
		NewGround(mgl32.Vec3{0.5, 3, 0}, GroundColor, moving.NoQueue),
		NewGround(mgl32.Vec3{0, 7, 0}, GroundColor, moving.NoQueue),
		NewGround(mgl32.Vec3{1, 5, 0}, GroundColor, moving.NoQueue),
	)

	pos, ok := l.HighestBarrierBelow(0, 0, 6)
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{0, 3, 0}, pos, "при равной высоте побеждает первый")

	pos, ok = l.HighestBarrierBelow(0, 0, 3)
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, pos)

	_, ok = l.HighestBarrierBelow(0, 0, 0)
	assert.False(t, ok)

	_, ok = l.HighestBarrierBelow(5, 5, 100)
	assert.False(t, ok)
}

func buildIndexFixture() ([]Block, []*moving.MoveQueue) {
	queue := moving.NewMoveQueue([]*moving.Movement{moving.NewMovement(0, 1, 0, 0.5)}, true, true)
	blocks := plane()
	blocks = append(blocks,
		NewGround(mgl32.Vec3{1, 0, 1}, GroundColor, moving.NoQueue),
		NewFallingPlate(mgl32.Vec3{1, 0, 1}, PlateColor),
		NewGround(mgl32.Vec3{0.5, 2, -0.5}, GroundColor, moving.NoQueue),
		NewGround(mgl32.Vec3{-1, 1, 1}, GroundColor, 0),
		NewPrism(mgl32.Vec3{2, 3, 2}),
		NewFallingPlate(mgl32.Vec3{-2, 4, -2}, PlateColor),
	)
	blocks = append(blocks, asBlocks(GenerateFinish(mgl32.Vec3{7, 1, 7}, GroundColor))...)
	return blocks, []*moving.MoveQueue{queue}
}

func TestSpatialIndex_MatchesLinearScan(t *testing.T) {
	linearBlocks, linearQueues := buildIndexFixture()
	indexedBlocks, indexedQueues := buildIndexFixture()

	linear, err := NewLevel("linear", linearBlocks, linearQueues, mgl32.Vec3{9, 9, 9}, DefaultOptions())
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.SpatialIndex = true
	indexed, err := NewLevel("indexed", indexedBlocks, indexedQueues, mgl32.Vec3{9, 9, 9}, opts)
	require.NoError(t, err)
	require.True(t, indexed.Indexed())

	compare := func(tick int) {
		for x := float32(-3.5); x <= 8.5; x += 0.25 {
			for z := float32(-3.5); z <= 8.5; z += 0.25 {
				for _, h := range []float32{0, 0.5, 1, 2, 3, 10} {
					lb, lok := linear.HighestBarrierBlockBelow(x, z, h)
					ib, iok := indexed.HighestBarrierBlockBelow(x, z, h)
					require.Equal(t, lok, iok, "тик %d (%v, %v, %v)", tick, x, z, h)
					if lok {
						require.Equal(t, lb.Kind(), ib.Kind(), "тик %d (%v, %v, %v)", tick, x, z, h)
						require.Equal(t, lb.Position(), ib.Position(), "тик %d (%v, %v, %v)", tick, x, z, h)
					}
				}
			}
		}
	}

	for tick := 0; tick < 40; tick += 10 {
		compare(tick)
		run(linear, 10)
		run(indexed, 10)
	}
}

func TestSpatialIndex_SkipsNonBarrierKinds(t *testing.T) {
	si := NewSpatialIndex([]Block{
		NewGround(mgl32.Vec3{}, GroundColor, moving.NoQueue),
		NewPrism(mgl32.Vec3{1, 0, 0}),
		NewTriggerButton(mgl32.Vec3{2, 0, 0}, ButtonColor, 0),
		NewGround(mgl32.Vec3{3, 0, 0}, GroundColor, 0),
	})
	assert.Equal(t, 2, si.Len())
	assert.Len(t, si.movable, 1)
}

func TestLevel_Instances(t *testing.T) {
	prism := NewPrism(mgl32.Vec3{0, 1, 1})
	l := newTestLevel(t, mgl32.Vec3{0, 1, 0}, nil, append(plane(), prism)...)

	inst := l.Instances()
	assert.Len(t, inst[block.CubeMesh], (25+1)*InstanceStride)
	assert.Len(t, inst[block.PrismMesh], InstanceStride)

	for i := 0; i < 600 && !prism.IsCollected(); i++ {
		l.Player().Move(false, false)
		l.Update(dt)
	}
	inst = l.Instances()
	assert.Empty(t, inst[block.PrismMesh])
}

func TestLevel_Fingerprint(t *testing.T) {
	build := func() *Level {
		return newTestLevel(t, mgl32.Vec3{0, 1, 0}, nil, append(plane(), NewPrism(mgl32.Vec3{0, 1, 1}))...)
	}
	a, b := build(), build()
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	for i := 0; i < 30; i++ {
		a.Player().Move(false, false)
		b.Player().Move(false, false)
		a.Update(dt)
		b.Update(dt)
	}
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	a.Player().Move(false, false)
	b.Player().Move(true, false)
	a.Update(dt)
	b.Update(dt)
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}
