package levels

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/microcube/internal/world"
	"github.com/annel0/microcube/internal/world/entity"
)

const sample = `
name: Первые шаги
player: {x: 0, y: 2, z: 0}
move_queues:
  - name: lift
    repeatable: true
    active: false
    movements:
      - {x: 0, y: 1, z: 0, seconds: 1}
      - {x: 0, y: -1, z: 0, seconds: 1}
blocks:
  - {type: prism, x: 0, y: 1, z: 2}
  - {type: trigger-button, x: 1, y: 1, z: 0, move_queue: lift}
  - {type: ground, x: 0, y: 0, z: 5, move_queue: lift}
  - {type: falling-plate, x: 0, y: 0, z: 4}
generators:
  - {type: ground-plate, start_x: -1, start_z: -1, end_x: 2, end_z: 4, height: 0}
  - {type: finish-plate, x: 0, y: 0, z: 7}
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "Первые шаги", c.Name)
	assert.Equal(t, mgl32.Vec3{0, 2, 0}, c.StartPosition)
	require.Len(t, c.MoveQueues, 1)
	assert.True(t, c.MoveQueues[0].IsRepeatable())
	assert.False(t, c.MoveQueues[0].IsActive())
	assert.Equal(t, 2, c.MoveQueues[0].Len())
	assert.Len(t, c.Blocks, 4+15+9)

	button, ok := c.Blocks[1].(*world.TriggerButton)
	require.True(t, ok)
	assert.True(t, button.Queue().Valid())
}

func TestContent_NewLevelIsFresh(t *testing.T) {
	c, err := Parse([]byte(sample))
	require.NoError(t, err)

	first, err := c.NewLevel(world.DefaultOptions())
	require.NoError(t, err)
	for i := 0; i < 120; i++ {
		first.Update(1.0 / 60)
	}
	require.Equal(t, entity.Standing, first.Player().State())

	second, err := c.NewLevel(world.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), second.Tick())
	assert.Equal(t, entity.Falling, second.Player().State())
	assert.Equal(t, 1, second.PrismCount())
	assert.NotSame(t, first.Blocks()[0], second.Blocks()[0])
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		err  error
	}{
		{"тип блока", `blocks: [{type: lava}]`, ErrUnknownBlockType},
		{"очередь", `blocks: [{type: ground, move_queue: nope}]`, ErrUnknownMoveQueue},
		{"кнопка без очереди", `blocks: [{type: trigger-button}]`, ErrMissingQueue},
		{"генератор", `generators: [{type: mountains}]`, ErrUnknownGenerator},
		{"отрезок", `move_queues: [{name: q, movements: [{x: 1, seconds: 0}]}]`, ErrBadMovement},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.ErrorIs(t, err, tt.err)
		})
	}

	_, err := Parse([]byte("name: ["))
	assert.Error(t, err)
}

func TestMarshalRoundTrip(t *testing.T) {
	c, err := Parse([]byte(sample))
	require.NoError(t, err)

	data, err := Marshal(c.Document())
	require.NoError(t, err)

	again, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, c.Document(), again.Document())
}

func TestCatalog(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"02-bridge.yaml", "01-intro.yaml", "10-final.yml", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte(sample), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "drafts.yaml"), 0o755))

	cat, err := NewCatalog(dir)
	require.NoError(t, err)
	require.Equal(t, 3, cat.Len())

	first := cat.First()
	require.NotNil(t, first)
	assert.Equal(t, "01-intro", first.Name)
	assert.Equal(t, "02-bridge", first.Next.Name)
	assert.Equal(t, "10-final", first.Next.Next.Name)
	assert.Nil(t, first.Next.Next.Next)

	e, ok := cat.Find("02-bridge")
	require.True(t, ok)
	content, err := e.Load()
	require.NoError(t, err)
	assert.Equal(t, "Первые шаги", content.Name)

	_, err = NewCatalog(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestBundledLevels(t *testing.T) {
	cat, err := NewCatalog(filepath.Join("..", "..", "levels"))
	require.NoError(t, err)
	require.NotZero(t, cat.Len())

	for _, e := range cat.Entries() {
		t.Run(e.Name, func(t *testing.T) {
			c, err := e.Load()
			require.NoError(t, err)
			l, err := c.NewLevel(world.DefaultOptions())
			require.NoError(t, err)
			assert.NotZero(t, l.PrismCount())
		})
	}
}
