package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/microcube/internal/config"
	"github.com/annel0/microcube/internal/game"
	"github.com/annel0/microcube/internal/input"
	"github.com/annel0/microcube/internal/logging"
)

const polygon = `
name: Полигон
player: {x: 0, y: 2, z: 0}
generators:
  - {type: ground-plate, start_x: -1, start_z: -1, end_x: 2, end_z: 2, height: 0}
`

func newApp(t *testing.T, files map[string]string) *App {
	t.Helper()
	t.Setenv("MICROCUBE_METRICS_ADDR", "")
	t.Setenv("MICROCUBE_NATS_URL", "")

	levelsDir := t.TempDir()
	for name, doc := range files {
		require.NoError(t, os.WriteFile(filepath.Join(levelsDir, name), []byte(doc), 0o644))
	}

	cfg := config.Default()
	cfg.Levels.Dir = levelsDir
	cfg.Replay.Dir = filepath.Join(t.TempDir(), "replays")

	a, err := New(context.Background(), cfg, Options{Logger: logging.Discard()})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.Close()) })
	return a
}

func idle() game.Source {
	return game.SourceFunc(func() (input.Batch, bool) { return nil, true })
}

func TestApp_PlayRecordsAndVerifies(t *testing.T) {
	a := newApp(t, map[string]string{"01-polygon.yaml": polygon})

	report, err := a.Play(context.Background(), idle(), PlayOptions{Ticks: 60, Record: true})
	require.NoError(t, err)

	assert.Equal(t, "Полигон", report.Result.Level)
	assert.Equal(t, uint64(60), report.Result.Tick)
	assert.False(t, report.Completed)
	require.Len(t, report.Replays, 1)

	res, err := a.Verify(report.Replays[0])
	require.NoError(t, err)
	assert.Equal(t, res.Expected, res.Actual)
	assert.Equal(t, uint64(60), res.Ticks)

	count, err := testutil.GatherAndCount(a.Registry(), "microcube_session_ticks_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestApp_PlayGeneratedLevel(t *testing.T) {
	a := newApp(t, nil)

	report, err := a.Play(context.Background(), idle(), PlayOptions{Ticks: 30, Generate: true, Seed: 7})
	require.NoError(t, err)
	assert.Equal(t, uint64(30), report.Result.Tick)
	assert.Empty(t, report.Replays)
}

func TestApp_StartLevel(t *testing.T) {
	a := newApp(t, map[string]string{
		"01-polygon.yaml": polygon,
		"02-second.yaml":  polygon,
	})

	content, entry, err := a.StartLevel("")
	require.NoError(t, err)
	assert.Equal(t, "01-polygon", entry.Name)
	assert.Equal(t, "Полигон", content.Name)

	_, entry, err = a.StartLevel("02-second")
	require.NoError(t, err)
	assert.Nil(t, entry.Next)

	_, _, err = a.StartLevel("missing")
	assert.Error(t, err)
}

func TestApp_EmptyCatalog(t *testing.T) {
	a := newApp(t, nil)
	_, _, err := a.StartLevel("")
	assert.ErrorIs(t, err, ErrNoLevels)
}

func TestApp_LevelOptionsFollowConfig(t *testing.T) {
	a := newApp(t, nil)
	a.cfg.Player.Energy = 2
	a.cfg.Simulation.SpatialIndex = true

	opts := a.LevelOptions()
	assert.Equal(t, float32(2), opts.Player.Energy)
	assert.True(t, opts.SpatialIndex)
}
