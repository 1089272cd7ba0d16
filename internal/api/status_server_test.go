package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/microcube/internal/game"
	"github.com/annel0/microcube/internal/input"
	"github.com/annel0/microcube/internal/levels"
	"github.com/annel0/microcube/internal/logging"
	"github.com/annel0/microcube/internal/replay"
)

const level = `
name: Статус
player: {x: 0, y: 2, z: 0}
generators:
  - {type: ground-plate, start_x: -1, start_z: -1, end_x: 2, end_z: 2, height: 0}
`

// memStore хранит записи в памяти
type memStore struct {
	replays map[string]*replay.Replay
}

func (m *memStore) List() ([]replay.Summary, error) {
	out := make([]replay.Summary, 0, len(m.replays))
	for _, r := range m.replays {
		out = append(out, replay.Summary{ID: r.ID, Level: r.Level, Frames: len(r.Frames), Finished: r.Finished})
	}
	return out, nil
}

func (m *memStore) Load(id string) (*replay.Replay, error) {
	r, ok := m.replays[id]
	if !ok {
		return nil, replay.ErrNotFound
	}
	return r, nil
}

func newServer(t *testing.T, store ReplayStore) *StatusServer {
	t.Helper()
	s, err := NewStatusServer(Config{
		Registry:  prometheus.NewRegistry(),
		Namespace: "microcube",
		Logger:    logging.Discard(),
		Replays: func() (ReplayStore, error) {
			if store == nil {
				return nil, errors.New("нет хранилища")
			}
			return store, nil
		},
	})
	require.NoError(t, err)
	return s
}

// recordedSession проходит 30 тиков с записью
func recordedSession(t *testing.T) (*game.Session, *replay.Replay) {
	t.Helper()
	content, err := levels.Parse([]byte(level))
	require.NoError(t, err)

	rec := replay.NewRecorder()
	s, err := game.NewSession(content, game.Options{Logger: logging.Discard(), Recorder: rec})
	require.NoError(t, err)
	for i := 0; i < 30; i++ {
		require.NoError(t, s.Step(input.Batch{}))
	}
	s.Close()

	rs := rec.Replays()
	require.Len(t, rs, 1)
	return s, rs[0]
}

func do(t *testing.T, s *StatusServer, method, path string) (*httptest.ResponseRecorder, GenericResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(method, path, nil))

	var resp GenericResponse
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestStatusServer_Health(t *testing.T) {
	s := newServer(t, nil)
	w, _ := do(t, s, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestStatusServer_Metrics(t *testing.T) {
	s := newServer(t, nil)
	do(t, s, http.MethodGet, "/health")

	w, _ := do(t, s, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "microcube_status_http_request_duration_seconds")
}

func TestStatusServer_Snapshot(t *testing.T) {
	s := newServer(t, nil)

	w, resp := do(t, s, http.MethodGet, "/api/snapshot")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, resp.Success)

	session, _ := recordedSession(t)
	s.SetSession(session)

	w, resp = do(t, s, http.MethodGet, "/api/snapshot")
	require.Equal(t, http.StatusOK, w.Code)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Статус", data["level"])
	assert.Equal(t, float64(30), data["tick"])
	assert.Equal(t, float64(10), data["instances"]) // 9 плит и игрок
}

func TestStatusServer_Replays(t *testing.T) {
	_, r := recordedSession(t)
	s := newServer(t, &memStore{replays: map[string]*replay.Replay{r.ID: r}})

	w, resp := do(t, s, http.MethodGet, "/api/replays")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp.Data, 1)

	w, resp = do(t, s, http.MethodGet, "/api/replays/"+r.ID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(30), resp.Data.(map[string]interface{})["frames"])

	w, _ = do(t, s, http.MethodGet, "/api/replays/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, resp = do(t, s, http.MethodPost, "/api/replays/"+r.ID+"/verify")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	r.Fingerprint++
	w, resp = do(t, s, http.MethodPost, "/api/replays/"+r.ID+"/verify")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, resp.Success)
}

func TestStatusServer_ReplaysUnavailable(t *testing.T) {
	s := newServer(t, nil)
	w, _ := do(t, s, http.MethodGet, "/api/replays")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
