// Package api HTTP-сервер состояния: здоровье процесса, метрики Prometheus,
// снимок текущей сессии и записи попыток.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/microcube/internal/game"
	"github.com/annel0/microcube/internal/logging"
	"github.com/annel0/microcube/internal/middleware"
	"github.com/annel0/microcube/internal/replay"
	"github.com/annel0/microcube/internal/world"
)

// SnapshotSource отдаёт последний снимок сессии. *game.Session подходит.
type SnapshotSource interface {
	Snapshot() *game.Snapshot
}

// ReplayStore записи попыток. *replay.Store подходит.
type ReplayStore interface {
	List() ([]replay.Summary, error)
	Load(id string) (*replay.Replay, error)
}

// Config параметры сервера состояния
type Config struct {
	Addr      string
	Registry  *prometheus.Registry
	Namespace string
	Logger    *logging.Logger
	// Level параметры симуляции для проверки записей
	Level world.Options
	// Replays хранилище записей, открываемое по требованию. nil отключает /api/replays.
	Replays func() (ReplayStore, error)
}

// GenericResponse общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// StatusServer HTTP-сервер состояния на gin
type StatusServer struct {
	router  *gin.Engine
	http    *http.Server
	cfg     Config
	metrics *ServerMetrics
	logger  *logging.Logger

	session atomic.Pointer[sessionRef]
}

type sessionRef struct{ src SnapshotSource }

// NewStatusServer создаёт сервер и регистрирует HTTP-метрики в cfg.Registry.
func NewStatusServer(cfg Config) (*StatusServer, error) {
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// === Observability middleware ===
	router.Use(otelgin.Middleware("microcube-status"))
	router.Use(middleware.NewRequestLogger(cfg.Logger).Handler())

	promMw, err := middleware.NewPrometheusMiddleware(cfg.Registry, cfg.Namespace)
	if err != nil {
		return nil, fmt.Errorf("http метрики: %w", err)
	}
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, cfg.Registry)

	s := &StatusServer{
		router:  router,
		cfg:     cfg,
		metrics: NewServerMetrics(),
		logger:  cfg.Logger,
	}
	s.setupRoutes()
	return s, nil
}

func (s *StatusServer) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	api.GET("/stats", s.handleStats)
	api.GET("/snapshot", s.handleSnapshot)

	if s.cfg.Replays != nil {
		api.GET("/replays", s.handleListReplays)
		api.GET("/replays/:id", s.handleGetReplay)
		api.POST("/replays/:id/verify", s.handleVerifyReplay)
	}
}

// SetSession подключает сессию к /api/snapshot. nil отключает.
func (s *StatusServer) SetSession(src SnapshotSource) {
	if src == nil {
		s.session.Store(nil)
		return
	}
	s.session.Store(&sessionRef{src: src})
}

// Handler корневой обработчик, используется в тестах
func (s *StatusServer) Handler() http.Handler { return s.router }

// Start запускает сервер в фоне
func (s *StatusServer) Start() {
	s.http = &http.Server{Addr: s.cfg.Addr, Handler: s.router, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		s.logger.Info("📈 Сервер состояния: http://%s (/health, /metrics, /api/snapshot)", s.cfg.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("❌ Сервер состояния: %v", err)
		}
	}()
}

// Stop останавливает сервер, дожидаясь активных запросов
func (s *StatusServer) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// handleHealth проверка состояния процесса
func (s *StatusServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// handleStats возвращает сведения о процессе
func (s *StatusServer) handleStats(c *gin.Context) {
	cpuPercent, _ := s.metrics.GetCPUUsage()
	rss, _ := s.metrics.GetRSS()

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data: gin.H{
			"uptime":      s.metrics.GetUptime(),
			"cpu_percent": fmt.Sprintf("%.2f", cpuPercent),
			"rss_mb":      fmt.Sprintf("%.2f", rss),
			"memory":      s.metrics.GetDetailedMemoryStats(),
		},
	})
}

// SnapshotView снимок сессии без инстанс-буферов
type SnapshotView struct {
	SessionID string     `json:"session_id"`
	Level     string     `json:"level"`
	Tick      uint64     `json:"tick"`
	Paused    bool       `json:"paused"`
	Finished  bool       `json:"finished"`
	Completed bool       `json:"completed"`
	Collected int        `json:"collected"`
	Total     int        `json:"total"`
	Position  [3]float32 `json:"position"`
	State     string     `json:"state"`
	Barrier   string     `json:"barrier"`
	Respawns  int        `json:"respawns"`
	Instances int        `json:"instances"`
}

func newSnapshotView(snap *game.Snapshot) SnapshotView {
	instances := 0
	for mesh := range snap.Instances {
		instances += snap.InstanceCount(mesh)
	}
	return SnapshotView{
		SessionID: snap.SessionID,
		Level:     snap.Level,
		Tick:      snap.Tick,
		Paused:    snap.Paused,
		Finished:  snap.Finished,
		Completed: snap.Completed,
		Collected: snap.Collected,
		Total:     snap.Total,
		Position:  snap.Player.Position,
		State:     snap.Player.State.String(),
		Barrier:   snap.Player.Barrier.String(),
		Respawns:  snap.Player.Respawns,
		Instances: instances,
	}
}

// handleSnapshot возвращает последний снимок сессии
func (s *StatusServer) handleSnapshot(c *gin.Context) {
	ref := s.session.Load()
	var snap *game.Snapshot
	if ref != nil {
		snap = ref.src.Snapshot()
	}
	if snap == nil {
		c.JSON(http.StatusNotFound, GenericResponse{Success: false, Message: "Нет активной сессии"})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Снимок сессии", Data: newSnapshotView(snap)})
}

func (s *StatusServer) replays(c *gin.Context) (ReplayStore, bool) {
	store, err := s.cfg.Replays()
	if err != nil {
		s.logger.Error("❌ Хранилище записей: %v", err)
		c.JSON(http.StatusServiceUnavailable, GenericResponse{Success: false, Message: "Хранилище записей недоступно"})
		return nil, false
	}
	return store, true
}

// handleListReplays возвращает список записей
func (s *StatusServer) handleListReplays(c *gin.Context) {
	store, ok := s.replays(c)
	if !ok {
		return
	}
	list, err := store.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Записи", Data: list})
}

func (s *StatusServer) loadReplay(c *gin.Context) (*replay.Replay, bool) {
	store, ok := s.replays(c)
	if !ok {
		return nil, false
	}
	r, err := store.Load(c.Param("id"))
	switch {
	case errors.Is(err, replay.ErrNotFound):
		c.JSON(http.StatusNotFound, GenericResponse{Success: false, Message: "Запись не найдена"})
		return nil, false
	case err != nil:
		c.JSON(http.StatusInternalServerError, GenericResponse{Success: false, Message: err.Error()})
		return nil, false
	}
	return r, true
}

// handleGetReplay возвращает сведения о записи без кадров
func (s *StatusServer) handleGetReplay(c *gin.Context) {
	r, ok := s.loadReplay(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Запись",
		Data: gin.H{
			"id":          r.ID,
			"session_id":  r.SessionID,
			"level":       r.Level,
			"frames":      len(r.Frames),
			"dt":          r.DeltaTime,
			"fingerprint": fmt.Sprintf("%x", r.Fingerprint),
			"finished":    r.Finished,
			"recorded_at": r.RecordedAt,
		},
	})
}

// handleVerifyReplay проигрывает запись заново и сравнивает отпечатки
func (s *StatusServer) handleVerifyReplay(c *gin.Context) {
	r, ok := s.loadReplay(c)
	if !ok {
		return
	}
	res, err := replay.Verify(r, s.cfg.Level)
	data := gin.H{
		"expected": fmt.Sprintf("%x", res.Expected),
		"actual":   fmt.Sprintf("%x", res.Actual),
		"ticks":    res.Ticks,
		"finished": res.Finished,
	}
	switch {
	case errors.Is(err, replay.ErrMismatch):
		c.JSON(http.StatusConflict, GenericResponse{Success: false, Message: err.Error(), Data: data})
	case err != nil:
		c.JSON(http.StatusUnprocessableEntity, GenericResponse{Success: false, Message: err.Error()})
	default:
		c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Запись подтверждена", Data: data})
	}
}
