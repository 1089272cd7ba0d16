// Package app собирает компоненты игры по конфигурации: логирование,
// трассировку, метрики, шину событий, каталог уровней и хранилище записей.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/annel0/microcube/internal/api"
	"github.com/annel0/microcube/internal/config"
	"github.com/annel0/microcube/internal/eventbus"
	"github.com/annel0/microcube/internal/game"
	"github.com/annel0/microcube/internal/levelgen"
	"github.com/annel0/microcube/internal/levels"
	"github.com/annel0/microcube/internal/logging"
	"github.com/annel0/microcube/internal/observability"
	"github.com/annel0/microcube/internal/replay"
	"github.com/annel0/microcube/internal/world"
)

// ErrNoLevels каталог уровней пуст
var ErrNoLevels = errors.New("app: в каталоге нет уровней")

// Options параметры запуска
type Options struct {
	// Registry реестр метрик. nil означает новый реестр.
	Registry *prometheus.Registry
	Logger   *logging.Logger
	// Bus готовая шина событий. nil означает шину по конфигурации.
	Bus eventbus.EventBus
}

// App связанные компоненты одного процесса
type App struct {
	cfg    *config.Config
	logger *logging.Logger

	registry *prometheus.Registry
	metrics  *game.Metrics
	exporter *eventbus.MetricsExporter
	status   *api.StatusServer

	bus      eventbus.EventBus
	ownBus   bool
	listener eventbus.Subscription

	storeMu sync.Mutex
	store   *replay.Store

	shutdownTelemetry func(context.Context) error
}

// New поднимает компоненты по cfg. Хранилище записей открывается лениво.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		cfg:      cfg,
		logger:   opts.Logger,
		registry: opts.Registry,
		bus:      opts.Bus,
	}
	if a.logger == nil {
		a.logger = logging.Default()
	}
	if a.registry == nil {
		a.registry = prometheus.NewRegistry()
	}

	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(ctx, cfg.Telemetry.ServiceName)
		if err != nil {
			return nil, err
		}
		a.shutdownTelemetry = shutdown
	}

	if err := a.initBus(ctx); err != nil {
		a.Close()
		return nil, err
	}

	var err error
	if a.metrics, err = game.NewMetrics(a.registry, cfg.Metrics.Namespace); err != nil {
		a.Close()
		return nil, fmt.Errorf("метрики сессии: %w", err)
	}
	if a.exporter, err = eventbus.NewMetricsExporter(a.bus, a.registry, cfg.Metrics.Namespace); err != nil {
		a.Close()
		return nil, fmt.Errorf("метрики шины: %w", err)
	}
	a.exporter.Start(time.Second)

	if a.status, err = api.NewStatusServer(api.Config{
		Addr:      cfg.Metrics.GetAddr(),
		Registry:  a.registry,
		Namespace: cfg.Metrics.Namespace,
		Logger:    a.logger,
		Level:     cfg.LevelOptions(),
		Replays:   func() (api.ReplayStore, error) { return a.Store() },
	}); err != nil {
		a.Close()
		return nil, err
	}
	if cfg.Metrics.GetAddr() != "" {
		a.status.Start()
	}
	return a, nil
}

func (a *App) initBus(ctx context.Context) error {
	if a.bus == nil {
		if url := a.cfg.EventBus.GetURL(); url != "" {
			retention := time.Duration(a.cfg.EventBus.Retention) * time.Hour
			jb, err := eventbus.NewJetStreamBus(url, a.cfg.EventBus.Stream, retention)
			if err != nil {
				return err
			}
			a.bus = jb
			a.logger.Info("📨 Шина событий: JetStream %s", url)
		} else {
			a.bus = eventbus.NewMemoryBus(a.cfg.EventBus.Buffer)
			a.logger.Debug("📨 Шина событий: in-memory")
		}
		a.ownBus = true
	}

	sub, err := eventbus.StartLoggingListener(ctx, a.bus, a.logger)
	if err != nil {
		return fmt.Errorf("подписка логгера: %w", err)
	}
	a.listener = sub
	return nil
}

// LevelOptions параметры уровня из конфигурации
func (a *App) LevelOptions() world.Options {
	opts := a.cfg.LevelOptions()
	opts.Logger = a.logger
	return opts
}

// Catalog читает каталог уровней из конфигурации
func (a *App) Catalog() (*levels.Catalog, error) {
	return levels.NewCatalog(a.cfg.Levels.Dir)
}

// StartLevel находит уровень в каталоге. Пустое имя означает первый уровень.
func (a *App) StartLevel(name string) (*levels.Content, *levels.Entry, error) {
	catalog, err := a.Catalog()
	if err != nil {
		return nil, nil, err
	}

	entry := catalog.First()
	if name != "" {
		var ok bool
		if entry, ok = catalog.Find(name); !ok {
			return nil, nil, fmt.Errorf("уровень %q не найден в %s", name, a.cfg.Levels.Dir)
		}
	}
	if entry == nil {
		return nil, nil, ErrNoLevels
	}

	content, err := entry.Load()
	if err != nil {
		return nil, nil, err
	}
	return content, entry, nil
}

// GenerateLevel строит уровень по зерну
func GenerateLevel(seed int64) (*levels.Content, error) {
	doc, err := levelgen.NewGenerator(seed).Generate()
	if err != nil {
		return nil, err
	}
	return levels.FromDocument(doc)
}

// NewSession создаёт сессию со всеми подключёнными компонентами
func (a *App) NewSession(content *levels.Content, entry *levels.Entry, rec game.Recorder) (*game.Session, error) {
	return game.NewSession(content, game.Options{
		Level:     a.LevelOptions(),
		DeltaTime: a.cfg.Simulation.DeltaTime(),
		Entry:     entry,
		Bus:       a.bus,
		BusBuffer: a.cfg.EventBus.Buffer,
		Metrics:   a.metrics,
		Recorder:  rec,
		Logger:    a.logger,
	})
}

// PlayOptions параметры прохождения
type PlayOptions struct {
	Ticks    int           // Ограничение числа шагов, 0 без ограничения
	Tick     time.Duration // Пауза между шагами, 0 без пауз
	Record   bool          // Сохранять записи попыток
	Generate bool          // Сгенерировать уровень вместо каталога
	Seed     int64
	Level    string
}

// PlayReport итог прохождения
type PlayReport struct {
	Result    game.Result
	Completed bool
	Replays   []string
}

// Play проходит уровни по вводу src и при необходимости сохраняет записи.
func (a *App) Play(ctx context.Context, src game.Source, opts PlayOptions) (PlayReport, error) {
	var (
		content *levels.Content
		entry   *levels.Entry
		err     error
	)
	if opts.Generate {
		content, err = GenerateLevel(opts.Seed)
	} else {
		content, entry, err = a.StartLevel(opts.Level)
	}
	if err != nil {
		return PlayReport{}, err
	}

	var rec *replay.Recorder
	var gameRec game.Recorder
	if opts.Record {
		rec = replay.NewRecorder()
		gameRec = rec
	}

	s, err := a.NewSession(content, entry, gameRec)
	if err != nil {
		return PlayReport{}, err
	}
	a.status.SetSession(s)

	if opts.Ticks > 0 {
		src = game.Ticks(src, opts.Ticks)
	}
	runErr := s.Run(ctx, src, opts.Tick)

	report := PlayReport{Result: s.Result(), Completed: s.IsCompleted()}
	s.Close()

	if rec != nil {
		ids, err := a.saveReplays(rec.Replays())
		report.Replays = ids
		if err != nil {
			return report, err
		}
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return report, runErr
	}
	return report, nil
}

func (a *App) saveReplays(rs []*replay.Replay) ([]string, error) {
	store, err := a.Store()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rs))
	for _, r := range rs {
		if err := store.Save(r); err != nil {
			return ids, err
		}
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// Store открывает хранилище записей при первом обращении
func (a *App) Store() (*replay.Store, error) {
	a.storeMu.Lock()
	defer a.storeMu.Unlock()
	if a.store != nil {
		return a.store, nil
	}
	store, err := replay.Open(a.cfg.Replay.Dir, a.cfg.Replay.CompressionLevel)
	if err != nil {
		return nil, err
	}
	a.store = store
	return store, nil
}

// Verify загружает запись и проверяет её повторной симуляцией
func (a *App) Verify(id string) (replay.VerifyResult, error) {
	store, err := a.Store()
	if err != nil {
		return replay.VerifyResult{}, err
	}
	r, err := store.Load(id)
	if err != nil {
		return replay.VerifyResult{}, err
	}
	return replay.Verify(r, a.cfg.LevelOptions())
}

// Registry реестр метрик процесса
func (a *App) Registry() *prometheus.Registry { return a.registry }

// Status сервер состояния процесса
func (a *App) Status() *api.StatusServer { return a.status }

// Bus шина событий процесса
func (a *App) Bus() eventbus.EventBus { return a.bus }

// Close останавливает компоненты в обратном порядке
func (a *App) Close() error {
	var errs []error

	if a.status != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = append(errs, a.status.Stop(ctx))
		cancel()
	}
	if a.exporter != nil {
		a.exporter.Stop()
	}
	if a.listener != nil {
		a.listener.Unsubscribe()
	}
	if a.ownBus && a.bus != nil {
		errs = append(errs, a.bus.Close())
	}
	a.storeMu.Lock()
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	a.storeMu.Unlock()
	if a.shutdownTelemetry != nil {
		errs = append(errs, a.shutdownTelemetry(context.Background()))
	}
	return errors.Join(errs...)
}
