package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/annel0/microcube/internal/app"
	"github.com/annel0/microcube/internal/config"
	"github.com/annel0/microcube/internal/game"
	"github.com/annel0/microcube/internal/input"
	"github.com/annel0/microcube/internal/logging"
)

func main() {
	var (
		configPath = flag.String("config", "", "Путь к YAML конфигурации (или ENV GAME_CONFIG)")
		levelName  = flag.String("level", "", "Имя уровня из каталога, по умолчанию первый")
		seed       = flag.Int64("generate", 0, "Сгенерировать уровень по зерну вместо каталога")
		scriptPath = flag.String("script", "", "Файл сценария ввода, '-' для stdin")
		ticks      = flag.Int("ticks", 0, "Ограничение числа шагов, 0 без ограничения")
		record     = flag.Bool("record", false, "Сохранить записи попыток")
		verifyID   = flag.String("verify", "", "Проверить запись с указанным ID и выйти")
		realtime   = flag.Bool("realtime", false, "Шагать по таймеру с частотой simulation.tick_rate")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	level := logging.ParseLevel(cfg.Logging.Level)
	logger := logging.Default()
	if cfg.Logging.File {
		if err := logging.InitDefaultLogger("microcube"); err != nil {
			log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
		}
		defer logging.CloseDefaultLogger()

		// Сессии пишут в отдельный файл
		logging.GetLoggerManager().SetDefaultLevels(level, logging.TRACE)
		logger = logging.GetComponentLogger("session")
		defer logging.GetLoggerManager().CloseAll()
	}
	logging.Default().SetLevels(level, logging.TRACE)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, app.Options{Logger: logger})
	if err != nil {
		logging.Error("❌ Ошибка запуска: %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logging.Warn("⚠️ Ошибка остановки: %v", err)
		}
	}()

	if *verifyID != "" {
		res, err := a.Verify(*verifyID)
		if err != nil {
			logging.Error("❌ Запись %s не прошла проверку: %v", *verifyID, err)
			os.Exit(1)
		}
		fmt.Printf("✅ Запись %s: %d тиков, отпечаток %x, финиш=%v\n", *verifyID, res.Ticks, res.Actual, res.Finished)
		return
	}

	src, err := openSource(*scriptPath)
	if err != nil {
		logging.Error("❌ Ошибка чтения сценария: %v", err)
		os.Exit(1)
	}

	opts := app.PlayOptions{
		Ticks:    *ticks,
		Record:   *record,
		Generate: isFlagSet("generate"),
		Seed:     *seed,
		Level:    *levelName,
	}
	if *realtime {
		opts.Tick = cfg.Simulation.TickDuration()
	}

	logging.Info("🎮 Запуск Microcube")
	report, err := a.Play(ctx, src, opts)
	if err != nil {
		logging.Error("❌ Ошибка прохождения: %v", err)
		os.Exit(1)
	}

	r := report.Result
	fmt.Printf("🏁 Уровень %q: тик %d, финиш=%v, призмы %d/%d, возвратов %d\n",
		r.Level, r.Tick, r.Finished, r.Collected, r.Total, r.Respawns)
	if report.Completed {
		fmt.Println("🎉 Все уровни пройдены")
	}
	for _, id := range report.Replays {
		fmt.Printf("💾 Запись %s\n", id)
	}
}

// openSource источник ввода: сценарий из файла, stdin или пустой ввод
func openSource(path string) (game.Source, error) {
	switch path {
	case "":
		return game.SourceFunc(func() (input.Batch, bool) { return nil, true }), nil
	case "-":
		return game.ParseScript(os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return game.ParseScript(f)
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
