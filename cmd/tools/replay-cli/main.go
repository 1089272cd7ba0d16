package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/annel0/microcube/internal/config"
	"github.com/annel0/microcube/internal/eventbus"
	"github.com/annel0/microcube/internal/replay"
	"github.com/annel0/microcube/internal/world"
)

func main() {
	var (
		configPath = flag.String("config", "", "Путь к YAML конфигурации (или ENV GAME_CONFIG)")
		command    = flag.String("cmd", "list", "Command: list, show, verify, delete, tail")
		id         = flag.String("id", "", "Replay ID для show, verify, delete")
		eventTypes = flag.String("types", "", "Event types filter (comma-separated)")
		limit      = flag.Int("limit", 0, "Maximum number of events for tail, 0 without limit")
		history    = flag.Bool("history", false, "tail: deliver events already stored in the stream")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	switch *command {
	case "list":
		err = withStore(cfg, listReplays)
	case "show":
		err = withStore(cfg, func(s *replay.Store) error { return showReplay(s, *id) })
	case "verify":
		err = withStore(cfg, func(s *replay.Store) error { return verifyReplay(s, *id, cfg.LevelOptions()) })
	case "delete":
		err = withStore(cfg, func(s *replay.Store) error { return s.Delete(requireID(*id)) })
	case "tail":
		err = tailEvents(cfg, parseStringList(*eventTypes), *limit, *history)
	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: list, show, verify, delete, tail")
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("❌ %s failed: %v", *command, err)
	}
}

func withStore(cfg *config.Config, fn func(*replay.Store) error) error {
	store, err := replay.Open(cfg.Replay.Dir, cfg.Replay.CompressionLevel)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func requireID(id string) string {
	if id == "" {
		log.Fatal("❌ -id is required")
	}
	return id
}

// listReplays выводит сохранённые записи
func listReplays(s *replay.Store) error {
	list, err := s.List()
	if err != nil {
		return err
	}
	fmt.Printf("🎬 Replays: %d\n", len(list))
	for _, r := range list {
		fmt.Printf("  %s  %-24q frames=%-6d finished=%v\n", r.ID, r.Level, r.Frames, r.Finished)
	}
	return nil
}

// showReplay выводит запись покадрово, пропуская пустые кадры
func showReplay(s *replay.Store, id string) error {
	r, err := s.Load(requireID(id))
	if err != nil {
		return err
	}
	fmt.Printf("Replay %s\n", r.ID)
	fmt.Printf("  Session:  %s\n", r.SessionID)
	fmt.Printf("  Level:    %s\n", r.Level)
	fmt.Printf("  Recorded: %s\n", r.RecordedAt.Format(time.RFC3339))
	fmt.Printf("  Frames:   %d (dt=%v)\n", len(r.Frames), r.DeltaTime)
	fmt.Printf("  Result:   fingerprint=%x finished=%v\n", r.Fingerprint, r.Finished)
	for _, f := range r.Frames {
		if len(f.Actions) == 0 {
			continue
		}
		parts := make([]string, 0, len(f.Actions))
		for _, a := range f.Actions {
			state := "hold"
			if a.IsClicked {
				state = "click"
			}
			parts = append(parts, a.Action.String()+":"+state)
		}
		fmt.Printf("  [%6d] %s\n", f.Tick, strings.Join(parts, " "))
	}
	return nil
}

func verifyReplay(s *replay.Store, id string, opts world.Options) error {
	r, err := s.Load(requireID(id))
	if err != nil {
		return err
	}
	res, err := replay.Verify(r, opts)
	if err != nil {
		return err
	}
	fmt.Printf("✅ %s: %d ticks, fingerprint %x, finished=%v\n", r.ID, res.Ticks, res.Actual, res.Finished)
	return nil
}

// tailEvents печатает события уровней из JetStream, пока не прервут
func tailEvents(cfg *config.Config, types []string, limit int, history bool) error {
	url := cfg.EventBus.GetURL()
	if url == "" {
		return fmt.Errorf("eventbus.url or MICROCUBE_NATS_URL is not set")
	}
	retention := time.Duration(cfg.EventBus.Retention) * time.Hour
	bus, err := eventbus.NewJetStreamBus(url, cfg.EventBus.Stream, retention)
	if err != nil {
		return err
	}
	defer bus.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	subCtx := ctx
	if history {
		subCtx = eventbus.WithHistory(ctx)
	}

	events := make(chan *eventbus.Envelope, 64)
	sub, err := bus.Subscribe(subCtx, eventbus.Filter{Types: types}, func(_ context.Context, ev *eventbus.Envelope) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	fmt.Printf("🎬 Tailing %s (limit: %d)\n", url, limit)
	count := 0
	for limit == 0 || count < limit {
		select {
		case <-ctx.Done():
			fmt.Printf("\n📊 Total events: %d\n", count)
			return nil
		case ev := <-events:
			printEvent(ev)
			count++
		}
	}
	fmt.Printf("\n📊 Total events: %d\n", count)
	return nil
}

// printEvent выводит событие в читаемом формате
func printEvent(ev *eventbus.Envelope) {
	fmt.Printf("[%s] %s [%s] %s\n", ev.Timestamp.Format("15:04:05"), ev.Source, ev.EventType, ev.ID)
	le, err := eventbus.DecodeLevelEvent(ev)
	if err != nil {
		return
	}
	fmt.Printf("  Level: %q tick=%d prisms=%d/%d\n", le.Level, le.Tick, le.Collected, le.Total)
}

// parseStringList парсит строку с разделителями-запятыми
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
