package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации игры.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Player     PlayerConfig     `yaml:"player"`
	Platform   PlatformConfig   `yaml:"platform"`
	Levels     LevelsConfig     `yaml:"levels"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	EventBus   EventBusConfig   `yaml:"eventbus"`
	Replay     ReplayConfig     `yaml:"replay"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type SimulationConfig struct {
	TickRate     int  `yaml:"tick_rate"` // Тиков в секунду
	SpatialIndex bool `yaml:"spatial_index"`
}

type PlayerConfig struct {
	Energy       float32 `yaml:"energy"`
	Mass         float32 `yaml:"mass"`
	Gravity      float32 `yaml:"gravity"`
	RespawnDepth float32 `yaml:"respawn_depth"`
}

type PlatformConfig struct {
	PushThreshold float32 `yaml:"push_threshold"`
}

type LevelsConfig struct {
	Dir string `yaml:"dir"`
}

type MetricsConfig struct {
	Addr      string `yaml:"addr"`
	Namespace string `yaml:"namespace"`
}

type EventBusConfig struct {
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
	Buffer    int    `yaml:"buffer"`
}

type ReplayConfig struct {
	Dir              string `yaml:"dir"`
	CompressionLevel int    `yaml:"compression_level"` // 1 быстрее, 4 лучше сжатие
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  bool   `yaml:"file"` // Писать логи в logs/<компонент>_<время>.log
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{TickRate: 60},
		Player: PlayerConfig{
			Energy:       1.5,
			Mass:         0.01,
			Gravity:      -9.81,
			RespawnDepth: 10,
		},
		Platform:  PlatformConfig{PushThreshold: 1},
		Levels:    LevelsConfig{Dir: "levels"},
		Metrics:   MetricsConfig{Namespace: "microcube"},
		EventBus:  EventBusConfig{Stream: "MICROCUBE_EVENTS", Retention: 24, Buffer: 1024},
		Replay:    ReplayConfig{Dir: "replays", CompressionLevel: 2},
		Telemetry: TelemetryConfig{ServiceName: "microcube"},
		Logging:   LoggingConfig{Level: "info"},
	}
}

// TickDuration длительность одного тика
func (s SimulationConfig) TickDuration() time.Duration {
	rate := s.TickRate
	if rate <= 0 {
		rate = 60
	}
	return time.Second / time.Duration(rate)
}

// DeltaTime шаг симуляции в секундах
func (s SimulationConfig) DeltaTime() float32 {
	return float32(s.TickDuration().Seconds())
}

// GetAddr возвращает адрес метрик с поддержкой fallback значений
func (m *MetricsConfig) GetAddr() string {
	return getWithEnvFallback(m.Addr, "MICROCUBE_METRICS_ADDR", "")
}

// GetURL возвращает адрес NATS с поддержкой fallback значений
func (e *EventBusConfig) GetURL() string {
	return getWithEnvFallback(e.URL, "MICROCUBE_NATS_URL", "")
}

// getWithEnvFallback возвращает значение с приоритетом: config -> env -> default
func getWithEnvFallback(value, envVar, def string) string {
	if value != "" {
		return value
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		return envVal
	}
	return def
}

// Validate проверяет значения, которые нельзя исправить молча
func (c *Config) Validate() error {
	if c.Simulation.TickRate <= 0 {
		return fmt.Errorf("simulation.tick_rate должен быть положительным, получено %d", c.Simulation.TickRate)
	}
	if c.Player.Energy <= 0 {
		return fmt.Errorf("player.energy должна быть положительной, получено %v", c.Player.Energy)
	}
	if c.Player.RespawnDepth <= 0 {
		return fmt.Errorf("player.respawn_depth должна быть положительной, получено %v", c.Player.RespawnDepth)
	}
	if c.Platform.PushThreshold < 0 {
		return fmt.Errorf("platform.push_threshold не может быть отрицательным, получено %v", c.Platform.PushThreshold)
	}
	if c.Replay.CompressionLevel < 1 || c.Replay.CompressionLevel > 4 {
		return fmt.Errorf("replay.compression_level должен быть от 1 до 4, получено %d", c.Replay.CompressionLevel)
	}
	return nil
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать из ENV GAME_CONFIG, иначе возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("GAME_CONFIG")
		if path == "" {
			return cfg, nil // конфиг не задан, берём дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения конфигурации %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
