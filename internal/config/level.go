package config

import "github.com/annel0/microcube/internal/world"

// LevelOptions параметры симуляции уровня. Логгер не заполняется.
func (c *Config) LevelOptions() world.Options {
	opts := world.DefaultOptions()
	opts.Player.Energy = c.Player.Energy
	opts.Player.Mass = c.Player.Mass
	opts.Player.Gravity = c.Player.Gravity
	opts.Player.RespawnDepth = c.Player.RespawnDepth
	opts.PushPolicy = world.ProximityPushPolicy{Threshold: c.Platform.PushThreshold}
	opts.SpatialIndex = c.Simulation.SpatialIndex
	return opts
}
