package system

import (
	"time"

	coresys "github.com/shapelab/engine/internal/core/system"
)

// Ticker advances the simulation by dt seconds.
type Ticker interface {
	Tick(dt float32)
}

// SimulationSystem steps the shape population and the active level.
// Phase 1 (Update).
type SimulationSystem struct {
	game Ticker
}

func NewSimulationSystem(game Ticker) *SimulationSystem {
	return &SimulationSystem{game: game}
}

func (s *SimulationSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *SimulationSystem) Update(dt time.Duration) {
	s.game.Tick(float32(dt.Seconds()))
}
