package system

import (
	"context"
	"time"

	coresys "github.com/shapelab/engine/internal/core/system"
	"go.uber.org/zap"
)

// Saver writes the running game to a save slot.
type Saver interface {
	Save(ctx context.Context, slot string) error
}

// PersistenceSystem periodically auto-saves the game into its slot.
// Phase 2 (Persist).
type PersistenceSystem struct {
	game      Saver
	slot      string
	log       *zap.Logger
	tickCount int
	interval  int // auto-save every N ticks; 0 disables
	timeout   time.Duration
}

func NewPersistenceSystem(game Saver, slot string, log *zap.Logger, intervalTicks int) *PersistenceSystem {
	return &PersistenceSystem{
		game:     game,
		slot:     slot,
		log:      log,
		interval: intervalTicks,
		timeout:  5 * time.Second,
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	if s.interval <= 0 {
		return
	}
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	if err := s.save(); err != nil {
		s.log.Error("autosave failed", zap.String("slot", s.slot), zap.Error(err))
	}
}

// SaveNow saves immediately and resets the autosave countdown.
// Called for graceful shutdown.
func (s *PersistenceSystem) SaveNow() error {
	s.tickCount = 0
	return s.save()
}

func (s *PersistenceSystem) save() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	start := time.Now()
	if err := s.game.Save(ctx, s.slot); err != nil {
		return err
	}
	s.log.Debug("autosave complete",
		zap.String("slot", s.slot),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}
