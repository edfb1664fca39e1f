package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhasePreUpdate Phase = iota // 0: deliver last tick's events
	PhaseUpdate                 // 1: simulation step
	PhasePersist                // 2: autosave
)

// System is one step of the tick pipeline.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
