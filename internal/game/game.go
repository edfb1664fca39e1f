package game

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/shapelab/engine/internal/codec"
	"github.com/shapelab/engine/internal/config"
	"github.com/shapelab/engine/internal/core/event"
	"github.com/shapelab/engine/internal/level"
	"github.com/shapelab/engine/internal/persist"
	"github.com/shapelab/engine/internal/world"
	"go.uber.org/zap"
)

var errNoLevel = errors.New("no level loaded")

// SceneLoader builds the level with the given id.
type SceneLoader interface {
	LoadLevel(ctx context.Context, id int32) (*level.Level, error)
}

type Options struct {
	Seed             uint64 // 0 = seed from the clock
	CreationSpeed    float32
	DestructionSpeed float32
	DestroyDuration  float32
	StartLevel       int32
	ReseedOnLoad     bool
}

func OptionsFromConfig(c config.SimulationConfig) Options {
	return Options{
		Seed:             c.Seed,
		CreationSpeed:    c.CreationSpeed,
		DestructionSpeed: c.DestructionSpeed,
		DestroyDuration:  c.DestroyDuration,
		StartLevel:       c.StartLevel,
		ReseedOnLoad:     c.ReseedOnLoad,
	}
}

// Game owns the shape population, the active level and the random stream,
// and drives creation and destruction each tick.
// Accessed only from the game loop goroutine.
type Game struct {
	store    *world.Store
	registry *world.Registry
	pcg      *rand.PCG
	rng      *rand.Rand
	opts     Options

	creationSpeed       float32
	creationProgress    float32
	destructionSpeed    float32
	destructionProgress float32

	level     *level.Level
	levels    SceneLoader
	spawner   *level.Spawner
	snapshots persist.SnapshotStore
	bus       *event.Bus
	log       *zap.Logger
}

func New(
	registry *world.Registry,
	levels SceneLoader,
	spawner *level.Spawner,
	snapshots persist.SnapshotStore,
	bus *event.Bus,
	opts Options,
	log *zap.Logger,
) *Game {
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	pcg := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &Game{
		store:            registry.Store(),
		registry:         registry,
		pcg:              pcg,
		rng:              rand.New(pcg),
		opts:             opts,
		creationSpeed:    opts.CreationSpeed,
		destructionSpeed: opts.DestructionSpeed,
		levels:           levels,
		spawner:          spawner,
		snapshots:        snapshots,
		bus:              bus,
		log:              log,
	}
}

func (g *Game) Store() *world.Store       { return g.store }
func (g *Game) Registry() *world.Registry { return g.registry }
func (g *Game) Level() *level.Level       { return g.level }
func (g *Game) RNG() *rand.Rand           { return g.rng }

func (g *Game) CreationSpeed() float32        { return g.creationSpeed }
func (g *Game) DestructionSpeed() float32     { return g.destructionSpeed }
func (g *Game) SetCreationSpeed(v float32)    { g.creationSpeed = v }
func (g *Game) SetDestructionSpeed(v float32) { g.destructionSpeed = v }

// Progress returns the fractional creation and destruction accumulators.
func (g *Game) Progress() (creation, destruction float32) {
	return g.creationProgress, g.destructionProgress
}

// Tick advances the simulation by dt seconds.
func (g *Game) Tick(dt float32) {
	if g.level == nil {
		return
	}
	g.store.Update(dt)
	g.level.Update(dt)

	g.creationProgress += dt * g.creationSpeed
	for g.creationProgress >= 1 {
		g.creationProgress--
		g.CreateShape()
	}
	g.destructionProgress += dt * g.destructionSpeed
	for g.destructionProgress >= 1 {
		g.destructionProgress--
		g.DestroyShape()
	}

	if limit := g.level.PopulationLimit; limit > 0 {
		for g.store.LiveCount() > limit {
			g.DestroyShape()
		}
	}
}

// CreateShape spawns one shape in the active level.
func (g *Game) CreateShape() *world.Shape {
	if g.level == nil {
		return nil
	}
	sh, err := g.spawner.Spawn(g.level, g.store.LiveCount(), g.rng)
	if err != nil {
		g.log.Warn("spawn failed", zap.Int32("level", g.level.ID), zap.Error(err))
	}
	return sh
}

// DestroyShape picks a random shape outside the dying partition and kills
// it, or starts its dying phase when a destroy duration is configured.
func (g *Game) DestroyShape() {
	live := g.store.LiveCount()
	if live == 0 {
		return
	}
	sh := g.store.At(g.store.DyingCount() + g.rng.IntN(live))
	if g.opts.DestroyDuration <= 0 {
		sh.Die()
		return
	}
	sh.AddDying(g.opts.DestroyDuration)
}

// NewGame clears the population, resets the rates and reloads the current
// level (or the start level). The first game keeps the configured seed;
// later ones reseed from the running stream mixed with the clock.
func (g *Game) NewGame(ctx context.Context) error {
	g.resetPopulation()
	if g.level != nil {
		g.pcg.Seed(g.rng.Uint64(), uint64(time.Now().UnixNano()))
	}
	g.creationSpeed = g.opts.CreationSpeed
	g.destructionSpeed = g.opts.DestructionSpeed

	id := g.opts.StartLevel
	if g.level != nil {
		id = g.level.ID
	}
	return g.loadLevel(ctx, id)
}

// SwitchLevel clears the population and activates another level.
func (g *Game) SwitchLevel(ctx context.Context, id int32) error {
	g.resetPopulation()
	return g.loadLevel(ctx, id)
}

func (g *Game) resetPopulation() {
	g.store.Clear()
	g.creationProgress = 0
	g.destructionProgress = 0
}

func (g *Game) loadLevel(ctx context.Context, id int32) error {
	lvl, err := g.levels.LoadLevel(ctx, id)
	if err != nil {
		return fmt.Errorf("load level %d: %w", id, err)
	}
	g.level = lvl
	event.Emit(g.bus, event.LevelLoaded{LevelID: lvl.ID, Name: lvl.Name})
	g.log.Info("level loaded",
		zap.Int32("id", lvl.ID),
		zap.String("name", lvl.Name),
		zap.Int("population_limit", lvl.PopulationLimit),
	)
	return nil
}

// Save encodes the game and writes it to slot.
func (g *Game) Save(ctx context.Context, slot string) error {
	if g.level == nil {
		return errNoLevel
	}
	raw := persist.Save(g)
	if err := g.snapshots.Save(ctx, slot, raw); err != nil {
		return fmt.Errorf("save slot %s: %w", slot, err)
	}
	event.Emit(g.bus, event.GameSaved{Slot: slot, Shapes: g.store.Len(), Bytes: len(raw)})
	g.log.Info("game saved",
		zap.String("slot", slot),
		zap.Int("shapes", g.store.Len()),
		zap.Int("bytes", len(raw)),
	)
	return nil
}

// Load replaces the population with the record stored in slot. On a decode
// failure the population is left empty.
func (g *Game) Load(ctx context.Context, slot string) error {
	raw, err := g.snapshots.Load(ctx, slot)
	if err != nil {
		return fmt.Errorf("load slot %s: %w", slot, err)
	}
	g.resetPopulation()
	h, err := persist.Load(ctx, raw, g, g.log)
	if err != nil {
		g.store.Clear()
		return fmt.Errorf("decode slot %s: %w", slot, err)
	}
	event.Emit(g.bus, event.GameLoaded{
		Slot:    slot,
		Version: h.Version,
		Shapes:  g.store.Len(),
		LevelID: g.level.ID,
	})
	g.log.Info("game loaded",
		zap.String("slot", slot),
		zap.Int32("version", h.Version),
		zap.Int("shapes", g.store.Len()),
		zap.Int32("level", g.level.ID),
	)
	return nil
}

// State implements persist.Source.
func (g *Game) State() persist.State {
	sceneID := persist.DefaultSceneID
	if g.level != nil {
		sceneID = g.level.ID
	}
	return persist.State{
		RNG:                 g.rngState(),
		CreationSpeed:       g.creationSpeed,
		CreationProgress:    g.creationProgress,
		DestructionSpeed:    g.destructionSpeed,
		DestructionProgress: g.destructionProgress,
		SceneID:             sceneID,
	}
}

// SaveScene implements persist.Source.
func (g *Game) SaveScene(w *codec.Writer) {
	g.level.Save(w)
}

// RestoreState implements persist.Target. Records older than version 3
// carry no state and leave the current rates in place.
func (g *Game) RestoreState(h persist.Header) {
	if !h.HasState {
		return
	}
	g.creationSpeed = h.State.CreationSpeed
	g.creationProgress = h.State.CreationProgress
	g.destructionSpeed = h.State.DestructionSpeed
	g.destructionProgress = h.State.DestructionProgress
	if g.opts.ReseedOnLoad {
		return
	}
	if err := g.restoreRNG(h.State.RNG); err != nil {
		g.log.Warn("random state in save record ignored", zap.Error(err))
	}
}

// SwitchScene implements persist.Target.
func (g *Game) SwitchScene(ctx context.Context, sceneID int32) error {
	return g.loadLevel(ctx, sceneID)
}

// LoadScene implements persist.Target.
func (g *Game) LoadScene(r *codec.Reader) error {
	return g.level.Load(r)
}

func (g *Game) rngState() string {
	b, err := g.pcg.MarshalBinary()
	if err != nil {
		panic(fmt.Sprintf("game: marshal random state: %v", err))
	}
	return hex.EncodeToString(b)
}

func (g *Game) restoreRNG(s string) error {
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("decode random state: %w", err)
	}
	if err := g.pcg.UnmarshalBinary(b); err != nil {
		return fmt.Errorf("restore random state: %w", err)
	}
	return nil
}
