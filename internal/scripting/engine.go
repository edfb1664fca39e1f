package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shapelab/engine/internal/level"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// MaxSatellites caps the satellite count a script may request per spawn.
const MaxSatellites = 16

// Engine wraps a single gopher-lua VM for spawn tuning scripts.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads every script under
// scriptsDir/spawn. A missing directory yields an engine with no hooks.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	if err := e.loadDir(filepath.Join(scriptsDir, "spawn")); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load spawn scripts: %w", err)
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// HasSpawnHook reports whether a script defined adjust_spawn.
func (e *Engine) HasSpawnHook() bool {
	return e.vm.GetGlobal("adjust_spawn") != lua.LNil
}

// AdjustSpawn calls the Lua adjust_spawn function. Fields the script
// leaves out of its result keep their incoming values; any script error
// returns p unchanged.
func (e *Engine) AdjustSpawn(p level.SpawnParams) level.SpawnParams {
	fn := e.vm.GetGlobal("adjust_spawn")
	if fn == lua.LNil {
		return p
	}

	ctx := e.vm.NewTable()
	ctx.RawSetString("level", lua.LNumber(p.Level))
	ctx.RawSetString("population", lua.LNumber(p.Population))
	ctx.RawSetString("limit", lua.LNumber(p.Limit))
	ctx.RawSetString("speed", lua.LNumber(p.Speed))
	ctx.RawSetString("angular_speed", lua.LNumber(p.AngularSpeed))
	ctx.RawSetString("scale", lua.LNumber(p.Scale))
	ctx.RawSetString("satellites", lua.LNumber(p.Satellites))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, ctx); err != nil {
		e.log.Error("lua adjust_spawn error", zap.Error(err))
		return p
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		if result != lua.LNil {
			e.log.Error("lua adjust_spawn returned non-table", zap.String("type", result.Type().String()))
		}
		return p
	}

	if v, ok := rt.RawGetString("speed").(lua.LNumber); ok {
		p.Speed = float32(v)
	}
	if v, ok := rt.RawGetString("angular_speed").(lua.LNumber); ok {
		p.AngularSpeed = float32(v)
	}
	if v, ok := rt.RawGetString("scale").(lua.LNumber); ok {
		p.Scale = float32(v)
	}
	if v, ok := rt.RawGetString("satellites").(lua.LNumber); ok && v >= 0 {
		if v > MaxSatellites {
			e.log.Warn("lua adjust_spawn satellites clamped",
				zap.Float64("requested", float64(v)),
				zap.Int("max", MaxSatellites),
			)
			v = MaxSatellites
		}
		p.Satellites = int(v)
	}
	return p
}

func (e *Engine) Close() {
	e.vm.Close()
}
