package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/shapelab/engine/internal/codec"
	"github.com/shapelab/engine/internal/world"
	"go.uber.org/zap"
)

// CurrentVersion is the record version written by Save.
const CurrentVersion int32 = 7

// DefaultSceneID is used for records that predate the scene field.
const DefaultSceneID int32 = 1

// ErrCorruptRecord wraps every decode failure that is not a plain truncation.
var ErrCorruptRecord = errors.New("corrupt save record")

// maxShapes bounds the shape count read from a record.
const maxShapes = 1 << 20

// State is the game-level part of a record. It is only present from
// version 3; SceneID from version 2.
type State struct {
	RNG                 string
	CreationSpeed       float32
	CreationProgress    float32
	DestructionSpeed    float32
	DestructionProgress float32
	SceneID             int32
}

// Header describes a decoded record before its shapes are built.
type Header struct {
	Version    int32
	ShapeCount int32
	HasState   bool // false for records older than version 3
	State      State
}

// Source is what Save reads from.
type Source interface {
	State() State
	SaveScene(w *codec.Writer)
	Store() *world.Store
}

// Target is what Load writes into. Load calls RestoreState, then
// SwitchScene, then LoadScene (version 3 and later), then builds shapes
// through Registry.
type Target interface {
	Registry() *world.Registry
	RestoreState(h Header)
	SwitchScene(ctx context.Context, sceneID int32) error
	LoadScene(r *codec.Reader) error
}

// layout lists the field groups present in one record version. layoutFor
// is the only place that maps versions to fields.
//
// Byte order of a current record: version tag, shape count, state block
// (RNG string, four rates), scene id, scene payload, then per shape factory
// id, species, variant, transform, colour list, angular and linear velocity,
// age (v6+) and the behavior list. The count sits right after the tag so
// legacy records, whose first value is the count, keep it at the same
// logical position.
type layout struct {
	countTag     bool // shape count follows the version tag
	shapeIDs     bool // species and variant ids
	singleColor  bool
	sceneID      bool
	state        bool // RNG snapshot, rates and the scene payload
	velocities   bool
	colorList    bool // count-prefixed colours
	factoryID    bool
	age          bool
	behaviorList bool
}

func layoutFor(version int32) layout {
	return layout{
		countTag:     version > 0,
		shapeIDs:     version >= 1,
		singleColor:  version >= 1 && version < 5,
		sceneID:      version >= 2,
		state:        version >= 3,
		velocities:   version >= 4,
		colorList:    version >= 5,
		factoryID:    version >= 5,
		age:          version >= 6,
		behaviorList: version >= 7,
	}
}

// Save encodes src with the current layout.
func Save(src Source) []byte {
	store := src.Store()
	st := src.State()
	w := codec.NewWriter()

	w.WriteInt32(-CurrentVersion)
	w.WriteInt32(int32(store.Len()))
	w.WriteString(st.RNG)
	w.WriteFloat32(st.CreationSpeed)
	w.WriteFloat32(st.CreationProgress)
	w.WriteFloat32(st.DestructionSpeed)
	w.WriteFloat32(st.DestructionProgress)
	w.WriteInt32(st.SceneID)
	src.SaveScene(w)

	store.Each(func(sh *world.Shape) {
		w.WriteInt32(sh.Factory().ID())
		w.WriteInt32(sh.SpeciesID())
		w.WriteInt32(sh.VariantID())
		writeShape(w, sh)
	})
	return w.Bytes()
}

// PeekHeader decodes the leading fields of a record without touching any
// game state.
func PeekHeader(data []byte, log *zap.Logger) (Header, error) {
	h, _, _, err := readHeader(data, log)
	return h, err
}

// readHeader leaves the returned reader positioned at the scene payload.
func readHeader(data []byte, log *zap.Logger) (Header, *codec.Reader, layout, error) {
	r := codec.NewReader(data)
	version := -r.ReadInt32()
	if err := r.Err(); err != nil {
		return Header{}, nil, layout{}, fmt.Errorf("read version: %w", err)
	}
	effective := version
	if version > CurrentVersion {
		log.Warn("save record is newer than this build, decoding with the current layout",
			zap.Int32("version", version),
			zap.Int32("current", CurrentVersion),
		)
		effective = CurrentVersion
	}
	l := layoutFor(effective)
	r.SetVersion(effective)

	h := Header{Version: version, State: State{SceneID: DefaultSceneID}}
	if l.countTag {
		h.ShapeCount = r.ReadInt32()
	} else {
		h.ShapeCount = -version
		h.Version = 0
	}
	if l.state {
		h.HasState = true
		h.State.RNG = r.ReadString()
		h.State.CreationSpeed = r.ReadFloat32()
		h.State.CreationProgress = r.ReadFloat32()
		h.State.DestructionSpeed = r.ReadFloat32()
		h.State.DestructionProgress = r.ReadFloat32()
	}
	if l.sceneID {
		h.State.SceneID = r.ReadInt32()
	}
	if err := r.Err(); err != nil {
		return Header{}, nil, layout{}, fmt.Errorf("read header: %w", err)
	}
	if h.ShapeCount < 0 || h.ShapeCount > maxShapes {
		return Header{}, nil, layout{}, fmt.Errorf("%w: shape count %d", ErrCorruptRecord, h.ShapeCount)
	}
	return h, r, l, nil
}

// Load decodes data into t. The target store must be empty. On error the
// store may hold a partial population; callers clear it before resuming.
func Load(ctx context.Context, data []byte, t Target, log *zap.Logger) (Header, error) {
	h, r, l, err := readHeader(data, log)
	if err != nil {
		return Header{}, err
	}
	registry := t.Registry()
	store := registry.Store()
	if store.Len() != 0 {
		return Header{}, fmt.Errorf("load into a store holding %d shapes", store.Len())
	}

	t.RestoreState(h)
	if err := t.SwitchScene(ctx, h.State.SceneID); err != nil {
		return Header{}, fmt.Errorf("switch to scene %d: %w", h.State.SceneID, err)
	}
	if l.state {
		if err := t.LoadScene(r); err != nil {
			return Header{}, fmt.Errorf("load scene payload: %w", err)
		}
	}

	for i := int32(0); i < h.ShapeCount; i++ {
		if err := readShapeEntry(r, registry, l); err != nil {
			return Header{}, fmt.Errorf("shape %d of %d: %w", i, h.ShapeCount, err)
		}
	}
	if err := r.Err(); err != nil {
		return Header{}, err
	}

	store.ResolveReferences()
	store.RestoreDyingPartition()

	log.Debug("save record decoded",
		zap.Int32("version", h.Version),
		zap.Int32("shapes", h.ShapeCount),
		zap.Int("trailing_bytes", r.Remaining()),
	)
	return h, nil
}

func readShapeEntry(r *codec.Reader, registry *world.Registry, l layout) error {
	var factoryID, speciesID, variantID int32
	if l.factoryID {
		factoryID = r.ReadInt32()
	}
	if l.shapeIDs {
		speciesID = r.ReadInt32()
		variantID = r.ReadInt32()
	}
	if err := r.Err(); err != nil {
		return err
	}
	f, err := registry.Get(factoryID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}
	sh, err := f.Get(speciesID, variantID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}
	return readShape(r, sh, l)
}
