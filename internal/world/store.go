package world

import (
	"fmt"

	"go.uber.org/zap"
)

// Store is the partitioned population of shapes. The prefix
// shapes[:dyingCount] holds shapes marked as dying; the suffix holds the
// rest. Every shape's index field equals its position in shapes.
//
// While Update is iterating, Remove and PromoteToDying are queued and applied
// once the iteration completes.
// Single-goroutine access only (game loop).
type Store struct {
	shapes     []*Shape
	dyingCount int
	updating   bool

	killList  []ShapeRef
	dyingList []ShapeRef

	pools *BehaviorPools
	log   *zap.Logger
}

func NewStore(log *zap.Logger) *Store {
	return &Store{
		shapes:    make([]*Shape, 0, 256),
		killList:  make([]ShapeRef, 0, 16),
		dyingList: make([]ShapeRef, 0, 16),
		pools:     NewBehaviorPools(),
		log:       log,
	}
}

// Pools returns the behavior pools shared by every shape in the store.
func (s *Store) Pools() *BehaviorPools { return s.pools }

// Len returns the number of stored shapes, dying ones included.
func (s *Store) Len() int { return len(s.shapes) }

// DyingCount returns the size of the dying partition.
func (s *Store) DyingCount() int { return s.dyingCount }

// LiveCount returns the number of shapes outside the dying partition.
func (s *Store) LiveCount() int { return len(s.shapes) - s.dyingCount }

// At returns the shape at position i.
func (s *Store) At(i int) *Shape { return s.shapes[i] }

// Updating reports whether an Update iteration is in flight.
func (s *Store) Updating() bool { return s.updating }

// Each calls fn for every shape in storage order.
func (s *Store) Each(fn func(*Shape)) {
	for _, sh := range s.shapes {
		fn(sh)
	}
}

// IsDying reports whether sh sits in the dying partition.
func (s *Store) IsDying(sh *Shape) bool {
	return sh.store == s && sh.index >= 0 && sh.index < s.dyingCount
}

// Append adds sh to the end of the non-dying partition and returns its index.
func (s *Store) Append(sh *Shape) int {
	if sh.store != nil {
		panic(fmt.Sprintf("world: shape already stored at index %d", sh.index))
	}
	sh.store = s
	sh.index = len(s.shapes)
	s.shapes = append(s.shapes, sh)
	return sh.index
}

// Remove takes sh out of the store and hands it back to its factory.
func (s *Store) Remove(sh *Shape) {
	if s.updating {
		s.killList = append(s.killList, RefTo(sh))
		return
	}
	s.removeNow(sh)
}

// PromoteToDying moves sh into the dying partition. Promoting a shape that
// is already dying is a no-op.
func (s *Store) PromoteToDying(sh *Shape) {
	if s.updating {
		s.dyingList = append(s.dyingList, RefTo(sh))
		return
	}
	s.promoteNow(sh)
}

func (s *Store) removeNow(sh *Shape) {
	i := s.checkIndex(sh)
	if i < s.dyingCount {
		// Close the hole in the dying prefix with its last member first,
		// then remove from the boundary slot like any other shape.
		s.dyingCount--
		if i < s.dyingCount {
			moved := s.shapes[s.dyingCount]
			moved.index = i
			s.shapes[i] = moved
			i = s.dyingCount
		}
	}
	last := len(s.shapes) - 1
	if i < last {
		moved := s.shapes[last]
		moved.index = i
		s.shapes[i] = moved
	}
	s.shapes[last] = nil
	s.shapes = s.shapes[:last]
	sh.recycle()
}

func (s *Store) promoteNow(sh *Shape) {
	i := s.checkIndex(sh)
	if i < s.dyingCount {
		return
	}
	other := s.shapes[s.dyingCount]
	other.index = i
	s.shapes[i] = other
	sh.index = s.dyingCount
	s.shapes[s.dyingCount] = sh
	s.dyingCount++
}

// checkIndex enforces the caller contract: only shapes currently held by
// this store may be removed or promoted.
func (s *Store) checkIndex(sh *Shape) int {
	i := sh.index
	if sh.store != s || i < 0 || i >= len(s.shapes) || s.shapes[i] != sh {
		panic(fmt.Sprintf("world: shape index %d outside store bounds [0, %d)", i, len(s.shapes)))
	}
	return i
}

// Update advances every shape by dt seconds, then applies the removals and
// promotions requested during the iteration in enqueue order.
func (s *Store) Update(dt float32) {
	if s.updating {
		panic("world: Store.Update is not reentrant")
	}
	s.updating = true
	for i := 0; i < len(s.shapes); i++ {
		s.shapes[i].update(dt)
	}
	s.updating = false
	s.flush()
}

func (s *Store) flush() {
	kills, promotions := len(s.killList), len(s.dyingList)
	if kills == 0 && promotions == 0 {
		return
	}
	for _, ref := range s.killList {
		if ref.IsValid() {
			s.removeNow(ref.shape)
		}
	}
	clear(s.killList)
	s.killList = s.killList[:0]

	for _, ref := range s.dyingList {
		if ref.IsValid() {
			s.promoteNow(ref.shape)
		}
	}
	clear(s.dyingList)
	s.dyingList = s.dyingList[:0]

	s.log.Debug("deferred mutations applied",
		zap.Int("kills", kills),
		zap.Int("promotions", promotions),
		zap.Int("shapes", len(s.shapes)),
	)
}

// ResolveReferences converts every pending save index held by a behavior
// into a live reference. Called once after a full load.
func (s *Store) ResolveReferences() {
	for _, sh := range s.shapes {
		sh.resolveReferences(s)
	}
}

// RestoreDyingPartition promotes every shape carrying a Dying behavior.
// Called after ResolveReferences when a load completes.
func (s *Store) RestoreDyingPartition() {
	var dying []*Shape
	for _, sh := range s.shapes[s.dyingCount:] {
		for _, b := range sh.behaviors {
			if b.Kind() == KindDying {
				dying = append(dying, sh)
				break
			}
		}
	}
	for _, sh := range dying {
		s.PromoteToDying(sh)
	}
}

// Clear removes every shape.
func (s *Store) Clear() {
	if s.updating {
		panic("world: Store.Clear during update")
	}
	for len(s.shapes) > 0 {
		s.removeNow(s.shapes[len(s.shapes)-1])
	}
}
