package world

// ShapeRef is a non-owning reference to a shape. It captures the shape's
// generation so a recycled shape reads as invalid. A ref decoded from a save
// record starts out pending: it holds the referenced shape's save index
// until Resolve runs over the fully loaded store.
//
// The zero value is an invalid reference.
type ShapeRef struct {
	shape      *Shape
	generation uint32
	pending    int32 // save index + 1; 0 when nothing is pending
}

// RefTo returns a live reference to sh. A nil sh yields an invalid ref.
func RefTo(sh *Shape) ShapeRef {
	if sh == nil {
		return ShapeRef{}
	}
	return ShapeRef{shape: sh, generation: sh.generation}
}

// PendingRef returns an unresolved reference to the shape stored at
// saveIndex in a record. Negative indices produce an invalid ref.
func PendingRef(saveIndex int32) ShapeRef {
	if saveIndex < 0 {
		return ShapeRef{}
	}
	return ShapeRef{pending: saveIndex + 1}
}

// IsValid reports whether the referenced shape is still the same logical
// shape that was captured.
func (r ShapeRef) IsValid() bool {
	return r.shape != nil && r.shape.generation == r.generation && r.shape.store != nil
}

// Shape returns the referenced shape, or nil when the reference is invalid.
func (r ShapeRef) Shape() *Shape {
	if !r.IsValid() {
		return nil
	}
	return r.shape
}

// Pending reports whether the ref still waits for Resolve.
func (r ShapeRef) Pending() bool { return r.pending > 0 }

// SaveIndex returns the index to write into a record: the shape's current
// store index, or -1 when the reference is invalid.
func (r ShapeRef) SaveIndex() int32 {
	if !r.IsValid() {
		return -1
	}
	return int32(r.shape.index)
}

// Resolve binds a pending save index to the shape now stored at that index.
// An index outside the loaded population leaves the ref permanently invalid.
func (r *ShapeRef) Resolve(s *Store) {
	if r.pending == 0 {
		return
	}
	idx := int(r.pending - 1)
	r.pending = 0
	if idx >= s.Len() {
		return
	}
	sh := s.At(idx)
	r.shape = sh
	r.generation = sh.generation
}
