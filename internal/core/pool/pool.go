// Package pool provides typed free-list recyclers.
package pool

// Pool recycles *T values through a free list. It does not reset recycled
// values: callers must fully re-initialize whatever Get returns.
// Single-goroutine access only (game loop).
type Pool[T any] struct {
	free      []*T
	allocated int
}

func New[T any]() *Pool[T] {
	return &Pool[T]{
		free: make([]*T, 0, 16),
	}
}

// Get pops a recycled value, or allocates a new one when the free list is empty.
func (p *Pool[T]) Get() *T {
	if n := len(p.free); n > 0 {
		v := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		return v
	}
	p.allocated++
	return new(T)
}

// Reclaim pushes v back onto the free list.
func (p *Pool[T]) Reclaim(v *T) {
	if v == nil {
		return
	}
	p.free = append(p.free, v)
}

// Free returns the number of values waiting for reuse.
func (p *Pool[T]) Free() int { return len(p.free) }

// Allocated returns how many values this pool has ever allocated.
func (p *Pool[T]) Allocated() int { return p.allocated }
