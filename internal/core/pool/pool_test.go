package pool_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shapelab/engine/internal/core/pool"
)

type item struct {
	n int
}

func TestGetAllocatesWhenEmpty(t *testing.T) {
	p := pool.New[item]()
	a := p.Get()
	b := p.Get()
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, p.Allocated())
	assert.Equal(t, 0, p.Free())
}

func TestReclaimReusesWithoutReset(t *testing.T) {
	p := pool.New[item]()
	a := p.Get()
	a.n = 42
	p.Reclaim(a)
	assert.Equal(t, 1, p.Free())

	b := p.Get()
	assert.Same(t, a, b)
	assert.Equal(t, 42, b.n, "pool must not reset recycled values")
	assert.Equal(t, 1, p.Allocated())
}

func TestReclaimIsLIFO(t *testing.T) {
	p := pool.New[item]()
	a, b := p.Get(), p.Get()
	p.Reclaim(a)
	p.Reclaim(b)
	assert.Same(t, b, p.Get())
	assert.Same(t, a, p.Get())
}

func TestReclaimNil(t *testing.T) {
	p := pool.New[item]()
	p.Reclaim(nil)
	assert.Equal(t, 0, p.Free())
}
