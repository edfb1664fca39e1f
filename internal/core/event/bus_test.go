package event_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shapelab/engine/internal/core/event"
)

func TestBusDeliversNextTick(t *testing.T) {
	bus := event.NewBus()
	var got []int32
	event.Subscribe(bus, func(e event.LevelLoaded) { got = append(got, e.LevelID) })

	event.Emit(bus, event.LevelLoaded{LevelID: 1})
	bus.DispatchAll()
	assert.Empty(t, got, "events are not visible before the swap")
	assert.Equal(t, 1, bus.Pending())

	bus.SwapBuffers()
	assert.Equal(t, 0, bus.Pending())
	bus.DispatchAll()
	assert.Equal(t, []int32{1}, got)

	bus.SwapBuffers()
	bus.DispatchAll()
	assert.Equal(t, []int32{1}, got, "delivered events are dropped after the next swap")
}

func TestBusKeepsEmissionOrderAcrossTypes(t *testing.T) {
	bus := event.NewBus()
	var order []string
	event.Subscribe(bus, func(event.GameSaved) { order = append(order, "saved") })
	event.Subscribe(bus, func(event.GameLoaded) { order = append(order, "loaded") })
	event.Subscribe(bus, func(event.LevelLoaded) { order = append(order, "level") })

	event.Emit(bus, event.GameLoaded{})
	event.Emit(bus, event.LevelLoaded{})
	event.Emit(bus, event.GameSaved{})
	event.Emit(bus, event.GameLoaded{})
	bus.SwapBuffers()
	bus.DispatchAll()

	assert.Equal(t, []string{"loaded", "level", "saved", "loaded"}, order)
}

func TestBusWithoutSubscribers(t *testing.T) {
	bus := event.NewBus()
	event.Emit(bus, event.GameSaved{Slot: "a"})
	bus.SwapBuffers()
	assert.NotPanics(t, bus.DispatchAll)
}

func TestBusFansOutToEveryHandler(t *testing.T) {
	bus := event.NewBus()
	var a, b string
	event.Subscribe(bus, func(e event.GameSaved) { a = e.Slot })
	event.Subscribe(bus, func(e event.GameSaved) { b = e.Slot })
	event.Emit(bus, event.GameSaved{Slot: "slot1"})
	bus.SwapBuffers()
	bus.DispatchAll()
	assert.Equal(t, "slot1", a)
	assert.Equal(t, "slot1", b)
}
