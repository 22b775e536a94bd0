package dispatch_test

import (
	"testing"
	"time"

	"codeberg.org/vintr/impressd/internal/dispatch"
	"codeberg.org/vintr/impressd/internal/engine"
	"codeberg.org/vintr/impressd/internal/errors"
	"codeberg.org/vintr/impressd/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.Init(false, false, true)
}

type captured struct {
	kind  dispatch.Kind
	frame dispatch.Frame
}

func newTestDispatcher(t *testing.T) (*dispatch.Dispatcher, *dispatch.Viewport, *engine.ManualDriver) {
	t.Helper()

	driver := engine.NewManualDriver(time.Unix(0, 0))
	eng := engine.New(driver)
	eng.Start()
	t.Cleanup(eng.Stop)

	viewport := dispatch.NewViewport(800, 600)
	dispatcher := dispatch.New(eng, viewport)

	return dispatcher, viewport, driver
}

func TestScrollEventOnOffsetChange(t *testing.T) {
	dispatcher, viewport, driver := newTestDispatcher(t)

	var events []captured
	require.NoError(t, dispatcher.On(dispatch.KindScroll, func(kind dispatch.Kind, frame dispatch.Frame) {
		events = append(events, captured{kind, frame})
	}))

	driver.Fire() // baseline tick, no change yet
	assert.Empty(t, events)

	viewport.SetScroll(0, 120)
	driver.Advance(16 * time.Millisecond)

	require.Len(t, events, 1)
	assert.Equal(t, dispatch.KindScroll, events[0].kind)
	assert.Equal(t, 120.0, events[0].frame.ScrollY)

	// No further change, no further event
	driver.Advance(16 * time.Millisecond)
	assert.Len(t, events, 1)
}

func TestResizeAndVisibilityEvents(t *testing.T) {
	dispatcher, viewport, driver := newTestDispatcher(t)

	var kinds []dispatch.Kind
	handler := func(kind dispatch.Kind, _ dispatch.Frame) {
		kinds = append(kinds, kind)
	}
	require.NoError(t, dispatcher.On(dispatch.KindResize, handler))
	require.NoError(t, dispatcher.On(dispatch.KindHide, handler))
	require.NoError(t, dispatcher.On(dispatch.KindShow, handler))

	driver.Fire()

	viewport.SetSize(1024, 768)
	driver.Advance(16 * time.Millisecond)

	viewport.SetVisible(false)
	driver.Advance(16 * time.Millisecond)

	viewport.SetVisible(true)
	driver.Advance(16 * time.Millisecond)

	assert.Equal(t, []dispatch.Kind{dispatch.KindResize, dispatch.KindHide, dispatch.KindShow}, kinds)
}

func TestDuplicateHandlerRegistrationIsNoOp(t *testing.T) {
	dispatcher, viewport, driver := newTestDispatcher(t)

	calls := 0
	handler := func(dispatch.Kind, dispatch.Frame) { calls++ }
	require.NoError(t, dispatcher.On(dispatch.KindScroll, handler))
	require.NoError(t, dispatcher.On(dispatch.KindScroll, handler))

	driver.Fire()
	viewport.SetScroll(0, 10)
	driver.Advance(16 * time.Millisecond)

	assert.Equal(t, 1, calls)
}

func TestOffRemovesHandler(t *testing.T) {
	dispatcher, viewport, driver := newTestDispatcher(t)

	calls := 0
	handler := func(dispatch.Kind, dispatch.Frame) { calls++ }
	require.NoError(t, dispatcher.On(dispatch.KindScroll, handler))
	dispatcher.Off(dispatch.KindScroll, handler)

	driver.Fire()
	viewport.SetScroll(0, 10)
	driver.Advance(16 * time.Millisecond)

	assert.Zero(t, calls)
}

func TestOnRejectsUnknownKind(t *testing.T) {
	dispatcher, _, _ := newTestDispatcher(t)

	err := dispatcher.On(dispatch.Kind(42), func(dispatch.Kind, dispatch.Frame) {})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrUnknownEvent))
}

func TestDestroyFiresExactlyOnceAfterFinalTick(t *testing.T) {
	dispatcher, viewport, driver := newTestDispatcher(t)

	destroys := 0
	scrolls := 0
	require.NoError(t, dispatcher.On(dispatch.KindDestroy, func(dispatch.Kind, dispatch.Frame) { destroys++ }))
	require.NoError(t, dispatcher.On(dispatch.KindScroll, func(dispatch.Kind, dispatch.Frame) { scrolls++ }))

	driver.Fire()
	viewport.SetScroll(0, 50)
	driver.Advance(16 * time.Millisecond)
	require.Equal(t, 1, scrolls)

	dispatcher.Destroy()
	dispatcher.Destroy()
	assert.Equal(t, 1, destroys)

	// Detached from the engine: further ticks dispatch nothing
	viewport.SetScroll(0, 100)
	driver.Advance(16 * time.Millisecond)
	assert.Equal(t, 1, scrolls)
}
