package dispatch

import (
	"sync"

	"codeberg.org/vintr/impressd/internal/geometry"
)

// Viewport holds the mutable viewport state the engine samples each
// tick: scroll offsets, dimensions and visibility. The host mutates it;
// observers and the dispatcher read it during the read phase.
type Viewport struct {
	mu      sync.RWMutex
	scrollX float64
	scrollY float64
	width   float64
	height  float64
	visible bool
}

// NewViewport returns a visible viewport of the given size with scroll
// offsets at the origin.
func NewViewport(width, height float64) *Viewport {
	return &Viewport{
		width:   width,
		height:  height,
		visible: true,
	}
}

// SetScroll updates the scroll offsets.
func (v *Viewport) SetScroll(x, y float64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.scrollX = x
	v.scrollY = y
}

// SetSize updates the viewport dimensions.
func (v *Viewport) SetSize(width, height float64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.width = width
	v.height = height
}

// SetVisible marks the viewport shown or hidden, e.g. on tab switches.
func (v *Viewport) SetVisible(visible bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.visible = visible
}

// Scroll returns the current scroll offsets.
func (v *Viewport) Scroll() (x, y float64) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.scrollX, v.scrollY
}

// Size returns the current viewport dimensions.
func (v *Viewport) Size() (width, height float64) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.width, v.height
}

// Visible reports whether the viewport is currently shown.
func (v *Viewport) Visible() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.visible
}

// Rect returns the viewport rectangle in document coordinates. A hidden
// viewport yields an empty rectangle, so every target samples as ratio 0
// while the page is hidden.
func (v *Viewport) Rect() geometry.Rect {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if !v.visible {
		return geometry.Rect{}
	}

	return geometry.Rect{X: v.scrollX, Y: v.scrollY, Width: v.width, Height: v.height}
}
