package geometry_test

import (
	"testing"

	"codeberg.org/vintr/impressd/internal/geometry"
	"github.com/stretchr/testify/assert"
)

func TestIntersection(t *testing.T) {
	viewport := geometry.Rect{X: 0, Y: 0, Width: 100, Height: 100}

	tests := []struct {
		name      string
		target    geometry.Rect
		wantRatio float64
		wantRect  geometry.Rect
	}{
		{
			name:      "fully inside",
			target:    geometry.Rect{X: 10, Y: 10, Width: 20, Height: 20},
			wantRatio: 1,
			wantRect:  geometry.Rect{X: 10, Y: 10, Width: 20, Height: 20},
		},
		{
			name:      "fully outside",
			target:    geometry.Rect{X: 200, Y: 200, Width: 50, Height: 50},
			wantRatio: 0,
		},
		{
			name:      "half overlapping horizontally",
			target:    geometry.Rect{X: -25, Y: 0, Width: 50, Height: 50},
			wantRatio: 0.5,
			wantRect:  geometry.Rect{X: 0, Y: 0, Width: 25, Height: 50},
		},
		{
			name:      "corner overlap",
			target:    geometry.Rect{X: 90, Y: 90, Width: 20, Height: 20},
			wantRatio: 0.25,
			wantRect:  geometry.Rect{X: 90, Y: 90, Width: 10, Height: 10},
		},
		{
			name:      "touching edge only",
			target:    geometry.Rect{X: 100, Y: 0, Width: 50, Height: 50},
			wantRatio: 0,
		},
		{
			name:      "zero area target",
			target:    geometry.Rect{X: 10, Y: 10, Width: 0, Height: 20},
			wantRatio: 0,
		},
		{
			name:      "target larger than viewport",
			target:    geometry.Rect{X: -50, Y: -50, Width: 200, Height: 200},
			wantRatio: 0.25,
			wantRect:  geometry.Rect{X: 0, Y: 0, Width: 100, Height: 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ratio, rect := geometry.Intersection(tt.target, viewport)
			assert.InDelta(t, tt.wantRatio, ratio, 1e-9)
			assert.Equal(t, tt.wantRect, rect)
		})
	}
}

func TestIntersectionAgainstHiddenViewport(t *testing.T) {
	target := geometry.Rect{X: 10, Y: 10, Width: 20, Height: 20}

	ratio, rect := geometry.Intersection(target, geometry.Rect{})
	assert.Zero(t, ratio)
	assert.Equal(t, geometry.Rect{}, rect)
}

func TestRectTranslate(t *testing.T) {
	r := geometry.Rect{X: 1, Y: 2, Width: 3, Height: 4}
	assert.Equal(t, geometry.Rect{X: 11, Y: -8, Width: 3, Height: 4}, r.Translate(10, -10))
}
