package geometry

// Rect is an axis-aligned rectangle in viewport coordinates.
// X and Y locate the top-left corner.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Left returns the x coordinate of the left edge.
func (r Rect) Left() float64 { return r.X }

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Top returns the y coordinate of the top edge.
func (r Rect) Top() float64 { return r.Y }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Area returns the rectangle's area. Degenerate rectangles have area 0.
func (r Rect) Area() float64 {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}

	return r.Width * r.Height
}

// Translate returns a copy of r shifted by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, Width: r.Width, Height: r.Height}
}

// Intersection computes the overlap between a target rectangle and the
// viewport. It returns the fraction of the target's area inside the
// viewport and the overlapping rectangle itself. A target with zero area
// yields ratio 0 and an empty rectangle.
func Intersection(target, viewport Rect) (float64, Rect) {
	targetArea := target.Area()
	if targetArea == 0 {
		return 0, Rect{}
	}

	left := max(target.Left(), viewport.Left())
	right := min(target.Right(), viewport.Right())
	top := max(target.Top(), viewport.Top())
	bottom := min(target.Bottom(), viewport.Bottom())

	if right <= left || bottom <= top {
		return 0, Rect{}
	}

	overlap := Rect{X: left, Y: top, Width: right - left, Height: bottom - top}

	ratio := overlap.Area() / targetArea
	if ratio > 1 {
		ratio = 1
	}

	return ratio, overlap
}
