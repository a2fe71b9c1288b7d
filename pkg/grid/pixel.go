package grid

// PixelRect is a rectangle in rendered pixels.
// X grows to the right, Y grows downward.
type PixelRect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Right returns the horizontal end of the rect.
func (r PixelRect) Right() float64 { return r.X + r.W }

// Bottom returns the vertical end of the rect.
func (r PixelRect) Bottom() float64 { return r.Y + r.H }

// CenterX returns the horizontal center point of the rect.
func (r PixelRect) CenterX() float64 { return r.X + r.W/2 }

// CenterY returns the vertical center point of the rect.
func (r PixelRect) CenterY() float64 { return r.Y + r.H/2 }

// Translate returns r shifted by (dx, dy).
func (r PixelRect) Translate(dx, dy float64) PixelRect {
	r.X += dx
	r.Y += dy
	return r
}

// Contains reports whether the point (x, y) lies inside r.
func (r PixelRect) Contains(x, y float64) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// Union returns the smallest rect containing both r and o.
func (r PixelRect) Union(o PixelRect) PixelRect {
	left, top := min(r.X, o.X), min(r.Y, o.Y)
	right, bottom := max(r.Right(), o.Right()), max(r.Bottom(), o.Bottom())
	return PixelRect{X: left, Y: top, W: right - left, H: bottom - top}
}
