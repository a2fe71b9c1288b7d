package grid

// Overlaps reports whether two grid rects share at least one cell.
//
// Two rects do not overlap iff one lies entirely left of, right of, above or
// below the other; touching edges are not an overlap. A full width spans
// [0, Columns). The test is symmetric.
func Overlaps(a, b GridRect) bool {
	return a.Resolve(Columns).Overlaps(b.Resolve(Columns))
}

// Envelope returns the smallest rect containing every rect in rects, with
// full widths resolved. It returns the zero rect for an empty input.
func Envelope(rects []GridRect) GridRect {
	if len(rects) == 0 {
		return GridRect{}
	}
	first := rects[0].Resolve(Columns)
	left, top, right, bottom := first.X, first.Y, first.Right(), first.Bottom()
	for _, gr := range rects[1:] {
		r := gr.Resolve(Columns)
		left = min(left, r.X)
		top = min(top, r.Y)
		right = max(right, r.Right())
		bottom = max(bottom, r.Bottom())
	}
	return GridRect{X: left, Y: top, W: Extent(right - left), H: Extent(bottom - top)}
}
