package cli

import (
	"strconv"
	"strings"

	"github.com/matzehuels/brickgrid/pkg/errors"
	"github.com/matzehuels/brickgrid/pkg/grid"
)

// parseInts parses n comma-separated integers, e.g. "3,4".
func parseInts(s string, n int) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%q: want %d comma-separated values", s, n)
	}
	out := make([]int, n)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "%q", s)
		}
		out[i] = v
	}
	return out, nil
}

// parsePoint parses "x,y".
func parsePoint(s string) (grid.Point, error) {
	v, err := parseInts(s, 2)
	if err != nil {
		return grid.Point{}, err
	}
	return grid.Point{X: v[0], Y: v[1]}, nil
}

// parseSize parses "w,h".
func parseSize(s string) (grid.Size, error) {
	v, err := parseInts(s, 2)
	if err != nil {
		return grid.Size{}, err
	}
	return grid.Size{W: v[0], H: v[1]}, nil
}

// parsePixelRect parses "x,y,w,h" in pixels.
func parsePixelRect(s string) (grid.PixelRect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return grid.PixelRect{}, errors.New(errors.ErrCodeInvalidInput, "%q: want x,y,w,h", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return grid.PixelRect{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "%q", s)
		}
		v[i] = f
	}
	return grid.PixelRect{X: v[0], Y: v[1], W: v[2], H: v[3]}, nil
}

// parseExtent parses a width or height: a positive cell count or "full".
func parseExtent(s string) (grid.Extent, error) {
	if strings.EqualFold(s, "full") {
		return grid.Full, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "extent %q must be a positive integer or full", s)
	}
	return grid.Extent(n), nil
}

// parseRefFile parses a "ref=path" datasource argument.
func parseRefFile(s string) (ref, path string, err error) {
	ref, path, ok := strings.Cut(s, "=")
	if !ok || ref == "" || path == "" {
		return "", "", errors.New(errors.ErrCodeInvalidInput, "%q: want ref=path", s)
	}
	return ref, path, nil
}
