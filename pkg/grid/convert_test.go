package grid

import (
	"math"
	"testing"

	"github.com/matzehuels/brickgrid/pkg/errors"
)

func mustConfig(t *testing.T, bp Breakpoint, m Measurement) Config {
	t.Helper()
	cfg, err := ConfigFor(bp, m)
	if err != nil {
		t.Fatalf("ConfigFor(%s, %+v): %v", bp, m, err)
	}
	return cfg
}

func TestConfigFor(t *testing.T) {
	tests := []struct {
		name     string
		bp       Breakpoint
		m        Measurement
		colWidth float64
		wantErr  bool
	}{
		{"desktop", Desktop, Measurement{Width: 1200}, 50, false},
		{"padded", Desktop, Measurement{Width: 1248, PaddingX: 24}, 50, false},
		{"mobile", Mobile, Measurement{Width: 384, PaddingX: 0}, 16, false},
		{"unmeasured", Desktop, Measurement{}, 0, true},
		{"padding eats width", Desktop, Measurement{Width: 40, PaddingX: 20}, 0, true},
		{"bad breakpoint", Breakpoint("tv"), Measurement{Width: 100}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ConfigFor(tt.bp, tt.m)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ConfigFor() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if cfg.ColWidth != tt.colWidth {
				t.Errorf("ColWidth = %v, want %v", cfg.ColWidth, tt.colWidth)
			}
			if cfg.RowHeight != RowHeight {
				t.Errorf("RowHeight = %v, want %v", cfg.RowHeight, RowHeight)
			}
			if cfg.Columns != Columns {
				t.Errorf("Columns = %v, want %v", cfg.Columns, Columns)
			}
		})
	}
}

func TestPixelRectToGrid(t *testing.T) {
	cfg := Config{Columns: 24, ColWidth: 50, RowHeight: 24}
	container := PixelRect{X: 100, Y: 200, W: 1220, H: 800}

	tests := []struct {
		name string
		rect PixelRect
		pad  float64
		want GridRect
	}{
		{
			name: "aligned",
			rect: PixelRect{X: 200, Y: 248, W: 150, H: 48},
			want: GridRect{X: 2, Y: 2, W: 3, H: 2},
		},
		{
			name: "origin rounds to nearest",
			rect: PixelRect{X: 224, Y: 259, W: 150, H: 48},
			want: GridRect{X: 2, Y: 2, W: 3, H: 2},
		},
		{
			name: "origin rounds up past half",
			rect: PixelRect{X: 226, Y: 261, W: 150, H: 48},
			want: GridRect{X: 3, Y: 3, W: 3, H: 2},
		},
		{
			name: "size never rounds down",
			rect: PixelRect{X: 100, Y: 200, W: 101, H: 25},
			want: GridRect{X: 0, Y: 0, W: 3, H: 2},
		},
		{
			name: "padding shifts origin",
			rect: PixelRect{X: 210, Y: 200, W: 50, H: 24},
			pad:  10,
			want: GridRect{X: 2, Y: 0, W: 1, H: 1},
		},
		{
			name: "negative origin clamps",
			rect: PixelRect{X: 0, Y: 0, W: 50, H: 24},
			want: GridRect{X: 0, Y: 0, W: 1, H: 1},
		},
		{
			name: "width capped at columns",
			rect: PixelRect{X: 100, Y: 200, W: 5000, H: 24},
			want: GridRect{X: 0, Y: 0, W: 24, H: 1},
		},
		{
			name: "tiny sizes become one cell",
			rect: PixelRect{X: 100, Y: 200, W: 0, H: 0},
			want: GridRect{X: 0, Y: 0, W: 1, H: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PixelRectToGrid(tt.rect, container, cfg, tt.pad)
			if got != tt.want {
				t.Errorf("PixelRectToGrid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPixelRectToGridInvalidConfig(t *testing.T) {
	got := PixelRectToGrid(PixelRect{W: 10, H: 10}, PixelRect{}, Config{}, 0)
	if got != (GridRect{}) {
		t.Errorf("PixelRectToGrid(invalid cfg) = %v, want zero rect", got)
	}
}

func TestGridRectToPixel(t *testing.T) {
	cfg := Config{Columns: 24, ColWidth: 50, RowHeight: 24, Height: 600}

	tests := []struct {
		name string
		rect GridRect
		want PixelRect
	}{
		{"cells", GridRect{X: 2, Y: 1, W: 3, H: 2}, PixelRect{X: 100, Y: 24, W: 150, H: 48}},
		{"full width", GridRect{X: 0, Y: 0, W: Full, H: 1}, PixelRect{X: 0, Y: 0, W: 1200, H: 24}},
		{"full height", GridRect{X: 0, Y: 0, W: 2, H: Full}, PixelRect{X: 0, Y: 0, W: 100, H: 600}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GridRectToPixel(tt.rect, cfg); got != tt.want {
				t.Errorf("GridRectToPixel() = %+v, want %+v", got, tt.want)
			}
		})
	}

	t.Run("full height without measured container", func(t *testing.T) {
		got := GridRectToPixel(GridRect{W: 1, H: Full}, Config{Columns: 24, ColWidth: 10, RowHeight: 24})
		if got.H != 24 {
			t.Errorf("H = %v, want one row (24)", got.H)
		}
	})
}

// The converter round trip must be exact for every concrete rect, for
// awkward column widths and non-zero container origins alike.
func TestRoundTrip(t *testing.T) {
	cases := []struct {
		name      string
		bp        Breakpoint
		m         Measurement
		container PixelRect
	}{
		{"desktop 1000", Desktop, Measurement{Width: 1000}, PixelRect{}},
		{"desktop padded offset", Desktop, Measurement{Width: 1280, PaddingX: 24}, PixelRect{X: 13.5, Y: 207.25, W: 1280}},
		{"mobile 375", Mobile, Measurement{Width: 375, PaddingX: 16}, PixelRect{X: 0, Y: 64, W: 375}},
		{"mobile 333.3", Mobile, Measurement{Width: 333.3}, PixelRect{X: 7.7, Y: 1.1, W: 333.3}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := mustConfig(t, tc.bp, tc.m)
			for x := 0; x < Columns; x++ {
				for w := 1; w <= Columns; w++ {
					for _, y := range []int{0, 1, 7, 40, 301} {
						for _, h := range []int{1, 2, 9, 33} {
							r := GridRect{X: x, Y: y, W: Extent(w), H: Extent(h)}
							px := GridRectToContainer(r, tc.container, cfg, tc.m.PaddingX)
							got := PixelRectToGrid(px, tc.container, cfg, tc.m.PaddingX)
							if got != r {
								t.Fatalf("round trip of %v = %v (pixels %+v)", r, got, px)
							}
						}
					}
				}
			}
		})
	}
}

func TestRoundTripFullIsFixpoint(t *testing.T) {
	cfg := mustConfig(t, Desktop, Measurement{Width: 1000, Height: 700})
	container := PixelRect{X: 5, Y: 5, W: 1000, H: 700}

	for _, r := range []GridRect{
		{X: 0, Y: 2, W: Full, H: 3},
		{X: 0, Y: 0, W: 4, H: Full},
	} {
		once := PixelRectToGrid(GridRectToContainer(r, container, cfg, 0), container, cfg, 0)
		twice := PixelRectToGrid(GridRectToContainer(once, container, cfg, 0), container, cfg, 0)
		if once != twice {
			t.Errorf("%v: first pass %v, second pass %v", r, once, twice)
		}
		if once.W.IsFull() || once.H.IsFull() {
			t.Errorf("%v: conversion should resolve full extents, got %v", r, once)
		}
	}
}

func TestGetBrickPosition(t *testing.T) {
	container := PixelRect{X: 40, Y: 100, W: 1248, H: 900}
	element := PixelRect{X: 40 + 24 + 150, Y: 100 + 48, W: 200, H: 70}

	got, err := GetBrickPosition(element, Desktop, container, 24)
	if err != nil {
		t.Fatalf("GetBrickPosition: %v", err)
	}
	want := GridRect{X: 3, Y: 2, W: 4, H: 3}
	if got != want {
		t.Errorf("GetBrickPosition() = %v, want %v", got, want)
	}

	_, err = GetBrickPosition(element, Desktop, PixelRect{}, 0)
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("unmeasured container: error = %v, want %v", err, errors.ErrCodeInvalidInput)
	}
}

func TestSnapDelta(t *testing.T) {
	cfg := Config{Columns: 24, ColWidth: 50, RowHeight: 24}
	tests := []struct {
		dx, dy       float64
		wantX, wantY float64
	}{
		{0, 0, 0, 0},
		{24, 11, 0, 0},
		{26, 13, 50, 24},
		{-26, -13, -50, -24},
		{149, 100, 150, 96},
	}
	for _, tt := range tests {
		gx, gy := SnapDelta(tt.dx, tt.dy, cfg)
		if math.Abs(gx-tt.wantX) > 1e-9 || math.Abs(gy-tt.wantY) > 1e-9 {
			t.Errorf("SnapDelta(%v, %v) = (%v, %v), want (%v, %v)", tt.dx, tt.dy, gx, gy, tt.wantX, tt.wantY)
		}
	}
}

func TestSnapLength(t *testing.T) {
	tests := []struct {
		px, unit float64
		want     int
	}{
		{100, 50, 2},
		{124, 50, 2},
		{126, 50, 3},
		{10, 50, 1},
		{10, 0, 1},
	}
	for _, tt := range tests {
		if got := SnapLength(tt.px, tt.unit); got != tt.want {
			t.Errorf("SnapLength(%v, %v) = %d, want %d", tt.px, tt.unit, got, tt.want)
		}
	}
}
