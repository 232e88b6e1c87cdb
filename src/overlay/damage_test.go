package overlay

import (
	"image"
	"testing"

	"winshifts/src/screenshot"
)

func TestDragCoordsToRectangle(t *testing.T) {
	tests := []struct {
		name       string
		start, end image.Point
		want       screenshot.Region
	}{
		{"DownRight", image.Pt(10, 20), image.Pt(50, 70), screenshot.Region{X: 10, Y: 20, Width: 40, Height: 50}},
		{"UpLeft", image.Pt(50, 70), image.Pt(10, 20), screenshot.Region{X: 10, Y: 20, Width: 40, Height: 50}},
		{"UpRight", image.Pt(10, 70), image.Pt(50, 20), screenshot.Region{X: 10, Y: 20, Width: 40, Height: 50}},
		{"DownLeft", image.Pt(50, 20), image.Pt(10, 70), screenshot.Region{X: 10, Y: 20, Width: 40, Height: 50}},
		{"Point", image.Pt(50, 50), image.Pt(50, 50), screenshot.Region{X: 50, Y: 50}},
		{"Vertical", image.Pt(5, 90), image.Pt(5, 10), screenshot.Region{X: 5, Y: 10, Height: 80}},
		{"Horizontal", image.Pt(90, 5), image.Pt(10, 5), screenshot.Region{X: 10, Y: 5, Width: 80}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DragCoordsToRectangle(tt.start, tt.end)
			if got != tt.want {
				t.Errorf("DragCoordsToRectangle(%v, %v) = %+v, want %+v", tt.start, tt.end, got, tt.want)
			}
			if swapped := DragCoordsToRectangle(tt.end, tt.start); swapped != got {
				t.Errorf("swapped endpoints gave %+v, want %+v", swapped, got)
			}
		})
	}
}

func TestDragCoordsZeroAxisIsEmpty(t *testing.T) {
	for _, p := range []image.Point{{3, 0}, {0, 3}, {3, 100}, {100, 3}} {
		start := image.Pt(3, 3)
		if r := DragCoordsToRectangle(start, p); !r.Empty() {
			t.Errorf("DragCoordsToRectangle(%v, %v) = %+v, want empty", start, p, r)
		}
	}
}

func TestExpanded(t *testing.T) {
	got := Expanded(screenshot.Region{X: 10, Y: 20, Width: 5, Height: 6})
	want := image.Rect(9, 19, 16, 27)
	if got != want {
		t.Errorf("Expanded = %v, want %v", got, want)
	}
}

// Every pixel of the ring around either rectangle, and the rectangles
// themselves, must be inside the damage region.
func TestDamageRegionCoversBothBorders(t *testing.T) {
	points := []image.Point{{0, 0}, {3, 7}, {12, 2}, {12, 12}, {7, 7}, {0, 12}}
	for _, a := range points {
		for _, b := range points {
			for _, c := range points {
				old := DragCoordsToRectangle(a, b)
				cur := DragCoordsToRectangle(a, c)
				damage := DamageRegion(old, cur)
				for _, r := range []screenshot.Region{old, cur} {
					outer := r.Rect()
					outer = image.Rect(outer.Min.X-1, outer.Min.Y-1, outer.Max.X+1, outer.Max.Y+1)
					for y := outer.Min.Y; y < outer.Max.Y; y++ {
						for x := outer.Min.X; x < outer.Max.X; x++ {
							if !image.Pt(x, y).In(damage) {
								t.Fatalf("pixel (%d,%d) of %+v outside damage %v (old=%+v cur=%+v)", x, y, r, damage, old, cur)
							}
						}
					}
				}
			}
		}
	}
}
