package coords

import (
	"math"
	"testing"
)

func TestPointInBounds(t *testing.T) {
	in := []Point{{0, 0}, {1, 1}, {0.5, 0.25}}
	for _, p := range in {
		if !p.InBounds() {
			t.Fatalf("InBounds(%+v) = false", p)
		}
	}
	out := []Point{{-0.01, 0}, {0, -1}, {1.01, 0.5}, {0.5, 2}}
	for _, p := range out {
		if p.InBounds() {
			t.Fatalf("InBounds(%+v) = true", p)
		}
	}
}

func TestToPointsFlipsY(t *testing.T) {
	// Top-left corner of a 612x792 page is (0, 792) in user space.
	x, y := (Point{0, 0}).ToPoints(612, 792)
	if x != 0 || y != 792 {
		t.Fatalf("top-left = (%g,%g), want (0,792)", x, y)
	}
	x, y = (Point{1, 1}).ToPoints(612, 792)
	if x != 612 || y != 0 {
		t.Fatalf("bottom-right = (%g,%g), want (612,0)", x, y)
	}
	x, y = (Point{0.5, 0.5}).ToPoints(612, 792)
	if math.Abs(x-306) > 1e-9 || math.Abs(y-396) > 1e-9 {
		t.Fatalf("center = (%g,%g), want (306,396)", x, y)
	}
}

func TestParseAnchorRoundTrip(t *testing.T) {
	anchors := []Anchor{
		TopLeft, TopCenter, TopRight,
		MiddleLeft, Center, MiddleRight,
		BottomLeft, BottomCenter, BottomRight,
	}
	for _, a := range anchors {
		got, err := ParseAnchor(a.String())
		if err != nil {
			t.Fatalf("ParseAnchor(%q): %v", a.String(), err)
		}
		if got != a {
			t.Fatalf("ParseAnchor(%q) = %v, want %v", a.String(), got, a)
		}
		if !a.Valid() {
			t.Fatalf("%v not valid", a)
		}
	}
}

func TestParseAnchorAliasesAndErrors(t *testing.T) {
	if a, err := ParseAnchor("center-left"); err != nil || a != MiddleLeft {
		t.Fatalf("center-left = %v, %v", a, err)
	}
	if a, err := ParseAnchor("center-right"); err != nil || a != MiddleRight {
		t.Fatalf("center-right = %v, %v", a, err)
	}
	if _, err := ParseAnchor("upper-middle"); err == nil {
		t.Fatalf("bogus anchor accepted")
	}
	if Anchor(99).Valid() {
		t.Fatalf("Anchor(99) valid")
	}
}
