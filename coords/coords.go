// Package coords holds page-relative coordinates and anchor positions used
// to place overlay text on output pages.
package coords

import "fmt"

// Point is a page-relative position with origin at the top-left corner.
// Both components are fractions of the page dimensions in [0,1].
type Point struct{ X, Y float64 }

// InBounds reports whether the point lies within the page.
func (p Point) InBounds() bool {
	return p.X >= 0 && p.X <= 1 && p.Y >= 0 && p.Y <= 1
}

// ToPoints converts a page-relative point to PDF user-space points for a
// page of the given dimensions. PDF user space has its origin at the
// bottom-left corner, so the Y axis flips.
func (p Point) ToPoints(pageWidth, pageHeight float64) (x, y float64) {
	return p.X * pageWidth, (1 - p.Y) * pageHeight
}

// Anchor names one of the nine canonical page positions.
type Anchor int

const (
	TopLeft Anchor = iota
	TopCenter
	TopRight
	MiddleLeft
	Center
	MiddleRight
	BottomLeft
	BottomCenter
	BottomRight
)

var anchorNames = map[Anchor]string{
	TopLeft:      "top-left",
	TopCenter:    "top-center",
	TopRight:     "top-right",
	MiddleLeft:   "middle-left",
	Center:       "center",
	MiddleRight:  "middle-right",
	BottomLeft:   "bottom-left",
	BottomCenter: "bottom-center",
	BottomRight:  "bottom-right",
}

func (a Anchor) String() string {
	if s, ok := anchorNames[a]; ok {
		return s
	}
	return fmt.Sprintf("Anchor(%d)", int(a))
}

// Valid reports whether a is one of the nine named anchors.
func (a Anchor) Valid() bool {
	_, ok := anchorNames[a]
	return ok
}

// ParseAnchor maps a name like "bottom-center" to its Anchor. "center-left"
// and "center-right" are accepted as aliases for the middle row.
func ParseAnchor(s string) (Anchor, error) {
	switch s {
	case "center-left":
		return MiddleLeft, nil
	case "center-right":
		return MiddleRight, nil
	}
	for a, name := range anchorNames {
		if name == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown anchor %q", s)
}
