package assembly

import (
	"github.com/wudi/pdfjoin/coords"
	"github.com/wudi/pdfjoin/engine"
)

// Annotation is a free-form text label drawn on one flattened output page.
//
// Page refers to a position in the flattened page plan (0-based), not to a
// page of any particular source file. Annotations anchor to that numeric
// slot: a reorder that changes which source page occupies the slot leaves
// the annotation in place, now drawn over the new content. When the slot
// an annotation occupied is removed in a single operation (entry removed,
// excluded, or list cleared) the annotation is deleted.
type Annotation struct {
	ID       int
	Page     int
	At       coords.Point
	Text     string
	FontSize float64
	Color    engine.Color
}

// AnnotationUpdate describes a partial edit of an annotation. Nil fields
// are left untouched.
type AnnotationUpdate struct {
	Page     *int
	At       *coords.Point
	Text     *string
	FontSize *float64
	Color    *engine.Color
}

// DefaultAnnotationFontSize is used when Annotate is called with a zero
// font size.
const DefaultAnnotationFontSize = 12.0
