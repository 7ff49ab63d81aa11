package compose

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/wudi/pdfjoin/coords"
	"github.com/wudi/pdfjoin/engine"
)

// Placeholders recognized in a page-number format template.
const (
	PlaceholderPage  = "{page}"  // 1-based output page number
	PlaceholderTotal = "{pages}" // total output page count
)

// DefaultPageNumberFormat is used when PageNumbers.Format is empty.
const DefaultPageNumberFormat = "{page} / {pages}"

// PageNumbers configures the per-page number stamp.
type PageNumbers struct {
	Position coords.Anchor
	Format   string // template with {page} and {pages} placeholders
	FontSize float64
	Color    engine.Color
}

// Watermark configures the diagonal text overlay drawn across every
// output page.
type Watermark struct {
	Text     string
	FontSize float64
	Opacity  float64 // in [0,1]
	Angle    float64 // degrees
	Color    engine.Color
}

// Options holds the output configuration for one composition. PageNumbers
// and Watermark are independently optional and independently applied.
type Options struct {
	PageNumbers *PageNumbers
	Watermark   *Watermark
	OutputPath  string
}

// NormalizedOutputPath returns OutputPath with a ".pdf" suffix appended
// if absent (case-insensitive).
func (o Options) NormalizedOutputPath() string {
	if strings.EqualFold(filepath.Ext(o.OutputPath), ".pdf") {
		return o.OutputPath
	}
	return o.OutputPath + ".pdf"
}

// Validate checks option invariants before composition.
func (o Options) Validate() error {
	if strings.TrimSpace(o.OutputPath) == "" {
		return fmt.Errorf("%w: empty output path", ErrInvalidOptions)
	}
	if pn := o.PageNumbers; pn != nil {
		if !pn.Position.Valid() {
			return fmt.Errorf("%w: page number position %v", ErrInvalidOptions, pn.Position)
		}
		if pn.FontSize < 0 {
			return fmt.Errorf("%w: page number font size must be positive", ErrInvalidOptions)
		}
	}
	if wm := o.Watermark; wm != nil {
		if strings.TrimSpace(wm.Text) == "" {
			return fmt.Errorf("%w: empty watermark text", ErrInvalidOptions)
		}
		if wm.Opacity < 0 || wm.Opacity > 1 {
			return fmt.Errorf("%w: watermark opacity %g outside [0,1]", ErrInvalidOptions, wm.Opacity)
		}
		if wm.FontSize < 0 {
			return fmt.Errorf("%w: watermark font size must be positive", ErrInvalidOptions)
		}
	}
	return nil
}
