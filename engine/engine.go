// Package engine defines the contract the assembly core consumes from an
// external PDF/image engine: page-count probing, raster previews, and
// composition of the final merged document.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/wudi/pdfjoin/coords"
)

// Engine is implemented by an external PDF/image backend. Implementations
// must report corrupted or encrypted inputs via ErrUnreadable so callers
// can distinguish bad files from programming errors.
type Engine interface {
	// Probe returns the number of pages the file at path would contribute.
	// Image files count as a single page.
	Probe(ctx context.Context, path string) (int, error)

	// RenderPage rasterizes one source page for preview purposes, scaled
	// to targetWidth pixels. Implementations without a rasterizer return
	// ErrPreviewUnsupported.
	RenderPage(ctx context.Context, path string, pageIndex, targetWidth int) (image.Image, error)

	// Compose writes the merged document described by job. Either the
	// whole job succeeds and the output file exists, or nothing is
	// written.
	Compose(ctx context.Context, job Job) error
}

// Prober is the probing subset of Engine, sufficient for the assembly
// model.
type Prober interface {
	Probe(ctx context.Context, path string) (int, error)
}

// Job describes one composition: an ordered page sequence plus overlay
// stamps, written to OutputPath.
type Job struct {
	Pages      []PageRef
	Stamps     []Stamp
	OutputPath string
}

// PageRef identifies a single source page: a backing file and a 0-based
// page index within it. Image files have exactly one page, index 0.
type PageRef struct {
	Path string
	Page int
}

// Stamp is a piece of overlay text drawn onto output pages. Stamps apply
// in slice order; a later stamp draws on top of an earlier one.
//
// Text may contain the placeholders {page} and {pages}, replaced with the
// 1-based output page number and the total output page count.
type Stamp struct {
	Text string

	// Pages lists the 0-based output pages to stamp. Nil means every page.
	Pages []int

	// At places the stamp at an absolute page-relative position. When nil
	// the stamp sits at Anchor.
	At     *coords.Point
	Anchor coords.Anchor

	FontSize float64
	Color    Color
	Opacity  float64 // 0 transparent .. 1 opaque; 0 is treated as 1
	Angle    float64 // degrees counterclockwise
}

// Color is an RGB color with components in [0,1].
type Color struct {
	R, G, B float64
}

// Black is the default stamp color.
var Black = Color{}

// Hex renders the color as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", clamp8(c.R), clamp8(c.G), clamp8(c.B))
}

func clamp8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// ParseHexColor parses "#rrggbb" (the leading '#' is optional).
func ParseHexColor(s string) (Color, error) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	if len(s) != 6 {
		return Color{}, fmt.Errorf("invalid color %q: want rrggbb", s)
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}, nil
}

// ErrUnreadable marks a file the engine could not open: corrupted,
// encrypted, or not actually the format its extension claims.
var ErrUnreadable = errors.New("unreadable file")

// ErrPreviewUnsupported is returned by RenderPage when the engine cannot
// rasterize the given source.
var ErrPreviewUnsupported = errors.New("preview rendering not supported for this source")

// UnreadableFileError wraps ErrUnreadable with the offending path and the
// underlying cause.
type UnreadableFileError struct {
	Path string
	Err  error
}

func (e *UnreadableFileError) Error() string {
	return fmt.Sprintf("unreadable file %s: %v", e.Path, e.Err)
}

func (e *UnreadableFileError) Unwrap() error { return ErrUnreadable }

// Cause returns the underlying engine error.
func (e *UnreadableFileError) Cause() error { return e.Err }

// RenderError reports a composition-time failure on a specific source.
// The whole composition aborts; no partial output is written.
type RenderError struct {
	Path string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render failure on %s: %v", e.Path, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
