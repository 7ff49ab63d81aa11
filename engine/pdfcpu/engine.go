// Package pdfcpu implements the engine contract on top of
// github.com/pdfcpu/pdfcpu. PDFs are probed, trimmed, and merged through
// the pdfcpu api package; images are imported as single native-size
// pages; overlay text is applied as pdfcpu text watermarks.
package pdfcpu

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "image/jpeg" // register decoders for probing and previews
	_ "image/png"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"

	"github.com/wudi/pdfjoin/coords"
	"github.com/wudi/pdfjoin/engine"
	"github.com/wudi/pdfjoin/observability"
)

// edgeInset is the distance in points an anchored stamp is nudged away
// from the page edge.
const edgeInset = 10.0

// defaultStampSize is the font size used when a stamp does not set one.
const defaultStampSize = 12.0

// Engine drives pdfcpu. The zero value is not usable; call New.
type Engine struct {
	conf *model.Configuration
	log  observability.Logger
}

var _ engine.Engine = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a logger; the default is a nop.
func WithLogger(log observability.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithConfiguration overrides the pdfcpu configuration.
func WithConfiguration(conf *model.Configuration) Option {
	return func(e *Engine) { e.conf = conf }
}

// New returns an Engine with relaxed validation, which accepts the mildly
// malformed files real-world scanners and exporters produce.
func New(opts ...Option) *Engine {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	e := &Engine{conf: conf, log: observability.NopLogger{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Probe returns the page count of a PDF, or 1 for a readable image.
// Corrupted and encrypted files come back as UnreadableFileError.
func (e *Engine) Probe(ctx context.Context, path string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	switch classify(path) {
	case sourcePDF:
		return e.probePDF(path)
	case sourceImage:
		return e.probeImage(path)
	}
	return 0, &engine.UnreadableFileError{Path: path, Err: fmt.Errorf("unsupported extension %q", filepath.Ext(path))}
}

func (e *Engine) probePDF(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, &engine.UnreadableFileError{Path: path, Err: err}
	}
	defer f.Close()

	pdfCtx, err := pdfapi.ReadContext(f, e.conf)
	if err != nil {
		return 0, &engine.UnreadableFileError{Path: path, Err: err}
	}
	if err := pdfCtx.EnsurePageCount(); err != nil {
		return 0, &engine.UnreadableFileError{Path: path, Err: err}
	}
	return pdfCtx.PageCount, nil
}

func (e *Engine) probeImage(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, &engine.UnreadableFileError{Path: path, Err: err}
	}
	defer f.Close()

	if _, _, err := image.DecodeConfig(f); err != nil {
		return 0, &engine.UnreadableFileError{Path: path, Err: err}
	}
	return 1, nil
}

// RenderPage rasterizes a source page for previews. Image sources are
// decoded and scaled to targetWidth; pdfcpu has no rasterizer, so PDF
// sources return ErrPreviewUnsupported and front-ends needing PDF
// previews plug a rasterizing engine instead.
func (e *Engine) RenderPage(ctx context.Context, path string, pageIndex, targetWidth int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if classify(path) != sourceImage {
		return nil, fmt.Errorf("%s: %w", path, engine.ErrPreviewUnsupported)
	}
	if pageIndex != 0 {
		return nil, &engine.RenderError{Path: path, Err: fmt.Errorf("image page index %d out of range", pageIndex)}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &engine.UnreadableFileError{Path: path, Err: err}
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, &engine.UnreadableFileError{Path: path, Err: err}
	}
	if targetWidth <= 0 || src.Bounds().Dx() <= targetWidth {
		return src, nil
	}
	scale := float64(targetWidth) / float64(src.Bounds().Dx())
	h := int(float64(src.Bounds().Dy())*scale + 0.5)
	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst, nil
}

// Compose builds the merged document for job. Work happens in a temp
// directory; the finished artifact is copied to job.OutputPath only after
// every page and stamp succeeded, so a failure never leaves partial
// output behind.
func (e *Engine) Compose(ctx context.Context, job engine.Job) error {
	if len(job.Pages) == 0 {
		return fmt.Errorf("compose: empty page sequence")
	}

	tmpDir, err := os.MkdirTemp("", "pdfjoin-")
	if err != nil {
		return fmt.Errorf("compose: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	segments, err := e.buildSegments(ctx, job.Pages, tmpDir)
	if err != nil {
		return err
	}

	merged := filepath.Join(tmpDir, "merged.pdf")
	if len(segments) == 1 {
		err = copyFile(segments[0], merged)
	} else {
		err = pdfapi.MergeCreateFile(segments, merged, false, e.conf)
	}
	if err != nil {
		return fmt.Errorf("compose: merge: %w", err)
	}

	if err := e.applyStamps(ctx, merged, job.Stamps); err != nil {
		return err
	}

	if err := copyFile(merged, job.OutputPath); err != nil {
		os.Remove(job.OutputPath)
		return fmt.Errorf("compose: deliver output: %w", err)
	}
	e.log.Debug("composed document",
		observability.String("output", job.OutputPath),
		observability.Int("pages", len(job.Pages)))
	return nil
}

// buildSegments converts each run of consecutive same-source pages into a
// standalone PDF inside tmpDir, in plan order.
func (e *Engine) buildSegments(ctx context.Context, pages []engine.PageRef, tmpDir string) ([]string, error) {
	var segments []string
	for i, run := range runsOf(pages) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seg := filepath.Join(tmpDir, fmt.Sprintf("seg_%03d.pdf", i))
		switch classify(run.path) {
		case sourcePDF:
			if err := pdfapi.TrimFile(run.path, seg, pageSelection(run.pages), e.conf); err != nil {
				return nil, &engine.RenderError{Path: run.path, Err: err}
			}
		case sourceImage:
			if err := pdfapi.ImportImagesFile([]string{run.path}, seg, nil, e.conf); err != nil {
				return nil, &engine.RenderError{Path: run.path, Err: err}
			}
		default:
			return nil, &engine.RenderError{Path: run.path, Err: fmt.Errorf("unsupported extension %q", filepath.Ext(run.path))}
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

func (e *Engine) applyStamps(ctx context.Context, merged string, stamps []engine.Stamp) error {
	if len(stamps) == 0 {
		return nil
	}
	dims, err := pageDims(merged, e.conf)
	if err != nil {
		return fmt.Errorf("compose: read merged output: %w", err)
	}
	for _, st := range stamps {
		if err := ctx.Err(); err != nil {
			return err
		}
		wm, err := pdfapi.TextWatermark(translatePlaceholders(st.Text), stampDesc(st, dims), true, false, types.POINTS)
		if err != nil {
			return fmt.Errorf("compose: stamp %q: %w", st.Text, err)
		}
		if err := pdfapi.AddWatermarksFile(merged, "", stampPages(st), wm, e.conf); err != nil {
			return fmt.Errorf("compose: stamp %q: %w", st.Text, err)
		}
	}
	return nil
}

// translatePlaceholders maps the engine-neutral {page}/{pages} tokens to
// pdfcpu's %p/%P stamp placeholders.
func translatePlaceholders(text string) string {
	text = strings.ReplaceAll(text, "{page}", "%p")
	return strings.ReplaceAll(text, "{pages}", "%P")
}

// stampDesc renders a pdfcpu watermark description for st. Absolute
// positions anchor at the bottom-left corner and offset by the position
// converted to points for the target page.
func stampDesc(st engine.Stamp, dims []types.Dim) string {
	size := st.FontSize
	if size <= 0 {
		size = defaultStampSize
	}
	opacity := st.Opacity
	if opacity <= 0 {
		opacity = 1
	}

	pos := anchorCode(st.Anchor)
	dx, dy := anchorInset(st.Anchor)
	if st.At != nil {
		pos = "bl"
		page := 0
		if len(st.Pages) > 0 {
			page = st.Pages[0]
		}
		d := dimFor(dims, page)
		dx, dy = st.At.ToPoints(d.Width, d.Height)
	}

	return fmt.Sprintf(
		"fontname:Helvetica, points:%s, pos:%s, off:%s %s, rot:%s, op:%s, scale:1 abs, fillcol:%s",
		trimFloat(size), pos, trimFloat(dx), trimFloat(dy),
		trimFloat(st.Angle), trimFloat(opacity), st.Color.Hex())
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func dimFor(dims []types.Dim, page int) types.Dim {
	if page >= 0 && page < len(dims) {
		return dims[page]
	}
	// Fall back to US Letter when the page is unknown.
	return types.Dim{Width: 612, Height: 792}
}

// stampPages converts 0-based output pages to pdfcpu's 1-based page
// selection. Nil means every page.
func stampPages(st engine.Stamp) []string {
	if len(st.Pages) == 0 {
		return nil
	}
	sel := make([]string, len(st.Pages))
	for i, p := range st.Pages {
		sel[i] = strconv.Itoa(p + 1)
	}
	return sel
}

func anchorCode(a coords.Anchor) string {
	switch a {
	case coords.TopLeft:
		return "tl"
	case coords.TopCenter:
		return "tc"
	case coords.TopRight:
		return "tr"
	case coords.MiddleLeft:
		return "l"
	case coords.MiddleRight:
		return "r"
	case coords.BottomLeft:
		return "bl"
	case coords.BottomCenter:
		return "bc"
	case coords.BottomRight:
		return "br"
	}
	return "c"
}

// anchorInset nudges edge-anchored stamps toward the page interior so
// they do not sit flush with the page boundary.
func anchorInset(a coords.Anchor) (dx, dy float64) {
	switch a {
	case coords.TopLeft:
		return edgeInset, -edgeInset
	case coords.TopCenter:
		return 0, -edgeInset
	case coords.TopRight:
		return -edgeInset, -edgeInset
	case coords.MiddleLeft:
		return edgeInset, 0
	case coords.MiddleRight:
		return -edgeInset, 0
	case coords.BottomLeft:
		return edgeInset, edgeInset
	case coords.BottomCenter:
		return 0, edgeInset
	case coords.BottomRight:
		return -edgeInset, edgeInset
	}
	return 0, 0
}

func pageDims(path string, conf *model.Configuration) ([]types.Dim, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	pdfCtx, err := pdfapi.ReadContext(f, conf)
	if err != nil {
		return nil, err
	}
	if err := pdfCtx.EnsurePageCount(); err != nil {
		return nil, err
	}
	return pdfCtx.PageDims()
}

type sourceKind int

const (
	sourceUnknown sourceKind = iota
	sourcePDF
	sourceImage
)

func classify(path string) sourceKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return sourcePDF
	case ".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff":
		return sourceImage
	}
	return sourceUnknown
}

type run struct {
	path  string
	pages []int // ascending 0-based source pages
}

// runsOf groups consecutive refs to the same source with ascending page
// indices, so each source is opened once per contiguous stretch.
func runsOf(refs []engine.PageRef) []run {
	var runs []run
	for _, ref := range refs {
		n := len(runs)
		if n > 0 && runs[n-1].path == ref.Path &&
			runs[n-1].pages[len(runs[n-1].pages)-1]+1 == ref.Page {
			runs[n-1].pages = append(runs[n-1].pages, ref.Page)
			continue
		}
		runs = append(runs, run{path: ref.Path, pages: []int{ref.Page}})
	}
	return runs
}

// pageSelection renders ascending 0-based pages as pdfcpu's 1-based page
// selection, collapsing consecutive pages into ranges.
func pageSelection(pages []int) []string {
	var sel []string
	for i := 0; i < len(pages); {
		j := i
		for j+1 < len(pages) && pages[j+1] == pages[j]+1 {
			j++
		}
		if i == j {
			sel = append(sel, strconv.Itoa(pages[i]+1))
		} else {
			sel = append(sel, fmt.Sprintf("%d-%d", pages[i]+1, pages[j]+1))
		}
		i = j + 1
	}
	return sel
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
