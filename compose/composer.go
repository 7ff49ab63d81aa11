// Package compose turns a page plan plus output options and annotations
// into a finished document by driving an external engine. The composer is
// stateless; each call operates on the snapshot it is given.
package compose

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wudi/pdfjoin/assembly"
	"github.com/wudi/pdfjoin/coords"
	"github.com/wudi/pdfjoin/engine"
	"github.com/wudi/pdfjoin/observability"
	"github.com/wudi/pdfjoin/plan"
)

// ErrNothingToMerge is returned when a composition is attempted with zero
// included pages. No file is written.
var ErrNothingToMerge = errors.New("nothing to merge")

// ErrInvalidOptions reports an Options value that violates its
// invariants.
var ErrInvalidOptions = errors.New("invalid output options")

// Result summarizes a successful composition.
type Result struct {
	OutputPath string
	PageCount  int
}

// Composer drives an engine to produce merged documents.
type Composer struct {
	engine engine.Engine
	log    observability.Logger
	tracer observability.Tracer
}

// Option configures a Composer.
type Option func(*Composer)

// WithLogger attaches a logger; the default is a nop.
func WithLogger(log observability.Logger) Option {
	return func(c *Composer) { c.log = log }
}

// WithTracer attaches a tracer; the default is a nop.
func WithTracer(tr observability.Tracer) Option {
	return func(c *Composer) { c.tracer = tr }
}

// New returns a Composer backed by the given engine.
func New(eng engine.Engine, opts ...Option) *Composer {
	c := &Composer{
		engine: eng,
		log:    observability.NopLogger{},
		tracer: observability.NopTracer(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose merges the planned pages into a single PDF at the options'
// output path, stamping the watermark, page numbers, and annotations in
// that z-order on top of the page content. Any single source failure
// aborts the whole composition; no partial file is written.
func (c *Composer) Compose(ctx context.Context, p plan.Plan, opts Options, anns []assembly.Annotation) (Result, error) {
	ctx, span := c.tracer.StartSpan(ctx, "compose")
	defer span.Finish()

	if p.Len() == 0 {
		span.SetError(ErrNothingToMerge)
		return Result{}, ErrNothingToMerge
	}
	if err := opts.Validate(); err != nil {
		span.SetError(err)
		return Result{}, err
	}
	for _, a := range anns {
		if a.Page < 0 || a.Page >= p.Len() {
			err := fmt.Errorf("%w: annotation %d page %d outside plan", assembly.ErrInvalidAnnotation, a.ID, a.Page)
			span.SetError(err)
			return Result{}, err
		}
		if !a.At.InBounds() {
			err := fmt.Errorf("%w: annotation %d position outside page", assembly.ErrInvalidAnnotation, a.ID)
			span.SetError(err)
			return Result{}, err
		}
	}

	job := engine.Job{
		Pages:      pageRefs(p),
		Stamps:     stamps(opts, anns),
		OutputPath: opts.NormalizedOutputPath(),
	}
	span.SetTag("pages", len(job.Pages))
	span.SetTag("output", job.OutputPath)
	c.log.Debug("plan flattened",
		observability.Int(observability.MetricPlanSlots, p.Len()),
		observability.Int("stamps", len(job.Stamps)))

	start := time.Now()
	if err := c.engine.Compose(ctx, job); err != nil {
		span.SetError(err)
		c.log.Error("composition failed",
			observability.String("output", job.OutputPath),
			observability.Error("err", err))
		return Result{}, err
	}
	c.log.Info("composition finished",
		observability.String("output", job.OutputPath),
		observability.Int(observability.MetricComposePages, len(job.Pages)),
		observability.Duration(observability.MetricComposeTime, time.Since(start)))
	return Result{OutputPath: job.OutputPath, PageCount: len(job.Pages)}, nil
}

func pageRefs(p plan.Plan) []engine.PageRef {
	refs := make([]engine.PageRef, len(p))
	for i, s := range p {
		refs[i] = engine.PageRef{Path: s.Entry.Path, Page: s.Page}
	}
	return refs
}

// stamps assembles the overlay stamps in rendering order: watermark
// first, page numbers on top of it, annotations on top of everything.
// There is no collision avoidance; the order is the contract.
func stamps(opts Options, anns []assembly.Annotation) []engine.Stamp {
	var out []engine.Stamp
	if wm := opts.Watermark; wm != nil {
		out = append(out, engine.Stamp{
			Text:     wm.Text,
			Anchor:   coords.Center,
			FontSize: wm.FontSize,
			Color:    wm.Color,
			Opacity:  wm.Opacity,
			Angle:    wm.Angle,
		})
	}
	if pn := opts.PageNumbers; pn != nil {
		format := pn.Format
		if format == "" {
			format = DefaultPageNumberFormat
		}
		out = append(out, engine.Stamp{
			Text:     format,
			Anchor:   pn.Position,
			FontSize: pn.FontSize,
			Color:    pn.Color,
		})
	}
	for _, a := range anns {
		at := a.At
		out = append(out, engine.Stamp{
			Text:     a.Text,
			Pages:    []int{a.Page},
			At:       &at,
			FontSize: a.FontSize,
			Color:    a.Color,
		})
	}
	return out
}
