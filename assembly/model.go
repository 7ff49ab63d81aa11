// Package assembly holds the document-assembly model: the ordered,
// include/exclude-able list of source files and the annotation set, with
// all mutation operations and change notifications. It is the single
// source of truth for the merge list; front-ends never mutate it directly.
package assembly

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/wudi/pdfjoin/coords"
	"github.com/wudi/pdfjoin/engine"
	"github.com/wudi/pdfjoin/observability"
)

// Op identifies the kind of mutation an Event reports.
type Op int

const (
	OpAdd Op = iota
	OpRemove
	OpClear
	OpMove
	OpInclude
	OpAnnotate
)

// Event is delivered to subscribers after every mutating operation.
// Operations that logically belong together (a folder scan adding many
// files) emit a single event.
type Event struct {
	Op Op
}

// Listener receives change events. Listeners run synchronously on the
// mutating call; they must not mutate the model re-entrantly.
type Listener func(Event)

// SkippedFile records one file a batch add could not take, with the
// reason.
type SkippedFile struct {
	Path   string
	Reason error
}

// AddReport summarizes a batch add: how many entries landed and which
// files were skipped. Skips do not abort the batch.
type AddReport struct {
	Added   int
	Skipped []SkippedFile
}

// HasSkips reports whether any file in the batch failed.
func (r AddReport) HasSkips() bool { return len(r.Skipped) > 0 }

// Model manages the ordered entry list and the annotation set. It is not
// safe for concurrent use; one logical owner mutates it at a time.
type Model struct {
	prober engine.Prober
	log    observability.Logger

	entries     []*Entry
	annotations map[int]*Annotation
	nextAnnID   int

	listeners map[int]Listener
	nextSubID int
}

// Option configures a Model.
type Option func(*Model)

// WithLogger attaches a logger; the default is a nop.
func WithLogger(log observability.Logger) Option {
	return func(m *Model) { m.log = log }
}

// New returns an empty model. The prober supplies page counts for newly
// added files.
func New(prober engine.Prober, opts ...Option) *Model {
	m := &Model{
		prober:      prober,
		log:         observability.NopLogger{},
		annotations: make(map[int]*Annotation),
		listeners:   make(map[int]Listener),
		nextAnnID:   1,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Subscribe registers a listener for change events. The returned function
// cancels the subscription.
func (m *Model) Subscribe(fn Listener) (cancel func()) {
	id := m.nextSubID
	m.nextSubID++
	m.listeners[id] = fn
	return func() { delete(m.listeners, id) }
}

func (m *Model) emit(op Op) {
	ev := Event{Op: op}
	for _, fn := range m.listeners {
		fn(ev)
	}
}

// ── Accessors ──

// Len returns the number of entries, included or not.
func (m *Model) Len() int { return len(m.entries) }

// Entry returns the entry at index i.
func (m *Model) Entry(i int) (*Entry, error) {
	if i < 0 || i >= len(m.entries) {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	return m.entries[i], nil
}

// Entries returns a copy of the entry list so callers cannot mutate the
// order directly.
func (m *Model) Entries() []*Entry {
	out := make([]*Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// IncludedEntries returns only entries with Included set, preserving
// order.
func (m *Model) IncludedEntries() []*Entry {
	var out []*Entry
	for _, e := range m.entries {
		if e.Included {
			out = append(out, e)
		}
	}
	return out
}

// planLen is the number of slots the current plan would have.
func (m *Model) planLen() int {
	n := 0
	for _, e := range m.entries {
		if e.Included {
			n += e.PageCount
		}
	}
	return n
}

// slotRange returns the half-open slot range [start, start+count) the
// entry at index i occupies in the current plan. count is zero for
// excluded entries.
func (m *Model) slotRange(i int) (start, count int) {
	for j, e := range m.entries {
		if !e.Included {
			if j == i {
				return start, 0
			}
			continue
		}
		if j == i {
			return start, e.PageCount
		}
		start += e.PageCount
	}
	return start, 0
}

// ── Add ──

// AddPaths appends files to the end of the list. Directory arguments are
// scanned recursively in lexical order for supported files. Each file is
// probed for its page count; files that fail to probe are reported in the
// AddReport and skipped without aborting the batch. Duplicate paths are
// permitted; each occurrence is an independent entry.
//
// A single event is emitted for the whole batch. If ctx is cancelled
// mid-batch, files fully probed so far are still committed and ctx's
// error is returned.
func (m *Model) AddPaths(ctx context.Context, paths ...string) (AddReport, error) {
	var (
		report AddReport
		staged []*Entry
		ctxErr error
	)

scan:
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			ctxErr = err
			break scan
		}
		info, err := os.Stat(p)
		if err != nil {
			report.Skipped = append(report.Skipped, SkippedFile{Path: p, Reason: err})
			continue
		}
		if info.IsDir() {
			files, err := scanFolder(p)
			if err != nil {
				report.Skipped = append(report.Skipped, SkippedFile{Path: p, Reason: err})
				continue
			}
			for _, f := range files {
				if err := ctx.Err(); err != nil {
					ctxErr = err
					break scan
				}
				m.stageFile(ctx, f, &staged, &report)
			}
			continue
		}
		if !IsSupported(p) {
			report.Skipped = append(report.Skipped, SkippedFile{Path: p, Reason: ErrUnsupportedFormat})
			continue
		}
		m.stageFile(ctx, p, &staged, &report)
	}

	if len(staged) > 0 {
		m.entries = append(m.entries, staged...)
		m.emit(OpAdd)
	}
	m.log.Info("batch add finished",
		observability.Int("added", report.Added),
		observability.Int("skipped", len(report.Skipped)))
	return report, ctxErr
}

// stageFile probes a single supported file and stages it for commit.
// All-or-nothing per file: a probe failure leaves no trace in staged.
func (m *Model) stageFile(ctx context.Context, path string, staged *[]*Entry, report *AddReport) {
	kind, ok := KindOf(path)
	if !ok {
		report.Skipped = append(report.Skipped, SkippedFile{Path: path, Reason: ErrUnsupportedFormat})
		return
	}
	start := time.Now()
	count, err := m.prober.Probe(ctx, path)
	if err != nil {
		m.log.Warn("probe failed",
			observability.String("path", path),
			observability.Error("err", err))
		report.Skipped = append(report.Skipped, SkippedFile{Path: path, Reason: err})
		return
	}
	m.log.Debug("probed source",
		observability.String("path", path),
		observability.Int("pages", count),
		observability.Duration(observability.MetricProbeTime, time.Since(start)))
	*staged = append(*staged, &Entry{
		Path:      path,
		Kind:      kind,
		PageCount: count,
		Included:  true,
	})
	report.Added++
}

// scanFolder lists supported files under root, sorted lexically.
func scanFolder(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsSupported(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// ── Remove ──

// Remove deletes the entries at the given indices. Annotations anchored
// to slots those entries occupied are deleted with them.
func (m *Model) Remove(indices ...int) error {
	for _, i := range indices {
		if i < 0 || i >= len(m.entries) {
			return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
		}
	}
	if len(indices) == 0 {
		return nil
	}

	drop := make(map[int]bool, len(indices))
	for _, i := range indices {
		if !drop[i] {
			m.dropAnnotationsInRange(m.slotRange(i))
			drop[i] = true
		}
	}

	kept := m.entries[:0]
	for i, e := range m.entries {
		if !drop[i] {
			kept = append(kept, e)
		}
	}
	m.entries = kept
	m.dropAnnotationsBeyond(m.planLen())
	m.emit(OpRemove)
	return nil
}

// Clear removes all entries and all annotations.
func (m *Model) Clear() {
	if len(m.entries) == 0 && len(m.annotations) == 0 {
		return
	}
	m.entries = nil
	m.annotations = make(map[int]*Annotation)
	m.emit(OpClear)
}

// ── Reorder ──

// Move repositions the entry at from to index to. Annotations are not
// touched: they anchor to numeric slots, so a move changes which content
// an annotation draws over, not the annotation itself.
func (m *Model) Move(from, to int) error {
	if from < 0 || from >= len(m.entries) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, from)
	}
	if to < 0 || to >= len(m.entries) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, to)
	}
	if from == to {
		return nil
	}
	e := m.entries[from]
	m.entries = append(m.entries[:from], m.entries[from+1:]...)
	m.entries = append(m.entries[:to], append([]*Entry{e}, m.entries[to:]...)...)
	m.emit(OpMove)
	return nil
}

// MoveUp moves the entry one position earlier in the list.
func (m *Model) MoveUp(i int) error { return m.Move(i, i-1) }

// MoveDown moves the entry one position later in the list.
func (m *Model) MoveDown(i int) error { return m.Move(i, i+1) }

// ── Include / Exclude ──

// SetIncluded sets the inclusion flag on the entry at index i. Excluding
// an entry deletes the annotations anchored to the slots it occupied;
// re-including does not resurrect them.
func (m *Model) SetIncluded(i int, included bool) error {
	if i < 0 || i >= len(m.entries) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	e := m.entries[i]
	if e.Included == included {
		return nil
	}
	if !included {
		m.dropAnnotationsInRange(m.slotRange(i))
	}
	e.Included = included
	m.dropAnnotationsBeyond(m.planLen())
	m.emit(OpInclude)
	return nil
}

// Toggle flips the inclusion flag on the entry at index i.
func (m *Model) Toggle(i int) error {
	if i < 0 || i >= len(m.entries) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	return m.SetIncluded(i, !m.entries[i].Included)
}

// ── Annotations ──

// Annotate places a text label on the flattened output page at the given
// page-relative position. A zero fontSize takes the default. Returns the
// new annotation's id.
func (m *Model) Annotate(page int, at coords.Point, text string, fontSize float64, color engine.Color) (int, error) {
	if page < 0 || page >= m.planLen() {
		return 0, fmt.Errorf("%w: page %d outside plan", ErrInvalidAnnotation, page)
	}
	if !at.InBounds() {
		return 0, fmt.Errorf("%w: position (%g,%g) outside page", ErrInvalidAnnotation, at.X, at.Y)
	}
	if text == "" {
		return 0, fmt.Errorf("%w: empty text", ErrInvalidAnnotation)
	}
	if fontSize < 0 {
		return 0, fmt.Errorf("%w: negative font size", ErrInvalidAnnotation)
	}
	if fontSize == 0 {
		fontSize = DefaultAnnotationFontSize
	}
	id := m.nextAnnID
	m.nextAnnID++
	m.annotations[id] = &Annotation{
		ID:       id,
		Page:     page,
		At:       at,
		Text:     text,
		FontSize: fontSize,
		Color:    color,
	}
	m.emit(OpAnnotate)
	return id, nil
}

// UpdateAnnotation applies a partial edit to the annotation with the
// given id.
func (m *Model) UpdateAnnotation(id int, upd AnnotationUpdate) error {
	a, ok := m.annotations[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownAnnotation, id)
	}
	if upd.Page != nil && (*upd.Page < 0 || *upd.Page >= m.planLen()) {
		return fmt.Errorf("%w: page %d outside plan", ErrInvalidAnnotation, *upd.Page)
	}
	if upd.At != nil && !upd.At.InBounds() {
		return fmt.Errorf("%w: position (%g,%g) outside page", ErrInvalidAnnotation, upd.At.X, upd.At.Y)
	}
	if upd.Text != nil && *upd.Text == "" {
		return fmt.Errorf("%w: empty text", ErrInvalidAnnotation)
	}
	if upd.FontSize != nil && *upd.FontSize <= 0 {
		return fmt.Errorf("%w: font size must be positive", ErrInvalidAnnotation)
	}
	if upd.Page != nil {
		a.Page = *upd.Page
	}
	if upd.At != nil {
		a.At = *upd.At
	}
	if upd.Text != nil {
		a.Text = *upd.Text
	}
	if upd.FontSize != nil {
		a.FontSize = *upd.FontSize
	}
	if upd.Color != nil {
		a.Color = *upd.Color
	}
	m.emit(OpAnnotate)
	return nil
}

// RemoveAnnotation deletes the annotation with the given id.
func (m *Model) RemoveAnnotation(id int) error {
	if _, ok := m.annotations[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownAnnotation, id)
	}
	delete(m.annotations, id)
	m.emit(OpAnnotate)
	return nil
}

// ClearAnnotations deletes every annotation.
func (m *Model) ClearAnnotations() {
	if len(m.annotations) == 0 {
		return
	}
	m.annotations = make(map[int]*Annotation)
	m.emit(OpAnnotate)
}

// Annotations returns copies of all annotations, ordered by id.
func (m *Model) Annotations() []Annotation {
	out := make([]Annotation, 0, len(m.annotations))
	for _, a := range m.annotations {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// dropAnnotationsInRange deletes annotations whose page lies in
// [start, start+count).
func (m *Model) dropAnnotationsInRange(start, count int) {
	if count == 0 {
		return
	}
	for id, a := range m.annotations {
		if a.Page >= start && a.Page < start+count {
			m.log.Debug("cascading annotation delete",
				observability.Int("annotation", id),
				observability.Int("page", a.Page))
			delete(m.annotations, id)
		}
	}
}

// dropAnnotationsBeyond deletes annotations whose page no longer exists
// in a plan of the given length.
func (m *Model) dropAnnotationsBeyond(planLen int) {
	for id, a := range m.annotations {
		if a.Page >= planLen {
			m.log.Debug("cascading annotation delete",
				observability.Int("annotation", id),
				observability.Int("page", a.Page))
			delete(m.annotations, id)
		}
	}
}
