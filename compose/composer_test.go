package compose

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wudi/pdfjoin/assembly"
	"github.com/wudi/pdfjoin/coords"
	"github.com/wudi/pdfjoin/engine"
	"github.com/wudi/pdfjoin/plan"
)

// fakeEngine records the job it was asked to compose.
type fakeEngine struct {
	job     engine.Job
	called  bool
	failErr error
}

func (f *fakeEngine) Probe(context.Context, string) (int, error) { return 1, nil }

func (f *fakeEngine) RenderPage(context.Context, string, int, int) (image.Image, error) {
	return nil, engine.ErrPreviewUnsupported
}

func (f *fakeEngine) Compose(_ context.Context, job engine.Job) error {
	f.called = true
	f.job = job
	return f.failErr
}

func testPlan() plan.Plan {
	return plan.Build([]*assembly.Entry{
		{Path: "a.pdf", Kind: assembly.KindPDF, PageCount: 2, Included: true},
		{Path: "b.png", Kind: assembly.KindImage, PageCount: 1, Included: true},
	})
}

func TestComposeEmptyPlanFailsWithoutEngineCall(t *testing.T) {
	fake := &fakeEngine{}
	c := New(fake)
	_, err := c.Compose(context.Background(), nil, Options{OutputPath: "out"}, nil)
	if !errors.Is(err, ErrNothingToMerge) {
		t.Fatalf("err = %v, want ErrNothingToMerge", err)
	}
	if fake.called {
		t.Fatalf("engine must not be called for an empty plan")
	}
}

func TestComposeBuildsOrderedPageRefs(t *testing.T) {
	fake := &fakeEngine{}
	c := New(fake)
	result, err := c.Compose(context.Background(), testPlan(), Options{OutputPath: "out.pdf"}, nil)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	want := []engine.PageRef{
		{Path: "a.pdf", Page: 0},
		{Path: "a.pdf", Page: 1},
		{Path: "b.png", Page: 0},
	}
	if diff := cmp.Diff(want, fake.job.Pages); diff != "" {
		t.Fatalf("pages mismatch (-want +got):\n%s", diff)
	}
	if result.PageCount != 3 || result.OutputPath != "out.pdf" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestComposeAppendsPDFSuffix(t *testing.T) {
	fake := &fakeEngine{}
	c := New(fake)
	if _, err := c.Compose(context.Background(), testPlan(), Options{OutputPath: "merged"}, nil); err != nil {
		t.Fatalf("compose: %v", err)
	}
	if fake.job.OutputPath != "merged.pdf" {
		t.Fatalf("output path = %q, want merged.pdf", fake.job.OutputPath)
	}
}

// The stamp order is the z-order contract: watermark, then page numbers,
// then annotations, each drawing on top of the previous.
func TestComposeStampZOrder(t *testing.T) {
	fake := &fakeEngine{}
	c := New(fake)
	opts := Options{
		OutputPath:  "out.pdf",
		Watermark:   &Watermark{Text: "DRAFT", FontSize: 48, Opacity: 0.3, Angle: 45},
		PageNumbers: &PageNumbers{Position: coords.BottomCenter, FontSize: 10},
	}
	anns := []assembly.Annotation{
		{ID: 1, Page: 2, At: coords.Point{X: 0.1, Y: 0.2}, Text: "note", FontSize: 12},
	}
	if _, err := c.Compose(context.Background(), testPlan(), opts, anns); err != nil {
		t.Fatalf("compose: %v", err)
	}

	stamps := fake.job.Stamps
	if len(stamps) != 3 {
		t.Fatalf("stamps = %d, want 3", len(stamps))
	}
	if stamps[0].Text != "DRAFT" || stamps[0].Angle != 45 || stamps[0].Opacity != 0.3 {
		t.Fatalf("watermark must come first: %+v", stamps[0])
	}
	if stamps[0].Pages != nil {
		t.Fatalf("watermark must target every page")
	}
	if stamps[1].Text != DefaultPageNumberFormat || stamps[1].Anchor != coords.BottomCenter {
		t.Fatalf("page numbers must come second: %+v", stamps[1])
	}
	if stamps[2].Text != "note" || stamps[2].At == nil || len(stamps[2].Pages) != 1 || stamps[2].Pages[0] != 2 {
		t.Fatalf("annotation must come last, pinned to its slot: %+v", stamps[2])
	}
}

func TestComposeEngineFailurePropagates(t *testing.T) {
	renderErr := &engine.RenderError{Path: "a.pdf", Err: errors.New("boom")}
	fake := &fakeEngine{failErr: renderErr}
	c := New(fake)
	_, err := c.Compose(context.Background(), testPlan(), Options{OutputPath: "out.pdf"}, nil)
	var re *engine.RenderError
	if !errors.As(err, &re) || re.Path != "a.pdf" {
		t.Fatalf("err = %v, want RenderError naming a.pdf", err)
	}
}

func TestComposeRejectsInvalidAnnotations(t *testing.T) {
	fake := &fakeEngine{}
	c := New(fake)

	out := Options{OutputPath: "out.pdf"}
	anns := []assembly.Annotation{{ID: 1, Page: 99, At: coords.Point{X: 0.5, Y: 0.5}, Text: "x"}}
	if _, err := c.Compose(context.Background(), testPlan(), out, anns); !errors.Is(err, assembly.ErrInvalidAnnotation) {
		t.Fatalf("page outside plan: %v", err)
	}

	anns = []assembly.Annotation{{ID: 1, Page: 0, At: coords.Point{X: 2, Y: 0}, Text: "x"}}
	if _, err := c.Compose(context.Background(), testPlan(), out, anns); !errors.Is(err, assembly.ErrInvalidAnnotation) {
		t.Fatalf("position outside page: %v", err)
	}
	if fake.called {
		t.Fatalf("engine must not run with invalid annotations")
	}
}

func TestComposeRejectsInvalidOptions(t *testing.T) {
	fake := &fakeEngine{}
	c := New(fake)
	opts := Options{
		OutputPath: "out.pdf",
		Watermark:  &Watermark{Text: "W", Opacity: 1.5},
	}
	if _, err := c.Compose(context.Background(), testPlan(), opts, nil); !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("opacity out of range: %v", err)
	}
	if fake.called {
		t.Fatalf("engine must not run with invalid options")
	}
}
