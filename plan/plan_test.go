package plan

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wudi/pdfjoin/assembly"
)

func entries() []*assembly.Entry {
	return []*assembly.Entry{
		{Path: "a.pdf", Kind: assembly.KindPDF, PageCount: 3, Included: true},
		{Path: "b.png", Kind: assembly.KindImage, PageCount: 1, Included: true},
		{Path: "c.pdf", Kind: assembly.KindPDF, PageCount: 2, Included: true},
	}
}

// pages flattens a plan to (path, page) pairs for easy comparison.
func pages(p Plan) [][2]interface{} {
	out := make([][2]interface{}, len(p))
	for i, s := range p {
		out[i] = [2]interface{}{s.Entry.Path, s.Page}
	}
	return out
}

func TestBuildFlattensInListOrder(t *testing.T) {
	p := Build(entries())
	want := [][2]interface{}{
		{"a.pdf", 0}, {"a.pdf", 1}, {"a.pdf", 2},
		{"b.png", 0},
		{"c.pdf", 0}, {"c.pdf", 1},
	}
	if diff := cmp.Diff(want, pages(p)); diff != "" {
		t.Fatalf("plan mismatch (-want +got):\n%s", diff)
	}
	if p.Len() != 6 {
		t.Fatalf("len = %d, want 6", p.Len())
	}
}

func TestBuildSkipsExcluded(t *testing.T) {
	es := entries()
	es[1].Included = false
	p := Build(es)
	if p.Len() != 5 {
		t.Fatalf("len = %d, want 5", p.Len())
	}
	if p[3].Entry.Path != "c.pdf" || p[3].Page != 0 {
		t.Fatalf("slot 3 = (%s,%d), want (c.pdf,0)", p[3].Entry.Path, p[3].Page)
	}
}

func TestPlanLengthEqualsIncludedPageSum(t *testing.T) {
	es := entries()
	es[0].Included = false
	p := Build(es)
	sum := 0
	for _, e := range es {
		if e.Included {
			sum += e.PageCount
		}
	}
	if p.Len() != sum {
		t.Fatalf("len = %d, want %d", p.Len(), sum)
	}
}

func TestExcludeThenReincludeRestoresPlan(t *testing.T) {
	es := entries()
	before := pages(Build(es))

	es[1].Included = false
	es[1].Included = true
	after := pages(Build(es))

	if diff := cmp.Diff(before, after); diff != "" {
		t.Fatalf("plan not restored (-before +after):\n%s", diff)
	}
}

func move(es []*assembly.Entry, from, to int) []*assembly.Entry {
	e := es[from]
	es = append(es[:from], es[from+1:]...)
	return append(es[:to], append([]*assembly.Entry{e}, es[to:]...)...)
}

func TestMoveThereAndBackIsIdentity(t *testing.T) {
	es := entries()
	before := pages(Build(es))

	es = move(es, 0, 2)
	es = move(es, 2, 0)

	if diff := cmp.Diff(before, pages(Build(es))); diff != "" {
		t.Fatalf("round-trip move changed the plan (-want +got):\n%s", diff)
	}
}

func TestBuildEmptyAndZeroPages(t *testing.T) {
	if p := Build(nil); p.Len() != 0 {
		t.Fatalf("empty entries should give an empty plan")
	}
	p := Build([]*assembly.Entry{{Path: "z.pdf", PageCount: 0, Included: true}})
	if p.Len() != 0 {
		t.Fatalf("zero-page entry contributed slots")
	}
}

func TestDuplicatePathsContributeIndependently(t *testing.T) {
	a := &assembly.Entry{Path: "a.pdf", PageCount: 1, Included: true}
	b := &assembly.Entry{Path: "a.pdf", PageCount: 1, Included: true}
	p := Build([]*assembly.Entry{a, b})
	if p.Len() != 2 {
		t.Fatalf("len = %d, want 2", p.Len())
	}
	if p[0].Entry != a || p[1].Entry != b {
		t.Fatalf("slots must reference their own entry occurrence")
	}
}
