package compose

import (
	"errors"
	"testing"

	"github.com/wudi/pdfjoin/coords"
)

func TestNormalizedOutputPath(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"merged", "merged.pdf"},
		{"merged.pdf", "merged.pdf"},
		{"Merged.PDF", "Merged.PDF"},
		{"dir/out", "dir/out.pdf"},
		{"archive.tar", "archive.tar.pdf"},
	}
	for _, c := range cases {
		got := Options{OutputPath: c.in}.NormalizedOutputPath()
		if got != c.want {
			t.Fatalf("NormalizedOutputPath(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestValidate(t *testing.T) {
	ok := Options{
		OutputPath:  "out.pdf",
		PageNumbers: &PageNumbers{Position: coords.BottomCenter, FontSize: 10},
		Watermark:   &Watermark{Text: "DRAFT", FontSize: 48, Opacity: 0.5},
	}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid options rejected: %v", err)
	}

	bad := []Options{
		{OutputPath: ""},
		{OutputPath: "o", PageNumbers: &PageNumbers{Position: coords.Anchor(42)}},
		{OutputPath: "o", PageNumbers: &PageNumbers{Position: coords.Center, FontSize: -1}},
		{OutputPath: "o", Watermark: &Watermark{Text: "  "}},
		{OutputPath: "o", Watermark: &Watermark{Text: "w", Opacity: -0.1}},
		{OutputPath: "o", Watermark: &Watermark{Text: "w", Opacity: 2}},
		{OutputPath: "o", Watermark: &Watermark{Text: "w", FontSize: -3}},
	}
	for i, o := range bad {
		if err := o.Validate(); !errors.Is(err, ErrInvalidOptions) {
			t.Fatalf("case %d: err = %v, want ErrInvalidOptions", i, err)
		}
	}
}
