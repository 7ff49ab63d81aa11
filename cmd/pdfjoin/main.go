// pdfjoin merges PDF and image files into a single PDF, with optional
// page numbers, a text watermark, and free-form text annotations.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/wudi/pdfjoin/assembly"
	"github.com/wudi/pdfjoin/compose"
	"github.com/wudi/pdfjoin/coords"
	"github.com/wudi/pdfjoin/engine"
	pdfcpueng "github.com/wudi/pdfjoin/engine/pdfcpu"
	"github.com/wudi/pdfjoin/observability"
	"github.com/wudi/pdfjoin/plan"
)

type options struct {
	output  string
	inputs  []string
	exclude []int

	pageNumbers string
	pnFormat    string
	pnSize      float64
	pnColor     string

	watermark string
	wmSize    float64
	wmOpacity float64
	wmAngle   float64
	wmColor   string

	annotations annotationFlags
	verbose     bool
}

// annotationFlags collects repeated -annotate values of the form
// page:x:y:size:text, where page is the 1-based output page, x and y are
// page-relative fractions in [0,1] from the top-left corner, and size is
// a font size in points (0 for the default).
type annotationFlags []annotationSpec

type annotationSpec struct {
	page int
	at   coords.Point
	size float64
	text string
}

func (a *annotationFlags) String() string {
	parts := make([]string, len(*a))
	for i, s := range *a {
		parts[i] = fmt.Sprintf("%d:%g:%g:%g:%s", s.page+1, s.at.X, s.at.Y, s.size, s.text)
	}
	return strings.Join(parts, ",")
}

func (a *annotationFlags) Set(value string) error {
	fields := strings.SplitN(value, ":", 5)
	if len(fields) != 5 {
		return fmt.Errorf("want page:x:y:size:text, got %q", value)
	}
	page, err := strconv.Atoi(fields[0])
	if err != nil || page < 1 {
		return fmt.Errorf("invalid page %q", fields[0])
	}
	x, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return fmt.Errorf("invalid x %q", fields[1])
	}
	y, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return fmt.Errorf("invalid y %q", fields[2])
	}
	size, err := strconv.ParseFloat(fields[3], 64)
	if err != nil || size < 0 {
		return fmt.Errorf("invalid size %q", fields[3])
	}
	if fields[4] == "" {
		return fmt.Errorf("empty annotation text")
	}
	*a = append(*a, annotationSpec{
		page: page - 1,
		at:   coords.Point{X: x, Y: y},
		size: size,
		text: fields[4],
	})
	return nil
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdfjoin: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "pdfjoin: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: pdfjoin [flags] <file-or-folder>...\n")
		flag.PrintDefaults()
	}
	flag.StringVar(&opts.output, "o", "merged.pdf", "Output file (.pdf appended if missing)")
	exclude := flag.String("exclude", "", "Comma-separated entry indices to exclude (0-based)")

	flag.StringVar(&opts.pageNumbers, "page-numbers", "", "Stamp page numbers at this anchor (e.g. bottom-center)")
	flag.StringVar(&opts.pnFormat, "pn-format", compose.DefaultPageNumberFormat, "Page number template; {page} and {pages} expand")
	flag.Float64Var(&opts.pnSize, "pn-size", 10, "Page number font size in points")
	flag.StringVar(&opts.pnColor, "pn-color", "#000000", "Page number color (rrggbb)")

	flag.StringVar(&opts.watermark, "watermark", "", "Watermark text drawn across every page")
	flag.Float64Var(&opts.wmSize, "wm-size", 48, "Watermark font size in points")
	flag.Float64Var(&opts.wmOpacity, "wm-opacity", 0.3, "Watermark opacity in [0,1]")
	flag.Float64Var(&opts.wmAngle, "wm-angle", 45, "Watermark rotation in degrees")
	flag.StringVar(&opts.wmColor, "wm-color", "#808080", "Watermark color (rrggbb)")

	flag.Var(&opts.annotations, "annotate", "Text annotation as page:x:y:size:text (repeatable)")
	flag.BoolVar(&opts.verbose, "v", false, "Verbose logging to stderr")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		return options{}, fmt.Errorf("no input files")
	}
	opts.inputs = flag.Args()

	if *exclude != "" {
		for _, s := range strings.Split(*exclude, ",") {
			i, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil {
				return options{}, fmt.Errorf("invalid exclude index %q", s)
			}
			opts.exclude = append(opts.exclude, i)
		}
	}
	return opts, nil
}

func run(opts options) error {
	ctx := context.Background()

	var log observability.Logger = observability.NopLogger{}
	if opts.verbose {
		log = observability.NewWriterLogger(os.Stderr, observability.LevelDebug)
	}

	eng := pdfcpueng.New(pdfcpueng.WithLogger(log))
	m := assembly.New(eng, assembly.WithLogger(log))

	report, err := m.AddPaths(ctx, opts.inputs...)
	if err != nil {
		return err
	}
	for _, s := range report.Skipped {
		fmt.Fprintf(os.Stderr, "pdfjoin: skipped %s: %v\n", s.Path, s.Reason)
	}
	if m.Len() == 0 {
		return fmt.Errorf("no usable input files")
	}

	for _, i := range opts.exclude {
		if err := m.SetIncluded(i, false); err != nil {
			return err
		}
	}

	for _, a := range opts.annotations {
		if _, err := m.Annotate(a.page, a.at, a.text, a.size, engine.Black); err != nil {
			return err
		}
	}

	outputOpts, err := outputOptions(opts)
	if err != nil {
		return err
	}

	composer := compose.New(eng, compose.WithLogger(log))
	result, err := composer.Compose(ctx, plan.Build(m.Entries()), outputOpts, m.Annotations())
	if err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d pages)\n", result.OutputPath, result.PageCount)
	return nil
}

func outputOptions(opts options) (compose.Options, error) {
	out := compose.Options{OutputPath: opts.output}

	if opts.pageNumbers != "" {
		anchor, err := coords.ParseAnchor(opts.pageNumbers)
		if err != nil {
			return compose.Options{}, err
		}
		color, err := engine.ParseHexColor(opts.pnColor)
		if err != nil {
			return compose.Options{}, err
		}
		out.PageNumbers = &compose.PageNumbers{
			Position: anchor,
			Format:   opts.pnFormat,
			FontSize: opts.pnSize,
			Color:    color,
		}
	}

	if opts.watermark != "" {
		color, err := engine.ParseHexColor(opts.wmColor)
		if err != nil {
			return compose.Options{}, err
		}
		out.Watermark = &compose.Watermark{
			Text:     opts.watermark,
			FontSize: opts.wmSize,
			Opacity:  opts.wmOpacity,
			Angle:    opts.wmAngle,
			Color:    color,
		}
	}
	return out, nil
}
