package assembly

import (
	"path/filepath"
	"strings"
)

// Kind classifies a source file by how the engine treats it.
type Kind int

const (
	KindPDF Kind = iota
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindPDF:
		return "pdf"
	case KindImage:
		return "image"
	}
	return "unknown"
}

// File extensions we accept, lowercase.
var supportedExtensions = map[string]Kind{
	".pdf":  KindPDF,
	".jpg":  KindImage,
	".jpeg": KindImage,
	".png":  KindImage,
	".bmp":  KindImage,
	".tif":  KindImage,
	".tiff": KindImage,
}

// IsSupported reports whether the file extension is one we can handle.
// The check is case-insensitive.
func IsSupported(path string) bool {
	_, ok := supportedExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// KindOf classifies a path by extension. The second return is false for
// unsupported extensions.
func KindOf(path string) (Kind, bool) {
	k, ok := supportedExtensions[strings.ToLower(filepath.Ext(path))]
	return k, ok
}

// Entry is a single file in the merge list. PageCount is probed once when
// the entry is added; Path, Kind and PageCount never change afterwards.
// Included and list position are the only mutable aspects, and only
// through Model methods.
type Entry struct {
	Path      string
	Kind      Kind
	PageCount int
	Included  bool
}

// Filename returns the base name of the backing file.
func (e *Entry) Filename() string { return filepath.Base(e.Path) }
