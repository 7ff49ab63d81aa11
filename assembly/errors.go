package assembly

import "errors"

// ErrIndexOutOfRange reports an invalid entry index passed to Remove,
// Move, SetIncluded or Toggle. These are UI-contract violations, not
// recoverable user errors.
var ErrIndexOutOfRange = errors.New("entry index out of range")

// ErrUnsupportedFormat reports a file whose extension is not one of the
// supported input formats.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrUnknownAnnotation reports an annotation id that does not exist.
var ErrUnknownAnnotation = errors.New("unknown annotation")

// ErrInvalidAnnotation reports an annotation whose page or position is
// outside the current plan or page bounds.
var ErrInvalidAnnotation = errors.New("invalid annotation")
