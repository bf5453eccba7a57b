package goclip

import "errors"

// ErrorKind is the exhaustive taxonomy of failures a backend can report. It
// implements error directly so a bare ErrorKind value can be returned and
// compared with errors.Is, and is also the Kind of the richer *ClipError
// when a backend has an underlying cause to attach.
type ErrorKind uint8

const (
	_ ErrorKind = iota
	InitializationFailed
	UnsupportedPlatform
	NoData
	InvalidData
	ReadFailed
	WriteFailed
	Timeout
	OutOfMemory
)

func (e ErrorKind) String() string {
	switch e {
	case InitializationFailed:
		return "InitializationFailed"
	case UnsupportedPlatform:
		return "UnsupportedPlatform"
	case NoData:
		return "NoData"
	case InvalidData:
		return "InvalidData"
	case ReadFailed:
		return "ReadFailed"
	case WriteFailed:
		return "WriteFailed"
	case Timeout:
		return "Timeout"
	case OutOfMemory:
		return "OutOfMemory"
	default:
		return "Unknown"
	}
}

func (e ErrorKind) Error() string {
	return "goclip: " + e.String()
}

// ClipError wraps an ErrorKind with the underlying cause, when one exists
// (an FFI failure indicator, a pipe error, and so on). Callers that only
// care about the kind can still do errors.Is(err, goclip.NoData).
type ClipError struct {
	Kind ErrorKind
	Err  error
}

func (c *ClipError) Error() string {
	if c.Err == nil {
		return c.Kind.Error()
	}
	return c.Kind.Error() + ": " + c.Err.Error()
}

func (c *ClipError) Unwrap() error {
	return c.Err
}

func (c *ClipError) Is(target error) bool {
	if k, ok := target.(ErrorKind); ok {
		return c.Kind == k
	}
	return false
}

func wrapErr(kind ErrorKind, err error) error {
	if err == nil {
		return kind
	}
	return &ClipError{Kind: kind, Err: err}
}

// Legacy sentinel errors, kept as distinct values for backward compatible
// error matching. Each now carries an ErrorKind so errors.Is also works
// against the taxonomy above.
var (
	ErrFormatUnavailable = wrapErr(InvalidData, errors.New("goclip: requested format was not available"))
	ErrNoBoard           = wrapErr(UnsupportedPlatform, errors.New("goclip: requested board is not available"))
	ErrNoData            = wrapErr(NoData, errors.New("goclip: no data available"))
	ErrDataNotString     = wrapErr(InvalidData, errors.New("goclip: clipboard data is not text"))
	ErrDataNotImage      = wrapErr(InvalidData, errors.New("goclip: clipboard data is not an image"))
	ErrDataNotFileList   = wrapErr(InvalidData, errors.New("goclip: clipboard data is not a file list"))
	ErrTiffImageDecode   = wrapErr(ReadFailed, errors.New("goclip: failed to decode TIFF image data"))
)
