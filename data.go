package goclip

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"strings"
)

// Data is the interface for clipboard data access. It provides methods to
// retrieve clipboard data in various formats and access to platform-
// specific clipboard formats.
type Data interface {
	// Type returns the primary format of the clipboard data.
	Type() Format
	// Board returns the clipboard board this data is associated with.
	Board() Board
	// ToText converts the clipboard data to a string representation.
	ToText(ctx context.Context) (string, error)
	// ToImage converts the clipboard data to an image representation.
	ToImage(ctx context.Context) (image.Image, error)
	// FileList returns a list of files if the clipboard contains file references.
	FileList() ([]string, error)

	// direct format accessors using MIME formats
	// HasFormat checks if data in a specific MIME format exists.
	HasFormat(mime string) bool
	// GetFormat retrieves data in a specific MIME format.
	GetFormat(ctx context.Context, mime string) ([]byte, error)
	// GetAllFormats returns all available data formats.
	GetAllFormats() ([]DataOption, error)
}

// ClipboardData is the immutable, owned-buffer value every backend read
// produces. Once constructed its bytes never change; callers that need to
// retain a slice must copy it themselves via Bytes.
type ClipboardData struct {
	board  Board
	format Format
	bytes  []byte
}

// newClipboardData duplicates b into an owned buffer and wraps it with its
// format. An empty buffer is not a valid ClipboardData: an empty payload is
// treated as NoData, not as a zero-length result.
func newClipboardData(board Board, format Format, b []byte) (*ClipboardData, error) {
	if len(b) == 0 {
		return nil, NoData
	}
	owned := make([]byte, len(b))
	copy(owned, b)
	return &ClipboardData{board: board, format: format, bytes: owned}, nil
}

func (d *ClipboardData) Type() Format {
	return d.format
}

func (d *ClipboardData) Board() Board {
	return d.board
}

func (d *ClipboardData) String() string {
	return fmt.Sprintf("goclip: %s [%s, %d bytes]", d.board, d.format, len(d.bytes))
}

// Bytes returns a fresh duplicate of the owned buffer. A backend never
// hands out references to its cached own payload, and neither does this:
// every call returns a new copy.
func (d *ClipboardData) Bytes() []byte {
	out := make([]byte, len(d.bytes))
	copy(out, d.bytes)
	return out
}

func (d *ClipboardData) ToText(ctx context.Context) (string, error) {
	if d.format != Text {
		return "", ErrDataNotString
	}
	return string(d.bytes), nil
}

func (d *ClipboardData) ToImage(ctx context.Context) (image.Image, error) {
	if d.format != Image {
		return nil, ErrDataNotImage
	}
	img, _, err := image.Decode(bytes.NewReader(d.bytes))
	return img, err
}

func (d *ClipboardData) FileList() ([]string, error) {
	if d.format != Text {
		return nil, os.ErrNotExist
	}
	return parseURIList(d.bytes), nil
}

func (d *ClipboardData) HasFormat(mime string) bool {
	return formatFromMime(mime) == d.format
}

func (d *ClipboardData) GetFormat(ctx context.Context, mime string) ([]byte, error) {
	if !d.HasFormat(mime) {
		return nil, os.ErrNotExist
	}
	return d.Bytes(), nil
}

func (d *ClipboardData) GetAllFormats() ([]DataOption, error) {
	return []DataOption{&StaticDataOption{StaticType: d.format.Mime(), StaticData: d.bytes}}, nil
}

// parseURIList extracts file:// paths from a text/uri-list payload, one
// URI per line, skipping blanks and comments (RFC 2483).
func parseURIList(data []byte) []string {
	var files []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "file://") {
			files = append(files, line[len("file://"):])
		}
	}
	return files
}

// StaticDataOption represents a single clipboard data format with MIME type
// and associated binary data.
type StaticDataOption struct {
	// StaticType is the MIME type such as "image/png" or "text/plain;charset=utf-8"
	StaticType string
	// StaticData contains the actual binary data
	StaticData []byte
}

func (s *StaticDataOption) Type() Format {
	return formatFromMime(s.StaticType)
}

func (s *StaticDataOption) Mime() string {
	return s.StaticType
}

func (s *StaticDataOption) Data(ctx context.Context) ([]byte, error) {
	return s.StaticData, nil
}

// DataOption is a simple option from within a list of options.
type DataOption interface {
	Type() Format
	Mime() string
	Data(ctx context.Context) ([]byte, error)
}

// StaticData is a type of data used to represent a whole clipboard,
// including multiple formats as made available by the system. Options can
// either contain instances of StaticDataOption, or objects following the
// DataOption interface. It is the convenience, multi-format view over a
// clipboard's contents; ClipboardData is the single-format value returned
// by a targeted Read.
type StaticData struct {
	// TargetBoard is the clipboard board this data belongs to
	TargetBoard Board
	// Options is a list of available clipboard data formats
	Options []DataOption
}

func (s *StaticData) Type() Format {
	if len(s.Options) == 0 {
		return Invalid
	}
	return s.Options[0].Type()
}

func (s *StaticData) Board() Board {
	return s.TargetBoard
}

func (s *StaticData) String() string {
	var t []string
	for _, o := range s.Options {
		t = append(t, o.Mime())
	}
	return fmt.Sprintf("goclip: %s [%s]", s.TargetBoard, strings.Join(t, ", "))
}

func (s *StaticData) ToText(ctx context.Context) (string, error) {
	for _, data := range s.Options {
		if data.Type() == Text {
			res, err := data.Data(ctx)
			return string(res), err
		}
	}
	return "", os.ErrNotExist
}

func (s *StaticData) ToImage(ctx context.Context) (image.Image, error) {
	var buf []byte
	var err error
	var img image.Image

	for _, opt := range s.Options {
		if opt.Type() != Image {
			continue
		}
		buf, err = opt.Data(ctx)
		if err != nil {
			continue
		}

		// Note: Go has no API to list registered image decoders, so we
		// just try each advertised option until one decodes.
		img, _, err = image.Decode(bytes.NewReader(buf))
		if err == nil {
			return img, nil
		}
	}

	if err != nil {
		return nil, err
	}
	return nil, os.ErrNotExist
}

func (s *StaticData) FileList() ([]string, error) {
	for _, opt := range s.Options {
		if mime := opt.Mime(); strings.HasPrefix(mime, "text/uri-list") {
			data, err := opt.Data(context.Background())
			if err != nil {
				return nil, err
			}
			if files := parseURIList(data); len(files) > 0 {
				return files, nil
			}
		}
	}
	return nil, os.ErrNotExist
}

func (s *StaticData) HasFormat(mime string) bool {
	for _, data := range s.Options {
		if data.Mime() == mime {
			return true
		}
	}
	return false
}

func (s *StaticData) GetFormat(ctx context.Context, mime string) ([]byte, error) {
	for _, data := range s.Options {
		if data.Mime() == mime {
			return data.Data(ctx)
		}
	}
	// fallback to partial match for mime (ie if asking for text/plain, return text/plain;charset=utf-8)
	for _, data := range s.Options {
		m := data.Mime()
		if ppos := strings.IndexByte(m, ';'); ppos != -1 {
			if mime == m[:ppos] {
				return data.Data(ctx)
			}
		}
	}
	return nil, os.ErrNotExist
}

func (s *StaticData) GetAllFormats() ([]DataOption, error) {
	return s.Options, nil
}
