package goclip

import "strings"

// Format identifies the logical kind of data held by a piece of clipboard
// content. The four values text, image, html and rtf are the closed set
// produced and accepted by the Wayland and X11 backends; FileList is an
// extension outside that set, reported only by the macOS and Windows
// backends for file-reference clipboard content. The Wayland and X11
// backends never produce it.
type Format uint8

const (
	Invalid Format = iota
	Text
	Image
	HTML
	RTF
	FileList
)

func (f Format) String() string {
	switch f {
	case Invalid:
		return "Invalid"
	case Text:
		return "Text"
	case Image:
		return "Image"
	case HTML:
		return "HTML"
	case RTF:
		return "RTF"
	case FileList:
		return "FileList"
	default:
		return "Unknown"
	}
}

// Mime returns the canonical MIME string for a format. Image and HTML are
// lossy on output: only the canonical MIME is ever offered by a write, even
// though more are accepted on read.
func (f Format) Mime() string {
	switch f {
	case Text:
		return "text/plain"
	case Image:
		return "image/png"
	case HTML:
		return "text/html"
	case RTF:
		return "application/rtf"
	default:
		return ""
	}
}

// textWriteMimes are offered, in exactly this order, whenever a Wayland
// write advertises a Text payload. The X11 owner accepts a request for any
// of them, but its TARGETS reply lists its own set (see supportedTargets).
var textWriteMimes = []string{
	"text/plain",
	"text/plain;charset=utf-8",
	"TEXT",
	"STRING",
	"UTF8_STRING",
}

// textReadAliases are the legacy MIME/atom names accepted, in addition to
// the canonical text/plain, when identifying an incoming text offer.
var textReadAliases = map[string]bool{
	"text/plain":               true,
	"text/plain;charset=utf-8": true,
	"TEXT":                     true,
	"STRING":                   true,
	"UTF8_STRING":              true,
}

// imageReadTargetPreference orders the image atoms/MIMEs an X11 TARGETS
// negotiation should prefer, most faithful first.
var imageReadTargetPreference = []string{
	"image/avif",
	"image/webp",
	"image/jxl",
	"image/jpeg",
	"image/png",
	"image/tiff",
	"image/gif",
	"image/bmp",
}

// textReadTargetPreference orders the text atoms an X11 TARGETS negotiation
// should prefer.
var textReadTargetPreference = []string{
	"UTF8_STRING",
	"text/plain",
	"STRING",
	"TEXT",
}

// formatFromMime maps an arbitrary MIME string or X11 atom name to a
// Format. It is permissive: every alias in textReadAliases maps to Text,
// any image/* MIME maps to Image, and anything else falls through to the
// html/rtf exact matches or Invalid.
func formatFromMime(mime string) Format {
	if textReadAliases[mime] {
		return Text
	}
	switch mime {
	case "text/html":
		return HTML
	case "application/rtf", "text/rtf":
		return RTF
	}
	if strings.HasPrefix(mime, "image/") {
		return Image
	}
	return Invalid
}

// formatPriorityDefault is the read_auto negotiation order used by every
// backend except X11.
var formatPriorityDefault = []Format{Text, Image, HTML, RTF}

// formatPriorityX11 preserves fidelity of binary payloads over text when an
// X11 selection offers both.
var formatPriorityX11 = []Format{Image, Text, HTML, RTF}
