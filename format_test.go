package goclip

import "testing"

func TestFormatMime(t *testing.T) {
	cases := []struct {
		f    Format
		want string
	}{
		{Text, "text/plain"},
		{Image, "image/png"},
		{HTML, "text/html"},
		{RTF, "application/rtf"},
		{Invalid, ""},
		{FileList, ""},
	}
	for _, c := range cases {
		if got := c.f.Mime(); got != c.want {
			t.Errorf("%s.Mime() = %q, want %q", c.f, got, c.want)
		}
	}
}

func TestFormatString(t *testing.T) {
	cases := []struct {
		f    Format
		want string
	}{
		{Invalid, "Invalid"},
		{Text, "Text"},
		{Image, "Image"},
		{HTML, "HTML"},
		{RTF, "RTF"},
		{FileList, "FileList"},
		{Format(99), "Unknown"},
	}
	for _, c := range cases {
		if got := c.f.String(); got != c.want {
			t.Errorf("Format(%d).String() = %q, want %q", c.f, got, c.want)
		}
	}
}

func TestFormatFromMime(t *testing.T) {
	cases := []struct {
		mime string
		want Format
	}{
		{"text/plain", Text},
		{"text/plain;charset=utf-8", Text},
		{"TEXT", Text},
		{"STRING", Text},
		{"UTF8_STRING", Text},
		{"text/html", HTML},
		{"application/rtf", RTF},
		{"text/rtf", RTF},
		{"image/png", Image},
		{"image/jpeg", Image},
		{"image/avif", Image},
		{"application/octet-stream", Invalid},
		{"", Invalid},
	}
	for _, c := range cases {
		if got := formatFromMime(c.mime); got != c.want {
			t.Errorf("formatFromMime(%q) = %s, want %s", c.mime, got, c.want)
		}
	}
}

func TestTextReadAliasesMatchWriteMimes(t *testing.T) {
	// every MIME this package offers on write must also be recognized as a
	// text alias on read, or a peer that echoes our own offer back to us
	// would fail to identify it.
	for _, m := range textWriteMimes {
		if !textReadAliases[m] {
			t.Errorf("textWriteMimes contains %q, not present in textReadAliases", m)
		}
	}
}

func TestFormatPriorityOrdersDiffer(t *testing.T) {
	if formatPriorityDefault[0] != Text {
		t.Errorf("formatPriorityDefault should prefer Text first, got %s", formatPriorityDefault[0])
	}
	if formatPriorityX11[0] != Image {
		t.Errorf("formatPriorityX11 should prefer Image first, got %s", formatPriorityX11[0])
	}
}
