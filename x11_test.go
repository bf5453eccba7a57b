package goclip

import (
	"testing"

	"github.com/jezek/xgb/xproto"
)

// fakeX11Atoms builds an x11Atoms table with made-up but stable atom
// numbers, enough to exercise every atom-table lookup without a live
// display connection.
func fakeX11Atoms() x11Atoms {
	a := x11Atoms{
		clipboard: 100,
		primary:   101,
		targets:   102,
		incr:      103,
		xclipOut:  104,
	}
	a.byMime = map[string]xproto.Atom{}
	a.mimeByAtom = map[xproto.Atom]string{}
	next := xproto.Atom(200)
	for _, name := range x11MimeAtomNames {
		a.byMime[name] = next
		a.mimeByAtom[next] = name
		next++
	}
	return a
}

func TestSelectionAtom(t *testing.T) {
	x := &x11Backend{atoms: fakeX11Atoms()}

	got, err := x.selectionAtom(Default)
	if err != nil || got != x.atoms.clipboard {
		t.Errorf("selectionAtom(Default) = (%v, %v), want (%v, nil)", got, err, x.atoms.clipboard)
	}
	got, err = x.selectionAtom(PrimarySelection)
	if err != nil || got != x.atoms.primary {
		t.Errorf("selectionAtom(PrimarySelection) = (%v, %v), want (%v, nil)", got, err, x.atoms.primary)
	}
	if _, err := x.selectionAtom(SecondarySelection); err != ErrNoBoard {
		t.Errorf("selectionAtom(SecondarySelection) = %v, want ErrNoBoard", err)
	}
}

func TestAtomForMimeAndFormatFromAtom(t *testing.T) {
	x := &x11Backend{atoms: fakeX11Atoms()}

	atom, ok := x.atomForMime("image/png")
	if !ok {
		t.Fatalf("atomForMime(image/png) not found")
	}
	if got := x.formatFromAtom(atom); got != Image {
		t.Errorf("formatFromAtom(image/png atom) = %s, want Image", got)
	}

	if _, ok := x.atomForMime("application/x-unknown"); ok {
		t.Errorf("atomForMime(application/x-unknown) = found, want not found")
	}
	if got := x.formatFromAtom(xproto.Atom(999999)); got != Invalid {
		t.Errorf("formatFromAtom(unknown atom) = %s, want Invalid", got)
	}
}

func TestTargetPreferenceFor(t *testing.T) {
	if got := targetPreferenceFor(Text); got[0] != "UTF8_STRING" {
		t.Errorf("targetPreferenceFor(Text)[0] = %q, want UTF8_STRING", got[0])
	}
	if got := targetPreferenceFor(Image); got[0] != "image/avif" {
		t.Errorf("targetPreferenceFor(Image)[0] = %q, want image/avif", got[0])
	}
	if got := targetPreferenceFor(HTML); len(got) != 1 || got[0] != "text/html" {
		t.Errorf("targetPreferenceFor(HTML) = %v, want [text/html]", got)
	}
	if got := targetPreferenceFor(FileList); got != nil {
		t.Errorf("targetPreferenceFor(FileList) = %v, want nil", got)
	}
}

func TestTargetMatchesOwnFormat(t *testing.T) {
	x := &x11Backend{atoms: fakeX11Atoms(), ownFormat: Text}

	utf8, _ := x.atomForMime("UTF8_STRING")
	if !x.targetMatchesOwnFormat(utf8) {
		t.Errorf("targetMatchesOwnFormat(UTF8_STRING) = false, want true when ownFormat is Text")
	}
	png, _ := x.atomForMime("image/png")
	if x.targetMatchesOwnFormat(png) {
		t.Errorf("targetMatchesOwnFormat(image/png) = true, want false when ownFormat is Text")
	}

	x.ownFormat = Image
	if !x.targetMatchesOwnFormat(png) {
		t.Errorf("targetMatchesOwnFormat(image/png) = false, want true when ownFormat is Image")
	}
	if x.targetMatchesOwnFormat(utf8) {
		t.Errorf("targetMatchesOwnFormat(UTF8_STRING) = true, want false when ownFormat is Image")
	}
}

func TestSupportedTargetsIncludesOwnFormat(t *testing.T) {
	x := &x11Backend{atoms: fakeX11Atoms(), ownFormat: Image}
	targets := x.supportedTargets()

	pngAtom, _ := x.atomForMime("image/png")
	found := false
	for _, a := range targets {
		if a == pngAtom {
			found = true
		}
	}
	if !found {
		t.Errorf("supportedTargets() = %v, missing the image/png atom for ownFormat=Image", targets)
	}

	x.ownFormat = Text
	targets = x.supportedTargets()
	for _, a := range targets {
		if a == pngAtom {
			t.Errorf("supportedTargets() with ownFormat=Text should not include image/png, got %v", targets)
		}
	}
}

func TestIncrChunkBoundary(t *testing.T) {
	// handlePropertyDelete's chunk math: cursor advances by chunkSize per
	// call until the final, possibly shorter, chunk, then a terminal
	// zero-length write signals completion.
	x := &x11Backend{chunkSize: 4}
	payload := []byte("abcdefghi") // 9 bytes: 4 + 4 + 1
	requestors := map[[2]uint32]*incrRequestor{
		{1, 1}: {window: 1, property: 1, typeAtom: 42},
	}
	x.ownPayload = payload
	x.ownFormat = Text

	wantChunks := []uint32{4, 4, 1, 0}
	for _, want := range wantChunks {
		r := requestors[[2]uint32{1, 1}]
		if r == nil {
			if want != 0 {
				t.Fatalf("requestor removed before reaching the terminal zero-length chunk")
			}
			break
		}
		remaining := uint32(len(payload)) - r.cursor
		n := remaining
		if n > x.chunkSize {
			n = x.chunkSize
		}
		if n != want {
			t.Errorf("chunk size = %d, want %d (cursor=%d)", n, want, r.cursor)
		}
		r.cursor += n
		if n == 0 {
			delete(requestors, [2]uint32{1, 1})
		}
	}
}
