package goclip

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// x11MimeAtomNames lists every atom name this backend interns eagerly at
// init time, beyond the four protocol atoms (CLIPBOARD, PRIMARY, TARGETS,
// INCR) and the transfer property (XCLIP_OUT).
var x11MimeAtomNames = []string{
	"UTF8_STRING", "STRING", "TEXT",
	"text/plain", "text/plain;charset=utf-8",
	"text/html", "application/rtf",
	"image/png", "image/jpeg", "image/gif", "image/bmp",
	"image/avif", "image/jxl", "image/tiff", "image/webp",
}

type x11Atoms struct {
	clipboard, primary, targets, incr, xclipOut xproto.Atom
	byMime                                      map[string]xproto.Atom
	mimeByAtom                                  map[xproto.Atom]string
}

func internX11Atoms(conn *xgb.Conn) (x11Atoms, error) {
	var a x11Atoms
	intern := func(name string) (xproto.Atom, error) {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			return 0, err
		}
		return reply.Atom, nil
	}

	var err error
	if a.clipboard, err = intern("CLIPBOARD"); err != nil {
		return a, err
	}
	if a.primary, err = intern("PRIMARY"); err != nil {
		return a, err
	}
	if a.targets, err = intern("TARGETS"); err != nil {
		return a, err
	}
	if a.incr, err = intern("INCR"); err != nil {
		return a, err
	}
	if a.xclipOut, err = intern("XCLIP_OUT"); err != nil {
		return a, err
	}

	a.byMime = make(map[string]xproto.Atom, len(x11MimeAtomNames))
	a.mimeByAtom = make(map[xproto.Atom]string, len(x11MimeAtomNames))
	for _, name := range x11MimeAtomNames {
		atom, err := intern(name)
		if err != nil {
			return a, err
		}
		a.byMime[name] = atom
		a.mimeByAtom[atom] = name
	}
	return a, nil
}

// incrRequestor tracks one in-progress outbound INCR transfer: a peer
// asked us for a property larger than chunkSize and we're feeding it one
// chunk per PropertyNotify{Delete}.
type incrRequestor struct {
	window   xproto.Window
	property xproto.Atom
	typeAtom xproto.Atom
	cursor   uint32
}

// x11Backend drives the ICCCM CLIPBOARD/PRIMARY selections over
// github.com/jezek/xgb, with INCR chunking for payloads larger than
// chunkSize (a quarter of the server's advertised max request size in
// bytes, at least 4096).
type x11Backend struct {
	conn      *xgb.Conn
	window    xproto.Window
	atoms     x11Atoms
	chunkSize uint32

	mu         sync.Mutex
	ownPayload []byte
	ownFormat  Format
}

func newX11Backend(display string) (*x11Backend, error) {
	var conn *xgb.Conn
	var err error
	if display != "" {
		conn, err = xgb.NewConnDisplay(display)
	} else {
		conn, err = xgb.NewConn()
	}
	if err != nil {
		return nil, wrapErr(InitializationFailed, err)
	}

	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)

	window, err := xproto.NewWindowId(conn)
	if err != nil {
		conn.Close()
		return nil, wrapErr(InitializationFailed, err)
	}
	const eventMask = xproto.EventMaskPropertyChange | xproto.EventMaskStructureNotify
	if err := xproto.CreateWindowChecked(conn, screen.RootDepth, window, screen.Root,
		0, 0, 1, 1, 0, xproto.WindowClassInputOutput, screen.RootVisual,
		xproto.CwEventMask, []uint32{eventMask}).Check(); err != nil {
		conn.Close()
		return nil, wrapErr(InitializationFailed, err)
	}

	atoms, err := internX11Atoms(conn)
	if err != nil {
		xproto.DestroyWindow(conn, window)
		conn.Close()
		return nil, wrapErr(InitializationFailed, err)
	}

	// xgb doesn't surface the big-requests extension's extended max
	// length separately from Setup.MaximumRequestLength; we use the one
	// value xgb gives us, which is conservative (never larger than the
	// extended length would be).
	maxBytes := uint32(setup.MaximumRequestLength) * 4
	chunk := maxBytes / 4
	if chunk < 4096 {
		chunk = 4096
	}

	log.Printf("goclip: [x11] opened display %q, window=%d, chunk size=%d bytes", display, window, chunk)

	return &x11Backend{
		conn:      conn,
		window:    window,
		atoms:     atoms,
		chunkSize: chunk,
		ownFormat: Invalid,
	}, nil
}

func (x *x11Backend) selectionAtom(board Board) (xproto.Atom, error) {
	switch board {
	case Default:
		return x.atoms.clipboard, nil
	case PrimarySelection:
		return x.atoms.primary, nil
	default:
		return 0, ErrNoBoard
	}
}

func (x *x11Backend) atomForMime(mime string) (xproto.Atom, bool) {
	a, ok := x.atoms.byMime[mime]
	return a, ok
}

func (x *x11Backend) formatFromAtom(atom xproto.Atom) Format {
	name, ok := x.atoms.mimeByAtom[atom]
	if !ok {
		return Invalid
	}
	return formatFromMime(name)
}

// waitSelectionNotify polls (rather than blocking on WaitForEvent) so a
// deadline can be enforced: there is no portable way to interrupt an xgb
// blocking read from another goroutine.
func (x *x11Backend) waitSelectionNotify(deadline time.Time) (xproto.SelectionNotifyEvent, error) {
	for {
		ev, err := x.conn.PollForEvent()
		if err != nil {
			return xproto.SelectionNotifyEvent{}, wrapErr(ReadFailed, err)
		}
		if ev != nil {
			if sn, ok := ev.(xproto.SelectionNotifyEvent); ok && sn.Requestor == x.window {
				return sn, nil
			}
			continue
		}
		if time.Now().After(deadline) {
			return xproto.SelectionNotifyEvent{}, Timeout
		}
		time.Sleep(time.Millisecond)
	}
}

func (x *x11Backend) waitPropertyNotify(prop xproto.Atom, deadline time.Time) (xproto.PropertyNotifyEvent, error) {
	for {
		ev, err := x.conn.PollForEvent()
		if err != nil {
			return xproto.PropertyNotifyEvent{}, wrapErr(ReadFailed, err)
		}
		if ev != nil {
			if pn, ok := ev.(xproto.PropertyNotifyEvent); ok && pn.Window == x.window &&
				pn.Atom == prop && pn.State == xproto.PropertyNewValue {
				return pn, nil
			}
			continue
		}
		if time.Now().After(deadline) {
			return xproto.PropertyNotifyEvent{}, Timeout
		}
		time.Sleep(time.Millisecond)
	}
}

// readTarget is the shared core of read and readAuto: convert the
// selection to target, wait up to one second for SelectionNotify, then
// fetch (and, if necessary, INCR-stream) the resulting property.
func (x *x11Backend) readTarget(ctx context.Context, board Board, target xproto.Atom, format Format) (*ClipboardData, error) {
	sel, err := x.selectionAtom(board)
	if err != nil {
		return nil, err
	}

	if err := xproto.DeletePropertyChecked(x.conn, x.window, x.atoms.xclipOut).Check(); err != nil {
		return nil, wrapErr(ReadFailed, err)
	}
	if err := xproto.ConvertSelectionChecked(x.conn, x.window, sel, target, x.atoms.xclipOut, xproto.TimeCurrentTime).Check(); err != nil {
		return nil, wrapErr(ReadFailed, err)
	}

	notify, err := x.waitSelectionNotify(time.Now().Add(time.Second))
	if err != nil {
		return nil, err
	}
	if notify.Property == xproto.AtomNone {
		return nil, NoData
	}

	return x.fetchProperty(notify.Property, format)
}

func (x *x11Backend) fetchProperty(prop xproto.Atom, requestedFormat Format) (*ClipboardData, error) {
	probe, err := xproto.GetProperty(x.conn, false, x.window, prop, xproto.GetPropertyTypeAny, 0, 0).Reply()
	if err != nil {
		return nil, wrapErr(ReadFailed, err)
	}
	if probe.Type == x.atoms.incr {
		return x.fetchIncr(prop, requestedFormat)
	}

	full, err := xproto.GetProperty(x.conn, true, x.window, prop, xproto.GetPropertyTypeAny, 0, (1<<31)-1).Reply()
	if err != nil {
		return nil, wrapErr(ReadFailed, err)
	}
	xproto.DeleteProperty(x.conn, x.window, prop)

	format := x.formatFromAtom(full.Type)
	if format == Invalid {
		format = Text
	}
	if len(full.Value) == 0 {
		return nil, NoData
	}
	return newClipboardData(Default, format, full.Value)
}

// fetchIncr streams a property whose owner announced INCR: each chunk
// arrives as a PropertyNotify{NewValue} after we delete the property to
// signal readiness, terminated by a zero-length chunk. The final format
// is the one originally requested, not hardcoded to text.
func (x *x11Backend) fetchIncr(prop xproto.Atom, format Format) (*ClipboardData, error) {
	if err := xproto.DeletePropertyChecked(x.conn, x.window, prop).Check(); err != nil {
		return nil, wrapErr(ReadFailed, err)
	}

	var buf bytes.Buffer
	deadline := time.Now().Add(5 * time.Second)

	for {
		if _, err := x.waitPropertyNotify(prop, deadline); err != nil {
			return nil, err
		}

		reply, err := xproto.GetProperty(x.conn, false, x.window, prop, xproto.GetPropertyTypeAny, 0, (1<<31)-1).Reply()
		if err != nil {
			return nil, wrapErr(ReadFailed, err)
		}

		if len(reply.Value) == 0 {
			xproto.DeleteProperty(x.conn, x.window, prop)
			break
		}
		buf.Write(reply.Value)
		xproto.DeleteProperty(x.conn, x.window, prop)
		deadline = time.Now().Add(5 * time.Second)
	}

	if buf.Len() == 0 {
		return nil, NoData
	}
	return newClipboardData(Default, format, buf.Bytes())
}

func (x *x11Backend) fetchTargets(board Board) ([]xproto.Atom, error) {
	sel, err := x.selectionAtom(board)
	if err != nil {
		return nil, err
	}

	if err := xproto.DeletePropertyChecked(x.conn, x.window, x.atoms.xclipOut).Check(); err != nil {
		return nil, wrapErr(ReadFailed, err)
	}
	if err := xproto.ConvertSelectionChecked(x.conn, x.window, sel, x.atoms.targets, x.atoms.xclipOut, xproto.TimeCurrentTime).Check(); err != nil {
		return nil, wrapErr(ReadFailed, err)
	}

	notify, err := x.waitSelectionNotify(time.Now().Add(time.Second))
	if err != nil {
		return nil, err
	}
	if notify.Property == xproto.AtomNone {
		return nil, NoData
	}

	reply, err := xproto.GetProperty(x.conn, true, x.window, notify.Property, xproto.AtomAtom, 0, (1<<31)-1).Reply()
	if err != nil {
		return nil, wrapErr(ReadFailed, err)
	}

	atoms := make([]xproto.Atom, 0, len(reply.Value)/4)
	for n := 0; n+4 <= len(reply.Value); n += 4 {
		atoms = append(atoms, xproto.Atom(xgb.Get32(reply.Value[n:])))
	}
	return atoms, nil
}

func targetPreferenceFor(f Format) []string {
	switch f {
	case Text:
		return textReadTargetPreference
	case Image:
		return imageReadTargetPreference
	case HTML:
		return []string{"text/html"}
	case RTF:
		return []string{"application/rtf"}
	default:
		return nil
	}
}

func (x *x11Backend) read(ctx context.Context, board Board, format Format) (*ClipboardData, error) {
	if board != Default && board != PrimarySelection {
		return nil, ErrNoBoard
	}

	x.mu.Lock()
	if len(x.ownPayload) > 0 && x.ownFormat == format && board == Default {
		payload := append([]byte(nil), x.ownPayload...)
		x.mu.Unlock()
		return newClipboardData(board, format, payload)
	}
	x.mu.Unlock()

	target, ok := x.atomForMime(format.Mime())
	if !ok {
		return nil, ErrFormatUnavailable
	}
	return x.readTarget(ctx, board, target, format)
}

func (x *x11Backend) readAuto(ctx context.Context, board Board) (*ClipboardData, error) {
	atoms, err := x.fetchTargets(board)
	if err != nil {
		return nil, err
	}
	set := make(map[xproto.Atom]bool, len(atoms))
	for _, a := range atoms {
		set[a] = true
	}

	for _, f := range formatPriorityX11 {
		for _, mime := range targetPreferenceFor(f) {
			if atom, ok := x.atomForMime(mime); ok && set[atom] {
				return x.readTarget(ctx, board, atom, f)
			}
		}
	}
	return nil, NoData
}

func (x *x11Backend) paste(ctx context.Context, board Board, formats ...Format) (Data, error) {
	if len(formats) == 0 {
		return x.readAuto(ctx, board)
	}
	var lastErr error
	for _, f := range formats {
		d, err := x.read(ctx, board, f)
		if err == nil {
			return d, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (x *x11Backend) info(ctx context.Context, board Board) (Data, error) {
	return x.paste(ctx, board)
}

func (x *x11Backend) copy(ctx context.Context, board Board, values ...interface{}) error {
	return copyValues(ctx, board, x.write, values...)
}

// write takes ownership of the selection by setting it on our own window
// (so SetSelectionOwner/GetSelectionOwner resolve immediately) and then
// hands off to a detached re-exec'd process that actually answers
// SelectionRequest events: see persist_linux.go.
func (x *x11Backend) write(ctx context.Context, board Board, data []byte, format Format) error {
	if board != Default && board != PrimarySelection {
		return ErrNoBoard
	}
	if len(data) == 0 {
		return NoData
	}
	if _, ok := x.atomForMime(format.Mime()); !ok {
		return ErrFormatUnavailable
	}

	payload := append([]byte(nil), data...)

	sel, _ := x.selectionAtom(board)
	if err := xproto.SetSelectionOwnerChecked(x.conn, x.window, sel, xproto.TimeCurrentTime).Check(); err != nil {
		return wrapErr(WriteFailed, err)
	}
	owner, err := xproto.GetSelectionOwner(x.conn, sel).Reply()
	if err != nil || owner.Owner != x.window {
		return wrapErr(WriteFailed, fmt.Errorf("goclip: [x11] did not become selection owner"))
	}

	x.mu.Lock()
	x.ownPayload = payload
	x.ownFormat = format
	x.mu.Unlock()

	if err := spawnOwnerProcess(x11ServerFlag, writeContext{Format: format, Payload: payload, Board: board}); err != nil {
		return err
	}

	// ownership now genuinely belongs to the spawned process; forget our
	// own copy so a later read() on this backend goes through the
	// selection protocol like any other reader.
	x.mu.Lock()
	x.ownPayload = nil
	x.ownFormat = Invalid
	x.mu.Unlock()

	return nil
}

func (x *x11Backend) clear(ctx context.Context, board Board) error {
	x.mu.Lock()
	x.ownPayload = nil
	x.ownFormat = Invalid
	x.mu.Unlock()

	if err := xproto.SetSelectionOwnerChecked(x.conn, xproto.Window(0), x.atoms.clipboard, xproto.TimeCurrentTime).Check(); err != nil {
		return wrapErr(WriteFailed, err)
	}
	if err := xproto.SetSelectionOwnerChecked(x.conn, xproto.Window(0), x.atoms.primary, xproto.TimeCurrentTime).Check(); err != nil {
		return wrapErr(WriteFailed, err)
	}
	return nil
}

func (x *x11Backend) availableFormats(ctx context.Context, board Board) (map[Format]struct{}, error) {
	atoms, err := x.fetchTargets(board)
	if err != nil {
		if err == NoData {
			return map[Format]struct{}{}, nil
		}
		return nil, err
	}
	out := map[Format]struct{}{}
	for _, a := range atoms {
		if f := x.formatFromAtom(a); f != Invalid {
			out[f] = struct{}{}
		}
	}
	return out, nil
}

// X11 has no server-pushed change-notification construct comparable to
// Wayland's data_device.selection event; a monitor would have to poll
// GetSelectionOwner, which is out of scope for this backend.
func (x *x11Backend) startWaylandMonitor() (*Monitor, error) {
	return nil, wrapErr(UnsupportedPlatform, fmt.Errorf("goclip: [x11] no Wayland backend active"))
}
func (x *x11Backend) monitor(mon *Monitor) error {
	return wrapErr(UnsupportedPlatform, fmt.Errorf("goclip: [x11] change monitor is Wayland-only"))
}
func (x *x11Backend) unmonitor(mon *Monitor) error { return nil }
func (x *x11Backend) poll(mon *Monitor) error      { return nil }

// --- background owner process (server loop, child side) ---

func runX11ServerChild() {
	wc, err := receiveOwnerPayload()
	if err != nil {
		log.Printf("goclip: [x11] owner child: %v", err)
		return
	}

	x, err := newX11Backend("")
	if err != nil {
		log.Printf("goclip: [x11] owner child init failed: %v", err)
		return
	}

	sel, err := x.selectionAtom(wc.Board)
	if err != nil {
		return
	}
	if err := xproto.SetSelectionOwnerChecked(x.conn, x.window, sel, xproto.TimeCurrentTime).Check(); err != nil {
		log.Printf("goclip: [x11] owner child could not claim selection: %v", err)
		return
	}

	x.mu.Lock()
	x.ownPayload = wc.Payload
	x.ownFormat = wc.Format
	x.mu.Unlock()

	x.serverLoop(sel)
}

// serverLoop answers SelectionRequest/SelectionClear/PropertyNotify
// events for as long as we remain the selection owner.
func (x *x11Backend) serverLoop(sel xproto.Atom) {
	requestors := map[[2]uint32]*incrRequestor{}

	for {
		ev, err := x.conn.WaitForEvent()
		if err != nil {
			return
		}
		switch e := ev.(type) {
		case xproto.SelectionClearEvent:
			if e.Selection == sel {
				return
			}
		case xproto.SelectionRequestEvent:
			x.handleSelectionRequest(e, requestors)
		case xproto.PropertyNotifyEvent:
			if e.State == xproto.PropertyDelete {
				x.handlePropertyDelete(e, requestors)
			}
		}
	}
}

func (x *x11Backend) supportedTargets() []xproto.Atom {
	targets := []xproto.Atom{x.atoms.targets, x.atoms.byMime["UTF8_STRING"], x.atoms.byMime["STRING"],
		x.atoms.byMime["TEXT"], x.atoms.byMime["text/plain"]}
	if x.ownFormat != Text {
		if atom, ok := x.atomForMime(x.ownFormat.Mime()); ok {
			targets = append(targets, atom)
		}
	}
	return targets
}

func (x *x11Backend) targetMatchesOwnFormat(target xproto.Atom) bool {
	if x.ownFormat == Text {
		for _, mime := range textWriteMimes {
			if a, ok := x.atomForMime(mime); ok && a == target {
				return true
			}
		}
		return false
	}
	a, ok := x.atomForMime(x.ownFormat.Mime())
	return ok && a == target
}

func (x *x11Backend) handleSelectionRequest(e xproto.SelectionRequestEvent, requestors map[[2]uint32]*incrRequestor) {
	property := e.Property
	if property == xproto.AtomNone {
		property = e.Target
	}

	notify := xproto.SelectionNotifyEvent{
		Time: e.Time, Requestor: e.Requestor, Selection: e.Selection, Target: e.Target, Property: property,
	}

	switch {
	case e.Target == x.atoms.targets:
		targets := x.supportedTargets()
		buf := make([]byte, len(targets)*4)
		for n, a := range targets {
			xgb.Put32(buf[n*4:], uint32(a))
		}
		xproto.ChangeProperty(x.conn, xproto.PropModeReplace, e.Requestor, property, xproto.AtomAtom, 32, uint32(len(targets)), buf)

	default:
		x.mu.Lock()
		payload := x.ownPayload
		x.mu.Unlock()

		if len(payload) == 0 || !x.targetMatchesOwnFormat(e.Target) {
			notify.Property = xproto.AtomNone
			break
		}

		if uint32(len(payload)) <= x.chunkSize {
			xproto.ChangeProperty(x.conn, xproto.PropModeReplace, e.Requestor, property, e.Target, 8, uint32(len(payload)), payload)
		} else {
			total := make([]byte, 4)
			xgb.Put32(total, uint32(len(payload)))
			xproto.ChangeProperty(x.conn, xproto.PropModeReplace, e.Requestor, property, x.atoms.incr, 32, 1, total)
			xproto.ChangeWindowAttributes(x.conn, e.Requestor, xproto.CwEventMask, []uint32{uint32(xproto.EventMaskPropertyChange)})
			requestors[[2]uint32{uint32(e.Requestor), uint32(property)}] = &incrRequestor{
				window: e.Requestor, property: property, typeAtom: e.Target,
			}
		}
	}

	xproto.SendEvent(x.conn, false, e.Requestor, 0, string(notify.Bytes()))
}

func (x *x11Backend) handlePropertyDelete(e xproto.PropertyNotifyEvent, requestors map[[2]uint32]*incrRequestor) {
	key := [2]uint32{uint32(e.Window), uint32(e.Atom)}
	r, ok := requestors[key]
	if !ok {
		return
	}

	x.mu.Lock()
	payload := x.ownPayload
	x.mu.Unlock()

	remaining := uint32(len(payload)) - r.cursor
	n := remaining
	if n > x.chunkSize {
		n = x.chunkSize
	}
	chunk := payload[r.cursor : r.cursor+n]
	xproto.ChangeProperty(x.conn, xproto.PropModeReplace, r.window, r.property, r.typeAtom, 8, n, chunk)
	r.cursor += n

	if n == 0 {
		delete(requestors, key)
	}
}
