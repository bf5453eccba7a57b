package goclip

import (
	"context"
	"log"
	"os"
)

// internal is the Linux platform dispatcher. It owns whichever backend was
// selected at package init time by the session-detection rules below and
// forwards every operation to it unchanged. The two backends
// (wayland_linux.go, x11_linux.go) each implement the full backend
// interface independently; internal never inspects which one is active
// beyond logging.
type internal struct {
	active linuxBackend
}

// linuxBackend is the same contract as backend, restated here so the two
// Linux implementation files don't need to import clipboard.go's doc
// comment to find it.
type linuxBackend = backend

// unsupportedBackend answers every operation with the same error, except
// unmonitor and poll, which are no-ops returning nil. It is
// the active backend when neither a Wayland nor an X11 session could be
// reached, so the package degrades to a clear error instead of a nil
// pointer dereference.
type unsupportedBackend struct{ err error }

func (u unsupportedBackend) copy(ctx context.Context, board Board, values ...interface{}) error {
	return u.err
}
func (u unsupportedBackend) info(ctx context.Context, board Board) (Data, error) { return nil, u.err }
func (u unsupportedBackend) paste(ctx context.Context, board Board, formats ...Format) (Data, error) {
	return nil, u.err
}
func (u unsupportedBackend) read(ctx context.Context, board Board, format Format) (*ClipboardData, error) {
	return nil, u.err
}
func (u unsupportedBackend) write(ctx context.Context, board Board, data []byte, format Format) error {
	return u.err
}
func (u unsupportedBackend) clear(ctx context.Context, board Board) error { return u.err }
func (u unsupportedBackend) availableFormats(ctx context.Context, board Board) (map[Format]struct{}, error) {
	return nil, u.err
}
func (u unsupportedBackend) readAuto(ctx context.Context, board Board) (*ClipboardData, error) {
	return nil, u.err
}
func (u unsupportedBackend) startWaylandMonitor() (*Monitor, error) { return nil, u.err }
func (u unsupportedBackend) monitor(mon *Monitor) error              { return u.err }
func (u unsupportedBackend) unmonitor(mon *Monitor) error            { return nil }
func (u unsupportedBackend) poll(mon *Monitor) error                 { return nil }

// doInit implements the platform detection rules: XDG_SESSION_TYPE wins
// when set ("wayland" or "x11"); otherwise DISPLAY being set implies X11.
// A Wayland session whose compositor lacks both data-control protocols
// falls back to X11 when DISPLAY is also set, rather than failing outright.
func doInit() *internal {
	session := os.Getenv("XDG_SESSION_TYPE")
	display := os.Getenv("DISPLAY")

	switch {
	case session == "wayland":
		if wl, err := newWaylandBackend(); err == nil {
			log.Printf("goclip: [linux] using Wayland backend")
			return &internal{active: wl}
		} else if display != "" {
			log.Printf("goclip: [linux] Wayland init failed (%v), falling back to X11", err)
			return fromX11(display)
		} else {
			return &internal{active: unsupportedBackend{err: wrapErr(UnsupportedPlatform, os.ErrInvalid)}}
		}

	case session == "x11":
		return fromX11(display)

	default:
		if display != "" {
			return fromX11(display)
		}
		return &internal{active: unsupportedBackend{err: wrapErr(UnsupportedPlatform, os.ErrInvalid)}}
	}
}

func fromX11(display string) *internal {
	x, err := newX11Backend(display)
	if err != nil {
		log.Printf("goclip: [linux] X11 init failed: %v", err)
		return &internal{active: unsupportedBackend{err: wrapErr(InitializationFailed, err)}}
	}
	log.Printf("goclip: [linux] using X11 backend")
	return &internal{active: x}
}

func (i *internal) copy(ctx context.Context, board Board, values ...interface{}) error {
	return i.active.copy(ctx, board, values...)
}

func (i *internal) info(ctx context.Context, board Board) (Data, error) {
	return i.active.info(ctx, board)
}

func (i *internal) paste(ctx context.Context, board Board, formats ...Format) (Data, error) {
	return i.active.paste(ctx, board, formats...)
}

func (i *internal) read(ctx context.Context, board Board, format Format) (*ClipboardData, error) {
	return i.active.read(ctx, board, format)
}

func (i *internal) write(ctx context.Context, board Board, data []byte, format Format) error {
	return i.active.write(ctx, board, data, format)
}

func (i *internal) clear(ctx context.Context, board Board) error {
	return i.active.clear(ctx, board)
}

func (i *internal) availableFormats(ctx context.Context, board Board) (map[Format]struct{}, error) {
	return i.active.availableFormats(ctx, board)
}

func (i *internal) readAuto(ctx context.Context, board Board) (*ClipboardData, error) {
	return i.active.readAuto(ctx, board)
}

func (i *internal) startWaylandMonitor() (*Monitor, error) {
	return i.active.startWaylandMonitor()
}

func (i *internal) monitor(mon *Monitor) error   { return i.active.monitor(mon) }
func (i *internal) unmonitor(mon *Monitor) error { return i.active.unmonitor(mon) }
func (i *internal) poll(mon *Monitor) error      { return i.active.poll(mon) }
