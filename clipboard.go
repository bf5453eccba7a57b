// Package goclip provides cross-platform access to the system clipboard.
//
// Its value is the two Linux desktop backends: a Wayland client driving the
// zwlr_data_control_manager_v1 protocol (falling back to wl_data_device_manager
// when the compositor lacks it), and an X11 client driving the ICCCM
// selection protocol with INCR chunked transfers for large payloads. macOS
// and Windows are supported through thinner platform-native backends.
//
// The package keeps two API layers. Copy/Paste/Info are the original,
// loosely typed convenience wrappers that guess at Go values (see
// SpawnText, spawnValue). Read/Write/Clear/AvailableFormats/ReadAuto and
// StartWaylandMonitor are the precise, format-targeted operations that the
// Wayland and X11 backends implement against the four closed Format values
// Text, Image, HTML and RTF.
package goclip

import "context"

// backend is implemented once per supported OS (goclip_darwin.go,
// goclip_windows.go, and the Linux trio of dispatcher_linux.go,
// wayland_linux.go, x11_linux.go). doInit constructs the active
// implementation at package init time.
type backend interface {
	copy(ctx context.Context, board Board, values ...interface{}) error
	info(ctx context.Context, board Board) (Data, error)
	paste(ctx context.Context, board Board, formats ...Format) (Data, error)

	read(ctx context.Context, board Board, format Format) (*ClipboardData, error)
	write(ctx context.Context, board Board, data []byte, format Format) error
	clear(ctx context.Context, board Board) error
	availableFormats(ctx context.Context, board Board) (map[Format]struct{}, error)
	readAuto(ctx context.Context, board Board) (*ClipboardData, error)
	startWaylandMonitor() (*Monitor, error)

	monitor(mon *Monitor) error
	unmonitor(mon *Monitor) error
	poll(mon *Monitor) error
}

var i backend

func init() {
	i = doInit()
}

// copyValues is the shared implementation behind every backend's copy
// method: it guesses a Data value out of values the way spawnValue does,
// then writes its first resolved format through write.
func copyValues(ctx context.Context, board Board, write func(context.Context, Board, []byte, Format) error, values ...interface{}) error {
	d, err := spawnValue(values...)
	if err != nil {
		return err
	}
	opts, err := d.GetAllFormats()
	if err != nil {
		return err
	}
	if len(opts) == 0 {
		return ErrFormatUnavailable
	}
	data, err := opts[0].Data(ctx)
	if err != nil {
		return err
	}
	format := opts[0].Type()
	if format == Invalid {
		format = Text
	}
	return write(ctx, board, data, format)
}

// Copy places one or more Go values onto the default clipboard board,
// guessing their clipboard format the way spawnValue does.
func Copy(ctx context.Context, values ...interface{}) error {
	return i.copy(ctx, Default, values...)
}

// CopyBoard is Copy targeting a specific Board (only X11 supports
// PrimarySelection in addition to Default; no backend supports
// SecondarySelection).
func CopyBoard(ctx context.Context, board Board, values ...interface{}) error {
	return i.copy(ctx, board, values...)
}

// Info returns a Data view over whatever is currently on the default
// clipboard board without forcing a specific format to be fetched.
func Info(ctx context.Context) (Data, error) {
	return i.info(ctx, Default)
}

// Paste fetches the default clipboard board, preferring any of formats if
// given, or the backend's default negotiation order otherwise.
func Paste(ctx context.Context, formats ...Format) (Data, error) {
	return i.paste(ctx, Default, formats...)
}

// Read performs a single targeted read of format from the default
// clipboard board.
func Read(ctx context.Context, format Format) (*ClipboardData, error) {
	return i.read(ctx, Default, format)
}

// ReadBoard is Read against a specific Board.
func ReadBoard(ctx context.Context, board Board, format Format) (*ClipboardData, error) {
	return i.read(ctx, board, format)
}

// Write copies data onto the default clipboard board under format. data is
// copied; the caller may reuse or discard its buffer immediately on return.
func Write(ctx context.Context, data []byte, format Format) error {
	return i.write(ctx, Default, data, format)
}

// WriteBoard is Write against a specific Board.
func WriteBoard(ctx context.Context, board Board, data []byte, format Format) error {
	return i.write(ctx, board, data, format)
}

// Clear releases ownership of the default clipboard board (and, on X11,
// PRIMARY alongside it).
func Clear(ctx context.Context) error {
	return i.clear(ctx, Default)
}

// ClearBoard is Clear against a specific Board.
func ClearBoard(ctx context.Context, board Board) error {
	return i.clear(ctx, board)
}

// AvailableFormats returns the deduplicated set of formats recognized from
// the current offer on the default clipboard board.
func AvailableFormats(ctx context.Context) (map[Format]struct{}, error) {
	return i.availableFormats(ctx, Default)
}

// ReadAuto negotiates the best available format on the default clipboard
// board using each backend's format priority order.
func ReadAuto(ctx context.Context) (*ClipboardData, error) {
	return i.readAuto(ctx, Default)
}

// StartWaylandMonitor starts the Wayland change-monitor. It returns
// UnsupportedPlatform on any non-Wayland backend.
func StartWaylandMonitor() (*Monitor, error) {
	return i.startWaylandMonitor()
}
