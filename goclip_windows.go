//go:build windows
// +build windows

package goclip

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"time"
	"unsafe"
)

type internal struct {
	// ...
}

// Windows
// https://docs.microsoft.com/en-us/windows/win32/dataxchg/using-the-clipboard

const (
	// https://docs.microsoft.com/en-us/windows/win32/dataxchg/standard-clipboard-formats
	cfBitmap      = 2
	cfTiff        = 6
	cfUnicodeText = 13
	cfHdrop       = 15
)

var (
	// imported APIs
	user32               = syscall.MustLoadDLL("user32")
	openClipboard        = user32.MustFindProc("OpenClipboard")
	closeClipboard       = user32.MustFindProc("CloseClipboard")
	emptyClipboard       = user32.MustFindProc("EmptyClipboard")
	getClipboardData     = user32.MustFindProc("GetClipboardData")
	setClipboardData     = user32.MustFindProc("SetClipboardData")
	enumClipboardFormats = user32.MustFindProc("EnumClipboardFormats")
	shell32              = syscall.NewLazyDLL("shell32")
	dragQueryFile        = shell32.NewProc("DragQueryFileW")

	kernel32     = syscall.NewLazyDLL("kernel32")
	globalAlloc  = kernel32.NewProc("GlobalAlloc")
	globalFree   = kernel32.NewProc("GlobalFree")
	globalLock   = kernel32.NewProc("GlobalLock")
	globalUnlock = kernel32.NewProc("GlobalUnlock")
	lstrcpy      = kernel32.NewProc("lstrcpyW")
)

func doInit() *internal {
	return &internal{}
}

func (i *internal) open(ctx context.Context) error {
	var r uintptr
	var err error
	var t *time.Ticker

	for {
		r, _, err = openClipboard.Call(0)
		if r != 0 {
			return nil
		}

		if t == nil {
			t = time.NewTicker(5 * time.Millisecond)
			defer t.Stop()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return err
}

func (i *internal) copy(ctx context.Context, board Board, values ...interface{}) error {
	if board != Default {
		return ErrNoBoard
	}

	if err := i.open(ctx); err != nil {
		return err
	}
	defer closeClipboard.Call()

	r, _, _ := emptyClipboard.Call()
	if r == 0 {
		return errors.New("failed to empty clipboard")
	}

	d, err := spawnValue(values...)
	if err != nil {
		return err
	}
	opts, err := d.GetAllFormats()
	if err != nil {
		return err
	}
	for _, opt := range opts {
		if opt.Type() == Text {
			data, err := opt.Data(ctx)
			if err != nil {
				return err
			}
			return i.setText(string(data))
		}
	}

	return ErrFormatUnavailable
}

// setText requires the clipboard to already be open and empty.
func (i *internal) setText(s string) error {
	text16, err := syscall.UTF16FromString(s)
	if err != nil {
		return err
	}

	hMem, _, _ := globalAlloc.Call(0x0002 /* GMEM_MOVEABLE */, uintptr(len(text16)*2))
	if hMem == 0 {
		return errors.New("failed to allocate global memory")
	}

	lpData, _, _ := globalLock.Call(hMem)
	if lpData == 0 {
		globalFree.Call(hMem)
		return errors.New("failed to lock global memory")
	}

	for n := 0; n < len(text16); n++ {
		*(*uint16)(unsafe.Pointer(lpData + uintptr(n*2))) = text16[n]
	}

	globalUnlock.Call(hMem)

	h, _, _ := setClipboardData.Call(cfUnicodeText, hMem)
	if h == 0 {
		globalFree.Call(hMem)
		return errors.New("failed to set clipboard data")
	}

	return nil
}

func (i *internal) clear(ctx context.Context, board Board) error {
	if board != Default {
		return ErrNoBoard
	}
	if err := i.open(ctx); err != nil {
		return err
	}
	defer closeClipboard.Call()

	emptyClipboard.Call()
	return nil
}

func (i *internal) formats() []uint32 {
	// note: requires clipboard to be already open
	var res []uint32
	var format uintptr
	var err error

	for {
		format, _, err = enumClipboardFormats.Call(format)
		if format == 0 || err != nil {
			break
		}
		res = append(res, uint32(format))
	}
	return res
}

func cfFormatToGoclip(f uint32) Format {
	switch f {
	case cfUnicodeText:
		return Text
	case cfBitmap, cfTiff:
		return Image
	case cfHdrop:
		return FileList
	default:
		return Invalid
	}
}

func (i *internal) paste(ctx context.Context, board Board, formats ...Format) (Data, error) {
	if board != Default {
		return nil, ErrNoBoard
	}

	if err := i.open(ctx); err != nil {
		return nil, err
	}
	defer closeClipboard.Call()

	available := i.formats()

	data := &StaticData{
		TargetBoard: board,
	}

	for _, format := range available {
		if format == cfUnicodeText {
			h, _, _ := getClipboardData.Call(uintptr(format))
			if h != 0 {
				lpData, _, _ := globalLock.Call(h)
				if lpData != 0 {
					stringData := make([]uint16, 0, 1024)
					for n := 0; ; n++ {
						char := *(*uint16)(unsafe.Pointer(lpData + uintptr(n*2)))
						if char == 0 {
							break
						}
						stringData = append(stringData, char)
					}
					globalUnlock.Call(h)

					data.Options = append(data.Options, &StaticDataOption{
						StaticType: "text/plain",
						StaticData: []byte(syscall.UTF16ToString(stringData)),
					})
					break
				}
			}
		}
	}

	if len(data.Options) > 0 {
		return data, nil
	}

	return nil, ErrNoData
}

// read fetches the clipboard and returns format if it is the one offered.
// The win32 text path is the only one wired up; other formats report
// UnsupportedPlatform.
func (i *internal) read(ctx context.Context, board Board, format Format) (*ClipboardData, error) {
	if format != Text {
		return nil, wrapErr(UnsupportedPlatform, fmt.Errorf("goclip: windows backend cannot read format %s", format))
	}
	d, err := i.paste(ctx, board, Text)
	if err != nil {
		return nil, err
	}
	text, err := d.ToText(ctx)
	if err != nil {
		return nil, err
	}
	return newClipboardData(board, Text, []byte(text))
}

func (i *internal) write(ctx context.Context, board Board, data []byte, format Format) error {
	if format != Text {
		return wrapErr(UnsupportedPlatform, fmt.Errorf("goclip: windows backend cannot write format %s", format))
	}
	return i.copy(ctx, board, string(data))
}

func (i *internal) availableFormats(ctx context.Context, board Board) (map[Format]struct{}, error) {
	if board != Default {
		return nil, ErrNoBoard
	}
	if err := i.open(ctx); err != nil {
		return nil, err
	}
	defer closeClipboard.Call()

	out := map[Format]struct{}{}
	for _, f := range i.formats() {
		if gf := cfFormatToGoclip(f); gf != Invalid {
			out[gf] = struct{}{}
		}
	}
	return out, nil
}

func (i *internal) readAuto(ctx context.Context, board Board) (*ClipboardData, error) {
	available, err := i.availableFormats(ctx, board)
	if err != nil {
		return nil, err
	}
	for _, f := range formatPriorityDefault {
		if _, ok := available[f]; ok {
			return i.read(ctx, board, f)
		}
	}
	return nil, ErrNoData
}

func (i *internal) startWaylandMonitor() (*Monitor, error) {
	return nil, wrapErr(UnsupportedPlatform, fmt.Errorf("goclip: no Wayland backend on windows"))
}

func (i *internal) monitor(mon *Monitor) error {
	go func() {
		var lastFormats []uint32

		for {
			if err := i.open(context.Background()); err != nil {
				time.Sleep(500 * time.Millisecond)
				continue
			}

			currentFormats := i.formats()
			closeClipboard.Call()

			changed := len(lastFormats) != len(currentFormats)
			if !changed {
				for n, f := range lastFormats {
					if currentFormats[n] != f {
						changed = true
						break
					}
				}
			}

			if changed {
				lastFormats = currentFormats

				data, err := i.paste(context.Background(), Default)
				if err == nil {
					mon.fire(data)
				}
			}

			time.Sleep(500 * time.Millisecond)
		}
	}()

	return nil
}

func (i *internal) unmonitor(mon *Monitor) error {
	// a real implementation would stop the monitoring goroutine above
	return nil
}

func (i *internal) poll(mon *Monitor) error {
	return nil
}
