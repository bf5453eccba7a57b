package goclip

// https://developer.apple.com/documentation/appkit/nspasteboard

/*
#include <goclip_darwin.h>

#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa
*/
import "C"
import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/image/tiff"
)

type internal struct {
	sub      *C.ClipboardInternal
	mon      []*Monitor
	startMon sync.Once
	pollch   chan struct{}
}

// macOSClipboard is the Data view over whatever performRead last fetched
// from the general pasteboard. macOS exposes only the Default board.
type macOSClipboard struct {
	i        *internal
	dataType Format
	data     []byte
}

func (cb *macOSClipboard) Board() Board {
	return Default
}

func (cb *macOSClipboard) ToText(ctx context.Context) (string, error) {
	if cb.dataType == Invalid {
		if err := cb.performRead(Text); err != nil {
			return "", err
		}
	}
	if cb.dataType != Text {
		return "", ErrDataNotString
	}
	return string(cb.data), nil
}

func (cb *macOSClipboard) ToImage(ctx context.Context) (image.Image, error) {
	if cb.dataType == Invalid {
		if err := cb.performRead(Image); err != nil {
			return nil, err
		}
	}
	if cb.dataType != Image {
		return nil, ErrDataNotImage
	}
	img, err := png.Decode(bytes.NewReader(cb.data))
	if err != nil {
		return nil, wrapErr(ReadFailed, err)
	}
	return img, nil
}

func (cb *macOSClipboard) FileList() ([]string, error) {
	if cb.dataType == Invalid {
		if err := cb.performRead(FileList); err != nil {
			return nil, err
		}
	}
	if cb.dataType != FileList && cb.dataType != Text {
		return nil, ErrDataNotFileList
	}
	return parseURIList(cb.data), nil
}

func (cb *macOSClipboard) HasFormat(mime string) bool {
	return formatFromMime(mime) == cb.dataType
}

func (cb *macOSClipboard) GetFormat(ctx context.Context, mime string) ([]byte, error) {
	if !cb.HasFormat(mime) {
		return nil, os.ErrNotExist
	}
	out := make([]byte, len(cb.data))
	copy(out, cb.data)
	return out, nil
}

func (cb *macOSClipboard) GetAllFormats() ([]DataOption, error) {
	if cb.dataType == Invalid {
		return nil, nil
	}
	return []DataOption{&StaticDataOption{StaticType: cb.dataType.Mime(), StaticData: cb.data}}, nil
}

func (cb *macOSClipboard) Type() Format {
	return cb.dataType
}

// performRead asks the pasteboard for the first of types it currently
// offers. The Cocoa side (goclip_darwin.h) only reports back the single
// type it resolved to, not the full offer set.
func (cb *macOSClipboard) performRead(types ...Format) error {
	filter := &C.ClipboardTypeFilter{}
	for _, f := range types {
		switch f {
		case Text:
			filter.text = true
		case Image:
			filter.image = true
		case FileList:
			filter.files = true
		}
	}

	C.readClipboard(cb.i.sub, filter)

	return cb.processRead()
}

// processRead handles data that was freshly read from the clipboard.
func (cb *macOSClipboard) processRead() error {
	dataType := Format(cb.i.sub.cbi.typeInt)
	if dataType <= Invalid || dataType > FileList {
		return fmt.Errorf("goclip: could not find clipboard Format for %d", dataType)
	}

	dataLength := C.int(cb.i.sub.cb.dataLength)
	dataBytes := C.GoBytes(unsafe.Pointer(cb.i.sub.cb.data), dataLength)

	if dataType == Image && cb.i.sub.cbi.formatTypeInt == C.CLIPBOARD_FORMAT_IMAGE_TIFF {
		img, err := tiff.Decode(bytes.NewReader(dataBytes))
		if err != nil {
			return ErrTiffImageDecode
		}
		buf := new(bytes.Buffer)
		png.Encode(buf, img)
		cb.i.sub.cbi.formatTypeInt = C.CLIPBOARD_FORMAT_IMAGE_PNG
		dataBytes = buf.Bytes()
	}

	if len(dataBytes) == 0 {
		return NoData
	}

	cb.dataType = dataType
	cb.data = dataBytes
	return nil
}

func doInit() *internal {
	log.Printf("goclip: [darwin] opening general pasteboard")
	sub := C.cocoaPbFactory()
	return &internal{sub: sub, pollch: make(chan struct{})}
}

func (i *internal) copy(ctx context.Context, board Board, values ...interface{}) error {
	if board != Default {
		return ErrNoBoard
	}
	return copyValues(ctx, board, i.write, values...)
}

func (i *internal) info(ctx context.Context, board Board) (Data, error) {
	if board != Default {
		return nil, ErrNoBoard
	}

	C.readInformation(i.sub)

	return i.spawnData(), nil
}

func (i *internal) paste(ctx context.Context, board Board, formats ...Format) (Data, error) {
	if board != Default {
		return nil, ErrNoBoard
	}
	if len(formats) == 0 {
		formats = formatPriorityDefault
	}

	res := i.spawnData()
	return res, res.performRead(formats...)
}

// read is the format-targeted equivalent of paste: it returns the owned
// ClipboardData value rather than a live Data view over the pasteboard.
func (i *internal) read(ctx context.Context, board Board, format Format) (*ClipboardData, error) {
	if board != Default {
		return nil, ErrNoBoard
	}
	cb := i.spawnData()
	if err := cb.performRead(format); err != nil {
		return nil, err
	}
	if cb.dataType != format {
		return nil, ErrFormatUnavailable
	}
	return newClipboardData(Default, cb.dataType, cb.data)
}

// write only supports Text: the Cocoa shim (goclip_darwin.h) exposes no
// image/html/rtf write path.
func (i *internal) write(ctx context.Context, board Board, data []byte, format Format) error {
	if board != Default {
		return ErrNoBoard
	}
	if format != Text {
		return wrapErr(UnsupportedPlatform, fmt.Errorf("goclip: darwin backend cannot write format %s", format))
	}
	C.pasteWriteAddText(C.CString(string(data)), C.int(len(data)))
	C.pasteWrite(i.sub)
	return nil
}

func (i *internal) clear(ctx context.Context, board Board) error {
	if board != Default {
		return ErrNoBoard
	}
	C.pasteWriteAddText(C.CString(""), C.int(0))
	C.pasteWrite(i.sub)
	return nil
}

// availableFormats is limited to the single type the Cocoa shim resolves a
// read to; it cannot enumerate the pasteboard's full offer set.
func (i *internal) availableFormats(ctx context.Context, board Board) (map[Format]struct{}, error) {
	if board != Default {
		return nil, ErrNoBoard
	}
	cb := i.spawnData()
	if err := cb.performRead(Text, Image, FileList); err != nil {
		if err == NoData {
			return map[Format]struct{}{}, nil
		}
		return nil, err
	}
	return map[Format]struct{}{cb.dataType: {}}, nil
}

func (i *internal) readAuto(ctx context.Context, board Board) (*ClipboardData, error) {
	if board != Default {
		return nil, ErrNoBoard
	}
	cb := i.spawnData()
	if err := cb.performRead(formatPriorityDefault...); err != nil {
		return nil, err
	}
	return newClipboardData(Default, cb.dataType, cb.data)
}

func (i *internal) startWaylandMonitor() (*Monitor, error) {
	return nil, wrapErr(UnsupportedPlatform, fmt.Errorf("goclip: no Wayland backend on darwin"))
}

func (i *internal) runMonitor() {
	go func() {
		var pos int
		for range i.pollch {
			if i.sub == nil {
				return
			}
			v := int(C.cocoaPbChangeCount(i.sub))
			if v != pos {
				pos = v
				i.triggerData(i.spawnData())
			}
		}
	}()
}

func (i *internal) monitor(mon *Monitor) error {
	i.startMon.Do(i.runMonitor)
	i.mon = append(i.mon, mon)
	return nil
}

func (i *internal) unmonitor(mon *Monitor) error {
	for n, v := range i.mon {
		if v == mon {
			i.mon = append(i.mon[:n], i.mon[n+1:]...)
			return nil
		}
	}
	return os.ErrNotExist
}

func (i *internal) triggerData(data Data) {
	for _, m := range i.mon {
		m.fire(data)
	}
}

func (i *internal) spawnData() *macOSClipboard {
	return &macOSClipboard{i: i}
}

func (i *internal) poll(m *Monitor) error {
	select {
	case i.pollch <- struct{}{}:
	default:
	}
	return nil
}
