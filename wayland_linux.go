package goclip

// Wayland clipboard access through zwlr_data_control_manager_v1
// (https://wayland.app/protocols/wlr-data-control-unstable-v1), the
// wlroots clipboard-access-without-a-surface protocol, falling back to
// the core wl_data_device_manager when a compositor doesn't implement it.
// zwlr_data_control_* has no generated client stubs in libwayland-client,
// so its wl_interface/wl_message tables are hand-rolled below in the same
// style used for other non-core protocol extensions.

/*
#cgo pkg-config: wayland-client
#cgo CFLAGS: -D_GNU_SOURCE

#include <stdlib.h>
#include <string.h>
#include <wayland-client.h>

struct zwlr_data_control_manager_v1;
struct zwlr_data_control_device_v1;
struct zwlr_data_control_source_v1;
struct zwlr_data_control_offer_v1;

static const struct wl_interface zwlr_data_control_manager_v1_interface;
static const struct wl_interface zwlr_data_control_device_v1_interface;
static const struct wl_interface zwlr_data_control_source_v1_interface;
static const struct wl_interface zwlr_data_control_offer_v1_interface;

static const struct wl_interface *manager_create_source_types[] = { &zwlr_data_control_source_v1_interface };
static const struct wl_interface *manager_get_device_types[] = { &zwlr_data_control_device_v1_interface, NULL };

static const struct wl_message zwlr_data_control_manager_v1_requests[] = {
	{ "create_data_source", "n", manager_create_source_types },
	{ "get_data_device", "no", manager_get_device_types },
	{ "destroy", "", NULL },
};

static const struct wl_interface zwlr_data_control_manager_v1_interface = {
	"zwlr_data_control_manager_v1", 2, 3, zwlr_data_control_manager_v1_requests, 0, NULL,
};

static const struct wl_interface *device_data_offer_types[] = { &zwlr_data_control_offer_v1_interface };
static const struct wl_interface *device_set_selection_types[] = { &zwlr_data_control_source_v1_interface };
static const struct wl_interface *device_selection_types[] = { &zwlr_data_control_offer_v1_interface };
static const struct wl_interface *device_set_primary_types[] = { &zwlr_data_control_source_v1_interface };
static const struct wl_interface *device_primary_selection_types[] = { &zwlr_data_control_offer_v1_interface };

static const struct wl_message zwlr_data_control_device_v1_requests[] = {
	{ "set_selection", "?o", device_set_selection_types },
	{ "destroy", "", NULL },
	{ "set_primary_selection", "?o", device_set_primary_types },
};

static const struct wl_message zwlr_data_control_device_v1_events[] = {
	{ "data_offer", "n", device_data_offer_types },
	{ "selection", "?o", device_selection_types },
	{ "finished", "", NULL },
	{ "primary_selection", "?o", device_primary_selection_types },
};

static const struct wl_interface zwlr_data_control_device_v1_interface = {
	"zwlr_data_control_device_v1", 2, 3, zwlr_data_control_device_v1_requests, 4, zwlr_data_control_device_v1_events,
};

static const struct wl_message zwlr_data_control_source_v1_requests[] = {
	{ "offer", "s", NULL },
	{ "destroy", "", NULL },
};

static const struct wl_message zwlr_data_control_source_v1_events[] = {
	{ "send", "sh", NULL },
	{ "cancelled", "", NULL },
};

static const struct wl_interface zwlr_data_control_source_v1_interface = {
	"zwlr_data_control_source_v1", 2, 2, zwlr_data_control_source_v1_requests, 2, zwlr_data_control_source_v1_events,
};

static const struct wl_message zwlr_data_control_offer_v1_requests[] = {
	{ "receive", "sh", NULL },
	{ "destroy", "", NULL },
};

static const struct wl_message zwlr_data_control_offer_v1_events[] = {
	{ "offer", "s", NULL },
};

static const struct wl_interface zwlr_data_control_offer_v1_interface = {
	"zwlr_data_control_offer_v1", 2, 2, zwlr_data_control_offer_v1_requests, 1, zwlr_data_control_offer_v1_events,
};

#define MANAGER_CREATE_DATA_SOURCE 0
#define MANAGER_GET_DATA_DEVICE 1
#define DEVICE_SET_SELECTION 0
#define SOURCE_OFFER 0
#define OFFER_RECEIVE 0
#define OFFER_DESTROY 1

extern void goRegistryGlobal(void *data, uint32_t name, char *iface, uint32_t version);
extern void goDeviceDataOffer(void *data, void *offer);
extern void goDeviceSelection(void *data, void *offer);
extern void goDeviceFinished(void *data);
extern void goOfferMime(void *data, void *offer, char *mime);
extern void goSourceSend(void *data, char *mime, int fd);
extern void goSourceCancelled(void *data);

static void registry_global_cb(void *data, struct wl_registry *registry, uint32_t name, const char *iface, uint32_t version) {
	goRegistryGlobal(data, name, (char *)iface, version);
}
static void registry_global_remove_cb(void *data, struct wl_registry *registry, uint32_t name) {}
static const struct wl_registry_listener registry_listener = {
	.global = registry_global_cb,
	.global_remove = registry_global_remove_cb,
};

static void wlr_device_data_offer_cb(void *data, struct zwlr_data_control_device_v1 *device, struct zwlr_data_control_offer_v1 *offer) {
	goDeviceDataOffer(data, offer);
}
static void wlr_device_selection_cb(void *data, struct zwlr_data_control_device_v1 *device, struct zwlr_data_control_offer_v1 *offer) {
	goDeviceSelection(data, offer);
}
static void wlr_device_finished_cb(void *data, struct zwlr_data_control_device_v1 *device) {
	goDeviceFinished(data);
}
static void wlr_device_primary_selection_cb(void *data, struct zwlr_data_control_device_v1 *device, struct zwlr_data_control_offer_v1 *offer) {}
struct wlr_device_listener_go {
	void (*data_offer)(void *, struct zwlr_data_control_device_v1 *, struct zwlr_data_control_offer_v1 *);
	void (*selection)(void *, struct zwlr_data_control_device_v1 *, struct zwlr_data_control_offer_v1 *);
	void (*finished)(void *, struct zwlr_data_control_device_v1 *);
	void (*primary_selection)(void *, struct zwlr_data_control_device_v1 *, struct zwlr_data_control_offer_v1 *);
};
static const struct wlr_device_listener_go wlr_device_listener = {
	.data_offer = wlr_device_data_offer_cb,
	.selection = wlr_device_selection_cb,
	.finished = wlr_device_finished_cb,
	.primary_selection = wlr_device_primary_selection_cb,
};

static void wlr_offer_offer_cb(void *data, struct zwlr_data_control_offer_v1 *offer, const char *mime_type) {
	goOfferMime(data, offer, (char *)mime_type);
}
struct wlr_offer_listener_go {
	void (*offer)(void *, struct zwlr_data_control_offer_v1 *, const char *);
};
static const struct wlr_offer_listener_go wlr_offer_listener = {
	.offer = wlr_offer_offer_cb,
};

static void wlr_source_send_cb(void *data, struct zwlr_data_control_source_v1 *source, const char *mime_type, int32_t fd) {
	goSourceSend(data, (char *)mime_type, fd);
}
static void wlr_source_cancelled_cb(void *data, struct zwlr_data_control_source_v1 *source) {
	goSourceCancelled(data);
}
struct wlr_source_listener_go {
	void (*send)(void *, struct zwlr_data_control_source_v1 *, const char *, int32_t);
	void (*cancelled)(void *, struct zwlr_data_control_source_v1 *);
};
static const struct wlr_source_listener_go wlr_source_listener = {
	.send = wlr_source_send_cb,
	.cancelled = wlr_source_cancelled_cb,
};

static void std_device_data_offer_cb(void *data, struct wl_data_device *dev, struct wl_data_offer *offer) {
	goDeviceDataOffer(data, offer);
}
static void std_device_selection_cb(void *data, struct wl_data_device *dev, struct wl_data_offer *offer) {
	goDeviceSelection(data, offer);
}
static void std_device_enter_cb(void *data, struct wl_data_device *dev, uint32_t serial, struct wl_surface *surface, wl_fixed_t x, wl_fixed_t y, struct wl_data_offer *offer) {}
static void std_device_leave_cb(void *data, struct wl_data_device *dev) {}
static void std_device_motion_cb(void *data, struct wl_data_device *dev, uint32_t time, wl_fixed_t x, wl_fixed_t y) {}
static void std_device_drop_cb(void *data, struct wl_data_device *dev) {}
static const struct wl_data_device_listener std_device_listener = {
	.data_offer = std_device_data_offer_cb,
	.selection = std_device_selection_cb,
	.enter = std_device_enter_cb,
	.leave = std_device_leave_cb,
	.motion = std_device_motion_cb,
	.drop = std_device_drop_cb,
};

static void std_offer_offer_cb(void *data, struct wl_data_offer *offer, const char *mime_type) {
	goOfferMime(data, offer, (char *)mime_type);
}
static void std_offer_source_actions_cb(void *data, struct wl_data_offer *offer, uint32_t actions) {}
static void std_offer_action_cb(void *data, struct wl_data_offer *offer, uint32_t action) {}
static const struct wl_data_offer_listener std_offer_listener = {
	.offer = std_offer_offer_cb,
	.source_actions = std_offer_source_actions_cb,
	.action = std_offer_action_cb,
};

static void std_source_target_cb(void *data, struct wl_data_source *src, const char *mime_type) {}
static void std_source_send_cb(void *data, struct wl_data_source *src, const char *mime_type, int32_t fd) {
	goSourceSend(data, (char *)mime_type, fd);
}
static void std_source_cancelled_cb(void *data, struct wl_data_source *src) {
	goSourceCancelled(data);
}
static void std_source_dnd_drop_performed_cb(void *data, struct wl_data_source *src) {}
static void std_source_dnd_finished_cb(void *data, struct wl_data_source *src) {}
static void std_source_action_cb(void *data, struct wl_data_source *src, uint32_t action) {}
static const struct wl_data_source_listener std_source_listener = {
	.target = std_source_target_cb,
	.send = std_source_send_cb,
	.cancelled = std_source_cancelled_cb,
	.dnd_drop_performed = std_source_dnd_drop_performed_cb,
	.dnd_finished = std_source_dnd_finished_cb,
	.action = std_source_action_cb,
};

static void seat_capabilities_cb(void *data, struct wl_seat *seat, uint32_t caps) {}
static void seat_name_cb(void *data, struct wl_seat *seat, const char *name) {}
static const struct wl_seat_listener seat_listener = {
	.capabilities = seat_capabilities_cb,
	.name = seat_name_cb,
};

typedef struct {
	struct wl_display *display;
	struct wl_registry *registry;
	struct wl_seat *seat;
	struct zwlr_data_control_manager_v1 *wlr_manager;
	struct wl_data_device_manager *core_manager;
} WlClipClient;

static WlClipClient *wl_clip_connect(uintptr_t id) {
	WlClipClient *c = calloc(1, sizeof(WlClipClient));
	if (!c) return NULL;
	c->display = wl_display_connect(NULL);
	if (!c->display) { free(c); return NULL; }
	c->registry = wl_display_get_registry(c->display);
	wl_registry_add_listener(c->registry, &registry_listener, (void *)id);
	wl_display_roundtrip(c->display);
	wl_display_roundtrip(c->display);
	return c;
}

static void wl_clip_bind_seat(WlClipClient *c, uint32_t name) {
	c->seat = wl_registry_bind(c->registry, name, &wl_seat_interface, 1);
	wl_seat_add_listener(c->seat, &seat_listener, NULL);
}

static void wl_clip_bind_wlr_manager(WlClipClient *c, uint32_t name, uint32_t version) {
	uint32_t bound = version < 2 ? version : 2;
	c->wlr_manager = (struct zwlr_data_control_manager_v1 *)
		wl_registry_bind(c->registry, name, &zwlr_data_control_manager_v1_interface, bound);
}

static void wl_clip_bind_core_manager(WlClipClient *c, uint32_t name, uint32_t version) {
	uint32_t bound = version < 3 ? version : 3;
	c->core_manager = wl_registry_bind(c->registry, name, &wl_data_device_manager_interface, bound);
}

static struct zwlr_data_control_device_v1 *wl_clip_get_wlr_device(WlClipClient *c, uintptr_t id) {
	struct wl_proxy *p = wl_proxy_marshal_flags((struct wl_proxy *)c->wlr_manager, MANAGER_GET_DATA_DEVICE,
		&zwlr_data_control_device_v1_interface, wl_proxy_get_version((struct wl_proxy *)c->wlr_manager), 0, NULL, c->seat);
	struct zwlr_data_control_device_v1 *dev = (struct zwlr_data_control_device_v1 *)p;
	if (dev) {
		wl_proxy_add_listener((struct wl_proxy *)dev, (void (**)(void))&wlr_device_listener, (void *)id);
	}
	return dev;
}

static struct wl_data_device *wl_clip_get_core_device(WlClipClient *c, uintptr_t id) {
	struct wl_data_device *dev = wl_data_device_manager_get_data_device(c->core_manager, c->seat);
	if (dev) {
		wl_data_device_add_listener(dev, &std_device_listener, (void *)id);
	}
	return dev;
}

static void wl_clip_wlr_offer_listen(void *offer, uintptr_t id) {
	wl_proxy_add_listener((struct wl_proxy *)offer, (void (**)(void))&wlr_offer_listener, (void *)id);
}

static void wl_clip_std_offer_listen(void *offer, uintptr_t id) {
	wl_data_offer_add_listener((struct wl_data_offer *)offer, &std_offer_listener, (void *)id);
}

static void *wl_clip_wlr_create_source(WlClipClient *c, uintptr_t id) {
	struct wl_proxy *p = wl_proxy_marshal_flags((struct wl_proxy *)c->wlr_manager, MANAGER_CREATE_DATA_SOURCE,
		&zwlr_data_control_source_v1_interface, wl_proxy_get_version((struct wl_proxy *)c->wlr_manager), 0, NULL);
	if (p) {
		wl_proxy_add_listener(p, (void (**)(void))&wlr_source_listener, (void *)id);
	}
	return p;
}

static void *wl_clip_std_create_source(WlClipClient *c, uintptr_t id) {
	struct wl_data_source *src = wl_data_device_manager_create_data_source(c->core_manager);
	if (src) {
		wl_data_source_add_listener(src, &std_source_listener, (void *)id);
	}
	return src;
}

static void wl_clip_wlr_offer_mime(void *source, const char *mime) {
	wl_proxy_marshal_flags((struct wl_proxy *)source, SOURCE_OFFER, NULL,
		wl_proxy_get_version((struct wl_proxy *)source), 0, mime);
}

static void wl_clip_std_offer_mime(void *source, const char *mime) {
	wl_data_source_offer((struct wl_data_source *)source, mime);
}

static void wl_clip_wlr_device_set_selection(void *device, void *source) {
	wl_proxy_marshal_flags((struct wl_proxy *)device, DEVICE_SET_SELECTION, NULL,
		wl_proxy_get_version((struct wl_proxy *)device), 0, source);
}

static void wl_clip_std_device_set_selection(void *device, void *source) {
	wl_data_device_set_selection((struct wl_data_device *)device, (struct wl_data_source *)source, 0);
}

static void wl_clip_wlr_offer_receive(void *offer, const char *mime, int fd) {
	wl_proxy_marshal_flags((struct wl_proxy *)offer, OFFER_RECEIVE, NULL,
		wl_proxy_get_version((struct wl_proxy *)offer), 0, mime, fd);
}

static void wl_clip_std_offer_receive(void *offer, const char *mime, int fd) {
	wl_data_offer_receive((struct wl_data_offer *)offer, mime, fd);
}

static int wl_clip_dispatch(WlClipClient *c) {
	return wl_display_dispatch(c->display);
}

static int wl_clip_flush(WlClipClient *c) {
	return wl_display_flush(c->display);
}

static int wl_clip_roundtrip(WlClipClient *c) {
	return wl_display_roundtrip(c->display);
}
*/
import "C"

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"syscall"
	"unsafe"
)

type deviceFlavor uint8

const (
	flavorNone deviceFlavor = iota
	flavorWlr
	flavorStandard
)

// waylandBackend drives clipboard access over a Wayland connection,
// preferring zwlr_data_control_manager_v1 and falling back to the core
// wl_data_device_manager.
type waylandBackend struct {
	id     uintptr
	client *C.WlClipClient
	flavor deviceFlavor

	wlrDevice  unsafe.Pointer
	coreDevice unsafe.Pointer
	source     unsafe.Pointer

	mu             sync.Mutex
	curOffer       unsafe.Pointer
	offerMimes     []string
	availFormats   map[Format]struct{}
	offerReceived  bool
	ownFormat      Format
	ownPayload     []byte
	mons           []*Monitor
	monitorRunning bool
}

var (
	wlRegistryMu sync.Mutex
	wlRegistry   = map[uintptr]*waylandBackend{}
	wlNextID     uintptr
)

func registerWaylandBackend(w *waylandBackend) uintptr {
	wlRegistryMu.Lock()
	defer wlRegistryMu.Unlock()
	wlNextID++
	wlRegistry[wlNextID] = w
	return wlNextID
}

func lookupWaylandBackend(id uintptr) *waylandBackend {
	wlRegistryMu.Lock()
	defer wlRegistryMu.Unlock()
	return wlRegistry[id]
}

func unregisterWaylandBackend(id uintptr) {
	wlRegistryMu.Lock()
	delete(wlRegistry, id)
	wlRegistryMu.Unlock()
}

func newWaylandBackend() (*waylandBackend, error) {
	w := &waylandBackend{ownFormat: Invalid, availFormats: map[Format]struct{}{}}
	w.id = registerWaylandBackend(w)

	client := C.wl_clip_connect(C.uintptr_t(w.id))
	if client == nil {
		unregisterWaylandBackend(w.id)
		return nil, wrapErr(InitializationFailed, fmt.Errorf("goclip: [wayland] could not connect to display"))
	}
	w.client = client

	if client.wlr_manager != nil && client.seat != nil {
		dev := C.wl_clip_get_wlr_device(client, C.uintptr_t(w.id))
		if dev != nil {
			w.wlrDevice = unsafe.Pointer(dev)
			w.flavor = flavorWlr
		}
	}
	if w.flavor == flavorNone && client.core_manager != nil && client.seat != nil {
		dev := C.wl_clip_get_core_device(client, C.uintptr_t(w.id))
		if dev != nil {
			w.coreDevice = unsafe.Pointer(dev)
			w.flavor = flavorStandard
		}
	}
	if w.flavor == flavorNone {
		C.wl_display_disconnect(client.display)
		unregisterWaylandBackend(w.id)
		return nil, wrapErr(InitializationFailed, fmt.Errorf("goclip: [wayland] no data-control or data-device global available"))
	}

	C.wl_clip_roundtrip(client)

	log.Printf("goclip: [wayland] connected, device flavor=%d", w.flavor)
	return w, nil
}

//export goRegistryGlobal
func goRegistryGlobal(data unsafe.Pointer, name C.uint32_t, iface *C.char, version C.uint32_t) {
	w := lookupWaylandBackend(uintptr(data))
	if w == nil {
		return
	}
	w.onRegistryGlobal(uint32(name), C.GoString(iface), uint32(version))
}

func (w *waylandBackend) onRegistryGlobal(name uint32, iface string, version uint32) {
	switch iface {
	case "wl_seat":
		C.wl_clip_bind_seat(w.client, C.uint32_t(name))
	case "zwlr_data_control_manager_v1":
		if version >= 2 {
			C.wl_clip_bind_wlr_manager(w.client, C.uint32_t(name), C.uint32_t(version))
		}
	case "wl_data_device_manager":
		if version >= 3 {
			C.wl_clip_bind_core_manager(w.client, C.uint32_t(name), C.uint32_t(version))
		}
	}
}

//export goDeviceDataOffer
func goDeviceDataOffer(data unsafe.Pointer, offer unsafe.Pointer) {
	w := lookupWaylandBackend(uintptr(data))
	if w == nil {
		return
	}
	w.onNewOffer(offer)
}

func (w *waylandBackend) onNewOffer(offer unsafe.Pointer) {
	w.mu.Lock()
	w.curOffer = offer
	w.availFormats = map[Format]struct{}{}
	w.offerMimes = nil
	w.mu.Unlock()

	if w.flavor == flavorWlr {
		C.wl_clip_wlr_offer_listen(offer, C.uintptr_t(w.id))
	} else {
		C.wl_clip_std_offer_listen(offer, C.uintptr_t(w.id))
	}
}

//export goOfferMime
func goOfferMime(data unsafe.Pointer, offer unsafe.Pointer, mime *C.char) {
	w := lookupWaylandBackend(uintptr(data))
	if w == nil {
		return
	}
	w.onOfferMime(offer, C.GoString(mime))
}

func (w *waylandBackend) onOfferMime(offer unsafe.Pointer, mime string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if offer != w.curOffer {
		return
	}
	for _, m := range w.offerMimes {
		if m == mime {
			return
		}
	}
	w.offerMimes = append(w.offerMimes, mime)
	if f := formatFromMime(mime); f != Invalid {
		w.availFormats[f] = struct{}{}
	}
}

//export goDeviceSelection
func goDeviceSelection(data unsafe.Pointer, offer unsafe.Pointer) {
	w := lookupWaylandBackend(uintptr(data))
	if w == nil {
		return
	}
	w.onSelection(offer)
}

// onSelection binds the most recently offered object to CLIPBOARD, or
// clears state when the compositor reports no selection at all. A
// subsequent selection event arriving before the sticky bit is next reset
// (by read/readAuto/the monitor loop) is ignored, preserving one-shot
// semantics for whichever read operation is in flight.
func (w *waylandBackend) onSelection(offer unsafe.Pointer) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.offerReceived {
		return
	}
	w.offerReceived = true
	if offer == nil {
		w.curOffer = nil
		w.availFormats = map[Format]struct{}{}
		w.offerMimes = nil
		return
	}
	w.curOffer = offer
}

//export goDeviceFinished
func goDeviceFinished(data unsafe.Pointer) {
	w := lookupWaylandBackend(uintptr(data))
	if w == nil {
		return
	}
	log.Printf("goclip: [wayland] data device finished")
}

//export goSourceSend
func goSourceSend(data unsafe.Pointer, mime *C.char, fd C.int) {
	w := lookupWaylandBackend(uintptr(data))
	if w == nil {
		syscall.Close(int(fd))
		return
	}
	w.onSourceSend(int(fd))
}

func (w *waylandBackend) onSourceSend(fd int) {
	f := os.NewFile(uintptr(fd), "goclip-send")
	defer f.Close()
	syscall.SetNonblock(fd, false)

	w.mu.Lock()
	payload := append([]byte(nil), w.ownPayload...)
	w.mu.Unlock()

	if _, err := f.Write(payload); err != nil {
		log.Printf("goclip: [wayland] send write failed: %v", err)
	}
}

//export goSourceCancelled
func goSourceCancelled(data unsafe.Pointer) {
	log.Printf("goclip: [wayland] selection ownership cancelled")
	os.Exit(0)
}

func (w *waylandBackend) chosenMimeForFormat(format Format) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if format == Text {
		for _, m := range w.offerMimes {
			if m == "text/plain;charset=utf-8" {
				return m
			}
		}
	}
	for _, m := range w.offerMimes {
		if formatFromMime(m) == format {
			return m
		}
	}
	return format.Mime()
}

// readAllChunked reads in 4KiB chunks until EOF; total size is unbounded.
func readAllChunked(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	chunk := make([]byte, 4096)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
		}
		if err == io.EOF {
			return buf.Bytes(), nil
		}
		if err != nil {
			return buf.Bytes(), err
		}
	}
}

func (w *waylandBackend) fetchOffer(offer unsafe.Pointer, mime string, format Format) (*ClipboardData, error) {
	r, wf, err := os.Pipe()
	if err != nil {
		return nil, wrapErr(ReadFailed, err)
	}

	cMime := C.CString(mime)
	defer C.free(unsafe.Pointer(cMime))

	if w.flavor == flavorWlr {
		C.wl_clip_wlr_offer_receive(offer, cMime, C.int(wf.Fd()))
	} else {
		C.wl_clip_std_offer_receive(offer, cMime, C.int(wf.Fd()))
	}
	wf.Close()
	C.wl_clip_flush(w.client)

	buf, err := readAllChunked(r)
	r.Close()
	if err != nil {
		return nil, wrapErr(ReadFailed, err)
	}
	if len(buf) == 0 {
		return nil, NoData
	}
	return newClipboardData(Default, format, buf)
}

func (w *waylandBackend) read(ctx context.Context, board Board, format Format) (*ClipboardData, error) {
	if board != Default {
		return nil, ErrNoBoard
	}

	w.mu.Lock()
	if len(w.ownPayload) > 0 {
		if w.ownFormat != format {
			w.mu.Unlock()
			return nil, InvalidData
		}
		payload := append([]byte(nil), w.ownPayload...)
		w.mu.Unlock()
		return newClipboardData(Default, format, payload)
	}
	w.offerReceived = false
	w.mu.Unlock()

	C.wl_clip_roundtrip(w.client)

	w.mu.Lock()
	offer := w.curOffer
	_, ok := w.availFormats[format]
	w.mu.Unlock()

	if offer == nil {
		return nil, NoData
	}
	if !ok {
		return nil, InvalidData
	}

	mime := w.chosenMimeForFormat(format)
	return w.fetchOffer(offer, mime, format)
}

func (w *waylandBackend) readAuto(ctx context.Context, board Board) (*ClipboardData, error) {
	if board != Default {
		return nil, ErrNoBoard
	}

	w.mu.Lock()
	if len(w.ownPayload) > 0 {
		payload := append([]byte(nil), w.ownPayload...)
		format := w.ownFormat
		w.mu.Unlock()
		return newClipboardData(Default, format, payload)
	}
	w.offerReceived = false
	w.mu.Unlock()

	C.wl_clip_roundtrip(w.client)

	w.mu.Lock()
	avail := make(map[Format]struct{}, len(w.availFormats))
	for f := range w.availFormats {
		avail[f] = struct{}{}
	}
	w.mu.Unlock()

	for _, f := range formatPriorityDefault {
		if _, ok := avail[f]; ok {
			return w.read(ctx, board, f)
		}
	}
	return nil, NoData
}

func (w *waylandBackend) paste(ctx context.Context, board Board, formats ...Format) (Data, error) {
	if len(formats) == 0 {
		return w.readAuto(ctx, board)
	}
	var lastErr error
	for _, f := range formats {
		d, err := w.read(ctx, board, f)
		if err == nil {
			return d, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (w *waylandBackend) info(ctx context.Context, board Board) (Data, error) {
	return w.paste(ctx, board)
}

func (w *waylandBackend) copy(ctx context.Context, board Board, values ...interface{}) error {
	return copyValues(ctx, board, w.write, values...)
}

func (w *waylandBackend) write(ctx context.Context, board Board, data []byte, format Format) error {
	if board != Default {
		return ErrNoBoard
	}
	if len(data) == 0 {
		return NoData
	}
	payload := append([]byte(nil), data...)
	return spawnOwnerProcess(waylandServerFlag, writeContext{Format: format, Payload: payload, Board: board})
}

func (w *waylandBackend) clear(ctx context.Context, board Board) error {
	if board != Default {
		return ErrNoBoard
	}
	w.mu.Lock()
	w.ownPayload = nil
	w.ownFormat = Invalid
	w.mu.Unlock()

	if w.flavor == flavorWlr {
		C.wl_clip_wlr_device_set_selection(w.wlrDevice, nil)
	} else {
		C.wl_clip_std_device_set_selection(w.coreDevice, nil)
	}
	C.wl_clip_roundtrip(w.client)
	return nil
}

func (w *waylandBackend) availableFormats(ctx context.Context, board Board) (map[Format]struct{}, error) {
	if board != Default {
		return nil, ErrNoBoard
	}
	w.mu.Lock()
	w.offerReceived = false
	w.mu.Unlock()

	C.wl_clip_roundtrip(w.client)

	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[Format]struct{}, len(w.availFormats))
	for f := range w.availFormats {
		out[f] = struct{}{}
	}
	return out, nil
}

func (w *waylandBackend) startWaylandMonitor() (*Monitor, error) {
	mon := &Monitor{}
	if err := w.monitor(mon); err != nil {
		return nil, err
	}
	return mon, nil
}

func (w *waylandBackend) monitor(mon *Monitor) error {
	w.mu.Lock()
	w.mons = append(w.mons, mon)
	alreadyRunning := w.monitorRunning
	w.monitorRunning = true
	w.mu.Unlock()

	if !alreadyRunning {
		go w.runMonitorLoop()
	}
	return nil
}

// runMonitorLoop implements wait_for_change: reset the sticky offer bit,
// block on a dispatch round, then fire subscribers with whatever the
// default format-priority negotiation resolves to. No deduplication is
// performed: a selection re-announced with identical content still fires.
func (w *waylandBackend) runMonitorLoop() {
	for {
		w.mu.Lock()
		w.offerReceived = false
		w.mu.Unlock()

		if C.wl_clip_dispatch(w.client) < 0 {
			return
		}

		w.mu.Lock()
		offer := w.curOffer
		avail := make(map[Format]struct{}, len(w.availFormats))
		for f := range w.availFormats {
			avail[f] = struct{}{}
		}
		mons := append([]*Monitor(nil), w.mons...)
		w.mu.Unlock()

		if offer == nil || len(avail) == 0 {
			continue
		}

		for _, f := range formatPriorityDefault {
			if _, ok := avail[f]; ok {
				d, err := w.read(context.Background(), Default, f)
				if err == nil {
					for _, m := range mons {
						m.fire(d)
					}
				}
				break
			}
		}
	}
}

func (w *waylandBackend) unmonitor(mon *Monitor) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for n, m := range w.mons {
		if m == mon {
			w.mons = append(w.mons[:n], w.mons[n+1:]...)
			return nil
		}
	}
	return os.ErrNotExist
}

func (w *waylandBackend) poll(mon *Monitor) error {
	// the monitor loop already blocks on wl_display_dispatch; nothing to
	// poll explicitly, this exists only to satisfy the Monitor contract.
	return nil
}

// --- background owner process (write path) ---

func (w *waylandBackend) claimSelection() error {
	var source unsafe.Pointer
	if w.flavor == flavorWlr {
		source = unsafe.Pointer(C.wl_clip_wlr_create_source(w.client, C.uintptr_t(w.id)))
	} else {
		source = unsafe.Pointer(C.wl_clip_std_create_source(w.client, C.uintptr_t(w.id)))
	}
	if source == nil {
		return wrapErr(WriteFailed, fmt.Errorf("goclip: [wayland] could not create data source"))
	}
	w.source = source

	mimes := []string{w.ownFormat.Mime()}
	if w.ownFormat == Text {
		mimes = textWriteMimes
	}
	for _, m := range mimes {
		cm := C.CString(m)
		if w.flavor == flavorWlr {
			C.wl_clip_wlr_offer_mime(source, cm)
		} else {
			C.wl_clip_std_offer_mime(source, cm)
		}
		C.free(unsafe.Pointer(cm))
	}

	if w.flavor == flavorWlr {
		C.wl_clip_wlr_device_set_selection(w.wlrDevice, source)
	} else {
		C.wl_clip_std_device_set_selection(w.coreDevice, source)
	}
	C.wl_clip_roundtrip(w.client)
	return nil
}

func (w *waylandBackend) serverLoop() {
	for {
		if C.wl_clip_dispatch(w.client) < 0 {
			return
		}
	}
}

func runWaylandServerChild() {
	wc, err := receiveOwnerPayload()
	if err != nil {
		log.Printf("goclip: [wayland] owner child: %v", err)
		return
	}

	w, err := newWaylandBackend()
	if err != nil {
		log.Printf("goclip: [wayland] owner child init failed: %v", err)
		return
	}

	w.ownFormat = wc.Format
	w.ownPayload = wc.Payload

	if err := w.claimSelection(); err != nil {
		log.Printf("goclip: [wayland] owner child could not claim selection: %v", err)
		return
	}

	w.serverLoop()
}
