package goclip

import (
	"context"
	"errors"
	"testing"
)

func TestUnsupportedBackendReturnsItsError(t *testing.T) {
	want := wrapErr(UnsupportedPlatform, errors.New("no session"))
	u := unsupportedBackend{err: want}
	ctx := context.Background()

	if err := u.copy(ctx, Default, "x"); err != want {
		t.Errorf("copy() = %v, want %v", err, want)
	}
	if _, err := u.info(ctx, Default); err != want {
		t.Errorf("info() = %v, want %v", err, want)
	}
	if _, err := u.paste(ctx, Default); err != want {
		t.Errorf("paste() = %v, want %v", err, want)
	}
	if _, err := u.read(ctx, Default, Text); err != want {
		t.Errorf("read() = %v, want %v", err, want)
	}
	if err := u.write(ctx, Default, []byte("x"), Text); err != want {
		t.Errorf("write() = %v, want %v", err, want)
	}
	if err := u.clear(ctx, Default); err != want {
		t.Errorf("clear() = %v, want %v", err, want)
	}
	if _, err := u.availableFormats(ctx, Default); err != want {
		t.Errorf("availableFormats() = %v, want %v", err, want)
	}
	if _, err := u.readAuto(ctx, Default); err != want {
		t.Errorf("readAuto() = %v, want %v", err, want)
	}
	if _, err := u.startWaylandMonitor(); err != want {
		t.Errorf("startWaylandMonitor() = %v, want %v", err, want)
	}
	if err := u.monitor(nil); err != want {
		t.Errorf("monitor() = %v, want %v", err, want)
	}
}

func TestUnsupportedBackendUnmonitorAndPollAreNoops(t *testing.T) {
	u := unsupportedBackend{err: wrapErr(UnsupportedPlatform, errors.New("no session"))}
	if err := u.unmonitor(nil); err != nil {
		t.Errorf("unmonitor() = %v, want nil", err)
	}
	if err := u.poll(nil); err != nil {
		t.Errorf("poll() = %v, want nil", err)
	}
}

func TestInternalDelegatesToActive(t *testing.T) {
	want := wrapErr(UnsupportedPlatform, errors.New("stub"))
	in := &internal{active: unsupportedBackend{err: want}}
	ctx := context.Background()

	if err := in.copy(ctx, Default, "x"); err != want {
		t.Errorf("internal.copy() = %v, want %v", err, want)
	}
	if _, err := in.read(ctx, Default, Text); err != want {
		t.Errorf("internal.read() = %v, want %v", err, want)
	}
}
