package goclip

import (
	"errors"
	"testing"
)

func TestErrorKindString(t *testing.T) {
	cases := []struct {
		k    ErrorKind
		want string
	}{
		{InitializationFailed, "InitializationFailed"},
		{UnsupportedPlatform, "UnsupportedPlatform"},
		{NoData, "NoData"},
		{InvalidData, "InvalidData"},
		{ReadFailed, "ReadFailed"},
		{WriteFailed, "WriteFailed"},
		{Timeout, "Timeout"},
		{OutOfMemory, "OutOfMemory"},
		{ErrorKind(99), "Unknown"},
	}
	for _, c := range cases {
		if got := c.k.String(); got != c.want {
			t.Errorf("ErrorKind(%d).String() = %q, want %q", c.k, got, c.want)
		}
	}
}

func TestWrapErrNilPassthrough(t *testing.T) {
	err := wrapErr(NoData, nil)
	if err != error(NoData) {
		t.Errorf("wrapErr(NoData, nil) = %v, want the bare ErrorKind", err)
	}
}

func TestWrapErrIsMatchesKind(t *testing.T) {
	cause := errors.New("boom")
	err := wrapErr(ReadFailed, cause)
	if !errors.Is(err, ReadFailed) {
		t.Errorf("errors.Is(wrapErr(ReadFailed, cause), ReadFailed) = false, want true")
	}
	if errors.Is(err, WriteFailed) {
		t.Errorf("errors.Is(wrapErr(ReadFailed, cause), WriteFailed) = true, want false")
	}
	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(wrapErr(ReadFailed, cause), cause) = false, want true (Unwrap)")
	}
}

func TestLegacySentinelsCarryKind(t *testing.T) {
	if !errors.Is(ErrFormatUnavailable, InvalidData) {
		t.Errorf("ErrFormatUnavailable should carry InvalidData")
	}
	if !errors.Is(ErrNoBoard, UnsupportedPlatform) {
		t.Errorf("ErrNoBoard should carry UnsupportedPlatform")
	}
	if !errors.Is(ErrNoData, NoData) {
		t.Errorf("ErrNoData should carry NoData")
	}
}
