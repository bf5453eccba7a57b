package goclip

import (
	"context"
	"errors"
	"os"
	"testing"
)

func TestNewClipboardDataEmptyIsNoData(t *testing.T) {
	_, err := newClipboardData(Default, Text, nil)
	if !errors.Is(err, NoData) {
		t.Fatalf("newClipboardData with empty buffer: got %v, want NoData", err)
	}
	_, err = newClipboardData(Default, Text, []byte{})
	if !errors.Is(err, NoData) {
		t.Fatalf("newClipboardData with zero-length buffer: got %v, want NoData", err)
	}
}

func TestNewClipboardDataOwnsBuffer(t *testing.T) {
	src := []byte("hello")
	cd, err := newClipboardData(Default, Text, src)
	if err != nil {
		t.Fatalf("newClipboardData: %v", err)
	}
	src[0] = 'X'
	if got, _ := cd.ToText(context.Background()); got != "hello" {
		t.Fatalf("ClipboardData shares the caller's backing array; ToText() = %q, want %q", got, "hello")
	}
}

func TestClipboardDataBytesReturnsCopy(t *testing.T) {
	cd, err := newClipboardData(Default, Text, []byte("hello"))
	if err != nil {
		t.Fatalf("newClipboardData: %v", err)
	}
	b := cd.Bytes()
	b[0] = 'X'
	if got, _ := cd.ToText(context.Background()); got != "hello" {
		t.Fatalf("mutating a Bytes() result affected internal state; ToText() = %q, want %q", got, "hello")
	}
}

func TestClipboardDataToTextWrongFormat(t *testing.T) {
	cd, err := newClipboardData(Default, Image, []byte{0x89, 'P', 'N', 'G'})
	if err != nil {
		t.Fatalf("newClipboardData: %v", err)
	}
	if _, err := cd.ToText(context.Background()); !errors.Is(err, ErrDataNotString) {
		t.Fatalf("ToText() on Image data: got %v, want ErrDataNotString", err)
	}
}

func TestClipboardDataHasFormat(t *testing.T) {
	cd, err := newClipboardData(Default, Text, []byte("hello"))
	if err != nil {
		t.Fatalf("newClipboardData: %v", err)
	}
	if !cd.HasFormat("text/plain") {
		t.Errorf("HasFormat(text/plain) = false, want true")
	}
	if !cd.HasFormat("UTF8_STRING") {
		t.Errorf("HasFormat(UTF8_STRING) = false, want true (text alias)")
	}
	if cd.HasFormat("image/png") {
		t.Errorf("HasFormat(image/png) = true, want false")
	}
}

func TestClipboardDataFileList(t *testing.T) {
	payload := "# a comment\nfile:///home/user/a.txt\n\nfile:///home/user/b.txt\nnot-a-uri\n"
	cd, err := newClipboardData(Default, Text, []byte(payload))
	if err != nil {
		t.Fatalf("newClipboardData: %v", err)
	}
	files, err := cd.FileList()
	if err != nil {
		t.Fatalf("FileList(): %v", err)
	}
	want := []string{"/home/user/a.txt", "/home/user/b.txt"}
	if len(files) != len(want) {
		t.Fatalf("FileList() = %v, want %v", files, want)
	}
	for n := range want {
		if files[n] != want[n] {
			t.Errorf("FileList()[%d] = %q, want %q", n, files[n], want[n])
		}
	}
}

func TestStaticDataToTextFindsTextOption(t *testing.T) {
	sd := &StaticData{
		TargetBoard: Default,
		Options: []DataOption{
			&StaticDataOption{StaticType: "image/png", StaticData: []byte{1, 2, 3}},
			&StaticDataOption{StaticType: "text/plain", StaticData: []byte("hi")},
		},
	}
	got, err := sd.ToText(context.Background())
	if err != nil {
		t.Fatalf("ToText(): %v", err)
	}
	if got != "hi" {
		t.Errorf("ToText() = %q, want %q", got, "hi")
	}
}

func TestStaticDataGetFormatFallsBackOnParams(t *testing.T) {
	sd := &StaticData{
		Options: []DataOption{
			&StaticDataOption{StaticType: "text/plain;charset=utf-8", StaticData: []byte("hi")},
		},
	}
	got, err := sd.GetFormat(context.Background(), "text/plain")
	if err != nil {
		t.Fatalf("GetFormat(text/plain): %v", err)
	}
	if string(got) != "hi" {
		t.Errorf("GetFormat(text/plain) = %q, want %q", got, "hi")
	}
}

func TestStaticDataGetFormatNotFound(t *testing.T) {
	sd := &StaticData{}
	if _, err := sd.GetFormat(context.Background(), "text/plain"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("GetFormat on empty StaticData: got %v, want os.ErrNotExist", err)
	}
}
