package goclip

import (
	"bytes"
	"encoding/gob"
	"testing"
)

// writeContext crosses process boundaries via gob on an inherited pipe
// (spawnOwnerProcess / receiveOwnerPayload); this only checks the encoding
// round-trips, since exercising the actual pipe needs a live subprocess.
func TestWriteContextGobRoundTrip(t *testing.T) {
	want := writeContext{Format: Image, Payload: []byte{0x89, 'P', 'N', 'G', 0, 1, 2}, Board: PrimarySelection}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(want); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var got writeContext
	if err := gob.NewDecoder(&buf).Decode(&got); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if got.Format != want.Format || got.Board != want.Board || !bytes.Equal(got.Payload, want.Payload) {
		t.Errorf("round-tripped writeContext = %+v, want %+v", got, want)
	}
}

func TestSentinelFlagsAreDistinct(t *testing.T) {
	if x11ServerFlag == waylandServerFlag {
		t.Errorf("x11ServerFlag and waylandServerFlag must not collide: both %q", x11ServerFlag)
	}
}
