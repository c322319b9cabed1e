package model

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func Test_NewBitmap(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		width  int32
		height int32
		err    error
	}{
		{name: "empty buffer", data: nil, width: 2, height: 2, err: ErrInvalidImage},
		{name: "zero width", data: make([]byte, 12), width: 0, height: 2, err: ErrInvalidImage},
		{name: "negative height", data: make([]byte, 12), width: 2, height: -1, err: ErrInvalidImage},
		{name: "short buffer", data: make([]byte, 11), width: 2, height: 2, err: ErrImageSize},
		{name: "exact buffer", data: make([]byte, 12), width: 2, height: 2},
		{name: "oversized buffer", data: make([]byte, 64), width: 2, height: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bm, err := NewBitmap(tt.data, tt.width, tt.height)

			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("expected error %v, got %v", tt.err, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if want := int(tt.width) * int(tt.height) * 3; len(bm.Data) != want {
				t.Errorf("expected %d bytes in bitmap, got %d", want, len(bm.Data))
			}
		})
	}
}

func Test_BitmapID(t *testing.T) {
	data := bytes.Repeat([]byte{0x10, 0x20, 0x30}, 16)

	bm1, err := NewBitmap(data, 4, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bm2, err := NewBitmap(data, 4, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(bm1.ID, "img_") {
		t.Errorf("expected id with img_ prefix, got %q", bm1.ID)
	}

	if bm1.ID != bm2.ID {
		t.Errorf("expected identical content to produce identical ids: %q != %q", bm1.ID, bm2.ID)
	}

	other := bytes.Repeat([]byte{0x11, 0x20, 0x30}, 16)
	bm3, err := NewBitmap(other, 4, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if bm1.ID == bm3.ID {
		t.Error("expected different content to produce different ids")
	}
}

func Test_BitmapCopiesData(t *testing.T) {
	data := make([]byte, 12)
	for i := range data {
		data[i] = byte(i)
	}

	bm, err := NewBitmap(data, 2, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data[0] = 0xFF

	if bm.Data[0] == 0xFF {
		t.Error("bitmap aliases the caller's buffer")
	}
}
