package model

import (
	"crypto/sha256"
	"fmt"
)

// bytesPerPixel is the fixed pixel layout: 3 channels, row-major.
const bytesPerPixel = 3

// Bitmap is a fixed-layout in-memory image. The buffer holds exactly
// Width * Height * 3 bytes. ID is derived from the raw payload content and
// is carried as a cache key for callers that want to recognize a repeated
// image; the bridge itself performs no lookup with it.
type Bitmap struct {
	Width  int32
	Height int32
	Data   []byte
	ID     string
}

// NewBitmap validates and normalizes raw image bytes into a Bitmap. The
// first Width * Height * 3 bytes of data are copied; the bitmap does not
// alias the caller's buffer.
func NewBitmap(data []byte, width int32, height int32) (*Bitmap, error) {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return nil, fmt.Errorf("new bitmap %dx%d with %d bytes: %w", width, height, len(data), ErrInvalidImage)
	}

	need := int(width) * int(height) * bytesPerPixel
	if len(data) < need {
		return nil, fmt.Errorf("new bitmap %dx%d needs %d bytes, have %d: %w", width, height, need, len(data), ErrImageSize)
	}

	buf := make([]byte, need)
	copy(buf, data[:need])

	bm := Bitmap{
		Width:  width,
		Height: height,
		Data:   buf,
		ID:     fmt.Sprintf("img_%x", sha256.Sum256(data)),
	}

	return &bm, nil
}
