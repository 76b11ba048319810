package imagemeta

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

// encodeTestJPEG はEXIFを含まないJPEGバイト列を生成します。
func encodeTestJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 128, G: 128, B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("Failed to encode test JPEG: %v", err)
	}
	return buf.Bytes()
}

func TestExtract_DimensionsWithoutExif(t *testing.T) {
	data := encodeTestJPEG(t, 64, 48)

	meta, err := Extract(data)

	// EXIFなしはErrNoExifだが寸法は取得できる
	if !errors.Is(err, ErrNoExif) {
		t.Errorf("Expected ErrNoExif, got %v", err)
	}
	if meta.Width != 64 || meta.Height != 48 {
		t.Errorf("Expected 64x48, got %dx%d", meta.Width, meta.Height)
	}
	if meta.HasLocation {
		t.Error("Expected no location without EXIF")
	}
	if !meta.ShootingDate.IsZero() {
		t.Error("Expected zero shooting date without EXIF")
	}
}

func TestExtract_InvalidData(t *testing.T) {
	meta, err := Extract([]byte("not an image at all"))

	if !errors.Is(err, ErrNoExif) {
		t.Errorf("Expected ErrNoExif for non-image data, got %v", err)
	}
	if meta.Width != 0 || meta.Height != 0 {
		t.Errorf("Expected zero dimensions, got %dx%d", meta.Width, meta.Height)
	}
}
