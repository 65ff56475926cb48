package decode

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func pngPayload(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeBytes(t *testing.T) {
	decoder := Imaging{}

	decoded, err := decoder.DecodeBytes(pngPayload(t, 12, 8))
	if err != nil {
		t.Fatalf("Failed to decode payload: %v", err)
	}
	if decoded.Bounds().Dx() != 12 || decoded.Bounds().Dy() != 8 {
		t.Errorf("Expected 12x8 image, got %dx%d", decoded.Bounds().Dx(), decoded.Bounds().Dy())
	}
	if decoded.NRGBAAt(0, 0) != (color.NRGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("Expected white pixel, got %v", decoded.NRGBAAt(0, 0))
	}
}

func TestDecodeBytesInvalidPayload(t *testing.T) {
	decoder := Imaging{}

	if _, err := decoder.DecodeBytes([]byte("not an image")); err == nil {
		t.Error("Expected error for invalid payload")
	}
}

func TestDecodeFileRemovesArtifact(t *testing.T) {
	decoder := Imaging{}
	path := filepath.Join(t.TempDir(), "render.png")
	if err := os.WriteFile(path, pngPayload(t, 4, 4), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	decoded, err := decoder.DecodeFile(path, true)
	if err != nil {
		t.Fatalf("Failed to decode file: %v", err)
	}
	if decoded.Bounds().Dx() != 4 {
		t.Errorf("Expected width 4, got %d", decoded.Bounds().Dx())
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected temporary file to be removed")
	}
}

func TestDecodeFileKeepsArtifact(t *testing.T) {
	decoder := Imaging{}
	path := filepath.Join(t.TempDir(), "render.png")
	if err := os.WriteFile(path, pngPayload(t, 4, 4), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	if _, err := decoder.DecodeFile(path, false); err != nil {
		t.Fatalf("Failed to decode file: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected temporary file to remain: %v", err)
	}
}

func TestDecodeFileMissing(t *testing.T) {
	decoder := Imaging{}

	if _, err := decoder.DecodeFile(filepath.Join(t.TempDir(), "missing.png"), true); err == nil {
		t.Error("Expected error for missing file")
	}
}
