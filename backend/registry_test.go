package backend

import (
	"bytes"
	"image"
	"image/color"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/disintegration/imaging"
)

func init() {
	Logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// stubRasterizer serves solid-colour pages without any engine behind it.
type stubRasterizer struct {
	pageCount int
	openErr   error
	openCalls int
}

func (s *stubRasterizer) OpenPath(path string) (RasterDoc, error) {
	return s.OpenData(nil)
}

func (s *stubRasterizer) OpenData(data []byte) (RasterDoc, error) {
	s.openCalls++
	if s.openErr != nil {
		return nil, s.openErr
	}
	return &stubDoc{pageCount: s.pageCount}, nil
}

func (s *stubRasterizer) Close() error { return nil }

type stubDoc struct {
	pageCount   int
	renderCalls int
	closed      bool
}

func (d *stubDoc) PageCount() int { return d.pageCount }

func (d *stubDoc) PageSize(pageNumber int) (float64, float64, error) {
	return 612, 792, nil
}

func (d *stubDoc) RenderPage(pageNumber int, req RasterRequest) (image.Image, error) {
	d.renderCalls++
	return imaging.New(req.Width, req.Height, color.NRGBA{R: 10, G: 20, B: 30, A: 255}), nil
}

func (d *stubDoc) Close() error {
	d.closed = true
	return nil
}

func TestRegistryLifecycle(t *testing.T) {
	registry := NewRegistry(&stubRasterizer{pageCount: 3}, t.TempDir())

	docID, pages, err := registry.OpenData([]byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Failed to open document: %v", err)
	}
	if pages != 3 {
		t.Errorf("Expected 3 pages, got %d", pages)
	}

	pageID, width, height, err := registry.OpenPage(docID, 2)
	if err != nil {
		t.Fatalf("Failed to open page: %v", err)
	}
	if width != 612 || height != 792 {
		t.Errorf("Expected 612x792 points, got %gx%g", width, height)
	}

	out, err := registry.Render(RenderParams{PageID: pageID, Width: 300, Height: 400, Format: formatPNG, Background: "#00FFFFFF"})
	if err != nil {
		t.Fatalf("Failed to render: %v", err)
	}
	if out.Width != 300 || out.Height != 400 {
		t.Errorf("Expected 300x400 output, got %dx%d", out.Width, out.Height)
	}
	decoded, err := imaging.Decode(bytes.NewReader(out.Data))
	if err != nil {
		t.Fatalf("Render payload is not a decodable image: %v", err)
	}
	if decoded.Bounds().Dx() != 300 {
		t.Errorf("Expected payload width 300, got %d", decoded.Bounds().Dx())
	}

	if err := registry.ClosePage(pageID); err != nil {
		t.Fatalf("Failed to close page: %v", err)
	}
	if _, err := registry.Render(RenderParams{PageID: pageID, Width: 10, Height: 10}); err == nil {
		t.Error("Expected render on a closed page handle to fail")
	}

	if err := registry.CloseDocument(docID); err != nil {
		t.Fatalf("Failed to close document: %v", err)
	}
	if err := registry.CloseDocument(docID); err == nil {
		t.Error("Expected closing an unknown document to fail")
	}
}

func TestRegistryOpenPageRange(t *testing.T) {
	registry := NewRegistry(&stubRasterizer{pageCount: 2}, t.TempDir())
	docID, _, _ := registry.OpenData(nil)

	if _, _, _, err := registry.OpenPage(docID, 0); err == nil {
		t.Error("Expected page 0 to be rejected")
	}
	if _, _, _, err := registry.OpenPage(docID, 3); err == nil {
		t.Error("Expected page 3 of 2 to be rejected")
	}
	if _, _, _, err := registry.OpenPage("no-such-doc", 1); err == nil {
		t.Error("Expected unknown document to be rejected")
	}
}

func TestRegistryRenderNonResult(t *testing.T) {
	registry := NewRegistry(&stubRasterizer{pageCount: 1}, t.TempDir())
	docID, _, _ := registry.OpenData(nil)
	pageID, _, _, _ := registry.OpenPage(docID, 1)

	out, err := registry.Render(RenderParams{PageID: pageID, Width: 0, Height: 0})
	if err != nil {
		t.Fatalf("Expected nil error for a zero-size render, got %v", err)
	}
	if out != nil {
		t.Error("Expected a non-result for a zero-size render")
	}
}

func TestRegistryRenderWebPRefused(t *testing.T) {
	registry := NewRegistry(&stubRasterizer{pageCount: 1}, t.TempDir())
	docID, _, _ := registry.OpenData(nil)
	pageID, _, _, _ := registry.OpenPage(docID, 1)

	if _, err := registry.Render(RenderParams{PageID: pageID, Width: 10, Height: 10, Format: formatWEBP}); err == nil {
		t.Error("Expected webp to be refused")
	}
}

func TestRegistryRenderCrop(t *testing.T) {
	registry := NewRegistry(&stubRasterizer{pageCount: 1}, t.TempDir())
	docID, _, _ := registry.OpenData(nil)
	pageID, _, _, _ := registry.OpenPage(docID, 1)

	out, err := registry.Render(RenderParams{
		PageID: pageID, Width: 200, Height: 200, Format: formatPNG,
		Crop: true, CropX: 10, CropY: 20, CropWidth: 50, CropHeight: 60,
	})
	if err != nil {
		t.Fatalf("Failed to render with crop: %v", err)
	}
	if out.Width != 50 || out.Height != 60 {
		t.Errorf("Expected 50x60 cropped output, got %dx%d", out.Width, out.Height)
	}
}

func TestRegistryOpenAsset(t *testing.T) {
	assetDir := t.TempDir()
	if err := os.WriteFile(assetDir+"/manual.pdf", []byte("%PDF-1.4"), 0644); err != nil {
		t.Fatalf("Failed to write asset: %v", err)
	}
	registry := NewRegistry(&stubRasterizer{pageCount: 1}, assetDir)

	if _, _, err := registry.OpenAsset("manual.pdf"); err != nil {
		t.Fatalf("Failed to open asset: %v", err)
	}
	if _, _, err := registry.OpenAsset("missing.pdf"); err == nil {
		t.Error("Expected unknown asset to be rejected")
	}
	// Path components are stripped so names cannot escape the directory.
	if _, _, err := registry.OpenAsset("../../manual.pdf"); err != nil {
		t.Errorf("Expected traversal to resolve to the asset base name, got %v", err)
	}
}

func TestRegistrySweep(t *testing.T) {
	registry := NewRegistry(&stubRasterizer{pageCount: 1}, t.TempDir())
	staleID, _, _ := registry.OpenData(nil)
	freshID, _, _ := registry.OpenData(nil)

	registry.mu.Lock()
	registry.docs[staleID].lastUsed = time.Now().Add(-time.Hour)
	registry.mu.Unlock()

	if closed := registry.Sweep(30 * time.Minute); closed != 1 {
		t.Errorf("Expected 1 document swept, got %d", closed)
	}
	if _, _, _, err := registry.OpenPage(staleID, 1); err == nil {
		t.Error("Expected the stale document to be gone")
	}
	if _, _, _, err := registry.OpenPage(freshID, 1); err != nil {
		t.Errorf("Expected the fresh document to survive: %v", err)
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
		ok   bool
	}{
		{"#FFFFFFFF", color.NRGBA{R: 255, G: 255, B: 255, A: 255}, true},
		{"#00FFFFFF", color.NRGBA{R: 255, G: 255, B: 255, A: 0}, true},
		{"#FF336699", color.NRGBA{R: 0x33, G: 0x66, B: 0x99, A: 0xFF}, true},
		{"", color.NRGBA{R: 255, G: 255, B: 255, A: 255}, true},
		{"#FFF", color.NRGBA{}, false},
		{"#GGGGGGGG", color.NRGBA{}, false},
	}
	for _, tt := range tests {
		got, err := parseHexColor(tt.in)
		if tt.ok && err != nil {
			t.Errorf("parseHexColor(%q) failed: %v", tt.in, err)
			continue
		}
		if !tt.ok {
			if err == nil {
				t.Errorf("parseHexColor(%q) should have failed", tt.in)
			}
			continue
		}
		if got != tt.want {
			t.Errorf("parseHexColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
