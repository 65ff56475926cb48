package backend

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
)

// FitzRasterizer opens documents with go-fitz (requires CGo and MuPDF).
type FitzRasterizer struct{}

// NewFitzRasterizer creates a MuPDF-backed rasterizer.
func NewFitzRasterizer() (*FitzRasterizer, error) {
	return &FitzRasterizer{}, nil
}

func (r *FitzRasterizer) OpenPath(path string) (RasterDoc, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open PDF document: %w", err)
	}
	return &fitzDoc{doc: doc}, nil
}

func (r *FitzRasterizer) OpenData(data []byte) (RasterDoc, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("unable to open PDF document: %w", err)
	}
	return &fitzDoc{doc: doc}, nil
}

// Close is a no-op; go-fitz holds no engine-wide state.
func (r *FitzRasterizer) Close() error {
	return nil
}

type fitzDoc struct {
	doc *fitz.Document
}

func (d *fitzDoc) PageCount() int {
	return d.doc.NumPage()
}

func (d *fitzDoc) PageSize(pageNumber int) (float64, float64, error) {
	bound, err := d.doc.Bound(pageNumber - 1)
	if err != nil {
		return 0, 0, fmt.Errorf("unable to measure page %d: %w", pageNumber, err)
	}
	return float64(bound.Dx()), float64(bound.Dy()), nil
}

func (d *fitzDoc) RenderPage(pageNumber int, req RasterRequest) (image.Image, error) {
	// go-fitz renders at a DPI rather than a pixel size, so pick the DPI
	// that covers the requested width and resize to the exact target.
	width, _, err := d.PageSize(pageNumber)
	if err != nil {
		return nil, err
	}
	dpi := 72.0
	if width > 0 {
		dpi = 72.0 * float64(req.Width) / width
	}
	img, err := d.doc.ImageDPI(pageNumber-1, dpi)
	if err != nil {
		return nil, fmt.Errorf("unable to render page %d: %w", pageNumber, err)
	}
	if img.Bounds().Dx() != req.Width || img.Bounds().Dy() != req.Height {
		return imaging.Resize(img, req.Width, req.Height, imaging.Lanczos), nil
	}
	return img, nil
}

func (d *fitzDoc) Close() error {
	return d.doc.Close()
}
