// Package backend hosts the daemon side of the render protocol: the
// rasterization engines and the handle table tracking every document
// and page a client has open.
package backend

import (
	"fmt"
	"image"
)

// RasterRequest describes one page rasterization in output pixels.
type RasterRequest struct {
	Width  int
	Height int
}

// RasterDoc is one document open inside a rasterization engine.
type RasterDoc interface {
	// PageCount reports the number of pages.
	PageCount() int
	// PageSize reports the intrinsic size of the 1-based page in points.
	PageSize(pageNumber int) (width, height float64, err error)
	// RenderPage rasterizes the 1-based page to the requested pixel size.
	RenderPage(pageNumber int, req RasterRequest) (image.Image, error)
	Close() error
}

// Rasterizer opens documents for rasterization.
type Rasterizer interface {
	OpenPath(path string) (RasterDoc, error)
	OpenData(data []byte) (RasterDoc, error)
	// Close releases engine-wide resources.
	Close() error
}

// NewRasterizer selects an engine by name: "fitz" (MuPDF, requires CGo)
// or "pdfium" (PDFium compiled to WebAssembly, pure Go).
func NewRasterizer(engine string) (Rasterizer, error) {
	switch engine {
	case "fitz":
		return NewFitzRasterizer()
	case "pdfium":
		return NewPDFiumRasterizer()
	}
	return nil, fmt.Errorf("unknown render engine %q", engine)
}
