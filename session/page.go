package session

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/drummonds/pdfview/remote"
)

// Rect is an axis-aligned crop rectangle in output pixel coordinates.
// Offsets are truncated to whole pixels when sent to the engine.
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// RenderOptions control one render call.
type RenderOptions struct {
	// Width and Height are the target raster size in pixels.
	Width  int
	Height int

	// Format selects the encoding the engine delivers. The zero value is
	// JPEG.
	Format ImageFormat

	// Background is a #AARRGGBB hex colour the page is composited onto.
	// Empty selects opaque white for JPEG and transparent white for every
	// other format.
	Background string

	// Crop, when non-nil, restricts the delivered image to a region of
	// the rendered output.
	Crop *Rect

	// Quality is the encoder quality hint, 0-100.
	Quality int

	// RemoveTempFile tells the decoder to delete the engine's temporary
	// file after reading, when the payload is delivered by path.
	RemoveTempFile bool
}

// Page is a handle to one page of an open document. It holds a
// non-owning back-reference to its Document, used only for equality and
// closed-state checks. The page mutex serializes Render and Close
// against each other.
type Page struct {
	doc    *Document
	id     string
	number int
	width  float64
	height float64

	mu     sync.Mutex
	closed bool
}

// ID returns the engine's identifier for this page.
func (p *Page) ID() string { return p.id }

// Number returns the 1-based page number.
func (p *Page) Number() int { return p.number }

// Width returns the intrinsic page width in points, fixed at open time.
func (p *Page) Width() float64 { return p.width }

// Height returns the intrinsic page height in points, fixed at open
// time.
func (p *Page) Height() float64 { return p.height }

// Document returns the owning document handle.
func (p *Page) Document() *Document { return p.doc }

// Equal reports whether both handles name the same page of the same
// document.
func (p *Page) Equal(other *Page) bool {
	return other != nil && p.doc.Equal(other.doc) && p.number == other.number
}

// Render rasterizes a region of the page and returns the decoded
// result. It fails without touching the engine when the owning document
// or this page is closed, or when the requested format is unavailable
// on this platform. A (nil, nil) return means the engine rendered
// nothing for the request.
func (p *Page) Render(ctx context.Context, opts RenderOptions) (*PageImage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.doc.isClosed() {
		return nil, ErrDocumentClosed
	}
	if p.closed {
		return nil, ErrPageClosed
	}

	probe := p.doc.client.probe
	if opts.Format == FormatWEBP && (probe.IsIOS() || probe.IsWindows() || probe.IsMacOS()) {
		return nil, fmt.Errorf("webp rendering: %w", ErrFormatNotSupported)
	}

	background := opts.Background
	if background == "" {
		if opts.Format == FormatJPEG {
			background = backgroundOpaqueWhite
		} else {
			background = backgroundTransparentWhite
		}
	}

	req := remote.RenderRequest{
		PageID:     p.id,
		Width:      opts.Width,
		Height:     opts.Height,
		Format:     int(opts.Format),
		Background: background,
		Quality:    opts.Quality,
	}
	if opts.Crop != nil {
		req.Crop = true
		req.CropX = int(opts.Crop.Left)
		req.CropY = int(opts.Crop.Top)
		req.CropWidth = int(opts.Crop.Width)
		req.CropHeight = int(opts.Crop.Height)
	}

	res, err := p.doc.client.remote.RenderPage(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d of document %s: %w", p.number, p.doc.id, err)
	}
	if res == nil {
		// The engine had nothing to deliver for this request.
		return nil, nil
	}

	var pixels *image.NRGBA
	if res.Path != "" {
		pixels, err = p.doc.client.decoder.DecodeFile(res.Path, opts.RemoveTempFile)
	} else {
		pixels, err = p.doc.client.decoder.DecodeBytes(res.Data)
	}
	if err != nil {
		return nil, err
	}

	return &PageImage{
		PageID:     p.id,
		PageNumber: p.number,
		Width:      res.Width,
		Height:     res.Height,
		Pixels:     pixels,
		Format:     opts.Format,
		Quality:    opts.Quality,
	}, nil
}

// Close releases the page in the engine. A second Close fails with
// ErrPageClosed. Closing the owning document does not close its pages,
// and closing a page is allowed after its document is closed. Once the
// close is accepted the handle stays closed even if the engine call
// returns an error.
func (p *Page) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPageClosed
	}
	p.closed = true
	if err := p.doc.client.remote.ClosePage(ctx, p.id); err != nil {
		return fmt.Errorf("failed to close page %d of document %s: %w", p.number, p.doc.id, err)
	}
	return nil
}
