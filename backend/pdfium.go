package backend

import (
	"fmt"
	"image"
	"os"
	"time"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/webassembly"
)

// PDFiumRasterizer opens documents with go-pdfium running PDFium inside
// a WebAssembly sandbox (pure Go, no CGo).
type PDFiumRasterizer struct {
	pool     pdfium.Pool
	instance pdfium.Pdfium
}

// NewPDFiumRasterizer initializes the WebAssembly pool and claims one
// engine instance from it.
func NewPDFiumRasterizer() (*PDFiumRasterizer, error) {
	// Single instance: renders are serialized by the registry anyway.
	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  1,
		MaxIdle:  1,
		MaxTotal: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PDFium WebAssembly: %w", err)
	}

	instance, err := pool.GetInstance(time.Second * 30)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to get PDFium instance: %w", err)
	}

	return &PDFiumRasterizer{
		pool:     pool,
		instance: instance,
	}, nil
}

func (r *PDFiumRasterizer) OpenPath(path string) (RasterDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read PDF file: %w", err)
	}
	return r.OpenData(data)
}

func (r *PDFiumRasterizer) OpenData(data []byte) (RasterDoc, error) {
	doc, err := r.instance.OpenDocument(&requests.OpenDocument{
		File: &data,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to open PDF document: %w", err)
	}

	pageCountResp, err := r.instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
		Document: doc.Document,
	})
	if err != nil {
		r.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: doc.Document})
		return nil, fmt.Errorf("unable to get page count: %w", err)
	}

	return &pdfiumDoc{
		instance:  r.instance,
		doc:       doc.Document,
		pageCount: pageCountResp.PageCount,
	}, nil
}

// Close releases the engine instance and its WebAssembly pool.
func (r *PDFiumRasterizer) Close() error {
	if r.pool != nil {
		r.pool.Close()
		r.pool = nil
	}
	r.instance = nil
	return nil
}

type pdfiumDoc struct {
	instance  pdfium.Pdfium
	doc       references.FPDF_DOCUMENT
	pageCount int
}

func (d *pdfiumDoc) PageCount() int {
	return d.pageCount
}

func (d *pdfiumDoc) page(pageNumber int) requests.Page {
	return requests.Page{
		ByIndex: &requests.PageByIndex{
			Document: d.doc,
			Index:    pageNumber - 1,
		},
	}
}

func (d *pdfiumDoc) PageSize(pageNumber int) (float64, float64, error) {
	resp, err := d.instance.GetPageSize(&requests.GetPageSize{
		Page: d.page(pageNumber),
	})
	if err != nil {
		return 0, 0, fmt.Errorf("unable to measure page %d: %w", pageNumber, err)
	}
	return resp.Width, resp.Height, nil
}

func (d *pdfiumDoc) RenderPage(pageNumber int, req RasterRequest) (image.Image, error) {
	pageRender, err := d.instance.RenderPageInPixels(&requests.RenderPageInPixels{
		Width:  req.Width,
		Height: req.Height,
		Page:   d.page(pageNumber),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to render page %d: %w", pageNumber, err)
	}
	img := pageRender.Result.Image
	pageRender.Cleanup()
	return img, nil
}

func (d *pdfiumDoc) Close() error {
	_, err := d.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{
		Document: d.doc,
	})
	if err != nil {
		return fmt.Errorf("unable to close PDF document: %w", err)
	}
	return nil
}
