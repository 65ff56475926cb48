// Package remote defines the request/response boundary to the rendering
// engine and an HTTP client speaking the renderd wire protocol.
package remote

import "context"

// OpenResult is the engine's answer to any of the three document open
// calls.
type OpenResult struct {
	ID         string `json:"id"`
	PagesCount int    `json:"pagesCount"`
}

// PageResult describes a freshly opened page: its engine identifier and
// intrinsic size in points.
type PageResult struct {
	ID     string  `json:"id"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RenderRequest carries every parameter of a render call. The four crop
// fields are meaningful only when Crop is true.
type RenderRequest struct {
	PageID     string `json:"pageId"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Format     int    `json:"format"`
	Background string `json:"background"`
	Quality    int    `json:"quality"`
	Crop       bool   `json:"crop"`
	CropX      int    `json:"cropX,omitempty"`
	CropY      int    `json:"cropY,omitempty"`
	CropWidth  int    `json:"cropWidth,omitempty"`
	CropHeight int    `json:"cropHeight,omitempty"`
}

// RenderResult is a completed render. Width and Height are nil when the
// engine did not report output dimensions. The payload arrives either
// inline in Data or as a temporary file named by Path, never both.
type RenderResult struct {
	Width  *int
	Height *int
	Data   []byte
	Path   string
}

// Renderer is the asynchronous boundary to the rendering engine. Every
// call suspends on the engine and returns its response or the transport
// error unmodified.
//
// RenderPage returning (nil, nil) means the engine rendered nothing for
// the request; it is not an error.
type Renderer interface {
	OpenPath(ctx context.Context, path string) (OpenResult, error)
	OpenAsset(ctx context.Context, name string) (OpenResult, error)
	OpenData(ctx context.Context, data []byte) (OpenResult, error)
	OpenPage(ctx context.Context, documentID string, pageNumber int) (PageResult, error)
	RenderPage(ctx context.Context, req RenderRequest) (*RenderResult, error)
	CloseDocument(ctx context.Context, documentID string) error
	ClosePage(ctx context.Context, pageID string) error
}
