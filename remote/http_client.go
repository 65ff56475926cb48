package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPRenderer talks to a renderd instance over its JSON API.
type HTTPRenderer struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewHTTPRenderer creates a renderer client for the daemon at baseURL.
func NewHTTPRenderer(baseURL string) *HTTPRenderer {
	return &HTTPRenderer{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type openDocumentRequest struct {
	Source string `json:"source"`
	Path   string `json:"path,omitempty"`
	Name   string `json:"name,omitempty"`
	Data   []byte `json:"data,omitempty"`
}

type openDocumentResponse struct {
	ID         string `json:"id"`
	PagesCount int    `json:"pagesCount"`
	Error      string `json:"error,omitempty"`
}

type openPageRequest struct {
	Page int `json:"page"`
}

type openPageResponse struct {
	ID     string  `json:"id"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Error  string  `json:"error,omitempty"`
}

type renderResponse struct {
	Rendered bool   `json:"rendered"`
	Width    *int   `json:"width,omitempty"`
	Height   *int   `json:"height,omitempty"`
	Data     []byte `json:"data,omitempty"`
	Path     string `json:"path,omitempty"`
	Error    string `json:"error,omitempty"`
}

type ackResponse struct {
	Error string `json:"error,omitempty"`
}

// OpenPath opens the document at a path on the daemon's filesystem.
func (r *HTTPRenderer) OpenPath(ctx context.Context, path string) (OpenResult, error) {
	return r.open(ctx, openDocumentRequest{Source: "file", Path: path})
}

// OpenAsset opens a document bundled in the daemon's asset directory.
func (r *HTTPRenderer) OpenAsset(ctx context.Context, name string) (OpenResult, error) {
	return r.open(ctx, openDocumentRequest{Source: "asset", Name: name})
}

// OpenData opens a document from an in-memory byte buffer.
func (r *HTTPRenderer) OpenData(ctx context.Context, data []byte) (OpenResult, error) {
	return r.open(ctx, openDocumentRequest{Source: "data", Data: data})
}

func (r *HTTPRenderer) open(ctx context.Context, req openDocumentRequest) (OpenResult, error) {
	var resp openDocumentResponse
	if err := r.post(ctx, "/api/documents", req, &resp); err != nil {
		return OpenResult{}, err
	}
	if resp.Error != "" {
		return OpenResult{}, fmt.Errorf("render service error: %s", resp.Error)
	}
	return OpenResult{ID: resp.ID, PagesCount: resp.PagesCount}, nil
}

// OpenPage opens one page of an open document.
func (r *HTTPRenderer) OpenPage(ctx context.Context, documentID string, pageNumber int) (PageResult, error) {
	var resp openPageResponse
	url := fmt.Sprintf("/api/documents/%s/pages", documentID)
	if err := r.post(ctx, url, openPageRequest{Page: pageNumber}, &resp); err != nil {
		return PageResult{}, err
	}
	if resp.Error != "" {
		return PageResult{}, fmt.Errorf("render service error: %s", resp.Error)
	}
	return PageResult{ID: resp.ID, Width: resp.Width, Height: resp.Height}, nil
}

// RenderPage asks the engine to rasterize a page region. A nil result
// with a nil error means the engine had nothing to deliver.
func (r *HTTPRenderer) RenderPage(ctx context.Context, req RenderRequest) (*RenderResult, error) {
	var resp renderResponse
	url := fmt.Sprintf("/api/pages/%s/render", req.PageID)
	if err := r.post(ctx, url, req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("render service error: %s", resp.Error)
	}
	if !resp.Rendered {
		return nil, nil
	}
	return &RenderResult{
		Width:  resp.Width,
		Height: resp.Height,
		Data:   resp.Data,
		Path:   resp.Path,
	}, nil
}

// CloseDocument releases a document in the engine.
func (r *HTTPRenderer) CloseDocument(ctx context.Context, documentID string) error {
	return r.del(ctx, "/api/documents/"+documentID)
}

// ClosePage releases a page in the engine.
func (r *HTTPRenderer) ClosePage(ctx context.Context, pageID string) error {
	return r.del(ctx, "/api/pages/"+pageID)
}

func (r *HTTPRenderer) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call render service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("render service returned error status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (r *HTTPRenderer) del(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, r.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call render service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("render service returned error status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var ack ackResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if ack.Error != "" {
		return fmt.Errorf("render service error: %s", ack.Error)
	}
	return nil
}
