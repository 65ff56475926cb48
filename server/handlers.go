package server

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/drummonds/pdfview/backend"
	"github.com/drummonds/pdfview/database"
)

// Format names for the history table, by wire code.
var formatNames = map[int]string{0: "jpeg", 1: "png", 2: "webp"}

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

type renderRequest struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Format     int    `json:"format"`
	Background string `json:"background"`
	Quality    int    `json:"quality"`
	Crop       bool   `json:"crop"`
	CropX      int    `json:"cropX"`
	CropY      int    `json:"cropY"`
	CropWidth  int    `json:"cropWidth"`
	CropHeight int    `json:"cropHeight"`
}

type renderResponse struct {
	Rendered bool   `json:"rendered"`
	Width    *int   `json:"width,omitempty"`
	Height   *int   `json:"height,omitempty"`
	Data     []byte `json:"data,omitempty"`
	Path     string `json:"path,omitempty"`
	Error    string `json:"error,omitempty"`
}

type textResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

type ackResponse struct {
	Error string `json:"error,omitempty"`
}

type recentRendersResponse struct {
	Renders []database.RenderRecord `json:"renders"`
	Error   string                  `json:"error,omitempty"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Health reports daemon liveness
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// OpenDocument opens a document from a path, an asset name or inline bytes
func (h *Handler) OpenDocument(c echo.Context) error {
	var req openDocumentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, openDocumentResponse{Error: "invalid request body"})
	}

	var (
		id    string
		pages int
		err   error
	)
	switch req.Source {
	case "file":
		id, pages, err = h.Registry.OpenFile(req.Path)
	case "asset":
		id, pages, err = h.Registry.OpenAsset(req.Name)
	case "data":
		id, pages, err = h.Registry.OpenData(req.Data)
	default:
		return c.JSON(http.StatusBadRequest, openDocumentResponse{Error: fmt.Sprintf("unknown source %q", req.Source)})
	}
	if err != nil {
		Logger.Error("Failed to open document", "source", req.Source, "error", err)
		return c.JSON(http.StatusInternalServerError, openDocumentResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, openDocumentResponse{ID: id, PagesCount: pages})
}

// OpenPage opens one page of an open document
func (h *Handler) OpenPage(c echo.Context) error {
	var req openPageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, openPageResponse{Error: "invalid request body"})
	}

	id, width, height, err := h.Registry.OpenPage(c.Param("id"), req.Page)
	if err != nil {
		Logger.Error("Failed to open page", "documentId", c.Param("id"), "page", req.Page, "error", err)
		return c.JSON(http.StatusInternalServerError, openPageResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, openPageResponse{ID: id, Width: width, Height: height})
}

// RenderPage rasterizes a page region and delivers the payload inline
// or as a temporary file, depending on configuration
func (h *Handler) RenderPage(c echo.Context) error {
	var req renderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, renderResponse{Error: "invalid request body"})
	}
	pageID := c.Param("id")

	started := time.Now()
	out, err := h.Registry.Render(backend.RenderParams{
		PageID:     pageID,
		Width:      req.Width,
		Height:     req.Height,
		Format:     req.Format,
		Background: req.Background,
		Quality:    req.Quality,
		Crop:       req.Crop,
		CropX:      req.CropX,
		CropY:      req.CropY,
		CropWidth:  req.CropWidth,
		CropHeight: req.CropHeight,
	})
	if err != nil {
		Logger.Error("Failed to render page", "pageId", pageID, "error", err)
		return c.JSON(http.StatusInternalServerError, renderResponse{Error: err.Error()})
	}
	if out == nil {
		return c.JSON(http.StatusOK, renderResponse{Rendered: false})
	}

	h.recordRender(pageID, req, out, time.Since(started))

	resp := renderResponse{Rendered: true, Width: &out.Width, Height: &out.Height}
	if h.ServerConfig.RenderDelivery == "file" {
		tempFile, err := os.CreateTemp(h.ServerConfig.TempPath, "render-*.img")
		if err != nil {
			Logger.Error("Failed to create render temp file", "error", err)
			return c.JSON(http.StatusInternalServerError, renderResponse{Error: err.Error()})
		}
		if _, err := tempFile.Write(out.Data); err != nil {
			tempFile.Close()
			os.Remove(tempFile.Name())
			Logger.Error("Failed to write render temp file", "error", err)
			return c.JSON(http.StatusInternalServerError, renderResponse{Error: err.Error()})
		}
		tempFile.Close()
		resp.Path = tempFile.Name()
	} else {
		resp.Data = out.Data
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) recordRender(pageID string, req renderRequest, out *backend.RenderOutput, elapsed time.Duration) {
	if h.History == nil {
		return
	}
	documentID, pageNumber, ok := h.Registry.PageInfo(pageID)
	if !ok {
		return
	}
	record := &database.RenderRecord{
		DocumentID: documentID,
		PageNumber: pageNumber,
		Format:     formatNames[req.Format],
		Width:      out.Width,
		Height:     out.Height,
		DurationMS: elapsed.Milliseconds(),
	}
	if err := h.History.Record(record); err != nil {
		Logger.Warn("Failed to record render history", "error", err)
	}
}

// DocumentText extracts the plain text of an open document
func (h *Handler) DocumentText(c echo.Context) error {
	text, err := h.Registry.Text(c.Param("id"))
	if err != nil {
		Logger.Error("Failed to extract text", "documentId", c.Param("id"), "error", err)
		return c.JSON(http.StatusInternalServerError, textResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, textResponse{Text: text})
}

// CloseDocument releases a document and its page handles
func (h *Handler) CloseDocument(c echo.Context) error {
	if err := h.Registry.CloseDocument(c.Param("id")); err != nil {
		Logger.Error("Failed to close document", "documentId", c.Param("id"), "error", err)
		return c.JSON(http.StatusInternalServerError, ackResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, ackResponse{})
}

// ClosePage releases one page handle
func (h *Handler) ClosePage(c echo.Context) error {
	if err := h.Registry.ClosePage(c.Param("id")); err != nil {
		Logger.Error("Failed to close page", "pageId", c.Param("id"), "error", err)
		return c.JSON(http.StatusInternalServerError, ackResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, ackResponse{})
}

// RecentRenders serves the newest entries of the render history
func (h *Handler) RecentRenders(c echo.Context) error {
	if h.History == nil {
		return c.JSON(http.StatusOK, recentRendersResponse{Renders: []database.RenderRecord{}})
	}
	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return c.JSON(http.StatusBadRequest, recentRendersResponse{Error: "invalid limit"})
		}
		limit = parsed
	}
	records, err := h.History.Recent(limit)
	if err != nil {
		Logger.Error("Failed to fetch render history", "error", err)
		return c.JSON(http.StatusInternalServerError, recentRendersResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, recentRendersResponse{Renders: records})
}
