package backend

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/oklog/ulid/v2"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// Image format codes as used on the wire.
const (
	formatJPEG = 0
	formatPNG  = 1
	formatWEBP = 2
)

const defaultJPEGQuality = 90

// RenderParams mirrors the render call of the wire protocol. The crop
// fields apply only when Crop is true.
type RenderParams struct {
	PageID     string
	Width      int
	Height     int
	Format     int
	Background string
	Quality    int
	Crop       bool
	CropX      int
	CropY      int
	CropWidth  int
	CropHeight int
}

// RenderOutput is a completed server-side render: the encoded payload
// plus its output dimensions.
type RenderOutput struct {
	Width  int
	Height int
	Data   []byte
}

type openDocument struct {
	doc      RasterDoc
	source   []byte // retained for text extraction on memory opens
	path     string // set for file and asset opens
	pages    map[string]int
	lastUsed time.Time
}

type openPage struct {
	documentID string
	number     int
}

// Registry is the daemon's handle table. It owns every document open in
// the rasterization engine and the page handles clients hold against
// them. One mutex serializes all operations, matching the one-request-
// at-a-time nature of the engines behind it.
type Registry struct {
	rast     Rasterizer
	assetDir string

	mu    sync.Mutex
	docs  map[string]*openDocument
	pages map[string]*openPage
}

// NewRegistry creates a handle table over the given engine. assetDir is
// the directory asset opens resolve against.
func NewRegistry(rast Rasterizer, assetDir string) *Registry {
	return &Registry{
		rast:     rast,
		assetDir: assetDir,
		docs:     make(map[string]*openDocument),
		pages:    make(map[string]*openPage),
	}
}

// OpenFile opens the document at a path on the daemon's filesystem.
func (r *Registry) OpenFile(path string) (string, int, error) {
	doc, err := r.rast.OpenPath(path)
	if err != nil {
		return "", 0, err
	}
	return r.register(doc, nil, path), doc.PageCount(), nil
}

// OpenAsset opens a document from the configured asset directory. The
// name is stripped to its base so a client cannot walk out of the
// directory.
func (r *Registry) OpenAsset(name string) (string, int, error) {
	path := filepath.Join(r.assetDir, filepath.Base(name))
	if _, err := os.Stat(path); err != nil {
		return "", 0, fmt.Errorf("unknown asset %q: %w", name, err)
	}
	doc, err := r.rast.OpenPath(path)
	if err != nil {
		return "", 0, err
	}
	return r.register(doc, nil, path), doc.PageCount(), nil
}

// OpenData opens a document from the bytes delivered by the client.
func (r *Registry) OpenData(data []byte) (string, int, error) {
	doc, err := r.rast.OpenData(data)
	if err != nil {
		return "", 0, err
	}
	return r.register(doc, data, ""), doc.PageCount(), nil
}

func (r *Registry) register(doc RasterDoc, source []byte, path string) string {
	id := ulid.Make().String()
	r.mu.Lock()
	r.docs[id] = &openDocument{
		doc:      doc,
		source:   source,
		path:     path,
		pages:    make(map[string]int),
		lastUsed: time.Now(),
	}
	r.mu.Unlock()
	Logger.Debug("Opened document", "id", id, "pages", doc.PageCount())
	return id
}

// OpenPage creates a page handle for the given 1-based page number and
// reports the page's intrinsic size in points.
func (r *Registry) OpenPage(documentID string, pageNumber int) (string, float64, float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	od, ok := r.docs[documentID]
	if !ok {
		return "", 0, 0, fmt.Errorf("unknown document %s", documentID)
	}
	od.lastUsed = time.Now()
	if pageNumber < 1 || pageNumber > od.doc.PageCount() {
		return "", 0, 0, fmt.Errorf("page %d out of range [1, %d]", pageNumber, od.doc.PageCount())
	}
	width, height, err := od.doc.PageSize(pageNumber)
	if err != nil {
		return "", 0, 0, err
	}
	id := ulid.Make().String()
	od.pages[id] = pageNumber
	r.pages[id] = &openPage{documentID: documentID, number: pageNumber}
	return id, width, height, nil
}

// Render rasterizes one page region, composites it onto the requested
// background colour, applies the crop and encodes the result. A nil
// output with a nil error means there was nothing to render for the
// request.
func (r *Registry) Render(params RenderParams) (*RenderOutput, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pg, ok := r.pages[params.PageID]
	if !ok {
		return nil, fmt.Errorf("unknown page %s", params.PageID)
	}
	od, ok := r.docs[pg.documentID]
	if !ok {
		return nil, fmt.Errorf("document for page %s is no longer open", params.PageID)
	}
	od.lastUsed = time.Now()

	if params.Width <= 0 || params.Height <= 0 {
		// Nothing to rasterize; the protocol reports this as a non-result.
		return nil, nil
	}
	if params.Format == formatWEBP {
		return nil, fmt.Errorf("webp encoding is not available")
	}

	background, err := parseHexColor(params.Background)
	if err != nil {
		return nil, err
	}

	img, err := od.doc.RenderPage(pg.number, RasterRequest{Width: params.Width, Height: params.Height})
	if err != nil {
		return nil, fmt.Errorf("unable to render page %d: %w", pg.number, err)
	}

	out := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), background)
	out = imaging.Overlay(out, img, image.Pt(0, 0), 1.0)
	if params.Crop {
		out = imaging.Crop(out, image.Rect(params.CropX, params.CropY, params.CropX+params.CropWidth, params.CropY+params.CropHeight))
	}

	data, err := encodeImage(out, params.Format, params.Quality)
	if err != nil {
		return nil, err
	}
	return &RenderOutput{
		Width:  out.Bounds().Dx(),
		Height: out.Bounds().Dy(),
		Data:   data,
	}, nil
}

// CloseDocument releases a document and forgets the page handles opened
// against it. The page handles become invalid immediately.
func (r *Registry) CloseDocument(documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closeDocumentLocked(documentID)
}

func (r *Registry) closeDocumentLocked(documentID string) error {
	od, ok := r.docs[documentID]
	if !ok {
		return fmt.Errorf("unknown document %s", documentID)
	}
	for pageID := range od.pages {
		delete(r.pages, pageID)
	}
	delete(r.docs, documentID)
	if err := od.doc.Close(); err != nil {
		return fmt.Errorf("unable to close document %s: %w", documentID, err)
	}
	Logger.Debug("Closed document", "id", documentID)
	return nil
}

// ClosePage releases one page handle. The engines hold no per-page
// state, so this only forgets the handle.
func (r *Registry) ClosePage(pageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	pg, ok := r.pages[pageID]
	if !ok {
		return fmt.Errorf("unknown page %s", pageID)
	}
	if od, ok := r.docs[pg.documentID]; ok {
		delete(od.pages, pageID)
		od.lastUsed = time.Now()
	}
	delete(r.pages, pageID)
	return nil
}

// PageInfo reports which document and page number a page handle refers
// to.
func (r *Registry) PageInfo(pageID string) (documentID string, pageNumber int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pg, found := r.pages[pageID]
	if !found {
		return "", 0, false
	}
	return pg.documentID, pg.number, true
}

// Sweep closes every document that has been idle for longer than
// maxIdle and returns how many were closed. It backs the daemon's cron
// janitor.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-maxIdle)
	closed := 0
	for id, od := range r.docs {
		if od.lastUsed.Before(cutoff) {
			if err := r.closeDocumentLocked(id); err != nil {
				Logger.Warn("Failed to close idle document", "id", id, "error", err)
				continue
			}
			closed++
		}
	}
	return closed
}

// Close releases every open document. The engine itself is owned by the
// caller and closed separately.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.docs {
		if err := r.closeDocumentLocked(id); err != nil {
			Logger.Warn("Failed to close document on shutdown", "id", id, "error", err)
		}
	}
	return nil
}

func encodeImage(img image.Image, format, quality int) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case formatJPEG:
		if quality < 1 || quality > 100 {
			quality = defaultJPEGQuality
		}
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, fmt.Errorf("unable to encode jpeg: %w", err)
		}
	case formatPNG:
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, fmt.Errorf("unable to encode png: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown image format code %d", format)
	}
	return buf.Bytes(), nil
}

// parseHexColor reads a #AARRGGBB colour. An empty string means opaque
// white.
func parseHexColor(s string) (color.NRGBA, error) {
	if s == "" {
		return color.NRGBA{R: 255, G: 255, B: 255, A: 255}, nil
	}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid background colour %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid background colour %q: %w", s, err)
	}
	return color.NRGBA{
		A: uint8(v >> 24),
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
	}, nil
}
