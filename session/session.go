// Package session manages document and page handles backed by a remote
// rendering engine.
//
// A Client opens documents; the resulting Document and Page handles
// serialize their own lifecycle operations, open each page in the engine
// at most once, and refuse use after close. Handles are stateful proxies
// for resources living in the engine, so every operation re-validates
// the handle's state before touching the wire.
package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/drummonds/pdfview/decode"
	"github.com/drummonds/pdfview/platform"
	"github.com/drummonds/pdfview/remote"
)

// Client opens documents against a remote rendering engine. It keeps no
// state of its own past construction; all lifecycle state lives in the
// handles it hands out.
type Client struct {
	remote  remote.Renderer
	decoder decode.Decoder
	probe   platform.Probe
	logger  *slog.Logger
}

// NewClient creates a session manager talking to renderer. decoder,
// probe and logger may be nil, selecting the imaging decoder, the host
// platform probe and slog.Default respectively.
func NewClient(renderer remote.Renderer, decoder decode.Decoder, probe platform.Probe, logger *slog.Logger) *Client {
	if decoder == nil {
		decoder = decode.Imaging{}
	}
	if probe == nil {
		probe = platform.Host()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		remote:  renderer,
		decoder: decoder,
		probe:   probe,
		logger:  logger,
	}
}

// OpenFile opens the document at a filesystem path. Every call opens a
// fresh document in the engine, even for a path opened before; callers
// wanting reuse hold on to the handle. On a web runtime there is no
// filesystem to read from and the call fails before reaching the
// engine.
func (c *Client) OpenFile(ctx context.Context, path string) (*Document, error) {
	if c.probe.IsWeb() {
		return nil, fmt.Errorf("open by file path: %w", ErrPlatformNotSupported)
	}
	res, err := c.remote.OpenPath(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document %s: %w", path, err)
	}
	return c.newDocument(res, "file:"+path), nil
}

// OpenAsset opens a document bundled under the engine's asset directory.
func (c *Client) OpenAsset(ctx context.Context, name string) (*Document, error) {
	res, err := c.remote.OpenAsset(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to open asset %s: %w", name, err)
	}
	return c.newDocument(res, "asset:"+name), nil
}

// OpenData opens a document from an in-memory byte buffer.
func (c *Client) OpenData(ctx context.Context, data []byte) (*Document, error) {
	res, err := c.remote.OpenData(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("failed to open document from memory: %w", err)
	}
	return c.newDocument(res, "memory:binary"), nil
}

func (c *Client) newDocument(res remote.OpenResult, source string) *Document {
	c.logger.Debug("Opened document", "id", res.ID, "source", source, "pages", res.PagesCount)
	return &Document{
		client:    c,
		id:        res.ID,
		source:    source,
		pageCount: res.PagesCount,
		pages:     make([]*Page, res.PagesCount),
	}
}
