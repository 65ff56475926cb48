package session

import (
	"context"
	"fmt"
	"sync"
)

// Document is a handle to one document open in the rendering engine.
//
// Its mutex serializes every document-level operation: a Close never
// interleaves with a GetPage, and two concurrent GetPage calls for the
// same page number result in exactly one engine call, with the loser
// receiving the winner's cached handle. The page cache is sized at
// construction and each slot is written at most once for the life of
// the document.
type Document struct {
	client    *Client
	id        string
	source    string
	pageCount int

	mu     sync.Mutex
	closed bool
	pages  []*Page // slot n-1 holds page n, write-once
}

// ID returns the engine's identifier for this document. Collections of
// document handles should key on it.
func (d *Document) ID() string { return d.id }

// Source describes where the document was opened from, in the form
// "file:<path>", "asset:<name>" or "memory:binary".
func (d *Document) Source() string { return d.source }

// PageCount reports the number of pages, fixed when the document was
// opened.
func (d *Document) PageCount() int { return d.pageCount }

// Equal reports whether both handles refer to the same engine document.
func (d *Document) Equal(other *Document) bool {
	return other != nil && d.id == other.id
}

func (d *Document) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// GetPage returns the handle for the given 1-based page number, opening
// the page in the engine on first use. Repeated calls for the same page
// number return the cached handle without another engine call, even if
// that handle has since been closed. A failed engine call leaves the
// cache slot empty.
func (d *Document) GetPage(ctx context.Context, pageNumber int) (*Page, error) {
	if pageNumber < 1 || pageNumber > d.pageCount {
		return nil, &PageRangeError{Page: pageNumber, First: 1, Last: d.pageCount}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDocumentClosed
	}
	if page := d.pages[pageNumber-1]; page != nil {
		return page, nil
	}

	res, err := d.client.remote.OpenPage(ctx, d.id, pageNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to open page %d of document %s: %w", pageNumber, d.id, err)
	}
	page := &Page{
		doc:    d,
		id:     res.ID,
		number: pageNumber,
		width:  res.Width,
		height: res.Height,
	}
	d.pages[pageNumber-1] = page
	d.client.logger.Debug("Opened page", "documentId", d.id, "page", pageNumber, "pageId", res.ID)
	return page, nil
}

// Close releases the document in the engine. A second Close fails with
// ErrDocumentClosed. Cached page handles are not closed by this call,
// but any later Render on them observes the closed document. Once the
// close is accepted the handle stays closed even if the engine call
// returns an error.
func (d *Document) Close(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDocumentClosed
	}
	d.closed = true
	if err := d.client.remote.CloseDocument(ctx, d.id); err != nil {
		return fmt.Errorf("failed to close document %s: %w", d.id, err)
	}
	d.client.logger.Debug("Closed document", "id", d.id)
	return nil
}
