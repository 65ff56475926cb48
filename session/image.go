package session

import "image"

// PageImage is the immutable result of one completed render. It is a
// value, not a live handle: there is nothing to close and it takes no
// part in the locking of the handles that produced it.
type PageImage struct {
	// PageID and PageNumber identify the source page.
	PageID     string
	PageNumber int

	// Width and Height are the output dimensions as reported by the
	// engine; nil when the engine omitted them.
	Width  *int
	Height *int

	// Pixels is the decoded raster.
	Pixels *image.NRGBA

	// Format and Quality echo the render request.
	Format  ImageFormat
	Quality int
}

// Equal compares decoded payload length only. It is a cheap heuristic
// for deduplication; callers needing exact comparison must compare
// Pixels directly.
func (pi *PageImage) Equal(other *PageImage) bool {
	if other == nil {
		return false
	}
	return pi.pixelLen() == other.pixelLen()
}

func (pi *PageImage) pixelLen() int {
	if pi.Pixels == nil {
		return 0
	}
	return len(pi.Pixels.Pix)
}
