package backend

import (
	"bytes"
	"fmt"
	"time"

	"github.com/ledongthuc/pdf"
)

// Text extracts the plain text of every page of an open document. It
// reads the original PDF source rather than the rasterization engine,
// so pages with unextractable text are skipped instead of failing the
// whole document.
func (r *Registry) Text(documentID string) (string, error) {
	r.mu.Lock()
	od, ok := r.docs[documentID]
	var source []byte
	var path string
	if ok {
		od.lastUsed = time.Now()
		source = od.source
		path = od.path
	}
	r.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("unknown document %s", documentID)
	}

	var pdfReader *pdf.Reader
	if path != "" {
		file, reader, err := pdf.Open(path)
		if err != nil {
			return "", fmt.Errorf("failed to create PDF reader: %w", err)
		}
		defer file.Close()
		pdfReader = reader
	} else {
		reader, err := pdf.NewReader(bytes.NewReader(source), int64(len(source)))
		if err != nil {
			return "", fmt.Errorf("failed to create PDF reader: %w", err)
		}
		pdfReader = reader
	}

	totalPages := pdfReader.NumPage()
	var fullText string
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			Logger.Warn("Failed to extract text from page", "documentId", documentID, "page", pageNum, "error", err)
			continue
		}
		fullText += text
	}
	return fullText, nil
}
