// Package decode turns delivered render payloads into decoded pixel
// buffers.
package decode

import (
	"bytes"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
)

// Decoder converts a render payload, delivered inline or as a temporary
// file, into decoded pixels.
type Decoder interface {
	DecodeBytes(data []byte) (*image.NRGBA, error)
	// DecodeFile decodes the payload at path and, when remove is set,
	// deletes the file after a successful read.
	DecodeFile(path string, remove bool) (*image.NRGBA, error)
}

// Imaging decodes payloads with the imaging library, normalising every
// result to NRGBA.
type Imaging struct{}

// DecodeBytes decodes an inline payload.
func (Imaging) DecodeBytes(data []byte) (*image.NRGBA, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode render payload: %w", err)
	}
	return imaging.Clone(img), nil
}

// DecodeFile decodes a payload delivered as a temporary file.
func (Imaging) DecodeFile(path string, remove bool) (*image.NRGBA, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode render file %s: %w", path, err)
	}
	if remove {
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("failed to remove render file %s: %w", path, err)
		}
	}
	return imaging.Clone(img), nil
}
