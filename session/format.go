package session

import "fmt"

// ImageFormat selects the codec the rendering engine encodes delivered
// pixels with. The numeric values are the wire codes of the render
// protocol.
type ImageFormat int

const (
	FormatJPEG ImageFormat = iota
	FormatPNG
	FormatWEBP
)

func (f ImageFormat) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	case FormatPNG:
		return "png"
	case FormatWEBP:
		return "webp"
	}
	return fmt.Sprintf("ImageFormat(%d)", int(f))
}

// ParseFormat maps a format name to its ImageFormat.
func ParseFormat(name string) (ImageFormat, error) {
	switch name {
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	case "webp":
		return FormatWEBP, nil
	}
	return 0, fmt.Errorf("unknown image format %q", name)
}

// Default background colours applied when a render request supplies
// none. JPEG has no alpha channel so it gets opaque white; every other
// format gets transparent white.
const (
	backgroundOpaqueWhite      = "#FFFFFFFF"
	backgroundTransparentWhite = "#00FFFFFF"
)
