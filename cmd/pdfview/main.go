// pdfview renders one page of a PDF through a renderd daemon and saves
// the result as an image file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/drummonds/pdfview/config"
	"github.com/drummonds/pdfview/remote"
	"github.com/drummonds/pdfview/session"
)

func main() {
	serverConfig, logger := config.SetupServer()

	addr := flag.String("addr", serverConfig.RenderServiceURL, "renderd base URL")
	input := flag.String("in", "", "PDF file to render")
	pageNumber := flag.Int("page", 1, "1-based page number")
	output := flag.String("out", "page.png", "output image file")
	width := flag.Int("width", 0, "output width in pixels (0 = page width in points)")
	height := flag.Int("height", 0, "output height in pixels (0 = page height in points)")
	formatName := flag.String("format", "png", "render format: jpeg, png or webp")
	quality := flag.Int("quality", 90, "encoder quality, 0-100")
	background := flag.String("bg", "", "background colour as #AARRGGBB")
	cropSpec := flag.String("crop", "", "crop rectangle as left,top,width,height in output pixels")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "pdfview: -in is required")
		flag.Usage()
		os.Exit(2)
	}

	format, err := session.ParseFormat(*formatName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdfview: %v\n", err)
		os.Exit(2)
	}

	crop, err := parseCrop(*cropSpec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdfview: %v\n", err)
		os.Exit(2)
	}

	// Open by bytes so the daemon does not need to share our filesystem.
	data, err := os.ReadFile(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdfview: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	client := session.NewClient(remote.NewHTTPRenderer(*addr), nil, nil, logger)

	doc, err := client.OpenData(ctx, data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdfview: %v\n", err)
		os.Exit(1)
	}
	defer doc.Close(ctx)

	page, err := doc.GetPage(ctx, *pageNumber)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdfview: %v\n", err)
		os.Exit(1)
	}

	if *width == 0 {
		*width = int(page.Width())
	}
	if *height == 0 {
		*height = int(page.Height())
	}

	img, err := page.Render(ctx, session.RenderOptions{
		Width:          *width,
		Height:         *height,
		Format:         format,
		Background:     *background,
		Crop:           crop,
		Quality:        *quality,
		RemoveTempFile: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdfview: %v\n", err)
		os.Exit(1)
	}
	if img == nil {
		fmt.Fprintln(os.Stderr, "pdfview: nothing rendered")
		os.Exit(1)
	}

	if err := imaging.Save(img.Pixels, *output); err != nil {
		fmt.Fprintf(os.Stderr, "pdfview: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Rendered page %d of %s to %s\n", *pageNumber, *input, *output)
}

// parseCrop reads "left,top,width,height".
func parseCrop(spec string) (*session.Rect, error) {
	if spec == "" {
		return nil, nil
	}
	parts := strings.Split(spec, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("invalid crop %q: want left,top,width,height", spec)
	}
	values := make([]float64, 4)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid crop %q: %w", spec, err)
		}
		values[i] = v
	}
	return &session.Rect{Left: values[0], Top: values[1], Width: values[2], Height: values[3]}, nil
}
