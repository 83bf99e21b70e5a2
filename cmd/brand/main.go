// Command brand applies the preview branding pipeline to a rendered
// artifact directory in place: watermarks and optimises plot.png,
// writes plot_thumb.png, and watermarks plot.html when present. The
// render automation runs it after each plot render.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pyplots/pyplots-backend/internal/images"
)

func main() {
	thumbWidth := flag.Int("thumb-width", images.DefaultThumbWidth, "thumbnail width in pixels")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: brand [-thumb-width N] <spec-id> <artifact-dir>\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	specID, dir := flag.Arg(0), flag.Arg(1)

	if err := brand(specID, dir, *thumbWidth); err != nil {
		fmt.Fprintf(os.Stderr, "brand: %v\n", err)
		os.Exit(1)
	}
}

func brand(specID, dir string, thumbWidth int) error {
	plotPath := filepath.Join(dir, "plot.png")
	raw, err := os.ReadFile(plotPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", plotPath, err)
	}

	branded, err := images.Watermark(raw, specID)
	if err != nil {
		return fmt.Errorf("watermark: %w", err)
	}
	if err := os.WriteFile(plotPath, branded, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", plotPath, err)
	}

	thumb, err := images.Thumbnail(branded, thumbWidth)
	if err != nil {
		return fmt.Errorf("thumbnail: %w", err)
	}
	thumbPath := filepath.Join(dir, "plot_thumb.png")
	if err := os.WriteFile(thumbPath, thumb, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", thumbPath, err)
	}

	htmlPath := filepath.Join(dir, "plot.html")
	doc, err := os.ReadFile(htmlPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", htmlPath, err)
	}
	return os.WriteFile(htmlPath, images.WatermarkHTML(doc, specID), 0o644)
}
