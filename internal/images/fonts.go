package images

import (
	"fmt"
	"os"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Preferred monospaced bold faces, probed in order after the
// WATERMARK_FONT override.
var fontSearchPaths = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSansMono-Bold.ttf",
	"/usr/share/fonts/dejavu/DejaVuSansMono-Bold.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationMono-Bold.ttf",
	"/usr/share/fonts/liberation/LiberationMono-Bold.ttf",
	"/Library/Fonts/Andale Mono.ttf",
}

// loadFontFace returns a monospaced bold face at the given pixel size,
// falling back through the search paths and finally to the built-in
// bitmap face so rendering never fails outright.
func loadFontFace(size float64) font.Face {
	paths := fontSearchPaths
	if override := os.Getenv("WATERMARK_FONT"); override != "" {
		paths = append([]string{override}, paths...)
	}
	for _, path := range paths {
		face, err := loadTTF(path, size)
		if err == nil {
			return face
		}
	}
	return basicfont.Face7x13
}

func loadTTF(path string, size float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font file: %w", err)
	}
	parsed, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse TTF: %w", err)
	}
	return truetype.NewFace(parsed, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}
