// Package images brands rendered plot artifacts: preview watermarks,
// thumbnails, PNG optimisation and the open-graph card compositions.
package images

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"os/exec"
	"strings"

	_ "image/jpeg"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

// Brand palette for the py / plots / .ai wordmark.
var (
	brandPy    = color.NRGBA{R: 0xFF, G: 0xD4, B: 0x3B, A: 0xFF}
	brandPlots = color.NRGBA{R: 0x4B, G: 0x8B, B: 0xBE, A: 0xFF}
	brandAI    = color.NRGBA{R: 0x9C, G: 0xA3, B: 0xAF, A: 0xFF}
	specIDGray = color.NRGBA{R: 0xD1, G: 0xD5, B: 0xDB, A: 0xE6}
)

const DefaultThumbWidth = 1200

// watermarkMetrics scale the overlay from image width, floored so small
// renders stay legible.
func watermarkMetrics(width int) (fontSize, pad float64) {
	fontSize = float64(width) * 0.0135
	if fontSize < 24 {
		fontSize = 24
	}
	pad = float64(width) * 0.008
	if pad < 15 {
		pad = 15
	}
	return fontSize, pad
}

// Watermark stamps the spec id bottom-left and the brand wordmark
// bottom-right onto a rendered plot PNG, then optimises the result.
func Watermark(raw []byte, specID string) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode plot image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	fontSize, pad := watermarkMetrics(width)

	dc := gg.NewContext(width, height)
	dc.DrawImage(img, 0, 0)
	dc.SetFontFace(loadFontFace(fontSize))

	baseline := float64(height) - pad

	dc.SetColor(specIDGray)
	dc.DrawString(specID, pad, baseline)

	drawWordmarkRightAligned(dc, float64(width)-pad, baseline)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode watermarked PNG: %w", err)
	}
	return Optimize(buf.Bytes())
}

// drawWordmarkRightAligned renders the tri-color wordmark ending at x.
func drawWordmarkRightAligned(dc *gg.Context, x, baseline float64) {
	parts := []struct {
		text  string
		color color.NRGBA
	}{
		{"py", brandPy},
		{"plots", brandPlots},
		{".ai", brandAI},
	}
	total := 0.0
	for _, p := range parts {
		w, _ := dc.MeasureString(p.text)
		total += w
	}
	cursor := x - total
	for _, p := range parts {
		dc.SetColor(p.color)
		dc.DrawString(p.text, cursor, baseline)
		w, _ := dc.MeasureString(p.text)
		cursor += w
	}
}

// Optimize shrinks a PNG with pngquant when the binary is on PATH,
// otherwise re-encodes at best compression.
func Optimize(raw []byte) ([]byte, error) {
	if path, err := exec.LookPath("pngquant"); err == nil {
		if out, err := pngquant(path, raw); err == nil {
			return out, nil
		}
		// fall through to the in-process encoder on any tool failure
	}

	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode PNG for optimisation: %w", err)
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("re-encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func pngquant(bin string, raw []byte) ([]byte, error) {
	in, err := os.CreateTemp("", "plot-*.png")
	if err != nil {
		return nil, err
	}
	defer os.Remove(in.Name())
	if _, err := in.Write(raw); err != nil {
		in.Close()
		return nil, err
	}
	in.Close()

	outPath := strings.TrimSuffix(in.Name(), ".png") + "-fs8.png"
	defer os.Remove(outPath)

	cmd := exec.Command(bin, "--force", "--skip-if-larger", "--quality", "65-90", in.Name())
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pngquant: %w", err)
	}
	return os.ReadFile(outPath)
}

// Thumbnail resizes a PNG down to the given width preserving aspect
// ratio, then optimises. Images already narrower pass through the
// optimiser unscaled.
func Thumbnail(raw []byte, width int) ([]byte, error) {
	if width <= 0 {
		width = DefaultThumbWidth
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image for thumbnail: %w", err)
	}
	if img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return Optimize(buf.Bytes())
}

// htmlWatermarkStyle and htmlWatermarkFooter brand an interactive HTML
// artifact in the same way the PNG watermark does.
const htmlWatermarkStyle = `<style>
.pyplots-frame { position: relative; }
.pyplots-footer {
  display: flex; justify-content: space-between;
  font-family: "DejaVu Sans Mono", "Liberation Mono", monospace;
  font-weight: bold; font-size: 14px; padding: 6px 12px;
  color: #D1D5DB; background: transparent;
}
.pyplots-footer .py { color: #FFD43B; }
.pyplots-footer .plots { color: #4B8BBE; }
.pyplots-footer .ai { color: #9CA3AF; }
</style>`

// WatermarkHTML wraps the original document body in a container div
// and appends a footer with the spec id and wordmark.
func WatermarkHTML(doc []byte, specID string) []byte {
	footer := fmt.Sprintf(
		`<div class="pyplots-footer"><span>%s</span>`+
			`<span><span class="py">py</span><span class="plots">plots</span><span class="ai">.ai</span></span></div>`,
		specID,
	)

	html := string(doc)
	lower := strings.ToLower(html)

	if open := strings.Index(lower, "<body"); open >= 0 {
		if gt := strings.Index(html[open:], ">"); gt >= 0 {
			at := open + gt + 1
			html = html[:at] + htmlWatermarkStyle + `<div class="pyplots-frame">` + html[at:]
		}
	} else {
		html = htmlWatermarkStyle + `<div class="pyplots-frame">` + html
	}

	if idx := strings.LastIndex(strings.ToLower(html), "</body>"); idx >= 0 {
		return []byte(html[:idx] + footer + "</div>" + html[idx:])
	}
	return []byte(html + footer + "</div>")
}
