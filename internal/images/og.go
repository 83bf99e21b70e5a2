package images

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"net/http"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/sync/errgroup"

	"github.com/pyplots/pyplots-backend/internal/domain"
	"github.com/pyplots/pyplots-backend/internal/platform/logger"
	"github.com/pyplots/pyplots-backend/internal/storage"
)

// Open-graph card dimensions.
const (
	OGWidth  = 1200
	OGHeight = 630

	ogHeaderHeight = 96
	collageRows    = 2
	collageCols    = 3
	collageSlots   = collageRows * collageCols
)

var (
	ogBackground = color.NRGBA{R: 0x11, G: 0x18, B: 0x27, A: 0xFF}
	ogCellFill   = color.NRGBA{R: 0x1F, G: 0x29, B: 0x37, A: 0xFF}
	ogTitleWhite = color.NRGBA{R: 0xF9, G: 0xFA, B: 0xFB, A: 0xFF}
)

// OGBuilder composes the branded social-preview cards.
type OGBuilder struct {
	fetcher storage.Fetcher
	log     *logger.Logger
}

func NewOGBuilder(fetcher storage.Fetcher, log *logger.Logger) *OGBuilder {
	return &OGBuilder{
		fetcher: fetcher,
		log:     log.With("component", "OGBuilder"),
	}
}

// ImplementationCard renders the 1200×630 card for one implementation:
// brand header on top, the rendered preview composited below. A missing
// preview object still yields a card, without the image panel.
func (b *OGBuilder) ImplementationCard(ctx context.Context, spec *domain.Spec, impl *domain.Implementation) ([]byte, error) {
	dc := newCardContext(spec.Title)

	body, status, err := b.fetcher.Fetch(ctx, impl.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch preview for og card: %w", err)
	}
	if status == http.StatusOK {
		if img, _, derr := image.Decode(bytes.NewReader(body)); derr == nil {
			drawFitted(dc, img, 0, ogHeaderHeight, OGWidth, OGHeight-ogHeaderHeight)
		} else {
			b.log.Warn("undecodable preview for og card", "spec_id", spec.ID, "library_id", impl.LibraryID, "error", derr)
		}
	} else {
		b.log.Warn("preview missing for og card", "spec_id", spec.ID, "library_id", impl.LibraryID, "status", status)
	}

	dc.SetFontFace(loadFontFace(22))
	dc.SetColor(specIDGray)
	dc.DrawString(spec.ID+" · "+impl.LibraryID, 24, OGHeight-18)

	return encodeCard(dc)
}

// SpecCollage renders the 2×3 grid card for a spec from its six
// best-scored implementations, ties broken by library id. Previews are
// fetched concurrently; a failed cell stays blank.
func (b *OGBuilder) SpecCollage(ctx context.Context, spec *domain.Spec) ([]byte, error) {
	impls := topImplementations(spec, collageSlots)
	if len(impls) == 0 {
		return nil, fmt.Errorf("spec %s has no implementations to collage", spec.ID)
	}

	cells := make([]image.Image, len(impls))
	g, gctx := errgroup.WithContext(ctx)
	for i, impl := range impls {
		i, impl := i, impl
		g.Go(func() error {
			body, status, err := b.fetcher.Fetch(gctx, impl.URL)
			if err != nil || status != http.StatusOK {
				b.log.Warn("collage cell fetch failed", "spec_id", spec.ID, "library_id", impl.LibraryID, "status", status, "error", err)
				return nil
			}
			img, _, derr := image.Decode(bytes.NewReader(body))
			if derr != nil {
				b.log.Warn("collage cell undecodable", "spec_id", spec.ID, "library_id", impl.LibraryID, "error", derr)
				return nil
			}
			cells[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dc := gg.NewContext(OGWidth, OGHeight)
	dc.SetColor(ogBackground)
	dc.Clear()

	cellW := OGWidth / collageCols
	cellH := OGHeight / collageRows
	labelFace := loadFontFace(18)

	for i, impl := range impls {
		x := (i % collageCols) * cellW
		y := (i / collageCols) * cellH

		dc.SetColor(ogCellFill)
		dc.DrawRectangle(float64(x)+2, float64(y)+2, float64(cellW)-4, float64(cellH)-4)
		dc.Fill()

		if cells[i] != nil {
			drawFitted(dc, cells[i], x+4, y+4, cellW-8, cellH-32)
		}

		dc.SetFontFace(labelFace)
		dc.SetColor(specIDGray)
		dc.DrawString(spec.ID+" · "+impl.LibraryID, float64(x)+10, float64(y+cellH)-10)
	}

	return encodeCard(dc)
}

// HomeCard is the static card for the landing page.
func (b *OGBuilder) HomeCard() ([]byte, error) {
	dc := newCardContext("Python plotting examples, reviewed and ready to copy")
	return encodeCard(dc)
}

// CatalogCard is the static card for the catalog page.
func (b *OGBuilder) CatalogCard() ([]byte, error) {
	dc := newCardContext("Browse the full plot catalog")
	return encodeCard(dc)
}

// topImplementations returns up to n servable implementations ordered
// by quality score descending, library id ascending.
func topImplementations(spec *domain.Spec, n int) []*domain.Implementation {
	var impls []*domain.Implementation
	for _, impl := range spec.Implementations {
		if impl != nil && impl.Available() && impl.HasPreview() {
			impls = append(impls, impl)
		}
	}
	sort.Slice(impls, func(i, j int) bool {
		if impls[i].QualityScore != impls[j].QualityScore {
			return impls[i].QualityScore > impls[j].QualityScore
		}
		return impls[i].LibraryID < impls[j].LibraryID
	})
	if len(impls) > n {
		impls = impls[:n]
	}
	return impls
}

// newCardContext draws the shared card chrome: dark background, the
// wordmark top-left and a title line in the header band.
func newCardContext(title string) *gg.Context {
	dc := gg.NewContext(OGWidth, OGHeight)
	dc.SetColor(ogBackground)
	dc.Clear()

	dc.SetFontFace(loadFontFace(48))
	baseline := 62.0
	cursor := 32.0
	for _, p := range []struct {
		text  string
		color color.NRGBA
	}{{"py", brandPy}, {"plots", brandPlots}, {".ai", brandAI}} {
		dc.SetColor(p.color)
		dc.DrawString(p.text, cursor, baseline)
		w, _ := dc.MeasureString(p.text)
		cursor += w
	}

	if title != "" {
		dc.SetFontFace(loadFontFace(28))
		dc.SetColor(ogTitleWhite)
		dc.DrawStringAnchored(title, OGWidth-40, baseline-10, 1, 0)
	}
	return dc
}

// drawFitted scales an image to fit the given box preserving aspect
// ratio and centers it.
func drawFitted(dc *gg.Context, img image.Image, x, y, w, h int) {
	fitted := imaging.Fit(img, w, h, imaging.Lanczos)
	b := fitted.Bounds()
	dc.DrawImage(fitted, x+(w-b.Dx())/2, y+(h-b.Dy())/2)
}

func encodeCard(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode og card: %w", err)
	}
	return buf.Bytes(), nil
}
