package services

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"strings"

	"github.com/pyplots/pyplots-backend/internal/cache"
	"github.com/pyplots/pyplots-backend/internal/platform/logger"
)

// SEOService renders the sitemap and the minimal bot-facing pages that
// carry open-graph metadata for link unfurling.
type SEOService struct {
	catalog *CatalogService
	cache   *cache.Cache
	baseURL string
	log     *logger.Logger
}

func NewSEOService(catalog *CatalogService, c *cache.Cache, baseURL string, log *logger.Logger) *SEOService {
	return &SEOService{
		catalog: catalog,
		cache:   c,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log.With("service", "SEOService"),
	}
}

type sitemapURL struct {
	XMLName xml.Name     `xml:"url"`
	Loc     string       `xml:"loc"`
	Images  []sitemapImg `xml:"image:image,omitempty"`
}

type sitemapImg struct {
	Loc string `xml:"image:loc"`
}

type sitemapSet struct {
	XMLName  xml.Name     `xml:"urlset"`
	Xmlns    string       `xml:"xmlns,attr"`
	XmlnsImg string       `xml:"xmlns:image,attr"`
	URLs     []sitemapURL `xml:"url"`
}

// Sitemap builds the XML sitemap over spec and implementation pages,
// with image entries pointing at the preview PNGs.
func (s *SEOService) Sitemap(ctx context.Context) ([]byte, error) {
	const key = "sitemap"
	if hit, ok := s.cache.Get(key); ok {
		return hit.([]byte), nil
	}

	items, err := s.catalog.ListSpecs(ctx)
	if err != nil {
		return nil, err
	}

	set := sitemapSet{
		Xmlns:    "http://www.sitemaps.org/schemas/sitemap/0.9",
		XmlnsImg: "http://www.google.com/schemas/sitemap-image/1.1",
		URLs: []sitemapURL{
			{Loc: s.baseURL + "/"},
			{Loc: s.baseURL + "/catalog"},
		},
	}
	for _, item := range items {
		entry := sitemapURL{Loc: s.specURL(item.ID)}
		if item.ThumbnailURL != "" {
			entry.Images = append(entry.Images, sitemapImg{Loc: item.ThumbnailURL})
		}
		set.URLs = append(set.URLs, entry)
		for _, lib := range item.Libraries {
			set.URLs = append(set.URLs, sitemapURL{Loc: s.specURL(item.ID) + "/" + lib})
		}
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal sitemap: %w", err)
	}
	out := append([]byte(xml.Header), body...)
	s.cache.Set(key, out)
	return out, nil
}

func (s *SEOService) specURL(specID string) string {
	return s.baseURL + "/plots/" + specID
}

// HomePage renders the bot-facing HTML for the landing page.
func (s *SEOService) HomePage() []byte {
	return s.botPage(
		"pyplots.ai — Python plotting examples",
		"AI-generated, reviewed plot examples across the major Python plotting libraries.",
		s.baseURL+"/",
		s.baseURL+"/og/home.png",
	)
}

// SpecPage renders the bot-facing HTML for one spec, pointing
// unfurlers at the collage card.
func (s *SEOService) SpecPage(ctx context.Context, specID string) ([]byte, error) {
	detail, err := s.catalog.GetSpec(ctx, specID)
	if err != nil {
		return nil, err
	}
	return s.botPage(
		detail.Title+" — pyplots.ai",
		detail.Description,
		s.specURL(specID),
		s.baseURL+"/og/"+specID+".png",
	), nil
}

func (s *SEOService) botPage(title, description, canonical, ogImage string) []byte {
	var b strings.Builder
	esc := html.EscapeString

	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", esc(title))
	fmt.Fprintf(&b, "<link rel=\"canonical\" href=%q>\n", canonical)
	fmt.Fprintf(&b, "<meta name=\"description\" content=%q>\n", esc(description))
	fmt.Fprintf(&b, "<meta property=\"og:title\" content=%q>\n", esc(title))
	fmt.Fprintf(&b, "<meta property=\"og:description\" content=%q>\n", esc(description))
	fmt.Fprintf(&b, "<meta property=\"og:url\" content=%q>\n", canonical)
	fmt.Fprintf(&b, "<meta property=\"og:image\" content=%q>\n", ogImage)
	b.WriteString("<meta property=\"og:type\" content=\"website\">\n")
	b.WriteString("<meta name=\"twitter:card\" content=\"summary_large_image\">\n")
	fmt.Fprintf(&b, "<meta name=\"twitter:image\" content=%q>\n", ogImage)
	b.WriteString("</head>\n<body>\n")
	fmt.Fprintf(&b, "<h1>%s</h1>\n<p>%s</p>\n", esc(title), esc(description))
	fmt.Fprintf(&b, "<a href=%q>%s</a>\n", canonical, canonical)
	b.WriteString("</body>\n</html>\n")
	return []byte(b.String())
}
