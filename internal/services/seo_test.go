package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pyplots/pyplots-backend/internal/cache"
	"github.com/pyplots/pyplots-backend/internal/data/repos/testutil"
	"github.com/pyplots/pyplots-backend/internal/platform/apierr"
	"github.com/pyplots/pyplots-backend/internal/services"
)

func newSEO(t *testing.T) *services.SEOService {
	t.Helper()
	db := testutil.DB(t)
	seedCatalog(t, db)
	log := testutil.Logger(t)
	c := cache.New(64, time.Minute)
	t.Cleanup(c.Close)
	catalog := newCatalog(t, db)
	return services.NewSEOService(catalog, c, "https://pyplots.ai/", log)
}

func TestSitemap(t *testing.T) {
	t.Parallel()
	svc := newSEO(t)

	body, err := svc.Sitemap(context.Background())
	if err != nil {
		t.Fatalf("sitemap: %v", err)
	}
	got := string(body)

	if !strings.HasPrefix(got, "<?xml") {
		t.Fatalf("missing xml header: %q", got[:40])
	}
	for _, loc := range []string{
		"<loc>https://pyplots.ai/</loc>",
		"<loc>https://pyplots.ai/catalog</loc>",
		"<loc>https://pyplots.ai/plots/scatter-basic</loc>",
		"<loc>https://pyplots.ai/plots/scatter-basic/seaborn</loc>",
		"<loc>https://pyplots.ai/plots/line-basic/matplotlib</loc>",
	} {
		if !strings.Contains(got, loc) {
			t.Fatalf("sitemap missing %s", loc)
		}
	}
	if strings.Contains(got, "heatmap-pending") {
		t.Fatalf("unservable spec leaked into sitemap")
	}
	if !strings.Contains(got, "<image:loc>") {
		t.Fatalf("sitemap carries no image entries")
	}
}

func TestSpecPageMetadata(t *testing.T) {
	t.Parallel()
	svc := newSEO(t)

	body, err := svc.SpecPage(context.Background(), "scatter-basic")
	if err != nil {
		t.Fatalf("spec page: %v", err)
	}
	got := string(body)

	if !strings.Contains(got, `rel="canonical" href="https://pyplots.ai/plots/scatter-basic"`) {
		t.Fatalf("canonical link missing:\n%s", got)
	}
	if !strings.Contains(got, `og:image" content="https://pyplots.ai/og/scatter-basic.png"`) {
		t.Fatalf("og:image missing:\n%s", got)
	}
	if !strings.Contains(got, "Basic Scatter Plot") {
		t.Fatalf("title missing:\n%s", got)
	}

	_, err = svc.SpecPage(context.Background(), "heatmap-pending")
	if apierr.KindOf(err) != apierr.KindNotFound {
		t.Fatalf("unservable spec: kind=%s want NOT_FOUND", apierr.KindOf(err))
	}
}

func TestHomePageMetadata(t *testing.T) {
	t.Parallel()
	svc := newSEO(t)

	got := string(svc.HomePage())
	if !strings.Contains(got, `og:image" content="https://pyplots.ai/og/home.png"`) {
		t.Fatalf("home og:image missing:\n%s", got)
	}
	if !strings.Contains(got, `twitter:card" content="summary_large_image"`) {
		t.Fatalf("twitter card missing:\n%s", got)
	}
}
