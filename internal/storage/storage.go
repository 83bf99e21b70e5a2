// Package storage resolves the bucket layout for plot artifacts and
// fetches them over HTTP or straight from GCS.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"

	"github.com/pyplots/pyplots-backend/internal/platform/logger"
)

// Config names the public bucket and the host it is served from.
type Config struct {
	Bucket string
	Host   string
}

// BaseURL returns the public root of the bucket, without a trailing
// slash.
func (c Config) BaseURL() string {
	return fmt.Sprintf("https://%s/%s", c.Host, c.Bucket)
}

// PreviewURL returns the canonical location of the full-size preview
// image for one implementation.
func (c Config) PreviewURL(specID, libraryID string) string {
	return fmt.Sprintf("%s/plots/%s/%s/plot.png", c.BaseURL(), specID, libraryID)
}

// ThumbURL returns the canonical location of the thumbnail image.
func (c Config) ThumbURL(specID, libraryID string) string {
	return fmt.Sprintf("%s/plots/%s/%s/plot_thumb.png", c.BaseURL(), specID, libraryID)
}

// HTMLURL returns the canonical location of the interactive HTML
// artifact, present only for libraries that emit one.
func (c Config) HTMLURL(specID, libraryID string) string {
	return fmt.Sprintf("%s/plots/%s/%s/plot.html", c.BaseURL(), specID, libraryID)
}

// ObjectKey extracts the object path of a bucket URL, or "" when the
// URL does not live under this bucket.
func (c Config) ObjectKey(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	prefix := "/" + c.Bucket + "/"
	if !strings.EqualFold(parsed.Host, c.Host) || !strings.HasPrefix(parsed.Path, prefix) {
		return ""
	}
	return strings.TrimPrefix(parsed.Path, prefix)
}

// Fetcher retrieves an artifact by its public URL. The returned status
// follows HTTP semantics: 200 with a body on success, 404 when the
// object does not exist, anything else is an upstream failure.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (body []byte, status int, err error)
}

// HTTPFetcher fetches artifacts through the public bucket endpoint.
type HTTPFetcher struct {
	client *http.Client
	log    *logger.Logger
}

func NewHTTPFetcher(log *logger.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log.With("component", "HTTPFetcher"),
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build fetch request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return nil, resp.StatusCode, nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read fetch body: %w", err)
	}
	return body, http.StatusOK, nil
}

// GCSFetcher reads artifacts directly from the bucket with a storage
// client, bypassing the public endpoint. URLs outside the configured
// bucket report not found.
type GCSFetcher struct {
	client *gcs.Client
	cfg    Config
	log    *logger.Logger
}

func NewGCSFetcher(ctx context.Context, cfg Config, log *logger.Logger) (*GCSFetcher, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSFetcher{
		client: client,
		cfg:    cfg,
		log:    log.With("component", "GCSFetcher"),
	}, nil
}

func (f *GCSFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, int, error) {
	key := f.cfg.ObjectKey(rawURL)
	if key == "" {
		return nil, http.StatusNotFound, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	r, err := f.client.Bucket(f.cfg.Bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, http.StatusNotFound, nil
		}
		return nil, 0, fmt.Errorf("open object %s: %w", key, err)
	}
	defer r.Close()

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("read object %s: %w", key, err)
	}
	return body, http.StatusOK, nil
}

func (f *GCSFetcher) Close() error {
	return f.client.Close()
}
