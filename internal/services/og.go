package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pyplots/pyplots-backend/internal/cache"
	"github.com/pyplots/pyplots-backend/internal/images"
	"github.com/pyplots/pyplots-backend/internal/platform/apierr"
	"github.com/pyplots/pyplots-backend/internal/platform/logger"
)

// Composed cards are expensive, so they outlive the default cache TTL.
const ogCardTTL = time.Hour

// OGService composes and caches the branded social-preview cards.
type OGService struct {
	catalog *CatalogService
	builder *images.OGBuilder
	cache   *cache.Cache
	log     *logger.Logger
}

func NewOGService(catalog *CatalogService, builder *images.OGBuilder, c *cache.Cache, log *logger.Logger) *OGService {
	return &OGService{
		catalog: catalog,
		builder: builder,
		cache:   c,
		log:     log.With("service", "OGService"),
	}
}

// ImplementationCard returns the card PNG for one implementation.
func (s *OGService) ImplementationCard(ctx context.Context, specID, libraryID string) ([]byte, error) {
	key := cache.Key("og", specID, libraryID)
	if hit, ok := s.cache.Get(key); ok {
		return hit.([]byte), nil
	}

	spec, err := s.catalog.ServableSpec(ctx, specID)
	if err != nil {
		return nil, err
	}
	for _, impl := range spec.AvailableImplementations() {
		if impl.LibraryID != libraryID {
			continue
		}
		card, err := s.builder.ImplementationCard(ctx, spec, impl)
		if err != nil {
			return nil, apierr.External("compose og card: %v", err)
		}
		s.cache.SetWithTTL(key, card, ogCardTTL)
		return card, nil
	}
	return nil, apierr.NotFound("implementation %s/%s not found", specID, libraryID)
}

// SpecCollage returns the 2×3 collage PNG for one spec.
func (s *OGService) SpecCollage(ctx context.Context, specID string) ([]byte, error) {
	key := cache.Key("og", specID, "collage")
	if hit, ok := s.cache.Get(key); ok {
		return hit.([]byte), nil
	}

	spec, err := s.catalog.ServableSpec(ctx, specID)
	if err != nil {
		return nil, err
	}
	card, err := s.builder.SpecCollage(ctx, spec)
	if err != nil {
		return nil, apierr.External("compose og collage: %v", err)
	}
	s.cache.SetWithTTL(key, card, ogCardTTL)
	return card, nil
}

// StaticCard returns the fixed home or catalog card.
func (s *OGService) StaticCard(name string) ([]byte, error) {
	key := cache.Key("og", name)
	if hit, ok := s.cache.Get(key); ok {
		return hit.([]byte), nil
	}

	var (
		card []byte
		err  error
	)
	switch name {
	case "home":
		card, err = s.builder.HomeCard()
	case "catalog":
		card, err = s.builder.CatalogCard()
	default:
		return nil, apierr.NotFound("unknown og card %q", name)
	}
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("compose %s card: %w", name, err))
	}
	s.cache.SetWithTTL(key, card, ogCardTTL)
	return card, nil
}
