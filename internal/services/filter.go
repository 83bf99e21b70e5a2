package services

import (
	"context"
	"net/url"

	"gorm.io/gorm"

	"github.com/pyplots/pyplots-backend/internal/cache"
	"github.com/pyplots/pyplots-backend/internal/data/repos"
	"github.com/pyplots/pyplots-backend/internal/filter"
	"github.com/pyplots/pyplots-backend/internal/platform/apierr"
	"github.com/pyplots/pyplots-backend/internal/platform/logger"
)

// FilterService evaluates catalog filter queries, caching full
// responses keyed by the canonical query form so equivalent queries
// share an entry.
type FilterService struct {
	db    *gorm.DB
	repos repos.Set
	cache *cache.Cache
	log   *logger.Logger
}

func NewFilterService(db *gorm.DB, rs repos.Set, c *cache.Cache, log *logger.Logger) *FilterService {
	return &FilterService{
		db:    db,
		repos: rs,
		cache: c,
		log:   log.With("service", "FilterService"),
	}
}

// Filter parses and evaluates a query. Unknown axes surface as
// VALIDATION; unknown values inside a known axis simply match nothing.
func (s *FilterService) Filter(ctx context.Context, values url.Values) (*filter.Response, error) {
	q, err := filter.Parse(values)
	if err != nil {
		return nil, apierr.New(apierr.KindValidation, err)
	}

	// The empty query canonicalises to ""; the prefix is kept so the
	// sync invalidation pattern still matches the entry.
	key := "filter:" + q.Canonical()
	if hit, ok := s.cache.Get(key); ok {
		return hit.(*filter.Response), nil
	}

	specs, err := s.repos.Specs.GetAll(ctx, nil)
	if err != nil {
		return nil, apierr.Internal(err)
	}

	resp := filter.Apply(specs, q)
	s.cache.Set(key, resp)
	return resp, nil
}
