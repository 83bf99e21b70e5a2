package services

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"github.com/pyplots/pyplots-backend/internal/cache"
	"github.com/pyplots/pyplots-backend/internal/data/repos"
	"github.com/pyplots/pyplots-backend/internal/domain"
	"github.com/pyplots/pyplots-backend/internal/platform/apierr"
	"github.com/pyplots/pyplots-backend/internal/platform/logger"
)

// CatalogService serves the cached listing and detail reads. Specs
// with zero available implementations are treated as nonexistent
// throughout.
type CatalogService struct {
	db    *gorm.DB
	repos repos.Set
	cache *cache.Cache
	log   *logger.Logger
}

func NewCatalogService(db *gorm.DB, rs repos.Set, c *cache.Cache, log *logger.Logger) *CatalogService {
	return &CatalogService{
		db:    db,
		repos: rs,
		cache: c,
		log:   log.With("service", "CatalogService"),
	}
}

// Libraries lists the supported plotting libraries. Without a
// configured database the fixed seed set is returned, so the endpoint
// stays useful on a cold deployment.
func (s *CatalogService) Libraries(ctx context.Context) ([]*domain.Library, error) {
	if s.db == nil {
		return domain.SeedLibraries(), nil
	}

	const key = "libraries"
	if hit, ok := s.cache.Get(key); ok {
		return hit.([]*domain.Library), nil
	}

	libs, err := s.repos.Libraries.GetAll(ctx, nil)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	s.cache.Set(key, libs)
	return libs, nil
}

// LibraryImages lists every servable preview for one library.
func (s *CatalogService) LibraryImages(ctx context.Context, libraryID string) ([]ImageView, error) {
	key := cache.Key("lib_images", libraryID)
	if hit, ok := s.cache.Get(key); ok {
		return hit.([]ImageView), nil
	}

	lib, err := s.repos.Libraries.GetByID(ctx, nil, libraryID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if lib == nil {
		return nil, apierr.NotFound("library %q not found", libraryID)
	}

	impls, err := s.repos.Implementations.GetByLibraryID(ctx, nil, libraryID)
	if err != nil {
		return nil, apierr.Internal(err)
	}

	images := make([]ImageView, 0, len(impls))
	for _, impl := range impls {
		if impl.Available() && impl.HasPreview() {
			images = append(images, imageView(impl))
		}
	}
	sort.Slice(images, func(i, j int) bool { return images[i].SpecID < images[j].SpecID })

	s.cache.Set(key, images)
	return images, nil
}

// ListSpecs returns every spec that has at least one available
// implementation.
func (s *CatalogService) ListSpecs(ctx context.Context) ([]SpecListItem, error) {
	const key = "specs_list"
	if hit, ok := s.cache.Get(key); ok {
		return hit.([]SpecListItem), nil
	}

	specs, err := s.repos.Specs.GetAll(ctx, nil)
	if err != nil {
		return nil, apierr.Internal(err)
	}

	items := make([]SpecListItem, 0, len(specs))
	for _, spec := range specs {
		avail := spec.AvailableImplementations()
		if len(avail) == 0 {
			continue
		}
		items = append(items, SpecListItemFor(spec, avail))
	}

	s.cache.Set(key, items)
	return items, nil
}

// SpecListItemFor builds the catalog list entry for a spec. avail must
// hold at least one implementation.
func SpecListItemFor(spec *domain.Spec, avail []*domain.Implementation) SpecListItem {
	libs := make([]string, 0, len(avail))
	best := avail[0]
	for _, impl := range avail {
		libs = append(libs, impl.LibraryID)
		if impl.QualityScore > best.QualityScore ||
			(impl.QualityScore == best.QualityScore && impl.LibraryID < best.LibraryID) {
			best = impl
		}
	}
	sort.Strings(libs)

	return SpecListItem{
		ID:           spec.ID,
		Title:        spec.Title,
		Description:  spec.Description,
		Tags:         domain.DecodeTags(spec.Tags),
		Libraries:    libs,
		LibraryCount: len(libs),
		ThumbnailURL: best.ThumbnailURL,
		CreatedAt:    spec.CreatedAt,
		UpdatedAt:    spec.UpdatedAt,
	}
}

// GetSpec returns the full detail for one spec.
func (s *CatalogService) GetSpec(ctx context.Context, specID string) (*SpecDetail, error) {
	key := cache.Key("spec", specID)
	if hit, ok := s.cache.Get(key); ok {
		return hit.(*SpecDetail), nil
	}

	spec, err := s.loadServableSpec(ctx, specID)
	if err != nil {
		return nil, err
	}

	avail := spec.AvailableImplementations()
	sort.Slice(avail, func(i, j int) bool { return avail[i].LibraryID < avail[j].LibraryID })

	detail := &SpecDetail{
		ID:               spec.ID,
		Title:            spec.Title,
		Description:      spec.Description,
		Applications:     spec.Applications,
		DataRequirements: spec.DataRequirements,
		Notes:            spec.Notes,
		Tags:             domain.DecodeTags(spec.Tags),
		IssueNumber:      spec.IssueNumber,
		Contributor:      spec.Contributor,
		CreatedAt:        spec.CreatedAt,
		UpdatedAt:        spec.UpdatedAt,
	}
	for _, impl := range avail {
		detail.Implementations = append(detail.Implementations, ImplView(impl))
	}

	s.cache.Set(key, detail)
	return detail, nil
}

// SpecImages lists the preview artifacts of one spec, per
// implementation.
func (s *CatalogService) SpecImages(ctx context.Context, specID string) ([]ImageView, error) {
	key := cache.Key("spec_images", specID)
	if hit, ok := s.cache.Get(key); ok {
		return hit.([]ImageView), nil
	}

	spec, err := s.loadServableSpec(ctx, specID)
	if err != nil {
		return nil, err
	}

	var images []ImageView
	for _, impl := range spec.AvailableImplementations() {
		if impl.HasPreview() {
			images = append(images, imageView(impl))
		}
	}
	sort.Slice(images, func(i, j int) bool { return images[i].Library < images[j].Library })

	s.cache.Set(key, images)
	return images, nil
}

// ServableSpec loads a spec with its implementations preloaded,
// applying the zero-implementations-means-nonexistent rule. Used by
// the OG composition path, which needs raw rows rather than views.
func (s *CatalogService) ServableSpec(ctx context.Context, specID string) (*domain.Spec, error) {
	return s.loadServableSpec(ctx, specID)
}

func (s *CatalogService) loadServableSpec(ctx context.Context, specID string) (*domain.Spec, error) {
	spec, err := s.repos.Specs.GetByID(ctx, nil, specID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if spec == nil || len(spec.AvailableImplementations()) == 0 {
		return nil, apierr.NotFound("spec %q not found", specID)
	}
	return spec, nil
}

// Implementation returns one servable implementation by its
// (spec, library) pair.
func (s *CatalogService) Implementation(ctx context.Context, specID, libraryID string) (*domain.Implementation, error) {
	impl, err := s.repos.Implementations.GetByPair(ctx, nil, specID, libraryID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if impl == nil || !impl.Available() || !impl.HasPreview() {
		return nil, apierr.NotFound("implementation %s/%s not found", specID, libraryID)
	}
	return impl, nil
}

// Stats reports the catalog counters.
func (s *CatalogService) Stats(ctx context.Context) (*Stats, error) {
	const key = "stats"
	if hit, ok := s.cache.Get(key); ok {
		return hit.(*Stats), nil
	}

	specs, err := s.repos.Specs.GetAll(ctx, nil)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	libs, err := s.repos.Libraries.GetAll(ctx, nil)
	if err != nil {
		return nil, apierr.Internal(err)
	}

	stats := &Stats{ImplsPerLibrary: map[string]int{}}
	scoreSum := 0
	for _, spec := range specs {
		avail := spec.AvailableImplementations()
		if len(avail) == 0 {
			continue
		}
		stats.SpecCount++
		for _, impl := range avail {
			stats.ImplementationCount++
			stats.ImplsPerLibrary[impl.LibraryID]++
			scoreSum += impl.QualityScore
		}
	}
	stats.LibraryCount = len(libs)
	if stats.ImplementationCount > 0 {
		stats.AverageQuality = float64(scoreSum) / float64(stats.ImplementationCount)
	}

	s.cache.Set(key, stats)
	return stats, nil
}
