package testutil

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/pyplots/pyplots-backend/internal/domain"
)

func SeedLibrary(tb testing.TB, ctx context.Context, tx *gorm.DB, id string) *domain.Library {
	tb.Helper()
	lib := &domain.Library{
		ID:      id,
		Name:    id,
		Version: "1.0",
	}
	if err := tx.WithContext(ctx).Create(lib).Error; err != nil {
		tb.Fatalf("seed library %s: %v", id, err)
	}
	return lib
}

func SeedSpec(tb testing.TB, ctx context.Context, tx *gorm.DB, id, title string, tags domain.TagMap) *domain.Spec {
	tb.Helper()
	spec := &domain.Spec{
		ID:           id,
		Title:        title,
		Description:  "seeded spec",
		Applications: domain.StringArray{"testing"},
		Tags:         domain.EncodeTags(tags),
	}
	if err := tx.WithContext(ctx).Create(spec).Error; err != nil {
		tb.Fatalf("seed spec %s: %v", id, err)
	}
	return spec
}

func SeedImpl(tb testing.TB, ctx context.Context, tx *gorm.DB, specID, libraryID string, opts ...func(*domain.Implementation)) *domain.Implementation {
	tb.Helper()
	code := "import matplotlib.pyplot as plt\n"
	impl := &domain.Implementation{
		ID:           domain.NewUUID(),
		SpecID:       specID,
		LibraryID:    libraryID,
		Code:         &code,
		URL:          "https://storage.googleapis.com/pyplots-data/plots/" + specID + "/" + libraryID + "/plot.png",
		ThumbnailURL: "https://storage.googleapis.com/pyplots-data/plots/" + specID + "/" + libraryID + "/plot_thumb.png",
		QualityScore: 80,
		Tags:         domain.EncodeTags(domain.TagMap{domain.TagDependencies: {"numpy"}}),
		Verdict:      domain.VerdictApproved,
	}
	for _, opt := range opts {
		opt(impl)
	}
	if err := tx.WithContext(ctx).Create(impl).Error; err != nil {
		tb.Fatalf("seed impl %s/%s: %v", specID, libraryID, err)
	}
	return impl
}

// WithoutCode marks the seeded implementation as not yet produced.
func WithoutCode() func(*domain.Implementation) {
	return func(i *domain.Implementation) { i.Code = nil }
}

// WithoutPreview clears the preview URLs.
func WithoutPreview() func(*domain.Implementation) {
	return func(i *domain.Implementation) {
		i.URL = ""
		i.ThumbnailURL = ""
	}
}

// WithScore sets the quality score.
func WithScore(score int) func(*domain.Implementation) {
	return func(i *domain.Implementation) { i.QualityScore = score }
}

// WithImplTags overrides the implementation tag map.
func WithImplTags(tags domain.TagMap) func(*domain.Implementation) {
	return func(i *domain.Implementation) { i.Tags = domain.EncodeTags(tags) }
}
