package repos_test

import (
	"context"
	"testing"

	"github.com/pyplots/pyplots-backend/internal/data/repos"
	"github.com/pyplots/pyplots-backend/internal/data/repos/testutil"
	"github.com/pyplots/pyplots-backend/internal/domain"
)

func strPtr(s string) *string { return &s }

func seedCatalog(t *testing.T, ctx context.Context, rs repos.Set) {
	t.Helper()

	if err := rs.Libraries.EnsureSeed(ctx, nil, domain.SeedLibraries()); err != nil {
		t.Fatalf("seed libraries: %v", err)
	}

	specs := []*domain.Spec{
		{
			ID:    "scatter-basic",
			Title: "Basic Scatter Plot",
			Tags: domain.EncodeTags(domain.TagMap{
				domain.TagPlotType: {"scatter"},
				domain.TagDataType: {"numeric"},
			}),
		},
		{
			ID:    "line-basic",
			Title: "Basic Line Plot",
			Tags: domain.EncodeTags(domain.TagMap{
				domain.TagPlotType: {"line"},
			}),
		},
	}
	for _, spec := range specs {
		if err := rs.Specs.Upsert(ctx, nil, spec); err != nil {
			t.Fatalf("upsert spec %s: %v", spec.ID, err)
		}
	}

	impls := []*domain.Implementation{
		{
			SpecID:       "scatter-basic",
			LibraryID:    "matplotlib",
			Code:         strPtr("import matplotlib.pyplot as plt\n"),
			URL:          "https://storage.googleapis.com/pyplots-data/plots/scatter-basic/matplotlib/plot.png",
			QualityScore: 90,
		},
		{
			SpecID:       "scatter-basic",
			LibraryID:    "seaborn",
			Code:         strPtr("import seaborn as sns\n"),
			URL:          "https://storage.googleapis.com/pyplots-data/plots/scatter-basic/seaborn/plot.png",
			QualityScore: 85,
		},
		{
			SpecID:       "line-basic",
			LibraryID:    "matplotlib",
			Code:         strPtr("import matplotlib.pyplot as plt\n"),
			URL:          "https://storage.googleapis.com/pyplots-data/plots/line-basic/matplotlib/plot.png",
			QualityScore: 88,
		},
	}
	for _, impl := range impls {
		if err := rs.Implementations.Upsert(ctx, nil, impl); err != nil {
			t.Fatalf("upsert impl %s/%s: %v", impl.SpecID, impl.LibraryID, err)
		}
	}
}

func TestSpecUpsertRefreshesExistingRow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutil.DB(t)
	rs := repos.NewSet(db, testutil.Logger(t))
	seedCatalog(t, ctx, rs)

	if err := rs.Specs.Upsert(ctx, nil, &domain.Spec{
		ID:    "scatter-basic",
		Title: "Scatter Plot",
	}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	ids, err := rs.Specs.GetIDs(ctx, nil)
	if err != nil {
		t.Fatalf("ids: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("upsert must not duplicate rows: got=%v", ids)
	}

	spec, err := rs.Specs.GetByID(ctx, nil, "scatter-basic")
	if err != nil || spec == nil {
		t.Fatalf("reload: %v", err)
	}
	if spec.Title != "Scatter Plot" {
		t.Fatalf("title not refreshed: got=%q", spec.Title)
	}
}

func TestImplementationUpsertKeysOnPair(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutil.DB(t)
	rs := repos.NewSet(db, testutil.Logger(t))
	seedCatalog(t, ctx, rs)

	if err := rs.Implementations.Upsert(ctx, nil, &domain.Implementation{
		SpecID:       "scatter-basic",
		LibraryID:    "matplotlib",
		Code:         strPtr("# revised\n"),
		URL:          "https://storage.googleapis.com/pyplots-data/plots/scatter-basic/matplotlib/plot.png",
		QualityScore: 95,
	}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var count int64
	db.Model(&domain.Implementation{}).Count(&count)
	if count != 3 {
		t.Fatalf("pair upsert duplicated a row: count=%d", count)
	}

	impl, err := rs.Implementations.GetByPair(ctx, nil, "scatter-basic", "matplotlib")
	if err != nil || impl == nil {
		t.Fatalf("reload: %v", err)
	}
	if impl.QualityScore != 95 {
		t.Fatalf("score not refreshed: got=%d", impl.QualityScore)
	}
	if impl.Library == nil || impl.Library.Name != "Matplotlib" {
		t.Fatalf("library not preloaded: %+v", impl.Library)
	}
}

func TestGetByPairMissingReturnsNil(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutil.DB(t)
	rs := repos.NewSet(db, testutil.Logger(t))
	seedCatalog(t, ctx, rs)

	impl, err := rs.Implementations.GetByPair(ctx, nil, "scatter-basic", "pygal")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if impl != nil {
		t.Fatalf("expected nil for missing pair, got %+v", impl)
	}
}

func TestSearchByTags(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutil.DB(t)
	rs := repos.NewSet(db, testutil.Logger(t))
	seedCatalog(t, ctx, rs)

	specs, err := rs.Specs.SearchByTags(ctx, nil, []string{"scatter"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(specs) != 1 || specs[0].ID != "scatter-basic" {
		t.Fatalf("scatter search: got=%+v", specs)
	}

	specs, err = rs.Specs.SearchByTags(ctx, nil, []string{"scatter", "line"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("union search: got=%d specs", len(specs))
	}

	specs, err = rs.Specs.SearchByTags(ctx, nil, []string{"heatmap"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(specs) != 0 {
		t.Fatalf("unknown tag must match nothing: got=%+v", specs)
	}

	specs, err = rs.Specs.SearchByTags(ctx, nil, nil)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(specs) != 0 {
		t.Fatalf("empty value set must match nothing: got=%d", len(specs))
	}
}

func TestDeleteNotIn(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutil.DB(t)
	rs := repos.NewSet(db, testutil.Logger(t))
	seedCatalog(t, ctx, rs)

	removed, err := rs.Specs.DeleteNotIn(ctx, nil, []string{"scatter-basic"})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed: got=%d want=1", removed)
	}

	ids, err := rs.Specs.GetIDs(ctx, nil)
	if err != nil {
		t.Fatalf("ids: %v", err)
	}
	if len(ids) != 1 || ids[0] != "scatter-basic" {
		t.Fatalf("surviving specs: got=%v", ids)
	}

	removedImpls, err := rs.Implementations.DeletePairsNotIn(ctx, nil, []repos.ImplPair{
		{SpecID: "scatter-basic", LibraryID: "matplotlib"},
	})
	if err != nil {
		t.Fatalf("delete pairs: %v", err)
	}
	if removedImpls != 2 {
		t.Fatalf("removed impls: got=%d want=2", removedImpls)
	}
}

func TestEnsureSeedIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutil.DB(t)
	rs := repos.NewSet(db, testutil.Logger(t))

	if err := rs.Libraries.EnsureSeed(ctx, nil, domain.SeedLibraries()); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if err := rs.Libraries.Update(ctx, nil, "matplotlib", map[string]interface{}{"version": "3.11"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := rs.Libraries.EnsureSeed(ctx, nil, domain.SeedLibraries()); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	lib, err := rs.Libraries.GetByID(ctx, nil, "matplotlib")
	if err != nil || lib == nil {
		t.Fatalf("reload: %v", err)
	}
	if lib.Version != "3.11" {
		t.Fatalf("reseed must not clobber existing rows: version=%q", lib.Version)
	}
}
