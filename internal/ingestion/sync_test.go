package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pyplots/pyplots-backend/internal/cache"
	"github.com/pyplots/pyplots-backend/internal/data/repos"
	"github.com/pyplots/pyplots-backend/internal/data/repos/testutil"
	"github.com/pyplots/pyplots-backend/internal/domain"
)

func TestSyncFullRescan(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	root := t.TempDir()
	writeScatterFixture(t, root)

	syncer := NewSyncer(db, log, root, nil)
	result, err := syncer.Run(ctx)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if result.SpecsSynced != 1 || result.ImplsSynced != 1 {
		t.Fatalf("counts: %+v", result)
	}
	if result.SpecsRemoved != 0 || result.ImplsRemoved != 0 {
		t.Fatalf("first run must remove nothing: %+v", result)
	}

	specRepo := repos.NewSpecRepo(db, log)
	spec, err := specRepo.GetByID(ctx, nil, "scatter-basic")
	if err != nil || spec == nil {
		t.Fatalf("spec not synced: %v", err)
	}
	if spec.Title != "Basic Scatter Plot" {
		t.Fatalf("title: got=%q", spec.Title)
	}
	if len(spec.Implementations) != 1 {
		t.Fatalf("impl count: got=%d", len(spec.Implementations))
	}

	libRepo := repos.NewLibraryRepo(db, log)
	ids, err := libRepo.GetIDs(ctx, nil)
	if err != nil {
		t.Fatalf("library ids: %v", err)
	}
	if len(ids) < 6 {
		t.Fatalf("seed libraries missing: got=%v", ids)
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	root := t.TempDir()
	writeScatterFixture(t, root)

	syncer := NewSyncer(db, log, root, nil)
	if _, err := syncer.Run(ctx); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	second, err := syncer.Run(ctx)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if second.SpecsRemoved != 0 || second.ImplsRemoved != 0 {
		t.Fatalf("unchanged tree must remove nothing: %+v", second)
	}

	var specCount, implCount int64
	db.Model(&domain.Spec{}).Count(&specCount)
	db.Model(&domain.Implementation{}).Count(&implCount)
	if specCount != 1 || implCount != 1 {
		t.Fatalf("row counts after double sync: specs=%d impls=%d", specCount, implCount)
	}
}

func TestSyncRemovesVanishedSpecs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	root := t.TempDir()
	writeScatterFixture(t, root)
	writeExtendedReviewFixture(t, root)

	syncer := NewSyncer(db, log, root, nil)
	if _, err := syncer.Run(ctx); err != nil {
		t.Fatalf("first sync: %v", err)
	}

	if err := os.RemoveAll(filepath.Join(root, "extended-review")); err != nil {
		t.Fatalf("remove fixture dir: %v", err)
	}
	result, err := syncer.Run(ctx)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if result.SpecsRemoved != 1 {
		t.Fatalf("specs_removed: got=%d want=1", result.SpecsRemoved)
	}
	if result.ImplsRemoved != 1 {
		t.Fatalf("impls_removed: got=%d want=1", result.ImplsRemoved)
	}

	implRepo := repos.NewImplementationRepo(db, log)
	impl, err := implRepo.GetByPair(ctx, nil, "extended-review", "plotly")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if impl != nil {
		t.Fatal("implementation of removed spec survived")
	}
}

func writeExtendedReviewFixture(t *testing.T, root string) {
	t.Helper()
	dir := filepath.Join(root, "extended-review")
	writeFile(t, filepath.Join(dir, "specification.md"), "# extended-review: Extended Review Plot\n\n## Description\nExercises the full review payload.\n")
	writeFile(t, filepath.Join(dir, "specification.yaml"), "tags:\n  plot_type: [line]\n")
	writeFile(t, filepath.Join(dir, "implementations", "plotly.py"), "import plotly.express as px\n")
	writeFile(t, filepath.Join(dir, "metadata", "plotly.yaml"), `
url: https://storage.googleapis.com/pyplots-data/plots/extended-review/plotly/plot.png
quality_score: 88
image_description: An interactive line chart with a range slider.
criteria_checklist:
  correctness: {score: 5}
  readability: {score: 4}
  styling: {score: 4}
  data_handling: {score: 5}
  idiomatic_usage: {score: 4}
verdict: APPROVED
`)
}

func TestSyncPopulatesExtendedReviewFields(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	root := t.TempDir()
	writeExtendedReviewFixture(t, root)

	syncer := NewSyncer(db, log, root, nil)
	if _, err := syncer.Run(ctx); err != nil {
		t.Fatalf("sync: %v", err)
	}

	implRepo := repos.NewImplementationRepo(db, log)
	impl, err := implRepo.GetByPair(ctx, nil, "extended-review", "plotly")
	if err != nil || impl == nil {
		t.Fatalf("impl not synced: %v", err)
	}
	if impl.ImageDescription != "An interactive line chart with a range slider." {
		t.Fatalf("image_description: got=%q", impl.ImageDescription)
	}
	if impl.Verdict != domain.VerdictApproved {
		t.Fatalf("verdict: got=%q", impl.Verdict)
	}
	if len(impl.CriteriaChecklist) == 0 {
		t.Fatal("criteria checklist not stored")
	}
}

func TestSyncSkipsUnparseableSpec(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	root := t.TempDir()
	writeScatterFixture(t, root)
	// Directory without any spec markdown must be skipped, not fatal.
	if err := os.MkdirAll(filepath.Join(root, "broken-spec"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	syncer := NewSyncer(db, log, root, nil)
	result, err := syncer.Run(ctx)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if result.SpecsSynced != 1 {
		t.Fatalf("specs_synced: got=%d want=1", result.SpecsSynced)
	}
}

func TestSyncInvalidatesCachePatterns(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	root := t.TempDir()
	writeScatterFixture(t, root)

	c := cache.New(32, time.Minute)
	defer c.Close()
	c.Set("filter:plot=scatter", 1)
	c.Set("filter:", 2) // empty-query entry
	c.Set("specs_list", 3)
	c.Set("stats", 4)

	syncer := NewSyncer(db, log, root, c)
	if _, err := syncer.Run(ctx); err != nil {
		t.Fatalf("sync: %v", err)
	}
	for _, key := range []string{"filter:plot=scatter", "filter:", "specs_list", "stats"} {
		if _, ok := c.Get(key); ok {
			t.Fatalf("key %q survived sync invalidation", key)
		}
	}
}
