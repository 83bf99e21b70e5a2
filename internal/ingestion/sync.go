package ingestion

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/pyplots/pyplots-backend/internal/cache"
	"github.com/pyplots/pyplots-backend/internal/data/repos"
	"github.com/pyplots/pyplots-backend/internal/domain"
	"github.com/pyplots/pyplots-backend/internal/platform/logger"
)

// Result summarises one sync run.
type Result struct {
	SpecsSynced  int `json:"specs_synced"`
	SpecsRemoved int `json:"specs_removed"`
	ImplsSynced  int `json:"impls_synced"`
	ImplsRemoved int `json:"impls_removed"`
}

type Syncer struct {
	db    *gorm.DB
	repos repos.Set
	cache *cache.Cache
	log   *logger.Logger
	root  string
}

// NewSyncer builds a syncer over the plots tree rooted at root. The
// cache may be nil; the standalone CLI has no server cache to clear.
func NewSyncer(db *gorm.DB, log *logger.Logger, root string, c *cache.Cache) *Syncer {
	return &Syncer{
		db:    db,
		repos: repos.NewSet(db, log),
		cache: c,
		log:   log.With("component", "Syncer"),
		root:  root,
	}
}

// Run performs one full rescan inside a single transaction: seed
// libraries, upsert every scanned spec and implementation, then remove
// rows no longer present on disk. A parse failure skips that spec with
// a warning; a database failure rolls everything back.
func (s *Syncer) Run(ctx context.Context) (Result, error) {
	var result Result

	ids, err := ScanSpecIDs(s.root)
	if err != nil {
		return result, err
	}

	records := make([]*SpecRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := ParseSpecDir(s.root, id)
		if err != nil {
			s.log.Warn("Skipping unparseable spec", "spec_id", id, "error", err)
			continue
		}
		records = append(records, rec)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repos.Libraries.EnsureSeed(ctx, tx, domain.SeedLibraries()); err != nil {
			return fmt.Errorf("seed libraries: %w", err)
		}
		if err := s.ensureImplLibraries(ctx, tx, records); err != nil {
			return err
		}

		keepIDs := make([]string, 0, len(records))
		var keepPairs []repos.ImplPair
		for _, rec := range records {
			if err := s.repos.Specs.Upsert(ctx, tx, specRow(rec)); err != nil {
				return fmt.Errorf("upsert spec %s: %w", rec.ID, err)
			}
			keepIDs = append(keepIDs, rec.ID)
			result.SpecsSynced++

			for i := range rec.Impls {
				impl := &rec.Impls[i]
				if err := s.repos.Implementations.Upsert(ctx, tx, implRow(rec.ID, impl)); err != nil {
					return fmt.Errorf("upsert impl %s/%s: %w", rec.ID, impl.LibraryID, err)
				}
				keepPairs = append(keepPairs, repos.ImplPair{SpecID: rec.ID, LibraryID: impl.LibraryID})
				result.ImplsSynced++
			}
		}

		removedImpls, err := s.repos.Implementations.DeletePairsNotIn(ctx, tx, keepPairs)
		if err != nil {
			return fmt.Errorf("remove stale implementations: %w", err)
		}
		result.ImplsRemoved = int(removedImpls)

		removedSpecs, err := s.repos.Specs.DeleteNotIn(ctx, tx, keepIDs)
		if err != nil {
			return fmt.Errorf("remove stale specs: %w", err)
		}
		result.SpecsRemoved = int(removedSpecs)
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	s.invalidate()
	s.log.Info("Sync complete",
		"specs_synced", result.SpecsSynced,
		"specs_removed", result.SpecsRemoved,
		"impls_synced", result.ImplsSynced,
		"impls_removed", result.ImplsRemoved,
	)
	return result, nil
}

// ensureImplLibraries creates placeholder library rows for any
// implementation whose library is outside the seed set, so the foreign
// key holds.
func (s *Syncer) ensureImplLibraries(ctx context.Context, tx *gorm.DB, records []*SpecRecord) error {
	seeded := make(map[string]bool)
	for _, lib := range domain.SeedLibraries() {
		seeded[lib.ID] = true
	}
	var extra []*domain.Library
	seen := make(map[string]bool)
	for _, rec := range records {
		for _, impl := range rec.Impls {
			if seeded[impl.LibraryID] || seen[impl.LibraryID] {
				continue
			}
			seen[impl.LibraryID] = true
			extra = append(extra, &domain.Library{ID: impl.LibraryID, Name: impl.LibraryID})
		}
	}
	if len(extra) == 0 {
		return nil
	}
	return s.repos.Libraries.EnsureSeed(ctx, tx, extra)
}

// invalidate clears the cache patterns a full rescan can affect.
func (s *Syncer) invalidate() {
	if s.cache == nil {
		return
	}
	for _, pattern := range []string{
		"spec", "specs_list", "filter:", "libraries", "lib_images", "stats", "og:",
	} {
		s.cache.ClearByPattern(pattern)
	}
}

func specRow(rec *SpecRecord) *domain.Spec {
	row := &domain.Spec{
		ID:               rec.ID,
		Title:            rec.Title,
		Description:      rec.Description,
		Applications:     domain.StringArray(rec.Applications),
		DataRequirements: domain.StringArray(rec.DataRequirements),
		Notes:            domain.StringArray(rec.Notes),
		Tags:             domain.EncodeTags(rec.Tags),
		IssueNumber:      rec.IssueNumber,
		Contributor:      rec.Contributor,
	}
	if !rec.CreatedAt.IsZero() {
		row.CreatedAt = rec.CreatedAt
	}
	if !rec.UpdatedAt.IsZero() {
		row.UpdatedAt = rec.UpdatedAt
	}
	return row
}

func implRow(specID string, rec *ImplRecord) *domain.Implementation {
	code := rec.Code
	row := &domain.Implementation{
		ID:               domain.NewUUID(),
		SpecID:           specID,
		LibraryID:        rec.LibraryID,
		Code:             &code,
		URL:              rec.URL,
		ThumbnailURL:     rec.ThumbnailURL,
		HTMLURL:          rec.HTMLURL,
		QualityScore:     rec.QualityScore,
		Tags:             domain.EncodeTags(rec.Tags),
		Model:            rec.Model,
		InvocationID:     rec.InvocationID,
		PythonVersion:    rec.PythonVersion,
		LibraryVersion:   rec.LibraryVersion,
		Strengths:        domain.StringArray(rec.Strengths),
		Weaknesses:       domain.StringArray(rec.Weaknesses),
		ImageDescription: rec.ImageDescription,
		Verdict:          rec.Verdict,
	}
	if rec.CriteriaChecklist != nil {
		if data, err := json.Marshal(rec.CriteriaChecklist); err == nil {
			row.CriteriaChecklist = data
		}
	}
	return row
}
