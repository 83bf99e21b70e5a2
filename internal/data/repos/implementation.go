package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pyplots/pyplots-backend/internal/domain"
	"github.com/pyplots/pyplots-backend/internal/platform/logger"
)

// ImplPair identifies an implementation by its composite key.
type ImplPair struct {
	SpecID    string
	LibraryID string
}

type ImplementationRepo interface {
	GetAll(ctx context.Context, tx *gorm.DB) ([]*domain.Implementation, error)
	GetByPair(ctx context.Context, tx *gorm.DB, specID, libraryID string) (*domain.Implementation, error)
	GetBySpecID(ctx context.Context, tx *gorm.DB, specID string) ([]*domain.Implementation, error)
	GetByLibraryID(ctx context.Context, tx *gorm.DB, libraryID string) ([]*domain.Implementation, error)
	Create(ctx context.Context, tx *gorm.DB, impl *domain.Implementation) error
	Update(ctx context.Context, tx *gorm.DB, id domain.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, id domain.UUID) error
	Upsert(ctx context.Context, tx *gorm.DB, impl *domain.Implementation) error
	DeletePairsNotIn(ctx context.Context, tx *gorm.DB, keep []ImplPair) (int64, error)
}

type implementationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewImplementationRepo(db *gorm.DB, baseLog *logger.Logger) ImplementationRepo {
	return &implementationRepo{db: db, log: baseLog.With("repo", "ImplementationRepo")}
}

func (r *implementationRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *implementationRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*domain.Implementation, error) {
	var results []*domain.Implementation
	if err := r.conn(tx).WithContext(ctx).
		Preload("Library").
		Order("spec_id, library_id").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *implementationRepo) GetByPair(ctx context.Context, tx *gorm.DB, specID, libraryID string) (*domain.Implementation, error) {
	var result domain.Implementation
	err := r.conn(tx).WithContext(ctx).
		Preload("Library").
		Where("spec_id = ? AND library_id = ?", specID, libraryID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *implementationRepo) GetBySpecID(ctx context.Context, tx *gorm.DB, specID string) ([]*domain.Implementation, error) {
	var results []*domain.Implementation
	if err := r.conn(tx).WithContext(ctx).
		Preload("Library").
		Where("spec_id = ?", specID).
		Order("library_id").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *implementationRepo) GetByLibraryID(ctx context.Context, tx *gorm.DB, libraryID string) ([]*domain.Implementation, error) {
	var results []*domain.Implementation
	if err := r.conn(tx).WithContext(ctx).
		Preload("Library").
		Where("library_id = ?", libraryID).
		Order("spec_id").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *implementationRepo) Create(ctx context.Context, tx *gorm.DB, impl *domain.Implementation) error {
	if impl.ID.IsNil() {
		impl.ID = domain.NewUUID()
	}
	return r.conn(tx).WithContext(ctx).Create(impl).Error
}

func (r *implementationRepo) Update(ctx context.Context, tx *gorm.DB, id domain.UUID, fields map[string]interface{}) error {
	return r.conn(tx).WithContext(ctx).
		Model(&domain.Implementation{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *implementationRepo) Delete(ctx context.Context, tx *gorm.DB, id domain.UUID) error {
	return r.conn(tx).WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.Implementation{}).Error
}

// Upsert inserts or refreshes the row identified by (spec_id,
// library_id).
func (r *implementationRepo) Upsert(ctx context.Context, tx *gorm.DB, impl *domain.Implementation) error {
	if impl.ID.IsNil() {
		impl.ID = domain.NewUUID()
	}
	return r.conn(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "spec_id"}, {Name: "library_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"code", "url", "thumbnail_url", "html_url", "quality_score",
				"tags", "model", "invocation_id", "python_version",
				"library_version", "strengths", "weaknesses",
				"image_description", "criteria_checklist", "verdict",
				"updated_at",
			}),
		}).
		Create(impl).Error
}

// DeletePairsNotIn removes every implementation whose (spec_id,
// library_id) pair is absent from the scanned set. An empty keep set
// clears the table.
func (r *implementationRepo) DeletePairsNotIn(ctx context.Context, tx *gorm.DB, keep []ImplPair) (int64, error) {
	q := r.conn(tx).WithContext(ctx)
	if len(keep) > 0 {
		pairs := make([][]interface{}, 0, len(keep))
		for _, p := range keep {
			pairs = append(pairs, []interface{}{p.SpecID, p.LibraryID})
		}
		q = q.Where("(spec_id, library_id) NOT IN ?", pairs)
	} else {
		q = q.Where("1 = 1")
	}
	res := q.Delete(&domain.Implementation{})
	return res.RowsAffected, res.Error
}
