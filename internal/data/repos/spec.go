package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pyplots/pyplots-backend/internal/domain"
	"github.com/pyplots/pyplots-backend/internal/platform/logger"
)

type SpecRepo interface {
	GetAll(ctx context.Context, tx *gorm.DB) ([]*domain.Spec, error)
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*domain.Spec, error)
	GetIDs(ctx context.Context, tx *gorm.DB) ([]string, error)
	SearchByTags(ctx context.Context, tx *gorm.DB, values []string) ([]*domain.Spec, error)
	Create(ctx context.Context, tx *gorm.DB, spec *domain.Spec) error
	Update(ctx context.Context, tx *gorm.DB, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error
	Upsert(ctx context.Context, tx *gorm.DB, spec *domain.Spec) error
	DeleteNotIn(ctx context.Context, tx *gorm.DB, keepIDs []string) (int64, error)
}

type specRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSpecRepo(db *gorm.DB, baseLog *logger.Logger) SpecRepo {
	return &specRepo{db: db, log: baseLog.With("repo", "SpecRepo")}
}

func (r *specRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *specRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*domain.Spec, error) {
	var results []*domain.Spec
	if err := r.conn(tx).WithContext(ctx).
		Preload("Implementations").
		Preload("Implementations.Library").
		Order("id").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *specRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*domain.Spec, error) {
	var result domain.Spec
	err := r.conn(tx).WithContext(ctx).
		Preload("Implementations").
		Preload("Implementations.Library").
		Where("id = ?", id).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *specRepo) GetIDs(ctx context.Context, tx *gorm.DB) ([]string, error) {
	var ids []string
	if err := r.conn(tx).WithContext(ctx).
		Model(&domain.Spec{}).
		Order("id").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// SearchByTags returns every spec whose tag-value set intersects the
// given values. Matching happens in Go over the decoded JSON column so
// the same query works on Postgres and sqlite.
func (r *specRepo) SearchByTags(ctx context.Context, tx *gorm.DB, values []string) ([]*domain.Spec, error) {
	if len(values) == 0 {
		return []*domain.Spec{}, nil
	}
	all, err := r.GetAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(values))
	for _, v := range values {
		wanted[v] = true
	}
	var results []*domain.Spec
	for _, spec := range all {
		tags := domain.DecodeTags(spec.Tags)
		for _, v := range tags.Flatten() {
			if wanted[v] {
				results = append(results, spec)
				break
			}
		}
	}
	return results, nil
}

func (r *specRepo) Create(ctx context.Context, tx *gorm.DB, spec *domain.Spec) error {
	return r.conn(tx).WithContext(ctx).Create(spec).Error
}

func (r *specRepo) Update(ctx context.Context, tx *gorm.DB, id string, fields map[string]interface{}) error {
	return r.conn(tx).WithContext(ctx).
		Model(&domain.Spec{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *specRepo) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	return r.conn(tx).WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.Spec{}).Error
}

func (r *specRepo) Upsert(ctx context.Context, tx *gorm.DB, spec *domain.Spec) error {
	return r.conn(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title", "description", "applications", "data_requirements",
				"notes", "tags", "issue_number", "contributor", "updated_at",
			}),
		}).
		Create(spec).Error
}

// DeleteNotIn removes every spec whose id is absent from the scanned
// set. An empty keep set clears the table.
func (r *specRepo) DeleteNotIn(ctx context.Context, tx *gorm.DB, keepIDs []string) (int64, error) {
	q := r.conn(tx).WithContext(ctx)
	if len(keepIDs) > 0 {
		q = q.Where("id NOT IN ?", keepIDs)
	} else {
		q = q.Where("1 = 1")
	}
	res := q.Delete(&domain.Spec{})
	return res.RowsAffected, res.Error
}
