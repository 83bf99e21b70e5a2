package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pyplots/pyplots-backend/internal/domain"
	"github.com/pyplots/pyplots-backend/internal/platform/logger"
)

type LibraryRepo interface {
	GetAll(ctx context.Context, tx *gorm.DB) ([]*domain.Library, error)
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*domain.Library, error)
	GetIDs(ctx context.Context, tx *gorm.DB) ([]string, error)
	Create(ctx context.Context, tx *gorm.DB, lib *domain.Library) error
	Update(ctx context.Context, tx *gorm.DB, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error
	EnsureSeed(ctx context.Context, tx *gorm.DB, libs []*domain.Library) error
}

type libraryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLibraryRepo(db *gorm.DB, baseLog *logger.Logger) LibraryRepo {
	return &libraryRepo{db: db, log: baseLog.With("repo", "LibraryRepo")}
}

func (r *libraryRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *libraryRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*domain.Library, error) {
	var results []*domain.Library
	if err := r.conn(tx).WithContext(ctx).
		Preload("Implementations").
		Order("id").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *libraryRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*domain.Library, error) {
	var result domain.Library
	err := r.conn(tx).WithContext(ctx).
		Preload("Implementations").
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

func (r *libraryRepo) GetIDs(ctx context.Context, tx *gorm.DB) ([]string, error) {
	var ids []string
	if err := r.conn(tx).WithContext(ctx).
		Model(&domain.Library{}).
		Order("id").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *libraryRepo) Create(ctx context.Context, tx *gorm.DB, lib *domain.Library) error {
	return r.conn(tx).WithContext(ctx).Create(lib).Error
}

func (r *libraryRepo) Update(ctx context.Context, tx *gorm.DB, id string, fields map[string]interface{}) error {
	return r.conn(tx).WithContext(ctx).
		Model(&domain.Library{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *libraryRepo) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	return r.conn(tx).WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.Library{}).Error
}

// EnsureSeed inserts the fixed library rows, leaving existing rows
// untouched (conflict on id is a no-op).
func (r *libraryRepo) EnsureSeed(ctx context.Context, tx *gorm.DB, libs []*domain.Library) error {
	if len(libs) == 0 {
		return nil
	}
	return r.conn(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(&libs).Error
}
