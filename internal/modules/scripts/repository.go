package scripts

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"scriptrack/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, s *domain.Script) error
	GetByID(ctx context.Context, id int64) (*domain.Script, error)
	Delete(ctx context.Context, id int64) error
	UpdateCover(ctx context.Context, id int64, locator string) error

	ListFiles(ctx context.Context, scriptID int64) ([]domain.ScriptFile, error)
	LatestFiles(ctx context.Context, scriptID int64) ([]domain.ScriptFile, error)
	InsertVersioned(ctx context.Context, f *domain.ScriptFile) error

	AddActivity(ctx context.Context, a *domain.Activity) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, s *domain.Script) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *repository) GetByID(ctx context.Context, id int64) (*domain.Script, error) {
	var s domain.Script
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrScriptNotFound
	}
	return &s, err
}

// Delete removes the script row only; assignments, feedbacks, activities,
// meetings and script files go with it through the schema-level cascade.
func (r *repository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&domain.Script{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrScriptNotFound
	}
	return nil
}

func (r *repository) UpdateCover(ctx context.Context, id int64, locator string) error {
	res := r.db.WithContext(ctx).Model(&domain.Script{}).
		Where("id = ?", id).
		Update("cover_image_url", locator)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrScriptNotFound
	}
	return nil
}

func (r *repository) ListFiles(ctx context.Context, scriptID int64) ([]domain.ScriptFile, error) {
	var files []domain.ScriptFile
	err := r.db.WithContext(ctx).
		Where("script_id = ?", scriptID).
		Order("file_type, version").
		Find(&files).Error
	return files, err
}

func (r *repository) LatestFiles(ctx context.Context, scriptID int64) ([]domain.ScriptFile, error) {
	var files []domain.ScriptFile
	err := r.db.WithContext(ctx).
		Where("script_id = ? AND is_latest = ?", scriptID, true).
		Order("file_type").
		Find(&files).Error
	return files, err
}

// InsertVersioned applies the version-flip invariant in one transaction:
// the previous latest row of the same (script, type) loses is_latest and
// the new row lands with version previous+1. Both writes commit together
// or not at all; at no point are two rows of the pair both latest.
func (r *repository) InsertVersioned(ctx context.Context, f *domain.ScriptFile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prev domain.ScriptFile
		err := tx.Where("script_id = ? AND file_type = ? AND is_latest = ?",
			f.ScriptID, f.FileType, true).First(&prev).Error
		switch {
		case err == nil:
			if err := tx.Model(&domain.ScriptFile{}).
				Where("id = ?", prev.ID).
				Update("is_latest", false).Error; err != nil {
				return err
			}
			f.Version = prev.Version + 1
		case errors.Is(err, gorm.ErrRecordNotFound):
			f.Version = 1
		default:
			return err
		}
		f.IsLatest = true
		return tx.Create(f).Error
	})
}

func (r *repository) AddActivity(ctx context.Context, a *domain.Activity) error {
	return r.db.WithContext(ctx).Create(a).Error
}
