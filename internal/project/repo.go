package project

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// WithTx runs fn against a transactional copy of the repo.
func (r *Repo) WithTx(ctx context.Context, fn func(tx *Repo) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repo{db: tx})
	})
}

func (r *Repo) CreateProject(ctx context.Context, p *StoryProject) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// GetProject loads a project with its pages in position order.
func (r *Repo) GetProject(ctx context.Context, id string) (*StoryProject, error) {
	var p StoryProject
	err := r.db.WithContext(ctx).
		Preload("Pages", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPublicProjectByToken resolves a share token only for public projects;
// a private project behind a valid token looks exactly like a missing one.
func (r *Repo) GetPublicProjectByToken(ctx context.Context, token string) (*StoryProject, error) {
	var p StoryProject
	err := r.db.WithContext(ctx).
		Preload("Pages", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("share_token = ? AND is_public = ?", token, true).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) ListProjectsByOwner(ctx context.Context, ownerID uint64) ([]StoryProject, error) {
	var ps []StoryProject
	err := r.db.WithContext(ctx).
		Preload("Pages", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&ps).Error
	if err != nil {
		return nil, err
	}
	return ps, nil
}

func (r *Repo) SaveProject(ctx context.Context, p *StoryProject) error {
	return r.db.WithContext(ctx).Omit("Pages").Save(p).Error
}

// DeleteProject removes the project, its pages, and every version snapshot.
func (r *Repo) DeleteProject(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&StoryVersion{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&StoryPage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&StoryProject{}, "id = ?", id).Error
	})
}

func (r *Repo) CreatePage(ctx context.Context, page *StoryPage) error {
	return r.db.WithContext(ctx).Create(page).Error
}

func (r *Repo) DeletePage(ctx context.Context, projectID, pageID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND project_id = ?", pageID, projectID).
		Delete(&StoryPage{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPageNotFound
	}
	return nil
}

func (r *Repo) ReplacePages(ctx context.Context, projectID string, pages []StoryPage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", projectID).Delete(&StoryPage{}).Error; err != nil {
			return err
		}
		if len(pages) == 0 {
			return nil
		}
		return tx.Create(&pages).Error
	})
}

func (r *Repo) UpdatePageField(ctx context.Context, projectID, pageID, column string, value any) error {
	res := r.db.WithContext(ctx).Model(&StoryPage{}).
		Where("id = ? AND project_id = ?", pageID, projectID).
		Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPageNotFound
	}
	return nil
}

func (r *Repo) MaxPagePosition(ctx context.Context, projectID string) (int, error) {
	var max *int
	err := r.db.WithContext(ctx).Model(&StoryPage{}).
		Where("project_id = ?", projectID).
		Select("MAX(position)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return -1, nil
	}
	return *max, nil
}

func (r *Repo) CreateVersion(ctx context.Context, v *StoryVersion) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *Repo) ListVersions(ctx context.Context, projectID string) ([]StoryVersion, error) {
	var vs []StoryVersion
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&vs).Error
	if err != nil {
		return nil, err
	}
	return vs, nil
}

func (r *Repo) CountVersions(ctx context.Context, projectID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&StoryVersion{}).
		Where("project_id = ?", projectID).
		Count(&n).Error
	return n, err
}
