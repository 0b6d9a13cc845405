package project

import (
	"context"
	"encoding/json"

	"github.com/fablesmith/storyforge/internal/common"
	"github.com/fablesmith/storyforge/internal/models"
)

type Service struct {
	repo *Repo
}

func NewService(repo *Repo) *Service {
	return &Service{repo: repo}
}

// Authorize loads the project and verifies ownership. Existence is checked
// first so not-found and not-owner stay distinguishable.
func (s *Service) Authorize(ctx context.Context, actorID uint64, projectID string) (*StoryProject, error) {
	p, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != actorID {
		return nil, ErrNotOwner
	}
	return p, nil
}

func (s *Service) Create(ctx context.Context, ownerID uint64, title, authorName string) (*StoryProject, error) {
	if title == "" || authorName == "" {
		return nil, ErrValidation
	}
	id, err := common.NewULID()
	if err != nil {
		return nil, err
	}
	p := &StoryProject{
		ID:         id,
		OwnerID:    ownerID,
		Title:      title,
		AuthorName: authorName,
		Pages:      []StoryPage{},
	}
	if err := s.repo.CreateProject(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) ListByOwner(ctx context.Context, ownerID uint64) ([]StoryProject, error) {
	return s.repo.ListProjectsByOwner(ctx, ownerID)
}

func (s *Service) Get(ctx context.Context, actorID uint64, projectID string) (*StoryProject, error) {
	return s.Authorize(ctx, actorID, projectID)
}

// UpdateInput carries the optional project fields; nil means keep the prior
// value. A non-nil Pages replaces the whole sequence with fresh page ids.
type UpdateInput struct {
	Title      *string
	AuthorName *string
	CoverImage *string
	Pages      *[]PageInput
}

type PageInput struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

// Update applies in. When the acting role is a privileged tier, the
// pre-update field values are snapshotted into a StoryVersion first; the
// snapshot and the update commit together or not at all.
func (s *Service) Update(ctx context.Context, actorID uint64, role models.Role, projectID string, in UpdateInput) (*StoryProject, error) {
	p, err := s.Authorize(ctx, actorID, projectID)
	if err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(tx *Repo) error {
		if role.Privileged() {
			if err := snapshotVersion(ctx, tx, p); err != nil {
				return err
			}
		}

		if in.Title != nil && *in.Title != "" {
			p.Title = *in.Title
		}
		if in.AuthorName != nil && *in.AuthorName != "" {
			p.AuthorName = *in.AuthorName
		}
		if in.CoverImage != nil {
			p.CoverImage = in.CoverImage
		}
		if err := tx.SaveProject(ctx, p); err != nil {
			return err
		}

		if in.Pages != nil {
			pages := make([]StoryPage, 0, len(*in.Pages))
			for i, pi := range *in.Pages {
				id, err := common.NewULID()
				if err != nil {
					return err
				}
				pages = append(pages, StoryPage{
					ID:        id,
					ProjectID: p.ID,
					Position:  i,
					Text:      pi.Text,
					Image:     pi.Image,
				})
			}
			if err := tx.ReplacePages(ctx, p.ID, pages); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetProject(ctx, projectID)
}

func snapshotVersion(ctx context.Context, tx *Repo, p *StoryProject) error {
	id, err := common.NewULID()
	if err != nil {
		return err
	}
	snap := make([]VersionPage, 0, len(p.Pages))
	for _, page := range p.Pages {
		snap = append(snap, VersionPage{ID: page.ID, Text: page.Text, Image: page.Image})
	}
	pagesJSON, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return tx.CreateVersion(ctx, &StoryVersion{
		ID:         id,
		ProjectID:  p.ID,
		Title:      p.Title,
		AuthorName: p.AuthorName,
		CoverImage: p.CoverImage,
		PagesJSON:  pagesJSON,
	})
}

// Delete removes the project and cascades to its pages and versions.
func (s *Service) Delete(ctx context.Context, actorID uint64, projectID string) error {
	if _, err := s.Authorize(ctx, actorID, projectID); err != nil {
		return err
	}
	return s.repo.DeleteProject(ctx, projectID)
}

func (s *Service) Versions(ctx context.Context, actorID uint64, projectID string) ([]StoryVersion, error) {
	if _, err := s.Authorize(ctx, actorID, projectID); err != nil {
		return nil, err
	}
	return s.repo.ListVersions(ctx, projectID)
}

// AddPage appends a page to the end of the sequence.
func (s *Service) AddPage(ctx context.Context, actorID uint64, projectID, text, image string) (*StoryProject, error) {
	if text == "" || image == "" {
		return nil, ErrValidation
	}
	p, err := s.Authorize(ctx, actorID, projectID)
	if err != nil {
		return nil, err
	}
	maxPos, err := s.repo.MaxPagePosition(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	id, err := common.NewULID()
	if err != nil {
		return nil, err
	}
	page := &StoryPage{
		ID:        id,
		ProjectID: p.ID,
		Position:  maxPos + 1,
		Text:      text,
		Image:     image,
	}
	if err := s.repo.CreatePage(ctx, page); err != nil {
		return nil, err
	}
	return s.repo.GetProject(ctx, projectID)
}

func (s *Service) DeletePage(ctx context.Context, actorID uint64, projectID, pageID string) (*StoryProject, error) {
	if _, err := s.Authorize(ctx, actorID, projectID); err != nil {
		return nil, err
	}
	if err := s.repo.DeletePage(ctx, projectID, pageID); err != nil {
		return nil, err
	}
	return s.repo.GetProject(ctx, projectID)
}

func (s *Service) UpdatePageText(ctx context.Context, actorID uint64, projectID, pageID, text string) (*StoryProject, error) {
	if text == "" {
		return nil, ErrValidation
	}
	if _, err := s.Authorize(ctx, actorID, projectID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdatePageField(ctx, projectID, pageID, "text", text); err != nil {
		return nil, err
	}
	return s.repo.GetProject(ctx, projectID)
}

// FindPage returns one page of an owned project.
func (s *Service) FindPage(ctx context.Context, actorID uint64, projectID, pageID string) (*StoryPage, error) {
	p, err := s.Authorize(ctx, actorID, projectID)
	if err != nil {
		return nil, err
	}
	for i := range p.Pages {
		if p.Pages[i].ID == pageID {
			return &p.Pages[i], nil
		}
	}
	return nil, ErrPageNotFound
}

// ReplacePageImage overwrites a page's image reference. The previous stored
// artifact is intentionally left behind (upload, regenerate, and upscale all
// go through here).
func (s *Service) ReplacePageImage(ctx context.Context, actorID uint64, projectID, pageID, image string) (*StoryProject, error) {
	if image == "" {
		return nil, ErrValidation
	}
	if _, err := s.Authorize(ctx, actorID, projectID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdatePageField(ctx, projectID, pageID, "image", image); err != nil {
		return nil, err
	}
	return s.repo.GetProject(ctx, projectID)
}
