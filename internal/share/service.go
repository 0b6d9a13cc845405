package share

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fablesmith/storyforge/internal/project"
	"github.com/fablesmith/storyforge/internal/render"
	"github.com/fablesmith/storyforge/internal/storage"
)

const (
	publicURLTTL = 15 * time.Minute
	exportURLTTL = time.Hour
)

// Service exposes persisted projects as public artifacts: a token-gated HTML
// render and an owner-gated PDF export.
type Service struct {
	projects *project.Service
	repo     *project.Repo
	store    storage.ObjectStore
}

func NewService(projects *project.Service, repo *project.Repo, store storage.ObjectStore) *Service {
	return &Service{projects: projects, repo: repo, store: store}
}

// SetSharing toggles public visibility. The share token is assigned exactly
// once, on the first publish; unpublishing clears only the flag, so
// republishing reuses the same link.
func (s *Service) SetSharing(ctx context.Context, actorID uint64, projectID string, isPublic bool) (*project.StoryProject, error) {
	p, err := s.projects.Authorize(ctx, actorID, projectID)
	if err != nil {
		return nil, err
	}

	if isPublic {
		if p.ShareToken == nil {
			token := uuid.NewString()
			p.ShareToken = &token
		}
		p.IsPublic = true
	} else {
		p.IsPublic = false
	}

	if err := s.repo.SaveProject(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// PublicHTML renders the storybook for a share token. Tokens of non-public
// projects resolve exactly like unknown tokens. Token possession is the only
// credential on this path.
func (s *Service) PublicHTML(ctx context.Context, token string) ([]byte, error) {
	p, err := s.repo.GetPublicProjectByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	view, err := render.BuildView(ctx, p, s.store, publicURLTTL)
	if err != nil {
		return nil, err
	}
	return render.HTML(view)
}

// ExportPDF renders the owner's project to a paginated document, persists it,
// and returns the stored reference plus a one-hour access URL.
func (s *Service) ExportPDF(ctx context.Context, actorID uint64, projectID string) (reference, url string, err error) {
	p, err := s.projects.Authorize(ctx, actorID, projectID)
	if err != nil {
		return "", "", err
	}

	doc, err := render.PDF(ctx, p, s.store)
	if err != nil {
		return "", "", err
	}

	name := fmt.Sprintf("storybook-%s-%s.pdf", p.ID, uuid.NewString())
	reference, err = s.store.Store(ctx, name, doc, "application/pdf")
	if err != nil {
		return "", "", err
	}

	url, err = s.store.SignedURL(ctx, reference, exportURLTTL)
	if err != nil {
		return "", "", err
	}
	return reference, url, nil
}
