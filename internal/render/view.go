package render

import (
	"context"
	"fmt"
	"time"

	"github.com/fablesmith/storyforge/internal/project"
	"github.com/fablesmith/storyforge/internal/storage"
)

type PageView struct {
	Text     string
	ImageURL string
}

// StoryView is a project with every image reference resolved to a fetchable
// URL, ready for the HTML template or the PDF layout.
type StoryView struct {
	Title         string
	AuthorName    string
	CoverImageURL string
	Pages         []PageView
}

// BuildView signs the cover and every page image with the given TTL,
// preserving page order.
func BuildView(ctx context.Context, p *project.StoryProject, store storage.ObjectStore, ttl time.Duration) (*StoryView, error) {
	view := &StoryView{
		Title:      p.Title,
		AuthorName: p.AuthorName,
		Pages:      make([]PageView, 0, len(p.Pages)),
	}

	if p.CoverImage != nil && *p.CoverImage != "" {
		url, err := store.SignedURL(ctx, *p.CoverImage, ttl)
		if err != nil {
			return nil, fmt.Errorf("sign cover image: %w", err)
		}
		view.CoverImageURL = url
	}

	for _, page := range p.Pages {
		url, err := store.SignedURL(ctx, page.Image, ttl)
		if err != nil {
			return nil, fmt.Errorf("sign page image: %w", err)
		}
		view.Pages = append(view.Pages, PageView{Text: page.Text, ImageURL: url})
	}

	return view, nil
}
