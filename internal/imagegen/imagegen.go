package imagegen

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fablesmith/storyforge/internal/ai"
	"github.com/fablesmith/storyforge/internal/storage"
)

// Illustrator is the image-generation collaborator seen by the rest of the
// system: prompts in, opaque stored-image references out.
type Illustrator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Upscale(ctx context.Context, reference string) (string, error)
}

// Service pairs an image provider with object storage. Generated bytes are
// persisted immediately; callers only ever see the stored reference.
type Service struct {
	provider ai.ImageProvider
	store    storage.ObjectStore
}

func NewService(provider ai.ImageProvider, store storage.ObjectStore) *Service {
	return &Service{provider: provider, store: store}
}

func (s *Service) Generate(ctx context.Context, prompt string) (string, error) {
	img, err := s.provider.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate image: %w", err)
	}
	name := uuid.NewString() + ".png"
	return s.store.Store(ctx, name, img, "image/png")
}

// Upscale produces a new reference; the previous object is deliberately left
// in place (replacement flows never delete prior artifacts).
func (s *Service) Upscale(ctx context.Context, reference string) (string, error) {
	img, err := s.store.Download(ctx, reference)
	if err != nil {
		return "", fmt.Errorf("download image: %w", err)
	}
	upscaled, err := s.provider.Upscale(ctx, img)
	if err != nil {
		return "", fmt.Errorf("upscale image: %w", err)
	}
	name := "upscaled-" + uuid.NewString() + ".png"
	return s.store.Store(ctx, name, upscaled, "image/png")
}
