package ai

import "context"

// TextProvider generates prose from a natural-language prompt.
type TextProvider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ImageProvider produces raw image bytes. Upscale takes an existing image's
// bytes and returns a higher-resolution rendition.
type ImageProvider interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
	Upscale(ctx context.Context, image []byte) ([]byte, error)
}
