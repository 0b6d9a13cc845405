package render

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/fablesmith/storyforge/internal/project"
	"github.com/fablesmith/storyforge/internal/storage"
)

// PDF lays the project out as a fixed-format Letter document: a cover page
// followed by one page per story page. Image bytes are fetched from object
// storage by reference, so no signed URLs are involved here.
func PDF(ctx context.Context, p *project.StoryProject, store storage.ObjectStore) ([]byte, error) {
	doc := fpdf.New("P", "mm", "Letter", "")
	doc.SetAutoPageBreak(true, 20)

	doc.AddPage()
	doc.SetFont("Helvetica", "B", 28)
	doc.Ln(40)
	doc.MultiCell(0, 14, p.Title, "", "C", false)
	doc.Ln(4)
	doc.SetFont("Helvetica", "I", 14)
	doc.MultiCell(0, 8, "by "+p.AuthorName, "", "C", false)

	if p.CoverImage != nil && *p.CoverImage != "" {
		if err := placeImage(ctx, doc, store, *p.CoverImage, 38, 110, 140); err != nil {
			return nil, err
		}
	}

	for _, page := range p.Pages {
		doc.AddPage()
		if err := placeImage(ctx, doc, store, page.Image, 38, 20, 140); err != nil {
			return nil, err
		}
		doc.SetXY(24, 170)
		doc.SetFont("Helvetica", "", 13)
		doc.MultiCell(168, 7, page.Text, "", "L", false)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func placeImage(ctx context.Context, doc *fpdf.Fpdf, store storage.ObjectStore, reference string, x, y, w float64) error {
	data, err := store.Download(ctx, reference)
	if err != nil {
		return fmt.Errorf("download image %s: %w", reference, err)
	}
	opts := fpdf.ImageOptions{ImageType: imageType(reference)}
	doc.RegisterImageOptionsReader(reference, opts, bytes.NewReader(data))
	doc.ImageOptions(reference, x, y, w, 0, false, opts, 0, "")
	if doc.Err() {
		return fmt.Errorf("place image %s: %v", reference, doc.Error())
	}
	return nil
}

func imageType(reference string) string {
	switch strings.ToLower(path.Ext(reference)) {
	case ".jpg", ".jpeg":
		return "JPG"
	case ".gif":
		return "GIF"
	default:
		return "PNG"
	}
}
