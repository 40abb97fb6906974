package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"tutoria-backend/internal/models"
	"tutoria-backend/internal/storage"
)

// PDFService renders reviewer outlines into printable PDFs and publishes
// them through the artifact store.
type PDFService struct {
	store storage.ArtifactStore
}

func NewPDFService(store storage.ArtifactStore) *PDFService {
	return &PDFService{store: store}
}

// RenderReviewer lays out the outline and uploads it, returning the public
// URL of the stored PDF.
func (s *PDFService) RenderReviewer(ctx context.Context, outline *models.ReviewOutline) (string, error) {
	data, err := renderOutline(outline)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("public/%s - %s (Reviewer).pdf",
		time.Now().UTC().Format("20060102-150405"), outline.Topic)

	url, err := s.store.PutObject(ctx, key, data, "application/pdf")
	if err != nil {
		return "", fmt.Errorf("failed to store reviewer pdf: %w", err)
	}
	return url, nil
}

func renderOutline(outline *models.ReviewOutline) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(18, 18, 18)
	doc.SetAutoPageBreak(true, 20)
	doc.AddPage()
	tr := doc.UnicodeTranslatorFromDescriptor("")

	doc.SetFont("Helvetica", "B", 18)
	doc.MultiCell(0, 9, tr(outline.Topic), "", "C", false)
	doc.Ln(4)

	writeSection := func(title string, lines []string) {
		if len(lines) == 0 {
			return
		}
		doc.SetFont("Helvetica", "B", 13)
		doc.MultiCell(0, 7, tr(title), "", "L", false)
		doc.SetFont("Helvetica", "", 11)
		for _, line := range lines {
			doc.MultiCell(0, 6, tr("- "+line), "", "L", false)
		}
		doc.Ln(3)
	}

	if outline.Overview != "" {
		doc.SetFont("Helvetica", "B", 13)
		doc.MultiCell(0, 7, tr("Lesson Overview"), "", "L", false)
		doc.SetFont("Helvetica", "", 11)
		doc.MultiCell(0, 6, tr(outline.Overview), "", "L", false)
		doc.Ln(3)
	}

	writeSection("Learning Objectives", outline.Objectives)

	if len(outline.KeyConcepts) > 0 {
		doc.SetFont("Helvetica", "B", 13)
		doc.MultiCell(0, 7, tr("Key Concepts and Explanations"), "", "L", false)
		for _, kc := range outline.KeyConcepts {
			doc.SetFont("Helvetica", "B", 11)
			doc.MultiCell(0, 6, tr(kc.Subtopic), "", "L", false)
			doc.SetFont("Helvetica", "", 11)
			doc.MultiCell(0, 6, tr(kc.Explanation), "", "L", false)
			doc.Ln(1)
		}
		doc.Ln(2)
	}

	writeSection("Application or Examples", outline.Examples)
	writeSection("Memory Tips", outline.MemoryTips)
	writeSection("Quick Recap", outline.QuickRecap)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
