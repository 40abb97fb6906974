package services

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"tutoria-backend/internal/storage"
)

// DocumentService extracts text from uploaded study material. Objects are
// fetched from the artifact store by their stored name, so extraction works
// the same against local disk and Supabase.
type DocumentService struct {
	store storage.ArtifactStore
}

func NewDocumentService(store storage.ArtifactStore) *DocumentService {
	return &DocumentService{store: store}
}

// ExtractText returns the full plain text of a stored document.
func (s *DocumentService) ExtractText(ctx context.Context, storedName string) (string, error) {
	data, err := s.store.GetObject(ctx, storedName)
	if err != nil {
		return "", err
	}

	switch strings.ToLower(filepath.Ext(storedName)) {
	case ".txt", ".md":
		text := normalizeExtractedText(string(data))
		if text == "" {
			return "", fmt.Errorf("text file is empty")
		}
		return text, nil
	case ".pdf":
		pages, err := extractPDFPages(data)
		if err != nil {
			return "", err
		}
		text := normalizeExtractedText(strings.Join(pages, "\n"))
		if text == "" {
			return "", fmt.Errorf("no extractable text found in pdf")
		}
		return text, nil
	case ".docx":
		return extractDOCX(data)
	default:
		return "", fmt.Errorf("unsupported file type for text extraction: %s", filepath.Ext(storedName))
	}
}

// ExtractSections returns the document split into per-page (or
// per-paragraph, for flat formats) sections, for prompts that want to cite
// locations.
func (s *DocumentService) ExtractSections(ctx context.Context, storedName string) ([]string, error) {
	data, err := s.store.GetObject(ctx, storedName)
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(filepath.Ext(storedName), ".pdf") {
		pages, err := extractPDFPages(data)
		if err != nil {
			return nil, err
		}
		var sections []string
		for _, p := range pages {
			if t := normalizeExtractedText(p); t != "" {
				sections = append(sections, t)
			}
		}
		if len(sections) == 0 {
			return nil, fmt.Errorf("no extractable text found in pdf")
		}
		return sections, nil
	}

	text, err := s.ExtractText(ctx, storedName)
	if err != nil {
		return nil, err
	}
	var sections []string
	for _, para := range strings.Split(text, "\n\n") {
		if p := strings.TrimSpace(para); p != "" {
			sections = append(sections, p)
		}
	}
	return sections, nil
}

func extractPDFPages(data []byte) ([]string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	var pages []string
	totalPage := reader.NumPage()
	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages = append(pages, content)
	}
	return pages, nil
}

func extractDOCX(data []byte) (string, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var documentXML []byte
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			if err != nil {
				return "", err
			}
			documentXML, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return "", err
			}
			break
		}
	}

	if len(documentXML) == 0 {
		return "", fmt.Errorf("docx document.xml not found")
	}

	text := normalizeExtractedText(stripDOCXML(documentXML))
	if text == "" {
		return "", fmt.Errorf("no extractable text found in docx")
	}
	return text, nil
}

var xmlTagPattern = regexp.MustCompile(`<[^>]+>`)

func stripDOCXML(src []byte) string {
	s := string(src)

	// DOCX paragraphs and line breaks
	s = strings.ReplaceAll(s, "</w:p>", "\n")
	s = strings.ReplaceAll(s, "<w:br/>", "\n")
	s = strings.ReplaceAll(s, "<w:br />", "\n")
	s = strings.ReplaceAll(s, "<w:tab/>", "\t")

	// Remove all xml tags
	s = xmlTagPattern.ReplaceAllString(s, "")

	// Basic XML entities
	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
	)
	return replacer.Replace(s)
}

func normalizeExtractedText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	buf := bytes.Buffer{}

	emptyCount := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			emptyCount++
			if emptyCount > 1 {
				continue
			}
			buf.WriteString("\n")
			continue
		}
		emptyCount = 0
		buf.WriteString(trimmed)
		buf.WriteString("\n")
	}

	return strings.TrimSpace(buf.String())
}
