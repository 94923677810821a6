package extract

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"docqa/internal/domain"
)

var (
	newlineRuns = regexp.MustCompile(`\n+`)
	spaceRuns   = regexp.MustCompile(`[ \t]+`)
	// Characters outside this set are extraction artifacts (ligatures,
	// control bytes) that only add noise to the embeddings.
	noiseChars = regexp.MustCompile(`[^\p{L}\p{N}_\s.,!?;:()\-'"%$€£]`)
)

// CleanText collapses whitespace runs and strips extraction artifacts.
func CleanText(s string) string {
	s = noiseChars.ReplaceAllString(s, " ")
	s = newlineRuns.ReplaceAllString(s, "\n")
	s = spaceRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// PDFText extracts the plain text of a PDF file.
func PDFText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text %s: %w", path, err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", fmt.Errorf("read pdf text %s: %w", path, err)
	}
	return buf.String(), nil
}

// LoadFile reads one document from a .pdf or .txt file, cleaning its text.
func LoadFile(path string) (domain.Document, error) {
	var text string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		t, err := PDFText(path)
		if err != nil {
			return domain.Document{}, err
		}
		text = t
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return domain.Document{}, fmt.Errorf("read %s: %w", path, err)
		}
		text = string(data)
	default:
		return domain.Document{}, fmt.Errorf("%w: unsupported file type %s", domain.ErrInvalidInput, path)
	}
	return domain.Document{Source: filepath.Base(path), Text: CleanText(text)}, nil
}

// LoadDir reads every supported document directly under dir, sorted by name.
func LoadDir(dir string) ([]domain.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read documents directory: %w", err)
	}
	var documents []domain.Document
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".pdf", ".txt", ".md":
		default:
			continue
		}
		doc, err := LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		documents = append(documents, doc)
	}
	if len(documents) == 0 {
		return nil, fmt.Errorf("%w: no documents in %s", domain.ErrInvalidInput, dir)
	}
	sort.Slice(documents, func(i, j int) bool { return documents[i].Source < documents[j].Source })
	return documents, nil
}
