// Package loader turns uploaded files into page-stamped text, chunks, and
// table chunks ready for indexing.
package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ErrUnsupportedType rejects a file before any chunking is attempted.
var ErrUnsupportedType = errors.New("unsupported file type")

// ErrEmptyDocument marks a file that loaded but produced no text. Callers
// treat it as bad input, not a server failure.
var ErrEmptyDocument = errors.New("document could not be parsed or is empty")

// Page is one page of extracted text. Numbers are 1-based.
type Page struct {
	Number int
	Text   string
}

// Document is the loader output: the filename stem plus per-page text.
type Document struct {
	Source string
	Pages  []Page
}

// Loader reads PDF and TXT files. PDFs are validated and cropped with pdfcpu
// and converted to per-page markdown by an external converter service.
type Loader struct {
	convertURL string
	client     *http.Client
}

func New(convertURL string) *Loader {
	return &Loader{
		convertURL: convertURL,
		client:     &http.Client{Timeout: 5 * time.Minute},
	}
}

// Load extracts per-page text from path. Unknown extensions fail fast with
// ErrUnsupportedType.
func (l *Loader) Load(path string) (*Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".text":
		return loadText(path)
	case ".pdf":
		return l.loadPDF(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Ext(path))
	}
}

// Stem returns the filename without directory and extension, used as the
// chunk source tag.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func loadText(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, path)
	}
	// Plain text has no page structure, everything is page 1.
	return &Document{
		Source: Stem(path),
		Pages:  []Page{{Number: 1, Text: text}},
	}, nil
}

func (l *Loader) loadPDF(path string) (*Document, error) {
	if err := api.ValidateFile(path, api.LoadConfiguration()); err != nil {
		return nil, fmt.Errorf("invalid pdf: %w", err)
	}

	pageCount, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}

	// Repeated page headers and footers pollute chunk text and heading
	// detection. Crop failure is not fatal, conversion runs on the original.
	cropped := path
	if out := path + ".cropped"; RemoveHeaderFooterCrop(path, out, 46, 57) == nil {
		cropped = out
		defer os.Remove(out)
	}

	pages, err := l.convert(cropped)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, path)
	}
	if len(pages) > pageCount {
		pages = pages[:pageCount]
	}

	doc := &Document{Source: Stem(path)}
	for i, text := range pages {
		doc.Pages = append(doc.Pages, Page{Number: i + 1, Text: text})
	}
	return doc, nil
}

type convertResponse struct {
	Document struct {
		Pages []struct {
			MdContent string `json:"md_content"`
		} `json:"pages"`
	} `json:"document"`
}

// convert posts the file to the converter service and returns markdown text
// per page.
func (l *Loader) convert(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err = io.Copy(part, file); err != nil {
		return nil, err
	}
	writer.Close()

	req, err := http.NewRequest("POST", l.convertURL, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("converter request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("converter error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var d convertResponse
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to decode converter response: %w", err)
	}

	pages := make([]string, len(d.Document.Pages))
	for i, p := range d.Document.Pages {
		pages[i] = p.MdContent
	}
	return pages, nil
}
