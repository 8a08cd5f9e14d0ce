// Package ingest turns files into embedded, searchable chunks.
package ingest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for file types no extractor understands.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Extracted is the plain-text result of pulling content out of a file.
type Extracted struct {
	Text     string
	FileName string
	FileType string
	FileSize int64
}

// Extractor turns a raw file into plain text plus metadata. PDF, Word, and
// OCR extraction are external collaborators behind this interface; the
// built-in FileExtractor covers the plain formats.
type Extractor interface {
	Extract(path string) (Extracted, error)
}

// FileExtractor handles .txt, .md, .json, and .csv files.
type FileExtractor struct{}

func (FileExtractor) Extract(path string) (Extracted, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Extracted{}, fmt.Errorf("stat %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	name := filepath.Base(path)

	var text string
	switch ext {
	case ".txt", ".md":
		raw, err := os.ReadFile(path)
		if err != nil {
			return Extracted{}, fmt.Errorf("read %s: %w", path, err)
		}
		text = string(raw)
	case ".json":
		text, err = extractJSON(path, name)
	case ".csv":
		text, err = extractCSV(path, name)
	default:
		return Extracted{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return Extracted{}, err
	}

	return Extracted{
		Text:     text,
		FileName: name,
		FileType: ext,
		FileSize: info.Size(),
	}, nil
}

func extractJSON(path, name string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		return "", fmt.Errorf("parse json %s: %w", path, err)
	}
	return fmt.Sprintf("JSON Data from %s:\n%s", name, pretty.String()), nil
}

func extractCSV(path, name string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse csv %s: %w", path, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CSV Data from %s:\n", name)
	for _, row := range rows {
		b.WriteString(strings.Join(row, " | "))
		b.WriteString("\n")
	}
	return b.String(), nil
}
