// Package filestore keeps the debtor document in a local JSON file, for
// offline use and tests.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shunichi-ikebuchi/debt-tracker/pkg/ledger"
)

// ErrDocumentMissing is returned by Fetch when the file does not exist.
var ErrDocumentMissing = errors.New("document file does not exist")

// Store reads and writes one JSON file.
type Store struct {
	path string
}

// New creates a Store for path. The file is not touched until used.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the document file path.
func (s *Store) Path() string {
	return s.path
}

// Init creates an empty document unless the file already exists.
func (s *Store) Init() error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	}
	return s.write([]byte("[]"))
}

// Fetch reads and parses the file. A missing file is a failure, not an
// empty document.
func (s *Store) Fetch(ctx context.Context) (ledger.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrDocumentMissing, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	doc, err := ledger.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	return doc, nil
}

// Replace overwrites the file through a temporary file and a rename.
func (s *Store) Replace(ctx context.Context, doc ledger.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	content, err := doc.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	return s.write(content)
}

func (s *Store) write(content []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".dados-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}
