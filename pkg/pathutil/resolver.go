// Package pathutil provides centralized path management for local data:
// the history database, spreadsheet exports and the offline document.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// PathResolver manages local data paths.
type PathResolver struct {
	dataRoot     string
	databasePath string
	exportsDir   string
	documentPath string
}

// Config represents the configuration for PathResolver.
type Config struct {
	// DataRoot is the root directory for local data (e.g., ./data)
	DataRoot string
	// DatabasePath is the SQLite write history file
	DatabasePath string
	// ExportsDir receives spreadsheet exports
	ExportsDir string
	// DocumentPath is the document used by the file backend
	DocumentPath string
}

// New creates a new PathResolver with the given configuration.
// Empty paths default to {DataRoot}/.history/history.db, {DataRoot}/exports
// and {DataRoot}/dados.json.
func New(config Config) *PathResolver {
	dbPath := config.DatabasePath
	if dbPath == "" {
		dbPath = filepath.Join(config.DataRoot, ".history", "history.db")
	}

	exportsDir := config.ExportsDir
	if exportsDir == "" {
		exportsDir = filepath.Join(config.DataRoot, "exports")
	}

	documentPath := config.DocumentPath
	if documentPath == "" {
		documentPath = filepath.Join(config.DataRoot, "dados.json")
	}

	return &PathResolver{
		dataRoot:     config.DataRoot,
		databasePath: dbPath,
		exportsDir:   exportsDir,
		documentPath: documentPath,
	}
}

// GetDataRoot returns the data root directory.
func (p *PathResolver) GetDataRoot() string {
	return p.dataRoot
}

// GetDatabasePath returns the history database path.
func (p *PathResolver) GetDatabasePath() string {
	return p.databasePath
}

// GetExportsDir returns the exports directory.
func (p *PathResolver) GetExportsDir() string {
	return p.exportsDir
}

// GetDocumentPath returns the local document path.
func (p *PathResolver) GetDocumentPath() string {
	return p.documentPath
}

// GetExportPath returns a timestamped workbook path for a debtor filter.
// Example: exports/parcelas-bob-20240301-150405.xlsx
func (p *PathResolver) GetExportPath(debtor string, at time.Time) string {
	name := "parcelas"
	if debtor != "" {
		name = fmt.Sprintf("parcelas-%s", slug(debtor))
	}
	return filepath.Join(p.exportsDir, fmt.Sprintf("%s-%s.xlsx", name, at.Format("20060102-150405")))
}

// EnsureParentDir ensures the parent directory of a file exists.
func (p *PathResolver) EnsureParentDir(filePath string) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// FileExists checks if a file exists.
func (p *PathResolver) FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}

// slug strips accents, lowercases a name and keeps ASCII letters and digits,
// joining the rest with dashes.
func slug(name string) string {
	stripped, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), name)
	if err == nil {
		name = stripped
	}

	out := make([]rune, 0, len(name))
	dash := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
			dash = false
		case r >= 'A' && r <= 'Z':
			out = append(out, r+'a'-'A')
			dash = false
		default:
			if !dash && len(out) > 0 {
				out = append(out, '-')
				dash = true
			}
		}
	}
	if dash {
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return "debtor"
	}
	return string(out)
}
