// Package sheetio loads and persists tabular files. It covers the two
// formats the engine ingests (xlsx via excelize, csv with configurable
// delimiter and encoding), upload resolution by file identifier, and
// artifact persistence for sink outputs.
package sheetio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leofalp/sheetflow/core/fault"
)

// Resolver maps a logical file identifier to a readable path.
type Resolver interface {
	Resolve(fileID string) (string, error)
}

// DirResolver resolves file identifiers against a single upload directory.
// Uploaded files are stored with the identifier as a filename prefix, so
// resolution scans the directory for the first entry whose name starts with
// the identifier.
type DirResolver struct {
	Dir string
}

var _ Resolver = (*DirResolver)(nil)

// Resolve returns the path of the first directory entry whose name starts
// with fileID. Entries are scanned in lexical order for determinism.
func (r *DirResolver) Resolve(fileID string) (string, error) {
	if fileID == "" {
		return "", fault.New(fault.KindFileNotFound, "empty file identifier")
	}

	entries, err := os.ReadDir(r.Dir)
	if err != nil {
		return "", fault.Wrap(fault.KindFileNotFound, err, "upload directory %q is not readable", r.Dir)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), fileID) {
			return filepath.Join(r.Dir, entry.Name()), nil
		}
	}
	return "", fault.New(fault.KindFileNotFound, "no uploaded file found for identifier %q", fileID)
}

// ReadOptions control how a tabular file is parsed.
type ReadOptions struct {
	// Sheet selects the worksheet by name. Ignored for csv.
	Sheet string
	// SheetIndex selects the worksheet by zero-based ordinal when Sheet is
	// empty. Ignored for csv.
	SheetIndex int
	// HeaderRow is the 1-based row holding column names. Zero means row 1.
	HeaderRow int
	// SkipRows drops this many data rows immediately after the header.
	SkipRows int
	// MaxRows caps the number of data rows read. Negative means unlimited.
	MaxRows int
	// Delimiter is the csv field separator. Empty means comma.
	Delimiter string
	// Encoding is the csv text encoding (utf-8, gbk, gb2312, gb18030,
	// latin-1). Empty means utf-8.
	Encoding string
}

// headerNames turns a raw header row into usable column names: cells are
// trimmed, blanks become positional placeholders, duplicates get numeric
// suffixes.
func headerNames(raw []string, width int) []string {
	names := make([]string, width)
	seen := make(map[string]int, width)
	for i := 0; i < width; i++ {
		name := ""
		if i < len(raw) {
			name = strings.TrimSpace(raw[i])
		}
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if count, exists := seen[name]; exists {
			seen[name] = count + 1
			name = fmt.Sprintf("%s.%d", name, count)
		}
		if _, exists := seen[name]; !exists {
			seen[name] = 1
		}
		names[i] = name
	}
	return names
}
