package sheetio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/leofalp/sheetflow/core/fault"
	"github.com/leofalp/sheetflow/core/table"
)

// ReadFile loads a tabular file, dispatching on its extension. xlsx and xls
// go through the workbook reader, everything else is treated as delimited
// text.
func ReadFile(path string, options ReadOptions) (*table.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls", ".xlsm":
		return ReadXLSX(path, options)
	default:
		return ReadCSV(path, options)
	}
}

// ArtifactStore persists sink outputs into a single artifacts directory.
type ArtifactStore struct {
	Dir string
}

// Save writes the table as an artifact and returns the final filename.
// An empty filename gets a generated output_<8 hex> name; a missing or wrong
// extension is appended. The file is written to a temporary sibling and
// renamed into place, so readers never observe a half-written artifact.
// encodingLabel applies to csv only; empty means UTF-8.
func (s *ArtifactStore) Save(t *table.Table, format, filename, encodingLabel string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "xlsx"
	}
	if format != "xlsx" && format != "csv" {
		return "", fault.New(fault.KindSinkIO, "unsupported output format %q", format)
	}

	filename = strings.TrimSpace(filename)
	if filename == "" {
		filename = "output_" + uuid.NewString()[:8]
	}
	if !strings.HasSuffix(strings.ToLower(filename), "."+format) {
		filename += "." + format
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fault.Wrap(fault.KindSinkIO, err, "cannot create artifacts directory %q", s.Dir)
	}

	// The temporary sibling keeps the format extension: the workbook writer
	// refuses to save under a name it does not recognize.
	final := filepath.Join(s.Dir, filename)
	temp := filepath.Join(s.Dir, fmt.Sprintf(".%s.tmp-%s.%s", filename, uuid.NewString()[:8], format))

	var writeErr error
	switch format {
	case "xlsx":
		writeErr = WriteXLSX(t, temp)
	case "csv":
		writeErr = WriteCSV(t, temp, encodingLabel)
	}
	if writeErr != nil {
		os.Remove(temp)
		return "", writeErr
	}

	if err := os.Rename(temp, final); err != nil {
		os.Remove(temp)
		return "", fault.Wrap(fault.KindSinkIO, err, "cannot move artifact into place")
	}
	return filename, nil
}
