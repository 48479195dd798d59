package operators

import (
	"context"

	"github.com/leofalp/sheetflow/core/table"
	"github.com/leofalp/sheetflow/providers/sheetio"
)

// runSource reads one worksheet of an uploaded workbook. Config: file_id,
// sheet_name (name or zero-based ordinal), header_row (1-based), skip_rows.
func runSource(_ context.Context, env *Env, req *Request) (*Result, error) {
	fileID, err := requireString(req.Config, "source", "file_id")
	if err != nil {
		return nil, err
	}
	return readSource(env, req, fileID)
}

// runSourceOptional behaves like source, except a missing file_id yields an
// empty table instead of failing. Used for workflow branches whose input is
// genuinely optional.
func runSourceOptional(_ context.Context, env *Env, req *Request) (*Result, error) {
	fileID := configString(req.Config, "file_id")
	if fileID == "" {
		return &Result{Table: table.Empty()}, nil
	}
	return readSource(env, req, fileID)
}

func readSource(env *Env, req *Request, fileID string) (*Result, error) {
	path, err := env.Resolver.Resolve(fileID)
	if err != nil {
		return nil, err
	}

	options := sheetio.ReadOptions{
		Sheet:     configString(req.Config, "sheet_name"),
		HeaderRow: configInt(req.Config, "header_row", 1),
		SkipRows:  configInt(req.Config, "skip_rows", 0),
		MaxRows:   -1,
	}
	if env.Preview {
		options.MaxRows = env.SourceRowLimit
	}

	t, err := sheetio.ReadXLSX(path, options)
	if err != nil {
		return nil, err
	}
	return &Result{Table: t}, nil
}

// runSourceCSV reads a delimited text upload. Config: file_id, delimiter,
// encoding.
func runSourceCSV(_ context.Context, env *Env, req *Request) (*Result, error) {
	fileID, err := requireString(req.Config, "source_csv", "file_id")
	if err != nil {
		return nil, err
	}

	path, err := env.Resolver.Resolve(fileID)
	if err != nil {
		return nil, err
	}

	options := sheetio.ReadOptions{
		Delimiter: configString(req.Config, "delimiter"),
		Encoding:  configString(req.Config, "encoding"),
		MaxRows:   -1,
	}
	if env.Preview {
		options.MaxRows = env.SourceRowLimit
	}

	t, err := sheetio.ReadCSV(path, options)
	if err != nil {
		return nil, err
	}
	return &Result{Table: t}, nil
}
