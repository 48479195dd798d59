package sheetio

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"github.com/leofalp/sheetflow/core/fault"
	"github.com/leofalp/sheetflow/core/table"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV parses a delimited text file into a table. The delimiter and text
// encoding come from options; a UTF-8 byte order mark is stripped when
// present.
func ReadCSV(path string, options ReadOptions) (*table.Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fault.Wrap(fault.KindFileNotFound, err, "cannot read file %q", path)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	decoder, err := textDecoder(options.Encoding)
	if err != nil {
		return nil, err
	}
	var reader io.Reader = bytes.NewReader(raw)
	if decoder != nil {
		reader = transform.NewReader(reader, decoder.NewDecoder())
	}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiterRune(options.Delimiter)
	csvReader.FieldsPerRecord = -1
	csvReader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fault.Wrap(fault.KindInternal, err, "malformed csv in %q", path)
		}
		rows = append(rows, record)
	}

	return tableFromRows(rows, options)
}

// textDecoder maps an encoding label to a decoder. A nil result means the
// bytes are already UTF-8.
func textDecoder(label string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "gbk":
		return simplifiedchinese.GBK, nil
	case "gb2312":
		return simplifiedchinese.HZGB2312, nil
	case "gb18030":
		return simplifiedchinese.GB18030, nil
	case "latin-1", "latin1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	default:
		return nil, fault.New(fault.KindInternal, "unsupported text encoding %q", label)
	}
}

func delimiterRune(delimiter string) rune {
	if delimiter == "" {
		return ','
	}
	return []rune(delimiter)[0]
}

// WriteCSV persists a table as comma-separated text in the given encoding
// (empty means UTF-8). Cells are rendered with the engine's canonical text
// rendering, so whole numbers never grow a decimal point.
func WriteCSV(t *table.Table, path, encodingLabel string) error {
	codec, err := textDecoder(encodingLabel)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fault.Wrap(fault.KindSinkIO, err, "cannot create file %q", path)
	}
	defer file.Close()

	var sink io.Writer = file
	if codec != nil {
		sink = transform.NewWriter(file, codec.NewEncoder())
	}

	writer := csv.NewWriter(sink)
	if err := writer.Write(t.ColumnNames()); err != nil {
		return fault.Wrap(fault.KindSinkIO, err, "cannot write csv header")
	}

	names := t.ColumnNames()
	record := make([]string, len(names))
	for row := 0; row < t.NumRows(); row++ {
		for i, name := range names {
			record[i] = table.AsString(t.Cell(row, name))
		}
		if err := writer.Write(record); err != nil {
			return fault.Wrap(fault.KindSinkIO, err, "cannot write csv row %d", row)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fault.Wrap(fault.KindSinkIO, err, "cannot flush csv output")
	}
	if err := file.Sync(); err != nil {
		return fault.Wrap(fault.KindSinkIO, err, "cannot sync %q", path)
	}
	return nil
}
