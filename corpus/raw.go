package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/poiesic/semsearch/core"
)

// RawRow is one line of the raw corpus file.
type RawRow struct {
	Text   string
	Source string
	URL    string
}

// columnIndex maps each required column name to its position in header.
// Names are matched case-insensitively; extra columns are ignored.
func columnIndex(header []string, required ...string) (map[string]int, error) {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := pos[name]; !dup {
			pos[name] = i
		}
	}

	idx := make(map[string]int, len(required))
	var missing []string
	for _, name := range required {
		i, ok := pos[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		idx[name] = i
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}

// ReadRaw parses a CSV stream whose header names at least the text,
// source and url columns. Row order is preserved.
func ReadRaw(r io.Reader) ([]RawRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrMissingColumn)
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	idx, err := columnIndex(header, "text", "source", "url")
	if err != nil {
		return nil, err
	}

	var rows []RawRow
	for line := 2; ; line++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, RawRow{
			Text:   field(fields, idx["text"]),
			Source: field(fields, idx["source"]),
			URL:    field(fields, idx["url"]),
		})
	}
	return rows, nil
}

// field returns fields[i], or "" for a short row.
func field(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}

// LoadRaw reads the raw corpus at path.
// A missing file is reported as core.ErrMissingInputFile.
func LoadRaw(path string) ([]RawRow, error) {
	f, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := ReadRaw(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read raw corpus %s: %w", path, err)
	}
	return rows, nil
}

func openInput(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", core.ErrMissingInputFile, path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}
