package corpus

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/poiesic/semsearch/core"
	"github.com/poiesic/semsearch/storage"
)

// PreparedColumns is the header of a prepared corpus file.
var PreparedColumns = []string{
	"id", "original_text", "source", "url", "year", "month", "day",
	"cleaned_text", "diacriticless_text",
}

// WritePrepared writes records as CSV with PreparedColumns as header.
// Missing date parts are written as empty fields.
func WritePrepared(w io.Writer, records []core.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(PreparedColumns); err != nil {
		return err
	}
	for i := range records {
		r := &records[i]
		err := cw.Write([]string{
			strconv.FormatUint(uint64(r.Id), 10),
			r.OriginalText,
			r.Source,
			r.URL,
			deref(r.Year),
			deref(r.Month),
			deref(r.Day),
			r.CleanedText,
			r.DiacriticlessText,
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadPrepared parses a prepared corpus. Columns may appear in any order.
func ReadPrepared(r io.Reader) ([]core.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrMissingColumn)
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	idx, err := columnIndex(header, PreparedColumns...)
	if err != nil {
		return nil, err
	}

	var records []core.Record
	for line := 2; ; line++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		id, err := strconv.ParseUint(field(fields, idx["id"]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad id: %w", ErrMalformedRow, line, err)
		}
		records = append(records, core.Record{
			Id:                core.ID(id),
			OriginalText:      field(fields, idx["original_text"]),
			CleanedText:       field(fields, idx["cleaned_text"]),
			DiacriticlessText: field(fields, idx["diacriticless_text"]),
			Source:            field(fields, idx["source"]),
			URL:               field(fields, idx["url"]),
			Year:              core.StringPtr(field(fields, idx["year"])),
			Month:             core.StringPtr(field(fields, idx["month"])),
			Day:               core.StringPtr(field(fields, idx["day"])),
		})
	}
	return records, nil
}

// SavePrepared atomically replaces the prepared corpus at path.
func SavePrepared(path string, records []core.Record) error {
	var buf bytes.Buffer
	if err := WritePrepared(&buf, records); err != nil {
		return fmt.Errorf("failed to encode prepared corpus: %w", err)
	}
	if err := storage.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write prepared corpus %s: %w", path, err)
	}
	return nil
}

// LoadPrepared reads the prepared corpus at path.
// A missing file is reported as core.ErrMissingInputFile.
func LoadPrepared(path string) ([]core.Record, error) {
	f, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := ReadPrepared(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read prepared corpus %s: %w", path, err)
	}
	return records, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
