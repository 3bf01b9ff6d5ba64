package corpus

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/semsearch/core"
)

func newTestPreparer(t *testing.T, opts ...Option) *Preparer {
	t.Helper()
	opts = append([]Option{WithLogger(slog.New(slog.DiscardHandler))}, opts...)
	p, err := NewPreparer(opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}

func TestPrepare(t *testing.T) {
	p := newTestPreparer(t)

	rows := []RawRow{
		{Text: "  Ìròyìn   àgbáyé ", Source: "BBC", URL: "https://bbc.example/yoruba/2021/03/15/iroyin/"},
		{Text: "Ọ̀rọ̀ ajé", Source: "VOA", URL: "https://voa.example/a/"},
	}
	records, err := p.Prepare(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "  Ìròyìn   àgbáyé ", first.OriginalText)
	assert.Equal(t, "Ìròyìn àgbáyé", first.CleanedText)
	assert.Equal(t, "Iroyin agbaye", first.DiacriticlessText)
	assert.Equal(t, "BBC", first.Source)
	require.NotNil(t, first.Year)
	assert.Equal(t, "2021", *first.Year)
	assert.Equal(t, "03", *first.Month)
	assert.Equal(t, "15", *first.Day)
	assert.Equal(t, core.RecordID(rows[0].URL, rows[0].Text, 0), first.Id)

	second := records[1]
	assert.Equal(t, "Oro aje", second.DiacriticlessText)
	assert.Nil(t, second.Year)
	assert.Nil(t, second.Month)
	assert.Nil(t, second.Day)
}

func TestPrepare_PreservesOrder(t *testing.T) {
	p := newTestPreparer(t, WithPoolSize(4))

	rows := make([]RawRow, 500)
	for i := range rows {
		rows[i] = RawRow{Text: fmt.Sprintf("row %d", i), Source: "s", URL: "u"}
	}
	records, err := p.Prepare(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, records, len(rows))
	for i, r := range records {
		assert.Equal(t, rows[i].Text, r.OriginalText)
	}
	require.NoError(t, core.ValidateRecords(records))
}

func TestPrepare_DuplicatesGetDistinctIDs(t *testing.T) {
	p := newTestPreparer(t)

	row := RawRow{Text: "same", Source: "s", URL: "https://example.com/"}
	records, err := p.Prepare(context.Background(), []RawRow{row, row})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.NotEqual(t, records[0].Id, records[1].Id)

	again, err := p.Prepare(context.Background(), []RawRow{row, row})
	require.NoError(t, err)
	assert.Equal(t, records[0].Id, again[0].Id, "IDs are stable across runs")
	assert.Equal(t, records[1].Id, again[1].Id)
}

func TestPrepare_DropsEmptyRows(t *testing.T) {
	p := newTestPreparer(t)

	records, err := p.Prepare(context.Background(), []RawRow{
		{Text: "keep", URL: "a"},
		{Text: " \t\n", URL: "b"},
		{Text: "", URL: "c"},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "keep", records[0].CleanedText)
}

func TestPrepare_Canceled(t *testing.T) {
	p := newTestPreparer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Prepare(ctx, []RawRow{{Text: "x"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithPoolSizeZero(t *testing.T) {
	p := newTestPreparer(t, WithPoolSize(0))
	assert.Equal(t, 1, p.pool.Cap())
}

func TestPrepared_RoundTrip(t *testing.T) {
	p := newTestPreparer(t)
	records, err := p.Prepare(context.Background(), []RawRow{
		{Text: "Ìròyìn, \"quoted\"\nline", Source: "BBC", URL: "https://x.example/2020/12/31/a/"},
		{Text: "plain", Source: "VOA", URL: "https://y.example/"},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WritePrepared(&buf, records))
	assert.Contains(t, buf.String(), "id,original_text,source,url,year,month,day,cleaned_text,diacriticless_text\n")

	loaded, err := ReadPrepared(&buf)
	require.NoError(t, err)
	assert.Equal(t, records, loaded)
}

func TestPrepared_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prepared", "prepared_data.csv")

	_, err := LoadPrepared(path)
	assert.ErrorIs(t, err, core.ErrMissingInputFile)

	records := []core.Record{{Id: 42, OriginalText: "a", CleanedText: "a", DiacriticlessText: "a", Source: "s", URL: "u"}}
	require.NoError(t, SavePrepared(path, records))

	loaded, err := LoadPrepared(path)
	require.NoError(t, err)
	assert.Equal(t, records, loaded)
}

func TestReadPrepared_Errors(t *testing.T) {
	_, err := ReadPrepared(bytes.NewBufferString("id,original_text\n1,a\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)

	header := "id,original_text,source,url,year,month,day,cleaned_text,diacriticless_text\n"
	_, err = ReadPrepared(bytes.NewBufferString(header + "notanumber,a,s,u,,,,a,a\n"))
	assert.ErrorIs(t, err, ErrMalformedRow)
}
