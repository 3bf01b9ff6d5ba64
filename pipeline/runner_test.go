package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeStage(name, path string, calls *[]string) Stage {
	return Stage{
		Name:   name,
		Output: path,
		Run: func(ctx context.Context) error {
			*calls = append(*calls, name)
			return os.WriteFile(path, []byte(name), 0o644)
		},
	}
}

func newTestRunner(t *testing.T, stages []Stage, opts ...Option) *Runner {
	t.Helper()
	opts = append([]Option{WithLogger(slog.New(slog.DiscardHandler))}, opts...)
	r, err := NewRunner(stages, opts...)
	require.NoError(t, err)
	return r
}

func TestRunner_RunsInOrder(t *testing.T) {
	dir := t.TempDir()
	var calls []string
	stages := []Stage{
		writeStage("prepare", filepath.Join(dir, "prepared.csv"), &calls),
		writeStage("embed", filepath.Join(dir, "embeddings.snap"), &calls),
		writeStage("index", filepath.Join(dir, "index.ssix"), &calls),
		{Name: "query", Run: func(ctx context.Context) error {
			calls = append(calls, "query")
			return nil
		}},
	}
	r := newTestRunner(t, stages)

	for _, s := range r.States()[:3] {
		assert.Equal(t, Pending, s.State, s.Name)
	}

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, []string{"prepare", "embed", "index", "query"}, calls)

	states := r.States()
	assert.Equal(t, Done, states[0].State)
	assert.Equal(t, Done, states[1].State)
	assert.Equal(t, Done, states[2].State)
	assert.Equal(t, Pending, states[3].State, "query has no artifact")
}

func TestRunner_SkipsDoneStages(t *testing.T) {
	dir := t.TempDir()
	prepared := filepath.Join(dir, "prepared.csv")
	snapshot := filepath.Join(dir, "embeddings.snap")
	require.NoError(t, os.WriteFile(prepared, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(snapshot, []byte("x"), 0o644))

	var calls []string
	r := newTestRunner(t, []Stage{
		writeStage("prepare", prepared, &calls),
		writeStage("embed", snapshot, &calls),
		writeStage("index", filepath.Join(dir, "index.ssix"), &calls),
	})

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, []string{"index"}, calls)

	calls = nil
	require.NoError(t, r.Run(context.Background()))
	assert.Empty(t, calls, "second run has nothing to do")
}

func TestRunner_RerunsStaleStages(t *testing.T) {
	dir := t.TempDir()
	snapshot := filepath.Join(dir, "embeddings.snap")
	idx := filepath.Join(dir, "index.ssix")
	require.NoError(t, os.WriteFile(snapshot, []byte("new"), 0o644))
	require.NoError(t, os.WriteFile(idx, []byte("old"), 0o644))

	// The index was built before the snapshot was rewritten.
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(idx, past, past))

	var calls []string
	index := writeStage("index", idx, &calls)
	index.Inputs = []string{snapshot, filepath.Join(dir, "missing")}
	r := newTestRunner(t, []Stage{index})

	assert.Equal(t, Stale, r.States()[0].State)
	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, []string{"index"}, calls)
	assert.Equal(t, Done, r.States()[0].State)

	calls = nil
	require.NoError(t, r.Run(context.Background()))
	assert.Empty(t, calls, "fresh output is skipped")
}

func TestRunner_Force(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prepared.csv")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	var calls []string
	r := newTestRunner(t, []Stage{writeStage("prepare", path, &calls)}, WithForce(true))
	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, []string{"prepare"}, calls)
}

func TestRunner_StopsOnFailure(t *testing.T) {
	dir := t.TempDir()
	boom := errors.New("provider down")
	var calls []string
	snapshot := filepath.Join(dir, "embeddings.snap")

	r := newTestRunner(t, []Stage{
		writeStage("prepare", filepath.Join(dir, "prepared.csv"), &calls),
		{Name: "embed", Output: snapshot, Run: func(ctx context.Context) error {
			calls = append(calls, "embed")
			return boom
		}},
		writeStage("index", filepath.Join(dir, "index.ssix"), &calls),
	})

	err := r.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), snapshot, "error names the artifact")
	assert.Equal(t, []string{"prepare", "embed"}, calls)
}

func TestRunner_OutputNotProduced(t *testing.T) {
	r := newTestRunner(t, []Stage{{
		Name:   "index",
		Output: filepath.Join(t.TempDir(), "index.ssix"),
		Run:    func(ctx context.Context) error { return nil },
	}})

	assert.ErrorIs(t, r.Run(context.Background()), ErrOutputNotProduced)
}

func TestRunner_DirectoryIsNotAnArtifact(t *testing.T) {
	dir := t.TempDir()
	var calls []string
	r := newTestRunner(t, []Stage{writeStage("prepare", filepath.Join(dir, "out"), &calls)})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "out"), 0o755))

	assert.Equal(t, Pending, r.States()[0].State)
}

func TestRunner_Canceled(t *testing.T) {
	var calls []string
	r := newTestRunner(t, []Stage{writeStage("prepare", filepath.Join(t.TempDir(), "p"), &calls)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, r.Run(ctx), context.Canceled)
	assert.Empty(t, calls)
}

func TestNewRunner_Validation(t *testing.T) {
	_, err := NewRunner([]Stage{{Name: "prepare"}})
	assert.ErrorIs(t, err, ErrStageRunRequired)

	run := func(ctx context.Context) error { return nil }
	_, err = NewRunner([]Stage{{Name: "a", Run: run}, {Name: "a", Run: run}})
	assert.ErrorIs(t, err, ErrDuplicateStage)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "done", Done.String())
	assert.Equal(t, "stale", Stale.String())
	assert.Equal(t, "State(7)", State(7).String())
}
