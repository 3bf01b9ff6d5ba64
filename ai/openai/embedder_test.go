package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/poiesic/semsearch/ai"
	"github.com/poiesic/semsearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Embedder) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := ai.NewConfig(
		ai.WithEmbeddingHost(srv.URL),
		ai.WithEmbeddingModel("test-embed"),
		ai.WithToken("test-token"),
	)
	embedder, err := newEmbedder(cfg, srv.Client())
	require.NoError(t, err)
	return srv, embedder
}

func writeEmbeddings(t *testing.T, w http.ResponseWriter, r *http.Request) {
	var req embeddingRequest
	require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

	type item struct {
		Object    string    `json:"object"`
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	}
	data := make([]item, len(req.Input))
	for i := range req.Input {
		data[i] = item{Object: "embedding", Embedding: []float32{float32(i), float32(len(req.Input[i]))}, Index: i}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"object": "list",
		"data":   data,
		"model":  req.Model,
	})
}

func TestEmbedder_EmbedTexts(t *testing.T) {
	var calls atomic.Int32
	_, embedder := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		writeEmbeddings(t, w, r)
	})

	vectors, err := embedder.EmbedTexts(context.Background(), []string{"a", "bbb", "cc"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, []float32{0, 1}, vectors[0])
	assert.Equal(t, []float32{1, 3}, vectors[1])
	assert.Equal(t, []float32{2, 2}, vectors[2])
	assert.Equal(t, int32(1), calls.Load(), "one batch should be one request")
	assert.Equal(t, "test-embed", embedder.Model())
}

func TestEmbedder_EmbedText(t *testing.T) {
	_, embedder := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeEmbeddings(t, w, r)
	})

	vec, err := embedder.EmbedText(context.Background(), "query")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 5}, vec)
}

func TestEmbedder_ErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   ai.ErrorKind
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, want: ai.KindTransient},
		{name: "service unavailable", status: http.StatusServiceUnavailable, want: ai.KindTransient},
		{name: "bad request", status: http.StatusBadRequest, want: ai.KindFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, embedder := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := embedder.EmbedTexts(context.Background(), []string{"x"})
			require.Error(t, err)
			assert.Equal(t, tt.want, ai.Classify(err), "err: %v", err)
		})
	}
}

func TestEmbedder_CanceledContext(t *testing.T) {
	_, embedder := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeEmbeddings(t, w, r)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := embedder.EmbedTexts(ctx, []string{"x"})
	require.Error(t, err)
	assert.Equal(t, ai.KindCanceled, ai.Classify(err))
	assert.NotErrorIs(t, err, core.ErrTransientProvider)
}

func TestNewEmbedder_InvalidConfig(t *testing.T) {
	_, err := NewEmbedder(ai.NewConfig(ai.WithEmbeddingModel("")))
	assert.Error(t, err)
}

func TestEmbedder_Dimension(t *testing.T) {
	embedder, err := NewEmbedder(ai.NewConfig())
	require.NoError(t, err)
	assert.Zero(t, embedder.Dimension(), "model default")

	embedder, err = NewEmbedder(ai.NewConfig(ai.WithDimensions(256)))
	require.NoError(t, err)
	assert.Equal(t, 256, embedder.Dimension())
}
