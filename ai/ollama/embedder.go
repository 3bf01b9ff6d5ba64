package ollama

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/poiesic/semsearch/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

const providerName = "ollama"

// ErrDimensionsUnsupported is returned when a config asks Ollama for a
// specific output dimension.
var ErrDimensionsUnsupported = errors.New("ollama: output dimension cannot be configured")

// Embedder implements ai.Embedder against a local Ollama server.
type Embedder struct {
	client *ollama.LLM
	model  string
	mapper *llms.ErrorMapper
	logger *slog.Logger
}

// statusTransport turns overload responses into transport errors so they
// classify as transient. Other failures are left to the Ollama client.
type statusTransport struct {
	base http.RoundTripper
}

type overloadError struct {
	status int
}

func (e *overloadError) Error() string {
	return fmt.Sprintf("ollama server returned %d %s", e.status, http.StatusText(e.status))
}

func (t *statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, ai.Transient(providerName, &overloadError{status: resp.StatusCode})
	}
	return resp, nil
}

func newEmbedder(config *ai.Config, httpClient *http.Client) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Provider != ai.ProviderOllama {
		return nil, fmt.Errorf("ai config: provider %q is not %q", config.Provider, ai.ProviderOllama)
	}
	if config.Dimensions > 0 {
		return nil, fmt.Errorf("%w: ollama embeddings cannot be shortened to %d dimensions",
			ErrDimensionsUnsupported, config.Dimensions)
	}

	if httpClient == nil {
		httpClient = &http.Client{}
	}
	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	wrapped := *httpClient
	wrapped.Transport = &statusTransport{base: base}

	client, err := ollama.New(
		ollama.WithServerURL(config.EmbeddingHost),
		ollama.WithModel(config.EmbeddingModel),
		ollama.WithHTTPClient(&wrapped),
	)
	if err != nil {
		return nil, err
	}

	return &Embedder{
		client: client,
		model:  config.EmbeddingModel,
		mapper: llms.NewErrorMapper(providerName),
		logger: slog.Default().With("component", "ollama-embedder"),
	}, nil
}

// NewEmbedder creates an embedder for the Ollama server named in config.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config, nil)
}

// Model returns the configured embedding model.
func (e *Embedder) Model() string {
	return e.model
}

// Dimension always returns 0: Ollama serves the model's native dimension.
func (e *Embedder) Dimension() int {
	return 0
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts embeds each text in order. Ollama handles one input per request.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	vectors, err := e.client.CreateEmbedding(ctx, texts)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		} else {
			err = e.mapper.Map(err)
		}
		e.logger.Warn("failed to generate embeddings", "count", len(texts), "kind", ai.Classify(err), "err", err)
		return nil, err
	}

	if len(vectors) != len(texts) {
		return nil, ai.Fatal(providerName,
			fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(vectors)))
	}
	return vectors, nil
}
