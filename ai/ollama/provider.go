package ollama

import (
	"log/slog"

	"github.com/poiesic/semsearch/ai"
)

// Provider implements ai.AIProvider for a local Ollama server.
type Provider struct {
	embedder *Embedder
	logger   *slog.Logger
}

// NewProvider creates a provider backed by the Ollama server named in config.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	embedder, err := newEmbedder(config, nil)
	if err != nil {
		return nil, err
	}
	return &Provider{
		embedder: embedder,
		logger:   slog.Default().With("component", "ollama-provider"),
	}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Close is a no-op; the HTTP client holds no resources that need releasing.
func (p *Provider) Close() error {
	p.logger.Debug("closing Ollama provider")
	return nil
}
