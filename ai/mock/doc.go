// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder and ai.AIProvider
// for use in unit tests. The mocks allow tests to run without external AI
// service dependencies and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockEmbedder := mock.NewMockEmbedder()
//	vec, err := mockEmbedder.EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	mockEmbedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, ai.Transient("mock", errors.New("rate limited"))
//	}
//
//	// Check call counts and batch boundaries
//	count := mockEmbedder.CallCount()
//	batches := mockEmbedder.Batches()
//
// # Default Behavior
//
// MockEmbedder returns deterministic unit vectors derived from a hash of
// the text, DefaultDimension long unless Dimension is set.
package mock
