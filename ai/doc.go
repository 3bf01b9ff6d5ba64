// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package ai provides the embedding provider boundary used by semsearch.
//
// The package defines the Embedder interface, provider configuration, and
// the error classification that decides whether a failed embedding call is
// worth retrying. The core domain and the batch orchestrator depend on these
// abstractions rather than on concrete clients.
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible APIs via langchaingo
//   - ai/ollama: a local Ollama server via langchaingo
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Error Classification
//
// Classify maps any error returned by an Embedder to an ErrorKind:
//
//   - KindTransient: rate limits, provider outages, timeouts, transport errors
//   - KindFatal: authentication, invalid requests, unknown models, anything unrecognized
//   - KindCanceled: the caller's context was canceled
//
// Providers may classify errors themselves by returning Transient or Fatal;
// that classification always wins.
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// INTERFACE types to enforce abstraction. Test utility constructors
// (mock.NewMockEmbedder) return CONCRETE types to enable test assertions
// and behavior injection.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithEmbeddingModel("text-embedding-3-small"))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vectors, err := provider.Embedder().EmbedTexts(ctx, texts)
//	if ai.Classify(err) == ai.KindTransient {
//	    // back off and retry the same batch
//	}
package ai
