// Package ollama provides an embedding provider for a local Ollama server
// using its native /api/embed endpoint through langchaingo.
//
// Overload responses (429 and 5xx) and transport failures are reported as
// transient so the caller retries the batch; unknown models and bad
// requests are fatal.
package ollama
