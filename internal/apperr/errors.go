// Package apperr defines the error kinds shared across layers.
// Layers wrap these with fmt.Errorf("...: %w") and callers classify with errors.Is.
package apperr

import "errors"

var (
	// ErrValidation indicates a malformed request: bad upload type, bad body, bad parameters.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates an unknown document identifier.
	ErrNotFound = errors.New("not found")

	// ErrExtraction indicates the PDF could not be parsed into text.
	ErrExtraction = errors.New("pdf extraction failed")

	// ErrEmbedding indicates the embedding provider failed.
	ErrEmbedding = errors.New("embedding failed")

	// ErrIndexUnavailable indicates the vector index backing store failed.
	// It is never used for "no results".
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrRetrieval indicates the retrieval infrastructure failed while answering a question.
	ErrRetrieval = errors.New("retrieval failed")

	// ErrNoContext indicates retrieval succeeded but returned no chunks.
	ErrNoContext = errors.New("no relevant context")

	// ErrLLMTimeout indicates the LLM call exceeded its deadline.
	ErrLLMTimeout = errors.New("llm call timed out")

	// ErrLLMProvider indicates the provider call itself failed.
	ErrLLMProvider = errors.New("llm provider error")

	// ErrEmptyResponse indicates the provider answered without candidates or content.
	ErrEmptyResponse = errors.New("llm returned no content")

	// ErrRateLimited indicates the client exceeded its request budget.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrConfig indicates invalid or missing configuration at startup.
	ErrConfig = errors.New("invalid configuration")
)
