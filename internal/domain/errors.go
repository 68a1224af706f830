package domain

import "errors"

var (
	// ErrInvalidRequest signals a request rejected before any query was issued.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrArtworkNotFound signals a missing artwork document.
	ErrArtworkNotFound = errors.New("artwork not found")
	// ErrUnknownModel signals a model key with no vector field in the index.
	ErrUnknownModel = errors.New("unknown embedding model")
	// ErrStoreUnavailable signals that the search/vector store is unreachable.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
