// Package source identifies where a ranked list came from.
package source

// Kind is the list origin category.
type Kind string

const (
	// KindKeyword marks a BM25 keyword list.
	KindKeyword Kind = "keyword"
	// KindSemantic marks a vector kNN list for one embedding model.
	KindSemantic Kind = "semantic"
	// KindMetadata marks the metadata-similarity pseudo-list.
	KindMetadata Kind = "metadata"
)

// Source names one contributing ranked list: a kind plus, for semantic
// lists, the embedding model that produced it.
type Source struct {
	kind  Kind
	model string
}

// Keyword returns the keyword source.
func Keyword() Source { return Source{kind: KindKeyword} }

// Semantic returns the semantic source for a model key.
func Semantic(model string) Source { return Source{kind: KindSemantic, model: model} }

// Metadata returns the metadata-similarity source.
func Metadata() Source { return Source{kind: KindMetadata} }

// Kind returns the origin category.
func (s Source) Kind() Kind { return s.kind }

// Model returns the embedding model key, empty for non-semantic sources.
func (s Source) Model() string { return s.model }

// Key returns a stable string identity ("keyword", "semantic:jina_v3", ...).
// Used for threshold lookup and contributing-source sets.
func (s Source) Key() string {
	if s.kind == KindSemantic {
		return string(s.kind) + ":" + s.model
	}
	return string(s.kind)
}
