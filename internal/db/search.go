package db

// KNNQuery is the input for vector similarity search over one vector field.
type KNNQuery struct {
	IndexName string
	Field     string // vector field alias (one per embedding model)
	Vector    []float32
	K         int
	// EFRuntime sizes the HNSW runtime candidate list; 0 leaves the engine
	// default.
	EFRuntime    int
	ReturnFields []string
}

// WeightedField is a text field with its query-time BM25 boost.
type WeightedField struct {
	Name   string
	Weight float64
}

// TextQuery is the input for BM25 text search across weighted fields.
// Query is raw user text; the store escapes it.
type TextQuery struct {
	IndexName    string
	Query        string
	Fields       []WeightedField
	TopK         int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
