package artwork

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/museumlab/artsearch/internal/db"
)

// fakeStore records the queries the repo builds and plays back canned
// results.
type fakeStore struct {
	knnQuery        *db.KNNQuery
	textQuery       *db.TextQuery
	structuredQuery string
	structuredLimit int
	createdIndex    *db.IndexDefinition
	indexExists     bool

	knnResult        *db.SearchResult
	textResult       *db.SearchResult
	structuredResult *db.SearchResult
	hashes           map[string]map[string]string

	knnErr     error
	textErr    error
	hgetallErr error
	createErr  error
}

func (f *fakeStore) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	f.knnQuery = q
	if f.knnErr != nil {
		return nil, f.knnErr
	}
	if f.knnResult == nil {
		return &db.SearchResult{}, nil
	}
	return f.knnResult, nil
}

func (f *fakeStore) SearchBM25(_ context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	f.textQuery = q
	if f.textErr != nil {
		return nil, f.textErr
	}
	if f.textResult == nil {
		return &db.SearchResult{}, nil
	}
	return f.textResult, nil
}

func (f *fakeStore) SearchStructured(_ context.Context, _, query string, limit int, _ []string) (*db.SearchResult, error) {
	f.structuredQuery = query
	f.structuredLimit = limit
	if f.structuredResult == nil {
		return &db.SearchResult{}, nil
	}
	return f.structuredResult, nil
}

func (f *fakeStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	if f.hgetallErr != nil {
		return nil, f.hgetallErr
	}
	return f.hashes[key], nil
}

func (f *fakeStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	f.createdIndex = def
	return f.createErr
}

func (f *fakeStore) IndexExists(context.Context, string) (bool, error) {
	return f.indexExists, nil
}

func testModels() []Model {
	return []Model{{Key: "jina_v3", Dim: 3}, {Key: "siglip2", Dim: 3}}
}

func encodeVector(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
