// Package artwork implements the search store contract over the FT index.
package artwork

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/museumlab/artsearch/internal/db"
	"github.com/museumlab/artsearch/internal/domain"
	domart "github.com/museumlab/artsearch/internal/domain/artwork"
	"github.com/museumlab/artsearch/internal/domain/search/result"
	"github.com/museumlab/artsearch/internal/domain/search/source"
)

// Index layout.
const (
	// IndexName is the FT index over artwork hashes.
	IndexName = "artworks:idx"
	// KeyPrefix prefixes every artwork hash key.
	KeyPrefix = "artwork:"

	// metadataYearWindow bounds the date-proximity candidate range in
	// metadata-similarity queries.
	metadataYearWindow = 50
)

// Keyword field boosts. Title and artist dominate; the AI visual
// descriptions join only on request.
var keywordFields = []db.WeightedField{
	{Name: fieldTitle, Weight: 3},
	{Name: fieldArtist, Weight: 3},
	{Name: fieldMedium, Weight: 1},
	{Name: fieldClassification, Weight: 1},
	{Name: fieldDepartment, Weight: 1},
	{Name: fieldNationality, Weight: 1},
	{Name: fieldCollection, Weight: 1},
	{Name: fieldDate, Weight: 1},
}

var descriptionFields = []db.WeightedField{
	{Name: fieldAltText, Weight: 2},
	{Name: fieldLongDesc, Weight: 1},
}

// store is the consumer interface for artwork search operations.
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchStructured(ctx context.Context, index, query string, limit int, fields []string) (*db.SearchResult, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Model describes one embedding model's vector field.
type Model struct {
	Key string
	Dim int
}

// Repo implements usecase/search.Store.
type Repo struct {
	store  store
	models map[string]int // model key -> vector dimension
}

// New creates an artwork repository for the given embedding models.
func New(s store, models []Model) *Repo {
	dims := make(map[string]int, len(models))
	for _, m := range models {
		dims[m.Key] = m.Dim
	}
	return &Repo{store: s, models: dims}
}

// storeErr tags connectivity failures with the domain sentinel so the
// transport answers 503 instead of a generic 500. Query-shaped errors pass
// through unchanged.
func storeErr(err error) error {
	if db.IsUnavailable(err) {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return err
}

// KeywordSearch runs a weighted BM25 query across the catalogue text fields.
func (r *Repo) KeywordSearch(
	ctx context.Context, query string, includeDescriptions bool, size int,
) (result.RankedList, error) {
	fields := keywordFields
	if includeDescriptions {
		fields = append(append([]db.WeightedField{}, keywordFields...), descriptionFields...)
	}

	sr, err := r.store.SearchBM25(ctx, &db.TextQuery{
		IndexName:    IndexName,
		Query:        query,
		Fields:       fields,
		TopK:         size,
		ReturnFields: displayFields,
	})
	if err != nil {
		return result.RankedList{}, fmt.Errorf("keyword search: %w", storeErr(err))
	}

	return r.toRankedList(source.Keyword(), sr), nil
}

// VectorSearch runs kNN over one model's vector field.
func (r *Repo) VectorSearch(
	ctx context.Context, model string, vector []float32, k, numCandidates int,
) (result.RankedList, error) {
	if _, ok := r.models[model]; !ok {
		return result.RankedList{}, fmt.Errorf("%w: %s", domain.ErrUnknownModel, model)
	}

	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    IndexName,
		Field:        embedField(model),
		Vector:       vector,
		K:            k,
		EFRuntime:    numCandidates,
		ReturnFields: displayFields,
	})
	if err != nil {
		return result.RankedList{}, fmt.Errorf("vector search %s: %w", model, storeErr(err))
	}

	return r.toRankedList(source.Semantic(model), sr), nil
}

// MetadataSearch returns structural candidates for a seed: same artist,
// classification, department, nationality, or a nearby creation year.
// Callers re-rank; entry scores are not meaningful here.
func (r *Repo) MetadataSearch(
	ctx context.Context, seed domart.Artwork, size int,
) ([]result.Hit, error) {
	var clauses []string
	if seed.Artist() != "" {
		clauses = append(clauses, db.TagClause(tagArtist, seed.Artist()))
	}
	if seed.Classification() != "" {
		clauses = append(clauses, db.TagClause(tagClassification, seed.Classification()))
	}
	if seed.Department() != "" {
		clauses = append(clauses, db.TagClause(tagDepartment, seed.Department()))
	}
	if seed.Nationality() != "" {
		clauses = append(clauses, db.TagClause(tagNationality, seed.Nationality()))
	}
	if y := seed.Year(); y > 0 {
		clauses = append(clauses, db.NumericRange(fieldYear,
			float64(y-metadataYearWindow), float64(y+metadataYearWindow)))
	}

	query := db.Or(clauses...)
	if query == "" {
		return nil, nil
	}

	sr, err := r.store.SearchStructured(ctx, IndexName, query, size, displayFields)
	if err != nil {
		return nil, fmt.Errorf("metadata search: %w", storeErr(err))
	}

	hits := make([]result.Hit, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id := strings.TrimPrefix(entry.Key, KeyPrefix)
		hits = append(hits, result.NewHit(id, entry.Score, artworkFromFields(id, entry.Fields, r.models)))
	}
	return hits, nil
}

// GetArtwork fetches one artwork by id, including its stored vectors.
func (r *Repo) GetArtwork(ctx context.Context, id string) (domart.Artwork, error) {
	fields, err := r.store.HGetAll(ctx, KeyPrefix+id)
	if err != nil {
		return domart.Artwork{}, fmt.Errorf("get artwork %s: %w", id, storeErr(err))
	}
	if len(fields) == 0 {
		return domart.Artwork{}, fmt.Errorf("%w: %s", domain.ErrArtworkNotFound, id)
	}
	return artworkFromFields(id, fields, r.models), nil
}

// EnsureIndex creates the FT index when absent. Concurrent creation is
// tolerated.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, IndexName)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if exists {
		return nil
	}

	def := r.indexDefinition()
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

func (r *Repo) indexDefinition() *db.IndexDefinition {
	fields := []db.IndexField{
		{Name: fieldTitle, Type: db.IndexFieldText},
		{Name: fieldArtist, Type: db.IndexFieldText},
		{Name: fieldDate, Type: db.IndexFieldText},
		{Name: fieldMedium, Type: db.IndexFieldText},
		{Name: fieldClassification, Type: db.IndexFieldText},
		{Name: fieldDepartment, Type: db.IndexFieldText},
		{Name: fieldNationality, Type: db.IndexFieldText},
		{Name: fieldCollection, Type: db.IndexFieldText},
		{Name: fieldAltText, Type: db.IndexFieldText},
		{Name: fieldLongDesc, Type: db.IndexFieldText},
		{Name: fieldYear, Type: db.IndexFieldNumeric},
		{Name: fieldHeightCM, Type: db.IndexFieldNumeric},
		{Name: fieldWidthCM, Type: db.IndexFieldNumeric},
		{Name: fieldArtist, Alias: tagArtist, Type: db.IndexFieldTag},
		{Name: fieldClassification, Alias: tagClassification, Type: db.IndexFieldTag},
		{Name: fieldDepartment, Alias: tagDepartment, Type: db.IndexFieldTag},
		{Name: fieldNationality, Alias: tagNationality, Type: db.IndexFieldTag},
	}

	models := make([]string, 0, len(r.models))
	for model := range r.models {
		models = append(models, model)
	}
	sort.Strings(models)
	for _, model := range models {
		fields = append(fields, db.IndexField{
			Name:              embedField(model),
			Type:              db.IndexFieldVector,
			VectorAlgo:        db.VectorHNSW,
			VectorDim:         r.models[model],
			VectorDistance:    db.DistanceCosine,
			VectorM:           16,
			VectorEFConstruct: 200,
		})
	}

	return &db.IndexDefinition{
		Name:     IndexName,
		Prefixes: []string{KeyPrefix},
		Fields:   fields,
	}
}

func (r *Repo) toRankedList(src source.Source, sr *db.SearchResult) result.RankedList {
	hits := make([]result.Hit, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id := strings.TrimPrefix(entry.Key, KeyPrefix)
		hits = append(hits, result.NewHit(id, entry.Score, artworkFromFields(id, entry.Fields, r.models)))
	}
	return result.NewRankedList(src, hits)
}
