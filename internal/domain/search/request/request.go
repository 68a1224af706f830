package request

import (
	"fmt"

	"github.com/museumlab/artsearch/internal/domain"
	"github.com/museumlab/artsearch/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 1024
	DefaultSize    = 20
	MaxSize        = 100
)

// Request is a validated artwork search query. It names which search types
// run (keyword, per-model semantic, hybrid) and how hybrid fusion is tuned.
type Request struct {
	query        string
	keyword      bool
	models       []string
	hybrid       bool
	balance      float64
	hybridMode   mode.HybridMode
	includeDescs bool
	size         int
}

// New validates and normalizes search parameters.
// Defaults: size=20, hybrid mode=both, balance=0.5 only when the caller left
// it unset is the caller's concern — balance is taken as given.
func New(
	query string,
	keyword bool,
	models []string,
	hybrid bool,
	balance float64,
	hybridMode mode.HybridMode,
	includeDescriptions bool,
	size int,
) (Request, error) {
	if query == "" {
		return Request{}, fmt.Errorf("%w: query is required", domain.ErrInvalidRequest)
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidRequest, MaxQueryLength)
	}
	if !keyword && len(models) == 0 && !hybrid {
		return Request{}, fmt.Errorf("%w: at least one search type must be enabled", domain.ErrInvalidRequest)
	}
	if hybrid && len(models) == 0 {
		return Request{}, fmt.Errorf("%w: hybrid search requires at least one model", domain.ErrInvalidRequest)
	}
	if balance < 0 || balance > 1 {
		return Request{}, fmt.Errorf("%w: hybrid_balance must be between 0 and 1", domain.ErrInvalidRequest)
	}
	if hybridMode == "" {
		hybridMode = mode.Both
	}
	if !hybridMode.IsValid() {
		return Request{}, fmt.Errorf("%w: invalid hybrid mode %q", domain.ErrInvalidRequest, hybridMode)
	}
	if size <= 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}

	return Request{
		query:        query,
		keyword:      keyword,
		models:       models,
		hybrid:       hybrid,
		balance:      balance,
		hybridMode:   hybridMode,
		includeDescs: includeDescriptions,
		size:         size,
	}, nil
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// Keyword reports whether standalone keyword search is enabled.
func (r *Request) Keyword() bool { return r.keyword }

// Models returns the enabled embedding model keys.
func (r *Request) Models() []string { return r.models }

// Hybrid reports whether hybrid fusion is enabled.
func (r *Request) Hybrid() bool { return r.hybrid }

// Balance returns the keyword/semantic balance in [0,1].
func (r *Request) Balance() float64 { return r.balance }

// HybridMode returns which semantic signals participate in fusion.
func (r *Request) HybridMode() mode.HybridMode { return r.hybridMode }

// IncludeDescriptions reports whether AI description fields join the
// keyword field set.
func (r *Request) IncludeDescriptions() bool { return r.includeDescs }

// Size returns the maximum results per list.
func (r *Request) Size() int { return r.size }
