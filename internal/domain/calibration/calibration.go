// Package calibration holds the per-model score thresholds and the
// balance-to-weight derivation used by hybrid rank fusion. The table is
// built once at startup and immutable afterwards.
package calibration

import (
	"math"

	"github.com/museumlab/artsearch/internal/domain/search/source"
)

// Tuning defaults. These are empirically chosen knobs, not invariants; the
// config file can override all of them.
const (
	// DefaultRRFKMin is the lower bound of the RRF constant.
	DefaultRRFKMin = 10.0
	// DefaultRRFKSpread is added to the minimum as balance approaches 0.5.
	DefaultRRFKSpread = 20.0
	// DefaultHybridRelax scales semantic thresholds down inside hybrid
	// requests so keyword+semantic fusion is not starved by a cutoff tuned
	// for standalone semantic precision.
	DefaultHybridRelax = 0.7

	// balanceExponent sharpens the slider: extreme balances dominate
	// disproportionately compared to linear interpolation.
	balanceExponent = 1.5

	// KeywordBypass and below skips fusion and returns the pure keyword list.
	KeywordBypass = 0.01
	// SemanticBypass and above skips fusion and returns the pure vector list.
	SemanticBypass = 0.99
)

// Table maps source keys to minimum native scores and carries the RRF
// constant bounds.
type Table struct {
	thresholds  map[string]float64
	rrfKMin     float64
	rrfKSpread  float64
	hybridRelax float64
}

// NewTable builds a calibration table. Zero bounds fall back to the
// defaults; thresholds may be nil (no filtering anywhere).
func NewTable(thresholds map[string]float64, rrfKMin, rrfKSpread, hybridRelax float64) Table {
	if rrfKMin <= 0 {
		rrfKMin = DefaultRRFKMin
	}
	if rrfKSpread <= 0 {
		rrfKSpread = DefaultRRFKSpread
	}
	if hybridRelax <= 0 {
		hybridRelax = DefaultHybridRelax
	}
	copied := make(map[string]float64, len(thresholds))
	for k, v := range thresholds {
		copied[k] = v
	}
	return Table{
		thresholds:  copied,
		rrfKMin:     rrfKMin,
		rrfKSpread:  rrfKSpread,
		hybridRelax: hybridRelax,
	}
}

// Threshold returns the minimum score for a source. Unknown sources return 0
// (no filtering) so new models degrade gracefully instead of silently
// dropping every hit.
func (t Table) Threshold(src source.Source) float64 {
	return t.thresholds[src.Key()]
}

// HybridRelax returns the factor applied to semantic thresholds inside
// hybrid fusion.
func (t Table) HybridRelax() float64 { return t.hybridRelax }

// Weights is the per-request fusion weight configuration derived from the
// balance slider. Recomputed per request, never persisted.
type Weights struct {
	balance  float64
	keyword  float64
	semantic float64
	rrfK     float64
	perModel map[string]float64
}

// DeriveWeights computes normalized keyword/semantic shares and the RRF
// constant for a balance in [0,1]. The semantic share is split equally
// across the active models. Pure function of its inputs.
func (t Table) DeriveWeights(balance float64, models []string) Weights {
	kwRaw := math.Pow(1-balance, balanceExponent)
	semRaw := math.Pow(balance, balanceExponent)
	total := kwRaw + semRaw

	kw := kwRaw / total
	sem := semRaw / total

	// Smaller k near the center weighs top ranks more heavily where the two
	// signals compete evenly; it relaxes toward the edges where one signal
	// already dominates.
	rrfK := t.rrfKMin + (1-math.Abs(balance-0.5)*2)*t.rrfKSpread

	perModel := make(map[string]float64, len(models))
	if len(models) > 0 {
		share := sem / float64(len(models))
		for _, m := range models {
			perModel[m] = share
		}
	}

	return Weights{
		balance:  balance,
		keyword:  kw,
		semantic: sem,
		rrfK:     rrfK,
		perModel: perModel,
	}
}

// Balance returns the balance the weights were derived from.
func (w Weights) Balance() float64 { return w.balance }

// Keyword returns the normalized keyword weight.
func (w Weights) Keyword() float64 { return w.keyword }

// Semantic returns the normalized total semantic weight.
func (w Weights) Semantic() float64 { return w.semantic }

// RRFK returns the reciprocal-rank-fusion constant.
func (w Weights) RRFK() float64 { return w.rrfK }

// ModelWeight returns the share for one model; 0 for models that were not
// active when the weights were derived.
func (w Weights) ModelWeight(model string) float64 { return w.perModel[model] }

// SourceWeight resolves the fusion weight for an arbitrary source with an
// explicit fallback for sources outside the keyword/semantic split (the
// metadata pseudo-list in similarity search).
func (w Weights) SourceWeight(src source.Source, metadataWeight float64) float64 {
	switch src.Kind() {
	case source.KindKeyword:
		return w.keyword
	case source.KindSemantic:
		return w.perModel[src.Model()]
	case source.KindMetadata:
		return metadataWeight
	}
	return 0
}
