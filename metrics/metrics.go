// Package metrics holds the service's operational counters. Everything is
// atomic; Snapshot gives a consistent-enough view for the ops endpoint.
package metrics

import "sync/atomic"

// Metrics captures shared operational stats for the chat pipeline.
type Metrics struct {
	requests   int64
	intercepts int64

	fetchReal      int64
	fetchSynthetic int64
	fetchFailed    int64

	tierDirect int64
	tierSearch int64
	tierCanned int64
	tierDemo   int64

	translationFailures int64
	answerCacheHits     int64
}

// Snapshot provides a consistent view of the current metrics.
type Snapshot struct {
	Requests   int64 `json:"requests"`
	Intercepts int64 `json:"intercepts"`

	FetchReal      int64 `json:"fetch_real"`
	FetchSynthetic int64 `json:"fetch_synthetic"`
	FetchFailed    int64 `json:"fetch_failed"`

	TierDirect int64 `json:"tier_direct"`
	TierSearch int64 `json:"tier_search"`
	TierCanned int64 `json:"tier_canned"`
	TierDemo   int64 `json:"tier_demo"`

	TranslationFailures int64 `json:"translation_failures"`
	AnswerCacheHits     int64 `json:"answer_cache_hits"`
}

// New creates a zeroed Metrics instance.
func New() *Metrics {
	return &Metrics{}
}

func (m *Metrics) RecordRequest()            { atomic.AddInt64(&m.requests, 1) }
func (m *Metrics) RecordIntercept()          { atomic.AddInt64(&m.intercepts, 1) }
func (m *Metrics) RecordTranslationFailure() { atomic.AddInt64(&m.translationFailures, 1) }
func (m *Metrics) RecordAnswerCacheHit()     { atomic.AddInt64(&m.answerCacheHits, 1) }

// RecordFetch tallies one dataset fetch outcome.
func (m *Metrics) RecordFetch(success, synthetic bool) {
	switch {
	case !success:
		atomic.AddInt64(&m.fetchFailed, 1)
	case synthetic:
		atomic.AddInt64(&m.fetchSynthetic, 1)
	default:
		atomic.AddInt64(&m.fetchReal, 1)
	}
}

// RecordTier tallies which generation tier produced the answer.
func (m *Metrics) RecordTier(tier string) {
	switch tier {
	case "direct":
		atomic.AddInt64(&m.tierDirect, 1)
	case "search_augmented":
		atomic.AddInt64(&m.tierSearch, 1)
	case "canned":
		atomic.AddInt64(&m.tierCanned, 1)
	case "demo":
		atomic.AddInt64(&m.tierDemo, 1)
	}
}

// Snapshot returns a read-only view of metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Requests:            atomic.LoadInt64(&m.requests),
		Intercepts:          atomic.LoadInt64(&m.intercepts),
		FetchReal:           atomic.LoadInt64(&m.fetchReal),
		FetchSynthetic:      atomic.LoadInt64(&m.fetchSynthetic),
		FetchFailed:         atomic.LoadInt64(&m.fetchFailed),
		TierDirect:          atomic.LoadInt64(&m.tierDirect),
		TierSearch:          atomic.LoadInt64(&m.tierSearch),
		TierCanned:          atomic.LoadInt64(&m.tierCanned),
		TierDemo:            atomic.LoadInt64(&m.tierDemo),
		TranslationFailures: atomic.LoadInt64(&m.translationFailures),
		AnswerCacheHits:     atomic.LoadInt64(&m.answerCacheHits),
	}
}
