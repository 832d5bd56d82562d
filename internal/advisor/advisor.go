// Package advisor is the request-scoped orchestration pipeline: normalize,
// intercept, classify, select, fetch, synthesize, generate with fallback,
// attribute, denormalize, present. No failure inside the pipeline reaches
// the caller; every tier degrades to the next one.
package advisor

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"rootsource/config"
	"rootsource/formatting"
	"rootsource/internal/cache"
	"rootsource/internal/classify"
	"rootsource/internal/geo"
	"rootsource/internal/llm"
	"rootsource/internal/nasa"
	"rootsource/internal/search"
	"rootsource/internal/translate"
	"rootsource/metrics"
)

// Generator is the text-generation capability.
type Generator interface {
	Generate(ctx context.Context, messages []llm.Message) (string, error)
	Configured() bool
}

// QueryTranslator normalizes queries to English and answers back.
type QueryTranslator interface {
	ToEnglish(ctx context.Context, text string) translate.Result
	FromEnglish(ctx context.Context, text, lang string) string
}

// LocationResolver turns a location input plus client identity into a fix.
type LocationResolver interface {
	Resolve(ctx context.Context, in geo.Input, clientID string) geo.Location
}

// Fetcher fans out dataset fetches.
type Fetcher interface {
	FetchAll(ctx context.Context, datasets []nasa.Dataset, lat, lon float64) []nasa.Envelope
}

// Request is one chat turn to answer.
type Request struct {
	Message  string
	Location geo.Input
	ClientID string
}

// Response is the structured chat payload plus the audit fields the handler
// forwards to the interaction log.
type Response struct {
	Reply        string   `json:"response"`
	DetectedLang string   `json:"detected_lang"`
	EnglishQuery string   `json:"english_query"`
	Location     string   `json:"location"`
	DatasetsUsed []string `json:"nasa_data_used"`

	QueryType  string   `json:"-"`
	Complexity string   `json:"-"`
	Intercept  string   `json:"-"`
	Tier       string   `json:"-"`
	Attempted  []string `json:"-"`
	Synthetic  bool     `json:"-"`
}

// Deps are the collaborators the Advisor orchestrates.
type Deps struct {
	Resolver   LocationResolver
	Data       Fetcher
	Translator QueryTranslator
	Generator  Generator
	Tools      []search.Tool
	Answers    *cache.Store
	Metrics    *metrics.Metrics
}

// Advisor owns the pipeline state: hot-swappable keyword tables, the
// conversation memory, and the composed-answer cache.
type Advisor struct {
	cfg  config.Config
	deps Deps

	mu           sync.RWMutex
	classifier   *classify.Classifier
	greetPattern *regexp.Regexp

	gen   Generator
	tools []search.Tool

	mem       *Memory
	answers   *cache.Store
	answerTTL time.Duration
	metrics   *metrics.Metrics

	directBackoff time.Duration
}

// New builds an Advisor from config and collaborators.
func New(cfg config.Config, deps Deps) *Advisor {
	answers := deps.Answers
	if answers == nil {
		answers = cache.New()
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}
	return &Advisor{
		cfg:           cfg,
		deps:          deps,
		classifier:    classify.New(cfg.Keywords),
		greetPattern:  buildGreetingPattern(cfg.Keywords.Greetings),
		gen:           deps.Generator,
		tools:         deps.Tools,
		mem:           NewMemory(cfg.MemoryTurns),
		answers:       answers,
		answerTTL:     time.Duration(cfg.Cache.AnswerTTLSec) * time.Second,
		metrics:       m,
		directBackoff: 300 * time.Millisecond,
	}
}

// SetKeywords swaps the classifier tables; wired to the config watcher.
func (a *Advisor) SetKeywords(kw config.KeywordConfig) {
	a.mu.Lock()
	a.classifier = classify.New(kw)
	a.greetPattern = buildGreetingPattern(kw.Greetings)
	a.mu.Unlock()
}

// Memory exposes the conversation buffer for diagnostics.
func (a *Advisor) Memory() *Memory { return a.mem }

type cachedAnswer struct {
	Text string
}

// Answer runs the full pipeline for one request. It never returns an error:
// every internal failure is converted into a lower answer tier.
func (a *Advisor) Answer(ctx context.Context, req Request) Response {
	a.metrics.RecordRequest()

	loc := a.deps.Resolver.Resolve(ctx, req.Location, req.ClientID)
	resp := Response{Location: loc.DisplayName, DatasetsUsed: []string{}}

	if strings.TrimSpace(req.Message) == "" {
		resp.DetectedLang = translate.LangUnknown
		resp.Intercept = InterceptEmpty
		resp.Tier = TierCanned
		resp.Reply = formatting.FormatHTML(emptyReply)
		a.metrics.RecordIntercept()
		return resp
	}

	// Normalize. Translation fails open; unknown means we proceed with the
	// original text.
	norm := a.deps.Translator.ToEnglish(ctx, req.Message)
	english := norm.Text
	resp.DetectedLang = norm.DetectedLang
	resp.EnglishQuery = english
	if norm.DetectedLang == translate.LangUnknown {
		a.metrics.RecordTranslationFailure()
	}

	// Intercepts bypass classification entirely.
	if reply, kind, ok := a.intercept(english); ok {
		resp.Intercept = kind
		resp.Tier = TierCanned
		a.metrics.RecordIntercept()
		return a.present(ctx, resp, reply, norm.DetectedLang)
	}

	a.mu.RLock()
	classifier := a.classifier
	a.mu.RUnlock()

	q := classifier.Classify(english)
	resp.QueryType = string(q.Primary)
	resp.Complexity = string(q.Complexity)

	selected := classifier.SelectDatasets(q, english)
	resp.Attempted = append([]string{}, selected...)

	// Fetch only with a confident fix; the regional fallback is for display,
	// not for anchoring satellite data.
	var envelopes []nasa.Envelope
	locationMissing := false
	if len(selected) > 0 {
		if loc.Approximate {
			locationMissing = true
		} else {
			envelopes = a.deps.Data.FetchAll(ctx, toDatasets(selected), loc.Lat, loc.Lon)
			for _, env := range envelopes {
				a.metrics.RecordFetch(env.Success, env.Source == nasa.SourceSynthetic)
			}
		}
	}

	sum := nasa.Synthesize(envelopes, q)
	resp.DatasetsUsed = datasetIDs(sum.Used)
	resp.Synthetic = sum.Synthetic

	attribution := buildAttribution(selected, sum, envelopes, locationMissing)

	// Composed-answer cache: same normalized query over the same used
	// datasets returns the previous English answer.
	key := cache.AnswerKey(english, resp.DatasetsUsed)
	if v, ok := a.answers.Get(key); ok {
		if hit, ok := v.(cachedAnswer); ok {
			a.metrics.RecordAnswerCacheHit()
			resp.Tier = TierCached
			return a.present(ctx, resp, hit.Text, norm.DetectedLang)
		}
	}

	messages := composePrompt(q, loc, sum.EnrichmentText(), english, a.mem.Turns())
	text, tier := a.generate(ctx, messages, searchQueries(q, english))
	resp.Tier = tier
	a.metrics.RecordTier(tier)

	// Attribution and caching apply only to genuine answers; demo and canned
	// replies already explain themselves.
	answer := text
	if tier == TierDirect || tier == TierSearch {
		answer += attribution
		a.answers.Set(key, cachedAnswer{Text: answer}, a.answerTTL)
		a.mem.Append(english, text)
	}
	return a.present(ctx, resp, answer, norm.DetectedLang)
}

// ResolveLocation resolves a location fix without touching the datasets.
func (a *Advisor) ResolveLocation(ctx context.Context, in geo.Input, clientID string) geo.Location {
	return a.deps.Resolver.Resolve(ctx, in, clientID)
}

// LocationSummary is the payload for the location-context endpoints: the
// resolved fix plus a synthesized reading of every dataset there.
type LocationSummary struct {
	Location  geo.Location `json:"location"`
	Analysis  []string     `json:"analysis"`
	Alerts    []string     `json:"alerts"`
	Datasets  []string     `json:"datasets_used"`
	Synthetic bool         `json:"synthetic"`
	Summary   nasa.Summary `json:"-"`
}

// LocationContext resolves a location and fetches the full dataset sweep for
// it, independent of any chat turn.
func (a *Advisor) LocationContext(ctx context.Context, in geo.Input, clientID string) LocationSummary {
	loc := a.deps.Resolver.Resolve(ctx, in, clientID)
	out := LocationSummary{Location: loc, Analysis: []string{}, Alerts: []string{}, Datasets: []string{}}
	if loc.Approximate {
		return out
	}
	envelopes := a.deps.Data.FetchAll(ctx, nasa.AllDatasets, loc.Lat, loc.Lon)
	for _, env := range envelopes {
		a.metrics.RecordFetch(env.Success, env.Source == nasa.SourceSynthetic)
	}
	sum := nasa.Synthesize(envelopes, classify.ClassifiedQuery{})
	out.Analysis = append(out.Analysis, sum.Insights...)
	out.Alerts = append(out.Alerts, sum.Alerts...)
	out.Datasets = datasetIDs(sum.Used)
	out.Synthetic = sum.Synthetic
	out.Summary = sum
	return out
}

// present denormalizes back to the caller's language and applies the markup
// formatter. Translation back fails open to English.
func (a *Advisor) present(ctx context.Context, resp Response, english, lang string) Response {
	final := a.deps.Translator.FromEnglish(ctx, english, lang)
	resp.Reply = formatting.FormatHTML(final)
	return resp
}

// buildAttribution renders the deterministic data-provenance line. No line
// when nothing was selected; an honest statement when selection happened but
// nothing was used.
func buildAttribution(selected []string, sum nasa.Summary, envelopes []nasa.Envelope, locationMissing bool) string {
	if len(selected) == 0 {
		return ""
	}
	if len(sum.Used) == 0 {
		names := displayNames(selected)
		if locationMissing {
			return "\n\n---\n**Data sources**: " + names + " were selected but not queried (no precise location available)."
		}
		return "\n\n---\n**Data sources**: " + names + " were attempted but unavailable."
	}

	var real, synthetic []string
	// Used order follows envelope processing order, which is stable.
	for _, ds := range sum.Used {
		name := nasa.DisplayName[ds]
		if isSynthetic(envelopes, ds) {
			synthetic = append(synthetic, name)
		} else {
			real = append(real, name)
		}
	}
	var parts []string
	if len(real) > 0 {
		parts = append(parts, strings.Join(real, ", ")+" (NASA satellite observations)")
	}
	if len(synthetic) > 0 {
		parts = append(parts, strings.Join(synthetic, ", ")+" (simulated observations, live feed not configured)")
	}
	return "\n\n---\n**Data sources**: " + strings.Join(parts, "; ") + "."
}

func isSynthetic(envelopes []nasa.Envelope, ds nasa.Dataset) bool {
	for _, env := range envelopes {
		if env.Dataset == ds {
			return env.Source == nasa.SourceSynthetic
		}
	}
	return false
}

func displayNames(ids []string) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, nasa.DisplayName[nasa.Dataset(id)])
	}
	return strings.Join(names, ", ")
}

func toDatasets(ids []string) []nasa.Dataset {
	out := make([]nasa.Dataset, 0, len(ids))
	for _, id := range ids {
		out = append(out, nasa.Dataset(id))
	}
	return out
}

func datasetIDs(datasets []nasa.Dataset) []string {
	out := make([]string, 0, len(datasets))
	for _, ds := range datasets {
		out = append(out, string(ds))
	}
	return out
}
