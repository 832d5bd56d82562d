// Package translate normalizes queries to English and answers back to the
// caller's language. Every path fails open: on any error the input text is
// returned unchanged and the detected language reads "unknown", so a broken
// translation endpoint degrades the service to English-only operation.
package translate

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rootsource/config"
	"rootsource/internal/cache"
)

// LangUnknown is the sentinel for undetectable source languages.
const LangUnknown = "unknown"

// Result is a translation outcome.
type Result struct {
	Text         string
	DetectedLang string
}

// Translator calls the remote translation endpoint with a cache in front.
type Translator struct {
	cfg    config.TranslateConfig
	store  *cache.Store
	client *http.Client
	ttl    time.Duration
}

// New builds a Translator. A nil client gets a default with the configured
// timeout.
func New(cfg config.TranslateConfig, cacheCfg config.CacheConfig, store *cache.Store, client *http.Client) *Translator {
	if client == nil {
		client = &http.Client{Timeout: time.Duration(cfg.TimeoutSec) * time.Second}
	}
	if store == nil {
		store = cache.New()
	}
	return &Translator{
		cfg:    cfg,
		store:  store,
		client: client,
		ttl:    time.Duration(cacheCfg.TranslationTTLSec) * time.Second,
	}
}

// ToEnglish detects the source language and translates to English.
func (t *Translator) ToEnglish(ctx context.Context, text string) Result {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Result{Text: text, DetectedLang: LangUnknown}
	}
	key := cache.TranslationKey(trimmed, "auto", "en")
	if v, ok := t.store.Get(key); ok {
		if res, ok := v.(Result); ok {
			return res
		}
	}
	res, err := t.call(ctx, trimmed, "auto", "en")
	if err != nil {
		log.Printf("translate to english failed: %v (failing open)", err)
		return Result{Text: text, DetectedLang: LangUnknown}
	}
	t.store.Set(key, res, t.ttl)
	return res
}

// FromEnglish translates an answer back to lang. English and unknown
// languages are a no-op by contract.
func (t *Translator) FromEnglish(ctx context.Context, text, lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" || lang == "en" || lang == LangUnknown {
		return text
	}
	key := cache.TranslationKey(text, "en", lang)
	if v, ok := t.store.Get(key); ok {
		if res, ok := v.(Result); ok {
			return res.Text
		}
	}
	res, err := t.call(ctx, text, "en", lang)
	if err != nil {
		log.Printf("translate back failed lang=%s: %v (failing open)", lang, err)
		return text
	}
	t.store.Set(key, res, t.ttl)
	return res.Text
}

// call hits the gtx single-translate endpoint. The payload is a nested
// array: segment pairs first, the detected source language at index 2.
func (t *Translator) call(ctx context.Context, text, src, dst string) (Result, error) {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", src)
	q.Set("tl", dst)
	q.Set("dt", "t")
	q.Set("q", text)
	endpoint := strings.TrimRight(t.cfg.BaseURL, "/") + "/translate_a/single?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Result{}, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Result{}, &statusError{resp.StatusCode}
	}

	var payload []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Result{}, err
	}
	res := Result{DetectedLang: LangUnknown}
	if len(payload) > 2 {
		var lang string
		if json.Unmarshal(payload[2], &lang) == nil && lang != "" {
			res.DetectedLang = strings.ToLower(lang)
		}
	}
	var segments [][]json.RawMessage
	if len(payload) > 0 {
		if err := json.Unmarshal(payload[0], &segments); err != nil {
			return Result{}, err
		}
	}
	var b strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		var piece string
		if json.Unmarshal(seg[0], &piece) == nil {
			b.WriteString(piece)
		}
	}
	if b.Len() == 0 {
		return Result{}, errEmptyTranslation
	}
	res.Text = b.String()
	return res, nil
}

type statusError struct{ code int }

func (e *statusError) Error() string { return "translate status " + http.StatusText(e.code) }

var errEmptyTranslation = &statusError{http.StatusNoContent}
