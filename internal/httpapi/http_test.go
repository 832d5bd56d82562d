package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"rootsource/config"
	"rootsource/internal/advisor"
	"rootsource/internal/geo"
	"rootsource/internal/llm"
	"rootsource/internal/nasa"
	"rootsource/internal/store"
	"rootsource/internal/translate"
	"rootsource/metrics"
	"rootsource/queue"
)

type stubResolver struct{}

func (stubResolver) Resolve(context.Context, geo.Input, string) geo.Location {
	return geo.Location{Lat: 23.8103, Lon: 90.4125, DisplayName: "Dhaka, Bangladesh"}
}

type stubFetcher struct{ calls int }

func (f *stubFetcher) FetchAll(_ context.Context, datasets []nasa.Dataset, _, _ float64) []nasa.Envelope {
	f.calls++
	out := make([]nasa.Envelope, 0, len(datasets))
	for _, ds := range datasets {
		out = append(out, nasa.Envelope{
			Dataset: ds,
			Success: true,
			Source:  nasa.SourceSynthetic,
			Metrics: map[string]float64{nasa.MetricTempAvg: 24},
		})
	}
	return out
}

type stubTranslator struct{}

func (stubTranslator) ToEnglish(_ context.Context, text string) translate.Result {
	return translate.Result{Text: text, DetectedLang: "en"}
}

func (stubTranslator) FromEnglish(_ context.Context, text, _ string) string { return text }

type stubGen struct{}

func (stubGen) Generate(context.Context, []llm.Message) (string, error) {
	return "Transplant rice seedlings 20 to 30 days after sowing, once standing water can be maintained in the paddy.", nil
}

func (stubGen) Configured() bool { return true }

func setupTest(t *testing.T) (*Router, *store.Store, *stubFetcher) {
	t.Helper()
	cfg := config.Config{
		WorkerCount: 1,
		Keywords:    config.DefaultKeywordConfig(),
		Cache:       config.CacheConfig{AnswerTTLSec: 3600},
		MemoryTurns: 5,
	}
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	q := queue.New(8, 1, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx)
	t.Cleanup(cancel)

	fetcher := &stubFetcher{}
	adv := advisor.New(cfg, advisor.Deps{
		Resolver:   stubResolver{},
		Data:       fetcher,
		Translator: stubTranslator{},
		Generator:  stubGen{},
	})
	return NewRouter(cfg, adv, st, q, metrics.New()), st, fetcher
}

func serve(t *testing.T, router *Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	router.Register(mux)
	var reader *bytes.Buffer
	if body == "" {
		reader = bytes.NewBuffer(nil)
	} else {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestChatEndpoint(t *testing.T) {
	router, st, _ := setupTest(t)
	rr := serve(t, router, http.MethodPost, "/chat", `{"message":"When should I plant rice?"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rr.Code, rr.Body.String())
	}
	var payload struct {
		Response  string `json:"response"`
		RequestID string `json:"request_id"`
		Location  string `json:"location"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Response == "" || payload.RequestID == "" {
		t.Fatalf("incomplete payload: %+v", payload)
	}
	if payload.Location != "Dhaka, Bangladesh" {
		t.Fatalf("unexpected location: %q", payload.Location)
	}

	// The audit row is written asynchronously.
	deadline := time.Now().Add(2 * time.Second)
	for {
		n, err := st.CountInteractions(context.Background())
		if err == nil && n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("interaction row never landed, count=%d err=%v", n, err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestChatRejectsGet(t *testing.T) {
	router, _, _ := setupTest(t)
	rr := serve(t, router, http.MethodGet, "/chat", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestChatRejectsBadJSON(t *testing.T) {
	router, _, _ := setupTest(t)
	rr := serve(t, router, http.MethodPost, "/chat", `{"message":`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	router, _, _ := setupTest(t)
	rr := serve(t, router, http.MethodGet, "/health", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	router, _, _ := setupTest(t)
	rr := serve(t, router, http.MethodGet, "/ops/status", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rr.Code)
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"metrics", "queue", "workers"} {
		if _, ok := payload[key]; !ok {
			t.Fatalf("status payload missing %q: %s", key, rr.Body.String())
		}
	}
}

func TestInteractionsEndpoint(t *testing.T) {
	router, st, _ := setupTest(t)
	err := st.RecordInteraction(context.Background(), &store.Interaction{
		RequestID:      "req-1",
		CreatedAt:      time.Now().UTC(),
		DetectedLang:   "en",
		QueryType:      "crop_management",
		GenerationTier: "direct",
	})
	if err != nil {
		t.Fatal(err)
	}
	rr := serve(t, router, http.MethodGet, "/ops/interactions", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rr.Code)
	}
	var list []store.Interaction
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].RequestID != "req-1" {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestLocationDetect(t *testing.T) {
	router, _, fetcher := setupTest(t)
	rr := serve(t, router, http.MethodGet, "/api/location/detect", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rr.Code)
	}
	var loc geo.Location
	if err := json.Unmarshal(rr.Body.Bytes(), &loc); err != nil {
		t.Fatal(err)
	}
	if loc.DisplayName != "Dhaka, Bangladesh" {
		t.Fatalf("unexpected location: %+v", loc)
	}
	if fetcher.calls != 0 {
		t.Fatalf("location detect must not fan out dataset fetches, calls=%d", fetcher.calls)
	}
}

func TestLocationSetDoesNotFetch(t *testing.T) {
	router, _, fetcher := setupTest(t)
	rr := serve(t, router, http.MethodPost, "/api/location/set", `{"latitude":23.81,"longitude":90.41}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rr.Code)
	}
	if fetcher.calls != 0 {
		t.Fatalf("location set must not fan out dataset fetches, calls=%d", fetcher.calls)
	}
}

func TestLocationContext(t *testing.T) {
	router, _, _ := setupTest(t)
	rr := serve(t, router, http.MethodPost, "/api/location/context", `{"latitude":23.81,"longitude":90.41}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rr.Code)
	}
	var payload struct {
		Datasets []string `json:"datasets_used"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if len(payload.Datasets) != len(nasa.AllDatasets) {
		t.Fatalf("expected all datasets, got %v", payload.Datasets)
	}
}
