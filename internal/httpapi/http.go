// Package httpapi exposes the chat and operations endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"rootsource/config"
	"rootsource/internal/advisor"
	"rootsource/internal/geo"
	"rootsource/internal/store"
	"rootsource/metrics"
	"rootsource/queue"
)

// Router builds HTTP handlers for the chat API and /ops.
type Router struct {
	cfg     config.Config
	advisor *advisor.Advisor
	store   *store.Store
	queue   *queue.Queue
	metrics *metrics.Metrics
}

func NewRouter(cfg config.Config, adv *advisor.Advisor, st *store.Store, q *queue.Queue, m *metrics.Metrics) *Router {
	return &Router{cfg: cfg, advisor: adv, store: st, queue: q, metrics: m}
}

func (r *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/chat", r.chat)
	mux.HandleFunc("/api/location/detect", r.locationDetect)
	mux.HandleFunc("/api/location/set", r.locationSet)
	mux.HandleFunc("/api/location/context", r.locationContext)
	mux.HandleFunc("/health", r.health)
	mux.HandleFunc("/ops/status", r.status)
	mux.HandleFunc("/ops/interactions", r.interactions)
}

// chatBody is the inbound chat payload. Location fields are all optional;
// coordinates win over the place text when both are present.
type chatBody struct {
	Message   string   `json:"message"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Location  string   `json:"location"`
}

func (b chatBody) locationInput() geo.Input {
	if b.Latitude != nil && b.Longitude != nil {
		return geo.Coordinates(*b.Latitude, *b.Longitude)
	}
	if strings.TrimSpace(b.Location) != "" {
		return geo.Place(b.Location)
	}
	return geo.Unspecified()
}

func (r *Router) chat(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body chatBody
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	requestID := uuid.NewString()
	started := time.Now()
	resp := r.advisor.Answer(req.Context(), advisor.Request{
		Message:  body.Message,
		Location: body.locationInput(),
		ClientID: clientIdentity(req),
	})
	duration := time.Since(started)

	r.logInteraction(requestID, resp, duration)

	respondJSON(w, struct {
		advisor.Response
		RequestID string `json:"request_id"`
	}{resp, requestID})
}

// logInteraction writes the audit row off the request path. A full queue
// drops the row; the chat response is never delayed by bookkeeping.
func (r *Router) logInteraction(requestID string, resp advisor.Response, duration time.Duration) {
	row := &store.Interaction{
		RequestID:         requestID,
		CreatedAt:         time.Now().UTC(),
		DetectedLang:      resp.DetectedLang,
		QueryType:         resp.QueryType,
		Complexity:        resp.Complexity,
		Intercept:         resp.Intercept,
		DatasetsAttempted: resp.Attempted,
		DatasetsUsed:      resp.DatasetsUsed,
		GenerationTier:    resp.Tier,
		SyntheticData:     resp.Synthetic,
		LocationDisplay:   resp.Location,
		DurationMS:        duration.Milliseconds(),
	}
	ok := r.queue.Enqueue(queue.Job{
		ID:     requestID,
		Source: "chat",
		Work: func(ctx context.Context) error {
			return r.store.RecordInteraction(ctx, row)
		},
	})
	if !ok {
		log.Printf("interaction log dropped request=%s", requestID)
	}
}

func (r *Router) locationDetect(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, r.advisor.ResolveLocation(req.Context(), geo.Unspecified(), clientIdentity(req)))
}

func (r *Router) locationSet(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body chatBody
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	respondJSON(w, r.advisor.ResolveLocation(req.Context(), body.locationInput(), clientIdentity(req)))
}

func (r *Router) locationContext(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body chatBody
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	respondJSON(w, r.advisor.LocationContext(req.Context(), body.locationInput(), clientIdentity(req)))
}

func (r *Router) status(w http.ResponseWriter, req *http.Request) {
	total, _ := r.store.CountInteractions(req.Context())
	respondJSON(w, map[string]any{
		"metrics":            r.metrics.Snapshot(),
		"queue":              r.queue.Stats(),
		"workers":            r.cfg.WorkerCount,
		"interactions_total": total,
		"live_data_enabled":  r.cfg.Data.LiveEnabled,
		"llm_configured":     strings.TrimSpace(r.cfg.LLM.APIKey) != "",
	})
}

func (r *Router) interactions(w http.ResponseWriter, req *http.Request) {
	list, err := r.store.ListInteractions(req.Context(), 50)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, list)
}

func (r *Router) health(w http.ResponseWriter, req *http.Request) {
	if err := r.store.Health(req.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if !r.queue.Healthy() {
		http.Error(w, "queue not running", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// clientIdentity picks the best client address: the first X-Forwarded-For
// hop when present, otherwise the socket address.
func clientIdentity(req *http.Request) string {
	if fwd := req.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
	}
	return req.RemoteAddr
}

func respondJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write json: %v", err)
	}
}
