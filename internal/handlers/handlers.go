package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"alert-relay-go/internal/alerts"
	"alert-relay-go/internal/store"
)

type Handler struct {
	Service      *alerts.Service
	Events       *store.EventStore
	WebhookToken string
}

func NewHandler(service *alerts.Service, events *store.EventStore, webhookToken string) *Handler {
	return &Handler{
		Service:      service,
		Events:       events,
		WebhookToken: webhookToken,
	}
}

// WebhookHandler ingests one monitoring payload. Callers always get a
// definitive status: 200 once the alert is recorded (silenced and
// dropped included), 401 on bad token, 500 only on store failure.
func (h *Handler) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if !h.authorized(r) {
		log.Printf("webhook auth failure from %s", r.RemoteAddr)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	// The body is read once; both decode attempts work on the same bytes.
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	// Try JSON first
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
		// Fallback: form-encoded body
		if values, err := url.ParseQuery(string(body)); err == nil && len(values) > 0 {
			payload = make(map[string]any)
			for k, v := range values {
				if k == "token" {
					continue
				}
				if len(v) > 0 {
					payload[k] = v[0]
				}
			}
		} else {
			payload = map[string]any{"raw": "unparseable payload"}
		}
	}

	a, err := h.Service.Ingest(r.Context(), payload)
	if err != nil {
		log.Printf("failed to ingest alert: %v", err)
		http.Error(w, "failed to ingest alert", http.StatusInternalServerError)
		return
	}

	resp := map[string]any{
		"status":        "ok",
		"id":            a.ID,
		"created_at_ms": a.CreatedAtMs,
		"silenced":      a.Silenced,
	}
	if a.RouteAction != "" {
		resp["action"] = a.RouteAction
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// authorized checks the bearer token, with a URL-parameter fallback
// for callers that cannot set headers.
func (h *Handler) authorized(r *http.Request) bool {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" || token == r.Header.Get("Authorization") {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.WebhookToken)) == 1
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
