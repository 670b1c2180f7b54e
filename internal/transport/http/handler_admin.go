package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"goldledger/internal/ledger"
)

const day = 24 * time.Hour

type pinger interface {
	Ping(ctx context.Context) error
}

type AdminHandlers struct {
	ledger  *ledger.Ledger
	janitor *ledger.Janitor
}

func NewAdminHandlers(l *ledger.Ledger, j *ledger.Janitor) *AdminHandlers {
	return &AdminHandlers{ledger: l, janitor: j}
}

func (h *AdminHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		p, ok := h.ledger.Store.(pinger)
		if !ok {
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "db": "memory"})
			return
		}
		if err := p.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "db": "down"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "db": "up"})
	}
}

func (h *AdminHandlers) Purge() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := h.janitor.PurgeNow(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":             true,
			"removed":        n,
			"retention_days": int(h.janitor.Retention() / day),
		})
	}
}

func (h *AdminHandlers) Retention() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"retention_days": int(h.janitor.Retention() / day)})
		case http.MethodPost:
			var body struct {
				Days int `json:"days"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_json")
				return
			}
			if body.Days <= 0 {
				writeError(w, http.StatusBadRequest, "invalid_request")
				return
			}
			if err := h.janitor.SetRetention(r.Context(), time.Duration(body.Days)*day); err != nil {
				writeError(w, http.StatusInternalServerError, "internal_error")
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "retention_days": body.Days})
		default:
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		}
	}
}
