package httptransport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"goldledger/internal/host"
)

const maxIngestBody = 4 << 20

// Submitter queues decoded envelopes for the engine.
type Submitter interface {
	Submit(envs ...host.Envelope) error
}

type IngestHandlers struct {
	events Submitter
}

func NewIngestHandlers(events Submitter) *IngestHandlers {
	return &IngestHandlers{events: events}
}

// Events accepts one envelope or an array. The batch is rejected whole when
// any envelope fails validation.
func (h *IngestHandlers) Events() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxIngestBody+1))
		if err != nil {
			ingestRequests.WithLabelValues("error").Inc()
			writeError(w, http.StatusBadRequest, "invalid_body")
			return
		}
		if len(body) > maxIngestBody {
			ingestRequests.WithLabelValues("rejected").Inc()
			writeError(w, http.StatusRequestEntityTooLarge, "body_too_large")
			return
		}
		envs, err := host.Decode(body)
		if err != nil {
			host.RecordRejected()
			ingestRequests.WithLabelValues("rejected").Inc()
			writeErrorDetail(w, http.StatusBadRequest, "invalid_envelope", err.Error())
			return
		}
		if err := h.events.Submit(envs...); err != nil {
			ingestRequests.WithLabelValues("error").Inc()
			if errors.Is(err, host.ErrClosed) {
				writeError(w, http.StatusServiceUnavailable, "engine_stopped")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		ingestRequests.WithLabelValues("accepted").Inc()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "accepted": len(envs)})
	}
}
