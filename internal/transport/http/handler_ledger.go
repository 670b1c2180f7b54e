package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"goldledger/internal/export"
	"goldledger/internal/ledger"
)

type LedgerHandlers struct {
	ledger *ledger.Ledger
}

func NewLedgerHandlers(l *ledger.Ledger) *LedgerHandlers {
	return &LedgerHandlers{ledger: l}
}

type kindView struct {
	Kind    ledger.Kind `json:"kind"`
	Label   string      `json:"label"`
	Sign    string      `json:"sign"`
	Generic bool        `json:"generic"`
}

func (h *LedgerHandlers) Kinds() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		infos := ledger.Kinds()
		items := make([]kindView, 0, len(infos))
		for _, info := range infos {
			items = append(items, kindView{Kind: info.Kind, Label: info.Label, Sign: info.Sign.String(), Generic: info.Generic})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
	}
}

func (h *LedgerHandlers) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := ParseFilter(r)
		if err != nil {
			ledgerQueries.WithLabelValues("list", "rejected").Inc()
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		f.Limit, f.Offset = parsePage(r)
		items, err := h.ledger.Query(r.Context(), f)
		if err != nil {
			ledgerQueries.WithLabelValues("list", "error").Inc()
			writeError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		ledgerQueries.WithLabelValues("list", "ok").Inc()
		if items == nil {
			items = []ledger.Transaction{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"items": items, "limit": f.Limit, "offset": f.Offset})
	}
}

func (h *LedgerHandlers) Summary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := ParseFilter(r)
		if err != nil {
			ledgerQueries.WithLabelValues("summary", "rejected").Inc()
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		sum, err := h.ledger.Aggregate(r.Context(), f)
		if err != nil {
			ledgerQueries.WithLabelValues("summary", "error").Inc()
			writeError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		ledgerQueries.WithLabelValues("summary", "ok").Inc()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(sum)
	}
}

// Export streams every matching transaction as zstd-compressed JSON lines.
func (h *LedgerHandlers) Export() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := ParseFilter(r)
		if err != nil {
			ledgerQueries.WithLabelValues("export", "rejected").Inc()
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		items, err := h.ledger.Query(r.Context(), f)
		if err != nil {
			ledgerQueries.WithLabelValues("export", "error").Inc()
			writeError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		w.Header().Set("Content-Type", "application/zstd")
		w.Header().Set("Content-Disposition", `attachment; filename="ledger.jsonl.zst"`)
		if err := export.Write(w, items); err != nil {
			ledgerQueries.WithLabelValues("export", "error").Inc()
			return
		}
		ledgerQueries.WithLabelValues("export", "ok").Inc()
	}
}

// ParseFilter reads from, to, character and kind query parameters. kind may
// repeat or hold a comma separated list.
func ParseFilter(r *http.Request) (ledger.Filter, error) {
	q := r.URL.Query()
	var f ledger.Filter
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, errors.New("invalid_from")
		}
		f.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, errors.New("invalid_to")
		}
		f.To = &t
	}
	f.Character = strings.TrimSpace(q.Get("character"))
	for _, raw := range q["kind"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			k := ledger.Kind(part)
			if !k.Valid() {
				return f, errors.New("invalid_kind")
			}
			f.Kinds = append(f.Kinds, k)
		}
	}
	return f, nil
}
