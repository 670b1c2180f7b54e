package httptransport

import (
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"goldledger/internal/config"
	"goldledger/internal/ledger"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// NewRouter mounts ingest, reporting and admin routes. ws may be nil when the
// websocket bridge is disabled.
func NewRouter(cfg config.ServerConfig, led *ledger.Ledger, janitor *ledger.Janitor, events Submitter, ws http.HandlerFunc) *chi.Mux {
	ingestHandlers := NewIngestHandlers(events)
	ledgerHandlers := NewLedgerHandlers(led)
	adminHandlers := NewAdminHandlers(led, janitor)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(requestLogger()).Get("/healthz", adminHandlers.Health())
	r.Handle("/metrics", promhttp.Handler())
	if ws != nil {
		r.Get("/ws", ws)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(requestLogger())
		r.Use(logFailures(failureCaptureBytes))
		r.Post("/events", ingestHandlers.Events())

		r.Get("/kinds", ledgerHandlers.Kinds())
		r.Get("/ledger", ledgerHandlers.List())
		r.Get("/ledger/summary", ledgerHandlers.Summary())
		r.Get("/ledger/export", ledgerHandlers.Export())

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin(cfg.AdminAPIKey))
			r.Post("/ledger/purge", adminHandlers.Purge())
			r.MethodFunc(http.MethodGet, "/ledger/retention", adminHandlers.Retention())
			r.MethodFunc(http.MethodPost, "/ledger/retention", adminHandlers.Retention())
			r.Get("/debug/vars", expvar.Handler().ServeHTTP)
		})
	})
	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 16)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
