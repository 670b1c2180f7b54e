package httptransport

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"goldledger/internal/logging"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v3"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
	// failureCaptureBytes bounds the bodies attached to a failed request's log line.
	failureCaptureBytes = 4096
)

// requestLogger writes one JSON line per request to the logging sink, keyed by
// the chi route pattern so ledger queries group by endpoint.
func requestLogger() func(http.Handler) http.Handler {
	return httplog.RequestLogger(
		slog.New(slog.NewJSONHandler(logging.Writer(), nil)),
		&httplog.Options{
			Level:              slog.LevelInfo,
			Schema:             httplog.Schema{ResponseStatus: "status", ResponseDuration: "duration_ms"},
			LogRequestBody:     func(*http.Request) bool { return false },
			LogResponseBody:    func(*http.Request) bool { return false },
			LogRequestHeaders:  []string{},
			LogResponseHeaders: []string{},
			LogExtraAttrs: func(req *http.Request, _ string, status int) []slog.Attr {
				attrs := []slog.Attr{
					slog.String("request_id", chimw.GetReqID(req.Context())),
					slog.String("route", routePattern(req)),
				}
				if q := req.URL.RawQuery; q != "" && status < http.StatusBadRequest {
					attrs = append(attrs, slog.String("query", q))
				}
				return attrs
			},
		},
	)
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
		return rc.RoutePattern()
	}
	return r.URL.Path
}

// logFailures attaches the start of the request and response bodies to the
// request log line, but only for responses with an error status. Successful
// ingest batches are not logged twice.
func logFailures(limit int) func(http.Handler) http.Handler {
	if limit <= 0 {
		limit = failureCaptureBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isStreamRequest(r) {
				next.ServeHTTP(w, r)
				return
			}
			reqBuf := &boundedBuffer{limit: limit}
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = struct {
					io.Reader
					io.Closer
				}{io.TeeReader(r.Body, reqBuf), r.Body}
			}
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK, body: boundedBuffer{limit: limit}}
			next.ServeHTTP(rec, r)
			if rec.status < http.StatusBadRequest {
				return
			}
			httplog.SetAttrs(r.Context(),
				slog.Any("request_body", decodeForLog(reqBuf.Bytes())),
				slog.Bool("request_body_truncated", reqBuf.truncated),
				slog.Any("response_body", decodeForLog(rec.body.Bytes())),
			)
		})
	}
}

// boundedBuffer keeps the first limit bytes written to it and drops the rest.
type boundedBuffer struct {
	bytes.Buffer
	limit     int
	truncated bool
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	if room := b.limit - b.Len(); room < len(p) {
		b.truncated = true
		if room > 0 {
			b.Buffer.Write(p[:room])
		}
		return len(p), nil
	}
	return b.Buffer.Write(p)
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	body        boundedBuffer
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.wroteHeader {
		s.status = code
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(p []byte) (int, error) {
	s.wroteHeader = true
	_, _ = s.body.Write(p)
	return s.ResponseWriter.Write(p)
}

func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func decodeForLog(b []byte) any {
	if len(b) == 0 {
		return ""
	}
	var v any
	if json.Valid(b) && json.Unmarshal(b, &v) == nil {
		return v
	}
	return string(b)
}

// writeError sends the error envelope shared by every API route.
func writeError(w http.ResponseWriter, status int, code string) {
	writeErrorDetail(w, status, code, "")
}

func writeErrorDetail(w http.ResponseWriter, status int, code, detail string) {
	body := map[string]any{"ok": false, "error": code}
	if detail != "" {
		body["detail"] = detail
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// requireAdmin guards purge, retention and debug routes. An empty key leaves
// them open, which is what a single-user local daemon runs with.
func requireAdmin(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		want := []byte(key)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(presentedAdminKey(r))
			if subtle.ConstantTimeCompare(got, want) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// presentedAdminKey reads X-Admin-Key, falling back to a bearer token.
func presentedAdminKey(r *http.Request) string {
	if v := r.Header.Get("X-Admin-Key"); v != "" {
		return v
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// parsePage reads limit and offset for ledger listings. Malformed values fall
// back to the defaults; out-of-range ones are clamped.
func parsePage(r *http.Request) (limit, offset int) {
	q := r.URL.Query()
	limit = intParam(q.Get("limit"), defaultPageSize)
	offset = intParam(q.Get("offset"), 0)
	limit = min(max(limit, 1), maxPageSize)
	offset = max(offset, 0)
	return limit, offset
}

func intParam(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// isStreamRequest matches responses that must not be buffered: websocket
// upgrades and compressed exports.
func isStreamRequest(r *http.Request) bool {
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return true
	}
	return strings.HasSuffix(r.URL.Path, "/ledger/export")
}
