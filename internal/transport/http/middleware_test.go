package httptransport

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequireAdmin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	guarded := requireAdmin("secret")(ok)

	tests := []struct {
		name   string
		header map[string]string
		want   int
	}{
		{"missing", nil, http.StatusUnauthorized},
		{"wrong key", map[string]string{"X-Admin-Key": "secre"}, http.StatusUnauthorized},
		{"header", map[string]string{"X-Admin-Key": "secret"}, http.StatusNoContent},
		{"bearer", map[string]string{"Authorization": "Bearer secret"}, http.StatusNoContent},
		{"basic", map[string]string{"Authorization": "Basic secret"}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/api/ledger/purge", nil)
		for k, v := range tt.header {
			req.Header.Set(k, v)
		}
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Fatalf("%s: status = %d, want %d", tt.name, rec.Code, tt.want)
		}
		if tt.want == http.StatusUnauthorized && !strings.Contains(rec.Body.String(), `"error":"unauthorized"`) {
			t.Fatalf("%s: body = %s", tt.name, rec.Body.String())
		}
	}

	rec := httptest.NewRecorder()
	requireAdmin("")(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("open admin: status = %d", rec.Code)
	}
}

func TestLogFailuresKeepsBodyIntact(t *testing.T) {
	payload := strings.Repeat("x", 100)
	var seen string
	h := logFailures(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seen = string(b)
		writeError(w, http.StatusBadRequest, "invalid_envelope")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(payload)))
	if seen != payload {
		t.Fatalf("handler read %d bytes, want %d", len(seen), len(payload))
	}
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), `"ok":false`) {
		t.Fatalf("response = %d %s", rec.Code, rec.Body.String())
	}
}

func TestBoundedBuffer(t *testing.T) {
	b := &boundedBuffer{limit: 4}
	n, err := b.Write([]byte("ab"))
	if n != 2 || err != nil {
		t.Fatalf("Write = %d, %v", n, err)
	}
	n, _ = b.Write([]byte("cdef"))
	if n != 4 {
		t.Fatalf("Write reported %d, want the full length", n)
	}
	if b.String() != "abcd" || !b.truncated {
		t.Fatalf("buffer = %q truncated=%v", b.String(), b.truncated)
	}
}

func TestStatusRecorderKeepsFirstStatus(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK, body: boundedBuffer{limit: 8}}
	rec.WriteHeader(http.StatusConflict)
	rec.WriteHeader(http.StatusOK)
	if rec.status != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.status, http.StatusConflict)
	}
}
