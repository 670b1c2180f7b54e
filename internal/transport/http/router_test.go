package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"goldledger/internal/config"
	"goldledger/internal/export"
	"goldledger/internal/host"
	"goldledger/internal/ledger"
)

type fakeSubmitter struct {
	mu   sync.Mutex
	envs []host.Envelope
	err  error
}

func (f *fakeSubmitter) Submit(envs ...host.Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.envs = append(f.envs, envs...)
	return nil
}

type fixture struct {
	router  http.Handler
	ledger  *ledger.Ledger
	janitor *ledger.Janitor
	events  *fakeSubmitter
}

func newFixture(t *testing.T, adminKey string) *fixture {
	t.Helper()
	led := ledger.New(ledger.NewMemoryStore())
	j := ledger.NewJanitor(led, 30*24*time.Hour)
	events := &fakeSubmitter{}
	cfg := config.ServerConfig{AdminAPIKey: adminKey}
	return &fixture{router: NewRouter(cfg, led, j, events, nil), ledger: led, janitor: j, events: events}
}

func (f *fixture) do(t *testing.T, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) seed(t *testing.T, txs ...ledger.Transaction) {
	t.Helper()
	for _, tx := range txs {
		if _, err := f.ledger.Append(context.Background(), tx); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func sampleTxs(now time.Time) []ledger.Transaction {
	return []ledger.Transaction{
		{Kind: ledger.KindSale, Timestamp: now.Add(-3 * time.Minute), CharacterKey: "A-R", Value: 300, ItemID: 2589, Quantity: 1, Source: "Vendor", Confidence: ledger.ConfidenceInferred},
		{Kind: ledger.KindRepair, Timestamp: now.Add(-2 * time.Minute), CharacterKey: "A-R", Value: -150, Source: "Vendor", Confidence: ledger.ConfidenceConfirmed},
		{Kind: ledger.KindUnclaimedIncome, Timestamp: now.Add(-time.Minute), CharacterKey: "B-R", Value: 50, Source: ledger.UnknownSource, Confidence: ledger.ConfidenceGeneric},
	}
}

func TestIngestEvents(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(t, http.MethodPost, "/api/events", `[
		{"type":"venue_opened","venue":"merchant","source":"Innkeeper Farley"},
		{"type":"balance_changed","balance":1300}
	]`, nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, http.StatusAccepted, rec.Body.String())
	}
	var resp struct {
		Ok       bool `json:"ok"`
		Accepted int  `json:"accepted"`
	}
	decodeBody(t, rec, &resp)
	if !resp.Ok || resp.Accepted != 2 {
		t.Fatalf("resp = %+v, want ok with 2 accepted", resp)
	}
	if len(f.events.envs) != 2 || f.events.envs[0].Type != host.TypeVenueOpened {
		t.Fatalf("submitted = %+v", f.events.envs)
	}

	rec = f.do(t, http.MethodPost, "/api/events", `[{"type":"balance_changed","balance":1},{"type":"venue_opened"}]`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if len(f.events.envs) != 2 {
		t.Fatalf("rejected batch was partially submitted: %d envelopes", len(f.events.envs))
	}
}

func TestIngestEngineStopped(t *testing.T) {
	f := newFixture(t, "")
	f.events.err = host.ErrClosed
	rec := f.do(t, http.MethodPost, "/api/events", `{"type":"balance_changed","balance":1}`, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestLedgerListFilters(t *testing.T) {
	f := newFixture(t, "")
	now := time.Now().UTC()
	f.seed(t, sampleTxs(now)...)

	var page struct {
		Items  []ledger.Transaction `json:"items"`
		Limit  int                  `json:"limit"`
		Offset int                  `json:"offset"`
	}
	rec := f.do(t, http.MethodGet, "/api/ledger", "", nil)
	decodeBody(t, rec, &page)
	if len(page.Items) != 3 || page.Limit != 50 {
		t.Fatalf("page = %d items limit %d, want 3 items limit 50", len(page.Items), page.Limit)
	}
	if page.Items[0].Kind != ledger.KindSale || page.Items[0].ID == "" {
		t.Fatalf("first item = %+v, want sale with id", page.Items[0])
	}

	rec = f.do(t, http.MethodGet, "/api/ledger?kind=repair,unclaimed-income&character=A-R", "", nil)
	decodeBody(t, rec, &page)
	if len(page.Items) != 1 || page.Items[0].Kind != ledger.KindRepair {
		t.Fatalf("filtered items = %+v, want one repair", page.Items)
	}

	rec = f.do(t, http.MethodGet, "/api/ledger?limit=1&offset=1", "", nil)
	decodeBody(t, rec, &page)
	if len(page.Items) != 1 || page.Items[0].Kind != ledger.KindRepair || page.Offset != 1 {
		t.Fatalf("paged items = %+v offset %d", page.Items, page.Offset)
	}

	from := now.Add(-90 * time.Second).Format(time.RFC3339)
	rec = f.do(t, http.MethodGet, "/api/ledger?from="+from, "", nil)
	decodeBody(t, rec, &page)
	if len(page.Items) != 1 || page.Items[0].Kind != ledger.KindUnclaimedIncome {
		t.Fatalf("items since %s = %+v", from, page.Items)
	}

	for _, target := range []string{"/api/ledger?kind=bogus", "/api/ledger?from=yesterday", "/api/ledger/summary?to=x"} {
		if rec := f.do(t, http.MethodGet, target, "", nil); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s status = %d, want %d", target, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestLedgerSummary(t *testing.T) {
	f := newFixture(t, "")
	f.seed(t, sampleTxs(time.Now().UTC())...)

	var sum ledger.Summary
	decodeBody(t, f.do(t, http.MethodGet, "/api/ledger/summary", "", nil), &sum)
	want := ledger.Summary{TotalIncome: 350, TotalExpense: 150, NetGold: 200, Count: 3}
	if sum != want {
		t.Fatalf("summary = %+v, want %+v", sum, want)
	}

	decodeBody(t, f.do(t, http.MethodGet, "/api/ledger/summary?character=B-R", "", nil), &sum)
	if sum.Count != 1 || sum.NetGold != 50 {
		t.Fatalf("B-R summary = %+v", sum)
	}
}

func TestKinds(t *testing.T) {
	f := newFixture(t, "")
	var resp struct {
		Items []kindView `json:"items"`
	}
	decodeBody(t, f.do(t, http.MethodGet, "/api/kinds", "", nil), &resp)
	if len(resp.Items) != len(ledger.Kinds()) {
		t.Fatalf("kinds = %d, want %d", len(resp.Items), len(ledger.Kinds()))
	}
	for _, k := range resp.Items {
		if k.Kind == ledger.KindSale && k.Sign != "income" {
			t.Fatalf("sale sign = %q, want income", k.Sign)
		}
	}
}

func TestExport(t *testing.T) {
	f := newFixture(t, "")
	f.seed(t, sampleTxs(time.Now().UTC())...)

	rec := f.do(t, http.MethodGet, "/api/ledger/export?character=A-R", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/zstd" {
		t.Fatalf("content type = %q", ct)
	}
	txs, err := export.Read(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("exported = %d, want 2", len(txs))
	}
}

func TestPurgeRequiresAdminKey(t *testing.T) {
	f := newFixture(t, "secret")
	now := time.Now().UTC()
	old := ledger.Transaction{Kind: ledger.KindLootGold, Timestamp: now.Add(-60 * 24 * time.Hour), Value: 10, Source: "Loot", Confidence: ledger.ConfidenceInferred}
	f.seed(t, append(sampleTxs(now), old)...)

	if rec := f.do(t, http.MethodPost, "/api/ledger/purge", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	rec := f.do(t, http.MethodPost, "/api/ledger/purge", "", map[string]string{"X-Admin-Key": "secret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp struct {
		Removed       int `json:"removed"`
		RetentionDays int `json:"retention_days"`
	}
	decodeBody(t, rec, &resp)
	if resp.Removed != 1 || resp.RetentionDays != 30 {
		t.Fatalf("resp = %+v, want 1 removed at 30 days", resp)
	}
}

func TestRetentionSetting(t *testing.T) {
	f := newFixture(t, "secret")
	auth := map[string]string{"Authorization": "Bearer secret"}

	rec := f.do(t, http.MethodPost, "/api/ledger/retention", `{"days":7}`, auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := f.janitor.Retention(); got != 7*24*time.Hour {
		t.Fatalf("retention = %v, want 168h", got)
	}
	if rec := f.do(t, http.MethodPost, "/api/ledger/retention", `{"days":0}`, auth); rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	var resp struct {
		RetentionDays int `json:"retention_days"`
	}
	decodeBody(t, f.do(t, http.MethodGet, "/api/ledger/retention", "", auth), &resp)
	if resp.RetentionDays != 7 {
		t.Fatalf("retention_days = %d, want 7", resp.RetentionDays)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"db":"memory"`) {
		t.Fatalf("healthz = %d %s", rec.Code, rec.Body.String())
	}
	f.do(t, http.MethodGet, "/api/kinds", "", nil)
	rec = f.do(t, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "goldledger_purged_rows_total") {
		t.Fatalf("metrics missing goldledger counters")
	}
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		query       string
		limit, offs int
	}{
		{"", 50, 0},
		{"limit=10&offset=5", 10, 5},
		{"limit=0&offset=-3", 1, 0},
		{"limit=9999", 500, 0},
		{"limit=abc", 50, 0},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/ledger?"+tt.query, nil)
		limit, offset := parsePage(req)
		if limit != tt.limit || offset != tt.offs {
			t.Fatalf("%q = (%d, %d), want (%d, %d)", tt.query, limit, offset, tt.limit, tt.offs)
		}
	}
}
