package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/idilsaglam/itemboard/internal/itemstore"
	"github.com/idilsaglam/itemboard/internal/model"
	"github.com/idilsaglam/itemboard/internal/storage/sqlite"
)

func newTestServer(t *testing.T, opts Options) (*httptest.Server, *sqlite.Store) {
	t.Helper()
	repo, err := sqlite.Open(filepath.Join(t.TempDir(), "items.db"))
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	srv := httptest.NewServer(New(repo, opts).Handler())
	t.Cleanup(srv.Close)
	return srv, repo
}

func TestRootAndHealth(t *testing.T) {
	srv, repo := newTestServer(t, Options{})

	res, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	if res.StatusCode != http.StatusOK || !strings.Contains(string(body), "alive") {
		t.Fatalf("root: %d %s", res.StatusCode, body)
	}

	var h healthResponse
	getJSON(t, srv.URL+"/health", &h)
	if !h.OK {
		t.Fatalf("expected healthy, got %+v", h)
	}

	_ = repo.Close()
	h = healthResponse{}
	getJSON(t, srv.URL+"/health", &h)
	if h.OK || h.Error == "" {
		t.Fatalf("expected unhealthy with error, got %+v", h)
	}
}

func getJSON(t *testing.T, url string, out any) {
	t.Helper()
	res, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", url, res.StatusCode)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestCreateThenList(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	res, err := http.Post(srv.URL+"/api/items", "application/json", strings.NewReader(`{"name":"A"}`))
	if err != nil {
		t.Fatal(err)
	}
	var created model.Item
	_ = json.NewDecoder(res.Body).Decode(&created)
	res.Body.Close()
	if res.StatusCode != http.StatusCreated || created != (model.Item{ID: 1, Name: "A"}) {
		t.Fatalf("create: %d %+v", res.StatusCode, created)
	}

	var items []model.Item
	getJSON(t, srv.URL+"/api/items", &items)
	if !reflect.DeepEqual(items, []model.Item{{ID: 1, Name: "A"}}) {
		t.Fatalf("items = %+v", items)
	}
}

func TestCreateValidation(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	for _, body := range []string{`not json`, `{}`, `{"name":""}`, `{"name":3}`} {
		res, err := http.Post(srv.URL+"/api/items", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		res.Body.Close()
		if res.StatusCode != http.StatusUnprocessableEntity {
			t.Fatalf("body %s: status %d, want 422", body, res.StatusCode)
		}
	}
}

func TestCORS(t *testing.T) {
	srv, _ := newTestServer(t, Options{CORSOrigins: []string{"http://localhost:5173"}})

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/items", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("preflight status = %d", res.StatusCode)
	}
	if got := res.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("allow origin = %q", got)
	}

	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/api/items", nil)
	req.Header.Set("Origin", "http://evil.example")
	res, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if got := res.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}

// The client store against the reference service end to end.
func TestStoreAgainstServer(t *testing.T) {
	srv, repo := newTestServer(t, Options{})
	if _, err := repo.CreateItem(context.Background(), "A"); err != nil {
		t.Fatal(err)
	}

	s := itemstore.New(itemstore.Config{BaseURL: srv.URL})
	if res := s.FetchItems(context.Background()); !res.OK() {
		t.Fatalf("fetch: %s", res.Err)
	}
	if res := s.AddItem(context.Background(), "B"); !res.OK() {
		t.Fatalf("add: %s", res.Err)
	}
	want := []model.Item{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}
	if st := s.State(); !reflect.DeepEqual(st.Items, want) || st.Loading || st.HasError() {
		t.Fatalf("state = %+v", st)
	}

	// An empty name is rejected by the service and surfaces as a status error.
	res := s.AddItem(context.Background(), "")
	if res.OK() || res.Err != "POST /api/items failed: 422" {
		t.Fatalf("expected 422 failure, got %+v", res)
	}
}

func TestRequestsAreTraced(t *testing.T) {
	prevProp := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prevProp) })

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	srv, _ := newTestServer(t, Options{TracerProvider: tp})

	const traceID = "4bf92f3577b34da6a3ce929d0e0e4736"
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/items", nil)
	req.Header.Set("Traceparent", "00-"+traceID+"-00f067aa0ba902b7-01")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()

	var found bool
	for _, s := range rec.Ended() {
		if s.Name() != "GET /api/items" {
			continue
		}
		found = true
		if s.SpanKind() != trace.SpanKindServer {
			t.Fatalf("span kind = %v", s.SpanKind())
		}
		if got := s.SpanContext().TraceID().String(); got != traceID {
			t.Fatalf("trace id = %s, want the caller's %s", got, traceID)
		}
	}
	if !found {
		t.Fatalf("no server span recorded, got %d spans", len(rec.Ended()))
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	repo, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer repo.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(repo, Options{}).Serve(ctx, ln) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestOpenRepository(t *testing.T) {
	dir := t.TempDir()
	for _, kind := range []string{"sqlite", "json", ""} {
		repo, err := OpenRepository(kind, filepath.Join(dir, "x.db"), filepath.Join(dir, "x.json"))
		if err != nil {
			t.Fatalf("%q: %v", kind, err)
		}
		_ = repo.Close()
	}
	if _, err := OpenRepository("postgres", "", ""); err == nil {
		t.Fatal("expected error for unknown storage")
	}
}
