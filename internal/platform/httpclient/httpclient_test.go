package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"eps-citas/internal/platform/breaker"
	"eps-citas/internal/platform/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestClient(t *testing.T, baseURL string, cfg Config) *Client {
	t.Helper()
	cfg.BaseURL = baseURL
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestNew_RejectsInvalidBaseURL(t *testing.T) {
	for _, in := range []string{"", "   ", "not a url", "ftp://host/api"} {
		if _, err := New(Config{BaseURL: in}); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

func TestDo_AttachesBearerTokenWhenPresent(t *testing.T) {
	var gotAuth, gotReqID string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-ID")
		_, _ = io.WriteString(w, `{"success":true,"data":[]}`)
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL+"/api", Config{
		Tokens: TokenFunc(func(context.Context) (string, error) { return "abc", nil }),
	})

	if _, err := c.Do(context.Background(), http.MethodGet, "/citas", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer abc" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
	if gotReqID == "" {
		t.Fatal("expected X-Request-ID header")
	}
}

func TestDo_AbsoluteURLOutsideBaseIsRejected(t *testing.T) {
	var foreignHits int
	foreign := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		foreignHits++
		_, _ = io.WriteString(w, `{"success":true,"data":[]}`)
	}))
	defer foreign.Close()

	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, `{"success":true,"data":[]}`)
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL+"/api", Config{
		Tokens: TokenFunc(func(context.Context) (string, error) { return "abc", nil }),
	})

	_, err := c.Do(context.Background(), http.MethodGet, foreign.URL+"/steal", nil)
	if !errors.Is(err, ErrForeignURL) {
		t.Fatalf("expected ErrForeignURL, got %v", err)
	}
	if foreignHits != 0 {
		t.Fatalf("foreign server was called %d times", foreignHits)
	}

	// Mismo origen sigue permitido.
	if _, err := c.Do(context.Background(), http.MethodGet, ts.URL+"/api/citas", nil); err != nil {
		t.Fatalf("same origin: %v", err)
	}
	if gotAuth != "Bearer abc" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
}

func TestDo_NoTokenOrTokenErrorSendsUnauthenticated(t *testing.T) {
	var gotAuth atomic.Value
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	sources := []TokenSource{
		nil,
		TokenFunc(func(context.Context) (string, error) { return "", nil }),
		TokenFunc(func(context.Context) (string, error) { return "", errors.New("storage down") }),
	}
	for i, src := range sources {
		c := newTestClient(t, ts.URL, Config{Tokens: src})
		if _, err := c.Do(context.Background(), http.MethodGet, "medicos", nil); err != nil {
			t.Fatalf("case %d: unexpected error: %v", i, err)
		}
		if v := gotAuth.Load().(string); v != "" {
			t.Fatalf("case %d: expected no auth header, got %q", i, v)
		}
	}
}

func TestDo_401InvokesPurgeAndPropagates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"success":false,"message":"Token expirado"}`)
	}))
	defer ts.Close()

	var purged int32
	reg := prometheus.NewRegistry()
	m := metrics.NewClient(reg)
	c := newTestClient(t, ts.URL, Config{
		OnUnauthorized: func(context.Context) { atomic.AddInt32(&purged, 1) },
		Metrics:        m,
	})

	_, err := c.Do(context.Background(), http.MethodGet, "/citas", nil)
	if KindOf(err) != KindUnauthorized {
		t.Fatalf("expected unauthorized kind, got %v (%v)", KindOf(err), err)
	}
	if MessageOf(err) != "Token expirado" {
		t.Fatalf("expected envelope message, got %q", MessageOf(err))
	}
	if atomic.LoadInt32(&purged) != 1 {
		t.Fatalf("expected exactly one purge, got %d", purged)
	}
	if got := testutil.ToFloat64(m.Requests.WithLabelValues("GET", "unauthorized")); got != 1 {
		t.Fatalf("expected 1 unauthorized request metric, got %v", got)
	}
}

func TestDo_StatusKinds(t *testing.T) {
	cases := []struct {
		status int
		want   Kind
	}{
		{http.StatusBadRequest, KindValidation},
		{http.StatusUnprocessableEntity, KindValidation},
		{http.StatusForbidden, KindForbidden},
		{http.StatusNotFound, KindNotFound},
		{http.StatusTeapot, KindClient},
		{http.StatusInternalServerError, KindServer},
		{http.StatusBadGateway, KindServer},
	}
	for _, tc := range cases {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		c := newTestClient(t, ts.URL, Config{})
		_, err := c.Do(context.Background(), http.MethodDelete, "/citas/1", nil)
		if KindOf(err) != tc.want {
			t.Errorf("status %d: expected %s got %s", tc.status, tc.want, KindOf(err))
		}
		if StatusOf(err) != tc.status {
			t.Errorf("status %d: StatusOf=%d", tc.status, StatusOf(err))
		}
		ts.Close()
	}
}

func TestDo_TimeoutKind(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	c := newTestClient(t, ts.URL, Config{Timeout: 50 * time.Millisecond})
	_, err := c.Do(context.Background(), http.MethodGet, "/citas", nil)
	if KindOf(err) != KindTimeout {
		t.Fatalf("expected timeout kind, got %s (%v)", KindOf(err), err)
	}
}

func TestDo_ConnectionRefusedIsNetworkKind(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := ts.URL
	ts.Close()

	c := newTestClient(t, url, Config{})
	_, err := c.Do(context.Background(), http.MethodGet, "/citas", nil)
	if KindOf(err) != KindNetwork {
		t.Fatalf("expected network kind, got %s (%v)", KindOf(err), err)
	}
}

func TestDo_FireOnceNoRetry(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL, Config{})
	_, _ = c.Do(context.Background(), http.MethodPost, "/citas", map[string]any{"motivo": "x"})
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected a single attempt, got %d", hits)
	}
}

func TestDo_BreakerRejectsWithoutSending(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	b := breaker.New(breaker.Config{Name: "eps-api", FailureThreshold: 2, Timeout: time.Minute}, nil, nil)
	c := newTestClient(t, ts.URL, Config{Breaker: b})

	for i := 0; i < 2; i++ {
		if _, err := c.Do(context.Background(), http.MethodGet, "/citas", nil); KindOf(err) != KindServer {
			t.Fatalf("call %d: expected server kind, got %v", i, err)
		}
	}
	_, err := c.Do(context.Background(), http.MethodGet, "/citas", nil)
	if KindOf(err) != KindNetwork || !errors.Is(err, breaker.ErrOpen) {
		t.Fatalf("expected open breaker network error, got %v", err)
	}
	if atomic.LoadInt32(&hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", hits)
	}
}

func TestDoJSON_Decodes(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected json content type")
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"email":"a@b.c"`) {
			t.Errorf("unexpected body %s", body)
		}
		_, _ = io.WriteString(w, `{"success":true,"message":"ok"}`)
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL, Config{})
	var out struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := c.DoJSON(context.Background(), http.MethodPost, "/login", map[string]string{"email": "a@b.c"}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Success || out.Message != "ok" {
		t.Fatalf("unexpected decode: %+v", out)
	}
}
