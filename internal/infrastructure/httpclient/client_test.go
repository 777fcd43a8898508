package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
)

type echoResponse struct {
	Method string `json:"method"`
	Query  string `json:"query"`
	Body   string `json:"body"`
	Key    string `json:"key"`
}

func newEchoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(echoResponse{
			Method: r.Method,
			Query:  r.URL.RawQuery,
			Body:   string(body),
			Key:    r.Header.Get("x-api-key"),
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_GetJSON(t *testing.T) {
	srv := newEchoServer(t)
	c := New("test", 5*time.Second, zap.NewNop(), WithHeader("x-api-key", "secret"))

	var out echoResponse
	err := c.GetJSON(context.Background(), srv.URL+"/path", url.Values{"ids": {"a,b"}}, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Method != http.MethodGet {
		t.Errorf("expected GET, got %s", out.Method)
	}
	if out.Query != "ids=a%2Cb" {
		t.Errorf("unexpected query: %s", out.Query)
	}
	if out.Key != "secret" {
		t.Errorf("expected header to be sent, got %q", out.Key)
	}
}

func TestClient_PostJSON(t *testing.T) {
	srv := newEchoServer(t)
	c := New("test", 5*time.Second, zap.NewNop())

	var out echoResponse
	err := c.PostJSON(context.Background(), srv.URL, map[string]string{"hello": "world"}, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Method != http.MethodPost {
		t.Errorf("expected POST, got %s", out.Method)
	}
	if out.Body != `{"hello":"world"}` {
		t.Errorf("unexpected body: %s", out.Body)
	}
}

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		expectKind entities.ErrorKind
		expectMsg  string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{}`, expectKind: entities.UpstreamError, expectMsg: "invalid API key"},
		{name: "forbidden", status: http.StatusForbidden, body: `{}`, expectKind: entities.UpstreamError, expectMsg: "invalid API key"},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{}`, expectKind: entities.NetworkError, expectMsg: "rate limit exceeded"},
		{name: "server error", status: http.StatusBadGateway, body: `oops`, expectKind: entities.UpstreamError, expectMsg: "upstream returned status 502"},
		{name: "malformed body", status: http.StatusOK, body: `{not json`, expectKind: entities.UpstreamError, expectMsg: "malformed response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := New("test", 5*time.Second, zap.NewNop())
			var out map[string]interface{}
			err := c.GetJSON(context.Background(), srv.URL, nil, &out)

			se, ok := entities.AsSourceError(err)
			if !ok {
				t.Fatalf("expected SourceError, got %v", err)
			}
			if se.Kind != tt.expectKind {
				t.Errorf("expected kind %s, got %s", tt.expectKind, se.Kind)
			}
			if se.Message != tt.expectMsg {
				t.Errorf("expected message %q, got %q", tt.expectMsg, se.Message)
			}
			if se.Source != "test" {
				t.Errorf("expected source test, got %s", se.Source)
			}
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := New("slow", 5*time.Second, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := c.GetJSON(ctx, srv.URL, nil, nil)
	se, ok := entities.AsSourceError(err)
	if !ok {
		t.Fatalf("expected SourceError, got %v", err)
	}
	if se.Kind != entities.NetworkError || !se.Timeout {
		t.Errorf("expected timeout network error, got %+v", se)
	}
}

func TestClient_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	c := New("down", 2*time.Second, zap.NewNop())
	err := c.GetJSON(context.Background(), addr, nil, nil)

	se, ok := entities.AsSourceError(err)
	if !ok {
		t.Fatalf("expected SourceError, got %v", err)
	}
	if se.Kind != entities.NetworkError {
		t.Errorf("expected NetworkError, got %s", se.Kind)
	}
	if se.Timeout {
		t.Error("connection failure must not be reported as a timeout")
	}
}

func TestClient_CancelledContext(t *testing.T) {
	c := New("test", time.Second, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.GetJSON(ctx, "http://127.0.0.1:1", nil, nil)
	if !entities.IsKind(err, entities.NetworkError) {
		t.Errorf("expected NetworkError, got %v", err)
	}
}

func TestClient_ContextCancelledMidRequest(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := New("slow", 5*time.Second, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	err := c.GetJSON(ctx, srv.URL, nil, nil)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("expected prompt return after cancel, took %v", elapsed)
	}

	se, ok := entities.AsSourceError(err)
	if !ok {
		t.Fatalf("expected SourceError, got %v", err)
	}
	if se.Kind != entities.NetworkError || se.Timeout {
		t.Errorf("expected non-timeout network error, got %+v", se)
	}
}

func TestClient_LogsRedactSecrets(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	c := New("alchemy", time.Second, zap.New(core), WithSecret("SECRETKEY123"))

	err := c.GetJSON(context.Background(), "http://127.0.0.1:1/v2/SECRETKEY123/getNFTs", url.Values{"owner": {"0xabc"}}, nil)
	if err == nil {
		t.Fatal("expected connection error")
	}

	entries := logs.All()
	if len(entries) == 0 {
		t.Fatal("expected the failure to be logged")
	}
	for _, entry := range entries {
		for key, value := range entry.ContextMap() {
			if strings.Contains(fmt.Sprint(value), "SECRETKEY123") {
				t.Errorf("field %s leaks the key: %v", key, value)
			}
		}
	}
	if got := entries[0].ContextMap()["uri"]; got != "http://127.0.0.1:1/v2/***/getNFTs" {
		t.Errorf("unexpected logged uri: %v", got)
	}
}

func TestClient_Redact(t *testing.T) {
	c := New("test", time.Second, zap.NewNop(), WithSecret("k3y"), WithSecret(""))

	tests := []struct {
		in   string
		want string
	}{
		{in: "https://api.example.com/api?apikey=secret", want: "https://api.example.com/api"},
		{in: "https://polygon-mainnet.g.alchemy.com/v2/k3y", want: "https://polygon-mainnet.g.alchemy.com/v2/***"},
		{in: "https://polygon-mainnet.g.alchemy.com/nft/v3/k3y/getNFTsForOwner?owner=0x1", want: "https://polygon-mainnet.g.alchemy.com/nft/v3/***/getNFTsForOwner"},
	}
	for _, tt := range tests {
		if got := c.redact([]byte(tt.in)); got != tt.want {
			t.Errorf("redact(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
