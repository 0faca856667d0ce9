package embedding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestEmbedReturnsVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3]}]}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{URL: srv.URL, APIKey: "test-key", Model: "voyage-3-lite"}, srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	vec, err := client.Embed(context.Background(), "a quiet evening")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(vec) != 3 || vec[0] != 0.1 {
		t.Fatalf("unexpected vector: %v", vec)
	}
}

func TestEmbedRetriesThenSucceeds(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"embedding":[1]}]}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{URL: srv.URL, Model: "voyage-3-lite", MaxRetries: 2}, srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	client.backoff = time.Millisecond

	if _, err := client.Embed(context.Background(), "text"); err != nil {
		t.Fatalf("embed with retry: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestEmbedExhaustsRetryBudget(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewClient(Config{URL: srv.URL, Model: "voyage-3-lite", MaxRetries: 1}, srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	client.backoff = time.Millisecond

	if _, err := client.Embed(context.Background(), "text"); err == nil {
		t.Fatalf("expected error after retry budget exhausted")
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}
