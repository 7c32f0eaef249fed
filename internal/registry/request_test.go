package registry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/cmx/internal/shared"
)

func TestClientDo(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes a successful response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"value":"ok"}`))
		}))
		defer server.Close()

		client := NewClient(ClientOpts{Delay: time.Millisecond})

		var result struct {
			Value string `json:"value"`
		}
		if err := client.Do(ctx, http.MethodGet, server.URL, nil, nil, &result); err != nil {
			t.Fatalf("Do() error: %v", err)
		}
		if result.Value != "ok" {
			t.Errorf("expected decoded value, got %q", result.Value)
		}
	})

	t.Run("retries a transient failure", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		client := NewClient(ClientOpts{Attempts: 2, Delay: time.Millisecond})
		if err := client.Do(ctx, http.MethodGet, server.URL, nil, nil, nil); err != nil {
			t.Fatalf("expected retry to succeed, got %v", err)
		}
		if calls.Load() != 2 {
			t.Errorf("expected 2 attempts, got %d", calls.Load())
		}
	})

	t.Run("exhausts the retry budget", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`{"title":"Bad Gateway"}`))
		}))
		defer server.Close()

		client := NewClient(ClientOpts{Attempts: 3, Delay: time.Millisecond})
		err := client.Do(ctx, http.MethodGet, server.URL, nil, nil, nil)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
		if calls.Load() != 3 {
			t.Errorf("expected 3 attempts, got %d", calls.Load())
		}
	})

	t.Run("compliance rejection short-circuits retries", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"title":"Member In Compliance State","detail":"cannot be subscribed"}`))
		}))
		defer server.Close()

		client := NewClient(ClientOpts{Attempts: 3, Delay: time.Millisecond})
		err := client.Do(ctx, http.MethodPut, server.URL, nil, map[string]string{"email_address": "x@y.z"}, nil)
		if !errors.Is(err, shared.ErrComplianceState) {
			t.Fatalf("expected ErrComplianceState, got %v", err)
		}
		if calls.Load() != 1 {
			t.Errorf("compliance error must not retry, got %d attempts", calls.Load())
		}
	})

	t.Run("sends headers and body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Test") != "yes" {
				t.Error("missing custom header")
			}
			if r.Header.Get("Content-Type") != "application/json" {
				t.Error("missing content type")
			}
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		headers := http.Header{}
		headers.Set("X-Test", "yes")

		client := NewClient(ClientOpts{Delay: time.Millisecond})
		if err := client.Do(ctx, http.MethodPost, server.URL, headers, map[string]int{"n": 1}, nil); err != nil {
			t.Fatalf("Do() error: %v", err)
		}
	})

	t.Run("cancelled context stops the retry loop", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		client := NewClient(ClientOpts{Attempts: 5, Delay: 10 * time.Second})
		err := client.Do(cctx, http.MethodGet, server.URL, nil, nil, nil)
		if err == nil {
			t.Fatal("expected error from cancelled context")
		}
	})
}
