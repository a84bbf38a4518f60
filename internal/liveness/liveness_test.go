package liveness_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glizzus/jukebox/internal/liveness"
)

func TestHandler(t *testing.T) {
	tc := []struct {
		name   string
		method string
		path   string
		status int
		body   string
	}{
		{
			name:   "Root reports online",
			method: http.MethodGet,
			path:   "/",
			status: http.StatusOK,
			body:   liveness.Message,
		},
		{
			name:   "Other paths are not found",
			method: http.MethodGet,
			path:   "/health",
			status: http.StatusNotFound,
		},
		{
			name:   "Other methods are rejected",
			method: http.MethodPost,
			path:   "/",
			status: http.StatusMethodNotAllowed,
		},
	}

	srv := httptest.NewServer(liveness.Handler())
	t.Cleanup(srv.Close)

	for _, testCase := range tc {
		t.Run(testCase.name, func(t *testing.T) {
			req, err := http.NewRequestWithContext(t.Context(), testCase.method, srv.URL+testCase.path, nil)
			if err != nil {
				t.Fatalf("failed to build request: %v", err)
			}
			resp, err := srv.Client().Do(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != testCase.status {
				t.Fatalf("expected status %d, got %d", testCase.status, resp.StatusCode)
			}
			if testCase.body == "" {
				return
			}
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				t.Fatalf("failed to read body: %v", err)
			}
			if string(body) != testCase.body {
				t.Errorf("expected body %q, got %q", testCase.body, string(body))
			}
		})
	}
}

func TestServerStopsWithContext(t *testing.T) {
	srv := liveness.NewServer("127.0.0.1:0")
	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancellation")
	}
}
