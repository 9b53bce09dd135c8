package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/mock/gomock"

	"classroom-notifier/internal/handlers"
	"classroom-notifier/internal/indexer"
	"classroom-notifier/internal/metrics"
	"classroom-notifier/internal/service/mocks"
	"classroom-notifier/internal/sweep"
)

func newTestRouter(t *testing.T) (http.Handler, *mocks.MockNotifierService) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifierService(ctrl)

	reg := prometheus.NewRegistry()
	metrics.New(reg)

	router := NewRouter(&Deps{
		Notifier:     notifier,
		HealthChecks: map[string]handlers.HealthCheck{"store": func(context.Context) error { return nil }},
		Metrics:      promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
	return router, notifier
}

func TestRouter_Routes(t *testing.T) {
	router, notifier := newTestRouter(t)
	notifier.EXPECT().Sweep(gomock.Any()).Return(sweep.Report{}, nil)
	notifier.EXPECT().SyncUser(gomock.Any(), "u1").Return(indexer.SyncStats{}, nil)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{name: "POST /api/search exists", method: http.MethodPost, path: "/api/search", body: "not json", wantStatus: http.StatusBadRequest},
		{name: "GET /api/search method not allowed", method: http.MethodGet, path: "/api/search", wantStatus: http.StatusMethodNotAllowed},
		{name: "POST /api/sweep", method: http.MethodPost, path: "/api/sweep", wantStatus: http.StatusOK},
		{name: "POST /api/users bad body", method: http.MethodPost, path: "/api/users", body: "{", wantStatus: http.StatusBadRequest},
		{name: "POST /api/users/{id}/sync", method: http.MethodPost, path: "/api/users/u1/sync", wantStatus: http.StatusOK},
		{name: "GET /api/health", method: http.MethodGet, path: "/api/health", wantStatus: http.StatusOK},
		{name: "GET /metrics", method: http.MethodGet, path: "/metrics", wantStatus: http.StatusOK},
		{name: "unknown route", method: http.MethodGet, path: "/api/chat", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Router %s %s status = %v, want %v", tt.method, tt.path, w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouter_MiddlewareApplied(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("Router should apply CORS middleware")
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Error("Router should apply the logger middleware")
	}
}

func TestRouter_MetricsExposed(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if !strings.Contains(w.Body.String(), "classroom_notifier_") {
		t.Errorf("/metrics should expose notifier metrics, got %q", w.Body.String())
	}
}
