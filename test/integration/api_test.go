package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/confsubst/internal/api"
	"github.com/eugenenazirov/confsubst/internal/component"
	"github.com/eugenenazirov/confsubst/internal/loader"
	"github.com/eugenenazirov/confsubst/internal/property"
	"github.com/eugenenazirov/confsubst/internal/resolve"
	"github.com/eugenenazirov/confsubst/internal/sysenv"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()

	sys := sysenv.New(
		sysenv.NewMemoryStore(nil, sysenv.WithRestrictedPrefixes("secret.")),
		sysenv.WithFallback(sysenv.NewPlatformStore(map[string]string{"ro.product": "edge"})),
	)
	registry := loader.NewRegistry()
	if err := component.Register(registry); err != nil {
		t.Fatalf("register components: %v", err)
	}
	if err := sys.SetSystemProperty("app.level", "ERROR"); err != nil {
		t.Fatalf("seed system property: %v", err)
	}

	handler := api.NewHandler(resolve.New(sys), property.NewStore(nil), registry)
	logger := zaptest.NewLogger(t)
	return api.NewRouter(handler, logger, api.WithRateLimit(0, 0))
}

func performRequest(t *testing.T, handler http.Handler, method, target string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeField(t *testing.T, rec *httptest.ResponseRecorder, field string) any {
	t.Helper()

	var out map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out[field]
}

func TestIntegrationFlow(t *testing.T) {
	t.Setenv("CONFSUBST_IT_HOME", "/srv/app")
	handler := newRouter(t)

	rec := performRequest(t, handler, http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d", rec.Code)
	}

	rec = performRequest(t, handler, http.MethodPut, "/api/properties", map[string]any{
		"properties": map[string]string{"log.dir": "${CONFSUBST_IT_HOME}/logs", "filter.kind": "ThresholdFilter"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from properties update, got %d", rec.Code)
	}

	// log.dir is stored raw; the second pass expands the env reference it yields.
	rec = performRequest(t, handler, http.MethodPost, "/api/substitute", map[string]any{
		"input": "${log.dir}/${app.name:-app}-${ro.product}.log",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from substitute, got %d", rec.Code)
	}
	if got := decodeField(t, rec, "result"); got != "/srv/app/logs/app-edge.log" {
		t.Fatalf("unexpected substitution result %v", got)
	}

	rec = performRequest(t, handler, http.MethodPost, "/api/lookup", map[string]any{"key": "secret.token"})
	if got := decodeField(t, rec, "found"); got != false {
		t.Fatalf("expected restricted key to be absent, got %v", got)
	}

	rec = performRequest(t, handler, http.MethodPost, "/api/instantiate", map[string]any{
		"className":  "filter.${filter.kind}",
		"capability": "filter",
		"argument":   "${app.level}",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 from instantiate, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decodeField(t, rec, "description"); got != "ThresholdFilter(ERROR)" {
		t.Fatalf("unexpected description %v", got)
	}
}
