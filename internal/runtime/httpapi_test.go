package runtime

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/webui/internal/runtime/events"
	jsoncodec "github.com/drblury/webui/internal/runtime/jsoncodec"
)

func postEvent(t *testing.T, svc *Service, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/event", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHTTPEventDispatchesToHandler(t *testing.T) {
	svc := newTestService(t, nil, ServiceDependencies{})
	svc.BindEventFunc("name-input", "change", func(_ context.Context, ev events.Event) (events.Result, error) {
		return events.OK("Hello, "+ev.String("value")+"!", nil), nil
	})

	rec := postEvent(t, svc, `{"element_id":"name-input","event_type":"change","data":{"value":"Ada"}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"succeeded":true,"message":"Hello, Ada!"}`, rec.Body.String())
}

func TestHTTPEchoKeepsLargeIntegers(t *testing.T) {
	svc := newTestService(t, nil, ServiceDependencies{})
	svc.BindEventFunc("echo", "submit", func(_ context.Context, ev events.Event) (events.Result, error) {
		return events.OK("", ev.Data), nil
	})

	rec := postEvent(t, svc, `{"element_id":"echo","event_type":"submit","data":{"id":9007199254740993}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"succeeded":true,"payload":{"id":9007199254740993}}`, rec.Body.String())
}

func TestHTTPUnboundEvent(t *testing.T) {
	svc := newTestService(t, nil, ServiceDependencies{})

	rec := postEvent(t, svc, `{"element_id":"ghost","event_type":"click","data":null}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"succeeded":false,"message":"no handler for ghost:click"}`, rec.Body.String())
}

func TestHTTPDropsCorrelationToken(t *testing.T) {
	svc := newTestService(t, nil, ServiceDependencies{})
	svc.BindClick("save-btn", func() {})

	rec := postEvent(t, svc, `{"element_id":"save-btn","event_type":"click","data":null,"correlation_token":9}`)

	assert.JSONEq(t, `{"succeeded":true}`, rec.Body.String())
}

func TestHTTPRejectsMalformedBody(t *testing.T) {
	svc := newTestService(t, nil, ServiceDependencies{})

	tests := []struct {
		name string
		body string
	}{
		{"not json", `{"element_id":`},
		{"missing element id", `{"event_type":"click","data":null}`},
		{"missing event type", `{"element_id":"x","data":null}`},
		{"wrong type", `{"element_id":1,"event_type":"click"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postEvent(t, svc, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var res events.Result
			require.NoError(t, jsoncodec.Decode(rec.Body, &res))
			assert.False(t, res.Succeeded)
			assert.True(t, strings.HasPrefix(res.Message, "invalid event: "), res.Message)
		})
	}
}

func TestHTTPRejectsOversizedBody(t *testing.T) {
	cfg := newTestConfig()
	cfg.MaxBodyBytes = 64
	svc := newTestService(t, cfg, ServiceDependencies{})

	rec := postEvent(t, svc, `{"element_id":"x","event_type":"click","data":"`+strings.Repeat("a", 256)+`"}`)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), `"succeeded":false`)
}

func TestHTTPEventMethods(t *testing.T) {
	svc := newTestService(t, nil, ServiceDependencies{})

	rec := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/event", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "POST, OPTIONS", rec.Header().Get("Allow"))

	rec = httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/event", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHTTPEventRequiresJSONContentType(t *testing.T) {
	svc := newTestService(t, nil, ServiceDependencies{})
	var calls int
	svc.BindClick("b", func() { calls++ })

	for name, contentType := range map[string]string{
		"missing":   "",
		"form":      "application/x-www-form-urlencoded",
		"text":      "text/plain",
		"malformed": "application/json; charset",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/event", strings.NewReader(`{"element_id":"b","event_type":"click","data":null}`))
			if contentType != "" {
				req.Header.Set("Content-Type", contentType)
			}
			rec := httptest.NewRecorder()
			svc.Handler().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
			assert.JSONEq(t, `{"succeeded":false,"message":"expected request with Content-Type: application/json"}`, rec.Body.String())
		})
	}
	assert.Zero(t, calls)

	for _, contentType := range []string{"application/json; charset=utf-8", "application/vnd.webui+json"} {
		req := httptest.NewRequest(http.MethodPost, "/api/event", strings.NewReader(`{"element_id":"b","event_type":"click","data":null}`))
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		svc.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, contentType)
	}
	assert.Equal(t, 2, calls)
}

func TestHTTPEventCORS(t *testing.T) {
	cfg := newTestConfig()
	cfg.CORSAllowedOrigins = []string{"http://app.example"}
	svc := newTestService(t, cfg, ServiceDependencies{})
	svc.BindClick("b", func() {})

	req := httptest.NewRequest(http.MethodPost, "/api/event", strings.NewReader(`{"element_id":"b","event_type":"click","data":null}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://app.example")
	rec := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))

	req = httptest.NewRequest(http.MethodPost, "/api/event", strings.NewReader(`{"element_id":"b","event_type":"click","data":null}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://other.example")
	rec = httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHTTPEventOverRealServer(t *testing.T) {
	svc := newTestService(t, nil, ServiceDependencies{})
	svc.BindClick("b", func() {})
	srv := startTestServer(t, svc)

	resp, err := http.Post(srv.URL+"/api/event", "application/json", strings.NewReader(`{"element_id":"b","event_type":"click","data":null}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"succeeded":true}`, string(body))
}
