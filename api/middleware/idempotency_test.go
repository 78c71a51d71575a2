package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/equiptrade/fulfillment-backend/pkg/errors"
)

// memoryStore is an in-process IdempotencyStore that also remembers TTLs.
type memoryStore struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.values[key], m.ttls[key] = value.(string), ttl
	return nil
}

func (m *memoryStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, taken := m.values[key]; taken {
		return false, nil
	}
	return true, m.Set(ctx, key, value, ttl)
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
		delete(m.ttls, key)
	}
	return nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "test:idempotency:" + scope + ":" + id
}

func routed(method, url, pattern string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, url, body)
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

// submitOrder builds a POST /api/v1/orders carrying key; an empty key omits
// the header.
func submitOrder(key, body string) *http.Request {
	req := routed(http.MethodPost, "/api/v1/orders", "/api/v1/orders", strings.NewReader(body))
	if key != "" {
		req.Header.Set(idempotencyHeader, key)
	}
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func errorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	return payload.Error.Code
}

func TestRouteTTL(t *testing.T) {
	tests := []struct {
		method, pattern string
		want            time.Duration
	}{
		{http.MethodPost, "/api/v1/orders", criticalIdempotencyTTL},
		{http.MethodPost, "/api/v1/invoices/{invoiceId}/payment-proofs", criticalIdempotencyTTL},
		{http.MethodPost, "/api/v1/admin/orders/{orderId}/confirm", criticalIdempotencyTTL},
		{http.MethodPost, "/api/v1/admin/orders/{orderId}/note", defaultIdempotencyTTL},
		{http.MethodPost, "/api/v1/admin/payment-proofs/{proofId}/verify", criticalIdempotencyTTL},
		{http.MethodPost, "/api/v1/admin/refunds/{refundId}/proof", criticalIdempotencyTTL},
		{http.MethodPost, "/api/v1/orders/{orderId}/complaints", defaultIdempotencyTTL},
		{http.MethodPost, "/api/v1/notifications/{notificationId}/read", defaultIdempotencyTTL},
		{http.MethodGet, "/api/v1/orders", 0},
		{http.MethodPatch, "/api/v1/admin/complaints/{complaintId}/status", 0},
		{http.MethodPost, "", 0},
	}
	for _, tc := range tests {
		t.Run(tc.method+" "+tc.pattern, func(t *testing.T) {
			ttl, ok := routeTTL(tc.method, tc.pattern)
			assert.Equal(t, tc.want != 0, ok)
			assert.Equal(t, tc.want, ttl)
		})
	}
}

func TestIdempotencyRequiresKey(t *testing.T) {
	handler := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run without a key")
	})

	resp := serve(Idempotency(newMemoryStore(), nil)(handler), submitOrder("", `{"lines":[]}`))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newMemoryStore()
	calls := 0
	h := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"reference":"FT-000042"}`))
	}))

	first := serve(h, submitOrder("abc", `{"lines":[1]}`))
	require.Equal(t, http.StatusAccepted, first.Code)
	assert.Empty(t, first.Header().Get(replayedHeader))

	replay := serve(h, submitOrder("abc", `{"lines":[1]}`))
	assert.Equal(t, http.StatusAccepted, replay.Code)
	assert.Equal(t, "application/json", replay.Header().Get("Content-Type"))
	assert.Equal(t, "true", replay.Header().Get(replayedHeader))
	assert.JSONEq(t, `{"reference":"FT-000042"}`, replay.Body.String())
	assert.Equal(t, 1, calls)

	for key, ttl := range store.ttls {
		assert.Equal(t, criticalIdempotencyTTL, ttl, key)
	}
}

func TestIdempotencyRejectsChangedBody(t *testing.T) {
	h := Idempotency(newMemoryStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	serve(h, submitOrder("xyz", `{"lines":[1]}`))
	resp := serve(h, submitOrder("xyz", `{"lines":[2]}`))

	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, string(pkgerrors.CodeIdempotency), errorCode(t, resp))
}

func TestIdempotencyReleasesKeyOnServerError(t *testing.T) {
	statuses := []int{http.StatusServiceUnavailable, http.StatusCreated}
	calls := 0
	h := Idempotency(newMemoryStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(statuses[calls])
		calls++
	}))

	for _, want := range statuses {
		assert.Equal(t, want, serve(h, submitOrder("retry-me", `{}`)).Code)
	}
	assert.Equal(t, 2, calls)
}

func TestIdempotencyKeysArePerUser(t *testing.T) {
	calls := 0
	h := Idempotency(newMemoryStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	for _, user := range []string{"user-a", "user-b"} {
		req := submitOrder("same-key", `{}`)
		serve(h, req.WithContext(WithUserID(req.Context(), user)))
	}
	assert.Equal(t, 2, calls)
}

func TestIdempotencyRejectsDuplicateInFlight(t *testing.T) {
	store := newMemoryStore()
	var duplicate *httptest.ResponseRecorder
	h := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		duplicate = serve(Idempotency(store, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("duplicate must not reach the handler")
		})), submitOrder("busy", `{}`))
		w.WriteHeader(http.StatusCreated)
	}))

	assert.Equal(t, http.StatusCreated, serve(h, submitOrder("busy", `{}`)).Code)
	require.NotNil(t, duplicate)
	assert.Equal(t, http.StatusConflict, duplicate.Code)
}

func TestIdempotencyReleasesKeyWhenHandlerPanics(t *testing.T) {
	store := newMemoryStore()
	h := Idempotency(store, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))

	assert.Panics(t, func() { serve(h, submitOrder("panics", `{}`)) })
	assert.Empty(t, store.values)
}

func TestIdempotencyPassesUnlistedRoutes(t *testing.T) {
	store := newMemoryStore()
	called := false
	h := Idempotency(store, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	serve(h, routed(http.MethodGet, "/api/v1/orders", "/api/v1/orders", nil))
	assert.True(t, called)
	assert.Empty(t, store.values)
}

func TestRoutePatternFallsBackToPathWhenMounted(t *testing.T) {
	mounted := routed(http.MethodPost, "/api/v1/invoices/abc/payment-proofs", "/api/v1/*", nil)
	assert.Equal(t, "/api/v1/invoices/abc/payment-proofs", routePattern(mounted))

	full := routed(http.MethodPost, "/api/v1/orders", "/api/v1/orders", nil)
	assert.Equal(t, "/api/v1/orders", routePattern(full))
}
