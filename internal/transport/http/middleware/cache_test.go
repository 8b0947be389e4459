package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/karvix-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCache struct {
	mu     sync.Mutex
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newMemCache() *memCache {
	return &memCache{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return v, nil
}

func (m *memCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

// countingHandler answers with status and counts how often it ran.
func countingHandler(status int, body string, calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

func TestCache_MissThenHit(t *testing.T) {
	store := newMemCache()
	calls := 0
	h := Cache(store, 5*time.Minute)(countingHandler(http.StatusOK, `{"data":[]}`, &calls))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/users/search?skills=plumbing", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "MISS", rr.Header().Get("X-Cache"))
	assert.Equal(t, `{"data":[]}`, store.data["api:/v1/users/search?skills=plumbing"])
	assert.Equal(t, 5*time.Minute, store.ttls["api:/v1/users/search?skills=plumbing"])

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/users/search?skills=plumbing", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "HIT", rr.Header().Get("X-Cache"))
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":[]}`, rr.Body.String())
	assert.Equal(t, 1, calls)
}

func TestCache_QueryIsPartOfKey(t *testing.T) {
	store := newMemCache()
	calls := 0
	h := Cache(store, time.Minute)(countingHandler(http.StatusOK, `{}`, &calls))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/users/search?city=a", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/users/search?city=b", nil))
	assert.Equal(t, 2, calls)
}

func TestCache_SkipsErrorResponses(t *testing.T) {
	store := newMemCache()
	calls := 0
	h := Cache(store, time.Minute)(countingHandler(http.StatusBadRequest, `{"error":"x"}`, &calls))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/users/search?rating=x", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/users/search?rating=x", nil))
	assert.Empty(t, store.data)
	assert.Equal(t, 2, calls)
}

func TestCache_IgnoresNonGet(t *testing.T) {
	store := newMemCache()
	calls := 0
	h := Cache(store, time.Minute)(countingHandler(http.StatusOK, `{}`, &calls))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/brokers", nil))
	assert.Empty(t, store.data)
	assert.Equal(t, 1, calls)
}

func TestCache_StoreFailureFallsThrough(t *testing.T) {
	store := newMemCache()
	store.getErr = errors.New("connection refused")
	calls := 0
	h := Cache(store, time.Minute)(countingHandler(http.StatusOK, `{"data":[]}`, &calls))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/brokers", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"data":[]}`, rr.Body.String())
	assert.Equal(t, 1, calls)
}
