package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/angelmondragon/shelfstock-backend/pkg/errors"
)

type fakeStore struct {
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	str, _ := value.(string)
	f.data[key] = str
	return nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	return true, nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func postWithKey(path, body, key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	return req
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	return payload.Error.Code
}

func TestIdempotentRouteSelection(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		want   bool
	}{
		{"create product", http.MethodPost, "/api/v1/products", true},
		{"add identifiers", http.MethodPost, "/api/v1/products/p1/identifiers", true},
		{"remove product", http.MethodPost, "/api/v1/containers/c1/products/remove", true},
		{"add product", http.MethodPost, "/api/v1/containers/c1/products", true},
		{"bind", http.MethodPost, "/api/v1/shelves/bindings", true},
		{"trailing slash", http.MethodPost, "/api/v1/shelves/", true},
		{"search", http.MethodGet, "/api/v1/products/search", false},
		{"inspect", http.MethodGet, "/api/v1/containers/c1/contents", false},
		{"health", http.MethodPost, "/health/live", false},
	}

	for _, tt := range tests {
		if got := idempotentRoute(tt.method, tt.path); got != tt.want {
			t.Fatalf("%s: expected %v got %v", tt.name, tt.want, got)
		}
	}
}

func TestIdempotencyMiddlewarePassesThroughWithoutKey(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, time.Minute, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	})

	for i := 0; i < 2; i++ {
		resp := httptest.NewRecorder()
		mw(handler).ServeHTTP(resp, postWithKey("/api/v1/shelves", `{"name":"A1"}`, ""))
		if resp.Code != http.StatusCreated {
			t.Fatalf("expected 201 got %d", resp.Code)
		}
	}
	if calls != 2 {
		t.Fatalf("handler executed %d times, expected 2", calls)
	}
	if len(store.data) != 0 {
		t.Fatalf("nothing should be stored without a key, got %v", store.data)
	}
}

func TestIdempotencyMiddlewareReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, time.Minute, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":{"quantity":3}}`))
	})

	path := "/api/v1/containers/c1/products/remove"
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, postWithKey(path, `{"product_id":"p1","quantity":5}`, "abc"))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected first response 200 got %d", resp.Code)
	}

	rec := httptest.NewRecorder()
	mw(handler).ServeHTTP(rec, postWithKey(path, `{"product_id":"p1","quantity":5}`, "abc"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected replay status 200 got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("expected content-type header preserved")
	}
	if rec.Header().Get(IdempotencyReplayHeader) != "true" {
		t.Fatalf("expected replay marker header")
	}
	if strings.TrimSpace(rec.Body.String()) != `{"data":{"quantity":3}}` {
		t.Fatalf("expected stored body got %s", rec.Body.String())
	}
	if calls != 1 {
		t.Fatalf("handler executed %d times, expected 1", calls)
	}
}

func TestIdempotencyMiddlewareDetectsBodyChange(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, time.Minute, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mw(handler).ServeHTTP(httptest.NewRecorder(), postWithKey("/api/v1/shelves", `{"name":"A1"}`, "xyz"))

	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, postWithKey("/api/v1/shelves", `{"name":"B2"}`, "xyz"))

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	if code := errorCode(t, resp); code != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("expected error code %s got %s", pkgerrors.CodeIdempotency, code)
	}
}

func TestIdempotencyMiddlewareRejectsInFlightDuplicate(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, time.Minute, nil)

	var inner *httptest.ResponseRecorder
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if inner == nil {
			inner = httptest.NewRecorder()
			mw(http.NotFoundHandler()).ServeHTTP(inner, postWithKey("/api/v1/products", `{"name":"Bolt"}`, "dup"))
		}
		w.WriteHeader(http.StatusCreated)
	})

	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, postWithKey("/api/v1/products", `{"name":"Bolt"}`, "dup"))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected outer request to succeed, got %d", resp.Code)
	}
	if inner.Code != http.StatusConflict {
		t.Fatalf("expected in-flight duplicate to be rejected, got %d", inner.Code)
	}
	if code := errorCode(t, inner); code != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("unexpected error code %s", code)
	}
}

func TestIdempotencyMiddlewareReleasesKeyOnServerError(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, time.Minute, nil)
	fail := true
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, postWithKey("/api/v1/containers", `{"name":"Bin","quantity":1}`, "retry"))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
	if len(store.data) != 0 {
		t.Fatalf("failed request should release its key, got %v", store.data)
	}

	fail = false
	resp = httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, postWithKey("/api/v1/containers", `{"name":"Bin","quantity":1}`, "retry"))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected retry to run the handler, got %d", resp.Code)
	}
	if calls != 2 {
		t.Fatalf("handler executed %d times, expected 2", calls)
	}
}
