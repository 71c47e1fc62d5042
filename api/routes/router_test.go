package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/shelfstock-backend/api/controllers"
	"github.com/angelmondragon/shelfstock-backend/internal/containers"
	"github.com/angelmondragon/shelfstock-backend/internal/observe"
	"github.com/angelmondragon/shelfstock-backend/internal/products"
	"github.com/angelmondragon/shelfstock-backend/internal/shelves"
	"github.com/angelmondragon/shelfstock-backend/pkg/config"
	"github.com/angelmondragon/shelfstock-backend/pkg/db/dbtest"
	"github.com/angelmondragon/shelfstock-backend/pkg/ids"
	"github.com/angelmondragon/shelfstock-backend/pkg/logger"
	"github.com/angelmondragon/shelfstock-backend/pkg/metrics"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "test:" + scope + ":" + id
}

type apiClient struct {
	t      *testing.T
	server *httptest.Server
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (c apiClient) do(method, path string, body any, headers map[string]string) (int, envelope) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.server.URL+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.server.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	if len(bytes.TrimSpace(raw)) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(c.t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func newTestAPI(t *testing.T) (apiClient, *prometheus.Registry) {
	t.Helper()

	client := dbtest.New(t)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	registry := prometheus.NewRegistry()
	tracker := observe.NewTracker(logg, metrics.NewOperationMetrics(registry))
	gen := ids.NewGenerator()

	productSvc, err := products.NewService(products.NewRepository(client.DB()), client, gen, tracker)
	require.NoError(t, err)
	containerSvc, err := containers.NewService(containers.NewRepository(client.DB()), client, gen, tracker)
	require.NoError(t, err)
	shelfSvc, err := shelves.NewService(shelves.NewRepository(client.DB()), client, gen, tracker)
	require.NoError(t, err)

	cfg := &config.Config{
		App:          config.AppConfig{Env: "test"},
		Metrics:      config.MetricsConfig{Enabled: true, Path: "/metrics"},
		FeatureFlags: config.FeatureFlagsConfig{IdempotencyTTL: time.Hour},
	}

	handler := NewRouter(
		cfg,
		logg,
		map[string]controllers.Pinger{"database": client},
		&memoryStore{data: map[string]string{}},
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Services{Products: productSvc, Containers: containerSvc, Shelves: shelfSvc},
	)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return apiClient{t: t, server: server}, registry
}

func TestHealthRoutes(t *testing.T) {
	api, _ := newTestAPI(t)

	status, _ := api.do(http.MethodGet, "/health/live", nil, nil)
	assert.Equal(t, http.StatusOK, status)

	status, env := api.do(http.MethodGet, "/health/ready", nil, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"database":"ok"`)
}

func TestInventoryFlow(t *testing.T) {
	api, _ := newTestAPI(t)

	status, env := api.do(http.MethodPost, "/api/v1/products", map[string]any{
		"name":           "Hex Bolt",
		"description":    "M6 zinc",
		"additional_ids": []map[string]string{{"identifier_type": "UPC", "identifier_value": "0001"}},
	}, nil)
	require.Equal(t, http.StatusCreated, status)
	var created struct {
		ProductID string `json:"product_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.True(t, strings.HasPrefix(created.ProductID, "p"))

	status, env = api.do(http.MethodPost, "/api/v1/containers", map[string]any{"name": "Tote", "max_capacity": 50, "quantity": 2}, nil)
	require.Equal(t, http.StatusCreated, status)
	var batch struct {
		ContainerIDs []string `json:"container_ids"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &batch))
	require.Len(t, batch.ContainerIDs, 2)
	containerID := batch.ContainerIDs[0]

	status, _ = api.do(http.MethodPost, "/api/v1/containers/"+containerID+"/products", map[string]any{"product_id": created.ProductID, "quantity": 8}, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = api.do(http.MethodPost, "/api/v1/containers/"+containerID+"/products/remove", map[string]any{"product_id": created.ProductID, "quantity": 10}, nil)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INSUFFICIENT_QUANTITY", env.Error.Code)

	status, env = api.do(http.MethodGet, "/api/v1/containers/"+containerID+"/contents", nil, nil)
	require.Equal(t, http.StatusOK, status)
	var lines []containers.ContentLine
	require.NoError(t, json.Unmarshal(env.Data, &lines))
	require.Len(t, lines, 1)
	assert.Equal(t, 8, lines[0].Quantity)

	status, env = api.do(http.MethodPost, "/api/v1/shelves", map[string]any{"name": "A1", "max_capacity": 10}, nil)
	require.Equal(t, http.StatusCreated, status)
	var shelf struct {
		ShelfID string `json:"shelf_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &shelf))

	status, _ = api.do(http.MethodPost, "/api/v1/shelves/bindings", map[string]any{
		"bindings": []map[string]string{{"container_id": containerID, "shelf_id": shelf.ShelfID}},
	}, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = api.do(http.MethodGet, "/api/v1/containers/"+containerID, nil, nil)
	require.Equal(t, http.StatusOK, status)
	var info containers.ContainerInfo
	require.NoError(t, json.Unmarshal(env.Data, &info))
	require.NotNil(t, info.ShelfID)
	assert.Equal(t, shelf.ShelfID, *info.ShelfID)

	status, env = api.do(http.MethodPost, "/api/v1/shelves/bulk-delete", map[string]any{"shelf_ids": []string{shelf.ShelfID}}, nil)
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "SHELF_HAS_CONTAINERS", env.Error.Code)

	status, _ = api.do(http.MethodPost, "/api/v1/shelves/unbind", map[string]any{"container_ids": []string{containerID}}, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = api.do(http.MethodGet, "/api/v1/shelves/"+shelf.ShelfID+"/containers", nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"container_ids":[]}`, string(env.Data))

	status, env = api.do(http.MethodGet, "/api/v1/products/search?q=hex", nil, nil)
	require.Equal(t, http.StatusOK, status)
	var views []products.ProductView
	require.NoError(t, json.Unmarshal(env.Data, &views))
	require.Len(t, views, 1)
	assert.Equal(t, "Hex Bolt", views[0].Name)
	require.Len(t, views[0].AdditionalIDs, 1)

	status, env = api.do(http.MethodGet, "/api/v1/products/search?q=nothing-like-this", nil, nil)
	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NO_RESULTS", env.Error.Code)
}

func TestRemoveProductReplaysWithIdempotencyKey(t *testing.T) {
	api, _ := newTestAPI(t)

	_, env := api.do(http.MethodPost, "/api/v1/products", map[string]any{"name": "Washer"}, nil)
	var created struct {
		ProductID string `json:"product_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	_, env = api.do(http.MethodPost, "/api/v1/containers", map[string]any{"name": "Bin", "quantity": 1}, nil)
	var batch struct {
		ContainerIDs []string `json:"container_ids"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &batch))
	containerID := batch.ContainerIDs[0]

	status, _ := api.do(http.MethodPost, "/api/v1/containers/"+containerID+"/products", map[string]any{"product_id": created.ProductID, "quantity": 5}, nil)
	require.Equal(t, http.StatusOK, status)

	headers := map[string]string{"Idempotency-Key": "remove-once"}
	body := map[string]any{"product_id": created.ProductID, "quantity": 2}
	for i := 0; i < 3; i++ {
		status, env = api.do(http.MethodPost, "/api/v1/containers/"+containerID+"/products/remove", body, headers)
		require.Equal(t, http.StatusOK, status)
		var result containers.QuantityResult
		require.NoError(t, json.Unmarshal(env.Data, &result))
		assert.Equal(t, 3, result.Quantity, "attempt %d", i)
	}
}

func TestMetricsEndpointExportsOperations(t *testing.T) {
	api, _ := newTestAPI(t)

	api.do(http.MethodPost, "/api/v1/shelves", map[string]any{"name": "B2"}, nil)
	api.do(http.MethodGet, "/api/v1/shelves/missing/containers", nil, nil)

	resp, err := api.server.Client().Get(api.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(raw)
	assert.Contains(t, text, `inventory_operation_total{operation="create_shelf",outcome="success"} 1`)
	assert.Contains(t, text, `inventory_operation_total{operation="inspect_shelf",outcome="not_found"} 1`)
}

func TestUnknownRouteIs404(t *testing.T) {
	api, _ := newTestAPI(t)
	status, _ := api.do(http.MethodGet, "/api/v1/warehouses", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
}
