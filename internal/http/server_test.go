package http

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

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/admin/internal/clients"
	"storefront/admin/internal/config"
	"storefront/admin/internal/events"
	"storefront/admin/internal/inventory"
	"storefront/admin/internal/metrics"
	"storefront/admin/internal/requests"
	"storefront/admin/internal/session"
)

const cookieName = "admin_session"

// fakeCommerce stands in for the commerce API behind /admin and /auth.
type fakeCommerce struct {
	t     *testing.T
	token string

	mu          sync.Mutex
	expired     bool
	orders      map[int64]string
	rejectOrder map[int64]string
	inventories []inventory.Inventory
	nextInvID   int64
	statusPuts  int
	creates     int
	// omitCreatedID answers inventory creates without the new id.
	omitCreatedID bool
	// productReadsFail makes product reads answer 500.
	productReadsFail bool
}

func newFakeCommerce(t *testing.T) *fakeCommerce {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("fake-commerce"))
	require.NoError(t, err)
	return &fakeCommerce{
		t:           t,
		token:       token,
		orders:      map[int64]string{7: "PENDING", 8: "PENDING", 9: "RETURNED"},
		rejectOrder: map[int64]string{8: "Insufficient stock to confirm this order"},
		inventories: []inventory.Inventory{{ID: 11, Size: "M", Quantity: 5, Price: 10, DiscountPercent: 0, DiscountedPrice: 10}},
		nextInvID:   12,
	}
}

func (f *fakeCommerce) expire() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expired = true
}

func (f *fakeCommerce) puts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusPuts
}

func (f *fakeCommerce) configure(fn func(f *fakeCommerce)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeCommerce) createCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates
}

func (f *fakeCommerce) reply(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (f *fakeCommerce) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req clients.LoginRequest
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "secret" {
			f.reply(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
			return
		}
		role := "ADMIN"
		if strings.HasPrefix(req.Email, "staff") {
			role = "STAFF"
		}
		f.reply(w, http.StatusOK, map[string]interface{}{"data": map[string]interface{}{
			"accessToken": f.token,
			"user":        map[string]interface{}{"id": 1, "email": req.Email, "role": role},
		}})
	})

	admin := http.NewServeMux()
	admin.HandleFunc("GET /dashboard/overview", func(w http.ResponseWriter, _ *http.Request) {
		f.reply(w, http.StatusOK, map[string]interface{}{"data": map[string]interface{}{"totalOrders": 12, "totalRevenue": 640.5}})
	})
	admin.HandleFunc("GET /dashboard/revenue", func(w http.ResponseWriter, _ *http.Request) {
		f.reply(w, http.StatusOK, map[string]interface{}{"data": map[string]interface{}{"totalRevenue": 640.5}})
	})
	admin.HandleFunc("GET /orders", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var items []map[string]interface{}
		for _, id := range []int64{7, 8} {
			items = append(items, map[string]interface{}{"id": id, "orderStatus": f.orders[id], "paymentStatus": "completed"})
		}
		f.reply(w, http.StatusOK, map[string]interface{}{"data": map[string]interface{}{"content": items, "totalPages": 1}})
	})
	admin.HandleFunc("GET /orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var id int64
		_, _ = fmt.Sscan(r.PathValue("id"), &id)
		status, ok := f.orders[id]
		if !ok {
			f.reply(w, http.StatusNotFound, map[string]string{"message": "Order not found"})
			return
		}
		f.reply(w, http.StatusOK, map[string]interface{}{"data": map[string]interface{}{"id": id, "orderStatus": status}})
	})
	admin.HandleFunc("PUT /orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.statusPuts++
		var id int64
		_, _ = fmt.Sscan(r.PathValue("id"), &id)
		if message, ok := f.rejectOrder[id]; ok {
			f.reply(w, http.StatusBadRequest, map[string]string{"message": message})
			return
		}
		var body struct {
			Status string `json:"status"`
		}
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
		f.orders[id] = body.Status
		f.reply(w, http.StatusOK, map[string]interface{}{"data": map[string]interface{}{"id": id, "orderStatus": body.Status}})
	})
	admin.HandleFunc("GET /products/{id}", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.productReadsFail {
			f.reply(w, http.StatusInternalServerError, map[string]string{"message": "Product service unavailable"})
			return
		}
		f.reply(w, http.StatusOK, map[string]interface{}{"data": map[string]interface{}{
			"id": 3, "title": "Tee", "brand": "Acme", "categoryId": 2, "active": true,
			"averageRating": 4.5, "numRatings": 2, "quantitySold": 7, "inventories": f.inventories,
		}})
	})
	admin.HandleFunc("POST /products/{id}/inventory", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&payload))
		assert.NotContains(f.t, payload, "discountedPrice")
		f.mu.Lock()
		defer f.mu.Unlock()
		inv := inventory.Inventory{
			ID:              f.nextInvID,
			Size:            payload["size"].(string),
			Quantity:        int(payload["quantity"].(float64)),
			Price:           payload["price"].(float64),
			DiscountPercent: int(payload["discountPercent"].(float64)),
		}
		inv.DiscountedPrice = inv.Price
		f.nextInvID++
		f.creates++
		f.inventories = append(f.inventories, inv)
		if f.omitCreatedID {
			f.reply(w, http.StatusCreated, map[string]interface{}{"message": "Inventory created"})
			return
		}
		f.reply(w, http.StatusCreated, map[string]interface{}{"data": inv})
	})
	admin.HandleFunc("PUT /products/{id}/inventory/{invId}", func(w http.ResponseWriter, r *http.Request) {
		var payload inventory.Payload
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&payload))
		f.mu.Lock()
		defer f.mu.Unlock()
		for i := range f.inventories {
			if fmt.Sprint(f.inventories[i].ID) == r.PathValue("invId") {
				f.inventories[i].Quantity = payload.Quantity
				f.reply(w, http.StatusOK, map[string]interface{}{"data": f.inventories[i]})
				return
			}
		}
		f.reply(w, http.StatusNotFound, map[string]string{"message": "Inventory not found"})
	})
	admin.HandleFunc("DELETE /users/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	mux.Handle("/admin/", http.StripPrefix("/admin", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		expired := f.expired
		f.mu.Unlock()
		if expired || r.Header.Get("Authorization") != "Bearer "+f.token {
			f.reply(w, http.StatusUnauthorized, map[string]string{"message": "Token expired"})
			return
		}
		admin.ServeHTTP(w, r)
	})))
	return mux
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type testEnv struct {
	fake    *fakeCommerce
	store   *session.Store
	metrics *metrics.Metrics
	events  *recordingPublisher
	url     string
	client  *http.Client
}

func newTestEnv(t *testing.T, hydrated bool) *testEnv {
	t.Helper()
	fake := newFakeCommerce(t)
	commerce := httptest.NewServer(fake.handler())
	t.Cleanup(commerce.Close)

	log := logrus.New()
	log.SetOutput(io.Discard)
	m := metrics.New(prometheus.NewRegistry())
	backend := clients.New(commerce.URL+"/admin", commerce.URL+"/auth", 5*time.Second, m, log)
	store := session.NewStore(session.NewMemoryKV(), time.Hour, log)
	if hydrated {
		require.NoError(t, store.Hydrate(context.Background()))
	}
	scopes := requests.NewScopes(context.Background())
	t.Cleanup(scopes.Close)
	publisher := &recordingPublisher{}

	cfg := config.Config{SessionCookie: cookieName, SessionTTL: time.Hour}
	server, err := NewServer(cfg, store, backend, scopes, inventory.NewRegistry(), events.NewEmitter(publisher, m, log), m, log)
	require.NoError(t, err)
	shell := httptest.NewServer(server.Router())
	t.Cleanup(shell.Close)

	return &testEnv{
		fake:    fake,
		store:   store,
		metrics: m,
		events:  publisher,
		url:     shell.URL,
		client: &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}},
	}
}

func (e *testEnv) do(t *testing.T, method, path string, cookie *http.Cookie, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.url+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	if len(bytes.TrimSpace(raw)) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func (e *testEnv) login(t *testing.T, email string) *http.Cookie {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/login", nil, map[string]string{"email": email, "password": "secret"})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	for _, c := range resp.Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	t.Fatalf("login did not set %s", cookieName)
	return nil
}

func TestGuardBeforeHydration(t *testing.T) {
	env := newTestEnv(t, false)

	resp, body := env.do(t, http.MethodGet, "/orders", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
	assert.Equal(t, "loading", body["status"])

	resp, _ = env.do(t, http.MethodPost, "/login", nil, map[string]string{"email": "admin@shop.test", "password": "secret"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestLoginThenDashboard(t *testing.T) {
	env := newTestEnv(t, true)

	resp, body := env.do(t, http.MethodGet, "/dashboard", nil, nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	assert.Equal(t, "redirect", body["status"])

	resp, body = env.do(t, http.MethodPost, "/login", nil, map[string]string{"email": "admin@shop.test", "password": "secret"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/dashboard", body["landing"])
	perms := body["permissions"].(map[string]interface{})
	assert.Equal(t, true, perms["viewDashboard"])
	assert.Equal(t, true, perms["changeUserRole"])

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == cookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	resp, body = env.do(t, http.MethodGet, "/dashboard?startDate=2026-01-01&endDate=2026-01-07", cookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "2026-01-01", body["startDate"])
	overview := body["overview"].(map[string]interface{})
	assert.EqualValues(t, 12, overview["totalOrders"])
	assert.NotContains(t, body, "overviewError")
}

func TestLoginRejectedByBackend(t *testing.T) {
	env := newTestEnv(t, true)

	resp, body := env.do(t, http.MethodPost, "/login", nil, map[string]string{"email": "admin@shop.test", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "login_failed", body["error"])
	assert.Equal(t, "Invalid credentials", body["message"])
	assert.Empty(t, resp.Cookies())
}

func TestStaffIsKeptOffAdminOnlyScreens(t *testing.T) {
	env := newTestEnv(t, true)
	cookie := env.login(t, "staff@shop.test")

	resp, body := env.do(t, http.MethodGet, "/dashboard", cookie, nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/unauthorized", resp.Header.Get("Location"))
	assert.Equal(t, "insufficient", body["state"])

	resp, body = env.do(t, http.MethodGet, "/orders", cookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	items := body["items"].([]interface{})
	require.Len(t, items, 2)
	first := items[0].(map[string]interface{})
	assert.Equal(t, "PENDING", first["status"])
	assert.Equal(t, "Completed", first["payment"].(map[string]interface{})["label"])

	resp, body = env.do(t, http.MethodDelete, "/users/4", cookie, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "forbidden", body["error"])

	resp, body = env.do(t, http.MethodGet, "/guard?path=/users/create", cookie, nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/unauthorized", body["location"])

	resp, _ = env.do(t, http.MethodGet, "/guard?path=/settings", cookie, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOrderStatusTransitions(t *testing.T) {
	env := newTestEnv(t, true)
	cookie := env.login(t, "admin@shop.test")

	resp, body := env.do(t, http.MethodGet, "/orders/7", cookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	editor := body["editor"].(map[string]interface{})
	assert.Equal(t, []interface{}{"PENDING", "CONFIRMED", "CANCELLED"}, editor["availableTransitions"])

	resp, body = env.do(t, http.MethodPut, "/orders/7/status", cookie, map[string]string{"status": "CONFIRMED"})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "CONFIRMED", body["status"])
	assert.Equal(t, 1, env.fake.puts())
	assert.Contains(t, env.events.types(), events.OrderStatusChanged)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.OrderTransitions.WithLabelValues("CONFIRMED", "ok")))

	resp, body = env.do(t, http.MethodPut, "/orders/7/status", cookie, map[string]string{"status": "PENDING"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFIRMED", body["status"])
	assert.Equal(t, 1, env.fake.puts())

	resp, body = env.do(t, http.MethodPut, "/orders/8/status", cookie, map[string]string{"status": "CONFIRMED"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "PENDING", body["status"])
	assert.Equal(t, "Insufficient stock to confirm this order", body["error"])

	resp, body = env.do(t, http.MethodPut, "/orders/7/status", cookie, map[string]string{"status": "LOST"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_status", body["error"])
}

func TestInventoryDraftSubmit(t *testing.T) {
	env := newTestEnv(t, true)
	cookie := env.login(t, "staff@shop.test")

	resp, body := env.do(t, http.MethodPost, "/products/3/inventory/draft", cookie, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	require.Len(t, body["rows"], 1)

	resp, body = env.do(t, http.MethodPost, "/products/3/inventory/draft/rows", cookie, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	require.Len(t, body["rows"], 2)

	for field, value := range map[string]string{"size": "XL", "quantity": "4", "price": "20", "discountPercent": "10"} {
		resp, body = env.do(t, http.MethodPatch, "/products/3/inventory/draft/rows/1", cookie, map[string]string{"field": field, "value": value})
		require.Equal(t, http.StatusOK, resp.StatusCode, body)
	}
	resp, body = env.do(t, http.MethodPatch, "/products/3/inventory/draft/rows/1", cookie, map[string]string{"field": "discountedPrice", "value": "1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "read_only_field", body["error"])

	resp, body = env.do(t, http.MethodDelete, "/products/3/inventory/draft/rows/0", cookie, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "persisted_row_delete", body["error"])

	resp, body = env.do(t, http.MethodPost, "/products/3/inventory/draft/submit", cookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	result := body["result"].(map[string]interface{})
	assert.EqualValues(t, 1, result["created"])
	assert.EqualValues(t, 1, result["updated"])
	assert.EqualValues(t, 0, result["failed"])

	draft := body["draft"].(map[string]interface{})
	rows := draft["rows"].([]interface{})
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, true, row.(map[string]interface{})["persisted"])
	}
	aggregates := draft["aggregates"].(map[string]interface{})
	assert.EqualValues(t, 2, aggregates["variants"])
	assert.EqualValues(t, 9, aggregates["totalStock"])

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.InventoryWrites.WithLabelValues("create", "ok")))
	assert.Contains(t, env.events.types(), events.InventoryCreated)
}

func TestUnknownOrderStatusIsNotEditable(t *testing.T) {
	env := newTestEnv(t, true)
	cookie := env.login(t, "admin@shop.test")

	resp, body := env.do(t, http.MethodGet, "/orders/9", cookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "RETURNED", body["status"])
	editor := body["editor"].(map[string]interface{})
	assert.Equal(t, []interface{}{"RETURNED"}, editor["availableTransitions"])

	for _, target := range []string{"CONFIRMED", "CANCELLED", "PENDING"} {
		resp, body = env.do(t, http.MethodPut, "/orders/9/status", cookie, map[string]string{"status": target})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "RETURNED", body["status"])
		assert.Contains(t, body["error"], "RETURNED")
	}
	assert.Equal(t, 0, env.fake.puts())
}

func TestProductShapeFollowsBackend(t *testing.T) {
	env := newTestEnv(t, true)
	cookie := env.login(t, "admin@shop.test")

	resp, body := env.do(t, http.MethodGet, "/products/create", cookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body["fields"], "title")
	assert.Contains(t, body["fields"], "ramCapacity")
	assert.NotContains(t, body["fields"], "sku")
	assert.NotContains(t, body, "categories")
	assert.Equal(t, true, body["defaults"].(map[string]interface{})["active"])

	resp, body = env.do(t, http.MethodGet, "/products/3", cookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "Tee", body["title"])
	assert.Equal(t, "Acme", body["brand"])
	assert.Equal(t, true, body["active"])
	assert.EqualValues(t, 7, body["quantitySold"])
	assert.EqualValues(t, 5, body["aggregates"].(map[string]interface{})["totalStock"])
}

func TestCreatedRowSurvivesFailedReadBack(t *testing.T) {
	env := newTestEnv(t, true)
	cookie := env.login(t, "admin@shop.test")

	resp, body := env.do(t, http.MethodPost, "/products/3/inventory/draft", cookie, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	resp, body = env.do(t, http.MethodPost, "/products/3/inventory/draft/rows", cookie, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	resp, body = env.do(t, http.MethodPatch, "/products/3/inventory/draft/rows/1", cookie, map[string]string{"field": "size", "value": "XL"})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	env.fake.configure(func(f *fakeCommerce) {
		f.omitCreatedID = true
		f.productReadsFail = true
	})
	resp, body = env.do(t, http.MethodPost, "/products/3/inventory/draft/submit", cookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "Product service unavailable", body["reloadError"])
	rows := body["draft"].(map[string]interface{})["rows"].([]interface{})
	require.Len(t, rows, 2)
	assert.Equal(t, true, rows[1].(map[string]interface{})["persisted"])
	assert.Equal(t, false, rows[1].(map[string]interface{})["removable"])

	resp, body = env.do(t, http.MethodPost, "/products/3/inventory/draft/submit", cookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.EqualValues(t, 0, body["result"].(map[string]interface{})["created"])
	assert.Equal(t, 1, env.fake.createCalls())

	resp, body = env.do(t, http.MethodDelete, "/products/3/inventory/draft/rows/1", cookie, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "persisted_row_delete", body["error"])

	env.fake.configure(func(f *fakeCommerce) { f.productReadsFail = false })
	resp, body = env.do(t, http.MethodPost, "/products/3/inventory/draft/reload", cookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	rows = body["rows"].([]interface{})
	require.Len(t, rows, 2)
	assert.EqualValues(t, 12, rows[1].(map[string]interface{})["id"])
	assert.Equal(t, "XL", rows[1].(map[string]interface{})["size"])
}

func TestInventoryDraftReloadDropsEdits(t *testing.T) {
	env := newTestEnv(t, true)
	cookie := env.login(t, "staff@shop.test")

	resp, body := env.do(t, http.MethodPost, "/products/3/inventory/draft", cookie, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	resp, body = env.do(t, http.MethodPatch, "/products/3/inventory/draft/rows/0", cookie, map[string]string{"field": "quantity", "value": "40"})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	resp, body = env.do(t, http.MethodPost, "/products/3/inventory/draft/reload", cookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	rows := body["rows"].([]interface{})
	require.Len(t, rows, 1)
	assert.Equal(t, "5", rows[0].(map[string]interface{})["quantity"])

	resp, body = env.do(t, http.MethodPost, "/products/4/inventory/draft/reload", cookie, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "draft_not_found", body["error"])
}

func TestExpiredBackendTokenEndsSession(t *testing.T) {
	env := newTestEnv(t, true)
	cookie := env.login(t, "admin@shop.test")

	env.fake.expire()
	resp, body := env.do(t, http.MethodGet, "/orders", cookie, nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", body["location"])

	sess, err := env.store.Load(context.Background(), cookie.Value)
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())

	resp, _ = env.do(t, http.MethodGet, "/orders", cookie, nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestLogoutClearsSession(t *testing.T) {
	env := newTestEnv(t, true)
	cookie := env.login(t, "admin@shop.test")

	resp, body := env.do(t, http.MethodPost, "/logout", cookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/login", body["redirect"])

	resp, _ = env.do(t, http.MethodGet, "/me", cookie, nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}
