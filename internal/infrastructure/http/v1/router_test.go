package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"receiptflow/internal/app"
	"receiptflow/internal/core/security"
	"receiptflow/internal/domain/auth"
	"receiptflow/internal/domain/catalogs/product"
	"receiptflow/internal/domain/catalogs/supplier"
	v1 "receiptflow/internal/infrastructure/http/v1"
	"receiptflow/internal/infrastructure/http/v1/middleware"
	"receiptflow/internal/infrastructure/storage/memory"
	"receiptflow/pkg/logger"
)

const webhookSecret = "hook-secret"

type apiFixture struct {
	router   http.Handler
	jwt      *auth.JWTService
	product  string
	supplier string
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	ctx := context.Background()

	services := app.NewServices(app.MemoryStorage(memory.NewStore()))

	p := product.NewProduct("P-001", "Bolt", "pcs")
	require.NoError(t, services.Products.Create(ctx, p))
	s := supplier.NewSupplier("S-001", "Acme", "orders@acme.test")
	require.NoError(t, services.Suppliers.Create(ctx, s))

	jwtService := auth.NewJWTService(auth.DefaultJWTConfig("test-secret"))

	router := v1.NewRouter(v1.RouterConfig{
		Logger:        logger.NewNop(),
		JWTValidator:  jwtService,
		WebhookSecret: webhookSecret,
		Storage:       app.PingFunc(func(context.Context) error { return nil }),
		StorageDriver: "memory",
		Receipts:      services.Receipts,
		Products:      services.Products,
		Suppliers:     services.Suppliers,
		Stock:         services.Stock,
	})

	return &apiFixture{router: router, jwt: jwtService, product: p.ID.String(), supplier: s.ID.String()}
}

func (f *apiFixture) token(t *testing.T, userID string, role security.Role) string {
	t.Helper()
	token, _, err := f.jwt.GenerateAccessToken(userID, "", role)
	require.NoError(t, err)
	return token
}

type call struct {
	method  string
	path    string
	body    any
	token   string
	headers map[string]string
}

func (f *apiFixture) do(t *testing.T, c call) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var body bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &body)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func (f *apiFixture) createDraft(t *testing.T, token string) string {
	t.Helper()
	w, body := f.do(t, call{
		method: http.MethodPost,
		path:   "/api/v1/goods-receipts",
		token:  token,
		body: map[string]any{
			"supplierId": f.supplier,
			"lines": []map[string]any{
				{"productId": f.product, "quantity": "4", "unitPrice": "25.50"},
			},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Draft", body["status"])
	return body["id"].(string)
}

func TestRouter_Health(t *testing.T) {
	f := newAPIFixture(t)

	w, body := f.do(t, call{method: http.MethodGet, path: "/health/live"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))

	w, _ = f.do(t, call{method: http.MethodGet, path: "/health/ready"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_RequiresToken(t *testing.T) {
	f := newAPIFixture(t)

	w, body := f.do(t, call{method: http.MethodGet, path: "/api/v1/goods-receipts"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", body["code"])

	w, _ = f.do(t, call{method: http.MethodGet, path: "/api/v1/goods-receipts", token: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_WorkflowStatusMapping(t *testing.T) {
	f := newAPIFixture(t)
	employee := f.token(t, "7", security.RoleEmployee)
	other := f.token(t, "8", security.RoleEmployee)
	manager := f.token(t, "20", security.RoleManager)

	docID := f.createDraft(t, employee)
	base := "/api/v1/goods-receipts/" + docID

	w, body := f.do(t, call{method: http.MethodPost, path: base + "/submit", token: other})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", body["code"])

	w, body = f.do(t, call{method: http.MethodPost, path: base + "/submit", token: employee})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "AwaitingApproval", body["status"])
	assert.Equal(t, "102", body["totalAmount"])
	assert.NotEmpty(t, body["number"])

	w, body = f.do(t, call{method: http.MethodPost, path: base + "/complete", token: manager})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_STATE", body["code"])

	w, body = f.do(t, call{
		method: http.MethodPost,
		path:   base + "/approve-reject",
		token:  manager,
		body:   map[string]any{"action": "Complete"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])

	w, body = f.do(t, call{
		method: http.MethodPost,
		path:   base + "/approve-reject",
		token:  manager,
		body:   map[string]any{"action": "approve"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Pending", body["status"])

	w, body = f.do(t, call{method: http.MethodGet, path: base + "/actions", token: manager})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, body["actions"], "ResendNotification")

	w, body = f.do(t, call{method: http.MethodGet, path: base + "/history", token: employee})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["items"], 3)
}

func TestRouter_EditAndDelete(t *testing.T) {
	f := newAPIFixture(t)
	employee := f.token(t, "7", security.RoleEmployee)

	docID := f.createDraft(t, employee)
	base := "/api/v1/goods-receipts/" + docID

	w, body := f.do(t, call{
		method:  http.MethodPut,
		path:    base,
		token:   employee,
		body:    map[string]any{"notes": "late delivery"},
		headers: map[string]string{"If-Match": `"1"`},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "late delivery", body["notes"])

	// The receipt is at version 2 now.
	w, body = f.do(t, call{
		method:  http.MethodPut,
		path:    base,
		token:   employee,
		body:    map[string]any{"notes": "stale"},
		headers: map[string]string{"If-Match": "1"},
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONCURRENT_MODIFICATION", body["code"])

	w, _ = f.do(t, call{method: http.MethodDelete, path: base, token: employee})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, body = f.do(t, call{method: http.MethodGet, path: base, token: employee})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestRouter_SupplierChosenBeforeSubmit(t *testing.T) {
	f := newAPIFixture(t)
	employee := f.token(t, "7", security.RoleEmployee)

	w, body := f.do(t, call{
		method: http.MethodPost,
		path:   "/api/v1/goods-receipts",
		token:  employee,
		body: map[string]any{
			"lines": []map[string]any{
				{"productId": f.product, "quantity": "1", "unitPrice": "3"},
			},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, body, "supplierId")
	base := "/api/v1/goods-receipts/" + body["id"].(string)

	w, body = f.do(t, call{method: http.MethodPost, path: base + "/submit", token: employee})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_STATE", body["code"])

	w, body = f.do(t, call{
		method:  http.MethodPut,
		path:    base,
		token:   employee,
		body:    map[string]any{"supplierId": f.supplier},
		headers: map[string]string{"If-Match": "1"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, f.supplier, body["supplierId"])

	w, body = f.do(t, call{method: http.MethodPost, path: base + "/submit", token: employee})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "AwaitingApproval", body["status"])
}

func TestRouter_UnknownProductRejected(t *testing.T) {
	f := newAPIFixture(t)
	employee := f.token(t, "7", security.RoleEmployee)

	w, body := f.do(t, call{
		method: http.MethodPost,
		path:   "/api/v1/goods-receipts",
		token:  employee,
		body: map[string]any{
			"supplierId": f.supplier,
			"lines": []map[string]any{
				{"productId": "0195a3f0-0000-7000-8000-000000000001", "quantity": "1", "unitPrice": "3"},
			},
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
}

func TestRouter_SupplierWebhook(t *testing.T) {
	f := newAPIFixture(t)
	employee := f.token(t, "7", security.RoleEmployee)
	manager := f.token(t, "20", security.RoleManager)

	docID := f.createDraft(t, employee)
	base := "/api/v1/goods-receipts/" + docID
	hook := "/webhooks/supplier-confirmations/" + docID

	w, body := f.do(t, call{method: http.MethodPost, path: hook, body: map[string]any{"reference": "ACME-1"},
		headers: map[string]string{middleware.HeaderWebhookSecret: webhookSecret}})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_STATE", body["code"])

	_, _ = f.do(t, call{method: http.MethodPost, path: base + "/submit", token: employee})
	_, _ = f.do(t, call{method: http.MethodPost, path: base + "/approve-reject", token: manager,
		body: map[string]any{"action": "Approve"}})

	w, _ = f.do(t, call{method: http.MethodPost, path: hook, body: map[string]any{"reference": "ACME-1"},
		headers: map[string]string{middleware.HeaderWebhookSecret: "wrong"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body = f.do(t, call{method: http.MethodPost, path: hook, body: map[string]any{"reference": "ACME-1"},
		headers: map[string]string{middleware.HeaderWebhookSecret: webhookSecret}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "SupplierConfirmed", body["status"])

	w, body = f.do(t, call{method: http.MethodPost, path: base + "/complete", token: manager})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Completed", body["status"])

	w, body = f.do(t, call{method: http.MethodGet, path: "/api/v1/products/" + f.product + "/stock", token: employee})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "4", body["quantity"])
	assert.Len(t, body["movements"], 1)
}

func TestRouter_Directories(t *testing.T) {
	f := newAPIFixture(t)
	employee := f.token(t, "7", security.RoleEmployee)
	admin := f.token(t, "1", security.RoleAdmin)

	req := map[string]any{"code": "P-002", "name": "Nut"}

	w, body := f.do(t, call{method: http.MethodPost, path: "/api/v1/products", token: employee, body: req})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", body["code"])

	w, body = f.do(t, call{method: http.MethodPost, path: "/api/v1/products", token: admin, body: req})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "pcs", body["unit"])

	w, body = f.do(t, call{method: http.MethodPost, path: "/api/v1/products", token: admin, body: req})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DUPLICATE_ENTRY", body["code"])

	w, body = f.do(t, call{method: http.MethodGet, path: "/api/v1/suppliers", token: employee})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["totalCount"])
}
