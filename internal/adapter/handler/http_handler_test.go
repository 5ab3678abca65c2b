package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type httpResult struct {
	status int
	cart   CartResponse
	err    string
}

func do(t *testing.T, h http.Handler, method, path, body string) httpResult {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	res := httpResult{status: rec.Code}
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res.cart))
	} else {
		var payload map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		res.err = payload["error"]
	}
	return res
}

func TestHTTPHandler_AddAndGet(t *testing.T) {
	svc, _ := newCartService(t)
	router := NewHTTPHandler(svc, discard).Router()

	res := do(t, router, http.MethodPost, "/api/cart/items/1", "")
	require.Equal(t, http.StatusOK, res.status)
	res = do(t, router, http.MethodPost, "/api/cart/items/2", "")
	require.Equal(t, http.StatusOK, res.status)
	res = do(t, router, http.MethodPost, "/api/cart/items/1", "")
	require.Equal(t, http.StatusOK, res.status)

	got := do(t, router, http.MethodGet, "/api/cart", "")
	require.Equal(t, http.StatusOK, got.status)
	require.Len(t, got.cart.Items, 2)
	assert.Equal(t, int64(1), got.cart.Items[0].ID)
	assert.Equal(t, 2, got.cart.Items[0].Amount)
	assert.Equal(t, "Boot", got.cart.Items[1].Name)
	assert.Equal(t, 3, got.cart.Quantity)
	assert.InDelta(t, 139.9*2+210, got.cart.Total, 0.0001)
}

func TestHTTPHandler_EmptyCartHasItemsArray(t *testing.T) {
	svc, _ := newCartService(t)
	router := NewHTTPHandler(svc, discard).Router()

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"items":[],"quantity":0,"total":0}`, rec.Body.String())
}

func TestHTTPHandler_Failures(t *testing.T) {
	testCases := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "add beyond stock",
			method:     http.MethodPost,
			path:       "/api/cart/items/1",
			wantStatus: http.StatusConflict,
			wantError:  "Requested amount is out of stock",
		},
		{
			name:       "add unknown product",
			method:     http.MethodPost,
			path:       "/api/cart/items/99",
			wantStatus: http.StatusBadGateway,
			wantError:  "catalog unavailable",
		},
		{
			name:       "remove product not in cart",
			method:     http.MethodDelete,
			path:       "/api/cart/items/2",
			wantStatus: http.StatusNotFound,
			wantError:  "Product is not in the cart",
		},
		{
			name:       "update to zero",
			method:     http.MethodPut,
			path:       "/api/cart/items/1",
			body:       `{"amount":0}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "Amount must be at least 1",
		},
		{
			name:       "update above stock",
			method:     http.MethodPut,
			path:       "/api/cart/items/1",
			body:       `{"amount":3}`,
			wantStatus: http.StatusConflict,
			wantError:  "Requested amount is out of stock",
		},
		{
			name:       "update without amount",
			method:     http.MethodPut,
			path:       "/api/cart/items/1",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "field Amount is required",
		},
		{
			name:       "update with malformed body",
			method:     http.MethodPut,
			path:       "/api/cart/items/1",
			body:       `{"amount":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
		{
			name:       "invalid id",
			method:     http.MethodPost,
			path:       "/api/cart/items/abc",
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid product ID: abc",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given a cart holding product 1 at its full stock of 2
			svc, _ := newCartService(t)
			router := NewHTTPHandler(svc, discard).Router()
			require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/cart/items/1", "").status)
			require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/cart/items/1", "").status)
			before := svc.Cart()

			// when
			res := do(t, router, tc.method, tc.path, tc.body)

			// then
			assert.Equal(t, tc.wantStatus, res.status)
			assert.Equal(t, tc.wantError, res.err)
			assert.Equal(t, before, svc.Cart())
		})
	}
}

func TestHTTPHandler_UpdateAndRemove(t *testing.T) {
	svc, notifier := newCartService(t)
	router := NewHTTPHandler(svc, discard).Router()
	require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/cart/items/2", "").status)

	res := do(t, router, http.MethodPut, "/api/cart/items/2", `{"amount":4}`)
	require.Equal(t, http.StatusOK, res.status)
	require.Len(t, res.cart.Items, 1)
	assert.Equal(t, 4, res.cart.Items[0].Amount)

	res = do(t, router, http.MethodDelete, "/api/cart/items/2", "")
	require.Equal(t, http.StatusOK, res.status)
	assert.Empty(t, res.cart.Items)
	assert.Empty(t, notifier.errors)
}

func TestHTTPHandler_HealthCheck(t *testing.T) {
	svc, _ := newCartService(t)
	router := NewHTTPHandler(svc, discard).Router()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRecoverer(t *testing.T) {
	h := Recoverer(discard)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
