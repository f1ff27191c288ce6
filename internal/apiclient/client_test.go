package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/lumina_shop/internal/checkout"
	"github.com/Skotchmaster/lumina_shop/pkg/storage"
)

func newClient(t *testing.T, h http.Handler) (*Client, *TokenStore) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	tokens := NewTokenStore(storage.NewMemory())
	return New(srv.URL+"/", tokens, WithHTTPClient(srv.Client())), tokens
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestProductsPageAndQuery(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /shop/products/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "decor", r.URL.Query().Get("category_slug"))
		assert.Equal(t, "20", r.URL.Query().Get("min_price"))
		assert.Equal(t, "true", r.URL.Query().Get("in_stock"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		next := "http://x/shop/products/?page=3"
		writeJSON(w, 200, map[string]any{
			"count":    25,
			"next":     next,
			"previous": nil,
			"results":  []map[string]any{{"id": 1, "name": "Vase", "slug": "vase", "price": "89.00"}},
		})
	})
	c, _ := newClient(t, mux)

	lo := decimal.NewFromInt(20)
	page, err := c.Products(context.Background(), ProductQuery{CategorySlug: "decor", MinPrice: &lo, InStock: true, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 25, page.Count)
	require.NotNil(t, page.Next)
	assert.Nil(t, page.Previous)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "89", page.Results[0].Price.String())
}

func TestBearerRefreshAndRetryOnce(t *testing.T) {
	var profileCalls, refreshCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/profile/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&profileCalls, 1)
		if r.Header.Get("Authorization") != "Bearer fresh" {
			writeJSON(w, 401, map[string]string{"detail": "token expired"})
			return
		}
		writeJSON(w, 200, map[string]any{"id": 7, "email": "ada@example.com"})
	})
	mux.HandleFunc("POST /auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "r1", in["refresh"])
		writeJSON(w, 200, map[string]string{"access": "fresh"})
	})
	c, tokens := newClient(t, mux)
	ctx := context.Background()
	require.NoError(t, tokens.Save(ctx, "stale", "r1"))

	u, err := c.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, u.ID)
	assert.Equal(t, int32(2), atomic.LoadInt32(&profileCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))

	access, _ := tokens.Access(ctx)
	assert.Equal(t, "fresh", access)
}

func TestRetryStillUnauthorizedIsNotRefreshedAgain(t *testing.T) {
	var refreshCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders/my-orders/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 401, map[string]string{"detail": "nope"})
	})
	mux.HandleFunc("POST /auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		writeJSON(w, 200, map[string]string{"access": "a2"})
	})
	c, tokens := newClient(t, mux)
	require.NoError(t, tokens.Save(context.Background(), "a1", "r1"))

	_, err := c.MyOrders(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Status)
	assert.Equal(t, "nope", apiErr.Message)
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
}

func TestFailedRefreshClearsTokens(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders/my-orders/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 401, map[string]string{"detail": "expired"})
	})
	mux.HandleFunc("POST /auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 401, map[string]string{"detail": "refresh expired"})
	})
	c, tokens := newClient(t, mux)
	ctx := context.Background()
	require.NoError(t, tokens.Save(ctx, "a1", "r1"))

	_, err := c.MyOrders(ctx)
	assert.ErrorIs(t, err, ErrSessionExpired)

	access, _ := tokens.Access(ctx)
	refresh, _ := tokens.Refresh(ctx)
	assert.Empty(t, access)
	assert.Empty(t, refresh)
}

func TestNoRefreshTokenSurfacesUnauthorized(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/profile/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 401, map[string]string{"detail": "Authentication credentials were not provided."})
	})
	c, _ := newClient(t, mux)

	_, err := c.Profile(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Status)
}

func TestErrorMessages(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"detail", `{"detail":"Not found."}`, "Not found."},
		{"error", `{"error":"bad slug"}`, "bad slug"},
		{"message", `{"message":"try later"}`, "try later"},
		{"fallback", `<html>oops</html>`, fallbackMessage},
		{"empty object", `{}`, fallbackMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(404)
				_, _ = w.Write([]byte(tc.body))
			}))
			_, err := c.Post(context.Background(), "missing")
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, 404, apiErr.Status)
			assert.Equal(t, tc.want, apiErr.Message)
		})
	}
}

func TestLoginStoresTokens(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/token/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]string{"access": "a", "refresh": "r"})
	})
	mux.HandleFunc("GET /auth/profile/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer a", r.Header.Get("Authorization"))
		writeJSON(w, 200, map[string]any{"id": 1, "username": "ada"})
	})
	c, tokens := newClient(t, mux)
	ctx := context.Background()

	u, err := c.Login(ctx, "ada@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "ada", u.Username)

	refresh, _ := tokens.Refresh(ctx)
	assert.Equal(t, "r", refresh)

	require.NoError(t, c.Logout(ctx))
	access, _ := tokens.Access(ctx)
	assert.Empty(t, access)
}

func TestPlaceOrderForwardsDraft(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /orders/create/", func(w http.ResponseWriter, r *http.Request) {
		var in OrderInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "************4242", in.CardNumber)
		assert.Equal(t, "10001", in.ZipCode)
		require.Len(t, in.Items, 1)
		writeJSON(w, 201, map[string]any{"order": map[string]any{"order_number": "LM-1234ABCD"}, "message": "ok"})
	})
	c, _ := newClient(t, mux)

	d := checkout.Draft{
		Shipping:  checkout.Shipping{FirstName: "Ada", LastName: "L", Email: "ada@example.com", Zip: "10001"},
		Items:     []checkout.LineItem{{ProductID: 1, Name: "Vase", Price: decimal.NewFromInt(89), Quantity: 1}},
		Totals:    checkout.ComputeTotals(decimal.NewFromInt(89)),
		CardLast4: "4242",
	}
	conf, err := c.PlaceOrder(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, "LM-1234ABCD", conf.OrderNumber)
	assert.False(t, conf.PlacedAt.IsZero())
}
