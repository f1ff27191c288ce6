package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/lumina_shop/internal/cart"
	"github.com/Skotchmaster/lumina_shop/internal/catalog"
	"github.com/Skotchmaster/lumina_shop/internal/checkout"
	"github.com/Skotchmaster/lumina_shop/internal/contact"
	"github.com/Skotchmaster/lumina_shop/internal/newsletter"
	"github.com/Skotchmaster/lumina_shop/internal/order"
	"github.com/Skotchmaster/lumina_shop/internal/review"
	"github.com/Skotchmaster/lumina_shop/pkg/db"
	"github.com/Skotchmaster/lumina_shop/pkg/events"
	"github.com/Skotchmaster/lumina_shop/pkg/logging"
	"github.com/Skotchmaster/lumina_shop/pkg/middleware/visitor"
	"github.com/Skotchmaster/lumina_shop/pkg/storage"
)

type env struct {
	e       *echo.Echo
	catalog *catalog.Store
	pub     *events.Memory
	cookies []*http.Cookie
}

func setup(t *testing.T) *env {
	t.Helper()

	seed, err := catalog.DefaultSeed()
	require.NoError(t, err)
	store, err := catalog.NewStoreFromSeed(seed)
	require.NoError(t, err)

	gdb, err := db.OpenTest(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(gdb) })

	repo := &order.GormRepo{DB: gdb}
	require.NoError(t, repo.Migrate())
	news := &newsletter.Service{DB: gdb}
	require.NoError(t, news.Migrate())

	pub := events.NewMemory()
	orders := order.NewService(repo, pub, nil)
	carts := cart.NewRegistry(storage.NewMemory())

	sessions := checkout.NewSessions(func(ctx context.Context, visitorID string) *checkout.Controller {
		return checkout.New(carts.For(ctx, visitorID), orders.PlacerFor(visitorID),
			checkout.WithGateway(checkout.NewSimulatedGateway(0)))
	})

	e := NewEcho(logging.Discard())
	Register(e, &Deps{
		Shop:     &ShopHTTP{Catalog: store, Reviews: review.New(review.KindReview)},
		Blog:     &BlogHTTP{Catalog: store, Comments: review.New(review.KindComment), Newsletter: news},
		Cart:     &CartHTTP{Carts: carts, Catalog: store},
		Checkout: &CheckoutHTTP{Sessions: sessions},
		Orders:   &OrderHTTP{Orders: orders},
		Contact:  &ContactHTTP{Svc: contact.New(pub, 0, nil)},
		Visitor:  visitor.New([]byte("test-secret"), false),
	})
	return &env{e: e, catalog: store, pub: pub}
}

// do sends a request as the same visitor across calls.
func (v *env) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, strings.NewReader(string(raw)))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, ck := range v.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	v.e.ServeHTTP(rec, req)
	if cks := rec.Result().Cookies(); len(cks) > 0 {
		v.cookies = cks
	}
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type page struct {
	Count    int               `json:"count"`
	Next     *string           `json:"next"`
	Previous *string           `json:"previous"`
	Results  []json.RawMessage `json:"results"`
}

func TestHealth(t *testing.T) {
	v := setup(t)
	assert.Equal(t, http.StatusOK, v.do(t, http.MethodGet, "/health/live", nil).Code)
	assert.Equal(t, http.StatusOK, v.do(t, http.MethodGet, "/health/ready", nil).Code)
}

func TestProductListing(t *testing.T) {
	v := setup(t)

	rec := v.do(t, http.MethodGet, "/api/v1/shop/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[page](t, rec)
	assert.Equal(t, 6, p.Count)
	assert.Len(t, p.Results, 6)
	assert.Nil(t, p.Next)
	assert.Nil(t, p.Previous)

	rec = v.do(t, http.MethodGet, "/api/v1/shop/products?category=kitchen&ordering=-price", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p = decode[page](t, rec)
	assert.Equal(t, 2, p.Count)

	rec = v.do(t, http.MethodGet, "/api/v1/shop/products?min_price=100&max_price=10", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = v.do(t, http.MethodGet, "/api/v1/shop/products?min_price=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductDetailAndReviews(t *testing.T) {
	v := setup(t)
	p, err := v.catalog.Product(1)
	require.NoError(t, err)

	rec := v.do(t, http.MethodGet, "/api/v1/shop/products/"+p.Slug, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusNotFound, v.do(t, http.MethodGet, "/api/v1/shop/products/nope", nil).Code)

	rec = v.do(t, http.MethodPost, "/api/v1/shop/products/"+p.Slug+"/reviews",
		map[string]any{"author": "Jo Park", "rating": 5, "content": "Lovely"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = v.do(t, http.MethodPost, "/api/v1/shop/products/"+p.Slug+"/reviews",
		map[string]any{"author": "Jo Park", "rating": 9, "content": "Too good"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = v.do(t, http.MethodGet, "/api/v1/shop/products/"+p.Slug+"/reviews", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]review.Entry](t, rec)
	require.Len(t, entries, 1)
	assert.Equal(t, "JP", entries[0].Avatar)
}

func TestBlogPostCountsViewsAndTakesComments(t *testing.T) {
	v := setup(t)
	post := v.catalog.AllPosts()[0]

	for want := int64(1); want <= 2; want++ {
		rec := v.do(t, http.MethodGet, "/api/v1/blog/posts/"+post.Slug, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, want, decode[postDetail](t, rec).Views)
	}

	rec := v.do(t, http.MethodPost, "/api/v1/blog/posts/"+post.Slug+"/comments",
		map[string]string{"author": "Ana", "email": "ana@example.com", "content": "Great read"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = v.do(t, http.MethodPost, "/api/v1/blog/posts/"+post.Slug+"/comments",
		map[string]string{"author": "Ana", "email": "bad", "content": "Great read"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNewsletterConflict(t *testing.T) {
	v := setup(t)
	body := map[string]string{"email": "reader@example.com"}
	assert.Equal(t, http.StatusCreated, v.do(t, http.MethodPost, "/api/v1/blog/newsletter/subscribe", body).Code)
	assert.Equal(t, http.StatusConflict, v.do(t, http.MethodPost, "/api/v1/blog/newsletter/subscribe", body).Code)
}

func TestCartIsPerVisitor(t *testing.T) {
	v := setup(t)

	rec := v.do(t, http.MethodPost, "/api/v1/cart/items", map[string]int{"productId": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = v.do(t, http.MethodPost, "/api/v1/cart/items", map[string]int{"productId": 1, "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code)

	view := decode[cartView](t, rec)
	assert.Equal(t, 3, view.Count)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.Items[0].Quantity)

	rec = v.do(t, http.MethodPatch, "/api/v1/cart/items/1", map[string]int{"quantity": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"items":[]`)

	assert.Equal(t, http.StatusNotFound, v.do(t, http.MethodPost, "/api/v1/cart/items", map[string]int{"productId": 999}).Code)
	assert.Equal(t, http.StatusBadRequest, v.do(t, http.MethodPost, "/api/v1/cart/items", map[string]int{"productId": 1, "quantity": 500}).Code)

	for i := 0; i < 3; i++ {
		rec = v.do(t, http.MethodPost, "/api/v1/cart/items", map[string]int{"productId": 3, "quantity": 40})
		require.Equal(t, http.StatusOK, rec.Code)
	}
	view = decode[cartView](t, rec)
	require.Len(t, view.Items, 1)
	assert.Equal(t, cart.MaxQuantity, view.Items[0].Quantity)
	require.Equal(t, http.StatusOK, v.do(t, http.MethodDelete, "/api/v1/cart", nil).Code)

	other := &env{e: v.e}
	rec = other.do(t, http.MethodPost, "/api/v1/cart/items", map[string]int{"productId": 2})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = v.do(t, http.MethodGet, "/api/v1/cart", nil)
	assert.Contains(t, rec.Body.String(), `"count":0`)
}

func TestCheckoutFlow(t *testing.T) {
	v := setup(t)

	rec := v.do(t, http.MethodGet, "/api/v1/checkout", nil)
	assert.Contains(t, rec.Body.String(), string(checkout.StateEmptyCart))

	require.Equal(t, http.StatusOK, v.do(t, http.MethodPost, "/api/v1/cart/items", map[string]int{"productId": 2}).Code)

	rec = v.do(t, http.MethodPost, "/api/v1/checkout/payment", map[string]string{"cardNumber": "4242424242424242"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = v.do(t, http.MethodPost, "/api/v1/checkout/shipping", map[string]string{"firstName": "Ada"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "lastName")

	rec = v.do(t, http.MethodPost, "/api/v1/checkout/shipping", map[string]string{
		"firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com", "phone": "555",
		"address": "1 Way", "city": "London", "state": "LDN", "zip": "10001",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), string(checkout.StateCollectingPayment))

	rec = v.do(t, http.MethodPost, "/api/v1/checkout/payment", map[string]string{
		"cardNumber": checkout.DeclinedTestCard, "cardName": "Ada", "expiry": "12/30", "cvv": "123",
	})
	require.Equal(t, http.StatusPaymentRequired, rec.Code)
	rec = v.do(t, http.MethodGet, "/api/v1/checkout", nil)
	view := decode[checkout.View](t, rec)
	assert.Equal(t, checkout.StateCollectingPayment, view.State)
	assert.NotEmpty(t, view.LastError)

	rec = v.do(t, http.MethodPost, "/api/v1/checkout/payment", map[string]string{
		"cardNumber": "4242424242424242", "cardName": "Ada", "expiry": "12/30", "cvv": "123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	view = decode[checkout.View](t, rec)
	assert.Equal(t, checkout.StateComplete, view.State)
	require.NotNil(t, view.Order)
	number := view.Order.OrderNumber

	rec = v.do(t, http.MethodGet, "/api/v1/cart", nil)
	assert.Contains(t, rec.Body.String(), `"count":0`)

	rec = v.do(t, http.MethodGet, "/api/v1/orders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[page](t, rec).Count)

	rec = v.do(t, http.MethodGet, "/api/v1/orders/"+number, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), number)

	assert.Contains(t, rec.Body.String(), `"total":"`+view.Order.Totals.Total.StringFixed(2)+`"`)

	stranger := &env{e: v.e}
	rec = stranger.do(t, http.MethodGet, "/api/v1/orders?email=ada@example.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[page](t, rec).Count)
	assert.NotContains(t, rec.Body.String(), "Lovelace")
	assert.Equal(t, http.StatusNotFound, stranger.do(t, http.MethodGet, "/api/v1/orders/"+number, nil).Code)

	rec = v.do(t, http.MethodGet, "/api/v1/orders?email=ada@example.com", nil)
	assert.Equal(t, 1, decode[page](t, rec).Count)

	assert.Len(t, v.pub.Messages(events.TopicOrder), 1)
	assert.Equal(t, http.StatusOK, v.do(t, http.MethodPost, "/api/v1/checkout/reset", nil).Code)
	assert.Equal(t, http.StatusNotFound, v.do(t, http.MethodGet, "/api/v1/orders/LM-00000000", nil).Code)
}

func TestContact(t *testing.T) {
	v := setup(t)

	rec := v.do(t, http.MethodPost, "/api/v1/contact", map[string]string{
		"name": "Ada", "email": "ada@example.com", "subject": "Hi", "message": "Hello",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Len(t, v.pub.Messages(events.TopicContact), 1)

	rec = v.do(t, http.MethodPost, "/api/v1/contact", map[string]string{"name": "Ada"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
