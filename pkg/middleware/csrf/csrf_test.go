package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, cfg Config, req *http.Request) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	h := Middleware(cfg)(func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	return rec, h(c)
}

func TestSafeMethodIssuesToken(t *testing.T) {
	rec, err := serve(t, Config{}, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	require.NoError(t, err)

	token := rec.Header().Get("X-CSRF-Token")
	require.NotEmpty(t, token)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, token, cookies[0].Value)
}

func TestMutationNeedsMatchingHeader(t *testing.T) {
	cfg := Config{EnforceSameOrigin: false}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", nil)
	req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "abc"})
	_, err := serve(t, cfg, req)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusForbidden, he.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", nil)
	req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "abc"})
	req.Header.Set("X-CSRF-Token", "abc")
	rec, err := serve(t, cfg, req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSameOriginEnforced(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "http://shop.local/api/v1/cart/items", nil)
	req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "abc"})
	req.Header.Set("X-CSRF-Token", "abc")
	req.Header.Set("Origin", "http://evil.local")

	_, err := serve(t, DefaultConfig(), req)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, "invalid origin", he.Message)

	req.Header.Set("Origin", "http://shop.local")
	_, err = serve(t, DefaultConfig(), req)
	assert.NoError(t, err)
}

func TestSkipPrefixes(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/health/ready", nil)
	rec, err := serve(t, Config{SkipPrefixes: []string{"/health"}}, req)
	require.NoError(t, err)
	assert.Empty(t, rec.Result().Cookies())
}
