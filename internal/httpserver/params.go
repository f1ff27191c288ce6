package httpserver

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/lumina_shop/internal/util"
)

func pageParam(c echo.Context) int {
	return util.ParseIntDefault(c.QueryParam("page"), 1)
}

func decimalParam(c echo.Context, name string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return nil, fmt.Errorf("%w: %s must be a non-negative number", errBadRequest, name)
	}
	return &d, nil
}

func boolParam(c echo.Context, name string) bool {
	b, _ := strconv.ParseBool(c.QueryParam(name))
	return b
}

func intParam(c echo.Context, name string) (int, error) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", errBadRequest, name)
	}
	return v, nil
}

// firstQuery returns the first non-empty query parameter among names.
func firstQuery(c echo.Context, names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(c.QueryParam(n)); v != "" {
			return v
		}
	}
	return ""
}

func selfURL(c echo.Context) *url.URL {
	r := c.Request()
	u := *r.URL
	u.Scheme = c.Scheme()
	u.Host = r.Host
	return &u
}
