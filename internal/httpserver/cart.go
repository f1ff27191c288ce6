package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/lumina_shop/internal/cart"
	"github.com/Skotchmaster/lumina_shop/internal/catalog"
	"github.com/Skotchmaster/lumina_shop/internal/checkout"
	"github.com/Skotchmaster/lumina_shop/pkg/logging"
	"github.com/Skotchmaster/lumina_shop/pkg/middleware/visitor"
)

type CartHTTP struct {
	Carts   *cart.Registry
	Catalog *catalog.Store
}

type cartView struct {
	Items   []cart.Entry    `json:"items"`
	Count   int             `json:"count"`
	Totals  checkout.Totals `json:"totals"`
	Warning string          `json:"warning,omitempty"`
}

func viewOf(ct *cart.Container) cartView {
	items := ct.Entries()
	if items == nil {
		items = []cart.Entry{}
	}
	return cartView{Items: items, Count: ct.Count(), Totals: checkout.ComputeTotals(ct.Total())}
}

func (h *CartHTTP) container(c echo.Context) (*cart.Container, error) {
	id, err := visitor.ID(c)
	if err != nil {
		return nil, err
	}
	return h.Carts.For(c.Request().Context(), id.String()), nil
}

// respond renders the cart after a mutation. A save failure still answers
// with the in-memory cart plus a warning.
func respond(c echo.Context, l *slog.Logger, event string, ct *cart.Container, err error) error {
	v := viewOf(ct)
	if err != nil {
		if !errors.Is(err, cart.ErrPersist) {
			return fail(l, event, err)
		}
		l.Error(event, "status", 200, "reason", "cart not saved", "error", err)
		v.Warning = "Your cart could not be saved."
	}
	return c.JSON(http.StatusOK, v)
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "get.cart")

	ct, err := h.container(c)
	if err != nil {
		return fail(l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, viewOf(ct))
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "add.cart")

	ct, err := h.container(c)
	if err != nil {
		return fail(l, "add_cart_error", err)
	}

	var req struct {
		ProductID int `json:"productId"`
		Quantity  int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("add_cart_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.ProductID <= 0 || req.Quantity < 0 || req.Quantity > cart.MaxQuantity {
		l.Warn("add_cart_error", "status", 400, "reason", "bad product or quantity")
		return c.JSON(http.StatusBadRequest, "productId required and quantity between 1 and 99")
	}

	p, err := h.Catalog.Product(req.ProductID)
	if err != nil {
		return fail(l, "add_cart_error", err)
	}

	return respond(c, l, "add_cart_error", ct, ct.Add(ctx, p, req.Quantity))
}

func (h *CartHTTP) SetQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "set.cart.quantity")

	ct, err := h.container(c)
	if err != nil {
		return fail(l, "set_cart_quantity_error", err)
	}
	id, err := intParam(c, "id")
	if err != nil {
		return fail(l, "set_cart_quantity_error", err)
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil || req.Quantity > cart.MaxQuantity {
		l.Warn("set_cart_quantity_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "quantity between 0 and 99 required")
	}

	return respond(c, l, "set_cart_quantity_error", ct, ct.SetQuantity(ctx, id, req.Quantity))
}

func (h *CartHTTP) RemoveFromCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "delete.one.from.cart")

	ct, err := h.container(c)
	if err != nil {
		return fail(l, "delete_one_from_cart_error", err)
	}
	id, err := intParam(c, "id")
	if err != nil {
		return fail(l, "delete_one_from_cart_error", err)
	}
	return respond(c, l, "delete_one_from_cart_error", ct, ct.RemoveItem(ctx, id))
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "delete.all.from.cart")

	ct, err := h.container(c)
	if err != nil {
		return fail(l, "delete_all_from_cart_error", err)
	}
	return respond(c, l, "delete_all_from_cart_error", ct, ct.Clear(ctx))
}
