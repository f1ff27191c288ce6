package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/lumina_shop/internal/order"
	"github.com/Skotchmaster/lumina_shop/internal/util"
	"github.com/Skotchmaster/lumina_shop/pkg/logging"
	"github.com/Skotchmaster/lumina_shop/pkg/middleware/visitor"
)

type OrderHTTP struct {
	Orders *order.OrderService
}

// MyOrders lists orders placed by the current visitor. An email query
// narrows that list; it never reaches other visitors' orders.
func (h *OrderHTTP) MyOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "list.orders")

	id, err := visitor.ID(c)
	if err != nil {
		return fail(l, "list_orders_error", err)
	}
	page := pageParam(c)
	orders, total, err := h.Orders.ListByVisitor(ctx, id.String(), c.QueryParam("email"), page, util.DefaultPageSize)
	if err != nil {
		return fail(l, "list_orders_error", err)
	}
	if orders == nil {
		orders = []order.Order{}
	}

	out := util.Page[order.Order]{Count: int(total), Results: orders}
	out.Next, out.Previous = util.Links(int(total), page, util.DefaultPageSize, selfURL(c))
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.order")

	id, err := visitor.ID(c)
	if err != nil {
		return fail(l, "get_order_error", err)
	}
	o, err := h.Orders.GetForVisitor(ctx, id.String(), c.Param("number"))
	if err != nil {
		return fail(l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, o)
}
