package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/lumina_shop/internal/checkout"
	"github.com/Skotchmaster/lumina_shop/pkg/logging"
	"github.com/Skotchmaster/lumina_shop/pkg/middleware/visitor"
)

type CheckoutHTTP struct {
	Sessions *checkout.Sessions
}

func (h *CheckoutHTTP) controller(c echo.Context) (*checkout.Controller, error) {
	id, err := visitor.ID(c)
	if err != nil {
		return nil, err
	}
	return h.Sessions.For(c.Request().Context(), id.String()), nil
}

func (h *CheckoutHTTP) View(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "checkout.view")

	ctl, err := h.controller(c)
	if err != nil {
		return fail(l, "checkout_view_error", err)
	}
	return c.JSON(http.StatusOK, ctl.View())
}

func (h *CheckoutHTTP) SubmitShipping(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "checkout.shipping")

	ctl, err := h.controller(c)
	if err != nil {
		return fail(l, "checkout_shipping_error", err)
	}

	var s checkout.Shipping
	if err := c.Bind(&s); err != nil {
		l.Warn("checkout_shipping_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}
	if err := ctl.SubmitShipping(s); err != nil {
		return fail(l, "checkout_shipping_error", err)
	}
	return c.JSON(http.StatusOK, ctl.View())
}

func (h *CheckoutHTTP) Back(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "checkout.back")

	ctl, err := h.controller(c)
	if err != nil {
		return fail(l, "checkout_back_error", err)
	}
	if err := ctl.Back(); err != nil {
		return fail(l, "checkout_back_error", err)
	}
	return c.JSON(http.StatusOK, ctl.View())
}

// SubmitPayment blocks until the charge and order placement finish or the
// controller's timeout fires.
func (h *CheckoutHTTP) SubmitPayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.payment")

	ctl, err := h.controller(c)
	if err != nil {
		return fail(l, "checkout_payment_error", err)
	}

	var p checkout.Payment
	if err := c.Bind(&p); err != nil {
		l.Warn("checkout_payment_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	conf, err := ctl.SubmitPayment(ctx, p)
	if err != nil {
		return fail(l, "checkout_payment_error", err)
	}

	l.Info("order placed", "order", conf.OrderNumber)
	return c.JSON(http.StatusCreated, ctl.View())
}

func (h *CheckoutHTTP) Reset(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "checkout.reset")

	ctl, err := h.controller(c)
	if err != nil {
		return fail(l, "checkout_reset_error", err)
	}
	if err := ctl.Reset(); err != nil {
		return fail(l, "checkout_reset_error", err)
	}
	return c.JSON(http.StatusOK, ctl.View())
}
