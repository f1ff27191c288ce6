package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/lumina_shop/internal/contact"
	"github.com/Skotchmaster/lumina_shop/pkg/logging"
)

type ContactHTTP struct {
	Svc *contact.Service
}

func (h *ContactHTTP) Send(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "contact.send")

	var m contact.Message
	if err := c.Bind(&m); err != nil {
		l.Warn("contact_send_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	id, err := h.Svc.Send(ctx, m)
	if err != nil {
		return fail(l, "contact_send_error", err)
	}
	return c.JSON(http.StatusAccepted, map[string]string{
		"id":      id,
		"message": "Message sent successfully! We'll get back to you soon.",
	})
}
