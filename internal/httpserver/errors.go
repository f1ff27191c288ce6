package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/lumina_shop/internal/apiclient"
	"github.com/Skotchmaster/lumina_shop/internal/catalog"
	"github.com/Skotchmaster/lumina_shop/internal/checkout"
	"github.com/Skotchmaster/lumina_shop/internal/contact"
	"github.com/Skotchmaster/lumina_shop/internal/newsletter"
	"github.com/Skotchmaster/lumina_shop/internal/order"
	"github.com/Skotchmaster/lumina_shop/internal/review"
	"github.com/Skotchmaster/lumina_shop/internal/search"
	"github.com/Skotchmaster/lumina_shop/pkg/middleware/visitor"
)

var errBadRequest = errors.New("bad request")

func statusOf(err error) int {
	var apiErr *apiclient.APIError
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, catalog.ErrValidation),
		errors.Is(err, review.ErrValidation),
		errors.Is(err, checkout.ErrValidation),
		errors.Is(err, order.ErrValidation),
		errors.Is(err, newsletter.ErrValidation),
		errors.Is(err, contact.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, visitor.ErrNoVisitor):
		return http.StatusUnauthorized
	case errors.Is(err, checkout.ErrPaymentDeclined):
		return http.StatusPaymentRequired
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, order.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, newsletter.ErrConflict),
		errors.Is(err, order.ErrConflict),
		errors.Is(err, checkout.ErrInvalidTransition),
		errors.Is(err, checkout.ErrEmptyCart):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, contact.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &apiErr),
		errors.Is(err, apiclient.ErrSessionExpired),
		errors.Is(err, search.ErrBackend):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func messageOf(status int, err error) any {
	var fe *checkout.FormError
	if errors.As(err, &fe) {
		return map[string]any{"message": fe.Error(), "missing": fe.Missing, "invalid": fe.Invalid}
	}
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	switch status {
	case http.StatusInternalServerError:
		return "internal server error"
	case http.StatusGatewayTimeout:
		return "request timed out"
	case http.StatusBadGateway:
		return "upstream unavailable"
	}
	return err.Error()
}

// fail logs err under event and converts it to the matching HTTP error.
func fail(l *slog.Logger, event string, err error) error {
	status := statusOf(err)
	if status >= 500 {
		l.Error(event, "status", status, "error", err)
	} else {
		l.Warn(event, "status", status, "error", err)
	}
	return echo.NewHTTPError(status, messageOf(status, err))
}
