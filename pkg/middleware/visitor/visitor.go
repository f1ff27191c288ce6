// Package visitor identifies anonymous storefront visitors through a signed
// cookie so carts and checkouts survive across requests and restarts.
package visitor

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/lumina_shop/pkg/logging"
	"github.com/Skotchmaster/lumina_shop/pkg/tokens"
)

const (
	CookieName = "visitorToken"
	contextKey = "visitor_id"
)

var ErrNoVisitor = errors.New("visitor id missing")

type Middleware struct {
	Secret []byte
	Secure bool
	Now    func() time.Time
}

func New(secret []byte, secure bool) *Middleware {
	return &Middleware{Secret: secret, Secure: secure, Now: time.Now}
}

func (m *Middleware) Handle(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if ck, err := c.Cookie(CookieName); err == nil && ck.Value != "" {
			id, err := tokens.VisitorFromToken(ck.Value, m.Secret)
			if err == nil {
				c.Set(contextKey, id)
				return next(c)
			}
			logging.FromContext(c.Request().Context()).Debug("visitor_token_rejected", "error", err)
		}

		id := uuid.New()
		tok, exp, err := tokens.SignVisitor(id, m.Secret, m.Now())
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to create visitor session")
		}
		c.SetCookie(&http.Cookie{
			Name:     CookieName,
			Value:    tok,
			Path:     "/",
			Expires:  exp,
			HttpOnly: true,
			Secure:   m.Secure,
			SameSite: http.SameSiteLaxMode,
		})
		c.Set(contextKey, id)
		return next(c)
	}
}

func ID(c echo.Context) (uuid.UUID, error) {
	id, ok := c.Get(contextKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, ErrNoVisitor
	}
	return id, nil
}

// Set is used by tests that call handlers directly.
func Set(c echo.Context, id uuid.UUID) {
	c.Set(contextKey, id)
}
