package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/lumina_shop/pkg/logging"
	"github.com/Skotchmaster/lumina_shop/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/lumina_shop/pkg/middleware/logging"
	"github.com/Skotchmaster/lumina_shop/pkg/middleware/visitor"
)

type Deps struct {
	Shop     *ShopHTTP
	Blog     *BlogHTTP
	Cart     *CartHTTP
	Checkout *CheckoutHTTP
	Orders   *OrderHTTP
	Contact  *ContactHTTP
	// Auth proxies /api/v1/auth/* to the REST backend when set.
	Auth echo.HandlerFunc

	Visitor *visitor.Middleware
	// CSRF is nil when protection is disabled.
	CSRF *csrf.Config

	// Ready reports whether backing stores answer.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				logging.FromContext(c.Request().Context()).Error("readiness_error", "status", 503, "error", err)
				return c.JSON(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	})

	v1 := e.Group("/api/v1", d.Visitor.Handle)
	if d.CSRF != nil {
		v1.Use(csrf.Middleware(*d.CSRF))
	}

	shop := v1.Group("/shop")
	shop.GET("/categories", d.Shop.Categories)
	shop.GET("/products", d.Shop.Products)
	shop.GET("/products/featured", d.Shop.Featured)
	shop.GET("/products/:slug", d.Shop.Product)
	shop.GET("/products/:slug/reviews", d.Shop.ListReviews)
	shop.POST("/products/:slug/reviews", d.Shop.CreateReview)

	blog := v1.Group("/blog")
	blog.GET("/categories", d.Blog.Categories)
	blog.GET("/posts", d.Blog.Posts)
	blog.GET("/posts/featured", d.Blog.Featured)
	blog.GET("/posts/:slug", d.Blog.Post)
	blog.GET("/posts/:slug/comments", d.Blog.ListComments)
	blog.POST("/posts/:slug/comments", d.Blog.CreateComment)
	blog.POST("/newsletter/subscribe", d.Blog.Subscribe)

	cart := v1.Group("/cart")
	cart.GET("", d.Cart.GetCart)
	cart.POST("/items", d.Cart.AddToCart)
	cart.PATCH("/items/:id", d.Cart.SetQuantity)
	cart.DELETE("/items/:id", d.Cart.RemoveFromCart)
	cart.DELETE("", d.Cart.ClearCart)

	co := v1.Group("/checkout")
	co.GET("", d.Checkout.View)
	co.POST("/shipping", d.Checkout.SubmitShipping)
	co.POST("/back", d.Checkout.Back)
	co.POST("/payment", d.Checkout.SubmitPayment)
	co.POST("/reset", d.Checkout.Reset)

	orders := v1.Group("/orders")
	orders.GET("", d.Orders.MyOrders)
	orders.GET("/:number", d.Orders.GetOrder)

	v1.POST("/contact", d.Contact.Send)

	if d.Auth != nil {
		v1.Any("/auth/*", d.Auth)
	}
}

// NewEcho returns an echo instance with the shared middleware stack.
func NewEcho(base *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 30 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.RequestID())
	e.Use(loggingmw.RequestLogger(base))
	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowCredentials: true,
		AllowHeaders:     []string{echo.HeaderContentType, "X-CSRF-Token"},
	}))
	return e
}
