package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/lumina_shop/internal/catalog"
	"github.com/Skotchmaster/lumina_shop/internal/review"
	"github.com/Skotchmaster/lumina_shop/internal/search"
	"github.com/Skotchmaster/lumina_shop/internal/util"
	"github.com/Skotchmaster/lumina_shop/pkg/logging"
)

// Searcher ranks catalog ids for free-text queries.
type Searcher interface {
	Search(ctx context.Context, kind search.Kind, query string, size int) ([]int, error)
}

const searchSize = 100

type ShopHTTP struct {
	Catalog  *catalog.Store
	Reviews  *review.Aggregator
	Searcher Searcher
}

type productDetail struct {
	Product catalog.Product   `json:"product"`
	Reviews []review.Entry    `json:"reviews"`
	Summary review.Summary    `json:"summary"`
	Related []catalog.Product `json:"related"`
}

type reviewRequest struct {
	Author  string `json:"author"`
	Email   string `json:"email"`
	Rating  int    `json:"rating"`
	Content string `json:"content"`
}

func (h *ShopHTTP) Categories(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Catalog.Categories())
}

func (h *ShopHTTP) Products(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "list.products")

	f := catalog.ProductFilter{
		CategorySlug: firstQuery(c, "category", "category_slug"),
		InStockOnly:  boolParam(c, "in_stock"),
		Ordering:     c.QueryParam("ordering"),
	}
	var err error
	if f.MinPrice, err = decimalParam(c, "min_price"); err != nil {
		return fail(l, "list_products_error", err)
	}
	if f.MaxPrice, err = decimalParam(c, "max_price"); err != nil {
		return fail(l, "list_products_error", err)
	}

	if q := firstQuery(c, "search", "q"); q != "" {
		f.Search = q
		if h.Searcher != nil {
			ids, err := h.Searcher.Search(ctx, search.KindProduct, q, searchSize)
			if err != nil {
				l.Warn("search_fallback", "reason", "search backend failed, using substring match", "error", err)
			} else {
				f.IDs = ids
			}
		}
	}

	products, err := h.Catalog.Products(f)
	if err != nil {
		return fail(l, "list_products_error", err)
	}
	return c.JSON(http.StatusOK, util.Paginate(products, pageParam(c), util.DefaultPageSize, selfURL(c)))
}

func (h *ShopHTTP) Featured(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Catalog.FeaturedProducts(util.ParseIntDefault(c.QueryParam("limit"), 0)))
}

func (h *ShopHTTP) Product(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "get.product")

	p, err := h.Catalog.ProductBySlug(c.Param("slug"))
	if err != nil {
		return fail(l, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, productDetail{
		Product: p,
		Reviews: h.Reviews.ListFor(p.ID),
		Summary: h.Reviews.Summary(p.ID),
		Related: h.Catalog.RelatedProducts(p, catalog.DefaultRelated),
	})
}

func (h *ShopHTTP) ListReviews(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "list.reviews")

	p, err := h.Catalog.ProductBySlug(c.Param("slug"))
	if err != nil {
		return fail(l, "list_reviews_error", err)
	}
	return c.JSON(http.StatusOK, h.Reviews.ListFor(p.ID))
}

func (h *ShopHTTP) CreateReview(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "create.review")

	p, err := h.Catalog.ProductBySlug(c.Param("slug"))
	if err != nil {
		return fail(l, "create_review_error", err)
	}

	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_review_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	e, err := h.Reviews.Submit(p.ID, review.Submission{
		Author: req.Author,
		Email:  req.Email,
		Body:   req.Content,
		Rating: req.Rating,
	})
	if err != nil {
		return fail(l, "create_review_error", err)
	}

	l.Info("review created", "product", p.ID, "review", e.ID)
	return c.JSON(http.StatusCreated, map[string]any{
		"review":  e,
		"summary": h.Reviews.Summary(p.ID),
	})
}
