package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/lumina_shop/internal/catalog"
	"github.com/Skotchmaster/lumina_shop/internal/newsletter"
	"github.com/Skotchmaster/lumina_shop/internal/review"
	"github.com/Skotchmaster/lumina_shop/internal/search"
	"github.com/Skotchmaster/lumina_shop/internal/util"
	"github.com/Skotchmaster/lumina_shop/pkg/logging"
)

type BlogHTTP struct {
	Catalog    *catalog.Store
	Comments   *review.Aggregator
	Newsletter *newsletter.Service
	Searcher   Searcher
}

type postDetail struct {
	Post     catalog.Post   `json:"post"`
	Views    int64          `json:"views"`
	Comments []review.Entry `json:"comments"`
	Related  []catalog.Post `json:"related"`
}

type commentRequest struct {
	Author  string `json:"author"`
	Email   string `json:"email"`
	Content string `json:"content"`
}

func (h *BlogHTTP) Categories(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Catalog.BlogCategories())
}

func (h *BlogHTTP) Posts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "list.posts")

	f := catalog.PostFilter{
		CategorySlug: firstQuery(c, "category", "category_slug"),
		Ordering:     c.QueryParam("ordering"),
	}
	if q := firstQuery(c, "search", "q"); q != "" {
		f.Search = q
		if h.Searcher != nil {
			ids, err := h.Searcher.Search(ctx, search.KindPost, q, searchSize)
			if err != nil {
				l.Warn("search_fallback", "reason", "search backend failed, using substring match", "error", err)
			} else {
				f.IDs = ids
			}
		}
	}

	posts := h.Catalog.Posts(f)
	return c.JSON(http.StatusOK, util.Paginate(posts, pageParam(c), util.DefaultPageSize, selfURL(c)))
}

func (h *BlogHTTP) Featured(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Catalog.FeaturedPosts(util.ParseIntDefault(c.QueryParam("limit"), 0)))
}

// Post counts a view on every read.
func (h *BlogHTTP) Post(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "get.post")

	p, err := h.Catalog.PostBySlug(c.Param("slug"))
	if err != nil {
		return fail(l, "get_post_error", err)
	}
	views, err := h.Catalog.RecordView(p.Slug)
	if err != nil {
		return fail(l, "get_post_error", err)
	}
	return c.JSON(http.StatusOK, postDetail{
		Post:     p,
		Views:    views,
		Comments: h.Comments.ListFor(p.ID),
		Related:  h.Catalog.RelatedPosts(p, catalog.DefaultRelated),
	})
}

func (h *BlogHTTP) ListComments(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "list.comments")

	p, err := h.Catalog.PostBySlug(c.Param("slug"))
	if err != nil {
		return fail(l, "list_comments_error", err)
	}
	return c.JSON(http.StatusOK, h.Comments.ListFor(p.ID))
}

func (h *BlogHTTP) CreateComment(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "create.comment")

	p, err := h.Catalog.PostBySlug(c.Param("slug"))
	if err != nil {
		return fail(l, "create_comment_error", err)
	}

	var req commentRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_comment_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	e, err := h.Comments.Submit(p.ID, review.Submission{Author: req.Author, Email: req.Email, Body: req.Content})
	if err != nil {
		return fail(l, "create_comment_error", err)
	}

	l.Info("comment created", "post", p.ID, "comment", e.ID)
	return c.JSON(http.StatusCreated, e)
}

func (h *BlogHTTP) Subscribe(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "newsletter.subscribe")

	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("newsletter_subscribe_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	sub, err := h.Newsletter.Subscribe(ctx, req.Email)
	if err != nil {
		return fail(l, "newsletter_subscribe_error", err)
	}
	return c.JSON(http.StatusCreated, sub)
}
