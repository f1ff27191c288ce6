package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Skotchmaster/lumina_shop/internal/util"
)

func (q ProductQuery) values() url.Values {
	v := url.Values{}
	if q.CategorySlug != "" {
		v.Set("category_slug", q.CategorySlug)
	}
	if q.MinPrice != nil {
		v.Set("min_price", q.MinPrice.String())
	}
	if q.MaxPrice != nil {
		v.Set("max_price", q.MaxPrice.String())
	}
	if q.InStock {
		v.Set("in_stock", "true")
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Ordering != "" {
		v.Set("ordering", q.Ordering)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	return v
}

func (q PostQuery) values() url.Values {
	v := url.Values{}
	if q.CategorySlug != "" {
		v.Set("category_slug", q.CategorySlug)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Ordering != "" {
		v.Set("ordering", q.Ordering)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	return v
}

// blog

func (c *Client) BlogCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	return out, c.do(ctx, http.MethodGet, "/blog/categories/", nil, nil, &out)
}

func (c *Client) Posts(ctx context.Context, q PostQuery) (util.Page[Post], error) {
	var out util.Page[Post]
	return out, c.do(ctx, http.MethodGet, "/blog/posts/", q.values(), nil, &out)
}

func (c *Client) FeaturedPosts(ctx context.Context) ([]Post, error) {
	var out []Post
	return out, c.do(ctx, http.MethodGet, "/blog/posts/featured/", nil, nil, &out)
}

func (c *Client) Post(ctx context.Context, slug string) (*Post, error) {
	var out Post
	if err := c.do(ctx, http.MethodGet, "/blog/posts/"+url.PathEscape(slug)+"/", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Comments(ctx context.Context, postSlug string) ([]Comment, error) {
	var out []Comment
	return out, c.do(ctx, http.MethodGet, "/blog/posts/"+url.PathEscape(postSlug)+"/comments/", nil, nil, &out)
}

func (c *Client) CreateComment(ctx context.Context, postSlug string, in NewComment) (*Comment, error) {
	var out Comment
	if err := c.do(ctx, http.MethodPost, "/blog/posts/"+url.PathEscape(postSlug)+"/comments/", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SubscribeNewsletter(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/blog/newsletter/subscribe/", nil, map[string]string{"email": email}, nil)
}

// shop

func (c *Client) ShopCategories(ctx context.Context) ([]ProductCategory, error) {
	var out []ProductCategory
	return out, c.do(ctx, http.MethodGet, "/shop/categories/", nil, nil, &out)
}

func (c *Client) Products(ctx context.Context, q ProductQuery) (util.Page[Product], error) {
	var out util.Page[Product]
	return out, c.do(ctx, http.MethodGet, "/shop/products/", q.values(), nil, &out)
}

func (c *Client) FeaturedProducts(ctx context.Context) ([]Product, error) {
	var out []Product
	return out, c.do(ctx, http.MethodGet, "/shop/products/featured/", nil, nil, &out)
}

func (c *Client) Product(ctx context.Context, slug string) (*Product, error) {
	var out Product
	if err := c.do(ctx, http.MethodGet, "/shop/products/"+url.PathEscape(slug)+"/", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Reviews(ctx context.Context, productSlug string) ([]Review, error) {
	var out []Review
	return out, c.do(ctx, http.MethodGet, "/shop/products/"+url.PathEscape(productSlug)+"/reviews/", nil, nil, &out)
}

func (c *Client) CreateReview(ctx context.Context, productSlug string, in NewReview) (*Review, error) {
	var out Review
	if err := c.do(ctx, http.MethodPost, "/shop/products/"+url.PathEscape(productSlug)+"/reviews/", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// orders

func (c *Client) CreateOrder(ctx context.Context, in OrderInput) (*OrderCreated, error) {
	var out OrderCreated
	if err := c.do(ctx, http.MethodPost, "/orders/create/", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyOrders(ctx context.Context) ([]Order, error) {
	var out []Order
	return out, c.do(ctx, http.MethodGet, "/orders/my-orders/", nil, nil, &out)
}

func (c *Client) Order(ctx context.Context, number string) (*Order, error) {
	var out Order
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(number)+"/", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// auth

// Login obtains a token pair and stores it.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var pair struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	in := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/token/", nil, in, &pair); err != nil {
		return nil, err
	}
	if err := c.tokens.Save(ctx, pair.Access, pair.Refresh); err != nil {
		return nil, err
	}
	return c.Profile(ctx)
}

func (c *Client) Logout(ctx context.Context) error {
	return c.tokens.Clear(ctx)
}

func (c *Client) Register(ctx context.Context, in Registration) (*User, error) {
	var out struct {
		User    User   `json:"user"`
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/register/", nil, in, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) Profile(ctx context.Context) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodGet, "/auth/profile/", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, in ProfileUpdate) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodPatch, "/auth/profile/", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ChangePassword(ctx context.Context, in PasswordChange) error {
	return c.do(ctx, http.MethodPost, "/auth/change-password/", nil, in, nil)
}
