package catalog

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation")
)

// Product JSON keys match the cart's persisted layout.
type Product struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	Price        decimal.Decimal `json:"price"`
	Image        string          `json:"image"`
	Category     string          `json:"category"`
	CategorySlug string          `json:"categorySlug"`
	Description  string          `json:"description"`
	InStock      bool            `json:"inStock"`
	Rating       float64         `json:"rating"`
	ReviewCount  int             `json:"reviewCount"`
	Featured     bool            `json:"featured"`
}

type Post struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Excerpt      string    `json:"excerpt"`
	Content      string    `json:"content"`
	Image        string    `json:"image"`
	Category     string    `json:"category"`
	CategorySlug string    `json:"categorySlug"`
	PublishedAt  time.Time `json:"publishedAt"`
	Date         string    `json:"date"`
	ReadTime     string    `json:"readTime"`
	Author       string    `json:"author"`
	AuthorAvatar string    `json:"authorAvatar"`
	Featured     bool      `json:"featured"`
}

type Category struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

// SeedEntry is a review or comment shipped with the catalog seed.
type SeedEntry struct {
	Author string
	Email  string
	Rating int
	Body   string
	Date   time.Time
}

const DateLayout = "Jan 2, 2006"
