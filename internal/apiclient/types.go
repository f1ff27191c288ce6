package apiclient

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	PostCount   int    `json:"post_count"`
}

type ProductCategory struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Description  string `json:"description"`
	Image        string `json:"image"`
	ProductCount int    `json:"product_count"`
}

type Comment struct {
	ID         int64     `json:"id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	Initials   string    `json:"initials"`
}

type NewComment struct {
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
	Content     string `json:"content"`
}

type Post struct {
	ID            int       `json:"id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Excerpt       string    `json:"excerpt"`
	Content       string    `json:"content"`
	FeaturedImage string    `json:"featured_image"`
	Category      int       `json:"category"`
	CategoryName  string    `json:"category_name"`
	AuthorName    string    `json:"author_name"`
	AuthorAvatar  string    `json:"author_avatar"`
	ReadTime      int       `json:"read_time"`
	CommentCount  int       `json:"comment_count"`
	Views         int       `json:"views"`
	CreatedAt     time.Time `json:"created_at"`
	PublishedAt   time.Time `json:"published_at"`
	Comments      []Comment `json:"comments,omitempty"`
}

type Review struct {
	ID         int64     `json:"id"`
	AuthorName string    `json:"author_name"`
	Rating     int       `json:"rating"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	Initials   string    `json:"initials"`
}

type NewReview struct {
	AuthorName string `json:"author_name"`
	Rating     int    `json:"rating"`
	Title      string `json:"title"`
	Content    string `json:"content"`
}

type Product struct {
	ID               int              `json:"id"`
	Name             string           `json:"name"`
	Slug             string           `json:"slug"`
	ShortDescription string           `json:"short_description"`
	Description      string           `json:"description"`
	Price            decimal.Decimal  `json:"price"`
	ComparePrice     *decimal.Decimal `json:"compare_price"`
	Category         int              `json:"category"`
	CategoryName     string           `json:"category_name"`
	Image            string           `json:"image"`
	SKU              string           `json:"sku"`
	InStock          bool             `json:"in_stock"`
	StockQuantity    int              `json:"stock_quantity"`
	AverageRating    float64          `json:"average_rating"`
	ReviewCount      int              `json:"review_count"`
	Reviews          []Review         `json:"reviews,omitempty"`
	IsFeatured       bool             `json:"is_featured"`
	CreatedAt        time.Time        `json:"created_at"`
}

type ProductQuery struct {
	CategorySlug string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	InStock      bool
	Search       string
	Ordering     string
	Page         int
}

type PostQuery struct {
	CategorySlug string
	Search       string
	Ordering     string
	Page         int
}

type OrderItemInput struct {
	ProductID    int             `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductSKU   string          `json:"product_sku"`
	ProductImage string          `json:"product_image"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
}

type OrderInput struct {
	FirstName  string           `json:"first_name"`
	LastName   string           `json:"last_name"`
	Email      string           `json:"email"`
	Phone      string           `json:"phone"`
	Address    string           `json:"address"`
	City       string           `json:"city"`
	State      string           `json:"state"`
	ZipCode    string           `json:"zip_code"`
	Country    string           `json:"country"`
	CardNumber string           `json:"card_number"`
	CardName   string           `json:"card_name"`
	Expiry     string           `json:"expiry"`
	CVV        string           `json:"cvv"`
	Items      []OrderItemInput `json:"items"`
}

type OrderItem struct {
	ID           int             `json:"id"`
	ProductName  string          `json:"product_name"`
	ProductSKU   string          `json:"product_sku"`
	ProductImage string          `json:"product_image"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
	Total        decimal.Decimal `json:"total"`
}

type Order struct {
	ID            int             `json:"id"`
	OrderNumber   string          `json:"order_number"`
	FullName      string          `json:"full_name"`
	Email         string          `json:"email"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	ShippingCost  decimal.Decimal `json:"shipping_cost"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	Items         []OrderItem     `json:"items"`
	ItemCount     int             `json:"item_count"`
	CreatedAt     time.Time       `json:"created_at"`
}

type OrderCreated struct {
	Order   Order  `json:"order"`
	Message string `json:"message"`
}

type User struct {
	ID                     int    `json:"id"`
	Username               string `json:"username"`
	Email                  string `json:"email"`
	FirstName              string `json:"first_name"`
	LastName               string `json:"last_name"`
	Phone                  string `json:"phone"`
	Avatar                 string `json:"avatar"`
	Bio                    string `json:"bio"`
	Initials               string `json:"initials"`
	Address                string `json:"address"`
	City                   string `json:"city"`
	State                  string `json:"state"`
	ZipCode                string `json:"zip_code"`
	Country                string `json:"country"`
	IsNewsletterSubscribed bool   `json:"is_newsletter_subscribed"`
}

// ProfileUpdate carries only the fields being changed.
type ProfileUpdate struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	Address   *string `json:"address,omitempty"`
	City      *string `json:"city,omitempty"`
	State     *string `json:"state,omitempty"`
	ZipCode   *string `json:"zip_code,omitempty"`
	Country   *string `json:"country,omitempty"`
}

type PasswordChange struct {
	OldPassword        string `json:"old_password"`
	NewPassword        string `json:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm"`
}

type Registration struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
}
