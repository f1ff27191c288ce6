package order

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusProcessing = "processing"
	PaymentPaid      = "paid"
)

type Order struct {
	ID            uint            `gorm:"primaryKey"                        json:"-"`
	Number        string          `gorm:"uniqueIndex;size:16;not null"      json:"orderNumber"`
	VisitorID     string          `gorm:"index;size:36"                     json:"-"`
	Email         string          `gorm:"index;not null"                    json:"email"`
	FirstName     string          `gorm:"not null"                          json:"firstName"`
	LastName      string          `gorm:"not null"                          json:"lastName"`
	Phone         string          `gorm:"not null"                          json:"phone"`
	Address       string          `gorm:"not null"                          json:"address"`
	City          string          `gorm:"not null"                          json:"city"`
	State         string          `gorm:"not null"                          json:"state"`
	Zip           string          `gorm:"not null"                          json:"zip"`
	Country       string          `gorm:"size:2;not null"                   json:"country"`
	Subtotal      decimal.Decimal `gorm:"type:numeric(12,2);not null"       json:"subtotal"`
	Shipping      decimal.Decimal `gorm:"type:numeric(12,2);not null"       json:"shipping"`
	Tax           decimal.Decimal `gorm:"type:numeric(12,2);not null"       json:"tax"`
	Total         decimal.Decimal `gorm:"type:numeric(12,2);not null"       json:"total"`
	Status        string          `gorm:"size:20;not null"                  json:"status"`
	PaymentStatus string          `gorm:"size:20;not null"                  json:"paymentStatus"`
	PaymentRef    string          `gorm:"size:64"                           json:"-"`
	CardLast4     string          `gorm:"size:4"                            json:"cardLast4"`
	Items         []Item          `gorm:"constraint:OnDelete:CASCADE"       json:"items"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type Item struct {
	ID          uint            `gorm:"primaryKey"                  json:"-"`
	OrderID     uint            `gorm:"index;not null"              json:"-"`
	ProductID   int             `gorm:"not null"                    json:"productId"`
	ProductName string          `gorm:"not null"                    json:"name"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Quantity    int             `gorm:"not null;check:quantity > 0" json:"quantity"`
}

func (i Item) Total() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// MarshalJSON renders money with two decimals, matching checkout totals.
func (o Order) MarshalJSON() ([]byte, error) {
	type plain Order
	return json.Marshal(struct {
		plain
		Subtotal string `json:"subtotal"`
		Shipping string `json:"shipping"`
		Tax      string `json:"tax"`
		Total    string `json:"total"`
	}{
		plain:    plain(o),
		Subtotal: o.Subtotal.StringFixed(2),
		Shipping: o.Shipping.StringFixed(2),
		Tax:      o.Tax.StringFixed(2),
		Total:    o.Total.StringFixed(2),
	})
}

func (i Item) MarshalJSON() ([]byte, error) {
	type plain Item
	return json.Marshal(struct {
		plain
		Price string `json:"price"`
		Total string `json:"total"`
	}{plain(i), i.Price.StringFixed(2), i.Total().StringFixed(2)})
}
