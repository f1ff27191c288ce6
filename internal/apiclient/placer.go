package apiclient

import (
	"context"
	"time"

	"github.com/Skotchmaster/lumina_shop/internal/checkout"
)

// PlaceOrder forwards a paid checkout draft to the backend. Only the last
// four card digits ever leave the process.
func (c *Client) PlaceOrder(ctx context.Context, d checkout.Draft) (checkout.Confirmation, error) {
	in := OrderInput{
		FirstName:  d.Shipping.FirstName,
		LastName:   d.Shipping.LastName,
		Email:      d.Shipping.Email,
		Phone:      d.Shipping.Phone,
		Address:    d.Shipping.Address,
		City:       d.Shipping.City,
		State:      d.Shipping.State,
		ZipCode:    d.Shipping.Zip,
		Country:    d.Shipping.Country,
		CardNumber: "************" + d.CardLast4,
		CardName:   d.Shipping.FullName(),
	}
	for _, it := range d.Items {
		in.Items = append(in.Items, OrderItemInput{
			ProductID:   it.ProductID,
			ProductName: it.Name,
			Price:       it.Price,
			Quantity:    it.Quantity,
		})
	}

	created, err := c.CreateOrder(ctx, in)
	if err != nil {
		return checkout.Confirmation{}, err
	}

	placed := created.Order.CreatedAt
	if placed.IsZero() {
		placed = time.Now().UTC()
	}
	return checkout.Confirmation{
		OrderNumber: created.Order.OrderNumber,
		Email:       d.Shipping.Email,
		Items:       d.Items,
		Totals:      d.Totals,
		PlacedAt:    placed,
	}, nil
}

var _ checkout.OrderPlacer = (*Client)(nil)
