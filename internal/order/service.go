package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/lumina_shop/internal/checkout"
	"github.com/Skotchmaster/lumina_shop/internal/util"
	"github.com/Skotchmaster/lumina_shop/pkg/events"
	"github.com/Skotchmaster/lumina_shop/pkg/logging"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

const numberAttempts = 3

// NewNumber returns "LM-" followed by eight uppercase hex characters.
func NewNumber() string {
	id := uuid.New()
	return "LM-" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}

type Placed struct {
	Type        string    `json:"type"`
	OrderNumber string    `json:"orderNumber"`
	Email       string    `json:"email"`
	Total       string    `json:"total"`
	Items       int       `json:"items"`
	At          time.Time `json:"at"`
}

type OrderService struct {
	Repo      *GormRepo
	Publisher events.Publisher
	Log       *slog.Logger
	// NewNumber is swapped in tests to force collisions.
	NewNumber func() string
}

func NewService(repo *GormRepo, pub events.Publisher, log *slog.Logger) *OrderService {
	if log == nil {
		log = logging.Discard()
	}
	return &OrderService{Repo: repo, Publisher: pub, Log: log, NewNumber: NewNumber}
}

func (s *OrderService) Place(ctx context.Context, visitorID string, d checkout.Draft) (*Order, error) {
	if len(d.Items) == 0 {
		return nil, fmt.Errorf("%w: items required", ErrValidation)
	}

	o := &Order{
		VisitorID:     visitorID,
		Email:         d.Shipping.Email,
		FirstName:     d.Shipping.FirstName,
		LastName:      d.Shipping.LastName,
		Phone:         d.Shipping.Phone,
		Address:       d.Shipping.Address,
		City:          d.Shipping.City,
		State:         d.Shipping.State,
		Zip:           d.Shipping.Zip,
		Country:       d.Shipping.Country,
		Subtotal:      d.Totals.Subtotal,
		Shipping:      d.Totals.Shipping,
		Tax:           d.Totals.Tax,
		Total:         d.Totals.Total,
		Status:        StatusProcessing,
		PaymentStatus: PaymentPaid,
		PaymentRef:    d.PaymentRef,
		CardLast4:     d.CardLast4,
	}
	for _, it := range d.Items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
		}
		o.Items = append(o.Items, Item{
			ProductID:   it.ProductID,
			ProductName: it.Name,
			Price:       it.Price,
			Quantity:    it.Quantity,
		})
	}

	var err error
	for attempt := 0; attempt < numberAttempts; attempt++ {
		o.ID = 0
		for i := range o.Items {
			o.Items[i].ID = 0
			o.Items[i].OrderID = 0
		}
		o.Number = s.NewNumber()
		err = s.Repo.Create(ctx, o)
		if !isDuplicate(err) {
			break
		}
		s.Log.Warn("order_number_collision", "number", o.Number, "attempt", attempt+1)
	}
	if isDuplicate(err) {
		return nil, fmt.Errorf("%w: could not allocate order number", ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.publish(ctx, o)
	return o, nil
}

// isDuplicate also matches raw driver text for dialects without a translator.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key")
}

func (s *OrderService) publish(ctx context.Context, o *Order) {
	if s.Publisher == nil {
		return
	}
	ev := Placed{
		Type:        "order_placed",
		OrderNumber: o.Number,
		Email:       o.Email,
		Total:       o.Total.StringFixed(2),
		Items:       len(o.Items),
		At:          o.CreatedAt,
	}
	if err := s.Publisher.PublishEvent(ctx, events.TopicOrder, o.Number, ev); err != nil {
		s.Log.Error("order_publish_error", "order", o.Number, "error", err)
	}
}

// PlacerFor binds order placement to a visitor for the checkout controller.
func (s *OrderService) PlacerFor(visitorID string) checkout.OrderPlacer {
	return checkout.PlacerFunc(func(ctx context.Context, d checkout.Draft) (checkout.Confirmation, error) {
		o, err := s.Place(ctx, visitorID, d)
		if err != nil {
			return checkout.Confirmation{}, err
		}
		return o.Confirmation(), nil
	})
}

func (s *OrderService) Get(ctx context.Context, number string) (*Order, error) {
	o, err := s.Repo.GetByNumber(ctx, strings.ToUpper(strings.TrimSpace(number)))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("order %s: %w", number, ErrNotFound)
	}
	return o, err
}

// GetForVisitor is Get restricted to orders the visitor placed. Orders of
// other visitors look missing.
func (s *OrderService) GetForVisitor(ctx context.Context, visitorID, number string) (*Order, error) {
	if visitorID == "" {
		return nil, fmt.Errorf("%w: visitor required", ErrValidation)
	}
	o, err := s.Get(ctx, number)
	if err != nil {
		return nil, err
	}
	if o.VisitorID != visitorID {
		return nil, fmt.Errorf("order %s: %w", number, ErrNotFound)
	}
	return o, nil
}

// ListByVisitor pages through the visitor's orders, newest first. A
// non-empty email narrows the list to orders shipped to that address.
func (s *OrderService) ListByVisitor(ctx context.Context, visitorID, email string, page, size int) ([]Order, int64, error) {
	if visitorID == "" {
		return nil, 0, fmt.Errorf("%w: visitor required", ErrValidation)
	}
	offset, limit := util.Calculate(page, size)
	return s.Repo.List(ctx, Order{VisitorID: visitorID, Email: strings.TrimSpace(email)}, limit, offset)
}

func (o *Order) Confirmation() checkout.Confirmation {
	items := make([]checkout.LineItem, len(o.Items))
	for i, it := range o.Items {
		items[i] = checkout.LineItem{ProductID: it.ProductID, Name: it.ProductName, Price: it.Price, Quantity: it.Quantity}
	}
	return checkout.Confirmation{
		OrderNumber: o.Number,
		Email:       o.Email,
		Items:       items,
		Totals: checkout.Totals{
			Subtotal: o.Subtotal,
			Shipping: o.Shipping,
			Tax:      o.Tax,
			Total:    o.Total,
		},
		PlacedAt: o.CreatedAt,
	}
}
