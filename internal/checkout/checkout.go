// Package checkout drives a visitor from shipping details through payment
// to a placed order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/lumina_shop/internal/cart"
	"github.com/Skotchmaster/lumina_shop/pkg/logging"
)

var (
	ErrValidation        = errors.New("validation")
	ErrInvalidTransition = errors.New("invalid checkout transition")
	ErrEmptyCart         = errors.New("cart is empty")
)

type State string

const (
	StateCollectingShipping State = "collecting_shipping"
	StateCollectingPayment  State = "collecting_payment"
	StateProcessing         State = "processing"
	StateComplete           State = "complete"
	StateEmptyCart          State = "empty_cart"
)

// Cart is the part of the cart container checkout depends on.
type Cart interface {
	Entries() []cart.Entry
	Total() decimal.Decimal
	IsEmpty() bool
	Deduct(ctx context.Context, ordered map[int]int) error
}

type LineItem struct {
	ProductID int             `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

func (l LineItem) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Draft is what gets handed to the order store once payment succeeds.
type Draft struct {
	Shipping   Shipping
	Items      []LineItem
	Totals     Totals
	PaymentRef string
	CardLast4  string
}

type Confirmation struct {
	OrderNumber string     `json:"orderNumber"`
	Email       string     `json:"email"`
	Items       []LineItem `json:"items"`
	Totals      Totals     `json:"totals"`
	PlacedAt    time.Time  `json:"placedAt"`
}

type OrderPlacer interface {
	PlaceOrder(ctx context.Context, d Draft) (Confirmation, error)
}

type PlacerFunc func(ctx context.Context, d Draft) (Confirmation, error)

func (f PlacerFunc) PlaceOrder(ctx context.Context, d Draft) (Confirmation, error) {
	return f(ctx, d)
}

// View is a point-in-time copy of the controller for rendering.
type View struct {
	State     State         `json:"state"`
	Items     []LineItem    `json:"items"`
	Totals    Totals        `json:"totals"`
	Shipping  *Shipping     `json:"shipping,omitempty"`
	LastError string        `json:"lastError,omitempty"`
	Order     *Confirmation `json:"order,omitempty"`
}

type Controller struct {
	cart    func() Cart
	gateway PaymentGateway
	placer  OrderPlacer
	timeout time.Duration
	log     *slog.Logger

	mu        sync.Mutex
	state     State
	shipping  *Shipping
	lastErr   error
	order     *Confirmation
	attempt   uint64
	observers []func(Confirmation)
	lastUsed  time.Time
}

type Option func(*Controller)

func WithGateway(g PaymentGateway) Option {
	return func(c *Controller) { c.gateway = g }
}

// WithTimeout bounds payment plus order placement.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithCartLookup resolves the cart on every call instead of holding one
// container, so a container reloaded by its registry is always the one used.
func WithCartLookup(fn func() Cart) Option {
	return func(c *Controller) { c.cart = fn }
}

func WithConfirmationHook(fn func(Confirmation)) Option {
	return func(c *Controller) { c.observers = append(c.observers, fn) }
}

func New(ct Cart, placer OrderPlacer, opts ...Option) *Controller {
	c := &Controller{
		cart:     func() Cart { return ct },
		placer:   placer,
		gateway:  NewSimulatedGateway(DefaultProcessingDelay),
		timeout:  DefaultTimeout,
		log:      logging.Discard(),
		state:    StateCollectingShipping,
		lastUsed: time.Now(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// stateLocked reports the empty-cart terminal state for any collecting
// state whose cart has been emptied.
func (c *Controller) stateLocked() State {
	switch c.state {
	case StateCollectingShipping, StateCollectingPayment:
		if c.cart().IsEmpty() {
			return StateEmptyCart
		}
	}
	return c.state
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastUsed = time.Now()

	v := View{State: c.stateLocked()}
	if c.order != nil {
		o := *c.order
		v.Order = &o
		v.Items = o.Items
		v.Totals = o.Totals
	} else {
		ct := c.cart()
		v.Items = lineItems(ct.Entries())
		v.Totals = ComputeTotals(ct.Total())
	}
	if c.shipping != nil {
		s := *c.shipping
		v.Shipping = &s
	}
	if c.lastErr != nil {
		v.LastError = c.lastErr.Error()
	}
	return v
}

func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Controller) SubmitShipping(s Shipping) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastUsed = time.Now()

	switch c.stateLocked() {
	case StateCollectingShipping:
	case StateEmptyCart:
		return ErrEmptyCart
	default:
		return fmt.Errorf("%w: shipping from %s", ErrInvalidTransition, c.state)
	}
	if err := s.Normalize(); err != nil {
		return err
	}
	c.shipping = &s
	c.lastErr = nil
	c.state = StateCollectingPayment
	return nil
}

// Back returns from payment to shipping, keeping the entered address.
func (c *Controller) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastUsed = time.Now()

	switch st := c.stateLocked(); st {
	case StateCollectingPayment:
	case StateEmptyCart:
		return ErrEmptyCart
	default:
		return fmt.Errorf("%w: back from %s", ErrInvalidTransition, st)
	}
	c.state = StateCollectingShipping
	return nil
}

// SubmitPayment charges the card and records the order, then takes the
// ordered items out of the cart. Any failure, including ctx cancellation,
// leaves the controller collecting payment with the cart untouched and the
// error kept as LastError.
func (c *Controller) SubmitPayment(ctx context.Context, p Payment) (Confirmation, error) {
	c.mu.Lock()
	c.lastUsed = time.Now()
	switch c.stateLocked() {
	case StateCollectingPayment:
	case StateEmptyCart:
		c.mu.Unlock()
		return Confirmation{}, ErrEmptyCart
	default:
		st := c.state
		c.mu.Unlock()
		return Confirmation{}, fmt.Errorf("%w: payment from %s", ErrInvalidTransition, st)
	}
	if err := p.Normalize(); err != nil {
		c.mu.Unlock()
		return Confirmation{}, err
	}

	entries := c.cart().Entries()
	items := lineItems(entries)
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Total())
	}
	draft := Draft{
		Shipping: *c.shipping,
		Items:    items,
		Totals:   ComputeTotals(subtotal),
	}
	c.state = StateProcessing
	c.lastErr = nil
	c.attempt++
	attempt := c.attempt
	c.mu.Unlock()

	conf, err := c.process(ctx, p, draft)

	c.mu.Lock()
	if c.attempt != attempt || c.state != StateProcessing {
		c.mu.Unlock()
		return Confirmation{}, fmt.Errorf("%w: stale payment attempt", ErrInvalidTransition)
	}
	if err != nil {
		c.state = StateCollectingPayment
		c.lastErr = err
		c.mu.Unlock()
		c.log.Warn("checkout_payment_error", "reason", "payment or order placement failed", "error", err)
		return Confirmation{}, err
	}
	c.state = StateComplete
	c.order = &conf
	observers := slices.Clone(c.observers)
	c.mu.Unlock()

	ordered := make(map[int]int, len(draft.Items))
	for _, it := range draft.Items {
		ordered[it.ProductID] += it.Quantity
	}
	if err := c.cart().Deduct(context.WithoutCancel(ctx), ordered); err != nil {
		c.log.Error("checkout_cart_clear_error", "order", conf.OrderNumber, "error", err)
	}
	for _, fn := range observers {
		fn(conf)
	}
	return conf, nil
}

func (c *Controller) process(ctx context.Context, p Payment, d Draft) (Confirmation, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	receipt, err := c.gateway.Charge(ctx, ChargeRequest{
		Amount:  d.Totals.Total,
		Email:   d.Shipping.Email,
		Payment: p,
	})
	if err != nil {
		return Confirmation{}, fmt.Errorf("charge: %w", err)
	}
	d.PaymentRef = receipt.Reference
	d.CardLast4 = receipt.Last4

	conf, err := c.placer.PlaceOrder(ctx, d)
	if err != nil {
		return Confirmation{}, fmt.Errorf("place order: %w", err)
	}
	return conf, nil
}

// Reset starts a fresh checkout once the previous one completed.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateComplete {
		return fmt.Errorf("%w: reset from %s", ErrInvalidTransition, c.state)
	}
	c.state = StateCollectingShipping
	c.shipping = nil
	c.order = nil
	c.lastErr = nil
	return nil
}

func (c *Controller) idleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUsed
}

func lineItems(entries []cart.Entry) []LineItem {
	out := make([]LineItem, len(entries))
	for i, e := range entries {
		out[i] = LineItem{ProductID: e.ID, Name: e.Name, Price: e.Price, Quantity: e.Quantity}
	}
	return out
}
