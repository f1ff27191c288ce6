// Package cart holds a visitor's in-progress selection of products. Every
// mutation rewrites the whole cart to storage and then notifies observers.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/lumina_shop/internal/catalog"
	"github.com/Skotchmaster/lumina_shop/pkg/logging"
	"github.com/Skotchmaster/lumina_shop/pkg/storage"
)

const DefaultKey = "cart"

// MaxQuantity caps a single line.
const MaxQuantity = 99

var ErrPersist = errors.New("cart persist failed")

// Entry is a product snapshot plus quantity; it serialises flat, which is
// the stored layout.
type Entry struct {
	catalog.Product
	Quantity int `json:"quantity"`
}

func (e Entry) LineTotal() decimal.Decimal {
	return e.Price.Mul(decimal.NewFromInt(int64(e.Quantity)))
}

type EventType string

const (
	EventItemAdded       EventType = "item_added"
	EventItemRemoved     EventType = "item_removed"
	EventQuantityUpdated EventType = "quantity_updated"
	EventCleared         EventType = "cleared"
)

type Event struct {
	Type        EventType       `json:"type"`
	Key         string          `json:"key"`
	ProductID   int             `json:"productId,omitempty"`
	ProductName string          `json:"productName,omitempty"`
	Quantity    int             `json:"quantity"`
	Count       int             `json:"count"`
	Total       decimal.Decimal `json:"total"`
	At          time.Time       `json:"at"`
}

// Message is the visitor-facing confirmation for e.
func (e Event) Message() string {
	switch e.Type {
	case EventItemAdded:
		return e.ProductName + " added to cart"
	case EventItemRemoved:
		return "Item removed from cart"
	case EventQuantityUpdated:
		return "Cart updated"
	case EventCleared:
		return "Cart cleared"
	}
	return ""
}

type Container struct {
	key   string
	store storage.Store
	log   *slog.Logger

	mu        sync.Mutex
	entries   []Entry
	observers map[int]func(Event)
	nextObs   int
	lastUsed  time.Time
}

type Option func(*Container)

func WithLogger(l *slog.Logger) Option {
	return func(c *Container) { c.log = l }
}

// Load restores the cart saved under key. Missing or unreadable data gives
// an empty cart.
func Load(ctx context.Context, store storage.Store, key string, opts ...Option) *Container {
	c := &Container{
		key:       key,
		store:     store,
		log:       logging.FromContext(ctx),
		observers: make(map[int]func(Event)),
		lastUsed:  time.Now(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.key == "" {
		c.key = DefaultKey
	}

	raw, err := store.Get(ctx, c.key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return c
	case err != nil:
		c.log.Warn("cart_restore_error", "key", c.key, "reason", "storage read failed", "error", err)
		return c
	}

	entries, err := Decode(raw)
	if err != nil {
		c.log.Warn("cart_restore_error", "key", c.key, "reason", "corrupt saved cart", "error", err)
		return c
	}
	c.entries = entries
	return c
}

// Decode parses a saved cart. Entries with a quantity below one are dropped
// and repeated products are merged.
func Decode(raw []byte) ([]Entry, error) {
	var saved []Entry
	if err := json.Unmarshal(raw, &saved); err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(saved))
	index := make(map[int]int, len(saved))
	for _, e := range saved {
		if e.Quantity < 1 {
			continue
		}
		if i, ok := index[e.ID]; ok {
			out[i].Quantity += e.Quantity
			continue
		}
		index[e.ID] = len(out)
		out = append(out, e)
	}
	return out, nil
}

func Encode(entries []Entry) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}
	return json.Marshal(entries)
}

func (c *Container) Key() string { return c.key }

// Subscribe registers fn and returns a function that removes it.
func (c *Container) Subscribe(fn func(Event)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

// AddItem increments the quantity of p, appending it when absent.
func (c *Container) AddItem(ctx context.Context, p catalog.Product) error {
	return c.Add(ctx, p, 1)
}

// Add merges n units of p into the cart. The line never exceeds
// MaxQuantity; adding to a full line is a no-op.
func (c *Container) Add(ctx context.Context, p catalog.Product, n int) error {
	if n <= 0 {
		return nil
	}
	return c.mutate(ctx, func() (Event, bool) {
		i := c.indexOf(p.ID)
		if i < 0 {
			c.entries = append(c.entries, Entry{Product: p})
			i = len(c.entries) - 1
		}
		q := min(c.entries[i].Quantity+n, MaxQuantity)
		if q == c.entries[i].Quantity {
			return Event{}, false
		}
		c.entries[i].Quantity = q
		return Event{Type: EventItemAdded, ProductID: p.ID, ProductName: p.Name, Quantity: q}, true
	})
}

// RemoveItem deletes the entry for productID; absent ids are ignored.
func (c *Container) RemoveItem(ctx context.Context, productID int) error {
	return c.mutate(ctx, func() (Event, bool) {
		i := c.indexOf(productID)
		if i < 0 {
			return Event{}, false
		}
		name := c.entries[i].Name
		c.entries = slices.Delete(c.entries, i, i+1)
		return Event{Type: EventItemRemoved, ProductID: productID, ProductName: name}, true
	})
}

// SetQuantity overwrites the quantity of a product already in the cart,
// capped at MaxQuantity. A quantity of zero or less removes it.
func (c *Container) SetQuantity(ctx context.Context, productID, quantity int) error {
	if quantity <= 0 {
		return c.RemoveItem(ctx, productID)
	}
	quantity = min(quantity, MaxQuantity)
	return c.mutate(ctx, func() (Event, bool) {
		i := c.indexOf(productID)
		if i < 0 || c.entries[i].Quantity == quantity {
			return Event{}, false
		}
		c.entries[i].Quantity = quantity
		return Event{Type: EventQuantityUpdated, ProductID: productID, ProductName: c.entries[i].Name, Quantity: quantity}, true
	})
}

func (c *Container) Clear(ctx context.Context) error {
	return c.mutate(ctx, func() (Event, bool) {
		if len(c.entries) == 0 {
			return Event{}, false
		}
		c.entries = nil
		return Event{Type: EventCleared}, true
	})
}

// Deduct takes ordered quantities (product id to quantity) out of the cart
// and drops lines that reach zero. Units added after the order was drafted
// stay in the cart.
func (c *Container) Deduct(ctx context.Context, ordered map[int]int) error {
	return c.mutate(ctx, func() (Event, bool) {
		kept := make([]Entry, 0, len(c.entries))
		changed := false
		for _, e := range c.entries {
			if n := ordered[e.ID]; n > 0 {
				e.Quantity -= n
				changed = true
			}
			if e.Quantity > 0 {
				kept = append(kept, e)
			}
		}
		if !changed {
			return Event{}, false
		}
		c.entries = kept
		if len(kept) == 0 {
			c.entries = nil
			return Event{Type: EventCleared}, true
		}
		return Event{Type: EventQuantityUpdated}, true
	})
}

// mutate applies change under the lock, saves the cart and notifies
// observers. A save failure keeps the in-memory change and is returned
// wrapped in ErrPersist.
func (c *Container) mutate(ctx context.Context, change func() (Event, bool)) error {
	c.mu.Lock()
	c.lastUsed = time.Now()
	ev, changed := change()
	if !changed {
		c.mu.Unlock()
		return nil
	}
	ev.Key = c.key
	ev.Count = c.countLocked()
	ev.Total = c.totalLocked()
	ev.At = time.Now().UTC()

	saveErr := c.saveLocked(ctx)
	observers := make([]func(Event), 0, len(c.observers))
	for _, fn := range c.observers {
		observers = append(observers, fn)
	}
	c.mu.Unlock()

	for _, fn := range observers {
		fn(ev)
	}
	return saveErr
}

func (c *Container) saveLocked(ctx context.Context) error {
	raw, err := Encode(c.entries)
	if err == nil {
		err = c.store.Set(ctx, c.key, raw)
	}
	if err != nil {
		c.log.Error("cart_persist_error", "key", c.key, "error", err)
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

func (c *Container) indexOf(productID int) int {
	return slices.IndexFunc(c.entries, func(e Entry) bool { return e.ID == productID })
}

func (c *Container) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := slices.Clone(c.entries)
	if out == nil {
		out = []Entry{}
	}
	return out
}

func (c *Container) Quantity(productID int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(productID); i >= 0 {
		return c.entries[i].Quantity
	}
	return 0
}

func (c *Container) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalLocked()
}

func (c *Container) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.countLocked()
}

func (c *Container) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries) == 0
}

func (c *Container) totalLocked() decimal.Decimal {
	total := decimal.Zero
	for _, e := range c.entries {
		total = total.Add(e.LineTotal())
	}
	return total
}

func (c *Container) countLocked() int {
	n := 0
	for _, e := range c.entries {
		n += e.Quantity
	}
	return n
}

func (c *Container) idleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUsed
}

func (c *Container) touch() {
	c.mu.Lock()
	c.lastUsed = time.Now()
	c.mu.Unlock()
}
