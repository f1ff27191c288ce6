package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/lumina_shop/internal/catalog"
	"github.com/Skotchmaster/lumina_shop/pkg/storage"
)

var (
	vase    = catalog.Product{ID: 1, Name: "Ceramic Vase with Pampas", Slug: "ceramic-vase-with-pampas", Price: decimal.NewFromInt(89), Category: "Home Decor", InStock: true, Rating: 4.8, ReviewCount: 124}
	journal = catalog.Product{ID: 2, Name: "Leather Journal", Slug: "leather-journal", Price: decimal.NewFromInt(45), Category: "Stationery", InStock: true, Rating: 4.9, ReviewCount: 89}
	candle  = catalog.Product{ID: 4, Name: "Amber Scented Candle", Slug: "amber-scented-candle", Price: decimal.RequireFromString("38.99"), Category: "Home Fragrance", InStock: true}
)

type failingStore struct {
	storage.Store
	err error
}

func (f failingStore) Set(context.Context, string, []byte) error { return f.err }

func newCart(t *testing.T) (*Container, *storage.Memory) {
	t.Helper()
	mem := storage.NewMemory()
	return Load(context.Background(), mem, DefaultKey), mem
}

func TestAddItemCountsRepeatedCalls(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, c.AddItem(ctx, vase))
	}
	require.NoError(t, c.AddItem(ctx, journal))

	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, 5, entries[0].Quantity)
	assert.Equal(t, 1, entries[1].Quantity)
	assert.Equal(t, 6, c.Count())
	assert.Equal(t, "490", c.Total().String())
}

func TestRemoveAndZeroQuantityAreEquivalent(t *testing.T) {
	ctx := context.Background()
	a, _ := newCart(t)
	b, _ := newCart(t)
	for _, c := range []*Container{a, b} {
		require.NoError(t, c.AddItem(ctx, vase))
		require.NoError(t, c.AddItem(ctx, journal))
	}

	require.NoError(t, a.RemoveItem(ctx, vase.ID))
	require.NoError(t, b.SetQuantity(ctx, vase.ID, 0))

	assert.Equal(t, a.Entries(), b.Entries())
	assert.Equal(t, 0, a.Quantity(vase.ID))

	require.NoError(t, b.SetQuantity(ctx, journal.ID, -3))
	assert.True(t, b.IsEmpty())
}

func TestNoOpsDoNotPersistOrNotify(t *testing.T) {
	ctx := context.Background()
	c, mem := newCart(t)
	var events []Event
	c.Subscribe(func(e Event) { events = append(events, e) })

	require.NoError(t, c.RemoveItem(ctx, 99))
	require.NoError(t, c.SetQuantity(ctx, 99, 3))
	require.NoError(t, c.Clear(ctx))

	assert.Empty(t, events)
	_, err := mem.Get(ctx, DefaultKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSetQuantityOverwrites(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)
	require.NoError(t, c.AddItem(ctx, candle))
	require.NoError(t, c.SetQuantity(ctx, candle.ID, 3))

	assert.Equal(t, 3, c.Quantity(candle.ID))
	assert.Equal(t, "116.97", c.Total().String())
}

func TestAddThenRemoveRestoresTotalExactly(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)
	require.NoError(t, c.AddItem(ctx, candle))
	require.NoError(t, c.AddItem(ctx, journal))
	before := c.Total()

	require.NoError(t, c.AddItem(ctx, vase))
	require.NoError(t, c.RemoveItem(ctx, vase.ID))

	assert.True(t, before.Equal(c.Total()), "%s != %s", before, c.Total())
}

func TestPersistedRoundTripKeepsOrderAndQuantities(t *testing.T) {
	ctx := context.Background()
	c, mem := newCart(t)
	require.NoError(t, c.AddItem(ctx, journal))
	require.NoError(t, c.AddItem(ctx, vase))
	require.NoError(t, c.AddItem(ctx, journal))

	restored := Load(ctx, mem, DefaultKey)
	assert.Equal(t, c.Entries(), restored.Entries())
	assert.Equal(t, []int{journal.ID, vase.ID}, []int{restored.Entries()[0].ID, restored.Entries()[1].ID})
	assert.Equal(t, 2, restored.Quantity(journal.ID))
}

func TestPersistedLayoutIsFlat(t *testing.T) {
	ctx := context.Background()
	c, mem := newCart(t)
	require.NoError(t, c.AddItem(ctx, journal))

	raw, err := mem.Get(ctx, DefaultKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[{
		"id": 2, "name": "Leather Journal", "slug": "leather-journal", "price": "45",
		"image": "", "category": "Stationery", "categorySlug": "", "description": "",
		"inStock": true, "rating": 4.9, "reviewCount": 89, "featured": false,
		"quantity": 1
	}]`, string(raw))
}

func TestCorruptSavedCartLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	for _, raw := range []string{"{not json", `{"id":1}`, `"cart"`, ``} {
		mem := storage.NewMemory()
		require.NoError(t, mem.Set(ctx, DefaultKey, []byte(raw)))

		c := Load(ctx, mem, DefaultKey)
		assert.True(t, c.IsEmpty(), raw)
		require.NoError(t, c.AddItem(ctx, vase), raw)
	}
}

func TestDecodeSanitises(t *testing.T) {
	entries, err := Decode([]byte(`[
		{"id": 1, "name": "Vase", "price": 89, "quantity": 1},
		{"id": 2, "name": "Journal", "price": "45", "quantity": 0},
		{"id": 1, "name": "Vase", "price": 89, "quantity": 2}
	]`))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 3, entries[0].Quantity)
	assert.Equal(t, "89", entries[0].Price.String())
}

func TestPersistFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")
	c := Load(ctx, failingStore{Store: storage.NewMemory(), err: boom}, DefaultKey)

	err := c.AddItem(ctx, vase)
	assert.ErrorIs(t, err, ErrPersist)
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, 1, c.Count())
}

func TestObserversReceiveEventsAndCanUnsubscribe(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)
	var got []Event
	stop := c.Subscribe(func(e Event) { got = append(got, e) })

	require.NoError(t, c.AddItem(ctx, vase))
	require.NoError(t, c.AddItem(ctx, vase))
	require.NoError(t, c.SetQuantity(ctx, vase.ID, 5))
	require.NoError(t, c.Clear(ctx))
	stop()
	require.NoError(t, c.AddItem(ctx, journal))

	require.Len(t, got, 4)
	assert.Equal(t, EventItemAdded, got[0].Type)
	assert.Equal(t, "Ceramic Vase with Pampas added to cart", got[0].Message())
	assert.Equal(t, 2, got[1].Quantity)
	assert.Equal(t, EventQuantityUpdated, got[2].Type)
	assert.Equal(t, "445", got[2].Total.String())
	assert.Equal(t, EventCleared, got[3].Type)
	assert.Equal(t, 0, got[3].Count)
	assert.Equal(t, DefaultKey, got[3].Key)
}

func TestRegistryIsolatesVisitorsAndSweeps(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	r := NewRegistry(mem)
	var events []Event
	r.Subscribe(func(e Event) { events = append(events, e) })

	alice := r.For(ctx, "alice")
	require.NoError(t, alice.AddItem(ctx, vase))
	bob := r.For(ctx, "bob")
	assert.True(t, bob.IsEmpty())
	assert.Same(t, alice, r.For(ctx, "alice"))
	assert.Equal(t, "cart:alice", alice.Key())
	require.Len(t, events, 1)

	assert.Equal(t, 2, r.Sweep(-time.Second))
	assert.Zero(t, r.Len())

	reloaded := r.For(ctx, "alice")
	assert.NotSame(t, alice, reloaded)
	assert.Equal(t, 1, reloaded.Count())

	require.NoError(t, reloaded.AddItem(ctx, journal))
	assert.Len(t, events, 2)
}

func TestAddCapsLineQuantity(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)
	var events []Event
	c.Subscribe(func(e Event) { events = append(events, e) })

	require.NoError(t, c.Add(ctx, vase, 60))
	require.NoError(t, c.Add(ctx, vase, 60))
	assert.Equal(t, MaxQuantity, c.Quantity(vase.ID))

	require.NoError(t, c.AddItem(ctx, vase))
	assert.Equal(t, MaxQuantity, c.Quantity(vase.ID))
	assert.Len(t, events, 2)

	require.NoError(t, c.SetQuantity(ctx, vase.ID, 500))
	assert.Equal(t, MaxQuantity, c.Quantity(vase.ID))

	require.NoError(t, c.Add(ctx, journal, 0))
	assert.Zero(t, c.Quantity(journal.ID))
}

func TestDeductKeepsUnorderedUnits(t *testing.T) {
	ctx := context.Background()
	c, mem := newCart(t)
	require.NoError(t, c.Add(ctx, vase, 2))
	require.NoError(t, c.AddItem(ctx, journal))
	require.NoError(t, c.AddItem(ctx, candle))

	require.NoError(t, c.Deduct(ctx, map[int]int{vase.ID: 1, journal.ID: 1}))
	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, vase.ID, entries[0].ID)
	assert.Equal(t, 1, entries[0].Quantity)
	assert.Equal(t, candle.ID, entries[1].ID)

	reloaded := Load(ctx, mem, DefaultKey)
	assert.Equal(t, 2, reloaded.Count())

	var last Event
	c.Subscribe(func(e Event) { last = e })
	require.NoError(t, c.Deduct(ctx, map[int]int{vase.ID: 1, candle.ID: 1}))
	assert.True(t, c.IsEmpty())
	assert.Equal(t, EventCleared, last.Type)

	require.NoError(t, c.Deduct(ctx, map[int]int{vase.ID: 1}))
	assert.Equal(t, EventCleared, last.Type)
}
