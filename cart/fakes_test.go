package cart_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/brucePedroGomes/rocketShoes/cart"
	"github.com/brucePedroGomes/rocketShoes/cartstore"
)

var errBoom = errors.New("boom")

// errOf drops the snapshot returned by a mutation.
func errOf(_ cart.Cart, err error) error { return err }

type fakeStock struct {
	mu     sync.Mutex
	amount map[int]int
	err    error
	calls  atomic.Int32
	// gate, when set, is received from before answering.
	gate chan struct{}
}

func newFakeStock(amounts map[int]int) *fakeStock {
	return &fakeStock{amount: amounts}
}

func (f *fakeStock) Stock(ctx context.Context, productID int) (cart.StockRecord, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if err := ctx.Err(); err != nil {
		return cart.StockRecord{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return cart.StockRecord{}, f.err
	}
	return cart.StockRecord{ID: productID, Amount: f.amount[productID]}, nil
}

type fakeCatalog struct {
	products map[int]cart.Product
	err      error
	calls    atomic.Int32
}

var errUnknownProduct = errors.New("unknown product")

func (f *fakeCatalog) Product(_ context.Context, productID int) (cart.Product, error) {
	f.calls.Add(1)
	if f.err != nil {
		return cart.Product{}, f.err
	}
	p, ok := f.products[productID]
	if !ok {
		return cart.Product{}, errUnknownProduct
	}
	return p, nil
}

type fakeStorage struct {
	*cartstore.LocalCartStore
	getErr error
	setErr error
	sets   atomic.Int32
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{LocalCartStore: cartstore.NewLocalCartStore()}
}

func (f *fakeStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.LocalCartStore.Get(ctx, key)
}

func (f *fakeStorage) Set(ctx context.Context, key string, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.sets.Add(1)
	return f.LocalCartStore.Set(ctx, key, value)
}

func product(id int, title, price string) cart.Product {
	return cart.Product{
		ID:    id,
		Title: title,
		Price: decimal.RequireFromString(price),
		Image: "https://cdn.example.com/" + title + ".jpg",
	}
}

func catalogOf(products ...cart.Product) *fakeCatalog {
	m := make(map[int]cart.Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return &fakeCatalog{products: m}
}

func lineOf(p cart.Product, amount int) cart.CartLine {
	return cart.CartLine{ID: p.ID, Title: p.Title, Price: p.Price, Image: p.Image, Amount: amount}
}
