// cart/store.go

package cart

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/brucePedroGomes/rocketShoes/cartstore"
	"github.com/brucePedroGomes/rocketShoes/notify"
)

// DefaultKey is the storage key the cart snapshot is kept under.
const DefaultKey = "@RocketShoes:cart"

const instrumentationName = "github.com/brucePedroGomes/rocketShoes/cart"

// StockQuery reports how many units of a product are available.
type StockQuery interface {
	Stock(ctx context.Context, productID int) (StockRecord, error)
}

// ProductCatalog resolves product metadata.
type ProductCatalog interface {
	Product(ctx context.Context, productID int) (Product, error)
}

// PersistentStore holds the serialized cart under a string key.
type PersistentStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Dependencies are the collaborators a Store needs. All are required.
type Dependencies struct {
	Stock    StockQuery
	Catalog  ProductCatalog
	Storage  PersistentStore
	Notifier notify.Sink
}

type Option func(*Store)

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

func WithLogger(log *logrus.Entry) Option {
	return func(s *Store) { s.log = log }
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Store) { s.tracer = tp.Tracer(instrumentationName) }
}

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Store) { s.meter = mp.Meter(instrumentationName) }
}

// Store owns the cart. Mutations run one at a time; each either persists and
// publishes a new snapshot, or notifies the user once and changes nothing.
type Store struct {
	deps   Dependencies
	key    string
	log    *logrus.Entry
	tracer trace.Tracer
	meter  metric.Meter

	operations metric.Int64Counter
	lineCount  metric.Int64UpDownCounter

	// mu serializes mutations across their collaborator calls.
	mu      sync.Mutex
	current atomic.Pointer[Cart]

	subMu   sync.RWMutex
	subs    map[int]func(Cart)
	nextSub int
}

// New creates a Store and loads the persisted snapshot. A missing or
// unreadable snapshot yields an empty cart.
func New(ctx context.Context, deps Dependencies, opts ...Option) (*Store, error) {
	if deps.Stock == nil || deps.Catalog == nil || deps.Storage == nil || deps.Notifier == nil {
		return nil, errors.New("cart: stock, catalog, storage and notifier are required")
	}

	s := &Store{
		deps:   deps,
		key:    DefaultKey,
		log:    logrus.NewEntry(logrus.StandardLogger()),
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
		subs:   make(map[int]func(Cart)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("component", "cart")
	s.initInstruments()

	loaded := s.load(ctx)
	s.current.Store(&loaded)
	s.lineCount.Add(ctx, int64(loaded.Len()))

	return s, nil
}

func (s *Store) initInstruments() {
	var err error
	s.operations, err = s.meter.Int64Counter("cart.operations",
		metric.WithDescription("Cart mutations by operation and outcome."))
	if err != nil {
		s.log.WithError(err).Warn("failed to create cart.operations counter")
		s.operations, _ = noop.Meter{}.Int64Counter("cart.operations")
	}
	s.lineCount, err = s.meter.Int64UpDownCounter("cart.lines",
		metric.WithDescription("Distinct products in the published cart."))
	if err != nil {
		s.log.WithError(err).Warn("failed to create cart.lines counter")
		s.lineCount, _ = noop.Meter{}.Int64UpDownCounter("cart.lines")
	}
}

func (s *Store) load(ctx context.Context) Cart {
	log := s.log.WithField("key", s.key)

	data, err := s.deps.Storage.Get(ctx, s.key)
	if errors.Is(err, cartstore.ErrNotFound) {
		log.Debug("no persisted cart, starting empty")
		return Cart{}
	}
	if err != nil {
		log.WithError(err).Warn("failed to read persisted cart, starting empty")
		return Cart{}
	}

	c, err := Unmarshal(data)
	if err != nil {
		log.WithError(err).Warn("persisted cart is malformed, starting empty")
		return Cart{}
	}
	log.WithField("lines", c.Len()).Info("loaded persisted cart")
	return c
}

// Cart returns the current snapshot. It never waits for an in-flight mutation.
func (s *Store) Cart() Cart {
	return *s.current.Load()
}

// Subscribe registers fn to receive every snapshot published after a
// successful mutation, in order. fn runs while the mutation still holds the
// store, so it must not call AddProduct, RemoveProduct or UpdateProductAmount.
func (s *Store) Subscribe(fn func(Cart)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

// AddProduct increases the amount of productID by one, adding a line with
// catalog metadata when the product is not in the cart yet. It returns the
// snapshot the call left published.
func (s *Store) AddProduct(ctx context.Context, productID int) (Cart, error) {
	ctx, span := s.start(ctx, OpAdd, productID)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.Cart()
	if productID < 1 {
		return current, s.fail(ctx, span, OpAdd, productID, ErrProductNotFound, errInvalidID(productID))
	}
	existing, found := current.Find(productID)

	stock, err := s.deps.Stock.Stock(ctx, productID)
	if err != nil {
		return current, s.fail(ctx, span, OpAdd, productID, ErrCollaboratorUnavailable, err)
	}

	amount := existing.Amount + 1
	span.SetAttributes(attribute.Int("app.amount", amount), attribute.Int("app.stock", stock.Amount))
	if amount > stock.Amount {
		return current, s.fail(ctx, span, OpAdd, productID, ErrStockExceeded, nil)
	}

	var next Cart
	if found {
		next = current.withAmount(productID, amount)
	} else {
		product, err := s.deps.Catalog.Product(ctx, productID)
		if err != nil {
			return current, s.fail(ctx, span, OpAdd, productID, ErrCatalogLookupFailed, err)
		}
		next = current.withLine(CartLine{
			ID:     productID,
			Title:  product.Title,
			Price:  product.Price,
			Image:  product.Image,
			Amount: 1,
		})
	}

	return s.commit(ctx, span, OpAdd, productID, current, next)
}

// RemoveProduct drops the line for productID. Removing a product that is not
// in the cart is reported as an error.
func (s *Store) RemoveProduct(ctx context.Context, productID int) (Cart, error) {
	ctx, span := s.start(ctx, OpRemove, productID)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.Cart()
	if _, found := current.Find(productID); !found {
		return current, s.fail(ctx, span, OpRemove, productID, ErrProductNotFound, nil)
	}

	return s.commit(ctx, span, OpRemove, productID, current, current.without(productID))
}

// UpdateProductAmount sets the amount of a product already in the cart.
// Non-positive amounts are ignored without notifying anyone.
func (s *Store) UpdateProductAmount(ctx context.Context, productID, amount int) (Cart, error) {
	if amount <= 0 {
		s.operations.Add(ctx, 1, metric.WithAttributes(
			attribute.String("op", string(OpUpdate)), attribute.String("outcome", "ignored")))
		return s.Cart(), nil
	}

	ctx, span := s.start(ctx, OpUpdate, productID)
	defer span.End()
	span.SetAttributes(attribute.Int("app.amount", amount))

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.Cart()
	if productID < 1 {
		return current, s.fail(ctx, span, OpUpdate, productID, ErrProductNotFound, errInvalidID(productID))
	}

	stock, err := s.deps.Stock.Stock(ctx, productID)
	if err != nil {
		return current, s.fail(ctx, span, OpUpdate, productID, ErrCollaboratorUnavailable, err)
	}
	span.SetAttributes(attribute.Int("app.stock", stock.Amount))
	if amount > stock.Amount {
		return current, s.fail(ctx, span, OpUpdate, productID, ErrStockExceeded, nil)
	}

	if _, found := current.Find(productID); !found {
		return current, s.fail(ctx, span, OpUpdate, productID, ErrProductNotFound, nil)
	}

	return s.commit(ctx, span, OpUpdate, productID, current, current.withAmount(productID, amount))
}

// errInvalidID is the cause attached when a product id can never name a cart
// line; such ids are rejected before any collaborator is asked.
func errInvalidID(productID int) error {
	return fmt.Errorf("invalid product id %d", productID)
}

// start opens the operation span. Mutations are not cancellable once
// started, so the returned context drops the caller's cancellation.
func (s *Store) start(ctx context.Context, op Operation, productID int) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(context.WithoutCancel(ctx), "cart."+string(op),
		trace.WithAttributes(attribute.Int("app.product_id", productID)))
	return ctx, span
}

// commit persists next and then publishes it. Must be called with mu held.
// On failure current stays published and is returned.
func (s *Store) commit(ctx context.Context, span trace.Span, op Operation, productID int, current, next Cart) (Cart, error) {
	data, err := Marshal(next)
	if err != nil {
		return current, s.fail(ctx, span, op, productID, ErrCollaboratorUnavailable, err)
	}
	if err := s.deps.Storage.Set(ctx, s.key, data); err != nil {
		return current, s.fail(ctx, span, op, productID, ErrCollaboratorUnavailable, err)
	}

	s.current.Store(&next)
	s.lineCount.Add(ctx, int64(next.Len()-current.Len()))
	s.publish(next)

	s.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", string(op)), attribute.String("outcome", "ok")))
	s.log.WithFields(logrus.Fields{
		"op":         op,
		"product_id": productID,
		"lines":      next.Len(),
	}).Debug("cart updated")
	return next, nil
}

func (s *Store) publish(c Cart) {
	s.subMu.RLock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	fns := make([]func(Cart), 0, len(ids))
	sort.Ints(ids)
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.subMu.RUnlock()

	for _, fn := range fns {
		fn(c)
	}
}

// fail reports a rejected operation exactly once and returns its error.
func (s *Store) fail(ctx context.Context, span trace.Span, op Operation, productID int, kind, cause error) error {
	opErr := &OperationError{Op: op, Kind: kind, ProductID: productID, Err: cause}

	span.RecordError(opErr)
	span.SetStatus(codes.Error, kind.Error())

	entry := s.log.WithFields(logrus.Fields{"op": op, "product_id": productID})
	if cause != nil {
		entry.WithError(cause).Error(kind.Error())
	} else {
		entry.Warn(kind.Error())
	}

	s.deps.Notifier.Notify(notify.New(notify.LevelError, string(op), productID, opErr.Message()))
	s.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", string(op)), attribute.String("outcome", outcome(kind))))
	return opErr
}

func outcome(kind error) string {
	switch {
	case errors.Is(kind, ErrStockExceeded):
		return "stock_exceeded"
	case errors.Is(kind, ErrProductNotFound):
		return "not_found"
	case errors.Is(kind, ErrCatalogLookupFailed):
		return "catalog_failed"
	default:
		return "unavailable"
	}
}
