// catalog/client.go

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/brucePedroGomes/rocketShoes/cart"
)

// ErrNotFound is returned when the catalog service has no record for the id.
var ErrNotFound = errors.New("catalog: not found")

const instrumentationName = "github.com/brucePedroGomes/rocketShoes/catalog"

// Client talks to the stock and product endpoints of the catalog service.
// It implements cart.StockQuery and cart.ProductCatalog.
type Client struct {
	baseURL string
	http    *http.Client
	tracer  trace.Tracer
	log     *logrus.Entry
}

var (
	_ cart.StockQuery     = (*Client)(nil)
	_ cart.ProductCatalog = (*Client)(nil)
)

// NewClient builds a client for addr, e.g. "catalogservice:3333" or
// "http://localhost:3333". Every request is bounded by timeout.
func NewClient(addr string, timeout time.Duration, log *logrus.Entry) *Client {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Client{
		baseURL: strings.TrimRight(addr, "/"),
		http:    &http.Client{Timeout: timeout},
		tracer:  otel.Tracer(instrumentationName),
		log:     log.WithField("component", "catalog"),
	}
}

// Stock returns the available quantity of productID.
func (c *Client) Stock(ctx context.Context, productID int) (cart.StockRecord, error) {
	var rec cart.StockRecord
	if err := c.get(ctx, "stock", productID, &rec); err != nil {
		return cart.StockRecord{}, err
	}
	return rec, nil
}

// Product returns the catalog metadata of productID.
func (c *Client) Product(ctx context.Context, productID int) (cart.Product, error) {
	var p cart.Product
	if err := c.get(ctx, "products", productID, &p); err != nil {
		return cart.Product{}, err
	}
	return p, nil
}

func (c *Client) get(ctx context.Context, resource string, id int, out interface{}) error {
	ctx, span := c.tracer.Start(ctx, "catalog.GET /"+resource,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.Int("app.product_id", id)))
	defer span.End()

	url := fmt.Sprintf("%s/%s/%d", c.baseURL, resource, id)
	err := c.do(ctx, span, url, out)
	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.log.WithError(err).WithField("url", url).Warn("catalog request failed")
	}
	return err
}

func (c *Client) do(ctx context.Context, span trace.Span, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to build request for %s", url)
	}
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to reach catalog at %s", url)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return errors.WithStack(ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("catalog returned %d for %s: %s", resp.StatusCode, url, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "failed to decode catalog response from %s", url)
	}
	return nil
}
