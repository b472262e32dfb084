// Package salla is the outbound client for the Salla Admin API, used to
// answer spreadsheet data requests with a stored merchant token.
package salla

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-sallagate/sallagate/internal/metrics"

	"golang.org/x/sync/errgroup"
)

// Resource names, also used as metric labels.
const (
	ResourceOrders    = "orders"
	ResourceProducts  = "products"
	ResourceCustomers = "customers"
)

// Client calls the Salla Admin API with a merchant's bearer token. Every
// call carries a bounded timeout; a failing resource degrades to an empty
// list so one broken endpoint cannot take down a whole dataset request.
type Client struct {
	baseURL string
	perPage int
	timeout time.Duration
	http    *retryingClient
	metrics metrics.Recorder
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http.httpClient = hc
	}
}

func NewClient(
	baseURL string,
	timeout time.Duration,
	maxRetries, perPage int,
	recorder metrics.Recorder,
	opts ...Option,
) *Client {
	if perPage <= 0 {
		perPage = 20
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		perPage: perPage,
		timeout: timeout,
		http:    newRetryingClient(&http.Client{Timeout: timeout}, maxRetries),
		metrics: recorder,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the Admin API's standard list response shape.
type envelope struct {
	Success bool            `json:"success"`
	Status  int             `json:"status"`
	Data    json.RawMessage `json:"data"`
}

// list fetches one resource collection. The context carries the caller's
// deadline; the http.Client timeout bounds each individual attempt.
func (c *Client) list(ctx context.Context, resource, accessToken string, out any) error {
	url := fmt.Sprintf("%s/%s?per_page=%d", c.baseURL, resource, c.perPage)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", resource, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		c.metrics.RecordUpstreamCall(resource, time.Since(start), false)
		return fmt.Errorf("fetch %s: %w", resource, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.RecordUpstreamCall(resource, time.Since(start), false)
		return fmt.Errorf("read %s response: %w", resource, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.metrics.RecordUpstreamCall(resource, time.Since(start), false)
		return fmt.Errorf("fetch %s: upstream returned HTTP %d", resource, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.metrics.RecordUpstreamCall(resource, time.Since(start), false)
		return fmt.Errorf("decode %s response: %w", resource, err)
	}
	if len(env.Data) == 0 {
		c.metrics.RecordUpstreamCall(resource, time.Since(start), true)
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		c.metrics.RecordUpstreamCall(resource, time.Since(start), false)
		return fmt.Errorf("decode %s data: %w", resource, err)
	}

	c.metrics.RecordUpstreamCall(resource, time.Since(start), true)
	return nil
}

// Orders fetches the merchant's recent orders.
func (c *Client) Orders(ctx context.Context, accessToken string) ([]Order, error) {
	var orders []Order
	if err := c.list(ctx, ResourceOrders, accessToken, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Products fetches the merchant's products.
func (c *Client) Products(ctx context.Context, accessToken string) ([]Product, error) {
	var products []Product
	if err := c.list(ctx, ResourceProducts, accessToken, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Customers fetches the merchant's customers.
func (c *Client) Customers(ctx context.Context, accessToken string) ([]Customer, error) {
	var customers []Customer
	if err := c.list(ctx, ResourceCustomers, accessToken, &customers); err != nil {
		return nil, err
	}
	return customers, nil
}

// FetchDataset fetches all three resources concurrently and shapes them for
// the spreadsheet client. Individual resource failures degrade to empty
// sheets (logged); FetchDataset itself fails only on context cancellation.
func (c *Client) FetchDataset(
	ctx context.Context,
	merchantID, accessToken string,
) (*Dataset, error) {
	var (
		orders    []Order
		products  []Product
		customers []Customer
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if orders, err = c.Orders(gctx, accessToken); err != nil {
			log.Printf("Salla API orders fetch failed for merchant %s: %v", merchantID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if products, err = c.Products(gctx, accessToken); err != nil {
			log.Printf("Salla API products fetch failed for merchant %s: %v", merchantID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if customers, err = c.Customers(gctx, accessToken); err != nil {
			log.Printf("Salla API customers fetch failed for merchant %s: %v", merchantID, err)
		}
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return buildDataset(merchantID, orders, products, customers), nil
}
