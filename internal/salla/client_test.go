package salla

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-sallagate/sallagate/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, 5*time.Second, 0, 20, metrics.NewNoopMetrics())
	return c, srv
}

func TestOrdersFetch(t *testing.T) {
	var gotAuth atomic.Value
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		assert.Equal(t, "/orders", r.URL.Path)
		assert.Equal(t, "20", r.URL.Query().Get("per_page"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"status": 200,
			"data": [{
				"id": 101,
				"reference_id": 5001,
				"status": "completed",
				"amounts": {"total": 99.5},
				"customer": {"first_name": "Sara", "last_name": "Ali", "mobile": "0555"},
				"items": [{"sku": "SKU-1", "quantity": 2, "price": 10}]
			}]
		}`))
	}))

	orders, err := c.Orders(context.Background(), "tok1")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, int64(101), orders[0].ID)
	assert.Equal(t, 99.5, orders[0].Amounts.Total)
	assert.Equal(t, "Bearer tok1", gotAuth.Load())
}

func TestListNonOKStatus(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success": false, "status": 401}`))
	}))

	_, err := c.Products(context.Background(), "stale-token")
	assert.Error(t, err)
}

func TestListRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"success": true, "status": 200, "data": []}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, 2, 20, metrics.NewNoopMetrics())
	c.http.initialRetryDelay = time.Millisecond

	_, err := c.Customers(context.Background(), "tok1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchDatasetDegradesPerResource(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/orders":
			_, _ = w.Write([]byte(`{"success": true, "status": 200,
				"data": [{"id": 1, "amounts": {"total": 10}}]}`))
		case "/products":
			// Broken resource: must not fail the whole dataset.
			w.WriteHeader(http.StatusInternalServerError)
		case "/customers":
			_, _ = w.Write([]byte(`{"success": true, "status": 200,
				"data": [{"id": 7, "first_name": "Sara", "last_name": "Ali"}]}`))
		}
	}))

	ds, err := c.FetchDataset(context.Background(), "693104445", "tok1")
	require.NoError(t, err)

	assert.Len(t, ds.Orders, 1)
	assert.Empty(t, ds.Products)
	require.Len(t, ds.Customers, 1)
	assert.Equal(t, "Sara Ali", ds.Customers[0].CustomerName)
	assert.Equal(t, "693104445", ds.Summary.MerchantID)
	assert.Equal(t, 1, ds.Summary.TotalOrders)
	assert.Equal(t, 0, ds.Summary.TotalProducts)
}

func TestFetchDatasetCancelledContext(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": true, "status": 200, "data": []}`))
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchDataset(ctx, "693104445", "tok1")
	assert.Error(t, err)
}

func TestBuildDatasetShaping(t *testing.T) {
	ds := buildDataset("m1",
		[]Order{{
			ID:          1,
			ReferenceID: 900,
			Status:      "completed",
			Amounts:     Amounts{Total: 30},
			Customer:    &Person{FirstName: "Sara", Mobile: "0555"},
			Receiver:    &Person{City: "Riyadh", Phone: "0111"},
			Items: []Item{
				{SKU: "A", Quantity: 2, Price: 5},
				{SKU: "B", Quantity: 1, Price: 20},
			},
		}},
		[]Product{{ID: 2, SKU: "A", Name: "Widget", Price: 5}},
		[]Customer{{ID: 3}},
	)

	require.Len(t, ds.Orders, 1)
	assert.Equal(t, "A, B", ds.Orders[0].ItemSKUs)
	assert.Equal(t, 30.0, ds.Orders[0].ItemsValue)
	assert.Equal(t, "0555", ds.Orders[0].CustomerPhone)
	assert.Equal(t, "Riyadh", ds.Orders[0].ShippingCity)

	require.Len(t, ds.Products, 1)
	// No sale price set: offer falls back to the list price.
	assert.Equal(t, 5.0, ds.Products[0].PriceOffer)

	require.Len(t, ds.Customers, 1)
	assert.Equal(t, "Unknown", ds.Customers[0].CustomerName)
}
