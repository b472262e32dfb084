package salla

import (
	"strings"
	"time"
)

// Wire types: the subset of the Admin API list payloads the spreadsheet
// client consumes. Everything else in the upstream response is ignored.

type Order struct {
	ID            int64   `json:"id"`
	ReferenceID   int64   `json:"reference_id"`
	Date          string  `json:"date"`
	Status        string  `json:"status"`
	PaymentMethod string  `json:"payment_method"`
	Amounts       Amounts `json:"amounts"`
	Customer      *Person `json:"customer"`
	Receiver      *Person `json:"receiver"`
	Items         []Item  `json:"items"`
}

type Amounts struct {
	Total float64 `json:"total"`
}

type Person struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Mobile        string `json:"mobile"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	City          string `json:"city"`
	Country       string `json:"country"`
	StreetAddress string `json:"street_address"`
	UpdatedAt     string `json:"updated_at"`
}

type Item struct {
	SKU      string  `json:"sku"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type Product struct {
	ID           int64   `json:"id"`
	SKU          string  `json:"sku"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	SalePrice    float64 `json:"sale_price"`
	Quantity     int     `json:"quantity"`
	SoldQuantity int     `json:"sold_quantity"`
	Type         string  `json:"type"`
	Status       string  `json:"status"`
	URL          string  `json:"url"`
}

type Customer struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Mobile    string `json:"mobile"`
	City      string `json:"city"`
	Country   string `json:"country"`
	UpdatedAt string `json:"updated_at"`
}

// Shaped types: flat rows keyed the way the spreadsheet expects them.

type OrderRow struct {
	OrderID       int64   `json:"order_id"`
	OrderNumber   int64   `json:"order_number"`
	OrderDate     string  `json:"order_date"`
	OrderStatus   string  `json:"order_status"`
	PaymentMethod string  `json:"payment_method"`
	OrderTotal    float64 `json:"order_total"`
	CustomerName  string  `json:"customer_name"`
	CustomerPhone string  `json:"customer_phone_number"`
	ShippingCity  string  `json:"shipping_city"`
	ItemSKUs      string  `json:"product_barcodes"`
	ItemsValue    float64 `json:"product_value"`
}

type ProductRow struct {
	ProductID    int64   `json:"product_id"`
	ProductCode  string  `json:"product_code"`
	ProductName  string  `json:"product_name"`
	Price        float64 `json:"price"`
	PriceOffer   float64 `json:"price_offer"`
	StockLevel   int     `json:"current_stock_level"`
	TotalSold    int     `json:"total_sold_quantity"`
	ProductType  string  `json:"product_type"`
	Status       string  `json:"product_status"`
	ProductLink  string  `json:"product_page_link"`
}

type CustomerRow struct {
	CustomerID    int64  `json:"customer_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	City          string `json:"customer_city"`
	Country       string `json:"customer_country"`
	RegisteredAt  string `json:"registration_date"`
}

// Summary is the single-row overview sheet.
type Summary struct {
	TotalOrders    int    `json:"total_orders"`
	TotalProducts  int    `json:"total_products"`
	TotalCustomers int    `json:"total_customers"`
	MerchantID     string `json:"merchant_id"`
	LastUpdated    string `json:"last_updated"`
}

// Dataset is the full spreadsheet payload.
type Dataset struct {
	Orders    []OrderRow    `json:"orders"`
	Products  []ProductRow  `json:"products"`
	Customers []CustomerRow `json:"customers"`
	Summary   Summary       `json:"summary"`
}

func personName(p *Person) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

func personPhone(customer, receiver *Person) string {
	if customer != nil && customer.Mobile != "" {
		return customer.Mobile
	}
	if receiver != nil {
		return receiver.Phone
	}
	return ""
}

func buildDataset(
	merchantID string,
	orders []Order,
	products []Product,
	customers []Customer,
) *Dataset {
	ds := &Dataset{
		Orders:    make([]OrderRow, 0, len(orders)),
		Products:  make([]ProductRow, 0, len(products)),
		Customers: make([]CustomerRow, 0, len(customers)),
		Summary: Summary{
			TotalOrders:    len(orders),
			TotalProducts:  len(products),
			TotalCustomers: len(customers),
			MerchantID:     merchantID,
			LastUpdated:    time.Now().UTC().Format(time.RFC3339),
		},
	}

	for _, o := range orders {
		var skus []string
		var itemsValue float64
		for _, it := range o.Items {
			skus = append(skus, it.SKU)
			itemsValue += it.Price * float64(it.Quantity)
		}

		var shippingCity string
		if o.Receiver != nil {
			shippingCity = o.Receiver.City
		}

		ds.Orders = append(ds.Orders, OrderRow{
			OrderID:       o.ID,
			OrderNumber:   o.ReferenceID,
			OrderDate:     o.Date,
			OrderStatus:   o.Status,
			PaymentMethod: o.PaymentMethod,
			OrderTotal:    o.Amounts.Total,
			CustomerName:  personName(o.Customer),
			CustomerPhone: personPhone(o.Customer, o.Receiver),
			ShippingCity:  shippingCity,
			ItemSKUs:      strings.Join(skus, ", "),
			ItemsValue:    itemsValue,
		})
	}

	for _, p := range products {
		priceOffer := p.SalePrice
		if priceOffer == 0 {
			priceOffer = p.Price
		}
		ds.Products = append(ds.Products, ProductRow{
			ProductID:   p.ID,
			ProductCode: p.SKU,
			ProductName: p.Name,
			Price:       p.Price,
			PriceOffer:  priceOffer,
			StockLevel:  p.Quantity,
			TotalSold:   p.SoldQuantity,
			ProductType: p.Type,
			Status:      p.Status,
			ProductLink: p.URL,
		})
	}

	for _, c := range customers {
		name := strings.TrimSpace(c.FirstName + " " + c.LastName)
		if name == "" {
			name = "Unknown"
		}
		ds.Customers = append(ds.Customers, CustomerRow{
			CustomerID:    c.ID,
			CustomerName:  name,
			CustomerEmail: c.Email,
			CustomerPhone: c.Mobile,
			City:          c.City,
			Country:       c.Country,
			RegisteredAt:  c.UpdatedAt,
		})
	}

	return ds
}
