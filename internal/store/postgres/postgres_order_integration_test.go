package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tijara/backend/internal/domain"
	"tijara/backend/internal/store"
)

func TestOrderLifecycleAdjustsStock(t *testing.T) {
	databaseURL := os.Getenv("TIJARA_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set TIJARA_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	productID := fmt.Sprintf("prod-order-it-%d", stamp)
	customerID := fmt.Sprintf("cust-order-it-%d", stamp)
	orderID := fmt.Sprintf("order-it-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, customerID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, productID)
	})

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, barcode, price, stock, image_id, active, created_at)
		VALUES ($1, 'Order IT Chair', NULL, 120.50, 10, NULL, true, now())
	`, productID); err != nil {
		t.Fatalf("insert product: %v", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, phone, address, created_at)
		VALUES ($1, 'Order IT Customer', '+201000000000', 'Test St', now())
	`, customerID); err != nil {
		t.Fatalf("insert customer: %v", err)
	}

	if err := s.AdjustStock(ctx, productID, -3); err != nil {
		t.Fatalf("adjust stock: %v", err)
	}

	created, err := s.CreateOrder(ctx, domain.Order{
		ID:             orderID,
		Price:          decimal.RequireFromString("361.50"),
		OrderStatus:    domain.OrderStatusPending,
		DeliveryStatus: domain.DeliveryStatusPending,
		ContactMethod:  "phone",
		CustomerID:     customerID,
		Lines: []domain.OrderLine{
			{ProductID: productID, Quantity: 3, UnitPrice: decimal.RequireFromString("120.50")},
		},
		CreatedBy: "employee",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	fetched, err := s.GetOrderByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if fetched.Customer == nil || fetched.Customer.ID != customerID {
		t.Fatalf("expected customer joined onto order, got %+v", fetched.Customer)
	}
	if len(fetched.Lines) != 1 || fetched.Lines[0].Quantity != 3 {
		t.Fatalf("unexpected order lines: %+v", fetched.Lines)
	}

	product, err := s.GetProductByID(ctx, productID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.Stock != 7 {
		t.Fatalf("expected stock 7 after order, got %d", product.Stock)
	}

	if err := s.AdjustStock(ctx, productID, -8); !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	updated, err := s.UpdateOrderStatus(ctx, orderID, domain.OrderStatusCompleted, domain.DeliveryStatusDelivered)
	if err != nil {
		t.Fatalf("update order status: %v", err)
	}
	if updated.OrderStatus != domain.OrderStatusCompleted || updated.DeliveryStatus != domain.DeliveryStatusDelivered {
		t.Fatalf("unexpected statuses: %s / %s", updated.OrderStatus, updated.DeliveryStatus)
	}
}
