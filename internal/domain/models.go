package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID         string          `json:"id"`
	UserName   string          `json:"user_name"`
	Phone      string          `json:"phone"`
	Commission decimal.Decimal `json:"commission"`
	Role       string          `json:"role"`
	Active     bool            `json:"active"`
	CreatedAt  time.Time       `json:"created_at"`
}

// UserAccount is the internal persistence model for auth credentials.
type UserAccount struct {
	ID         string
	UserName   string
	Phone      string
	Password   string
	Commission decimal.Decimal
	Role       string
	Active     bool
	CreatedAt  time.Time
}

type UserCreateRequest struct {
	UserName   string          `json:"user_name"`
	Phone      string          `json:"phone"`
	Password   string          `json:"password"`
	Commission decimal.Decimal `json:"commission"`
	Role       string          `json:"role"`
}

type UserUpdateRequest struct {
	Phone      *string          `json:"phone,omitempty"`
	Commission *decimal.Decimal `json:"commission,omitempty"`
	Active     *bool            `json:"active,omitempty"`
	Password   *string          `json:"password,omitempty"`
}

type LoginRequest struct {
	UserName string `json:"user_name"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	Role      string `json:"role"`
	ExpiresAt string `json:"expires_at"`
	User      User   `json:"user"`
}

// CommissionSummary aggregates an employee's order revenue and the commission
// owed on it at their configured rate.
type CommissionSummary struct {
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	UserCommission   decimal.Decimal `json:"user_commission"`
	TodayOrdersCount int             `json:"today_orders_count"`
}

type CheckAuthResponse struct {
	User    User              `json:"user"`
	Summary CommissionSummary `json:"summary"`
	Orders  []Order           `json:"orders"`
}

type Actor struct {
	Username string
	Role     string
}

type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

type CustomerCreateRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type CustomerUpdateRequest struct {
	Name    *string `json:"name,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

// CustomerDetail is the customer profile together with their order history.
type CustomerDetail struct {
	Customer Customer `json:"customer"`
	Orders   []Order  `json:"orders"`
}

type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Barcode   string          `json:"barcode"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	ImageID   string          `json:"image,omitempty"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
}

type ProductCreateRequest struct {
	Name    string          `json:"name"`
	Barcode string          `json:"barcode"`
	Price   decimal.Decimal `json:"price"`
	Stock   int             `json:"stock"`
	ImageID string          `json:"image,omitempty"`
}

type ProductUpdateRequest struct {
	Name    *string          `json:"name,omitempty"`
	Barcode *string          `json:"barcode,omitempty"`
	Price   *decimal.Decimal `json:"price,omitempty"`
	Stock   *int             `json:"stock,omitempty"`
	ImageID *string          `json:"image,omitempty"`
}

type PackProduct struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type Pack struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Products  []PackProduct   `json:"products"`
	ImageID   string          `json:"image,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type PackCreateRequest struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Products []PackProduct   `json:"products"`
	ImageID  string          `json:"image,omitempty"`
}

type PackUpdateRequest struct {
	Name     *string          `json:"name,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Stock    *int             `json:"stock,omitempty"`
	Products *[]PackProduct   `json:"products,omitempty"`
	ImageID  *string          `json:"image,omitempty"`
}

const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

const (
	DeliveryStatusPending   = "pending"
	DeliveryStatusShipped   = "shipped"
	DeliveryStatusDelivered = "delivered"
	DeliveryStatusReturned  = "returned"
)

type OrderLine struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type Order struct {
	ID             string          `json:"id"`
	Price          decimal.Decimal `json:"price"`
	OrderStatus    string          `json:"order_status"`
	DeliveryStatus string          `json:"delivery_status"`
	Note           string          `json:"note,omitempty"`
	ShippingDate   *time.Time      `json:"shipping_date,omitempty"`
	ContactMethod  string          `json:"contact_method"`
	CustomerID     string          `json:"customer_id"`
	Customer       *Customer       `json:"customer,omitempty"`
	Lines          []OrderLine     `json:"products"`
	CreatedBy      string          `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
}

type OrderLineInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type OrderCreateRequest struct {
	CustomerID    string           `json:"customer_id"`
	ContactMethod string           `json:"contact_method"`
	Note          string           `json:"note"`
	ShippingDate  string           `json:"shipping_date,omitempty"`
	Lines         []OrderLineInput `json:"products"`
	Price         decimal.Decimal  `json:"price"`
}

type OrderStatusUpdateRequest struct {
	OrderStatus    *string `json:"order_status,omitempty"`
	DeliveryStatus *string `json:"delivery_status,omitempty"`
}

type OrderFilter struct {
	Status     string
	CustomerID string
	CreatedBy  string
	From       time.Time
	To         time.Time
	Limit      int
}

type AuditLog struct {
	ID            string    `json:"id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

type Media struct {
	ID          string    `json:"id"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

// EstimateLineInput carries one cost item exactly as typed into the estimate
// form. Numeric fields stay strings here; the quote ledger parses and
// validates them.
type EstimateLineInput struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitCost    string `json:"unit_cost"`
}

// EstimateCreateRequest is shared by the costing and sales pages. The
// percentage and labor fields are optional form strings normalized to zero
// when absent or unparseable; CommissionPercentage is only honored by the
// sales variant.
type EstimateCreateRequest struct {
	Name                   string              `json:"name"`
	Description            string              `json:"description"`
	Items                  []EstimateLineInput `json:"items"`
	LaborCost              string              `json:"labor_cost"`
	OverheadPercentage     string              `json:"overhead_percentage"`
	ProfitMarginPercentage string              `json:"profit_margin_percentage"`
	CommissionPercentage   string              `json:"commission_percentage"`
}

// QuoteBreakdownResponse is the presentation form of a breakdown: every
// amount rounded to two decimals as a string. Commission fields are empty
// for the costing variant.
type QuoteBreakdownResponse struct {
	MaterialsSubtotal string `json:"materials_subtotal"`
	LaborCost         string `json:"labor_cost"`
	Subtotal          string `json:"subtotal"`
	OverheadAmount    string `json:"overhead_amount"`
	CostWithOverhead  string `json:"cost_with_overhead"`
	ProfitAmount      string `json:"profit_amount"`
	FinalQuote        string `json:"final_quote"`
	CommissionAmount  string `json:"commission_amount,omitempty"`
	NetProfit         string `json:"net_profit,omitempty"`
}

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)
