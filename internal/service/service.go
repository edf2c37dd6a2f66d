package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tijara/backend/internal/domain"
	"tijara/backend/internal/estimate"
	"tijara/backend/internal/quote"
	"tijara/backend/internal/store"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo    store.Repository
	costing *estimate.Repository
	sales   *estimate.Repository
}

func New(repo store.Repository, costing *estimate.Repository, sales *estimate.Repository) *Service {
	return &Service{
		repo:    repo,
		costing: costing,
		sales:   sales,
	}
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

func (s *Service) CreateCustomer(ctx context.Context, req domain.CustomerCreateRequest) (domain.Customer, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Name == "" || req.Phone == "" {
		return domain.Customer{}, store.ErrInvalidInput
	}

	created, err := s.repo.CreateCustomer(ctx, domain.Customer{
		Name:      req.Name,
		Phone:     req.Phone,
		Address:   strings.TrimSpace(req.Address),
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return domain.Customer{}, err
	}

	s.logAudit(ctx, "customer_create", "customer", created.ID, fmt.Sprintf("name=%s", created.Name))
	return *created, nil
}

func (s *Service) GetCustomerDetail(ctx context.Context, id string) (domain.CustomerDetail, error) {
	customer, err := s.repo.GetCustomerByID(ctx, id)
	if err != nil {
		return domain.CustomerDetail{}, err
	}

	orders, err := s.repo.ListOrders(ctx, domain.OrderFilter{CustomerID: id})
	if err != nil {
		return domain.CustomerDetail{}, err
	}

	return domain.CustomerDetail{Customer: *customer, Orders: orders}, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, id string, req domain.CustomerUpdateRequest) (domain.Customer, error) {
	existing, err := s.repo.GetCustomerByID(ctx, id)
	if err != nil {
		return domain.Customer{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Customer{}, store.ErrInvalidInput
		}
		updated.Name = name
	}
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		if phone == "" {
			return domain.Customer{}, store.ErrInvalidInput
		}
		updated.Phone = phone
	}
	if req.Address != nil {
		updated.Address = strings.TrimSpace(*req.Address)
	}

	saved, err := s.repo.UpdateCustomer(ctx, updated)
	if err != nil {
		return domain.Customer{}, err
	}

	s.logAudit(ctx, "customer_update", "customer", saved.ID, fmt.Sprintf("name=%s", saved.Name))
	return *saved, nil
}

func (s *Service) DeleteCustomer(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return fmt.Errorf("admin role required")
	}

	if err := s.repo.DeleteCustomer(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "customer_delete", "customer", id, "")
	return nil
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.Product{}, fmt.Errorf("admin role required")
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Barcode = strings.TrimSpace(req.Barcode)
	if req.Name == "" || req.Price.IsNegative() || req.Stock < 0 {
		return domain.Product{}, store.ErrInvalidInput
	}

	created, err := s.repo.CreateProduct(ctx, domain.Product{
		Name:      req.Name,
		Barcode:   req.Barcode,
		Price:     req.Price,
		Stock:     req.Stock,
		ImageID:   strings.TrimSpace(req.ImageID),
		Active:    true,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_create", "product", created.ID, fmt.Sprintf("name=%s,price=%s,stock=%d", created.Name, created.Price, created.Stock))
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.Product{}, fmt.Errorf("admin role required")
	}

	existing, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, store.ErrInvalidInput
		}
		updated.Name = name
	}
	if req.Barcode != nil {
		updated.Barcode = strings.TrimSpace(*req.Barcode)
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return domain.Product{}, store.ErrInvalidInput
		}
		updated.Price = *req.Price
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return domain.Product{}, store.ErrInvalidInput
		}
		updated.Stock = *req.Stock
	}
	if req.ImageID != nil {
		updated.ImageID = strings.TrimSpace(*req.ImageID)
	}

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_update", "product", saved.ID, fmt.Sprintf("name=%s,price=%s,stock=%d", saved.Name, saved.Price, saved.Stock))
	return *saved, nil
}

func (s *Service) DeactivateProduct(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return fmt.Errorf("admin role required")
	}

	if err := s.repo.DeactivateProduct(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "product_deactivate", "product", id, "")
	return nil
}

func (s *Service) ListPacks(ctx context.Context) ([]domain.Pack, error) {
	return s.repo.ListPacks(ctx)
}

func (s *Service) CreatePack(ctx context.Context, req domain.PackCreateRequest) (domain.Pack, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.Pack{}, fmt.Errorf("admin role required")
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Price.IsNegative() || req.Stock < 0 || len(req.Products) == 0 {
		return domain.Pack{}, store.ErrInvalidInput
	}
	if err := s.validatePackLines(ctx, req.Products); err != nil {
		return domain.Pack{}, err
	}

	created, err := s.repo.CreatePack(ctx, domain.Pack{
		Name:      req.Name,
		Price:     req.Price,
		Stock:     req.Stock,
		Products:  req.Products,
		ImageID:   strings.TrimSpace(req.ImageID),
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return domain.Pack{}, err
	}

	s.logAudit(ctx, "pack_create", "pack", created.ID, fmt.Sprintf("name=%s,products=%d", created.Name, len(created.Products)))
	return *created, nil
}

func (s *Service) UpdatePack(ctx context.Context, id string, req domain.PackUpdateRequest) (domain.Pack, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.Pack{}, fmt.Errorf("admin role required")
	}

	existing, err := s.repo.GetPackByID(ctx, id)
	if err != nil {
		return domain.Pack{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Pack{}, store.ErrInvalidInput
		}
		updated.Name = name
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return domain.Pack{}, store.ErrInvalidInput
		}
		updated.Price = *req.Price
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return domain.Pack{}, store.ErrInvalidInput
		}
		updated.Stock = *req.Stock
	}
	if req.Products != nil {
		if len(*req.Products) == 0 {
			return domain.Pack{}, store.ErrInvalidInput
		}
		if err := s.validatePackLines(ctx, *req.Products); err != nil {
			return domain.Pack{}, err
		}
		updated.Products = *req.Products
	}
	if req.ImageID != nil {
		updated.ImageID = strings.TrimSpace(*req.ImageID)
	}

	saved, err := s.repo.UpdatePack(ctx, updated)
	if err != nil {
		return domain.Pack{}, err
	}

	s.logAudit(ctx, "pack_update", "pack", saved.ID, fmt.Sprintf("name=%s", saved.Name))
	return *saved, nil
}

func (s *Service) DeletePack(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return fmt.Errorf("admin role required")
	}

	if err := s.repo.DeletePack(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "pack_delete", "pack", id, "")
	return nil
}

func (s *Service) validatePackLines(ctx context.Context, lines []domain.PackProduct) error {
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		if line.ProductID == "" || line.Quantity < 1 {
			return store.ErrInvalidInput
		}
		ids = append(ids, line.ProductID)
	}
	products, err := s.repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if _, exists := products[line.ProductID]; !exists {
			return fmt.Errorf("%w: unknown product %s", store.ErrInvalidInput, line.ProductID)
		}
	}
	return nil
}

// CreateOrder prices the order from current product prices, decrements stock
// per line, and records who created it. Employees always get the computed
// price; an admin may override it with a manual price on the request.
func (s *Service) CreateOrder(ctx context.Context, req domain.OrderCreateRequest) (domain.Order, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.Order{}, fmt.Errorf("authentication required")
	}

	if req.CustomerID == "" || len(req.Lines) == 0 {
		return domain.Order{}, store.ErrInvalidInput
	}
	if _, err := s.repo.GetCustomerByID(ctx, req.CustomerID); err != nil {
		return domain.Order{}, err
	}

	var shippingDate *time.Time
	if strings.TrimSpace(req.ShippingDate) != "" {
		parsed, err := time.Parse("2006-01-02", req.ShippingDate)
		if err != nil {
			return domain.Order{}, store.ErrInvalidInput
		}
		at := parsed.UTC()
		shippingDate = &at
	}

	ids := make([]string, 0, len(req.Lines))
	for _, line := range req.Lines {
		if line.ProductID == "" || line.Quantity < 1 {
			return domain.Order{}, store.ErrInvalidInput
		}
		ids = append(ids, line.ProductID)
	}
	products, err := s.repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return domain.Order{}, err
	}

	lines := make([]domain.OrderLine, 0, len(req.Lines))
	total := decimal.Zero
	for _, line := range req.Lines {
		product, exists := products[line.ProductID]
		if !exists {
			return domain.Order{}, fmt.Errorf("%w: unknown product %s", store.ErrInvalidInput, line.ProductID)
		}
		lines = append(lines, domain.OrderLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
		})
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	price := total
	if actor.Role == domain.RoleAdmin && req.Price.IsPositive() {
		price = req.Price
	}

	adjusted := make([]domain.OrderLine, 0, len(lines))
	for _, line := range lines {
		if err := s.repo.AdjustStock(ctx, line.ProductID, -line.Quantity); err != nil {
			s.restoreStock(ctx, adjusted)
			return domain.Order{}, err
		}
		adjusted = append(adjusted, line)
	}

	created, err := s.repo.CreateOrder(ctx, domain.Order{
		Price:          price,
		OrderStatus:    domain.OrderStatusPending,
		DeliveryStatus: domain.DeliveryStatusPending,
		Note:           strings.TrimSpace(req.Note),
		ShippingDate:   shippingDate,
		ContactMethod:  strings.TrimSpace(req.ContactMethod),
		CustomerID:     req.CustomerID,
		Lines:          lines,
		CreatedBy:      actor.Username,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		s.restoreStock(ctx, adjusted)
		return domain.Order{}, err
	}

	s.logAudit(ctx, "order_create", "order", created.ID, fmt.Sprintf("customer=%s,price=%s,lines=%d", created.CustomerID, created.Price, len(created.Lines)))
	return *created, nil
}

func (s *Service) restoreStock(ctx context.Context, lines []domain.OrderLine) {
	for _, line := range lines {
		if err := s.repo.AdjustStock(ctx, line.ProductID, line.Quantity); err != nil {
			log.Printf("[service] WARN: failed to restore stock product=%s qty=%d: %v", line.ProductID, line.Quantity, err)
		}
	}
}

func (s *Service) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	order, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	return *order, nil
}

func (s *Service) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	actor, ok := ActorFromContext(ctx)
	if ok && actor.Role != domain.RoleAdmin {
		// Employees only see their own orders.
		filter.CreatedBy = actor.Username
	}
	return s.repo.ListOrders(ctx, filter)
}

// UpdateOrderStatus moves an order through its lifecycle. Cancelling a live
// order restocks every line once; a cancelled order cannot be reopened.
func (s *Service) UpdateOrderStatus(ctx context.Context, id string, req domain.OrderStatusUpdateRequest) (domain.Order, error) {
	orderStatus := ""
	if req.OrderStatus != nil {
		orderStatus = strings.ToLower(strings.TrimSpace(*req.OrderStatus))
		if !isOrderStatus(orderStatus) {
			return domain.Order{}, store.ErrInvalidInput
		}
	}
	deliveryStatus := ""
	if req.DeliveryStatus != nil {
		deliveryStatus = strings.ToLower(strings.TrimSpace(*req.DeliveryStatus))
		if !isDeliveryStatus(deliveryStatus) {
			return domain.Order{}, store.ErrInvalidInput
		}
	}
	if orderStatus == "" && deliveryStatus == "" {
		return domain.Order{}, store.ErrInvalidInput
	}

	existing, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if existing.OrderStatus == domain.OrderStatusCancelled {
		return domain.Order{}, fmt.Errorf("%w: cancelled order cannot change status", store.ErrInvalidInput)
	}

	updated, err := s.repo.UpdateOrderStatus(ctx, id, orderStatus, deliveryStatus)
	if err != nil {
		return domain.Order{}, err
	}

	if orderStatus == domain.OrderStatusCancelled {
		s.restoreStock(ctx, existing.Lines)
	}

	s.logAudit(ctx, "order_status_update", "order", id, fmt.Sprintf("order_status=%s,delivery_status=%s", orderStatus, deliveryStatus))
	return *updated, nil
}

// CommissionSummary totals today's non-cancelled revenue for one user and
// applies their commission rate to it.
func (s *Service) CommissionSummary(ctx context.Context, account domain.UserAccount) (domain.CommissionSummary, []domain.Order, error) {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	orders, err := s.repo.ListOrders(ctx, domain.OrderFilter{
		CreatedBy: account.UserName,
		From:      from,
	})
	if err != nil {
		return domain.CommissionSummary{}, nil, err
	}

	revenue := decimal.Zero
	counted := make([]domain.Order, 0, len(orders))
	for _, order := range orders {
		if order.OrderStatus == domain.OrderStatusCancelled {
			continue
		}
		revenue = revenue.Add(order.Price)
		counted = append(counted, order)
	}

	summary := domain.CommissionSummary{
		TotalRevenue:     revenue,
		UserCommission:   revenue.Mul(account.Commission).Div(decimal.NewFromInt(100)),
		TodayOrdersCount: len(counted),
	}
	return summary, counted, nil
}

func (s *Service) ListAuditLogs(ctx context.Context, date string, limit int) ([]domain.AuditLog, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("admin role required")
	}
	if limit < 1 {
		limit = 100
	}

	var from time.Time
	if strings.TrimSpace(date) == "" {
		from = time.Now().UTC().Add(-24 * time.Hour)
	} else {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, store.ErrInvalidInput
		}
		from = parsed.UTC()
	}
	to := from.Add(24 * time.Hour)

	return s.repo.ListAuditLogs(ctx, from, to, limit)
}

// PreviewEstimate runs the calculator over the request without saving
// anything. The costing page never carries a commission.
func (s *Service) PreviewEstimate(ctx context.Context, req domain.EstimateCreateRequest) (domain.QuoteBreakdownResponse, error) {
	ledger, err := buildLedger(req.Items)
	if err != nil {
		return domain.QuoteBreakdownResponse{}, err
	}
	params := quote.ParseParameters(req.LaborCost, req.OverheadPercentage, req.ProfitMarginPercentage, "")
	breakdown := quote.Calculate(ledger.MaterialsSubtotal(), params)
	return breakdownResponse(breakdown, params), nil
}

func (s *Service) PreviewSalesEstimate(ctx context.Context, req domain.EstimateCreateRequest) (domain.QuoteBreakdownResponse, error) {
	ledger, err := buildLedger(req.Items)
	if err != nil {
		return domain.QuoteBreakdownResponse{}, err
	}
	params := quote.ParseParameters(req.LaborCost, req.OverheadPercentage, req.ProfitMarginPercentage, req.CommissionPercentage)
	sales := quote.CalculateSales(ledger.MaterialsSubtotal(), params)

	resp := breakdownResponse(sales.Breakdown, params)
	resp.CommissionAmount = sales.CommissionAmount.StringFixed(2)
	resp.NetProfit = sales.NetProfit.StringFixed(2)
	return resp, nil
}

func (s *Service) SaveEstimate(ctx context.Context, req domain.EstimateCreateRequest) (estimate.Estimate, error) {
	saved, err := s.saveEstimate(ctx, s.costing, req, "")
	if err != nil {
		return estimate.Estimate{}, err
	}
	s.logAudit(ctx, "estimate_save", "estimate", saved.ID, fmt.Sprintf("name=%s,final=%s", saved.Name, saved.Totals.FinalQuote.StringFixed(2)))
	return saved, nil
}

func (s *Service) SaveSalesEstimate(ctx context.Context, req domain.EstimateCreateRequest) (estimate.Estimate, error) {
	saved, err := s.saveEstimate(ctx, s.sales, req, req.CommissionPercentage)
	if err != nil {
		return estimate.Estimate{}, err
	}
	s.logAudit(ctx, "sales_estimate_save", "sales_estimate", saved.ID, fmt.Sprintf("name=%s,final=%s", saved.Name, saved.Totals.FinalQuote.StringFixed(2)))
	return saved, nil
}

func (s *Service) saveEstimate(ctx context.Context, repo *estimate.Repository, req domain.EstimateCreateRequest, commissionPct string) (estimate.Estimate, error) {
	ledger, err := buildLedger(req.Items)
	if err != nil {
		return estimate.Estimate{}, err
	}
	params := quote.ParseParameters(req.LaborCost, req.OverheadPercentage, req.ProfitMarginPercentage, commissionPct)
	return repo.Save(ctx, req.Name, req.Description, ledger, params)
}

func (s *Service) ListEstimates(ctx context.Context) ([]estimate.Estimate, error) {
	return s.costing.List(ctx)
}

func (s *Service) ListSalesEstimates(ctx context.Context) ([]estimate.Estimate, error) {
	return s.sales.List(ctx)
}

// buildLedger replays the request rows through the ledger so each row gets the
// same validation as interactive edits. The first invalid row aborts.
func buildLedger(items []domain.EstimateLineInput) (*quote.Ledger, error) {
	ledger := quote.NewLedger()
	for _, item := range items {
		if _, err := ledger.AddItem(item.Description, item.Quantity, item.UnitCost); err != nil {
			return nil, err
		}
	}
	return ledger, nil
}

func breakdownResponse(b quote.Breakdown, params quote.Parameters) domain.QuoteBreakdownResponse {
	return domain.QuoteBreakdownResponse{
		MaterialsSubtotal: b.MaterialsSubtotal.StringFixed(2),
		LaborCost:         params.LaborCost.StringFixed(2),
		Subtotal:          b.Subtotal.StringFixed(2),
		OverheadAmount:    b.OverheadAmount.StringFixed(2),
		CostWithOverhead:  b.CostWithOverhead.StringFixed(2),
		ProfitAmount:      b.ProfitAmount.StringFixed(2),
		FinalQuote:        b.FinalQuote.StringFixed(2),
	}
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     time.Now().UTC(),
	}); err != nil {
		log.Printf("[audit] WARN: failed to write audit log action=%s entity=%s/%s: %v", action, entityType, entityID, err)
	}
}

func isOrderStatus(status string) bool {
	switch status {
	case domain.OrderStatusPending, domain.OrderStatusProcessing, domain.OrderStatusCompleted, domain.OrderStatusCancelled:
		return true
	default:
		return false
	}
}

func isDeliveryStatus(status string) bool {
	switch status {
	case domain.DeliveryStatusPending, domain.DeliveryStatusShipped, domain.DeliveryStatusDelivered, domain.DeliveryStatusReturned:
		return true
	default:
		return false
	}
}
