package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"time"

	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"tijara/backend/internal/domain"
	"tijara/backend/internal/store"
)

type Store struct {
	mu              sync.RWMutex
	usersByUsername map[string]domain.UserAccount
	customersByID   map[string]domain.Customer
	productsByID    map[string]domain.Product
	packsByID       map[string]domain.Pack
	ordersByID      map[string]domain.Order
	orderIDs        []string
	auditLogs       []domain.AuditLog
}

// seedUsers builds the initial in-memory accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_EMPLOYEE_PASSWORD
// environment variables. If unset, hardcoded dev defaults are used with a
// warning printed to stdout. Production deployments use PostgreSQL (set
// DATABASE_URL) and never hit these.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	employeePwd := envOr("SEED_EMPLOYEE_PASSWORD", "employee123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_EMPLOYEE_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_EMPLOYEE_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username   string
		password   string
		role       string
		commission string
	}{
		{"admin", adminPwd, domain.RoleAdmin, "0"},
		{"employee", employeePwd, domain.RoleEmployee, "5"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			ID:         uuid.NewString(),
			UserName:   u.username,
			Password:   string(hash),
			Commission: decimal.RequireFromString(u.commission),
			Role:       u.role,
			Active:     true,
			CreatedAt:  now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	now := time.Now().UTC()

	products := []domain.Product{
		{ID: uuid.NewString(), Name: "Office Chair", Barcode: "801234000011", Price: decimal.RequireFromString("129.99"), Stock: 40, Active: true, CreatedAt: now},
		{ID: uuid.NewString(), Name: "Standing Desk", Barcode: "801234000028", Price: decimal.RequireFromString("349.00"), Stock: 15, Active: true, CreatedAt: now},
		{ID: uuid.NewString(), Name: "Monitor 27\"", Barcode: "801234000035", Price: decimal.RequireFromString("219.50"), Stock: 25, Active: true, CreatedAt: now},
		{ID: uuid.NewString(), Name: "Desk Lamp", Barcode: "801234000042", Price: decimal.RequireFromString("34.90"), Stock: 80, Active: true, CreatedAt: now},
		{ID: uuid.NewString(), Name: "Cable Kit", Barcode: "801234000059", Price: decimal.RequireFromString("12.75"), Stock: 200, Active: true, CreatedAt: now},
	}

	customers := []domain.Customer{
		{ID: uuid.NewString(), Name: "Acme Studios", Phone: "+201001112233", Address: "12 Corniche St, Alexandria", CreatedAt: now},
		{ID: uuid.NewString(), Name: "Nile Interiors", Phone: "+201004445566", Address: "4 Garden City, Cairo", CreatedAt: now},
	}

	productMap := make(map[string]domain.Product, len(products))
	for _, p := range products {
		productMap[p.ID] = p
	}
	customerMap := make(map[string]domain.Customer, len(customers))
	for _, c := range customers {
		customerMap[c.ID] = c
	}

	return &Store{
		usersByUsername: seedUsers(),
		customersByID:   customerMap,
		productsByID:    productMap,
		packsByID:       make(map[string]domain.Pack),
		ordersByID:      make(map[string]domain.Order),
		orderIDs:        make([]string, 0, 64),
		auditLogs:       make([]domain.AuditLog, 0, 128),
	}
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) (*domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(user.UserName))
	if username == "" || user.Password == "" {
		return nil, store.ErrInvalidInput
	}
	if _, exists := s.usersByUsername[username]; exists {
		return nil, store.ErrConflict
	}

	user.UserName = username
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.usersByUsername[username] = user

	created := user
	return &created, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.usersByUsername[strings.ToLower(strings.TrimSpace(username))]
	if !exists {
		return nil, store.ErrNotFound
	}
	found := user
	return &found, nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return strings.Compare(a.UserName, b.UserName)
	})
	return users, nil
}

func (s *Store) UpdateUser(_ context.Context, user domain.UserAccount) (*domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(user.UserName))
	existing, exists := s.usersByUsername[username]
	if !exists {
		return nil, store.ErrNotFound
	}

	// Password changes go through UpdateUserPassword.
	user.ID = existing.ID
	user.Password = existing.Password
	user.CreatedAt = existing.CreatedAt
	user.UserName = username
	s.usersByUsername[username] = user

	updated := user
	return &updated, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username = strings.ToLower(strings.TrimSpace(username))
	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = passwordHash
	s.usersByUsername[username] = user
	return nil
}

func (s *Store) CreateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if customer.Name == "" || customer.Phone == "" {
		return nil, store.ErrInvalidInput
	}
	if customer.ID == "" {
		customer.ID = uuid.NewString()
	}
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = time.Now().UTC()
	}
	s.customersByID[customer.ID] = customer

	created := customer
	return &created, nil
}

func (s *Store) GetCustomerByID(_ context.Context, id string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, exists := s.customersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	found := customer
	return &found, nil
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make([]domain.Customer, 0, len(s.customersByID))
	for _, customer := range s.customersByID {
		customers = append(customers, customer)
	}
	slices.SortFunc(customers, func(a, b domain.Customer) int {
		return strings.Compare(a.Name, b.Name)
	})
	return customers, nil
}

func (s *Store) UpdateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.customersByID[customer.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if customer.Name == "" || customer.Phone == "" {
		return nil, store.ErrInvalidInput
	}
	customer.CreatedAt = existing.CreatedAt
	s.customersByID[customer.ID] = customer

	updated := customer
	return &updated, nil
}

func (s *Store) DeleteCustomer(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customersByID[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.customersByID, id)
	return nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.Name == "" || product.Price.IsNegative() || product.Stock < 0 {
		return nil, store.ErrInvalidInput
	}
	for _, existing := range s.productsByID {
		if existing.Barcode != "" && existing.Barcode == product.Barcode {
			return nil, store.ErrConflict
		}
	}
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	product.Active = true
	s.productsByID[product.ID] = product

	created := product
	return &created, nil
}

func (s *Store) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.productsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	found := product
	return &found, nil
}

func (s *Store) GetProductsByIDs(_ context.Context, ids []string) (map[string]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.Product, len(ids))
	for _, id := range ids {
		if product, exists := s.productsByID[id]; exists && product.Active {
			result[id] = product
		}
	}
	return result, nil
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.productsByID))
	for _, product := range s.productsByID {
		if !product.Active {
			continue
		}
		products = append(products, product)
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		return strings.Compare(a.Name, b.Name)
	})
	return products, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.productsByID[product.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if product.Name == "" || product.Price.IsNegative() || product.Stock < 0 {
		return nil, store.ErrInvalidInput
	}
	product.CreatedAt = existing.CreatedAt
	product.Active = existing.Active
	s.productsByID[product.ID] = product

	updated := product
	return &updated, nil
}

func (s *Store) DeactivateProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, exists := s.productsByID[id]
	if !exists {
		return store.ErrNotFound
	}
	product.Active = false
	s.productsByID[id] = product
	return nil
}

func (s *Store) AdjustStock(_ context.Context, productID string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, exists := s.productsByID[productID]
	if !exists {
		return store.ErrNotFound
	}
	next := product.Stock + delta
	if next < 0 {
		return store.ErrInsufficientStock
	}
	product.Stock = next
	s.productsByID[productID] = product
	return nil
}

func (s *Store) CreatePack(_ context.Context, pack domain.Pack) (*domain.Pack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pack.Name == "" || pack.Price.IsNegative() || pack.Stock < 0 || len(pack.Products) == 0 {
		return nil, store.ErrInvalidInput
	}
	for _, line := range pack.Products {
		if _, exists := s.productsByID[line.ProductID]; !exists || line.Quantity < 1 {
			return nil, store.ErrInvalidInput
		}
	}
	if pack.ID == "" {
		pack.ID = uuid.NewString()
	}
	if pack.CreatedAt.IsZero() {
		pack.CreatedAt = time.Now().UTC()
	}
	pack.Products = slices.Clone(pack.Products)
	s.packsByID[pack.ID] = pack

	created := pack
	created.Products = slices.Clone(pack.Products)
	return &created, nil
}

func (s *Store) GetPackByID(_ context.Context, id string) (*domain.Pack, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pack, exists := s.packsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	found := pack
	found.Products = slices.Clone(pack.Products)
	return &found, nil
}

func (s *Store) ListPacks(_ context.Context) ([]domain.Pack, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	packs := make([]domain.Pack, 0, len(s.packsByID))
	for _, pack := range s.packsByID {
		pack.Products = slices.Clone(pack.Products)
		packs = append(packs, pack)
	}
	slices.SortFunc(packs, func(a, b domain.Pack) int {
		return strings.Compare(a.Name, b.Name)
	})
	return packs, nil
}

func (s *Store) UpdatePack(_ context.Context, pack domain.Pack) (*domain.Pack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.packsByID[pack.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if pack.Name == "" || pack.Price.IsNegative() || pack.Stock < 0 || len(pack.Products) == 0 {
		return nil, store.ErrInvalidInput
	}
	for _, line := range pack.Products {
		if _, ok := s.productsByID[line.ProductID]; !ok || line.Quantity < 1 {
			return nil, store.ErrInvalidInput
		}
	}
	pack.CreatedAt = existing.CreatedAt
	pack.Products = slices.Clone(pack.Products)
	s.packsByID[pack.ID] = pack

	updated := pack
	updated.Products = slices.Clone(pack.Products)
	return &updated, nil
}

func (s *Store) DeletePack(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.packsByID[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.packsByID, id)
	return nil
}

func (s *Store) CreateOrder(_ context.Context, order domain.Order) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if order.CustomerID == "" || len(order.Lines) == 0 {
		return nil, store.ErrInvalidInput
	}
	if _, exists := s.customersByID[order.CustomerID]; !exists {
		return nil, store.ErrInvalidInput
	}
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	order.Lines = slices.Clone(order.Lines)
	s.ordersByID[order.ID] = order
	s.orderIDs = append(s.orderIDs, order.ID)

	created := order
	created.Lines = slices.Clone(order.Lines)
	return &created, nil
}

func (s *Store) GetOrderByID(_ context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, exists := s.ordersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	found := s.withCustomer(order)
	return &found, nil
}

func (s *Store) ListOrders(_ context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]domain.Order, 0, len(s.orderIDs))
	for _, id := range s.orderIDs {
		order := s.ordersByID[id]
		if filter.Status != "" && order.OrderStatus != filter.Status {
			continue
		}
		if filter.CustomerID != "" && order.CustomerID != filter.CustomerID {
			continue
		}
		if filter.CreatedBy != "" && order.CreatedBy != filter.CreatedBy {
			continue
		}
		if !filter.From.IsZero() && order.CreatedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !order.CreatedAt.Before(filter.To) {
			continue
		}
		orders = append(orders, s.withCustomer(order))
		if filter.Limit > 0 && len(orders) >= filter.Limit {
			break
		}
	}
	return orders, nil
}

func (s *Store) UpdateOrderStatus(_ context.Context, id string, orderStatus string, deliveryStatus string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, exists := s.ordersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	if orderStatus != "" {
		order.OrderStatus = orderStatus
	}
	if deliveryStatus != "" {
		order.DeliveryStatus = deliveryStatus
	}
	s.ordersByID[id] = order

	updated := s.withCustomer(order)
	return &updated, nil
}

// withCustomer attaches a copy of the customer record to an order for
// response payloads. Callers must hold at least a read lock.
func (s *Store) withCustomer(order domain.Order) domain.Order {
	order.Lines = slices.Clone(order.Lines)
	if customer, exists := s.customersByID[order.CustomerID]; exists {
		c := customer
		order.Customer = &c
	}
	return order
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 100
	}

	logs := make([]domain.AuditLog, 0, limit)
	for i := len(s.auditLogs) - 1; i >= 0 && len(logs) < limit; i-- {
		entry := s.auditLogs[i]
		if !from.IsZero() && entry.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !entry.CreatedAt.Before(to) {
			continue
		}
		logs = append(logs, entry)
	}
	return logs, nil
}
