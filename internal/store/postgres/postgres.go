package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"tijara/backend/internal/domain"
	"tijara/backend/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) (*domain.UserAccount, error) {
	user.UserName = strings.ToLower(strings.TrimSpace(user.UserName))
	if user.UserName == "" || user.Password == "" {
		return nil, store.ErrInvalidInput
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, user_name, phone, password_hash, commission, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, user.ID, user.UserName, user.Phone, user.Password, user.Commission, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}

	created := user
	return &created, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error) {
	var user domain.UserAccount
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_name, phone, password_hash, commission, role, active, created_at
		FROM users
		WHERE user_name = $1
	`, strings.ToLower(strings.TrimSpace(username))).Scan(
		&user.ID, &user.UserName, &user.Phone, &user.Password, &user.Commission, &user.Role, &user.Active, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_name, phone, password_hash, commission, role, active, created_at
		FROM users
		ORDER BY user_name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.ID, &user.UserName, &user.Phone, &user.Password, &user.Commission, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, user domain.UserAccount) (*domain.UserAccount, error) {
	username := strings.ToLower(strings.TrimSpace(user.UserName))

	var updated domain.UserAccount
	err := s.db.QueryRowContext(ctx, `
		UPDATE users
		SET phone = $2, commission = $3, active = $4
		WHERE user_name = $1
		RETURNING id, user_name, phone, password_hash, commission, role, active, created_at
	`, username, user.Phone, user.Commission, user.Active).Scan(
		&updated.ID, &updated.UserName, &updated.Phone, &updated.Password, &updated.Commission, &updated.Role, &updated.Active, &updated.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	updated.CreatedAt = updated.CreatedAt.UTC()
	return &updated, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = $2
		WHERE user_name = $1
	`, strings.ToLower(strings.TrimSpace(username)), passwordHash)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	if customer.Name == "" || customer.Phone == "" {
		return nil, store.ErrInvalidInput
	}
	if customer.ID == "" {
		customer.ID = uuid.NewString()
	}
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, phone, address, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, customer.ID, customer.Name, customer.Phone, customer.Address, customer.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}

	created := customer
	return &created, nil
}

func (s *Store) GetCustomerByID(ctx context.Context, id string) (*domain.Customer, error) {
	var customer domain.Customer
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, phone, address, created_at
		FROM customers
		WHERE id = $1
	`, id).Scan(&customer.ID, &customer.Name, &customer.Phone, &customer.Address, &customer.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	customer.CreatedAt = customer.CreatedAt.UTC()
	return &customer, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, phone, address, created_at
		FROM customers
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, 64)
	for rows.Next() {
		var customer domain.Customer
		if err := rows.Scan(&customer.ID, &customer.Name, &customer.Phone, &customer.Address, &customer.CreatedAt); err != nil {
			return nil, err
		}
		customer.CreatedAt = customer.CreatedAt.UTC()
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return customers, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	if customer.Name == "" || customer.Phone == "" {
		return nil, store.ErrInvalidInput
	}

	var updated domain.Customer
	err := s.db.QueryRowContext(ctx, `
		UPDATE customers
		SET name = $2, phone = $3, address = $4
		WHERE id = $1
		RETURNING id, name, phone, address, created_at
	`, customer.ID, customer.Name, customer.Phone, customer.Address).Scan(
		&updated.ID, &updated.Name, &updated.Phone, &updated.Address, &updated.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	updated.CreatedAt = updated.CreatedAt.UTC()
	return &updated, nil
}

func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.Price.IsNegative() || product.Stock < 0 {
		return nil, store.ErrInvalidInput
	}
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	product.Active = true

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, barcode, price, stock, image_id, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, product.ID, product.Name, nullIfEmpty(product.Barcode), product.Price, product.Stock, nullIfEmpty(product.ImageID), product.Active, product.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}

	created := product
	return &created, nil
}

func (s *Store) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	var barcode, imageID sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, barcode, price, stock, image_id, active, created_at
		FROM products
		WHERE id = $1
	`, id).Scan(&product.ID, &product.Name, &barcode, &product.Price, &product.Stock, &imageID, &product.Active, &product.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	product.Barcode = barcode.String
	product.ImageID = imageID.String
	product.CreatedAt = product.CreatedAt.UTC()
	return &product, nil
}

func (s *Store) GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	result := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, barcode, price, stock, image_id, active, created_at
		FROM products
		WHERE active = true AND id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var product domain.Product
		var barcode, imageID sql.NullString
		if err := rows.Scan(&product.ID, &product.Name, &barcode, &product.Price, &product.Stock, &imageID, &product.Active, &product.CreatedAt); err != nil {
			return nil, err
		}
		product.Barcode = barcode.String
		product.ImageID = imageID.String
		product.CreatedAt = product.CreatedAt.UTC()
		result[product.ID] = product
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, barcode, price, stock, image_id, active, created_at
		FROM products
		WHERE active = true
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 128)
	for rows.Next() {
		var product domain.Product
		var barcode, imageID sql.NullString
		if err := rows.Scan(&product.ID, &product.Name, &barcode, &product.Price, &product.Stock, &imageID, &product.Active, &product.CreatedAt); err != nil {
			return nil, err
		}
		product.Barcode = barcode.String
		product.ImageID = imageID.String
		product.CreatedAt = product.CreatedAt.UTC()
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.Price.IsNegative() || product.Stock < 0 {
		return nil, store.ErrInvalidInput
	}

	var updated domain.Product
	var barcode, imageID sql.NullString
	err := s.db.QueryRowContext(ctx, `
		UPDATE products
		SET name = $2, barcode = $3, price = $4, stock = $5, image_id = $6
		WHERE id = $1
		RETURNING id, name, barcode, price, stock, image_id, active, created_at
	`, product.ID, product.Name, nullIfEmpty(product.Barcode), product.Price, product.Stock, nullIfEmpty(product.ImageID)).Scan(
		&updated.ID, &updated.Name, &barcode, &updated.Price, &updated.Stock, &imageID, &updated.Active, &updated.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	updated.Barcode = barcode.String
	updated.ImageID = imageID.String
	updated.CreatedAt = updated.CreatedAt.UTC()
	return &updated, nil
}

func (s *Store) DeactivateProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET active = false
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// AdjustStock applies a signed delta; the WHERE guard makes underflow a no-op
// rather than a constraint error, so a zero-row update distinguishes
// not-found from insufficient stock with a follow-up lookup.
func (s *Store) AdjustStock(ctx context.Context, productID string, delta int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock + $2
		WHERE id = $1 AND stock + $2 >= 0
	`, productID, delta)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return store.ErrNotFound
		}
		return store.ErrInsufficientStock
	}
	return nil
}

func (s *Store) CreatePack(ctx context.Context, pack domain.Pack) (*domain.Pack, error) {
	if pack.Name == "" || pack.Price.IsNegative() || pack.Stock < 0 || len(pack.Products) == 0 {
		return nil, store.ErrInvalidInput
	}
	if pack.ID == "" {
		pack.ID = uuid.NewString()
	}
	if pack.CreatedAt.IsZero() {
		pack.CreatedAt = time.Now().UTC()
	}

	lines, err := json.Marshal(pack.Products)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO packs (id, name, price, stock, products, image_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, pack.ID, pack.Name, pack.Price, pack.Stock, lines, nullIfEmpty(pack.ImageID), pack.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}

	created := pack
	return &created, nil
}

func (s *Store) GetPackByID(ctx context.Context, id string) (*domain.Pack, error) {
	var pack domain.Pack
	var lines []byte
	var imageID sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, price, stock, products, image_id, created_at
		FROM packs
		WHERE id = $1
	`, id).Scan(&pack.ID, &pack.Name, &pack.Price, &pack.Stock, &lines, &imageID, &pack.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(lines, &pack.Products); err != nil {
		return nil, err
	}
	pack.ImageID = imageID.String
	pack.CreatedAt = pack.CreatedAt.UTC()
	return &pack, nil
}

func (s *Store) ListPacks(ctx context.Context) ([]domain.Pack, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, price, stock, products, image_id, created_at
		FROM packs
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	packs := make([]domain.Pack, 0, 32)
	for rows.Next() {
		var pack domain.Pack
		var lines []byte
		var imageID sql.NullString
		if err := rows.Scan(&pack.ID, &pack.Name, &pack.Price, &pack.Stock, &lines, &imageID, &pack.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(lines, &pack.Products); err != nil {
			return nil, err
		}
		pack.ImageID = imageID.String
		pack.CreatedAt = pack.CreatedAt.UTC()
		packs = append(packs, pack)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return packs, nil
}

func (s *Store) UpdatePack(ctx context.Context, pack domain.Pack) (*domain.Pack, error) {
	if pack.Name == "" || pack.Price.IsNegative() || pack.Stock < 0 || len(pack.Products) == 0 {
		return nil, store.ErrInvalidInput
	}

	lines, err := json.Marshal(pack.Products)
	if err != nil {
		return nil, err
	}

	var updated domain.Pack
	var storedLines []byte
	var imageID sql.NullString
	err = s.db.QueryRowContext(ctx, `
		UPDATE packs
		SET name = $2, price = $3, stock = $4, products = $5, image_id = $6
		WHERE id = $1
		RETURNING id, name, price, stock, products, image_id, created_at
	`, pack.ID, pack.Name, pack.Price, pack.Stock, lines, nullIfEmpty(pack.ImageID)).Scan(
		&updated.ID, &updated.Name, &updated.Price, &updated.Stock, &storedLines, &imageID, &updated.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(storedLines, &updated.Products); err != nil {
		return nil, err
	}
	updated.ImageID = imageID.String
	updated.CreatedAt = updated.CreatedAt.UTC()
	return &updated, nil
}

func (s *Store) DeletePack(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM packs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error) {
	if order.CustomerID == "" || len(order.Lines) == 0 {
		return nil, store.ErrInvalidInput
	}
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	lines, err := json.Marshal(order.Lines)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO orders (
			id, price, order_status, delivery_status, note, shipping_date,
			contact_method, customer_id, products, created_by, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, order.ID, order.Price, order.OrderStatus, order.DeliveryStatus, order.Note, nullTime(order.ShippingDate),
		order.ContactMethod, order.CustomerID, lines, order.CreatedBy, order.CreatedAt)
	if err != nil {
		return nil, err
	}

	created := order
	return &created, nil
}

const orderSelect = `
	SELECT o.id, o.price, o.order_status, o.delivery_status, o.note, o.shipping_date,
		o.contact_method, o.customer_id, o.products, o.created_by, o.created_at,
		c.id, c.name, c.phone, c.address, c.created_at
	FROM orders o
	JOIN customers c ON c.id = o.customer_id
`

func scanOrder(scan func(dest ...any) error) (domain.Order, error) {
	var order domain.Order
	var customer domain.Customer
	var lines []byte
	var shippingDate sql.NullTime
	err := scan(
		&order.ID, &order.Price, &order.OrderStatus, &order.DeliveryStatus, &order.Note, &shippingDate,
		&order.ContactMethod, &order.CustomerID, &lines, &order.CreatedBy, &order.CreatedAt,
		&customer.ID, &customer.Name, &customer.Phone, &customer.Address, &customer.CreatedAt,
	)
	if err != nil {
		return order, err
	}
	if err := json.Unmarshal(lines, &order.Lines); err != nil {
		return order, err
	}
	if shippingDate.Valid {
		at := shippingDate.Time.UTC()
		order.ShippingDate = &at
	}
	order.CreatedAt = order.CreatedAt.UTC()
	customer.CreatedAt = customer.CreatedAt.UTC()
	order.Customer = &customer
	return order, nil
}

func (s *Store) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	row := s.db.QueryRowContext(ctx, orderSelect+` WHERE o.id = $1`, id)
	order, err := scanOrder(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (s *Store) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	limit := filter.Limit
	if limit < 1 {
		limit = 200
	}

	rows, err := s.db.QueryContext(ctx, orderSelect+`
		WHERE ($1 = '' OR o.order_status = $1)
			AND ($2 = '' OR o.customer_id = $2)
			AND ($3 = '' OR o.created_by = $3)
			AND ($4::timestamptz IS NULL OR o.created_at >= $4)
			AND ($5::timestamptz IS NULL OR o.created_at < $5)
		ORDER BY o.created_at ASC
		LIMIT $6
	`, filter.Status, filter.CustomerID, filter.CreatedBy, nullTimeValue(filter.From), nullTimeValue(filter.To), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, limit)
	for rows.Next() {
		order, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id string, orderStatus string, deliveryStatus string) (*domain.Order, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET order_status = CASE WHEN $2 = '' THEN order_status ELSE $2 END,
			delivery_status = CASE WHEN $3 = '' THEN delivery_status ELSE $3 END
		WHERE id = $1
	`, id, orderStatus, deliveryStatus)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetOrderByID(ctx, id)
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.ID, entry.ActorUsername, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
			AND ($2::timestamptz IS NULL OR created_at < $2)
		ORDER BY created_at DESC
		LIMIT $3
	`, nullTimeValue(from), nullTimeValue(to), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.ActorUsername, &entry.ActorRole, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nullIfEmpty(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullTime(value *time.Time) any {
	if value == nil || value.IsZero() {
		return nil
	}
	return *value
}

func nullTimeValue(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return value
}
