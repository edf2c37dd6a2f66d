package httpapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"tijara/backend/internal/domain"
)

type AuthManager struct {
	mu        sync.RWMutex
	secret    []byte
	tokenTTL  time.Duration
	userStore UserStore
	users     map[string]domain.UserAccount
}

type UserStore interface {
	CreateUser(ctx context.Context, user domain.UserAccount) (*domain.UserAccount, error)
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUser(ctx context.Context, user domain.UserAccount) (*domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, passwordHash string) error
}

type dashboardClaims struct {
	jwtlib.RegisteredClaims
	Role string `json:"role"`
}

func NewAuthManager(secret string, tokenTTL time.Duration, userStore UserStore) *AuthManager {
	if secret == "" {
		secret = "dev-change-me"
	}
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}

	manager := &AuthManager{
		secret:    []byte(secret),
		tokenTTL:  tokenTTL,
		userStore: userStore,
		users:     make(map[string]domain.UserAccount),
	}
	// context.Background() is appropriate here because this is a startup operation
	// that runs before any request context exists.
	manager.bootstrapUsers(context.Background())
	return manager
}

func (a *AuthManager) Login(req domain.LoginRequest) (domain.LoginResponse, error) {
	// bootstrapUsers runs on every login to pick up accounts added outside this
	// process (e.g. directly in postgres).
	a.bootstrapUsers(context.Background())
	username := strings.ToLower(strings.TrimSpace(req.UserName))

	a.mu.RLock()
	account, ok := a.users[username]
	a.mu.RUnlock()
	if !ok {
		return domain.LoginResponse{}, errors.New("invalid credentials")
	}

	if !verifyPassword(account.Password, req.Password) {
		return domain.LoginResponse{}, errors.New("invalid credentials")
	}
	if !account.Active {
		return domain.LoginResponse{}, errors.New("account is inactive")
	}

	expiresAt := time.Now().UTC().Add(a.tokenTTL)
	token, err := a.sign(username, account.Role, expiresAt)
	if err != nil {
		return domain.LoginResponse{}, err
	}

	return domain.LoginResponse{
		Token:     token,
		Role:      account.Role,
		ExpiresAt: expiresAt.Format(time.RFC3339),
		User:      toUser(account),
	}, nil
}

func (a *AuthManager) ParseToken(tokenStr string) (domain.Actor, error) {
	claims := &dashboardClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return domain.Actor{}, errors.New("invalid or expired token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Actor{}, errors.New("invalid token subject")
	}
	return domain.Actor{Username: sub, Role: claims.Role}, nil
}

func (a *AuthManager) sign(username, role string, expiresAt time.Time) (string, error) {
	claims := dashboardClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwtlib.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    "tijara",
		},
		Role: role,
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// GetAccount returns the cached account for a username, refreshing the cache
// from the user store on a miss.
func (a *AuthManager) GetAccount(username string) (domain.UserAccount, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	a.mu.RLock()
	account, ok := a.users[username]
	a.mu.RUnlock()
	if ok {
		return account, nil
	}

	a.bootstrapUsers(context.Background())

	a.mu.RLock()
	account, ok = a.users[username]
	a.mu.RUnlock()
	if !ok {
		return domain.UserAccount{}, errors.New("unknown user")
	}
	return account, nil
}

func (a *AuthManager) CreateEmployee(req domain.UserCreateRequest) (domain.User, error) {
	// context.Background() is correct here: CreateEmployee is an admin operation
	// that does not carry a request context through the AuthManager API.
	a.bootstrapUsers(context.Background())
	username := strings.ToLower(strings.TrimSpace(req.UserName))
	if username == "" || len(username) < 4 {
		return domain.User{}, fmt.Errorf("username must be at least 4 characters")
	}
	if strings.ContainsAny(username, " \t\r\n") {
		return domain.User{}, fmt.Errorf("username must not contain spaces")
	}
	if strings.TrimSpace(req.Password) == "" || len(req.Password) < 6 {
		return domain.User{}, fmt.Errorf("password must be at least 6 characters")
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role == "" {
		role = domain.RoleEmployee
	}
	if role != domain.RoleAdmin && role != domain.RoleEmployee {
		return domain.User{}, fmt.Errorf("unknown role %q", role)
	}
	if req.Commission.IsNegative() || req.Commission.GreaterThan(decimal.NewFromInt(100)) {
		return domain.User{}, fmt.Errorf("commission must be between 0 and 100")
	}

	a.mu.RLock()
	_, exists := a.users[username]
	a.mu.RUnlock()
	if exists {
		return domain.User{}, fmt.Errorf("username already exists")
	}

	passwordHash, err := hashPassword(req.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to hash password")
	}

	account := domain.UserAccount{
		UserName:   username,
		Phone:      strings.TrimSpace(req.Phone),
		Password:   passwordHash,
		Commission: req.Commission,
		Role:       role,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	}

	if a.userStore != nil {
		created, err := a.userStore.CreateUser(context.Background(), account)
		if err != nil {
			return domain.User{}, err
		}
		account = *created
	}

	a.mu.Lock()
	a.users[username] = account
	a.mu.Unlock()

	return toUser(account), nil
}

func (a *AuthManager) ListEmployees() []domain.User {
	a.bootstrapUsers(context.Background())

	a.mu.RLock()
	result := make([]domain.User, 0, len(a.users))
	for _, account := range a.users {
		result = append(result, toUser(account))
	}
	a.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].UserName < result[j].UserName
	})
	return result
}

func (a *AuthManager) UpdateEmployee(username string, req domain.UserUpdateRequest) (domain.User, error) {
	account, err := a.GetAccount(username)
	if err != nil {
		return domain.User{}, err
	}

	if req.Phone != nil {
		account.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Commission != nil {
		if req.Commission.IsNegative() || req.Commission.GreaterThan(decimal.NewFromInt(100)) {
			return domain.User{}, fmt.Errorf("commission must be between 0 and 100")
		}
		account.Commission = *req.Commission
	}
	if req.Active != nil {
		account.Active = *req.Active
	}

	if a.userStore != nil {
		updated, err := a.userStore.UpdateUser(context.Background(), account)
		if err != nil {
			return domain.User{}, err
		}
		account = *updated
	}

	if req.Password != nil {
		password := strings.TrimSpace(*req.Password)
		if len(password) < 6 {
			return domain.User{}, fmt.Errorf("password must be at least 6 characters")
		}
		hashed, err := hashPassword(password)
		if err != nil {
			return domain.User{}, fmt.Errorf("failed to hash password")
		}
		if a.userStore != nil {
			if err := a.userStore.UpdateUserPassword(context.Background(), account.UserName, hashed); err != nil {
				return domain.User{}, err
			}
		}
		account.Password = hashed
	}

	a.mu.Lock()
	a.users[account.UserName] = account
	a.mu.Unlock()

	return toUser(account), nil
}

// bootstrapUsers loads accounts from the user store into the in-memory
// credential cache. It also upgrades any legacy plain-text passwords to bcrypt
// hashes in the store.
func (a *AuthManager) bootstrapUsers(ctx context.Context) {
	if a.userStore == nil {
		return
	}

	users, err := a.userStore.ListUsers(ctx)
	if err != nil || len(users) == 0 {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for _, user := range users {
		username := strings.ToLower(strings.TrimSpace(user.UserName))
		if username == "" {
			continue
		}
		if !isPasswordHash(user.Password) {
			hashed, err := hashPassword(user.Password)
			if err == nil {
				user.Password = hashed
				_ = a.userStore.UpdateUserPassword(ctx, username, hashed)
			}
		}
		user.UserName = username
		a.users[username] = user
	}
}

func toUser(account domain.UserAccount) domain.User {
	return domain.User{
		ID:         account.ID,
		UserName:   account.UserName,
		Phone:      account.Phone,
		Commission: account.Commission,
		Role:       account.Role,
		Active:     account.Active,
		CreatedAt:  account.CreatedAt,
	}
}

func verifyPassword(stored string, input string) bool {
	if stored == "" || strings.TrimSpace(input) == "" || !isPasswordHash(stored) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(input)) == nil
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func isPasswordHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}
