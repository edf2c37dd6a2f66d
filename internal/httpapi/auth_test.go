package httpapi

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tijara/backend/internal/domain"
)

type userStoreStub struct {
	mu      sync.Mutex
	users   map[string]domain.UserAccount
	updates int
}

func (s *userStoreStub) CreateUser(_ context.Context, user domain.UserAccount) (*domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users == nil {
		s.users = make(map[string]domain.UserAccount)
	}
	if user.ID == "" {
		user.ID = "user-" + user.UserName
	}
	s.users[user.UserName] = user
	return &user, nil
}

func (s *userStoreStub) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	return out, nil
}

func (s *userStoreStub) UpdateUser(_ context.Context, user domain.UserAccount) (*domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.users[user.UserName]
	user.Password = existing.Password
	s.users[user.UserName] = user
	return &user, nil
}

func (s *userStoreStub) UpdateUserPassword(_ context.Context, username string, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.users[username]
	user.Password = passwordHash
	s.users[username] = user
	s.updates++
	return nil
}

func seededStub() *userStoreStub {
	return &userStoreStub{
		users: map[string]domain.UserAccount{
			"admin": {
				ID:        "user-admin",
				UserName:  "admin",
				Password:  "admin123",
				Role:      domain.RoleAdmin,
				Active:    true,
				CreatedAt: time.Now().UTC(),
			},
		},
	}
}

func TestAuthManagerUpgradesLegacyPlainPassword(t *testing.T) {
	store := seededStub()

	manager := NewAuthManager("test-secret", time.Hour, store)
	_, err := manager.Login(domain.LoginRequest{
		UserName: "admin",
		Password: "admin123",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	users, err := store.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users failed: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
	if users[0].Password == "admin123" {
		t.Fatalf("expected password to be upgraded from plain-text")
	}
	if !strings.HasPrefix(users[0].Password, "$2") {
		t.Fatalf("expected bcrypt password hash, got %s", users[0].Password)
	}
}

func TestCreateEmployeeStoresPasswordHash(t *testing.T) {
	store := seededStub()

	manager := NewAuthManager("test-secret", time.Hour, store)
	user, err := manager.CreateEmployee(domain.UserCreateRequest{
		UserName:   "newhire",
		Password:   "pass1234",
		Commission: decimal.RequireFromString("7.5"),
	})
	if err != nil {
		t.Fatalf("create employee failed: %v", err)
	}
	if user.UserName != "newhire" {
		t.Fatalf("unexpected username %s", user.UserName)
	}
	if user.Role != domain.RoleEmployee {
		t.Fatalf("expected default employee role, got %s", user.Role)
	}

	users, err := store.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users failed: %v", err)
	}
	var found *domain.UserAccount
	for i := range users {
		if users[i].UserName == "newhire" {
			found = &users[i]
			break
		}
	}
	if found == nil {
		t.Fatalf("expected employee to be saved")
	}
	if found.Password == "pass1234" {
		t.Fatalf("expected employee password to be hashed")
	}
	if !strings.HasPrefix(found.Password, "$2") {
		t.Fatalf("expected bcrypt hash prefix, got %s", found.Password)
	}

	resp, err := manager.Login(domain.LoginRequest{
		UserName: "newhire",
		Password: "pass1234",
	})
	if err != nil {
		t.Fatalf("login with hashed employee failed: %v", err)
	}
	if !resp.User.Commission.Equal(decimal.RequireFromString("7.5")) {
		t.Fatalf("expected commission 7.5, got %s", resp.User.Commission)
	}
}

func TestCreateEmployeeRejectsBadInput(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, seededStub())

	cases := []domain.UserCreateRequest{
		{UserName: "abc", Password: "longenough"},
		{UserName: "validname", Password: "short"},
		{UserName: "validname", Password: "longenough", Role: "superuser"},
		{UserName: "admin", Password: "longenough"},
		{UserName: "validname", Password: "longenough", Commission: decimal.RequireFromString("150")},
	}
	for i, req := range cases {
		if _, err := manager.CreateEmployee(req); err == nil {
			t.Fatalf("case %d: expected error for %+v", i, req)
		}
	}
}

func TestUpdateEmployeeChangesCommissionAndPassword(t *testing.T) {
	store := seededStub()
	manager := NewAuthManager("test-secret", time.Hour, store)

	if _, err := manager.CreateEmployee(domain.UserCreateRequest{
		UserName: "fieldrep",
		Password: "original1",
	}); err != nil {
		t.Fatalf("create employee: %v", err)
	}

	commission := decimal.RequireFromString("12")
	password := "rotated99"
	inactive := false
	updated, err := manager.UpdateEmployee("fieldrep", domain.UserUpdateRequest{
		Commission: &commission,
		Password:   &password,
		Active:     &inactive,
	})
	if err != nil {
		t.Fatalf("update employee: %v", err)
	}
	if !updated.Commission.Equal(commission) {
		t.Fatalf("expected commission 12, got %s", updated.Commission)
	}
	if updated.Active {
		t.Fatalf("expected account to be deactivated")
	}

	// Old password no longer works, and the deactivated account cannot log in
	// even with the new one.
	if _, err := manager.Login(domain.LoginRequest{UserName: "fieldrep", Password: "original1"}); err == nil {
		t.Fatalf("expected login with old password to fail")
	}
	if _, err := manager.Login(domain.LoginRequest{UserName: "fieldrep", Password: password}); err == nil {
		t.Fatalf("expected login on inactive account to fail")
	}

	active := true
	if _, err := manager.UpdateEmployee("fieldrep", domain.UserUpdateRequest{Active: &active}); err != nil {
		t.Fatalf("reactivate employee: %v", err)
	}
	if _, err := manager.Login(domain.LoginRequest{UserName: "fieldrep", Password: password}); err != nil {
		t.Fatalf("expected login with rotated password to succeed: %v", err)
	}
}

func TestParseTokenRejectsForgedToken(t *testing.T) {
	store := seededStub()
	manager := NewAuthManager("test-secret", time.Hour, store)
	other := NewAuthManager("different-secret", time.Hour, store)

	resp, err := manager.Login(domain.LoginRequest{UserName: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	actor, err := manager.ParseToken(resp.Token)
	if err != nil {
		t.Fatalf("parse own token: %v", err)
	}
	if actor.Username != "admin" || actor.Role != domain.RoleAdmin {
		t.Fatalf("unexpected actor %+v", actor)
	}

	if _, err := other.ParseToken(resp.Token); err == nil {
		t.Fatalf("expected token signed with another secret to be rejected")
	}
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	store := seededStub()
	store.users["admin"] = domain.UserAccount{
		ID:        "user-admin",
		UserName:  "admin",
		Password:  "admin123",
		Role:      domain.RoleAdmin,
		Active:    false,
		CreatedAt: time.Now().UTC(),
	}

	manager := NewAuthManager("test-secret", time.Hour, store)
	if _, err := manager.Login(domain.LoginRequest{UserName: "admin", Password: "admin123"}); err == nil {
		t.Fatalf("expected inactive account login to fail")
	}
}
