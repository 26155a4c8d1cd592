package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/flicky/cocktail-api/internal/dto"
	"github.com/flicky/cocktail-api/internal/model"
)

type mockUserRepo struct {
	users     map[string]*model.User
	byID      map[int64]*model.User
	hasOrders map[int64]bool
	nextID    int64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		users:     make(map[string]*model.User),
		byID:      make(map[int64]*model.User),
		hasOrders: make(map[int64]bool),
	}
}

func (m *mockUserRepo) add(user *model.User) *model.User {
	m.nextID++
	user.ID = m.nextID
	m.users[user.Email] = user
	m.byID[user.ID] = user
	return user
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if _, ok := m.users[user.Email]; ok {
		return fmt.Errorf("create user: %w", &pgconn.PgError{Code: "23505"})
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	m.add(user)
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	return m.byID[id], nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return m.users[email], nil
}

func (m *mockUserRepo) List(_ context.Context) ([]model.User, error) {
	var users []model.User
	for id := int64(1); id <= m.nextID; id++ {
		if u, ok := m.byID[id]; ok {
			users = append(users, *u)
		}
	}
	return users, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	if other, ok := m.users[user.Email]; ok && other.ID != user.ID {
		return fmt.Errorf("update user: %w", &pgconn.PgError{Code: "23505"})
	}
	for email, u := range m.users {
		if u.ID == user.ID {
			delete(m.users, email)
		}
	}
	m.users[user.Email] = user
	m.byID[user.ID] = user
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id int64) (bool, error) {
	user, ok := m.byID[id]
	if !ok {
		return false, nil
	}
	if m.hasOrders[id] {
		return false, fmt.Errorf("delete user: %w", &pgconn.PgError{Code: "23503"})
	}
	delete(m.byID, id)
	delete(m.users, user.Email)
	return true, nil
}

func testTokenConfig() TokenConfig {
	return TokenConfig{Secret: "test-secret", Issuer: "cocktail-api", Audience: "cocktail-web", Expiry: time.Hour}
}

func TestAuthService_Register(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, testTokenConfig())

	resp, err := svc.Register(context.Background(), dto.RegisterRequest{
		Name: "Ana", Email: "ana@example.com", Password: "password123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "ana@example.com", resp.User.Email)
	assert.Equal(t, model.RoleGuest, resp.User.Role)
	assert.True(t, resp.User.Active)

	stored := repo.users["ana@example.com"]
	require.NotNil(t, stored)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("password123")))
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, testTokenConfig())
	repo.add(&model.User{Email: "ana@example.com"})

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Name: "Ana", Email: "ana@example.com", Password: "password123",
	})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAuthService_Login(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, testTokenConfig())

	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := repo.add(&model.User{
		Name: "Ana", Email: "ana@example.com", Password: string(hashed), Role: model.RoleAdmin, Active: true,
	})

	resp, err := svc.Login(context.Background(), dto.LoginRequest{
		Email: "ana@example.com", Password: "password123",
	})
	require.NoError(t, err)

	token, err := jwt.Parse(resp.Token, func(*jwt.Token) (interface{}, error) { return []byte("test-secret"), nil },
		jwt.WithIssuer("cocktail-api"), jwt.WithAudience("cocktail-web"))
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, fmt.Sprint(user.ID), claims["userId"])
	assert.Equal(t, "ana@example.com", claims["sub"])
	assert.Equal(t, model.RoleAdmin, claims["role"])
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, testTokenConfig())

	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	repo.add(&model.User{Email: "ana@example.com", Password: string(hashed), Active: true})

	_, err := svc.Login(context.Background(), dto.LoginRequest{Email: "ana@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Login_Inactive(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, testTokenConfig())

	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	repo.add(&model.User{Email: "ana@example.com", Password: string(hashed), Active: false})

	_, err := svc.Login(context.Background(), dto.LoginRequest{Email: "ana@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrAccountInactive)
	assert.ErrorIs(t, err, ErrForbidden)
}
