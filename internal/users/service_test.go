package users

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/velora-dev/storefront-backend/pkg/auth"
	"github.com/velora-dev/storefront-backend/pkg/config"
	"github.com/velora-dev/storefront-backend/pkg/enums"
	pkgerrors "github.com/velora-dev/storefront-backend/pkg/errors"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  full_name TEXT NOT NULL,
  phone TEXT,
  role TEXT NOT NULL DEFAULT 'customer',
  created_at DATETIME,
  updated_at DATETIME
);`).Error)
	return db
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "unit-test-secret",
		Issuer:            "storefront-test",
		ExpirationMinutes: 60,
	}
}

func testPasswordConfig() config.PasswordConfig {
	// Light parameters keep the argon2 hashing fast in tests.
	return config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func newTestUserService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), testJWTConfig(), testPasswordConfig())
	require.NoError(t, err)
	return svc
}

func TestRegisterAndLogin(t *testing.T) {
	db := setupUsersTestDB(t)
	svc := newTestUserService(t, db)
	ctx := context.Background()

	session, err := svc.Register(ctx, RegisterInput{
		Email:    "Mai.Tran@Example.com",
		Password: "correct horse",
		FullName: "Mai Tran",
	})
	require.NoError(t, err)
	require.NotNil(t, session.User)
	assert.Equal(t, "mai.tran@example.com", session.User.Email)
	assert.Equal(t, enums.UserRoleCustomer, session.User.Role)
	assert.NotEmpty(t, session.Token)
	assert.NotEqual(t, "correct horse", session.User.PasswordHash)

	claims, err := auth.ParseAccessToken(testJWTConfig(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.UserID)
	assert.Equal(t, enums.UserRoleCustomer, claims.Role)

	login, err := svc.Login(ctx, LoginInput{Email: "mai.tran@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, login.User.ID)
	assert.NotEmpty(t, login.Token)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := setupUsersTestDB(t)
	svc := newTestUserService(t, db)
	ctx := context.Background()

	input := RegisterInput{Email: "dup@example.com", Password: "password1", FullName: "First"}
	_, err := svc.Register(ctx, input)
	require.NoError(t, err)

	input.FullName = "Second"
	_, err = svc.Register(ctx, input)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestRegisterValidation(t *testing.T) {
	db := setupUsersTestDB(t)
	svc := newTestUserService(t, db)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "not-an-email",
		Password: "short",
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Contains(t, typed.Details(), "email")
	assert.Contains(t, typed.Details(), "password")
	assert.Contains(t, typed.Details(), "full_name")
}

func TestLoginWrongPassword(t *testing.T) {
	db := setupUsersTestDB(t)
	svc := newTestUserService(t, db)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{
		Email:    "user@example.com",
		Password: "password1",
		FullName: "User",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Email: "user@example.com", Password: "password2"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestLoginUnknownEmail(t *testing.T) {
	db := setupUsersTestDB(t)
	svc := newTestUserService(t, db)

	_, err := svc.Login(context.Background(), LoginInput{Email: "ghost@example.com", Password: "whatever"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestProfileNotFound(t *testing.T) {
	db := setupUsersTestDB(t)
	svc := newTestUserService(t, db)

	_, err := svc.Profile(context.Background(), uuid.New())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
