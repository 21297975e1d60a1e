package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/rfpdock/rfpdock/internal/clock"
	"github.com/rfpdock/rfpdock/internal/config"
	"github.com/rfpdock/rfpdock/internal/identity/domain"
	"github.com/rfpdock/rfpdock/internal/identity/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc domain.Service
	clk *clock.FakeClock
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Session{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	cfg := config.Config{SessionTTLHours: 72}

	svc := New(zap.NewNop(), cfg, repository.NewRepository(db), repository.NewSessionRepository(db), node, clk)
	return &fixture{svc: svc, clk: clk}
}

func TestCreateUserAndLogin(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	user, err := f.svc.CreateUser(ctx, domain.CreateUserRequest{
		Email:    "Alice@Acme.Example",
		Password: "correct horse",
	})
	require.NoError(t, err)
	require.Equal(t, "alice@acme.example", user.Email)
	require.Equal(t, domain.RoleBidder, user.PlatformRole)
	require.NotEqual(t, "correct horse", user.PasswordHash)

	result, err := f.svc.Login(ctx, domain.LoginRequest{
		Email:    "alice@acme.example",
		Password: "correct horse",
	})
	require.NoError(t, err)
	require.Equal(t, user.ID, result.Principal.ID)
	require.NotEmpty(t, result.RawToken)

	principal, err := f.svc.Authenticate(ctx, result.RawToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, principal.ID)
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.CreateUser(ctx, domain.CreateUserRequest{Email: "bob@acme.example", Password: "long enough"})
	require.NoError(t, err)

	_, err = f.svc.CreateUser(ctx, domain.CreateUserRequest{Email: "BOB@acme.example", Password: "long enough"})
	require.ErrorIs(t, err, domain.ErrUserExists)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.CreateUser(ctx, domain.CreateUserRequest{Email: "bob@acme.example", Password: "long enough"})
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, domain.LoginRequest{Email: "bob@acme.example", Password: "wrong"})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, domain.LoginRequest{Email: "nobody@acme.example", Password: "wrong"})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAuthenticateExpiredSession(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.CreateUser(ctx, domain.CreateUserRequest{Email: "bob@acme.example", Password: "long enough"})
	require.NoError(t, err)

	result, err := f.svc.Login(ctx, domain.LoginRequest{Email: "bob@acme.example", Password: "long enough"})
	require.NoError(t, err)

	f.clk.Advance(73 * time.Hour)

	_, err = f.svc.Authenticate(ctx, result.RawToken)
	require.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestLogoutRevokesSession(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.CreateUser(ctx, domain.CreateUserRequest{Email: "bob@acme.example", Password: "long enough"})
	require.NoError(t, err)

	result, err := f.svc.Login(ctx, domain.LoginRequest{Email: "bob@acme.example", Password: "long enough"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, result.RawToken))

	_, err = f.svc.Authenticate(ctx, result.RawToken)
	require.ErrorIs(t, err, domain.ErrSessionRevoked)
}
