package auth_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"CampusPortal/internal/apperr"
	"CampusPortal/internal/auth"
	"CampusPortal/internal/config"
	"CampusPortal/internal/rbac"
	"CampusPortal/internal/storage/memstore"
)

func newService(allowAdmin bool) *auth.UserService {
	cfg := &config.Config{JWTKey: []byte("test"), JWTTTL: time.Hour, AllowAdminRegistration: allowAdmin}
	return auth.NewUserService(memstore.New().Users(), auth.NewTokenManager(cfg), cfg, zap.NewNop())
}

func register(role string) auth.RegisterRequest {
	return auth.RegisterRequest{Name: "Grace", Email: "Grace@Campus.edu", Password: "secret1", Role: role}
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newService(false)
	ctx := context.Background()

	res, err := svc.RegisterUser(ctx, register("student"))
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "grace@campus.edu", res.User.Email)
	assert.Equal(t, rbac.Student, res.User.Role)
	assert.NotEqual(t, "secret1", res.User.PasswordHash)

	login, err := svc.AuthenticateUser(ctx, auth.Credential{Email: "GRACE@campus.edu", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)

	_, err = svc.AuthenticateUser(ctx, auth.Credential{Email: "grace@campus.edu", Password: "wrong"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	_, err = svc.AuthenticateUser(ctx, auth.Credential{Email: "nobody@campus.edu", Password: "secret1"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	me, err := svc.Profile(ctx, res.User.Principal())
	require.NoError(t, err)
	assert.Equal(t, "Grace", me.Name)
}

func TestRegisterRejections(t *testing.T) {
	ctx := context.Background()

	svc := newService(false)
	_, err := svc.RegisterUser(ctx, register("faculty"))
	require.NoError(t, err)
	_, err = svc.RegisterUser(ctx, register("student"))
	assert.ErrorIs(t, err, auth.ErrEmailTaken)

	_, err = newService(false).RegisterUser(ctx, register("admin"))
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = newService(true).RegisterUser(ctx, register("admin"))
	assert.NoError(t, err)

	_, err = newService(false).RegisterUser(ctx, register("janitor"))
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	// 40 two-byte runes pass a rune count of 72 but not bcrypt's byte limit
	long := register("student")
	long.Password = strings.Repeat("é", 40)
	_, err = newService(false).RegisterUser(ctx, long)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, ae.Kind)
	assert.Contains(t, ae.Fields, "password")
}
