package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portalapi/portal-api/internal/crypto"
	"github.com/portalapi/portal-api/internal/dbconn"
	"github.com/portalapi/portal-api/internal/model"
)

func newTestAuthService() *AuthService {
	return NewAuthService(staticProvider{}, testSecret, time.Hour)
}

func TestRegister_MissingFields(t *testing.T) {
	svc := newTestAuthService()

	cases := []model.CreateUserRequest{
		{Name: "", Email: "ann@x.com", Password: "secret1"},
		{Name: "Ann", Email: "  ", Password: "secret1"},
		{Name: "Ann", Email: "ann@x.com", Password: "   "},
	}
	for _, req := range cases {
		_, err := svc.Register(context.Background(), req)
		if err != ErrFieldsRequired {
			t.Errorf("Register(%+v) expected ErrFieldsRequired, got %v", req, err)
		}
	}
}

func TestRegister_ShortPassword(t *testing.T) {
	svc := newTestAuthService()

	_, err := svc.Register(context.Background(), model.CreateUserRequest{
		Name:     "Ann",
		Email:    "ann@x.com",
		Password: "12345",
	})

	if err != ErrPasswordTooShort {
		t.Errorf("expected ErrPasswordTooShort, got %v", err)
	}
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation category, got %v", err)
	}
}

func TestRegister_LongPassword(t *testing.T) {
	svc := newTestAuthService()

	_, err := svc.Register(context.Background(), model.CreateUserRequest{
		Name:     "Ann",
		Email:    "ann@x.com",
		Password: strings.Repeat("p", crypto.MaxPasswordBytes+1),
	})

	if err != ErrPasswordTooLong {
		t.Errorf("expected ErrPasswordTooLong, got %v", err)
	}
}

func TestLogin_MissingFields(t *testing.T) {
	svc := newTestAuthService()

	_, err := svc.Login(context.Background(), model.LoginRequest{Email: "ann@x.com"})
	if err != ErrCredentialsRequired {
		t.Errorf("expected ErrCredentialsRequired, got %v", err)
	}
}

func TestRegister_StoreUnavailable(t *testing.T) {
	unavailable := errors.Join(dbconn.ErrUnavailable, errors.New("no reachable servers"))
	svc := NewAuthService(staticProvider{err: unavailable}, testSecret, time.Hour)

	_, err := svc.Register(context.Background(), model.CreateUserRequest{
		Name: "Ann", Email: "ann@x.com", Password: "secret1",
	})
	assert.ErrorIs(t, err, dbconn.ErrUnavailable)
}

func TestRegisterLoginProfileFlow(t *testing.T) {
	svc := newStoreAuthService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, model.CreateUserRequest{Name: "Ann", Email: "ann@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.True(t, reg.Success)
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "ann@x.com", reg.User.Email)
	assert.Equal(t, "Ann", reg.User.Name)

	_, err = svc.Register(ctx, model.CreateUserRequest{Name: "Ann2", Email: "ann@x.com", Password: "other12"})
	assert.Equal(t, ErrEmailTaken, err)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Login(ctx, model.LoginRequest{Email: "ann@x.com", Password: "wrongpw"})
	assert.Equal(t, ErrInvalidCredentials, err)

	login, err := svc.Login(ctx, model.LoginRequest{Email: "ann@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, reg.User.ID, login.User.ID)

	profile, err := svc.GetProfile(ctx, reg.Token)
	require.NoError(t, err)
	assert.Equal(t, model.UserResponse{ID: reg.User.ID, Name: "Ann", Email: "ann@x.com"}, profile)
}

func TestRegister_NormalizesInput(t *testing.T) {
	svc := newStoreAuthService(t)

	reg, err := svc.Register(context.Background(), model.CreateUserRequest{
		Name: "  Ann ", Email: " Ann@X.com ", Password: " secret1 ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ann", reg.User.Name)
	assert.Equal(t, "ann@x.com", reg.User.Email)

	_, err = svc.Login(context.Background(), model.LoginRequest{Email: "ANN@x.com", Password: "secret1"})
	assert.NoError(t, err)
}

func TestLogin_UnknownEmailAndWrongPasswordLookTheSame(t *testing.T) {
	svc := newStoreAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, model.CreateUserRequest{Name: "Ann", Email: "ann@x.com", Password: "secret1"})
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, model.LoginRequest{Email: "ann@x.com", Password: "wrongpw"})
	_, unknownEmail := svc.Login(ctx, model.LoginRequest{Email: "nobody@x.com", Password: "secret1"})

	require.Error(t, wrongPassword)
	assert.Equal(t, wrongPassword, unknownEmail)
	assert.Equal(t, "invalid credentials", unknownEmail.Error())
}

func TestRegister_ConcurrentDuplicates(t *testing.T) {
	svc := newStoreAuthService(t)

	const attempts = 2
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Register(context.Background(), model.CreateUserRequest{
				Name: "Ann", Email: "ann@x.com", Password: "secret1",
			})
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)
}

func TestGetProfile_InvalidTokens(t *testing.T) {
	svc := newStoreAuthService(t)
	ctx := context.Background()

	expired, err := crypto.GenerateToken("5f0c1c6e-3b7a-4a53-9d7e-2f4f1b8e6a10", testSecret, -time.Minute)
	require.NoError(t, err)
	foreign, err := crypto.GenerateToken("5f0c1c6e-3b7a-4a53-9d7e-2f4f1b8e6a10", "other-secret", time.Hour)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"missing":    "",
		"malformed":  "not.a.token",
		"expired":    expired,
		"bad secret": foreign,
	} {
		_, err := svc.GetProfile(ctx, token)
		assert.Equal(t, ErrInvalidToken, err, name)
	}
}

func TestGetProfile_UserVanished(t *testing.T) {
	svc := newStoreAuthService(t)

	token, err := crypto.GenerateToken("5f0c1c6e-3b7a-4a53-9d7e-2f4f1b8e6a10", testSecret, time.Hour)
	require.NoError(t, err)

	_, err = svc.GetProfile(context.Background(), token)
	assert.Equal(t, ErrUserNotFound, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProfile_PartialFields(t *testing.T) {
	svc := newStoreAuthService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, model.CreateUserRequest{Name: "Ann", Email: "ann@x.com", Password: "secret1"})
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, reg.Token, model.UpdateUserRequest{Name: "Annie"})
	require.NoError(t, err)
	assert.Equal(t, "Annie", updated.Name)
	assert.Equal(t, "ann@x.com", updated.Email)

	unchanged, err := svc.UpdateProfile(ctx, reg.Token, model.UpdateUserRequest{})
	require.NoError(t, err)
	assert.Equal(t, updated, unchanged)

	moved, err := svc.UpdateProfile(ctx, reg.Token, model.UpdateUserRequest{Email: " Annie@X.com"})
	require.NoError(t, err)
	assert.Equal(t, "Annie", moved.Name)
	assert.Equal(t, "annie@x.com", moved.Email)

	profile, err := svc.GetProfile(ctx, reg.Token)
	require.NoError(t, err)
	assert.Equal(t, moved, profile)
}

func TestUpdateProfile_EmailTaken(t *testing.T) {
	svc := newStoreAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, model.CreateUserRequest{Name: "Ann", Email: "ann@x.com", Password: "secret1"})
	require.NoError(t, err)
	bob, err := svc.Register(ctx, model.CreateUserRequest{Name: "Bob", Email: "bob@x.com", Password: "secret2"})
	require.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, bob.Token, model.UpdateUserRequest{Email: "ann@x.com"})
	assert.Equal(t, ErrEmailTaken, err)
}

func TestVerifyToken(t *testing.T) {
	svc := newStoreAuthService(t)

	reg, err := svc.Register(context.Background(), model.CreateUserRequest{Name: "Ann", Email: "ann@x.com", Password: "secret1"})
	require.NoError(t, err)

	userID, err := svc.VerifyToken(reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, userID)
}
