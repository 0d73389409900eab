package handler

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vehicle-market-api/internal/application/auth"
	"github.com/vehicle-market-api/internal/application/vehicle"
	"github.com/vehicle-market-api/internal/config"
	"github.com/vehicle-market-api/internal/domain"
	jwtinfra "github.com/vehicle-market-api/internal/infrastructure/jwt"
	"github.com/vehicle-market-api/internal/transport/http/middleware"
)

// --- auth.Service mock ---

type mockAuthSvc struct{ mock.Mock }

func (m *mockAuthSvc) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginChallenge, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*auth.LoginChallenge), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAuthSvc) VerifyLoginCode(ctx context.Context, req auth.VerifyLoginRequest) (*auth.AuthResult, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*auth.AuthResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAuthSvc) Register(ctx context.Context, req auth.RegisterRequest) (*auth.AuthResult, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*auth.AuthResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAuthSvc) GoogleLogin(ctx context.Context, req auth.GoogleLoginRequest) (*auth.AuthResult, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*auth.AuthResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAuthSvc) RequestPasswordReset(ctx context.Context, req auth.ForgotPasswordRequest) (*auth.ForgotPasswordResult, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*auth.ForgotPasswordResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAuthSvc) ResetPassword(ctx context.Context, req auth.ResetPasswordRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockAuthSvc) CheckResetCode(ctx context.Context, email, code string) (*auth.ResetCodeStatus, error) {
	args := m.Called(ctx, email, code)
	if v := args.Get(0); v != nil {
		return v.(*auth.ResetCodeStatus), args.Error(1)
	}
	return nil, args.Error(1)
}

// --- user.Service mock ---

type mockUserSvc struct{ mock.Mock }

func (m *mockUserSvc) Get(ctx context.Context, userID uint) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if v := args.Get(0); v != nil {
		return v.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserSvc) Update(ctx context.Context, callerID, userID uint, req domain.UpdateUserRequest) (*domain.User, error) {
	args := m.Called(ctx, callerID, userID, req)
	if v := args.Get(0); v != nil {
		return v.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserSvc) UpdatePhoto(ctx context.Context, callerID, userID uint, filename, contentType string, body io.Reader) (*domain.User, error) {
	args := m.Called(ctx, callerID, userID, filename, contentType, body)
	if v := args.Get(0); v != nil {
		return v.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserSvc) ListFavorites(ctx context.Context, callerID, userID uint) ([]domain.Vehicle, error) {
	args := m.Called(ctx, callerID, userID)
	if v := args.Get(0); v != nil {
		return v.([]domain.Vehicle), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserSvc) AddFavorite(ctx context.Context, callerID, userID, vehicleID uint) error {
	return m.Called(ctx, callerID, userID, vehicleID).Error(0)
}

func (m *mockUserSvc) RemoveFavorite(ctx context.Context, callerID, userID, vehicleID uint) error {
	return m.Called(ctx, callerID, userID, vehicleID).Error(0)
}

func (m *mockUserSvc) ListComparisons(ctx context.Context, callerID, userID uint) ([]domain.UserComparison, error) {
	args := m.Called(ctx, callerID, userID)
	if v := args.Get(0); v != nil {
		return v.([]domain.UserComparison), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserSvc) CreateComparison(ctx context.Context, callerID, userID uint, in domain.ComparisonInput) (*domain.UserComparison, error) {
	args := m.Called(ctx, callerID, userID, in)
	if v := args.Get(0); v != nil {
		return v.(*domain.UserComparison), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserSvc) DeleteComparison(ctx context.Context, callerID, userID, comparisonID uint) error {
	return m.Called(ctx, callerID, userID, comparisonID).Error(0)
}

func (m *mockUserSvc) ListPreferences(ctx context.Context, callerID, userID uint) ([]domain.UserPreference, error) {
	args := m.Called(ctx, callerID, userID)
	if v := args.Get(0); v != nil {
		return v.([]domain.UserPreference), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserSvc) CreatePreference(ctx context.Context, callerID, userID uint, in domain.PreferenceInput) (*domain.UserPreference, error) {
	args := m.Called(ctx, callerID, userID, in)
	if v := args.Get(0); v != nil {
		return v.(*domain.UserPreference), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserSvc) UpdatePreference(ctx context.Context, callerID, userID, preferenceID uint, patch domain.PreferencePatch) (*domain.UserPreference, error) {
	args := m.Called(ctx, callerID, userID, preferenceID, patch)
	if v := args.Get(0); v != nil {
		return v.(*domain.UserPreference), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserSvc) DeletePreference(ctx context.Context, callerID, userID, preferenceID uint) error {
	return m.Called(ctx, callerID, userID, preferenceID).Error(0)
}

// --- vehicle.Service mock ---

type mockVehicleSvc struct{ mock.Mock }

func (m *mockVehicleSvc) List(ctx context.Context, f domain.VehicleFilter) (*vehicle.ListResult, error) {
	args := m.Called(ctx, f)
	if v := args.Get(0); v != nil {
		return v.(*vehicle.ListResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVehicleSvc) Get(ctx context.Context, vehicleID uint) (*vehicle.Detail, error) {
	args := m.Called(ctx, vehicleID)
	if v := args.Get(0); v != nil {
		return v.(*vehicle.Detail), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVehicleSvc) Compare(ctx context.Context, ids []uint) (*vehicle.Comparison, error) {
	args := m.Called(ctx, ids)
	if v := args.Get(0); v != nil {
		return v.(*vehicle.Comparison), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVehicleSvc) Brands(ctx context.Context) ([]domain.Brand, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]domain.Brand), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVehicleSvc) Categories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]domain.Category), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVehicleSvc) Search(ctx context.Context, term string, limit int) (*vehicle.SearchResult, error) {
	args := m.Called(ctx, term, limit)
	if v := args.Get(0); v != nil {
		return v.(*vehicle.SearchResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVehicleSvc) Models(ctx context.Context, brandID uint) ([]domain.VehicleModel, error) {
	args := m.Called(ctx, brandID)
	if v := args.Get(0); v != nil {
		return v.([]domain.VehicleModel), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVehicleSvc) Versions(ctx context.Context, modelID uint) ([]domain.Version, error) {
	args := m.Called(ctx, modelID)
	if v := args.Get(0); v != nil {
		return v.([]domain.Version), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVehicleSvc) ListOpinions(ctx context.Context, vehicleID uint) ([]domain.Opinion, error) {
	args := m.Called(ctx, vehicleID)
	if v := args.Get(0); v != nil {
		return v.([]domain.Opinion), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVehicleSvc) SaveOpinion(ctx context.Context, callerID, vehicleID uint, in domain.OpinionInput) (*domain.Opinion, bool, error) {
	args := m.Called(ctx, callerID, vehicleID, in)
	if v := args.Get(0); v != nil {
		return v.(*domain.Opinion), args.Bool(1), args.Error(2)
	}
	return nil, args.Bool(1), args.Error(2)
}

func (m *mockVehicleSvc) DeleteOpinion(ctx context.Context, callerID, vehicleID, opinionID uint) error {
	return m.Called(ctx, callerID, vehicleID, opinionID).Error(0)
}

// --- helpers ---

func newTestJWTProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privKey)})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0600))

	pubBytes, err := x509.MarshalPKIXPublicKey(&privKey.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0600))

	p, err := jwtinfra.NewProvider(&config.Config{
		JWTPrivateKeyPath: privPath,
		JWTPublicKeyPath:  pubPath,
		JWTExpiry:         24 * time.Hour,
	})
	require.NoError(t, err)
	return p
}

// asUser injects claims for userID, as middleware.Auth would after verifying a token.
func asUser(r *http.Request, userID uint) *http.Request {
	return r.WithContext(middleware.WithClaims(r.Context(), &jwtinfra.Claims{UserID: userID}))
}

// withParams injects chi URL params given as name, value pairs.
func withParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
