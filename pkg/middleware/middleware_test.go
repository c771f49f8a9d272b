package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"car-rental/internal/data/entity"
	"car-rental/internal/data/repository"
	"car-rental/pkg/apperror"
	"car-rental/pkg/middleware"
	"car-rental/pkg/utils"
)

type mockSessionRepo struct {
	findValidSession func(ctx context.Context, token string) (*entity.Session, error)
}

func (m *mockSessionRepo) Create(context.Context, *entity.Session) error { return nil }
func (m *mockSessionRepo) FindValidSession(ctx context.Context, token string) (*entity.Session, error) {
	return m.findValidSession(ctx, token)
}
func (m *mockSessionRepo) Revoke(context.Context, string) error                 { return nil }
func (m *mockSessionRepo) RevokeAllUserSessions(context.Context, uuid.UUID) error { return nil }
func (m *mockSessionRepo) CleanExpiredSessions(context.Context, time.Time) (int64, error) {
	return 0, nil
}

var _ repository.SessionRepository = (*mockSessionRepo)(nil)

type mockUserRepo struct {
	repository.UserRepository
	findByID func(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return m.findByID(ctx, id)
}

var tokens = utils.NewTokenIssuer(utils.JWTConfig{Secret: "test-secret", ExpiryHours: 1}, "car-rental")

// whoAmI echoes the identity the middleware put into the context.
func whoAmI(w http.ResponseWriter, r *http.Request) {
	id, _ := utils.GetUserIDFromContext(r.Context())
	role, _ := utils.GetRoleFromContext(r.Context())
	token, _ := utils.GetTokenFromContext(r.Context())
	_ = json.NewEncoder(w).Encode(map[string]string{"id": id.String(), "role": role, "token": token})
}

func sessionFor(userID uuid.UUID) *mockSessionRepo {
	return &mockSessionRepo{findValidSession: func(_ context.Context, token string) (*entity.Session, error) {
		return entity.NewSession(userID, time.Hour, time.Now()), nil
	}}
}

func authed(t *testing.T, sessions repository.SessionRepository, header string) *httptest.ResponseRecorder {
	t.Helper()
	h := middleware.AuthSession(tokens, sessions, zap.NewNop())(http.HandlerFunc(whoAmI))
	req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthSession_ValidToken(t *testing.T) {
	userID := uuid.New()
	sid := uuid.NewString()
	signed, _, err := tokens.Issue(userID, "customer", sid, time.Now())
	require.NoError(t, err)

	rec := authed(t, sessionFor(userID), "Bearer "+signed)

	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, userID.String(), got["id"])
	assert.Equal(t, "customer", got["role"])
	assert.Equal(t, sid, got["token"])
}

func TestAuthSession_Rejections(t *testing.T) {
	userID := uuid.New()
	signed, _, err := tokens.Issue(userID, "customer", uuid.NewString(), time.Now())
	require.NoError(t, err)
	expired, _, err := tokens.Issue(userID, "customer", uuid.NewString(), time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	revoked := &mockSessionRepo{findValidSession: func(context.Context, string) (*entity.Session, error) {
		return nil, nil
	}}
	lapsed := &mockSessionRepo{findValidSession: func(context.Context, string) (*entity.Session, error) {
		return entity.NewSession(userID, time.Hour, time.Now().Add(-2*time.Hour)), nil
	}}

	cases := []struct {
		name     string
		sessions repository.SessionRepository
		header   string
	}{
		{"missing header", sessionFor(userID), ""},
		{"wrong scheme", sessionFor(userID), "Basic " + signed},
		{"garbage token", sessionFor(userID), "Bearer not-a-jwt"},
		{"expired token", sessionFor(userID), "Bearer " + expired},
		{"revoked session", revoked, "Bearer " + signed},
		{"lapsed session", lapsed, "Bearer " + signed},
		{"session of another user", sessionFor(uuid.New()), "Bearer " + signed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := authed(t, tc.sessions, tc.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAuthSession_StorageDown(t *testing.T) {
	signed, _, err := tokens.Issue(uuid.New(), "customer", uuid.NewString(), time.Now())
	require.NoError(t, err)
	down := &mockSessionRepo{findValidSession: func(context.Context, string) (*entity.Session, error) {
		return nil, apperror.StorageUnavailable(errors.New("dial tcp: refused"))
	}}

	rec := authed(t, down, "Bearer "+signed)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAdmin(t *testing.T) {
	cases := []struct {
		name string
		role entity.UserRole
		want int
	}{
		{"admin passes", entity.RoleAdmin, http.StatusOK},
		{"customer forbidden", entity.RoleCustomer, http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			userID := uuid.New()
			users := &mockUserRepo{findByID: func(context.Context, uuid.UUID) (*entity.User, error) {
				return &entity.User{Role: tc.role}, nil
			}}
			h := middleware.Admin(users, zap.NewNop())(http.HandlerFunc(whoAmI))
			req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
			req = req.WithContext(utils.SetUserContext(req.Context(), userID, utils.RoleCustomer))
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestAdmin_Unauthenticated(t *testing.T) {
	h := middleware.Admin(&mockUserRepo{}, zap.NewNop())(http.HandlerFunc(whoAmI))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/users", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRecover(t *testing.T) {
	h := middleware.Recover(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}

func TestCORS_AllowsConfiguredOrigin(t *testing.T) {
	h := middleware.CORS(utils.CORSConfig{AllowedOrigins: []string{"https://shop.example.com"}})(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }))

	allowed := httptest.NewRequest(http.MethodGet, "/cars", nil)
	allowed.Header.Set("Origin", "https://shop.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, allowed)
	assert.Equal(t, "https://shop.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	other := httptest.NewRequest(http.MethodGet, "/cars", nil)
	other.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
