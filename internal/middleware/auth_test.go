package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ashnest/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
)

func signedToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return tokenString
}

func TestProperty_ProtectedEndpointsRejectMissingTokens(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("requests without authorization header are rejected", prop.ForAll(
		func(pathSuffix string, method string) bool {
			logger := zap.NewNop()
			mw := AuthMiddleware("test-secret", logger)

			handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			path := "/" + pathSuffix
			if path == "/" {
				path = "/test"
			}

			req := httptest.NewRequest(method, path, nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			return w.Code == http.StatusUnauthorized
		},
		gen.AlphaString(),
		gen.OneConstOf("GET", "POST", "PUT", "DELETE"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	secret := "test-secret"
	mw := AuthMiddleware(secret, zap.NewNop())

	tokenString := signedToken(t, secret, jwt.MapClaims{
		"user_id": uuid.New().String(),
		"role":    domain.RoleCustomer,
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for expired token, got %d", w.Code)
	}
}

func TestAuthMiddleware_ValidTokenPopulatesContext(t *testing.T) {
	secret := "test-secret"
	mw := AuthMiddleware(secret, zap.NewNop())
	wantID := uuid.New()

	tokenString := signedToken(t, secret, jwt.MapClaims{
		"user_id": wantID.String(),
		"role":    domain.RoleAdmin,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	var gotID uuid.UUID
	var gotRole string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = GetUserID(r.Context())
		gotRole, _ = GetUserRole(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotID != wantID {
		t.Errorf("context user id: want %s, got %s", wantID, gotID)
	}
	if gotRole != domain.RoleAdmin {
		t.Errorf("context role: want admin, got %q", gotRole)
	}
}

func TestAuthMiddleware_NonUUIDSubjectRejected(t *testing.T) {
	secret := "test-secret"
	mw := AuthMiddleware(secret, zap.NewNop())

	tokenString := signedToken(t, secret, jwt.MapClaims{
		"user_id": "42",
		"role":    domain.RoleCustomer,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for non-uuid user id, got %d", w.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	secret := "test-secret"
	auth := AuthMiddleware(secret, zap.NewNop())
	admin := RequireAdmin(zap.NewNop())

	handler := auth(admin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	cases := []struct {
		role string
		want int
	}{
		{domain.RoleAdmin, http.StatusOK},
		{domain.RoleCustomer, http.StatusForbidden},
	}

	for _, tc := range cases {
		tokenString := signedToken(t, secret, jwt.MapClaims{
			"user_id": uuid.New().String(),
			"role":    tc.role,
			"exp":     time.Now().Add(time.Hour).Unix(),
		})

		req := httptest.NewRequest("GET", "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+tokenString)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Code != tc.want {
			t.Errorf("role %s: expected %d, got %d", tc.role, tc.want, w.Code)
		}
	}
}
