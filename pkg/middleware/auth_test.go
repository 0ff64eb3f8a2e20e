package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret string, userID int64, expiresIn time.Duration) string {
	t.Helper()

	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestJWTManager_Validate(t *testing.T) {
	m := NewJWTManager("test-secret")

	t.Run("valid token", func(t *testing.T) {
		claims, err := m.Validate(signToken(t, "test-secret", 42, time.Hour))
		if err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if claims.UserID != 42 {
			t.Errorf("user ID = %d, want 42", claims.UserID)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		if _, err := m.Validate(signToken(t, "other-secret", 42, time.Hour)); err == nil {
			t.Error("token signed with wrong secret accepted")
		}
	})

	t.Run("expired token", func(t *testing.T) {
		if _, err := m.Validate(signToken(t, "test-secret", 42, -time.Hour)); err == nil {
			t.Error("expired token accepted")
		}
	})

	t.Run("missing user id", func(t *testing.T) {
		_, err := m.Validate(signToken(t, "test-secret", 0, time.Hour))
		if !errors.Is(err, ErrInvalidToken) {
			t.Errorf("got %v, want ErrInvalidToken", err)
		}
	})
}

func TestAuth_Middleware(t *testing.T) {
	m := NewJWTManager("test-secret")

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserID(r.Context())
		if !ok {
			t.Error("user ID missing from context")
		}
		if userID != 7 {
			t.Errorf("user ID = %d, want 7", userID)
		}
		w.WriteHeader(http.StatusOK)
	})

	handler := Auth(m)(next)

	t.Run("authorized request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "test-secret", 7, time.Hour))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Token abc")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})
}
