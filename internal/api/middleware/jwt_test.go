package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func recruiterGatedRouter(t *testing.T) *gin.Engine {
	t.Helper()
	t.Setenv("AUTH_JWT_SECRET", testSecret)
	t.Setenv("AUTH_JWT_ISSUER", "")
	t.Setenv("AUTH_JWT_AUDIENCE", "")

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/jobs", JWTAuth(), RequireRecruiter(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestRecruiterGate(t *testing.T) {
	r := recruiterGatedRouter(t)

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{
			name:       "token without app role is not a recruiter",
			token:      signToken(t, jwt.MapClaims{"sub": "user-1"}),
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "candidate role forbidden",
			token:      signToken(t, jwt.MapClaims{"sub": "user-1", "app_metadata": map[string]any{"role": "candidate"}}),
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "recruiter role allowed",
			token:      signToken(t, jwt.MapClaims{"sub": "user-1", "app_metadata": map[string]any{"role": "recruiter"}}),
			wantStatus: http.StatusOK,
		},
		{
			name:       "platform admin allowed",
			token:      signToken(t, jwt.MapClaims{"sub": "user-1", "app_metadata": map[string]any{"role": "platform_admin"}}),
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing token",
			token:      "",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestJWTAuthRejectsExpiredToken(t *testing.T) {
	r := recruiterGatedRouter(t)

	token := signToken(t, jwt.MapClaims{
		"sub":          "user-1",
		"exp":          time.Now().Add(-time.Hour).Unix(),
		"app_metadata": map[string]any{"role": "recruiter"},
	})

	req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
