package server

import (
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/qr-survey-rewards/api/internal/config"
	commonhttp "github.com/sngm3741/qr-survey-rewards/api/internal/interfaces/http/common"
)

func testServer(cfgs []config.JWTConfig, audience, devAdmin string) *Server {
	return &Server{
		logger:          log.New(os.Stdout, "[test] ", 0),
		jwtConfigs:      cfgs,
		jwtAudience:     audience,
		devAdminSubject: devAdmin,
	}
}

func signToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	require.NoError(t, err)
	return signed
}

func TestParseAuthToken(t *testing.T) {
	secret := []byte("test-secret")
	srv := testServer([]config.JWTConfig{{Issuer: "qr-survey-auth", Secret: secret}}, "", "")

	t.Run("valid token", func(t *testing.T) {
		token := signToken(t, secret, jwt.MapClaims{
			"iss":   "qr-survey-auth",
			"sub":   "user-1",
			"name":  "山田",
			"email": "taro@example.com",
			"exp":   time.Now().Add(time.Hour).Unix(),
		})

		claims, err := srv.parseAuthToken(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.Subject)
		assert.Equal(t, "山田", claims.Name)
		assert.Equal(t, "taro@example.com", claims.Email)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		token := signToken(t, secret, jwt.MapClaims{
			"iss": "someone-else",
			"sub": "user-1",
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		_, err := srv.parseAuthToken(token)
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := signToken(t, []byte("other-secret"), jwt.MapClaims{
			"iss": "qr-survey-auth",
			"sub": "user-1",
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		_, err := srv.parseAuthToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		token := signToken(t, secret, jwt.MapClaims{
			"iss": "qr-survey-auth",
			"sub": "user-1",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})

		_, err := srv.parseAuthToken(token)
		assert.Error(t, err)
	})

	t.Run("missing subject", func(t *testing.T) {
		token := signToken(t, secret, jwt.MapClaims{
			"iss": "qr-survey-auth",
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		_, err := srv.parseAuthToken(token)
		assert.Error(t, err)
	})

	t.Run("second issuer config accepted", func(t *testing.T) {
		customerSecret := []byte("customer-secret")
		multi := testServer([]config.JWTConfig{
			{Issuer: "qr-survey-auth", Secret: secret},
			{Issuer: "qr-survey-customer-auth", Secret: customerSecret},
		}, "", "")

		token := signToken(t, customerSecret, jwt.MapClaims{
			"iss": "qr-survey-customer-auth",
			"sub": "customer-1",
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		claims, err := multi.parseAuthToken(token)
		require.NoError(t, err)
		assert.Equal(t, "customer-1", claims.Subject)
	})

	t.Run("audience enforced", func(t *testing.T) {
		withAud := testServer([]config.JWTConfig{{Issuer: "qr-survey-auth", Secret: secret}}, "qr-survey-api", "")

		missing := signToken(t, secret, jwt.MapClaims{
			"iss": "qr-survey-auth",
			"sub": "user-1",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		_, err := withAud.parseAuthToken(missing)
		assert.Error(t, err)

		matching := signToken(t, secret, jwt.MapClaims{
			"iss": "qr-survey-auth",
			"sub": "user-1",
			"aud": "qr-survey-api",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		_, err = withAud.parseAuthToken(matching)
		assert.NoError(t, err)
	})
}

func echoUserHandler(t *testing.T, wantID string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := commonhttp.UserFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, wantID, user.ID)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware(t *testing.T) {
	secret := []byte("test-secret")
	srv := testServer([]config.JWTConfig{{Issuer: "qr-survey-auth", Secret: secret}}, "", "")

	t.Run("missing header rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.authMiddleware(echoUserHandler(t, "")).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/surveys", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token passes user", func(t *testing.T) {
		token := signToken(t, secret, jwt.MapClaims{
			"iss": "qr-survey-auth",
			"sub": "admin-1",
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		req := httptest.NewRequest(http.MethodGet, "/admin/surveys", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		srv.authMiddleware(echoUserHandler(t, "admin-1")).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("non-bearer scheme rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/surveys", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rec := httptest.NewRecorder()
		srv.authMiddleware(echoUserHandler(t, "")).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("dev admin fixture without header", func(t *testing.T) {
		devSrv := testServer(nil, "", "dev-admin")
		rec := httptest.NewRecorder()
		devSrv.authMiddleware(echoUserHandler(t, "dev-admin")).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/surveys", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("dev admin fixture still validates supplied token", func(t *testing.T) {
		devSrv := testServer([]config.JWTConfig{{Issuer: "qr-survey-auth", Secret: secret}}, "", "dev-admin")
		req := httptest.NewRequest(http.MethodGet, "/admin/surveys", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		devSrv.authMiddleware(echoUserHandler(t, "")).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestOptionalAuthMiddleware(t *testing.T) {
	secret := []byte("test-secret")
	srv := testServer([]config.JWTConfig{{Issuer: "qr-survey-auth", Secret: secret}}, "", "")

	t.Run("no header passes anonymously", func(t *testing.T) {
		handler := srv.optionalAuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, ok := commonhttp.UserFromContext(r.Context())
			assert.False(t, ok)
			w.WriteHeader(http.StatusOK)
		}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/surveys/x/submit", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("valid token attaches user", func(t *testing.T) {
		token := signToken(t, secret, jwt.MapClaims{
			"iss": "qr-survey-auth",
			"sub": "user-1",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		req := httptest.NewRequest(http.MethodPost, "/surveys/x/submit", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		srv.optionalAuthMiddleware(echoUserHandler(t, "user-1")).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("invalid token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/surveys/x/submit", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()
		srv.optionalAuthMiddleware(echoUserHandler(t, "")).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestWithCORS(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("allowed origin gets headers", func(t *testing.T) {
		handler := withCORS([]string{"https://app.example.com"})(okHandler)
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unknown origin gets no headers", func(t *testing.T) {
		handler := withCORS([]string{"https://app.example.com"})(okHandler)
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard reflects origin", func(t *testing.T) {
		handler := withCORS([]string{"*"})(okHandler)
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("Origin", "https://any.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "https://any.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight short circuits", func(t *testing.T) {
		handler := withCORS([]string{"https://app.example.com"})(okHandler)
		req := httptest.NewRequest(http.MethodOptions, "/admin/surveys", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")
	})
}
