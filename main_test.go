package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/config"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	v.Set("DATABASE_DRIVER", "sqlite")
	v.Set("DATABASE_DSN", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	v.Set("JWT_SECRET", "test_jwt_secret")
	v.Set("RABBITMQ_ENABLED", false)
	v.Set("ADMIN_EMAIL", "admin@example.com")
	v.Set("ADMIN_PASSWORD", "admin-secret")
	cfg, err := config.FromViper(v)
	require.NoError(t, err)

	app, err := NewApp(cfg)
	require.NoError(t, err)
	t.Cleanup(app.Close)
	return app
}

func TestServerStartupAndHealthCheck(t *testing.T) {
	app := newTestApp(t)

	t.Run("HealthCheck", func(t *testing.T) {
		for _, path := range []string{"/health", "/api/v1/health"} {
			resp, err := app.Fiber.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode, path)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			resp.Body.Close()
			assert.Equal(t, "healthy", body["status"])
			assert.Equal(t, "connected", body["database"])
			assert.Equal(t, "disabled", body["rabbitmq"])
			assert.Equal(t, "disabled", body["redis"])
		}
	})

	t.Run("UnauthenticatedAccess", func(t *testing.T) {
		for _, path := range []string{"/api/v1/products", "/api/v1/orders", "/api/v1/dashboard"} {
			resp, err := app.Fiber.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		}
	})

	t.Run("SeededAdminCanLogin", func(t *testing.T) {
		body, _ := json.Marshal(map[string]string{"email": "admin@example.com", "password": "admin-secret"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Fiber.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var login map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
		resp.Body.Close()
		token, _ := login["token"].(string)
		require.NotEmpty(t, token)

		req = httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err = app.Fiber.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
