package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/segyhp/rental-engine/internal/handler"
	"github.com/stretchr/testify/assert"
)

func TestHealthHandler(t *testing.T) {
	t.Run("liveness", func(t *testing.T) {
		router := mux.NewRouter()
		handler.NewHealthHandler(nil, nil, time.Second).RegisterRoutes(router)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("ready without backends", func(t *testing.T) {
		router := mux.NewRouter()
		handler.NewHealthHandler(nil, nil, time.Second).RegisterRoutes(router)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("ready with unreachable redis", func(t *testing.T) {
		client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
		defer client.Close()

		router := mux.NewRouter()
		handler.NewHealthHandler(nil, client, 200*time.Millisecond).RegisterRoutes(router)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"redis":"failed`)
	})
}
