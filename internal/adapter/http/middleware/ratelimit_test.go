package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tracebloom/internal/core/ports/mocks"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func rateLimitedRouter(store *mocks.MockRateLimitStore, rule RateLimitRule) *gin.Engine {
	router := gin.New()
	router.POST("/test", RateLimiter(store, "auth_login", rule, zerolog.Nop()), func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	return router
}

func TestRateLimiter_UnderLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockRateLimitStore(ctrl)
	store.EXPECT().Increment(gomock.Any(), gomock.Any(), time.Minute).Return(int64(3), nil)

	router := rateLimitedRouter(store, RateLimitRule{Limit: 10, Window: time.Minute})

	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "10", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "7", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimiter_OverLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockRateLimitStore(ctrl)
	store.EXPECT().Increment(gomock.Any(), gomock.Any(), time.Minute).Return(int64(11), nil)

	router := rateLimitedRouter(store, RateLimitRule{Limit: 10, Window: time.Minute})

	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimiter_StoreErrorDegrades(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockRateLimitStore(ctrl)
	store.EXPECT().Increment(gomock.Any(), gomock.Any(), time.Minute).Return(int64(0), assert.AnError)

	router := rateLimitedRouter(store, RateLimitRule{Limit: 10, Window: time.Minute})

	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "store failure must not block traffic")
}
