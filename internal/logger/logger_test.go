package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{" error ", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.name))
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("production honours level", func(t *testing.T) {
		log, err := New(Config{Level: "warn", Environment: "production", ServiceName: "storefront"})
		require.NoError(t, err)
		assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, log.Core().Enabled(zapcore.WarnLevel))
	})

	t.Run("development defaults to info", func(t *testing.T) {
		log, err := New(Config{Environment: "development", ServiceName: "storefront"})
		require.NoError(t, err)
		assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
		assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	})
}

func newObservedRouter(t *testing.T, handler gin.HandlerFunc) (*gin.Engine, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	router := gin.New()
	router.Use(RequestID(), Middleware(base), Recovery(base))
	router.GET("/test", handler)
	return router, logs
}

func TestRequestID(t *testing.T) {
	router, _ := newObservedRouter(t, func(c *gin.Context) {
		c.String(http.StatusOK, c.GetHeader(RequestIDHeader))
	})

	t.Run("generates id when missing", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		id := w.Header().Get(RequestIDHeader)
		assert.Len(t, id, 36)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("keeps incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("logs request with request id", func(t *testing.T) {
		router, logs := newObservedRouter(t, func(c *gin.Context) {
			FromGin(c, nil).Debug("inside handler")
			c.Status(http.StatusNoContent)
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, "req-1")
		router.ServeHTTP(httptest.NewRecorder(), req)

		entries := logs.All()
		require.Len(t, entries, 2)
		assert.Equal(t, "inside handler", entries[0].Message)
		assert.Equal(t, "req-1", entries[0].ContextMap()["request_id"])

		fields := entries[1].ContextMap()
		assert.Equal(t, "HTTP Request", entries[1].Message)
		assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
		assert.Equal(t, "GET", fields["method"])
		assert.Equal(t, "/test", fields["path"])
		assert.EqualValues(t, http.StatusNoContent, fields["status"])
	})

	t.Run("client errors log at warn", func(t *testing.T) {
		router, logs := newObservedRouter(t, func(c *gin.Context) {
			c.Status(http.StatusNotFound)
		})
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
	})
}

func TestRecovery(t *testing.T) {
	router, logs := newObservedRouter(t, func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
	assert.Equal(t, 1, logs.FilterMessage("HTTP Request").Len())
}

func TestFromGinFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	fallback := zap.NewExample()

	assert.Same(t, fallback, FromGin(c, fallback))
	assert.NotNil(t, FromGin(c, nil))
}
