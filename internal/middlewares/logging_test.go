package middlewares

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sbilibin2017/rental-auth/internal/jwt"
	"github.com/sbilibin2017/rental-auth/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		handlerStatus  int
		handlerBody    string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "OK response",
			handlerStatus:  http.StatusOK,
			handlerBody:    "hello",
			expectedStatus: http.StatusOK,
			expectedBody:   "hello",
		},
		{
			name:           "Internal server error",
			handlerStatus:  http.StatusInternalServerError,
			handlerBody:    "error",
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.InfoLevel)

			var seenReqID string
			nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seenReqID = GetRequestIDFromContext(r.Context())
				w.WriteHeader(tt.handlerStatus)
				_, _ = w.Write([]byte(tt.handlerBody))
			})

			handler := LoggingMiddleware(zap.New(core).Sugar())(nextHandler)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer secret-token")
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)

			bodyBytes, _ := io.ReadAll(rr.Body)
			assert.Equal(t, tt.expectedBody, string(bodyBytes))

			reqID := rr.Header().Get("X-Request-ID")
			assert.NotEmpty(t, reqID)
			assert.True(t, strings.TrimSpace(reqID) != "")
			assert.Equal(t, reqID, seenReqID)

			entries := logs.All()
			require.Len(t, entries, 1)
			fields := entries[0].ContextMap()
			assert.Equal(t, reqID, fields["request_id"])
			assert.EqualValues(t, tt.expectedStatus, fields["status"])
			for _, v := range fields {
				if s, ok := v.(string); ok {
					assert.NotContains(t, s, "secret-token")
				}
			}
		})
	}
}

func TestAuthMiddleware_LogsRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	prev := logger.Log
	logger.Log = zap.New(core).Sugar()
	t.Cleanup(func() { logger.Log = prev })

	codec := jwt.New(jwt.WithSecretKey("request-id-secret"))
	handler := LoggingMiddleware(zap.NewNop().Sugar())(
		AuthMiddleware(codec, staticUsers{})(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
		),
	)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	reqID := rr.Header().Get("X-Request-ID")
	require.NotEmpty(t, reqID)

	rejected := logs.FilterMessage("token rejected").All()
	require.Len(t, rejected, 1)
	assert.Equal(t, reqID, rejected[0].ContextMap()["request_id"])
}
