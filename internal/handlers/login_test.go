package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/sbilibin2017/rental-auth/internal/services"
	"github.com/stretchr/testify/assert"
)

func TestLoginHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tests := []struct {
		name         string
		body         string
		mockSetup    func(m *MockLoginer)
		expectedCode int
		expectedBody map[string]string
	}{
		{
			name: "success",
			body: `{"email":"alice@example.com","password":"secret123"}`,
			mockSetup: func(m *MockLoginer) {
				m.EXPECT().Login(gomock.Any(), "alice@example.com", "secret123").Return("token-xyz", nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: map[string]string{"token": "token-xyz"},
		},
		{
			name: "unknown user",
			body: `{"email":"nobody@example.com","password":"secret123"}`,
			mockSetup: func(m *MockLoginer) {
				m.EXPECT().Login(gomock.Any(), "nobody@example.com", "secret123").Return("", services.ErrUserDoesNotExist)
			},
			expectedCode: http.StatusBadRequest,
			expectedBody: map[string]string{"error": "User does not exist"},
		},
		{
			name: "wrong password",
			body: `{"email":"alice@example.com","password":"wrongpass"}`,
			mockSetup: func(m *MockLoginer) {
				m.EXPECT().Login(gomock.Any(), "alice@example.com", "wrongpass").Return("", services.ErrInvalidPassword)
			},
			expectedCode: http.StatusUnauthorized,
			expectedBody: map[string]string{"error": "Invalid password"},
		},
		{
			name: "store failure",
			body: `{"email":"alice@example.com","password":"secret123"}`,
			mockSetup: func(m *MockLoginer) {
				m.EXPECT().Login(gomock.Any(), "alice@example.com", "secret123").Return("", errors.New("connection refused"))
			},
			expectedCode: http.StatusInternalServerError,
			expectedBody: map[string]string{"error": "Internal server error"},
		},
		{
			name:         "invalid json",
			body:         `{"email":`,
			expectedCode: http.StatusBadRequest,
			expectedBody: map[string]string{"error": "invalid request body"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := NewMockLoginer(ctrl)
			if tt.mockSetup != nil {
				tt.mockSetup(mockSvc)
			}

			req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(tt.body))
			rr := httptest.NewRecorder()

			NewLoginHandler(mockSvc)(rr, req)

			assert.Equal(t, tt.expectedCode, rr.Code)

			var resp map[string]string
			assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.expectedBody, resp)
		})
	}
}
