package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sbilibin2017/rental-auth/internal/logger"
	"github.com/sbilibin2017/rental-auth/internal/middlewares"
	"github.com/sbilibin2017/rental-auth/internal/services"
)

// Registerer defines the interface that the service must implement.
type Registerer interface {
	Register(ctx context.Context, email, name, password string) (string, error)
}

// RegisterRequest represents the JSON body for user registration
// swagger:model RegisterRequest
type RegisterRequest struct {
	// Email
	// required: true
	// default: alice@example.com
	Email string `json:"email"`

	// Name
	// required: true
	// default: Alice
	Name string `json:"name"`

	// Password
	// required: true
	// default: secret123
	Password string `json:"password"`
}

// RegisterResponse represents a successful registration response
// swagger:model RegisterResponse
type RegisterResponse struct {
	// JWT token
	// default: JWT_TOKEN
	Token string `json:"token"`
}

// NewRegisterHandler returns an HTTP handler for user registration.
// @Summary Register a new user
// @Description Creates a user with a unique email and returns a JWT token for it.
// @Tags auth
// @Accept json
// @Produce json
// @Param registerRequest body handlers.RegisterRequest true "User registration request"
// @Success 200 {object} handlers.RegisterResponse "User registered"
// @Failure 400 {object} handlers.ErrorResponse "User already exists / missing fields / invalid body"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /auth/register [post]
func NewRegisterHandler(svc Registerer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		token, err := svc.Register(r.Context(), req.Email, req.Name, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrValidation):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, services.ErrUserAlreadyExists):
				writeError(w, http.StatusBadRequest, "User with this email already exists")
			default:
				logger.Log.Errorw("internal server error",
					"request_id", middlewares.GetRequestIDFromContext(r.Context()), "err", err)
				writeError(w, http.StatusInternalServerError, "Internal server error")
			}
			return
		}

		writeJSON(w, http.StatusOK, RegisterResponse{Token: token})
	}
}
