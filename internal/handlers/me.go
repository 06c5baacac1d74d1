package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sbilibin2017/rental-auth/internal/logger"
	"github.com/sbilibin2017/rental-auth/internal/middlewares"
	"github.com/sbilibin2017/rental-auth/internal/models"
	"github.com/sbilibin2017/rental-auth/internal/services"
)

// ProfileGetter resolves a user id to its public profile.
type ProfileGetter interface {
	Me(ctx context.Context, userID int64) (*models.UserProfile, error)
}

// ProfileLister returns every user's public profile.
type ProfileLister interface {
	List(ctx context.Context) ([]*models.UserProfile, error)
}

// NewMeHandler returns an HTTP handler describing the authenticated caller.
// Anonymous callers get 200 with an empty body.
// @Summary Get authenticated user
// @Description Returns the profile of the user owning the bearer token
// @Tags auth
// @Produce json
// @Success 200 {object} models.UserProfile "User profile, or empty body when unauthenticated"
// @Failure 400 {object} handlers.ErrorResponse "User does not exist"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /auth/me [get]
// @Security BearerAuth
func NewMeHandler(svc ProfileGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middlewares.GetIdentityFromContext(r.Context())
		if !ok {
			logger.Log.Infow("me requested without authentication",
				"request_id", middlewares.GetRequestIDFromContext(r.Context()))
			w.WriteHeader(http.StatusOK)
			return
		}

		profile, err := svc.Me(r.Context(), identity.UserID)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrUserDoesNotExist):
				writeError(w, http.StatusBadRequest, "User does not exist")
			default:
				logger.Log.Errorw("internal server error",
					"request_id", middlewares.GetRequestIDFromContext(r.Context()), "err", err)
				writeError(w, http.StatusInternalServerError, "Internal server error")
			}
			return
		}

		writeJSON(w, http.StatusOK, profile)
	}
}

// NewGetUserHandler returns an HTTP handler returning the profile of the user in the {id} URL parameter.
// @Summary Get user by id
// @Tags user
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.UserProfile "User profile"
// @Failure 400 {object} handlers.ErrorResponse "Invalid id"
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure 404 {object} handlers.ErrorResponse "User not found"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /user/{id} [get]
// @Security BearerAuth
func NewGetUserHandler(svc ProfileGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}

		profile, err := svc.Me(r.Context(), id)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrUserDoesNotExist):
				writeError(w, http.StatusNotFound, "User not found")
			default:
				logger.Log.Errorw("internal server error",
					"request_id", middlewares.GetRequestIDFromContext(r.Context()), "user_id", id, "err", err)
				writeError(w, http.StatusInternalServerError, "Internal server error")
			}
			return
		}

		writeJSON(w, http.StatusOK, profile)
	}
}

// NewListUsersHandler returns an HTTP handler listing the profiles of all users.
// @Summary List users
// @Tags user
// @Produce json
// @Success 200 {array} models.UserProfile "User profiles"
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /user [get]
// @Security BearerAuth
func NewListUsersHandler(svc ProfileLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profiles, err := svc.List(r.Context())
		if err != nil {
			logger.Log.Errorw("internal server error",
				"request_id", middlewares.GetRequestIDFromContext(r.Context()), "err", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if profiles == nil {
			profiles = []*models.UserProfile{}
		}

		writeJSON(w, http.StatusOK, profiles)
	}
}
