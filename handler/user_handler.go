package handler

import (
	"context"
	"net/http"
	"personal-brand-api/common"
	"personal-brand-api/logger"
	"personal-brand-api/model"

	"github.com/sirupsen/logrus"
)

type IUserService interface {
	GetProfile(ctx context.Context, id string) (*model.User, error)
	UpdateProfile(ctx context.Context, id, requesterID string, req model.UpdateUserRequest) (*model.User, error)
}

type UserHandler struct {
	service IUserService
}

func NewUserHandler(service IUserService) *UserHandler {
	return &UserHandler{service: service}
}

// GetUser godoc
// @Summary      Public profile of a user
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  model.User
// @Failure      404  {object}  common.AppError
// @Router       /users/{id} [get]
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) *common.AppError {
	user, err := h.service.GetProfile(r.Context(), r.PathValue("id"))
	if err != nil {
		return mapServiceError(err)
	}
	writeJSON(w, http.StatusOK, user)
	return nil
}

// UpdateUser godoc
// @Summary      Update your own profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                    true  "User ID"
// @Param        body  body      model.UpdateUserRequest  true  "Fields to change"
// @Success      200   {object}  model.User
// @Failure      403   {object}  common.AppError
// @Router       /users/{id} [patch]
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) *common.AppError {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		return common.Unauthorized("Authentication required")
	}

	var req model.UpdateUserRequest
	if appErr := common.DecodeAndValidate(w, r, &req); appErr != nil {
		return appErr
	}

	id := r.PathValue("id")
	logger.Log.WithFields(logrus.Fields{
		"user_id":      id,
		"requester_id": claims.Subject,
	}).Info("Update profile request received")

	user, err := h.service.UpdateProfile(r.Context(), id, claims.Subject, req)
	if err != nil {
		return mapServiceError(err)
	}
	writeJSON(w, http.StatusOK, user)
	return nil
}
