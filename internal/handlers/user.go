package handlers

import (
	"errors"
	"net/http"

	"github.com/bimcer/task-tracker/internal/dto"
	apierrors "github.com/bimcer/task-tracker/internal/errors"
	"github.com/bimcer/task-tracker/internal/services"
	"github.com/gin-gonic/gin"
)

// UserHandler exposes the user read API.
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// ListUsers returns all users (admin only; enforced by middleware).
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers()
	if err != nil {
		apierrors.InternalError(c, "Internal server error")
		return
	}

	result := make([]dto.UserDTO, len(users))
	for i, user := range users {
		result[i] = dto.ToUserDTO(user)
	}

	c.JSON(http.StatusOK, gin.H{"users": result})
}

// GetUser returns a user by ID.
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.GetUser(c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			apierrors.NotFound(c, err.Error())
			return
		}
		apierrors.InternalError(c, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}
