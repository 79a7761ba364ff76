package api

import (
	"net/http"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/Domenick1991/airreservation/internal/service/users"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	service users.UserUseCase
}

type userRequest struct {
	Username string      `json:"username" binding:"required"`
	Password string      `json:"password"`
	FullName string      `json:"full_name"`
	Email    string      `json:"email"`
	Role     domain.Role `json:"role" binding:"required"`
	IsActive *bool       `json:"is_active"`
}

func (r userRequest) toUser(id int64) *domain.User {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return &domain.User{
		ID:       id,
		Username: r.Username,
		Password: r.Password,
		FullName: r.FullName,
		Email:    r.Email,
		Role:     r.Role,
		IsActive: active,
	}
}

func NewUserHandler(service users.UserUseCase) *UserHandler {
	return &UserHandler{service: service}
}

// Register expects the group to be restricted to administrators.
func (h *UserHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.POST("", h.create)
	router.GET("/available", h.available)
	router.GET("/:id", h.get)
	router.PUT("/:id", h.update)
	router.DELETE("/:id", h.delete)
}

func (h *UserHandler) list(c *gin.Context) {
	result, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *UserHandler) create(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	user := req.toUser(0)
	if err := h.service.Create(c.Request.Context(), user); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) available(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		badRequest(c, "username is required")
		return
	}
	ok, err := h.service.IsUsernameAvailable(c.Request.Context(), username)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": username, "available": ok})
}

func (h *UserHandler) get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	user, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	user := req.toUser(id)
	updated, err := h.service.Update(c.Request.Context(), user)
	if err != nil {
		writeError(c, err)
		return
	}
	if !updated {
		notFound(c, "user")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	deactivated, err := h.service.Delete(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if !deactivated {
		notFound(c, "user")
		return
	}
	c.Status(http.StatusNoContent)
}
