package api

import (
	"net/http"

	"github.com/Domenick1991/airreservation/internal/service/auth"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	service auth.AuthUseCase
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func NewAuthHandler(service auth.AuthUseCase) *AuthHandler {
	return &AuthHandler{service: service}
}

// RegisterPublic installs the routes reachable without a token.
func (h *AuthHandler) RegisterPublic(router *gin.RouterGroup) {
	router.POST("/login", h.login)
}

func (h *AuthHandler) Register(router *gin.RouterGroup) {
	router.POST("/logout", h.logout)
	router.GET("/me", h.me)
}

func (h *AuthHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	session, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *AuthHandler) logout(c *gin.Context) {
	token, _ := bearerToken(c.GetHeader("Authorization"))
	if err := h.service.Logout(c.Request.Context(), token); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) me(c *gin.Context) {
	c.JSON(http.StatusOK, currentIdentity(c))
}
