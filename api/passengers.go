package api

import (
	"net/http"
	"time"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/Domenick1991/airreservation/internal/service/passengers"
	"github.com/gin-gonic/gin"
)

type PassengerHandler struct {
	service passengers.PassengerUseCase
}

type passengerRequest struct {
	FullName    string `json:"full_name" binding:"required"`
	DateOfBirth string `json:"date_of_birth"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
}

func (r passengerRequest) toPassenger(id int64) (*domain.Passenger, error) {
	p := &domain.Passenger{ID: id, FullName: r.FullName, Email: r.Email, Phone: r.Phone}
	if r.DateOfBirth != "" {
		dob, err := time.Parse(time.DateOnly, r.DateOfBirth)
		if err != nil {
			return nil, err
		}
		p.DateOfBirth = dob
	}
	return p, nil
}

func NewPassengerHandler(service passengers.PassengerUseCase) *PassengerHandler {
	return &PassengerHandler{service: service}
}

func (h *PassengerHandler) Register(router *gin.RouterGroup) {
	staff := RequireRole(staffRoles...)
	router.POST("", h.create)
	router.GET("", staff, h.list)
	router.GET("/:id", h.get)
	router.PUT("/:id", staff, h.update)
	router.DELETE("/:id", staff, h.delete)
}

func (h *PassengerHandler) create(c *gin.Context) {
	var req passengerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	p, err := req.toPassenger(0)
	if err != nil {
		badRequest(c, "date_of_birth must be YYYY-MM-DD")
		return
	}
	if err := h.service.Create(c.Request.Context(), p); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *PassengerHandler) list(c *gin.Context) {
	result, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *PassengerHandler) get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PassengerHandler) update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req passengerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	p, err := req.toPassenger(id)
	if err != nil {
		badRequest(c, "date_of_birth must be YYYY-MM-DD")
		return
	}
	updated, err := h.service.Update(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	if !updated {
		notFound(c, "passenger")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PassengerHandler) delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	deleted, err := h.service.Delete(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if !deleted {
		notFound(c, "passenger")
		return
	}
	c.Status(http.StatusNoContent)
}
