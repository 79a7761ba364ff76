package api

import (
	"net/http"
	"strconv"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/Domenick1991/airreservation/internal/service/booking"
	"github.com/Domenick1991/airreservation/internal/service/passengers"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service    booking.BookingUseCase
	passengers passengers.PassengerUseCase
}

type createBookingRequest struct {
	FlightID int64 `json:"flight_id" binding:"required"`
}

type assignSeatRequest struct {
	SeatID      int64 `json:"seat_id" binding:"required"`
	PassengerID int64 `json:"passenger_id" binding:"required"`
}

type bookingResponse struct {
	Reference string          `json:"booking_reference"`
	Booking   *domain.Booking `json:"booking,omitempty"`
}

func NewBookingHandler(service booking.BookingUseCase, passengers passengers.PassengerUseCase) *BookingHandler {
	return &BookingHandler{service: service, passengers: passengers}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.list)
	router.GET("/reference/:reference", h.getByReference)
	router.GET("/:id", h.get)
	router.POST("/:id/cancel", h.cancel)
	router.POST("/:id/seats", h.assignSeat)
	router.GET("/:id/seats", h.seats)
	router.GET("/:id/passengers", h.listPassengers)
	router.DELETE("/:id", RequireRole(domain.RoleAdministrator), h.delete)
}

// create books the flight for the caller. The reference is returned even if
// the follow-up read fails.
func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	identity := currentIdentity(c)

	ref, err := h.service.CreateBooking(c.Request.Context(), req.FlightID, identity.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	created, err := h.service.GetByReference(c.Request.Context(), ref)
	if err != nil {
		_ = c.Error(err)
		created = nil
	}
	c.JSON(http.StatusCreated, bookingResponse{Reference: ref, Booking: created})
}

// list shows passengers their own bookings; staff may filter by user or
// flight.
func (h *BookingHandler) list(c *gin.Context) {
	identity := currentIdentity(c)
	ctx := c.Request.Context()

	var (
		result []domain.Booking
		err    error
	)
	switch {
	case identity.IsPassenger():
		result, err = h.service.ListByUser(ctx, identity.UserID)
	case c.Query("user_id") != "":
		userID, perr := strconv.ParseInt(c.Query("user_id"), 10, 64)
		if perr != nil {
			badRequest(c, "invalid user_id")
			return
		}
		result, err = h.service.ListByUser(ctx, userID)
	case c.Query("flight_id") != "":
		flightID, perr := strconv.ParseInt(c.Query("flight_id"), 10, 64)
		if perr != nil {
			badRequest(c, "invalid flight_id")
			return
		}
		result, err = h.service.ListByFlight(ctx, flightID)
	default:
		result, err = h.service.List(ctx)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *BookingHandler) get(c *gin.Context) {
	b, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) getByReference(c *gin.Context) {
	ref := c.Param("reference")
	if !booking.IsValidReference(ref) {
		badRequest(c, "invalid booking reference")
		return
	}
	b, err := h.service.GetByReference(c.Request.Context(), ref)
	if err != nil {
		writeError(c, err)
		return
	}
	if !owns(c, b) {
		writeError(c, errForbidden)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	b, ok := h.load(c)
	if !ok {
		return
	}
	cancelled, err := h.service.CancelBooking(c.Request.Context(), b.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	if !cancelled {
		notFound(c, "booking")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": b.ID, "booking_reference": b.Reference, "status": domain.BookingStatusCancelled})
}

func (h *BookingHandler) assignSeat(c *gin.Context) {
	b, ok := h.load(c)
	if !ok {
		return
	}
	var req assignSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.service.AssignSeat(c.Request.Context(), b.ID, req.SeatID, req.PassengerID); err != nil {
		writeError(c, err)
		return
	}
	assigned, err := h.service.GetBookingSeats(c.Request.Context(), b.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, assigned)
}

func (h *BookingHandler) seats(c *gin.Context) {
	b, ok := h.load(c)
	if !ok {
		return
	}
	result, err := h.service.GetBookingSeats(c.Request.Context(), b.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *BookingHandler) listPassengers(c *gin.Context) {
	b, ok := h.load(c)
	if !ok {
		return
	}
	result, err := h.passengers.ListByBooking(c.Request.Context(), b.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *BookingHandler) delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	deleted, err := h.service.DeleteBooking(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if !deleted {
		notFound(c, "booking")
		return
	}
	c.Status(http.StatusNoContent)
}

// load fetches the booking named by the id parameter and checks the caller
// may see it.
func (h *BookingHandler) load(c *gin.Context) (*domain.Booking, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}
	b, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	if !owns(c, b) {
		writeError(c, errForbidden)
		return nil, false
	}
	return b, true
}

// owns reports whether the caller may act on b. Staff and administrators may
// act on any booking.
func owns(c *gin.Context, b *domain.Booking) bool {
	identity := currentIdentity(c)
	if identity == nil {
		return false
	}
	return !identity.IsPassenger() || b.UserID == identity.UserID
}
