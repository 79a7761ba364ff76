package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/Domenick1991/airreservation/internal/service/booking"
	"github.com/Domenick1991/airreservation/internal/service/flights"
	"github.com/Domenick1991/airreservation/internal/service/passengers"
	"github.com/Domenick1991/airreservation/internal/service/seats"
	"github.com/gin-gonic/gin"
)

type FlightHandler struct {
	service    flights.FlightUseCase
	inventory  seats.InventoryUseCase
	bookings   booking.BookingUseCase
	passengers passengers.PassengerUseCase
}

type flightRequest struct {
	FlightNumber  string              `json:"flight_number" binding:"required"`
	Origin        string              `json:"origin" binding:"required"`
	Destination   string              `json:"destination" binding:"required"`
	DepartureTime time.Time           `json:"departure_time" binding:"required"`
	ArrivalTime   time.Time           `json:"arrival_time" binding:"required"`
	TotalSeats    *int                `json:"total_seats" binding:"required"`
	Status        domain.FlightStatus `json:"status"`
}

func (r flightRequest) toFlight(id int64) *domain.Flight {
	return &domain.Flight{
		ID:            id,
		FlightNumber:  r.FlightNumber,
		Origin:        r.Origin,
		Destination:   r.Destination,
		DepartureTime: r.DepartureTime,
		ArrivalTime:   r.ArrivalTime,
		TotalSeats:    *r.TotalSeats,
		Status:        r.Status,
	}
}

func NewFlightHandler(service flights.FlightUseCase, inventory seats.InventoryUseCase, bookings booking.BookingUseCase, passengers passengers.PassengerUseCase) *FlightHandler {
	return &FlightHandler{service: service, inventory: inventory, bookings: bookings, passengers: passengers}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.GET("/:id/seats", h.seats)
	router.GET("/:id/seats/count", h.seatCount)
	router.GET("/:id/passengers", RequireRole(staffRoles...), h.listPassengers)
	router.GET("/:id/bookings", RequireRole(staffRoles...), h.listBookings)

	admin := RequireRole(domain.RoleAdministrator)
	router.POST("", admin, h.create)
	router.PUT("/:id", admin, h.update)
	router.POST("/:id/cancel", admin, h.cancel)
	router.DELETE("/:id", admin, h.delete)
}

// list searches scheduled flights when any filter is given and lists every
// flight otherwise.
func (h *FlightHandler) list(c *gin.Context) {
	filter := domain.FlightSearch{
		Origin:      c.Query("origin"),
		Destination: c.Query("destination"),
	}
	if raw := c.Query("date"); raw != "" {
		date, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			badRequest(c, "date must be YYYY-MM-DD")
			return
		}
		filter.Date = &date
	}

	var (
		result []domain.Flight
		err    error
	)
	if filter.Origin == "" && filter.Destination == "" && filter.Date == nil {
		result, err = h.service.List(c.Request.Context())
	} else {
		result, err = h.service.Search(c.Request.Context(), filter)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *FlightHandler) get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	flight, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (h *FlightHandler) seats(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	available, _ := strconv.ParseBool(c.Query("available"))

	var (
		result []domain.Seat
		err    error
	)
	if available {
		result, err = h.inventory.ListAvailable(c.Request.Context(), id)
	} else {
		result, err = h.inventory.ListByFlight(c.Request.Context(), id)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *FlightHandler) seatCount(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	count, err := h.service.AvailableSeatCount(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flight_id": id, "available_seats": count})
}

func (h *FlightHandler) listPassengers(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	result, err := h.passengers.ListByFlight(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *FlightHandler) listBookings(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	result, err := h.bookings.ListByFlight(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *FlightHandler) create(c *gin.Context) {
	var req flightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	flight := req.toFlight(0)
	if err := h.service.Create(c.Request.Context(), flight); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, flight)
}

func (h *FlightHandler) update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req flightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	flight := req.toFlight(id)
	if err := h.service.Update(c.Request.Context(), flight); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (h *FlightHandler) cancel(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	cancelled, err := h.service.Cancel(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if !cancelled {
		notFound(c, "flight")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": domain.FlightStatusCancelled})
}

func (h *FlightHandler) delete(c *gin.Context) {
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
		notFound(c, "flight")
		return
	}
	c.Status(http.StatusNoContent)
}
