package api

import (
	"net/http"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/Domenick1991/airreservation/internal/service/auth"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handlers struct {
	Auth       *AuthHandler
	Flights    *FlightHandler
	Bookings   *BookingHandler
	Passengers *PassengerHandler
	Users      *UserHandler
}

// NewRouter mounts every handler under /api/v1. Only login and the health
// check are reachable without a token.
func NewRouter(h Handlers, authService auth.AuthUseCase, log logrus.FieldLogger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	h.Auth.RegisterPublic(v1.Group("/auth"))

	secured := v1.Group("", Authenticate(authService))
	h.Auth.Register(secured.Group("/auth"))
	h.Flights.Register(secured.Group("/flights"))
	h.Bookings.Register(secured.Group("/bookings"))
	h.Passengers.Register(secured.Group("/passengers"))
	h.Users.Register(secured.Group("/users", RequireRole(domain.RoleAdministrator)))

	return router
}
