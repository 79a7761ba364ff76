package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/Domenick1991/airreservation/internal/service/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrFlightNotFound, http.StatusNotFound},
		{fmt.Errorf("get booking: %w", domain.ErrBookingNotFound), http.StatusNotFound},
		{domain.ErrArrivalBeforeDeparture, http.StatusBadRequest},
		{domain.ErrFlightCancelled, http.StatusConflict},
		{fmt.Errorf("assign seat 7: %w", domain.ErrSeatUnavailable), http.StatusConflict},
		{domain.ErrUsernameTaken, http.StatusConflict},
		{domain.ErrInvalidToken, http.StatusUnauthorized},
		{errForbidden, http.StatusForbidden},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc.def", "abc.def", true},
		{"bearer abc.def", "abc.def", true},
		{"Bearer ", "", false},
		{"Basic dXNlcjpwdw==", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		token, ok := bearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.token, token, tt.header)
	}
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		identity *auth.Identity
		want     int
	}{
		{"no identity", nil, http.StatusUnauthorized},
		{"passenger", &auth.Identity{UserID: 3, Role: domain.RolePassenger}, http.StatusForbidden},
		{"staff", &auth.Identity{UserID: 2, Role: domain.RoleStaff}, http.StatusOK},
		{"administrator", &auth.Identity{UserID: 1, Role: domain.RoleAdministrator}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/", func(c *gin.Context) {
				if tt.identity != nil {
					c.Set(identityKey, tt.identity)
				}
				c.Next()
			}, RequireRole(staffRoles...), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestWriteError_HidesInternalErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/", nil)

	writeError(c, errors.New("pq: relation \"bookings\" does not exist"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, w.Body.String())
	assert.Len(t, c.Errors, 1)
}
