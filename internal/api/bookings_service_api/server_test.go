package bookings_service_api

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/Domenick1991/airreservation/internal/api/rpc"
	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/Domenick1991/airreservation/internal/repository/memory"
	"github.com/Domenick1991/airreservation/internal/service/auth"
	"github.com/Domenick1991/airreservation/internal/service/booking"
	"github.com/Domenick1991/airreservation/internal/service/flights"
	"github.com/Domenick1991/airreservation/internal/service/passengers"
	"github.com/Domenick1991/airreservation/internal/service/seats"
	"github.com/Domenick1991/airreservation/internal/service/users"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type harness struct {
	conn      *grpc.ClientConn
	tokens    map[string]string
	flight    *domain.Flight
	passenger *domain.Passenger
	inventory seats.InventoryUseCase
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger, _ := test.NewNullLogger()
	store := memory.New()
	ctx := context.Background()

	inventory := seats.NewInventoryService(store.Seats(), seats.WithLogger(logger))
	flightService := flights.NewFlightService(store.Flights(), inventory, flights.WithLogger(logger))
	bookingService := booking.NewBookingService(store.Bookings(), store.Flights(), store.Passengers(), inventory, booking.WithLogger(logger))
	passengerService := passengers.NewPassengerService(store.Passengers())
	userService := users.NewUserService(store.Users(), users.WithBcryptCost(bcrypt.MinCost), users.WithLogger(logger))
	authService := auth.NewAuthService(userService, "grpc-test-secret", auth.WithLogger(logger))

	h := &harness{tokens: map[string]string{}, inventory: inventory}
	for name, role := range map[string]domain.Role{
		"owner":    domain.RolePassenger,
		"stranger": domain.RolePassenger,
		"agent":    domain.RoleStaff,
	} {
		require.NoError(t, userService.Create(ctx, &domain.User{Username: name, Password: "pw", Role: role, IsActive: true}))
		session, err := authService.Login(ctx, name, "pw")
		require.NoError(t, err)
		h.tokens[name] = session.Token
	}

	departure := time.Now().Add(72 * time.Hour)
	h.flight = &domain.Flight{
		FlightNumber:  "AR310",
		Origin:        "Vienna",
		Destination:   "Zurich",
		DepartureTime: departure,
		ArrivalTime:   departure.Add(80 * time.Minute),
		TotalSeats:    4,
	}
	require.NoError(t, flightService.Create(ctx, h.flight))
	h.passenger = &domain.Passenger{FullName: "Olga Owner"}
	require.NoError(t, passengerService.Create(ctx, h.passenger))

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(rpc.AuthInterceptor(authService, logger)))
	Register(srv, NewServer(bookingService))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	h.conn = conn
	return h
}

func (h *harness) call(t *testing.T, user, method string, req map[string]any) (*structpb.Struct, error) {
	t.Helper()
	in, err := structpb.NewStruct(req)
	require.NoError(t, err)
	ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+h.tokens[user])
	out := new(structpb.Struct)
	err = h.conn.Invoke(ctx, "/"+ServiceName+"/"+method, in, out)
	return out, err
}

// book creates a booking as owner and returns its id and reference.
func (h *harness) book(t *testing.T) (float64, string) {
	t.Helper()
	out, err := h.call(t, "owner", "CreateBooking", map[string]any{"flight_id": float64(h.flight.ID)})
	require.NoError(t, err)
	ref := out.Fields["booking_reference"].GetStringValue()
	require.True(t, booking.IsValidReference(ref), ref)

	out, err = h.call(t, "owner", "GetBooking", map[string]any{"booking_reference": ref})
	require.NoError(t, err)
	return out.Fields["id"].GetNumberValue(), ref
}

func TestBookingsService_Lifecycle(t *testing.T) {
	h := newHarness(t)
	id, ref := h.book(t)

	available, err := h.inventory.ListAvailable(context.Background(), h.flight.ID)
	require.NoError(t, err)
	require.Len(t, available, 4)

	_, err = h.call(t, "owner", "AssignSeat", map[string]any{
		"booking_id":   id,
		"seat_id":      float64(available[0].ID),
		"passenger_id": float64(h.passenger.ID + 1000),
	})
	assert.Equal(t, codes.NotFound, status.Code(err))

	out, err := h.call(t, "owner", "AssignSeat", map[string]any{
		"booking_id":   id,
		"seat_id":      float64(available[0].ID),
		"passenger_id": float64(h.passenger.ID),
	})
	require.NoError(t, err)
	held := out.Fields["seats"].GetListValue().GetValues()
	require.Len(t, held, 1)
	assert.Equal(t, available[0].SeatNumber, held[0].GetStructValue().Fields["seat_number"].GetStringValue())

	_, err = h.call(t, "owner", "AssignSeat", map[string]any{
		"booking_id":   id,
		"seat_id":      float64(available[0].ID),
		"passenger_id": float64(h.passenger.ID),
	})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	out, err = h.call(t, "owner", "CancelBooking", map[string]any{"id": id})
	require.NoError(t, err)
	assert.Equal(t, ref, out.Fields["booking_reference"].GetStringValue())
	assert.Equal(t, "CANCELLED", out.Fields["status"].GetStringValue())

	out, err = h.call(t, "owner", "ListBookingSeats", map[string]any{"booking_id": id})
	require.NoError(t, err)
	assert.Empty(t, out.Fields["seats"].GetListValue().GetValues())

	out, err = h.call(t, "owner", "GetBooking", map[string]any{"id": id})
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", out.Fields["status"].GetStringValue())
}

func TestBookingsService_Ownership(t *testing.T) {
	h := newHarness(t)
	id, ref := h.book(t)

	_, err := h.call(t, "stranger", "GetBooking", map[string]any{"id": id})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = h.call(t, "stranger", "GetBooking", map[string]any{"booking_reference": ref})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = h.call(t, "stranger", "CancelBooking", map[string]any{"id": id})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	out, err := h.call(t, "agent", "GetBooking", map[string]any{"booking_reference": ref})
	require.NoError(t, err)
	assert.Equal(t, id, out.Fields["id"].GetNumberValue())
}

func TestBookingsService_Errors(t *testing.T) {
	h := newHarness(t)

	_, err := h.call(t, "owner", "CreateBooking", map[string]any{"flight_id": float64(h.flight.ID + 99)})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = h.call(t, "owner", "CreateBooking", map[string]any{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = h.call(t, "owner", "GetBooking", map[string]any{"booking_reference": "bad!"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = h.call(t, "owner", "GetBooking", map[string]any{"id": float64(9999)})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = h.call(t, "nobody", "GetBooking", map[string]any{"id": float64(1)})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}
