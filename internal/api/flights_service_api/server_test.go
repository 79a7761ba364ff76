package flights_service_api

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/Domenick1991/airreservation/internal/api/rpc"
	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/Domenick1991/airreservation/internal/repository/memory"
	"github.com/Domenick1991/airreservation/internal/service/auth"
	"github.com/Domenick1991/airreservation/internal/service/flights"
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
	conn    *grpc.ClientConn
	token   string
	flights flights.FlightUseCase
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger, _ := test.NewNullLogger()
	store := memory.New()
	inventory := seats.NewInventoryService(store.Seats(), seats.WithLogger(logger))
	flightService := flights.NewFlightService(store.Flights(), inventory, flights.WithLogger(logger))
	userService := users.NewUserService(store.Users(), users.WithBcryptCost(bcrypt.MinCost), users.WithLogger(logger))
	authService := auth.NewAuthService(userService, "grpc-test-secret", auth.WithLogger(logger))

	ctx := context.Background()
	require.NoError(t, userService.Create(ctx, &domain.User{
		Username: "traveller", Password: "secret", Role: domain.RolePassenger, IsActive: true,
	}))
	session, err := authService.Login(ctx, "traveller", "secret")
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(rpc.AuthInterceptor(authService, logger)))
	Register(srv, NewServer(flightService, inventory))
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

	return &harness{conn: conn, token: session.Token, flights: flightService}
}

func (h *harness) call(t *testing.T, method string, req map[string]any) (*structpb.Struct, error) {
	t.Helper()
	in, err := structpb.NewStruct(req)
	require.NoError(t, err)
	ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+h.token)
	out := new(structpb.Struct)
	err = h.conn.Invoke(ctx, "/"+ServiceName+"/"+method, in, out)
	return out, err
}

func (h *harness) createFlight(t *testing.T, origin, destination string, departure time.Time, totalSeats int) *domain.Flight {
	t.Helper()
	flight := &domain.Flight{
		FlightNumber:  "AR" + origin[:1] + destination[:1],
		Origin:        origin,
		Destination:   destination,
		DepartureTime: departure,
		ArrivalTime:   departure.Add(2 * time.Hour),
		TotalSeats:    totalSeats,
	}
	require.NoError(t, h.flights.Create(context.Background(), flight))
	return flight
}

func TestFlightsService_RequiresToken(t *testing.T) {
	h := newHarness(t)
	in, err := structpb.NewStruct(map[string]any{})
	require.NoError(t, err)

	err = h.conn.Invoke(context.Background(), "/"+ServiceName+"/SearchFlights", in, new(structpb.Struct))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestFlightsService_SearchFlights(t *testing.T) {
	h := newHarness(t)
	day := time.Now().AddDate(0, 0, 3).UTC()
	departure := time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, time.UTC)
	h.createFlight(t, "Lisbon", "Madrid", departure, 6)
	h.createFlight(t, "Lisbon", "Paris", departure, 6)

	out, err := h.call(t, "SearchFlights", map[string]any{})
	require.NoError(t, err)
	assert.Len(t, out.Fields["flights"].GetListValue().GetValues(), 2)

	out, err = h.call(t, "SearchFlights", map[string]any{"destination": "Paris", "date": departure.Format(time.DateOnly)})
	require.NoError(t, err)
	found := out.Fields["flights"].GetListValue().GetValues()
	require.Len(t, found, 1)
	assert.Equal(t, "Paris", found[0].GetStructValue().Fields["destination"].GetStringValue())

	_, err = h.call(t, "SearchFlights", map[string]any{"date": "tomorrow"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestFlightsService_GetFlight(t *testing.T) {
	h := newHarness(t)
	flight := h.createFlight(t, "Oslo", "Bergen", time.Now().Add(24*time.Hour), 12)

	out, err := h.call(t, "GetFlight", map[string]any{"id": float64(flight.ID)})
	require.NoError(t, err)
	assert.Equal(t, "Oslo", out.Fields["origin"].GetStringValue())
	assert.Equal(t, float64(12), out.Fields["total_seats"].GetNumberValue())

	_, err = h.call(t, "GetFlight", map[string]any{"id": float64(flight.ID + 100)})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = h.call(t, "GetFlight", map[string]any{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestFlightsService_ListSeats(t *testing.T) {
	h := newHarness(t)
	flight := h.createFlight(t, "Rome", "Milan", time.Now().Add(24*time.Hour), 8)

	out, err := h.call(t, "ListSeats", map[string]any{"flight_id": float64(flight.ID), "available": true})
	require.NoError(t, err)
	list := out.Fields["seats"].GetListValue().GetValues()
	require.Len(t, list, 8)
	assert.Equal(t, "1A", list[0].GetStructValue().Fields["seat_number"].GetStringValue())
	assert.True(t, list[0].GetStructValue().Fields["is_available"].GetBoolValue())

	_, err = h.call(t, "ListSeats", map[string]any{"flight_id": float64(flight.ID + 100)})
	assert.Equal(t, codes.NotFound, status.Code(err))
}
