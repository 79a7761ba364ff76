package flights_service_api

import (
	"context"
	"time"

	"github.com/Domenick1991/airreservation/internal/api/rpc"
	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/Domenick1991/airreservation/internal/service/flights"
	"github.com/Domenick1991/airreservation/internal/service/seats"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "airline.v1.FlightsService"

// Server implements airline.v1.FlightsService.
type Server struct {
	flights   flights.FlightUseCase
	inventory seats.InventoryUseCase
}

func NewServer(flights flights.FlightUseCase, inventory seats.InventoryUseCase) *Server {
	return &Server{flights: flights, inventory: inventory}
}

type FlightsServiceServer interface {
	SearchFlights(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetFlight(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListSeats(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var _ FlightsServiceServer = (*Server)(nil)

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FlightsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary[*Server](ServiceName, "SearchFlights", (*Server).SearchFlights),
		rpc.Unary[*Server](ServiceName, "GetFlight", (*Server).GetFlight),
		rpc.Unary[*Server](ServiceName, "ListSeats", (*Server).ListSeats),
	},
	Metadata: "airline/v1/flights.proto",
}

func Register(registrar grpc.ServiceRegistrar, srv *Server) {
	registrar.RegisterService(&ServiceDesc, srv)
}

// SearchFlights accepts optional origin, destination and date (YYYY-MM-DD)
// filters and lists every flight when none is set.
func (s *Server) SearchFlights(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	filter := domain.FlightSearch{
		Origin:      rpc.String(req, "origin"),
		Destination: rpc.String(req, "destination"),
	}
	if raw := rpc.String(req, "date"); raw != "" {
		date, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, "date must be YYYY-MM-DD")
		}
		filter.Date = &date
	}

	var (
		list []domain.Flight
		err  error
	)
	if filter.Origin == "" && filter.Destination == "" && filter.Date == nil {
		list, err = s.flights.List(ctx)
	} else {
		list, err = s.flights.Search(ctx, filter)
	}
	if err != nil {
		return nil, rpc.Error(err)
	}
	return rpc.Encode(map[string]any{"flights": nonNil(list)})
}

func (s *Server) GetFlight(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := rpc.ID(req, "id")
	if err != nil {
		return nil, err
	}
	flight, err := s.flights.GetByID(ctx, id)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return rpc.Encode(flight)
}

func (s *Server) ListSeats(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	flightID, err := rpc.ID(req, "flight_id")
	if err != nil {
		return nil, err
	}
	if _, err := s.flights.GetByID(ctx, flightID); err != nil {
		return nil, rpc.Error(err)
	}

	var list []domain.Seat
	if rpc.Bool(req, "available") {
		list, err = s.inventory.ListAvailable(ctx, flightID)
	} else {
		list, err = s.inventory.ListByFlight(ctx, flightID)
	}
	if err != nil {
		return nil, rpc.Error(err)
	}
	return rpc.Encode(map[string]any{"flight_id": flightID, "seats": nonNil(list)})
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
