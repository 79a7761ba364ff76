package bookings_service_api

import (
	"context"

	"github.com/Domenick1991/airreservation/internal/api/rpc"
	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/Domenick1991/airreservation/internal/service/booking"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "airline.v1.BookingsService"

// Server implements airline.v1.BookingsService. Passengers may only reach
// their own bookings.
type Server struct {
	bookings booking.BookingUseCase
}

func NewServer(bookings booking.BookingUseCase) *Server {
	return &Server{bookings: bookings}
}

type BookingsServiceServer interface {
	CreateBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CancelBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	AssignSeat(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListBookingSeats(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var _ BookingsServiceServer = (*Server)(nil)

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BookingsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary[*Server](ServiceName, "CreateBooking", (*Server).CreateBooking),
		rpc.Unary[*Server](ServiceName, "CancelBooking", (*Server).CancelBooking),
		rpc.Unary[*Server](ServiceName, "AssignSeat", (*Server).AssignSeat),
		rpc.Unary[*Server](ServiceName, "GetBooking", (*Server).GetBooking),
		rpc.Unary[*Server](ServiceName, "ListBookingSeats", (*Server).ListBookingSeats),
	},
	Metadata: "airline/v1/bookings.proto",
}

func Register(registrar grpc.ServiceRegistrar, srv *Server) {
	registrar.RegisterService(&ServiceDesc, srv)
}

// CreateBooking books flight_id for the caller.
func (s *Server) CreateBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	identity := rpc.IdentityFrom(ctx)
	if identity == nil {
		return nil, status.Error(codes.Unauthenticated, "unauthenticated")
	}
	flightID, err := rpc.ID(req, "flight_id")
	if err != nil {
		return nil, err
	}
	ref, err := s.bookings.CreateBooking(ctx, flightID, identity.UserID)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return structpb.NewStruct(map[string]any{"booking_reference": ref})
}

func (s *Server) CancelBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	b, err := s.load(ctx, req, "id")
	if err != nil {
		return nil, err
	}
	cancelled, err := s.bookings.CancelBooking(ctx, b.ID)
	if err != nil {
		return nil, rpc.Error(err)
	}
	if !cancelled {
		return nil, rpc.Error(domain.ErrBookingNotFound)
	}
	return structpb.NewStruct(map[string]any{
		"id":                float64(b.ID),
		"booking_reference": b.Reference,
		"status":            string(domain.BookingStatusCancelled),
	})
}

// AssignSeat answers with every seat the booking holds after the assignment.
func (s *Server) AssignSeat(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	b, err := s.load(ctx, req, "booking_id")
	if err != nil {
		return nil, err
	}
	seatID, err := rpc.ID(req, "seat_id")
	if err != nil {
		return nil, err
	}
	passengerID, err := rpc.ID(req, "passenger_id")
	if err != nil {
		return nil, err
	}
	if err := s.bookings.AssignSeat(ctx, b.ID, seatID, passengerID); err != nil {
		return nil, rpc.Error(err)
	}
	return s.seats(ctx, b.ID)
}

// GetBooking looks the booking up by booking_reference when given, by id
// otherwise.
func (s *Server) GetBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if ref := rpc.String(req, "booking_reference"); ref != "" {
		if !booking.IsValidReference(ref) {
			return nil, status.Error(codes.InvalidArgument, "invalid booking reference")
		}
		b, err := s.bookings.GetByReference(ctx, ref)
		if err != nil {
			return nil, rpc.Error(err)
		}
		if err := authorize(ctx, b); err != nil {
			return nil, err
		}
		return rpc.Encode(b)
	}

	b, err := s.load(ctx, req, "id")
	if err != nil {
		return nil, err
	}
	return rpc.Encode(b)
}

func (s *Server) ListBookingSeats(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	b, err := s.load(ctx, req, "booking_id")
	if err != nil {
		return nil, err
	}
	return s.seats(ctx, b.ID)
}

func (s *Server) seats(ctx context.Context, bookingID int64) (*structpb.Struct, error) {
	held, err := s.bookings.GetBookingSeats(ctx, bookingID)
	if err != nil {
		return nil, rpc.Error(err)
	}
	if held == nil {
		held = []domain.Seat{}
	}
	return rpc.Encode(map[string]any{"booking_id": bookingID, "seats": held})
}

func (s *Server) load(ctx context.Context, req *structpb.Struct, field string) (*domain.Booking, error) {
	id, err := rpc.ID(req, field)
	if err != nil {
		return nil, err
	}
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, rpc.Error(err)
	}
	if err := authorize(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func authorize(ctx context.Context, b *domain.Booking) error {
	identity := rpc.IdentityFrom(ctx)
	if identity == nil {
		return status.Error(codes.Unauthenticated, "unauthenticated")
	}
	if identity.IsPassenger() && b.UserID != identity.UserID {
		return rpc.Error(rpc.ErrPermissionDenied)
	}
	return nil
}
