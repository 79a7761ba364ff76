package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Domenick1991/airreservation/config"
	bookingsapi "github.com/Domenick1991/airreservation/internal/api/bookings_service_api"
	flightsapi "github.com/Domenick1991/airreservation/internal/api/flights_service_api"
	"github.com/Domenick1991/airreservation/internal/api/rpc"
	"github.com/Domenick1991/airreservation/internal/service/auth"
	"github.com/Domenick1991/airreservation/internal/service/booking"
	"github.com/Domenick1991/airreservation/internal/service/flights"
	"github.com/Domenick1991/airreservation/internal/service/seats"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
)

// Services are the use cases exposed over gRPC next to the HTTP router.
type Services struct {
	Auth      auth.AuthUseCase
	Flights   flights.FlightUseCase
	Inventory seats.InventoryUseCase
	Bookings  booking.BookingUseCase
}

type Servers struct {
	grpcServer *grpc.Server
	httpServer *http.Server
	log        logrus.FieldLogger
}

// Run starts the gRPC and HTTP servers and blocks until ctx is cancelled or a
// server fails.
func Run(ctx context.Context, cfg *config.Config, router http.Handler, svc Services, log logrus.FieldLogger) error {
	s := newServers(cfg, router, svc, log)

	grpcLis, err := net.Listen("tcp", cfg.GRPC.Address)
	if err != nil {
		return fmt.Errorf("listen gRPC %s: %w", cfg.GRPC.Address, err)
	}
	httpLis, err := net.Listen("tcp", cfg.HTTP.Address)
	if err != nil {
		_ = grpcLis.Close()
		return fmt.Errorf("listen HTTP %s: %w", cfg.HTTP.Address, err)
	}
	return s.serve(ctx, grpcLis, httpLis, cfg.HTTP.ShutdownTimeout())
}

func newServers(cfg *config.Config, router http.Handler, svc Services, log logrus.FieldLogger) *Servers {
	grpcSrv := grpc.NewServer(grpc.UnaryInterceptor(rpc.AuthInterceptor(svc.Auth, log)))
	flightsapi.Register(grpcSrv, flightsapi.NewServer(svc.Flights, svc.Inventory))
	bookingsapi.Register(grpcSrv, bookingsapi.NewServer(svc.Bookings))

	return &Servers{
		grpcServer: grpcSrv,
		httpServer: &http.Server{
			Addr:    cfg.HTTP.Address,
			Handler: router,
		},
		log: log,
	}
}

func (s *Servers) serve(ctx context.Context, grpcLis, httpLis net.Listener, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 2)

	go func() { errCh <- s.grpcServer.Serve(grpcLis) }()
	go func() {
		if err := s.httpServer.Serve(httpLis); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.WithFields(logrus.Fields{
		"http": httpLis.Addr().String(),
		"grpc": grpcLis.Addr().String(),
	}).Info("servers started")

	select {
	case err := <-errCh:
		s.grpcServer.Stop()
		_ = s.httpServer.Close()
		return err
	case <-ctx.Done():
		s.log.Info("shutting down servers")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.grpcServer.GracefulStop()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
