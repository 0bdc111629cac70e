// Package grpc exposes the standard gRPC health service of the gearhub
// server. Its serving status follows the store probe.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/gearhub/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health-check service name reported next to the
// server-wide "" entry.
const ServiceName = "gearhub"

const defaultProbeInterval = 15 * time.Second

// Prober reports whether the backing store is reachable.
type Prober interface {
	PingContext(ctx context.Context) error
}

type GRPCServer struct {
	address       string
	logger        logging.Logger
	prober        Prober
	probeInterval time.Duration
	health        *health.Server
}

func NewGRPCServer(a string, l logging.Logger, p Prober) *GRPCServer {
	return &GRPCServer{
		address:       a,
		logger:        l.With("module", "grpc_server"),
		prober:        p,
		probeInterval: defaultProbeInterval,
		health:        health.NewServer(),
	}
}

// probe pings the store once and publishes the result.
func (s *GRPCServer) probe(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if s.prober != nil {
		pctx, cancel := context.WithTimeout(ctx, s.probeInterval)
		err := s.prober.PingContext(pctx)
		cancel()
		if err != nil {
			s.logger.Warn(ctx, "store probe failed", "error", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

func (s *GRPCServer) watch(ctx context.Context) {
	ticker := time.NewTicker(s.probeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.probe(ctx)
		}
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	s.probe(ctx)
	go s.watch(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
