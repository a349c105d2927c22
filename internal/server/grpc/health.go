// Package grpcserver exposes the CardVault gRPC health endpoint used by
// orchestrators and load balancers.
package grpcserver

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name reported next to the overall "" entry.
const ServiceName = "cardvault.CardVault"

// Pinger reports backend reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options tune the health server.
type Options struct {
	Creds      credentials.TransportCredentials // nil serves plaintext
	Reflection bool
	// ProbeTimeout bounds a single backend ping. Zero means 2s.
	ProbeTimeout time.Duration
}

// Server is a gRPC server carrying only the standard health service.
type Server struct {
	grpc    *grpc.Server
	health  *health.Server
	db      Pinger
	log     *zap.Logger
	timeout time.Duration
}

// New builds the health server. Status starts as NOT_SERVING until the first probe.
func New(db Pinger, log *zap.Logger, o Options) *Server {
	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(RecoverUnary(log), LoggingUnary(log)),
		grpc.ChainStreamInterceptor(RecoverStream(log), LoggingStream(log)),
	}
	if o.Creds != nil {
		opts = append(opts, grpc.Creds(o.Creds))
	}
	if o.ProbeTimeout <= 0 {
		o.ProbeTimeout = 2 * time.Second
	}
	s := &Server{
		grpc:    grpc.NewServer(opts...),
		health:  health.NewServer(),
		db:      db,
		log:     log,
		timeout: o.ProbeTimeout,
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	if o.Reflection {
		reflection.Register(s.grpc)
	}
	s.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

func (s *Server) set(st healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Probe pings the backend once and publishes the result. It reports whether
// the backend is reachable.
func (s *Server) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		s.log.Warn("health probe failed", zap.Error(err))
		s.set(healthpb.HealthCheckResponse_NOT_SERVING)
		return false
	}
	s.set(healthpb.HealthCheckResponse_SERVING)
	return true
}

// Watch probes immediately and then every interval until ctx is done.
func (s *Server) Watch(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	last := s.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if ok := s.Probe(ctx); ok != last {
				s.log.Info("health changed", zap.Bool("serving", ok))
				last = ok
			}
		}
	}
}

// Serve blocks serving gRPC on lis.
func (s *Server) Serve(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// Stop marks every service NOT_SERVING and drains in-flight calls, giving up after grace.
func (s *Server) Stop(grace time.Duration) {
	s.health.Shutdown()
	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(grace):
		s.grpc.Stop()
	}
}
