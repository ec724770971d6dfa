// Package grpc exposes the core over gRPC. The service is described by hand
// and exchanges google.protobuf.Struct messages, so it needs no generated
// code; field names follow the JSON bodies of the original HTTP routes.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/tokenkeeper/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Keeper is the part of core.Keeper the adapter calls.
type Keeper interface {
	RegisterWithToken(ctx context.Context, name, password string) (string, string, error)
	Authenticate(ctx context.Context, name, password string) (string, error)
	Rename(ctx context.Context, id, newName string) error
	ChangePassword(ctx context.Context, id, newPassword string) error
	Remove(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (string, error)
	FindByName(ctx context.Context, name string) (string, error)
	PageIDs(ctx context.Context, size, offset int) ([]string, error)
	PageNames(ctx context.Context, size, offset int) ([]string, error)
	IssueToken(ctx context.Context, ownerID, password string) (string, error)
	RecoverToken(ctx context.Context, ownerID, password string) (string, error)
	Identify(ctx context.Context, code string) (string, error)
	SetPrivilege(ctx context.Context, auth, targetCode, key, value string) error
	UnsetPrivilege(ctx context.Context, auth, targetCode, key string) error
	GetPrivilege(ctx context.Context, targetCode, key string) (string, bool, error)
	ListPrivileges(ctx context.Context, targetCode string) (map[string]string, error)
}

type GRPCServer struct {
	address string
	keeper  Keeper
	logger  logging.Logger
	health  *health.Server
}

func NewGRPCServer(a string, l logging.Logger, k Keeper) *GRPCServer {
	return &GRPCServer{
		address: a,
		keeper:  k,
		logger:  l.With("module", "grpc_server"),
		health:  health.NewServer(),
	}
}

// SetServing flips the health status reported for the Keeper service.
func (s *GRPCServer) SetServing(ok bool) {
	st := healthpb.HealthCheckResponse_SERVING
	if !ok {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus(ServiceName, st)
	s.health.SetServingStatus("", st)
}

// NewServer returns a grpc.Server with the Keeper and health services
// registered and the interceptors installed.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.errorInterceptor))
	srv := grpc.NewServer(opts...)

	srv.RegisterService(&serviceDesc, s)
	healthpb.RegisterHealthServer(srv, s.health)
	s.SetServing(true)

	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.NewServer()

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
