package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var kindCodes = []struct {
	err  error
	code codes.Code
}{
	{common.ErrInvalidInput, codes.InvalidArgument},
	{common.ErrConflict, codes.AlreadyExists},
	{common.ErrNotFound, codes.NotFound},
	{common.ErrBadCredential, codes.Unauthenticated},
	{common.ErrIntegrity, codes.DataLoss},
	{common.ErrUnauthorized, codes.PermissionDenied},
}

// toStatus converts a core error into a gRPC status. Store failures and
// unclassified errors become Internal without their details.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	for _, kc := range kindCodes {
		if errors.Is(err, kc.err) {
			return status.Error(kc.code, err.Error())
		}
	}
	return status.Error(codes.Internal, common.KindOf(err))
}

// errorInterceptor maps error kinds returned by handlers to gRPC codes.
func (s *GRPCServer) errorInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	resp, err := handler(ctx, req)
	if err != nil {
		st := toStatus(err)
		if status.Code(st) == codes.Internal {
			s.logger.Error(ctx, "internal error", "method", info.FullMethod, "error", err)
		}
		return nil, st
	}
	return resp, nil
}

// loggingInterceptor logs every call with its outcome. Request bodies are
// never logged since they carry passwords and codes.
func (s *GRPCServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	st, _ := status.FromError(err)
	args := []any{"method", info.FullMethod, "code", st.Code().String(), "duration", time.Since(start)}
	if st.Code() == codes.OK {
		s.logger.Info(ctx, "request", args...)
	} else {
		s.logger.Warn(ctx, "request failed", args...)
	}
	return resp, err
}
