package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "tokenkeeper.v1.Keeper"

// KeeperServer is the handler type of the service description.
type KeeperServer interface {
	handlers() map[string]handlerFunc
}

type handlerFunc func(s *GRPCServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

// methodNames fixes the order of the service's methods.
var methodNames = []string{
	"Create", "Rename", "Repass", "Delete", "Unique", "Lookup", "Users", "Names",
	"Generate", "Retrieve", "Identify", "Allow", "Deny", "Check", "List",
}

func (s *GRPCServer) handlers() map[string]handlerFunc {
	return map[string]handlerFunc{
		"Create":   (*GRPCServer).create,
		"Rename":   (*GRPCServer).rename,
		"Repass":   (*GRPCServer).repass,
		"Delete":   (*GRPCServer).delete,
		"Unique":   (*GRPCServer).unique,
		"Lookup":   (*GRPCServer).lookup,
		"Users":    (*GRPCServer).users,
		"Names":    (*GRPCServer).names,
		"Generate": (*GRPCServer).generate,
		"Retrieve": (*GRPCServer).retrieve,
		"Identify": (*GRPCServer).identify,
		"Allow":    (*GRPCServer).allow,
		"Deny":     (*GRPCServer).deny,
		"Check":    (*GRPCServer).check,
		"List":     (*GRPCServer).list,
	}
}

var serviceDesc = newServiceDesc()

func newServiceDesc() grpc.ServiceDesc {
	desc := grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*KeeperServer)(nil),
		Metadata:    "tokenkeeper/v1/keeper",
	}
	for _, name := range methodNames {
		desc.Methods = append(desc.Methods, unary(name))
	}
	return desc
}

// FullMethod returns the path of a method of the service, as used by
// grpc.ClientConn.Invoke.
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

func unary(name string) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(*GRPCServer)
			fn := s.handlers()[name]
			if interceptor == nil {
				return fn(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return fn(s, ctx, req.(*structpb.Struct))
			})
		},
	}
}
