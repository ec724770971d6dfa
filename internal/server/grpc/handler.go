package grpc

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
	"google.golang.org/protobuf/types/known/structpb"
)

// fields returns the string values of keys, failing with an InvalidInput
// error naming the first one that is missing or not a string.
func fields(req *structpb.Struct, keys ...string) ([]string, error) {
	out := make([]string, len(keys))
	for i, k := range keys {
		v, ok := req.GetFields()[k]
		if !ok {
			return nil, fmt.Errorf("%w: missing field %q", common.ErrInvalidInput, k)
		}
		sv, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("%w: field %q must be a string", common.ErrInvalidInput, k)
		}
		out[i] = sv.StringValue
	}
	return out, nil
}

// page reads the optional size and offset fields. size defaults to 100.
func page(req *structpb.Struct) (int, int, error) {
	size, offset := 100, 0
	for k, dst := range map[string]*int{"size": &size, "offset": &offset} {
		v, ok := req.GetFields()[k]
		if !ok {
			continue
		}
		nv, ok := v.GetKind().(*structpb.Value_NumberValue)
		if !ok || nv.NumberValue != float64(int(nv.NumberValue)) {
			return 0, 0, fmt.Errorf("%w: field %q must be an integer", common.ErrInvalidInput, k)
		}
		*dst = int(nv.NumberValue)
	}
	return size, offset, nil
}

func reply(m map[string]any) (*structpb.Struct, error) {
	return structpb.NewStruct(m)
}

func anyList(list []string) []any {
	out := make([]any, len(list))
	for i, v := range list {
		out[i] = v
	}
	return out
}

// login authenticates name/pass and returns the user id.
func (s *GRPCServer) login(ctx context.Context, req *structpb.Struct) (string, string, error) {
	f, err := fields(req, "name", "pass")
	if err != nil {
		return "", "", err
	}
	id, err := s.keeper.Authenticate(ctx, f[0], f[1])
	if err != nil {
		return "", "", err
	}
	return id, f[1], nil
}

func (s *GRPCServer) create(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f, err := fields(req, "name", "pass")
	if err != nil {
		return nil, err
	}
	id, code, err := s.keeper.RegisterWithToken(ctx, f[0], f[1])
	if err != nil {
		return nil, err
	}
	return reply(map[string]any{"uuid": id, "code": code})
}

func (s *GRPCServer) rename(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, pass, err := s.login(ctx, req)
	if err != nil {
		return nil, err
	}
	f, err := fields(req, "rename")
	if err != nil {
		return nil, err
	}
	if err := s.keeper.Rename(ctx, id, f[0]); err != nil {
		return nil, err
	}
	code, err := s.keeper.RecoverToken(ctx, id, pass)
	if err != nil {
		return nil, err
	}
	return reply(map[string]any{"code": code})
}

func (s *GRPCServer) repass(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, _, err := s.login(ctx, req)
	if err != nil {
		return nil, err
	}
	f, err := fields(req, "repass")
	if err != nil {
		return nil, err
	}
	if err := s.keeper.ChangePassword(ctx, id, f[0]); err != nil {
		return nil, err
	}
	code, err := s.keeper.RecoverToken(ctx, id, f[0])
	if err != nil {
		return nil, err
	}
	return reply(map[string]any{"code": code})
}

func (s *GRPCServer) delete(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, _, err := s.login(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.keeper.Remove(ctx, id); err != nil {
		return nil, err
	}
	return reply(nil)
}

func (s *GRPCServer) unique(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f, err := fields(req, "name")
	if err != nil {
		return nil, err
	}
	id, err := s.keeper.FindByName(ctx, f[0])
	if err != nil {
		return nil, err
	}
	return reply(map[string]any{"uuid": id})
}

func (s *GRPCServer) lookup(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f, err := fields(req, "uuid")
	if err != nil {
		return nil, err
	}
	name, err := s.keeper.FindByID(ctx, f[0])
	if err != nil {
		return nil, err
	}
	return reply(map[string]any{"name": name})
}

func (s *GRPCServer) users(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	size, offset, err := page(req)
	if err != nil {
		return nil, err
	}
	ids, err := s.keeper.PageIDs(ctx, size, offset)
	if err != nil {
		return nil, err
	}
	return reply(map[string]any{"uuids": anyList(ids)})
}

func (s *GRPCServer) names(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	size, offset, err := page(req)
	if err != nil {
		return nil, err
	}
	names, err := s.keeper.PageNames(ctx, size, offset)
	if err != nil {
		return nil, err
	}
	return reply(map[string]any{"names": anyList(names)})
}

func (s *GRPCServer) generate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, pass, err := s.login(ctx, req)
	if err != nil {
		return nil, err
	}
	code, err := s.keeper.IssueToken(ctx, id, pass)
	if err != nil {
		return nil, err
	}
	return reply(map[string]any{"code": code})
}

func (s *GRPCServer) retrieve(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, pass, err := s.login(ctx, req)
	if err != nil {
		return nil, err
	}
	code, err := s.keeper.RecoverToken(ctx, id, pass)
	if err != nil {
		return nil, err
	}
	return reply(map[string]any{"code": code})
}

func (s *GRPCServer) identify(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f, err := fields(req, "code")
	if err != nil {
		return nil, err
	}
	id, err := s.keeper.Identify(ctx, f[0])
	if err != nil {
		return nil, err
	}
	name, err := s.keeper.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return reply(map[string]any{"uuid": id, "name": name})
}

func (s *GRPCServer) allow(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f, err := fields(req, "auth", "code", "pkey", "pval")
	if err != nil {
		return nil, err
	}
	if err := s.keeper.SetPrivilege(ctx, f[0], f[1], f[2], f[3]); err != nil {
		return nil, err
	}
	return reply(nil)
}

func (s *GRPCServer) deny(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f, err := fields(req, "auth", "code", "pkey")
	if err != nil {
		return nil, err
	}
	if err := s.keeper.UnsetPrivilege(ctx, f[0], f[1], f[2]); err != nil {
		return nil, err
	}
	return reply(nil)
}

func (s *GRPCServer) check(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f, err := fields(req, "code", "pkey")
	if err != nil {
		return nil, err
	}
	v, ok, err := s.keeper.GetPrivilege(ctx, f[0], f[1])
	if err != nil {
		return nil, err
	}
	if !ok {
		return reply(map[string]any{"pval": nil})
	}
	return reply(map[string]any{"pval": v})
}

func (s *GRPCServer) list(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f, err := fields(req, "code")
	if err != nil {
		return nil, err
	}
	pairs, err := s.keeper.ListPrivileges(ctx, f[0])
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(pairs))
	for k, v := range pairs {
		out[k] = v
	}
	return reply(map[string]any{"pairs": out})
}
