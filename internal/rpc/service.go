// Package rpc exposes token issuing and join validation over gRPC. Messages
// are google.protobuf.Struct so no generated code is needed.
package rpc

import (
	"context"
	"errors"
	"math"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"session-scheduler/internal/auth"
	"session-scheduler/internal/scheduler"
)

const (
	ServiceName        = "session.v1.SessionService"
	IssueTokenMethod   = "/" + ServiceName + "/IssueToken"
	ValidateJoinMethod = "/" + ServiceName + "/ValidateJoin"
)

type SessionServiceServer interface {
	IssueToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ValidateJoin(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type JoinValidator interface {
	ValidateJoin(ctx context.Context, sessionName, passcode string) (scheduler.Verdict, error)
}

type TokenSigner interface {
	Sign(sessionName string, role int) (string, error)
}

type Server struct {
	joins  JoinValidator
	signer TokenSigner
}

func NewServer(joins JoinValidator, signer TokenSigner) *Server {
	return &Server{joins: joins, signer: signer}
}

func stringField(in *structpb.Struct, key string) string {
	if v, ok := in.GetFields()[key]; ok {
		return v.GetStringValue()
	}
	return ""
}

// IssueToken expects {sessionName, role} and returns {signature}.
func (s *Server) IssueToken(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	name := stringField(in, "sessionName")
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "sessionName required")
	}
	rv, ok := in.GetFields()["role"]
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "role required")
	}
	num, ok := rv.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "role must be a number")
	}
	role := num.NumberValue
	if role != math.Trunc(role) || (role != 0 && role != 1) {
		return nil, status.Error(codes.InvalidArgument, "role must be 0 or 1")
	}

	sig, err := s.signer.Sign(name, int(role))
	if errors.Is(err, auth.ErrMissingSecret) {
		return nil, status.Error(codes.FailedPrecondition, "signing not configured")
	}
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("sign token")
		return nil, status.Error(codes.Internal, "internal error")
	}
	return structpb.NewStruct(map[string]any{"signature": sig})
}

// ValidateJoin expects {sessionName, passcode} and returns
// {allowed, outcome, reason}. Rejections are answers, not errors.
func (s *Server) ValidateJoin(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	name, pass := stringField(in, "sessionName"), stringField(in, "passcode")
	if name == "" || pass == "" {
		return nil, status.Error(codes.InvalidArgument, "sessionName and passcode required")
	}

	v, err := s.joins.ValidateJoin(ctx, name, pass)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("validate join")
		return nil, status.Error(codes.Internal, "internal error")
	}
	return structpb.NewStruct(map[string]any{
		"allowed": v.Allowed(),
		"outcome": v.Outcome.String(),
		"reason":  v.Reason,
	})
}

func Register(s grpc.ServiceRegistrar, srv SessionServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SessionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "IssueToken", Handler: issueTokenHandler},
		{MethodName: "ValidateJoin", Handler: validateJoinHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "session/v1/session.proto",
}

func issueTokenHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServiceServer).IssueToken(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: IssueTokenMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(SessionServiceServer).IssueToken(ctx, req.(*structpb.Struct))
	})
}

func validateJoinHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServiceServer).ValidateJoin(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ValidateJoinMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(SessionServiceServer).ValidateJoin(ctx, req.(*structpb.Struct))
	})
}

// Client is a thin caller for SessionService.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client { return &Client{cc: cc} }

func (c *Client) IssueToken(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, IssueTokenMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ValidateJoin(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ValidateJoinMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
