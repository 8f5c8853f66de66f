package server

import (
	"context"
	"log/slog"
	"snappy-chat/auth"
	"snappy-chat/domain"
	"snappy-chat/errors"
	"strconv"
	"time"

	"github.com/samber/lo"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	PresenceServiceName   = "chatrelay.v1.PresenceService"
	OnlineUsersFullMethod = "/" + PresenceServiceName + "/OnlineUsers"
	HistoryFullMethod     = "/" + PresenceServiceName + "/History"
)

// PresenceServiceServer is the read-only query surface of the server.
// Messages are protobuf well-known types so no generated code is needed.
type PresenceServiceServer interface {
	OnlineUsers(ctx context.Context, in *emptypb.Empty) (*structpb.ListValue, error)
	History(ctx context.Context, in *structpb.Struct) (*structpb.ListValue, error)
}

var PresenceServiceDesc = grpc.ServiceDesc{
	ServiceName: PresenceServiceName,
	HandlerType: (*PresenceServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "OnlineUsers", Handler: onlineUsersHandler},
		{MethodName: "History", Handler: historyHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "chatrelay/v1/presence.proto",
}

func RegisterPresenceServiceServer(s grpc.ServiceRegistrar, srv PresenceServiceServer) {
	s.RegisterService(&PresenceServiceDesc, srv)
}

func onlineUsersHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PresenceServiceServer).OnlineUsers(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: OnlineUsersFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PresenceServiceServer).OnlineUsers(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func historyHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PresenceServiceServer).History(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: HistoryFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PresenceServiceServer).History(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

type OnlineLister interface {
	OnlineUsers() []string
}

type HistoryReader interface {
	History(ctx context.Context, identity string) ([]domain.Message, error)
}

type PresenceServer struct {
	log     *slog.Logger
	online  OnlineLister
	history HistoryReader
}

func NewPresenceServer(log *slog.Logger, online OnlineLister, history HistoryReader) *PresenceServer {
	return &PresenceServer{log: log, online: online, history: history}
}

// OnlineUsers returns the presence snapshot.
func (s *PresenceServer) OnlineUsers(_ context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	users := s.online.OnlineUsers()
	return structpb.NewList(lo.Map(users, func(u string, _ int) any { return u }))
}

// History returns the caller's own conversation log.
func (s *PresenceServer) History(ctx context.Context, in *structpb.Struct) (*structpb.ListValue, error) {
	identity := in.GetFields()["identity"].GetStringValue()
	if identity == "" {
		return nil, status.Error(codes.InvalidArgument, "identity is required")
	}
	if caller, ok := auth.UsernameFromContext(ctx); ok && !domain.SamePrincipal(caller, identity) {
		return nil, status.Error(codes.PermissionDenied, "history of another user")
	}

	messages, err := s.history.History(ctx, identity)
	if err != nil {
		s.log.Error("History not loaded", "identity", identity, "error", err)
		return nil, errors.MapToGRPCError(err)
	}
	return structpb.NewList(lo.Map(messages, func(m domain.Message, _ int) any {
		return map[string]any{
			"id":           strconv.FormatUint(m.ID, 10),
			"sender":       m.Sender,
			"recipient":    m.Recipient,
			"message":      m.Content,
			"timestamp":    m.At.UTC().Format(time.RFC3339),
			"is_delivered": m.Delivered,
		}
	}))
}
