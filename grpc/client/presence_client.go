package client

import (
	"context"
	"snappy-chat/grpc/server"

	"github.com/samber/lo"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// PresenceClient calls the presence query service with a bearer token.
type PresenceClient struct {
	cc    grpc.ClientConnInterface
	token string
}

func NewPresenceClient(cc grpc.ClientConnInterface, token string) *PresenceClient {
	return &PresenceClient{cc: cc, token: token}
}

func (c *PresenceClient) withToken(ctx context.Context) context.Context {
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
}

func (c *PresenceClient) OnlineUsers(ctx context.Context) ([]string, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(c.withToken(ctx), server.OnlineUsersFullMethod, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return lo.Map(out.GetValues(), func(v *structpb.Value, _ int) string {
		return v.GetStringValue()
	}), nil
}

// History returns the raw message records of identity.
func (c *PresenceClient) History(ctx context.Context, identity string) ([]map[string]any, error) {
	in, err := structpb.NewStruct(map[string]any{"identity": identity})
	if err != nil {
		return nil, err
	}
	out := new(structpb.ListValue)
	if err = c.cc.Invoke(c.withToken(ctx), server.HistoryFullMethod, in, out); err != nil {
		return nil, err
	}
	return lo.Map(out.GetValues(), func(v *structpb.Value, _ int) map[string]any {
		return v.GetStructValue().AsMap()
	}), nil
}
