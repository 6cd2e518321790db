package order

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/appetiteclub/apt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	streamServiceName = "payper.pos.v1.OrderStream"
	streamWatchMethod = "Watch"

	// WatchMethod is the full method name clients open a stream on.
	WatchMethod = "/" + streamServiceName + "/" + streamWatchMethod
)

// OrderStreamServer is the handler type of the order stream service.
type OrderStreamServer interface {
	Watch(req *structpb.Struct, stream grpc.ServerStream) error
}

// OrderStreamDesc describes a server-streaming service whose request is a
// filter struct (status, table_id, type, platform, from, to as strings) and
// whose responses are snapshot structs shaped like the WebSocket frames.
var OrderStreamDesc = grpc.ServiceDesc{
	ServiceName: streamServiceName,
	HandlerType: (*OrderStreamServer)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    streamWatchMethod,
			Handler:       watchHandler,
			ServerStreams: true,
		},
	},
	Metadata: "payper/pos/v1/order_stream",
}

func watchHandler(srv interface{}, stream grpc.ServerStream) error {
	req := new(structpb.Struct)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(OrderStreamServer).Watch(req, stream)
}

// GRPCStream serves live order snapshots to gRPC clients such as printer
// bridges and kitchen screens.
type GRPCStream struct {
	hub      *Hub
	location *time.Location
	logger   apt.Logger
}

func NewGRPCStream(hub *Hub, loc *time.Location, logger apt.Logger) *GRPCStream {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if loc == nil {
		loc = time.Local
	}
	return &GRPCStream{hub: hub, location: loc, logger: logger}
}

// RegisterGRPCService registers the stream with a gRPC server.
func (s *GRPCStream) RegisterGRPCService(server *grpc.Server) {
	server.RegisterService(&OrderStreamDesc, s)
}

func (s *GRPCStream) Watch(req *structpb.Struct, stream grpc.ServerStream) error {
	f, err := FilterFromValues(filterValues(req), s.location)
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}

	ctx := stream.Context()
	sub, err := s.hub.Subscribe(ctx, f)
	if err != nil {
		s.logger.Error("cannot open order stream", "error", err)
		return status.Error(codes.Unavailable, "cannot query orders")
	}
	defer func() {
		sub.Close()
		s.logger.Info("order stream subscriber disconnected", "statuses", f.Statuses)
	}()

	s.logger.Info("new order stream subscriber", "statuses", f.Statuses, "table_filter", f.TableID.String(), "platform", f.Platform)
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-sub.C():
			if !ok {
				return nil
			}
			msg, err := SnapshotStruct(snap)
			if err != nil {
				return status.Error(codes.Internal, err.Error())
			}
			if err := stream.SendMsg(msg); err != nil {
				return err
			}
		}
	}
}

func filterValues(req *structpb.Struct) url.Values {
	q := url.Values{}
	for key, v := range req.GetFields() {
		if s, ok := v.GetKind().(*structpb.Value_StringValue); ok && s.StringValue != "" {
			q.Set(key, s.StringValue)
		}
	}
	return q
}

// SnapshotStruct converts a snapshot through its JSON form, so gRPC and
// WebSocket clients see the same field names.
func SnapshotStruct(snap Snapshot) (*structpb.Struct, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("cannot encode snapshot: %w", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("cannot encode snapshot: %w", err)
	}
	return structpb.NewStruct(fields)
}
