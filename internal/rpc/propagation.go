// Package rpc serves the propagation service over gRPC. Messages are
// google.protobuf.Struct values carrying the same JSON documents as the REST
// API, so clients need no generated stubs.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/groundwave/internal/logging"
	"github.com/signalsfoundry/groundwave/internal/service"
	"github.com/signalsfoundry/groundwave/model"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "groundwave.v1.PropagationService"

const (
	methodEvaluate   = "/" + ServiceName + "/Evaluate"
	methodSweep      = "/" + ServiceName + "/Sweep"
	methodGetSweep   = "/" + ServiceName + "/GetSweep"
	methodListSweeps = "/" + ServiceName + "/ListSweeps"
)

// PropagationServer is the server API for groundwave.v1.PropagationService.
type PropagationServer interface {
	Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Sweep(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSweep(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListSweeps(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// PropagationService implements PropagationServer over a service.Service.
type PropagationService struct {
	svc *service.Service
	log logging.Logger
}

var _ PropagationServer = (*PropagationService)(nil)

// NewPropagationService constructs the gRPC adapter. log may be nil.
func NewPropagationService(svc *service.Service, log logging.Logger) *PropagationService {
	if log == nil {
		log = logging.Noop()
	}
	return &PropagationService{svc: svc, log: log}
}

// Evaluate accepts an InputParameters document; omitted fields keep their
// model.DefaultParameters values. It returns {parameters, result}.
func (s *PropagationService) Evaluate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	p := model.DefaultParameters()
	if err := decodeStruct(in, &p); err != nil {
		return nil, err
	}
	res, err := s.svc.Evaluate(ctx, p)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return encodeStruct(map[string]any{
		"parameters":  p,
		"result":      res,
		"method_name": res.Method.String(),
	})
}

// Sweep accepts a service.SweepRequest document and returns the
// service.SweepResponse.
func (s *PropagationService) Sweep(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req service.SweepRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, err
	}
	resp, err := s.svc.Sweep(ctx, req)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return encodeStruct(resp)
}

// GetSweep accepts {"id": ...} and returns the stored run.
func (s *PropagationService) GetSweep(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id := in.GetFields()["id"].GetStringValue()
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	run, err := s.svc.GetSweep(ctx, id)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return encodeStruct(run)
}

// ListSweeps accepts an optional {"limit": n} and returns {"sweeps": [...]}.
func (s *PropagationService) ListSweeps(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	limit := int(in.GetFields()["limit"].GetNumberValue())
	if limit < 0 {
		return nil, status.Error(codes.InvalidArgument, "limit must be non-negative")
	}
	runs, err := s.svc.ListSweeps(ctx, limit)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return encodeStruct(map[string]any{"sweeps": runs})
}

func decodeStruct(in *structpb.Struct, target any) error {
	if in == nil {
		return nil
	}
	data, err := in.MarshalJSON()
	if err != nil {
		return status.Error(codes.InvalidArgument, fmt.Sprintf("invalid request: %v", err))
	}
	if err := json.Unmarshal(data, target); err != nil {
		return status.Error(codes.InvalidArgument, fmt.Sprintf("invalid request: %v", err))
	}
	return nil
}

func encodeStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	out := &structpb.Struct{}
	if err := out.UnmarshalJSON(data); err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	return out, nil
}

// PropagationServiceDesc describes groundwave.v1.PropagationService for
// grpc.Server.RegisterService.
var PropagationServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PropagationServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Evaluate", Handler: unaryHandler(methodEvaluate, PropagationServer.Evaluate)},
		{MethodName: "Sweep", Handler: unaryHandler(methodSweep, PropagationServer.Sweep)},
		{MethodName: "GetSweep", Handler: unaryHandler(methodGetSweep, PropagationServer.GetSweep)},
		{MethodName: "ListSweeps", Handler: unaryHandler(methodListSweeps, PropagationServer.ListSweeps)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "groundwave/v1/propagation.proto",
}

// RegisterPropagationServer registers srv with s.
func RegisterPropagationServer(s grpc.ServiceRegistrar, srv PropagationServer) {
	s.RegisterService(&PropagationServiceDesc, srv)
}

type unaryMethod func(PropagationServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PropagationServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(PropagationServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// PropagationClient is a client for groundwave.v1.PropagationService.
type PropagationClient struct {
	cc grpc.ClientConnInterface
}

// NewPropagationClient wraps cc.
func NewPropagationClient(cc grpc.ClientConnInterface) *PropagationClient {
	return &PropagationClient{cc: cc}
}

func (c *PropagationClient) Evaluate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodEvaluate, in, opts...)
}

func (c *PropagationClient) Sweep(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodSweep, in, opts...)
}

func (c *PropagationClient) GetSweep(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodGetSweep, in, opts...)
}

func (c *PropagationClient) ListSweeps(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodListSweeps, in, opts...)
}

func (c *PropagationClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
