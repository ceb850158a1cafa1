package api

import (
	"context"

	"google.golang.org/grpc"
)

const (
	availabilityServiceName   = "meetmed.availability.v1.AvailabilityService"
	methodGetAvailability     = "/" + availabilityServiceName + "/GetAvailability"
	methodGetAvailabilityBulk = "/" + availabilityServiceName + "/GetAvailabilityBulk"
	methodListDoctors         = "/" + availabilityServiceName + "/ListDoctors"
	permReadAvailability      = "read:availability"
	permReadDoctors           = "read:doctors"
	maxBulkQueries            = 100
)

type GetAvailabilityRequest struct {
	DoctorID int64  `json:"doctor_id"`
	Date     string `json:"date"`
}

type Availability struct {
	DoctorID  int64    `json:"doctor_id"`
	Date      string   `json:"date"`
	Available bool     `json:"available"`
	Slots     []string `json:"slots"`
}

type GetAvailabilityResponse = Availability

type GetAvailabilityBulkRequest struct {
	DoctorIDs []int64  `json:"doctor_ids"`
	Dates     []string `json:"dates"`
}

type GetAvailabilityBulkResponse struct {
	Results []*Availability `json:"results"`
}

type ListDoctorsRequest struct {
	Specialty string `json:"specialty"`
	City      string `json:"city"`
	Query     string `json:"query"`
}

type DoctorInfo struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Specialty       string  `json:"specialty"`
	City            string  `json:"city"`
	Address         string  `json:"address"`
	ConsultationFee float64 `json:"consultation_fee"`
}

type ListDoctorsResponse struct {
	Doctors []*DoctorInfo `json:"doctors"`
}

// AvailabilityServer is the partner-facing availability API.
type AvailabilityServer interface {
	GetAvailability(context.Context, *GetAvailabilityRequest) (*GetAvailabilityResponse, error)
	GetAvailabilityBulk(context.Context, *GetAvailabilityBulkRequest) (*GetAvailabilityBulkResponse, error)
	ListDoctors(context.Context, *ListDoctorsRequest) (*ListDoctorsResponse, error)
}

func RegisterAvailabilityServer(s grpc.ServiceRegistrar, srv AvailabilityServer) {
	s.RegisterService(&availabilityServiceDesc, srv)
}

var availabilityServiceDesc = grpc.ServiceDesc{
	ServiceName: availabilityServiceName,
	HandlerType: (*AvailabilityServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetAvailability", Handler: getAvailabilityHandler},
		{MethodName: "GetAvailabilityBulk", Handler: getAvailabilityBulkHandler},
		{MethodName: "ListDoctors", Handler: listDoctorsHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func getAvailabilityHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetAvailabilityRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AvailabilityServer).GetAvailability(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetAvailability}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AvailabilityServer).GetAvailability(ctx, req.(*GetAvailabilityRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getAvailabilityBulkHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetAvailabilityBulkRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AvailabilityServer).GetAvailabilityBulk(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetAvailabilityBulk}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AvailabilityServer).GetAvailabilityBulk(ctx, req.(*GetAvailabilityBulkRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func listDoctorsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListDoctorsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AvailabilityServer).ListDoctors(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodListDoctors}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AvailabilityServer).ListDoctors(ctx, req.(*ListDoctorsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// AvailabilityClient calls the availability API over a connection that
// uses the JSON codec.
type AvailabilityClient struct {
	cc grpc.ClientConnInterface
}

func NewAvailabilityClient(cc grpc.ClientConnInterface) *AvailabilityClient {
	return &AvailabilityClient{cc: cc}
}

// CallOptions returns the options a client connection needs to talk to
// the availability API.
func CallOptions() []grpc.CallOption {
	return []grpc.CallOption{grpc.ForceCodec(jsonCodec{})}
}

func (c *AvailabilityClient) GetAvailability(ctx context.Context, in *GetAvailabilityRequest, opts ...grpc.CallOption) (*GetAvailabilityResponse, error) {
	out := new(GetAvailabilityResponse)
	if err := c.cc.Invoke(ctx, methodGetAvailability, in, out, append(CallOptions(), opts...)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AvailabilityClient) GetAvailabilityBulk(ctx context.Context, in *GetAvailabilityBulkRequest, opts ...grpc.CallOption) (*GetAvailabilityBulkResponse, error) {
	out := new(GetAvailabilityBulkResponse)
	if err := c.cc.Invoke(ctx, methodGetAvailabilityBulk, in, out, append(CallOptions(), opts...)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AvailabilityClient) ListDoctors(ctx context.Context, in *ListDoctorsRequest, opts ...grpc.CallOption) (*ListDoctorsResponse, error) {
	out := new(ListDoctorsResponse)
	if err := c.cc.Invoke(ctx, methodListDoctors, in, out, append(CallOptions(), opts...)...); err != nil {
		return nil, err
	}
	return out, nil
}
