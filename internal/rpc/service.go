package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "sparkbridge.PaymentProcessor"

// PaymentProcessorServer is the server contract of the payment processor
// service. The service descriptor below is maintained by hand; keep the
// two in sync.
type PaymentProcessorServer interface {
	GetSettings(ctx context.Context, req *GetSettingsRequest) (*GetSettingsResponse, error)
	CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*Payment, error)
	GetPaymentQuote(ctx context.Context, req *GetPaymentQuoteRequest) (*GetPaymentQuoteResponse, error)
	MakePayment(ctx context.Context, req *MakePaymentRequest) (*Payment, error)
	CheckIncomingPayment(ctx context.Context, req *CheckIncomingPaymentRequest) (*CheckIncomingPaymentResponse, error)
	CheckOutgoingPayment(ctx context.Context, req *CheckOutgoingPaymentRequest) (*Payment, error)
	WaitIncomingPayment(req *WaitIncomingPaymentRequest, stream PaymentProcessor_WaitIncomingPaymentServer) error
}

// PaymentProcessor_WaitIncomingPaymentServer is the server side of the
// WaitIncomingPayment stream.
type PaymentProcessor_WaitIncomingPaymentServer interface {
	Send(*IncomingPaymentEvent) error
	grpc.ServerStream
}

type paymentProcessorWaitIncomingPaymentServer struct {
	grpc.ServerStream
}

func (x *paymentProcessorWaitIncomingPaymentServer) Send(m *IncomingPaymentEvent) error {
	return x.ServerStream.SendMsg(m)
}

// RegisterPaymentProcessorServer registers the service implementation.
func RegisterPaymentProcessorServer(s grpc.ServiceRegistrar, srv PaymentProcessorServer) {
	s.RegisterService(&paymentProcessorServiceDesc, srv)
}

func _PaymentProcessor_GetSettings_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetSettingsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PaymentProcessorServer).GetSettings(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/GetSettings"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PaymentProcessorServer).GetSettings(ctx, req.(*GetSettingsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _PaymentProcessor_CreatePayment_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(CreatePaymentRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PaymentProcessorServer).CreatePayment(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/CreatePayment"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PaymentProcessorServer).CreatePayment(ctx, req.(*CreatePaymentRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _PaymentProcessor_GetPaymentQuote_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetPaymentQuoteRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PaymentProcessorServer).GetPaymentQuote(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/GetPaymentQuote"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PaymentProcessorServer).GetPaymentQuote(ctx, req.(*GetPaymentQuoteRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _PaymentProcessor_MakePayment_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(MakePaymentRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PaymentProcessorServer).MakePayment(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/MakePayment"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PaymentProcessorServer).MakePayment(ctx, req.(*MakePaymentRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _PaymentProcessor_CheckIncomingPayment_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(CheckIncomingPaymentRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PaymentProcessorServer).CheckIncomingPayment(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/CheckIncomingPayment"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PaymentProcessorServer).CheckIncomingPayment(ctx, req.(*CheckIncomingPaymentRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _PaymentProcessor_CheckOutgoingPayment_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(CheckOutgoingPaymentRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PaymentProcessorServer).CheckOutgoingPayment(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/CheckOutgoingPayment"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PaymentProcessorServer).CheckOutgoingPayment(ctx, req.(*CheckOutgoingPaymentRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _PaymentProcessor_WaitIncomingPayment_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(WaitIncomingPaymentRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(PaymentProcessorServer).WaitIncomingPayment(m, &paymentProcessorWaitIncomingPaymentServer{stream})
}

var paymentProcessorServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PaymentProcessorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetSettings", Handler: _PaymentProcessor_GetSettings_Handler},
		{MethodName: "CreatePayment", Handler: _PaymentProcessor_CreatePayment_Handler},
		{MethodName: "GetPaymentQuote", Handler: _PaymentProcessor_GetPaymentQuote_Handler},
		{MethodName: "MakePayment", Handler: _PaymentProcessor_MakePayment_Handler},
		{MethodName: "CheckIncomingPayment", Handler: _PaymentProcessor_CheckIncomingPayment_Handler},
		{MethodName: "CheckOutgoingPayment", Handler: _PaymentProcessor_CheckOutgoingPayment_Handler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WaitIncomingPayment",
			Handler:       _PaymentProcessor_WaitIncomingPayment_Handler,
			ServerStreams: true,
		},
	},
}
