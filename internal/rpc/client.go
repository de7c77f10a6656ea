package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// PaymentProcessorClient is the client contract of the payment processor
// service.
type PaymentProcessorClient interface {
	GetSettings(ctx context.Context, req *GetSettingsRequest, opts ...grpc.CallOption) (*GetSettingsResponse, error)
	CreatePayment(ctx context.Context, req *CreatePaymentRequest, opts ...grpc.CallOption) (*Payment, error)
	GetPaymentQuote(ctx context.Context, req *GetPaymentQuoteRequest, opts ...grpc.CallOption) (*GetPaymentQuoteResponse, error)
	MakePayment(ctx context.Context, req *MakePaymentRequest, opts ...grpc.CallOption) (*Payment, error)
	CheckIncomingPayment(ctx context.Context, req *CheckIncomingPaymentRequest, opts ...grpc.CallOption) (*CheckIncomingPaymentResponse, error)
	CheckOutgoingPayment(ctx context.Context, req *CheckOutgoingPaymentRequest, opts ...grpc.CallOption) (*Payment, error)
	WaitIncomingPayment(ctx context.Context, req *WaitIncomingPaymentRequest, opts ...grpc.CallOption) (PaymentProcessor_WaitIncomingPaymentClient, error)
}

// PaymentProcessor_WaitIncomingPaymentClient is the client side of the
// WaitIncomingPayment stream.
type PaymentProcessor_WaitIncomingPaymentClient interface {
	Recv() (*IncomingPaymentEvent, error)
	grpc.ClientStream
}

type paymentProcessorClient struct {
	cc grpc.ClientConnInterface
}

// NewPaymentProcessorClient wraps a client connection. The JSON codec is
// requested per call, so no special dial options are needed.
func NewPaymentProcessorClient(cc grpc.ClientConnInterface) PaymentProcessorClient {
	return &paymentProcessorClient{cc: cc}
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

func (c *paymentProcessorClient) GetSettings(ctx context.Context, req *GetSettingsRequest, opts ...grpc.CallOption) (*GetSettingsResponse, error) {
	out := new(GetSettingsResponse)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/GetSettings", req, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *paymentProcessorClient) CreatePayment(ctx context.Context, req *CreatePaymentRequest, opts ...grpc.CallOption) (*Payment, error) {
	out := new(Payment)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/CreatePayment", req, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *paymentProcessorClient) GetPaymentQuote(ctx context.Context, req *GetPaymentQuoteRequest, opts ...grpc.CallOption) (*GetPaymentQuoteResponse, error) {
	out := new(GetPaymentQuoteResponse)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/GetPaymentQuote", req, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *paymentProcessorClient) MakePayment(ctx context.Context, req *MakePaymentRequest, opts ...grpc.CallOption) (*Payment, error) {
	out := new(Payment)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/MakePayment", req, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *paymentProcessorClient) CheckIncomingPayment(ctx context.Context, req *CheckIncomingPaymentRequest, opts ...grpc.CallOption) (*CheckIncomingPaymentResponse, error) {
	out := new(CheckIncomingPaymentResponse)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/CheckIncomingPayment", req, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *paymentProcessorClient) CheckOutgoingPayment(ctx context.Context, req *CheckOutgoingPaymentRequest, opts ...grpc.CallOption) (*Payment, error) {
	out := new(Payment)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/CheckOutgoingPayment", req, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *paymentProcessorClient) WaitIncomingPayment(ctx context.Context, req *WaitIncomingPaymentRequest, opts ...grpc.CallOption) (PaymentProcessor_WaitIncomingPaymentClient, error) {
	stream, err := c.cc.NewStream(ctx, &paymentProcessorServiceDesc.Streams[0], "/"+ServiceName+"/WaitIncomingPayment", withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	x := &paymentProcessorWaitIncomingPaymentClient{stream}
	if err := x.ClientStream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type paymentProcessorWaitIncomingPaymentClient struct {
	grpc.ClientStream
}

func (x *paymentProcessorWaitIncomingPaymentClient) Recv() (*IncomingPaymentEvent, error) {
	m := new(IncomingPaymentEvent)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
