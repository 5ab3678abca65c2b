package handler

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/storefront-cart/internal/core/domain"
)

const cartServiceName = "cart.v1.CartService"

type GetCartRequest struct{}

type ProductRequest struct {
	ProductID int64 `json:"product_id" validate:"gt=0"`
}

type UpdateProductAmountRequest struct {
	ProductID int64 `json:"product_id" validate:"gt=0"`
	Amount    int   `json:"amount"`
}

// CartReply mirrors the HTTP response. Rejected operations are reported with
// Success false and the current cart, not as gRPC errors.
type CartReply struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Cart    *CartResponse `json:"cart,omitempty"`
}

type CartServiceServer interface {
	GetCart(context.Context, *GetCartRequest) (*CartReply, error)
	AddProduct(context.Context, *ProductRequest) (*CartReply, error)
	RemoveProduct(context.Context, *ProductRequest) (*CartReply, error)
	UpdateProductAmount(context.Context, *UpdateProductAmountRequest) (*CartReply, error)
}

type GRPCHandler struct {
	cart     CartStore
	validate *validator.Validate
	logger   *slog.Logger
}

func NewGRPCHandler(cart CartStore, logger *slog.Logger) *GRPCHandler {
	return &GRPCHandler{
		cart:     cart,
		validate: validator.New(),
		logger:   logger.With("component", "grpc"),
	}
}

func (h *GRPCHandler) GetCart(ctx context.Context, _ *GetCartRequest) (*CartReply, error) {
	cart := newCartResponse(h.cart.Cart())
	return &CartReply{Success: true, Message: "ok", Cart: &cart}, nil
}

func (h *GRPCHandler) AddProduct(ctx context.Context, req *ProductRequest) (*CartReply, error) {
	if err := h.validate.Struct(req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "product_id must be positive")
	}
	cart, err := h.cart.AddProduct(ctx, req.ProductID)
	if err != nil {
		return h.rejected(ctx, cart, err), nil
	}
	resp := newCartResponse(cart)
	return &CartReply{Success: true, Message: "product added", Cart: &resp}, nil
}

func (h *GRPCHandler) RemoveProduct(ctx context.Context, req *ProductRequest) (*CartReply, error) {
	if err := h.validate.Struct(req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "product_id must be positive")
	}
	cart, err := h.cart.RemoveProduct(ctx, req.ProductID)
	if err != nil {
		return h.rejected(ctx, cart, err), nil
	}
	resp := newCartResponse(cart)
	return &CartReply{Success: true, Message: "product removed", Cart: &resp}, nil
}

func (h *GRPCHandler) UpdateProductAmount(ctx context.Context, req *UpdateProductAmountRequest) (*CartReply, error) {
	if err := h.validate.Struct(req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "product_id must be positive")
	}
	cart, err := h.cart.UpdateProductAmount(ctx, req.ProductID, req.Amount)
	if err != nil {
		return h.rejected(ctx, cart, err), nil
	}
	resp := newCartResponse(cart)
	return &CartReply{Success: true, Message: "amount updated", Cart: &resp}, nil
}

func (h *GRPCHandler) rejected(ctx context.Context, cart domain.Cart, err error) *CartReply {
	_, message := failure(err)
	h.logger.DebugContext(ctx, "Cart operation rejected", "error", err)
	resp := newCartResponse(cart)
	return &CartReply{Success: false, Message: message, Cart: &resp}
}

// RegisterCartServiceServer registers srv on s under cart.v1.CartService.
func RegisterCartServiceServer(s grpc.ServiceRegistrar, srv CartServiceServer) {
	s.RegisterService(&CartServiceDesc, srv)
}

var CartServiceDesc = grpc.ServiceDesc{
	ServiceName: cartServiceName,
	HandlerType: (*CartServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetCart",
			Handler: unary("GetCart", func(s CartServiceServer, ctx context.Context, in *GetCartRequest) (*CartReply, error) {
				return s.GetCart(ctx, in)
			}),
		},
		{
			MethodName: "AddProduct",
			Handler: unary("AddProduct", func(s CartServiceServer, ctx context.Context, in *ProductRequest) (*CartReply, error) {
				return s.AddProduct(ctx, in)
			}),
		},
		{
			MethodName: "RemoveProduct",
			Handler: unary("RemoveProduct", func(s CartServiceServer, ctx context.Context, in *ProductRequest) (*CartReply, error) {
				return s.RemoveProduct(ctx, in)
			}),
		},
		{
			MethodName: "UpdateProductAmount",
			Handler: unary("UpdateProductAmount", func(s CartServiceServer, ctx context.Context, in *UpdateProductAmountRequest) (*CartReply, error) {
				return s.UpdateProductAmount(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cart/v1/cart.proto",
}

func unary[Req any](method string, call func(CartServiceServer, context.Context, *Req) (*CartReply, error)) grpc.MethodHandler {
	fullMethod := "/" + cartServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CartServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CartServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// CartServiceClient calls cart.v1.CartService over a client connection.
type CartServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCartServiceClient(cc grpc.ClientConnInterface) *CartServiceClient {
	return &CartServiceClient{cc: cc}
}

func (c *CartServiceClient) GetCart(ctx context.Context, in *GetCartRequest, opts ...grpc.CallOption) (*CartReply, error) {
	return c.invoke(ctx, "GetCart", in, opts)
}

func (c *CartServiceClient) AddProduct(ctx context.Context, in *ProductRequest, opts ...grpc.CallOption) (*CartReply, error) {
	return c.invoke(ctx, "AddProduct", in, opts)
}

func (c *CartServiceClient) RemoveProduct(ctx context.Context, in *ProductRequest, opts ...grpc.CallOption) (*CartReply, error) {
	return c.invoke(ctx, "RemoveProduct", in, opts)
}

func (c *CartServiceClient) UpdateProductAmount(ctx context.Context, in *UpdateProductAmountRequest, opts ...grpc.CallOption) (*CartReply, error) {
	return c.invoke(ctx, "UpdateProductAmount", in, opts)
}

func (c *CartServiceClient) invoke(ctx context.Context, method string, in any, opts []grpc.CallOption) (*CartReply, error) {
	out := new(CartReply)
	opts = append([]grpc.CallOption{grpc.ForceCodec(jsonCodec{})}, opts...)
	if err := c.cc.Invoke(ctx, "/"+cartServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
