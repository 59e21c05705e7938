package grpcclient

import (
	"context"
	"encoding/base64"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/example/saloneverid/internal/logging"
	"github.com/example/saloneverid/internal/vision"
)

const (
	serviceName         = "kyc.vision.v1.VisionService"
	compareFacesMethod  = "/" + serviceName + "/CompareFaces"
	extractTextMethod   = "/" + serviceName + "/ExtractText"
	defaultDialDeadline = 5 * time.Second
)

// DialVision returns a ready-to-use client for the vision service.
func DialVision(ctx context.Context, addr string, timeout time.Duration, logger *zap.Logger, opts ...grpc.DialOption) (vision.Client, *grpc.ClientConn, error) {
	if timeout <= 0 {
		timeout = defaultDialDeadline
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	}, opts...)

	conn, err := grpc.DialContext(dialCtx, addr, dialOpts...)
	if err != nil {
		wrapped := logging.NewOperationError("grpcclient.dial_vision", "", err)
		logger.Error("failed to dial vision service", zap.Error(wrapped), zap.String("addr", addr))
		return nil, nil, wrapped
	}
	return NewVisionClient(conn, logger), conn, nil
}

// NewVisionClient wraps an established connection.
func NewVisionClient(conn grpc.ClientConnInterface, logger *zap.Logger) vision.Client {
	return &grpcVision{conn: conn, logger: logger.Named("vision_client")}
}

type grpcVision struct {
	conn   grpc.ClientConnInterface
	logger *zap.Logger
}

// CompareFaces sends both images base64 encoded inside a Struct; the service
// answers with {"verified": bool, "distance": number}.
func (g *grpcVision) CompareFaces(ctx context.Context, selfie, document []byte) (*vision.FaceMatch, error) {
	req, err := structpb.NewStruct(map[string]any{
		"selfie":   base64.StdEncoding.EncodeToString(selfie),
		"document": base64.StdEncoding.EncodeToString(document),
	})
	if err != nil {
		return nil, logging.NewOperationError("grpcclient.compare_faces", "", err)
	}

	resp := &structpb.Struct{}
	if err := g.conn.Invoke(ctx, compareFacesMethod, req, resp); err != nil {
		wrapped := logging.NewOperationError("grpcclient.compare_faces", "", err)
		g.logger.Error("face comparison call failed", zap.Error(wrapped))
		return nil, wrapped
	}

	fields := resp.GetFields()
	return &vision.FaceMatch{
		Verified: fields["verified"].GetBoolValue(),
		Distance: fields["distance"].GetNumberValue(),
	}, nil
}

func (g *grpcVision) ExtractText(ctx context.Context, image []byte) (string, error) {
	resp := &wrapperspb.StringValue{}
	if err := g.conn.Invoke(ctx, extractTextMethod, wrapperspb.Bytes(image), resp); err != nil {
		wrapped := logging.NewOperationError("grpcclient.extract_text", "", err)
		g.logger.Error("text extraction call failed", zap.Error(wrapped))
		return "", wrapped
	}
	return resp.GetValue(), nil
}
