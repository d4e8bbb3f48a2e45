package api

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client talks to the daemon's control socket.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to the daemon's Unix domain socket. The connection is lazy;
// errors surface on the first call.
func Dial(socketPath string) (*Client, error) {
	conn, err := grpc.NewClient(
		"unix://"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	)
	if err != nil {
		return nil, fmt.Errorf("dial daemon: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func invoke[Resp any](ctx context.Context, c *Client, method string, req any) (*Resp, error) {
	out := new(Resp)
	if err := c.conn.Invoke(ctx, fullMethod(method), req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Open(ctx context.Context, identity string) (*TimelineResponse, error) {
	return invoke[TimelineResponse](ctx, c, "Open", &OpenRequest{Identity: identity})
}

func (c *Client) CloseConversation(ctx context.Context) error {
	_, err := invoke[Empty](ctx, c, "Close", &Empty{})
	return err
}

func (c *Client) Refresh(ctx context.Context) (*TimelineResponse, error) {
	return invoke[TimelineResponse](ctx, c, "Refresh", &Empty{})
}

func (c *Client) Timeline(ctx context.Context) (*TimelineResponse, error) {
	return invoke[TimelineResponse](ctx, c, "Timeline", &Empty{})
}

func (c *Client) SendText(ctx context.Context, req *SendTextRequest) error {
	_, err := invoke[Empty](ctx, c, "SendText", req)
	return err
}

func (c *Client) SendMedia(ctx context.Context, req *SendMediaRequest) (*SendMediaResponse, error) {
	return invoke[SendMediaResponse](ctx, c, "SendMedia", req)
}

func (c *Client) Conversations(ctx context.Context, req *ConversationsRequest) (*ConversationsResponse, error) {
	return invoke[ConversationsResponse](ctx, c, "Conversations", req)
}

func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	return invoke[StatusResponse](ctx, c, "Status", &Empty{})
}
