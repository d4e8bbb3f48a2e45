// Package feed reads the backend push feed over a websocket and republishes
// it on the bus as feed.message and feed.status events.
package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Digigit24/celiyo-new-sub001/internal/bus"
	"github.com/Digigit24/celiyo-new-sub001/internal/message"
	"github.com/Digigit24/celiyo-new-sub001/internal/status"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
)

const readLimit = 1 << 20

// Frame is one push-feed payload.
type Frame struct {
	Kind    string                `json:"kind"`
	Message *message.Message      `json:"message,omitempty"`
	Status  *message.StatusUpdate `json:"status,omitempty"`
}

// Client keeps a websocket subscription to the push feed alive.
type Client struct {
	url            string
	token          string
	reconnectDelay time.Duration
	bus            *bus.Bus
	machine        *status.Machine
	logger         *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a feed client for url.
func New(url, token string, reconnectDelay time.Duration, b *bus.Bus, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reconnectDelay <= 0 {
		reconnectDelay = time.Second
	}
	return &Client{
		url:            url,
		token:          token,
		reconnectDelay: reconnectDelay,
		bus:            b,
		machine:        status.NewMachine("feed", b),
		logger:         logger,
	}
}

// State returns the connection state.
func (c *Client) State() status.State {
	return c.machine.Current()
}

// Start connects in the background and reconnects until Stop.
func (c *Client) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	go func() {
		defer close(c.done)
		c.run(ctx)
	}()
}

// Stop closes the connection and waits for the reader to exit.
func (c *Client) Stop() {
	if c.cancel != nil {
		c.cancel()
		<-c.done
	}
}

func (c *Client) run(ctx context.Context) {
	for {
		c.transition(status.Connecting)
		err := c.session(ctx)
		if ctx.Err() != nil {
			c.transition(status.Stopped)
			return
		}
		c.logger.Warn("push feed disconnected", zap.Error(err), zap.Duration("retry_in", c.reconnectDelay))
		c.transition(status.Reconnecting)

		select {
		case <-time.After(c.reconnectDelay):
		case <-ctx.Done():
			c.transition(status.Stopped)
			return
		}
	}
}

func (c *Client) session(ctx context.Context) error {
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	conn, _, err := websocket.Dial(ctx, c.url, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.CloseNow() }()
	conn.SetReadLimit(readLimit)

	c.transition(status.Live)
	c.logger.Info("push feed connected", zap.String("url", c.url))

	for {
		var f Frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return errors.New("closed by server")
			}
			return fmt.Errorf("read: %w", err)
		}
		if err := c.publish(ctx, f); err != nil {
			return err
		}
	}
}

func (c *Client) publish(ctx context.Context, f Frame) error {
	switch {
	case f.Kind == "message" && f.Message != nil:
		return c.bus.PublishContext(ctx, bus.Event{Kind: bus.KindFeedMessage, Payload: *f.Message})
	case f.Kind == "status" && f.Status != nil:
		return c.bus.PublishContext(ctx, bus.Event{Kind: bus.KindFeedStatus, Payload: *f.Status})
	default:
		c.logger.Debug("ignoring feed frame", zap.String("kind", f.Kind))
		return nil
	}
}

func (c *Client) transition(to status.State) {
	if err := c.machine.Transition(to); err != nil {
		c.logger.Error("feed state", zap.Error(err))
	}
}
