package outbox

import (
	"context"
	"strings"

	"github.com/Digigit24/celiyo-new-sub001/internal/bus"
	"github.com/Digigit24/celiyo-new-sub001/internal/identity"
	"github.com/Digigit24/celiyo-new-sub001/internal/message"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TextRequest is the body of a text send.
type TextRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
	// IdempotencyKey lets the backend collapse retried deliveries of the
	// same send. It travels as a header, not in the body.
	IdempotencyKey string `json:"-"`
}

// MediaRequest attaches an uploaded media object to a new message.
type MediaRequest struct {
	To             string            `json:"to"`
	MediaID        string            `json:"media_id"`
	MediaType      message.MediaType `json:"media_type"`
	Caption        string            `json:"caption,omitempty"`
	IdempotencyKey string            `json:"-"`
}

// File is a local attachment waiting to be uploaded.
type File struct {
	Name string
	Data []byte
}

// Transport is the backend message service.
type Transport interface {
	SendText(ctx context.Context, req TextRequest) error
	UploadMedia(ctx context.Context, f File) (mediaID string, err error)
	SendMedia(ctx context.Context, req MediaRequest) error
}

// Sender sends text messages. It never touches a timeline: the echo of a
// sent message arrives through the push feed like any other message.
type Sender struct {
	transport Transport
	bus       *bus.Bus
	logger    *zap.Logger
}

// NewSender creates a new text sender.
func NewSender(t Transport, b *bus.Bus, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{
		transport: t,
		bus:       b,
		logger:    logger,
	}
}

// SendText sends the trimmed body to id. An empty identity or a blank body
// is a silent no-op. Backend errors are returned unchanged.
func (s *Sender) SendText(ctx context.Context, id identity.ID, body string) error {
	text := strings.TrimSpace(body)
	if id.IsEmpty() || text == "" {
		return nil
	}

	req := TextRequest{
		To:             id.String(),
		Text:           text,
		IdempotencyKey: uuid.NewString(),
	}
	if err := s.transport.SendText(ctx, req); err != nil {
		s.logger.Error("failed to send message", zap.Error(err), zap.String("identity", id.String()))
		s.bus.Publish(bus.Event{
			Kind:    bus.KindSendFailed,
			Payload: bus.SendFailure{Identity: id.String(), Error: err.Error()},
		})
		return err
	}

	s.logger.Info("message sent", zap.String("identity", id.String()), zap.String("idempotency_key", req.IdempotencyKey))
	return nil
}
