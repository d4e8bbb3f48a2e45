package outbox

import (
	"context"
	"strings"

	"github.com/Digigit24/celiyo-new-sub001/internal/bus"
	"github.com/Digigit24/celiyo-new-sub001/internal/identity"
	"github.com/Digigit24/celiyo-new-sub001/internal/message"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MediaPipeline sends attachments in two phases: upload, then send.
type MediaPipeline struct {
	transport Transport
	bus       *bus.Bus
	logger    *zap.Logger
}

// NewMediaPipeline creates a new media pipeline.
func NewMediaPipeline(t Transport, b *bus.Bus, logger *zap.Logger) *MediaPipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MediaPipeline{
		transport: t,
		bus:       b,
		logger:    logger,
	}
}

// SendMedia uploads f and sends it to id. An empty mediaType is inferred
// from the file content. On success the media id is returned.
//
// A failed upload returns *UploadError. A failed send after a successful
// upload returns *SendAfterUploadError and leaves the upload orphaned.
func (p *MediaPipeline) SendMedia(ctx context.Context, id identity.ID, f File, mediaType message.MediaType, caption string) (string, error) {
	if id.IsEmpty() {
		return "", &ValidationError{Field: "identity", Reason: "empty"}
	}
	if len(f.Data) == 0 {
		return "", &ValidationError{Field: "file", Reason: "empty"}
	}
	if mediaType == "" {
		mediaType = InferMediaType(f.Data)
	}
	if !mediaType.Valid() {
		return "", &ValidationError{Field: "media_type", Reason: "unknown type " + string(mediaType)}
	}

	mediaID, err := p.transport.UploadMedia(ctx, f)
	if err != nil {
		p.logger.Error("media upload failed", zap.Error(err), zap.String("identity", id.String()))
		uerr := &UploadError{Err: err}
		p.publishFailure(id, "", uerr)
		return "", uerr
	}

	req := MediaRequest{
		To:             id.String(),
		MediaID:        mediaID,
		MediaType:      mediaType,
		Caption:        strings.TrimSpace(caption),
		IdempotencyKey: uuid.NewString(),
	}
	if err := p.transport.SendMedia(ctx, req); err != nil {
		p.logger.Warn("media send failed, upload orphaned",
			zap.Error(err), zap.String("identity", id.String()), zap.String("media_id", mediaID))
		serr := &SendAfterUploadError{MediaID: mediaID, Err: err}
		p.bus.Publish(bus.Event{
			Kind:    bus.KindMediaOrphaned,
			Payload: bus.SendFailure{Identity: id.String(), MediaID: mediaID, Error: err.Error()},
		})
		p.publishFailure(id, mediaID, serr)
		return mediaID, serr
	}

	p.logger.Info("media sent", zap.String("identity", id.String()), zap.String("media_id", mediaID))
	return mediaID, nil
}

func (p *MediaPipeline) publishFailure(id identity.ID, mediaID string, err error) {
	p.bus.Publish(bus.Event{
		Kind:    bus.KindSendFailed,
		Payload: bus.SendFailure{Identity: id.String(), MediaID: mediaID, Error: err.Error()},
	})
}

// InferMediaType classifies data by its detected MIME type. Anything that is
// not image, video or audio is sent as a document.
func InferMediaType(data []byte) message.MediaType {
	mime := mimetype.Detect(data)
	for m := mime; m != nil; m = m.Parent() {
		switch {
		case strings.HasPrefix(m.String(), "image/"):
			return message.MediaImage
		case strings.HasPrefix(m.String(), "video/"):
			return message.MediaVideo
		case strings.HasPrefix(m.String(), "audio/"):
			return message.MediaAudio
		}
	}
	return message.MediaDocument
}
