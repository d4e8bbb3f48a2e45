package api

import (
	"context"
	"errors"
	"time"

	"github.com/Digigit24/celiyo-new-sub001/internal/bus"
	"github.com/Digigit24/celiyo-new-sub001/internal/filter"
	"github.com/Digigit24/celiyo-new-sub001/internal/inbox"
	"github.com/Digigit24/celiyo-new-sub001/internal/outbox"
	"github.com/Digigit24/celiyo-new-sub001/internal/rest"
	"github.com/Digigit24/celiyo-new-sub001/internal/status"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

// Feed names a push-feed source whose connection state is reported.
type Feed struct {
	Name  string
	State func() status.State
}

// InboxService implements InboxServer on top of the inbox coordinator.
type InboxService struct {
	inbox     *inbox.Service
	feeds     []Feed
	bus       *bus.Bus
	logger    *zap.Logger
	startedAt time.Time
}

// NewInboxService creates the control service.
func NewInboxService(svc *inbox.Service, feeds []Feed, b *bus.Bus, logger *zap.Logger) *InboxService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InboxService{
		inbox:     svc,
		feeds:     feeds,
		bus:       b,
		logger:    logger,
		startedAt: time.Now(),
	}
}

func (s *InboxService) Open(ctx context.Context, req *OpenRequest) (*TimelineResponse, error) {
	snap, err := s.inbox.Select(ctx, req.Identity)
	if err != nil {
		return nil, toStatus(err)
	}
	return timelineToResponse(snap), nil
}

func (s *InboxService) Close(_ context.Context, _ *Empty) (*Empty, error) {
	s.inbox.Deselect()
	return &Empty{}, nil
}

func (s *InboxService) Refresh(ctx context.Context, _ *Empty) (*TimelineResponse, error) {
	snap, err := s.inbox.Refresh(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return timelineToResponse(snap), nil
}

func (s *InboxService) Timeline(_ context.Context, _ *Empty) (*TimelineResponse, error) {
	return timelineToResponse(s.inbox.Active()), nil
}

func (s *InboxService) SendText(ctx context.Context, req *SendTextRequest) (*Empty, error) {
	if err := s.inbox.SendText(ctx, req.To, req.Text); err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

func (s *InboxService) SendMedia(ctx context.Context, req *SendMediaRequest) (*SendMediaResponse, error) {
	f := outbox.File{Name: req.FileName, Data: req.Data}
	mediaID, err := s.inbox.SendMedia(ctx, req.To, f, req.MediaType, req.Caption)
	if err != nil {
		return nil, toStatus(err)
	}
	return &SendMediaResponse{MediaID: mediaID}, nil
}

func (s *InboxService) Conversations(ctx context.Context, req *ConversationsRequest) (*ConversationsResponse, error) {
	tab, err := filter.ParseTab(req.Tab)
	if err != nil {
		return nil, grpcstatus.Error(codes.InvalidArgument, err.Error())
	}
	summaries, err := s.inbox.Conversations(ctx, tab, req.Search)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ConversationsResponse{Conversations: summaries}, nil
}

func (s *InboxService) Status(_ context.Context, _ *Empty) (*StatusResponse, error) {
	resp := &StatusResponse{
		Feeds:         make([]FeedStatus, 0, len(s.feeds)),
		DroppedEvents: s.bus.Dropped(),
		UptimeMs:      time.Since(s.startedAt).Milliseconds(),
	}
	if open := s.inbox.Active(); open != nil {
		resp.Active = open.Identity.String()
	}
	for _, f := range s.feeds {
		resp.Feeds = append(resp.Feeds, FeedStatus{Name: f.Name, State: string(f.State())})
	}
	return resp, nil
}

// toStatus maps domain errors onto gRPC codes.
func toStatus(err error) error {
	var (
		orphaned *outbox.SendAfterUploadError
		invalid  *outbox.ValidationError
		upload   *outbox.UploadError
		network  *rest.NetworkError
	)
	switch {
	case errors.As(err, &orphaned):
		return grpcstatus.Error(codes.Aborted, err.Error())
	case errors.As(err, &invalid), errors.Is(err, inbox.ErrNoIdentity):
		return grpcstatus.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, inbox.ErrNoActive):
		return grpcstatus.Error(codes.FailedPrecondition, err.Error())
	case errors.As(err, &upload), errors.As(err, &network):
		return grpcstatus.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled):
		return grpcstatus.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return grpcstatus.Error(codes.DeadlineExceeded, err.Error())
	default:
		return grpcstatus.Error(codes.Internal, err.Error())
	}
}
