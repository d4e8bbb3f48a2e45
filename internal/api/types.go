package api

import (
	"github.com/Digigit24/celiyo-new-sub001/internal/message"
	"github.com/Digigit24/celiyo-new-sub001/internal/timeline"
)

type Empty struct{}

type OpenRequest struct {
	Identity string `json:"identity"`
}

type SendTextRequest struct {
	// To defaults to the open conversation.
	To   string `json:"to,omitempty"`
	Text string `json:"text"`
}

type SendMediaRequest struct {
	To        string            `json:"to,omitempty"`
	FileName  string            `json:"file_name"`
	Data      []byte            `json:"data"`
	MediaType message.MediaType `json:"media_type,omitempty"`
	Caption   string            `json:"caption,omitempty"`
}

type SendMediaResponse struct {
	MediaID string `json:"media_id"`
}

type ConversationsRequest struct {
	Tab    string `json:"tab,omitempty"`
	Search string `json:"search,omitempty"`
}

type ConversationsResponse struct {
	Conversations []message.Summary `json:"conversations"`
}

// TimelineResponse is a snapshot of the open conversation.
type TimelineResponse struct {
	Identity   string            `json:"identity"`
	State      string            `json:"state"`
	Error      string            `json:"error,omitempty"`
	Generation uint64            `json:"generation"`
	Messages   []message.Message `json:"messages"`
}

type FeedStatus struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

type StatusResponse struct {
	Active        string       `json:"active,omitempty"`
	Feeds         []FeedStatus `json:"feeds"`
	DroppedEvents uint64       `json:"dropped_events"`
	UptimeMs      int64        `json:"uptime_ms"`
}

func timelineToResponse(s *timeline.Snapshot) *TimelineResponse {
	if s == nil {
		return &TimelineResponse{State: string(timeline.Idle)}
	}
	return &TimelineResponse{
		Identity:   s.Identity.String(),
		State:      string(s.State),
		Error:      s.Err,
		Generation: s.Generation,
		Messages:   s.Messages,
	}
}
