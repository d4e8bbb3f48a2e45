package bus

import "time"

// Event kinds. Subscribers filter by prefix, so "feed." receives both feed kinds.
const (
	// KindFeedMessage carries a message.Message from the push feed.
	KindFeedMessage = "feed.message"
	// KindFeedStatus carries a message.StatusUpdate from the push feed.
	KindFeedStatus = "feed.status"

	KindTimelineChanged  = "timeline.changed"
	KindSendFailed       = "message.send_failed"
	KindMediaOrphaned    = "media.orphaned"
	KindConnStateChanged = "conn.state_changed"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// TimelineChange tells watchers which conversation changed and why.
type TimelineChange struct {
	Identity   string
	Generation uint64
	Reason     string
}

// SendFailure describes a send that was rejected by the backend.
type SendFailure struct {
	Identity string
	MediaID  string
	Error    string
}
