package message

import (
	"time"

	"github.com/Digigit24/celiyo-new-sub001/internal/identity"
)

// Conversation is the thread with one participant on one channel.
// Messages are sorted by timestamp, ties in arrival order, ids unique.
type Conversation struct {
	Identity identity.ID `json:"identity"`
	Channel  Channel     `json:"channel,omitempty"`
	Name     string      `json:"name,omitempty"`
	Unread   bool        `json:"unread"`
	Messages []Message   `json:"messages"`
}

// LastMessageText is the preview of the newest message.
func (c Conversation) LastMessageText() string {
	if len(c.Messages) == 0 {
		return ""
	}
	return c.Messages[len(c.Messages)-1].Preview()
}

// LastActivity is the timestamp of the newest message.
func (c Conversation) LastActivity() time.Time {
	if len(c.Messages) == 0 {
		return time.Time{}
	}
	return c.Messages[len(c.Messages)-1].Timestamp
}

// Summary is the render-oriented projection of a conversation used by
// conversation lists. It is not authoritative.
type Summary struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	LastMessage string  `json:"last_message"`
	Time        string  `json:"time"`
	Channel     Channel `json:"channel"`
	Unread      bool    `json:"unread"`
	// Address is the participant address the summary points at, when the
	// backend provides one.
	Address string `json:"address,omitempty"`
}

// Identity is the canonical identity of the participant behind s. Falls
// back to the summary id when no address is present.
func (s Summary) Identity() identity.ID {
	if s.Address != "" {
		return identity.Normalize(s.Address)
	}
	return identity.Normalize(s.ID)
}
