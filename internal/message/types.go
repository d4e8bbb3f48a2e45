package message

import (
	"fmt"
	"time"

	"github.com/Digigit24/celiyo-new-sub001/internal/identity"
)

// Channel is the transport a conversation lives on.
type Channel string

const (
	ChannelWhatsApp  Channel = "whatsapp"
	ChannelInstagram Channel = "instagram"
	ChannelWebsite   Channel = "website"
)

// ParseChannel maps a raw channel tag to a Channel.
func ParseChannel(raw string) (Channel, error) {
	switch c := Channel(raw); c {
	case ChannelWhatsApp, ChannelInstagram, ChannelWebsite:
		return c, nil
	default:
		return "", fmt.Errorf("unknown channel %q", raw)
	}
}

// Label returns the short tag shown next to a conversation.
func (c Channel) Label() string {
	switch c {
	case ChannelWhatsApp:
		return "WA"
	case ChannelInstagram:
		return "IG"
	case ChannelWebsite:
		return "WEB"
	default:
		return "?"
	}
}

// UnmarshalText rejects unknown channel tags. An empty tag is left unset.
func (c *Channel) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*c = ""
		return nil
	}
	parsed, err := ParseChannel(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Direction tells whether a message was received or sent by us.
type Direction string

const (
	Inbound  Direction = "inbound"
	Outbound Direction = "outbound"
)

// Status is the delivery status of a message.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
)

var statusRank = map[Status]int{
	StatusPending:   1,
	StatusSent:      2,
	StatusDelivered: 3,
}

// Advances reports whether moving from s to next is a forward step.
// Failed is only reachable from pending or sent and is terminal.
func (s Status) Advances(next Status) bool {
	if s == StatusFailed {
		return false
	}
	if next == StatusFailed {
		return s == "" || s == StatusPending || s == StatusSent
	}
	return statusRank[next] > statusRank[s]
}

// MediaType classifies an attachment.
type MediaType string

const (
	MediaImage    MediaType = "image"
	MediaVideo    MediaType = "video"
	MediaAudio    MediaType = "audio"
	MediaDocument MediaType = "document"
)

// Valid reports whether t is a known media type.
func (t MediaType) Valid() bool {
	switch t {
	case MediaImage, MediaVideo, MediaAudio, MediaDocument:
		return true
	default:
		return false
	}
}

// Media references an uploaded attachment.
type Media struct {
	ID      string    `json:"id"`
	Type    MediaType `json:"type"`
	Caption string    `json:"caption,omitempty"`
}

// Message is a single entry of a conversation timeline.
type Message struct {
	ID        string    `json:"id"`
	Direction Direction `json:"direction"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Body      string    `json:"body,omitempty"`
	Media     *Media    `json:"media,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Status    Status    `json:"status,omitempty"`
}

// Endpoints returns the normalized sender and recipient.
func (m Message) Endpoints() (from, to identity.ID) {
	return identity.Normalize(m.From), identity.Normalize(m.To)
}

// Counterparts returns the endpoints of m that are not us. When self is
// empty both endpoints are returned.
func (m Message) Counterparts(self identity.Set) []identity.ID {
	from, to := m.Endpoints()
	out := make([]identity.ID, 0, 2)
	for _, id := range []identity.ID{from, to} {
		if id.IsEmpty() || self.Contains(id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

// Preview returns the text shown for m in a conversation list.
func (m Message) Preview() string {
	if m.Body != "" {
		return m.Body
	}
	if m.Media != nil {
		if m.Media.Caption != "" {
			return m.Media.Caption
		}
		return "[" + string(m.Media.Type) + "]"
	}
	return ""
}

// StatusUpdate is a delivery receipt for a previously seen message.
type StatusUpdate struct {
	MessageID string `json:"id"`
	Peer      string `json:"peer,omitempty"`
	Status    Status `json:"status"`
}
