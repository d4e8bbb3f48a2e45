package wa

import (
	"time"

	"github.com/Digigit24/celiyo-new-sub001/internal/message"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/proto/waWeb"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

// ParseLiveMessage converts a live whatsmeow message into a feed message.
// self is our own address, used as the recipient of inbound messages.
// Group and broadcast chats are not one-to-one conversations and are skipped.
func ParseLiveMessage(evt *events.Message, self string) (message.Message, bool) {
	if !isDirectChat(evt.Info.Chat) {
		return message.Message{}, false
	}
	m := message.Message{
		ID:        evt.Info.ID,
		Body:      extractTextBody(evt.Message),
		Media:     extractMedia(evt.Message),
		Timestamp: evt.Info.Timestamp,
	}
	if evt.Info.IsFromMe {
		m.Direction = message.Outbound
		m.From = evt.Info.Sender.ToNonAD().String()
		m.To = evt.Info.Chat.ToNonAD().String()
		m.Status = message.StatusSent
	} else {
		m.Direction = message.Inbound
		m.From = evt.Info.Sender.ToNonAD().String()
		m.To = self
		m.Status = message.StatusDelivered
	}
	return m, true
}

// ParseHistoryMessage converts one history sync entry of the chat chatJID.
func ParseHistoryMessage(chatJID types.JID, info *waWeb.WebMessageInfo, self string) (message.Message, bool) {
	if info == nil || info.GetMessage() == nil || !isDirectChat(chatJID) {
		return message.Message{}, false
	}
	key := info.GetKey()
	m := message.Message{
		ID:        key.GetID(),
		Body:      extractTextBody(info.GetMessage()),
		Media:     extractMedia(info.GetMessage()),
		Timestamp: time.Unix(int64(info.GetMessageTimestamp()), 0).UTC(),
	}
	peer := chatJID.ToNonAD().String()
	if key.GetFromMe() {
		m.Direction, m.From, m.To, m.Status = message.Outbound, self, peer, message.StatusSent
	} else {
		m.Direction, m.From, m.To, m.Status = message.Inbound, peer, self, message.StatusDelivered
	}
	return m, m.ID != ""
}

func isDirectChat(jid types.JID) bool {
	switch jid.Server {
	case types.DefaultUserServer, types.LegacyUserServer, types.HiddenUserServer:
		return true
	default:
		return false
	}
}

func extractTextBody(msg *waE2E.Message) string {
	if msg == nil {
		return ""
	}
	if c := msg.GetConversation(); c != "" {
		return c
	}
	if ext := msg.GetExtendedTextMessage(); ext != nil {
		return ext.GetText()
	}
	return ""
}

func detectMessageType(msg *waE2E.Message) string {
	if msg == nil {
		return "unknown"
	}
	switch {
	case msg.GetConversation() != "" || msg.GetExtendedTextMessage() != nil:
		return "text"
	case msg.GetImageMessage() != nil:
		return "image"
	case msg.GetVideoMessage() != nil:
		return "video"
	case msg.GetAudioMessage() != nil:
		return "audio"
	case msg.GetDocumentMessage() != nil:
		return "document"
	case msg.GetStickerMessage() != nil:
		return "sticker"
	case msg.GetContactMessage() != nil:
		return "contact"
	case msg.GetLocationMessage() != nil:
		return "location"
	default:
		return "unknown"
	}
}

// extractMedia returns the attachment reference of msg. The media id is the
// CDN direct path; stickers, contacts and locations carry no attachment.
func extractMedia(msg *waE2E.Message) *message.Media {
	switch detectMessageType(msg) {
	case "image":
		im := msg.GetImageMessage()
		return &message.Media{ID: im.GetDirectPath(), Type: message.MediaImage, Caption: im.GetCaption()}
	case "video":
		vm := msg.GetVideoMessage()
		return &message.Media{ID: vm.GetDirectPath(), Type: message.MediaVideo, Caption: vm.GetCaption()}
	case "audio":
		return &message.Media{ID: msg.GetAudioMessage().GetDirectPath(), Type: message.MediaAudio}
	case "document":
		dm := msg.GetDocumentMessage()
		return &message.Media{ID: dm.GetDirectPath(), Type: message.MediaDocument, Caption: dm.GetCaption()}
	default:
		return nil
	}
}
