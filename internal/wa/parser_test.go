package wa

import (
	"testing"
	"time"

	"github.com/Digigit24/celiyo-new-sub001/internal/message"
	"go.mau.fi/whatsmeow/proto/waCommon"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/proto/waWeb"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

func TestExtractTextBody(t *testing.T) {
	tests := []struct {
		name string
		msg  *waE2E.Message
		want string
	}{
		{"nil message", nil, ""},
		{"conversation", &waE2E.Message{Conversation: proto.String("hello")}, "hello"},
		{"extended text", &waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{Text: proto.String("extended")}}, "extended"},
		{"image (no text)", &waE2E.Message{ImageMessage: &waE2E.ImageMessage{}}, ""},
		{"empty conversation", &waE2E.Message{Conversation: proto.String("")}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractTextBody(tt.msg)
			if got != tt.want {
				t.Errorf("extractTextBody() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractMedia(t *testing.T) {
	tests := []struct {
		name    string
		msg     *waE2E.Message
		want    message.MediaType
		caption string
	}{
		{"image", &waE2E.Message{ImageMessage: &waE2E.ImageMessage{DirectPath: proto.String("/v/img"), Caption: proto.String("x-ray")}}, message.MediaImage, "x-ray"},
		{"video", &waE2E.Message{VideoMessage: &waE2E.VideoMessage{DirectPath: proto.String("/v/vid")}}, message.MediaVideo, ""},
		{"audio", &waE2E.Message{AudioMessage: &waE2E.AudioMessage{DirectPath: proto.String("/v/aud")}}, message.MediaAudio, ""},
		{"document", &waE2E.Message{DocumentMessage: &waE2E.DocumentMessage{DirectPath: proto.String("/v/doc"), Caption: proto.String("report")}}, message.MediaDocument, "report"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractMedia(tt.msg)
			if got == nil {
				t.Fatal("extractMedia() = nil")
			}
			if got.Type != tt.want || got.Caption != tt.caption || got.ID == "" {
				t.Errorf("extractMedia() = %+v", got)
			}
		})
	}

	for _, msg := range []*waE2E.Message{nil, {Conversation: proto.String("hi")}, {StickerMessage: &waE2E.StickerMessage{}}} {
		if got := extractMedia(msg); got != nil {
			t.Errorf("extractMedia(%v) = %+v, want nil", msg, got)
		}
	}
}

func TestDetectMessageType(t *testing.T) {
	tests := []struct {
		name string
		msg  *waE2E.Message
		want string
	}{
		{"nil", nil, "unknown"},
		{"text conversation", &waE2E.Message{Conversation: proto.String("hi")}, "text"},
		{"extended text", &waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{Text: proto.String("hi")}}, "text"},
		{"image", &waE2E.Message{ImageMessage: &waE2E.ImageMessage{}}, "image"},
		{"video", &waE2E.Message{VideoMessage: &waE2E.VideoMessage{}}, "video"},
		{"audio", &waE2E.Message{AudioMessage: &waE2E.AudioMessage{}}, "audio"},
		{"document", &waE2E.Message{DocumentMessage: &waE2E.DocumentMessage{}}, "document"},
		{"sticker", &waE2E.Message{StickerMessage: &waE2E.StickerMessage{}}, "sticker"},
		{"contact", &waE2E.Message{ContactMessage: &waE2E.ContactMessage{}}, "contact"},
		{"location", &waE2E.Message{LocationMessage: &waE2E.LocationMessage{}}, "location"},
		{"empty message", &waE2E.Message{}, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectMessageType(tt.msg)
			if got != tt.want {
				t.Errorf("detectMessageType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func liveEvent(fromMe bool, chat types.JID) *events.Message {
	return &events.Message{
		Info: types.MessageInfo{
			PushName:  "Alice",
			Timestamp: time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC),
			MessageSource: types.MessageSource{
				Chat:     chat,
				Sender:   types.JID{User: "5511999999999", Device: 3, Server: types.DefaultUserServer},
				IsFromMe: fromMe,
			},
			ID: "MSG123",
		},
		Message: &waE2E.Message{Conversation: proto.String("hello world")},
	}
}

func TestParseLiveMessageInbound(t *testing.T) {
	chat := types.JID{User: "5511999999999", Server: types.DefaultUserServer}
	m, ok := ParseLiveMessage(liveEvent(false, chat), "5511000000000")
	if !ok {
		t.Fatal("direct chat message skipped")
	}
	if m.ID != "MSG123" || m.Body != "hello world" || m.Direction != message.Inbound {
		t.Errorf("message = %+v", m)
	}
	if m.From != "5511999999999@s.whatsapp.net" {
		t.Errorf("From = %q, want device suffix stripped", m.From)
	}
	if m.To != "5511000000000" {
		t.Errorf("To = %q, want self", m.To)
	}
	if m.Status != message.StatusDelivered {
		t.Errorf("Status = %q", m.Status)
	}
}

func TestParseLiveMessageOutbound(t *testing.T) {
	chat := types.JID{User: "5511888888888", Server: types.DefaultUserServer}
	m, ok := ParseLiveMessage(liveEvent(true, chat), "5511999999999")
	if !ok {
		t.Fatal("direct chat message skipped")
	}
	if m.Direction != message.Outbound || m.To != "5511888888888@s.whatsapp.net" || m.Status != message.StatusSent {
		t.Errorf("message = %+v", m)
	}
}

func TestParseLiveMessageSkipsGroups(t *testing.T) {
	group := types.JID{User: "120363123456", Server: types.GroupServer}
	if _, ok := ParseLiveMessage(liveEvent(false, group), "me"); ok {
		t.Error("group message not skipped")
	}
}

func TestParseHistoryMessage(t *testing.T) {
	ts := uint64(1736942400)
	chat := types.JID{User: "5511999999999", Server: types.DefaultUserServer}
	info := &waWeb.WebMessageInfo{
		Key: &waCommon.MessageKey{
			ID:     proto.String("hm1"),
			FromMe: proto.Bool(true),
		},
		MessageTimestamp: &ts,
		Message:          &waE2E.Message{Conversation: proto.String("old")},
	}

	m, ok := ParseHistoryMessage(chat, info, "5511000000000")
	if !ok {
		t.Fatal("history message skipped")
	}
	if m.From != "5511000000000" || m.To != "5511999999999@s.whatsapp.net" || m.Direction != message.Outbound {
		t.Errorf("message = %+v", m)
	}
	if !m.Timestamp.Equal(time.Unix(int64(ts), 0)) {
		t.Errorf("Timestamp = %v", m.Timestamp)
	}

	if _, ok := ParseHistoryMessage(chat, &waWeb.WebMessageInfo{Key: info.Key}, "me"); ok {
		t.Error("entry without message not skipped")
	}
}
