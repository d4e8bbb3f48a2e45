package wa

import (
	"context"

	"github.com/Digigit24/celiyo-new-sub001/internal/bus"
	"github.com/Digigit24/celiyo-new-sub001/internal/message"
	"github.com/Digigit24/celiyo-new-sub001/internal/status"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"go.uber.org/zap"
)

// LIDResolver maps hidden-user JIDs to phone-number JIDs.
type LIDResolver interface {
	ResolveLID(ctx context.Context, jid types.JID) types.JID
}

// EventHandler translates whatsmeow events into feed events on the bus and
// drives the connection state machine. It never touches a timeline.
type EventHandler struct {
	bus      *bus.Bus
	machine  *status.Machine
	resolver LIDResolver
	self     func() string
	logger   *zap.Logger
}

// NewEventHandler creates a new event handler. resolver may be nil; self
// returns our own address.
func NewEventHandler(b *bus.Bus, machine *status.Machine, resolver LIDResolver, self func() string, logger *zap.Logger) *EventHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if self == nil {
		self = func() string { return "" }
	}
	return &EventHandler{
		bus:      b,
		machine:  machine,
		resolver: resolver,
		self:     self,
		logger:   logger,
	}
}

// Handle is the whatsmeow event handler function.
func (h *EventHandler) Handle(rawEvt any) {
	switch evt := rawEvt.(type) {
	case *events.Message:
		h.handleMessage(evt)
	case *events.Receipt:
		h.handleReceipt(evt)
	case *events.HistorySync:
		h.handleHistorySync(evt)
	case *events.Connected:
		h.logger.Info("WhatsApp connected")
		if h.machine.Current() == status.Reconnecting {
			h.transition(status.Connecting)
		}
		h.transition(status.Live)
	case *events.Disconnected:
		h.logger.Warn("WhatsApp disconnected")
		h.transition(status.Reconnecting)
	case *events.LoggedOut:
		h.logger.Warn("WhatsApp logged out", zap.String("reason", evt.Reason.String()))
		h.transition(status.Stopped)
	}
}

func (h *EventHandler) handleMessage(evt *events.Message) {
	evt.Info.Chat = h.resolve(evt.Info.Chat)
	evt.Info.Sender = h.resolve(evt.Info.Sender)

	m, ok := ParseLiveMessage(evt, h.self())
	if !ok {
		h.logger.Debug("skipping non-direct chat message", zap.String("chat", evt.Info.Chat.String()))
		return
	}
	h.bus.Publish(bus.Event{Kind: bus.KindFeedMessage, Payload: m})
}

func (h *EventHandler) handleReceipt(evt *events.Receipt) {
	switch evt.Type {
	case types.ReceiptTypeDelivered, types.ReceiptTypeRead, types.ReceiptTypePlayed:
	default:
		return
	}
	peer := h.resolve(evt.Chat).ToNonAD().String()
	for _, id := range evt.MessageIDs {
		h.bus.Publish(bus.Event{
			Kind: bus.KindFeedStatus,
			Payload: message.StatusUpdate{
				MessageID: id,
				Peer:      peer,
				Status:    message.StatusDelivered,
			},
		})
	}
}

func (h *EventHandler) handleHistorySync(evt *events.HistorySync) {
	data := evt.Data
	if data == nil {
		return
	}

	self := h.self()
	count := 0
	for _, conv := range data.GetConversations() {
		chat, err := types.ParseJID(conv.GetID())
		if err != nil {
			continue
		}
		chat = h.resolve(chat)
		for _, hm := range conv.GetMessages() {
			m, ok := ParseHistoryMessage(chat, hm.GetMessage(), self)
			if !ok {
				continue
			}
			h.bus.Publish(bus.Event{Kind: bus.KindFeedMessage, Payload: m})
			count++
		}
	}
	h.logger.Info("history sync replayed", zap.Int("messages", count))
}

func (h *EventHandler) resolve(jid types.JID) types.JID {
	if h.resolver == nil {
		return jid
	}
	return h.resolver.ResolveLID(context.Background(), jid)
}

func (h *EventHandler) transition(to status.State) {
	if err := h.machine.Transition(to); err != nil {
		h.logger.Debug("ignoring state change", zap.Error(err))
	}
}
