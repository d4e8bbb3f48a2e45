// Package wa is an optional push-feed source backed by a WhatsApp linked
// device. Pairing is not handled here: an unpaired device store is skipped.
package wa

import (
	"context"
	"fmt"

	"github.com/Digigit24/celiyo-new-sub001/internal/bus"
	"github.com/Digigit24/celiyo-new-sub001/internal/status"
	"go.mau.fi/whatsmeow"
	wastore "go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.uber.org/zap"

	_ "github.com/mattn/go-sqlite3"
)

// Adapter wraps the whatsmeow client of an already paired device.
type Adapter struct {
	client  *whatsmeow.Client
	machine *status.Machine
	bus     *bus.Bus
	logger  *zap.Logger
}

// NewAdapter opens the whatsmeow device store at dbPath.
func NewAdapter(ctx context.Context, dbPath string, b *bus.Bus, logger *zap.Logger) (*Adapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	wastore.SetOSInfo("inboxd", [3]uint32{0, 1, 0})

	container, err := sqlstore.New(ctx, "sqlite3",
		fmt.Sprintf("file:%s?_foreign_keys=on", dbPath),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("open device store: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("get device store: %w", err)
	}

	return &Adapter{
		client:  whatsmeow.NewClient(deviceStore, nil),
		machine: status.NewMachine("whatsapp", b),
		bus:     b,
		logger:  logger,
	}, nil
}

// IsLoggedIn returns whether the device store holds paired credentials.
func (a *Adapter) IsLoggedIn() bool {
	return a.client != nil && a.client.Store.ID != nil
}

// PhoneNumber returns our own phone number, or empty string when unpaired.
func (a *Adapter) PhoneNumber() string {
	if !a.IsLoggedIn() {
		return ""
	}
	return a.client.Store.ID.User
}

// State returns the connection state.
func (a *Adapter) State() status.State {
	return a.machine.Current()
}

// Start connects and begins publishing feed events. An unpaired device is
// logged and left idle; that is not an error.
func (a *Adapter) Start() error {
	if !a.IsLoggedIn() {
		a.logger.Warn("WhatsApp device not paired, linked-device feed disabled")
		return nil
	}
	handler := NewEventHandler(a.bus, a.machine, a, a.PhoneNumber, a.logger)
	a.client.AddEventHandler(handler.Handle)

	if err := a.machine.Transition(status.Connecting); err != nil {
		return err
	}
	a.logger.Info("connecting to WhatsApp", zap.String("phone", a.PhoneNumber()))
	if err := a.client.Connect(); err != nil {
		_ = a.machine.Transition(status.Reconnecting)
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

// Stop terminates the connection.
func (a *Adapter) Stop() {
	if !a.IsLoggedIn() {
		return
	}
	a.logger.Info("disconnecting from WhatsApp")
	a.client.Disconnect()
	if a.machine.Current() != status.Stopped {
		_ = a.machine.Transition(status.Stopped)
	}
}

// ResolveLID resolves a LID JID to its phone number JID using the device store mapping.
// Returns the original JID if it's not a LID or if resolution fails.
func (a *Adapter) ResolveLID(ctx context.Context, jid types.JID) types.JID {
	if jid.Server != types.HiddenUserServer && jid.Server != types.HostedLIDServer {
		return jid
	}
	if a.client == nil || a.client.Store == nil || a.client.Store.LIDs == nil {
		return jid
	}
	pn, err := a.client.Store.LIDs.GetPNForLID(ctx, jid)
	if err != nil || pn.IsEmpty() {
		return jid
	}
	return pn
}
