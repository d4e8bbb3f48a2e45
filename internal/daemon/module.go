package daemon

import (
	"context"
	"slices"

	"github.com/Digigit24/celiyo-new-sub001/internal/api"
	"github.com/Digigit24/celiyo-new-sub001/internal/bus"
	"github.com/Digigit24/celiyo-new-sub001/internal/config"
	"github.com/Digigit24/celiyo-new-sub001/internal/feed"
	"github.com/Digigit24/celiyo-new-sub001/internal/identity"
	"github.com/Digigit24/celiyo-new-sub001/internal/inbox"
	"github.com/Digigit24/celiyo-new-sub001/internal/lock"
	"github.com/Digigit24/celiyo-new-sub001/internal/logging"
	"github.com/Digigit24/celiyo-new-sub001/internal/outbox"
	"github.com/Digigit24/celiyo-new-sub001/internal/rest"
	"github.com/Digigit24/celiyo-new-sub001/internal/router"
	"github.com/Digigit24/celiyo-new-sub001/internal/timeline"
	"github.com/Digigit24/celiyo-new-sub001/internal/wa"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params selects the daemon configuration.
type Params struct {
	ConfigPath string         // empty = ~/.inbox/config.toml
	Config     *config.Config // optional override for testing; skips ConfigPath
	// WhatsApp enables the linked-device feed at the default device store
	// path when the config names none.
	WhatsApp bool
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideLock,
			provideRESTClient,
			provideRouter,
			provideSender,
			provideMediaPipeline,
			provideInbox,
			provideFeed,
			provideAdapter,
			provideInboxService,
			provideServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	cfg := p.Config
	if cfg == nil {
		path := p.ConfigPath
		if path == "" {
			path = config.Path()
		}
		loaded, err := config.LoadOrDefault(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if p.WhatsApp && cfg.WhatsApp.DeviceDB == "" {
		cfg.WhatsApp.DeviceDB = config.DeviceDBPath()
	}
	return cfg, cfg.Validate()
}

func provideLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(cfg.Daemon.LogPath)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(cfg *config.Config, logger *zap.Logger) (*lock.Lock, error) {
	if err := config.EnsureDir(cfg); err != nil {
		return nil, err
	}
	path := lock.ForSocket(cfg.Daemon.Socket)
	l, err := lock.Acquire(path)
	if err != nil {
		return nil, err
	}
	logger.Info("daemon lock acquired", zap.String("path", path))
	return l, nil
}

func provideRESTClient(cfg *config.Config, logger *zap.Logger) *rest.Client {
	return rest.New(cfg.Backend.BaseURL, cfg.Backend.Token, cfg.Backend.Timeout.Duration, logger.Named("rest"))
}

func provideRouter(cfg *config.Config, b *bus.Bus, logger *zap.Logger) *router.Router {
	return router.New(b, identity.NewSet(cfg.Inbox.Self...), logger.Named("router"))
}

func provideSender(client *rest.Client, b *bus.Bus, logger *zap.Logger) *outbox.Sender {
	return outbox.NewSender(client, b, logger.Named("outbox"))
}

func provideMediaPipeline(client *rest.Client, b *bus.Bus, logger *zap.Logger) *outbox.MediaPipeline {
	return outbox.NewMediaPipeline(client, b, logger.Named("media"))
}

func provideInbox(cfg *config.Config, client *rest.Client, r *router.Router, sender *outbox.Sender, media *outbox.MediaPipeline, b *bus.Bus, logger *zap.Logger) *inbox.Service {
	return inbox.NewService(client, r, sender, media, b, logger.Named("inbox"), inbox.Options{
		CacheSize: cfg.Inbox.CacheSize,
		Timeline:  timeline.Options{RetainOnRefreshFailure: cfg.Inbox.RetainOnRefreshFailure},
	})
}

// provideFeed returns nil when no feed URL is configured.
func provideFeed(cfg *config.Config, b *bus.Bus, logger *zap.Logger) *feed.Client {
	if cfg.Feed.URL == "" {
		logger.Warn("feed.url not set, websocket push feed disabled")
		return nil
	}
	return feed.New(cfg.Feed.URL, cfg.Backend.Token, cfg.Feed.ReconnectDelay.Duration, b, logger.Named("feed"))
}

// provideAdapter returns nil when no device store is configured.
func provideAdapter(cfg *config.Config, b *bus.Bus, logger *zap.Logger) (*wa.Adapter, error) {
	if cfg.WhatsApp.DeviceDB == "" {
		return nil, nil
	}
	return wa.NewAdapter(context.Background(), cfg.WhatsApp.DeviceDB, b, logger.Named("wa"))
}

func provideInboxService(svc *inbox.Service, fc *feed.Client, adapter *wa.Adapter, b *bus.Bus, logger *zap.Logger) *api.InboxService {
	var feeds []api.Feed
	if fc != nil {
		feeds = append(feeds, api.Feed{Name: "websocket", State: fc.State})
	}
	if adapter != nil {
		feeds = append(feeds, api.Feed{Name: "whatsapp", State: adapter.State})
	}
	return api.NewInboxService(svc, feeds, b, logger.Named("api"))
}

// provideServer takes the lock as a dependency so that a second daemon fails
// before it touches the socket of the running one.
func provideServer(_ *lock.Lock, cfg *config.Config, logger *zap.Logger, svc *api.InboxService) (*Server, error) {
	return NewServer(cfg, logger, svc)
}

func registerLifecycle(lc fx.Lifecycle, lk *lock.Lock, cfg *config.Config, srv *Server, r *router.Router, svc *inbox.Service, fc *feed.Client, adapter *wa.Adapter, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// Router first, so no feed event is published before anyone listens.
			r.Start(context.Background())

			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
				}
			}()

			if fc != nil {
				fc.Start(context.Background())
			}
			if adapter != nil {
				if phone := adapter.PhoneNumber(); phone != "" {
					r.SetSelf(identity.NewSet(append(slices.Clip(cfg.Inbox.Self), phone)...))
				}
				go func() {
					if err := adapter.Start(); err != nil {
						logger.Error("WhatsApp feed failed to start", zap.Error(err))
					}
				}()
			}
			logger.Info("daemon started")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if fc != nil {
				fc.Stop()
			}
			if adapter != nil {
				adapter.Stop()
			}
			srv.Stop(ctx)
			svc.Close()
			r.Stop()
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
