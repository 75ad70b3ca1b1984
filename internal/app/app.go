package app

import (
	"context"
	"errors"
	"time"

	"github.com/aleister1102/monsterwatch/internal/common"
	"github.com/aleister1102/monsterwatch/internal/config"
	"github.com/aleister1102/monsterwatch/internal/datastore"
	"github.com/aleister1102/monsterwatch/internal/models"
	"github.com/aleister1102/monsterwatch/internal/monitor"
	"github.com/aleister1102/monsterwatch/internal/notifier"
	"github.com/aleister1102/monsterwatch/internal/notifier/discord"
	"github.com/aleister1102/monsterwatch/internal/notifier/email"
	"github.com/aleister1102/monsterwatch/internal/server"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// discordClientTimeout bounds a single webhook call
const discordClientTimeout = 20 * time.Second

// App owns every long-running component of a watch session.
type App struct {
	cfg    *config.GlobalConfig
	logger zerolog.Logger

	bus        *notifier.Bus
	tracker    *notifier.HeartbeatTracker
	handlers   []notifier.Handler
	dispatcher *notifier.Dispatcher
	emitter    *notifier.HeartbeatEmitter
	watchers   []*monitor.Watcher
	journal    *datastore.Journal
	server     *server.Server
}

// New wires the application from a validated configuration. An invalid ignore
// pattern is returned as *common.PatternError and nothing is started.
func New(cfg *config.GlobalConfig, logger zerolog.Logger) (*App, error) {
	if cfg == nil {
		return nil, common.NewError("configuration is nil")
	}
	if len(cfg.Watch) == 0 {
		return nil, common.WrapError(common.ErrInvalidConfiguration, "no watch targets configured")
	}

	a := &App{
		cfg:     cfg,
		logger:  logger.With().Str("component", "App").Logger(),
		bus:     notifier.NewBus(),
		tracker: notifier.NewHeartbeatTracker(cfg.URLs(), nil),
	}

	if err := a.buildWatchers(logger); err != nil {
		return nil, err
	}

	if err := a.buildHandlers(logger); err != nil {
		a.Close()
		return nil, err
	}

	a.dispatcher = notifier.NewDispatcher(a.bus, a.tracker, a.handlers, logger)
	a.emitter = notifier.NewHeartbeatEmitter(a.tracker, a.handlers, cfg.Heartbeat.Duration(), logger)

	if cfg.StatusServerConfig.Enabled {
		var events server.EventStore
		if a.journal != nil {
			events = a.journal
		}
		a.server = server.NewServer(cfg.StatusServerConfig, a.tracker, events, logger)
	}

	a.logger.Info().
		Int("targets", len(a.watchers)).
		Int("channels", len(a.handlers)).
		Dur("heartbeat", cfg.Heartbeat.Duration()).
		Bool("status_server", a.server != nil).
		Msg("Application initialized")
	return a, nil
}

func (a *App) buildWatchers(logger zerolog.Logger) error {
	factory := common.NewHTTPClientFactory(logger)
	client := factory.CreateMonitorClient(a.cfg.HTTPConfig.Timeout.Duration(), a.cfg.HTTPConfig.InsecureSkipVerify)
	fetcher := monitor.NewFetcher(client, a.cfg.HTTPConfig, logger)

	for _, wc := range a.cfg.Watch {
		target, err := monitor.NewTarget(wc)
		if err != nil {
			return common.WrapErrorf(err, "invalid watch target %s", wc.URL)
		}
		watcher, err := monitor.NewWatcher(target, fetcher, a.bus, logger)
		if err != nil {
			return common.WrapErrorf(err, "creating watcher for %s", wc.URL)
		}
		a.watchers = append(a.watchers, watcher)
	}
	return nil
}

// buildHandlers registers the enabled channels in the order discord, email, journal.
func (a *App) buildHandlers(logger zerolog.Logger) error {
	nc := a.cfg.NotificationConfig

	if nc.Discord.Enabled {
		client := common.NewHTTPClientFactory(logger).CreateDiscordClient(discordClientTimeout)
		h, err := discord.NewHandler(nc.Discord, client, logger)
		if err != nil {
			return err
		}
		a.handlers = append(a.handlers, h)
	}

	if nc.Email.Enabled {
		h, err := email.NewHandler(nc.Email, nil, logger)
		if err != nil {
			return common.WrapError(err, "creating email handler")
		}
		a.handlers = append(a.handlers, h)
	}

	if nc.Journal.Enabled {
		journal, err := datastore.OpenJournal(nc.Journal.SQLitePath, logger)
		if err != nil {
			return common.WrapError(err, "opening journal")
		}
		a.journal = journal
		a.handlers = append(a.handlers, notifier.NewJournalHandler(journal, nil, logger))
	}

	if len(a.handlers) == 0 {
		a.logger.Warn().Msg("No notification channel enabled, events will only update the heartbeat")
	}
	return nil
}

// Run starts every component and blocks until ctx is cancelled or a watcher
// hits an unrecoverable bus failure. The latter is returned as
// *common.FatalBusError once everything has stopped.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	// The dispatcher drains until the bus is closed so that events accepted
	// before shutdown still reach the channels.
	g.Go(func() error {
		defer a.bus.Close()
		return a.dispatcher.Run(context.WithoutCancel(gctx))
	})
	g.Go(func() error {
		<-gctx.Done()
		a.bus.Close()
		return nil
	})
	g.Go(func() error {
		return a.emitter.Run(gctx)
	})
	if a.server != nil {
		g.Go(func() error {
			return a.server.Run(gctx)
		})
	}

	urls := a.cfg.URLs()
	if err := a.bus.Send(gctx, models.NewStartupEvent(urls)); err != nil && gctx.Err() == nil {
		cancel()
		_ = g.Wait()
		return common.WrapError(err, "failed to send startup event")
	}
	a.logger.Info().Strs("urls", urls).Msg("Watching targets")

	for _, w := range a.watchers {
		g.Go(func() error {
			return w.Run(gctx)
		})
	}

	err := g.Wait()
	a.logger.Info().
		Int64("events", a.dispatcher.Processed()).
		Int64("channel_failures", a.dispatcher.Failures()+a.emitter.Failures()).
		Msg("Application stopped")

	var fatal *common.FatalBusError
	if errors.As(err, &fatal) {
		a.logger.Error().Err(fatal).Msg("Event bus failure, shutting down")
		return fatal
	}
	return err
}

// Close releases resources held outside the run loop. It is safe to call more than once.
func (a *App) Close() {
	if a.journal == nil {
		return
	}
	if err := a.journal.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to close journal")
	}
	a.journal = nil
}

// Handlers returns the registered channel names in dispatch order.
func (a *App) Handlers() []string {
	names := make([]string, 0, len(a.handlers))
	for _, h := range a.handlers {
		names = append(names, h.Name())
	}
	return names
}

// Heartbeat returns the current liveness snapshot.
func (a *App) Heartbeat() models.Heartbeat {
	return a.tracker.Snapshot()
}
