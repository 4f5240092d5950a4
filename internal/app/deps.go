package app

import (
	"context"
	"log/slog"

	"github.com/eventpulse/client/internal/api"
	"github.com/eventpulse/client/internal/clock"
	"github.com/eventpulse/client/internal/config"
	"github.com/eventpulse/client/internal/cooldown"
	"github.com/eventpulse/client/internal/interactions"
	"github.com/eventpulse/client/internal/media"
	"github.com/eventpulse/client/internal/session"
	"github.com/eventpulse/client/internal/store"
)

// dependencies aggregates the single process-wide instance of each core
// component, wired once at startup and injected into whatever consumes them.
type dependencies struct {
	cfg          config.Config
	store        store.Store
	client       *api.Client
	session      *session.Manager
	interactions *interactions.Cache
	cooldown     *cooldown.Scheduler
	media        media.Resolver

	close func()
}

// buildDependencies wires together concrete implementations of the
// synchronization core. A durable store that cannot be opened degrades to an
// in-memory one; persistence is best-effort by contract.
func buildDependencies(ctx context.Context, cfg config.Config, logger *slog.Logger) (*dependencies, error) {
	var st store.Store
	closeStore := func() {}

	badgerStore, err := store.OpenBadger(cfg.DataDir, logger)
	if err != nil {
		logger.Warn("durable store unavailable, state will not survive restarts", "dir", cfg.DataDir, "error", err)
		st = store.NewMemoryStore()
	} else {
		st = badgerStore
		closeStore = func() { _ = badgerStore.Close() }
	}

	// The session manager, API client, and interaction cache reference each
	// other; the closures below break the construction cycle.
	var manager *session.Manager

	client := api.New(cfg.ServerURL, func() string {
		if manager == nil {
			return ""
		}
		return manager.Credential()
	})

	cache := interactions.NewCache(client, func() bool {
		return manager != nil && manager.IsAuthenticated()
	})

	manager = session.NewManager(client, cache, st, logger)

	scheduler := cooldown.NewScheduler(st, clock.NewSystem(), logger)

	resolver, err := media.New(ctx, cfg.Media)
	if err != nil {
		closeStore()
		return nil, err
	}

	return &dependencies{
		cfg:          cfg,
		store:        st,
		client:       client,
		session:      manager,
		interactions: cache,
		cooldown:     scheduler,
		media:        resolver,
		close: func() {
			scheduler.Stop()
			closeStore()
		},
	}, nil
}
