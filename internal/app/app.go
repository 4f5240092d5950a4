package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/eventpulse/client/internal/config"
	"github.com/eventpulse/client/internal/feed"
	"github.com/eventpulse/client/internal/interactions"
	"github.com/eventpulse/client/internal/logging"
	"github.com/eventpulse/client/internal/models"
	"github.com/eventpulse/client/internal/session"
	"github.com/eventpulse/client/internal/store"
)

// Run bootstraps the EventPulse client.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected command: watch, login, logout, register, status, toggle, recommend, or theme")
	}

	cfg, err := config.Load(configPath())
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	ctx = logging.WithLogger(ctx, logger)

	deps, err := buildDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close()

	ctx, span := logging.StartSpan(ctx, args[0])
	defer span.End()

	switch args[0] {
	case "watch":
		return watch(ctx, deps, args[1:])
	case "login":
		return login(ctx, deps, args[1:])
	case "logout":
		deps.session.Hydrate(ctx)
		deps.session.Logout()
		fmt.Println("logged out")
		return nil
	case "register":
		return register(ctx, deps, args[1:])
	case "status":
		return status(ctx, deps)
	case "toggle":
		return toggle(ctx, deps, args[1:])
	case "recommend":
		return recommend(ctx, deps)
	case "theme":
		return theme(ctx, deps, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// watch hydrates the session, supervises a feed connection, and prints each
// snapshot until interrupted.
func watch(ctx context.Context, deps *dependencies, args []string) error {
	deps.session.Hydrate(ctx)

	mode := feed.ModeMainOnly
	if len(args) > 0 {
		parsed, err := parseMode(args[0])
		if err != nil {
			return err
		}
		mode = parsed
	}

	supervisor := feed.NewSupervisor(deps.cfg.FeedURL, deps.cfg.ReconnectPerMinute, deps.cfg.ReconnectBurst, slog.Default())
	supervisor.SetMode(mode)
	supervisor.Subscribe(func() {
		printView(ctx, deps, supervisor.View())
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	runErr := make(chan error, 1)
	go func() {
		runErr <- supervisor.Run(runCtx)
	}()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-ctx.Done():
	case sig := <-signalCh:
		slog.Info("received signal, closing feed", "signal", sig.String())
	case err := <-runErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}

	cancel()
	return nil
}

func printView(ctx context.Context, deps *dependencies, view feed.View) {
	switch {
	case view.Err != "":
		fmt.Printf("feed error: %s\n", view.Err)
	case view.IsLoading:
		fmt.Println("waiting for first snapshot...")
	default:
		fmt.Printf("snapshot: %d events (connected=%v)\n", len(view.Events), view.IsConnected)
		for _, event := range view.Events {
			marks := ""
			if deps.interactions.IsMember(event.ID, interactions.KindLike) {
				marks += " [liked]"
			}
			if deps.interactions.IsMember(event.ID, interactions.KindGoing) {
				marks += " [going]"
			}
			line := fmt.Sprintf("  %s  %s (%d likes, %d going)%s", event.ID, event.Title, event.LikeCount, event.GoingCount, marks)
			if event.ImageKey != "" {
				if url, err := deps.media.Resolve(ctx, event.ImageKey); err == nil {
					line += "  " + url
				}
			}
			fmt.Println(line)
		}
	}
}

func login(ctx context.Context, deps *dependencies, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: login <email> <password>")
	}
	if err := deps.session.Login(ctx, args[0], args[1]); err != nil {
		return err
	}
	identity := deps.session.Identity()
	fmt.Printf("logged in as %s %s <%s>\n", identity.FirstName, identity.LastName, identity.Email)
	return nil
}

func register(ctx context.Context, deps *dependencies, args []string) error {
	if len(args) != 4 {
		return errors.New("usage: register <email> <password> <first-name> <last-name>")
	}
	registration := models.Registration{
		Email:     args[0],
		Password:  args[1],
		FirstName: args[2],
		LastName:  args[3],
	}
	if err := deps.session.Register(ctx, registration); err != nil {
		return err
	}
	fmt.Printf("registered %s\n", registration.Email)
	return nil
}

func status(ctx context.Context, deps *dependencies) error {
	deps.session.Hydrate(ctx)

	fmt.Printf("session: %s\n", deps.session.Status())
	fmt.Printf("storage: %s\n", storageHealth(deps.store))
	if identity := deps.session.Identity(); identity != nil {
		fmt.Printf("identity: %s %s <%s>\n", identity.FirstName, identity.LastName, identity.Email)
		fmt.Printf("liked: %s\n", idList(deps.interactions.Liked()))
		fmt.Printf("going: %s\n", idList(deps.interactions.Going()))
		if len(identity.SuggestedEventIDs) > 0 {
			fmt.Printf("suggested: %s\n", strings.Join(identity.SuggestedEventIDs, ", "))
		}
	}
	fmt.Printf("theme: %s\n", deps.session.Theme())
	if remaining := deps.cooldown.Remaining(); remaining > 0 {
		fmt.Printf("recommendation cooldown: %ds remaining\n", remaining)
	}
	return nil
}

func toggle(ctx context.Context, deps *dependencies, args []string) error {
	if len(args) != 3 {
		return errors.New("usage: toggle <like|going> <main|sub> <event-id>")
	}

	var kind interactions.Kind
	switch args[0] {
	case "like":
		kind = interactions.KindLike
	case "going":
		kind = interactions.KindGoing
	default:
		return fmt.Errorf("unknown interaction %q", args[0])
	}

	var eventKind models.EventKind
	switch args[1] {
	case "main":
		eventKind = models.KindMain
	case "sub":
		eventKind = models.KindSub
	default:
		return fmt.Errorf("unknown event kind %q", args[1])
	}

	deps.session.Hydrate(ctx)

	result, err := deps.interactions.Toggle(ctx, args[2], eventKind, kind)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s: member=%v count=%d\n", kind, args[2], result.Member, result.Count)
	return nil
}

func recommend(ctx context.Context, deps *dependencies) error {
	deps.session.Hydrate(ctx)
	if !deps.session.IsAuthenticated() {
		return session.ErrNotAuthenticated
	}

	if remaining := deps.cooldown.Remaining(); remaining > 0 {
		return fmt.Errorf("recommendation cooldown active: %ds remaining", remaining)
	}

	// The cooldown is armed when the request is issued, not when it
	// completes, mirroring the gate the UI applies.
	deps.cooldown.Start(time.Duration(deps.cfg.CooldownDuration))

	profile, err := deps.client.GenerateRecommendations(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("suggested events: %s\n", strings.Join(profile.SuggestedEventIDs, ", "))
	return nil
}

func theme(ctx context.Context, deps *dependencies, args []string) error {
	deps.session.Hydrate(ctx)

	if len(args) == 0 {
		fmt.Println(deps.session.Theme())
		return nil
	}
	if err := deps.session.SetTheme(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("theme set to %s\n", args[0])
	return nil
}

// storageHealth reports whether client state survives restarts, for the
// status line. The memory store is the fallback when the durable backend
// could not be opened.
func storageHealth(st store.Store) string {
	if _, ok := st.(*store.MemoryStore); ok {
		return "in-memory (state will not survive a restart)"
	}
	return "durable"
}

func parseMode(value string) (feed.Mode, error) {
	switch value {
	case "main", "main-only":
		return feed.ModeMainOnly, nil
	case "all":
		return feed.ModeAll, nil
	case "sub", "sub-only":
		return feed.ModeSubOnly, nil
	default:
		return "", fmt.Errorf("unknown fetch mode %q", value)
	}
}

func idList(ids []string) string {
	if len(ids) == 0 {
		return "(none)"
	}
	sort.Strings(ids)
	return strings.Join(ids, ", ")
}

func logLevel(value string) slog.Level {
	switch strings.ToLower(value) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func configPath() string {
	if path := os.Getenv("EVENTPULSE_CONFIG"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".eventpulse", "config.yaml")
}
