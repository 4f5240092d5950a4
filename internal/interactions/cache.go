package interactions

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/eventpulse/client/internal/api"
	"github.com/eventpulse/client/internal/models"
)

// Kind names the two interest sets a user can place an event in.
type Kind string

const (
	KindLike  Kind = "like"
	KindGoing Kind = "going"
)

var (
	// ErrNotAuthenticated indicates a toggle was attempted without a session.
	ErrNotAuthenticated = errors.New("interactions: not authenticated")
	// ErrToggleInFlight indicates a toggle for the same event and kind has
	// not resolved yet. At most one toggle per (event, kind) may be in
	// flight; issuing another is a caller error, not a queueing request.
	ErrToggleInFlight = errors.New("interactions: toggle already in flight")
)

// API captures the interaction endpoints the cache calls.
type API interface {
	Like(ctx context.Context, kind models.EventKind, eventID string) (api.Counters, error)
	Unlike(ctx context.Context, kind models.EventKind, eventID string) (api.Counters, error)
	Going(ctx context.Context, kind models.EventKind, eventID string) (api.Counters, error)
	Ungoing(ctx context.Context, kind models.EventKind, eventID string) (api.Counters, error)
	LikedEventIDs(ctx context.Context) ([]string, error)
	GoingEventIDs(ctx context.Context) ([]string, error)
}

// ToggleResult reports the reconciled outcome of a toggle: the new local
// membership and the server-authoritative counter for the toggled kind.
type ToggleResult struct {
	Member bool
	Count  int
}

// Cache tracks per-event membership in the liked and going sets. Membership
// is mutated strictly after a successful server response, from the intent
// that was sent, so a failed request leaves the sets untouched and no
// optimistic rollback is ever needed. Counter values are never stored: each
// toggle returns the server's counter and display code uses only that.
type Cache struct {
	client     API
	authorized func() bool

	mu       sync.Mutex
	liked    map[string]struct{}
	going    map[string]struct{}
	inflight map[string]struct{}

	subscribers []func()
}

// NewCache builds a cache backed by client. authorized reports whether a
// session currently exists; when it returns false every read is empty and
// every toggle is rejected before touching the network.
func NewCache(client API, authorized func() bool) *Cache {
	if authorized == nil {
		authorized = func() bool { return false }
	}
	return &Cache{
		client:     client,
		authorized: authorized,
		liked:      make(map[string]struct{}),
		going:      make(map[string]struct{}),
		inflight:   make(map[string]struct{}),
	}
}

// Toggle flips membership of the event in the given set. The direction is
// decided from local membership before the request is issued; a second
// toggle for the same (event, kind) while the first is pending is rejected
// with ErrToggleInFlight and performs no network call.
func (c *Cache) Toggle(ctx context.Context, eventID string, eventKind models.EventKind, kind Kind) (ToggleResult, error) {
	if !c.authorized() {
		return ToggleResult{}, ErrNotAuthenticated
	}

	key := string(kind) + ":" + eventID

	c.mu.Lock()
	if _, busy := c.inflight[key]; busy {
		c.mu.Unlock()
		return ToggleResult{}, ErrToggleInFlight
	}
	c.inflight[key] = struct{}{}
	member := c.memberLocked(eventID, kind)
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.inflight, key)
		c.mu.Unlock()
	}()

	counters, err := c.call(ctx, eventID, eventKind, kind, member)
	if err != nil {
		return ToggleResult{}, fmt.Errorf("toggle %s %s: %w", kind, eventID, err)
	}

	c.mu.Lock()
	set := c.setLocked(kind)
	if member {
		delete(set, eventID)
	} else {
		set[eventID] = struct{}{}
	}
	c.mu.Unlock()
	c.notify()

	count := counters.LikeCount
	if kind == KindGoing {
		count = counters.GoingCount
	}
	return ToggleResult{Member: !member, Count: count}, nil
}

// call picks the endpoint matching the intent computed from prior membership.
func (c *Cache) call(ctx context.Context, eventID string, eventKind models.EventKind, kind Kind, member bool) (api.Counters, error) {
	switch {
	case kind == KindLike && member:
		return c.client.Unlike(ctx, eventKind, eventID)
	case kind == KindLike:
		return c.client.Like(ctx, eventKind, eventID)
	case member:
		return c.client.Ungoing(ctx, eventKind, eventID)
	default:
		return c.client.Going(ctx, eventKind, eventID)
	}
}

// IsMember reports current membership. It is false for every event when no
// session exists, regardless of what the sets held before logout.
func (c *Cache) IsMember(eventID string, kind Kind) bool {
	if !c.authorized() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.memberLocked(eventID, kind)
}

// LoadFromServer replaces both sets wholesale with the server's id lists.
func (c *Cache) LoadFromServer(ctx context.Context) error {
	liked, err := c.client.LikedEventIDs(ctx)
	if err != nil {
		return fmt.Errorf("load liked events: %w", err)
	}
	going, err := c.client.GoingEventIDs(ctx)
	if err != nil {
		return fmt.Errorf("load going events: %w", err)
	}

	c.mu.Lock()
	c.liked = toSet(liked)
	c.going = toSet(going)
	c.mu.Unlock()
	c.notify()
	return nil
}

// Clear empties both sets. Used on logout and for freshly registered
// accounts, which have no prior interactions to fetch.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.liked = make(map[string]struct{})
	c.going = make(map[string]struct{})
	c.mu.Unlock()
	c.notify()
}

// Liked returns a copy of the liked id set.
func (c *Cache) Liked() []string {
	return c.ids(KindLike)
}

// Going returns a copy of the going id set.
func (c *Cache) Going() []string {
	return c.ids(KindGoing)
}

func (c *Cache) ids(kind Kind) []string {
	if !c.authorized() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	set := c.setLocked(kind)
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// Subscribe registers fn to run after every membership change.
func (c *Cache) Subscribe(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

func (c *Cache) memberLocked(eventID string, kind Kind) bool {
	_, ok := c.setLocked(kind)[eventID]
	return ok
}

func (c *Cache) setLocked(kind Kind) map[string]struct{} {
	if kind == KindGoing {
		return c.going
	}
	return c.liked
}

func (c *Cache) notify() {
	c.mu.Lock()
	subscribers := make([]func(), len(c.subscribers))
	copy(subscribers, c.subscribers)
	c.mu.Unlock()

	for _, fn := range subscribers {
		if fn != nil {
			fn()
		}
	}
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
