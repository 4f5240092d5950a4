package interactions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/eventpulse/client/internal/api"
	"github.com/eventpulse/client/internal/models"
)

type stubAPI struct {
	mu       sync.Mutex
	calls    []string
	counters api.Counters
	err      error
	liked    []string
	going    []string
	block    chan struct{}
}

func (s *stubAPI) record(name string) {
	s.mu.Lock()
	s.calls = append(s.calls, name)
	block := s.block
	s.mu.Unlock()
	if block != nil {
		<-block
	}
}

func (s *stubAPI) interact(name string) (api.Counters, error) {
	s.record(name)
	if s.err != nil {
		return api.Counters{}, s.err
	}
	return s.counters, nil
}

func (s *stubAPI) Like(context.Context, models.EventKind, string) (api.Counters, error) {
	return s.interact("like")
}

func (s *stubAPI) Unlike(context.Context, models.EventKind, string) (api.Counters, error) {
	return s.interact("unlike")
}

func (s *stubAPI) Going(context.Context, models.EventKind, string) (api.Counters, error) {
	return s.interact("going")
}

func (s *stubAPI) Ungoing(context.Context, models.EventKind, string) (api.Counters, error) {
	return s.interact("ungoing")
}

func (s *stubAPI) LikedEventIDs(context.Context) ([]string, error) {
	return s.liked, nil
}

func (s *stubAPI) GoingEventIDs(context.Context) ([]string, error) {
	return s.going, nil
}

func (s *stubAPI) callNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.calls))
	copy(names, s.calls)
	return names
}

func authorized() bool { return true }

func TestToggleCallsLikeForNonMember(t *testing.T) {
	stub := &stubAPI{counters: api.Counters{LikeCount: 7, GoingCount: 3}}
	cache := NewCache(stub, authorized)

	result, err := cache.Toggle(context.Background(), "42", models.KindMain, KindLike)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !result.Member || result.Count != 7 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if calls := stub.callNames(); len(calls) != 1 || calls[0] != "like" {
		t.Fatalf("expected one like call got %v", calls)
	}
	if !cache.IsMember("42", KindLike) {
		t.Fatal("expected membership after successful toggle")
	}
}

func TestToggleCallsUnlikeForMember(t *testing.T) {
	stub := &stubAPI{counters: api.Counters{LikeCount: 6}}
	cache := NewCache(stub, authorized)

	if _, err := cache.Toggle(context.Background(), "42", models.KindMain, KindLike); err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	result, err := cache.Toggle(context.Background(), "42", models.KindMain, KindLike)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if result.Member {
		t.Fatal("expected membership removed")
	}
	if calls := stub.callNames(); len(calls) != 2 || calls[1] != "unlike" {
		t.Fatalf("expected unlike got %v", calls)
	}
}

func TestToggleGoingUsesGoingCounter(t *testing.T) {
	stub := &stubAPI{counters: api.Counters{LikeCount: 9, GoingCount: 4}}
	cache := NewCache(stub, authorized)

	result, err := cache.Toggle(context.Background(), "7", models.KindSub, KindGoing)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if result.Count != 4 {
		t.Fatalf("expected going counter got %d", result.Count)
	}
	if calls := stub.callNames(); calls[0] != "going" {
		t.Fatalf("expected going call got %v", calls)
	}
}

func TestToggleRejectedWhenUnauthenticated(t *testing.T) {
	stub := &stubAPI{}
	cache := NewCache(stub, func() bool { return false })

	if _, err := cache.Toggle(context.Background(), "42", models.KindMain, KindLike); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated got %v", err)
	}
	if len(stub.callNames()) != 0 {
		t.Fatal("no network call may happen while unauthenticated")
	}
}

func TestToggleFailureLeavesMembershipUntouched(t *testing.T) {
	stub := &stubAPI{err: errors.New("server exploded")}
	cache := NewCache(stub, authorized)

	if _, err := cache.Toggle(context.Background(), "42", models.KindMain, KindLike); err == nil {
		t.Fatal("expected error")
	}
	if cache.IsMember("42", KindLike) {
		t.Fatal("membership must not change on failure")
	}
}

func TestSecondToggleRejectedWhileFirstPending(t *testing.T) {
	block := make(chan struct{})
	stub := &stubAPI{counters: api.Counters{LikeCount: 1}, block: block}
	cache := NewCache(stub, authorized)

	firstDone := make(chan error, 1)
	go func() {
		_, err := cache.Toggle(context.Background(), "42", models.KindMain, KindLike)
		firstDone <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for len(stub.callNames()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("first toggle never issued its request")
		}
		time.Sleep(time.Millisecond)
	}

	if _, err := cache.Toggle(context.Background(), "42", models.KindMain, KindLike); !errors.Is(err, ErrToggleInFlight) {
		t.Fatalf("expected ErrToggleInFlight got %v", err)
	}

	close(block)
	if err := <-firstDone; err != nil {
		t.Fatalf("first toggle: %v", err)
	}

	if calls := stub.callNames(); len(calls) != 1 {
		t.Fatalf("second toggle must not reach the network, got %v", calls)
	}

	// A different kind for the same event is independent.
	stub.mu.Lock()
	stub.block = nil
	stub.mu.Unlock()
	if _, err := cache.Toggle(context.Background(), "42", models.KindMain, KindGoing); err != nil {
		t.Fatalf("going toggle: %v", err)
	}
}

func TestLoadFromServerReplacesSets(t *testing.T) {
	stub := &stubAPI{liked: []string{"42"}, going: []string{"7", "8"}}
	cache := NewCache(stub, authorized)

	if cache.IsMember("42", KindLike) {
		t.Fatal("expected empty sets before load")
	}

	if err := cache.LoadFromServer(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cache.IsMember("42", KindLike) || !cache.IsMember("7", KindGoing) {
		t.Fatal("expected loaded membership")
	}

	stub.liked = nil
	stub.going = []string{"9"}
	if err := cache.LoadFromServer(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if cache.IsMember("42", KindLike) || cache.IsMember("7", KindGoing) {
		t.Fatal("reload must replace, not merge")
	}
	if !cache.IsMember("9", KindGoing) {
		t.Fatal("expected fresh membership")
	}
}

func TestIsMemberFalseAfterClear(t *testing.T) {
	stub := &stubAPI{counters: api.Counters{LikeCount: 1}}
	authed := true
	cache := NewCache(stub, func() bool { return authed })

	if _, err := cache.Toggle(context.Background(), "42", models.KindMain, KindLike); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !cache.IsMember("42", KindLike) {
		t.Fatal("expected membership")
	}

	authed = false
	cache.Clear()
	if cache.IsMember("42", KindLike) {
		t.Fatal("expected no membership after logout")
	}
}
