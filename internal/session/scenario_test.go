package session

import (
	"context"
	"testing"

	"github.com/eventpulse/client/internal/api"
	"github.com/eventpulse/client/internal/interactions"
	"github.com/eventpulse/client/internal/models"
	"github.com/eventpulse/client/internal/store"
)

// fullStub serves both the session endpoints and the interaction endpoints,
// with interaction hydration released explicitly so the window between
// authentication and set hydration is observable.
type fullStub struct {
	stubAPI
	liked   []string
	going   []string
	release chan struct{}
}

func (s *fullStub) Like(context.Context, models.EventKind, string) (api.Counters, error) {
	return api.Counters{LikeCount: 1}, nil
}

func (s *fullStub) Unlike(context.Context, models.EventKind, string) (api.Counters, error) {
	return api.Counters{}, nil
}

func (s *fullStub) Going(context.Context, models.EventKind, string) (api.Counters, error) {
	return api.Counters{GoingCount: 1}, nil
}

func (s *fullStub) Ungoing(context.Context, models.EventKind, string) (api.Counters, error) {
	return api.Counters{}, nil
}

func (s *fullStub) LikedEventIDs(context.Context) ([]string, error) {
	if s.release != nil {
		<-s.release
	}
	return s.liked, nil
}

func (s *fullStub) GoingEventIDs(context.Context) ([]string, error) {
	return s.going, nil
}

func TestLoginThenMembershipAppearsAfterHydration(t *testing.T) {
	stub := &fullStub{
		stubAPI: stubAPI{creds: models.Credentials{
			AccessToken: "tok-10",
			User:        models.UserProfile{UserID: 1, Email: "a@b.c"},
		}},
		liked: []string{"42"},
	}

	st := store.NewMemoryStore()

	var manager *Manager
	cache := interactions.NewCache(stub, func() bool {
		return manager != nil && manager.IsAuthenticated()
	})
	// The manager is wired without automatic hydration so the pre-hydration
	// window can be asserted.
	manager = NewManager(stub, nil, st, nil)

	if err := manager.Login(context.Background(), "a@b.c", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if manager.Credential() == "" || manager.Identity() == nil {
		t.Fatal("expected credential and identity after login")
	}

	if cache.IsMember("42", interactions.KindLike) {
		t.Fatal("membership must be false before hydration completes")
	}

	if err := cache.LoadFromServer(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cache.IsMember("42", interactions.KindLike) {
		t.Fatal("expected membership after hydration")
	}
}
