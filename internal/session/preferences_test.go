package session

import (
	"context"
	"testing"

	"github.com/eventpulse/client/internal/models"
	"github.com/eventpulse/client/internal/store"
)

func TestThemeDefaultsToLight(t *testing.T) {
	manager, _, _ := newTestManager(&stubAPI{})
	if theme := manager.Theme(); theme != ThemeLight {
		t.Fatalf("expected light got %q", theme)
	}
}

func TestSetThemeValidatesValue(t *testing.T) {
	manager, _, _ := newTestManager(&stubAPI{})
	if err := manager.SetTheme(context.Background(), "sepia"); err != ErrInvalidTheme {
		t.Fatalf("expected ErrInvalidTheme got %v", err)
	}
}

func TestSetThemeUnauthenticatedStaysLocal(t *testing.T) {
	client := &stubAPI{}
	manager, _, st := newTestManager(client)

	if err := manager.SetTheme(context.Background(), ThemeDark); err != nil {
		t.Fatalf("set theme: %v", err)
	}

	if value, ok := st.Get(store.KeyTheme); !ok || value != ThemeDark {
		t.Fatalf("theme not persisted, got %q present=%v", value, ok)
	}
	if client.lastUpdate != nil {
		t.Fatal("unauthenticated theme change must not reach the server")
	}
	if manager.Theme() != ThemeDark {
		t.Fatal("expected dark theme")
	}
}

func TestSetThemeAuthenticatedMirrorsToProfile(t *testing.T) {
	client := &stubAPI{creds: models.Credentials{
		AccessToken: "tok-7",
		User:        models.UserProfile{UserID: 4},
	}}
	manager, _, _ := newTestManager(client)

	if err := manager.Login(context.Background(), "a@b.c", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := manager.SetTheme(context.Background(), ThemeDark); err != nil {
		t.Fatalf("set theme: %v", err)
	}

	if client.lastUpdate == nil || client.lastUpdate.Theme == nil || *client.lastUpdate.Theme != ThemeDark {
		t.Fatalf("expected theme pushed to profile, got %+v", client.lastUpdate)
	}
	if identity := manager.Identity(); identity.Theme != ThemeDark {
		t.Fatalf("expected canonical identity with theme, got %+v", identity)
	}
}

func TestOnboardingFlag(t *testing.T) {
	manager, _, _ := newTestManager(&stubAPI{})

	if manager.HasSeenOnboarding() {
		t.Fatal("expected onboarding unseen")
	}
	manager.MarkOnboardingSeen()
	if !manager.HasSeenOnboarding() {
		t.Fatal("expected onboarding seen")
	}
}
