package session

import (
	"context"

	"github.com/eventpulse/client/internal/models"
	"github.com/eventpulse/client/internal/store"
)

// Theme returns the persisted theme preference, defaulting to light.
func (m *Manager) Theme() string {
	if theme, ok := m.store.Get(store.KeyTheme); ok {
		if theme == ThemeDark {
			return ThemeDark
		}
	}
	return ThemeLight
}

// SetTheme persists the theme preference locally and, when a session exists,
// mirrors it into the server-side profile. For unauthenticated users the
// value lives only in the persistent store.
func (m *Manager) SetTheme(ctx context.Context, theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return ErrInvalidTheme
	}

	m.store.Set(store.KeyTheme, theme)

	if m.IsAuthenticated() {
		if err := m.UpdateProfile(ctx, models.ProfileUpdate{Theme: &theme}); err != nil {
			return err
		}
		return nil
	}

	m.notify()
	return nil
}

// HasSeenOnboarding reports whether the first-run onboarding was dismissed.
func (m *Manager) HasSeenOnboarding() bool {
	value, ok := m.store.Get(store.KeyOnboardingSeen)
	return ok && value == "true"
}

// MarkOnboardingSeen records that onboarding was dismissed.
func (m *Manager) MarkOnboardingSeen() {
	m.store.Set(store.KeyOnboardingSeen, "true")
}
