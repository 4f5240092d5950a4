package media

import (
	"context"
	"testing"

	"github.com/eventpulse/client/internal/config"
)

func TestPublicResolverJoinsBaseURL(t *testing.T) {
	r, err := New(context.Background(), config.MediaConfig{PublicBaseURL: "https://media.example.com/"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	url, err := r.Resolve(context.Background(), "/events/42.jpg")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if url != "https://media.example.com/events/42.jpg" {
		t.Fatalf("unexpected url %q", url)
	}
}

func TestPublicResolverRejectsEmptyKey(t *testing.T) {
	r, err := New(context.Background(), config.MediaConfig{PublicBaseURL: "https://media.example.com"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := r.Resolve(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestPassthroughWhenUnconfigured(t *testing.T) {
	r, err := New(context.Background(), config.MediaConfig{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	url, err := r.Resolve(context.Background(), "events/42.jpg")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if url != "events/42.jpg" {
		t.Fatalf("unexpected url %q", url)
	}
}
