package session

import (
	"context"
	"reflect"
	"testing"
	"time"
)

func TestMemoryDismiss(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Hour)

	m.Dismiss(ctx, "s1", "c2-w1")
	m.Dismiss(ctx, "s1", "c1-w1")
	m.Dismiss(ctx, "s1", "c2-w1")
	m.Dismiss(ctx, "s2", "w1-p1")

	got, err := m.Dismissed(ctx, "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"c1-w1", "c2-w1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	got, _ = m.Dismissed(ctx, "unknown")
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty non-nil slice", got)
	}

	m.Clear(ctx, "s1")
	if got, _ := m.Dismissed(ctx, "s1"); len(got) != 0 {
		t.Errorf("got %v after clear, want none", got)
	}
	if got, _ := m.Dismissed(ctx, "s2"); len(got) != 1 {
		t.Errorf("clearing s1 affected s2: %v", got)
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(time.Hour)
	m.now = func() time.Time { return now }

	m.Dismiss(ctx, "s1", "c1-w1")

	now = now.Add(50 * time.Minute)
	m.Dismiss(ctx, "s1", "c1-p1") // slides expiry

	now = now.Add(50 * time.Minute)
	if got, _ := m.Dismissed(ctx, "s1"); len(got) != 2 {
		t.Fatalf("got %v, want both ids before expiry", got)
	}

	now = now.Add(2 * time.Hour)
	if got, _ := m.Dismissed(ctx, "s1"); len(got) != 0 {
		t.Errorf("got %v, want expired session to be empty", got)
	}
}

func TestMemoryDropsAbandonedSessions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(time.Hour)
	m.now = func() time.Time { return now }

	m.Dismiss(ctx, "s1", "c1-w1")
	m.Dismiss(ctx, "s2", "c2-w1")

	now = now.Add(30 * time.Minute)
	m.Dismiss(ctx, "s2", "c2-p1")

	now = now.Add(2 * time.Hour)
	m.Dismiss(ctx, "s3", "w1-p1")

	if _, ok := m.sessions["s1"]; ok {
		t.Error("abandoned session s1 still held")
	}
	if _, ok := m.sessions["s2"]; ok {
		t.Error("abandoned session s2 still held")
	}
	if got := len(m.sessions); got != 1 {
		t.Errorf("got %d sessions, want 1", got)
	}
}

func TestNewMemoryDefaultTTL(t *testing.T) {
	if m := NewMemory(0); m.ttl != DefaultTTL {
		t.Errorf("got ttl %v, want %v", m.ttl, DefaultTTL)
	}
}
