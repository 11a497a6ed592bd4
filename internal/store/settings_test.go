package store

import (
	"context"
	"testing"
)

func openTestSettings(t *testing.T) *Settings {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSetGetDelete(t *testing.T) {
	s := openTestSettings(t)
	ctx := context.Background()

	if v, err := s.Get(ctx, "missing"); err != nil || v != "" {
		t.Fatalf("get missing: %q, %v", v, err)
	}

	if err := s.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "k", "v2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if v, _ := s.Get(ctx, "k"); v != "v2" {
		t.Fatalf("value = %q", v)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if v, _ := s.Get(ctx, "k"); v != "" {
		t.Fatalf("value after delete = %q", v)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete absent: %v", err)
	}
}

func TestLastPrivateTargetIsPerPlayer(t *testing.T) {
	s := openTestSettings(t)
	ctx := context.Background()

	if err := s.SetLastPrivateTarget(ctx, "p1", "p9"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := s.LastPrivateTarget(ctx, "p1"); got != "p9" {
		t.Fatalf("target = %q", got)
	}
	if got, _ := s.LastPrivateTarget(ctx, "p2"); got != "" {
		t.Fatalf("other player target = %q", got)
	}
}
