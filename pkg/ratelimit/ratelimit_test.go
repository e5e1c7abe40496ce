package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAllowPermitsUpToMaxWithinWindow(t *testing.T) {
	l := New(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if !l.Allow(ctx, "client-1") {
			t.Fatalf("expected call %d to be allowed", i+1)
		}
	}

	if l.Allow(ctx, "client-1") {
		t.Fatal("expected the 4th call within the window to be rejected")
	}
}

func TestAllowKeysAreIndependent(t *testing.T) {
	l := New(1, time.Minute)
	ctx := context.Background()

	if !l.Allow(ctx, "client-1") {
		t.Fatal("expected the first call for client-1 to be allowed")
	}

	if !l.Allow(ctx, "client-2") {
		t.Fatal("expected client-2's window to be independent of client-1's")
	}

	if l.Allow(ctx, "client-1") {
		t.Fatal("expected client-1 to still be rate-limited")
	}
}

func TestAllowResetsAfterWindowElapses(t *testing.T) {
	l := New(1, 10*time.Millisecond)
	ctx := context.Background()

	if !l.Allow(ctx, "client-1") {
		t.Fatal("expected the first call to be allowed")
	}

	if l.Allow(ctx, "client-1") {
		t.Fatal("expected the second immediate call to be rejected")
	}

	time.Sleep(20 * time.Millisecond)

	if !l.Allow(ctx, "client-1") {
		t.Fatal("expected a new window to reset the count")
	}
}
