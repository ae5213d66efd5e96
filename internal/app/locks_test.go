package app

import (
	"context"
	"testing"
	"time"
)

func TestAddressLocks_SerializesOneAddress(t *testing.T) {
	l := newAddressLocks()
	ctx := context.Background()

	if err := l.acquire(ctx, "0xa"); err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	got := make(chan error, 1)
	go func() { got <- l.acquire(ctx, "0xa") }()
	select {
	case <-got:
		t.Fatal("second acquire should block while the first holds")
	case <-time.After(20 * time.Millisecond):
	}

	l.release("0xa")
	select {
	case err := <-got:
		if err != nil {
			t.Fatalf("second acquire: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("second acquire never woke after release")
	}
	l.release("0xa")
}

func TestAddressLocks_EvictsIdleEntries(t *testing.T) {
	l := newAddressLocks()
	ctx := context.Background()

	for _, addr := range []string{"0xa", "0xb", "0xc"} {
		if err := l.acquire(ctx, addr); err != nil {
			t.Fatalf("acquire %s: %v", addr, err)
		}
		l.release(addr)
	}

	l.mu.Lock()
	n := len(l.entries)
	l.mu.Unlock()
	if n != 0 {
		t.Fatalf("expected empty lock table after releases, got %d entries", n)
	}
}

func TestAddressLocks_CanceledWaiterDoesNotLeak(t *testing.T) {
	l := newAddressLocks()
	if err := l.acquire(context.Background(), "0xa"); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := l.acquire(ctx, "0xa"); err == nil {
		t.Fatal("expected context error for the waiting flow")
	}

	l.release("0xa")
	l.mu.Lock()
	n := len(l.entries)
	l.mu.Unlock()
	if n != 0 {
		t.Fatalf("expected empty lock table, got %d entries", n)
	}
}
