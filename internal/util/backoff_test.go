package util

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBackoff_DoublesUpToCeiling(t *testing.T) {
	b := NewBackoff(time.Second, 32*time.Second)

	want := []time.Duration{1, 2, 4, 8, 16, 32, 32, 32}
	for i, w := range want {
		if got := b.Next(); got != w*time.Second {
			t.Errorf("Next() call %d = %v, want %v", i+1, got, w*time.Second)
		}
	}
}

func TestBackoff_Reset(t *testing.T) {
	b := NewBackoff(time.Second, 32*time.Second)
	b.Next()
	b.Next()
	b.Next()

	b.Reset()
	if b.Current() != time.Second {
		t.Errorf("Current() after Reset = %v, want 1s", b.Current())
	}
	if got := b.Next(); got != time.Second {
		t.Errorf("Next() after Reset = %v, want 1s", got)
	}
	if got := b.Next(); got != 2*time.Second {
		t.Errorf("second Next() after Reset = %v, want 2s", got)
	}
}

func TestBackoff_MaxBelowInitial(t *testing.T) {
	b := NewBackoff(5*time.Second, time.Second)
	for i := 0; i < 3; i++ {
		if got := b.Next(); got != 5*time.Second {
			t.Errorf("Next() = %v, want 5s", got)
		}
	}
}

func TestSleep_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, time.Minute)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Sleep did not return promptly after cancellation")
	}
}

func TestSleep_Elapses(t *testing.T) {
	start := time.Now()
	if err := Sleep(context.Background(), 20*time.Millisecond); err != nil {
		t.Fatalf("Sleep() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Errorf("Expected at least ~20ms, got %v", elapsed)
	}
}
