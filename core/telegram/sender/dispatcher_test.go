package sender

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"
)

func TestDispatcherKeepsPerKeyOrder(t *testing.T) {
	d := NewDispatcher(Options{Workers: 4, QueueSize: 8, Timeout: time.Second})

	var (
		mu  sync.Mutex
		got = map[int64][]int{}
	)
	for i := 0; i < 50; i++ {
		for _, key := range []int64{1, 2, 3} {
			i, key := i, key
			err := d.Submit(context.Background(), key, "order", func(context.Context) error {
				mu.Lock()
				got[key] = append(got[key], i)
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Fatalf("submit: %v", err)
			}
		}
	}
	d.Close()

	for key, seq := range got {
		if len(seq) != 50 {
			t.Fatalf("key %d ran %d jobs", key, len(seq))
		}
		for i := range seq {
			if seq[i] != i {
				t.Fatalf("key %d out of order at %d: %v", key, i, seq)
			}
		}
	}
}

func TestDispatcherDeadlineAndErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, Timeout: 20 * time.Millisecond})
	done := make(chan error, 1)
	_ = d.Submit(context.Background(), 7, "slow", func(ctx context.Context) error {
		<-ctx.Done()
		done <- ctx.Err()
		return ctx.Err()
	})
	_ = d.Submit(context.Background(), 7, "panics", func(context.Context) error {
		panic("boom")
	})
	d.Close()

	if err := <-done; !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}
	if n := d.ErrorCount(); n != 2 {
		t.Fatalf("error count = %d, want 2", n)
	}
	if err := d.Submit(context.Background(), 7, "late", func(context.Context) error { return nil }); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}

type deniedErr struct{}

func (deniedErr) Error() string   { return "denied" }
func (deniedErr) Outcome() string { return "denied" }

func TestDispatcherHandledErrorsAreNotFailures(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	_ = d.Submit(context.Background(), 1, "denied", func(context.Context) error {
		return fmt.Errorf("wrapped: %w", deniedErr{})
	})
	_ = d.Submit(context.Background(), 1, "broken", func(context.Context) error {
		return errors.New("broken")
	})
	d.Close()
	if n := d.ErrorCount(); n != 1 {
		t.Fatalf("error count = %d, want 1", n)
	}
}

func TestTrySubmitReportsFullQueue(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1, Timeout: time.Second})
	release := make(chan struct{})
	started := make(chan struct{})
	_ = d.Submit(context.Background(), 1, "block", func(context.Context) error {
		close(started)
		<-release
		return nil
	})
	<-started
	if err := d.TrySubmit(context.Background(), 1, "fill", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if err := d.TrySubmit(context.Background(), 1, "overflow", func(context.Context) error { return nil }); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	close(release)
	d.Close()
}

func TestClassifyError(t *testing.T) {
	cases := map[string]error{
		"timeout": context.DeadlineExceeded,
		"dial":    &net.OpError{Op: "dial", Err: errors.New("refused")},
		"dns":     &net.DNSError{Err: "no such host", Name: "api.telegram.org"},
		"unknown": errors.New("odd"),
	}
	for want, err := range cases {
		if got := ClassifyError(err); got != want {
			t.Fatalf("ClassifyError(%v) = %s, want %s", err, got, want)
		}
	}
}

func TestSanitizeError(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123:ABC-def/sendMessage": EOF`)
	if got := SanitizeError(err); got != `Post "https://api.telegram.org/bot<redacted>/sendMessage": EOF` {
		t.Fatalf("SanitizeError = %s", got)
	}
}
