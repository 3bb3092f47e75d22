package lock

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	got := Normalize([]string{"b", "", "a", "b", "c"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestKeyedMutex_SerialisesSameKey(t *testing.T) {
	t.Parallel()

	m := NewKeyedMutex()
	var active, maxActive int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := m.Acquire(context.Background(), CampsiteKey("C1"))
			if err != nil {
				t.Errorf("expected acquire to succeed, got %v", err)
				return
			}
			n := atomic.AddInt32(&active, 1)
			for {
				prev := atomic.LoadInt32(&maxActive)
				if n <= prev || atomic.CompareAndSwapInt32(&maxActive, prev, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
			release()
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Fatalf("expected at most one holder, got %d", maxActive)
	}
	if m.held() != 0 {
		t.Fatalf("expected all slots to be discarded, got %d", m.held())
	}
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	t.Parallel()

	m := NewKeyedMutex()
	releaseA, err := m.Acquire(context.Background(), "a")
	if err != nil {
		t.Fatalf("expected acquire to succeed, got %v", err)
	}
	defer releaseA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	releaseB, err := m.Acquire(ctx, "b")
	if err != nil {
		t.Fatalf("expected independent key to be available, got %v", err)
	}
	releaseB()
}

func TestKeyedMutex_ContextCancellation(t *testing.T) {
	t.Parallel()

	m := NewKeyedMutex()
	release, err := m.Acquire(context.Background(), "a")
	if err != nil {
		t.Fatalf("expected acquire to succeed, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := m.Acquire(ctx, "b", "a"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	// "b" must have been released when "a" could not be obtained.
	releaseB, err := m.Acquire(context.Background(), "b")
	if err != nil {
		t.Fatalf("expected b to be free, got %v", err)
	}
	releaseB()

	release()
	release()
	if m.held() != 0 {
		t.Fatalf("expected no live slots, got %d", m.held())
	}
}

func TestKeyedMutex_OppositeOrderDoesNotDeadlock(t *testing.T) {
	t.Parallel()

	m := NewKeyedMutex()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			release, err := m.Acquire(ctx, "x", "y")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			release()
		}()
		go func() {
			defer wg.Done()
			release, err := m.Acquire(ctx, "y", "x")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			release()
		}()
	}
	wg.Wait()
}

func TestRedisLocker(t *testing.T) {
	addr := os.Getenv("CAMPGROUND_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CAMPGROUND_TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	locker := NewRedisLocker(client, RedisLockerOptions{Prefix: "campground:test:", TTL: 5 * time.Second})
	release, err := locker.Acquire(context.Background(), "a", "b")
	if err != nil {
		t.Fatalf("expected acquire to succeed, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := locker.Acquire(ctx, "b"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected contended lease to time out, got %v", err)
	}

	release()
	again, err := locker.Acquire(context.Background(), "b")
	if err != nil {
		t.Fatalf("expected released lease to be available, got %v", err)
	}
	again()
}

func TestWithWait(t *testing.T) {
	t.Parallel()

	inner := NewKeyedMutex()
	bounded := WithWait(inner, 30*time.Millisecond)

	release, err := bounded.Acquire(context.Background(), "campsite:1")
	if err != nil {
		t.Fatalf("expected acquire to succeed, got %v", err)
	}

	start := time.Now()
	if _, err := bounded.Acquire(context.Background(), "campsite:1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected bounded wait to expire, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("expected wait to be bounded, took %s", elapsed)
	}

	release()
	again, err := bounded.Acquire(context.Background(), "campsite:1")
	if err != nil {
		t.Fatalf("expected key to be free after release, got %v", err)
	}
	again()

	if WithWait(inner, 0) != Locker(inner) {
		t.Fatalf("expected zero wait to return the locker unchanged")
	}
}
