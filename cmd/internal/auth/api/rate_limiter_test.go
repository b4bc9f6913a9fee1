package authapi

import (
	"testing"
	"time"
)

func TestLoginLimiter_BlocksAtLimit(t *testing.T) {
	t.Parallel()

	l := newLoginLimiter(3, time.Minute)
	now := time.Now()

	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1", now) {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if l.Allow("10.0.0.1", now) {
		t.Fatal("attempt over limit should be blocked")
	}

	// Another address has its own window.
	if !l.Allow("10.0.0.2", now) {
		t.Fatal("different address must not share the window")
	}
}

func TestLoginLimiter_WindowSlides(t *testing.T) {
	t.Parallel()

	l := newLoginLimiter(2, time.Minute)
	now := time.Now()

	if !l.Allow("10.0.0.1", now) || !l.Allow("10.0.0.1", now) {
		t.Fatal("first two attempts should be allowed")
	}
	if l.Allow("10.0.0.1", now.Add(30*time.Second)) {
		t.Fatal("third attempt inside the window should be blocked")
	}
	if !l.Allow("10.0.0.1", now.Add(time.Minute+time.Second)) {
		t.Fatal("attempt after the window should be allowed")
	}
}

func TestLoginLimiter_SweepDropsIdleClients(t *testing.T) {
	t.Parallel()

	l := newLoginLimiter(2, time.Minute)
	now := time.Now()

	l.Allow("10.0.0.1", now)
	l.Allow("10.0.0.2", now)

	// Two windows later both entries are idle; any call triggers a sweep.
	l.Allow("10.0.0.3", now.Add(3*time.Minute))

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.clients["10.0.0.1"]; ok {
		t.Fatal("idle client should have been swept")
	}
	if _, ok := l.clients["10.0.0.3"]; !ok {
		t.Fatal("active client must survive the sweep")
	}
}
