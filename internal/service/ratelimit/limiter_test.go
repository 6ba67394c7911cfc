package ratelimit

import (
	"testing"
	"time"
)

func TestAllowConsumesBucket(t *testing.T) {
	l := New()

	for i := 0; i < 3; i++ {
		if !l.Allow("client", 3, 0) {
			t.Fatalf("request %d should pass", i+1)
		}
	}
	if l.Allow("client", 3, 0) {
		t.Fatalf("bucket should be empty")
	}
}

func TestAllowKeysIndependent(t *testing.T) {
	l := New()

	if !l.Allow("a", 1, 0) {
		t.Fatalf("first key should pass")
	}
	if l.Allow("a", 1, 0) {
		t.Fatalf("first key should be exhausted")
	}
	if !l.Allow("b", 1, 0) {
		t.Fatalf("second key has its own bucket")
	}
}

func TestAllowRefills(t *testing.T) {
	l := New()
	current := time.Now()
	l.now = func() time.Time { return current }

	if !l.Allow("client", 1, 2) {
		t.Fatalf("initial token should pass")
	}
	if l.Allow("client", 1, 2) {
		t.Fatalf("bucket should be empty")
	}

	current = current.Add(time.Second)
	if !l.Allow("client", 1, 2) {
		t.Fatalf("bucket should have refilled")
	}
}
