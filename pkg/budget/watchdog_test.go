package budget_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jihwankim/legion-fuzz/pkg/budget"
)

func TestWatchdogNoLimitNeverExpires(t *testing.T) {
	w := budget.New(0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	time.Sleep(20 * time.Millisecond)
	assert.False(t, w.Expired())
}

func TestWatchdogExpiresAfterDeadline(t *testing.T) {
	w := budget.New(10 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("watchdog did not expire in time")
	}
	assert.True(t, w.Expired())
}

func TestWatchdogOnExpireCallback(t *testing.T) {
	w := budget.New(10 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	called := make(chan string, 1)
	w.OnExpire(func(reason string) { called <- reason })
	w.Start(ctx)

	select {
	case reason := <-called:
		assert.Contains(t, reason, "budget expired")
	case <-time.After(2 * time.Second):
		t.Fatal("callback not invoked")
	}
}
