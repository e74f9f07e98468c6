package monitoring

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type flakyPinger struct {
	fail atomic.Bool
}

func (p *flakyPinger) Ping(context.Context) error {
	if p.fail.Load() {
		return errors.New("connection refused")
	}
	return nil
}

func TestMonitorHealth_TracksState(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pinger := &flakyPinger{}
	pinger.fail.Store(true)

	var healthy atomic.Bool
	healthy.Store(true)
	done := make(chan struct{})
	go func() {
		MonitorHealth(ctx, "valkey", pinger, 10*time.Millisecond, &healthy)
		close(done)
	}()

	assert.Eventually(t, func() bool { return !healthy.Load() }, time.Second, 5*time.Millisecond)

	pinger.fail.Store(false)
	assert.Eventually(t, healthy.Load, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop after cancel")
	}
}
