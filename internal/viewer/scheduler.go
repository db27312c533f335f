package viewer

import (
	"context"
	"sync"
	"time"
)

// Subscription is a registered periodic callback.
type Subscription interface {
	Cancel()
}

// Scheduler runs callbacks on a fixed interval.
type Scheduler interface {
	Every(interval time.Duration, fn func()) Subscription
}

type cancelFunc func()

func (f cancelFunc) Cancel() { f() }

// TickerScheduler runs every subscription on its own goroutine driven by a
// time.Ticker. All subscriptions end when the parent context does.
type TickerScheduler struct {
	ctx context.Context
	wg  sync.WaitGroup
}

func NewTickerScheduler(ctx context.Context) *TickerScheduler {
	return &TickerScheduler{ctx: ctx}
}

// Every starts calling fn each interval until the subscription is cancelled.
// A slow fn delays its own next tick; ticks are not queued.
func (s *TickerScheduler) Every(interval time.Duration, fn func()) Subscription {
	ctx, cancel := context.WithCancel(s.ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	return cancelFunc(cancel)
}

// Wait blocks until every subscription goroutine has returned.
func (s *TickerScheduler) Wait() {
	s.wg.Wait()
}
