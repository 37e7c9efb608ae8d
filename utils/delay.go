package utils

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Pacer holds back page loads so the source site is not hammered. Wait blocks
// until the next page may start; Done marks the end of a page and restarts the
// full interval from that moment. The first Wait returns immediately.
type Pacer struct {
	mu      sync.Mutex
	every   time.Duration
	limiter *rate.Limiter
}

func NewPacer(every time.Duration) *Pacer {
	if every <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Pacer{every: every, limiter: rate.NewLimiter(rate.Every(every), 1)}
}

func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	limiter := p.limiter
	p.mu.Unlock()
	return limiter.Wait(ctx)
}

// Done starts the delay before the next page. A page that renders slower than
// the interval still leaves the full gap after it.
func (p *Pacer) Done() {
	if p.every <= 0 {
		return
	}
	now := time.Now()
	limiter := rate.NewLimiter(rate.Every(p.every), 1)
	limiter.ReserveN(now, 1)

	p.mu.Lock()
	p.limiter = limiter
	p.mu.Unlock()
}
