// Package board is the client side of the public display. It polls the
// summary endpoint and renders it to a terminal.
package board

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/educacao-adventista/matriculometro/internal/progress"
)

// maxInFlight bounds concurrent fetches when the server is slower than the
// poll interval. Ticks are skipped while the limit is reached.
const maxInFlight = 2

type Poller struct {
	client   *http.Client
	url      string
	interval time.Duration
	onUpdate func(progress.Summary)

	mu      sync.Mutex
	nextSeq uint64
	applied uint64
}

// NewPoller polls baseURL + "/goals/summary" every interval and calls
// onUpdate with each summary that is newer than the last one shown.
func NewPoller(baseURL string, interval time.Duration, onUpdate func(progress.Summary)) *Poller {
	return &Poller{
		client:   &http.Client{Timeout: 30 * time.Second},
		url:      strings.TrimRight(baseURL, "/") + "/goals/summary",
		interval: interval,
		onUpdate: onUpdate,
	}
}

// Run polls until ctx is cancelled. In-flight requests are cancelled with
// ctx and Run returns after they finish.
func (p *Poller) Run(ctx context.Context) error {
	var g errgroup.Group
	g.SetLimit(maxInFlight)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx, &g)
	for {
		select {
		case <-ctx.Done():
			_ = g.Wait()
			return ctx.Err()
		case <-ticker.C:
			p.poll(ctx, &g)
		}
	}
}

func (p *Poller) poll(ctx context.Context, g *errgroup.Group) {
	seq := p.sequence()
	started := g.TryGo(func() error {
		summary, err := p.Fetch(ctx)
		if err != nil {
			if ctx.Err() == nil {
				slog.Warn("failed to fetch summary", "seq", seq, "error", err)
			}
			return nil
		}
		p.apply(seq, summary)
		return nil
	})
	if !started {
		slog.Debug("poll skipped, previous requests still running", "seq", seq)
	}
}

// sequence hands out the number of the next request.
func (p *Poller) sequence() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextSeq++
	return p.nextSeq
}

// apply shows summary unless a later request has already been shown.
func (p *Poller) apply(seq uint64, summary progress.Summary) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if seq <= p.applied {
		slog.Debug("dropped stale summary", "seq", seq, "applied", p.applied)
		return false
	}
	p.applied = seq
	p.onUpdate(summary)
	return true
}

// Fetch requests the current summary once.
func (p *Poller) Fetch(ctx context.Context) (progress.Summary, error) {
	var summary progress.Summary

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return summary, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return summary, fmt.Errorf("failed to fetch %s: %w", p.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return summary, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	err = json.NewDecoder(resp.Body).Decode(&summary)
	if err != nil {
		return summary, fmt.Errorf("failed to decode summary: %w", err)
	}

	return summary, nil
}
