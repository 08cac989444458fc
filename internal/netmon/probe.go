package netmon

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/notablehq/notesync/internal/logger"
)

// ProbeConfig configures the HTTP connectivity probe.
type ProbeConfig struct {
	// BaseURL is the sync server endpoint; the probe requests
	// BaseURL + ProbePath.
	BaseURL string

	// ProbePath defaults to "/healthz".
	ProbePath string

	// Interval between probes. Defaults to 30s.
	Interval time.Duration

	// Timeout per probe request. Defaults to 5s.
	Timeout time.Duration
}

// Probe is a Monitor that derives reachability from periodic HTTP requests
// against the sync server's health endpoint. It starts idle; call Start to
// begin probing and Stop before discarding it.
type Probe struct {
	client   *resty.Client
	path     string
	interval time.Duration
	logger   *logger.Logger

	online atomic.Bool
	subs   *subscriberSet

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewProbe(cfg ProbeConfig, log *logger.Logger) *Probe {
	if cfg.ProbePath == "" {
		cfg.ProbePath = "/healthz"
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	p := &Probe{
		client: resty.New().
			SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
			SetTimeout(cfg.Timeout),
		path:     cfg.ProbePath,
		interval: cfg.Interval,
		logger:   log,
		subs:     newSubscriberSet(),
	}
	// Assume online until the first probe says otherwise, so a freshly
	// started engine does not hold back its initial sync.
	p.online.Store(true)

	return p
}

func (p *Probe) Online() bool {
	return p.online.Load()
}

func (p *Probe) Subscribe(fn func(online bool)) func() {
	return p.subs.add(fn)
}

// Start launches the probe loop. It stops any previously running loop first,
// so calling Start twice is safe.
func (p *Probe) Start(ctx context.Context) {
	p.Stop()

	p.mu.Lock()
	probeCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		t := time.NewTicker(p.interval)
		defer t.Stop()

		p.check(probeCtx)
		for {
			select {
			case <-probeCtx.Done():
				return
			case <-t.C:
				p.check(probeCtx)
			}
		}
	}()
}

// Stop cancels the probe loop and blocks until it has exited. Safe to call
// when the probe is not running.
func (p *Probe) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
}

func (p *Probe) check(ctx context.Context) {
	resp, err := p.client.R().SetContext(ctx).Head(p.path)
	online := err == nil && resp.StatusCode() < http.StatusInternalServerError

	if p.online.Swap(online) == online {
		return
	}

	p.logger.Info().
		Str("func", "Probe.check").
		Bool("online", online).
		Msg("network state transition")
	p.subs.notify(online)
}
