package chat

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"roomchat/internal/pkg/logx"
)

// Sweeper runs Presence.ExpireInactive on a fixed period until it is stopped.
type Sweeper struct {
	presence *Presence
	interval time.Duration
	logger   zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeper returns a stopped Sweeper. A non-positive interval selects DefaultSweepInterval.
func NewSweeper(presence *Presence, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		presence: presence,
		interval: interval,
		logger:   logx.Component("sweeper"),
	}
}

// Start launches the sweep loop. It runs until Stop is called or ctx is cancelled.
// Calling Start on a running Sweeper has no effect.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx, s.done)

	s.logger.Info().Dur("interval", s.interval).Msg("Expiry sweep started.")
}

// Stop cancels the sweep loop and waits for an in-flight sweep to finish.
// It is safe to call Stop on a Sweeper that was never started.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
	s.logger.Info().Msg("Expiry sweep stopped.")
}

func (s *Sweeper) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce performs a single expiry pass and logs its outcome. Failures are logged and
// never stop later sweeps.
func (s *Sweeper) SweepOnce(ctx context.Context) []string {
	removed, err := s.presence.ExpireInactive(ctx)
	if err != nil {
		s.logger.Error().Err(err).Strs("removed", removed).Msg("Expiry sweep finished with errors.")
		return removed
	}

	if len(removed) > 0 {
		s.logger.Debug().Strs("removed", removed).Msg("Expiry sweep finished.")
	}
	return removed
}
