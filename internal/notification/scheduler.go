package notification

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"CampusPortal/internal/config"
)

// Relay periodically re-delivers pending outbox events.
type Relay struct {
	dispatcher *Dispatcher
	interval   time.Duration
	logger     *zap.Logger
}

func NewRelay(dispatcher *Dispatcher, cfg *config.Config, logger *zap.Logger) *Relay {
	interval := cfg.RelayInterval
	if interval <= 0 {
		interval = time.Minute
	}
	return &Relay{dispatcher: dispatcher, interval: interval, logger: logger.Named("relay")}
}

// Start runs the relay for the lifetime of the application.
func (r *Relay) Start(lc fx.Lifecycle) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			r.logger.Info("starting outbox relay", zap.Duration("interval", r.interval))
			go func() {
				defer close(done)
				r.run(ctx)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			r.logger.Info("stopping outbox relay")
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
			r.dispatcher.Wait()
			return nil
		},
	})
}

func (r *Relay) run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.dispatcher.RetryPending(ctx)
		case <-ctx.Done():
			return
		}
	}
}
