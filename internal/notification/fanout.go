package notification

import (
	"context"
	"fmt"
	"html"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/retry"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"CampusPortal/internal/auth"
	"CampusPortal/internal/config"
	"CampusPortal/internal/event"
	"CampusPortal/internal/mail"
	"CampusPortal/internal/metrics"
)

const (
	insertAttempts = 3
	relayBatchSize = 100
	mailTimeout    = 30 * time.Second
)

// RecipientDirectory resolves recipients to their e-mail addresses.
type RecipientDirectory interface {
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*auth.User, error)
}

type DispatcherConfig struct {
	// MaxAttempts is the number of deliveries, the first included, before an
	// event is marked failed.
	MaxAttempts int
	// RetryDelay separates the in-process insert retries of one delivery.
	RetryDelay time.Duration
	// PendingGrace keeps the relay away from events that were published a
	// moment ago and may still be in flight.
	PendingGrace time.Duration
	Clock        clock.Clock
}

func DispatcherConfigFrom(cfg *config.Config) DispatcherConfig {
	return DispatcherConfig{
		MaxAttempts:  cfg.RelayMaxAttempts,
		RetryDelay:   100 * time.Millisecond,
		PendingGrace: 30 * time.Second,
		Clock:        clock.WallClock,
	}
}

// Dispatcher turns domain events into notifications. It is the
// event.Publisher handed to the domain services.
type Dispatcher struct {
	events  event.Repository
	repo    Repository
	users   RecipientDirectory
	mailer  mail.Sender
	metrics *metrics.Metrics
	cfg     DispatcherConfig
	logger  *zap.Logger

	mailWG sync.WaitGroup
}

var _ event.Publisher = (*Dispatcher)(nil)

func NewDispatcher(events event.Repository, repo Repository, users RecipientDirectory, mailer mail.Sender, m *metrics.Metrics, cfg DispatcherConfig, logger *zap.Logger) *Dispatcher {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}
	return &Dispatcher{
		events:  events,
		repo:    repo,
		users:   users,
		mailer:  mailer,
		metrics: m,
		cfg:     cfg,
		logger:  logger.Named("fanout"),
	}
}

// Publish records ev in the outbox and delivers it right away. Failures are
// logged and left to the relay; they never reach the caller.
func (d *Dispatcher) Publish(ctx context.Context, ev *event.Event) {
	if ev == nil || len(ev.Recipients) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	d.metrics.EventsPublished.WithLabelValues(string(ev.Kind)).Inc()

	logger := d.logger.With(zap.String("kind", string(ev.Kind)), zap.Int("recipients", len(ev.Recipients)))
	persisted := true
	if err := d.events.Insert(ctx, ev); err != nil {
		persisted = false
		logger.Error("failed to record event in outbox", zap.Error(err))
		if ev.ID.IsZero() {
			ev.ID = primitive.NewObjectID()
		}
	}

	if err := d.deliver(ctx, ev); err != nil {
		d.metrics.FanoutFailures.WithLabelValues(string(ev.Kind)).Inc()
		logger.Warn("notification fan-out failed", zap.Stringer("event", ev.ID), zap.Error(err))
		if persisted {
			d.recordFailure(ctx, ev, err)
		}
		return
	}
	if persisted {
		if err := d.events.MarkDelivered(ctx, ev.ID); err != nil {
			logger.Error("failed to mark event delivered", zap.Stringer("event", ev.ID), zap.Error(err))
		}
	}
}

// RetryPending re-delivers outbox events that are still pending and returns
// how many were delivered.
func (d *Dispatcher) RetryPending(ctx context.Context) int {
	olderThan := d.cfg.Clock.Now().UTC().Add(-d.cfg.PendingGrace)
	pending, err := d.events.FindPending(ctx, olderThan, relayBatchSize)
	if err != nil {
		d.logger.Error("failed to load pending events", zap.Error(err))
		return 0
	}

	delivered := 0
	for _, ev := range pending {
		if ctx.Err() != nil {
			break
		}
		if err := d.deliver(ctx, ev); err != nil {
			d.metrics.FanoutFailures.WithLabelValues(string(ev.Kind)).Inc()
			d.logger.Warn("relay delivery failed", zap.Stringer("event", ev.ID), zap.Int("attempts", ev.Attempts+1), zap.Error(err))
			d.recordFailure(ctx, ev, err)
			continue
		}
		if err := d.events.MarkDelivered(ctx, ev.ID); err != nil {
			d.logger.Error("failed to mark event delivered", zap.Stringer("event", ev.ID), zap.Error(err))
			continue
		}
		delivered++
	}
	if len(pending) > 0 {
		d.logger.Info("relay pass finished", zap.Int("pending", len(pending)), zap.Int("delivered", delivered))
	}
	return delivered
}

func (d *Dispatcher) recordFailure(ctx context.Context, ev *event.Event, cause error) {
	failed := ev.Attempts+1 >= d.cfg.MaxAttempts
	if err := d.events.MarkAttempt(ctx, ev.ID, cause.Error(), failed); err != nil {
		d.logger.Error("failed to record delivery attempt", zap.Stringer("event", ev.ID), zap.Error(err))
		return
	}
	if failed {
		d.logger.Error("giving up on event", zap.Stringer("event", ev.ID), zap.String("kind", string(ev.Kind)), zap.Error(cause))
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ev *event.Event) error {
	notifications := FromEvent(ev, d.cfg.Clock.Now().UTC())
	var fresh []*Notification
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			inserted, err := d.repo.InsertMany(ctx, notifications)
			fresh = append(fresh, inserted...)
			return err
		},
		NotifyFunc: func(err error, attempt int) {
			d.logger.Debug("notification insert failed", zap.Stringer("event", ev.ID), zap.Int("attempt", attempt), zap.Error(err))
		},
		Attempts: insertAttempts,
		Delay:    d.cfg.RetryDelay,
		Clock:    d.cfg.Clock,
		Stop:     ctx.Done(),
	})
	if len(fresh) > 0 {
		d.metrics.NotificationsCreated.WithLabelValues(string(TypeFor(ev.Kind))).Add(float64(len(fresh)))
		d.mirrorToMail(ctx, ev, fresh)
	}
	if err != nil {
		return retry.LastError(err)
	}
	return nil
}

// mirrorToMail e-mails the recipients of the freshly written notifications in
// the background. Redeliveries therefore never mail anyone twice.
func (d *Dispatcher) mirrorToMail(ctx context.Context, ev *event.Event, fresh []*Notification) {
	if !d.mailer.Enabled() {
		return
	}
	recipients := make([]primitive.ObjectID, 0, len(fresh))
	for _, n := range fresh {
		recipients = append(recipients, n.Recipient)
	}
	users, err := d.users.FindByIDs(ctx, recipients)
	if err != nil {
		d.logger.Warn("failed to resolve notification recipients for mail", zap.Error(err))
		return
	}

	body := fmt.Sprintf("<p>%s</p>", html.EscapeString(ev.Message))
	for _, u := range users {
		to := u.Email
		d.mailWG.Add(1)
		go func() {
			defer d.mailWG.Done()
			mctx, cancel := context.WithTimeout(ctx, mailTimeout)
			defer cancel()
			if err := d.mailer.Send(mctx, to, ev.Title, body); err != nil {
				d.metrics.MailFailures.Inc()
				d.logger.Warn("failed to mail notification", zap.String("to", to), zap.Error(err))
			}
		}()
	}
}

// Wait blocks until background mail deliveries finish.
func (d *Dispatcher) Wait() {
	d.mailWG.Wait()
}
