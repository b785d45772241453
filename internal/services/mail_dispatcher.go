package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/motorly/backend/internal/infrastructure/mailqueue"
	"github.com/motorly/backend/pkg/mailer"
	"github.com/motorly/backend/usecase"
)

// DispatcherConfig controls how frequently the outbox is drained.
type DispatcherConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// MailDispatcher drains the persistent outbox and delivers mail over SMTP.
// Delivery is decoupled from the lifecycle operations that enqueue mail,
// so an SMTP outage never fails a signup or a reset request.
type MailDispatcher struct {
	store  *mailqueue.Store
	sender mailer.Mailer
	logger *zap.Logger
	cron   *cron.Cron
	cfg    DispatcherConfig
}

func NewMailDispatcher(store *mailqueue.Store, sender mailer.Mailer, logger *zap.Logger, cfg DispatcherConfig) *MailDispatcher {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &MailDispatcher{
		store:  store,
		sender: sender,
		logger: logger,
		cfg:    cfg,
		cron:   cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = d.cron.AddFunc(schedule, func() {
		if err := d.Drain(); err != nil {
			d.logger.Error("mail outbox drain failed", zap.Error(err))
		}
	})

	return d
}

// Start launches the cron scheduler.
func (d *MailDispatcher) Start() {
	if d == nil || d.cron == nil {
		return
	}
	d.cron.Start()
	d.logger.Info("mail dispatcher started")
}

// Stop gracefully stops the scheduler.
func (d *MailDispatcher) Stop(ctx context.Context) {
	if d == nil || d.cron == nil {
		return
	}
	stopCtx := d.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	d.logger.Info("mail dispatcher stopped")
}

// Drain delivers queued jobs synchronously, requeueing transient failures
// until the retry budget is spent.
func (d *MailDispatcher) Drain() error {
	if d == nil || d.store == nil {
		return nil
	}

	jobs, err := d.store.GetBatch(d.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		if err := d.sender.Send(job.To, job.Template, job.Params); err != nil {
			d.logger.Error("mail delivery failed",
				zap.String("job_id", job.ID),
				zap.String("template", job.Template),
				zap.Error(err))

			if err := d.store.Remove(job); err != nil {
				d.logger.Warn("failed to remove mail job", zap.Error(err))
				continue
			}
			job.Retries++
			if job.Retries >= d.cfg.MaxRetries {
				d.logger.Warn("dropping mail job (max retries reached)", zap.String("job_id", job.ID))
				continue
			}
			if err := d.store.Requeue(job); err != nil {
				d.logger.Error("failed to requeue mail job", zap.Error(err))
			}
			continue
		}

		if err := d.store.Remove(job); err != nil {
			d.logger.Warn("failed to purge delivered mail job", zap.Error(err))
		}
	}
	return nil
}

// Enqueue persists the job for the next drain. Delivery never happens on
// the caller's goroutine, so request handlers are bounded by the queue
// write only.
func (d *MailDispatcher) Enqueue(ctx context.Context, mail usecase.Mail) error {
	if d == nil || d.store == nil {
		return fmt.Errorf("mail dispatcher not configured")
	}
	return d.store.Enqueue(mailqueue.Job{
		To:       mail.To,
		Template: mail.Template,
		Params:   mail.Params,
	})
}

// Size returns the number of queued jobs.
func (d *MailDispatcher) Size() int {
	if d == nil || d.store == nil {
		return 0
	}
	size, err := d.store.Size()
	if err != nil {
		return 0
	}
	return size
}

var _ usecase.MailQueue = (*MailDispatcher)(nil)
