package notification

import (
	"context"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/colisselect-api/pkg/errors"
	"github.com/noah-isme/colisselect-api/pkg/jobs"
)

// DispatcherConfig sizes the delivery worker pool. Timeout bounds a single send.
type DispatcherConfig struct {
	Workers int
	Buffer  int
	Timeout time.Duration
}

// Dispatcher hands notifications to background workers. Failures are logged and counted, never returned.
type Dispatcher struct {
	queue    *jobs.Queue[Notification]
	sender   Sender
	recorder Recorder
	logger   *zap.Logger
}

// NewDispatcher builds a dispatcher. Call Start before Notify.
func NewDispatcher(sender Sender, recorder Recorder, cfg DispatcherConfig, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{sender: sender, recorder: recorder, logger: logger}
	d.queue = jobs.New(d.deliver, jobs.Config[Notification]{
		Name:       "notifications",
		Workers:    cfg.Workers,
		BufferSize: cfg.Buffer,
		Timeout:    cfg.Timeout,
		OnError:    d.failed,
		Logger:     logger,
	})
	return d
}

// Start launches the workers.
func (d *Dispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop delivers what is already queued, then closes the sender.
func (d *Dispatcher) Stop() {
	d.queue.Stop()
	if err := d.sender.Close(); err != nil {
		d.logger.Warn("close notification sender", zap.Error(err))
	}
}

// Notify enqueues n without blocking. A full or stopped queue drops the notification.
func (d *Dispatcher) Notify(_ context.Context, n Notification) {
	err := d.queue.Submit(jobs.Job[Notification]{ID: n.ID, Payload: n})
	if err == nil {
		return
	}
	d.record(ResultDropped)
	d.logger.Warn("notification dropped",
		zap.String("notification_id", n.ID),
		zap.Int64("shipment_id", n.ShipmentID),
		zap.Error(appErrors.Wrap(err, appErrors.ErrNotificationFailed.Code, appErrors.ErrNotificationFailed.Status, "enqueue notification")),
	)
}

func (d *Dispatcher) deliver(ctx context.Context, job jobs.Job[Notification]) error {
	if err := d.sender.Send(ctx, job.Payload); err != nil {
		return err
	}
	d.record(ResultDelivered)
	return nil
}

func (d *Dispatcher) failed(job jobs.Job[Notification], err error) {
	d.record(ResultFailed)
	d.logger.Warn("notification delivery failed",
		zap.String("notification_id", job.ID),
		zap.Int64("shipment_id", job.Payload.ShipmentID),
		zap.Error(appErrors.Wrap(err, appErrors.ErrNotificationFailed.Code, appErrors.ErrNotificationFailed.Status, "deliver notification")),
	)
}

func (d *Dispatcher) record(result string) {
	if d.recorder != nil {
		d.recorder.RecordNotification(result)
	}
}
