package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/aura-booking/backend/config"
	"github.com/aura-booking/backend/internal/appointments"
	"github.com/aura-booking/backend/internal/messaging"
	"github.com/aura-booking/backend/internal/models"
	"github.com/aura-booking/backend/internal/organizations"
	"github.com/aura-booking/backend/pkg/queue"
)

const reminderBatchSize = 100

// Worker consumes notification jobs and scans for due reminders.
type Worker struct {
	queue        *queue.Queue
	appointments *appointments.Repository
	messages     *messaging.Repository
	orgs         *organizations.Repository
	sender       messaging.Sender
	cfg          config.RemindersConfig
	logger       *zap.Logger
}

// New creates a worker.
func New(q *queue.Queue, appts *appointments.Repository, msgs *messaging.Repository,
	orgs *organizations.Repository, sender messaging.Sender, cfg config.RemindersConfig, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{queue: q, appointments: appts, messages: msgs, orgs: orgs,
		sender: sender, cfg: cfg, logger: logger}
}

// Run starts the dispatch and scan loops and blocks until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	go w.scanLoop(ctx)
	w.dispatchLoop(ctx)
}

func (w *Worker) dispatchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error("dequeue failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}
		if err := w.handleJob(ctx, job); err != nil {
			w.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if err := w.queue.Retry(ctx, job); err != nil {
				w.logger.Error("retry failed", zap.String("job_id", job.ID), zap.Error(err))
			}
		}
	}
}

func (w *Worker) handleJob(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeMessage:
		var payload queue.MessagePayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			// Unparseable payloads would fail forever; drop instead of retrying.
			w.logger.Error("dropping malformed message job", zap.String("job_id", job.ID), zap.Error(err))
			return nil
		}
		return w.sendMessage(ctx, payload)
	}
	w.logger.Warn("dropping job of unknown type", zap.String("type", string(job.Type)))
	return nil
}

// sendMessage resolves the channel from the customer's preference and the
// organization's settings, records a log row, and hands the message to the
// provider. Provider rejections mark the log failed and do not retry: the
// number or address is unlikely to get better on its own.
func (w *Worker) sendMessage(ctx context.Context, payload queue.MessagePayload) error {
	d, err := w.appointments.GetDetail(ctx, payload.OrganizationID, payload.AppointmentID)
	if err != nil {
		return err
	}

	if payload.MessageType == models.MessageTypeReminder {
		sent, err := w.messages.ReminderAlreadySent(ctx, d.ID)
		if err != nil {
			return err
		}
		if sent {
			return nil
		}
	}

	settings, err := w.orgs.GetSettings(ctx, payload.OrganizationID)
	if err != nil {
		return err
	}
	channel, recipient := ResolveChannel(d.CustomerChannel, d.CustomerPhone, d.CustomerEmail, settings)
	if channel == models.ChannelNone {
		w.logger.Info("no usable channel, skipping message",
			zap.String("appointment_id", d.ID.String()),
			zap.String("message_type", payload.MessageType))
		return nil
	}

	data := messaging.TemplateData{
		OrganizationName: d.OrganizationName,
		CustomerName:     d.CustomerName,
		ServiceName:      d.ServiceName,
		StaffName:        d.StaffName,
		StartsAt:         d.StartsAt,
		Timezone:         d.Timezone,
		CancelReason:     d.CancelReason,
	}
	body := messaging.RenderText(payload.MessageType, data)
	subject := messaging.RenderSubject(payload.MessageType, data)

	apptID := d.ID
	log := &models.MessageLog{
		OrganizationID: d.OrganizationID,
		AppointmentID:  &apptID,
		MessageType:    payload.MessageType,
		Channel:        channel,
		Recipient:      recipient,
	}
	if err := w.messages.CreatePending(ctx, log); err != nil {
		return err
	}

	providerID, err := w.sender.Send(ctx, channel, recipient, subject, body)
	if err != nil {
		w.logger.Warn("message send failed",
			zap.String("channel", string(channel)),
			zap.String("appointment_id", d.ID.String()),
			zap.Error(err))
		return w.messages.MarkFailed(ctx, log.ID, err.Error())
	}
	return w.messages.MarkSent(ctx, log.ID, providerID)
}

// ResolveChannel picks the delivery channel: the customer's preference when
// the organization has it enabled and a recipient exists, otherwise the first
// enabled channel with a recipient, in whatsapp, sms, email order.
func ResolveChannel(preferred models.Channel, phone, email string, s *models.NotificationSettings) (models.Channel, string) {
	usable := func(ch models.Channel) (string, bool) {
		switch ch {
		case models.ChannelWhatsApp:
			return phone, s.WhatsAppEnabled && phone != ""
		case models.ChannelSMS:
			return phone, s.SMSEnabled && phone != ""
		case models.ChannelEmail:
			return email, s.EmailEnabled && email != ""
		}
		return "", false
	}

	if preferred == models.ChannelNone {
		return models.ChannelNone, ""
	}
	if recipient, ok := usable(preferred); ok {
		return preferred, recipient
	}
	for _, ch := range []models.Channel{models.ChannelWhatsApp, models.ChannelSMS, models.ChannelEmail} {
		if ch == preferred {
			continue
		}
		if recipient, ok := usable(ch); ok {
			return ch, recipient
		}
	}
	return models.ChannelNone, ""
}

// scanLoop periodically enqueues reminder jobs for appointments entering their
// lead window. The appointment is stamped before the job is queued: losing a
// reminder beats sending it twice.
func (w *Worker) scanLoop(ctx context.Context) {
	interval := time.Duration(w.cfg.ScanIntervalSec) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.scanOnce(ctx)
		}
	}
}

func (w *Worker) scanOnce(ctx context.Context) {
	due, err := w.appointments.DueForReminder(ctx, w.cfg.LeadHours, reminderBatchSize)
	if err != nil {
		w.logger.Error("reminder scan failed", zap.Error(err))
		return
	}
	for _, a := range due {
		if err := w.appointments.MarkReminderSent(ctx, a.ID); err != nil {
			w.logger.Error("failed to stamp reminder", zap.String("appointment_id", a.ID.String()), zap.Error(err))
			continue
		}
		err := w.queue.EnqueueMessage(ctx, queue.MessagePayload{
			OrganizationID: a.OrganizationID,
			AppointmentID:  a.ID,
			MessageType:    models.MessageTypeReminder,
		})
		if err != nil {
			w.logger.Error("failed to enqueue reminder", zap.String("appointment_id", a.ID.String()), zap.Error(err))
		}
	}
	if len(due) > 0 {
		w.logger.Info("reminders enqueued", zap.Int("count", len(due)))
	}
}
