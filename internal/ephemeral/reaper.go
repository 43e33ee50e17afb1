package ephemeral

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var deletionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cinebot_ephemeral_deletions_total",
	Help: "Scheduled message deletions by result.",
}, []string{"result"})

// Deleter removes a sent message.
type Deleter interface {
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

// Handle identifies a message scheduled for deletion.
type Handle struct {
	ChatID    int64
	MessageID int
	Deadline  time.Time
}

// Reaper deletes messages once their lifetime ends. Failures are logged and
// otherwise ignored.
type Reaper struct {
	scheduler *Scheduler
	deleter   Deleter
	logger    *slog.Logger
	timeout   time.Duration
}

func NewReaper(log *slog.Logger, scheduler *Scheduler, deleter Deleter) *Reaper {
	if log == nil {
		log = slog.Default()
	}
	return &Reaper{
		scheduler: scheduler,
		deleter:   deleter,
		logger:    log.With(slog.String("component", "reaper")),
		timeout:   15 * time.Second,
	}
}

// ScheduleDeletion deletes the message after delay. Scheduling the same
// message again replaces the earlier deadline.
func (r *Reaper) ScheduleDeletion(chatID int64, messageID int, delay time.Duration) Handle {
	deadline := r.scheduler.Schedule(DeletionKey(chatID, messageID), delay, func(ctx context.Context) {
		r.delete(ctx, chatID, messageID)
	})
	return Handle{ChatID: chatID, MessageID: messageID, Deadline: deadline}
}

// Cancel keeps the message.
func (r *Reaper) Cancel(chatID int64, messageID int) bool {
	return r.scheduler.Cancel(DeletionKey(chatID, messageID))
}

func (r *Reaper) delete(ctx context.Context, chatID int64, messageID int) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.deleter.DeleteMessage(ctx, chatID, messageID); err != nil {
		deletionsTotal.WithLabelValues("error").Inc()
		r.logger.Warn("delete message failed",
			slog.Int64("chat_id", chatID),
			slog.Int("message_id", messageID),
			slog.Any("error", err),
		)
		return
	}
	deletionsTotal.WithLabelValues("ok").Inc()
}

// DeletionKey is the scheduler key of a message deletion.
func DeletionKey(chatID int64, messageID int) string {
	return fmt.Sprintf("del:%d:%d", chatID, messageID)
}
