package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/memohai/cinebot/internal/channel"
)

// broadcastState is an admin's open /post session.
type broadcastState struct {
	ChatID  int64
	Posted  int
	Started time.Time
}

func broadcastKey(adminID int64) string {
	return "broadcast:" + strconv.FormatInt(adminID, 10)
}

func (b *Bot) broadcasting(adminID int64) bool {
	_, ok := b.broadcast.Get(adminID)
	return ok
}

// inBroadcast reports whether ev belongs to an open session: same admin,
// same chat.
func (b *Bot) inBroadcast(ev channel.Event) bool {
	st, ok := b.broadcast.Get(ev.Sender.UserID)
	return ok && st.ChatID == ev.Conversation.ChatID
}

func (b *Bot) handlePost(ctx context.Context, ev channel.Event) {
	admin := ev.Sender.UserID
	chatID := ev.Conversation.ChatID
	if b.settings.UpdatesChannelID == 0 {
		b.reply(ctx, chatID, textNoUpdatesChannel, nil)
		return
	}
	if b.uploads.Active(admin) {
		b.reply(ctx, chatID, textUploadActive, nil)
		return
	}
	b.broadcast.Put(admin, broadcastState{ChatID: chatID, Started: b.now()})
	b.scheduler.Schedule(broadcastKey(admin), b.settings.BroadcastIdle, func(ctx context.Context) {
		b.expireBroadcast(ctx, admin)
	})
	b.logger.Info("broadcast mode on", slog.Int64("admin_id", admin))
	b.reply(ctx, chatID, fmt.Sprintf(broadcastOnTemplate, humanDuration(b.settings.BroadcastIdle)), nil)
}

func (b *Bot) handleDone(ctx context.Context, ev channel.Event) {
	admin := ev.Sender.UserID
	st, ok := b.broadcast.Get(admin)
	if !ok || !b.broadcast.Delete(admin) {
		b.reply(ctx, ev.Conversation.ChatID, textNotBroadcasting, nil)
		return
	}
	b.scheduler.Cancel(broadcastKey(admin))
	b.logger.Info("broadcast mode off", slog.Int64("admin_id", admin), slog.Int("posted", st.Posted))
	b.reply(ctx, ev.Conversation.ChatID, fmt.Sprintf(broadcastOffTemplate, st.Posted), nil)
}

// relayBroadcast copies one admin message to the updates channel and restarts
// the idle timer.
func (b *Bot) relayBroadcast(ctx context.Context, ev channel.Event) {
	admin := ev.Sender.UserID
	_, err := b.transport.CopyMessage(ctx, b.settings.UpdatesChannelID, ev.Conversation.ChatID, ev.MessageID)
	if err != nil {
		broadcastPostsTotal.WithLabelValues("error").Inc()
		b.logger.Warn("broadcast copy failed", slog.Int64("admin_id", admin), slog.Any("error", err))
		b.reply(ctx, ev.Conversation.ChatID, textBroadcastFailed, nil)
	} else {
		broadcastPostsTotal.WithLabelValues("ok").Inc()
		b.broadcast.Update(admin, func(st broadcastState, ok bool) (broadcastState, bool) {
			if ok {
				st.Posted++
			}
			return st, ok
		})
	}
	b.scheduler.CancelAndReschedule(broadcastKey(admin), b.settings.BroadcastIdle)
}

func (b *Bot) expireBroadcast(ctx context.Context, admin int64) {
	st, ok := b.broadcast.Get(admin)
	if !ok || !b.broadcast.Delete(admin) {
		return
	}
	b.logger.Info("broadcast mode expired", slog.Int64("admin_id", admin), slog.Int("posted", st.Posted))
	b.reply(ctx, st.ChatID, textBroadcastExpired, nil)
}
