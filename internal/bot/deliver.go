package bot

import (
	"context"
	"errors"
	"log/slog"

	"github.com/memohai/cinebot/internal/catalog"
	"github.com/memohai/cinebot/internal/channel"
	"github.com/memohai/cinebot/internal/gate"
	"github.com/memohai/cinebot/internal/handoff"
)

// requestVariant delivers one variant of key to the requester's direct chat.
// Replies about the outcome go to originChat.
// key may be a catalog.Ref.
func (b *Bot) requestVariant(ctx context.Context, requester channel.Identity, originChat int64, key string, variant catalog.Variant) {
	entry, ok := b.catalog.Snapshot().Lookup(key)
	if !ok {
		b.reply(ctx, originChat, textNotFound, nil)
		return
	}
	key = entry.Key
	ref, ok := entry.File(variant)
	if !ok {
		b.reply(ctx, originChat, textVariantMissing, nil)
		return
	}

	if b.gate.Check(ctx, requester.UserID) == gate.Ineligible {
		deliveriesTotal.WithLabelValues("file", "gated").Inc()
		b.reply(ctx, originChat, textJoinPrompt, b.joinKeyboard(key, variant))
		return
	}

	caption := fileCaption(entry, b.settings.DeleteAfter, b.settings.UpdatesChannelURL)
	sent, err := b.transport.SendDocument(ctx, requester.UserID, ref, caption, nil)
	if err != nil {
		if errors.Is(err, channel.ErrDirectRefused) {
			deliveriesTotal.WithLabelValues("file", "refused").Inc()
			b.issueHandoff(ctx, requester.UserID, originChat, key, variant)
			return
		}
		deliveriesTotal.WithLabelValues("file", "error").Inc()
		b.logger.Warn("send file failed",
			slog.String("key", key),
			slog.String("variant", variant.String()),
			slog.Int64("user_id", requester.UserID),
			slog.Any("error", err),
		)
		b.reply(ctx, originChat, textDeliveryFailed, nil)
		return
	}

	deliveriesTotal.WithLabelValues("file", "ok").Inc()
	b.reaper.ScheduleDeletion(sent.ChatID, sent.MessageID, b.settings.DeleteAfter)
	if b.pending.Resolve(requester.UserID, key, variant) {
		handoffTotal.WithLabelValues("cleared").Inc()
	}
	if originChat != requester.UserID {
		b.reply(ctx, originChat, textSentPrivately, nil)
	}
}

// issueHandoff records a refused delivery and points the requester at the
// direct chat.
func (b *Bot) issueHandoff(ctx context.Context, userID, originChat int64, key string, variant catalog.Variant) {
	b.pending.Put(userID, handoff.Pending{CatalogKey: key, Variant: variant})
	handoffTotal.WithLabelValues("refused").Inc()

	link, embedded := handoff.StartLink(b.transport.BotUsername(), handoff.Encode(key, variant))
	kb := channel.Keyboard{{{Text: handoffOpenLabel, URL: link}}}
	if btn, ok := button(retryLabel, Payload{Action: ActionRetry, Key: key, Variant: variant}); ok {
		kb = append(kb, []channel.Button{btn})
	}
	if _, ok := b.reply(ctx, originChat, textHandoff, kb); ok {
		handoffTotal.WithLabelValues("link_issued").Inc()
	}
	b.logger.Info("delivery handed off",
		slog.Int64("user_id", userID),
		slog.String("key", key),
		slog.String("variant", variant.String()),
		slog.Bool("token_embedded", embedded),
	)
}

// resumeHandoff serves a /start token. It reports false when the token does
// not name an existing entry and variant.
func (b *Bot) resumeHandoff(ctx context.Context, ev channel.Event) bool {
	key, variant, err := handoff.Decode(ev.Args)
	if err != nil {
		b.logger.Debug("ignoring start parameter", slog.Any("error", err))
		return false
	}
	entry, ok := b.catalog.Snapshot().Lookup(key)
	if !ok {
		return false
	}
	if _, ok := entry.File(variant); !ok {
		return false
	}
	handoffTotal.WithLabelValues("resumed").Inc()
	b.requestVariant(ctx, ev.Sender, ev.Conversation.ChatID, entry.Key, variant)
	return true
}

// resumePending serves the stored handoff of a requester who opened the
// direct chat without a usable token. Entries whose title or variant is gone
// are dropped.
func (b *Bot) resumePending(ctx context.Context, ev channel.Event) bool {
	userID := ev.Sender.UserID
	if userID == 0 || ev.Conversation.ChatID != userID {
		return false
	}
	pending, ok := b.pending.Get(userID)
	if !ok {
		return false
	}
	entry, ok := b.catalog.Snapshot().Lookup(pending.CatalogKey)
	if !ok {
		b.pending.Resolve(userID, pending.CatalogKey, pending.Variant)
		return false
	}
	if _, ok := entry.File(pending.Variant); !ok {
		b.pending.Resolve(userID, pending.CatalogKey, pending.Variant)
		return false
	}
	handoffTotal.WithLabelValues("resumed").Inc()
	b.requestVariant(ctx, ev.Sender, ev.Conversation.ChatID, entry.Key, pending.Variant)
	return true
}

func (b *Bot) joinKeyboard(key string, variant catalog.Variant) channel.Keyboard {
	var kb channel.Keyboard
	if b.settings.InviteURL != "" {
		kb = append(kb, []channel.Button{{Text: joinLabel, URL: b.settings.InviteURL}})
	}
	if btn, ok := button(retryLabel, Payload{Action: ActionRetry, Key: key, Variant: variant}); ok {
		kb = append(kb, []channel.Button{btn})
	}
	return kb
}
