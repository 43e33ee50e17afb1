package bot

import (
	"context"
	"log/slog"

	"github.com/memohai/cinebot/internal/catalog"
	"github.com/memohai/cinebot/internal/channel"
	"github.com/memohai/cinebot/internal/handoff"
	"github.com/memohai/cinebot/internal/match"
)

// handleQuery resolves free text against the current snapshot.
func (b *Bot) handleQuery(ctx context.Context, ev channel.Event) {
	chatID := ev.Conversation.ChatID
	query := catalog.Normalize(ev.Text)
	if query == "" {
		return
	}
	snap := b.catalog.Snapshot()
	if snap.Len() == 0 {
		b.reply(ctx, chatID, textCatalogEmpty, nil)
		return
	}

	out := b.resolve(snap, query)
	matchOutcomesTotal.WithLabelValues(out.Kind.String()).Inc()
	b.logger.Debug("query resolved",
		slog.String("query", query),
		slog.String("outcome", out.Kind.String()),
		slog.Int("candidates", len(out.Candidates)),
	)

	switch out.Kind {
	case match.Confident:
		entry, ok := snap.Get(out.Key)
		if !ok {
			b.reply(ctx, chatID, textNotFound, nil)
			return
		}
		b.sendPoster(ctx, chatID, entry)
	case match.Ambiguous, match.Suggestions:
		kb := suggestionKeyboard(out.Candidates)
		if len(kb) == 0 {
			b.reply(ctx, chatID, textNotFound, nil)
			return
		}
		b.reply(ctx, chatID, textDidYouMean, kb)
	default:
		b.reply(ctx, chatID, textNotFound, nil)
	}
}

func (b *Bot) resolve(snap *catalog.Snapshot, query string) match.Outcome {
	if out, ok := b.cache.Get(snap.Generation(), query); ok {
		return out
	}
	out := b.matcher.Match(query, snap.Keys())
	b.cache.Add(snap.Generation(), query, out)
	return out
}

func suggestionKeyboard(candidates []match.Candidate) channel.Keyboard {
	kb := make(channel.Keyboard, 0, len(candidates))
	for _, c := range candidates {
		btn, ok := button(catalog.DisplayTitle(c.Key), Payload{Action: ActionMovie, Key: c.Key})
		if !ok {
			continue
		}
		kb = append(kb, []channel.Button{btn})
	}
	return kb
}

// sendPoster shows an entry with a picker for its variants and deep links
// that open the direct chat with each variant preselected.
func (b *Bot) sendPoster(ctx context.Context, chatID int64, entry catalog.Entry) {
	links := make(map[catalog.Variant]string, len(entry.Variants))
	var row []channel.Button
	for _, v := range catalog.Variants {
		if _, ok := entry.File(v); !ok {
			continue
		}
		if link, ok := handoff.StartLink(b.transport.BotUsername(), handoff.Encode(entry.Key, v)); ok {
			links[v] = link
		}
		if btn, ok := button(v.String(), Payload{Action: ActionVariant, Key: entry.Key, Variant: v}); ok {
			row = append(row, btn)
		}
	}
	var kb channel.Keyboard
	if len(row) > 0 {
		kb = channel.Keyboard{row}
	}

	sent, err := b.transport.SendPhoto(ctx, chatID, entry.PosterRef, posterCaption(entry, links, b.settings.UpdatesChannelURL), kb)
	if err != nil {
		deliveriesTotal.WithLabelValues("poster", "error").Inc()
		b.logger.Warn("send poster failed",
			slog.String("key", entry.Key),
			slog.Int64("chat_id", chatID),
			slog.Any("error", err),
		)
		b.reply(ctx, chatID, textPosterFailed, nil)
		return
	}
	deliveriesTotal.WithLabelValues("poster", "ok").Inc()
	b.reaper.ScheduleDeletion(sent.ChatID, sent.MessageID, b.settings.DeleteAfter)
}
