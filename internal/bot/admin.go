package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/memohai/cinebot/internal/catalog"
	"github.com/memohai/cinebot/internal/channel"
	"github.com/memohai/cinebot/internal/session"
)

type statusInfo struct {
	Total      int
	Cached     int
	Generation uint64
	LoadedAt   time.Time
	LastTitle  string
	LastUpload time.Time
	Now        time.Time
}

func (b *Bot) handleAddMovie(ctx context.Context, ev channel.Event) {
	if b.broadcasting(ev.Sender.UserID) {
		b.reply(ctx, ev.Conversation.ChatID, textBroadcastActive, nil)
		return
	}
	b.uploads.Begin(ev.Sender.UserID)
	b.reply(ctx, ev.Conversation.ChatID, textAddMovieStart, nil)
}

func (b *Bot) handleCancel(ctx context.Context, ev channel.Event) {
	if b.uploads.Cancel(ev.Sender.UserID) {
		b.reply(ctx, ev.Conversation.ChatID, textCancelled, nil)
		return
	}
	b.reply(ctx, ev.Conversation.ChatID, textNothingToCancel, nil)
}

// handleUpload collects the poster and variant files of an open upload and
// saves the entry once all four have arrived.
func (b *Bot) handleUpload(ctx context.Context, ev channel.Event) {
	admin := ev.Sender.UserID
	chatID := ev.Conversation.ChatID

	var err error
	switch ev.Kind {
	case channel.EventPhoto:
		if err = b.uploads.SetPoster(admin, ev.FileRef); err == nil {
			b.replyEphemeral(ctx, chatID, textPosterReceived)
		}
	case channel.EventDocument:
		var n int
		n, err = b.uploads.AddVariant(admin, session.Artifact{Ref: ev.FileRef, Filename: ev.FileName})
		if err == nil {
			b.replyEphemeral(ctx, chatID, fmt.Sprintf(uploadAckTemplate, n, html.EscapeString(ev.FileName)))
		}
	}
	switch {
	case errors.Is(err, session.ErrNoSession):
		b.reply(ctx, chatID, textAddMovieFirst, nil)
		return
	case errors.Is(err, session.ErrSessionFull):
		b.reply(ctx, chatID, textUploadFull, nil)
		return
	}
	b.reaper.ScheduleDeletion(chatID, ev.MessageID, b.settings.AckDeleteAfter)

	up, ok := b.uploads.TakeComplete(admin)
	if !ok {
		return
	}
	b.saveUpload(ctx, chatID, admin, up)
}

func (b *Bot) saveUpload(ctx context.Context, chatID, admin int64, up session.Upload) {
	title := up.Title()
	if title == "" {
		b.reply(ctx, chatID, textNoTitle, nil)
		return
	}
	entry, err := b.catalog.Add(ctx, title, up.Poster, up.Assign())
	switch {
	case err == nil:
		b.logger.Info("upload saved", slog.Int64("admin_id", admin), slog.String("key", entry.Key))
		b.reply(ctx, chatID, fmt.Sprintf(savedTemplate, escapeTitle(entry.Key)), nil)
	case errors.Is(err, catalog.ErrDuplicate):
		b.reply(ctx, chatID, fmt.Sprintf(duplicateTemplate, escapeTitle(title)), nil)
	case errors.Is(err, catalog.ErrEmptyKey):
		b.reply(ctx, chatID, textNoTitle, nil)
	default:
		b.logger.Error("save upload failed", slog.Int64("admin_id", admin), slog.String("title", title), slog.Any("error", err))
		b.reply(ctx, chatID, textSaveFailed, nil)
	}
}

func (b *Bot) handleEditTitle(ctx context.Context, ev channel.Event) {
	chatID := ev.Conversation.ChatID
	oldTitle, newTitle, ok := strings.Cut(ev.Args, "|")
	if !ok || strings.TrimSpace(oldTitle) == "" || strings.TrimSpace(newTitle) == "" {
		b.reply(ctx, chatID, textEditUsage, nil)
		return
	}
	oldKey, newKey, err := b.catalog.Rename(ctx, oldTitle, newTitle)
	switch {
	case err == nil:
		b.reply(ctx, chatID, fmt.Sprintf(renamedTemplate, escapeTitle(oldKey), escapeTitle(newKey)), nil)
	case errors.Is(err, catalog.ErrNotFound):
		b.reply(ctx, chatID, textRenameNotFound, nil)
	case errors.Is(err, catalog.ErrDuplicate):
		b.reply(ctx, chatID, fmt.Sprintf(duplicateTemplate, escapeTitle(newKey)), nil)
	case errors.Is(err, catalog.ErrEmptyKey):
		b.reply(ctx, chatID, textEditUsage, nil)
	default:
		b.logger.Error("rename failed", slog.String("from", oldKey), slog.String("to", newKey), slog.Any("error", err))
		b.reply(ctx, chatID, textRenameFailed, nil)
	}
}

func (b *Bot) handleDeleteMovie(ctx context.Context, ev channel.Event) {
	chatID := ev.Conversation.ChatID
	if strings.TrimSpace(ev.Args) == "" {
		b.reply(ctx, chatID, textDeleteUsage, nil)
		return
	}
	key, err := b.catalog.Delete(ctx, ev.Args)
	switch {
	case err == nil:
		b.reply(ctx, chatID, fmt.Sprintf(deletedTemplate, escapeTitle(key)), nil)
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, catalog.ErrEmptyKey):
		b.reply(ctx, chatID, textDeleteNotFound, nil)
	default:
		b.logger.Error("delete failed", slog.String("key", key), slog.Any("error", err))
		b.reply(ctx, chatID, textDeleteFailed, nil)
	}
}

func (b *Bot) handleMovieList(ctx context.Context, ev channel.Event) {
	page, err := strconv.Atoi(strings.TrimSpace(ev.Args))
	if err != nil || page < 1 {
		page = 1
	}
	text, kb := b.movieListPage(ctx, page)
	b.reply(ctx, ev.Conversation.ChatID, text, kb)
}

func (b *Bot) editMovieList(ctx context.Context, chatID int64, messageID, page int) {
	text, kb := b.movieListPage(ctx, page)
	if err := b.transport.EditText(ctx, chatID, messageID, text, kb); err != nil {
		b.logger.Warn("edit movie list failed", slog.Int64("chat_id", chatID), slog.Any("error", err))
	}
}

func (b *Bot) movieListPage(ctx context.Context, page int) (string, channel.Keyboard) {
	titles, pages, err := b.catalog.Page(ctx, page, movieListPageSize)
	if err != nil {
		b.logger.Error("load movie list failed", slog.Int("page", page), slog.Any("error", err))
		return textListFailed, nil
	}
	if len(titles) == 0 {
		return textEmptyPage, nil
	}
	var row []channel.Button
	if page > 1 {
		if btn, ok := button(movieListPrevLabel, Payload{Action: ActionPage, Page: page - 1}); ok {
			row = append(row, btn)
		}
	}
	if page < pages {
		if btn, ok := button(movieListNextLabel, Payload{Action: ActionPage, Page: page + 1}); ok {
			row = append(row, btn)
		}
	}
	var kb channel.Keyboard
	if len(row) > 0 {
		kb = channel.Keyboard{row}
	}
	return movieListText(titles, page, pages), kb
}

func (b *Bot) handleStatus(ctx context.Context, ev channel.Event) {
	stats, err := b.catalog.Stats(ctx)
	if err != nil {
		b.logger.Error("load status failed", slog.Any("error", err))
		b.reply(ctx, ev.Conversation.ChatID, textStatusFailed, nil)
		return
	}
	snap := b.catalog.Snapshot()
	b.reply(ctx, ev.Conversation.ChatID, statusText(statusInfo{
		Total:      stats.Total,
		Cached:     snap.Len(),
		Generation: snap.Generation(),
		LoadedAt:   snap.LoadedAt(),
		LastTitle:  stats.LastTitle,
		LastUpload: stats.LastUpload,
		Now:        b.now(),
	}), nil)
}

func (b *Bot) handleAdminPanel(ctx context.Context, ev channel.Event) {
	b.reply(ctx, ev.Conversation.ChatID, adminPanelText(b.admins.List()), nil)
}

func (b *Bot) handleAddAdmin(ctx context.Context, ev channel.Event) {
	chatID := ev.Conversation.ChatID
	id, ok := b.parseUserID(ctx, chatID, ev.Args, textAddAdminUsage)
	if !ok {
		return
	}
	if err := b.admins.Add(id); err != nil {
		b.reply(ctx, chatID, textAlreadyAdmin, nil)
		return
	}
	b.logger.Info("admin added", slog.Int64("by", ev.Sender.UserID), slog.Int64("admin_id", id))
	b.reply(ctx, chatID, fmt.Sprintf(addedAdminTemplate, id), nil)
}

func (b *Bot) handleRemoveAdmin(ctx context.Context, ev channel.Event) {
	chatID := ev.Conversation.ChatID
	id, ok := b.parseUserID(ctx, chatID, ev.Args, textRemoveAdminUsage)
	if !ok {
		return
	}
	switch err := b.admins.Remove(id); {
	case err == nil:
		b.logger.Info("admin removed", slog.Int64("by", ev.Sender.UserID), slog.Int64("admin_id", id))
		b.reply(ctx, chatID, fmt.Sprintf(removedAdminTemplate, id), nil)
	case errors.Is(err, ErrLastAdmin):
		b.reply(ctx, chatID, textLastAdmin, nil)
	default:
		b.reply(ctx, chatID, textNotAdmin, nil)
	}
}

func (b *Bot) parseUserID(ctx context.Context, chatID int64, args, usage string) (int64, bool) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		b.reply(ctx, chatID, usage, nil)
		return 0, false
	}
	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil || id <= 0 {
		b.reply(ctx, chatID, textInvalidUserID, nil)
		return 0, false
	}
	return id, true
}

func (b *Bot) handleRestart(ctx context.Context, ev channel.Event) {
	b.reply(ctx, ev.Conversation.ChatID, textRestarting, nil)
	b.logger.Warn("restart requested", slog.Int64("by", ev.Sender.UserID))
	if b.restart != nil {
		b.restart()
	}
}
