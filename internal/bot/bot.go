// Package bot turns inbound chat events into catalog lookups, gated
// deliveries, and the admin workflows around them.
package bot

import (
	"context"
	"log/slog"
	"time"

	"github.com/memohai/cinebot/internal/catalog"
	"github.com/memohai/cinebot/internal/channel"
	"github.com/memohai/cinebot/internal/ephemeral"
	"github.com/memohai/cinebot/internal/gate"
	"github.com/memohai/cinebot/internal/handoff"
	"github.com/memohai/cinebot/internal/match"
	"github.com/memohai/cinebot/internal/session"
)

// Catalog is the part of catalog.Service the bot uses.
type Catalog interface {
	Snapshot() *catalog.Snapshot
	Add(ctx context.Context, title, posterRef string, files map[catalog.Variant]string) (catalog.Entry, error)
	Rename(ctx context.Context, oldTitle, newTitle string) (string, string, error)
	Delete(ctx context.Context, title string) (string, error)
	Page(ctx context.Context, page, perPage int) ([]string, int, error)
	Stats(ctx context.Context) (catalog.Stats, error)
}

// Settings are the policy knobs of the pipeline.
type Settings struct {
	DeleteAfter       time.Duration
	AckDeleteAfter    time.Duration
	BroadcastIdle     time.Duration
	UpdatesChannelURL string
	UpdatesChannelID  int64
	InviteURL         string
}

// Deps are the collaborators of a Bot. Restart may be nil.
type Deps struct {
	Logger    *slog.Logger
	Transport channel.Transport
	Catalog   Catalog
	Matcher   *match.Matcher
	Cache     *match.Cache
	Gate      *gate.Gate
	Scheduler *ephemeral.Scheduler
	Reaper    *ephemeral.Reaper
	Uploads   *session.Uploads
	Pending   *handoff.PendingStore
	Admins    *AdminSet
	Restart   func()
	Settings  Settings
}

type Bot struct {
	logger    *slog.Logger
	transport channel.Transport
	catalog   Catalog
	matcher   *match.Matcher
	cache     *match.Cache
	gate      *gate.Gate
	scheduler *ephemeral.Scheduler
	reaper    *ephemeral.Reaper
	uploads   *session.Uploads
	pending   *handoff.PendingStore
	admins    *AdminSet
	broadcast *session.Store[int64, broadcastState]
	restart   func()
	settings  Settings
	now       func() time.Time
}

func New(d Deps) *Bot {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	if d.Matcher == nil {
		d.Matcher = match.NewMatcher(nil, match.DefaultThresholds())
	}
	if d.Scheduler == nil {
		d.Scheduler = ephemeral.NewScheduler(log)
	}
	if d.Reaper == nil {
		d.Reaper = ephemeral.NewReaper(log, d.Scheduler, d.Transport)
	}
	if d.Uploads == nil {
		d.Uploads = session.NewUploads()
	}
	if d.Pending == nil {
		d.Pending = handoff.NewPendingStore()
	}
	if d.Admins == nil {
		d.Admins = NewAdminSet(nil)
	}
	if d.Settings.DeleteAfter <= 0 {
		d.Settings.DeleteAfter = 600 * time.Second
	}
	if d.Settings.AckDeleteAfter <= 0 {
		d.Settings.AckDeleteAfter = 20 * time.Second
	}
	if d.Settings.BroadcastIdle <= 0 {
		d.Settings.BroadcastIdle = 5 * time.Minute
	}
	return &Bot{
		logger:    log.With(slog.String("component", "bot")),
		transport: d.Transport,
		catalog:   d.Catalog,
		matcher:   d.Matcher,
		cache:     d.Cache,
		gate:      d.Gate,
		scheduler: d.Scheduler,
		reaper:    d.Reaper,
		uploads:   d.Uploads,
		pending:   d.Pending,
		admins:    d.Admins,
		broadcast: session.NewStore[int64, broadcastState](),
		restart:   d.Restart,
		settings:  d.Settings,
		now:       time.Now,
	}
}

// Handle routes one event. It is a channel.Handler and never returns
// collaborator errors; failures are logged and answered in chat.
func (b *Bot) Handle(ctx context.Context, ev channel.Event) {
	switch ev.Kind {
	case channel.EventCommand:
		b.handleCommand(ctx, ev)
	case channel.EventCallback:
		b.handleCallback(ctx, ev)
	case channel.EventPhoto, channel.EventDocument:
		b.handleMedia(ctx, ev)
	case channel.EventText:
		if b.inBroadcast(ev) {
			b.relayBroadcast(ctx, ev)
			return
		}
		b.handleQuery(ctx, ev)
	}
}

func (b *Bot) handleCommand(ctx context.Context, ev channel.Event) {
	switch ev.Command {
	case "start":
		b.handleStart(ctx, ev)
	case "help":
		b.reply(ctx, ev.Conversation.ChatID, textWelcome, nil)
	case "addmovie":
		b.adminOnly(ctx, ev, b.handleAddMovie)
	case "cancel":
		b.adminOnly(ctx, ev, b.handleCancel)
	case "edittitle":
		b.adminOnly(ctx, ev, b.handleEditTitle)
	case "deletemovie":
		b.adminOnly(ctx, ev, b.handleDeleteMovie)
	case "movielist":
		b.adminOnly(ctx, ev, b.handleMovieList)
	case "status":
		b.adminOnly(ctx, ev, b.handleStatus)
	case "adminpanel":
		b.adminOnly(ctx, ev, b.handleAdminPanel)
	case "addadmin":
		b.adminOnly(ctx, ev, b.handleAddAdmin)
	case "removeadmin":
		b.adminOnly(ctx, ev, b.handleRemoveAdmin)
	case "post":
		b.adminOnly(ctx, ev, b.handlePost)
	case "done":
		b.adminOnly(ctx, ev, b.handleDone)
	case "restart":
		b.adminOnly(ctx, ev, b.handleRestart)
	default:
		b.logger.Debug("unknown command", slog.String("command", ev.Command))
	}
}

func (b *Bot) handleCallback(ctx context.Context, ev channel.Event) {
	p, err := ParsePayload(ev.CallbackData)
	if err != nil {
		b.answer(ctx, ev, textUnknownCallback)
		return
	}
	b.answer(ctx, ev, "")
	chatID := ev.Conversation.ChatID
	switch p.Action {
	case ActionVariant, ActionRetry:
		b.requestVariant(ctx, ev.Sender, chatID, p.Key, p.Variant)
	case ActionMovie:
		entry, ok := b.catalog.Snapshot().Lookup(p.Key)
		if !ok {
			b.reply(ctx, chatID, textNotFound, nil)
			return
		}
		b.sendPoster(ctx, chatID, entry)
	case ActionPage:
		if !b.admins.Contains(ev.Sender.UserID) {
			return
		}
		b.editMovieList(ctx, chatID, ev.MessageID, p.Page)
	}
}

func (b *Bot) handleMedia(ctx context.Context, ev channel.Event) {
	admin := ev.Sender.UserID
	switch {
	case b.inBroadcast(ev):
		b.relayBroadcast(ctx, ev)
	case b.uploads.Active(admin):
		b.handleUpload(ctx, ev)
	case b.admins.Contains(admin) && ev.Conversation.IsPrivate():
		b.reply(ctx, ev.Conversation.ChatID, textAddMovieFirst, nil)
	}
}

func (b *Bot) handleStart(ctx context.Context, ev channel.Event) {
	if ev.Args != "" && b.resumeHandoff(ctx, ev) {
		return
	}
	if b.resumePending(ctx, ev) {
		return
	}
	b.reply(ctx, ev.Conversation.ChatID, textWelcome, nil)
}

func (b *Bot) adminOnly(ctx context.Context, ev channel.Event, fn func(context.Context, channel.Event)) {
	if !b.admins.Contains(ev.Sender.UserID) {
		b.reply(ctx, ev.Conversation.ChatID, textAdminOnly, nil)
		return
	}
	fn(ctx, ev)
}

// reply sends text and reports whether it was delivered.
func (b *Bot) reply(ctx context.Context, chatID int64, text string, kb channel.Keyboard) (channel.Sent, bool) {
	sent, err := b.transport.SendText(ctx, chatID, text, kb)
	if err != nil {
		b.logger.Warn("send text failed", slog.Int64("chat_id", chatID), slog.Any("error", err))
		return channel.Sent{}, false
	}
	return sent, true
}

// replyEphemeral sends text that deletes itself after the ack lifetime.
func (b *Bot) replyEphemeral(ctx context.Context, chatID int64, text string) {
	if sent, ok := b.reply(ctx, chatID, text, nil); ok {
		b.reaper.ScheduleDeletion(sent.ChatID, sent.MessageID, b.settings.AckDeleteAfter)
	}
}

func (b *Bot) answer(ctx context.Context, ev channel.Event, text string) {
	if ev.CallbackID == "" {
		return
	}
	if err := b.transport.AnswerCallback(ctx, ev.CallbackID, text); err != nil {
		b.logger.Debug("answer callback failed", slog.Any("error", err))
	}
}
