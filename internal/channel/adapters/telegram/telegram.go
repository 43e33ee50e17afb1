package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/memohai/cinebot/internal/channel"
)

const (
	telegramMaxMessageLength = 4096
	telegramMaxCaptionLength = 1024
)

// Adapter implements channel.Transport and channel.Receiver over the Bot API
// with long polling.
type Adapter struct {
	logger      *slog.Logger
	bot         *tgbotapi.BotAPI
	pollTimeout int
}

// New connects to the Bot API and verifies the token.
func New(log *slog.Logger, token string, pollTimeout int) (*Adapter, error) {
	return NewWithEndpoint(log, token, tgbotapi.APIEndpoint, pollTimeout)
}

// NewWithEndpoint is New against a custom API endpoint in the
// "https://host/bot%s/%s" form.
func NewWithEndpoint(log *slog.Logger, token, endpoint string, pollTimeout int) (*Adapter, error) {
	if log == nil {
		log = slog.Default()
	}
	logger := log.With(slog.String("adapter", "telegram"))
	_ = tgbotapi.SetLogger(&slogBotLogger{log: logger})
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(strings.TrimSpace(token), endpoint)
	if err != nil {
		logger.Error("create bot failed", slog.Any("error", err))
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	logger.Info("authorized", slog.String("username", bot.Self.UserName))
	return &Adapter{logger: logger, bot: bot, pollTimeout: pollTimeout}, nil
}

func (a *Adapter) BotUsername() string {
	return a.bot.Self.UserName
}

// Receive long-polls updates and hands each convertible one to handler. It
// returns when ctx ends.
func (a *Adapter) Receive(ctx context.Context, handler channel.Handler) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = a.pollTimeout
	updates := a.bot.GetUpdatesChan(updateConfig)
	a.logger.Info("polling started", slog.Int("timeout", a.pollTimeout))

	defer func() {
		a.bot.StopReceivingUpdates()
		// Drain so the library's polling goroutine can exit; an abandoned
		// long poll makes the next getUpdates fail with a conflict.
		for range updates {
		}
		a.logger.Info("polling stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				a.logger.Info("updates channel closed")
				return nil
			}
			ev, ok := toEvent(update)
			if !ok {
				continue
			}
			a.logger.Debug("inbound received",
				slog.String("kind", ev.Kind.String()),
				slog.Int64("chat_id", ev.Conversation.ChatID),
				slog.Int64("user_id", ev.Sender.UserID),
			)
			handler(ctx, ev)
		}
	}
}

func (a *Adapter) SendText(_ context.Context, chatID int64, text string, kb channel.Keyboard) (channel.Sent, error) {
	msg := tgbotapi.NewMessage(chatID, truncateTelegramText(sanitizeTelegramText(text), telegramMaxMessageLength))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if markup := buildKeyboard(kb); markup != nil {
		msg.ReplyMarkup = *markup
	}
	return a.send(msg, chatID)
}

func (a *Adapter) SendPhoto(_ context.Context, chatID int64, ref, caption string, kb channel.Keyboard) (channel.Sent, error) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(ref))
	photo.Caption = truncateTelegramText(sanitizeTelegramText(caption), telegramMaxCaptionLength)
	photo.ParseMode = tgbotapi.ModeHTML
	if markup := buildKeyboard(kb); markup != nil {
		photo.ReplyMarkup = *markup
	}
	return a.send(photo, chatID)
}

func (a *Adapter) SendDocument(_ context.Context, chatID int64, ref, caption string, kb channel.Keyboard) (channel.Sent, error) {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileID(ref))
	doc.Caption = truncateTelegramText(sanitizeTelegramText(caption), telegramMaxCaptionLength)
	doc.ParseMode = tgbotapi.ModeHTML
	if markup := buildKeyboard(kb); markup != nil {
		doc.ReplyMarkup = *markup
	}
	return a.send(doc, chatID)
}

// EditText replaces a message's text and keyboard. "message is not modified"
// is not an error.
func (a *Adapter) EditText(_ context.Context, chatID int64, messageID int, text string, kb channel.Keyboard) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, truncateTelegramText(sanitizeTelegramText(text), telegramMaxMessageLength))
	edit.ParseMode = tgbotapi.ModeHTML
	edit.DisableWebPagePreview = true
	edit.ReplyMarkup = buildKeyboard(kb)
	_, err := a.bot.Send(edit)
	if err != nil && !isTelegramMessageNotModified(err) {
		return classifyError(err)
	}
	return nil
}

func (a *Adapter) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	_, err := a.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return classifyError(err)
}

func (a *Adapter) AnswerCallback(_ context.Context, callbackID, text string) error {
	_, err := a.bot.Request(tgbotapi.NewCallback(callbackID, text))
	return classifyError(err)
}

func (a *Adapter) CopyMessage(_ context.Context, toChatID, fromChatID int64, messageID int) (channel.Sent, error) {
	id, err := a.bot.CopyMessage(tgbotapi.NewCopyMessage(toChatID, fromChatID, messageID))
	if err != nil {
		return channel.Sent{}, classifyError(err)
	}
	return channel.Sent{ChatID: toChatID, MessageID: id.MessageID}, nil
}

func (a *Adapter) Membership(_ context.Context, chatID, userID int64) (string, error) {
	member, err := a.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
	})
	if err != nil {
		return "", classifyError(err)
	}
	return member.Status, nil
}

// Probe calls getMe to confirm the token is still accepted.
func (a *Adapter) Probe(_ context.Context) error {
	if _, err := a.bot.GetMe(); err != nil {
		return classifyError(err)
	}
	return nil
}

func (a *Adapter) send(c tgbotapi.Chattable, chatID int64) (channel.Sent, error) {
	sent, err := a.bot.Send(c)
	if err != nil {
		return channel.Sent{}, classifyError(err)
	}
	out := channel.Sent{ChatID: chatID, MessageID: sent.MessageID}
	if sent.Chat != nil {
		out.ChatID = sent.Chat.ID
	}
	return out, nil
}

func toEvent(update tgbotapi.Update) (channel.Event, bool) {
	if cq := update.CallbackQuery; cq != nil {
		ev := channel.Event{
			Kind:         channel.EventCallback,
			Sender:       resolveTelegramSender(cq.From),
			CallbackID:   cq.ID,
			CallbackData: cq.Data,
			ReceivedAt:   time.Now().UTC(),
		}
		if cq.Message != nil {
			ev.MessageID = cq.Message.MessageID
			if cq.Message.Chat != nil {
				ev.Conversation = channel.Conversation{ChatID: cq.Message.Chat.ID, Type: cq.Message.Chat.Type}
			}
		}
		if ev.Conversation.ChatID == 0 && cq.From != nil {
			ev.Conversation = channel.Conversation{ChatID: cq.From.ID, Type: "private"}
		}
		return ev, true
	}

	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return channel.Event{}, false
	}
	ev := channel.Event{
		Sender:       resolveTelegramSender(msg.From),
		Conversation: channel.Conversation{ChatID: msg.Chat.ID, Type: msg.Chat.Type},
		MessageID:    msg.MessageID,
		ReceivedAt:   time.Unix(int64(msg.Date), 0).UTC(),
	}
	switch {
	case msg.IsCommand():
		ev.Kind = channel.EventCommand
		ev.Text = msg.Text
		ev.Command = strings.ToLower(msg.Command())
		ev.Args = strings.TrimSpace(msg.CommandArguments())
	case len(msg.Photo) > 0:
		ev.Kind = channel.EventPhoto
		ev.FileRef = pickTelegramPhoto(msg.Photo).FileID
		ev.Text = strings.TrimSpace(msg.Caption)
	case msg.Document != nil:
		ev.Kind = channel.EventDocument
		ev.FileRef = msg.Document.FileID
		ev.FileName = msg.Document.FileName
		ev.Text = strings.TrimSpace(msg.Caption)
	default:
		ev.Kind = channel.EventText
		ev.Text = strings.TrimSpace(msg.Text)
		if ev.Text == "" {
			ev.Text = strings.TrimSpace(msg.Caption)
		}
	}
	return ev, true
}

func resolveTelegramSender(user *tgbotapi.User) channel.Identity {
	if user == nil {
		return channel.Identity{}
	}
	name := strings.TrimSpace(strings.TrimSpace(user.FirstName) + " " + strings.TrimSpace(user.LastName))
	if name == "" {
		name = user.UserName
	}
	return channel.Identity{UserID: user.ID, Username: user.UserName, DisplayName: name}
}

func buildKeyboard(kb channel.Keyboard) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, row := range kb {
		var buttons []tgbotapi.InlineKeyboardButton
		for _, b := range row {
			switch {
			case b.URL != "":
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
			case b.Data != "":
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
			}
		}
		if len(buttons) > 0 {
			rows = append(rows, buttons)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

// asTelegramError unwraps an API error; the library returns *Error but the
// value form also satisfies error.
func asTelegramError(err error) (tgbotapi.Error, bool) {
	var ptr *tgbotapi.Error
	if errors.As(err, &ptr) && ptr != nil {
		return *ptr, true
	}
	var val tgbotapi.Error
	if errors.As(err, &val) {
		return val, true
	}
	return tgbotapi.Error{}, false
}

// classifyError maps 403 Forbidden to channel.ErrDirectRefused.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if apiErr, ok := asTelegramError(err); ok && apiErr.Code == 403 {
		return fmt.Errorf("%w: %s", channel.ErrDirectRefused, apiErr.Message)
	}
	return err
}

func isTelegramMessageNotModified(err error) bool {
	apiErr, ok := asTelegramError(err)
	return ok && apiErr.Code == 400 && strings.Contains(apiErr.Message, "message is not modified")
}

func pickTelegramPhoto(items []tgbotapi.PhotoSize) tgbotapi.PhotoSize {
	if len(items) == 0 {
		return tgbotapi.PhotoSize{}
	}
	best := items[0]
	for _, item := range items[1:] {
		if item.FileSize > best.FileSize {
			best = item
			continue
		}
		if item.Width*item.Height > best.Width*best.Height {
			best = item
		}
	}
	return best
}

// sanitizeTelegramText ensures text is valid UTF-8 for the Telegram API.
func sanitizeTelegramText(text string) string {
	if utf8.ValidString(text) {
		return text
	}
	return strings.ToValidUTF8(text, "")
}

// truncateTelegramText cuts text to limit bytes on a rune boundary,
// appending "..." when truncation occurs.
func truncateTelegramText(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	const suffix = "..."
	cut := limit - len(suffix)
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + suffix
}

type slogBotLogger struct {
	log *slog.Logger
}

func (l *slogBotLogger) Println(v ...interface{}) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintln(v...)))
}

func (l *slogBotLogger) Printf(format string, v ...interface{}) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
