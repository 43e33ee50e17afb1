// Package channel defines the chat transport seen by the bot: inbound events,
// outbound operations, and the per-chat dispatcher.
package channel

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrDirectRefused is returned when the platform refuses a message to a
// user's private chat, typically because the user never started the bot.
var ErrDirectRefused = errors.New("direct chat refused")

// EventKind tags the inbound event union.
type EventKind int

const (
	EventText EventKind = iota
	EventCommand
	EventPhoto
	EventDocument
	EventCallback
)

func (k EventKind) String() string {
	switch k {
	case EventCommand:
		return "command"
	case EventPhoto:
		return "photo"
	case EventDocument:
		return "document"
	case EventCallback:
		return "callback"
	default:
		return "text"
	}
}

// Identity is the stable sender of an event.
type Identity struct {
	UserID      int64
	Username    string
	DisplayName string
}

// Conversation is where an event happened.
type Conversation struct {
	ChatID int64
	Type   string
}

// IsPrivate reports whether the conversation is the user's direct chat.
func (c Conversation) IsPrivate() bool {
	return strings.EqualFold(c.Type, "private")
}

// Event is one inbound update. Fields not meaningful for Kind are empty.
type Event struct {
	Kind         EventKind
	Sender       Identity
	Conversation Conversation
	MessageID    int
	// Text holds the message text, or the caption of a photo or document.
	Text string
	// Command is the command name without the slash and bot suffix.
	Command string
	Args    string
	// FileRef and FileName describe a photo or document upload.
	FileRef      string
	FileName     string
	CallbackID   string
	CallbackData string
	ReceivedAt   time.Time
}

// Button is an inline button; exactly one of Data and URL is set.
type Button struct {
	Text string
	Data string
	URL  string
}

// Keyboard is a grid of inline buttons, row by row.
type Keyboard [][]Button

// Sent identifies a delivered message.
type Sent struct {
	ChatID    int64
	MessageID int
}

// Handler processes one inbound event.
type Handler func(ctx context.Context, ev Event)

// Transport is the outbound side of the chat platform. Text and captions are
// HTML. Sends to a private chat that the user has not opened fail with an
// error wrapping ErrDirectRefused.
type Transport interface {
	SendText(ctx context.Context, chatID int64, text string, kb Keyboard) (Sent, error)
	SendPhoto(ctx context.Context, chatID int64, ref, caption string, kb Keyboard) (Sent, error)
	SendDocument(ctx context.Context, chatID int64, ref, caption string, kb Keyboard) (Sent, error)
	EditText(ctx context.Context, chatID int64, messageID int, text string, kb Keyboard) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
	CopyMessage(ctx context.Context, toChatID, fromChatID int64, messageID int) (Sent, error)
	Membership(ctx context.Context, chatID, userID int64) (string, error)
	BotUsername() string
}

// Receiver delivers inbound events to handler until ctx ends.
type Receiver interface {
	Receive(ctx context.Context, handler Handler) error
}
