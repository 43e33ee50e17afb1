package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/memohai/cinebot/internal/catalog"
	"github.com/memohai/cinebot/internal/channel"
	"github.com/memohai/cinebot/internal/ephemeral"
	"github.com/memohai/cinebot/internal/gate"
	"github.com/memohai/cinebot/internal/match"
)

type outbound struct {
	Method    string
	ChatID    int64
	MessageID int
	Text      string
	Ref       string
	Keyboard  channel.Keyboard
}

type fakeTransport struct {
	mu       sync.Mutex
	nextID   int
	calls    []outbound
	refuse   map[int64]bool
	status   map[int64]string
	sendErr  error
	copyErr  error
	username string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		refuse:   map[int64]bool{},
		status:   map[int64]string{},
		username: "cinebot",
	}
}

func (f *fakeTransport) record(o outbound) channel.Sent {
	f.nextID++
	o.MessageID = f.nextID
	f.calls = append(f.calls, o)
	return channel.Sent{ChatID: o.ChatID, MessageID: o.MessageID}
}

func (f *fakeTransport) SendText(_ context.Context, chatID int64, text string, kb channel.Keyboard) (channel.Sent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record(outbound{Method: "text", ChatID: chatID, Text: text, Keyboard: kb}), nil
}

func (f *fakeTransport) SendPhoto(_ context.Context, chatID int64, ref, caption string, kb channel.Keyboard) (channel.Sent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return channel.Sent{}, f.sendErr
	}
	return f.record(outbound{Method: "photo", ChatID: chatID, Ref: ref, Text: caption, Keyboard: kb}), nil
}

func (f *fakeTransport) SendDocument(_ context.Context, chatID int64, ref, caption string, kb channel.Keyboard) (channel.Sent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refuse[chatID] {
		return channel.Sent{}, fmt.Errorf("send document: %w", channel.ErrDirectRefused)
	}
	if f.sendErr != nil {
		return channel.Sent{}, f.sendErr
	}
	return f.record(outbound{Method: "document", ChatID: chatID, Ref: ref, Text: caption, Keyboard: kb}), nil
}

func (f *fakeTransport) EditText(_ context.Context, chatID int64, messageID int, text string, kb channel.Keyboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, outbound{Method: "edit", ChatID: chatID, MessageID: messageID, Text: text, Keyboard: kb})
	return nil
}

func (f *fakeTransport) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, outbound{Method: "delete", ChatID: chatID, MessageID: messageID})
	return nil
}

func (f *fakeTransport) AnswerCallback(context.Context, string, string) error { return nil }

func (f *fakeTransport) CopyMessage(_ context.Context, toChatID, fromChatID int64, messageID int) (channel.Sent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.copyErr != nil {
		return channel.Sent{}, f.copyErr
	}
	return f.record(outbound{Method: "copy", ChatID: toChatID, Ref: fmt.Sprintf("%d/%d", fromChatID, messageID)}), nil
}

func (f *fakeTransport) Membership(_ context.Context, _, userID int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status, ok := f.status[userID]
	if !ok {
		return "", errors.New("user not found")
	}
	return status, nil
}

func (f *fakeTransport) BotUsername() string { return f.username }

func (f *fakeTransport) sent(method string) []outbound {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []outbound
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeTransport) texts() []string {
	var out []string
	for _, c := range f.sent("text") {
		out = append(out, c.Text)
	}
	return out
}

func (f *fakeTransport) lastText() string {
	texts := f.texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

type fakeStore struct {
	mu      sync.Mutex
	records []catalog.Record
	failAll error
	now     time.Time
}

func (s *fakeStore) SelectAll(context.Context) ([]catalog.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return nil, s.failAll
	}
	return append([]catalog.Record(nil), s.records...), nil
}

func (s *fakeStore) Insert(_ context.Context, rec catalog.Record) (catalog.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return catalog.Record{}, s.failAll
	}
	for _, r := range s.records {
		if r.Title == rec.Title {
			return catalog.Record{}, catalog.ErrDuplicate
		}
	}
	rec.ID = fmt.Sprintf("id-%d", len(s.records)+1)
	if rec.UploadedAt.IsZero() {
		s.now = s.now.Add(time.Minute)
		rec.UploadedAt = s.now
	}
	s.records = append(s.records, rec)
	return rec, nil
}

func (s *fakeStore) UpdateTitle(_ context.Context, oldTitle, newTitle string) ([]catalog.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.records {
		if r.Title == oldTitle {
			s.records[i].Title = newTitle
			return []catalog.Record{s.records[i]}, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (s *fakeStore) Delete(_ context.Context, title string) ([]catalog.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.records {
		if r.Title == title {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return []catalog.Record{r}, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (s *fakeStore) ListTitles(_ context.Context, limit, offset int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	titles := make([]string, 0, len(s.records))
	for _, r := range s.records {
		titles = append(titles, r.Title)
	}
	sort.Strings(titles)
	if offset >= len(titles) {
		return nil, nil
	}
	end := offset + limit
	if end > len(titles) {
		end = len(titles)
	}
	return titles[offset:end], nil
}

func (s *fakeStore) Stats(context.Context) (catalog.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := catalog.Stats{Total: len(s.records)}
	for _, r := range s.records {
		if !r.UploadedAt.Before(st.LastUpload) {
			st.LastTitle, st.LastUpload = r.Title, r.UploadedAt
		}
	}
	return st, nil
}

const (
	adminID   int64 = 7
	userID    int64 = 42
	groupChat int64 = -100500
	gateChat  int64 = -100900
)

type harness struct {
	bot       *Bot
	transport *fakeTransport
	store     *fakeStore
	service   *catalog.Service
	scheduler *ephemeral.Scheduler
	restarts  int
}

type harnessOption func(*Deps)

func withGate(d *Deps) {
	d.Gate = gate.New(d.Logger, d.Transport, gateChat)
}

func withSettings(fn func(*Settings)) harnessOption {
	return func(d *Deps) { fn(&d.Settings) }
}

func newHarness(t *testing.T, records []catalog.Record, opts ...harnessOption) *harness {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &harness{
		transport: newFakeTransport(),
		store:     &fakeStore{records: records, now: time.Now().Add(-time.Hour)},
		scheduler: ephemeral.NewScheduler(log),
	}
	t.Cleanup(h.scheduler.Stop)
	h.service = catalog.NewService(log, h.store)
	if _, err := h.service.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	d := Deps{
		Logger:    log,
		Transport: h.transport,
		Catalog:   h.service,
		Matcher:   match.NewMatcher(nil, match.DefaultThresholds()),
		Cache:     match.NewCache(16, time.Minute),
		Scheduler: h.scheduler,
		Admins:    NewAdminSet([]int64{adminID}),
		Restart:   func() { h.restarts++ },
		Settings: Settings{
			DeleteAfter:       600 * time.Second,
			AckDeleteAfter:    20 * time.Second,
			BroadcastIdle:     time.Minute,
			UpdatesChannelURL: "https://t.me/cinebot_updates",
			UpdatesChannelID:  -100777,
			InviteURL:         "https://t.me/+community",
		},
	}
	for _, opt := range opts {
		opt(&d)
	}
	h.bot = New(d)
	return h
}

func movieRecord(title string) catalog.Record {
	return catalog.Record{
		ID:        "seed-" + title,
		Title:     title,
		PosterRef: "poster-" + title,
		Files: map[catalog.Variant]string{
			catalog.Variant480p:  "f480-" + title,
			catalog.Variant720p:  "f720-" + title,
			catalog.Variant1080p: "f1080-" + title,
		},
		UploadedAt: time.Now().Add(-2 * time.Hour),
	}
}

func textEvent(chatID, from int64, text string) channel.Event {
	return channel.Event{
		Kind:         channel.EventText,
		Sender:       channel.Identity{UserID: from},
		Conversation: conversation(chatID, from),
		MessageID:    1000,
		Text:         text,
	}
}

func commandEvent(chatID, from int64, command, args string) channel.Event {
	return channel.Event{
		Kind:         channel.EventCommand,
		Sender:       channel.Identity{UserID: from},
		Conversation: conversation(chatID, from),
		MessageID:    1001,
		Command:      command,
		Args:         args,
	}
}

func callbackEvent(chatID, from int64, messageID int, data string) channel.Event {
	return channel.Event{
		Kind:         channel.EventCallback,
		Sender:       channel.Identity{UserID: from},
		Conversation: conversation(chatID, from),
		MessageID:    messageID,
		CallbackID:   "cb-1",
		CallbackData: data,
	}
}

func conversation(chatID, from int64) channel.Conversation {
	if chatID == from {
		return channel.Conversation{ChatID: chatID, Type: "private"}
	}
	return channel.Conversation{ChatID: chatID, Type: "supergroup"}
}
