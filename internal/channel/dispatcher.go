package channel

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cinebot_inbound_events_total",
		Help: "Inbound events by kind.",
	}, []string{"kind"})
	eventDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cinebot_event_handle_seconds",
		Help:    "Time spent handling one inbound event.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
)

const defaultQueueSize = 16

type chatWorker struct {
	jobs    chan Event
	pending int
}

// Dispatcher runs one worker goroutine per chat so events of a chat are
// handled in arrival order while chats proceed independently. A worker
// exits once its queue is drained.
type Dispatcher struct {
	handler   Handler
	logger    *slog.Logger
	queueSize int

	mu      sync.Mutex
	workers map[int64]*chatWorker
	closed  bool
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewDispatcher(log *slog.Logger, handler Handler, queueSize int) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		handler:   handler,
		logger:    log.With(slog.String("component", "dispatcher")),
		queueSize: queueSize,
		workers:   make(map[int64]*chatWorker),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Dispatch queues ev on its chat's worker. It blocks while that queue is
// full and drops events after Close.
func (d *Dispatcher) Dispatch(_ context.Context, ev Event) {
	chatID := ev.Conversation.ChatID
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Warn("event dropped after close", slog.Int64("chat_id", chatID), slog.String("kind", ev.Kind.String()))
		return
	}
	w, ok := d.workers[chatID]
	if !ok {
		w = &chatWorker{jobs: make(chan Event, d.queueSize)}
		d.workers[chatID] = w
		d.wg.Add(1)
		go d.work(chatID, w)
	}
	w.pending++
	d.mu.Unlock()

	eventsTotal.WithLabelValues(ev.Kind.String()).Inc()
	w.jobs <- ev
}

// Close stops accepting events and waits for queued ones until ctx ends,
// then cancels the context handed to handlers.
func (d *Dispatcher) Close(ctx context.Context) {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		d.logger.Warn("dispatcher close timed out")
	}
	d.cancel()
}

// Workers returns the number of live chat workers.
func (d *Dispatcher) Workers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.workers)
}

func (d *Dispatcher) work(chatID int64, w *chatWorker) {
	defer d.wg.Done()
	for ev := range w.jobs {
		d.handle(ev)

		d.mu.Lock()
		w.pending--
		if w.pending == 0 {
			delete(d.workers, chatID)
			d.mu.Unlock()
			return
		}
		d.mu.Unlock()
	}
}

func (d *Dispatcher) handle(ev Event) {
	start := time.Now()
	defer func() {
		eventDuration.WithLabelValues(ev.Kind.String()).Observe(time.Since(start).Seconds())
		if r := recover(); r != nil {
			d.logger.Error("handler panicked",
				slog.Int64("chat_id", ev.Conversation.ChatID),
				slog.String("kind", ev.Kind.String()),
				slog.Any("panic", r),
			)
		}
	}()
	d.handler(d.ctx, ev)
}
