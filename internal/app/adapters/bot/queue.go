package bot

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"twitchlate/internal/app/adapters/metrics"
	"twitchlate/internal/app/ports"
	"twitchlate/pkg/logger"
)

// queuedItem is owned exclusively by the queue between enqueue and
// dequeue.
type queuedItem struct {
	text   string
	user   string
	emotes []ports.EmoteRange
}

// queue is a strict FIFO with a single consumer. The idle/draining
// transition happens under one mutex together with the append, so an
// enqueue racing against the consumer's empty-check can never be missed
// and two consumers can never run at once.
type queue struct {
	log        logger.Logger
	translator ports.TranslatorPort
	feed       ports.FeedPort
	say        func(message string) error

	channel     string
	targetLang  string
	postDelay   time.Duration
	drainOnStop bool

	ctx context.Context

	mu       sync.Mutex
	items    []queuedItem
	draining bool
	stopped  bool
	onDone   func()
}

func newQueue(ctx context.Context, log logger.Logger, translator ports.TranslatorPort, feed ports.FeedPort, say func(message string) error, channel, targetLang string, postDelay time.Duration, drainOnStop bool) *queue {
	return &queue{
		log:         log,
		translator:  translator,
		feed:        feed,
		say:         say,
		channel:     channel,
		targetLang:  targetLang,
		postDelay:   postDelay,
		drainOnStop: drainOnStop,
		ctx:         ctx,
	}
}

func (q *queue) enqueue(item queuedItem) {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		q.log.Debug("Queue is shut down, dropping message", slog.String("user", item.user))
		return
	}
	q.items = append(q.items, item)
	metrics.QueueDepth.Set(float64(len(q.items)))

	startConsumer := !q.draining
	if startConsumer {
		q.draining = true
	}
	q.mu.Unlock()

	if startConsumer {
		go q.drain()
	}
}

func (q *queue) depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// shutdown closes the queue for new items. done runs exactly once, when
// the consumer finishes, or right here when it is already idle. With
// drainOnStop true the pending items keep translating and posting first;
// the session only cancels the context and tears down the transport
// inside done.
func (q *queue) shutdown(done func()) {
	q.mu.Lock()
	q.stopped = true
	if q.draining {
		q.onDone = done
		q.mu.Unlock()
		return
	}
	q.mu.Unlock()

	if done != nil {
		done()
	}
}

func (q *queue) drain() {
	q.log.Debug("Queue consumer started")

	for {
		if !q.drainOnStop && q.ctx.Err() != nil {
			q.mu.Lock()
			dropped := len(q.items)
			q.items = nil
			q.draining = false
			done := q.onDone
			q.onDone = nil
			metrics.QueueDepth.Set(0)
			q.mu.Unlock()

			if dropped > 0 {
				q.log.Info("Session stopped, discarding queued messages", slog.Int("dropped", dropped))
			}
			if done != nil {
				done()
			}
			return
		}

		q.mu.Lock()
		if len(q.items) == 0 {
			q.draining = false
			done := q.onDone
			q.onDone = nil
			q.mu.Unlock()

			q.log.Debug("Queue drained, consumer going idle")
			if done != nil {
				done()
			}
			return
		}
		item := q.items[0]
		q.items = q.items[1:]
		metrics.QueueDepth.Set(float64(len(q.items)))
		q.mu.Unlock()

		q.process(item)

		// pacing against the channel's own anti-spam limits, separate
		// from the provider rate limiter
		time.Sleep(q.postDelay)
	}
}

func (q *queue) process(item queuedItem) {
	cleaned := stripEmotes(item.text, item.emotes)

	q.feed.Publish(ports.EventTranslating, map[string]any{
		"user":    item.user,
		"message": cleaned,
	})

	result := q.translator.Translate(q.ctx, cleaned, q.targetLang)

	if !result.IsTranslated || strings.TrimSpace(result.TranslatedText) == "" {
		q.log.Debug("Message needs no posting", slog.String("text", item.text))
		return
	}

	out := item.user + ": " + result.TranslatedText
	if err := q.say(out); err != nil {
		q.log.Error("Failed to post translated message", err, slog.String("message", out))
		metrics.PostErrors.With(prometheus.Labels{"channel": q.channel}).Inc()
		q.feed.Publish(ports.EventError, map[string]any{
			"error": err.Error(),
		})
		return
	}

	metrics.MessagesPosted.With(prometheus.Labels{"channel": q.channel}).Inc()
	q.log.Info("Posted translation", slog.String("message", out))
	q.feed.Publish(ports.EventMessageSent, map[string]any{
		"user":       item.user,
		"original":   item.text,
		"translated": result.TranslatedText,
		"language":   result.DetectedLanguage,
	})
}
