package bot

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twitchlate/internal/app/ports"
	"twitchlate/pkg/logger"
)

type stubFeed struct {
	mu     sync.Mutex
	events []ports.Event
}

func (f *stubFeed) Publish(kind string, data any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ports.Event{Type: kind, Timestamp: time.Now().UnixMilli(), Data: data})
}

func (f *stubFeed) Subscribers() int { return 0 }

func (f *stubFeed) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Type)
	}
	return out
}

func (f *stubFeed) count(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, ev := range f.events {
		if ev.Type == kind {
			n++
		}
	}
	return n
}

type stubTranslator struct {
	mu      sync.Mutex
	calls   int
	resolve func(text string) ports.TranslationResult
}

func (tr *stubTranslator) Translate(_ context.Context, text, _ string) ports.TranslationResult {
	tr.mu.Lock()
	tr.calls++
	tr.mu.Unlock()

	if tr.resolve != nil {
		return tr.resolve(text)
	}
	return ports.TranslationResult{
		TranslatedText:   "t:" + text,
		DetectedLanguage: "en",
		IsTranslated:     true,
		DetectedScript:   "BasicLatin",
	}
}

// gatedTranslator blocks every call until release is closed and records
// the context error observed at completion time.
type gatedTranslator struct {
	mu      sync.Mutex
	started chan struct{}
	release chan struct{}
	ctxErrs []error
}

func (tr *gatedTranslator) Translate(ctx context.Context, text, _ string) ports.TranslationResult {
	tr.started <- struct{}{}
	<-tr.release

	tr.mu.Lock()
	tr.ctxErrs = append(tr.ctxErrs, ctx.Err())
	tr.mu.Unlock()

	return ports.TranslationResult{
		TranslatedText:   "t:" + text,
		DetectedLanguage: "en",
		IsTranslated:     true,
		DetectedScript:   "BasicLatin",
	}
}

func (tr *gatedTranslator) errs() []error {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]error(nil), tr.ctxErrs...)
}

type recordingPoster struct {
	mu       sync.Mutex
	posts    []string
	inFlight atomic.Int32
	overlap  atomic.Bool
	err      error
}

func (p *recordingPoster) say(message string) error {
	if p.inFlight.Add(1) > 1 {
		p.overlap.Store(true)
	}
	time.Sleep(5 * time.Millisecond)
	p.inFlight.Add(-1)

	if p.err != nil {
		return p.err
	}

	p.mu.Lock()
	p.posts = append(p.posts, message)
	p.mu.Unlock()
	return nil
}

func (p *recordingPoster) posted() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.posts...)
}

func TestQueuePreservesOrder(t *testing.T) {
	t.Parallel()

	feed := &stubFeed{}
	poster := &recordingPoster{}
	q := newQueue(context.Background(), logger.New(), &stubTranslator{}, feed, poster.say,
		"testchannel", "en", time.Millisecond, true)

	q.enqueue(queuedItem{text: "aaa", user: "alice"})
	q.enqueue(queuedItem{text: "bbb", user: "bob"})
	q.enqueue(queuedItem{text: "ccc", user: "carol"})

	require.Eventually(t, func() bool {
		return len(poster.posted()) == 3
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"alice: t:aaa", "bob: t:bbb", "carol: t:ccc"}, poster.posted())
	assert.False(t, poster.overlap.Load(), "posts must never overlap")
}

func TestQueueSingleConsumerUnderConcurrentEnqueue(t *testing.T) {
	t.Parallel()

	feed := &stubFeed{}
	poster := &recordingPoster{}
	q := newQueue(context.Background(), logger.New(), &stubTranslator{}, feed, poster.say,
		"testchannel", "en", 0, true)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.enqueue(queuedItem{text: fmt.Sprintf("msg %02d", i), user: "u"})
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		return len(poster.posted()) == 20 && q.depth() == 0
	}, 5*time.Second, 10*time.Millisecond)

	assert.False(t, poster.overlap.Load(), "only one consumer may post at a time")
}

func TestQueueRetriggersAfterIdle(t *testing.T) {
	t.Parallel()

	feed := &stubFeed{}
	poster := &recordingPoster{}
	q := newQueue(context.Background(), logger.New(), &stubTranslator{}, feed, poster.say,
		"testchannel", "en", 0, true)

	q.enqueue(queuedItem{text: "first message", user: "u"})
	require.Eventually(t, func() bool { return len(poster.posted()) == 1 }, 2*time.Second, 5*time.Millisecond)

	// consumer is idle now; a new enqueue must wake it again
	q.enqueue(queuedItem{text: "second message", user: "u"})
	require.Eventually(t, func() bool { return len(poster.posted()) == 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestQueueSkipsUntranslated(t *testing.T) {
	t.Parallel()

	feed := &stubFeed{}
	poster := &recordingPoster{}
	tr := &stubTranslator{resolve: func(text string) ports.TranslationResult {
		return ports.TranslationResult{TranslatedText: text, IsTranslated: false}
	}}
	q := newQueue(context.Background(), logger.New(), tr, feed, poster.say,
		"testchannel", "en", 0, true)

	q.enqueue(queuedItem{text: "ya en espanol", user: "u"})

	require.Eventually(t, func() bool { return feed.count(ports.EventTranslating) == 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	assert.Empty(t, poster.posted(), "untranslated messages are not posted")
	assert.Zero(t, feed.count(ports.EventMessageSent))
}

func TestQueuePostErrorDoesNotStopConsumer(t *testing.T) {
	t.Parallel()

	feed := &stubFeed{}
	poster := &recordingPoster{err: fmt.Errorf("say failed")}
	q := newQueue(context.Background(), logger.New(), &stubTranslator{}, feed, poster.say,
		"testchannel", "en", 0, true)

	q.enqueue(queuedItem{text: "first message", user: "u"})
	q.enqueue(queuedItem{text: "second message", user: "u"})

	require.Eventually(t, func() bool {
		return feed.count(ports.EventError) == 2 && q.depth() == 0
	}, 2*time.Second, 5*time.Millisecond)

	assert.Zero(t, feed.count(ports.EventMessageSent))
}

func TestQueueDiscardsOnCancelWhenNotDraining(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	feed := &stubFeed{}
	poster := &recordingPoster{}
	q := newQueue(ctx, logger.New(), &stubTranslator{}, feed, poster.say,
		"testchannel", "en", 0, false)

	q.enqueue(queuedItem{text: "stale message", user: "u"})

	require.Eventually(t, func() bool { return q.depth() == 0 }, 2*time.Second, 5*time.Millisecond)
	assert.Empty(t, poster.posted())
}

func TestQueueShutdownDrainsPendingItems(t *testing.T) {
	t.Parallel()

	feed := &stubFeed{}
	poster := &recordingPoster{}
	tr := &gatedTranslator{started: make(chan struct{}, 3), release: make(chan struct{})}
	q := newQueue(context.Background(), logger.New(), tr, feed, poster.say,
		"testchannel", "en", 0, true)

	q.enqueue(queuedItem{text: "first message", user: "u"})
	q.enqueue(queuedItem{text: "second message", user: "u"})

	<-tr.started // first item is mid-translate

	var drained atomic.Bool
	q.shutdown(func() { drained.Store(true) })
	assert.False(t, drained.Load(), "consumer is still busy")

	close(tr.release)
	require.Eventually(t, func() bool { return drained.Load() }, 2*time.Second, 5*time.Millisecond)

	assert.Len(t, poster.posted(), 2, "pending items are posted before done fires")
}

func TestQueueRejectsEnqueueAfterShutdown(t *testing.T) {
	t.Parallel()

	feed := &stubFeed{}
	poster := &recordingPoster{}
	q := newQueue(context.Background(), logger.New(), &stubTranslator{}, feed, poster.say,
		"testchannel", "en", 0, true)

	var drained atomic.Bool
	q.shutdown(func() { drained.Store(true) })
	require.True(t, drained.Load(), "an idle queue finishes immediately")

	q.enqueue(queuedItem{text: "late message", user: "u"})
	time.Sleep(20 * time.Millisecond)

	assert.Empty(t, poster.posted())
	assert.Zero(t, q.depth())
}

func TestQueueEmitsLifecycleEvents(t *testing.T) {
	t.Parallel()

	feed := &stubFeed{}
	poster := &recordingPoster{}
	q := newQueue(context.Background(), logger.New(), &stubTranslator{}, feed, poster.say,
		"testchannel", "en", 0, true)

	q.enqueue(queuedItem{text: "hello there", user: "alice"})

	require.Eventually(t, func() bool { return len(poster.posted()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{ports.EventTranslating, ports.EventMessageSent}, feed.kinds())
}
