package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BotRunning - whether a session is currently connected to a channel.
	BotRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bot_running",
		Help: "Whether the bot session is running (1) or idle (0)",
	})

	// TranslationEnabled - state of the !ton/!toff flag.
	TranslationEnabled = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bot_translation_enabled",
		Help: "Whether message translation is enabled (1) or disabled (0)",
	})

	// MessagesReceived - chat lines that passed all admission filters.
	MessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_messages_received_total",
			Help: "Chat messages accepted into the translation queue",
		},
		[]string{"channel"},
	)

	// MessagesPosted - translated lines posted back to the channel.
	MessagesPosted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_messages_posted_total",
			Help: "Translated messages posted back to chat",
		},
		[]string{"channel"},
	)

	// PostErrors - failed attempts to post a translated line.
	PostErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_post_errors_total",
			Help: "Failed chat post attempts",
		},
		[]string{"channel"},
	)

	// QueueDepth - items waiting in the outbound queue.
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bot_queue_depth",
		Help: "Messages currently waiting in the outbound queue",
	})

	// CacheHits - translation results served from the memo cache.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "translator_cache_hits_total",
		Help: "Translate calls answered from the result cache",
	})

	// ProviderRequestTime - wall time of one provider dispatch including retries.
	ProviderRequestTime = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "translator_provider_request_seconds",
		Help:    "Duration of translation provider dispatches",
		Buckets: prometheus.DefBuckets,
	})

	// ProviderThrottled - dispatches that saw at least one 429.
	ProviderThrottled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "translator_provider_throttled_total",
		Help: "Provider dispatches that hit the throttling status",
	})

	// FeedSubscribers - dashboard websocket clients currently attached.
	FeedSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "feed_subscribers",
		Help: "Connected dashboard feed subscribers",
	})
)
