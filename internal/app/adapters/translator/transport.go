package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"twitchlate/internal/app/adapters/metrics"
	"twitchlate/internal/app/infrastructure/config"
	"twitchlate/internal/app/ports"
	"twitchlate/pkg/logger"
)

const providerEndpoint = "https://translate.googleapis.com/translate_a/single"

// Transport serializes calls to the translation provider. Its limiter is
// the single pacing clock for the process: every dispatch, retries
// included, waits on it before touching the network. Two instances would
// defeat the cross-call pacing, so the app wires exactly one.
type Transport struct {
	log    logger.Logger
	client *http.Client

	limiter        *rate.Limiter
	maxRetries     int
	retryBaseDelay time.Duration

	endpoint string
}

func NewTransport(log logger.Logger, client *http.Client, cfg config.Translator) *Transport {
	minInterval := time.Duration(cfg.MinIntervalMs) * time.Millisecond

	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}

	return &Transport{
		log:            log,
		client:         client,
		limiter:        rate.NewLimiter(limit, 1),
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond,
		endpoint:       providerEndpoint,
	}
}

// Dispatch sends one translate request. A throttling status that
// survives all retries is returned as a normal result with that status;
// every other failure surfaces as an error.
func (t *Transport) Dispatch(ctx context.Context, text, targetLang string) (*ports.ProviderResult, error) {
	start := time.Now()
	defer func() {
		metrics.ProviderRequestTime.Observe(time.Since(start).Seconds())
	}()

	var resp *ports.ProviderResult
	var err error

	for attempt := 0; ; attempt++ {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("pacing wait: %w", err)
		}

		t.log.Debug("Dispatching provider request",
			slog.Int("attempt", attempt),
			slog.String("target", targetLang),
		)

		resp, err = t.doRequest(ctx, text, targetLang)
		if err != nil {
			return nil, err
		}

		if resp.Status != http.StatusTooManyRequests {
			return resp, nil
		}

		metrics.ProviderThrottled.Inc()
		if attempt >= t.maxRetries {
			t.log.Warn("Provider still throttling after max retries", slog.Int("maxRetries", t.maxRetries))
			return resp, nil
		}

		wait := t.retryBaseDelay * time.Duration(attempt+1)
		t.log.Warn("Provider throttled, backing off",
			slog.Int("attempt", attempt+1),
			slog.String("wait", wait.String()),
		)

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (t *Transport) doRequest(ctx context.Context, text, targetLang string) (*ports.ProviderResult, error) {
	form := url.Values{}
	form.Set("client", "gtx")
	form.Set("sl", "auto")
	form.Set("tl", targetLang)
	form.Set("dt", "t")
	form.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")

	httpResp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider request: %w", err)
	}

	raw, err := io.ReadAll(httpResp.Body)
	if cerr := httpResp.Body.Close(); cerr != nil {
		t.log.Error("Failed to close provider response body", cerr)
	}
	if err != nil {
		return nil, fmt.Errorf("read provider response: %w", err)
	}

	switch {
	case httpResp.StatusCode == http.StatusTooManyRequests:
		return &ports.ProviderResult{Status: httpResp.StatusCode}, nil

	case httpResp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("provider returned status %d: %s", httpResp.StatusCode, string(raw))
	}

	translated, detected, err := parseProviderBody(raw)
	if err != nil {
		return nil, err
	}

	return &ports.ProviderResult{
		TranslatedText:   translated,
		DetectedLanguage: detected,
		Status:           httpResp.StatusCode,
	}, nil
}

// parseProviderBody unpacks the gtx response shape
// [[["translated","source",...],...],null,"detectedLang",...]. Sentence
// fragments beyond the first chunk are concatenated.
func parseProviderBody(raw []byte) (string, string, error) {
	var body []any
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", "", fmt.Errorf("decode provider response: %w", err)
	}

	var sb strings.Builder
	if len(body) > 0 {
		chunks, _ := body[0].([]any)
		for _, c := range chunks {
			parts, _ := c.([]any)
			if len(parts) > 0 {
				if s, ok := parts[0].(string); ok {
					sb.WriteString(s)
				}
			}
		}
	}

	detected := "unknown"
	if len(body) > 2 {
		if s, ok := body[2].(string); ok && s != "" {
			detected = s
		}
	}

	return sb.String(), detected, nil
}
