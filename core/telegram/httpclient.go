package telegram

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/utilbot/core/logger"
	"github.com/m3rciful/utilbot/core/telegram/netutil"
)

// HTTPClientOptions tunes the Bot API client. Zero fields take defaults.
type HTTPClientOptions struct {
	// Timeout bounds a whole request and must exceed the long poll timeout.
	Timeout      time.Duration
	DialTimeout  time.Duration
	RetryCount   int
	RetryBackoff time.Duration
}

func (o *HTTPClientOptions) applyDefaults() {
	if o.Timeout <= 0 {
		o.Timeout = time.Minute
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = 5 * time.Second
	}
	if o.RetryCount <= 0 {
		o.RetryCount = 3
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
}

// BuildHTTPClient returns the client used for Bot API calls.
func BuildHTTPClient(opts HTTPClientOptions) *http.Client {
	opts.applyDefaults()
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: opts.DialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   opts.DialTimeout,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: &retryTransport{base: transport, retries: opts.RetryCount, backoff: opts.RetryBackoff},
	}
}

// retryTransport repeats requests that never reached Telegram, waiting
// backoff*attempt between tries. A body that cannot be rewound gets one try.
type retryTransport struct {
	base    http.RoundTripper
	retries int
	backoff time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	tries := t.retries + 1
	if req.Body != nil && req.GetBody == nil {
		tries = 1
	}

	resp, err := base.RoundTrip(req)
	for attempt := 1; err != nil && attempt < tries && netutil.ShouldRetry(err); attempt++ {
		delay := t.backoff * time.Duration(attempt)
		logger.LogEvent(req.Context(), logger.TG, slog.LevelDebug, "tg.http.retry",
			slog.Int("attempts", attempt),
			slog.Duration("backoff", delay),
			slog.String("kind", netutil.Classify(err)),
		)
		if werr := wait(req.Context(), delay); werr != nil {
			return nil, werr
		}

		retry := req.Clone(req.Context())
		if req.GetBody != nil {
			body, berr := req.GetBody()
			if berr != nil {
				return nil, berr
			}
			retry.Body = body
		}
		resp, err = base.RoundTrip(retry)
	}
	return resp, err
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
