//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: https://github.com/bassosimone/nop httpconn.go and httpbody.go
//

package netpipe

import (
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// NewLoggingTransport wraps next with structured request/response logging.
//
// The cfg argument contains the common configuration for netpipe operations.
//
// The logger argument is the [SLogger] to use for structured logging.
func NewLoggingTransport(next http.RoundTripper, cfg *Config, logger SLogger) *LoggingTransport {
	return &LoggingTransport{
		ErrClassifier: cfg.ErrClassifier,
		Logger:        logger,
		Next:          next,
		TimeNow:       cfg.TimeNow,
	}
}

// LoggingTransport wraps an [http.RoundTripper] to log every round trip and
// to lazily log the response body's streaming lifecycle.
//
// All fields are safe to modify after construction but before first use.
// Fields must not be mutated concurrently with calls to [RoundTrip].
type LoggingTransport struct {
	// ErrClassifier classifies errors for structured logging.
	ErrClassifier ErrClassifier

	// Logger is the [SLogger] to use.
	Logger SLogger

	// Next is the underlying transport to invoke.
	Next http.RoundTripper

	// TimeNow is the function to get the current time (configurable for testing).
	TimeNow func() time.Time
}

var _ http.RoundTripper = &LoggingTransport{}

// RoundTrip implements [http.RoundTripper].
func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t0 := t.TimeNow()
	deadline, _ := req.Context().Deadline()

	t.Logger.Info(
		"httpRoundTripStart",
		slog.Time("deadline", deadline),
		slog.String("httpMethod", req.Method),
		slog.String("httpUrl", req.URL.String()),
		slog.Any("httpRequestHeaders", req.Header),
		slog.Time("t", t0),
	)

	resp, err := t.Next.RoundTrip(req)

	var statusCode int
	var headers http.Header
	if resp != nil {
		statusCode = resp.StatusCode
		headers = resp.Header
	}
	t.Logger.Info(
		"httpRoundTripDone",
		slog.Time("deadline", deadline),
		slog.Any("err", err),
		slog.String("errClass", t.ErrClassifier.Classify(err)),
		slog.String("httpMethod", req.Method),
		slog.String("httpUrl", req.URL.String()),
		slog.Any("httpResponseHeaders", headers),
		slog.Int("httpResponseStatusCode", statusCode),
		slog.Time("t0", t0),
		slog.Time("t", t.TimeNow()),
	)

	if err == nil && resp != nil && resp.Body != nil {
		resp.Body = t.wrapBody(resp.Body, req.URL.String())
	}
	return resp, err
}

func (t *LoggingTransport) wrapBody(body io.ReadCloser, url string) io.ReadCloser {
	return &loggingBody{
		body:     body,
		errClass: t.ErrClassifier,
		logger:   t.Logger,
		timeNow:  t.TimeNow,
		url:      url,
	}
}

// loggingBody lazily logs httpBodyStreamStart on the first Read and
// httpBodyStreamDone on Close (only if at least one Read happened).
type loggingBody struct {
	body      io.ReadCloser
	closeOnce sync.Once
	didRead   atomic.Bool
	errClass  ErrClassifier
	logger    SLogger
	readOnce  sync.Once
	t0        time.Time
	timeNow   func() time.Time
	url       string
}

var _ io.ReadCloser = &loggingBody{}

// Read implements [io.ReadCloser].
func (b *loggingBody) Read(buf []byte) (int, error) {
	b.readOnce.Do(func() {
		b.t0 = b.timeNow()
		b.didRead.Store(true)
		b.logger.Info("httpBodyStreamStart", slog.String("httpUrl", b.url), slog.Time("t", b.t0))
	})
	return b.body.Read(buf)
}

// Close implements [io.ReadCloser].
func (b *loggingBody) Close() (err error) {
	b.closeOnce.Do(func() {
		err = b.body.Close()
		if b.didRead.Load() {
			b.logger.Info(
				"httpBodyStreamDone",
				slog.Any("err", err),
				slog.String("errClass", b.errClass.Classify(err)),
				slog.String("httpUrl", b.url),
				slog.Time("t0", b.t0),
				slog.Time("t", b.timeNow()),
			)
		}
	})
	return
}
