// SPDX-License-Identifier: GPL-3.0-or-later

package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/netprobe-dev/aionet/internal/netpipe"
)

// IndexSink posts JSON documents to an index-log endpoint
// (`POST {base}/{dataset}/_doc`), fire-and-forget. Failures are caught,
// traced via Logger, and dropped: they never propagate to the caller.
type IndexSink struct {
	base       string
	httpClient *http.Client
	logger     netpipe.SLogger

	wg sync.WaitGroup
}

// New returns an [IndexSink] posting to base.
func New(base string, logger netpipe.SLogger) *IndexSink {
	if logger == nil {
		logger = netpipe.DefaultSLogger()
	}
	cfg := netpipe.NewConfig()
	transport := netpipe.NewLoggingTransport(http.DefaultTransport, cfg, logger)
	return &IndexSink{
		base:   base,
		logger: logger,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   10 * time.Second,
		},
	}
}

// Post enqueues doc for fire-and-forget delivery to dataset; it returns
// immediately. The underlying HTTP request may complete after Post
// returns, and even after the caller's scope exits — see [IndexSink.Acquire].
func (s *IndexSink) Post(dataset string, doc any) {
	body, err := json.Marshal(doc)
	if err != nil {
		s.logger.Info("indexSinkMarshalFailed", "error", err.Error())
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.postNow(dataset, body)
	}()
}

func (s *IndexSink) postNow(dataset string, body []byte) {
	url := fmt.Sprintf("%s/%s/_doc", s.base, dataset)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		s.logger.Info("indexSinkRequestFailed", "error", err.Error())
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Info("indexSinkPostFailed", "error", err.Error())
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		s.logger.Info("indexSinkUnexpectedStatus", "status", resp.StatusCode)
	}
}

// Acquisition is a scoped handle over an [IndexSink]'s in-flight posts.
// Its Close method blocks until every post issued before or during the
// scope has drained.
type Acquisition struct {
	sink *IndexSink
}

// Acquire returns a drain-on-Close handle for s.
func (s *IndexSink) Acquire() *Acquisition {
	return &Acquisition{sink: s}
}

// Close blocks until all posts issued against the underlying sink have
// completed.
func (a *Acquisition) Close() error {
	a.sink.wg.Wait()
	return nil
}
