// SPDX-License-Identifier: GPL-3.0-or-later

// Package netpipe provides observed HTTP transport primitives shared by
// this module's network clients.
//
// # Available Primitives
//
//   - [LoggingTransport]: wraps an [http.RoundTripper] to log request/response
//     pairs and classify transport errors via [ErrClassifier]
//   - [Config]: pre-wires an [ErrClassifier] and a time source for
//     constructors that need them
//
// # Observability
//
// Primitives log via [SLogger] (satisfied by [log/slog.Logger]) at Info
// level: one pair of events per round trip (start/done) and, for streamed
// response bodies, a second pair bracketing the first read and the close.
package netpipe
