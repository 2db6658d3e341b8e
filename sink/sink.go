// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: bassosimone-nop httpconn.go (logged HTTP round trips),
// generalized to a pair of per-outcome sink callbacks: a console renderer
// and an index-log sink with scoped acquisition and guaranteed drain.
// Sink failures are caught and dropped, never surfaced to the caller.
//

// Package sink implements the per-outcome progress renderer and the
// optional fire-and-forget index-log HTTP sink.
package sink

import (
	"fmt"
	"io"

	"github.com/netprobe-dev/aionet/icmpengine"
)

// ConsoleSink renders each terminal [icmpengine.Outcome] as a line of
// human-readable progress on Out, with an optional audible bell on
// success.
type ConsoleSink struct {
	Out     io.Writer
	Audible bool
	ShowIPs bool
	Quiet   bool
}

// NewConsoleSink returns a [ConsoleSink] writing to out.
func NewConsoleSink(out io.Writer) *ConsoleSink {
	return &ConsoleSink{Out: out}
}

// Record renders one probe outcome. Never returns an error: a rendering
// failure (e.g. a broken stdout pipe) is not allowed to disturb other
// probes.
func (s *ConsoleSink) Record(hostLabel string, o *icmpengine.Outcome) {
	if s.Quiet {
		return
	}

	switch o.Status {
	case icmpengine.StatusSuccess:
		fmt.Fprintf(s.Out, "reply from %s: host=%s seq=%d time=%s\n",
			o.Destination, hostLabel, o.Sequence, o.Elapsed())
	case icmpengine.StatusTimeout:
		fmt.Fprintf(s.Out, "timeout: host=%s seq=%d\n", hostLabel, o.Sequence)
	case icmpengine.StatusUnreachable:
		fmt.Fprintf(s.Out, "unreachable: host=%s seq=%d\n", hostLabel, o.Sequence)
	case icmpengine.StatusCanceled:
		fmt.Fprintf(s.Out, "canceled: host=%s seq=%d\n", hostLabel, o.Sequence)
	}

	if s.Audible && o.Status == icmpengine.StatusSuccess {
		fmt.Fprint(s.Out, "\a")
	}
}
