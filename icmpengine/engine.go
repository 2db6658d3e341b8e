// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: tomc603-pinger listener_icmp.go (per-family dgram-ICMP
// reader goroutines), generalized into a single-writer pending map served
// by one cooperative engine-loop goroutine.
//

package icmpengine

import (
	"context"
	"log/slog"
	"net"
	"net/netip"
	"sync"
	"time"

	"golang.org/x/net/icmp"

	"github.com/netprobe-dev/aionet/internal/netpipe"
)

// defaultTimeout is the per-probe timeout used when [PingOptions.Timeout]
// is zero.
const defaultTimeout = 1 * time.Second

// Config holds common configuration for an [Engine], following the
// Config/NewConfig() pattern of bassosimone-nop config.go.
type Config struct {
	// Logger receives lifecycle (Info) and per-packet (Debug) events.
	Logger netpipe.SLogger

	// TimeNow returns the current time (overridable in tests).
	TimeNow func() time.Time

	// RecvQueueSize bounds the channel used to hand decoded replies from
	// the per-family reader goroutines to the engine loop.
	RecvQueueSize int
}

// NewConfig returns a [Config] with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Logger:        netpipe.DefaultSLogger(),
		TimeNow:       time.Now,
		RecvQueueSize: 64,
	}
}

// pendingKey is the (sequence, payload) correlation key used to match an
// inbound ECHO_REPLY to its outstanding probe.
type pendingKey struct {
	sequence uint16
	payload  [payloadSize]byte
}

type pendingProbe struct {
	outcome  *Outcome
	timer    *time.Timer
	resultCh chan *Outcome
}

type recvEvent struct {
	reply decodedReply
}

// Engine is a single-process asynchronous ICMP probe/response multiplexer
// spanning both IPv4 and IPv6.
//
// Engine exclusively owns its two sockets and its pending-ping map; probes
// are written synchronously from the engine loop, with no separate send
// queue. All mutable state is touched only by the single
// engine-loop goroutine; callers interact through channels.
type Engine struct {
	cfg *Config

	connV4 *icmp.PacketConn
	connV6 *icmp.PacketConn

	reqCh     chan *pingRequest
	recvCh    chan recvEvent
	timeoutCh chan pendingKey
	closeCh   chan struct{}
	closeOnce sync.Once
	doneCh    chan struct{}

	wg sync.WaitGroup
}

type pingRequest struct {
	dest     netip.Addr
	timeout  time.Duration
	labels   Labels
	resultCh chan *Outcome
}

// PingOptions configures a single [Engine.Ping] call.
type PingOptions struct {
	// Timeout is the per-probe timeout; zero means [defaultTimeout].
	Timeout time.Duration

	// Labels attaches arbitrary out-of-band fields to the outcome.
	Labels Labels
}

// New creates and starts an [Engine] listening on a dgram-ICMP socket per
// family ("udp4"/"udp6" network — the kernel fills in the ICMP identifier
// and checksum, so no raw-socket privilege is required).
func New(cfg *Config) (*Engine, error) {
	if cfg == nil {
		cfg = NewConfig()
	}

	connV4, errV4 := icmp.ListenPacket("udp4", "0.0.0.0")
	if errV4 != nil {
		return nil, errV4
	}
	connV6, errV6 := icmp.ListenPacket("udp6", "::")
	if errV6 != nil {
		connV4.Close()
		return nil, errV6
	}

	e := &Engine{
		cfg:       cfg,
		connV4:    connV4,
		connV6:    connV6,
		reqCh:     make(chan *pingRequest),
		recvCh:    make(chan recvEvent, cfg.RecvQueueSize),
		timeoutCh: make(chan pendingKey),
		closeCh:   make(chan struct{}),
		doneCh:    make(chan struct{}),
	}

	e.wg.Add(3)
	go e.readLoop(connV4, protoICMP)
	go e.readLoop(connV6, protoICMPv6)
	go e.engineLoop()

	return e, nil
}

// Handle is a completion handle for one in-flight probe; it completes
// exactly once with the terminal [Outcome].
type Handle struct {
	ch chan *Outcome
}

// Wait blocks until the probe completes or ctx is done.
func (h *Handle) Wait(ctx context.Context) (*Outcome, error) {
	select {
	case o := <-h.ch:
		return o, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Ping issues one ECHO_REQUEST to dest and returns a [Handle] that
// completes exactly once with the terminal [Outcome].
//
// Returns [ErrUnsupportedAddress] synchronously if dest is neither a
// valid IPv4 nor IPv6 address.
func (e *Engine) Ping(ctx context.Context, dest netip.Addr, opts PingOptions) (*Handle, error) {
	if !dest.IsValid() || (!dest.Is4() && !dest.Is4In6() && !dest.Is6()) {
		return nil, ErrUnsupportedAddress
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	req := &pingRequest{
		dest:     dest,
		timeout:  timeout,
		labels:   opts.Labels,
		resultCh: make(chan *Outcome, 1),
	}

	select {
	case e.reqCh <- req:
		return &Handle{ch: req.resultCh}, nil
	case <-e.closeCh:
		return nil, net.ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close shuts down the engine: it deregisters the read loops, closes both
// sockets, and transitions every still-pending outcome to Canceled.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		close(e.closeCh)
		e.connV4.Close()
		e.connV6.Close()
	})
	<-e.doneCh
	e.wg.Wait()
	return nil
}

func (e *Engine) readLoop(conn *icmp.PacketConn, proto int) {
	defer e.wg.Done()
	buf := make([]byte, 1500)
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			return // socket closed: engine shutting down
		}
		reply := decodeReply(proto, buf[:n])
		if !reply.isEcho {
			continue
		}
		select {
		case e.recvCh <- recvEvent{reply: reply}:
		case <-e.closeCh:
			return
		}
	}
}

// engineLoop is the sole owner and sole mutator of the pending map and the
// per-family send path: a single-threaded cooperative event loop rendered
// as one goroutine fed by channels (requests, replies, timeouts, close).
func (e *Engine) engineLoop() {
	defer e.wg.Done()
	defer close(e.doneCh)

	pending := make(map[pendingKey]*pendingProbe)
	var seq uint16

	complete := func(key pendingKey, status Status) {
		p, ok := pending[key]
		if !ok {
			return
		}
		delete(pending, key)
		p.timer.Stop()
		p.outcome.End = e.cfg.TimeNow()
		p.outcome.Status = status
		p.resultCh <- p.outcome
		e.cfg.Logger.Info("probeComplete",
			slog.String("status", status.String()),
			slog.String("destination", p.outcome.Destination.String()),
			slog.Uint64("sequence", uint64(key.sequence)),
		)
	}

	for {
		select {
		case req := <-e.reqCh:
			seq++
			payload, err := newPayload()
			if err != nil {
				req.resultCh <- &Outcome{
					Destination: req.dest,
					Start:       e.cfg.TimeNow(),
					End:         e.cfg.TimeNow(),
					Status:      StatusUnreachable,
					WallClock:   e.cfg.TimeNow(),
					Labels:      req.labels,
				}
				continue
			}

			now := e.cfg.TimeNow()
			key := pendingKey{sequence: seq, payload: payload}
			outcome := &Outcome{
				Destination: req.dest,
				Sequence:    seq,
				Payload:     payload,
				Start:       now,
				Status:      StatusPending,
				WallClock:   now,
				Labels:      req.labels,
			}

			timer := time.AfterFunc(req.timeout, func() {
				select {
				case e.timeoutCh <- key:
				case <-e.closeCh:
				}
			})
			pending[key] = &pendingProbe{outcome: outcome, timer: timer, resultCh: req.resultCh}

			proto := protoICMP
			if req.dest.Is6() && !req.dest.Is4In6() {
				proto = protoICMPv6
			}
			data, encErr := encodeEcho(proto, seq, payload)
			var sendErr error
			if encErr != nil {
				sendErr = encErr
			} else if proto == protoICMP {
				_, sendErr = e.connV4.WriteTo(data, &net.UDPAddr{IP: req.dest.AsSlice()})
			} else {
				_, sendErr = e.connV6.WriteTo(data, &net.UDPAddr{IP: req.dest.AsSlice()})
			}
			if sendErr != nil {
				complete(key, StatusUnreachable)
				continue
			}
			e.cfg.Logger.Debug("probeSent",
				slog.String("destination", req.dest.String()),
				slog.Uint64("sequence", uint64(seq)),
			)

		case ev := <-e.recvCh:
			var key pendingKey
			key.sequence = ev.reply.sequence
			if len(ev.reply.payload) == payloadSize {
				copy(key.payload[:], ev.reply.payload)
			}
			complete(key, StatusSuccess)

		case key := <-e.timeoutCh:
			complete(key, StatusTimeout)

		case <-e.closeCh:
			for key := range pending {
				complete(key, StatusCanceled)
			}
			return
		}
	}
}
