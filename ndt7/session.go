// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: other_examples/43cf5e08_nosnilmot-ndt-server__ndt7-upload-sender-sender.go.go
// (sender loop structure) and other_examples/be853b02_mdlayher-icmpx__echo-client.go.go
// (errgroup.WithContext cancellation-group pattern).
//

package ndt7

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"net"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/netprobe-dev/aionet/ndt7model"
	"github.com/netprobe-dev/aionet/tcpinfo"
)

// Pair is one (measurement_direction, Measurement) element of the lazy
// sequence handleWebSocket produces.
type Pair struct {
	Direction   Direction
	Measurement ndt7model.Measurement
}

// wsConn is the subset of *websocket.Conn the session machine needs;
// narrowed for testability with an in-process fake.
type wsConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
	LocalAddr() net.Addr
	RemoteAddr() net.Addr
	UnderlyingConn() net.Conn
}

var _ wsConn = (*websocket.Conn)(nil)

// handleWebSocket runs one download or upload test to completion over conn
// in the given role. The returned channel is finite and non-restartable:
// it yields every local and peer Measurement observed, tagged with the
// direction of data flow it describes, then closes.
func handleWebSocket(ctx context.Context, conn wsConn, direction Direction, role Role, maxDuration time.Duration) <-chan Pair {
	if maxDuration <= 0 {
		maxDuration = DefaultMaxDuration
	}

	out := make(chan Pair)
	start := time.Now()

	ctx, cancel := context.WithCancel(ctx)
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error { return runSender(egCtx, conn, direction, role, start, out) })
	eg.Go(func() error { return runReceiver(egCtx, conn, role, start, out) })
	eg.Go(func() error { return runDeadline(egCtx, maxDuration) })

	go func() {
		_ = eg.Wait()
		cancel()
		close(out)
	}()

	return out
}

func runDeadline(ctx context.Context, maxDuration time.Duration) error {
	timer := time.NewTimer(maxDuration)
	defer timer.Stop()
	select {
	case <-timer.C:
		return errSessionDeadline
	case <-ctx.Done():
		return nil
	}
}

// errSessionDeadline signals the deadline activity fired; the three
// concurrent activities share the cancellation group and this error does
// not propagate to the caller as a failure.
var errSessionDeadline = errors.New("ndt7: session deadline reached")

func runSender(ctx context.Context, conn wsConn, direction Direction, role Role, start time.Time, out chan<- Pair) error {
	sendBulk := senderRole(direction) == role
	localDir := localMeasurementDirection(role)

	var buf []byte
	var bytesTransferred int64
	if sendBulk {
		var err error
		buf, err = randomBuffer(minMessageSize)
		if err != nil {
			return err
		}
	}

	ticker := time.NewTicker(measurementInterval)
	defer ticker.Stop()

	emitMeasurement := func() error {
		m := buildMeasurement(conn, direction, role, start, bytesTransferred)
		encoded, err := json.Marshal(m)
		if err != nil {
			return err
		}
		if err := conn.WriteMessage(websocket.TextMessage, encoded); err != nil {
			return err
		}
		if !emit(ctx, out, Pair{Direction: localDir, Measurement: m}) {
			return errSessionCanceled
		}
		return nil
	}

	if !sendBulk {
		// Receiver-only role: nothing to send but the periodic measurement
		// frame, so block on the tick instead of busy-looping.
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := emitMeasurement(); err != nil {
					if errors.Is(err, errSessionCanceled) {
						return nil
					}
					return err
				}
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := emitMeasurement(); err != nil {
				if errors.Is(err, errSessionCanceled) {
					return nil
				}
				return err
			}
		default:
			if len(buf) < MaxMessageSize && int64(len(buf)) < bytesTransferred/16 {
				buf = growBuffer(buf)
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, buf); err != nil {
				return err
			}
			bytesTransferred += int64(len(buf))
		}
	}
}

// errSessionCanceled signals emitMeasurement's send-on-channel was aborted
// by context cancellation; it is handled locally and never escapes runSender.
var errSessionCanceled = errors.New("ndt7: session canceled")

func runReceiver(ctx context.Context, conn wsConn, role Role, start time.Time, out chan<- Pair) error {
	peerDir := peerMeasurementDirection(role)
	var bytesTransferred int64

	errCh := make(chan error, 1)
	msgCh := make(chan wsMessage, 1)
	go pumpMessages(conn, msgCh, errCh)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			return err
		case msg := <-msgCh:
			switch msg.messageType {
			case websocket.BinaryMessage:
				bytesTransferred += int64(len(msg.data))
			case websocket.TextMessage:
				var m ndt7model.Measurement
				if err := json.Unmarshal(msg.data, &m); err != nil {
					return err
				}
				if m.AppInfo == nil {
					m.AppInfo = &ndt7model.AppInfo{
						ElapsedTime: time.Since(start).Microseconds(),
						NumBytes:    bytesTransferred,
					}
				}
				if !emit(ctx, out, Pair{Direction: peerDir, Measurement: m}) {
					return nil
				}
			}
		}
	}
}

type wsMessage struct {
	messageType int
	data        []byte
}

func pumpMessages(conn wsConn, msgCh chan<- wsMessage, errCh chan<- error) {
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			errCh <- err
			return
		}
		msgCh <- wsMessage{messageType: mt, data: data}
	}
}

func emit(ctx context.Context, out chan<- Pair, p Pair) bool {
	select {
	case out <- p:
		return true
	case <-ctx.Done():
		return false
	}
}

func buildMeasurement(conn wsConn, direction Direction, role Role, start time.Time, bytesTransferred int64) ndt7model.Measurement {
	m := ndt7model.Measurement{
		Origin: ndt7model.Origin(role),
		Test:   ndt7model.Kind(direction),
		AppInfo: &ndt7model.AppInfo{
			ElapsedTime: time.Since(start).Microseconds(),
			NumBytes:    bytesTransferred,
		},
	}

	if role == RoleServer {
		m.ConnectionInfo = &ndt7model.ConnectionInfo{
			Client: formatAddr(conn.RemoteAddr()),
			Server: formatAddr(conn.LocalAddr()),
		}
	}

	if sc, ok := conn.UnderlyingConn().(interface {
		SyscallConn() (syscall.RawConn, error)
	}); ok {
		if info, err := tcpinfo.Read(sc); err == nil {
			m.TCPInfo = &ndt7model.TCPInfo{
				BusyTime:      int64(info.BusyTime),
				BytesAcked:    int64(info.BytesAcked),
				BytesReceived: int64(info.BytesReceived),
				BytesSent:     int64(info.BytesSent),
				BytesRetrans:  int64(info.BytesRetrans),
				ElapsedTime:   time.Since(start).Microseconds(),
				MinRTT:        int64(info.MinRTT),
				RTT:           int64(info.RTT),
				RTTVar:        int64(info.RTTVar),
				RWndLimited:   int64(info.RWndLimited),
				SndBufLimited: int64(info.SndBufLimited),
			}
		}
	}

	return m
}

func formatAddr(addr net.Addr) string {
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return net.JoinHostPort(host, port)
}

func randomBuffer(size int) ([]byte, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func growBuffer(buf []byte) []byte {
	size := len(buf) * 2
	if size > MaxMessageSize {
		size = MaxMessageSize
	}
	grown := make([]byte, size)
	copy(grown, buf)
	return grown
}
