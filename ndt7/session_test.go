// SPDX-License-Identifier: GPL-3.0-or-later

package ndt7

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netprobe-dev/aionet/ndt7model"
)

// fakeAddr is a minimal net.Addr for tests that never dial a real socket.
type fakeAddr string

func (a fakeAddr) Network() string { return "tcp" }
func (a fakeAddr) String() string  { return string(a) }

// fakeWSConn is an in-process double for [wsConn] that lets a test script
// inbound messages and capture outbound ones without a real network.
type fakeWSConn struct {
	mu      sync.Mutex
	inbound []wsMessage
	sent    []wsMessage
	closed  bool
}

func (f *fakeWSConn) ReadMessage() (int, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for {
		if len(f.inbound) > 0 {
			m := f.inbound[0]
			f.inbound = f.inbound[1:]
			return m.messageType, m.data, nil
		}
		if f.closed {
			return 0, nil, websocket.ErrCloseSent
		}
		f.mu.Unlock()
		time.Sleep(time.Millisecond)
		f.mu.Lock()
	}
}

func (f *fakeWSConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := append([]byte(nil), data...)
	f.sent = append(f.sent, wsMessage{messageType: messageType, data: cp})
	return nil
}

func (f *fakeWSConn) SetReadDeadline(time.Time) error  { return nil }
func (f *fakeWSConn) SetWriteDeadline(time.Time) error { return nil }
func (f *fakeWSConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
func (f *fakeWSConn) LocalAddr() net.Addr        { return fakeAddr("127.0.0.1:1000") }
func (f *fakeWSConn) RemoteAddr() net.Addr       { return fakeAddr("127.0.0.1:2000") }
func (f *fakeWSConn) UnderlyingConn() net.Conn   { return nil }

func (f *fakeWSConn) textCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.sent {
		if m.messageType == websocket.TextMessage {
			n++
		}
	}
	return n
}

func TestHandleWebSocketDeadlineEndsSession(t *testing.T) {
	conn := &fakeWSConn{}
	ctx := context.Background()

	pairs := handleWebSocket(ctx, conn, DirectionUpload, RoleClient, 150*time.Millisecond)

	var got []Pair
	deadline := time.After(2 * time.Second)
loop:
	for {
		select {
		case p, ok := <-pairs:
			if !ok {
				break loop
			}
			got = append(got, p)
		case <-deadline:
			t.Fatal("handleWebSocket did not close its output channel in time")
		}
	}

	assert.NotEmpty(t, got, "expected at least one local measurement before the deadline")
	for _, p := range got {
		assert.Equal(t, DirectionUpload, p.Direction)
	}
}

func TestHandleWebSocketEmitsBulkFrames(t *testing.T) {
	conn := &fakeWSConn{}
	ctx := context.Background()

	pairs := handleWebSocket(ctx, conn, DirectionUpload, RoleClient, 150*time.Millisecond)
	for range pairs {
		// drain until the session ends on its own deadline
	}

	assert.Greater(t, conn.textCount(), 0)
	// A sender in the client/upload role must also have written binary
	// bulk frames.
	conn.mu.Lock()
	hasBinary := false
	for _, m := range conn.sent {
		if m.messageType == websocket.BinaryMessage {
			hasBinary = true
			break
		}
	}
	conn.mu.Unlock()
	assert.True(t, hasBinary)
}

func TestHandleWebSocketReceiverSynthesizesAppInfo(t *testing.T) {
	measurement := ndt7model.Measurement{Origin: ndt7model.OriginServer, Test: ndt7model.KindDownload}
	encoded, err := json.Marshal(measurement)
	require.NoError(t, err)

	conn := &fakeWSConn{inbound: []wsMessage{
		{messageType: websocket.TextMessage, data: encoded},
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()

	pairs := handleWebSocket(ctx, conn, DirectionDownload, RoleClient, 200*time.Millisecond)

	var sawPeer bool
	for p := range pairs {
		if p.Direction == DirectionDownload && p.Measurement.Origin == ndt7model.OriginServer {
			require.NotNil(t, p.Measurement.AppInfo)
			sawPeer = true
		}
	}
	assert.True(t, sawPeer)
}
