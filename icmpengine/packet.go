// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: tomc603-pinger listener_icmp.go (icmp.ParseMessage,
// ipv4/ipv6 ICMPTypeEchoReply handling).
//

package icmpengine

import (
	"crypto/rand"
	"errors"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// payloadSize is the number of random bytes carried by each probe.
const payloadSize = 10

// protoICMP and protoICMPv6 are the IANA protocol numbers icmp.ParseMessage
// needs to distinguish ICMPv4 from ICMPv6 message bodies.
const (
	protoICMP   = 1
	protoICMPv6 = 58
)

// ErrUnsupportedAddress is returned synchronously from [Engine.Ping] when
// the destination is neither a valid IPv4 nor IPv6 address.
var ErrUnsupportedAddress = errors.New("icmpengine: destination is neither IPv4 nor IPv6")

// newPayload draws payloadSize uniform random bytes, making accidental
// cross-probe collisions of the (sequence, payload) correlation key
// negligible.
func newPayload() ([payloadSize]byte, error) {
	var buf [payloadSize]byte
	_, err := rand.Read(buf[:])
	return buf, err
}

// encodeEcho builds an ICMP echo request datagram body. The kernel fills
// in identifier and checksum for dgram-ICMP sockets, so id is 0 here;
// proto selects the v4 (8/0) or v6 (128/0) echo request type.
func encodeEcho(proto int, seq uint16, payload [payloadSize]byte) ([]byte, error) {
	msgType := icmp.Type(ipv4.ICMPTypeEcho)
	if proto == protoICMPv6 {
		msgType = ipv6.ICMPTypeEchoRequest
	}
	msg := icmp.Message{
		Type: msgType,
		Code: 0,
		Body: &icmp.Echo{
			ID:   0,
			Seq:  int(seq),
			Data: payload[:],
		},
	}
	return msg.Marshal(nil)
}

// decodedReply is the parsed content of an inbound ICMP datagram relevant
// to reply correlation.
type decodedReply struct {
	isEcho   bool
	sequence uint16
	payload  []byte
}

// decodeReply parses an inbound datagram and reports whether it is an
// ECHO_REPLY (type 0 for v4, 129 for v6) with code 0. Any other message
// (including parse failures) is reported as !isEcho so the engine
// silently drops it.
func decodeReply(proto int, data []byte) decodedReply {
	msg, err := icmp.ParseMessage(proto, data)
	if err != nil {
		return decodedReply{}
	}
	if msg.Code != 0 {
		return decodedReply{}
	}
	switch msg.Type {
	case ipv4.ICMPTypeEchoReply, ipv6.ICMPTypeEchoReply:
	default:
		return decodedReply{}
	}
	echo, ok := msg.Body.(*icmp.Echo)
	if !ok {
		return decodedReply{}
	}
	return decodedReply{isEcho: true, sequence: uint16(echo.Seq), payload: echo.Data}
}
