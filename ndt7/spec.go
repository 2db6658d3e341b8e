// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: other_examples/43cf5e08_nosnilmot-ndt-server__ndt7-upload-sender-sender.go.go
// (NDT7 protocol constants/timing).
//

// Package ndt7 implements the NDT7 Network Diagnostic Test session
// machine: a single download or upload test driven over a WebSocket,
// producing a lazy sequence of (direction, Measurement) pairs from
// either the client or server role.
package ndt7

import "time"

// Subprotocol is the WebSocket subprotocol negotiated by both roles.
const Subprotocol = "net.measurementlab.ndt.v7"

// MaxMessageSize is the maximum WebSocket message size, 2^24 bytes.
const MaxMessageSize = 1 << 24

// minMessageSize is the sender's initial payload size, 2^13 bytes.
const minMessageSize = 1 << 13

// DefaultMaxDuration is the default session duration.
const DefaultMaxDuration = 13 * time.Second

// measurementInterval is the sender's measurement cadence.
const measurementInterval = 100 * time.Millisecond

// UserAgent identifies this implementation in the WebSocket handshake.
const UserAgent = "aionet/ndt7"

// Direction names which data-flow direction a Measurement describes.
type Direction string

const (
	DirectionDownload Direction = "download"
	DirectionUpload   Direction = "upload"
)

// Role names which side of the session this process is playing.
type Role string

const (
	RoleClient Role = "client"
	RoleServer Role = "server"
)

// downloadPath and uploadPath are the HTTP-upgrade paths the server
// recognizes.
const (
	downloadPath = "/ndt/v7/download"
	uploadPath   = "/ndt/v7/upload"
)

// pathForDirection returns the HTTP-upgrade path for direction.
func pathForDirection(d Direction) string {
	if d == DirectionUpload {
		return uploadPath
	}
	return downloadPath
}

// directionForPath returns the Direction a path maps to and whether the
// path is recognized at all; any other path falls through to 404.
func directionForPath(path string) (Direction, bool) {
	switch path {
	case downloadPath:
		return DirectionDownload, true
	case uploadPath:
		return DirectionUpload, true
	default:
		return "", false
	}
}

// senderRole reports which role sends bulk data for direction: client for
// upload, server for download.
func senderRole(d Direction) Role {
	if d == DirectionUpload {
		return RoleClient
	}
	return RoleServer
}

// localMeasurementDirection is the direction tag attached to a
// Measurement this process produces locally: upload for client, download
// for server.
func localMeasurementDirection(role Role) Direction {
	if role == RoleClient {
		return DirectionUpload
	}
	return DirectionDownload
}

// peerMeasurementDirection is the direction tag attached to a Measurement
// received from the peer: download for client, upload for server.
func peerMeasurementDirection(role Role) Direction {
	if role == RoleClient {
		return DirectionDownload
	}
	return DirectionUpload
}
