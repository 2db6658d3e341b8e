// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: bassosimone-nop errclassifier.go's ErrClassifierFunc(errclass.New)
// doc comment, which names this exact function without shipping its body.
//

// Package errclass maps network errors to short, stable labels suitable
// for structured logging and for aggregating failure counts across runs.
package errclass

import (
	"context"
	"errors"
	"net"
	"os"
	"syscall"
)

// New classifies err into a short label. It returns the empty string
// when err is nil, and "unknown" when no known cause matches.
func New(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, context.Canceled):
		return "EOWNCANCELLED"
	case errors.Is(err, context.DeadlineExceeded):
		return "ETIMEDOUT"
	case errors.Is(err, net.ErrClosed):
		return "ECONNCLOSED"
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		if label, ok := classifyErrno(errno); ok {
			return label
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		switch {
		case dnsErr.IsNotFound:
			return "EDNSNOTFOUND"
		case dnsErr.IsTimeout:
			return "ETIMEDOUT"
		default:
			return "EDNSOTHER"
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "ETIMEDOUT"
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		if label, ok := classifyErrno(pathErr.Err); ok {
			return label
		}
	}

	return "unknown"
}

func classifyErrno(err error) (string, bool) {
	switch {
	case errors.Is(err, errEADDRNOTAVAIL):
		return "EADDRNOTAVAIL", true
	case errors.Is(err, errEADDRINUSE):
		return "EADDRINUSE", true
	case errors.Is(err, errECONNABORTED):
		return "ECONNABORTED", true
	case errors.Is(err, errECONNREFUSED):
		return "ECONNREFUSED", true
	case errors.Is(err, errECONNRESET):
		return "ECONNRESET", true
	case errors.Is(err, errEHOSTUNREACH):
		return "EHOSTUNREACH", true
	case errors.Is(err, errEINVAL):
		return "EINVAL", true
	case errors.Is(err, errEINTR):
		return "EINTR", true
	case errors.Is(err, errENETDOWN):
		return "ENETDOWN", true
	case errors.Is(err, errENETUNREACH):
		return "ENETUNREACH", true
	case errors.Is(err, errENOBUFS):
		return "ENOBUFS", true
	case errors.Is(err, errENOTCONN):
		return "ENOTCONN", true
	case errors.Is(err, errEPROTONOSUPPORT):
		return "EPROTONOSUPPORT", true
	case errors.Is(err, errETIMEDOUT):
		return "ETIMEDOUT", true
	default:
		return "", false
	}
}
