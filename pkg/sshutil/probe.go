package sshutil

import (
	stderrors "errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// ProbeFailReason categorizes why a reachability probe failed.
type ProbeFailReason int

const (
	ProbeFailUnknown ProbeFailReason = iota
	ProbeFailTimeout
	ProbeFailRefused
	ProbeFailUnreachable
	ProbeFailDNS
)

func (r ProbeFailReason) String() string {
	switch r {
	case ProbeFailTimeout:
		return "connection timed out"
	case ProbeFailRefused:
		return "connection refused"
	case ProbeFailUnreachable:
		return "host unreachable"
	case ProbeFailDNS:
		return "host not found"
	default:
		return "unknown error"
	}
}

// Suggestion returns a next step for the failure reason.
func (r ProbeFailReason) Suggestion() string {
	switch r {
	case ProbeFailTimeout:
		return "Host might be offline or blocked by a firewall."
	case ProbeFailRefused:
		return "Is SSH running on that box? Check sshd and the port."
	case ProbeFailUnreachable:
		return "Can't route to the host. Check your network connection."
	case ProbeFailDNS:
		return "Check the hostname, or add it to ~/.ssh/config."
	default:
		return "Make sure the host is reachable: ping <host>"
	}
}

// ProbeError is a failed reachability probe with a categorized reason.
type ProbeError struct {
	Address string
	Reason  ProbeFailReason
	Cause   error
}

func (e *ProbeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("probe %s failed: %s (%v)", e.Address, e.Reason, e.Cause)
	}
	return fmt.Sprintf("probe %s failed: %s", e.Address, e.Reason)
}

func (e *ProbeError) Unwrap() error {
	return e.Cause
}

// ProbeTCP opens and immediately closes a TCP connection to address
// (host:port), returning the time it took.
func ProbeTCP(address string, timeout time.Duration) (time.Duration, error) {
	start := time.Now()

	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return 0, categorizeProbeError(address, err)
	}
	_ = conn.Close()

	return time.Since(start), nil
}

func categorizeProbeError(address string, err error) *ProbeError {
	if err == nil {
		return nil
	}

	probeErr := &ProbeError{Address: address, Reason: ProbeFailUnknown, Cause: err}
	errStr := strings.ToLower(err.Error())

	var dnsErr *net.DNSError
	switch {
	case stderrors.As(err, &dnsErr) && dnsErr.IsNotFound:
		probeErr.Reason = ProbeFailDNS
	case strings.Contains(errStr, "timeout"):
		probeErr.Reason = ProbeFailTimeout
	case strings.Contains(errStr, "connection refused"):
		probeErr.Reason = ProbeFailRefused
	case strings.Contains(errStr, "no route to host"),
		strings.Contains(errStr, "network is unreachable"),
		strings.Contains(errStr, "host is down"):
		probeErr.Reason = ProbeFailUnreachable
	case strings.Contains(errStr, "no such host"):
		probeErr.Reason = ProbeFailDNS
	}

	return probeErr
}
