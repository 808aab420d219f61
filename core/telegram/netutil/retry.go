package netutil

import (
	"errors"
	"net"
	"net/url"
)

// ShouldRetry reports whether a failed Bot API request can be safely resent.
// Only failures that happen before the request leaves the host qualify:
// dial errors and DNS lookups. Anything later may already have produced a
// visible side effect in Telegram, so it is never retried.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil && !errors.Is(urlErr.Err, err) {
		return ShouldRetry(urlErr.Err)
	}
	return false
}
