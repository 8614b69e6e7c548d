package transport

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrInvalidParams is returned by ParseConnectURI for a URI missing the
// required moq:// scheme or otherwise malformed (§6).
var ErrInvalidParams = errors.New("transport: invalid connect uri")

const scheme = "moq://"

// ParseConnectURI parses a MoQT connect URI of the form
// "moq://host[:port]", where host may be an IPv4 literal, a
// bracketed IPv6 literal ("[::1]:443"), a bare hostname, or a raw
// (unbracketed) IPv6 literal with a trailing ":port" split off by the
// last colon (e.g. "moq://2001:db8:0:0:0:0:0:1:443" means host
// "2001:db8:0:0:0:0:0:1" port 443). An unbracketed remainder that
// itself parses as an IPv6 address, such as "fe80::1:443", is taken
// whole as the host with no port. A missing scheme fails with an error
// wrapping ErrInvalidParams.
func ParseConnectURI(uri string) (host string, port string, err error) {
	if !strings.HasPrefix(uri, scheme) {
		return "", "", fmt.Errorf("%w: missing moq:// scheme", ErrInvalidParams)
	}
	rest := strings.TrimPrefix(uri, scheme)
	if rest == "" {
		return "", "", fmt.Errorf("%w: empty host", ErrInvalidParams)
	}

	if strings.HasPrefix(rest, "[") {
		// Bracketed IPv6, e.g. "[fe80::1]:8080" or "[fe80::1]".
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return "", "", fmt.Errorf("%w: unterminated IPv6 bracket", ErrInvalidParams)
		}
		host = rest[1:end]
		remainder := rest[end+1:]
		if remainder == "" {
			return host, "", nil
		}
		if !strings.HasPrefix(remainder, ":") {
			return "", "", fmt.Errorf("%w: unexpected characters after bracketed host", ErrInvalidParams)
		}
		return host, remainder[1:], nil
	}

	colons := strings.Count(rest, ":")
	if colons <= 1 {
		// Hostname or IPv4, with at most one colon separating a port.
		h, p, ok := strings.Cut(rest, ":")
		if !ok {
			return rest, "", nil
		}
		return h, p, nil
	}

	// Multiple colons with no brackets: either a bare IPv6 literal with
	// no port, or a raw-IPv6-with-trailing-port form where the final
	// colon separates the port.
	if ip := net.ParseIP(rest); ip != nil {
		return rest, "", nil
	}
	idx := strings.LastIndexByte(rest, ':')
	return rest[:idx], rest[idx+1:], nil
}
