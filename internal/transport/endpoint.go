package transport

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Endpoint is a parsed scheme://host:port address.
type Endpoint struct {
	Scheme string
	Host   string
	Port   int
	Path   string
}

// ParseEndpoint parses an endpoint string.
//
// A missing scheme defaults to tcp, so "*:5555" and "tcp://*:5555" are the same.
// An optional path is kept for schemes that use one (ws://host:port/ws/).
func ParseEndpoint(s string) (Endpoint, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Endpoint{}, fmt.Errorf("%w: empty", ErrInvalidEndpoint)
	}

	scheme := "tcp"
	if i := strings.Index(raw, "://"); i >= 0 {
		scheme = strings.ToLower(raw[:i])
		raw = raw[i+3:]
	}

	path := ""
	if i := strings.Index(raw, "/"); i >= 0 {
		path = raw[i:]
		raw = raw[:i]
	}

	host, portStr, err := net.SplitHostPort(raw)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: %q: %w", ErrInvalidEndpoint, s, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return Endpoint{}, fmt.Errorf("%w: %q: bad port %q", ErrInvalidEndpoint, s, portStr)
	}

	return Endpoint{Scheme: scheme, Host: host, Port: port, Path: path}, nil
}

// AllInterfaces reports whether the host means "listen on every interface".
func (e Endpoint) AllInterfaces() bool {
	return e.Host == "*" || e.Host == "" || e.Host == "0.0.0.0"
}

// HostPort returns host:port with "*" replaced by 0.0.0.0, suitable for net.Listen.
func (e Endpoint) HostPort() string {
	host := e.Host
	if e.AllInterfaces() {
		host = "0.0.0.0"
	}
	return net.JoinHostPort(host, strconv.Itoa(e.Port))
}

// String returns the normalised endpoint, including any path.
func (e Endpoint) String() string {
	return e.Scheme + "://" + e.HostPort() + e.Path
}
