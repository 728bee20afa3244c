package songpal

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

var ErrInvalidEndpoint = errors.New("invalid endpoint")

// ParseEndpoint normalizes a device endpoint. A bare host (or host:port) is
// expanded to http://<host>:10000/sony; a port or path given by the user is
// kept. An empty port ("host:") counts as missing.
func ParseEndpoint(endpoint string) (*url.URL, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidEndpoint)
	}

	if !strings.Contains(endpoint, "://") {
		hostport, path, _ := strings.Cut(endpoint, "/")
		if path == "" {
			path = DEFAULT_PATH
		}
		host, port, err := net.SplitHostPort(hostport)
		if err != nil {
			hostport = net.JoinHostPort(strings.Trim(hostport, "[]"), DEFAULT_PORT)
		} else if port == "" {
			hostport = net.JoinHostPort(host, DEFAULT_PORT)
		}
		endpoint = fmt.Sprintf("http://%s/%s", hostport, path)
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEndpoint, err)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: no host in %q", ErrInvalidEndpoint, endpoint)
	}
	return u, nil
}
