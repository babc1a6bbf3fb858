package transport

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"golang.org/x/net/idna"
)

// hostnames validates DNS names the way a resolver would accept them.
var hostnames = idna.New(
	idna.MapForLookup(),
	idna.VerifyDNSLength(true),
	idna.StrictDomainName(true),
	idna.CheckHyphens(true),
)

// Endpoint is a UDP server address.
type Endpoint struct {
	Host string
	Port int
}

func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// IsZero reports whether no endpoint is set.
func (e Endpoint) IsZero() bool {
	return e.Host == "" && e.Port == 0
}

// ValidHost reports whether host is an IP literal or a valid hostname.
func ValidHost(host string) bool {
	if host == "" || len(host) > 255 {
		return false
	}
	if net.ParseIP(host) != nil {
		return true
	}
	_, err := hostnames.ToASCII(strings.TrimSuffix(host, "."))
	return err == nil
}

// ValidPort reports whether port can address a UDP server.
func ValidPort(port int) bool {
	return port > 0 && port <= 65535
}

// ValidateEndpoint checks host and port before they reach the modem.
func ValidateEndpoint(host string, port int) error {
	if !ValidHost(host) {
		return fmt.Errorf("%w: server %q", ErrInvalidEndpoint, host)
	}
	if !ValidPort(port) {
		return fmt.Errorf("%w: port %d", ErrInvalidEndpoint, port)
	}
	return nil
}

// Validate checks e with ValidateEndpoint.
func (e Endpoint) Validate() error {
	return ValidateEndpoint(e.Host, e.Port)
}
