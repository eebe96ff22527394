package varlink

import (
	"net"
	"strings"

	"github.com/pkg/errors"
)

// AddressKind selects one of the three supported transports.
type AddressKind int

const (
	// KindTCP is a TCP host:port endpoint.
	KindTCP AddressKind = iota

	// KindUnix is a filesystem-path Unix domain socket.
	KindUnix

	// KindUnixAbstract is an abstract-namespace Unix domain socket,
	// which has no filesystem entity backing it.
	KindUnixAbstract
)

// Address is one parsed varlink endpoint. It is immutable after parsing.
type Address struct {
	Kind AddressKind

	// Host and Port are set for KindTCP.
	Host string
	Port string

	// Path is the socket path for KindUnix and the namespace name,
	// without the leading '@', for KindUnixAbstract.
	Path string
}

// ParseAddress parses "tcp:<host>:<port>", "unix:<path>" or
// "unix:@<name>". Parameters appended after ';' are ignored.
func ParseAddress(address string) (Address, error) {
	protocol, rest, ok := strings.Cut(address, ":")
	if !ok {
		return Address{}, errors.Wrapf(ErrInvalidAddress, "%q", address)
	}

	// Ignore parameters after ';'
	rest, _, _ = strings.Cut(rest, ";")

	switch protocol {
	case "tcp":
		host, port, err := net.SplitHostPort(rest)
		if err != nil {
			return Address{}, errors.Wrapf(ErrInvalidAddress, "%q", address)
		}
		return Address{Kind: KindTCP, Host: host, Port: port}, nil

	case "unix":
		if rest == "" || rest == "@" {
			return Address{}, errors.Wrapf(ErrInvalidAddress, "%q", address)
		}
		if name, ok := strings.CutPrefix(rest, "@"); ok {
			return Address{Kind: KindUnixAbstract, Path: name}, nil
		}
		return Address{Kind: KindUnix, Path: rest}, nil

	default:
		return Address{}, errors.Wrapf(ErrInvalidAddress, "%q", address)
	}
}

// Network returns the name the net package uses for this address kind.
func (a Address) Network() string {
	if a.Kind == KindTCP {
		return "tcp"
	}
	return "unix"
}

// String returns the dial and listen argument matching Network().
func (a Address) String() string {
	switch a.Kind {
	case KindTCP:
		return net.JoinHostPort(a.Host, a.Port)
	case KindUnixAbstract:
		return "@" + a.Path
	default:
		return a.Path
	}
}
