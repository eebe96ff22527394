package varlink

import (
	"bufio"
	"context"
	"io"
	"net"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// ResolverAddress is the well-known address of the varlink interface
// resolver, it translates varlink interface names to varlink service
// addresses.
const ResolverAddress = "unix:/run/org.varlink.resolver"

// Dialer is the subset of net.Dialer a Connection needs. Custom dialers
// can route the varlink stream through arbitrary transports.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Connection is a connection from a client to a service.
type Connection struct {
	address Address
	conn    net.Conn
	reader  *bufio.Reader
	writer  *bufio.Writer

	closeOnce sync.Once
	closeErr  error
}

// NewConnection returns a new connection to the given address.
func NewConnection(ctx context.Context, address string) (*Connection, error) {
	return NewConnectionWithDialer(ctx, address, &net.Dialer{})
}

// NewConnectionWithDialer returns a new connection to the given address,
// established through the given dialer.
func NewConnectionWithDialer(ctx context.Context, address string, dialer Dialer) (*Connection, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return nil, err
	}

	conn, err := dialer.DialContext(ctx, addr.Network(), addr.String())
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", address)
	}

	return &Connection{
		address: addr,
		conn:    conn,
		reader:  bufio.NewReader(conn),
		writer:  bufio.NewWriter(conn),
	}, nil
}

// clientReply is the wire shape of a reply as the client decodes it.
type clientReply struct {
	Parameters *jsoniter.RawMessage `json:"parameters,omitempty"`
	Continues  bool                 `json:"continues,omitempty"`
	Error      string               `json:"error,omitempty"`
}

// Receiver iterates over the replies to one method call. The first
// Receive writes the framed request, once, and blocks for the first
// reply. A more call yields replies until one arrives without the
// continues flag; any other call yields at most one. An exhausted or
// abandoned receiver is dead, there is no restart. The receiver holds
// the connection's reply stream; serializing concurrent calls on one
// connection is the caller's responsibility.
type Receiver struct {
	conn    *Connection
	request *Request
	sent    bool
	done    bool
}

// Send starts the method call described by method, parameters and flags
// and returns its reply iterator. Nothing is written before the first
// Receive.
func (c *Connection) Send(method string, parameters interface{}, flags uint64) (*Receiver, error) {
	var raw *jsoniter.RawMessage

	if parameters != nil {
		b, err := json.Marshal(parameters)
		if err != nil {
			return nil, &SerializationError{Kind: SerializationOther, err: err}
		}
		m := jsoniter.RawMessage(b)
		raw = &m
	}

	return &Receiver{
		conn: c,
		request: &Request{
			Method:     method,
			Parameters: raw,
			More:       flags&More != 0,
			Oneway:     flags&Oneway != 0,
			Upgrade:    flags&Upgrade != 0,
		},
	}, nil
}

// Receive advances the iterator by one reply, decoding its parameters
// into out. It reports whether further replies follow. Exhaustion is
// signaled with io.EOF; for a oneway call the first Receive writes the
// request and is immediately exhausted, without ever reading.
func (r *Receiver) Receive(out interface{}) (continues bool, err error) {
	if r.done {
		return false, io.EOF
	}

	if !r.sent {
		if err := writeMessage(r.conn.writer, r.request); err != nil {
			r.done = true
			return false, closedConnError(err)
		}
		r.sent = true

		if r.request.Oneway {
			r.done = true
			return false, io.EOF
		}
	}

	frame, err := readMessage(r.conn.reader)
	if err != nil {
		r.done = true
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return false, errors.Wrap(ErrConnectionClosed, "reply stream ended")
		}
		return false, closedConnError(err)
	}

	var reply clientReply
	if err := decodeMessage(frame, &reply); err != nil {
		r.done = true
		return false, err
	}

	if !reply.Continues {
		r.done = true
	}

	if reply.Error != "" {
		// An error reply is terminal, whatever its continues flag claims.
		r.done = true
		if !strings.Contains(reply.Error, ".") {
			return false, &UnrecognizedReplyError{Reply: &Reply{Error: reply.Error, Continues: reply.Continues}}
		}
		verr := &Error{Name: reply.Error}
		if reply.Parameters != nil {
			verr.Parameters = []byte(*reply.Parameters)
		}
		return false, verr
	}

	if reply.Continues && !r.request.More {
		return false, &UnrecognizedReplyError{Reply: &Reply{Continues: true}}
	}

	if out != nil && reply.Parameters != nil {
		if err := decodeMessage(*reply.Parameters, out); err != nil {
			return false, err
		}
	}

	return reply.Continues, nil
}

// Call sends a method call and decodes the single reply into out.
func (c *Connection) Call(method string, parameters interface{}, out interface{}) error {
	r, err := c.Send(method, parameters, 0)
	if err != nil {
		return err
	}

	_, err = r.Receive(out)
	return err
}

// ServiceInfo holds the answer of an org.varlink.service.GetInfo call.
type ServiceInfo struct {
	Vendor     string   `json:"vendor,omitempty"`
	Product    string   `json:"product,omitempty"`
	Version    string   `json:"version,omitempty"`
	Url        string   `json:"url,omitempty"`
	Interfaces []string `json:"interfaces,omitempty"`
}

// GetInfo requests the service's identification and interface list.
func (c *Connection) GetInfo(info *ServiceInfo) error {
	return c.Call("org.varlink.service.GetInfo", nil, info)
}

// GetInterfaceDescription requests the description text of a single
// interface implemented by the service.
func (c *Connection) GetInterfaceDescription(name string) (string, error) {
	var out struct {
		Description string `json:"description,omitempty"`
	}

	err := c.Call("org.varlink.service.GetInterfaceDescription", getInterfaceDescription_In{Interface: name}, &out)
	return out.Description, err
}

// Raw exposes the underlying byte stream once a call made with the
// Upgrade flag has received its final reply. The varlink framing no
// longer applies; the reader may still hold buffered bytes.
func (c *Connection) Raw() *bufio.ReadWriter {
	return bufio.NewReadWriter(c.reader, c.writer)
}

// Close terminates the connection, failing any blocked call on it.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
