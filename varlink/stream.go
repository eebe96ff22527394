package varlink

import (
	"bufio"
	"net"
	"sync"

	"github.com/pkg/errors"
)

// stream is one accepted connection. Both transports behave uniformly
// behind it.
type stream struct {
	conn net.Conn

	shutdownOnce sync.Once
	shutdownErr  error
}

func newStream(conn net.Conn) *stream {
	return &stream{conn: conn}
}

// split returns the read and the write half of the stream. The halves
// reference the same connection and are safe to use concurrently with
// each other; concurrent use of one half is the caller's business.
func (s *stream) split() (*bufio.Reader, *bufio.Writer) {
	return bufio.NewReader(s.conn), bufio.NewWriter(s.conn)
}

// shutdown closes both directions. A blocked read or write on either
// half fails afterwards. Idempotent.
func (s *stream) shutdown() error {
	s.shutdownOnce.Do(func() {
		s.shutdownErr = s.conn.Close()
	})
	return s.shutdownErr
}

// closedConnError maps the net package's error for operations on a
// closed connection onto ErrConnectionClosed.
func closedConnError(err error) error {
	if errors.Is(err, net.ErrClosed) {
		return ErrConnectionClosed
	}
	return err
}
