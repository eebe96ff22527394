package varlink

import (
	"net"
	"os"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Listener accepts varlink connections on one of the three supported
// transports. It either binds the parsed address itself or adopts a
// pre-opened descriptor handed over by the service manager. The adopted
// state decides the teardown behavior, so Close must be called
// explicitly; a finalizer is not guaranteed to run in time.
type Listener struct {
	addr    Address
	inner   net.Listener
	file    *os.File // original adopted descriptor, nil when self-bound
	adopted bool

	closeOnce sync.Once
	closeErr  error
}

// NewListener parses address and returns a listening Listener. A
// satisfied socket activation contract takes precedence over binding;
// the adopted descriptor must match the address kind. For
// filesystem-path Unix sockets a stale socket file is removed before
// binding.
func NewListener(address string) (*Listener, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return nil, err
	}

	inner, file, err := activationListener()
	if err != nil {
		return nil, err
	}

	if inner != nil {
		if !kindMatches(addr.Kind, inner) {
			inner.Close()
			file.Close()
			return nil, errors.Wrapf(ErrInvalidAddress, "activated descriptor does not match %q", address)
		}

		log.Debugf("varlink: adopted activated listener for %s", address)
		l := &Listener{addr: addr, inner: inner, file: file, adopted: true}
		l.notifyReady()
		return l, nil
	}

	if addr.Kind == KindUnix {
		if err := os.Remove(addr.Path); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "remove stale socket %s", addr.Path)
		}
	}

	inner, err = net.Listen(addr.Network(), addr.String())
	if err != nil {
		return nil, errors.Wrapf(err, "listen on %s", address)
	}

	log.Debugf("varlink: listening on %s", address)
	l := &Listener{addr: addr, inner: inner}
	l.notifyReady()
	return l, nil
}

func kindMatches(kind AddressKind, l net.Listener) bool {
	switch l.(type) {
	case *net.TCPListener:
		return kind == KindTCP
	case *net.UnixListener:
		return kind == KindUnix || kind == KindUnixAbstract
	default:
		return false
	}
}

// notifyReady tells a supervising service manager that the socket is
// live. Failure only means there is no manager listening.
func (l *Listener) notifyReady() {
	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.WithError(err).Debug("varlink: sd_notify failed")
	}
}

// Adopted reports whether the listening descriptor was handed over by
// the service manager rather than bound by this process.
func (l *Listener) Adopted() bool { return l.adopted }

// Addr returns the parsed address this listener serves.
func (l *Listener) Addr() Address { return l.addr }

// Accept waits for the next connection.
func (l *Listener) Accept() (net.Conn, error) {
	if l.inner == nil {
		return nil, ErrConnectionClosed
	}

	conn, err := l.inner.Accept()
	if err != nil {
		if errors.Is(err, net.ErrClosed) {
			return nil, ErrConnectionClosed
		}
		return nil, err
	}

	return conn, nil
}

// SetDeadline bounds the next Accept; the accept loop uses it to
// implement the idle timeout without a dedicated timer. A zero time
// waits forever.
func (l *Listener) SetDeadline(t time.Time) error {
	type deadline interface {
		SetDeadline(time.Time) error
	}

	d, ok := l.inner.(deadline)
	if !ok {
		return ErrConnectionClosed
	}
	return d.SetDeadline(t)
}

// isTimeout reports whether err is a deadline expiry rather than a real
// I/O failure.
func isTimeout(err error) bool {
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}

// Close tears the listener down. A self-bound filesystem-path socket has
// its file unlinked best-effort; an adopted descriptor is restored to
// blocking mode and released untouched; TCP and abstract sockets need no
// filesystem action. Close is idempotent.
func (l *Listener) Close() error {
	l.closeOnce.Do(func() {
		l.closeErr = l.inner.Close()

		switch {
		case l.adopted:
			if l.file != nil {
				// Hand the descriptor back the way we got it.
				if err := unix.SetNonblock(int(l.file.Fd()), false); err != nil {
					log.WithError(err).Debug("varlink: restoring blocking mode failed")
				}
				l.file.Close()
			}

		case l.addr.Kind == KindUnix:
			if err := os.Remove(l.addr.Path); err != nil && !os.IsNotExist(err) {
				log.WithError(err).Debugf("varlink: could not unlink %s", l.addr.Path)
			}
		}
	})

	return l.closeErr
}
