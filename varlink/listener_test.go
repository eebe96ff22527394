package varlink

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenerTCP(t *testing.T) {
	l, err := NewListener("tcp:127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	assert.False(t, l.Adopted())

	addr := l.inner.Addr().String()
	done := make(chan error, 1)
	go func() {
		conn, err := net.Dial("tcp", addr)
		if err == nil {
			conn.Close()
		}
		done <- err
	}()

	conn, err := l.Accept()
	require.NoError(t, err)
	conn.Close()
	require.NoError(t, <-done)
}

func TestListenerUnix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.sock")

	l, err := NewListener("unix:" + path)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		conn, err := net.Dial("unix", path)
		if err == nil {
			conn.Close()
		}
		done <- err
	}()

	conn, err := l.Accept()
	require.NoError(t, err)
	conn.Close()
	require.NoError(t, <-done)

	// non-adopted listener unlinks its socket file
	require.NoError(t, l.Close())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "socket file still exists after Close")
}

func TestListenerUnixStaleSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stale.sock")

	l, err := NewListener("unix:" + path)
	require.NoError(t, err)
	l.Close()

	// leave a stale file behind and bind again
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	l, err = NewListener("unix:" + path)
	require.NoError(t, err)
	l.Close()
}

func TestListenerUnixAbstract(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("abstract namespace sockets are linux-only")
	}

	name := fmt.Sprintf("varlinktest-listener-%d", os.Getpid())

	l, err := NewListener("unix:@" + name)
	require.NoError(t, err)
	defer l.Close()

	done := make(chan error, 1)
	go func() {
		conn, err := net.Dial("unix", "@"+name)
		if err == nil {
			conn.Close()
		}
		done <- err
	}()

	conn, err := l.Accept()
	require.NoError(t, err)
	conn.Close()
	require.NoError(t, <-done)
}

func TestListenerAdoptedClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adopted.sock")

	// the "service manager" owns the socket
	manager, err := net.Listen("unix", path)
	require.NoError(t, err)
	defer manager.Close()

	file, err := manager.(*net.UnixListener).File()
	require.NoError(t, err)

	inner, err := net.FileListener(file)
	require.NoError(t, err)

	l := &Listener{
		addr:    Address{Kind: KindUnix, Path: path},
		inner:   inner,
		file:    file,
		adopted: true,
	}
	require.True(t, l.Adopted())

	require.NoError(t, l.Close())

	// the adopted descriptor was released...
	assert.ErrorIs(t, file.Close(), os.ErrClosed)

	// ...and the socket path was left for its owner
	_, err = os.Stat(path)
	require.NoError(t, err, "adopted listener unlinked the socket path")

	done := make(chan error, 1)
	go func() {
		conn, err := net.Dial("unix", path)
		if err == nil {
			conn.Close()
		}
		done <- err
	}()

	conn, err := manager.Accept()
	require.NoError(t, err)
	conn.Close()
	require.NoError(t, <-done)

	// idempotent
	require.NoError(t, l.Close())
}

func TestListenerDeadline(t *testing.T) {
	l, err := NewListener("tcp:127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.SetDeadline(time.Now().Add(50*time.Millisecond)))

	_, err = l.Accept()
	require.Error(t, err)
	assert.True(t, isTimeout(err), "expected a timeout error, got %v", err)
}

func TestListenerClosed(t *testing.T) {
	l, err := NewListener("tcp:127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, l.Close())

	_, err = l.Accept()
	assert.ErrorIs(t, err, ErrConnectionClosed)

	// idempotent
	require.NoError(t, l.Close())
}
