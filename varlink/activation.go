package varlink

import (
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Socket activation contract: the service manager leaves the listening
// descriptors at fd 3 and up and describes them in the environment.
const (
	listenFdsStart = 3

	// activationName selects our descriptor in LISTEN_FDNAMES when the
	// manager passed more than one.
	activationName = "varlink"
)

// activationFd resolves the activation contract against an environment
// snapshot and a process id. It returns the descriptor to adopt, or
// ok=false when the contract is not satisfied for this process.
func activationFd(env map[string]string, pid int) (fd int, ok bool) {
	nfds, err := strconv.Atoi(env["LISTEN_FDS"])
	if err != nil || nfds < 1 {
		return 0, false
	}

	listenPid, err := strconv.Atoi(env["LISTEN_PID"])
	if err != nil || listenPid != pid {
		return 0, false
	}

	if nfds == 1 {
		return listenFdsStart, true
	}

	names, ok := env["LISTEN_FDNAMES"]
	if !ok {
		return 0, false
	}

	for i, name := range strings.Split(names, ":") {
		if name == activationName {
			return listenFdsStart + i, true
		}
	}

	return 0, false
}

// activationEnv snapshots the activation-related environment variables.
func activationEnv() map[string]string {
	env := make(map[string]string, 3)
	for _, key := range []string{"LISTEN_FDS", "LISTEN_PID", "LISTEN_FDNAMES"} {
		if value, ok := os.LookupEnv(key); ok {
			env[key] = value
		}
	}
	return env
}

// activationListener adopts a listening descriptor handed over by the
// service manager. It returns nil without error when no descriptor was
// passed to this process. The returned file wraps the original adopted
// descriptor; the net.Listener operates on a duplicate.
func activationListener() (net.Listener, *os.File, error) {
	defer os.Unsetenv("LISTEN_PID")
	defer os.Unsetenv("LISTEN_FDS")
	defer os.Unsetenv("LISTEN_FDNAMES")

	fd, ok := activationFd(activationEnv(), os.Getpid())
	if !ok {
		return nil, nil, nil
	}

	unix.CloseOnExec(fd)

	file := os.NewFile(uintptr(fd), "LISTEN_FD_"+strconv.Itoa(fd))
	listener, err := net.FileListener(file)
	if err != nil {
		file.Close()
		return nil, nil, errors.Wrap(err, "adopt activated descriptor")
	}

	return listener, file, nil
}
