package varlink

import (
	"bufio"
	"io"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DefaultWorkers is the worker pool size used by Listen.
const DefaultWorkers = 10

// Service is an active varlink service. In addition to the registered
// interfaces, every service implements the org.varlink.service
// interface, which lets clients retrieve information about the running
// service and the descriptions of its interfaces.
type Service struct {
	vendor  string
	product string
	version string
	url     string

	interfaces map[string]Interface

	running  atomic.Bool
	stopping atomic.Bool
	listener atomic.Pointer[Listener]
}

// NewService creates a new Service with the given identification. The
// builtin org.varlink.service interface is registered up front.
func NewService(vendor string, product string, version string, url string) (*Service, error) {
	s := &Service{
		vendor:     vendor,
		product:    product,
		version:    version,
		url:        url,
		interfaces: make(map[string]Interface),
	}

	if err := s.RegisterInterface(s.orgVarlinkServiceInterface()); err != nil {
		return nil, err
	}

	return s, nil
}

// RegisterInterface adds a varlink interface to the service. It fails
// for a duplicate name and while the service is running.
func (s *Service) RegisterInterface(iface Interface) error {
	name := iface.GetName()

	if s.running.Load() {
		return errors.New("varlink: service is already running")
	}
	if _, ok := s.interfaces[name]; ok {
		return errors.Errorf("varlink: interface '%s' already registered", name)
	}

	s.interfaces[name] = iface
	return nil
}

func (s *Service) interfaceNames() []string {
	names := make([]string, 0, len(s.interfaces))
	for name := range s.interfaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Service) getInfo(c *Call) error {
	return c.Reply(getInfo_Out{
		Vendor:     s.vendor,
		Product:    s.product,
		Version:    s.version,
		Url:        s.url,
		Interfaces: s.interfaceNames(),
	})
}

func (s *Service) getInterfaceDescription(c *Call) error {
	var in getInterfaceDescription_In
	if err := c.GetParameters(&in); err != nil {
		return c.ReplyParameterError(err, "interface")
	}

	iface, ok := s.interfaces[in.Interface]
	if !ok {
		return c.ReplyInvalidParameter("interface")
	}

	return c.Reply(getInterfaceDescription_Out{Description: iface.GetDescription()})
}

// handleMessage decodes one request frame and dispatches it. The
// returned Call is nil when the frame could not be decoded at all; in
// that case no reply was written and the connection has to go down.
func (s *Service) handleMessage(writer *bufio.Writer, request []byte) (*Call, error) {
	var in Request

	if err := decodeMessage(request, &in); err != nil {
		return nil, err
	}

	c := &Call{writer: writer, in: &in}

	r := strings.LastIndex(in.Method, ".")
	if r <= 0 {
		return c, c.ReplyInvalidParameter("method")
	}

	interfacename := in.Method[:r]
	methodname := in.Method[r+1:]

	iface, ok := s.interfaces[interfacename]
	if !ok {
		return c, c.replyInterfaceNotFound(interfacename)
	}

	c.iface = iface
	return c, iface.Dispatch(c, methodname)
}

// handleConnection is one worker job: it owns the connection for its
// lifetime, serializing all requests pipelined on it.
func (s *Service) handleConnection(st *stream) {
	defer st.shutdown()

	reader, writer := st.split()

	for {
		request, err := readMessage(reader)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(closedConnError(err), ErrConnectionClosed) {
				log.WithError(err).Debug("varlink: connection read failed")
			}
			return
		}

		c, err := s.handleMessage(writer, request)
		if err != nil {
			log.WithError(err).Debug("varlink: request failed")
			return
		}

		if c.upgraded {
			s.handleUpgraded(c, st, reader, writer)
			return
		}
	}
}

// handleUpgraded transfers the connection to the invoked interface for
// raw I/O. Framing never resumes; when the handler returns, the
// connection shuts down.
func (s *Service) handleUpgraded(c *Call, st *stream, reader *bufio.Reader, writer *bufio.Writer) {
	u, ok := c.iface.(UpgradedInterface)
	if !ok {
		log.Debugf("varlink: interface %s does not accept upgrades", c.iface.GetName())
		return
	}

	rw := bufio.NewReadWriter(reader, writer)
	if err := u.DispatchUpgraded(st.conn, rw); err != nil {
		log.WithError(err).Debug("varlink: upgraded connection failed")
	}
}

// Listen serves the registered interfaces on address with DefaultWorkers
// workers. A nonzero timeout makes Listen return ErrIdleTimeout once no
// connection arrived for that long while no worker was busy; outstanding
// work is never cut short.
func (s *Service) Listen(address string, timeout time.Duration) error {
	return s.ListenWorkers(address, timeout, DefaultWorkers)
}

// ListenWorkers is Listen with an explicit worker pool size.
func (s *Service) ListenWorkers(address string, timeout time.Duration, workers int) error {
	if s.running.Swap(true) {
		return errors.New("varlink: service is already running")
	}
	defer s.running.Store(false)
	s.stopping.Store(false)

	l, err := NewListener(address)
	if err != nil {
		return err
	}
	s.listener.Store(l)
	defer l.Close()

	pool := newWorkerPool(workers)
	defer pool.shutdownWait()

	for {
		if timeout > 0 {
			if err := l.SetDeadline(time.Now().Add(timeout)); err != nil {
				return err
			}
		}

		conn, err := l.Accept()
		if err != nil {
			if s.stopping.Load() {
				return nil
			}
			if isTimeout(err) {
				// Best effort: a connection accepted after this check
				// still races the timeout decision.
				if pool.numBusy() == 0 {
					return ErrIdleTimeout
				}
				continue
			}
			return err
		}

		st := newStream(conn)
		pool.execute(func() { s.handleConnection(st) })
	}
}

// Shutdown stops a running Service. It returns once the accept loop has
// been told to stop; Listen itself waits for the workers to drain.
func (s *Service) Shutdown() {
	s.stopping.Store(true)
	if l := s.listener.Load(); l != nil {
		l.Close()
	}
}
