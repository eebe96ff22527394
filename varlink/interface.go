package varlink

import (
	"bufio"
	"net"
)

// Interface is implemented by every varlink interface registered with a
// Service. GetDescription returns the full interface description text,
// which clients retrieve through
// org.varlink.service.GetInterfaceDescription. Dispatch runs one method
// call; an unknown method must be answered with the MethodNotFound
// error.
type Interface interface {
	GetName() string
	GetDescription() string
	Dispatch(c *Call, methodname string) error
}

// UpgradedInterface is implemented by interfaces that accept connection
// upgrades. After the final reply to an upgrade call, DispatchUpgraded
// owns the raw byte stream; the varlink framing is gone until the
// connection shuts down.
type UpgradedInterface interface {
	Interface
	DispatchUpgraded(conn net.Conn, rw *bufio.ReadWriter) error
}

// MethodMap maps method names to their handlers. A nil handler marks a
// method that is declared in the interface description but not
// implemented.
type MethodMap map[string]func(c *Call) error

// InterfaceDefinition implements Interface from an interface description
// and a method table. varlink-generator emits one per .varlink file.
type InterfaceDefinition struct {
	Name        string
	Description string
	Methods     MethodMap
}

// GetName returns the reverse-domain varlink interface name.
func (d *InterfaceDefinition) GetName() string {
	return d.Name
}

// GetDescription returns the varlink interface description text.
func (d *InterfaceDefinition) GetDescription() string {
	return d.Description
}

// Dispatch looks the method up and runs its handler.
func (d *InterfaceDefinition) Dispatch(c *Call, methodname string) error {
	method, ok := d.Methods[methodname]
	if !ok {
		return c.replyMethodNotFound(methodname)
	}
	if method == nil {
		return c.replyMethodNotImplemented(methodname)
	}
	return method(c)
}
