package varlink

import (
	"bufio"
	stdjson "encoding/json"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Call is one method call received by a Service. Interface
// implementations use it to read the call parameters and to send zero or
// more replies, as the request flags allow. Returning an error from a
// handler instead of replying terminates the client connection.
type Call struct {
	writer *bufio.Writer
	in     *Request

	iface    Interface
	upgraded bool
}

// WantsMore indicates if the calling client accepts more than one reply.
func (c *Call) WantsMore() bool {
	return c.in.More
}

// WantsUpgrade indicates if the client wants raw connection I/O after
// the final reply.
func (c *Call) WantsUpgrade() bool {
	return c.in.Upgrade
}

// IsOneway indicates if the calling client does not expect a reply.
func (c *Call) IsOneway() bool {
	return c.in.Oneway
}

// GetParameters decodes the call parameters into in. A failure
// identifies the offending field when the input allows it; the decoder
// error stays attached as cause.
func (c *Call) GetParameters(in interface{}) error {
	if c.in.Parameters == nil {
		return &ParameterError{err: errors.New("no parameters")}
	}
	return decodeParameters(*c.in.Parameters, in)
}

func decodeParameters(data []byte, in interface{}) error {
	err := json.Unmarshal(data, in)
	if err == nil {
		return nil
	}

	// The standard decoder reports the field that did not fit; run it
	// over the same input to name the parameter.
	var typeErr *stdjson.UnmarshalTypeError
	if serr := stdjson.Unmarshal(data, in); errors.As(serr, &typeErr) && typeErr.Field != "" {
		return &ParameterError{Parameter: typeErr.Field, err: err}
	}

	return &ParameterError{err: decodeError(data, err)}
}

// sendMessage writes one reply frame. Under oneway it writes nothing,
// whatever the outcome of the call was.
func (c *Call) sendMessage(r *Reply) error {
	if c.in.Oneway {
		return nil
	}
	return writeMessage(c.writer, r)
}

// Reply sends the final reply to this method call. On a call made with
// the upgrade flag this also hands the connection over to raw I/O. A
// oneway call never upgrades; its final reply was never delivered.
func (c *Call) Reply(parameters interface{}) error {
	err := c.sendMessage(&Reply{
		Parameters: parameters,
	})
	if err == nil && c.in.Upgrade && !c.in.Oneway {
		c.upgraded = true
	}
	return err
}

// ReplyContinues sends one reply of a stream. It is only valid when the
// client asked with the more flag; the reply carries the continues flag.
func (c *Call) ReplyContinues(parameters interface{}) error {
	if !c.in.More {
		return errors.New("varlink: call did not set more, it does not expect continues")
	}

	return c.sendMessage(&Reply{
		Continues:  true,
		Parameters: parameters,
	})
}

// ReplyError sends a named error reply to this method call. The name
// must be interface-qualified and must not claim the org.varlink.service
// namespace.
func (c *Call) ReplyError(name string, parameters interface{}) error {
	r := strings.LastIndex(name, ".")
	if r <= 0 {
		return errors.Errorf("varlink: invalid error name %q", name)
	}
	if name[:r] == "org.varlink.service" {
		return errors.New("varlink: refused to send org.varlink.service errors")
	}

	return c.sendMessage(&Reply{
		Error:      name,
		Parameters: parameters,
	})
}

// ReplyInvalidParameter sends the org.varlink.service.InvalidParameter
// error naming the given parameter.
func (c *Call) ReplyInvalidParameter(parameter string) error {
	return c.sendMessage(&Reply{
		Error:      "org.varlink.service.InvalidParameter",
		Parameters: InvalidParameter_Error{Parameter: parameter},
	})
}

// ReplyParameterError turns a failed GetParameters into the matching
// InvalidParameter reply. When the decode error did not identify a
// field, fallback names the parameter. The cause is kept in the log for
// diagnostics.
func (c *Call) ReplyParameterError(err error, fallback string) error {
	parameter := fallback

	var perr *ParameterError
	if errors.As(err, &perr) && perr.Parameter != "" {
		parameter = perr.Parameter
	}

	log.WithError(err).Debugf("varlink: invalid parameters for %s", c.in.Method)
	return c.ReplyInvalidParameter(parameter)
}

func (c *Call) replyInterfaceNotFound(name string) error {
	return c.sendMessage(&Reply{
		Error:      "org.varlink.service.InterfaceNotFound",
		Parameters: InterfaceNotFound_Error{Interface: name},
	})
}

func (c *Call) replyMethodNotFound(method string) error {
	return c.sendMessage(&Reply{
		Error:      "org.varlink.service.MethodNotFound",
		Parameters: MethodNotFound_Error{Method: method},
	})
}

func (c *Call) replyMethodNotImplemented(method string) error {
	return c.sendMessage(&Reply{
		Error:      "org.varlink.service.MethodNotImplemented",
		Parameters: MethodNotImplemented_Error{Method: method},
	})
}
