package varlink

import (
	"bufio"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Flags passed to Connection.Send.
const (
	// More requests a stream of replies; every reply but the last one
	// carries the continues flag.
	More uint64 = 1 << iota

	// Oneway requests that the service sends no reply at all.
	Oneway

	// Upgrade hands the connection over to raw byte I/O after the final
	// reply. The varlink framing no longer applies afterwards.
	Upgrade
)

// Request is one varlink method call as it travels on the wire, a single
// JSON object terminated by a NUL byte.
type Request struct {
	Method     string               `json:"method"`
	Parameters *jsoniter.RawMessage `json:"parameters,omitempty"`
	More       bool                 `json:"more,omitempty"`
	Oneway     bool                 `json:"oneway,omitempty"`
	Upgrade    bool                 `json:"upgrade,omitempty"`
}

// Reply is one message sent back by a service. It either carries the
// method's out parameters or a qualified error name with error parameters,
// never both. Continues marks a streamed reply with further replies
// pending.
type Reply struct {
	Parameters interface{} `json:"parameters,omitempty"`
	Continues  bool        `json:"continues,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// writeMessage frames m as one NUL-terminated JSON object and flushes it.
func writeMessage(writer *bufio.Writer, m interface{}) error {
	b, err := json.Marshal(m)
	if err != nil {
		return &SerializationError{Kind: SerializationOther, err: err}
	}

	b = append(b, 0)
	if _, err := writer.Write(b); err != nil {
		return errors.Wrap(err, "write message")
	}

	return errors.Wrap(writer.Flush(), "flush message")
}

// readMessage accumulates bytes from reader until the NUL terminator and
// returns the message without it. There is no length prefix; the
// terminator or a stream error ends the frame.
func readMessage(reader *bufio.Reader) ([]byte, error) {
	out, err := reader.ReadBytes('\x00')
	if err != nil {
		return nil, err
	}

	return out[:len(out)-1], nil
}

// decodeMessage unmarshals one received frame, classifying failures.
func decodeMessage(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return decodeError(data, err)
	}

	return nil
}

// decodeError wraps an unmarshal failure with its classification:
// truncated input, malformed syntax, or a structural mismatch.
func decodeError(data []byte, err error) error {
	kind := SerializationData

	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		kind = SerializationTruncated

	case !json.Valid(data):
		kind = SerializationSyntax
	}

	return &SerializationError{Kind: kind, err: err}
}
