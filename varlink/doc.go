/*
Package varlink provides varlink client and server implementations. See http://varlink.org
for more information about varlink.

Services listen on one of three transports, given as a scheme-prefixed
address:

	tcp:127.0.0.1:12345
	unix:/run/org.example.this
	unix:@org.example.this

Example varlink interface definition in a org.example.this.varlink file:

	interface org.example.this

	method Ping(in: string) -> (out: string)

Generated Go module in a orgexamplethis/orgexamplethis.go file. The generated module
provides typed parameter structs, server reply helpers and client call
constructors for all methods specified in the varlink interface description.

Service implementing the interface and its methods:

	service, err := varlink.NewService(
		"Example",
		"This",
		"1",
		"https://example.org/this",
	)
	if err != nil {
		// handle error
	}

	iface := orgexamplethis.New()
	iface.Methods["Ping"] = func(c *varlink.Call) error {
		var in orgexamplethis.Ping_In
		if err := c.GetParameters(&in); err != nil {
			return c.ReplyParameterError(err, "in")
		}
		return orgexamplethis.ReplyPing(c, orgexamplethis.Ping_Out{Out: in.In})
	}

	service.RegisterInterface(iface)
	err = service.Listen("unix:/run/org.example.this", 0)

When run under a service manager that passes a pre-opened listening
socket, the descriptor is adopted instead of binding anew. A nonzero
listen timeout shuts the service down after that much time without a new
connection while no request is in flight.

Client connecting to a service:

	ctx := context.Background()
	conn, err := varlink.NewConnection(ctx, "unix:/run/org.example.this")
	if err != nil {
		// handle error
	}
	defer conn.Close()

	var out orgexamplethis.Ping_Out
	err = conn.Call("org.example.this.Ping", orgexamplethis.Ping_In{In: "hello"}, &out)

Streaming calls ask with the More flag and drain the reply iterator:

	r, err := conn.Send("org.example.this.Ping", orgexamplethis.Ping_In{In: "hello"}, varlink.More)
	if err != nil {
		// handle error
	}
	for {
		var out orgexamplethis.Ping_Out
		continues, err := r.Receive(&out)
		if err != nil {
			// io.EOF marks exhaustion
			break
		}
		if !continues {
			break
		}
	}
*/
package varlink
