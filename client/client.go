// Package client implements the TCP client of spec component H: a
// lazily opened connection that assembles a message, writes it framed,
// reads and parses the framed response, and reconnects on the next
// Send after any I/O failure.
package client

import (
	"bufio"
	"fmt"
	"net"
	"sync"

	"github.com/kestrelpay/iso8583"
	"github.com/kestrelpay/iso8583/frame"
)

// Client holds the server address, Spec and MLI variant, opening its
// connection lazily on the first Send.
type Client struct {
	addr    string
	spec    *iso8583.Spec
	variant frame.Variant

	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithVariant overrides the default 2E MLI variant.
func WithVariant(v frame.Variant) Option {
	return func(c *Client) { c.variant = v }
}

// New creates a Client targeting addr under spec.
func New(addr string, spec *iso8583.Spec, opts ...Option) *Client {
	c := &Client{addr: addr, spec: spec, variant: frame.TwoExclusive}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send assembles msg, writes it framed, reads and parses the framed
// response. On I/O failure the connection is dropped so the next Send
// reconnects, per 4.G.
func (c *Client) Send(msg *iso8583.Message) (*iso8583.Message, error) {
	payload, err := msg.Assemble()
	if err != nil {
		return nil, fmt.Errorf("client: assemble: %w", err)
	}

	conn, reader, err := c.ensureConn()
	if err != nil {
		return nil, err
	}

	if err := frame.Write(conn, payload, c.variant); err != nil {
		c.dropConn()
		return nil, fmt.Errorf("client: write: %w", err)
	}

	n, err := frame.Read(reader, c.variant)
	if err != nil {
		c.dropConn()
		return nil, fmt.Errorf("client: read MLI: %w", err)
	}

	body, err := frame.ReadPayload(reader, n)
	if err != nil {
		c.dropConn()
		return nil, fmt.Errorf("client: read body: %w", err)
	}

	resp, err := c.spec.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("client: parse response: %w", err)
	}
	return resp, nil
}

func (c *Client) ensureConn() (net.Conn, *bufio.Reader, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return c.conn, c.reader, nil
	}

	conn, err := net.Dial("tcp", c.addr)
	if err != nil {
		return nil, nil, fmt.Errorf("client: dial: %w", err)
	}
	c.conn = conn
	c.reader = bufio.NewReader(conn)
	return c.conn, c.reader, nil
}

func (c *Client) dropConn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
		c.reader = nil
	}
}

// Close releases the underlying connection, if any.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.reader = nil
	return err
}
