package client

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/PhantomXD-nepal/KrishnaBackend/pkg/resp"
)

// DefaultDialTimeout applies when the Dial context has no deadline.
const DefaultDialTimeout = 5 * time.Second

type options struct {
	dialTimeout time.Duration
	maxBulkLen  int
}

// Option configures Dial.
type Option func(*options)

// WithDialTimeout bounds connection setup.
func WithDialTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.dialTimeout = d
		}
	}
}

// WithMaxBulkLen limits a single bulk payload in a reply.
func WithMaxBulkLen(n int) Option {
	return func(o *options) {
		o.maxBulkLen = n
	}
}

// Client is a connection to a KrishnaDB server.
type Client struct {
	addr string

	mu     sync.Mutex
	conn   net.Conn
	r      *resp.Reader
	w      *resp.Writer
	broken error
	closed bool
}

// Dial connects to addr.
func Dial(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	o := options{dialTimeout: DefaultDialTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	d := net.Dialer{Timeout: o.dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &TransportError{Op: "dial", Err: err}
	}

	return &Client{
		addr: addr,
		conn: conn,
		r:    resp.NewReader(conn, resp.WithMaxBulkLen(o.maxBulkLen)),
		w:    resp.NewWriter(conn),
	}, nil
}

// Addr returns the server address the client dialed.
func (c *Client) Addr() string {
	return c.addr
}

// Execute sends command with args and waits for one reply. The context's
// deadline bounds the round trip and cancelling it aborts the call, which
// breaks the connection.
func (c *Client) Execute(ctx context.Context, command string, args ...string) (resp.Value, time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return resp.Value{}, 0, ErrClosed
	}
	if c.broken != nil {
		return resp.Value{}, 0, &TransportError{Op: "execute", Err: c.broken}
	}
	if err := ctx.Err(); err != nil {
		return resp.Value{}, 0, err
	}

	deadline, _ := ctx.Deadline()
	if err := c.conn.SetDeadline(deadline); err != nil {
		return resp.Value{}, 0, c.fail("set deadline", err)
	}
	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(fired)
		_ = c.conn.SetDeadline(time.Unix(1, 0))
	})
	defer func() {
		// A callback already running must land before the next call
		// resets the deadline.
		if !stop() {
			<-fired
		}
	}()

	start := time.Now()

	if err := c.w.Write(resp.Command(command, args...)); err != nil {
		return resp.Value{}, 0, c.fail("write", c.cause(ctx, err))
	}
	if err := c.w.Flush(); err != nil {
		return resp.Value{}, 0, c.fail("write", c.cause(ctx, err))
	}
	reply, err := c.r.Read()
	if err != nil {
		return resp.Value{}, 0, c.fail("read", c.cause(ctx, err))
	}

	latency := time.Since(start)

	if msg, code, ok := reply.AsError(); ok {
		return reply, latency, &CommandError{Message: msg, Code: code}
	}
	return reply, latency, nil
}

// cause prefers the context error when the context ended the call. The
// socket deadline can fire just before the context's own timer.
func (c *Client) cause(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if d, ok := ctx.Deadline(); ok && !time.Now().Before(d) {
		return context.DeadlineExceeded
	}
	return err
}

// fail marks the client broken. Callers hold mu.
func (c *Client) fail(op string, err error) error {
	c.broken = err
	_ = c.conn.Close()
	return &TransportError{Op: op, Err: err}
}

// Close closes the connection. It is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.broken != nil {
		return nil
	}
	return c.conn.Close()
}

// Ping sends PING, optionally with a message to echo.
func (c *Client) Ping(ctx context.Context, message ...string) (resp.Value, time.Duration, error) {
	return c.Execute(ctx, "PING", message...)
}

// Get fetches key. A missing key yields a null value.
func (c *Client) Get(ctx context.Context, key string) (resp.Value, time.Duration, error) {
	return c.Execute(ctx, "GET", key)
}

// Set stores value under key. The server infers the value's type.
func (c *Client) Set(ctx context.Context, key, value string) (resp.Value, time.Duration, error) {
	return c.Execute(ctx, "SET", key, value)
}

// Delete removes key.
func (c *Client) Delete(ctx context.Context, key string) (resp.Value, time.Duration, error) {
	return c.Execute(ctx, "DELETE", key)
}

// Flush removes every key.
func (c *Client) Flush(ctx context.Context) (resp.Value, time.Duration, error) {
	return c.Execute(ctx, "FLUSH")
}

// MGet fetches several keys at once.
func (c *Client) MGet(ctx context.Context, keys ...string) (resp.Value, time.Duration, error) {
	return c.Execute(ctx, "MGET", keys...)
}

// MSet stores alternating key, value arguments.
func (c *Client) MSet(ctx context.Context, pairs ...string) (resp.Value, time.Duration, error) {
	return c.Execute(ctx, "MSET", pairs...)
}

// Edit overwrites an existing key.
func (c *Client) Edit(ctx context.Context, key, value string) (resp.Value, time.Duration, error) {
	return c.Execute(ctx, "EDIT", key, value)
}

// SetFile stores the contents of a file on the server's filesystem.
func (c *Client) SetFile(ctx context.Context, key, path string) (resp.Value, time.Duration, error) {
	return c.Execute(ctx, "SETFILE", key, path)
}

// GetSize reports the stored size of key.
func (c *Client) GetSize(ctx context.Context, key string) (resp.Value, time.Duration, error) {
	return c.Execute(ctx, "GETSIZE", key)
}

// TestInsert stores sizeKB kilobytes of filler under key.
func (c *Client) TestInsert(ctx context.Context, key string, sizeKB int) (resp.Value, time.Duration, error) {
	return c.Execute(ctx, "TESTINSERT", key, strconv.Itoa(sizeKB))
}
