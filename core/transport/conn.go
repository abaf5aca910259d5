// Package transport moves framed packets over stream connections.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/pyropy/cstocs/lib/packet"
)

const DefaultMaxPacketSize = 64 * 1024

var (
	ErrConnClosed = errors.New("connection closed")
)

type Options struct {
	// MaxPacketSize bounds the payload of a received packet.
	MaxPacketSize uint32
	// IOTimeout applies to every Send and Receive whose context has no deadline.
	// Zero means no timeout.
	IOTimeout time.Duration
}

// Conn sends and receives whole packets over a net.Conn. Send and Receive may
// be used from different goroutines; concurrent Sends are serialized.
type Conn struct {
	conn net.Conn
	opts Options

	sendMu sync.Mutex
}

func NewConn(conn net.Conn, opts Options) *Conn {
	if opts.MaxPacketSize == 0 {
		opts.MaxPacketSize = DefaultMaxPacketSize
	}

	return &Conn{
		conn: conn,
		opts: opts,
	}
}

// Dial connects to a peer.
func Dial(ctx context.Context, addr string, opts Options) (*Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, err)
	}

	return NewConn(conn, opts), nil
}

func (c *Conn) deadline(ctx context.Context) time.Time {
	if d, ok := ctx.Deadline(); ok {
		return d
	}
	if c.opts.IOTimeout > 0 {
		return time.Now().Add(c.opts.IOTimeout)
	}

	return time.Time{}
}

// Send writes one framed packet.
func (c *Conn) Send(ctx context.Context, b []byte) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if err := c.conn.SetWriteDeadline(c.deadline(ctx)); err != nil {
		return c.wrap(ctx, err)
	}

	stop := context.AfterFunc(ctx, func() {
		c.conn.SetWriteDeadline(time.Unix(1, 0))
	})
	defer stop()

	if _, err := c.conn.Write(b); err != nil {
		return c.wrap(ctx, err)
	}

	return nil
}

// Receive reads one framed packet, header included.
func (c *Conn) Receive(ctx context.Context) ([]byte, error) {
	if err := c.conn.SetReadDeadline(c.deadline(ctx)); err != nil {
		return nil, c.wrap(ctx, err)
	}

	stop := context.AfterFunc(ctx, func() {
		c.conn.SetReadDeadline(time.Unix(1, 0))
	})
	defer stop()

	b, err := packet.ReadFrame(c.conn, c.opts.MaxPacketSize)
	if err != nil {
		return nil, c.wrap(ctx, err)
	}

	return b, nil
}

func (c *Conn) wrap(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	// the conn deadline can fire before the context notices its own
	var netErr net.Error
	if d, ok := ctx.Deadline(); ok && errors.As(err, &netErr) && netErr.Timeout() && !time.Now().Before(d) {
		return context.DeadlineExceeded
	}
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return ErrConnClosed
	}

	return err
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

func (c *Conn) Close() error {
	return c.conn.Close()
}
