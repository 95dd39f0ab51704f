// Package connections provides point-to-point transports for talking to
// physical instruments.
package connections

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/tarm/serial"
)

var (
	// ErrNotOpened is returned by operations invoked before Connect or after
	// Close.
	ErrNotOpened = errors.New("serial connection not opened")

	// ErrAlreadyOpen is returned by Connect while the connection is open. A
	// connection holds exactly one handle; reconnecting requires a fresh
	// SerialConnection.
	ErrAlreadyOpen = errors.New("serial connection already open")

	// ErrClosed is returned by Connect after Close. Closed is a terminal
	// state.
	ErrClosed = errors.New("serial connection closed")
)

// DefaultBaud is the baud rate applied when settings do not specify one.
const DefaultBaud = 115200

// SerialConnectionSettings identifies the physical port to open.
type SerialConnectionSettings struct {
	Port string
	Baud int
}

// NewSettings returns settings for the given port at the default baud rate.
func NewSettings(port string) SerialConnectionSettings {
	return SerialConnectionSettings{Port: port, Baud: DefaultBaud}
}

// Opener opens the physical port for the given settings.
type Opener func(SerialConnectionSettings) (io.ReadWriteCloser, error)

func openTarmPort(s SerialConnectionSettings) (io.ReadWriteCloser, error) {
	baud := s.Baud
	if baud == 0 {
		baud = DefaultBaud
	}
	p, err := serial.OpenPort(&serial.Config{Name: s.Port, Baud: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", s.Port, err)
	}
	return p, nil
}

type connState int

const (
	stateUnopened connState = iota
	stateOpen
	stateClosed
)

// SerialConnection owns a single physical serial link. Every operation holds
// the connection lock for its full duration, so a query's response bytes can
// never be consumed by a concurrent query: the transport is a serialized
// queue of whole request/response units.
type SerialConnection struct {
	opener Opener

	// lock serializes operations. A buffered channel rather than sync.Mutex
	// so acquisition can be abandoned when the caller's context expires.
	lock chan struct{}

	state connState
	port  io.ReadWriteCloser
}

// Option configures a SerialConnection.
type Option func(*SerialConnection)

// WithOpener substitutes the function used to open the physical port.
func WithOpener(o Opener) Option {
	return func(c *SerialConnection) {
		c.opener = o
	}
}

// NewSerialConnection creates an unopened connection.
func NewSerialConnection(opts ...Option) *SerialConnection {
	c := &SerialConnection{
		opener: openTarmPort,
		lock:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *SerialConnection) acquire(ctx context.Context) error {
	select {
	case c.lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *SerialConnection) release() {
	<-c.lock
}

func (c *SerialConnection) ensureOpen() error {
	if c.state != stateOpen {
		return ErrNotOpened
	}
	return nil
}

// Connect opens the physical port. Valid only from the unopened state:
// connecting twice returns ErrAlreadyOpen without touching the existing
// handle, and a closed connection stays closed.
func (c *SerialConnection) Connect(ctx context.Context, settings SerialConnectionSettings) error {
	if err := c.acquire(ctx); err != nil {
		return err
	}
	defer c.release()

	switch c.state {
	case stateOpen:
		return ErrAlreadyOpen
	case stateClosed:
		return ErrClosed
	}

	port, err := c.opener(settings)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	c.port = port
	c.state = stateOpen
	return nil
}

// SendCommand writes message in full. No response is read.
func (c *SerialConnection) SendCommand(ctx context.Context, message []byte) error {
	if err := c.acquire(ctx); err != nil {
		return err
	}
	defer c.release()

	if err := c.ensureOpen(); err != nil {
		return fmt.Errorf("send command: %w", err)
	}
	return c.writeAll(message)
}

// SendQuery writes message in full, then reads exactly responseSize bytes and
// returns them. A short read from the underlying port, including its own
// timeout, propagates unchanged.
func (c *SerialConnection) SendQuery(ctx context.Context, message []byte, responseSize int) ([]byte, error) {
	if err := c.acquire(ctx); err != nil {
		return nil, err
	}
	defer c.release()

	if err := c.ensureOpen(); err != nil {
		return nil, fmt.Errorf("send query: %w", err)
	}
	if err := c.writeAll(message); err != nil {
		return nil, err
	}

	response := make([]byte, responseSize)
	if _, err := io.ReadFull(c.port, response); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return response, nil
}

// Close releases the physical handle. Closing is only valid from an open
// connection; closing an unopened connection returns ErrNotOpened.
func (c *SerialConnection) Close(ctx context.Context) error {
	if err := c.acquire(ctx); err != nil {
		return err
	}
	defer c.release()

	if err := c.ensureOpen(); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	err := c.port.Close()
	c.port = nil
	c.state = stateClosed
	if err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

func (c *SerialConnection) writeAll(message []byte) error {
	n, err := c.port.Write(message)
	if err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	if n < len(message) {
		return fmt.Errorf("serial write: %w", io.ErrShortWrite)
	}
	return nil
}
