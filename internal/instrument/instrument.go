// Package instrument drives a bench instrument speaking a plain ASCII
// protocol over a serial line: "<NAME>?\n" queries answered with fixed-width
// responses, "<NAME> <value>\n" writes with no response.
package instrument

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/marcelldls/FastCS/pkg/connections"
	"github.com/marcelldls/FastCS/pkg/core"
)

// Client wraps the serial transport with the instrument's query/command
// framing.
type Client struct {
	conn *connections.SerialConnection
}

// NewClient creates a client over the given connection. The connection is
// opened by the controller's connect routine, not here.
func NewClient(conn *connections.SerialConnection) *Client {
	return &Client{conn: conn}
}

// Query sends a command and returns the fixed-size response with surrounding
// whitespace stripped.
func (c *Client) Query(ctx context.Context, command string, responseSize int) (string, error) {
	resp, err := c.conn.SendQuery(ctx, []byte(command), responseSize)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(resp)), nil
}

// Command sends a command that produces no response.
func (c *Client) Command(ctx context.Context, command string) error {
	return c.conn.SendCommand(ctx, []byte(command))
}

// BoolParam maps an attribute onto an instrument parameter reported as "0" or
// "1".
type BoolParam struct {
	Client       *Client
	Name         string
	ResponseSize int
	UpdatePeriod time.Duration
}

func (p *BoolParam) Update(ctx context.Context, c *core.Controller, a *core.Attribute) error {
	s, err := p.Client.Query(ctx, p.Name+"?\n", p.ResponseSize)
	if err != nil {
		return fmt.Errorf("query %s: %w", p.Name, err)
	}
	a.Set(s == "1")
	return nil
}

func (p *BoolParam) Put(ctx context.Context, c *core.Controller, a *core.Attribute, value any) error {
	v, ok := value.(bool)
	if !ok {
		return fmt.Errorf("put %s: value %T is not a bool", p.Name, value)
	}
	n := 0
	if v {
		n = 1
	}
	if err := p.Client.Command(ctx, fmt.Sprintf("%s %d\n", p.Name, n)); err != nil {
		return fmt.Errorf("put %s: %w", p.Name, err)
	}
	a.Set(v)
	return nil
}

func (p *BoolParam) Period() time.Duration { return p.UpdatePeriod }

// FloatParam maps an attribute onto a fixed-width decimal parameter.
type FloatParam struct {
	Client       *Client
	Name         string
	ResponseSize int
	Prec         int
	UpdatePeriod time.Duration
}

func (p *FloatParam) Update(ctx context.Context, c *core.Controller, a *core.Attribute) error {
	s, err := p.Client.Query(ctx, p.Name+"?\n", p.ResponseSize)
	if err != nil {
		return fmt.Errorf("query %s: %w", p.Name, err)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("query %s: parse %q: %w", p.Name, s, err)
	}
	a.Set(v)
	return nil
}

func (p *FloatParam) Put(ctx context.Context, c *core.Controller, a *core.Attribute, value any) error {
	v, ok := value.(float64)
	if !ok {
		return fmt.Errorf("put %s: value %T is not a float", p.Name, value)
	}
	if err := p.Client.Command(ctx, fmt.Sprintf("%s %.*f\n", p.Name, p.Prec, v)); err != nil {
		return fmt.Errorf("put %s: %w", p.Name, err)
	}
	a.Set(v)
	return nil
}

func (p *FloatParam) Period() time.Duration { return p.UpdatePeriod }

// IntParam maps an attribute onto a fixed-width integer parameter.
type IntParam struct {
	Client       *Client
	Name         string
	ResponseSize int
	UpdatePeriod time.Duration
}

func (p *IntParam) Update(ctx context.Context, c *core.Controller, a *core.Attribute) error {
	s, err := p.Client.Query(ctx, p.Name+"?\n", p.ResponseSize)
	if err != nil {
		return fmt.Errorf("query %s: %w", p.Name, err)
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("query %s: parse %q: %w", p.Name, s, err)
	}
	a.Set(v)
	return nil
}

func (p *IntParam) Put(ctx context.Context, c *core.Controller, a *core.Attribute, value any) error {
	v, ok := value.(int64)
	if !ok {
		return fmt.Errorf("put %s: value %T is not an int", p.Name, value)
	}
	if err := p.Client.Command(ctx, fmt.Sprintf("%s %d\n", p.Name, v)); err != nil {
		return fmt.Errorf("put %s: %w", p.Name, err)
	}
	a.Set(v)
	return nil
}

func (p *IntParam) Period() time.Duration { return p.UpdatePeriod }

// NewController builds the controller tree for the instrument: a root with
// the output switch, and a motor sub-controller with setpoint, velocity and a
// stop command. The root's connect routine opens the serial port.
func NewController(conn *connections.SerialConnection, settings connections.SerialConnectionSettings) (*core.Controller, error) {
	client := NewClient(conn)

	root := core.NewController("")
	root.SetConnectFunc(func(ctx context.Context) error {
		return conn.Connect(ctx, settings)
	})

	onOff := core.NewAttrRW(core.Bool{}, core.WithUpdater(&BoolParam{
		Client:       client,
		Name:         "OUT",
		ResponseSize: 2,
		UpdatePeriod: time.Second,
	}))
	if err := root.AddAttribute("on_off", onOff); err != nil {
		return nil, err
	}

	motor := core.NewController("motor1")

	tempSp := core.NewAttrRW(core.Float{Prec: 2}, core.WithUpdater(&FloatParam{
		Client:       client,
		Name:         "TEMP",
		ResponseSize: 8,
		Prec:         2,
		UpdatePeriod: 500 * time.Millisecond,
	}))
	if err := motor.AddAttribute("temp_sp", tempSp); err != nil {
		return nil, err
	}

	velocity := core.NewAttrR(core.Int{}, core.WithUpdater(&IntParam{
		Client:       client,
		Name:         "VEL",
		ResponseSize: 8,
		UpdatePeriod: 250 * time.Millisecond,
	}))
	if err := motor.AddAttribute("velocity", velocity); err != nil {
		return nil, err
	}

	if err := motor.AddCommand("stop", func(ctx context.Context) error {
		return client.Command(ctx, "STOP\n")
	}); err != nil {
		return nil, err
	}

	root.AddChild(motor)
	return root, nil
}
