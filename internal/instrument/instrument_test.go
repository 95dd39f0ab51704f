package instrument

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelldls/FastCS/pkg/connections"
	"github.com/marcelldls/FastCS/pkg/core"
)

// scriptPort answers scripted queries with fixed-width responses.
type scriptPort struct {
	mu        sync.Mutex
	responses map[string]string
	pending   bytes.Buffer
	writes    []string
}

func newScriptPort() *scriptPort {
	return &scriptPort{responses: make(map[string]string)}
}

func (p *scriptPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writes = append(p.writes, string(b))
	if resp, ok := p.responses[string(b)]; ok {
		p.pending.WriteString(resp)
	}
	return len(b), nil
}

func (p *scriptPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending.Len() == 0 {
		return 0, io.EOF
	}
	return p.pending.Read(b)
}

func (p *scriptPort) Close() error { return nil }

func connected(t *testing.T, port *scriptPort) *connections.SerialConnection {
	t.Helper()
	conn := connections.NewSerialConnection(connections.WithOpener(
		func(connections.SerialConnectionSettings) (io.ReadWriteCloser, error) {
			return port, nil
		}))
	require.NoError(t, conn.Connect(context.Background(), connections.NewSettings("test")))
	return conn
}

func TestBoolParamUpdate(t *testing.T) {
	port := newScriptPort()
	port.responses["OUT?\n"] = "1\n"
	client := NewClient(connected(t, port))

	p := &BoolParam{Client: client, Name: "OUT", ResponseSize: 2, UpdatePeriod: time.Second}
	a := core.NewAttrRW(core.Bool{}, core.WithUpdater(p))

	require.NoError(t, p.Update(context.Background(), nil, a))
	assert.Equal(t, true, a.Get())
}

func TestBoolParamPut(t *testing.T) {
	port := newScriptPort()
	client := NewClient(connected(t, port))

	p := &BoolParam{Client: client, Name: "OUT", ResponseSize: 2}
	a := core.NewAttrRW(core.Bool{}, core.WithUpdater(p))

	require.NoError(t, p.Put(context.Background(), nil, a, true))
	assert.Equal(t, []string{"OUT 1\n"}, port.writes)
	assert.Equal(t, true, a.Get())

	require.Error(t, p.Put(context.Background(), nil, a, "yes"))
}

func TestFloatParamUpdate(t *testing.T) {
	port := newScriptPort()
	port.responses["TEMP?\n"] = "0023.50\n"
	client := NewClient(connected(t, port))

	p := &FloatParam{Client: client, Name: "TEMP", ResponseSize: 8, Prec: 2}
	a := core.NewAttrRW(core.Float{Prec: 2}, core.WithUpdater(p))

	require.NoError(t, p.Update(context.Background(), nil, a))
	assert.Equal(t, 23.5, a.Get())
}

func TestFloatParamPut(t *testing.T) {
	port := newScriptPort()
	client := NewClient(connected(t, port))

	p := &FloatParam{Client: client, Name: "TEMP", ResponseSize: 8, Prec: 2}
	a := core.NewAttrRW(core.Float{Prec: 2}, core.WithUpdater(p))

	require.NoError(t, p.Put(context.Background(), nil, a, 40.257))
	assert.Equal(t, []string{"TEMP 40.26\n"}, port.writes)
}

func TestIntParamUpdate(t *testing.T) {
	port := newScriptPort()
	port.responses["VEL?\n"] = "0000123\n"
	client := NewClient(connected(t, port))

	p := &IntParam{Client: client, Name: "VEL", ResponseSize: 8}
	a := core.NewAttrR(core.Int{}, core.WithUpdater(p))

	require.NoError(t, p.Update(context.Background(), nil, a))
	assert.Equal(t, int64(123), a.Get())
}

func TestIntParamUpdateParseFailure(t *testing.T) {
	port := newScriptPort()
	port.responses["VEL?\n"] = "garbage!\n"
	client := NewClient(connected(t, port))

	p := &IntParam{Client: client, Name: "VEL", ResponseSize: 8}
	a := core.NewAttrR(core.Int{}, core.WithUpdater(p))

	require.Error(t, p.Update(context.Background(), nil, a))
	assert.Nil(t, a.Get(), "a failed refresh leaves the cache untouched")
}

func TestNewControllerTree(t *testing.T) {
	conn := connections.NewSerialConnection(connections.WithOpener(
		func(connections.SerialConnectionSettings) (io.ReadWriteCloser, error) {
			return newScriptPort(), nil
		}))

	root, err := NewController(conn, connections.NewSettings("test"))
	require.NoError(t, err)

	assert.Equal(t, []string{"on_off"}, root.AttributeNames())
	require.Len(t, root.Children(), 1)

	motor := root.Children()[0]
	assert.Equal(t, "motor1", motor.Path())
	assert.Equal(t, []string{"temp_sp", "velocity"}, motor.AttributeNames())
	assert.Equal(t, []string{"stop"}, motor.CommandNames())

	onOff, ok := root.Attribute("on_off")
	require.True(t, ok)
	assert.Equal(t, time.Second, onOff.Updater().Period())

	// Connect opens the serial port.
	require.NoError(t, root.Connect(context.Background()))
}

func TestStopCommandWritesStop(t *testing.T) {
	port := newScriptPort()
	conn := connections.NewSerialConnection(connections.WithOpener(
		func(connections.SerialConnectionSettings) (io.ReadWriteCloser, error) {
			return port, nil
		}))

	root, err := NewController(conn, connections.NewSettings("test"))
	require.NoError(t, err)
	require.NoError(t, root.Connect(context.Background()))

	stop, ok := root.Children()[0].Command("stop")
	require.True(t, ok)
	require.NoError(t, stop(context.Background()))
	assert.Equal(t, []string{"STOP\n"}, port.writes)
}
