package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUpdater struct {
	period  time.Duration
	updates int
	puts    int
	lastPut any
}

func (u *fakeUpdater) Update(ctx context.Context, c *Controller, a *Attribute) error {
	u.updates++
	return nil
}

func (u *fakeUpdater) Put(ctx context.Context, c *Controller, a *Attribute, value any) error {
	u.puts++
	u.lastPut = value
	a.Set(value)
	return nil
}

func (u *fakeUpdater) Period() time.Duration { return u.period }

func TestAttributeAccessVariants(t *testing.T) {
	r := NewAttrR(Int{})
	w := NewAttrW(Int{})
	rw := NewAttrRW(Int{})

	assert.True(t, r.Readable())
	assert.False(t, r.Writable())
	assert.False(t, w.Readable())
	assert.True(t, w.Writable())
	assert.True(t, rw.Readable())
	assert.True(t, rw.Writable())
}

func TestAttributeGetSet(t *testing.T) {
	a := NewAttrRW(Float{Prec: 2})
	assert.Nil(t, a.Get())

	a.Set(12.5)
	assert.Equal(t, 12.5, a.Get())
}

func TestAttributeUpdaterOption(t *testing.T) {
	u := &fakeUpdater{period: time.Second}
	a := NewAttrR(Bool{}, WithUpdater(u))
	require.NotNil(t, a.Updater())
	assert.Equal(t, time.Second, a.Updater().Period())

	assert.Nil(t, NewAttrR(Bool{}).Updater())
}

func TestControllerRegistrationOrder(t *testing.T) {
	c := NewController("motor1")
	require.NoError(t, c.AddAttribute("b_attr", NewAttrR(Int{})))
	require.NoError(t, c.AddAttribute("a_attr", NewAttrR(Int{})))
	require.NoError(t, c.AddCommand("stop", func(ctx context.Context) error { return nil }))
	require.NoError(t, c.AddCommand("home", func(ctx context.Context) error { return nil }))

	// Registration order, not sorted.
	assert.Equal(t, []string{"b_attr", "a_attr"}, c.AttributeNames())
	assert.Equal(t, []string{"stop", "home"}, c.CommandNames())
}

func TestControllerDuplicateNames(t *testing.T) {
	c := NewController("")
	require.NoError(t, c.AddAttribute("x", NewAttrR(Int{})))
	require.Error(t, c.AddAttribute("x", NewAttrR(Int{})))

	require.NoError(t, c.AddCommand("go", func(ctx context.Context) error { return nil }))
	require.Error(t, c.AddCommand("go", func(ctx context.Context) error { return nil }))
}

func TestControllerConnect(t *testing.T) {
	c := NewController("")
	require.NoError(t, c.Connect(context.Background()), "no connect routine succeeds trivially")

	wantErr := errors.New("port unavailable")
	c.SetConnectFunc(func(ctx context.Context) error { return wantErr })
	assert.ErrorIs(t, c.Connect(context.Background()), wantErr)
}

func TestMappingWalkOrder(t *testing.T) {
	root := NewController("")
	m1 := NewController("motor1")
	m2 := NewController("motor2")
	sub := NewController("motor1/axis")
	m1.AddChild(sub)
	root.AddChild(m1)
	root.AddChild(m2)

	walked := NewMapping(root).Walk()
	paths := make([]string, len(walked))
	for i, c := range walked {
		paths[i] = c.Path()
	}
	assert.Equal(t, []string{"", "motor1", "motor1/axis", "motor2"}, paths)
}

func TestLinkPutTasks(t *testing.T) {
	c := NewController("")
	require.NoError(t, c.AddAttribute("setpoint", NewAttrRW(Float{Prec: 1})))

	var got any
	c.RegisterPutTask("setpoint", func(ctx context.Context, value any) error {
		got = value
		return nil
	})
	require.NoError(t, LinkPutTasks(c))

	a, _ := c.Attribute("setpoint")
	require.NoError(t, a.RunPutTask(context.Background(), 4.5))
	assert.Equal(t, 4.5, got)
}

func TestLinkPutTasksValidation(t *testing.T) {
	c := NewController("")
	c.RegisterPutTask("missing", func(ctx context.Context, value any) error { return nil })
	require.Error(t, LinkPutTasks(c), "task for unknown attribute")

	c2 := NewController("")
	require.NoError(t, c2.AddAttribute("ro", NewAttrR(Int{})))
	c2.RegisterPutTask("ro", func(ctx context.Context, value any) error { return nil })
	require.Error(t, LinkPutTasks(c2), "task for read-only attribute")
}

func TestRunPutTaskWithoutTask(t *testing.T) {
	a := NewAttrRW(Int{})
	require.NoError(t, a.RunPutTask(context.Background(), int64(1)))
}

type recordSender struct {
	calls []string
	vals  []any
}

func (s *recordSender) Send(path, attribute string, value any) {
	s.calls = append(s.calls, path+"/"+attribute)
	s.vals = append(s.vals, value)
}

func TestLinkAttributeSender(t *testing.T) {
	c := NewController("motor1")
	require.NoError(t, c.AddAttribute("velocity", NewAttrR(Int{})))

	s := &recordSender{}
	LinkAttributeSender(c, s)

	a, _ := c.Attribute("velocity")
	a.Set(int64(7))
	a.Set(int64(8))

	require.Equal(t, []string{"motor1/velocity", "motor1/velocity"}, s.calls)
	assert.Equal(t, []any{int64(7), int64(8)}, s.vals)
}
