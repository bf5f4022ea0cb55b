package notify_test

import (
	"testing"

	"github.com/scpfw/corefw/pkg/arena"
	"github.com/scpfw/corefw/pkg/event"
	"github.com/scpfw/corefw/pkg/fwerr"
	"github.com/scpfw/corefw/pkg/ident"
	"github.com/scpfw/corefw/pkg/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a notify.Enqueuer test double that just counts calls,
// standing in for a dispatcher.
type recorder struct {
	calls []event.Request
}

func (r *recorder) PutEvent(req event.Request, hint event.Hint) (uint32, fwerr.Code) {
	r.calls = append(r.calls, req)
	return uint32(len(r.calls)), fwerr.Success
}

func TestSubscribeRejectsDuplicate(t *testing.T) {
	a := arena.New(1<<12, nil)
	b := notify.NewBroker(a, 4, &recorder{})

	n := ident.Notification(0, 0)
	sub := ident.Module(1)
	assert.Equal(t, fwerr.Success, b.Subscribe(n, ident.None, sub))
	assert.Equal(t, fwerr.InvalidState, b.Subscribe(n, ident.None, sub))
	assert.Equal(t, 1, b.NotifyCount(n))
}

func TestUnsubscribeUnknownFails(t *testing.T) {
	a := arena.New(1<<12, nil)
	b := notify.NewBroker(a, 4, &recorder{})

	n := ident.Notification(0, 0)
	assert.Equal(t, fwerr.InvalidParam, b.Unsubscribe(n, ident.None, ident.Module(1)))
}

// TestNotifyFansOutInSubscribeOrder covers S4: notify walks subscribers
// in the order they subscribed and dispatches one event per subscriber.
func TestNotifyFansOutInSubscribeOrder(t *testing.T) {
	a := arena.New(1<<12, nil)
	rec := &recorder{}
	b := notify.NewBroker(a, 4, rec)

	n := ident.Notification(0, 0)
	require.Equal(t, fwerr.Success, b.Subscribe(n, ident.None, ident.Module(1)))
	require.Equal(t, fwerr.Success, b.Subscribe(n, ident.None, ident.Module(2)))

	count, code := b.Notify(n, ident.Module(0), event.Params{}, true)
	require.Equal(t, fwerr.Success, code)
	assert.Equal(t, 2, count)
	require.Len(t, rec.calls, 2)
	assert.True(t, rec.calls[0].Target.Equal(ident.Module(1)))
	assert.True(t, rec.calls[1].Target.Equal(ident.Module(2)))
}

func TestNotifyFiltersBySource(t *testing.T) {
	a := arena.New(1<<12, nil)
	rec := &recorder{}
	b := notify.NewBroker(a, 4, rec)

	n := ident.Notification(0, 0)
	require.Equal(t, fwerr.Success, b.Subscribe(n, ident.Module(5), ident.Module(1)))

	count, _ := b.Notify(n, ident.Module(6), event.Params{}, false)
	assert.Equal(t, 0, count)
	assert.Empty(t, rec.calls)

	count, _ = b.Notify(n, ident.Module(5), event.Params{}, false)
	assert.Equal(t, 1, count)
}

func TestResponseCounter(t *testing.T) {
	c := notify.NewResponseCounter(3)
	assert.False(t, c.OnResponse())
	assert.False(t, c.OnResponse())
	assert.True(t, c.OnResponse())
	assert.Equal(t, 0, c.Outstanding())
}

func TestSubscriptionPoolExhaustion(t *testing.T) {
	a := arena.New(1<<12, nil)
	b := notify.NewBroker(a, 1, &recorder{})
	n := ident.Notification(0, 0)

	assert.Equal(t, fwerr.Success, b.Subscribe(n, ident.None, ident.Module(1)))
	assert.Equal(t, fwerr.NoMemory, b.Subscribe(n, ident.None, ident.Module(2)))
}
