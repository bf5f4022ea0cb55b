// Package notify implements the notification broker described in spec
// §3/§4.8 (C8): a subscribe/publish mechanism, keyed by
// (notification-id, source-id, subscriber-id), with response-count
// accounting for the pre/post transition hand-offs modules use it for.
package notify

import (
	"github.com/scpfw/corefw/pkg/arena"
	"github.com/scpfw/corefw/pkg/event"
	"github.com/scpfw/corefw/pkg/fwerr"
	"github.com/scpfw/corefw/pkg/ident"
	"github.com/scpfw/corefw/pkg/list"
)

// Enqueuer is the one capability the broker needs from the dispatcher:
// the ability to put_event a notification event. Depending on this
// narrow interface, rather than the dispatcher package directly, keeps
// notify free of a dependency on module lookup/delayed-response
// matching that has nothing to do with subscriptions.
type Enqueuer interface {
	PutEvent(req event.Request, hint event.Hint) (cookie uint32, code fwerr.Code)
}

// Subscription is one (source, subscriber) pair on a notification's
// list. Cookie holds the cookie of the last notification event sent to
// this subscriber with a response requested; the broker does not clear
// it when that response arrives.
type Subscription struct {
	Source     ident.Id
	Subscriber ident.Id
	Cookie     uint32
}

// Broker owns a fixed-capacity, arena-backed subscription pool and one
// list per notification id.
type Broker struct {
	slots []Subscription
	links []list.Links
	free  list.List
	lists map[ident.Id]*list.List

	enqueuer Enqueuer

	// notifyObserver, if set, is called after every Notify with the
	// notification id's string form and the number of subscribers
	// reached. It lets a caller (e.g. pkg/runtime) record fan-out
	// metrics without this package depending on pkg/metrics.
	notifyObserver func(notificationName string, count int)
}

// SetNotifyObserver registers fn to be called after every Notify call
// with the notification id it fanned out on and the subscriber count
// reached.
func (b *Broker) SetNotifyObserver(fn func(notificationName string, count int)) {
	b.notifyObserver = fn
}

// NewBroker allocates a capacity-slot subscription pool from a.
func NewBroker(a *arena.Arena, capacity int, enqueuer Enqueuer) *Broker {
	b := &Broker{
		slots:    arena.AllocSliceFrom[Subscription](a, capacity),
		links:    list.NewLinksArray(capacity),
		free:     list.New(),
		lists:    make(map[ident.Id]*list.List),
		enqueuer: enqueuer,
	}
	for i := capacity - 1; i >= 0; i-- {
		b.free.PushHead(b.links, list.Index(i))
	}
	return b
}

func (b *Broker) listFor(notificationID ident.Id) *list.List {
	if l, ok := b.lists[notificationID]; ok {
		return l
	}
	l := new(list.List)
	*l = list.New()
	b.lists[notificationID] = l
	return l
}

// Subscribe adds (sourceID, subscriberID) to notificationID's list,
// rejecting an exact duplicate triple.
func (b *Broker) Subscribe(notificationID, sourceID, subscriberID ident.Id) fwerr.Code {
	l := b.listFor(notificationID)
	for cur := l.Head(); cur != list.Nil; cur = list.Next(b.links, cur) {
		s := &b.slots[cur]
		if s.Source.Equal(sourceID) && s.Subscriber.Equal(subscriberID) {
			return fwerr.InvalidState
		}
	}
	i := b.free.PopHead(b.links)
	if i == list.Nil {
		return fwerr.NoMemory
	}
	b.slots[i] = Subscription{Source: sourceID, Subscriber: subscriberID}
	l.PushTail(b.links, i)
	return fwerr.Success
}

// Unsubscribe removes the (sourceID, subscriberID) triple. Removing a
// triple that was never subscribed is an error.
func (b *Broker) Unsubscribe(notificationID, sourceID, subscriberID ident.Id) fwerr.Code {
	l := b.listFor(notificationID)
	for cur := l.Head(); cur != list.Nil; cur = list.Next(b.links, cur) {
		s := &b.slots[cur]
		if s.Source.Equal(sourceID) && s.Subscriber.Equal(subscriberID) {
			l.Remove(b.links, cur)
			b.slots[cur] = Subscription{}
			b.free.PushHead(b.links, cur)
			return fwerr.Success
		}
	}
	return fwerr.InvalidParam
}

// Notify fans a notification out to every subscriber whose stored
// source matches sourceID, or whose stored source is ident.None (a
// wildcard subscription), in subscribe order (spec §4.8's ordering
// guarantee). It returns the number of subscribers the event was
// enqueued to. If responseRequested is set, each matched record's
// Cookie is populated with its dispatched event's cookie.
func (b *Broker) Notify(notificationID, sourceID ident.Id, params event.Params, responseRequested bool) (count int, code fwerr.Code) {
	l := b.listFor(notificationID)
	for cur := l.Head(); cur != list.Nil; cur = list.Next(b.links, cur) {
		s := &b.slots[cur]
		if !s.Source.IsNone() && !s.Source.Equal(sourceID) {
			continue
		}
		req := event.Request{
			ID:                notificationID,
			Source:            sourceID,
			Target:            s.Subscriber,
			IsNotification:    true,
			ResponseRequested: responseRequested,
			Params:            params,
		}
		cookie, c := b.enqueuer.PutEvent(req, event.HintAuto)
		if c != fwerr.Success {
			continue
		}
		if responseRequested {
			s.Cookie = cookie
		}
		count++
	}
	if b.notifyObserver != nil {
		b.notifyObserver(notificationID.String(), count)
	}
	return count, fwerr.Success
}

// NotifyCount reports how many subscribers notificationID currently has,
// regardless of source filtering — the same "fan-out count" exposed as a
// standalone query (spec §6).
func (b *Broker) NotifyCount(notificationID ident.Id) int {
	return b.listFor(notificationID).Len(b.links)
}

// SubscriptionCount reports the total number of active subscriptions
// across every notification id, for metrics collection.
func (b *Broker) SubscriptionCount() int {
	total := 0
	for _, l := range b.lists {
		total += l.Len(b.links)
	}
	return total
}

// ResponseCounter is a small convenience an originator can use to track
// outstanding notification responses, per spec §4.8's "quantified
// response accounting": the broker itself does not own this count,
// since waiting on it is the originator's own state machine's job.
type ResponseCounter struct {
	outstanding int
}

// NewResponseCounter seeds a counter with the fan-out count Notify
// returned.
func NewResponseCounter(dispatched int) *ResponseCounter {
	return &ResponseCounter{outstanding: dispatched}
}

// OnResponse records one received response and reports whether every
// expected response has now arrived.
func (c *ResponseCounter) OnResponse() (done bool) {
	if c.outstanding > 0 {
		c.outstanding--
	}
	return c.outstanding == 0
}

// Outstanding returns the number of responses still awaited.
func (c *ResponseCounter) Outstanding() int { return c.outstanding }
