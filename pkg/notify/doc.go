// Package notify implements the notification broker: a subscribe/
// unsubscribe/publish mechanism keyed by (notification-id, source-id,
// subscriber-id), walking an arena-backed subscription list on every
// Notify call and routing each match through the dispatcher's put_event.
package notify
