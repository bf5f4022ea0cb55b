// Package ident implements the typed identifier namespace described in
// spec §3/§4.1: a single compact value type that polymorphically names a
// module, element, sub-element, API, event, or notification, so that
// bind, event delivery, and notification subscription can all address
// targets through one type instead of one parameter per kind.
package ident

import "fmt"

// Kind tags which shape of identifier a value holds. Comparing two Ids of
// different kinds is never meaningful, even if their numeric fields
// happen to collide.
type Kind uint8

const (
	KindNone Kind = iota
	KindModule
	KindElement
	KindSubElement
	KindAPI
	KindEvent
	KindNotification
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindModule:
		return "module"
	case KindElement:
		return "element"
	case KindSubElement:
		return "sub_element"
	case KindAPI:
		return "api"
	case KindEvent:
		return "event"
	case KindNotification:
		return "notification"
	default:
		return "unknown"
	}
}

// Id is the tagged-union identifier value. The zero value is None.
type Id struct {
	kind   Kind
	module uint16
	idx    uint16 // element / sub-element-owning element / api / event / notification index
	sub    uint16 // sub-element index, only meaningful for KindSubElement
}

// None is the distinguished, reserved "no identifier" value.
var None = Id{kind: KindNone}

func Module(moduleIdx int) Id {
	return Id{kind: KindModule, module: uint16(moduleIdx)}
}

func Element(moduleIdx, elementIdx int) Id {
	return Id{kind: KindElement, module: uint16(moduleIdx), idx: uint16(elementIdx)}
}

func SubElement(moduleIdx, elementIdx, subElementIdx int) Id {
	return Id{kind: KindSubElement, module: uint16(moduleIdx), idx: uint16(elementIdx), sub: uint16(subElementIdx)}
}

func API(moduleIdx, apiIdx int) Id {
	return Id{kind: KindAPI, module: uint16(moduleIdx), idx: uint16(apiIdx)}
}

func Event(moduleIdx, eventIdx int) Id {
	return Id{kind: KindEvent, module: uint16(moduleIdx), idx: uint16(eventIdx)}
}

func Notification(moduleIdx, notificationIdx int) Id {
	return Id{kind: KindNotification, module: uint16(moduleIdx), idx: uint16(notificationIdx)}
}

// Kind reports the tag of id.
func (id Id) Kind() Kind { return id.kind }

// IsNone reports whether id is the reserved none value.
func (id Id) IsNone() bool { return id.kind == KindNone }

// Equal compares two Ids. Ids of different kinds are never equal, even
// the degenerate case of two Nones compared against a non-None zero
// value: None only equals None.
func (id Id) Equal(other Id) bool {
	return id.kind == other.kind &&
		id.module == other.module &&
		id.idx == other.idx &&
		id.sub == other.sub
}

// ModuleIdx returns the module index every non-None kind carries.
func (id Id) ModuleIdx() (int, bool) {
	if id.kind == KindNone {
		return 0, false
	}
	return int(id.module), true
}

// Module returns id's owning module as a bare Module Id, regardless of
// id's own kind — used to address "the module itself" (e.g. a
// module-scoped delayed-response list) from any finer-grained Id.
func (id Id) Module() Id {
	if id.kind == KindNone {
		return None
	}
	return Module(int(id.module))
}

// Element destructures an Element Id. ok is false for any other kind.
func (id Id) Element() (moduleIdx, elementIdx int, ok bool) {
	if id.kind != KindElement {
		return 0, 0, false
	}
	return int(id.module), int(id.idx), true
}

// SubElement destructures a SubElement Id.
func (id Id) SubElement() (moduleIdx, elementIdx, subElementIdx int, ok bool) {
	if id.kind != KindSubElement {
		return 0, 0, 0, false
	}
	return int(id.module), int(id.idx), int(id.sub), true
}

// API destructures an API Id.
func (id Id) API() (moduleIdx, apiIdx int, ok bool) {
	if id.kind != KindAPI {
		return 0, 0, false
	}
	return int(id.module), int(id.idx), true
}

// Event destructures an Event Id.
func (id Id) Event() (moduleIdx, eventIdx int, ok bool) {
	if id.kind != KindEvent {
		return 0, 0, false
	}
	return int(id.module), int(id.idx), true
}

// Notification destructures a Notification Id.
func (id Id) Notification() (moduleIdx, notificationIdx int, ok bool) {
	if id.kind != KindNotification {
		return 0, 0, false
	}
	return int(id.module), int(id.idx), true
}

// ElementOwnerIdx returns the element index addressed by id, whether id
// is itself an Element or a SubElement of one — used wherever a hook is
// allowed to target either granularity (e.g. the delayed-response store).
func (id Id) ElementOwnerIdx() (elementIdx int, ok bool) {
	switch id.kind {
	case KindElement, KindSubElement:
		return int(id.idx), true
	default:
		return 0, false
	}
}

func (id Id) String() string {
	switch id.kind {
	case KindNone:
		return "none"
	case KindModule:
		return fmt.Sprintf("module(%d)", id.module)
	case KindElement:
		return fmt.Sprintf("element(%d,%d)", id.module, id.idx)
	case KindSubElement:
		return fmt.Sprintf("sub_element(%d,%d,%d)", id.module, id.idx, id.sub)
	case KindAPI:
		return fmt.Sprintf("api(%d,%d)", id.module, id.idx)
	case KindEvent:
		return fmt.Sprintf("event(%d,%d)", id.module, id.idx)
	case KindNotification:
		return fmt.Sprintf("notification(%d,%d)", id.module, id.idx)
	default:
		return "invalid"
	}
}

// Counts describes the statically-known bounds an Id must respect: the
// total module count, plus each module's element/sub-element/api/event/
// notification counts, indexed by module index.
type Counts struct {
	ModuleCount int
	// Per-module bounds, indexed by module index.
	ElementCount      []int
	SubElementCount   [][]int // SubElementCount[module][element]
	APICount          []int
	EventCount        []int
	NotificationCount []int
}

// Validate checks id against the loaded module table's bounds, per
// spec §4.1: every boundary crossing validates kind and range.
func (id Id) Validate(c Counts) error {
	if id.kind == KindNone {
		return nil
	}
	m := int(id.module)
	if m < 0 || m >= c.ModuleCount {
		return fmt.Errorf("ident: %s: module index %d out of range [0,%d)", id, m, c.ModuleCount)
	}
	switch id.kind {
	case KindModule:
		return nil
	case KindElement:
		return boundsCheck(id, "element", int(id.idx), c.ElementCount, m)
	case KindSubElement:
		if err := boundsCheck(id, "element", int(id.idx), c.ElementCount, m); err != nil {
			return err
		}
		if m < len(c.SubElementCount) && int(id.idx) < len(c.SubElementCount[m]) {
			if int(id.sub) >= c.SubElementCount[m][id.idx] {
				return fmt.Errorf("ident: %s: sub-element index %d out of range [0,%d)", id, id.sub, c.SubElementCount[m][id.idx])
			}
		}
		return nil
	case KindAPI:
		return boundsCheck(id, "api", int(id.idx), c.APICount, m)
	case KindEvent:
		return boundsCheck(id, "event", int(id.idx), c.EventCount, m)
	case KindNotification:
		return boundsCheck(id, "notification", int(id.idx), c.NotificationCount, m)
	default:
		return fmt.Errorf("ident: %s: unrecognized kind %d", id, id.kind)
	}
}

func boundsCheck(id Id, what string, idx int, bounds []int, m int) error {
	if m >= len(bounds) {
		return fmt.Errorf("ident: %s: no %s bound recorded for module %d", id, what, m)
	}
	if idx < 0 || idx >= bounds[m] {
		return fmt.Errorf("ident: %s: %s index %d out of range [0,%d)", id, what, idx, bounds[m])
	}
	return nil
}
