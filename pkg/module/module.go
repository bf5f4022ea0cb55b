// Package module implements the module/element data model (spec §3) and
// the phased lifecycle driver (spec §4.9, C9): arena-backed context
// allocation, init, element-init, post-init, bind rounds, and start, all
// walked in declaration order.
package module

import (
	"fmt"
	"time"

	"github.com/scpfw/corefw/pkg/arena"
	"github.com/scpfw/corefw/pkg/event"
	"github.com/scpfw/corefw/pkg/fwerr"
	"github.com/scpfw/corefw/pkg/ident"
	"github.com/scpfw/corefw/pkg/list"
	"github.com/scpfw/corefw/pkg/log"
)

// Type tags a module's role. It is informational only; the core does
// not branch on it.
type Type uint8

const (
	TypeDriver Type = iota
	TypeService
	TypeHAL
	TypeProtocol
)

// Response is the scratch response event a handler is given, already
// initialized by the dispatcher with source/target swapped from the
// incoming event and flags reset (spec §4.6 step 3). A handler fills in
// Params and, for an answer that will arrive later, calls MarkDelayed.
type Response struct {
	ID     ident.Id
	Source ident.Id
	Target ident.Id
	Params event.Params

	delayed bool
}

// MarkDelayed announces that the real answer will be supplied later via
// a put_event call carrying IsDelayedResponse and the original cookie.
func (r *Response) MarkDelayed() { r.delayed = true }

// IsDelayed reports whether MarkDelayed was called.
func (r *Response) IsDelayed() bool { return r.delayed }

// Hooks is the capability record a module implements. Per spec §9's
// design note, an absent hook is "this capability is not provided",
// checked structurally (a nil func field) rather than by any sentinel.
type Hooks struct {
	Init                 func(ctx *ModuleContext, elementCount int, config any) fwerr.Code
	ElementInit          func(ctx *ElementContext, subElementCount int, config any) fwerr.Code
	PostInit             func(ctx *ModuleContext) fwerr.Code
	Bind                 func(ctx *ModuleContext, id ident.Id, round int) fwerr.Code
	Start                func(ctx *ModuleContext, id ident.Id) fwerr.Code
	Stop                 func(ctx *ModuleContext) fwerr.Code
	ProcessEvent         func(ctx *ModuleContext, ev *event.Descriptor, resp *Response) fwerr.Code
	ProcessNotification  func(ctx *ModuleContext, ev *event.Descriptor, resp *Response) fwerr.Code
	ProcessBindRequest   func(ctx *ModuleContext, sourceID, targetID ident.Id, apiIdx int) (api any, code fwerr.Code)
}

// Descriptor is the compile-time-constant per-module manifest.
type Descriptor struct {
	Name              string
	Type              Type
	APICount          int
	EventCount        int
	NotificationCount int
	Hooks             Hooks
}

// ElementDesc describes one element of a module's managed entity.
type ElementDesc struct {
	Name            string
	Config          any
	SubElementCount int
}

// Config is a module's per-instance constant payload plus either a
// static element table or a generator callback, per spec §3.
type Config struct {
	Data any

	Elements         []ElementDesc
	GenerateElements func(data any) []ElementDesc
}

func (c Config) resolveElements() []ElementDesc {
	if c.Elements != nil {
		return c.Elements
	}
	if c.GenerateElements != nil {
		return c.GenerateElements(c.Data)
	}
	return nil
}

// ElementContext is the per-element mutable state the core owns.
type ElementContext struct {
	Name            string
	Config          any
	SubElementCount int
	Module          *ModuleContext
	Delayed         list.List
}

// State is a module context's coarse lifecycle position.
type State uint8

const (
	StateUninitialized State = iota
	StateInitialized
	StateElementsInitialized
	StatePostInitialized
	StateBound
	StateStarted
)

// ModuleContext is the per-module mutable state the core owns.
type ModuleContext struct {
	Idx          int
	Desc         *Descriptor
	Config       any
	Elements     []ElementContext
	State        State
	BindRequests uint32
	Delayed      list.List
}

// Phase is the lifecycle driver's current position. Binding (requesting
// an API from another module) is only permitted while Phase ==
// PhaseBinding, per spec §4.9.
type Phase uint8

const (
	PhaseNotStarted Phase = iota
	PhaseAllocated
	PhaseModuleInit
	PhaseElementInit
	PhasePostInit
	PhaseBinding
	PhaseStarted
)

// Table is the compile-time module table plus the lifecycle driver that
// walks it through phases (spec §4.9, C9).
type Table struct {
	arena      *arena.Arena
	descs      []Descriptor
	configs    []Config
	modules    []*ModuleContext
	bindRounds int
	phase      Phase

	// countsCache holds the ident.Counts bounds table computed once
	// allocate() has fixed every module's element/sub-element counts.
	// Counts is called on every strict put_event (pkg/dispatch), and
	// those bounds never change after allocation, so there is no reason
	// to rebuild six slices per call.
	countsCache *ident.Counts

	// bindRoundObserver, if set, is called once per completed bind round
	// with its elapsed time. It lets a caller (e.g. pkg/runtime) record
	// bind-round duration without this package depending on pkg/metrics.
	bindRoundObserver func(round int, elapsed time.Duration)
}

// SetBindRoundObserver registers fn to be called after every bind round
// Boot runs, with the round number and its elapsed time.
func (t *Table) SetBindRoundObserver(fn func(round int, elapsed time.Duration)) {
	t.bindRoundObserver = fn
}

// NewTable returns a Table that will allocate contexts from a and run
// bindRounds rounds of bind() during Boot. bindRounds is typically 2,
// per spec §4.9.
func NewTable(a *arena.Arena, bindRounds int) *Table {
	return &Table{arena: a, bindRounds: bindRounds}
}

// Register adds a module to the table in declaration order and returns
// its module index.
func (t *Table) Register(desc Descriptor, cfg Config) int {
	idx := len(t.descs)
	t.descs = append(t.descs, desc)
	t.configs = append(t.configs, cfg)
	return idx
}

// Phase returns the driver's current lifecycle phase.
func (t *Table) Phase() Phase { return t.phase }

// Module returns the context for module index idx.
func (t *Table) Module(idx int) *ModuleContext {
	if idx < 0 || idx >= len(t.modules) {
		return nil
	}
	return t.modules[idx]
}

// ModuleCount returns the number of registered modules.
func (t *Table) ModuleCount() int { return len(t.modules) }

// Counts returns the ident.Counts bounds table built from the allocated
// contexts, for Id.Validate calls at every boundary crossing. The table
// is built once, on first call after allocate() has run, and cached.
func (t *Table) Counts() ident.Counts {
	if t.countsCache != nil {
		return *t.countsCache
	}
	c := t.buildCounts()
	t.countsCache = &c
	return c
}

func (t *Table) buildCounts() ident.Counts {
	c := ident.Counts{
		ModuleCount:       len(t.modules),
		ElementCount:      make([]int, len(t.modules)),
		SubElementCount:   make([][]int, len(t.modules)),
		APICount:          make([]int, len(t.modules)),
		EventCount:        make([]int, len(t.modules)),
		NotificationCount: make([]int, len(t.modules)),
	}
	for i, m := range t.modules {
		c.ElementCount[i] = len(m.Elements)
		c.APICount[i] = m.Desc.APICount
		c.EventCount[i] = m.Desc.EventCount
		c.NotificationCount[i] = m.Desc.NotificationCount
		subs := make([]int, len(m.Elements))
		for j, e := range m.Elements {
			subs[j] = e.SubElementCount
		}
		c.SubElementCount[i] = subs
	}
	return c
}

// DelayedList resolves id (a Module, Element, or SubElement Id) to the
// owning context's delayed-response list, per spec §4.7.
func (t *Table) DelayedList(id ident.Id) (*list.List, error) {
	modIdx, ok := id.ModuleIdx()
	if !ok {
		return nil, fmt.Errorf("module: %s carries no module index", id)
	}
	ctx := t.Module(modIdx)
	if ctx == nil {
		return nil, fmt.Errorf("module: index %d out of range", modIdx)
	}
	if elemIdx, ok := id.ElementOwnerIdx(); ok {
		if elemIdx < 0 || elemIdx >= len(ctx.Elements) {
			return nil, fmt.Errorf("module: element index %d out of range for module %d", elemIdx, modIdx)
		}
		return &ctx.Elements[elemIdx].Delayed, nil
	}
	return &ctx.Delayed, nil
}

// RequestAPI resolves a bind request: it looks up the module owning
// apiID and invokes its ProcessBindRequest hook. Only valid while the
// driver is in the bind phase; any other phase is access_denied, per
// spec §4.9 ("Binding is only permitted during the bind phase").
func (t *Table) RequestAPI(fromID, apiID ident.Id) (any, fwerr.Code) {
	if t.phase != PhaseBinding {
		return nil, fwerr.AccessDenied
	}
	modIdx, apiIdx, ok := apiID.API()
	if !ok {
		return nil, fwerr.InvalidParam
	}
	target := t.Module(modIdx)
	if target == nil {
		return nil, fwerr.InvalidParam
	}
	h := target.Desc.Hooks.ProcessBindRequest
	if h == nil {
		return nil, fwerr.NoSupport
	}
	target.BindRequests++
	api, code := h(target, fromID, apiID, apiIdx)
	return api, code
}

// Boot runs every lifecycle phase in order: context allocation, module
// init, element init, post init, bindRounds rounds of bind, and start.
// Any hook returning a fatal Code aborts startup, per spec §4.9/§7.
func (t *Table) Boot() error {
	t.allocate()

	for _, ctx := range t.modules {
		if h := ctx.Desc.Hooks.Init; h != nil {
			if code := h(ctx, len(ctx.Elements), ctx.Config); fatalDuringInit(code) {
				return t.fatal(ctx.Desc.Name, "init", code)
			}
		}
		ctx.State = StateInitialized
	}
	t.phase = PhaseModuleInit

	for _, ctx := range t.modules {
		for ei := range ctx.Elements {
			ec := &ctx.Elements[ei]
			if h := ctx.Desc.Hooks.ElementInit; h != nil {
				if code := h(ec, ec.SubElementCount, ec.Config); fatalDuringInit(code) {
					return t.fatal(ctx.Desc.Name, "element_init", code)
				}
			}
		}
		ctx.State = StateElementsInitialized
	}
	t.phase = PhaseElementInit

	for _, ctx := range t.modules {
		if h := ctx.Desc.Hooks.PostInit; h != nil {
			if code := h(ctx); fatalDuringInit(code) {
				return t.fatal(ctx.Desc.Name, "post_init", code)
			}
		}
		ctx.State = StatePostInitialized
	}
	t.phase = PhasePostInit

	t.phase = PhaseBinding
	for round := 0; round < t.bindRounds; round++ {
		start := time.Now()
		for idx, ctx := range t.modules {
			h := ctx.Desc.Hooks.Bind
			if h == nil {
				continue
			}
			if code := h(ctx, ident.Module(idx), round); code.Fatal() {
				return t.fatal(ctx.Desc.Name, "bind", code)
			}
			for ei := range ctx.Elements {
				if code := h(ctx, ident.Element(idx, ei), round); code.Fatal() {
					return t.fatal(ctx.Desc.Name, "bind", code)
				}
			}
		}
		if t.bindRoundObserver != nil {
			t.bindRoundObserver(round, time.Since(start))
		}
	}
	for _, ctx := range t.modules {
		ctx.State = StateBound
	}

	t.phase = PhaseStarted
	for idx, ctx := range t.modules {
		h := ctx.Desc.Hooks.Start
		if h != nil {
			if code := h(ctx, ident.Module(idx)); code.Fatal() {
				return t.fatal(ctx.Desc.Name, "start", code)
			}
			for ei := range ctx.Elements {
				if code := h(ctx, ident.Element(idx, ei)); code.Fatal() {
					return t.fatal(ctx.Desc.Name, "start", code)
				}
			}
		}
		ctx.State = StateStarted
	}

	return nil
}

// fatalDuringInit reports whether code should abort Boot when returned
// from an init/element_init/post_init hook. Pending is ordinarily a
// recoverable status (a hook deferring its response), but spec §4.9
// disallows it during init: a module cannot defer its own
// initialization, so Pending here is treated the same as any other
// non-success code.
func fatalDuringInit(code fwerr.Code) bool {
	return code != fwerr.Success
}

// fatal logs a hook failure at critical severity and returns the error
// that aborts Boot. Per spec §7, init/bind/start hook errors are fatal
// and abort startup; this package reports that fatality as a returned
// error rather than exiting the process itself, so the caller (the main
// loop or a test) decides how the process actually terminates.
func (t *Table) fatal(module, phase string, code fwerr.Code) error {
	log.Logger.Error().
		Str("module", module).
		Str("phase", phase).
		Str("code", code.String()).
		Msg("lifecycle hook failed, aborting startup")
	return fwerr.New(phase, code, fmt.Errorf("module %q failed %s", module, phase))
}

func (t *Table) allocate() {
	t.modules = make([]*ModuleContext, len(t.descs))
	for i := range t.descs {
		mc := arena.AllocFrom[ModuleContext](t.arena)
		mc.Idx = i
		mc.Desc = &t.descs[i]
		mc.Config = t.configs[i].Data
		mc.Delayed = list.New()

		elems := t.configs[i].resolveElements()
		ecs := arena.AllocSliceFrom[ElementContext](t.arena, len(elems))
		for j, ed := range elems {
			ecs[j] = ElementContext{
				Name:            ed.Name,
				Config:          ed.Config,
				SubElementCount: ed.SubElementCount,
				Module:          mc,
				Delayed:         list.New(),
			}
		}
		mc.Elements = ecs
		t.modules[i] = mc
	}
	t.phase = PhaseAllocated
}
