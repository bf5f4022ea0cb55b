// Package dispatch implements the dispatcher: put_event's full
// orchestration on top of pkg/event's pool primitives, and the
// process_next_event step that pops a runnable slot, resolves it to its
// target module, and invokes the matching hook — parking a delayed
// response on the target's delayed-response list, or pushing an
// immediate response back onto the runnable queue, instead of releasing
// the slot.
package dispatch
