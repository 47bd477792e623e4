package canvas

import (
	"github.com/golang/glog"

	"github.com/heypoom/machine-canvas/machine"
)

// Router owns every Machine in a canvas, keyed by id, and steps them
// as a group. Grounded on machine/src/canvas/canvas.rs's Router,
// which plays the identical role: Canvas never touches a Machine
// directly, only through Router.
type Router struct {
	machines map[machine.Word]*machine.Machine
	order    []machine.Word // insertion order, ascending by construction
}

// NewRouter returns an empty Router.
func NewRouter() *Router {
	return &Router{machines: make(map[machine.Word]*machine.Machine)}
}

// AddWithID creates a fresh machine under id and takes ownership of it.
func (r *Router) AddWithID(id machine.Word) *machine.Machine {
	m := machine.NewMachine(id)
	r.machines[id] = m
	r.order = append(r.order, id)
	return m
}

// Get returns the machine owned under id, or MachineNotFoundError.
func (r *Router) Get(id machine.Word) (*machine.Machine, error) {
	m, ok := r.machines[id]
	if !ok {
		return nil, MachineNotFoundError{ID: id}
	}
	return m, nil
}

// Ready resets every owned machine to its Ready state.
func (r *Router) Ready() {
	for _, id := range r.order {
		r.machines[id].Ready()
	}
}

// Step advances every non-halted machine by exactly one instruction,
// in ascending id order (spec.md section 5's ordering guarantee).
// Stepping one machine must not observe another's outbox mutations
// from this same call — each Step call only touches its own machine,
// so that invariant holds structurally.
//
// A machine that faults mid-step does not abort the others: Step logs
// the fault and keeps going, matching spec.md section 4.6's guarantee
// that a Faulted machine is a terminal state for that machine alone,
// not a reason to stop routing its siblings.
func (r *Router) Step() {
	stepped := 0
	for _, id := range r.order {
		m := r.machines[id]
		if m.IsHalted() {
			continue
		}
		if _, err := m.Step(); err != nil {
			glog.Warningf("router: machine %d faulted: %v", id, err)
			continue
		}
		stepped++
	}
	glog.V(2).Infof("router: stepped %d/%d machine(s)", stepped, len(r.order))
}

// ConsumeMessages drains every machine's outbox and returns the union
// in insertion order, stable across machines by ascending id.
func (r *Router) ConsumeMessages() []machine.Message {
	var out []machine.Message
	for _, id := range r.order {
		m := r.machines[id]
		if len(m.Outbox) == 0 {
			continue
		}
		out = append(out, m.Outbox...)
		m.Outbox = nil
	}
	return out
}

// IsHalted reports whether every owned machine is Halted or Faulted.
func (r *Router) IsHalted() bool {
	for _, id := range r.order {
		if !r.machines[id].IsHalted() {
			return false
		}
	}
	return true
}
