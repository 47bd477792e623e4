package canvas

import (
	"github.com/golang/glog"

	"github.com/heypoom/machine-canvas/machine"
)

// Wire is one directional connection between two ports. At most one
// wire may originate from a given source port and at most one may
// terminate at a given target port — duplicates are coalesced on
// insertion rather than rejected (see Connect).
type Wire struct {
	ID     machine.Word
	Source machine.Port
	Target machine.Port
}

// RunOptions configures Canvas.Run. MaxTicks bounds the hard cycle
// limit spec.md section 9 calls a policy, not a correctness
// constraint; the zero value is replaced with DefaultMaxTicks.
type RunOptions struct {
	MaxTicks int
}

// DefaultMaxTicks is the ceiling the reference implementation uses:
// 999 bounded iterations plus one final unconditional flush tick.
const DefaultMaxTicks = 1000

// Canvas owns every block, every wire, and the Router. Block ids are
// monotonically assigned from len(blocks), matching spec.md section
// 3's "Canvas" entry.
type Canvas struct {
	blocks []*Block
	wires  []Wire
	router *Router
}

// NewCanvas returns an empty Canvas with a fresh Router.
func NewCanvas() *Canvas {
	return &Canvas{router: NewRouter()}
}

// Router exposes the owned Router, e.g. for a host inspecting machine
// state directly.
func (c *Canvas) Router() *Router { return c.router }

// AddMachine allocates the next block id, creates a Router machine
// under that id, and inserts a MachineBlock sharing the same id —
// preserving the invariant block.id == machine_id.
func (c *Canvas) AddMachine() machine.Word {
	id := machine.Word(len(c.blocks))
	c.router.AddWithID(id)
	c.blocks = append(c.blocks, &Block{ID: id, Data: MachineBlock{MachineID: id}})
	return id
}

// AddBlock allocates the next block id and inserts a passive block
// (e.g. a *PixelBlock) under it. A MachineBlock is accepted only if
// its MachineID already exists in the router (otherwise
// MachineNotFoundError); only AddMachine gives the block the same id
// as its machine.
func (c *Canvas) AddBlock(data BlockData) (machine.Word, error) {
	if mb, ok := data.(MachineBlock); ok {
		if _, err := c.router.Get(mb.MachineID); err != nil {
			return 0, err
		}
	}
	id := machine.Word(len(c.blocks))
	c.blocks = append(c.blocks, &Block{ID: id, Data: data})
	return id, nil
}

// GetBlock returns the block at id, or BlockNotFoundError.
func (c *Canvas) GetBlock(id machine.Word) (*Block, error) {
	if int(id) >= len(c.blocks) {
		return nil, BlockNotFoundError{ID: id}
	}
	return c.blocks[id], nil
}

func (c *Canvas) blockExists(id machine.Word) bool {
	return int(id) < len(c.blocks)
}

// Connect wires source to target, applying the rules spec.md section
// 4.6 lists in order: reject self-wires, coalesce onto any existing
// wire sharing the same source OR target, then validate both
// endpoints exist, then append a fresh wire.
func (c *Canvas) Connect(source, target machine.Port) (machine.Word, error) {
	if source == target {
		return 0, CannotWireToItselfError{Port: source}
	}

	for _, w := range c.wires {
		if w.Source == source || w.Target == target {
			return w.ID, nil
		}
	}

	if !c.blockExists(source.BlockID) {
		return 0, BlockNotFoundError{ID: source.BlockID}
	}
	if !c.blockExists(target.BlockID) {
		return 0, BlockNotFoundError{ID: target.BlockID}
	}

	id := machine.Word(len(c.wires))
	c.wires = append(c.wires, Wire{ID: id, Source: source, Target: target})
	return id, nil
}

// PortTarget resolves the block a message leaving source should be
// delivered to, if any wire originates there.
func (c *Canvas) PortTarget(source machine.Port) (machine.Word, bool) {
	for _, w := range c.wires {
		if w.Source == source {
			return w.Target.BlockID, true
		}
	}
	return 0, false
}

// Tick runs the three phases spec.md section 4.6 specifies, in
// order: route, consume, step.
func (c *Canvas) Tick() error {
	routed, err := c.route()
	if err != nil {
		return err
	}
	glog.V(2).Infof("canvas: routed %d message(s)", routed)

	c.consume()

	if !c.router.IsHalted() {
		c.router.Step()
	}

	return nil
}

// route collects every block's outbox (ascending block id) and every
// router machine's outbox (ascending machine id, via
// Router.ConsumeMessages), then delivers each message to its wired
// target — directly into a machine's inbox for a MachineBlock target,
// or into the target block's inbox otherwise.
func (c *Canvas) route() (int, error) {
	var pending []machine.Message

	for _, b := range c.blocks {
		if len(b.Outbox) == 0 {
			continue
		}
		pending = append(pending, b.Outbox...)
		b.Outbox = nil
	}

	pending = append(pending, c.router.ConsumeMessages()...)

	for _, msg := range pending {
		targetID, ok := c.PortTarget(msg.Port)
		if !ok {
			return 0, DisconnectedPortError{Port: msg.Port}
		}

		target, err := c.GetBlock(targetID)
		if err != nil {
			return 0, err
		}

		if mb, ok := target.Data.(MachineBlock); ok {
			m, err := c.router.Get(mb.MachineID)
			if err != nil {
				return 0, err
			}
			m.Inbox = append(m.Inbox, msg)
			continue
		}

		target.Inbox = append(target.Inbox, msg)
	}

	return len(pending), nil
}

// consume drains every block's inbox, ascending id order.
func (c *Canvas) consume() {
	for _, b := range c.blocks {
		b.consume()
	}
}

// Run drives the canvas to quiescence: router.Ready(), then up to
// MaxTicks-1 bounded ticks breaking early once the router halts, then
// one final unconditional tick to flush any last in-flight messages.
// The extra tick after the loop is intentional — preserved from the
// reference implementation's own Canvas::run, which always ticks once
// more even after the router reports halted.
func (c *Canvas) Run(opts RunOptions) error {
	maxTicks := opts.MaxTicks
	if maxTicks <= 0 {
		maxTicks = DefaultMaxTicks
	}

	c.router.Ready()

	for i := 0; i < maxTicks-1; i++ {
		if c.router.IsHalted() {
			break
		}
		if err := c.Tick(); err != nil {
			return err
		}
	}

	return c.Tick()
}
