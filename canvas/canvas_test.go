package canvas

import (
	"testing"

	"github.com/heypoom/machine-canvas/machine"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

func loadAndReady(t *testing.T, m *machine.Machine, source string) {
	t.Helper()
	ops, symbols, err := machine.Parse(source)
	assert(t, err == nil, "parse error: %v", err)
	assert(t, m.LoadCode(ops) == nil, "load code failed")
	assert(t, m.LoadSymbols(symbols) == nil, "load symbols failed")
	m.Ready()
}

// TestTwoMachinePing mirrors spec.md's literal "two-machine ping"
// scenario: M0 sends one Data message to M1 over a wired port.
func TestTwoMachinePing(t *testing.T) {
	c := NewCanvas()
	m0 := c.AddMachine()
	m1 := c.AddMachine()

	_, err := c.Connect(machine.Port{BlockID: m0, Index: 0}, machine.Port{BlockID: m1, Index: 0})
	assert(t, err == nil, "connect failed: %v", err)

	mach0, err := c.Router().Get(m0)
	assert(t, err == nil, "get m0 failed: %v", err)
	loadAndReady(t, mach0, "push 0xBEEF\npush 1\npush 0\npush 0\nsend\nhalt\n")

	mach1, err := c.Router().Get(m1)
	assert(t, err == nil, "get m1 failed: %v", err)
	loadAndReady(t, mach1, "halt\n")

	assert(t, c.Run(RunOptions{}) == nil, "run failed")

	assert(t, len(mach1.Inbox) == 1, "want 1 message in m1 inbox, got %d", len(mach1.Inbox))
	data, ok := mach1.Inbox[0].Action.(machine.DataAction)
	assert(t, ok, "action is not DataAction: %T", mach1.Inbox[0].Action)
	assert(t, len(data.Body) == 1 && data.Body[0] == 0xBEEF, "body: got %v", data.Body)
}

// TestPixelSink mirrors spec.md's pixel-sink scenario: the last Data
// payload received during a run wins.
func TestPixelSink(t *testing.T) {
	c := NewCanvas()
	m0 := c.AddMachine()
	pixelID, err := c.AddBlock(&PixelBlock{})
	assert(t, err == nil, "add block failed: %v", err)

	_, err = c.Connect(machine.Port{BlockID: m0, Index: 0}, machine.Port{BlockID: pixelID, Index: 0})
	assert(t, err == nil, "connect failed: %v", err)

	mach0, _ := c.Router().Get(m0)
	loadAndReady(t, mach0, `
push 1
push 2
push 3
push 3
push 0
push 0
send
push 9
push 1
push 0
push 0
send
halt
`)

	assert(t, c.Run(RunOptions{}) == nil, "run failed")

	block, err := c.GetBlock(pixelID)
	assert(t, err == nil, "get block failed: %v", err)
	pixel := block.Data.(*PixelBlock)
	assert(t, len(pixel.Pixels) == 1 && pixel.Pixels[0] == 9, "pixels: got %v", pixel.Pixels)
}

// TestDisconnectedPort mirrors spec.md's disconnected-port scenario.
func TestDisconnectedPort(t *testing.T) {
	c := NewCanvas()
	m0 := c.AddMachine()

	mach0, _ := c.Router().Get(m0)
	loadAndReady(t, mach0, "push 0xBEEF\npush 1\npush 0\npush 0\nsend\nhalt\n")

	err := c.Run(RunOptions{})
	_, ok := err.(DisconnectedPortError)
	assert(t, ok, "want DisconnectedPortError, got %v (%T)", err, err)
}

// TestSelfWireRejected mirrors spec.md's self-wire rejection scenario.
func TestSelfWireRejected(t *testing.T) {
	c := NewCanvas()
	m0 := c.AddMachine()

	_, err := c.Connect(machine.Port{BlockID: m0, Index: 0}, machine.Port{BlockID: m0, Index: 0})
	_, ok := err.(CannotWireToItselfError)
	assert(t, ok, "want CannotWireToItselfError, got %v (%T)", err, err)
}

// TestConnectCoalescesOnSharedSourceOrTarget mirrors spec.md's
// idempotent-coalescing law: connecting the same source twice, even
// to a different target, reuses the same wire id, and so does a new
// source wired to an already-wired target (the open question
// preserved from the reference implementation).
func TestConnectCoalescesOnSharedSourceOrTarget(t *testing.T) {
	c := NewCanvas()
	m0 := c.AddMachine()
	m1 := c.AddMachine()
	m2 := c.AddMachine()

	first, err := c.Connect(machine.Port{BlockID: m0, Index: 0}, machine.Port{BlockID: m1, Index: 0})
	assert(t, err == nil, "connect failed: %v", err)

	second, err := c.Connect(machine.Port{BlockID: m0, Index: 0}, machine.Port{BlockID: m2, Index: 0})
	assert(t, err == nil, "connect failed: %v", err)
	assert(t, first == second, "want coalesced wire id %d, got %d", first, second)

	third, err := c.Connect(machine.Port{BlockID: m2, Index: 1}, machine.Port{BlockID: m1, Index: 0})
	assert(t, err == nil, "connect failed: %v", err)
	assert(t, first == third, "want coalesced wire id %d, got %d", first, third)
}

// TestWireUniqueness checks invariant 1 from spec.md section 8: no two
// wires share a source or a target after any sequence of connects.
func TestWireUniqueness(t *testing.T) {
	c := NewCanvas()
	m0 := c.AddMachine()
	m1 := c.AddMachine()

	c.Connect(machine.Port{BlockID: m0, Index: 0}, machine.Port{BlockID: m1, Index: 0})
	c.Connect(machine.Port{BlockID: m0, Index: 0}, machine.Port{BlockID: m1, Index: 0})

	assert(t, len(c.wires) == 1, "want 1 wire, got %d", len(c.wires))
}

// TestBlockIDMatchesInsertionPosition checks invariant 3.
func TestBlockIDMatchesInsertionPosition(t *testing.T) {
	c := NewCanvas()
	a := c.AddMachine()
	b, _ := c.AddBlock(&PixelBlock{})

	assert(t, a == 0, "want block 0, got %d", a)
	assert(t, b == 1, "want block 1, got %d", b)
}

// TestFaultedMachineDoesNotStallSiblings mirrors spec.md section 4.6's
// guarantee that a machine entering Faulted does not abort the others:
// m0 pops an empty stack and faults on the first tick, but m1 keeps
// being stepped across subsequent ticks until it halts normally.
func TestFaultedMachineDoesNotStallSiblings(t *testing.T) {
	c := NewCanvas()
	m0 := c.AddMachine()
	m1 := c.AddMachine()

	mach0, _ := c.Router().Get(m0)
	loadAndReady(t, mach0, "pop\nhalt\n")

	mach1, _ := c.Router().Get(m1)
	loadAndReady(t, mach1, "noop\nnoop\nnoop\nhalt\n")

	assert(t, c.Run(RunOptions{}) == nil, "run failed")

	assert(t, mach0.State() == machine.Faulted, "want m0 Faulted, got %v", mach0.State())
	assert(t, mach1.State() == machine.Halted, "want m1 Halted, got %v", mach1.State())
}

// TestOutboxEmptyAfterTick checks invariant 6.
func TestOutboxEmptyAfterTick(t *testing.T) {
	c := NewCanvas()
	m0 := c.AddMachine()
	m1 := c.AddMachine()
	c.Connect(machine.Port{BlockID: m0, Index: 0}, machine.Port{BlockID: m1, Index: 0})

	mach0, _ := c.Router().Get(m0)
	loadAndReady(t, mach0, "push 1\npush 1\npush 0\npush 0\nsend\nhalt\n")
	mach1, _ := c.Router().Get(m1)
	loadAndReady(t, mach1, "halt\n")

	c.router.Ready()
	assert(t, c.Tick() == nil, "tick failed")
	assert(t, c.Tick() == nil, "tick failed")

	for _, b := range c.blocks {
		assert(t, len(b.Outbox) == 0, "block %d outbox not empty", b.ID)
	}
}
