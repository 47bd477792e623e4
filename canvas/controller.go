package canvas

import "github.com/heypoom/machine-canvas/machine"

// RunResult is what RunMachine hands back: the top of the stack plus
// the machine's event log, matching the host-facing API of spec.md
// section 6.
type RunResult struct {
	Stack  []machine.Word
	Events []machine.Event
}

// stackPreviewSize is how many top-of-stack words RunMachine returns,
// per spec.md section 6's "top 10 stack words".
const stackPreviewSize = 10

// Controller is the host-facing entry point, grounded on
// visual-assembly-canvas/machine-wasm/src/controller/mod.rs. The
// original exposes a flat Vec<Machine>; this keeps that exact single-
// machine convenience (RunMachine) while adding a second entry point,
// RunCanvas, for driving a whole wired canvas the original's
// controller predates.
type Controller struct {
	machines []*machine.Machine
	canvas   *Canvas
}

// NewController returns a Controller with no machines and a fresh,
// empty canvas.
func NewController() *Controller {
	return &Controller{canvas: NewCanvas()}
}

// Create resets the controller to a fresh, empty state — mirrors the
// original's create(), which (re)initializes the machine list.
func (c *Controller) Create() {
	c.machines = nil
	c.canvas = NewCanvas()
}

// Add creates a new bare machine (no canvas wiring) and returns its id.
func (c *Controller) Add() machine.Word {
	id := machine.Word(len(c.machines))
	c.machines = append(c.machines, machine.NewMachine(id))
	return id
}

// RunMachine parses source, loads it into the machine referenced by
// id, executes it to completion, and returns the top stack words plus
// the event log — the original controller's run(id, source).
func (c *Controller) RunMachine(id machine.Word, source string) (RunResult, error) {
	if int(id) >= len(c.machines) {
		return RunResult{}, MachineNotFoundError{ID: id}
	}
	m := c.machines[id]

	ops, symbols, err := machine.Parse(source)
	if err != nil {
		return RunResult{}, err
	}
	if err := m.LoadCode(ops); err != nil {
		return RunResult{}, err
	}
	if err := m.LoadSymbols(symbols); err != nil {
		return RunResult{}, err
	}
	m.Ready()

	if err := m.Run(machine.DefaultCycleLimit); err != nil {
		return RunResult{}, MachineError{MachineID: id, Cause: err}
	}

	return c.readResult(m)
}

func (c *Controller) readResult(m *machine.Machine) (RunResult, error) {
	stack, err := m.Memory().ReadStack(m.SP(), stackPreviewSize)
	if err != nil {
		return RunResult{}, err
	}
	return RunResult{Stack: stack, Events: m.Events()}, nil
}

// ReadStack returns up to size words from the top of machine id's
// stack without affecting it.
func (c *Controller) ReadStack(id machine.Word, size int) ([]machine.Word, error) {
	if int(id) >= len(c.machines) {
		return nil, MachineNotFoundError{ID: id}
	}
	m := c.machines[id]
	return m.Memory().ReadStack(m.SP(), size)
}

// Canvas exposes the controller's wired canvas, for callers that want
// to add blocks and connect ports before running it.
func (c *Controller) Canvas() *Canvas { return c.canvas }

// RunCanvas drives the controller's canvas to quiescence.
func (c *Controller) RunCanvas(opts RunOptions) error {
	return c.canvas.Run(opts)
}
