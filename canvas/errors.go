// Package canvas implements the scheduler and message router on top of
// package machine: blocks, wires, the router of machines, and the
// host-facing Controller. The core here stays single-threaded
// cooperative, matching machine's own concurrency model.
package canvas

import (
	"fmt"

	"github.com/heypoom/machine-canvas/machine"
)

// BlockNotFoundError reports a reference to a block id the canvas
// does not contain.
type BlockNotFoundError struct {
	ID machine.Word
}

func (e BlockNotFoundError) Error() string {
	return fmt.Sprintf("block %d not found", e.ID)
}

// MachineNotFoundError reports a reference to a machine id the router
// does not own.
type MachineNotFoundError struct {
	ID machine.Word
}

func (e MachineNotFoundError) Error() string {
	return fmt.Sprintf("machine %d not found", e.ID)
}

// DisconnectedPortError reports a message routed to a port with no
// outgoing wire.
type DisconnectedPortError struct {
	Port machine.Port
}

func (e DisconnectedPortError) Error() string {
	return fmt.Sprintf("port %s is not wired to anything", e.Port)
}

// CannotWireToItselfError reports a connect() call whose source and
// target port are identical.
type CannotWireToItselfError struct {
	Port machine.Port
}

func (e CannotWireToItselfError) Error() string {
	return fmt.Sprintf("cannot wire port %s to itself", e.Port)
}

// MachineError wraps a failure that occurred inside a machine's Step,
// keeping the canvas-level error taxonomy closed even when the
// underlying cause came from package machine.
type MachineError struct {
	MachineID machine.Word
	Cause     error
}

func (e MachineError) Error() string {
	return fmt.Sprintf("machine %d faulted: %v", e.MachineID, e.Cause)
}

func (e MachineError) Unwrap() error { return e.Cause }
