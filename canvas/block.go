package canvas

import "github.com/heypoom/machine-canvas/machine"

// BlockEvent is one observable effect a Block recorded, the block-level
// analogue of machine.Event. Grounded on machine/src/canvas/block.rs,
// which keeps an events log per block, not only per machine.
type BlockEvent interface {
	isBlockEvent()
}

// PixelUpdatedEvent records a PixelBlock replacing its buffer.
type PixelUpdatedEvent struct {
	Len int
}

func (PixelUpdatedEvent) isBlockEvent() {}

// BlockData is the closed tagged union of block kinds the canvas
// knows how to dispatch on. New variants are expected over time
// (spec.md section 3) — the consume-phase switch in canvas.go must
// stay exhaustive over every variant added here.
type BlockData interface {
	isBlockData()
}

// MachineBlock is a placeholder: the real machine lives in the
// Router, keyed by the same id as the block (spec.md section 4.6's
// invariant block.id == machine_id).
type MachineBlock struct {
	MachineID machine.Word
}

func (MachineBlock) isBlockData() {}

// PixelBlock is a passive sink storing the most recently received
// Data payload as a pixel buffer.
type PixelBlock struct {
	Pixels []machine.Word
}

func (*PixelBlock) isBlockData() {}

// Block is one node in the canvas graph.
type Block struct {
	ID     machine.Word
	Data   BlockData
	Inbox  []machine.Message
	Outbox []machine.Message
	Events []BlockEvent
}

// consume drains the block's inbox and applies block-type-specific
// semantics, per spec.md section 4.6's tick phase 2. MachineBlock has
// no inbox semantics of its own here — inbound messages for a
// MachineBlock are delivered straight to the owning Machine's inbox
// by the router's route phase, never to Block.Inbox, so this only
// does real work for sink-style blocks like PixelBlock.
func (b *Block) consume() {
	if len(b.Inbox) == 0 {
		return
	}

	switch data := b.Data.(type) {
	case *PixelBlock:
		for _, msg := range b.Inbox {
			if d, ok := msg.Action.(machine.DataAction); ok {
				data.Pixels = append([]machine.Word(nil), d.Body...)
				b.Events = append(b.Events, PixelUpdatedEvent{Len: len(data.Pixels)})
			}
		}
	case MachineBlock:
		// Inbound machine messages are routed directly to the
		// machine's own inbox; nothing to do here.
	}

	b.Inbox = nil
}
