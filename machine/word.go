// Package machine implements the fetch/decode/step virtual machine: a
// fixed word-addressed memory, an assembler for the textual instruction
// set, and the single-machine execution engine. The multi-machine
// scheduler and message router live one level up, in package canvas.
package machine

// Word is the universal scalar: every address, opcode, stack cell and
// pixel value is one unsigned 16-bit word.
type Word uint16

// MemorySize is the number of addressable words. It is 65535, not 65536 —
// inherited from the reference implementation this runtime is modeled
// on. Valid addresses are 0..MemorySize-1.
const MemorySize = 65535

// MaxWord is the largest value a Word can hold.
const MaxWord = 0xFFFF
