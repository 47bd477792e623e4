package machine

import "fmt"

// State is one point in the per-machine lifecycle spec.md section 4.6
// names: Loaded --ready--> Ready --step--> Running --step--> Running |
// Halted | Faulted; Halted --ready--> Ready. Faulted is terminal
// within a run.
type State int

const (
	Loaded State = iota
	Ready
	Running
	Halted
	Faulted
)

func (s State) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Halted:
		return "halted"
	case Faulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// StepResult is what one Step call reports.
type StepResult int

const (
	Continued StepResult = iota
	StoppedHalted
)

// DefaultCycleLimit bounds a standalone Run call; the canvas drives
// ticks externally and does not use this limit (see Machine.Run's
// doc comment).
const DefaultCycleLimit = 1000

// registers holds the Machine's four named registers. flags is
// currently unused by any opcode in the minimal ISA but is kept as a
// field so host-supplied opcodes (see the open question on extensible
// actions) have somewhere to store condition state without changing
// the Machine's shape.
type registers struct {
	PC    Word
	SP    Word
	FP    Word
	Flags Word
}

// Machine is a single fetch/decode/step virtual machine: one Memory,
// one register file, one effect-handler set, and the inbox/outbox a
// Router moves messages through. Mirrors the shape of the teacher
// VM's struct (registers + memory + stack + io) generalized to the
// word-oriented ISA this runtime specifies.
type Machine struct {
	ID Word

	mem       *Memory
	regs      registers
	state     State
	handlers  handlers
	events    []Event
	symbols   *SymbolTable

	Inbox  []Message
	Outbox []Message
}

// NewMachine returns a Machine with a fresh, zeroed Memory.
func NewMachine(id Word) *Machine {
	return &Machine{ID: id, mem: NewMemory(), state: Loaded}
}

// Memory exposes the Machine's address space, e.g. for a host
// inspecting data written by LoadSymbols.
func (m *Machine) Memory() *Memory { return m.mem }

// Events returns the machine's append-only effect log.
func (m *Machine) Events() []Event { return m.events }

// State reports the current lifecycle state.
func (m *Machine) State() State { return m.state }

// SP returns the current stack pointer register, e.g. for a host
// calling Memory.ReadStack.
func (m *Machine) SP() Word { return m.regs.SP }

// IsHalted reports whether the machine will no longer execute
// instructions: Halted or Faulted both qualify, matching the router's
// is_halted aggregate (spec.md section 4.5).
func (m *Machine) IsHalted() bool {
	return m.state == Halted || m.state == Faulted
}

// LoadCode writes the compiled ops into the code segment. Valid from
// the Loaded state onward; does not itself change state.
func (m *Machine) LoadCode(ops []Op) error {
	return m.mem.LoadCode(ops)
}

// LoadSymbols writes the parser's symbol table into the data segment
// and retains it, so ReadStack-adjacent debugging can resolve names
// later if the host wants to.
func (m *Machine) LoadSymbols(symbols *SymbolTable) error {
	if err := m.mem.LoadSymbols(symbols); err != nil {
		return err
	}
	m.symbols = symbols
	return nil
}

// Ready resets registers and transitions Loaded/Halted -> Ready, per
// spec.md section 4.4: PC to the code origin, SP to StackOrigin+1 (the
// empty stack), flags cleared, state marked non-halted.
func (m *Machine) Ready() {
	m.regs = registers{PC: CodeOrigin, SP: StackOrigin + 1}
	m.state = Ready
	m.Inbox = nil
	m.Outbox = nil
}

func (m *Machine) push(v Word) error {
	if m.regs.SP == 0 {
		return ErrStackOverflow
	}
	m.regs.SP--
	return m.mem.Set(m.regs.SP, v)
}

func (m *Machine) pop() (Word, error) {
	if int(m.regs.SP) > StackOrigin {
		return 0, ErrStackUnderflow
	}
	v, err := m.mem.Get(m.regs.SP)
	if err != nil {
		return 0, err
	}
	m.regs.SP++
	return v, nil
}

// readString dereferences a null-terminated string starting at addr,
// per the layout LoadSymbols wrote it in.
func (m *Machine) readString(addr Word) (string, error) {
	var runes []rune
	for {
		w, err := m.mem.Get(addr)
		if err != nil {
			return "", err
		}
		if w == 0 {
			break
		}
		runes = append(runes, rune(w))
		addr++
	}
	return string(runes), nil
}

// halt transitions the machine to Halted and logs a HaltEvent.
func (m *Machine) halt() {
	m.state = Halted
	m.events = append(m.events, HaltEvent{})
}

// Step fetches the opcode at PC, advances PC past opcode and operand,
// and dispatches. The switch is total over the opcode enumeration —
// any code this doesn't recognize fails with ErrInvalidOpcode.
func (m *Machine) Step() (StepResult, error) {
	if m.IsHalted() {
		return StoppedHalted, nil
	}
	m.state = Running

	opWord, err := m.mem.Get(m.regs.PC)
	if err != nil {
		m.fault()
		return Continued, err
	}
	code := Bytecode(opWord)
	m.regs.PC++

	var arg Word
	if code.HasArg() {
		arg, err = m.mem.Get(m.regs.PC)
		if err != nil {
			m.fault()
			return Continued, err
		}
		m.regs.PC++
	}

	switch code {
	case Noop:
		// nothing

	case Halt, Eof:
		m.halt()
		return StoppedHalted, nil

	case Push:
		if err := m.push(arg); err != nil {
			m.fault()
			return Continued, err
		}

	case Pop:
		if _, err := m.pop(); err != nil {
			m.fault()
			return Continued, err
		}

	case Dup:
		v, err := m.pop()
		if err != nil {
			m.fault()
			return Continued, err
		}
		if err := m.push(v); err != nil {
			m.fault()
			return Continued, err
		}
		if err := m.push(v); err != nil {
			m.fault()
			return Continued, err
		}

	case Swap:
		a, err := m.pop()
		if err != nil {
			m.fault()
			return Continued, err
		}
		b, err := m.pop()
		if err != nil {
			m.fault()
			return Continued, err
		}
		if err := m.push(a); err != nil {
			m.fault()
			return Continued, err
		}
		if err := m.push(b); err != nil {
			m.fault()
			return Continued, err
		}

	case Load:
		v, err := m.mem.Get(arg)
		if err != nil {
			m.fault()
			return Continued, err
		}
		if err := m.push(v); err != nil {
			m.fault()
			return Continued, err
		}

	case Store:
		v, err := m.pop()
		if err != nil {
			m.fault()
			return Continued, err
		}
		if err := m.mem.Set(arg, v); err != nil {
			m.fault()
			return Continued, err
		}

	case LoadString:
		if err := m.push(arg); err != nil {
			m.fault()
			return Continued, err
		}

	case Jump:
		m.regs.PC = arg

	case JumpZero:
		cond, err := m.pop()
		if err != nil {
			m.fault()
			return Continued, err
		}
		if cond == 0 {
			m.regs.PC = arg
		}

	case JumpNotZero:
		cond, err := m.pop()
		if err != nil {
			m.fault()
			return Continued, err
		}
		if cond != 0 {
			m.regs.PC = arg
		}

	case Call:
		if err := m.push(m.regs.PC); err != nil {
			m.fault()
			return Continued, err
		}
		m.regs.PC = arg

	case Return:
		ret, err := m.pop()
		if err != nil {
			m.fault()
			return Continued, err
		}
		m.regs.PC = ret

	case Print:
		ptr, err := m.pop()
		if err != nil {
			m.fault()
			return Continued, err
		}
		text, err := m.readString(ptr)
		if err != nil {
			m.fault()
			return Continued, err
		}
		m.firePrint(text)

	case Send:
		port, length, err := m.popSendHeader()
		if err != nil {
			m.fault()
			return Continued, err
		}
		body := make([]Word, length)
		for i := length - 1; i >= 0; i-- {
			v, err := m.pop()
			if err != nil {
				m.fault()
				return Continued, err
			}
			body[i] = v
		}
		msg := Message{Port: port, Action: DataAction{Body: body}}
		m.Outbox = append(m.Outbox, msg)
		m.events = append(m.events, SendEvent{Message: msg})

	default:
		m.fault()
		return Continued, ErrInvalidOpcode
	}

	return Continued, nil
}

// popSendHeader pops the (port, length) header Send expects below the
// message body: the body is pushed first, then length, then the two
// port words, so header pops happen in port/length order.
func (m *Machine) popSendHeader() (Port, int, error) {
	blockID, err := m.pop()
	if err != nil {
		return Port{}, 0, err
	}
	index, err := m.pop()
	if err != nil {
		return Port{}, 0, err
	}
	length, err := m.pop()
	if err != nil {
		return Port{}, 0, err
	}
	return Port{BlockID: blockID, Index: index}, int(length), nil
}

func (m *Machine) fault() {
	m.state = Faulted
}

// Run steps the machine until it halts, faults, or the cycle limit is
// exceeded. In standalone use (limit > 0) exceeding the limit fails
// with ErrHangingProgram; passing limit <= 0 runs unbounded, which is
// what the canvas relies on since it drives ticks (and therefore
// single Steps) externally instead of calling Run.
func (m *Machine) Run(limit int) error {
	for i := 0; limit <= 0 || i < limit; i++ {
		result, err := m.Step()
		if err != nil {
			return err
		}
		if result == StoppedHalted {
			return nil
		}
	}
	return fmt.Errorf("%w: exceeded %d steps", ErrHangingProgram, limit)
}
